package vcast

import (
	"bufio"
	"io"
	"regexp"
	"strings"
)

// Sentinel subprogram names the tool emits in listings that are not user
// functions and must never receive a per-function script of their own.
const (
	CompoundSentinel = "<<COMPOUND>>"
	InitSentinel     = "<<INIT>>"
)

// subprogramLine matches the identifier-bearing lines of a test-script
// listing. The rule is structural (comment prefix + field label), not
// positional: listings carry headers, footers, and arbitrary interleaved
// content between subprogram sections.
var subprogramLine = regexp.MustCompile(`(?i)^\s*--\s*Subprogram:\s*(\S+)`)

// ParseSubprograms extracts the ordered, duplicate-free subprogram names from
// a test-script listing. Sentinels are dropped. First occurrence wins the
// ordering for names the tool repeats.
func ParseSubprograms(r io.Reader) ([]string, error) {
	var names []string
	seen := map[string]bool{}
	scanner := bufio.NewScanner(r)
	// Listings embed test-case payload lines that can get long.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		m := subprogramLine.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}
		name := strings.TrimSpace(m[1])
		if name == "" || name == CompoundSentinel || name == InitSentinel {
			continue
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return names, nil
}
