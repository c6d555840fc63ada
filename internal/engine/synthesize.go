package engine

import (
	"fmt"
	"strings"

	"vcreport/internal/vcast"
)

type ArtifactKind string

const (
	ArtifactFunction ArtifactKind = "function"
	ArtifactCompound ArtifactKind = "compound"
)

// CompoundFileName is the fixed file name of the compound artifact. It sorts
// after no user function on purpose; ordering comes from the artifact slice,
// never from directory listings.
const CompoundFileName = "__COMPOUND__.tst"

// ScriptArtifact is one generated test-script unit. Content is final at
// creation; nothing mutates an artifact afterwards.
type ScriptArtifact struct {
	Kind     ArtifactKind
	Function string // empty for the compound artifact
	FileName string
	Content  []byte
}

// synthesizeScripts produces one artifact per function, in discovery order,
// plus the compound artifact last when enabled. File-name mapping must be
// injective: a post-sanitization collision aborts with NameCollisionError
// rather than silently overwriting.
func synthesizeScripts(env vcast.Environment, fns []FunctionRecord, includeCompound bool) ([]ScriptArtifact, error) {
	artifacts := make([]ScriptArtifact, 0, len(fns)+1)
	byFile := map[string]string{}
	for _, fn := range fns {
		fileName := sanitizeFileName(fn.Name) + ".tst"
		if prev, taken := byFile[fileName]; taken {
			return nil, &NameCollisionError{FileName: fileName, First: prev, Second: fn.Name}
		}
		byFile[fileName] = fn.Name
		artifacts = append(artifacts, ScriptArtifact{
			Kind:     ArtifactFunction,
			Function: fn.Name,
			FileName: fileName,
			Content:  functionScript(env, fn.Name),
		})
	}
	if includeCompound {
		if prev, taken := byFile[CompoundFileName]; taken {
			return nil, &NameCollisionError{FileName: CompoundFileName, First: prev, Second: vcast.CompoundSentinel}
		}
		artifacts = append(artifacts, ScriptArtifact{
			Kind:     ArtifactCompound,
			FileName: CompoundFileName,
			Content:  compoundScript(env, fns),
		})
	}
	return artifacts, nil
}

// sanitizeFileName maps a function identifier to a filesystem-safe name.
// Anything outside [A-Za-z0-9._-] becomes '_'. The mapping is deterministic;
// injectivity over one enumeration is enforced by the caller.
func sanitizeFileName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := b.String()
	if out == "" {
		out = "_"
	}
	return out
}

// functionScript renders the per-function skeleton in the tool's test-script
// grammar. Output is fully deterministic: re-running against an unchanged
// module must produce byte-identical artifacts.
func functionScript(env vcast.Environment, fn string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "-- Test Case Script\n")
	fmt.Fprintf(&b, "--\n")
	fmt.Fprintf(&b, "-- Environment: %s\n", env.Name)
	fmt.Fprintf(&b, "-- Unit: %s\n", env.Unit)
	fmt.Fprintf(&b, "-- Subprogram: %s\n", fn)
	fmt.Fprintf(&b, "--\n")
	fmt.Fprintf(&b, "TEST.UNIT:%s\n", env.Unit)
	fmt.Fprintf(&b, "TEST.SUBPROGRAM:%s\n", fn)
	fmt.Fprintf(&b, "TEST.NEW\n")
	fmt.Fprintf(&b, "TEST.NAME:%s.001\n", fn)
	fmt.Fprintf(&b, "TEST.NOTES:\n")
	fmt.Fprintf(&b, "Skeleton test case for %s. Fill in input and expected values.\n", fn)
	fmt.Fprintf(&b, "TEST.END_NOTES:\n")
	fmt.Fprintf(&b, "TEST.END\n")
	return []byte(b.String())
}

// compoundScript renders the cross-function artifact targeting the tool's
// compound sentinel, listing every discovered function.
func compoundScript(env vcast.Environment, fns []FunctionRecord) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "-- Test Case Script\n")
	fmt.Fprintf(&b, "--\n")
	fmt.Fprintf(&b, "-- Environment: %s\n", env.Name)
	fmt.Fprintf(&b, "-- Unit: %s\n", env.Unit)
	fmt.Fprintf(&b, "-- Subprogram: %s\n", vcast.CompoundSentinel)
	fmt.Fprintf(&b, "--\n")
	fmt.Fprintf(&b, "TEST.SUBPROGRAM:%s\n", vcast.CompoundSentinel)
	fmt.Fprintf(&b, "TEST.NEW\n")
	fmt.Fprintf(&b, "TEST.NAME:COMPOUND.001\n")
	fmt.Fprintf(&b, "TEST.NOTES:\n")
	fmt.Fprintf(&b, "Cross-function test covering:\n")
	for _, fn := range fns {
		fmt.Fprintf(&b, "  %d. %s\n", fn.Ordinal+1, fn.Name)
	}
	fmt.Fprintf(&b, "TEST.END_NOTES:\n")
	fmt.Fprintf(&b, "TEST.END\n")
	return []byte(b.String())
}
