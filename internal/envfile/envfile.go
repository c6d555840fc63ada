// Package envfile probes and reads the external tool's serialized test
// environment files (<ENV>.env). The file is an ENVIRO directive script; this
// package only extracts the header metadata needed for validation and the run
// summary, and treats everything else as opaque tool configuration.
package envfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Metadata holds the ENVIRO header directives extracted from an environment
// file. Unknown directives are preserved in Extra so nothing is lost.
type Metadata struct {
	Name     string
	Units    []string
	Compiler string
	Extra    map[string]string
}

// Probe returns the absolute path of the environment file for env inside
// projectDir, or an error if the file does not exist or is a directory.
func Probe(projectDir, env string) (string, error) {
	path := filepath.Join(projectDir, env+".env")
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("environment file %s is a directory", abs)
	}
	return abs, nil
}

// Read opens and parses the environment file at path.
func Read(path string) (*Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	md, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("envfile %s: %w", path, err)
	}
	return md, nil
}

// Parse reads ENVIRO directives from r. Directive lines have the form
// "ENVIRO.KEY: value"; the ENVIRO.NEW/ENVIRO.END block markers carry no value
// and are skipped, as are comment lines ("-- ...") and blank lines. Lines that
// are neither directives nor comments are tolerated: environment files embed
// tool-specific payload sections this package has no business interpreting.
func Parse(r io.Reader) (*Metadata, error) {
	md := &Metadata{Extra: map[string]string{}}
	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		if !strings.HasPrefix(line, "ENVIRO.") {
			continue
		}
		rest := strings.TrimPrefix(line, "ENVIRO.")
		key, value, found := strings.Cut(rest, ":")
		key = strings.TrimSpace(key)
		if !found {
			// Block markers like ENVIRO.NEW / ENVIRO.END.
			continue
		}
		if key == "" {
			return nil, fmt.Errorf("line %d: empty directive key", lineNum)
		}
		value = strings.TrimSpace(value)
		switch strings.ToUpper(key) {
		case "NAME":
			md.Name = value
		case "UNIT", "STUB_BY_FUNCTION":
			if value != "" {
				md.Units = append(md.Units, value)
			}
		case "COMPILER":
			md.Compiler = value
		default:
			md.Extra[strings.ToUpper(key)] = value
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return md, nil
}
