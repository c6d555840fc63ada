package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"vcreport/internal/vcast"
)

// RunConfig is the run configuration file schema. It carries the external
// tool's invocation grammar as a versioned contract plus the canonical output
// layout. YAML is the primary format; .json files load too.
type RunConfig struct {
	Version int `json:"version" yaml:"version"`

	Tool struct {
		Path        string   `json:"path" yaml:"path"`
		ListingArgs []string `json:"listing_args" yaml:"listing_args"`
		ReportArgs  []string `json:"report_args" yaml:"report_args"`
		// Keyed by report kind (management|execution|full).
		ReportDirectives map[string]string `json:"report_directives" yaml:"report_directives"`
		ReportSuffixes   map[string]string `json:"report_suffixes" yaml:"report_suffixes"`
	} `json:"tool" yaml:"tool"`

	Layout struct {
		UnitTestsDir string `json:"unit_tests_dir" yaml:"unit_tests_dir"`
		ResultsDir   string `json:"results_dir" yaml:"results_dir"`
	} `json:"layout" yaml:"layout"`
}

// DefaultRunConfig returns the configuration used when no file is supplied.
func DefaultRunConfig() *RunConfig {
	cfg := &RunConfig{}
	applyConfigDefaults(cfg)
	return cfg
}

// LoadRunConfigFile reads, schema-validates, defaults, and validates the run
// configuration at path.
func LoadRunConfigFile(path string) (*RunConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	// Schema-validate the raw document before the typed unmarshal so a type
	// mismatch surfaces as a schema diagnostic, not a decode error.
	var raw map[string]any
	var cfg RunConfig
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json":
		if err := json.Unmarshal(b, &raw); err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
		if err := validateConfigSchema(raw); err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
		if err := json.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(b, &raw); err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
		if err := validateConfigSchema(raw); err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
	}
	applyConfigDefaults(&cfg)
	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}

func applyConfigDefaults(cfg *RunConfig) {
	if cfg == nil {
		return
	}
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	def := vcast.DefaultInvocationSpec()
	if strings.TrimSpace(cfg.Tool.Path) == "" {
		cfg.Tool.Path = def.Path
	}
	if len(cfg.Tool.ListingArgs) == 0 {
		cfg.Tool.ListingArgs = append([]string{}, def.ListingArgs...)
	}
	if len(cfg.Tool.ReportArgs) == 0 {
		cfg.Tool.ReportArgs = append([]string{}, def.ReportArgs...)
	}
	if cfg.Tool.ReportDirectives == nil {
		cfg.Tool.ReportDirectives = map[string]string{}
	}
	if cfg.Tool.ReportSuffixes == nil {
		cfg.Tool.ReportSuffixes = map[string]string{}
	}
	for _, kind := range vcast.ReportKinds {
		if cfg.Tool.ReportDirectives[string(kind)] == "" {
			cfg.Tool.ReportDirectives[string(kind)] = def.ReportDirectives[kind]
		}
		if cfg.Tool.ReportSuffixes[string(kind)] == "" {
			cfg.Tool.ReportSuffixes[string(kind)] = def.ReportSuffixes[kind]
		}
	}
	if cfg.Layout.UnitTestsDir == "" {
		cfg.Layout.UnitTestsDir = "Unit_Tst"
	}
	if cfg.Layout.ResultsDir == "" {
		cfg.Layout.ResultsDir = "Results"
	}
}

func validateConfig(cfg *RunConfig) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported config version: %d", cfg.Version)
	}
	if strings.TrimSpace(cfg.Tool.Path) == "" {
		return fmt.Errorf("tool.path is required")
	}
	for key := range cfg.Tool.ReportDirectives {
		if !vcast.ReportKind(key).Valid() {
			return fmt.Errorf("unknown report kind in tool.report_directives: %q", key)
		}
	}
	for key := range cfg.Tool.ReportSuffixes {
		if !vcast.ReportKind(key).Valid() {
			return fmt.Errorf("unknown report kind in tool.report_suffixes: %q", key)
		}
	}
	for _, dir := range []string{cfg.Layout.UnitTestsDir, cfg.Layout.ResultsDir} {
		if dir == "" || dir == "." || strings.Contains(dir, "..") || filepath.IsAbs(dir) {
			return fmt.Errorf("layout directories must be simple relative names, got %q", dir)
		}
	}
	if cfg.Layout.UnitTestsDir == cfg.Layout.ResultsDir {
		return fmt.Errorf("layout.unit_tests_dir and layout.results_dir must differ")
	}
	return nil
}

// InvocationSpec converts the config's tool section into the vcast grammar.
func (c *RunConfig) InvocationSpec() vcast.InvocationSpec {
	spec := vcast.InvocationSpec{
		Path:             c.Tool.Path,
		ListingArgs:      append([]string{}, c.Tool.ListingArgs...),
		ReportArgs:       append([]string{}, c.Tool.ReportArgs...),
		ReportDirectives: map[vcast.ReportKind]string{},
		ReportSuffixes:   map[vcast.ReportKind]string{},
	}
	for k, v := range c.Tool.ReportDirectives {
		spec.ReportDirectives[vcast.ReportKind(k)] = v
	}
	for k, v := range c.Tool.ReportSuffixes {
		spec.ReportSuffixes[vcast.ReportKind(k)] = v
	}
	return spec
}
