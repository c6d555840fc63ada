package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// runConfigSchema is the structural contract for the run configuration file.
// It rejects unknown top-level keys so a typo'd section fails loudly instead
// of silently falling back to defaults.
const runConfigSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "version": {"type": "integer"},
    "tool": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "path": {"type": "string"},
        "listing_args": {"type": "array", "items": {"type": "string"}},
        "report_args": {"type": "array", "items": {"type": "string"}},
        "report_directives": {
          "type": "object",
          "additionalProperties": {"type": "string"}
        },
        "report_suffixes": {
          "type": "object",
          "additionalProperties": {"type": "string"}
        }
      }
    },
    "layout": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "unit_tests_dir": {"type": "string"},
        "results_dir": {"type": "string"}
      }
    }
  }
}`

var (
	configSchemaOnce sync.Once
	configSchema     *jsonschema.Schema
	configSchemaErr  error
)

func compileConfigSchema() (*jsonschema.Schema, error) {
	configSchemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft2020
		if err := c.AddResource("runconfig.json", bytes.NewReader([]byte(runConfigSchema))); err != nil {
			configSchemaErr = err
			return
		}
		configSchema, configSchemaErr = c.Compile("runconfig.json")
	})
	return configSchema, configSchemaErr
}

// validateConfigSchema checks the raw decoded document against the embedded
// schema. The document is round-tripped through JSON so YAML-native scalar
// types validate the same way JSON input does.
func validateConfigSchema(raw map[string]any) error {
	if raw == nil {
		// An empty file is a valid "all defaults" config.
		return nil
	}
	schema, err := compileConfigSchema()
	if err != nil {
		return err
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	var doc any
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return err
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}
	return nil
}
