package config

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/goccy/go-yaml"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// ruleSetSchema is the JSON Schema every rule-set document must satisfy.
// Structural checks beyond what the schema can express live in ValidateRuleSet.
const ruleSetSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["version", "helpers", "validations"],
  "properties": {
    "version": {"type": "string", "minLength": 1},
    "description": {"type": "string"},
    "helpers": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "compute"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "description": {"type": "string"},
          "compute": {
            "type": "object",
            "additionalProperties": {"type": "string"}
          }
        }
      }
    },
    "connections": {"$ref": "#/$defs/optionRules"},
    "materials": {"$ref": "#/$defs/optionRules"},
    "validations": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "assert", "message"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "assert": {"type": "string", "minLength": 1},
          "message": {"type": "string", "minLength": 1},
          "level": {"enum": ["error", "warning", "info"]}
        }
      }
    }
  },
  "$defs": {
    "optionRules": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "description": {"type": "string"},
          "when": {"type": "object"},
          "allow": {"type": "array", "items": {"type": "string"}},
          "exclude": {"type": "array", "items": {"type": "string"}},
          "reason": {"type": "string"}
        }
      }
    }
  }
}`

var compiledRuleSetSchema = mustCompileSchema("ruleset.schema.json", ruleSetSchema)

func mustCompileSchema(name, schema string) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, strings.NewReader(schema)); err != nil {
		panic(fmt.Sprintf("invalid embedded schema %s: %v", name, err))
	}
	return compiler.MustCompile(name)
}

// ValidateRuleSetSchema validates a raw YAML rule-set document against the
// embedded JSON Schema. Runs before decoding into typed structures so that
// shape errors are reported against the document, not the Go types.
func ValidateRuleSetSchema(data []byte) error {
	// The schema validator expects encoding/json value semantics, so the
	// YAML document is converted to JSON before decoding.
	jsonData, err := yaml.YAMLToJSON(data)
	if err != nil {
		return fmt.Errorf("failed to parse rule set document: %w", err)
	}

	var doc any
	if err := json.Unmarshal(jsonData, &doc); err != nil {
		return fmt.Errorf("failed to decode rule set document: %w", err)
	}

	if err := compiledRuleSetSchema.Validate(doc); err != nil {
		return fmt.Errorf("rule set schema validation failed: %w", err)
	}

	return nil
}
