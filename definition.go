package codebridge

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	jsvalidate "github.com/santhosh-tekuri/jsonschema/v6"
)

// DefinitionType is the only definition type chat-completion APIs accept today.
const DefinitionType = "function"

// Definition is the wire envelope describing one tool to a chat-completion API:
//
//	{"type":"function","function":{"name":...,"description":...,"parameters":{...}}}
type Definition struct {
	Type     string       `json:"type"`
	Function FunctionSpec `json:"function"`
}

// FunctionSpec is the "function" member of a Definition.
type FunctionSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
	Strict      bool           `json:"strict,omitempty"`
}

// DefinitionOf builds the wire definition of t.
func DefinitionOf(t Tool) Definition {
	strict := false
	if tm, ok := t.(ToolMetadata); ok {
		strict = tm.IsStrict()
	}
	return Definition{
		Type: DefinitionType,
		Function: FunctionSpec{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
			Strict:      strict,
		},
	}
}

// Definitions builds wire definitions for tools, keeping their order.
func Definitions(tools ...Tool) []Definition {
	out := make([]Definition, 0, len(tools))
	for _, t := range tools {
		out = append(out, DefinitionOf(t))
	}
	return out
}

// definitionMetaSchema describes a well-formed definition envelope. Every property
// must carry a description and a type (or a oneOf/anyOf of typed options); objects
// need properties and arrays need typed items.
const definitionMetaSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["type", "function"],
  "properties": {
    "type": {"const": "function"},
    "function": {
      "type": "object",
      "required": ["name", "description", "parameters"],
      "properties": {
        "name": {"type": "string", "pattern": "^[a-zA-Z0-9_-]{1,64}$"},
        "description": {"type": "string"},
        "strict": {"type": "boolean"},
        "parameters": {
          "type": "object",
          "required": ["type", "properties", "required"],
          "properties": {
            "type": {"const": "object"},
            "properties": {"$ref": "#/$defs/properties"},
            "required": {"type": "array", "items": {"type": "string"}}
          }
        }
      }
    }
  },
  "$defs": {
    "properties": {
      "type": "object",
      "additionalProperties": {"$ref": "#/$defs/property"}
    },
    "typed": {
      "type": "object",
      "required": ["type"]
    },
    "property": {
      "type": "object",
      "required": ["description"],
      "anyOf": [
        {"required": ["type"]},
        {"required": ["oneOf"], "properties": {"oneOf": {"type": "array", "items": {"$ref": "#/$defs/typed"}}}},
        {"required": ["anyOf"], "properties": {"anyOf": {"type": "array", "items": {"$ref": "#/$defs/typed"}}}}
      ],
      "allOf": [
        {
          "if": {"properties": {"type": {"const": "object"}}, "required": ["type"]},
          "then": {"required": ["properties"], "properties": {"properties": {"$ref": "#/$defs/properties"}}}
        },
        {
          "if": {"properties": {"type": {"const": "array"}}, "required": ["type"]},
          "then": {"required": ["items"], "properties": {"items": {"$ref": "#/$defs/items"}}}
        }
      ]
    },
    "items": {
      "type": "object",
      "anyOf": [
        {"required": ["type"]},
        {"required": ["oneOf"]},
        {"required": ["anyOf"]}
      ],
      "allOf": [
        {
          "if": {"properties": {"type": {"const": "object"}}, "required": ["type"]},
          "then": {"required": ["properties"], "properties": {"properties": {"$ref": "#/$defs/properties"}}}
        },
        {
          "if": {"properties": {"type": {"const": "array"}}, "required": ["type"]},
          "then": {"required": ["items"], "properties": {"items": {"$ref": "#/$defs/items"}}}
        }
      ]
    }
  }
}`

const definitionMetaSchemaURL = "codebridge://definition.json"

var (
	metaSchemaOnce sync.Once
	metaSchema     *jsvalidate.Schema
	metaSchemaErr  error
)

func compiledMetaSchema() (*jsvalidate.Schema, error) {
	metaSchemaOnce.Do(func() {
		doc, err := jsvalidate.UnmarshalJSON(strings.NewReader(definitionMetaSchema))
		if err != nil {
			metaSchemaErr = err
			return
		}
		c := jsvalidate.NewCompiler()
		if err := c.AddResource(definitionMetaSchemaURL, doc); err != nil {
			metaSchemaErr = err
			return
		}
		metaSchema, metaSchemaErr = c.Compile(definitionMetaSchemaURL)
	})
	return metaSchema, metaSchemaErr
}

// ValidateDefinition checks the structure of def: envelope keys, a usable function
// name, an object parameters schema with properties and required, and a type plus
// description on every property. Required names must exist in properties.
// Returns an error wrapping ErrInvalidDefinition.
func ValidateDefinition(def Definition) error {
	data, err := json.Marshal(def)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}
	return ValidateDefinitionJSON(data)
}

// ValidateDefinitionJSON is ValidateDefinition for a raw JSON document.
func ValidateDefinitionJSON(data []byte) error {
	sch, err := compiledMetaSchema()
	if err != nil {
		return fmt.Errorf("compile definition meta-schema: %w", err)
	}
	inst, err := jsvalidate.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}
	if err := sch.Validate(inst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}
	var def Definition
	if err := json.Unmarshal(data, &def); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}
	return checkRequiredNames(def.Function.Parameters, "parameters")
}

// checkRequiredNames verifies every name in "required" is declared under "properties",
// recursing into nested objects and array items.
func checkRequiredNames(node map[string]any, path string) error {
	props, _ := node["properties"].(map[string]any)
	if req, ok := node["required"].([]any); ok {
		for _, r := range req {
			name, _ := r.(string)
			if _, ok := props[name]; !ok {
				return fmt.Errorf("%w: %s: required property %q is not declared", ErrInvalidDefinition, path, name)
			}
		}
	}
	for name, p := range props {
		if pm, ok := p.(map[string]any); ok {
			if err := checkRequiredNames(pm, path+"."+name); err != nil {
				return err
			}
		}
	}
	if items, ok := node["items"].(map[string]any); ok {
		return checkRequiredNames(items, path+"[]")
	}
	return nil
}

// ParseDefinitions decodes either a single definition object or an array of them.
func ParseDefinitions(data []byte) ([]Definition, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrInvalidDefinition)
	}
	if trimmed[0] == '[' {
		var raws []json.RawMessage
		if err := json.Unmarshal(trimmed, &raws); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
		}
		defs := make([]Definition, 0, len(raws))
		var errs []error
		for i, raw := range raws {
			if err := ValidateDefinitionJSON(raw); err != nil {
				errs = append(errs, fmt.Errorf("definition %d: %w", i, err))
				continue
			}
			var def Definition
			if err := json.Unmarshal(raw, &def); err != nil {
				errs = append(errs, fmt.Errorf("definition %d: %w", i, err))
				continue
			}
			defs = append(defs, def)
		}
		return defs, errors.Join(errs...)
	}
	if err := ValidateDefinitionJSON(trimmed); err != nil {
		return nil, err
	}
	var def Definition
	if err := json.Unmarshal(trimmed, &def); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}
	return []Definition{def}, nil
}

// ValidateArguments checks model-produced arguments against def's parameters schema.
// A failure is returned as a ClientError whose Reason can be sent back to the model.
func ValidateArguments(def Definition, args json.RawMessage) error {
	schemaCopy, err := cloneSchemaMap(def.Function.Parameters)
	if err != nil {
		return &SystemError{Err: err}
	}
	stripSchemaIDs(schemaCopy)
	resolved, err := compileRawSchema(schemaCopy)
	if err != nil {
		return &SystemError{Err: fmt.Errorf("compile parameters of %q: %w", def.Function.Name, err)}
	}
	if len(bytes.TrimSpace(args)) == 0 {
		args = []byte("{}")
	}
	var v any
	if err := json.Unmarshal(args, &v); err != nil {
		return wrapJSONParseError(err)
	}
	return validateAgainstSchema(resolved, v)
}
