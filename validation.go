package codebridge

import (
	"github.com/google/jsonschema-go/jsonschema"
)

// Validatable is implemented by argument structs that need custom business validation.
// Called after schema validation and unmarshaling.
type Validatable interface {
	Validate() error
}

// schemaValidator validates a JSON-like value (e.g. map[string]any from json.Unmarshal).
// *jsonschema.Resolved implements it.
type schemaValidator interface {
	Validate(v any) error
}

var _ schemaValidator = (*jsonschema.Resolved)(nil)

// validateAgainstSchema runs Layer 1 validation on an already-parsed value v.
func validateAgainstSchema(validate schemaValidator, v any) error {
	if err := validate.Validate(v); err != nil {
		return &ClientError{Reason: err.Error(), Err: ErrValidation}
	}
	return nil
}

// validateCustom runs Layer 2 (Validatable) if args implements it.
func validateCustom(args any) error {
	if v, ok := args.(Validatable); ok {
		return v.Validate()
	}
	return nil
}

// applySchemaDefaults fills absent properties with their schema defaults. The resolver
// covers optional top-level properties; fillDefaults covers required ones (strict
// schemas) and properties of nested objects and array items.
// Non-object values are left untouched; the schema check reports them.
func applySchemaDefaults(resolved *jsonschema.Resolved, schema map[string]any, v any) (any, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return v, nil
	}
	if err := resolved.ApplyDefaults(&m); err != nil {
		return nil, &SystemError{Err: err}
	}
	fillDefaults(schema, m)
	return m, nil
}

// fillDefaults walks v alongside its schema node and sets every absent property
// that declares a default.
func fillDefaults(node map[string]any, v any) {
	switch val := v.(type) {
	case map[string]any:
		props, _ := node["properties"].(map[string]any)
		for name, p := range props {
			prop, ok := p.(map[string]any)
			if !ok {
				continue
			}
			cur, present := val[name]
			if !present {
				def, has := prop["default"]
				if !has {
					continue
				}
				cur = cloneJSONValue(def)
				val[name] = cur
			}
			fillDefaults(prop, cur)
		}
	case []any:
		items, ok := node["items"].(map[string]any)
		if !ok {
			return
		}
		for _, el := range val {
			fillDefaults(items, el)
		}
	}
}

// cloneJSONValue deep-copies a decoded JSON value so defaults are never shared.
func cloneJSONValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[k] = cloneJSONValue(e)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = cloneJSONValue(e)
		}
		return out
	default:
		return v
	}
}
