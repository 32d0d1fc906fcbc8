package codebridge

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
)

var (
	customTypesMu sync.RWMutex
	customTypes   = make(map[reflect.Type]*jsonschema.Schema)
)

// RegisterType registers a custom Go type to be mapped to a JSON Schema type/format in generated schemas.
// emptyInstance is a value of the type to register (e.g. uuid.UUID{}); it must not be nil.
// jsonType is the JSON Schema type (e.g. "string", "number"); it must not be empty.
// format is optional (e.g. "uuid", "date-time").
// Call RegisterType at application startup before the first NewTool or NewExtractor.
func RegisterType(emptyInstance any, jsonType, format string) {
	if emptyInstance == nil {
		panic("codebridge: RegisterType emptyInstance must not be nil")
	}
	if jsonType == "" {
		panic("codebridge: RegisterType jsonType must not be empty")
	}
	t := reflect.TypeOf(emptyInstance)
	s := &jsonschema.Schema{Type: jsonType, Format: format}
	customTypesMu.Lock()
	defer customTypesMu.Unlock()
	customTypes[t] = s
}

// buildTypeSchemas returns a copy of registered type schemas for use in ForOptions.
func buildTypeSchemas() map[reflect.Type]*jsonschema.Schema {
	customTypesMu.RLock()
	defer customTypesMu.RUnlock()
	out := make(map[reflect.Type]*jsonschema.Schema, len(customTypes))
	for t, s := range customTypes {
		if s != nil {
			out[t] = s.CloneSchemas()
		}
	}
	return out
}

var (
	errNilSchema     = errors.New("schema reflection returned nil")
	errNotAnObject   = errors.New("tool arguments must be a JSON object (struct or map type)")
	errBadTagValue   = errors.New("invalid struct tag value")
	numericTagsOrder = []string{"minimum", "maximum", "exclusiveMinimum", "exclusiveMaximum"}
)

// generateSchema produces a JSON Schema map and a resolved validator for type T.
// It is called once when building a Tool. strict sets additionalProperties: false
// and marks every property required (OpenAI structured outputs).
func generateSchema[T any](strict bool) (map[string]any, *jsonschema.Resolved, error) {
	opts := &jsonschema.ForOptions{TypeSchemas: buildTypeSchemas()}
	schema, err := jsonschema.For[T](opts)
	if err != nil {
		return nil, nil, err
	}
	if schema == nil {
		return nil, nil, errNilSchema
	}
	data, err := json.Marshal(schema)
	if err != nil {
		return nil, nil, err
	}
	var schemaMap map[string]any
	if err := json.Unmarshal(data, &schemaMap); err != nil {
		return nil, nil, err
	}
	if !hasType(schemaMap, "object") {
		return nil, nil, fmt.Errorf("%w: got %v", errNotAnObject, schemaMap["type"])
	}
	if err := enrichSchemaFromStructTags(schemaMap, reflect.TypeFor[T]()); err != nil {
		return nil, nil, err
	}
	normalizeObjectRoot(schemaMap)
	if strict {
		applyStrictMode(schemaMap)
	} else {
		relaxDefaultedRequired(schemaMap)
	}
	stripSchemaIDs(schemaMap)
	resolved, err := compileRawSchema(schemaMap)
	if err != nil {
		return nil, nil, err
	}
	return schemaMap, resolved, nil
}

// hasType reports whether the node's "type" is want or a list containing want.
func hasType(node map[string]any, want string) bool {
	switch t := node["type"].(type) {
	case string:
		return t == want
	case []any:
		for _, v := range t {
			if s, ok := v.(string); ok && s == want {
				return true
			}
		}
	}
	return false
}

// normalizeObjectRoot makes "properties" and "required" always present on the root,
// so a tool without arguments still advertises {"properties":{},"required":[]}.
func normalizeObjectRoot(schemaMap map[string]any) {
	if _, ok := schemaMap["properties"].(map[string]any); !ok {
		if _, isMap := schemaMap["additionalProperties"].(map[string]any); !isMap {
			schemaMap["properties"] = map[string]any{}
		}
	}
	if _, ok := schemaMap["required"].([]any); !ok {
		schemaMap["required"] = []any{}
	}
}

// enrichSchemaFromStructTags walks typ alongside the schema and applies the
// description, enum, default and numeric bound tags. Nested structs, pointers and
// slices of structs are followed. Properties without a description get their JSON name.
func enrichSchemaFromStructTags(node map[string]any, typ reflect.Type) error {
	if node == nil || typ == nil {
		return nil
	}
	typ = derefType(typ)
	switch typ.Kind() {
	case reflect.Slice, reflect.Array:
		if items, ok := node["items"].(map[string]any); ok {
			return enrichSchemaFromStructTags(items, typ.Elem())
		}
		return nil
	case reflect.Struct:
	default:
		return nil
	}
	props, ok := node["properties"].(map[string]any)
	if !ok || len(props) == 0 {
		return nil
	}
	fields := make(map[string]reflect.StructField)
	collectJSONFields(typ, fields)
	for key, val := range props {
		prop, ok := val.(map[string]any)
		if !ok {
			continue
		}
		field, ok := fields[key]
		if !ok {
			continue
		}
		if err := applyFieldTags(prop, field); err != nil {
			return fmt.Errorf("field %s: %w", field.Name, err)
		}
		if _, has := prop["description"]; !has {
			prop["description"] = key
		}
		if err := enrichSchemaFromStructTags(prop, field.Type); err != nil {
			return err
		}
	}
	return nil
}

// collectJSONFields maps JSON property names to struct fields, following embedded
// structs the way encoding/json promotes them.
func collectJSONFields(typ reflect.Type, out map[string]reflect.StructField) {
	for i := range typ.NumField() {
		field := typ.Field(i)
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			continue
		}
		if field.Anonymous && name == "" {
			if et := derefType(field.Type); et.Kind() == reflect.Struct {
				collectJSONFields(et, out)
				continue
			}
		}
		if !field.IsExported() {
			continue
		}
		if name == "" {
			name = field.Name
		}
		if _, dup := out[name]; !dup {
			out[name] = field
		}
	}
}

func derefType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// applyFieldTags copies the supported struct tags into a property schema.
func applyFieldTags(prop map[string]any, field reflect.StructField) error {
	if desc := field.Tag.Get("description"); desc != "" {
		prop["description"] = desc
	}
	target := prop
	kind := derefType(field.Type).Kind()
	if kind == reflect.Slice || kind == reflect.Array {
		// enum on a list field constrains its elements
		if items, ok := prop["items"].(map[string]any); ok {
			target = items
			kind = derefType(derefType(field.Type).Elem()).Kind()
		}
	}
	if enumStr, ok := field.Tag.Lookup("enum"); ok {
		parts := strings.Split(enumStr, ",")
		enum := make([]any, 0, len(parts))
		for _, p := range parts {
			v, err := parseTagValue(kind, strings.TrimSpace(p))
			if err != nil {
				return fmt.Errorf("enum %q: %w", p, err)
			}
			enum = append(enum, v)
		}
		target["enum"] = enum
	}
	if def, ok := field.Tag.Lookup("default"); ok {
		v, err := parseDefault(field.Type, def)
		if err != nil {
			return fmt.Errorf("default %q: %w", def, err)
		}
		prop["default"] = v
	}
	for _, key := range numericTagsOrder {
		raw, ok := field.Tag.Lookup(key)
		if !ok {
			continue
		}
		n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return fmt.Errorf("%s %q: %w", key, raw, errBadTagValue)
		}
		prop[key] = n
	}
	return nil
}

// parseDefault decodes a default tag. List and object fields take a JSON literal.
func parseDefault(typ reflect.Type, raw string) (any, error) {
	switch derefType(typ).Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.Struct:
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return nil, fmt.Errorf("%w: %v", errBadTagValue, err)
		}
		return v, nil
	default:
		return parseTagValue(derefType(typ).Kind(), raw)
	}
}

// parseTagValue converts a tag literal to the JSON value matching kind.
func parseTagValue(kind reflect.Kind, s string) (any, error) {
	switch kind {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, errBadTagValue
		}
		return float64(n), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return nil, errBadTagValue
		}
		return float64(n), nil
	case reflect.Float32, reflect.Float64:
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, errBadTagValue
		}
		return n, nil
	case reflect.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, errBadTagValue
		}
		return b, nil
	default:
		return s, nil
	}
}

// walkSchema recursively visits every map node in the schema tree (including $defs and definitions).
func walkSchema(schemaMap map[string]any, visit func(map[string]any)) {
	if schemaMap == nil {
		return
	}
	visit(schemaMap)
	for _, val := range schemaMap {
		switch v := val.(type) {
		case map[string]any:
			walkSchema(v, visit)
		case []any:
			for _, item := range v {
				if m2, ok := item.(map[string]any); ok {
					walkSchema(m2, visit)
				}
			}
		}
	}
}

// applyStrictMode sets additionalProperties: false and requires every property for every object.
func applyStrictMode(schemaMap map[string]any) {
	walkSchema(schemaMap, func(n map[string]any) {
		props, ok := n["properties"].(map[string]any)
		if !ok {
			return
		}
		n["additionalProperties"] = false
		keys := make([]string, 0, len(props))
		for k := range props {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		required := make([]any, len(keys))
		for i, k := range keys {
			required[i] = k
		}
		n["required"] = required
	})
}

// relaxDefaultedRequired removes properties that declare a default from "required"
// at every object level, so a model may omit them and the default applies.
func relaxDefaultedRequired(schemaMap map[string]any) {
	walkSchema(schemaMap, func(n map[string]any) {
		props, ok := n["properties"].(map[string]any)
		if !ok {
			return
		}
		req, ok := n["required"].([]any)
		if !ok {
			return
		}
		kept := make([]any, 0, len(req))
		for _, r := range req {
			name, _ := r.(string)
			if p, ok := props[name].(map[string]any); ok {
				if _, has := p["default"]; has {
					continue
				}
			}
			kept = append(kept, r)
		}
		n["required"] = kept
	})
}

// compileRawSchema compiles a raw JSON Schema map into a resolved validator. The map is not mutated.
func compileRawSchema(schemaMap map[string]any) (*jsonschema.Resolved, error) {
	data, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, err
	}
	var s jsonschema.Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return s.Resolve(nil)
}

// stripSchemaIDs removes id and $id from schema so resolution does not depend on them.
func stripSchemaIDs(schemaMap map[string]any) {
	walkSchema(schemaMap, func(n map[string]any) {
		delete(n, "id")
		delete(n, "$id")
	})
}

// cloneSchemaMap deep-copies a JSON-compatible map through a marshal round trip.
func cloneSchemaMap(schemaMap map[string]any) (map[string]any, error) {
	data, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
