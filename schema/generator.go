// Package schema publishes JSON Schema documents for the launcher's stored
// and transmitted contracts.
package schema

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"
)

// Draft is the JSON Schema dialect of generated documents.
const Draft = "https://json-schema.org/draft/2020-12/schema"

type generatorConfig struct {
	id          string
	title       string
	description string
	defaults    bool
	closed      bool
}

// Option configures a generated document.
type Option func(*generatorConfig)

// WithID sets the document $id.
func WithID(id string) Option {
	return func(cfg *generatorConfig) {
		cfg.id = id
	}
}

// WithTitle sets the document title and optional description.
func WithTitle(title, description string) Option {
	return func(cfg *generatorConfig) {
		cfg.title = title
		cfg.description = description
	}
}

// WithDefaults records the values of the generated value as schema defaults.
func WithDefaults() Option {
	return func(cfg *generatorConfig) {
		cfg.defaults = true
	}
}

// WithClosedObjects forbids properties not declared by struct fields.
func WithClosedObjects() Option {
	return func(cfg *generatorConfig) {
		cfg.closed = true
	}
}

// Generate builds a JSON Schema document describing value's type. Struct
// fields are named by their json tags.
func Generate(value any, opts ...Option) (map[string]any, error) {
	cfg := generatorConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	doc, err := cfg.build(reflect.ValueOf(value), reflect.TypeOf(value))
	if err != nil {
		return nil, err
	}
	doc["$schema"] = Draft
	if cfg.id != "" {
		doc["$id"] = cfg.id
	}
	if cfg.title != "" {
		doc["title"] = cfg.title
	}
	if cfg.description != "" {
		doc["description"] = cfg.description
	}
	return doc, nil
}

var timeType = reflect.TypeOf(time.Time{})

func (cfg generatorConfig) build(rv reflect.Value, rt reflect.Type) (map[string]any, error) {
	if rt == nil {
		return map[string]any{"type": "null"}, nil
	}
	for rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
		if rv.IsValid() {
			if rv.IsNil() {
				rv = reflect.Value{}
			} else {
				rv = rv.Elem()
			}
		}
	}

	var node map[string]any
	var err error
	switch rt.Kind() {
	case reflect.Bool:
		node = map[string]any{"type": "boolean"}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		node = map[string]any{"type": "integer"}
	case reflect.Float32, reflect.Float64:
		node = map[string]any{"type": "number"}
	case reflect.String:
		node = map[string]any{"type": "string"}
	case reflect.Interface:
		node = map[string]any{}
	case reflect.Struct:
		if rt == timeType {
			node = map[string]any{"type": "string", "format": "date-time"}
			break
		}
		return cfg.object(rv, rt)
	case reflect.Map:
		if rt.Key().Kind() != reflect.String {
			return nil, fmt.Errorf("schema: map key type %s unsupported", rt.Key())
		}
		items, err := cfg.build(reflect.Value{}, rt.Elem())
		if err != nil {
			return nil, err
		}
		node = map[string]any{"type": "object", "additionalProperties": items}
	case reflect.Slice, reflect.Array:
		if rt.Elem().Kind() == reflect.Uint8 {
			node = map[string]any{"type": "string", "contentEncoding": "base64"}
			break
		}
		items, err := cfg.build(reflect.Value{}, rt.Elem())
		if err != nil {
			return nil, err
		}
		node = map[string]any{"type": "array", "items": items}
	default:
		return nil, fmt.Errorf("schema: type %s unsupported", rt)
	}

	if cfg.defaults && rv.IsValid() && !(rt == timeType && rv.IsZero()) {
		node["default"], err = defaultValue(rv)
		if err != nil {
			return nil, err
		}
	}
	return node, nil
}

func (cfg generatorConfig) object(rv reflect.Value, rt reflect.Type) (map[string]any, error) {
	properties := map[string]any{}
	var required []string
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		name, omitEmpty := fieldName(field)
		if name == "" {
			continue
		}
		var child reflect.Value
		if rv.IsValid() {
			child = rv.Field(i)
		}
		node, err := cfg.build(child, field.Type)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		properties[name] = node
		if !omitEmpty && field.Type.Kind() != reflect.Pointer {
			required = append(required, name)
		}
	}
	sort.Strings(required)

	node := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		node["required"] = required
	}
	if cfg.closed {
		node["additionalProperties"] = false
	}
	return node, nil
}

func fieldName(field reflect.StructField) (string, bool) {
	tag := field.Tag.Get("json")
	if tag == "-" {
		return "", false
	}
	parts := strings.Split(tag, ",")
	name := parts[0]
	if name == "" {
		name = field.Name
	}
	omitEmpty := false
	for _, opt := range parts[1:] {
		if opt == "omitempty" || opt == "omitzero" {
			omitEmpty = true
		}
	}
	return name, omitEmpty
}

func defaultValue(rv reflect.Value) (any, error) {
	raw, err := json.Marshal(rv.Interface())
	if err != nil {
		return nil, fmt.Errorf("schema: default: %w", err)
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("schema: default: %w", err)
	}
	return out, nil
}
