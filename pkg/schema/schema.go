// Package schema provides declarative parameter schemas for tools and
// schema-driven validation of call arguments.
package schema

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// ParamSpec describes a single tool parameter.
type ParamSpec struct {
	Name        string        `json:"name"`
	Type        string        `json:"type"`
	Description string        `json:"description"`
	Required    bool          `json:"required"`
	Default     interface{}   `json:"default,omitempty"`
	Enum        []interface{} `json:"enum,omitempty"`
	Minimum     *float64      `json:"minimum,omitempty"`
	Maximum     *float64      `json:"maximum,omitempty"`
	MinLength   *int          `json:"min_length,omitempty"`
	MaxLength   *int          `json:"max_length,omitempty"`
	Pattern     string        `json:"pattern,omitempty"`
}

// Result is the outcome of validating one argument set.
type Result struct {
	Valid  bool
	Errors []string
}

// Validator validates call arguments against a compiled parameter schema.
// Validation is pure: it never mutates the arguments.
type Validator struct {
	schema *gojsonschema.Schema
}

var validTypes = map[string]bool{
	"string": true, "number": true, "boolean": true,
	"object": true, "array": true, "integer": true,
}

// ValidType reports whether t is one of the supported parameter kinds.
func ValidType(t string) bool {
	return validTypes[t]
}

// Compile builds a validator from a parameter list. Compiling happens once,
// at tool registration, so dispatch-time validation is just a schema walk.
func Compile(params []ParamSpec) (*Validator, error) {
	schemaMap, err := buildSchemaMap(params)
	if err != nil {
		return nil, err
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schemaMap))
	if err != nil {
		return nil, fmt.Errorf("failed to compile parameter schema: %w", err)
	}

	return &Validator{schema: schema}, nil
}

// Validate checks the arguments against the schema. A nil argument map is
// treated as an empty object. JSON Schema's "object" type already rejects
// null values, so a nil value for an object-typed parameter fails instead of
// being accepted the way a naive dynamic type check would.
func (v *Validator) Validate(params map[string]interface{}) Result {
	if v == nil || v.schema == nil {
		return Result{Valid: true}
	}
	if params == nil {
		params = map[string]interface{}{}
	}

	res, err := v.schema.Validate(gojsonschema.NewGoLoader(params))
	if err != nil {
		return Result{Valid: false, Errors: []string{err.Error()}}
	}
	if res.Valid() {
		return Result{Valid: true}
	}

	errs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		errs = append(errs, e.String())
	}
	return Result{Valid: false, Errors: errs}
}

func buildSchemaMap(params []ParamSpec) (map[string]interface{}, error) {
	properties := make(map[string]interface{})
	required := []string{}

	for _, p := range params {
		if p.Name == "" {
			return nil, fmt.Errorf("parameter name cannot be empty")
		}
		if !ValidType(p.Type) {
			return nil, fmt.Errorf("invalid parameter type %s for %s", p.Type, p.Name)
		}

		prop := map[string]interface{}{
			"type":        p.Type,
			"description": p.Description,
		}
		if p.Default != nil {
			prop["default"] = p.Default
		}
		if len(p.Enum) > 0 {
			prop["enum"] = p.Enum
		}
		if p.Minimum != nil {
			prop["minimum"] = *p.Minimum
		}
		if p.Maximum != nil {
			prop["maximum"] = *p.Maximum
		}
		if p.MinLength != nil {
			prop["minLength"] = *p.MinLength
		}
		if p.MaxLength != nil {
			prop["maxLength"] = *p.MaxLength
		}
		if p.Pattern != "" {
			prop["pattern"] = p.Pattern
		}

		properties[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}

	schemaMap := map[string]interface{}{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           properties,
	}
	if len(required) > 0 {
		schemaMap["required"] = required
	}
	return schemaMap, nil
}
