// Package schema validates request bodies against the embedded JSON schemas.
package schema

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"taskdash/internal/service"
)

//go:embed schemas/*.json
var schemaFS embed.FS

const baseURL = "https://taskdash.local/schemas/"

// Operation names a request body schema.
type Operation string

const (
	CreateTask Operation = "create_task"
	UpdateTask Operation = "update_task"
)

// Validator holds the compiled schema for each operation.
type Validator struct {
	schemas map[Operation]*jsonschema.Schema
}

// New compiles the embedded schemas.
func New() (*Validator, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft7
	compiler.AssertFormat = true

	entries, err := schemaFS.ReadDir("schemas")
	if err != nil {
		return nil, fmt.Errorf("read schemas: %w", err)
	}
	for _, e := range entries {
		data, err := schemaFS.ReadFile(path.Join("schemas", e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read schema %s: %w", e.Name(), err)
		}
		if err := compiler.AddResource(baseURL+e.Name(), bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("add schema %s: %w", e.Name(), err)
		}
	}

	v := &Validator{schemas: make(map[Operation]*jsonschema.Schema)}
	for _, op := range []Operation{CreateTask, UpdateTask} {
		s, err := compiler.Compile(baseURL + string(op) + ".json")
		if err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", op, err)
		}
		v.schemas[op] = s
	}
	return v, nil
}

// Validate checks body against the schema for op.
// Returned errors have service.KindValidation.
func (v *Validator) Validate(op Operation, body []byte) error {
	s, ok := v.schemas[op]
	if !ok {
		return fmt.Errorf("unknown schema operation: %s", op)
	}

	doc, err := decode(body)
	if err != nil {
		return err
	}

	if err := s.Validate(doc); err != nil {
		return mapSchemaError(err)
	}
	return nil
}

// ValidateObject only checks that body is a JSON object. Used when strict
// validation is disabled.
func ValidateObject(body []byte) error {
	doc, err := decode(body)
	if err != nil {
		return err
	}
	if _, ok := doc.(map[string]interface{}); !ok {
		return service.Validation("request body must be a JSON object")
	}
	return nil
}

// decode parses body into the generic form the validator walks.
func decode(body []byte) (interface{}, error) {
	var doc interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, service.Validation("request body must be valid JSON")
	}
	return doc, nil
}

// mapSchemaError converts a jsonschema.ValidationError into a validation
// error naming the first failing field.
func mapSchemaError(err error) error {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return service.Validation(err.Error())
	}

	leaf := firstLeaf(ve)
	field := strings.TrimPrefix(leaf.InstanceLocation, "/")
	if field == "" {
		field = "body"
	}
	return &service.Error{
		Kind:    service.KindValidation,
		Message: "invalid request",
		Fields:  map[string]string{field: leaf.Message},
	}
}

// firstLeaf walks the cause tree depth-first to the first error without causes.
func firstLeaf(err *jsonschema.ValidationError) *jsonschema.ValidationError {
	for len(err.Causes) > 0 {
		err = err.Causes[0]
	}
	return err
}
