package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Schema is a JSON Schema that extracted model output is checked against.
// Name keys the compiled-schema cache, so it must be unique per Definition.
type Schema struct {
	Name        string
	Description string
	Definition  map[string]any
}

var compiled sync.Map // schema name -> *jsonschema.Schema

// ValidateJSON checks an already decoded JSON value (maps, slices, float64,
// string, bool, nil) against schema. A nil schema accepts anything. Any
// failure is an *ErrInvalidResponse.
func ValidateJSON(schema *Schema, value any) error {
	if schema == nil {
		return nil
	}
	sch, err := compile(schema)
	if err != nil {
		return &ErrInvalidResponse{Err: fmt.Errorf("compile schema %q: %w", schema.Name, err)}
	}
	if err := sch.Validate(value); err != nil {
		return &ErrInvalidResponse{Err: fmt.Errorf("%s: %w", schema.Name, err)}
	}
	return nil
}

func compile(schema *Schema) (*jsonschema.Schema, error) {
	if sch, ok := compiled.Load(schema.Name); ok {
		return sch.(*jsonschema.Schema), nil
	}

	// The compiler wants its own decoding of the document (json.Number for
	// numbers), not the Go literal.
	raw, err := json.Marshal(schema.Definition)
	if err != nil {
		return nil, err
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}

	url := "mem://schemas/" + schema.Name + ".json"
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, doc); err != nil {
		return nil, err
	}
	sch, err := c.Compile(url)
	if err != nil {
		return nil, err
	}
	actual, _ := compiled.LoadOrStore(schema.Name, sch)
	return actual.(*jsonschema.Schema), nil
}
