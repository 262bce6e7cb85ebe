package llm

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// compiled caches compiled schemas by Schema.Name.
var compiled sync.Map // string -> *jsonschema.Schema

// validateResponse checks raw against schema and returns an
// *InvalidResponseError on any failure.
func validateResponse(schema *Schema, raw json.RawMessage) error {
	if schema == nil {
		return nil
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return &InvalidResponseError{Content: raw, Err: fmt.Errorf("invalid JSON: %w", err)}
	}

	cs, err := compileSchema(schema)
	if err != nil {
		return &InvalidResponseError{Content: raw, Err: fmt.Errorf("compile schema %q: %w", schema.Name, err)}
	}
	if err := cs.Validate(doc); err != nil {
		return &InvalidResponseError{Content: raw, Err: fmt.Errorf("schema validation failed: %w", err)}
	}
	return nil
}

func compileSchema(schema *Schema) (*jsonschema.Schema, error) {
	if v, ok := compiled.Load(schema.Name); ok {
		return v.(*jsonschema.Schema), nil
	}

	// Round-trip through JSON so Go-typed values ([]string, int) become the
	// generic forms the compiler expects.
	b, err := json.Marshal(schema.Definition)
	if err != nil {
		return nil, err
	}
	var def any
	if err := json.Unmarshal(b, &def); err != nil {
		return nil, err
	}

	c := jsonschema.NewCompiler()
	url := "schema://" + schema.Name + ".json"
	if err := c.AddResource(url, def); err != nil {
		return nil, err
	}
	cs, err := c.Compile(url)
	if err != nil {
		return nil, err
	}
	compiled.Store(schema.Name, cs)
	return cs, nil
}
