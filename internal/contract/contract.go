// Package contract validates resolved world state documents against the
// published JSON Schema. The schema is embedded so the parse command and the
// tests check exactly what the HTTP API serves.
package contract

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "worldstate.schema.json"

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

// Schema returns the raw embedded schema document.
func Schema() []byte {
	return bytes.Clone(schemaJSON)
}

func schema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft2020
		c.AssertFormat = true
		if err := c.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
			compileErr = fmt.Errorf("contract: add schema: %w", err)
			return
		}
		compiled, compileErr = c.Compile(schemaURL)
		if compileErr != nil {
			compileErr = fmt.Errorf("contract: compile schema: %w", compileErr)
		}
	})
	return compiled, compileErr
}

// Validate checks a marshalled world state document. The returned error
// wraps a *jsonschema.ValidationError when the document is well formed JSON
// but breaks the contract.
func Validate(doc []byte) error {
	s, err := schema()
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(doc, &v); err != nil {
		return fmt.Errorf("contract: decode document: %w", err)
	}
	if err := s.Validate(v); err != nil {
		return fmt.Errorf("contract: %w", err)
	}
	return nil
}
