package scanning

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// SchemaValidator checks model output against the contract schema before it is parsed.
// It is optional: by default the schema is only enforced at the source.
type SchemaValidator struct {
	schema *jsonschema.Schema
}

// NewSchemaValidator compiles schemaMap
func NewSchemaValidator(schemaMap map[string]any) (*SchemaValidator, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("receipts.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("receipts.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &SchemaValidator{schema: schema}, nil
}

// Validate reports a *NormalizationError when text does not conform to the schema.
// A bare object is validated as a one-element array.
func (v *SchemaValidator) Validate(text string) error {
	payload, err := receiptPayload(text)
	if err != nil {
		return err
	}

	var doc any
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return invalidEncoding(text, err)
	}
	if err := v.schema.Validate(doc); err != nil {
		return &NormalizationError{Reason: "response does not match schema", Raw: text, Err: err}
	}
	return nil
}
