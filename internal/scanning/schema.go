package scanning

// requiredReceiptFields must be present on every element of the model output
var requiredReceiptFields = []string{
	"id",
	"status",
	"total_amount",
	"has_invoice",
	"amount_10_percent",
	"amount_8_percent",
	"amount_non_invoice",
}

// ReceiptSchema returns the output contract as a JSON Schema (draft 2020-12 subset).
// It is sent to the model as a structured output constraint and used locally in strict mode.
// Nullable fields use a ["<type>", "null"] type union.
func ReceiptSchema() map[string]any {
	props := map[string]any{
		"id": map[string]any{
			"type":        "integer",
			"description": "A sequential ID for the receipt within the document.",
		},
		"status": map[string]any{
			"type":        "string",
			"enum":        []any{string(StatusSuccess), string(StatusError)},
			"description": "Processing status.",
		},
		"date": map[string]any{
			"type":        []any{"string", "null"},
			"description": "Date in YYYY/MM/DD format.",
		},
		"store_name": map[string]any{
			"type":        []any{"string", "null"},
			"description": "Name of the store or vendor.",
		},
		"total_amount": map[string]any{
			"type":        "number",
			"description": "Total amount paid (tax included).",
		},
		"has_invoice": map[string]any{
			"type":        "boolean",
			"description": "Whether a valid T+13 digit invoice registration number exists.",
		},
		"invoice_number": map[string]any{
			"type":        []any{"string", "null"},
			"description": "The T+13 digit invoice registration number.",
		},
		"amount_10_percent": map[string]any{
			"type":        "number",
			"description": "Amount subject to 10% tax (invoice compliant, tax included).",
		},
		"amount_8_percent": map[string]any{
			"type":        "number",
			"description": "Amount subject to 8% reduced tax (invoice compliant, tax included).",
		},
		"amount_non_invoice": map[string]any{
			"type":        "number",
			"description": "Amount not invoice compliant or with an undetermined tax rate.",
		},
		"error_message": map[string]any{
			"type":        []any{"string", "null"},
			"description": "Reason for the error if status is error.",
		},
	}

	required := make([]any, 0, len(requiredReceiptFields))
	for _, f := range requiredReceiptFields {
		required = append(required, f)
	}

	return map[string]any{
		"type": "array",
		"items": map[string]any{
			"type":       "object",
			"properties": props,
			"required":   required,
		},
	}
}
