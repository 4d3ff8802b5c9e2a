package extraction

import (
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Lenient schemas: no field is required, but present fields must have sane
// types. Violations are advisory (logged) because the model's output shape is
// expected, not guaranteed.
const proformaSchema = `{
	"type": "object",
	"properties": {
		"vendor": {"type": "string"},
		"vendor_contact": {},
		"items": {"type": "array"},
		"total_amount": {"type": ["number", "string", "null"]},
		"currency": {"type": ["string", "null"]},
		"terms": {"type": ["string", "null"]},
		"payment_terms": {"type": ["string", "null"]},
		"delivery_terms": {"type": ["string", "null"]}
	}
}`

const receiptSchema = `{
	"type": "object",
	"properties": {
		"seller": {"type": "string"},
		"items": {"type": "array"},
		"total_amount": {"type": ["number", "string", "null"]},
		"currency": {"type": ["string", "null"]},
		"purchase_date": {"type": ["string", "null"]},
		"receipt_number": {"type": ["string", "number", "null"]}
	}
}`

var docSchemas = map[string]*jsonschema.Schema{
	DocTypeProforma: jsonschema.MustCompileString("proforma.json", proformaSchema),
	DocTypeReceipt:  jsonschema.MustCompileString("receipt.json", receiptSchema),
}

// validateFields checks extracted fields against the document-type schema.
func validateFields(documentType string, fields map[string]any) error {
	schema, ok := docSchemas[documentType]
	if !ok {
		return fmt.Errorf("no schema for document type %q", documentType)
	}
	// jsonschema validates generic JSON values; map[string]any qualifies.
	return schema.Validate(toJSONValue(fields))
}

// toJSONValue normalizes a fields mapping into plain JSON types the validator
// accepts (it rejects e.g. typed ints produced by callers in tests).
func toJSONValue(fields map[string]any) any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		switch t := v.(type) {
		case int:
			out[k] = float64(t)
		case int64:
			out[k] = float64(t)
		case float32:
			out[k] = float64(t)
		default:
			out[k] = v
		}
	}
	return out
}
