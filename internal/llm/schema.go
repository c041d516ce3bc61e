package llm

import "github.com/joseph-ayodele/document-assistant/constants"

// Schemas are JSON-Schema (draft 2020-12 subset) maps. They are sent to the provider as
// a structured output constraint and used locally to validate the answer.

func ClassificationSchema() Schema {
	return Schema{
		Name: "classification",
		Definition: map[string]any{
			"type":                 "object",
			"additionalProperties": false,
			"required":             []any{"label", "confidence"},
			"properties": map[string]any{
				"label": map[string]any{
					"type": "string",
					"enum": toAny(constants.DocumentTypeStrings()),
				},
				"confidence": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"required":             []any{"level", "explanation"},
					"properties": map[string]any{
						"level": map[string]any{
							"type": "string",
							"enum": toAny(constants.ConfidenceLevelStrings()),
						},
						"explanation": map[string]any{"type": "string"},
					},
				},
			},
		},
	}
}

func InvoiceSchema() Schema {
	return Schema{
		Name: "invoice_extraction",
		Definition: map[string]any{
			"type":                 "object",
			"additionalProperties": false,
			"required":             []any{"type", "price", "date", "description", "logs"},
			"properties": map[string]any{
				"type": map[string]any{
					"type": "string",
					"enum": toAny(constants.InvoiceTypeStrings()),
				},
				"price":       map[string]any{"type": "number"},
				"date":        map[string]any{"type": "string"},
				"description": map[string]any{"type": "string"},
				"notes":       map[string]any{"type": "string"},
				"logs": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type":                 "object",
						"additionalProperties": false,
						"required":             []any{"log", "date"},
						"properties": map[string]any{
							"log":  map[string]any{"type": "string"},
							"date": map[string]any{"type": "string"},
						},
					},
				},
			},
		},
		Canonical: map[string]Canonicalizer{"type": canonicalInvoiceType},
	}
}

func NoteSchema() Schema {
	return Schema{
		Name: "note_extraction",
		Definition: map[string]any{
			"type":                 "object",
			"additionalProperties": false,
			"required":             []any{"content"},
			"properties": map[string]any{
				"author":  nullableString(),
				"date":    nullableString(),
				"content": map[string]any{"type": "string"},
				"tags": map[string]any{
					"type":  []any{"array", "null"},
					"items": map[string]any{"type": "string"},
				},
			},
		},
	}
}

func ResultSchema() Schema {
	return Schema{
		Name: "result_extraction",
		Definition: map[string]any{
			"type":                 "object",
			"additionalProperties": false,
			"required":             []any{"test_results"},
			"properties": map[string]any{
				"patient_name":  nullableString(),
				"overall_notes": nullableString(),
				"test_results": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type":                 "object",
						"additionalProperties": false,
						"required":             []any{"test_name", "value"},
						"properties": map[string]any{
							"test_name":       map[string]any{"type": "string"},
							"value":           map[string]any{"type": "string"},
							"unit":            nullableString(),
							"reference_range": nullableString(),
							"date":            nullableString(),
							"notes":           nullableString(),
						},
					},
				},
			},
		},
	}
}

func nullableString() map[string]any {
	return map[string]any{"type": []any{"string", "null"}}
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func canonicalInvoiceType(s string) (string, bool) {
	t, ok := constants.CanonicalizeInvoiceType(s)
	return string(t), ok
}
