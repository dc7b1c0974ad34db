package llm

// BuildMetadataJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a generic map.
// We pass this to the backend as a structured output constraint and also use it
// locally to validate. Every field is optional; missing fields default on our side.
func BuildMetadataJSONSchema(allowedTypes []string) map[string]any {
	props := map[string]any{
		"title":              map[string]any{"type": "string"},
		"authors":            map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"document_type":      map[string]any{"type": "string"},
		"summary":            map[string]any{"type": "string", "maxLength": 2000},
		"date":               map[string]any{"type": "string", "pattern": `^\d{4}-\d{2}-\d{2}$`},
		"keywords":           map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"suggested_filename": map[string]any{"type": "string"},
		"notes":              map[string]any{"type": "string"},
		"confidence":         map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
	}

	// Constrain document_type if a taxonomy is provided.
	if len(allowedTypes) > 0 {
		props["document_type"] = map[string]any{
			"type": "string",
			"enum": allowedTypes,
		}
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
	}
}
