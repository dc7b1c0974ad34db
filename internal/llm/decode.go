package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"docinfer/internal/common"
)

// FieldError reports one metadata field that failed repair.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// DecodeOptions control the validator.
type DecodeOptions struct {
	BestEffort   bool // return a partial result instead of failing on bad fields
	AllowedTypes []string
}

// DecodeMetadata turns a raw backend response into an InferredMetadata.
// Strict schema parse first; on failure a repair pass runs before giving up.
// Every field that fails repair is reported, even when best-effort mode still
// returns the partial result.
func DecodeMetadata(res RawResult, opts DecodeOptions, logger *slog.Logger) (InferredMetadata, []FieldError, error) {
	if logger == nil {
		logger = slog.Default()
	}

	raw := []byte(res.JSON)
	if res.Kind == RawText {
		obj, err := ExtractJSONObject(res.Text)
		if err != nil {
			return InferredMetadata{}, nil, common.NewStageError(common.StageValidate, common.KindValidation,
				"backend returned free text with no JSON object", err)
		}
		raw = obj
	}

	schema := BuildMetadataJSONSchema(opts.AllowedTypes)

	// Strict pass: a schema-conformant payload needs no repair.
	if err := ValidateJSONAgainstSchema(schema, raw); err == nil {
		md, uErr := unmarshalMetadata(raw)
		if uErr != nil {
			return InferredMetadata{}, nil, common.NewStageError(common.StageValidate, common.KindValidation,
				"decode metadata", uErr)
		}
		return md, nil, nil
	}

	// Repair pass.
	cleaned, failed, err := NormalizeAndSanitizeJSON(raw, logger)
	if err != nil {
		return InferredMetadata{}, nil, common.NewStageError(common.StageValidate, common.KindValidation,
			"response is not a JSON object", err)
	}

	if vErr := ValidateJSONAgainstSchema(schema, cleaned); vErr != nil {
		// Drop the fields the schema still rejects and try once more.
		cleaned, failed = dropFailingFields(cleaned, failed, SchemaFailures(vErr))
		if vErr2 := ValidateJSONAgainstSchema(schema, cleaned); vErr2 != nil {
			return InferredMetadata{}, failed, common.NewStageError(common.StageValidate, common.KindValidation,
				"response failed schema validation after repair: "+strings.Join(SchemaFailures(vErr2), "; "), vErr2)
		}
	}

	md, uErr := unmarshalMetadata(cleaned)
	if uErr != nil {
		return InferredMetadata{}, failed, common.NewStageError(common.StageValidate, common.KindValidation,
			"decode repaired metadata", uErr)
	}

	if len(failed) > 0 {
		logger.Warn("llm.validate.fields_failed", "count", len(failed), "fields", fieldNames(failed))
		if !opts.BestEffort {
			return InferredMetadata{}, failed, common.NewStageError(common.StageValidate, common.KindValidation,
				"fields failed repair: "+strings.Join(fieldNames(failed), ", "), nil)
		}
	}
	return md, failed, nil
}

func unmarshalMetadata(raw []byte) (InferredMetadata, error) {
	var md InferredMetadata
	if err := json.Unmarshal(raw, &md); err != nil {
		return InferredMetadata{}, err
	}
	if len(md.Keywords) > 0 {
		md.Keywords = NormalizeKeywords(md.Keywords)
	}
	return md, nil
}

func dropFailingFields(raw []byte, failed []FieldError, failures []string) ([]byte, []FieldError) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return raw, failed
	}
	seen := map[string]bool{}
	for _, f := range failed {
		seen[f.Field] = true
	}
	for _, failure := range failures {
		field := FieldFromFailure(failure)
		if field == "" || seen[field] {
			continue
		}
		if _, ok := m[field]; !ok {
			continue
		}
		delete(m, field)
		seen[field] = true
		_, msg, _ := strings.Cut(failure, ":")
		failed = append(failed, FieldError{Field: field, Message: strings.TrimSpace(msg)})
	}
	out, err := json.Marshal(m)
	if err != nil {
		return raw, failed
	}
	return out, failed
}

func fieldNames(failed []FieldError) []string {
	names := make([]string, len(failed))
	for i, f := range failed {
		names[i] = f.Field
	}
	return names
}

// ExtractJSONObject finds the first balanced JSON object in free text,
// tolerating markdown code fences around it.
func ExtractJSONObject(text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if i := strings.Index(text, "```"); i >= 0 {
		rest := text[i+3:]
		rest = strings.TrimPrefix(rest, "json")
		if j := strings.Index(rest, "```"); j >= 0 {
			text = rest[:j]
		} else {
			text = rest
		}
	}

	start := strings.IndexByte(text, '{')
	if start < 0 {
		return nil, fmt.Errorf("no JSON object found")
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				candidate := []byte(text[start : i+1])
				if !json.Valid(candidate) {
					return nil, fmt.Errorf("candidate object is not valid JSON")
				}
				return candidate, nil
			}
		}
	}
	return nil, fmt.Errorf("unbalanced JSON object")
}
