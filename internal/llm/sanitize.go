package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"strconv"
	"strings"
)

// NormalizeAndSanitizeJSON repairs a model payload ahead of re-validation:
//   - renames known synonyms (author -> authors, publication_date -> date, ...)
//   - drops null / empty optionals silently (absent and null mean the same thing)
//   - coerces loosely typed fields (string author -> one-element list, date
//     renderings -> YYYY-MM-DD, numeric confidence encodings)
//   - removes unknown keys (additionalProperties = false friendliness)
//
// Fields that cannot be repaired are removed and reported in failed; they are
// the validator's per-field error material.
func NormalizeAndSanitizeJSON(raw []byte, logger *slog.Logger) ([]byte, []FieldError, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	var failed []FieldError
	var repaired []string
	fail := func(field, msg string) {
		delete(m, field)
		failed = append(failed, FieldError{Field: field, Message: msg})
	}

	// 1) rename synonyms to our schema
	rename := func(from, to string) {
		if v, ok := m[from]; ok {
			// don't overwrite an existing value if already present
			if _, exists := m[to]; !exists {
				m[to] = v
				repaired = append(repaired, from+"->"+to)
			}
			delete(m, from)
		}
	}
	rename("author", "authors")
	rename("type", "document_type")
	rename("doc_type", "document_type")
	rename("category", "document_type")
	rename("published", "date")
	rename("published_date", "date")
	rename("publication_date", "date")
	rename("creation_date", "date")
	rename("abstract", "summary")
	rename("description", "summary")
	rename("tags", "keywords")
	rename("filename", "suggested_filename")

	// 2) drop nulls; absent and null are equivalent for every field
	for k, v := range maps.Clone(m) {
		if v == nil {
			delete(m, k)
		}
	}

	// 3) loosely typed fields
	if v, ok := m["authors"]; ok {
		if _, isList := v.([]any); !isList {
			if names, ok := RepairAuthors(v); ok && len(names) > 0 {
				m["authors"] = names
				repaired = append(repaired, "authors")
			} else {
				fail("authors", "expected a list of names")
			}
		}
	}
	if v, ok := m["date"]; ok {
		s, isStr := v.(string)
		if !isStr {
			fail("date", "expected a date string")
		} else if norm, ok := RepairDate(s); ok {
			if norm != s {
				repaired = append(repaired, "date")
			}
			m["date"] = norm
		} else if strings.TrimSpace(s) == "" {
			delete(m, "date")
		} else {
			fail("date", fmt.Sprintf("unrecognized date %q", s))
		}
	}
	if v, ok := m["keywords"]; ok {
		switch t := v.(type) {
		case string:
			m["keywords"] = NormalizeKeywords(strings.Split(t, ","))
			repaired = append(repaired, "keywords")
		case []any:
			kws := make([]string, 0, len(t))
			bad := false
			for _, e := range t {
				s, ok := e.(string)
				if !ok {
					bad = true
					break
				}
				kws = append(kws, s)
			}
			if bad {
				fail("keywords", "expected a list of strings")
			} else {
				m["keywords"] = NormalizeKeywords(kws)
			}
		default:
			fail("keywords", "expected a list of strings")
		}
	}
	if v, ok := m["suggested_filename"]; ok {
		s, isStr := v.(string)
		if !isStr {
			fail("suggested_filename", "expected a string")
		} else if cleaned := CleanFilename(s); cleaned != "" {
			if cleaned != s {
				repaired = append(repaired, "suggested_filename")
			}
			m["suggested_filename"] = cleaned
		} else {
			delete(m, "suggested_filename")
		}
	}
	if v, ok := m["confidence"]; ok {
		switch t := v.(type) {
		case float64:
			if t < 0 || t > 1 {
				fail("confidence", "expected a number in 0..1")
			}
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil && f >= 0 && f <= 1 {
				m["confidence"] = f
				repaired = append(repaired, "confidence")
			} else {
				fail("confidence", "expected a number in 0..1")
			}
		default:
			fail("confidence", "expected a number in 0..1")
		}
	}

	// 4) plain string fields: trim, drop empties, reject other types
	for _, k := range []string{"title", "document_type", "summary", "notes"} {
		v, ok := m[k]
		if !ok {
			continue
		}
		s, isStr := v.(string)
		if !isStr {
			fail(k, "expected a string")
			continue
		}
		s = strings.TrimSpace(s)
		if s == "" {
			delete(m, k)
			continue
		}
		m[k] = s
	}
	if s, ok := m["summary"].(string); ok && len(s) > 2000 {
		m["summary"] = s[:2000]
		repaired = append(repaired, "summary")
	}

	// 5) remove unknown keys
	allowed := map[string]struct{}{
		"title": {}, "authors": {}, "document_type": {}, "summary": {},
		"date": {}, "keywords": {}, "suggested_filename": {}, "notes": {},
		"confidence": {},
	}
	for k := range maps.Clone(m) {
		if _, ok := allowed[k]; !ok {
			delete(m, k)
			repaired = append(repaired, k+"(removed)")
		}
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, failed, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(repaired) > 0 || len(failed) > 0 {
		logger.Warn("llm.validate.sanitize", "repaired", repaired, "failed", len(failed))
	}
	return out, failed, nil
}
