package llm

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"docinfer/internal/extract"
)

// OmissionMarker separates the retained head and tail of a truncated document.
const OmissionMarker = "\n\n[... middle of document omitted ...]\n\n"

// PromptConfig bounds how much document text is sent to the backend.
type PromptConfig struct {
	CharBudget int // maximum document characters in the request
	HeadChars  int // characters kept from the start; 0 = 3/4 of the budget
	TailChars  int // characters kept from the end; 0 = the remainder
}

func (c PromptConfig) withDefaults() PromptConfig {
	if c.CharBudget <= 0 {
		c.CharBudget = 8000
	}
	if c.HeadChars <= 0 || c.HeadChars >= c.CharBudget {
		c.HeadChars = c.CharBudget * 3 / 4
	}
	if c.TailChars <= 0 || c.HeadChars+c.TailChars > c.CharBudget {
		c.TailChars = c.CharBudget - c.HeadChars
	}
	return c
}

// TruncateText keeps the head and tail of over-budget text, preserving the
// front-matter (title/authors) and back-matter (date/references) signal.
// Deterministic for identical input and config.
func TruncateText(text string, cfg PromptConfig) string {
	cfg = cfg.withDefaults()
	if len(text) <= cfg.CharBudget {
		return text
	}
	return text[:cfg.HeadChars] + OmissionMarker + text[len(text)-cfg.TailChars:]
}

// BuildSystemPrompt composes the fixed instruction text with the document-type
// taxonomy and strict-but-practical formatting rules.
func BuildSystemPrompt(allowedTypes []string) string {
	var typeLine string
	if len(allowedTypes) > 0 {
		typeLine = "If you include 'document_type' it MUST be exactly one of the allowed enum. " +
			"If uncertain, choose 'other'. Allowed types (enum): " + strings.Join(allowedTypes, ", ") + "."
	} else {
		typeLine = "If you include 'document_type' it must be a short, sensible label such as report, paper, or manual."
	}

	parts := []string{
		"You are a document metadata analyst. Return ONLY JSON that matches the provided JSON Schema.",
		"You will receive text from the pages of a PDF document; extract metadata from it.",
		"For 'title', use the document's own title, not a description of it.",
		"For 'authors', list person or organization names in document order.",
		"For 'summary', write 2-3 concise sentences about the main topic, purpose, and key themes.",
		"For 'date', use the publication or creation date in ISO-8601 form (YYYY-MM-DD).",
		typeLine,
		"For 'keywords', give 3-7 lowercase hashtag-style keywords (e.g. #statistics, #machinelearning).",
		"For 'suggested_filename', follow the pattern topic-title-author-year.pdf, lowercase with hyphens; use 'unknown' for parts you cannot determine.",
		"Be accurate and concise. Use only facts present in the text.",
		"Never output null. If a field cannot be determined, omit it.",
	}
	return strings.Join(parts, " ")
}

// BuildUserPrompt packages the filename hint, any embedded metadata, and the
// (possibly truncated) document text.
func BuildUserPrompt(doc extract.DocumentContent, text string) string {
	var b strings.Builder
	b.WriteString("Filename: ")
	b.WriteString(filepath.Base(doc.Path))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Pages: %d\n", doc.PageCount)

	if len(doc.Embedded) > 0 {
		b.WriteString("Embedded PDF metadata (may be incomplete or wrong):\n")
		keys := make([]string, 0, len(doc.Embedded))
		for k := range doc.Embedded {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "  %s: %s\n", k, doc.Embedded[k])
		}
	}

	b.WriteString("\nDocument text:\n---\n")
	b.WriteString(text)
	b.WriteString("\n---\n")
	return b.String()
}

// BuildInferenceRequest renders a DocumentContent into the request sent to the
// backend. Pure: no randomness, no I/O.
func BuildInferenceRequest(doc extract.DocumentContent, cfg PromptConfig, model string, temperature float32, allowedTypes []string) InferenceRequest {
	text := TruncateText(doc.Text, cfg)
	return InferenceRequest{
		Model:       model,
		System:      BuildSystemPrompt(allowedTypes),
		User:        BuildUserPrompt(doc, text),
		Schema:      BuildMetadataJSONSchema(allowedTypes),
		Temperature: temperature,
	}
}
