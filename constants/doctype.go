package constants

import (
	"strings"
)

type DocumentType string

const (
	Article      DocumentType = "article"
	Book         DocumentType = "book"
	Invoice      DocumentType = "invoice"
	Legal        DocumentType = "legal"
	Letter       DocumentType = "letter"
	Manual       DocumentType = "manual"
	Paper        DocumentType = "paper"
	Presentation DocumentType = "presentation"
	Report       DocumentType = "report"
	Thesis       DocumentType = "thesis"
	Other        DocumentType = "other"
)

var allDocumentTypes = []DocumentType{
	Article,
	Book,
	Invoice,
	Legal,
	Letter,
	Manual,
	Paper,
	Presentation,
	Report,
	Thesis,
	Other,
}

func AsStringSlice() []string {
	result := make([]string, len(allDocumentTypes))
	for i, dt := range allDocumentTypes {
		result[i] = string(dt)
	}
	return result
}

func Canonicalize(input string) (DocumentType, bool) {
	if input == "" {
		return Other, false
	}

	normalized := strings.ToLower(strings.TrimSpace(input))

	// synonyms map
	synonyms := map[string]DocumentType{
		"journal article":  Article,
		"magazine article": Article,
		"blog post":        Article,
		"news":             Article,
		"ebook":            Book,
		"textbook":         Book,
		"receipt":          Invoice,
		"bill":             Invoice,
		"contract":         Legal,
		"agreement":        Legal,
		"terms":            Legal,
		"memo":             Letter,
		"correspondence":   Letter,
		"guide":            Manual,
		"handbook":         Manual,
		"documentation":    Manual,
		"research paper":   Paper,
		"preprint":         Paper,
		"conference paper": Paper,
		"slides":           Presentation,
		"slide deck":       Presentation,
		"whitepaper":       Report,
		"white paper":      Report,
		"annual report":    Report,
		"technical report": Report,
		"dissertation":     Thesis,
	}

	if dt, ok := synonyms[normalized]; ok {
		return dt, true
	}

	// check if it matches any document type string
	for _, dt := range allDocumentTypes {
		if normalized == string(dt) {
			return dt, true
		}
	}

	return Other, false
}
