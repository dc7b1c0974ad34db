package llm

import (
	"context"
	"encoding/json"
)

// InferredMetadata is the normalized shape we want from the LLM.
type InferredMetadata struct {
	Title             string   `json:"title,omitempty"`
	Authors           []string `json:"authors,omitempty"`
	DocumentType      string   `json:"document_type,omitempty"`
	Summary           string   `json:"summary,omitempty"`
	Date              string   `json:"date,omitempty"` // YYYY-MM-DD
	Keywords          []string `json:"keywords,omitempty"`
	SuggestedFilename string   `json:"suggested_filename,omitempty"`
	Notes             string   `json:"notes,omitempty"`
	Confidence        float32  `json:"confidence,omitempty"` // optional (0..1)
}

// InferenceRequest is the rendered prompt plus generation parameters.
// Constructed per call, never retained.
type InferenceRequest struct {
	Model       string
	System      string
	User        string
	Schema      map[string]any
	Temperature float32
}

// RawKind tags the two possible shapes of a backend response.
type RawKind int

const (
	RawStructured RawKind = iota // schema-constrained JSON payload
	RawText                      // free text that needs secondary parsing
)

// RawResult is the backend's raw response. Held by the inference client
// until handed to the validator, then discarded.
type RawResult struct {
	Kind RawKind
	JSON json.RawMessage // set when Kind == RawStructured
	Text string          // set when Kind == RawText
}

// MetadataInferrer is the interface the pipeline depends on.
type MetadataInferrer interface {
	InferMetadata(ctx context.Context, req InferenceRequest) (RawResult, error)
}
