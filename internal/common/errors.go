package common

import (
	"errors"
	"fmt"
)

// Stage identifies the pipeline stage an error originated from.
type Stage string

const (
	StageExtract  Stage = "extract"
	StagePrompt   Stage = "prompt"
	StageInfer    Stage = "infer"
	StageValidate Stage = "validate"
)

// Kind classifies failures so callers can react without string matching.
type Kind string

const (
	KindExtraction         Kind = "extraction"
	KindBackendUnavailable Kind = "backend_unavailable"
	KindTimeout            Kind = "timeout"
	KindBackendResponse    Kind = "backend_response"
	KindValidation         Kind = "validation"
	KindCanceled           Kind = "canceled"
)

// StageError is the single error shape that reaches the orchestrator.
type StageError struct {
	Stage   Stage
	Kind    Kind
	Message string
	Cause   error
}

func (e *StageError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Stage, e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s: %s", e.Stage, e.Kind, e.Message)
}

func (e *StageError) Unwrap() error {
	return e.Cause
}

func NewStageError(stage Stage, kind Kind, message string, cause error) *StageError {
	return &StageError{Stage: stage, Kind: kind, Message: message, Cause: cause}
}

// EnsureStage tags err with stage/kind unless it already is a StageError.
func EnsureStage(stage Stage, kind Kind, err error) error {
	if err == nil {
		return nil
	}
	var se *StageError
	if errors.As(err, &se) {
		return err
	}
	return &StageError{Stage: stage, Kind: kind, Message: "stage failed", Cause: err}
}

// KindOf extracts the failure kind, if err carries one.
func KindOf(err error) (Kind, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Kind, true
	}
	return "", false
}

// StageOf extracts the originating stage, if err carries one.
func StageOf(err error) (Stage, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}
	return "", false
}

// Remedy returns a short user-facing hint for expected failure kinds.
func Remedy(kind Kind) string {
	switch kind {
	case KindExtraction:
		return "check that the file exists, is a valid PDF, and supply --password if it is encrypted"
	case KindBackendUnavailable:
		return "check that the inference backend is running (for Ollama: ollama serve)"
	case KindTimeout:
		return "the backend took too long; raise --timeout or use a smaller model"
	case KindBackendResponse:
		return "the backend answered but the response was unusable; check the model name and backend logs"
	case KindValidation:
		return "the model output did not match the metadata schema; retry or use --best-effort"
	default:
		return ""
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
