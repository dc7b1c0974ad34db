package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"docinfer/constants"
	"docinfer/internal/common"
	"docinfer/internal/extract"
	"docinfer/internal/llm"
)

// Config holds behavior flags for one pipeline run.
type Config struct {
	Model              string
	Temperature        float32
	Prompt             llm.PromptConfig
	SkipInference      bool // embedded metadata only, no backend call
	AllowEmptyDocument bool // text-free PDFs yield defaults instead of failing
	BestEffort         bool // validator returns partial results
	AllowedTypes       []string
}

// Result is the discriminated success outcome of a run.
type Result struct {
	File             string               `json:"file"`
	PageCount        int                  `json:"page_count"`
	PagesAnalyzed    int                  `json:"pages_analyzed"`
	Embedded         map[string]string    `json:"embedded,omitempty"`
	Metadata         llm.InferredMetadata `json:"metadata"`
	FieldErrors      []llm.FieldError     `json:"field_errors,omitempty"`
	Warnings         []string             `json:"warnings,omitempty"`
	InferenceSkipped bool                 `json:"inference_skipped,omitempty"`
}

// Processor coordinates extract -> prompt -> infer -> validate for one
// document. Stages never overlap, never skip, and never re-enter; the first
// failure short-circuits the run tagged with its stage and kind.
type Processor struct {
	Logger    *slog.Logger
	Cfg       Config
	Extractor extract.Extractor
	Inferrer  llm.MetadataInferrer
}

func NewProcessor(logger *slog.Logger, cfg Config, ex extract.Extractor, inf llm.MetadataInferrer) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if len(cfg.AllowedTypes) == 0 {
		cfg.AllowedTypes = constants.AsStringSlice()
	}
	return &Processor{Logger: logger, Cfg: cfg, Extractor: ex, Inferrer: inf}
}

// ProcessFile runs the full pipeline for a single document. All intermediate
// state lives in locals, so concurrent calls share nothing mutable.
func (p *Processor) ProcessFile(ctx context.Context, path string) (Result, error) {
	rid := uuid.New().String()
	start := time.Now()
	p.Logger.Info("pipeline.run.start", "req_id", rid, "path", path)

	// 1) extract
	doc, err := p.Extractor.Extract(ctx, path)
	if err != nil {
		err = common.EnsureStage(common.StageExtract, common.KindExtraction, err)
		p.Logger.Error("pipeline.extract.failed", "req_id", rid, "path", path, "error", err)
		return Result{}, err
	}

	res := Result{
		File:          path,
		PageCount:     doc.PageCount,
		PagesAnalyzed: len(doc.Pages),
		Embedded:      doc.Embedded,
		Warnings:      append([]string(nil), doc.Warnings...),
	}

	if doc.Text == "" {
		if !p.Cfg.AllowEmptyDocument {
			err := common.NewStageError(common.StageExtract, common.KindExtraction,
				"no extractable text in document", nil)
			p.Logger.Error("pipeline.extract.failed", "req_id", rid, "path", path, "error", err)
			return Result{}, err
		}
		res.Warnings = append(res.Warnings, "no extractable text; inference skipped")
		res.InferenceSkipped = true
		p.mergeEmbedded(doc, &res)
		p.Logger.Info("pipeline.run.ok", "req_id", rid, "empty_document", true,
			"elapsed_ms", time.Since(start).Milliseconds())
		return res, nil
	}

	if p.Cfg.SkipInference {
		res.InferenceSkipped = true
		p.mergeEmbedded(doc, &res)
		p.Logger.Info("pipeline.run.ok", "req_id", rid, "inference_skipped", true,
			"elapsed_ms", time.Since(start).Milliseconds())
		return res, nil
	}

	// 2) prompt
	req := llm.BuildInferenceRequest(doc, p.Cfg.Prompt, p.Cfg.Model, p.Cfg.Temperature, p.Cfg.AllowedTypes)
	p.Logger.Info("pipeline.prompt.ok",
		"req_id", rid,
		"text_len", len(doc.Text),
		"prompt_len", len(req.User),
		"truncated", len(doc.Text) > len(req.User),
	)

	// 3) infer
	raw, err := p.Inferrer.InferMetadata(ctx, req)
	if err != nil {
		err = common.EnsureStage(common.StageInfer, common.KindBackendResponse, err)
		p.Logger.Error("pipeline.infer.failed", "req_id", rid, "error", err)
		return Result{}, err
	}

	// 4) validate
	md, fieldErrs, err := llm.DecodeMetadata(raw, llm.DecodeOptions{
		BestEffort:   p.Cfg.BestEffort,
		AllowedTypes: p.Cfg.AllowedTypes,
	}, p.Logger)
	if err != nil {
		err = common.EnsureStage(common.StageValidate, common.KindValidation, err)
		p.Logger.Error("pipeline.validate.failed", "req_id", rid, "error", err)
		return Result{}, err
	}
	res.Metadata = md
	res.FieldErrors = fieldErrs

	if res.Metadata.DocumentType != "" {
		canon, known := constants.Canonicalize(res.Metadata.DocumentType)
		if !known {
			res.Warnings = append(res.Warnings, "unrecognized document type: "+res.Metadata.DocumentType)
		}
		res.Metadata.DocumentType = string(canon)
	}
	p.mergeEmbedded(doc, &res)

	p.Logger.Info("pipeline.run.ok",
		"req_id", rid,
		"title", res.Metadata.Title,
		"document_type", res.Metadata.DocumentType,
		"field_errors", len(res.FieldErrors),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

// mergeEmbedded fills fields the model omitted from the PDF Info dictionary.
// The provenance lands in Warnings so callers can tell inferred from embedded.
func (p *Processor) mergeEmbedded(doc extract.DocumentContent, res *Result) {
	if res.Metadata.Title == "" {
		if t := doc.Embedded["Title"]; t != "" {
			res.Metadata.Title = t
			res.Warnings = append(res.Warnings, "title taken from embedded metadata")
		}
	}
	if len(res.Metadata.Authors) == 0 {
		if a := doc.Embedded["Author"]; a != "" {
			if names, ok := llm.RepairAuthors(a); ok && len(names) > 0 {
				res.Metadata.Authors = names
				res.Warnings = append(res.Warnings, "authors taken from embedded metadata")
			}
		}
	}
	if res.Metadata.Date == "" {
		if d := doc.Embedded["CreationDate"]; d != "" {
			if norm, ok := llm.RepairDate(d); ok {
				res.Metadata.Date = norm
				res.Warnings = append(res.Warnings, "date taken from embedded metadata")
			}
		}
	}
}
