package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"docinfer/internal/common"
	"docinfer/internal/llm"
)

// InferMetadata implements llm.MetadataInferrer against Ollama's native chat
// API, asking for schema-constrained output via the "format" field. A single
// bounded retry covers transient connection failures; timeouts and
// cancellations propagate immediately.
func (c *Client) InferMetadata(ctx context.Context, req llm.InferenceRequest) (llm.RawResult, error) {
	rid := uuid.New().String()
	start := time.Now()

	model := req.Model
	if model == "" {
		model = c.cfg.Model
	}

	c.logger.Info("llm.infer.start",
		"req_id", rid,
		"backend", "ollama",
		"model", model,
		"temp", req.Temperature,
		"prompt_len", len(req.User),
	)

	body := map[string]any{
		"model": model,
		"messages": []map[string]any{
			{"role": "system", "content": req.System},
			{"role": "user", "content": req.User},
		},
		"stream": false,
		"options": map[string]any{
			"temperature": req.Temperature,
		},
	}
	if req.Schema != nil {
		body["format"] = req.Schema
	}

	endpoint := c.cfg.Host + "/api/chat"

	var raw []byte
	for attempt := 0; ; attempt++ {
		var status int
		var err error
		raw, status, err = llm.SendJSON(ctx, c.http, endpoint, body, nil, c.logger)
		if err == nil {
			break
		}
		if status > 0 {
			c.logger.Error("llm.infer.bad_status",
				"req_id", rid, "status", status, "body", truncateForLog(raw),
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return llm.RawResult{}, common.NewStageError(common.StageInfer, common.KindBackendResponse,
				fmt.Sprintf("backend returned status %d", status), err)
		}
		kind := llm.ClassifyTransport(err)
		if kind == common.KindBackendUnavailable && attempt == 0 {
			c.logger.Warn("llm.infer.retry",
				"req_id", rid, "error", err, "delay_ms", c.cfg.RetryDelay.Milliseconds(),
			)
			select {
			case <-ctx.Done():
				return llm.RawResult{}, common.NewStageError(common.StageInfer, llm.ClassifyTransport(ctx.Err()),
					"request aborted while waiting to retry", ctx.Err())
			case <-time.After(c.cfg.RetryDelay):
			}
			continue
		}
		c.logger.Error("llm.infer.transport_error",
			"req_id", rid, "kind", string(kind), "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.RawResult{}, common.NewStageError(common.StageInfer, kind, transportMessage(kind), err)
	}

	var envelope struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		Done bool `json:"done"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		c.logger.Error("llm.infer.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.RawResult{}, common.NewStageError(common.StageInfer, common.KindBackendResponse,
			"malformed response envelope", err)
	}
	content := strings.TrimSpace(envelope.Message.Content)
	if content == "" {
		return llm.RawResult{}, common.NewStageError(common.StageInfer, common.KindBackendResponse,
			"empty message content in response", nil)
	}

	c.logger.Info("llm.infer.ok",
		"req_id", rid,
		"content_len", len(content),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if strings.HasPrefix(content, "{") && json.Valid([]byte(content)) {
		return llm.RawResult{Kind: llm.RawStructured, JSON: json.RawMessage(content)}, nil
	}
	return llm.RawResult{Kind: llm.RawText, Text: content}, nil
}

// CheckModel probes /api/tags and reports whether the configured model is
// pulled. Tag suffixes are ignored, so "gemma2" matches "gemma2:latest".
func (c *Client) CheckModel(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.Host+"/api/tags", nil)
	if err != nil {
		return false, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false, common.NewStageError(common.StageInfer, llm.ClassifyTransport(err),
			"backend not reachable", err)
	}
	defer func() {
		if cErr := resp.Body.Close(); cErr != nil {
			c.logger.Warn("llm.tags.body_close_error", "error", cErr)
		}
	}()
	if resp.StatusCode/100 != 2 {
		return false, common.NewStageError(common.StageInfer, common.KindBackendResponse,
			fmt.Sprintf("tags endpoint returned status %d", resp.StatusCode), nil)
	}
	var tags struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&tags); err != nil {
		return false, common.NewStageError(common.StageInfer, common.KindBackendResponse,
			"malformed tags response", err)
	}
	want, _, _ := strings.Cut(c.cfg.Model, ":")
	for _, mdl := range tags.Models {
		name, _, _ := strings.Cut(mdl.Name, ":")
		if name == want {
			return true, nil
		}
	}
	return false, nil
}

func transportMessage(kind common.Kind) string {
	switch kind {
	case common.KindTimeout:
		return "backend exceeded the configured timeout"
	case common.KindCanceled:
		return "request canceled"
	default:
		return "cannot reach backend"
	}
}

func truncateForLog(b []byte) string {
	const max = 512
	if len(b) > max {
		return string(b[:max]) + "…"
	}
	return string(b)
}
