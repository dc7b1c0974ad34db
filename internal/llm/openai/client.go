package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"

	"docinfer/internal/common"
	"docinfer/internal/llm"
)

// InferMetadata implements llm.MetadataInferrer via chat/completions on any
// OpenAI-compatible endpoint. Structured output is requested with the
// json_object response format plus the schema embedded in a system message;
// local validation handles the rest.
func (c *Client) InferMetadata(ctx context.Context, req llm.InferenceRequest) (llm.RawResult, error) {
	rid := uuid.New().String()
	start := time.Now()

	model := req.Model
	if model == "" {
		model = c.cfg.Model
	}

	c.logger.Info("llm.infer.start",
		"req_id", rid,
		"backend", "openai",
		"model", model,
		"temp", req.Temperature,
		"prompt_len", len(req.User),
	)

	chatReq := openai.ChatCompletionRequest{
		Model:       model,
		Temperature: req.Temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.User + "\n\nReturn ONLY JSON that matches the provided schema."},
			{Role: openai.ChatMessageRoleSystem, Content: "JSON Schema:\n" + mustJSON(req.Schema)},
		},
	}

	var resp openai.ChatCompletionResponse
	for attempt := 0; ; attempt++ {
		var err error
		resp, err = c.api.CreateChatCompletion(ctx, chatReq)
		if err == nil {
			break
		}
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			c.logger.Error("llm.infer.api_error",
				"req_id", rid, "status", apiErr.HTTPStatusCode, "error", err,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return llm.RawResult{}, common.NewStageError(common.StageInfer, common.KindBackendResponse,
				fmt.Sprintf("backend returned status %d", apiErr.HTTPStatusCode), err)
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
		switch kind {
		case common.KindTimeout:
			return llm.RawResult{}, common.NewStageError(common.StageInfer, kind,
				"backend exceeded the configured timeout", err)
		case common.KindCanceled:
			return llm.RawResult{}, common.NewStageError(common.StageInfer, kind, "request canceled", err)
		default:
			return llm.RawResult{}, common.NewStageError(common.StageInfer, kind, "cannot reach backend", err)
		}
	}

	if len(resp.Choices) == 0 {
		return llm.RawResult{}, common.NewStageError(common.StageInfer, common.KindBackendResponse,
			"no choices in response", nil)
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
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

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
