package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docinfer/internal/extract"
)

func TestTruncateText(t *testing.T) {
	cfg := PromptConfig{CharBudget: 8000}

	t.Run("under budget is untouched", func(t *testing.T) {
		text := strings.Repeat("a", 7999)
		assert.Equal(t, text, TruncateText(text, cfg))
	})

	t.Run("at budget is untouched", func(t *testing.T) {
		text := strings.Repeat("a", 8000)
		assert.Equal(t, text, TruncateText(text, cfg))
	})

	t.Run("over budget keeps head and tail", func(t *testing.T) {
		text := strings.Repeat("H", 6000) + strings.Repeat("m", 10000) + strings.Repeat("T", 2000)
		got := TruncateText(text, cfg)
		assert.Equal(t, strings.Repeat("H", 6000), got[:6000])
		assert.Equal(t, strings.Repeat("T", 2000), got[len(got)-2000:])
		assert.Contains(t, got, OmissionMarker)
		assert.Equal(t, 8000+len(OmissionMarker), len(got))
	})

	t.Run("custom split", func(t *testing.T) {
		got := TruncateText(strings.Repeat("x", 500), PromptConfig{CharBudget: 100, HeadChars: 90, TailChars: 10})
		assert.Equal(t, 100+len(OmissionMarker), len(got))
	})

	t.Run("deterministic", func(t *testing.T) {
		text := strings.Repeat("abc", 5000)
		assert.Equal(t, TruncateText(text, cfg), TruncateText(text, cfg))
	})
}

func TestBuildSystemPrompt(t *testing.T) {
	p := BuildSystemPrompt([]string{"report", "paper", "other"})
	assert.Contains(t, p, "report, paper, other")
	assert.Contains(t, p, "ONLY JSON")

	free := BuildSystemPrompt(nil)
	assert.NotContains(t, free, "enum)")
}

func TestBuildUserPrompt(t *testing.T) {
	doc := extract.DocumentContent{
		Path:      "/data/in/Annual Report 2023.pdf",
		PageCount: 12,
		Embedded: map[string]string{
			"Title":  "Annual Report 2023",
			"Author": "Finance Team",
		},
	}
	p := BuildUserPrompt(doc, "body text")

	assert.Contains(t, p, "Filename: Annual Report 2023.pdf")
	assert.NotContains(t, p, "/data/in/")
	assert.Contains(t, p, "Pages: 12")
	assert.Contains(t, p, "Author: Finance Team")
	assert.Contains(t, p, "Title: Annual Report 2023")
	assert.Contains(t, p, "---\nbody text\n---")

	// embedded keys render in sorted order
	assert.Less(t, strings.Index(p, "Author:"), strings.Index(p, "Title:"))
}

func TestBuildInferenceRequest(t *testing.T) {
	doc := extract.DocumentContent{
		Path:      "notes.pdf",
		PageCount: 1,
		Text:      strings.Repeat("z", 20000),
	}
	types := []string{"report", "other"}
	req := BuildInferenceRequest(doc, PromptConfig{CharBudget: 1000}, "gemma2", 0.2, types)

	assert.Equal(t, "gemma2", req.Model)
	assert.Equal(t, float32(0.2), req.Temperature)
	assert.Contains(t, req.User, OmissionMarker)
	assert.Less(t, len(req.User), 3000)

	props, ok := req.Schema["properties"].(map[string]any)
	require.True(t, ok)
	dt, ok := props["document_type"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, types, dt["enum"])
}
