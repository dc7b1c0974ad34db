package output

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docinfer/internal/common"
	"docinfer/internal/llm"
	"docinfer/internal/pipeline"
)

func sampleResult() pipeline.Result {
	return pipeline.Result{
		File:          "annual-report.pdf",
		PageCount:     12,
		PagesAnalyzed: 10,
		Embedded:      map[string]string{"Producer": "LaTeX"},
		Metadata: llm.InferredMetadata{
			Title:        "Annual Report 2023",
			Authors:      []string{"Finance Team"},
			DocumentType: "report",
			Date:         "2023-12-31",
			Keywords:     []string{"#finance"},
		},
		Warnings: []string{"analyzed first 10 of 12 pages"},
	}
}

func TestRenderHuman(t *testing.T) {
	out := RenderHuman(sampleResult())
	assert.Contains(t, out, "Annual Report 2023")
	assert.Contains(t, out, "Finance Team")
	assert.Contains(t, out, "report")
	assert.Contains(t, out, "#finance")
	assert.Contains(t, out, "Producer: LaTeX")
	assert.Contains(t, out, "warning: analyzed first 10 of 12 pages")
}

func TestRenderError(t *testing.T) {
	t.Run("tagged failure shows stage and remedy, not the trace", func(t *testing.T) {
		cause := errors.New("dial tcp 127.0.0.1:11434: connect: connection refused")
		err := common.NewStageError(common.StageInfer, common.KindBackendUnavailable, "cannot reach backend", cause)

		out := RenderError(err)
		assert.Contains(t, out, "infer")
		assert.Contains(t, out, "backend_unavailable")
		assert.Contains(t, out, "cannot reach backend")
		assert.Contains(t, out, "hint:")
		assert.NotContains(t, out, "dial tcp")
	})

	t.Run("plain error falls back to its message", func(t *testing.T) {
		out := RenderError(errors.New("something odd"))
		assert.Contains(t, out, "something odd")
	})
}

func TestRenderJSONAndExport(t *testing.T) {
	res := sampleResult()

	data, err := RenderJSON(res)
	require.NoError(t, err)
	var decoded pipeline.Result
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, res, decoded)

	path := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, Export(path, res))
	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, string(data), string(written))
}
