package extract

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docinfer/internal/common"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestExtract_UnsupportedExtension(t *testing.T) {
	e := NewPDFExtractor(Config{}, discardLogger())
	_, err := e.Extract(context.Background(), "notes.txt")
	require.Error(t, err)
	kind, ok := common.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, common.KindExtraction, kind)
	assert.Contains(t, err.Error(), "unsupported file type")
}

func TestExtract_MissingFile(t *testing.T) {
	e := NewPDFExtractor(Config{}, discardLogger())
	_, err := e.Extract(context.Background(), filepath.Join(t.TempDir(), "nope.pdf"))
	require.Error(t, err)
	kind, _ := common.KindOf(err)
	assert.Equal(t, common.KindExtraction, kind)
	assert.Contains(t, err.Error(), "file not found")
}

func TestExtract_Directory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "folder.pdf")
	require.NoError(t, os.Mkdir(dir, 0o755))

	e := NewPDFExtractor(Config{}, discardLogger())
	_, err := e.Extract(context.Background(), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "directory")
}

func TestExtract_CorruptedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.pdf")
	require.NoError(t, os.WriteFile(path, []byte("this is not a pdf at all"), 0o644))

	e := NewPDFExtractor(Config{}, discardLogger())
	_, err := e.Extract(context.Background(), path)
	require.Error(t, err)
	kind, _ := common.KindOf(err)
	assert.Equal(t, common.KindExtraction, kind)
	assert.Contains(t, err.Error(), "invalid or corrupted PDF")
}

func TestExtract_TruncatedHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "truncated.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.7\n"), 0o644))

	e := NewPDFExtractor(Config{}, discardLogger())
	_, err := e.Extract(context.Background(), path)
	require.Error(t, err)
	kind, _ := common.KindOf(err)
	assert.Equal(t, common.KindExtraction, kind)
}
