package extract

import (
	"context"
	"time"
)

// DocumentContent is the normalized extraction result: per-page text plus the
// embedded metadata bag. Immutable once produced.
type DocumentContent struct {
	Path      string
	Pages     []string // one entry per extracted page, "" for pages without text
	Text      string
	PageCount int
	Embedded  map[string]string // PDF Info dictionary, copied verbatim
	Duration  time.Duration
	Warnings  []string
}

// Extractor is Stage 1: file -> DocumentContent.
type Extractor interface {
	Extract(ctx context.Context, path string) (DocumentContent, error)
}
