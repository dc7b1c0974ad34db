package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	"docinfer/constants"
	"docinfer/internal/common"
)

// Config for the PDF extractor.
type Config struct {
	MaxPages int    // cap on pages whose text is extracted; 0 = all
	Password string // decryption password, if the document needs one
}

// PDFExtractor reads page text and the Info dictionary from a PDF file.
type PDFExtractor struct {
	cfg    Config
	logger *slog.Logger
}

func NewPDFExtractor(cfg Config, logger *slog.Logger) *PDFExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &PDFExtractor{cfg: cfg, logger: logger}
}

// Extract opens path read-only and produces a DocumentContent. Pages without
// extractable text become empty strings, never errors.
func (e *PDFExtractor) Extract(ctx context.Context, path string) (DocumentContent, error) {
	start := time.Now()

	if !constants.IsSupportedExt(filepath.Ext(path)) {
		return DocumentContent{}, common.NewStageError(common.StageExtract, common.KindExtraction,
			fmt.Sprintf("unsupported file type: %q", filepath.Ext(path)), nil)
	}

	st, err := os.Stat(path)
	if err != nil {
		return DocumentContent{}, common.NewStageError(common.StageExtract, common.KindExtraction,
			"file not found or unreadable: "+path, err)
	}
	if st.IsDir() {
		return DocumentContent{}, common.NewStageError(common.StageExtract, common.KindExtraction,
			"path is a directory: "+path, nil)
	}

	f, err := os.Open(path)
	if err != nil {
		return DocumentContent{}, common.NewStageError(common.StageExtract, common.KindExtraction,
			"open file: "+path, err)
	}
	defer func() {
		if cErr := f.Close(); cErr != nil {
			e.logger.Warn("extract.close_error", "path", path, "error", cErr)
		}
	}()

	r, err := openReader(f, st.Size(), e.cfg.Password)
	if err != nil {
		if errors.Is(err, pdf.ErrInvalidPassword) {
			return DocumentContent{}, common.NewStageError(common.StageExtract, common.KindExtraction,
				"PDF is encrypted and the password is missing or wrong", err)
		}
		return DocumentContent{}, common.NewStageError(common.StageExtract, common.KindExtraction,
			"invalid or corrupted PDF", err)
	}

	doc := DocumentContent{
		Path:      path,
		PageCount: r.NumPage(),
		Embedded:  infoDict(r),
	}

	limit := doc.PageCount
	if e.cfg.MaxPages > 0 && e.cfg.MaxPages < limit {
		limit = e.cfg.MaxPages
		doc.Warnings = append(doc.Warnings,
			fmt.Sprintf("analyzed first %d of %d pages", limit, doc.PageCount))
	}

	var b strings.Builder
	for i := 1; i <= limit; i++ {
		select {
		case <-ctx.Done():
			return DocumentContent{}, common.NewStageError(common.StageExtract, common.KindCanceled,
				"extraction canceled", ctx.Err())
		default:
		}
		text := pageText(r.Page(i))
		doc.Pages = append(doc.Pages, text)
		if text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(text)
	}
	doc.Text = b.String()
	doc.Duration = time.Since(start)

	e.logger.Info("extract.ok",
		"path", path,
		"pages", doc.PageCount,
		"pages_analyzed", limit,
		"text_len", len(doc.Text),
		"embedded_keys", len(doc.Embedded),
		"elapsed_ms", doc.Duration.Milliseconds(),
	)
	return doc, nil
}

// openReader tolerates the parser panicking on malformed cross-reference
// tables; a panic is reported as a corrupt document.
func openReader(f *os.File, size int64, password string) (r *pdf.Reader, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r, err = nil, fmt.Errorf("pdf parser: %v", rec)
		}
	}()
	pw := func() string {
		s := password
		password = ""
		return s
	}
	return pdf.NewReaderEncrypted(f, size, pw)
}

func pageText(p pdf.Page) (text string) {
	defer func() {
		if rec := recover(); rec != nil {
			text = ""
		}
	}()
	if p.V.IsNull() {
		return ""
	}
	s, err := p.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

// infoDict copies the document Info dictionary verbatim into a string map.
func infoDict(r *pdf.Reader) map[string]string {
	meta := map[string]string{}
	defer func() {
		_ = recover() // malformed trailers are not fatal; partial metadata is fine
	}()
	info := r.Trailer().Key("Info")
	if info.Kind() != pdf.Dict {
		return meta
	}
	for _, k := range info.Keys() {
		v := info.Key(k)
		switch v.Kind() {
		case pdf.String:
			if s := strings.TrimSpace(v.Text()); s != "" {
				meta[k] = s
			}
		case pdf.Name:
			meta[k] = v.Name()
		}
	}
	return meta
}
