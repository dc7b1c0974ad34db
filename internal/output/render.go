package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"docinfer/internal/common"
	"docinfer/internal/pipeline"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#5F5FD7")).
			Padding(0, 1).
			MarginBottom(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4")).
			Width(18)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD93D"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#808080"))
)

// RenderHuman formats a pipeline result for the terminal.
func RenderHuman(res pipeline.Result) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(res.File))
	b.WriteString("\n")

	row := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(labelStyle.Render(label))
		b.WriteString(valueStyle.Render(value))
		b.WriteString("\n")
	}

	md := res.Metadata
	row("Title", md.Title)
	row("Authors", strings.Join(md.Authors, ", "))
	row("Type", md.DocumentType)
	row("Date", md.Date)
	row("Summary", md.Summary)
	row("Keywords", strings.Join(md.Keywords, " "))
	row("Suggested name", md.SuggestedFilename)
	row("Notes", md.Notes)
	if md.Confidence > 0 {
		row("Confidence", fmt.Sprintf("%.2f", md.Confidence))
	}
	row("Pages", fmt.Sprintf("%d (analyzed %d)", res.PageCount, res.PagesAnalyzed))
	if res.InferenceSkipped {
		b.WriteString(dimStyle.Render("inference skipped; showing embedded metadata only"))
		b.WriteString("\n")
	}

	if len(res.Embedded) > 0 {
		b.WriteString("\n")
		b.WriteString(dimStyle.Render("Embedded PDF metadata:"))
		b.WriteString("\n")
		keys := make([]string, 0, len(res.Embedded))
		for k := range res.Embedded {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			b.WriteString(dimStyle.Render("  " + k + ": " + res.Embedded[k]))
			b.WriteString("\n")
		}
	}

	for _, fe := range res.FieldErrors {
		b.WriteString(errorStyle.Render("field " + fe.Field + ": " + fe.Message))
		b.WriteString("\n")
	}
	for _, w := range res.Warnings {
		b.WriteString(warnStyle.Render("warning: " + w))
		b.WriteString("\n")
	}
	return b.String()
}

// RenderError formats a pipeline failure with its stage, kind, and remedy.
// Expected failure kinds never show a raw transport trace.
func RenderError(err error) string {
	kind, haveKind := common.KindOf(err)
	stage, _ := common.StageOf(err)
	if !haveKind {
		return errorStyle.Render("error: " + err.Error())
	}
	var b strings.Builder
	b.WriteString(errorStyle.Render(fmt.Sprintf("error (%s stage, %s): %s", stage, kind, rootMessage(err))))
	if remedy := common.Remedy(kind); remedy != "" {
		b.WriteString("\n")
		b.WriteString(dimStyle.Render("hint: " + remedy))
	}
	return b.String()
}

func rootMessage(err error) string {
	var se *common.StageError
	if errors.As(err, &se) {
		return se.Message
	}
	return err.Error()
}

// RenderJSON marshals the result for machine consumption.
func RenderJSON(res pipeline.Result) ([]byte, error) {
	return json.MarshalIndent(res, "", "  ")
}

// Export writes the JSON rendering to path.
func Export(path string, res pipeline.Result) error {
	data, err := RenderJSON(res)
	if err != nil {
		return common.WrapError(err, "encode export")
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return common.WrapError(err, "write export file")
	}
	return nil
}
