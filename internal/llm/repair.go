package llm

import (
	"regexp"
	"strings"
	"time"
)

// Per-field repair helpers. Each is a pure function so the heuristics can be
// tested and swapped without touching the validator's control flow.

var (
	reISODate    = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
	rePDFDate    = regexp.MustCompile(`^D:(\d{8})`)
	reFilenameOK = regexp.MustCompile(`[^a-z0-9\-.()\[\]]`)
)

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
	"01/02/2006",
	"2006/01/02",
	"20060102",
}

// RepairDate coerces common date renderings to YYYY-MM-DD.
// "March 3, 2024" -> "2024-03-03", "D:20240303120000Z" -> "2024-03-03".
func RepairDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if m := rePDFDate.FindStringSubmatch(s); m != nil {
		s = m[1]
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	// last resort: an ISO date buried in a longer string
	if m := reISODate.FindString(s); m != "" {
		if t, err := time.Parse("2006-01-02", m); err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	return "", false
}

// RepairAuthors coerces a single-string author field (or a loosely typed list)
// into an ordered sequence of names.
func RepairAuthors(v any) ([]string, bool) {
	switch t := v.(type) {
	case string:
		return splitAuthors(t), true
	case []string:
		var out []string
		for _, s := range t {
			out = append(out, splitAuthors(s)...)
		}
		return out, true
	case []any:
		var out []string
		for _, e := range t {
			s, ok := e.(string)
			if !ok {
				return nil, false
			}
			out = append(out, splitAuthors(s)...)
		}
		return out, true
	default:
		return nil, false
	}
}

func splitAuthors(s string) []string {
	s = strings.ReplaceAll(s, " and ", ";")
	s = strings.ReplaceAll(s, " & ", ";")
	var out []string
	for _, part := range strings.Split(s, ";") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// NormalizeKeywords lowercases keywords and ensures the leading '#'.
func NormalizeKeywords(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if !strings.HasPrefix(kw, "#") {
			kw = "#" + kw
		}
		out = append(out, kw)
	}
	return out
}

// CleanFilename normalizes a proposed filename: lowercase, hyphen-separated,
// restricted charset, ".pdf" suffix, no path components.
func CleanFilename(filename string) string {
	if i := strings.LastIndexAny(filename, `/\`); i >= 0 {
		filename = filename[i+1:]
	}
	filename = strings.ToLower(filename)
	filename = strings.ReplaceAll(filename, " ", "-")
	filename = strings.ReplaceAll(filename, "_", "-")
	filename = reFilenameOK.ReplaceAllString(filename, "")
	for strings.Contains(filename, "--") {
		filename = strings.ReplaceAll(filename, "--", "-")
	}
	filename = strings.Trim(filename, "-")
	if filename == "" || filename == ".pdf" {
		return ""
	}
	if !strings.HasSuffix(filename, ".pdf") {
		filename = strings.TrimRight(filename, ".") + ".pdf"
	}
	return filename
}
