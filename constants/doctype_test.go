package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAsStringSlice(t *testing.T) {
	types := AsStringSlice()
	assert.Len(t, types, len(allDocumentTypes))
	assert.Contains(t, types, "report")
	assert.Contains(t, types, "other")
}

func TestCanonicalize(t *testing.T) {
	cases := []struct {
		in    string
		want  DocumentType
		known bool
	}{
		{"report", Report, true},
		{"Report", Report, true},
		{"  THESIS  ", Thesis, true},
		{"whitepaper", Report, true},
		{"annual report", Report, true},
		{"research paper", Paper, true},
		{"dissertation", Thesis, true},
		{"receipt", Invoice, true},
		{"slide deck", Presentation, true},
		{"shopping list", Other, false},
		{"", Other, false},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, known := Canonicalize(tc.in)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.known, known)
		})
	}
}

func TestNormalizeExt(t *testing.T) {
	assert.Equal(t, "pdf", NormalizeExt(".PDF"))
	assert.Equal(t, "pdf", NormalizeExt("pdf"))
	assert.True(t, IsSupportedExt(".pdf"))
	assert.False(t, IsSupportedExt(".docx"))
}
