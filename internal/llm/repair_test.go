package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepairDate(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2024-03-03", "2024-03-03", true},
		{"March 3, 2024", "2024-03-03", true},
		{"Mar 3, 2024", "2024-03-03", true},
		{"3 March 2024", "2024-03-03", true},
		{"03/03/2024", "2024-03-03", true},
		{"2024/03/03", "2024-03-03", true},
		{"20240303", "2024-03-03", true},
		{"2024-03-03T12:30:00Z", "2024-03-03", true},
		{"D:20240303120000Z", "2024-03-03", true},
		{"D:20230101", "2023-01-01", true},
		{"published on 2024-03-03 in Berlin", "2024-03-03", true},
		{"", "", false},
		{"sometime in spring", "", false},
		{"n/a", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, ok := RepairDate(tc.in)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestRepairAuthors(t *testing.T) {
	t.Run("single name", func(t *testing.T) {
		got, ok := RepairAuthors("Jane Doe")
		require.True(t, ok)
		assert.Equal(t, []string{"Jane Doe"}, got)
	})

	t.Run("and separator", func(t *testing.T) {
		got, ok := RepairAuthors("John Smith and Jane Doe")
		require.True(t, ok)
		assert.Equal(t, []string{"John Smith", "Jane Doe"}, got)
	})

	t.Run("mixed separators", func(t *testing.T) {
		got, ok := RepairAuthors("A. Author; B. Builder & C. Coder")
		require.True(t, ok)
		assert.Equal(t, []string{"A. Author", "B. Builder", "C. Coder"}, got)
	})

	t.Run("loosely typed list", func(t *testing.T) {
		got, ok := RepairAuthors([]any{"John Smith and Jane Doe", "Ann Lee"})
		require.True(t, ok)
		assert.Equal(t, []string{"John Smith", "Jane Doe", "Ann Lee"}, got)
	})

	t.Run("non-string element rejected", func(t *testing.T) {
		_, ok := RepairAuthors([]any{"Jane Doe", 42})
		assert.False(t, ok)
	})

	t.Run("unsupported type rejected", func(t *testing.T) {
		_, ok := RepairAuthors(12.5)
		assert.False(t, ok)
	})
}

func TestNormalizeKeywords(t *testing.T) {
	got := NormalizeKeywords([]string{"Statistics", "#ml", " Deep Learning ", "", "  "})
	assert.Equal(t, []string{"#statistics", "#ml", "#deep learning"}, got)
}

func TestCleanFilename(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Annual Report 2023.pdf", "annual-report-2023.pdf"},
		{"My_Report 2023", "my-report-2023.pdf"},
		{"/tmp/docs/Foo Bar.PDF", "foo-bar.pdf"},
		{`C:\docs\Foo Bar.pdf`, "foo-bar.pdf"},
		{"weird!!name??.pdf", "weirdname.pdf"},
		{"a---b.pdf", "a-b.pdf"},
		{"???", ""},
		{"", ""},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, CleanFilename(tc.in))
		})
	}
}
