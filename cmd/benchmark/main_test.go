package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docrag/internal/domain"
)

func TestSummarizeNoResults(t *testing.T) {
	m := summarize(nil, 0.3)
	assert.Equal(t, metrics{}, m)
}

func TestSummarize(t *testing.T) {
	results := []domain.SearchResult{{Score: 0.9}, {Score: 0.3}, {Score: 0.0}}
	m := summarize(results, 0.3)

	assert.InDelta(t, 0.4, m.Average, 1e-9)
	assert.Equal(t, 0.9, m.Top)
	assert.Equal(t, 1, m.Relevant)
}

func TestPreviewKeepsRunesWhole(t *testing.T) {
	text := strings.Repeat("é", 200)
	got := preview(text, 150)

	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, strings.Repeat("é", 150)+"...", got)
	assert.Equal(t, "short", preview("short", 150))
}

func TestLoadQueries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queries.txt")
	require.NoError(t, os.WriteFile(path, []byte("first\n\n  second  \n"), 0644))

	queries, err := loadQueries(" inline ", path)
	require.NoError(t, err)
	assert.Equal(t, []string{"inline", "first", "second"}, queries)

	queries, err = loadQueries("", "")
	require.NoError(t, err)
	assert.Empty(t, queries)
}
