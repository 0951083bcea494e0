package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docrag/internal/domain"
)

func TestSectionChunkerEmpty(t *testing.T) {
	assert.Empty(t, NewSectionChunker(100).Chunk(""))
	assert.Empty(t, NewSectionChunker(100).Chunk("\n\n  \n"))
}

func TestSectionChunkerHeadings(t *testing.T) {
	text := "# Intro\nThis report introduces the project.\n\n## Method\nWe measured things.\nThen we wrote them down."

	chunks := NewSectionChunker(2400).Chunk(text)
	require.Len(t, chunks, 2)

	assert.Equal(t, "Intro", chunks[0].Context)
	assert.Equal(t, "**Context: Intro**\n\nThis report introduces the project.", chunks[0].Text)
	assert.Equal(t, "Method", chunks[1].Context)
	assert.Equal(t, "**Context: Method**\n\nWe measured things.\nThen we wrote them down.", chunks[1].Text)
}

func TestSectionChunkerDefaultContext(t *testing.T) {
	text := "Preamble before any heading.\n### Details\nThe details."

	chunks := NewSectionChunker(2400).Chunk(text)
	require.Len(t, chunks, 2)
	assert.Equal(t, domain.DefaultContext, chunks[0].Context)
	assert.True(t, strings.HasPrefix(chunks[0].Text, "**Context: Document**\n\n"))
	assert.Equal(t, "Details", chunks[1].Context)
}

func TestSectionChunkerHeadingRules(t *testing.T) {
	tests := []struct {
		line      string
		isHeading bool
	}{
		{"# One", true},
		{"## Two", true},
		{"### Three", true},
		{"   ## Indented", true},
		{"#### Four", false},
		{"#NoSpace", false},
		{"#", false},
		{"text # not heading", false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			chunks := NewSectionChunker(2400).Chunk("body\n" + tt.line + "\nmore")
			if tt.isHeading {
				assert.Len(t, chunks, 2)
			} else {
				assert.Len(t, chunks, 1)
			}
		})
	}
}

func TestSectionChunkerEmptySectionsDropped(t *testing.T) {
	chunks := NewSectionChunker(2400).Chunk("# A\n\n# B\n   \n# C\ncontent")
	require.Len(t, chunks, 1)
	assert.Equal(t, "C", chunks[0].Context)
}

func TestSectionChunkerParagraphFallback(t *testing.T) {
	para := strings.Repeat("word ", 19) + "end" // 98 chars
	paragraphs := make([]string, 10)
	for i := range paragraphs {
		paragraphs[i] = para
	}
	text := strings.Join(paragraphs, "\n\n")

	chunks := NewSectionChunker(250).Chunk(text)
	require.Greater(t, len(chunks), 1)

	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c.Text), 250)
		assert.NotEmpty(t, strings.TrimSpace(StripContext(c.Text)))
		assert.Equal(t, domain.DefaultContext, c.Context)
		assert.True(t, strings.HasPrefix(c.Text, "**Context: Document**\n\n"))
	}
}

func TestSectionChunkerOversizedParagraphKeptWhole(t *testing.T) {
	long := strings.Repeat("x", 500)
	text := "short intro\n\n" + long + "\n\nshort outro"

	chunks := NewSectionChunker(100).Chunk(text)

	found := false
	for _, c := range chunks {
		if StripContext(c.Text) == long {
			found = true
		}
		assert.NotEmpty(t, StripContext(c.Text))
	}
	assert.True(t, found, "oversized paragraph should survive as its own chunk")
}

func TestSectionChunkerReconstructsBodies(t *testing.T) {
	text := Normalize(`Opening paragraph of the document.

# Intro
First intro paragraph with several words.

Second intro paragraph.

## Method
` + strings.Repeat("Measured value and more words. ", 20) + `

` + strings.Repeat("Another long paragraph body. ", 20) + `

### Results
Final results.`)

	chunks := NewSectionChunker(400).Chunk(text)
	require.NotEmpty(t, chunks)

	var bodies []string
	for _, c := range chunks {
		body := StripContext(c.Text)
		if utf8.RuneCountInString(c.Text) > 400 {
			assert.NotContains(t, body, "\n\n", "only a single paragraph may exceed the bound")
		}
		bodies = append(bodies, body)
	}

	var expected []string
	for _, line := range strings.Split(text, "\n") {
		if headingPattern.MatchString(strings.TrimSpace(line)) {
			continue
		}
		expected = append(expected, line)
	}

	assert.Equal(t,
		strings.Join(strings.Fields(strings.Join(expected, "\n")), " "),
		strings.Join(strings.Fields(strings.Join(bodies, "\n")), " "),
	)
}

func TestChunkTextTokenBudget(t *testing.T) {
	para := strings.Repeat("a", 1000)
	text := para + "\n\n" + para + "\n\n" + para

	chunks := ChunkText(text, 600, 100)
	require.Len(t, chunks, 2)
	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c.Text), 600*CharsPerToken)
	}
}

func TestStripContext(t *testing.T) {
	assert.Equal(t, "body", StripContext("**Context: Title**\n\nbody"))
	assert.Equal(t, "no label", StripContext("no label"))
}
