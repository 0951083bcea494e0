package chunker

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"docrag/internal/domain"
)

// CharsPerToken approximates the token budget in characters.
const CharsPerToken = 4

var headingPattern = regexp.MustCompile(`^(#{1,3})\s+(.+)$`)

// SectionChunker splits text at Markdown-style headings and re-splits
// oversized sections on paragraph boundaries. Every chunk starts with a
// context label naming its section.
type SectionChunker struct {
	maxChars int
}

func NewSectionChunker(maxChars int) *SectionChunker {
	return &SectionChunker{maxChars: maxChars}
}

// NewTokenChunker sizes a SectionChunker from a token budget. Overlap is
// accepted for configuration compatibility; sections never overlap.
func NewTokenChunker(maxTokens, overlapTokens int) *SectionChunker {
	_ = overlapTokens
	return NewSectionChunker(maxTokens * CharsPerToken)
}

// ChunkText chunks text with a token budget of maxTokens.
func ChunkText(text string, maxTokens, overlapTokens int) []domain.Chunk {
	return NewTokenChunker(maxTokens, overlapTokens).Chunk(text)
}

func (c *SectionChunker) Chunk(text string) []domain.Chunk {
	if text == "" {
		return nil
	}

	type section struct{ title, body string }
	var sections []section
	var buf []string
	title := domain.DefaultContext

	flush := func() {
		body := strings.TrimSpace(strings.Join(buf, "\n"))
		buf = buf[:0]
		if body != "" {
			sections = append(sections, section{title: title, body: body})
		}
	}

	for _, line := range strings.Split(text, "\n") {
		if m := headingPattern.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			flush()
			title = m[2]
			continue
		}
		buf = append(buf, line)
	}
	flush()

	chunks := make([]domain.Chunk, 0, len(sections))
	for _, s := range sections {
		label := contextLabel(s.title)
		if utf8.RuneCountInString(label)+utf8.RuneCountInString(s.body) <= c.maxChars {
			chunks = append(chunks, domain.Chunk{Text: label + s.body, Context: s.title})
			continue
		}
		for _, part := range splitParagraphs(s.body, c.maxChars-utf8.RuneCountInString(label)) {
			chunks = append(chunks, domain.Chunk{Text: label + part, Context: s.title})
		}
	}
	return chunks
}

// splitParagraphs greedily packs blank-line separated paragraphs into parts
// no longer than limit. A paragraph longer than limit on its own is kept
// whole.
func splitParagraphs(text string, limit int) []string {
	var parts []string
	var buf strings.Builder
	size := 0

	for _, p := range strings.Split(text, "\n\n") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n := utf8.RuneCountInString(p)
		if size > 0 && size+2+n > limit {
			parts = append(parts, buf.String())
			buf.Reset()
			size = 0
		}
		if size > 0 {
			buf.WriteString("\n\n")
			size += 2
		}
		buf.WriteString(p)
		size += n
	}
	if size > 0 {
		parts = append(parts, buf.String())
	}
	return parts
}

func contextLabel(title string) string {
	return fmt.Sprintf("**Context: %s**\n\n", title)
}

// StripContext removes the leading context label from chunk text, if any.
func StripContext(text string) string {
	if !strings.HasPrefix(text, "**Context: ") {
		return text
	}
	if i := strings.Index(text, "**\n\n"); i >= 0 {
		return text[i+4:]
	}
	return text
}
