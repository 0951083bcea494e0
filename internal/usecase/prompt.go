package usecase

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"docrag/internal/domain"
)

//go:embed templates/*.txt
var promptTemplates embed.FS

const sourceSeparator = "\n\n---\n\n"

// PromptData is the input of the answer prompt template.
type PromptData struct {
	Question string
	Sources  []domain.SearchResult
}

var answerTemplate = template.Must(
	template.New("answer_prompt.txt").Funcs(templateFuncs()).ParseFS(promptTemplates, "templates/answer_prompt.txt"),
)

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"formatSources": formatSources,
	}
}

func formatSources(sources []domain.SearchResult) string {
	blocks := make([]string, len(sources))
	for i, s := range sources {
		blocks[i] = fmt.Sprintf("[Source: %s | chunk %d]\n%s", s.Source, s.ChunkID, s.Text)
	}
	return strings.Join(blocks, sourceSeparator)
}

// BuildPrompt renders the answer prompt for question over sources.
func BuildPrompt(question string, sources []domain.SearchResult) (string, error) {
	var buf bytes.Buffer
	if err := answerTemplate.Execute(&buf, PromptData{Question: question, Sources: sources}); err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}
