package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docrag/internal/adapter/retriever"
	"docrag/internal/domain"
)

func TestIngestThenAnswer(t *testing.T) {
	docs := mapExtractor{
		"solar.md": "# Solar\nSolar panels convert sunlight into electricity using photovoltaic cells.",
		"bread.md": "# Bread\nBread dough needs flour, water, salt and yeast before it is baked.",
	}
	f := newIngestFixture(t, docs, nil)

	report, err := f.uc.IngestAll(context.Background(), []string{"solar.md", "bread.md"}, nil)
	require.NoError(t, err)
	require.Equal(t, 2, report.Indexed())

	gen := &stubGenerator{reply: "Photovoltaic cells."}
	retrieve := NewRetrieveUseCase(retriever.NewSemanticRetriever(f.index, f.embedder), 0.3)
	answers := NewAnswerUseCase(retrieve, gen, nil)

	ans, err := answers.Answer(context.Background(), "How do solar panels convert sunlight into electricity?", 5)
	require.NoError(t, err)

	require.Len(t, ans.Sources, 2, "top_k larger than the index returns every row")
	assert.Equal(t, "solar.md", ans.Sources[0].Source)
	assert.Equal(t, "Photovoltaic cells.", ans.Text)
	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "[Source: solar.md | chunk 0]")
}

func TestAnswerBelowThresholdAgainstIndex(t *testing.T) {
	docs := mapExtractor{
		"bread.md": "# Bread\nBread dough needs flour, water, salt and yeast before it is baked.",
	}
	f := newIngestFixture(t, docs, nil)
	_, err := f.uc.Ingest(context.Background(), "bread.md")
	require.NoError(t, err)

	gen := &stubGenerator{}
	retrieve := NewRetrieveUseCase(retriever.NewSemanticRetriever(f.index, f.embedder), 0.3)

	ans, err := NewAnswerUseCase(retrieve, gen, nil).Answer(context.Background(), "quantum chromodynamics lattice", 5)
	require.NoError(t, err)

	assert.Equal(t, domain.NoRelevantInformation, ans.Text)
	assert.Len(t, ans.Sources, 1)
	assert.Empty(t, gen.prompts)
}
