package usecase

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"docrag/internal/domain"
	"docrag/internal/port"
)

var (
	ErrEmptyQuestion         = errors.New("question is empty")
	ErrNoMatchingSource      = errors.New("no retrieved chunk comes from the requested document")
	ErrGenerationUnavailable = errors.New("generation unavailable")
)

// AnswerUseCase answers questions from retrieved chunks.
type AnswerUseCase struct {
	retrieve  *RetrieveUseCase
	generator port.Generator
	logger    *zap.Logger
}

func NewAnswerUseCase(retrieve *RetrieveUseCase, generator port.Generator, logger *zap.Logger) *AnswerUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnswerUseCase{
		retrieve:  retrieve,
		generator: generator,
		logger:    logger,
	}
}

// Answer generates an answer from the retrieved chunks scoring above the
// relevance threshold. Sources always holds every retrieved chunk. When no
// chunk is relevant the generator is not called and the answer is
// domain.NoRelevantInformation.
func (u *AnswerUseCase) Answer(ctx context.Context, question string, topK int) (domain.Answer, error) {
	if strings.TrimSpace(question) == "" {
		return domain.Answer{}, ErrEmptyQuestion
	}

	results, err := u.retrieve.Retrieve(ctx, question, topK)
	if err != nil {
		return domain.Answer{}, err
	}

	relevant := u.retrieve.Relevant(results)
	u.logger.Debug("retrieved chunks",
		zap.Int("retrieved", len(results)),
		zap.Int("relevant", len(relevant)))

	if len(relevant) == 0 {
		return domain.Answer{Text: domain.NoRelevantInformation, Sources: results}, nil
	}

	text, err := u.generate(ctx, question, relevant)
	if err != nil {
		return domain.Answer{}, err
	}
	return domain.Answer{Text: text, Sources: results}, nil
}

// AnswerFrom answers only from retrieved chunks of the named document,
// matched by base name. The relevance threshold does not apply.
func (u *AnswerUseCase) AnswerFrom(ctx context.Context, question string, topK int, document string) (domain.Answer, error) {
	if strings.TrimSpace(question) == "" {
		return domain.Answer{}, ErrEmptyQuestion
	}

	results, err := u.retrieve.Retrieve(ctx, question, topK)
	if err != nil {
		return domain.Answer{}, err
	}

	var matching []domain.SearchResult
	for _, r := range results {
		if filepath.Base(r.Source) == document {
			matching = append(matching, r)
		}
	}
	if len(matching) == 0 {
		return domain.Answer{}, fmt.Errorf("%w: %s", ErrNoMatchingSource, document)
	}

	text, err := u.generate(ctx, question, matching)
	if err != nil {
		return domain.Answer{}, err
	}
	return domain.Answer{Text: text, Sources: matching}, nil
}

func (u *AnswerUseCase) generate(ctx context.Context, question string, sources []domain.SearchResult) (string, error) {
	prompt, err := BuildPrompt(question, sources)
	if err != nil {
		return "", err
	}

	u.logger.Debug("calling generator",
		zap.String("model", u.generator.ModelName()),
		zap.Int("prompt_chars", len(prompt)))

	text, err := u.generator.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrGenerationUnavailable, err)
	}
	return text, nil
}
