//go:build !cgo

package embedding

import (
	"context"
	"errors"
)

// ErrFastEmbedUnavailable is returned when the binary was built without CGO.
var ErrFastEmbedUnavailable = errors.New("fastembed: not available (binary built without CGO support, use the openai or hash provider)")

type FastEmbedConfig struct {
	Model     string
	CacheDir  string
	MaxLength int
	BatchSize int
}

// FastEmbedEmbedder is a stub for non-CGO builds.
type FastEmbedEmbedder struct{}

func NewFastEmbedEmbedder(_ FastEmbedConfig) (*FastEmbedEmbedder, error) {
	return nil, ErrFastEmbedUnavailable
}

func (e *FastEmbedEmbedder) Embed(_ context.Context, _ []string) ([][]float32, error) {
	return nil, ErrFastEmbedUnavailable
}

func (e *FastEmbedEmbedder) Dimension() int { return 0 }

func (e *FastEmbedEmbedder) ModelName() string { return "" }

func (e *FastEmbedEmbedder) Close() error { return nil }
