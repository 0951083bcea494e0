// Package extract turns documents on disk into plain text.
package extract

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"docrag/internal/port"
)

var ErrUnsupported = errors.New("unsupported document type")

// Dispatcher picks an extractor by file extension. Extensions without a
// registered extractor fall back to the permissive raw reader when one is
// set, otherwise they fail with ErrUnsupported.
type Dispatcher struct {
	byExt    map[string]port.Extractor
	fallback port.Extractor
}

// NewDispatcher returns the default set: PDF, Markdown and plain text, with
// everything else read as raw bytes.
func NewDispatcher(logger *zap.Logger) *Dispatcher {
	text := TextExtractor{}
	d := &Dispatcher{
		byExt:    make(map[string]port.Extractor),
		fallback: RawExtractor{},
	}
	d.Register(".pdf", NewPDFExtractor(logger))
	d.Register(".md", text)
	d.Register(".markdown", text)
	d.Register(".txt", text)
	return d
}

// Register binds ext (with leading dot, any case) to e.
func (d *Dispatcher) Register(ext string, e port.Extractor) {
	d.byExt[strings.ToLower(ext)] = e
}

// SetFallback replaces the extractor used for unregistered extensions; nil
// disables the fallback.
func (d *Dispatcher) SetFallback(e port.Extractor) {
	d.fallback = e
}

func (d *Dispatcher) Extract(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if e, ok := d.byExt[ext]; ok {
		return e.Extract(path)
	}
	if d.fallback != nil {
		return d.fallback.Extract(path)
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupported, ext)
}
