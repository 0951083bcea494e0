package extract

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
)

// PDFExtractor concatenates the plain text of every page. A PDF that cannot
// be read yields empty text; the failure is logged, not returned.
type PDFExtractor struct {
	logger *zap.Logger
}

func NewPDFExtractor(logger *zap.Logger) *PDFExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PDFExtractor{logger: logger}
}

func (e *PDFExtractor) Extract(path string) (string, error) {
	text, err := readPDF(path)
	if err != nil {
		e.logger.Warn("pdf extraction failed", zap.String("path", path), zap.Error(err))
		return "", nil
	}
	return text, nil
}

func readPDF(path string) (text string, err error) {
	// the parser panics on some malformed files
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	pages := make([]string, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		content, err := p.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		pages = append(pages, content)
	}
	return strings.Join(pages, "\n"), nil
}
