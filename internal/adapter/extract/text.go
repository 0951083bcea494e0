package extract

import (
	"fmt"
	"os"
	"strings"
)

// TextExtractor returns Markdown and plain text files unchanged.
type TextExtractor struct{}

func (TextExtractor) Extract(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

// RawExtractor reads any file and drops byte sequences that are not valid
// UTF-8.
type RawExtractor struct{}

func (RawExtractor) Extract(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return strings.ToValidUTF8(string(data), ""), nil
}
