package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "whitespace only", in: " \n\t\r\n ", want: ""},
		{name: "carriage returns", in: "a\rb\r\nc", want: "a\nb\n\nc"},
		{name: "collapse blank runs", in: "a\n\n\n\nb\n\n\nc", want: "a\n\nb\n\nc"},
		{name: "keeps single blank line", in: "a\n\nb", want: "a\n\nb"},
		{name: "trims", in: "\n\n  hello  \n\n", want: "hello"},
		{name: "crlf runs", in: "a\r\n\r\nb", want: "a\n\nb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"plain",
		"a\r\r\r\rb",
		"\n\n\nx\n\n\n\n\ny\r\n\r\n\r\nz  ",
		"# Title\r\n\r\n\r\nbody\n\n\n\n",
		strings.Repeat("\r\n", 50) + "tail",
	}

	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
		assert.NotContains(t, once, "\n\n\n")
		assert.NotContains(t, once, "\r")
	}
}
