package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// ErrTipsConversion indicates the tips block could not be converted.
var ErrTipsConversion = errors.New("tips conversion failed")

var (
	crlfOrCR           = regexp.MustCompile(`\r\n?`)
	multipleBlankLines = regexp.MustCompile(`\n{3,}`)
)

// TipsConverter renders the trainer's free-form tips as HTML. Line breaks
// are kept as typed; raw HTML in the input is dropped.
type TipsConverter struct {
	md goldmark.Markdown
}

// NewTipsConverter creates a TipsConverter with strikethrough and linkify.
func NewTipsConverter() *TipsConverter {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.Strikethrough,
			extension.Linkify,
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
		),
	)
	return &TipsConverter{md: md}
}

// ToHTML converts tips to an HTML fragment. Empty tips yield "".
func (c *TipsConverter) ToHTML(tips string) (template.HTML, error) {
	tips = normalizeTips(tips)
	if tips == "" {
		return "", nil
	}

	var buf bytes.Buffer
	if err := c.md.Convert([]byte(tips), &buf); err != nil {
		return "", fmt.Errorf("%w: %v", ErrTipsConversion, err)
	}
	// #nosec G203 -- goldmark output with raw HTML disabled
	return template.HTML(buf.String()), nil
}

// normalizeTips unifies line endings, trims, and caps blank runs at one
// empty line.
func normalizeTips(s string) string {
	s = crlfOrCR.ReplaceAllString(s, "\n")
	s = multipleBlankLines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
