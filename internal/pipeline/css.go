package pipeline

import (
	"context"
	"strings"
)

// CSSInjector defines the contract for CSS injection into HTML.
type CSSInjector interface {
	InjectCSS(ctx context.Context, htmlContent, cssContent string) string
}

// CSSInjection injects CSS as a <style> block into HTML content.
type CSSInjection struct{}

// InjectCSS inserts a <style> block into HTML content.
// Tries </head> first, then <body>, then prepends to the HTML.
func (s *CSSInjection) InjectCSS(ctx context.Context, htmlContent, cssContent string) string {
	if cssContent == "" {
		return htmlContent
	}
	if ctx.Err() != nil {
		return htmlContent
	}

	styleBlock := "<style>" + sanitizeCSS(cssContent) + "</style>"
	lowerHTML := strings.ToLower(htmlContent)

	if idx := strings.Index(lowerHTML, "</head>"); idx != -1 {
		return htmlContent[:idx] + styleBlock + htmlContent[idx:]
	}

	if idx := strings.Index(lowerHTML, "<body"); idx != -1 {
		if closeIdx := strings.Index(htmlContent[idx:], ">"); closeIdx != -1 {
			insertPos := idx + closeIdx + 1
			return htmlContent[:insertPos] + styleBlock + htmlContent[insertPos:]
		}
	}

	return styleBlock + htmlContent
}

// sanitizeCSS escapes "</" so CSS cannot close the <style> element early.
func sanitizeCSS(css string) string {
	return strings.ReplaceAll(css, "</", `<\/`)
}

// ThemeColors holds resolved theme colors. Every field must already be a
// validated CSS color.
type ThemeColors struct {
	Primary          string
	Secondary        string
	Background       string
	Text             string
	HeaderBackground string
	HeaderText       string
	RowA             string
	RowB             string
	Accent           string
}

// ThemeCSS renders the theme as CSS custom properties on :root. The page
// stylesheet only reads these variables, so two themes yield documents that
// differ in this block alone.
func ThemeCSS(c ThemeColors) string {
	var b strings.Builder
	b.WriteString(":root{")
	vars := [...][2]string{
		{"--primary", c.Primary},
		{"--secondary", c.Secondary},
		{"--bg", c.Background},
		{"--text", c.Text},
		{"--header-bg", c.HeaderBackground},
		{"--header-text", c.HeaderText},
		{"--row-a", c.RowA},
		{"--row-b", c.RowB},
		{"--accent", c.Accent},
	}
	for _, v := range vars {
		b.WriteString(v[0])
		b.WriteByte(':')
		b.WriteString(v[1])
		b.WriteByte(';')
	}
	b.WriteString("}")
	return b.String()
}

// HideInteractiveCSS hides editing affordances before capture.
const HideInteractiveCSS = ".export-hidden{display:none !important;}"
