package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
)

// ErrPageRender indicates the page template failed to execute.
var ErrPageRender = errors.New("page template rendering failed")

// Decoration levels understood by the page template.
const (
	DecorationMinimal  = "minimal"
	DecorationStandard = "standard"
	DecorationRich     = "rich"
)

// PageData is the view model of one rendered page.
type PageData struct {
	Heading       string
	IsMeal        bool
	StudentName   string
	StudentWeight string
	RenewalDate   string

	Width     int // CSS pixels
	MinHeight int // CSS pixels, 0 for natural height

	Decoration  string
	Decorated   bool // false when Decoration is minimal
	Interactive bool // emit editing affordances marked export-hidden

	ShowHeader bool
	ShowTips   bool
	ShowFooter bool

	Days     []DayView
	TipsHTML template.HTML
	Contact  ContactView
}

// DayView is one day table.
type DayView struct {
	Index int // absolute index in the routine
	Name  string
	Icon  string
	Count int
	Rows  []RowView
}

// RowView is one table row.
type RowView struct {
	Number    int
	Label     string
	Primary   string
	Secondary string
	Tertiary  string
	Class     string // "row-a" or "row-b"
}

// ContactView is the renewal contact shown in the footer.
type ContactView struct {
	Label string
	Phone string
}

// PageRenderer defines the contract for rendering a page view model.
type PageRenderer interface {
	RenderPage(ctx context.Context, data *PageData, css string) (string, error)
}

// TemplatePageRenderer renders pages with a parsed html/template and
// injects the combined stylesheet.
type TemplatePageRenderer struct {
	tmpl        *template.Template
	cssInjector CSSInjector
}

// NewTemplatePageRenderer parses tmplContent once.
func NewTemplatePageRenderer(tmplContent string) (*TemplatePageRenderer, error) {
	tmpl, err := template.New("page").Option("missingkey=error").Parse(tmplContent)
	if err != nil {
		return nil, fmt.Errorf("parsing page template: %w", err)
	}
	return &TemplatePageRenderer{tmpl: tmpl, cssInjector: &CSSInjection{}}, nil
}

// RenderPage executes the template for data and injects css.
func (r *TemplatePageRenderer) RenderPage(ctx context.Context, data *PageData, css string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if data == nil {
		return "", fmt.Errorf("%w: nil page data", ErrPageRender)
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("%w: %v", ErrPageRender, err)
	}
	return r.cssInjector.InjectCSS(ctx, buf.String(), css), nil
}

// RowClass returns the alternating row class for a zero-based item index.
func RowClass(i int) string {
	if i%2 == 0 {
		return "row-a"
	}
	return "row-b"
}

// Compile-time interface checks.
var (
	_ CSSInjector  = (*CSSInjection)(nil)
	_ PageRenderer = (*TemplatePageRenderer)(nil)
)
