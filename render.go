package routinepdf

import (
	"context"
	"fmt"

	"github.com/alnah/go-routinepdf/internal/assets"
	"github.com/alnah/go-routinepdf/internal/pipeline"
)

// PageWindow is the slice of days one rendered page shows.
type PageWindow struct {
	Days        []Day
	StartIndex  int // index of Days[0] in the routine
	IsFirstPage bool
	IsLastPage  bool
}

// Decorative day icons, picked by absolute day index.
var (
	workoutIcons = []string{"💪", "🔥", "⚡", "🎯", "🏆", "🚀", "⭐"}
	mealIcons    = []string{"🥗", "🍳", "🍎", "🥑", "🍲", "🥤", "🍇"}
)

// dayIcon returns the icon of the day at absolute index i.
func dayIcon(kind Kind, i int) string {
	icons := workoutIcons
	if kind == KindMeal {
		icons = mealIcons
	}
	return icons[i%len(icons)]
}

// pageLayout sets the canvas of a rendered page.
type pageLayout struct {
	Width       int // CSS pixels
	MinHeight   int // 0 = natural height
	Interactive bool
}

// Renderer turns routine slices into standalone HTML pages. Templates and
// styles are loaded once; rendering does no I/O and never mutates its
// inputs.
type Renderer struct {
	pages      pipeline.PageRenderer
	tips       *pipeline.TipsConverter
	style      string
	decoration Decoration
}

// NewRenderer creates a Renderer. An empty assetPath uses the embedded
// template and stylesheet.
func NewRenderer(assetPath string, decoration Decoration) (*Renderer, error) {
	resolver, err := assets.NewAssetResolver(assetPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAssetPath, err)
	}
	return newRenderer(resolver, decoration)
}

func newRenderer(loader assets.AssetLoader, decoration Decoration) (*Renderer, error) {
	tmpl, err := loader.LoadTemplate(assets.DefaultTemplateName)
	if err != nil {
		return nil, fmt.Errorf("loading page template: %w", err)
	}
	style, err := loader.LoadStyle(assets.DefaultStyleName)
	if err != nil {
		return nil, fmt.Errorf("loading page style: %w", err)
	}
	pages, err := pipeline.NewTemplatePageRenderer(tmpl)
	if err != nil {
		return nil, fmt.Errorf("initializing page renderer: %w", err)
	}
	if decoration == "" {
		decoration = DecorationStandard
	}
	return &Renderer{
		pages:      pages,
		tips:       pipeline.NewTipsConverter(),
		style:      style,
		decoration: decoration,
	}, nil
}

// RenderPage renders one PDF page for w at the default width. Pages are at
// least as tall as an A4 sheet of that width and grow with their content.
func (rd *Renderer) RenderPage(w PageWindow, r *Routine, theme Theme, meta Meta) (string, error) {
	return rd.render(w, r, theme, meta, pageLayout{Width: DefaultPageWidth, MinHeight: PDFPageMinHeight})
}

// RenderPreview renders the whole routine on one page of natural height,
// with editing controls marked export-hidden.
func (rd *Renderer) RenderPreview(r *Routine, theme Theme, meta Meta, mode ImageMode) (string, error) {
	w := PageWindow{Days: r.daysOrNil(), IsFirstPage: true, IsLastPage: true}
	return rd.render(w, r, theme, meta, pageLayout{Width: mode.Width(), Interactive: true})
}

func (r *Routine) daysOrNil() []Day {
	if r == nil {
		return nil
	}
	return r.Days
}

func (rd *Renderer) render(w PageWindow, r *Routine, theme Theme, meta Meta, layout pageLayout) (string, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}
	if err := theme.Validate(); err != nil {
		return "", err
	}

	data := &pipeline.PageData{
		Heading:       r.Kind.Label(),
		IsMeal:        r.Kind == KindMeal,
		StudentName:   orPlaceholder(r.StudentName),
		StudentWeight: orPlaceholder(r.StudentWeight),
		RenewalDate:   meta.RenewalDate,
		Width:         layout.Width,
		MinHeight:     layout.MinHeight,
		Decoration:    string(rd.decoration),
		Decorated:     rd.decoration != DecorationMinimal,
		Interactive:   layout.Interactive,
		ShowHeader:    w.IsFirstPage,
		ShowFooter:    w.IsLastPage,
		Days:          make([]pipeline.DayView, len(w.Days)),
		Contact:       pipeline.ContactView{Label: meta.Contact.label(), Phone: meta.Contact.Phone},
	}

	for i, day := range w.Days {
		abs := w.StartIndex + i
		view := pipeline.DayView{
			Index: abs,
			Name:  day.Name,
			Icon:  dayIcon(r.Kind, abs),
			Count: len(day.Items),
			Rows:  make([]pipeline.RowView, len(day.Items)),
		}
		for j, it := range day.Items {
			view.Rows[j] = pipeline.RowView{
				Number:    j + 1,
				Label:     it.Label,
				Primary:   it.Primary,
				Secondary: it.Secondary,
				Tertiary:  it.Tertiary,
				Class:     pipeline.RowClass(j),
			}
		}
		data.Days[i] = view
	}

	if w.IsLastPage && r.Tips != "" {
		tips, err := rd.tips.ToHTML(r.Tips)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrRender, err)
		}
		data.TipsHTML = tips
		data.ShowTips = tips != ""
	}

	css := pipeline.ThemeCSS(theme.colors()) + "\n" + rd.style
	html, err := rd.pages.RenderPage(context.Background(), data, css)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRender, err)
	}
	return html, nil
}
