package routinepdf

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"log/slog"
	"math"
	"time"

	"github.com/alnah/go-routinepdf/internal/assets"
)

// Exporter renders routines to PDF, JPEG and text.
// Create with NewExporter, call Close when done. An Exporter owns one
// browser and is not safe for concurrent use; see ExporterPool.
type Exporter struct {
	cfg         exporterConfig
	renderer    *Renderer
	themes      *ThemeCatalog
	rasterizer  Rasterizer
	newDocument func(g pageGeometry, title string) document
}

// NewExporter creates an Exporter. The browser starts on the first
// PDF or image export.
func NewExporter(opts ...Option) (*Exporter, error) {
	e := &Exporter{
		cfg:         defaultExporterConfig(),
		newDocument: newPDFDocument,
	}
	for _, opt := range opts {
		opt(e)
	}

	if _, err := ParseDecoration(string(e.cfg.decoration)); err != nil {
		return nil, err
	}

	resolver, err := assets.NewAssetResolver(e.cfg.assetPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAssetPath, err)
	}
	e.themes = &ThemeCatalog{loader: resolver}

	e.renderer, err = newRenderer(resolver, e.cfg.decoration)
	if err != nil {
		return nil, err
	}

	if e.rasterizer == nil {
		e.rasterizer = newRodRasterizer(e.cfg.timeout)
	}
	return e, nil
}

// Close releases the browser.
func (e *Exporter) Close() error {
	if e.rasterizer != nil {
		return e.rasterizer.Close()
	}
	return nil
}

// Export dispatches to the exporter of format f.
func (e *Exporter) Export(ctx context.Context, f Format, in ExportInput) (*ExportResult, error) {
	switch f {
	case FormatPDF:
		return e.ExportPDF(ctx, in)
	case FormatJPG:
		return e.ExportImage(ctx, in)
	case FormatText:
		return e.ExportText(ctx, in)
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidFormat, f)
}

// dayGroup is a half-open range of day indexes rendered on one logical page.
type dayGroup struct {
	start, end int
}

// groupDays partitions n days into consecutive groups of size.
func groupDays(n, size int) []dayGroup {
	if size < 1 {
		size = 1
	}
	groups := make([]dayGroup, 0, (n+size-1)/size)
	for start := 0; start < n; start += size {
		groups = append(groups, dayGroup{start: start, end: min(start+size, n)})
	}
	return groups
}

// ExportPDF renders each day group to an image and assembles a paginated
// PDF. Images taller than one page are split into strips, one per page.
// Groups run one at a time, and any failure fails the whole export.
// Recovers from internal panics to prevent crashes from propagating to callers.
func (e *Exporter) ExportPDF(ctx context.Context, in ExportInput) (result *ExportResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error: %v", r)
		}
	}()

	start := time.Now()
	routine, theme, err := e.prepare(in)
	if err != nil {
		return nil, err
	}
	if err := in.Page.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.timeout)
	defer cancel()

	geo := in.Page.geometry()
	layout := pageLayout{
		Width:     e.cfg.pdfWidth,
		MinHeight: int(math.Round(float64(e.cfg.pdfWidth) * geo.Height / geo.Width)),
	}
	raster := RasterOptions{
		Width:        e.cfg.pdfWidth,
		PixelRatio:   e.cfg.pdfPixelRatio,
		Quality:      e.cfg.pdfQuality,
		ReadyTimeout: e.cfg.readyTimeout,
	}

	doc := e.newDocument(geo, routine.Title)
	groups := groupDays(len(routine.Days), e.cfg.groupSize)

	for gi, g := range groups {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		window := PageWindow{
			Days:        routine.Days[g.start:g.end],
			StartIndex:  g.start,
			IsFirstPage: gi == 0,
			IsLastPage:  gi == len(groups)-1,
		}
		html, err := e.renderer.render(window, routine, theme, in.Meta, layout)
		if err != nil {
			return nil, err
		}

		jpg, err := e.rasterizer.Rasterize(ctx, html, raster)
		if err != nil {
			return nil, fmt.Errorf("group %d: %w", gi+1, err)
		}

		img, err := jpeg.Decode(bytes.NewReader(jpg))
		if err != nil {
			return nil, fmt.Errorf("%w: group %d: %v", ErrImageDecode, gi+1, err)
		}
		bounds := img.Bounds()

		strips := planStrips(bounds.Dx(), bounds.Dy(), geo.ContentWidth(), geo.ContentHeight())
		for si, s := range strips {
			data := jpg
			if len(strips) > 1 {
				if data, err = cropStrip(img, s.Y0, s.Y1, e.cfg.pdfQuality); err != nil {
					return nil, err
				}
			}
			name := fmt.Sprintf("g%d-s%d", gi, si)
			if err := doc.AddImagePage(name, data, geo.Margin, geo.Margin, geo.ContentWidth(), s.HeightMM); err != nil {
				return nil, err
			}
		}

		e.cfg.logger.LogAttrs(ctx, slog.LevelDebug, "group rasterized",
			slog.Int("group", gi+1),
			slog.Int("days", g.end-g.start),
			slog.Int("imageHeight", bounds.Dy()),
			slog.Int("strips", len(strips)),
		)
	}

	data, err := doc.Bytes()
	if err != nil {
		return nil, err
	}

	res := &ExportResult{
		Format:   FormatPDF,
		Data:     data,
		FileName: FileName(routine.Kind, routine.StudentName, string(FormatPDF)),
		Pages:    doc.PageCount(),
		Groups:   len(groups),
		Duration: time.Since(start),
	}
	e.cfg.logger.Info("pdf exported",
		slog.String("file", res.FileName),
		slog.Int("groups", res.Groups),
		slog.Int("pages", res.Pages),
		slog.Duration("duration", res.Duration),
	)
	return res, nil
}

// ExportImage renders the whole routine once and returns a single JPEG.
// Recovers from internal panics to prevent crashes from propagating to callers.
func (e *Exporter) ExportImage(ctx context.Context, in ExportInput) (result *ExportResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error: %v", r)
		}
	}()

	start := time.Now()
	routine, theme, err := e.prepare(in)
	if err != nil {
		return nil, err
	}
	mode, err := ParseImageMode(string(in.Mode))
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.timeout)
	defer cancel()

	html, err := e.renderer.RenderPreview(routine, theme, in.Meta, mode)
	if err != nil {
		return nil, err
	}

	jpg, err := e.rasterizer.Rasterize(ctx, html, RasterOptions{
		Width:           mode.Width(),
		PixelRatio:      e.cfg.imagePixelRatio,
		Quality:         e.cfg.imageQuality,
		ReadyTimeout:    e.cfg.readyTimeout,
		HideInteractive: true,
	})
	if err != nil {
		return nil, err
	}
	if _, err := jpeg.DecodeConfig(bytes.NewReader(jpg)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageDecode, err)
	}

	res := &ExportResult{
		Format:   FormatJPG,
		Data:     jpg,
		FileName: FileName(routine.Kind, routine.StudentName, string(FormatJPG)),
		Pages:    1,
		Groups:   1,
		Duration: time.Since(start),
	}
	e.cfg.logger.Info("image exported",
		slog.String("file", res.FileName),
		slog.String("mode", string(mode)),
		slog.Duration("duration", res.Duration),
	)
	return res, nil
}

// ExportText returns the plain-text export. It never starts the browser.
func (e *Exporter) ExportText(ctx context.Context, in ExportInput) (*ExportResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	data, err := ExportText(in.Routine, in.Meta)
	if err != nil {
		return nil, err
	}
	return &ExportResult{
		Format:   FormatText,
		Data:     data,
		FileName: FileName(in.Routine.Kind, in.Routine.StudentName, string(FormatText)),
		Pages:    1,
		Groups:   1,
		Duration: time.Since(start),
	}, nil
}

// prepare validates the input and returns a private copy of the routine
// and the resolved theme.
//
// This is a TRUST BOUNDARY for library users who build ExportInput
// manually. CLI and server inputs converge here as well.
func (e *Exporter) prepare(in ExportInput) (*Routine, Theme, error) {
	if err := in.Routine.Validate(); err != nil {
		return nil, Theme{}, err
	}

	var theme Theme
	if in.Theme == nil {
		t, err := e.themes.Load(DefaultThemeID)
		if err != nil {
			return nil, Theme{}, err
		}
		theme = t
	} else {
		if err := in.Theme.Validate(); err != nil {
			return nil, Theme{}, err
		}
		theme = *in.Theme
	}

	return in.Routine.Clone(), theme, nil
}
