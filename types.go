package routinepdf

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Page size constants.
const (
	PageSizeA4     = "a4"
	PageSizeA5     = "a5"
	PageSizeLetter = "letter"
)

// Orientation constants.
const (
	OrientationPortrait  = "portrait"
	OrientationLandscape = "landscape"
)

// Margin bounds in millimeters.
const (
	MinMargin     = 0.0
	MaxMargin     = 50.0
	DefaultMargin = 10.0
)

// PageSettings configures the physical PDF page.
type PageSettings struct {
	Size        string  // "a4", "a5", "letter"
	Orientation string  // "portrait", "landscape"
	Margin      float64 // millimeters, applied to all sides
}

// DefaultPageSettings returns an A4 portrait page with 10mm margins.
func DefaultPageSettings() *PageSettings {
	return &PageSettings{
		Size:        PageSizeA4,
		Orientation: OrientationPortrait,
		Margin:      DefaultMargin,
	}
}

// Validate checks that page settings are valid.
// Returns nil if p is nil (nil means use defaults).
func (p *PageSettings) Validate() error {
	if p == nil {
		return nil
	}
	if _, ok := pageSizesMM[strings.ToLower(p.Size)]; !ok {
		return fmt.Errorf("%w: %q", ErrInvalidPageSize, p.Size)
	}
	switch strings.ToLower(p.Orientation) {
	case OrientationPortrait, OrientationLandscape:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidOrientation, p.Orientation)
	}
	if p.Margin < MinMargin || p.Margin > MaxMargin {
		return fmt.Errorf("%w: %.2f (must be between %.0f and %.0f mm)", ErrInvalidMargin, p.Margin, MinMargin, MaxMargin)
	}
	return nil
}

// pageSizesMM holds portrait width and height.
var pageSizesMM = map[string][2]float64{
	PageSizeA4:     {210, 297},
	PageSizeA5:     {148, 210},
	PageSizeLetter: {215.9, 279.4},
}

// pageGeometry is a validated page in millimeters.
type pageGeometry struct {
	Size      string
	Landscape bool
	Width     float64
	Height    float64
	Margin    float64
}

func (g pageGeometry) ContentWidth() float64  { return g.Width - 2*g.Margin }
func (g pageGeometry) ContentHeight() float64 { return g.Height - 2*g.Margin }

// geometry resolves p (nil = defaults). p must be valid.
func (p *PageSettings) geometry() pageGeometry {
	if p == nil {
		p = DefaultPageSettings()
	}
	size := strings.ToLower(p.Size)
	dims := pageSizesMM[size]
	g := pageGeometry{Size: size, Width: dims[0], Height: dims[1], Margin: p.Margin}
	if strings.EqualFold(p.Orientation, OrientationLandscape) {
		g.Landscape = true
		g.Width, g.Height = g.Height, g.Width
	}
	return g
}

// ImageMode selects the single-image export width.
type ImageMode string

// Image modes.
const (
	ModeDesktop ImageMode = "desktop"
	ModeMobile  ImageMode = "mobile"
)

// Export widths in CSS pixels.
const (
	DefaultPageWidth = 1050
	MobilePageWidth  = 450
	// PDFPageMinHeight keeps short PDF pages at the A4 aspect ratio of DefaultPageWidth.
	PDFPageMinHeight = 1485
)

// ParseImageMode parses s; empty means desktop.
func ParseImageMode(s string) (ImageMode, error) {
	switch ImageMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeDesktop:
		return ModeDesktop, nil
	case ModeMobile:
		return ModeMobile, nil
	}
	return "", fmt.Errorf("%w: %q (must be desktop or mobile)", ErrInvalidMode, s)
}

// Width returns the export width for m.
func (m ImageMode) Width() int {
	if m == ModeMobile {
		return MobilePageWidth
	}
	return DefaultPageWidth
}

// Format is an export format.
type Format string

// Export formats.
const (
	FormatPDF  Format = "pdf"
	FormatJPG  Format = "jpg"
	FormatText Format = "txt"
)

// Formats lists every export format in CLI order.
var Formats = []Format{FormatPDF, FormatJPG, FormatText}

// ParseFormat parses s, accepting "jpeg" and "text" as aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pdf":
		return FormatPDF, nil
	case "jpg", "jpeg":
		return FormatJPG, nil
	case "txt", "text":
		return FormatText, nil
	}
	return "", fmt.Errorf("%w: %q (must be pdf, jpg or txt)", ErrInvalidFormat, s)
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatJPG:
		return "image/jpeg"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Decoration selects how much ornament the page renderer adds.
type Decoration string

// Decoration levels.
const (
	DecorationMinimal  Decoration = "minimal"
	DecorationStandard Decoration = "standard"
	DecorationRich     Decoration = "rich"
)

// ParseDecoration parses s; empty means standard.
func ParseDecoration(s string) (Decoration, error) {
	switch Decoration(strings.ToLower(strings.TrimSpace(s))) {
	case "", DecorationStandard:
		return DecorationStandard, nil
	case DecorationMinimal:
		return DecorationMinimal, nil
	case DecorationRich:
		return DecorationRich, nil
	}
	return "", fmt.Errorf("invalid decoration %q (must be minimal, standard or rich)", s)
}

// ExportInput contains the parameters of one export.
type ExportInput struct {
	Routine *Routine      // required
	Theme   *Theme        // nil = default theme
	Page    *PageSettings // PDF only, nil = A4 with 10mm margins
	Mode    ImageMode     // image only, empty = desktop
	Meta    Meta
}

// ExportResult is the output of one export.
type ExportResult struct {
	Format   Format
	Data     []byte
	FileName string
	Pages    int // physical pages (PDF) or 1
	Groups   int // logical groups rendered
	Duration time.Duration
}

// Option configures an Exporter.
type Option func(*Exporter)

// exporterConfig holds internal configuration for Exporter.
type exporterConfig struct {
	timeout         time.Duration
	readyTimeout    time.Duration
	pdfWidth        int
	pdfPixelRatio   float64
	pdfQuality      int
	imagePixelRatio float64
	imageQuality    int
	groupSize       int
	decoration      Decoration
	assetPath       string
	logger          *slog.Logger
}

// Defaults.
const (
	defaultTimeout         = 30 * time.Second
	defaultReadyTimeout    = 10 * time.Second
	defaultPDFPixelRatio   = 2.0
	defaultPDFQuality      = 85
	defaultImagePixelRatio = 3.0
	defaultImageQuality    = 92
)

func defaultExporterConfig() exporterConfig {
	return exporterConfig{
		timeout:         defaultTimeout,
		readyTimeout:    defaultReadyTimeout,
		pdfWidth:        DefaultPageWidth,
		pdfPixelRatio:   defaultPDFPixelRatio,
		pdfQuality:      defaultPDFQuality,
		imagePixelRatio: defaultImagePixelRatio,
		imageQuality:    defaultImageQuality,
		groupSize:       1,
		decoration:      DecorationStandard,
		logger:          slog.New(slog.DiscardHandler),
	}
}

// WithTimeout bounds one whole export.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("routinepdf: WithTimeout duration must be positive")
	}
	return func(e *Exporter) {
		e.cfg.timeout = d
	}
}

// WithReadyTimeout bounds the wait for fonts and layout on each page.
// Panics if d <= 0.
func WithReadyTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("routinepdf: WithReadyTimeout duration must be positive")
	}
	return func(e *Exporter) {
		e.cfg.readyTimeout = d
	}
}

// WithPDFRaster sets the page width in CSS pixels, the device pixel ratio and
// the JPEG quality used for PDF pages. Zero values keep the defaults.
func WithPDFRaster(width int, pixelRatio float64, quality int) Option {
	return func(e *Exporter) {
		if width > 0 {
			e.cfg.pdfWidth = width
		}
		if pixelRatio > 0 {
			e.cfg.pdfPixelRatio = pixelRatio
		}
		if quality > 0 {
			e.cfg.pdfQuality = clampQuality(quality)
		}
	}
}

// WithImageRaster sets the device pixel ratio and JPEG quality of the
// single-image export. Zero values keep the defaults.
func WithImageRaster(pixelRatio float64, quality int) Option {
	return func(e *Exporter) {
		if pixelRatio > 0 {
			e.cfg.imagePixelRatio = pixelRatio
		}
		if quality > 0 {
			e.cfg.imageQuality = clampQuality(quality)
		}
	}
}

// WithGroupSize sets how many days share one logical PDF page.
// Panics if n < 1.
func WithGroupSize(n int) Option {
	if n < 1 {
		panic("routinepdf: WithGroupSize must be at least 1")
	}
	return func(e *Exporter) {
		e.cfg.groupSize = n
	}
}

// WithDecoration sets the renderer decoration level.
func WithDecoration(d Decoration) Option {
	return func(e *Exporter) {
		e.cfg.decoration = d
	}
}

// WithAssetPath loads styles, templates and themes from dir, falling back
// to the embedded assets.
func WithAssetPath(dir string) Option {
	return func(e *Exporter) {
		e.cfg.assetPath = dir
	}
}

// WithLogger sets the structured logger. Nil keeps the discard logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Exporter) {
		if l != nil {
			e.cfg.logger = l
		}
	}
}

// WithRasterizer replaces the headless Chrome rasterizer.
func WithRasterizer(r Rasterizer) Option {
	return func(e *Exporter) {
		e.rasterizer = r
	}
}

func clampQuality(q int) int {
	return min(max(q, 1), 100)
}
