package routinepdf

// Notes:
// - The browser is replaced by fakeRasterizer, which returns solid JPEGs of
//   configured heights. Real rasterization is covered by integration tests.
// - fakeDocument records page placement; one test runs the real gofpdf
//   document to check the output is a PDF.

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// ---------------------------------------------------------------------------
// Fakes
// ---------------------------------------------------------------------------

type rasterCall struct {
	html string
	opts RasterOptions
}

type fakeRasterizer struct {
	mu      sync.Mutex
	width   int
	heights []int // image height per call; the last value repeats
	failOn  int   // 1-based call that fails; 0 never fails
	raw     []byte
	calls   []rasterCall
	closed  bool
	onCall  func(n int) // runs after call n is recorded
}

func (f *fakeRasterizer) Rasterize(ctx context.Context, html string, opts RasterOptions) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, rasterCall{html: html, opts: opts})
	n := len(f.calls)
	if f.onCall != nil {
		f.onCall(n)
	}
	if f.failOn == n {
		return nil, fmt.Errorf("%w: fake failure", ErrRasterize)
	}
	if f.raw != nil {
		return f.raw, nil
	}
	h := 100
	if len(f.heights) > 0 {
		h = f.heights[min(n-1, len(f.heights)-1)]
	}
	w := f.width
	if w == 0 {
		w = 190
	}
	return solidJPEG(w, h), nil
}

func (f *fakeRasterizer) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeRasterizer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type placedPage struct {
	name       string
	x, y, w, h float64
	imgHeight  int
}

type fakeDocument struct {
	title string
	geo   pageGeometry
	pages []placedPage
}

func (d *fakeDocument) AddImagePage(name string, jpg []byte, x, y, w, h float64) error {
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(jpg))
	if err != nil {
		return err
	}
	d.pages = append(d.pages, placedPage{name: name, x: x, y: y, w: w, h: h, imgHeight: cfg.Height})
	return nil
}

func (d *fakeDocument) PageCount() int         { return len(d.pages) }
func (d *fakeDocument) Bytes() ([]byte, error) { return []byte("%PDF-fake"), nil }

func solidJPEG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.RGBA{R: 240, G: 240, B: 240, A: 255})
		}
	}
	var buf bytes.Buffer
	_ = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 80})
	return buf.Bytes()
}

// newTestExporter returns an exporter backed by fakes. The document fake is
// returned through the pointer once an export creates it.
func newTestExporter(t *testing.T, r *fakeRasterizer, opts ...Option) (*Exporter, **fakeDocument) {
	t.Helper()
	e, err := NewExporter(append([]Option{WithRasterizer(r)}, opts...)...)
	if err != nil {
		t.Fatalf("NewExporter() error = %v", err)
	}
	t.Cleanup(func() { _ = e.Close() })

	doc := new(*fakeDocument)
	e.newDocument = func(g pageGeometry, title string) document {
		d := &fakeDocument{geo: g, title: title}
		*doc = d
		return d
	}
	return e, doc
}

// ---------------------------------------------------------------------------
// TestExportPDF - Pagination
// ---------------------------------------------------------------------------

func TestExportPDF_TallDaySpansPages(t *testing.T) {
	t.Parallel()

	// 190px wide on a 190mm content box: 1px = 1mm, page height 277mm.
	fake := &fakeRasterizer{width: 190, heights: []int{200, 400}}
	e, doc := newTestExporter(t, fake)

	in := ExportInput{
		Routine: sampleWorkout(),
		Meta:    Meta{RenewalDate: "۲۶ مهر ۱۴۰۵"},
	}
	res, err := e.ExportPDF(context.Background(), in)
	if err != nil {
		t.Fatalf("ExportPDF() error = %v", err)
	}

	if res.Groups != 2 {
		t.Errorf("Groups = %d, want 2", res.Groups)
	}
	if res.Pages != 3 {
		t.Fatalf("Pages = %d, want 3", res.Pages)
	}
	if res.Pages < res.Groups {
		t.Errorf("Pages (%d) < Groups (%d)", res.Pages, res.Groups)
	}
	if res.Format != FormatPDF || !strings.HasSuffix(res.FileName, ".pdf") {
		t.Errorf("result = %s %q, want pdf file", res.Format, res.FileName)
	}

	d := *doc
	wantNames := []string{"g0-s0", "g1-s0", "g1-s1"}
	for i, p := range d.pages {
		if p.name != wantNames[i] {
			t.Errorf("page %d = %s, want %s", i, p.name, wantNames[i])
		}
		if p.x != DefaultMargin || p.y != DefaultMargin || p.w != 190 {
			t.Errorf("page %d placed at (%v,%v) w=%v, want margins and content width", i, p.x, p.y, p.w)
		}
		if p.h > 277+2 {
			t.Errorf("page %d height %vmm exceeds the content box", i, p.h)
		}
	}
	if d.pages[0].imgHeight != 200 {
		t.Errorf("short group should be placed unsliced, got %d rows", d.pages[0].imgHeight)
	}
	if got := d.pages[1].imgHeight + d.pages[2].imgHeight; got < 400 || got > 401 {
		t.Errorf("strips of the tall group cover %d rows, want 400 (+1 overlap)", got)
	}
	if d.title != "برنامه حجم" {
		t.Errorf("document title = %q, want routine title", d.title)
	}
}

func TestExportPDF_PageContents(t *testing.T) {
	t.Parallel()

	fake := &fakeRasterizer{}
	e, _ := newTestExporter(t, fake)

	in := ExportInput{
		Routine: sampleWorkout(),
		Meta:    Meta{RenewalDate: "۲۶ مهر ۱۴۰۵", Contact: Contact{Phone: "09120000000"}},
	}
	if _, err := e.ExportPDF(context.Background(), in); err != nil {
		t.Fatalf("ExportPDF() error = %v", err)
	}

	if len(fake.calls) != 2 {
		t.Fatalf("rasterizer calls = %d, want 2", len(fake.calls))
	}
	first, last := fake.calls[0], fake.calls[1]

	if !strings.Contains(first.html, `class="sheet-header"`) {
		t.Error("first group should carry the header")
	}
	if strings.Contains(last.html, `class="sheet-header"`) {
		t.Error("only the first group should carry the header")
	}
	if !strings.Contains(last.html, `class="contact"`) || !strings.Contains(last.html, `class="tips"`) {
		t.Error("last group should carry tips and contact")
	}
	if strings.Contains(first.html, `class="contact"`) {
		t.Error("first group should not carry the contact footer")
	}
	if !strings.Contains(first.html, "روز اول") || strings.Contains(first.html, "روز دوم") {
		t.Error("first group should hold only the first day")
	}
	if !strings.Contains(first.html, "min-height: 1485px") {
		t.Error("PDF pages should carry the A4 minimum height")
	}

	for i, c := range fake.calls {
		if c.opts.Width != DefaultPageWidth || c.opts.PixelRatio != defaultPDFPixelRatio || c.opts.Quality != defaultPDFQuality {
			t.Errorf("call %d opts = %+v, want PDF raster defaults", i, c.opts)
		}
		if c.opts.HideInteractive {
			t.Errorf("call %d should not need HideInteractive", i)
		}
	}
}

func TestExportPDF_GroupSize(t *testing.T) {
	t.Parallel()

	fake := &fakeRasterizer{}
	e, doc := newTestExporter(t, fake, WithGroupSize(2))

	res, err := e.ExportPDF(context.Background(), ExportInput{Routine: sampleWorkout()})
	if err != nil {
		t.Fatalf("ExportPDF() error = %v", err)
	}
	if res.Groups != 1 || fake.callCount() != 1 {
		t.Errorf("Groups = %d, calls = %d, want 1 and 1", res.Groups, fake.callCount())
	}
	html := fake.calls[0].html
	for _, want := range []string{`class="sheet-header"`, "روز اول", "روز دوم", `class="contact"`} {
		if !strings.Contains(html, want) {
			t.Errorf("single group should contain %q", want)
		}
	}
	if (*doc).PageCount() != 1 {
		t.Errorf("pages = %d, want 1", (*doc).PageCount())
	}
}

func TestExportPDF_Landscape(t *testing.T) {
	t.Parallel()

	fake := &fakeRasterizer{}
	e, doc := newTestExporter(t, fake)

	page := &PageSettings{Size: PageSizeA4, Orientation: OrientationLandscape, Margin: 5}
	if _, err := e.ExportPDF(context.Background(), ExportInput{Routine: sampleMeal(), Page: page}); err != nil {
		t.Fatalf("ExportPDF() error = %v", err)
	}
	d := *doc
	if !d.geo.Landscape || d.geo.Width != 297 {
		t.Errorf("geometry = %+v, want landscape A4", d.geo)
	}
	if d.pages[0].w != 287 {
		t.Errorf("content width = %v, want 287", d.pages[0].w)
	}
	// 1050 * 210/297 = 742.4
	if !strings.Contains(fake.calls[0].html, "min-height: 742px") {
		t.Error("min height should follow the landscape aspect ratio")
	}
}

// ---------------------------------------------------------------------------
// TestExportPDF - Failures
// ---------------------------------------------------------------------------

func TestExportPDF_Errors(t *testing.T) {
	t.Parallel()

	badTheme := &Theme{ID: "broken", Primary: "blue"}

	tests := []struct {
		name      string
		fake      *fakeRasterizer
		in        ExportInput
		wantErr   error
		wantCalls int
	}{
		{
			name:    "nil routine",
			fake:    &fakeRasterizer{},
			in:      ExportInput{},
			wantErr: ErrNilRoutine,
		},
		{
			name:    "no days",
			fake:    &fakeRasterizer{},
			in:      ExportInput{Routine: &Routine{Kind: KindMeal}},
			wantErr: ErrNoDays,
		},
		{
			name:    "invalid theme",
			fake:    &fakeRasterizer{},
			in:      ExportInput{Routine: sampleWorkout(), Theme: badTheme},
			wantErr: ErrInvalidTheme,
		},
		{
			name:    "invalid page size",
			fake:    &fakeRasterizer{},
			in:      ExportInput{Routine: sampleWorkout(), Page: &PageSettings{Size: "a3", Orientation: OrientationPortrait}},
			wantErr: ErrInvalidPageSize,
		},
		{
			name:      "second group fails",
			fake:      &fakeRasterizer{failOn: 2},
			in:        ExportInput{Routine: sampleWorkout()},
			wantErr:   ErrRasterize,
			wantCalls: 2,
		},
		{
			name:      "undecodable image",
			fake:      &fakeRasterizer{raw: []byte("not a jpeg")},
			in:        ExportInput{Routine: sampleWorkout()},
			wantErr:   ErrImageDecode,
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e, _ := newTestExporter(t, tt.fake)
			res, err := e.ExportPDF(context.Background(), tt.in)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ExportPDF() error = %v, want %v", err, tt.wantErr)
			}
			if res != nil {
				t.Error("failed export should return no result")
			}
			if got := tt.fake.callCount(); got != tt.wantCalls {
				t.Errorf("rasterizer calls = %d, want %d", got, tt.wantCalls)
			}
		})
	}
}

func TestExportPDF_Canceled(t *testing.T) {
	t.Parallel()

	fake := &fakeRasterizer{}
	e, _ := newTestExporter(t, fake)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.ExportPDF(ctx, ExportInput{Routine: sampleWorkout()})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("ExportPDF() error = %v, want context.Canceled", err)
	}
	if fake.callCount() != 0 {
		t.Errorf("rasterizer calls = %d, want 0", fake.callCount())
	}
}

func TestExportPDF_CanceledBetweenGroups(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fake := &fakeRasterizer{onCall: func(n int) {
		if n == 1 {
			cancel()
		}
	}}
	e, doc := newTestExporter(t, fake)

	_, err := e.ExportPDF(ctx, ExportInput{Routine: sampleWorkout()})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("ExportPDF() error = %v, want context.Canceled", err)
	}
	if fake.callCount() != 1 {
		t.Errorf("rasterizer calls = %d, want 1 (second group never starts)", fake.callCount())
	}
	if *doc == nil || len((*doc).pages) != 1 {
		t.Error("the first group should be placed before cancellation is seen")
	}
}

func TestExportPDF_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	e, _ := newTestExporter(t, &fakeRasterizer{})
	r := sampleWorkout()
	if _, err := e.ExportPDF(context.Background(), ExportInput{Routine: r}); err != nil {
		t.Fatalf("ExportPDF() error = %v", err)
	}
	if r.Days[0].Items[0].Label != "اسکوات" || len(r.Days) != 2 {
		t.Error("export should not modify the caller's routine")
	}
}

func TestExportPDF_LogsGroups(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	e, _ := newTestExporter(t, &fakeRasterizer{}, WithLogger(logger))

	if _, err := e.ExportPDF(context.Background(), ExportInput{Routine: sampleWorkout()}); err != nil {
		t.Fatalf("ExportPDF() error = %v", err)
	}
	out := buf.String()
	if strings.Count(out, "group rasterized") != 2 {
		t.Errorf("expected one debug line per group, got:\n%s", out)
	}
	if !strings.Contains(out, "pdf exported") {
		t.Errorf("expected completion log, got:\n%s", out)
	}
}

func TestExportPDF_RealDocument(t *testing.T) {
	t.Parallel()

	fake := &fakeRasterizer{width: 190, heights: []int{200, 400}}
	e, err := NewExporter(WithRasterizer(fake))
	if err != nil {
		t.Fatalf("NewExporter() error = %v", err)
	}
	defer func() { _ = e.Close() }()

	res, err := e.ExportPDF(context.Background(), ExportInput{Routine: sampleWorkout()})
	if err != nil {
		t.Fatalf("ExportPDF() error = %v", err)
	}
	if !bytes.HasPrefix(res.Data, []byte("%PDF")) {
		t.Errorf("output does not start with %%PDF: %q", res.Data[:min(8, len(res.Data))])
	}
	if res.Pages != 3 {
		t.Errorf("Pages = %d, want 3", res.Pages)
	}
}

// ---------------------------------------------------------------------------
// TestExportImage - Single image
// ---------------------------------------------------------------------------

func TestExportImage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		mode      ImageMode
		wantWidth int
	}{
		{"default desktop", "", DefaultPageWidth},
		{"desktop", ModeDesktop, DefaultPageWidth},
		{"mobile", ModeMobile, MobilePageWidth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fake := &fakeRasterizer{}
			e, _ := newTestExporter(t, fake)

			res, err := e.ExportImage(context.Background(), ExportInput{Routine: sampleWorkout(), Mode: tt.mode})
			if err != nil {
				t.Fatalf("ExportImage() error = %v", err)
			}
			if res.Format != FormatJPG || !strings.HasSuffix(res.FileName, ".jpg") {
				t.Errorf("result = %s %q, want jpg file", res.Format, res.FileName)
			}
			if fake.callCount() != 1 {
				t.Fatalf("rasterizer calls = %d, want 1", fake.callCount())
			}
			c := fake.calls[0]
			if c.opts.Width != tt.wantWidth {
				t.Errorf("Width = %d, want %d", c.opts.Width, tt.wantWidth)
			}
			if !c.opts.HideInteractive {
				t.Error("image export should hide interactive controls")
			}
			if c.opts.PixelRatio != defaultImagePixelRatio || c.opts.Quality != defaultImageQuality {
				t.Errorf("opts = %+v, want image raster defaults", c.opts)
			}
			for _, want := range []string{`class="sheet-header"`, "روز اول", "روز دوم", `class="contact"`} {
				if !strings.Contains(c.html, want) {
					t.Errorf("image html should contain %q", want)
				}
			}
			if strings.Contains(c.html, "min-height") {
				t.Error("image export should use the natural page height")
			}
		})
	}
}

func TestExportImage_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		fake    *fakeRasterizer
		in      ExportInput
		wantErr error
	}{
		{"invalid mode", &fakeRasterizer{}, ExportInput{Routine: sampleWorkout(), Mode: "tablet"}, ErrInvalidMode},
		{"nil routine", &fakeRasterizer{}, ExportInput{}, ErrNilRoutine},
		{"rasterizer failure", &fakeRasterizer{failOn: 1}, ExportInput{Routine: sampleWorkout()}, ErrRasterize},
		{"not a jpeg", &fakeRasterizer{raw: []byte("png?")}, ExportInput{Routine: sampleWorkout()}, ErrImageDecode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e, _ := newTestExporter(t, tt.fake)
			if _, err := e.ExportImage(context.Background(), tt.in); !errors.Is(err, tt.wantErr) {
				t.Errorf("ExportImage() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestExport - Dispatch
// ---------------------------------------------------------------------------

func TestExport_Dispatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		format    Format
		wantCalls int
		wantErr   error
	}{
		{FormatPDF, 2, nil},
		{FormatJPG, 1, nil},
		{FormatText, 0, nil},
		{Format("docx"), 0, ErrInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			t.Parallel()

			fake := &fakeRasterizer{}
			e, _ := newTestExporter(t, fake)

			res, err := e.Export(context.Background(), tt.format, ExportInput{Routine: sampleWorkout()})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Export() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && res.Format != tt.format {
				t.Errorf("Format = %s, want %s", res.Format, tt.format)
			}
			if fake.callCount() != tt.wantCalls {
				t.Errorf("rasterizer calls = %d, want %d", fake.callCount(), tt.wantCalls)
			}
		})
	}
}

func TestExporter_TextMatchesPackageFunction(t *testing.T) {
	t.Parallel()

	e, _ := newTestExporter(t, &fakeRasterizer{})
	meta := Meta{RenewalDate: "2026-10-18"}

	res, err := e.ExportText(context.Background(), ExportInput{Routine: sampleMeal(), Meta: meta})
	if err != nil {
		t.Fatalf("ExportText() error = %v", err)
	}
	want, err := ExportText(sampleMeal(), meta)
	if err != nil {
		t.Fatalf("ExportText() error = %v", err)
	}
	if !bytes.Equal(res.Data, want) {
		t.Errorf("method output differs from package function:\n%s\nvs\n%s", res.Data, want)
	}
}

func TestExporter_CloseClosesRasterizer(t *testing.T) {
	t.Parallel()

	fake := &fakeRasterizer{}
	e, err := NewExporter(WithRasterizer(fake))
	if err != nil {
		t.Fatalf("NewExporter() error = %v", err)
	}
	if err := e.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !fake.closed {
		t.Error("Close() should close the rasterizer")
	}
}

func TestNewExporter_InvalidDecoration(t *testing.T) {
	t.Parallel()

	if _, err := NewExporter(WithDecoration("loud"), WithRasterizer(&fakeRasterizer{})); err == nil {
		t.Error("NewExporter() should reject unknown decoration")
	}
}

// ---------------------------------------------------------------------------
// TestGroupDays - Partitioning
// ---------------------------------------------------------------------------

func TestGroupDays(t *testing.T) {
	t.Parallel()

	tests := []struct {
		n, size int
		want    []dayGroup
	}{
		{1, 1, []dayGroup{{0, 1}}},
		{3, 1, []dayGroup{{0, 1}, {1, 2}, {2, 3}}},
		{5, 2, []dayGroup{{0, 2}, {2, 4}, {4, 5}}},
		{2, 5, []dayGroup{{0, 2}}},
		{2, 0, []dayGroup{{0, 1}, {1, 2}}},
		{0, 1, []dayGroup{}},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d/%d", tt.n, tt.size), func(t *testing.T) {
			t.Parallel()

			got := groupDays(tt.n, tt.size)
			if len(got) != len(tt.want) {
				t.Fatalf("groupDays() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("group %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}
