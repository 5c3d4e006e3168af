package server

// Notes:
// - Exports run through a real ExporterPool whose exporters use
//   stubRasterizer, so no browser is started. Page slicing is covered in the
//   root package.
// - Run is not tested: it binds a real port. Handlers are exercised through
//   httptest.NewRecorder and the full router.

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/jpeg"
	"log/slog"
	"mime"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	routinepdf "github.com/alnah/go-routinepdf"
	"github.com/alnah/go-routinepdf/internal/parse"
	"github.com/alnah/go-routinepdf/internal/quota"
)

const workoutJSON = `{"title":"برنامه حجم","type":"workout","studentName":"AliReza","days":[{"dayName":"روز اول","exercises":[{"name":"اسکوات","sets":"4","reps":"10","rest":"90s"}]},{"dayName":"روز دوم","exercises":[]}]}`

// ---------------------------------------------------------------------------
// Fakes
// ---------------------------------------------------------------------------

type stubRasterizer struct {
	mu    sync.Mutex
	calls int
	fail  error
}

func (s *stubRasterizer) Rasterize(_ context.Context, _ string, opts routinepdf.RasterOptions) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.fail != nil {
		return nil, s.fail
	}
	var buf bytes.Buffer
	_ = jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 100, 140)), nil)
	return buf.Bytes(), nil
}

func (s *stubRasterizer) Close() error { return nil }

type fakeParser struct {
	routine *routinepdf.Routine
	err     error
	keys    []string
}

func (f *fakeParser) Parse(_ context.Context, key, text string) (*routinepdf.Routine, error) {
	f.keys = append(f.keys, key)
	if f.err != nil {
		return nil, f.err
	}
	return f.routine, nil
}

type testServer struct {
	*Server
	raster *stubRasterizer
	logs   *bytes.Buffer
}

func newTestServer(t *testing.T, parser RoutineParser) *testServer {
	t.Helper()

	raster := &stubRasterizer{}
	pool := routinepdf.NewExporterPool(1, routinepdf.WithRasterizer(raster))
	t.Cleanup(func() { _ = pool.Close() })

	themes, err := routinepdf.NewThemeCatalog("")
	if err != nil {
		t.Fatalf("NewThemeCatalog() error = %v", err)
	}
	renderer, err := routinepdf.NewRenderer("", routinepdf.DecorationStandard)
	if err != nil {
		t.Fatalf("NewRenderer() error = %v", err)
	}

	var logs bytes.Buffer
	s := New(Config{
		Contact:  routinepdf.Contact{Phone: "09120000000"},
		Calendar: routinepdf.CalendarGregorian,
	}, Deps{
		Pool:     pool,
		Themes:   themes,
		Renderer: renderer,
		Parser:   parser,
		Logger:   slog.New(slog.NewTextHandler(&logs, nil)),
		Now:      func() time.Time { return time.Date(2026, 9, 8, 12, 0, 0, 0, time.UTC) },
	})
	return &testServer{Server: s, raster: raster, logs: &logs}
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %q", rec.Body.String())
	}
	return body["error"]
}

// ---------------------------------------------------------------------------
// TestHealthAndThemes
// ---------------------------------------------------------------------------

func TestHealth(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)
	rec := do(t, s, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("GET /healthz = %d %q", rec.Code, rec.Body.String())
	}
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Error("response should carry a request id")
	}
}

func TestThemes(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)
	rec := do(t, s, http.MethodGet, "/api/v1/themes", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var themes []routinepdf.Theme
	if err := json.Unmarshal(rec.Body.Bytes(), &themes); err != nil {
		t.Fatalf("decoding themes: %v", err)
	}
	found := false
	for _, th := range themes {
		if th.ID == routinepdf.DefaultThemeID {
			found = true
		}
	}
	if len(themes) < 2 || !found {
		t.Errorf("themes = %+v, want the embedded set including %s", themes, routinepdf.DefaultThemeID)
	}
}

// ---------------------------------------------------------------------------
// TestParse
// ---------------------------------------------------------------------------

func TestParse(t *testing.T) {
	t.Parallel()

	meal := &routinepdf.Routine{Title: "رژیم", Kind: routinepdf.KindMeal, Days: []routinepdf.Day{{Name: "صبحانه"}}}

	tests := []struct {
		name       string
		parser     *fakeParser
		body       string
		wantStatus int
		wantError  string
	}{
		{"success", &fakeParser{routine: meal}, `{"inputText":"صبحانه"}`, http.StatusOK, ""},
		{"invalid json", &fakeParser{}, `{`, http.StatusBadRequest, "invalid JSON"},
		{"empty input", &fakeParser{err: parse.ErrEmptyInput}, `{"inputText":""}`, http.StatusBadRequest, parse.UserMessage(parse.ErrEmptyInput)},
		{"quota", &fakeParser{err: quota.ErrExceeded}, `{"inputText":"x"}`, http.StatusTooManyRequests, parse.UserMessage(quota.ErrExceeded)},
		{"rate limited", &fakeParser{err: parse.ErrRateLimited}, `{"inputText":"x"}`, http.StatusTooManyRequests, "محدودیت درخواست. لطفاً کمی صبر کنید."},
		{"payment", &fakeParser{err: parse.ErrPaymentRequired}, `{"inputText":"x"}`, http.StatusPaymentRequired, "اعتبار کافی نیست."},
		{"upstream", &fakeParser{err: parse.ErrUpstream}, `{"inputText":"x"}`, http.StatusInternalServerError, "خطا در سرویس هوش مصنوعی"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := newTestServer(t, tt.parser)
			rec := do(t, s, http.MethodPost, "/api/v1/parse", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantError != "" {
				if got := decodeError(t, rec); !strings.Contains(got, tt.wantError) {
					t.Errorf("error = %q, want %q", got, tt.wantError)
				}
				return
			}
			var r routinepdf.Routine
			if err := json.Unmarshal(rec.Body.Bytes(), &r); err != nil {
				t.Fatalf("decoding routine: %v", err)
			}
			if r.Kind != routinepdf.KindMeal || r.Days[0].Name != "صبحانه" {
				t.Errorf("routine = %+v", r)
			}
		})
	}
}

func TestParse_ClientKey(t *testing.T) {
	t.Parallel()

	p := &fakeParser{routine: &routinepdf.Routine{Kind: routinepdf.KindMeal}}
	s := newTestServer(t, p)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/parse", strings.NewReader(`{"inputText":"x"}`))
	req.RemoteAddr = "203.0.113.7:51234"
	s.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/parse", strings.NewReader(`{"inputText":"x"}`))
	req.Header.Set("X-Real-IP", "198.51.100.2")
	s.ServeHTTP(httptest.NewRecorder(), req)

	if len(p.keys) != 2 || p.keys[0] != "203.0.113.7" || p.keys[1] != "198.51.100.2" {
		t.Errorf("client keys = %v, want remote host then real ip", p.keys)
	}
}

func TestParse_Disabled(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)
	rec := do(t, s, http.MethodPost, "/api/v1/parse", `{"inputText":"x"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

// ---------------------------------------------------------------------------
// TestExport
// ---------------------------------------------------------------------------

func TestExport(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path         string
		wantType     string
		wantFile     string
		wantRaster   int
		wantContains string
	}{
		{"/api/v1/export/pdf", "application/pdf", "Workout_AliReza.pdf", 2, "%PDF"},
		{"/api/v1/export/jpg?mode=mobile", "image/jpeg", "Workout_AliReza.jpg", 1, ""},
		{"/api/v1/export/txt", "text/plain; charset=utf-8", "Workout_AliReza.txt", 0, "2026-10-18"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()

			s := newTestServer(t, nil)
			rec := do(t, s, http.MethodPost, tt.path, workoutJSON)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200 (%s)", rec.Code, rec.Body.String())
			}
			if got := rec.Header().Get("Content-Type"); got != tt.wantType {
				t.Errorf("Content-Type = %q, want %q", got, tt.wantType)
			}
			_, params, err := mime.ParseMediaType(rec.Header().Get("Content-Disposition"))
			if err != nil || params["filename"] != tt.wantFile {
				t.Errorf("Content-Disposition filename = %q (%v), want %q", params["filename"], err, tt.wantFile)
			}
			if s.raster.calls != tt.wantRaster {
				t.Errorf("rasterizer calls = %d, want %d", s.raster.calls, tt.wantRaster)
			}
			if tt.wantContains != "" && !bytes.Contains(rec.Body.Bytes(), []byte(tt.wantContains)) {
				t.Errorf("body should contain %q", tt.wantContains)
			}
		})
	}
}

func TestExport_PersianFileName(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)
	body := strings.Replace(workoutJSON, "AliReza", "علی رضایی", 1)
	rec := do(t, s, http.MethodPost, "/api/v1/export/txt", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	_, params, err := mime.ParseMediaType(rec.Header().Get("Content-Disposition"))
	if err != nil {
		t.Fatalf("ParseMediaType() error = %v", err)
	}
	if want := routinepdf.FileName(routinepdf.KindWorkout, "علی رضایی", "txt"); params["filename"] != want {
		t.Errorf("filename = %q, want %q", params["filename"], want)
	}
}

func TestExport_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		path       string
		body       string
		wantStatus int
	}{
		{"unknown format", "/api/v1/export/docx", workoutJSON, http.StatusNotFound},
		{"malformed body", "/api/v1/export/pdf", `{"type":`, http.StatusBadRequest},
		{"unknown field", "/api/v1/export/pdf", `{"type":"meal","days":[],"color":"red"}`, http.StatusBadRequest},
		{"no days", "/api/v1/export/pdf", `{"type":"meal","days":[]}`, http.StatusBadRequest},
		{"bad kind", "/api/v1/export/txt", `{"type":"cardio","days":[{"dayName":"a"}]}`, http.StatusBadRequest},
		{"unknown theme", "/api/v1/export/pdf?theme=neon", workoutJSON, http.StatusBadRequest},
		{"theme path rejected", "/api/v1/export/pdf?theme=../../etc/passwd", workoutJSON, http.StatusBadRequest},
		{"bad mode", "/api/v1/export/jpg?mode=tablet", workoutJSON, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := newTestServer(t, nil)
			rec := do(t, s, http.MethodPost, tt.path, tt.body)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if s.raster.calls != 0 {
				t.Errorf("rasterizer calls = %d, want 0 for invalid input", s.raster.calls)
			}
		})
	}
}

func TestExport_RasterFailure(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)
	s.raster.fail = routinepdf.ErrBrowserConnect
	rec := do(t, s, http.MethodPost, "/api/v1/export/pdf", workoutJSON)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if !strings.Contains(s.logs.String(), "export error") {
		t.Errorf("server error should be logged, got:\n%s", s.logs.String())
	}
}

func TestExport_BodyTooLarge(t *testing.T) {
	t.Parallel()

	raster := &stubRasterizer{}
	pool := routinepdf.NewExporterPool(1, routinepdf.WithRasterizer(raster))
	t.Cleanup(func() { _ = pool.Close() })
	themes, _ := routinepdf.NewThemeCatalog("")
	s := New(Config{MaxBodyBytes: 16}, Deps{Pool: pool, Themes: themes})

	rec := do(t, s, http.MethodPost, "/api/v1/export/txt", workoutJSON)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
}

// ---------------------------------------------------------------------------
// TestPreview
// ---------------------------------------------------------------------------

func TestPreview(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)
	rec := do(t, s, http.MethodPost, "/api/v1/preview?theme=emerald&mode=mobile", workoutJSON)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", rec.Code, rec.Body.String())
	}
	if !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html") {
		t.Errorf("Content-Type = %q, want text/html", rec.Header().Get("Content-Type"))
	}
	html := rec.Body.String()
	for _, want := range []string{"روز اول", "export-hidden", "width: 450px", "2026-10-18"} {
		if !strings.Contains(html, want) {
			t.Errorf("preview should contain %q", want)
		}
	}
	if s.raster.calls != 0 {
		t.Error("preview should not rasterize")
	}
}

func TestPreview_Invalid(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)
	rec := do(t, s, http.MethodPost, "/api/v1/preview", `{"type":"meal","days":[]}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

// ---------------------------------------------------------------------------
// TestStatusMapping
// ---------------------------------------------------------------------------

func TestExportStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want int
	}{
		{routinepdf.ErrNoDays, http.StatusBadRequest},
		{routinepdf.ErrThemeNotFound, http.StatusBadRequest},
		{routinepdf.ErrPoolClosed, http.StatusServiceUnavailable},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{routinepdf.ErrRasterize, http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := exportStatus(tt.err); got != tt.want {
			t.Errorf("exportStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestParseStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want int
	}{
		{parse.ErrInputTooLong, http.StatusBadRequest},
		{quota.ErrExceeded, http.StatusTooManyRequests},
		{parse.ErrMalformedResponse, http.StatusInternalServerError},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
	}
	for _, tt := range tests {
		if got := parseStatus(tt.err); got != tt.want {
			t.Errorf("parseStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

