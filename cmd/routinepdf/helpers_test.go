package main

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	routinepdf "github.com/alnah/go-routinepdf"
)

// ---------------------------------------------------------------------------
// Test Infrastructure - Fake rasterizer and environment
// ---------------------------------------------------------------------------

// fakeRasterizer returns a white JPEG for every page without a browser.
type fakeRasterizer struct {
	mu    sync.Mutex
	calls int
	fail  error
}

func (f *fakeRasterizer) Rasterize(_ context.Context, _ string, opts routinepdf.RasterOptions) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail != nil {
		return nil, f.fail
	}
	img := image.NewRGBA(image.Rect(0, 0, max(opts.Width, 100), 600))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	img.Set(0, 0, color.Black)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (f *fakeRasterizer) Close() error { return nil }

func (f *fakeRasterizer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// errBoom is a rasterization failure as the browser would report it.
var errBoom = fmt.Errorf("%w: boom", routinepdf.ErrRasterize)

var errNoCacheDir = fmt.Errorf("no cache dir in tests")

var testNow = time.Date(2026, 9, 8, 10, 0, 0, 0, time.UTC)

// newTestEnv returns an environment backed by buffers, the vars map and
// the fake rasterizer r.
func newTestEnv(vars map[string]string, r *fakeRasterizer) (*Environment, *bytes.Buffer, *bytes.Buffer) {
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	if vars == nil {
		vars = map[string]string{}
	}
	if r == nil {
		r = &fakeRasterizer{}
	}
	env := &Environment{
		Now:    func() time.Time { return testNow },
		Stdout: stdout,
		Stderr: stderr,
		Stdin:  strings.NewReader(""),
		Getenv: func(k string) string { return vars[k] },
		Environ: func() []string {
			out := make([]string, 0, len(vars))
			for k, v := range vars {
				out = append(out, k+"="+v)
			}
			sort.Strings(out)
			return out
		},
		// No cache dir unless a test sets one; quota falls back to memory.
		UserCacheDir: func() (string, error) { return "", errNoCacheDir },

		ExporterOptions: []routinepdf.Option{routinepdf.WithRasterizer(r)},
	}
	return env, stdout, stderr
}

const workoutYAML = `title: برنامه حجم
type: workout
studentName: Ali Reza
studentWeight: "78"
days:
  - dayName: روز اول
    exercises:
      - name: اسکوات
        sets: "4"
        reps: "10"
        rest: 90s
  - dayName: روز دوم
    exercises:
      - name: پرس سینه
        sets: "3"
        reps: "12"
        rest: 60s
`

const mealJSON = `{"title":"برنامه غذایی","type":"meal","studentName":"Sara","days":[{"dayName":"صبحانه","exercises":[{"name":"نان و پنیر","sets":"۲ کف دست"}]}]}`

// writeFile writes content under dir and returns its path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}
