package routinepdf

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-routinepdf/internal/fileutil"
	"github.com/alnah/go-routinepdf/internal/pipeline"
	"github.com/alnah/go-routinepdf/internal/process"
)

// Rasterizer turns a standalone HTML document into a JPEG image of the
// page's full natural height. Implementations need not be safe for
// concurrent use.
type Rasterizer interface {
	Rasterize(ctx context.Context, html string, opts RasterOptions) ([]byte, error)
	Close() error
}

// RasterOptions configures one rasterization.
type RasterOptions struct {
	Width           int     // CSS pixels
	PixelRatio      float64 // device scale factor
	Quality         int     // JPEG quality, 1-100
	ReadyTimeout    time.Duration
	HideInteractive bool // hide elements marked export-hidden
}

// Compile-time interface check.
var _ Rasterizer = (*rodRasterizer)(nil)

// initialViewportHeight is only the layout viewport; captures extend past it.
const initialViewportHeight = 800

// Scripts evaluated in the page.
const (
	fontsReadyJS   = `() => document.fonts.ready.then(() => document.fonts.status)`
	sheetHeightJS  = `() => { const el = document.querySelector('.sheet') || document.body; return Math.ceil(el.getBoundingClientRect().height); }`
	minSheetHeight = 1
)

// rodRasterizer implements Rasterizer with headless Chrome via go-rod.
// Rod downloads Chromium on first run if no browser is found.
type rodRasterizer struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	timeout  time.Duration
}

// newRodRasterizer creates a rodRasterizer. timeout bounds page loads when
// the context carries no deadline.
func newRodRasterizer(timeout time.Duration) *rodRasterizer {
	return &rodRasterizer{timeout: timeout}
}

// ensureBrowser lazily launches and connects to the browser.
func (r *rodRasterizer) ensureBrowser() error {
	if r.browser != nil {
		return nil
	}

	l := launcher.New()

	// Use pre-installed browser if specified (Docker/containerized environments)
	if bin := os.Getenv("ROD_BROWSER_BIN"); bin != "" {
		l = l.Bin(bin)
	}

	// NoSandbox required for CI and containerized environments
	if os.Getenv("CI") == "true" || os.Getenv("ROD_NO_SANDBOX") == "1" || os.Getenv("ROD_BROWSER_BIN") != "" {
		l = l.NoSandbox(true)
	}

	u, err := l.Launch()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	r.browser = browser
	r.launcher = l
	return nil
}

// Close releases browser resources, killing the whole Chrome process tree.
func (r *rodRasterizer) Close() error {
	var err error
	if r.browser != nil {
		err = r.browser.Close()
		r.browser = nil
	}
	if r.launcher != nil {
		if pid := r.launcher.PID(); pid > 0 {
			_ = process.KillTree(pid)
		}
		r.launcher.Kill()
		r.launcher.Cleanup()
		r.launcher = nil
	}
	return err
}

// Rasterize writes html to a temp file, opens it in a fresh tab and captures
// the .sheet element. The tab and the file are removed before returning.
func (r *rodRasterizer) Rasterize(ctx context.Context, htmlContent string, opts RasterOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := r.ensureBrowser(); err != nil {
		return nil, err
	}

	if opts.HideInteractive {
		htmlContent = (&pipeline.CSSInjection{}).InjectCSS(ctx, htmlContent, pipeline.HideInteractiveCSS)
	}

	tmpPath, cleanup, err := fileutil.WriteTempFile(htmlContent, "html")
	if err != nil {
		return nil, err
	}
	defer cleanup()

	page, err := r.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	defer page.Close()

	p := page.Context(ctx)

	timeout := r.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return nil, context.DeadlineExceeded
		}
	}

	if err := p.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             opts.Width,
		Height:            initialViewportHeight,
		DeviceScaleFactor: opts.PixelRatio,
	}); err != nil {
		return nil, fmt.Errorf("%w: setting viewport: %v", ErrPageLoad, err)
	}

	if err := p.Navigate("file://" + tmpPath); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	if err := p.Timeout(timeout).WaitLoad(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}

	ready := opts.ReadyTimeout
	if ready <= 0 || ready > timeout {
		ready = timeout
	}
	if _, err := p.Timeout(ready).Eval(fontsReadyJS); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrRenderNotReady, err)
	}

	res, err := p.Eval(sheetHeightJS)
	if err != nil {
		return nil, fmt.Errorf("%w: measuring page: %v", ErrRasterize, err)
	}
	height := max(res.Value.Int(), minSheetHeight)

	quality := clampQuality(opts.Quality)
	data, err := p.Screenshot(false, &proto.PageCaptureScreenshot{
		Format:  proto.PageCaptureScreenshotFormatJpeg,
		Quality: &quality,
		Clip: &proto.PageViewport{
			X:      0,
			Y:      0,
			Width:  float64(opts.Width),
			Height: float64(height),
			Scale:  1,
		},
		FromSurface:           true,
		CaptureBeyondViewport: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRasterize, err)
	}
	return data, nil
}
