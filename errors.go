package routinepdf

import "errors"

// Sentinel errors for library operations.
var (
	// Validation errors, reported before any browser work.
	ErrNilRoutine         = errors.New("routine is nil")
	ErrNoDays             = errors.New("routine has no days")
	ErrInvalidKind        = errors.New("invalid routine kind")
	ErrInvalidTheme       = errors.New("invalid theme")
	ErrThemeNotFound      = errors.New("theme not found")
	ErrInvalidPageSize    = errors.New("invalid page size")
	ErrInvalidOrientation = errors.New("invalid orientation")
	ErrInvalidMargin      = errors.New("invalid margin")
	ErrInvalidMode        = errors.New("invalid image mode")
	ErrInvalidFormat      = errors.New("invalid export format")
	ErrInvalidCalendar    = errors.New("invalid calendar")
	ErrInvalidAssetPath   = errors.New("invalid asset path")
	ErrRoutineDecode      = errors.New("failed to decode routine")

	// Export errors.
	ErrRender         = errors.New("page rendering failed")
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")
	ErrRenderNotReady = errors.New("page did not become ready")
	ErrRasterize      = errors.New("rasterization failed")
	ErrImageDecode    = errors.New("failed to decode page image")
	ErrPDFAssembly    = errors.New("PDF assembly failed")
)
