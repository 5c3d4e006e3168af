package main

import (
	"errors"
	"os"

	routinepdf "github.com/alnah/go-routinepdf"
	"github.com/alnah/go-routinepdf/internal/config"
	"github.com/alnah/go-routinepdf/internal/parse"
	"github.com/alnah/go-routinepdf/internal/quota"
)

// Exit codes for the routinepdf CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Successful run
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, or validation
	ExitIO      = 3 // File not found, permission denied
	ExitBrowser = 4 // Browser/Chrome errors
	ExitParse   = 5 // Parse service or quota errors
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Browser errors (exit 4)
	if errors.Is(err, routinepdf.ErrBrowserConnect) ||
		errors.Is(err, routinepdf.ErrPageCreate) ||
		errors.Is(err, routinepdf.ErrPageLoad) ||
		errors.Is(err, routinepdf.ErrRenderNotReady) ||
		errors.Is(err, routinepdf.ErrRasterize) {
		return ExitBrowser
	}

	// Parse service errors (exit 5)
	if errors.Is(err, quota.ErrExceeded) ||
		errors.Is(err, parse.ErrRateLimited) ||
		errors.Is(err, parse.ErrPaymentRequired) ||
		errors.Is(err, parse.ErrUpstream) ||
		errors.Is(err, parse.ErrMalformedResponse) {
		return ExitParse
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrReadRoutine) ||
		errors.Is(err, ErrReadInput) ||
		errors.Is(err, ErrWriteOutput) ||
		errors.Is(err, ErrNoInput) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrEmptyConfigName) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, routinepdf.ErrNilRoutine) ||
		errors.Is(err, routinepdf.ErrNoDays) ||
		errors.Is(err, routinepdf.ErrInvalidKind) ||
		errors.Is(err, routinepdf.ErrInvalidTheme) ||
		errors.Is(err, routinepdf.ErrThemeNotFound) ||
		errors.Is(err, routinepdf.ErrInvalidPageSize) ||
		errors.Is(err, routinepdf.ErrInvalidOrientation) ||
		errors.Is(err, routinepdf.ErrInvalidMargin) ||
		errors.Is(err, routinepdf.ErrInvalidMode) ||
		errors.Is(err, routinepdf.ErrInvalidFormat) ||
		errors.Is(err, routinepdf.ErrInvalidCalendar) ||
		errors.Is(err, routinepdf.ErrInvalidAssetPath) ||
		errors.Is(err, routinepdf.ErrRoutineDecode) ||
		errors.Is(err, parse.ErrEmptyInput) ||
		errors.Is(err, parse.ErrInputTooLong) ||
		errors.Is(err, parse.ErrMissingAPIKey) ||
		errors.Is(err, ErrInvalidFlag) ||
		errors.Is(err, ErrInvalidWorkerCount) ||
		errors.Is(err, ErrInvalidTimeout) ||
		errors.Is(err, ErrTooManyArgs) {
		return ExitUsage
	}

	return ExitGeneral
}
