package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	routinepdf "github.com/alnah/go-routinepdf"
	"github.com/alnah/go-routinepdf/internal/config"
	"github.com/alnah/go-routinepdf/internal/hints"
	"github.com/alnah/go-routinepdf/internal/parse"
	"github.com/alnah/go-routinepdf/internal/quota"
)

// Sentinel errors for command setup.
var (
	ErrInvalidWorkerCount = errors.New("invalid worker count")
	ErrInvalidTimeout     = errors.New("invalid timeout")
	ErrTooManyArgs        = errors.New("too many arguments")
)

// loadConfig builds the effective config for a command.
// The file comes from --config, then ROUTINEPDF_CONFIG; without either the
// defaults are used. Environment overrides are applied before validation.
func loadConfig(flagValue string, env *Environment) (*config.Config, *envConfig, error) {
	warnUnknownEnvVars(env.Stderr, env.Environ())
	envCfg := loadEnvConfig(env.Getenv)

	name := flagValue
	if name == "" {
		name = envCfg.ConfigPath
	}

	cfg := config.DefaultConfig()
	if name != "" {
		loaded, err := config.LoadConfig(name)
		if err != nil {
			if errors.Is(err, config.ErrConfigNotFound) {
				return nil, nil, fmt.Errorf("%w%s", err, hints.ForConfigNotFound(config.SearchPaths(name)))
			}
			return nil, nil, err
		}
		cfg = loaded
	}

	applyEnvConfig(envCfg, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return cfg, envCfg, nil
}

// resolveTimeout picks the export timeout.
// Order: --timeout flag > ROUTINEPDF_TIMEOUT > config > default.
func resolveTimeout(flagValue string, envTimeout time.Duration, cfg *config.Config) (time.Duration, error) {
	if flagValue != "" {
		d, err := time.ParseDuration(flagValue)
		if err != nil {
			return 0, fmt.Errorf("%w: %q: %v", ErrInvalidTimeout, flagValue, err)
		}
		if d <= 0 {
			return 0, fmt.Errorf("%w: %q (must be positive)", ErrInvalidTimeout, flagValue)
		}
		return d, nil
	}
	if envTimeout > 0 {
		return envTimeout, nil
	}
	return cfg.ExportTimeout(), nil
}

// exporterOptions translates config into exporter options.
func exporterOptions(cfg *config.Config, timeout time.Duration, env *Environment, logger *slog.Logger) ([]routinepdf.Option, error) {
	decoration, err := routinepdf.ParseDecoration(cfg.Export.Decoration)
	if err != nil {
		return nil, err
	}

	opts := []routinepdf.Option{
		routinepdf.WithPDFRaster(cfg.PDF.Width, cfg.PDF.PixelRatio, cfg.PDF.Quality),
		routinepdf.WithImageRaster(cfg.Image.PixelRatio, cfg.Image.Quality),
		routinepdf.WithDecoration(decoration),
		routinepdf.WithLogger(logger),
	}
	// Zero values keep the library defaults; the With* options panic on them.
	if timeout > 0 {
		opts = append(opts, routinepdf.WithTimeout(timeout))
	}
	if d := cfg.ReadyTimeout(); d > 0 {
		opts = append(opts, routinepdf.WithReadyTimeout(d))
	}
	if cfg.Export.GroupSize > 0 {
		opts = append(opts, routinepdf.WithGroupSize(cfg.Export.GroupSize))
	}
	if cfg.Assets.BasePath != "" {
		opts = append(opts, routinepdf.WithAssetPath(cfg.Assets.BasePath))
	}
	return append(opts, env.ExporterOptions...), nil
}

// exportMeta computes the renewal date and footer contact.
func exportMeta(cfg *config.Config, now time.Time) (routinepdf.Meta, error) {
	cal, err := routinepdf.ParseCalendar(cfg.Renewal.Calendar)
	if err != nil {
		return routinepdf.Meta{}, err
	}
	date, err := routinepdf.RenewalDate(now, cfg.Renewal.Days, cal, cfg.Renewal.DateFormat)
	if err != nil {
		return routinepdf.Meta{}, err
	}
	return routinepdf.Meta{
		RenewalDate: date,
		Contact:     routinepdf.Contact{Label: cfg.Contact.Label, Phone: cfg.Contact.Phone},
	}, nil
}

// loadTheme resolves id or path, listing the available themes on a miss.
func loadTheme(catalog *routinepdf.ThemeCatalog, idOrPath string) (routinepdf.Theme, error) {
	theme, err := catalog.Load(idOrPath)
	if err != nil {
		if errors.Is(err, routinepdf.ErrThemeNotFound) {
			ids, _ := catalog.IDs()
			return routinepdf.Theme{}, fmt.Errorf("%w%s", err, hints.ForThemeNotFound(ids))
		}
		return routinepdf.Theme{}, err
	}
	return theme, nil
}

// hintFor returns an actionable hint for err, or "".
func hintFor(err error) string {
	switch {
	case errors.Is(err, routinepdf.ErrBrowserConnect):
		return hints.ForBrowserConnect()
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, routinepdf.ErrRenderNotReady):
		return hints.ForTimeout()
	case errors.Is(err, parse.ErrMissingAPIKey):
		return hints.ForMissingAPIKey(parse.APIKeyEnv)
	case errors.Is(err, quota.ErrExceeded):
		return hints.ForQuotaExceeded()
	case errors.Is(err, routinepdf.ErrRoutineDecode), errors.Is(err, ErrReadRoutine):
		return hints.ForRoutineInput()
	case errors.Is(err, ErrOutputDir):
		return hints.ForOutputDirectory()
	}
	return ""
}
