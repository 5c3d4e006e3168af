package main

import (
	"context"
	"errors"
	"log/slog"

	routinepdf "github.com/alnah/go-routinepdf"
	"github.com/alnah/go-routinepdf/internal/config"
	"github.com/alnah/go-routinepdf/internal/parse"
	"github.com/alnah/go-routinepdf/internal/server"
)

// runServe handles the serve command.
func runServe(ctx context.Context, args []string, env *Environment) error {
	flags, rest, err := parseServeFlags(args)
	if err != nil {
		return err
	}
	if len(rest) > 0 {
		return ErrTooManyArgs
	}
	if err := validateWorkers(flags.workers); err != nil {
		return err
	}

	cfg, envCfg, err := loadConfig(flags.common.config, env)
	if err != nil {
		return err
	}
	if flags.addr != "" {
		cfg.Server.Addr = flags.addr
	}
	if flags.workers > 0 {
		cfg.Server.Workers = flags.workers
	}
	if flags.assetPath != "" {
		cfg.Assets.BasePath = flags.assetPath
	}

	logger := newLogger(env.Stderr, flags.common.quiet, flags.common.verbose)

	srv, cleanup, err := newServer(cfg, envCfg, env, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	return srv.Run(ctx, cfg.Server.Addr)
}

// newServer assembles the HTTP server and its exporter pool. Parsing is
// disabled, with a warning, when no API key is set. The returned func
// releases the pool and the quota store.
func newServer(cfg *config.Config, envCfg *envConfig, env *Environment, logger *slog.Logger) (*server.Server, func(), error) {
	timeout, err := resolveTimeout("", envCfg.Timeout, cfg)
	if err != nil {
		return nil, nil, err
	}
	opts, err := exporterOptions(cfg, timeout, env, logger)
	if err != nil {
		return nil, nil, err
	}

	decoration, err := routinepdf.ParseDecoration(cfg.Export.Decoration)
	if err != nil {
		return nil, nil, err
	}
	themes, err := routinepdf.NewThemeCatalog(cfg.Assets.BasePath)
	if err != nil {
		return nil, nil, err
	}
	renderer, err := routinepdf.NewRenderer(cfg.Assets.BasePath, decoration)
	if err != nil {
		return nil, nil, err
	}
	calendar, err := routinepdf.ParseCalendar(cfg.Renewal.Calendar)
	if err != nil {
		return nil, nil, err
	}

	var (
		parser     server.RoutineParser
		closeQuota = func() {}
	)
	svc, closeFn, err := newParseService(cfg, env, logger)
	switch {
	case err == nil:
		parser, closeQuota = svc, closeFn
	case errors.Is(err, parse.ErrMissingAPIKey):
		logger.Warn("parsing disabled", slog.String("reason", "missing "+parse.APIKeyEnv))
	default:
		return nil, nil, err
	}

	poolSize := routinepdf.ResolvePoolSize(cfg.Server.Workers)
	pool := routinepdf.NewExporterPool(poolSize, opts...)
	logger.Info("exporter pool", slog.Int("size", poolSize))

	srv := server.New(server.Config{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Theme:          cfg.Export.Theme,
		Contact:        routinepdf.Contact{Label: cfg.Contact.Label, Phone: cfg.Contact.Phone},
		RenewalDays:    cfg.Renewal.Days,
		Calendar:       calendar,
		DateFormat:     cfg.Renewal.DateFormat,
		Page: &routinepdf.PageSettings{
			Size:        cfg.Page.Size,
			Orientation: cfg.Page.Orientation,
			Margin:      cfg.Page.Margin,
		},
	}, server.Deps{
		Pool:     pool,
		Themes:   themes,
		Renderer: renderer,
		Parser:   parser,
		Logger:   logger,
		Now:      env.Now,
	})

	cleanup := func() {
		if err := pool.Close(); err != nil {
			logger.Warn("closing exporter pool", slog.String("error", err.Error()))
		}
		closeQuota()
	}
	return srv, cleanup, nil
}
