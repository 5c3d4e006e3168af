package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	routinepdf "github.com/alnah/go-routinepdf"
	"github.com/alnah/go-routinepdf/internal/config"
	"github.com/alnah/go-routinepdf/internal/fileutil"
	"github.com/alnah/go-routinepdf/internal/parse"
	"github.com/alnah/go-routinepdf/internal/quota"
	"github.com/alnah/go-routinepdf/internal/yamlutil"
)

// ErrReadInput reports an unreadable text input for the parse command.
var ErrReadInput = errors.New("failed to read input text")

// cliClientKey is the quota key used for local parse runs.
const cliClientKey = "cli"

// runParse handles the parse command: text in, routine file out.
func runParse(ctx context.Context, args []string, env *Environment) error {
	flags, rest, err := parseParseFlags(args)
	if err != nil {
		return err
	}
	if len(rest) == 0 {
		printParseUsage(env.Stderr)
		return ErrNoInput
	}
	if len(rest) > 1 {
		return fmt.Errorf("%w: parse takes one input, got %d", ErrTooManyArgs, len(rest))
	}

	cfg, _, err := loadConfig(flags.common.config, env)
	if err != nil {
		return err
	}
	logger := newLogger(env.Stderr, flags.common.quiet, flags.common.verbose)

	text, err := readInput(rest[0], env.Stdin)
	if err != nil {
		return err
	}

	svc, closeQuota, err := newParseService(cfg, env, logger)
	if err != nil {
		return err
	}
	defer closeQuota()

	routine, err := svc.Parse(ctx, cliClientKey, text)
	if err != nil {
		return err
	}

	data, err := encodeRoutine(routine, flags.output)
	if err != nil {
		return err
	}

	if flags.output == "" {
		_, err := env.Stdout.Write(data)
		return err
	}
	if dir := filepath.Dir(flags.output); dir != "." {
		if err := os.MkdirAll(dir, dirPermissions); err != nil {
			return fmt.Errorf("%w: %w", ErrOutputDir, err)
		}
	}
	if err := fileutil.WriteFileAtomic(flags.output, data, filePermissions); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteOutput, err)
	}
	if !flags.common.quiet {
		fmt.Fprintf(env.Stdout, "Created %s (%d days, %d items)\n", flags.output, len(routine.Days), routine.ItemCount())
	}
	return nil
}

// readInput reads path, or stdin when path is "-".
func readInput(path string, stdin io.Reader) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path) // #nosec G304 -- user-provided path
	}
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrReadInput, err)
	}
	return string(data), nil
}

// newParseService wires the HTTP client and the quota store configured in
// cfg. The returned func closes the store.
func newParseService(cfg *config.Config, env *Environment, logger *slog.Logger) (*parse.Service, func(), error) {
	client, err := newParseClient(cfg, env, logger)
	if err != nil {
		return nil, nil, err
	}

	checker, closeQuota, err := openQuota(cfg, env, logger)
	if err != nil {
		return nil, nil, err
	}

	return parse.NewService(client, checker, logger), closeQuota, nil
}

// newParseClient reads the API key from the environment.
func newParseClient(cfg *config.Config, env *Environment, logger *slog.Logger) (*parse.Client, error) {
	opts := []parse.Option{
		parse.WithEndpoint(cfg.Parse.Endpoint),
		parse.WithModel(cfg.Parse.Model),
		parse.WithLogger(logger),
	}
	if d := cfg.ParseTimeout(); d > 0 {
		opts = append(opts, parse.WithTimeout(d))
	}
	return parse.NewClient(env.Getenv(parse.APIKeyEnv), opts...)
}

// openQuota opens the SQLite store at quota.path, falling back to
// routinepdf/usage.db under the user cache dir. Counts only live in memory
// when no cache dir exists.
func openQuota(cfg *config.Config, env *Environment, logger *slog.Logger) (quota.Checker, func(), error) {
	path := cfg.Quota.Path
	if path == "" {
		path = defaultQuotaPath(env)
	}
	if path == "" {
		logger.Warn("usage counts are not persisted", slog.String("reason", "no user cache dir"))
		return quota.NewMemoryStore(cfg.Quota.DailyLimit, quota.WithClock(env.Now)), func() {}, nil
	}

	store, err := quota.OpenSQLite(path, cfg.Quota.DailyLimit, quota.WithClock(env.Now))
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("quota store", slog.String("path", path))
	return store, func() { _ = store.Close() }, nil
}

func defaultQuotaPath(env *Environment) string {
	if env.UserCacheDir == nil {
		return ""
	}
	dir, err := env.UserCacheDir()
	if err != nil || dir == "" {
		return ""
	}
	return filepath.Join(dir, "routinepdf", config.DefaultQuotaFile)
}

// encodeRoutine writes YAML for .yaml/.yml outputs and indented JSON
// otherwise. Both are accepted back by the export command.
func encodeRoutine(r *routinepdf.Routine, output string) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(output)) {
	case ".yaml", ".yml":
		return yamlutil.Marshal(r)
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
