package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/alnah/go-routinepdf/internal/config"
)

// envPrefix marks the variables read by loadEnvConfig.
const envPrefix = "ROUTINEPDF_"

// envConfig holds configuration from environment variables.
// Provides container-friendly overrides without requiring YAML files.
type envConfig struct {
	ConfigPath string        // ROUTINEPDF_CONFIG: config file name or path
	Theme      string        // ROUTINEPDF_THEME: theme id or path
	Timeout    time.Duration // ROUTINEPDF_TIMEOUT: export timeout

	OutputDir    string // ROUTINEPDF_OUTPUT_DIR: default output directory
	AssetPath    string // ROUTINEPDF_ASSET_PATH: custom asset directory
	ContactPhone string // ROUTINEPDF_CONTACT_PHONE: footer phone number
	Calendar     string // ROUTINEPDF_CALENDAR: persian or gregorian
	PageSize     string // ROUTINEPDF_PAGE_SIZE: a4, a5, letter

	ParseEndpoint string // ROUTINEPDF_PARSE_ENDPOINT: chat completions URL
	ParseModel    string // ROUTINEPDF_PARSE_MODEL: model name
	QuotaPath     string // ROUTINEPDF_QUOTA_PATH: SQLite usage file

	Addr    string // ROUTINEPDF_ADDR: server listen address
	Workers int    // ROUTINEPDF_WORKERS: browser pool size
}

// knownEnvVars lists valid ROUTINEPDF_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"ROUTINEPDF_CONFIG":         true,
	"ROUTINEPDF_THEME":          true,
	"ROUTINEPDF_TIMEOUT":        true,
	"ROUTINEPDF_OUTPUT_DIR":     true,
	"ROUTINEPDF_ASSET_PATH":     true,
	"ROUTINEPDF_CONTACT_PHONE":  true,
	"ROUTINEPDF_CALENDAR":       true,
	"ROUTINEPDF_PAGE_SIZE":      true,
	"ROUTINEPDF_PARSE_ENDPOINT": true,
	"ROUTINEPDF_PARSE_MODEL":    true,
	"ROUTINEPDF_QUOTA_PATH":     true,
	"ROUTINEPDF_ADDR":           true,
	"ROUTINEPDF_WORKERS":        true,
}

// loadEnvConfig reads configuration through getenv.
// Invalid durations and worker counts are ignored.
func loadEnvConfig(getenv func(string) string) *envConfig {
	cfg := &envConfig{
		ConfigPath:    getenv("ROUTINEPDF_CONFIG"),
		Theme:         getenv("ROUTINEPDF_THEME"),
		OutputDir:     getenv("ROUTINEPDF_OUTPUT_DIR"),
		AssetPath:     getenv("ROUTINEPDF_ASSET_PATH"),
		ContactPhone:  getenv("ROUTINEPDF_CONTACT_PHONE"),
		Calendar:      getenv("ROUTINEPDF_CALENDAR"),
		PageSize:      getenv("ROUTINEPDF_PAGE_SIZE"),
		ParseEndpoint: getenv("ROUTINEPDF_PARSE_ENDPOINT"),
		ParseModel:    getenv("ROUTINEPDF_PARSE_MODEL"),
		QuotaPath:     getenv("ROUTINEPDF_QUOTA_PATH"),
		Addr:          getenv("ROUTINEPDF_ADDR"),
	}

	if timeout := getenv("ROUTINEPDF_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}

	if workers := getenv("ROUTINEPDF_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			cfg.Workers = w
		}
	}

	return cfg
}

// warnUnknownEnvVars writes a warning for each unrecognized ROUTINEPDF_*
// variable in environ.
func warnUnknownEnvVars(w io.Writer, environ []string) {
	for _, kv := range environ {
		if !strings.HasPrefix(kv, envPrefix) {
			continue
		}
		name, _, _ := strings.Cut(kv, "=")
		if !knownEnvVars[name] {
			fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
		}
	}
}

// applyEnvConfig overwrites config values with the variables that are set.
// Order: CLI flags > env vars > config file > defaults. Flags are applied
// afterwards by each command; the timeout is resolved in resolveTimeout.
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	setString := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}

	setString(&cfg.Export.Theme, env.Theme)
	setString(&cfg.Output.DefaultDir, env.OutputDir)
	setString(&cfg.Assets.BasePath, env.AssetPath)
	setString(&cfg.Contact.Phone, env.ContactPhone)
	setString(&cfg.Renewal.Calendar, env.Calendar)
	setString(&cfg.Page.Size, env.PageSize)
	setString(&cfg.Parse.Endpoint, env.ParseEndpoint)
	setString(&cfg.Parse.Model, env.ParseModel)
	setString(&cfg.Quota.Path, env.QuotaPath)
	setString(&cfg.Server.Addr, env.Addr)

	if env.Workers > 0 {
		cfg.Server.Workers = env.Workers
	}
}
