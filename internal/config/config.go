// Package config loads routinepdf configuration files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-routinepdf/internal/fileutil"
	"github.com/alnah/go-routinepdf/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// AppDirName is the directory under the user config dir searched for
// named configs.
const AppDirName = "routinepdf"

// Field length limits.
const (
	MaxThemeLength      = 64
	MaxLabelLength      = 200
	MaxPhoneLength      = 32
	MaxPathLength       = 4096
	MaxURLLength        = 2048
	MaxModelLength      = 100
	MaxDurationLength   = 20
	MaxDateLength       = 50
	MaxOriginLength     = 253
	MaxAllowedOrigins   = 32
	MaxPageSizeLength   = 10
	MaxOrientationLen   = 10
	MaxRenewalDays      = 366
	MaxGroupSize        = 7
	MaxServerWorkers    = 8
	MaxPixelRatio       = 4.0
	MaxDailyParseLimit  = 10000
	MaxPageMarginMM     = 50.0
	MaxExportPixelWidth = 4000
)

// Config holds all configuration for routine export.
type Config struct {
	Export  ExportConfig  `yaml:"export"`
	PDF     PDFConfig     `yaml:"pdf"`
	Image   ImageConfig   `yaml:"image"`
	Page    PageConfig    `yaml:"page"`
	Renewal RenewalConfig `yaml:"renewal"`
	Contact ContactConfig `yaml:"contact"`
	Assets  AssetsConfig  `yaml:"assets"`
	Output  OutputConfig  `yaml:"output"`
	Parse   ParseConfig   `yaml:"parse"`
	Quota   QuotaConfig   `yaml:"quota"`
	Server  ServerConfig  `yaml:"server"`
}

// ExportConfig defines options shared by every export format.
type ExportConfig struct {
	Theme        string `yaml:"theme"`        // theme id (default: "modern-blue")
	Decoration   string `yaml:"decoration"`   // "minimal", "standard", "rich"
	Timeout      string `yaml:"timeout"`      // whole export, e.g. "30s"
	ReadyTimeout string `yaml:"readyTimeout"` // fonts and layout wait per page
	GroupSize    int    `yaml:"groupSize"`    // days per logical page (default: 1)
}

// PDFConfig defines rasterization settings for PDF pages.
type PDFConfig struct {
	Width      int     `yaml:"width"`      // CSS pixels (default: 1050)
	PixelRatio float64 `yaml:"pixelRatio"` // default: 2
	Quality    int     `yaml:"quality"`    // JPEG quality 1-100 (default: 85)
}

// ImageConfig defines settings for single-image export.
type ImageConfig struct {
	Mode       string  `yaml:"mode"`       // "desktop" or "mobile"
	PixelRatio float64 `yaml:"pixelRatio"` // default: 3
	Quality    int     `yaml:"quality"`    // default: 92
}

// PageConfig defines PDF page geometry.
type PageConfig struct {
	Size        string  `yaml:"size"`        // "a4", "a5", "letter" (default: "a4")
	Orientation string  `yaml:"orientation"` // "portrait", "landscape"
	Margin      float64 `yaml:"margin"`      // millimeters (default: 10)
}

// RenewalConfig defines how the renewal date is computed and shown.
type RenewalConfig struct {
	Days       int    `yaml:"days"`       // default: 40
	Calendar   string `yaml:"calendar"`   // "persian" or "gregorian"
	DateFormat string `yaml:"dateFormat"` // gregorian only
}

// ContactConfig is printed in the footer of every export.
type ContactConfig struct {
	Label string `yaml:"label"`
	Phone string `yaml:"phone"` // "" hides the phone line
}

// AssetsConfig defines asset loading options.
type AssetsConfig struct {
	BasePath string `yaml:"basePath"` // Empty = use embedded assets
}

// OutputConfig defines output destination options.
type OutputConfig struct {
	DefaultDir string `yaml:"defaultDir"` // Empty = current directory
}

// ParseConfig defines the text-to-routine service.
type ParseConfig struct {
	Endpoint string `yaml:"endpoint"`
	Model    string `yaml:"model"`
	Timeout  string `yaml:"timeout"`
}

// QuotaConfig defines the daily parse quota.
type QuotaConfig struct {
	DailyLimit int    `yaml:"dailyLimit"` // default: 30
	Path       string `yaml:"path"`       // SQLite file; empty = <user cache dir>/routinepdf/usage.db
}

// ServerConfig defines the HTTP server.
type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowedOrigins"`
	Workers        int      `yaml:"workers"` // 0 = auto
}

// Defaults.
const (
	DefaultTheme        = "modern-blue"
	DefaultDecoration   = "standard"
	DefaultTimeout      = "30s"
	DefaultReadyTimeout = "10s"
	DefaultContactLabel = "جهت تمدید و دریافت برنامه جدید پیام بدهید"
	DefaultContactPhone = "0998 220 2734"
	DefaultEndpoint     = "https://ai.gateway.lovable.dev/v1/chat/completions"
	DefaultModel        = "google/gemini-3-flash-preview"
	DefaultParseTimeout = "60s"
	DefaultAddr         = "127.0.0.1:8080"
	DefaultDailyLimit   = 30
	DefaultQuotaFile    = "usage.db"
	DefaultRenewalDays  = 40
)

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Export: ExportConfig{
			Theme:        DefaultTheme,
			Decoration:   DefaultDecoration,
			Timeout:      DefaultTimeout,
			ReadyTimeout: DefaultReadyTimeout,
			GroupSize:    1,
		},
		PDF:     PDFConfig{Width: 1050, PixelRatio: 2, Quality: 85},
		Image:   ImageConfig{Mode: "desktop", PixelRatio: 3, Quality: 92},
		Page:    PageConfig{Size: "a4", Orientation: "portrait", Margin: 10},
		Renewal: RenewalConfig{Days: DefaultRenewalDays, Calendar: "persian"},
		Contact: ContactConfig{Label: DefaultContactLabel, Phone: DefaultContactPhone},
		Parse:   ParseConfig{Endpoint: DefaultEndpoint, Model: DefaultModel, Timeout: DefaultParseTimeout},
		Quota:   QuotaConfig{DailyLimit: DefaultDailyLimit},
		Server:  ServerConfig{Addr: DefaultAddr},
	}
}

// Validate checks field lengths and ranges.
// Called automatically by LoadConfig, but available for consumers
// who construct Config manually.
func (c *Config) Validate() error {
	fields := []struct {
		name  string
		value string
		max   int
	}{
		{"export.theme", c.Export.Theme, MaxThemeLength},
		{"export.timeout", c.Export.Timeout, MaxDurationLength},
		{"export.readyTimeout", c.Export.ReadyTimeout, MaxDurationLength},
		{"page.size", c.Page.Size, MaxPageSizeLength},
		{"page.orientation", c.Page.Orientation, MaxOrientationLen},
		{"renewal.dateFormat", c.Renewal.DateFormat, MaxDateLength},
		{"contact.label", c.Contact.Label, MaxLabelLength},
		{"contact.phone", c.Contact.Phone, MaxPhoneLength},
		{"assets.basePath", c.Assets.BasePath, MaxPathLength},
		{"output.defaultDir", c.Output.DefaultDir, MaxPathLength},
		{"parse.endpoint", c.Parse.Endpoint, MaxURLLength},
		{"parse.model", c.Parse.Model, MaxModelLength},
		{"parse.timeout", c.Parse.Timeout, MaxDurationLength},
		{"quota.path", c.Quota.Path, MaxPathLength},
		{"server.addr", c.Server.Addr, MaxOriginLength},
	}
	for _, f := range fields {
		if err := validateFieldLength(f.name, f.value, f.max); err != nil {
			return err
		}
	}

	if len(c.Server.AllowedOrigins) > MaxAllowedOrigins {
		return fmt.Errorf("%w: server.allowedOrigins has %d entries (max %d)", ErrInvalidValue, len(c.Server.AllowedOrigins), MaxAllowedOrigins)
	}
	for i, o := range c.Server.AllowedOrigins {
		if err := validateFieldLength(fmt.Sprintf("server.allowedOrigins[%d]", i), o, MaxOriginLength); err != nil {
			return err
		}
	}

	if err := validateOneOf("export.decoration", c.Export.Decoration, "minimal", "standard", "rich"); err != nil {
		return err
	}
	if err := validateOneOf("image.mode", c.Image.Mode, "desktop", "mobile"); err != nil {
		return err
	}
	if err := validateOneOf("page.size", c.Page.Size, "a4", "a5", "letter"); err != nil {
		return err
	}
	if err := validateOneOf("page.orientation", c.Page.Orientation, "portrait", "landscape"); err != nil {
		return err
	}
	if err := validateOneOf("renewal.calendar", c.Renewal.Calendar, "persian", "gregorian"); err != nil {
		return err
	}

	for _, d := range []struct{ name, value string }{
		{"export.timeout", c.Export.Timeout},
		{"export.readyTimeout", c.Export.ReadyTimeout},
		{"parse.timeout", c.Parse.Timeout},
	} {
		if _, err := parseDuration(d.name, d.value); err != nil {
			return err
		}
	}

	if err := validateRange("export.groupSize", float64(c.Export.GroupSize), 0, MaxGroupSize); err != nil {
		return err
	}
	if err := validateRange("pdf.width", float64(c.PDF.Width), 0, MaxExportPixelWidth); err != nil {
		return err
	}
	if err := validateRange("pdf.pixelRatio", c.PDF.PixelRatio, 0, MaxPixelRatio); err != nil {
		return err
	}
	if err := validateRange("pdf.quality", float64(c.PDF.Quality), 0, 100); err != nil {
		return err
	}
	if err := validateRange("image.pixelRatio", c.Image.PixelRatio, 0, MaxPixelRatio); err != nil {
		return err
	}
	if err := validateRange("image.quality", float64(c.Image.Quality), 0, 100); err != nil {
		return err
	}
	if err := validateRange("page.margin", c.Page.Margin, 0, MaxPageMarginMM); err != nil {
		return err
	}
	if err := validateRange("renewal.days", float64(c.Renewal.Days), 0, MaxRenewalDays); err != nil {
		return err
	}
	if err := validateRange("quota.dailyLimit", float64(c.Quota.DailyLimit), 0, MaxDailyParseLimit); err != nil {
		return err
	}
	if err := validateRange("server.workers", float64(c.Server.Workers), 0, MaxServerWorkers); err != nil {
		return err
	}

	return nil
}

// ExportTimeout returns export.timeout as a duration (0 when unset).
func (c *Config) ExportTimeout() time.Duration {
	d, _ := parseDuration("export.timeout", c.Export.Timeout)
	return d
}

// ReadyTimeout returns export.readyTimeout as a duration (0 when unset).
func (c *Config) ReadyTimeout() time.Duration {
	d, _ := parseDuration("export.readyTimeout", c.Export.ReadyTimeout)
	return d
}

// ParseTimeout returns parse.timeout as a duration (0 when unset).
func (c *Config) ParseTimeout() time.Duration {
	d, _ := parseDuration("parse.timeout", c.Parse.Timeout)
	return d
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// validateOneOf accepts empty (use default) or one of allowed, case-insensitively.
func validateOneOf(fieldName, value string, allowed ...string) error {
	if value == "" {
		return nil
	}
	for _, a := range allowed {
		if strings.EqualFold(value, a) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s %q (must be one of %s)", ErrInvalidValue, fieldName, value, strings.Join(allowed, ", "))
}

func validateRange(fieldName string, value, lo, hi float64) error {
	if value < lo || value > hi {
		return fmt.Errorf("%w: %s must be between %g and %g, got %g", ErrInvalidValue, fieldName, lo, hi, value)
	}
	return nil
}

func parseDuration(fieldName, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("%w: %s %q is not a positive duration", ErrInvalidValue, fieldName, value)
	}
	return d, nil
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Fields absent from the file keep their DefaultConfig values.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	configPath := nameOrPath
	if !fileutil.IsFilePath(nameOrPath) {
		var err error
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	cfg := DefaultConfig()
	if err := yamlutil.ReadFileStrict(configPath, cfg); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SearchPaths returns the files tried for a config name, in order:
// current directory, then ~/.config/routinepdf/, each with .yaml and .yml.
func SearchPaths(name string) []string {
	extensions := []string{".yaml", ".yml"}
	paths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		paths = append(paths, name+ext)
	}

	if userConfigDir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			paths = append(paths, filepath.Join(userConfigDir, AppDirName, name+ext))
		}
	}

	return paths
}

// resolveConfigPath returns the first existing file from SearchPaths.
func resolveConfigPath(name string) (string, error) {
	paths := SearchPaths(name)
	for _, p := range paths {
		if fileutil.FileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(paths, ", "))
}
