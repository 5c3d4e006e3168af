package main

import (
	"io"
	"os"
	"time"

	routinepdf "github.com/alnah/go-routinepdf"
)

// Environment holds injectable dependencies for testability.
// Includes I/O, time, process environment and exporter overrides.
type Environment struct {
	Now     func() time.Time
	Stdout  io.Writer
	Stderr  io.Writer
	Stdin   io.Reader
	Getenv  func(string) string
	Environ func() []string

	// UserCacheDir locates the default quota database.
	UserCacheDir func() (string, error)

	// ExporterOptions are appended after the options built from config.
	// Tests use them to swap the browser for a fake rasterizer.
	ExporterOptions []routinepdf.Option
}

// DefaultEnv returns the production environment.
func DefaultEnv() *Environment {
	return &Environment{
		Now:     time.Now,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Stdin:   os.Stdin,
		Getenv:  os.Getenv,
		Environ: os.Environ,

		UserCacheDir: os.UserCacheDir,
	}
}
