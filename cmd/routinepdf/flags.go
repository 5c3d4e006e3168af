package main

import (
	"errors"
	"fmt"

	flag "github.com/spf13/pflag"

	routinepdf "github.com/alnah/go-routinepdf"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// pageFlags holds PDF page layout flags.
type pageFlags struct {
	size        string
	orientation string
	margin      float64
	marginSet   bool // 0 is a valid margin
}

// exportFlags holds all flags for the export command.
type exportFlags struct {
	common     commonFlags
	page       pageFlags
	output     string
	formats    string
	theme      string
	mode       string
	decoration string
	timeout    string
	workers    int
	groupSize  int
	assetPath  string
	phone      string
}

// parseCmdFlags holds flags for the parse command.
type parseCmdFlags struct {
	common commonFlags
	output string
}

// serveFlags holds flags for the serve command.
type serveFlags struct {
	common    commonFlags
	addr      string
	workers   int
	assetPath string
}

// themesFlags holds flags for the themes command.
type themesFlags struct {
	common    commonFlags
	assetPath string
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show detailed timing")
}

// addPageFlags adds page layout flags to a FlagSet.
func addPageFlags(fs *flag.FlagSet, f *pageFlags) {
	fs.StringVarP(&f.size, "page-size", "p", "", "page size: a4, a5, letter")
	fs.StringVar(&f.orientation, "orientation", "", "page orientation: portrait, landscape")
	fs.Float64Var(&f.margin, "margin", 0, "page margin in millimeters (0-50)")
}

// parseExportFlags parses export command flags and returns positional args.
func parseExportFlags(args []string) (*exportFlags, []string, error) {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	f := &exportFlags{}

	fs.StringVarP(&f.output, "output", "o", "", "output directory")
	fs.StringVarP(&f.formats, "format", "f", "pdf", "formats: pdf, jpg, txt, comma list or all")
	fs.StringVar(&f.theme, "theme", "", "theme id or YAML file")
	fs.StringVarP(&f.mode, "mode", "m", "", "image layout: desktop, mobile")
	fs.StringVar(&f.decoration, "decoration", "", "decoration level: minimal, standard, rich")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "export timeout (e.g., 30s, 2m)")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel browsers (0 = auto)")
	fs.IntVar(&f.groupSize, "group-size", 0, "days per PDF group (0 = config)")
	fs.StringVar(&f.assetPath, "asset-path", "", "custom asset directory")
	fs.StringVar(&f.phone, "phone", "", "contact phone in the footer")
	addPageFlags(fs, &f.page)
	addCommonFlags(fs, &f.common)

	if err := fs.Parse(args); err != nil {
		return nil, nil, flagError(err)
	}
	f.page.marginSet = fs.Changed("margin")

	return f, fs.Args(), nil
}

// parseParseFlags parses parse command flags and returns positional args.
func parseParseFlags(args []string) (*parseCmdFlags, []string, error) {
	fs := flag.NewFlagSet("parse", flag.ContinueOnError)
	f := &parseCmdFlags{}

	fs.StringVarP(&f.output, "output", "o", "", "output file (.json, .yaml); default stdout")
	addCommonFlags(fs, &f.common)

	if err := fs.Parse(args); err != nil {
		return nil, nil, flagError(err)
	}
	return f, fs.Args(), nil
}

// parseServeFlags parses serve command flags.
func parseServeFlags(args []string) (*serveFlags, []string, error) {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	f := &serveFlags{}

	fs.StringVarP(&f.addr, "addr", "a", "", "listen address (default from config)")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel browsers (0 = auto)")
	fs.StringVar(&f.assetPath, "asset-path", "", "custom asset directory")
	addCommonFlags(fs, &f.common)

	if err := fs.Parse(args); err != nil {
		return nil, nil, flagError(err)
	}
	return f, fs.Args(), nil
}

// parseThemesFlags parses themes command flags.
func parseThemesFlags(args []string) (*themesFlags, []string, error) {
	fs := flag.NewFlagSet("themes", flag.ContinueOnError)
	f := &themesFlags{}

	fs.StringVar(&f.assetPath, "asset-path", "", "custom asset directory")
	addCommonFlags(fs, &f.common)

	if err := fs.Parse(args); err != nil {
		return nil, nil, flagError(err)
	}
	return f, fs.Args(), nil
}

// validateWorkers rejects negative counts and counts above the pool cap.
func validateWorkers(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %d (must be >= 0)", ErrInvalidWorkerCount, n)
	}
	if n > routinepdf.MaxPoolSize {
		return fmt.Errorf("%w: %d (max %d)", ErrInvalidWorkerCount, n, routinepdf.MaxPoolSize)
	}
	return nil
}

// ErrInvalidFlag wraps pflag parse failures, which carry no sentinel.
var ErrInvalidFlag = errors.New("invalid flag")

// flagError wraps err with ErrInvalidFlag, leaving flag.ErrHelp untouched.
func flagError(err error) error {
	if errors.Is(err, flag.ErrHelp) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrInvalidFlag, err)
}
