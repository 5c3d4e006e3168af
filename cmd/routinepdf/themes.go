package main

import (
	"fmt"

	routinepdf "github.com/alnah/go-routinepdf"
)

// runThemes lists the available themes.
func runThemes(args []string, env *Environment) error {
	flags, rest, err := parseThemesFlags(args)
	if err != nil {
		return err
	}
	if len(rest) > 0 {
		return ErrTooManyArgs
	}

	cfg, _, err := loadConfig(flags.common.config, env)
	if err != nil {
		return err
	}
	if flags.assetPath != "" {
		cfg.Assets.BasePath = flags.assetPath
	}

	catalog, err := routinepdf.NewThemeCatalog(cfg.Assets.BasePath)
	if err != nil {
		return err
	}
	themes, err := catalog.List()
	if err != nil {
		return err
	}

	for _, t := range themes {
		marker := " "
		if t.ID == cfg.Export.Theme {
			marker = "*"
		}
		if flags.common.quiet {
			fmt.Fprintln(env.Stdout, t.ID)
			continue
		}
		fmt.Fprintf(env.Stdout, "%s %-14s %s\n", marker, t.ID, t.Name)
	}
	return nil
}
