package assets

import (
	"fmt"
	"strings"
)

// AssetLoader defines the contract for loading styles, templates and themes.
type AssetLoader interface {
	// LoadStyle loads a CSS style by name (without .css extension).
	// Returns ErrStyleNotFound if the style doesn't exist.
	LoadStyle(name string) (string, error)

	// LoadTemplate loads an HTML template by name (without .html extension).
	// Returns ErrTemplateNotFound if the template doesn't exist.
	LoadTemplate(name string) (string, error)

	// LoadTheme loads the raw YAML of a theme by id.
	// Returns ErrThemeNotFound if the theme doesn't exist.
	LoadTheme(id string) ([]byte, error)

	// ListThemes returns the available theme ids, sorted.
	ListThemes() ([]string, error)
}

// ValidateAssetName rejects names that could leave the asset directory:
// empty names, path separators, dots and NUL bytes.
func ValidateAssetName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidAssetName)
	}
	if strings.ContainsAny(name, "/\\.\x00") {
		return fmt.Errorf("%w: %q", ErrInvalidAssetName, name)
	}
	return nil
}
