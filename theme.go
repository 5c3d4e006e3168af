package routinepdf

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/alnah/go-routinepdf/internal/assets"
	"github.com/alnah/go-routinepdf/internal/fileutil"
	"github.com/alnah/go-routinepdf/internal/pipeline"
	"github.com/alnah/go-routinepdf/internal/yamlutil"
)

// DefaultThemeID names the theme used when none is chosen.
const DefaultThemeID = assets.DefaultThemeName

// Theme is a named color palette. It affects colors only, never structure.
type Theme struct {
	ID               string `json:"id" yaml:"id"`
	Name             string `json:"name" yaml:"name"`
	Primary          string `json:"primary" yaml:"primary"`
	Secondary        string `json:"secondary" yaml:"secondary"`
	Background       string `json:"bg" yaml:"bg"`
	Text             string `json:"text" yaml:"text"`
	HeaderBackground string `json:"tableHeaderBg,omitempty" yaml:"tableHeaderBg,omitempty"`
	HeaderText       string `json:"tableHeaderColor,omitempty" yaml:"tableHeaderColor,omitempty"`
	RowA             string `json:"rowEven" yaml:"rowEven"`
	RowB             string `json:"rowOdd" yaml:"rowOdd"`
	Accent           string `json:"accent,omitempty" yaml:"accent,omitempty"`
}

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)

// Validate checks the id and that every set color is a hex color.
func (t Theme) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidTheme)
	}
	required := []struct{ field, value string }{
		{"primary", t.Primary},
		{"secondary", t.Secondary},
		{"bg", t.Background},
		{"text", t.Text},
		{"rowEven", t.RowA},
		{"rowOdd", t.RowB},
	}
	for _, c := range required {
		if !hexColor.MatchString(c.value) {
			return fmt.Errorf("%w: %s.%s %q is not a hex color", ErrInvalidTheme, t.ID, c.field, c.value)
		}
	}
	optional := []struct{ field, value string }{
		{"tableHeaderBg", t.HeaderBackground},
		{"tableHeaderColor", t.HeaderText},
		{"accent", t.Accent},
	}
	for _, c := range optional {
		if c.value != "" && !hexColor.MatchString(c.value) {
			return fmt.Errorf("%w: %s.%s %q is not a hex color", ErrInvalidTheme, t.ID, c.field, c.value)
		}
	}
	return nil
}

// resolved fills the optional colors.
func (t Theme) resolved() Theme {
	if t.HeaderBackground == "" {
		t.HeaderBackground = t.Primary
	}
	if t.HeaderText == "" {
		t.HeaderText = "#fff"
	}
	if t.Accent == "" {
		t.Accent = t.Primary
	}
	return t
}

func (t Theme) colors() pipeline.ThemeColors {
	r := t.resolved()
	return pipeline.ThemeColors{
		Primary:          r.Primary,
		Secondary:        r.Secondary,
		Background:       r.Background,
		Text:             r.Text,
		HeaderBackground: r.HeaderBackground,
		HeaderText:       r.HeaderText,
		RowA:             r.RowA,
		RowB:             r.RowB,
		Accent:           r.Accent,
	}
}

// ThemeCatalog loads themes from the embedded set, an optional custom asset
// directory, or a theme file path.
type ThemeCatalog struct {
	loader assets.AssetLoader
}

// NewThemeCatalog creates a catalog. An empty assetPath uses embedded
// themes only.
func NewThemeCatalog(assetPath string) (*ThemeCatalog, error) {
	resolver, err := assets.NewAssetResolver(assetPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAssetPath, err)
	}
	return &ThemeCatalog{loader: resolver}, nil
}

// Load returns the theme named idOrPath. A value containing a path
// separator is read as a YAML file. Empty means DefaultThemeID.
func (c *ThemeCatalog) Load(idOrPath string) (Theme, error) {
	if idOrPath == "" {
		idOrPath = DefaultThemeID
	}

	var t Theme
	if fileutil.IsFilePath(idOrPath) {
		if err := yamlutil.ReadFileStrict(idOrPath, &t); err != nil {
			return Theme{}, fmt.Errorf("%w: %s: %v", ErrInvalidTheme, idOrPath, err)
		}
	} else {
		data, err := c.loader.LoadTheme(idOrPath)
		if err != nil {
			if errors.Is(err, assets.ErrThemeNotFound) || errors.Is(err, assets.ErrInvalidAssetName) {
				return Theme{}, fmt.Errorf("%w: %q", ErrThemeNotFound, idOrPath)
			}
			return Theme{}, err
		}
		if err := yamlutil.UnmarshalStrict(data, &t); err != nil {
			return Theme{}, fmt.Errorf("%w: %s: %v", ErrInvalidTheme, idOrPath, err)
		}
	}

	if err := t.Validate(); err != nil {
		return Theme{}, err
	}
	return t, nil
}

// IDs returns the available theme ids, sorted.
func (c *ThemeCatalog) IDs() ([]string, error) {
	return c.loader.ListThemes()
}

// List loads every available theme in id order.
func (c *ThemeCatalog) List() ([]Theme, error) {
	ids, err := c.IDs()
	if err != nil {
		return nil, err
	}
	themes := make([]Theme, 0, len(ids))
	for _, id := range ids {
		t, err := c.Load(id)
		if err != nil {
			return nil, err
		}
		themes = append(themes, t)
	}
	return themes, nil
}
