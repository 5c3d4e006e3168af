package assets

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

//go:embed styles/*.css templates/*.html themes/*.yaml
var files embed.FS

// EmbeddedLoader loads assets compiled into the binary.
type EmbeddedLoader struct{}

// NewEmbeddedLoader creates an EmbeddedLoader.
func NewEmbeddedLoader() *EmbeddedLoader {
	return &EmbeddedLoader{}
}

// LoadStyle loads a CSS style from embedded assets by name.
func (e *EmbeddedLoader) LoadStyle(name string) (string, error) {
	content, err := e.read("styles", name, ".css", ErrStyleNotFound)
	return string(content), err
}

// LoadTemplate loads an HTML template from embedded assets by name.
func (e *EmbeddedLoader) LoadTemplate(name string) (string, error) {
	content, err := e.read("templates", name, ".html", ErrTemplateNotFound)
	return string(content), err
}

// LoadTheme loads a theme definition from embedded assets by id.
func (e *EmbeddedLoader) LoadTheme(id string) ([]byte, error) {
	return e.read("themes", id, ".yaml", ErrThemeNotFound)
}

// ListThemes returns the ids of the embedded themes.
func (e *EmbeddedLoader) ListThemes() ([]string, error) {
	entries, err := fs.ReadDir(files, "themes")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAssetRead, err)
	}
	return themeIDs(entries), nil
}

func (e *EmbeddedLoader) read(dir, name, ext string, notFound error) ([]byte, error) {
	if err := ValidateAssetName(name); err != nil {
		return nil, err
	}
	content, err := files.ReadFile(dir + "/" + name + ext)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", notFound, name)
	}
	return content, nil
}

// themeIDs extracts sorted ids from the *.yaml entries of a themes directory.
func themeIDs(entries []fs.DirEntry) []string {
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(ids)
	return ids
}

// Compile-time interface check.
var _ AssetLoader = (*EmbeddedLoader)(nil)
