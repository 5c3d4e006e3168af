package assets

// Names of the built-in assets.
const (
	DefaultStyleName    = "page"
	DefaultTemplateName = "page"
	DefaultThemeName    = "modern-blue"
)

var defaultLoader = NewEmbeddedLoader()

// LoadStyle loads an embedded CSS file by name (without extension).
func LoadStyle(name string) (string, error) {
	return defaultLoader.LoadStyle(name)
}

// LoadTemplate loads an embedded HTML template by name (without extension).
func LoadTemplate(name string) (string, error) {
	return defaultLoader.LoadTemplate(name)
}

// LoadTheme loads an embedded theme definition by id.
func LoadTheme(id string) ([]byte, error) {
	return defaultLoader.LoadTheme(id)
}

// ListThemes returns the ids of the embedded themes, sorted.
func ListThemes() ([]string, error) {
	return defaultLoader.ListThemes()
}
