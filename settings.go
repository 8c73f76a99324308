package arbor

// Settings holds the defaults new nodes start with.
type Settings struct {
	// EdgeAntialiasing smooths the edges of drawn geometry.
	EdgeAntialiasing bool
	// GroupOpacity composites a translucent node with children as one unit,
	// so overlapping children do not show through each other.
	GroupOpacity bool
}

// DefaultSettings returns the built-in defaults.
func DefaultSettings() Settings {
	return Settings{EdgeAntialiasing: true, GroupOpacity: false}
}

var processSettings = DefaultSettings()

// SetDefaultSettings replaces the process-wide settings used by the package
// level constructors (NewLayer, NewSolidLayer, ...). Factories created earlier
// keep the settings they were built with.
func SetDefaultSettings(s Settings) {
	processSettings = s
}

// ResetDefaultSettings restores the built-in defaults.
func ResetDefaultSettings() {
	processSettings = DefaultSettings()
}

// CurrentSettings returns the process-wide settings.
func CurrentSettings() Settings {
	return processSettings
}

// Factory creates nodes with a fixed set of defaults.
type Factory struct {
	settings Settings
}

// NewFactory returns a factory whose nodes start from s.
func NewFactory(s Settings) *Factory {
	return &Factory{settings: s}
}

// Settings returns the defaults this factory applies.
func (f *Factory) Settings() Settings {
	return f.settings
}

func defaultFactory() *Factory {
	return &Factory{settings: processSettings}
}
