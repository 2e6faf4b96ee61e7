package types

// Schema versions. A store with no recorded version is at version 0 and gets
// a fresh install; every version from LowestSupportedSchemaVersion up to
// CurrentSchemaVersion-1 has exactly one migration step.
const (
	CurrentSchemaVersion         = 5
	LowestSupportedSchemaVersion = 1
)

// Metadata keys stored in the app_metadata table.
const (
	MetaKeySchemaVersion = "schema_version"
	MetaKeyDisplayMode   = "display_mode"
)

// DisplayMode is the persisted appearance preference.
type DisplayMode string

// Display modes. DisplayModeSystem is the default when nothing is stored.
const (
	DisplayModeSystem DisplayMode = "system"
	DisplayModeLight  DisplayMode = "light"
	DisplayModeDark   DisplayMode = "dark"
)

// Valid reports whether m is one of the known display modes.
func (m DisplayMode) Valid() bool {
	switch m {
	case DisplayModeSystem, DisplayModeLight, DisplayModeDark:
		return true
	}
	return false
}

// ParseDisplayMode decodes a stored value. Unknown values fall back to
// DisplayModeSystem and report ok=false.
func ParseDisplayMode(s string) (DisplayMode, bool) {
	m := DisplayMode(s)
	if !m.Valid() {
		return DisplayModeSystem, false
	}
	return m, true
}
