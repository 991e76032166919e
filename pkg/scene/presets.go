package scene

import (
	"strings"
)

// Preset is a named variant of the planet scene. Presets share one pipeline
// and differ only in which features start enabled.
type Preset struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Description       string `json:"description"`
	AtmosphereEnabled bool   `json:"atmosphereEnabled"`
	SunOrbitEnabled   bool   `json:"sunOrbitEnabled"`
	AcceptEdits       bool   `json:"acceptEdits"` // Parameter edits beyond the camera are honoured
}

// DefaultPreset is used when no preset is configured
const DefaultPreset = "planet"

var presets = []Preset{
	{
		ID:                "planet",
		Description:       "Textured planet with an editable atmosphere",
		AtmosphereEnabled: true,
		AcceptEdits:       true,
	},
	{
		ID:                "planet-static",
		Description:       "Planet and atmosphere with fixed parameters; only the camera moves",
		AtmosphereEnabled: true,
	},
	{
		ID:                "sun-orbit",
		Description:       "The sun circles the planet, sweeping day into night",
		AtmosphereEnabled: true,
		SunOrbitEnabled:   true,
		AcceptEdits:       true,
	},
	{
		ID:          "bare-planet",
		Description: "Planet surface lit without atmospheric scattering",
		AcceptEdits: true,
	},
}

// Presets returns every preset in display order
func Presets() []Preset {
	out := make([]Preset, len(presets))
	for i, p := range presets {
		p.Name = titleCase(p.ID)
		out[i] = p
	}
	return out
}

// LookupPreset finds a preset by ID
func LookupPreset(id string) (Preset, bool) {
	for _, p := range Presets() {
		if p.ID == id {
			return p, true
		}
	}
	return Preset{}, false
}

// PresetIDs returns the IDs of all presets
func PresetIDs() []string {
	ids := make([]string, len(presets))
	for i, p := range presets {
		ids[i] = p.ID
	}
	return ids
}

// titleCase converts an ID to a display name
// e.g., "planet-static" -> "Planet Static"
func titleCase(s string) string {
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")

	words := strings.Fields(s)
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
	}

	return strings.Join(words, " ")
}
