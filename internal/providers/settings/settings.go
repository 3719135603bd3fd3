package settings

// Allowed ranges
const (
	MinOpacity  = 0.3
	MaxOpacity  = 1.0
	MinFontSize = 10
	MaxFontSize = 24
)

// Settings is the persisted preference set
type Settings struct {
	Opacity            float64 `toml:"opacity" json:"opacity"`
	FontSize           int     `toml:"font_size" json:"font_size"`
	GlobalShortcut     string  `toml:"global_shortcut" json:"global_shortcut"`
	ShortcutEnabled    bool    `toml:"shortcut_enabled" json:"shortcut_enabled"`
	PinShortcut        string  `toml:"pin_shortcut" json:"pin_shortcut"`
	OnboardingComplete bool    `toml:"onboarding_complete" json:"onboarding_complete"`
	Pinned             bool    `toml:"pinned" json:"pinned"`
}

// Defaults returns the settings used when nothing is stored
func Defaults() Settings {
	return Settings{
		Opacity:         0.9,
		FontSize:        13,
		GlobalShortcut:  "CommandOrControl+Shift+T",
		ShortcutEnabled: true,
		PinShortcut:     "CommandOrControl+Backquote",
	}
}

// Validate clamps values into their allowed ranges
func (s *Settings) Validate() {
	s.Opacity = clamp(s.Opacity, MinOpacity, MaxOpacity)
	s.FontSize = int(clamp(float64(s.FontSize), MinFontSize, MaxFontSize))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
