package platform

import "strings"

// Key chords are written in config and recovery chains as lowercase
// "mod+mod+key" strings, e.g. "ctrl+enter" or "ctrl+shift+p". The helpers
// below translate them for each backend's native vocabulary.

// parseChord splits a chord into its final key and leading modifiers
func parseChord(chord string) (key string, mods []string) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(chord)), "+")
	if len(parts) == 0 {
		return "", nil
	}
	key = parts[len(parts)-1]
	for _, m := range parts[:len(parts)-1] {
		switch m {
		case "ctrl", "control":
			mods = append(mods, "ctrl")
		case "shift":
			mods = append(mods, "shift")
		case "alt":
			mods = append(mods, "alt")
		case "cmd", "super", "meta":
			mods = append(mods, "cmd")
		}
	}
	return key, mods
}

// xdotoolKeyNames maps chord key names to xdotool keysym names
var xdotoolKeyNames = map[string]string{
	"enter":  "Return",
	"return": "Return",
	"esc":    "Escape",
	"escape": "Escape",
	"tab":    "Tab",
	"space":  "space",
	"up":     "Up",
	"down":   "Down",
	"left":   "Left",
	"right":  "Right",
}

// xdotoolChord renders a chord in xdotool syntax ("ctrl+shift+p" -> same,
// "ctrl+enter" -> "ctrl+Return")
func xdotoolChord(chord string) string {
	key, mods := parseChord(chord)
	if name, ok := xdotoolKeyNames[key]; ok {
		key = name
	} else if len(key) == 1 {
		// single characters pass through unchanged
	} else if strings.HasPrefix(key, "f") && len(key) <= 3 {
		key = strings.ToUpper(key[:1]) + key[1:]
	}
	if len(mods) == 0 {
		return key
	}
	return strings.Join(mods, "+") + "+" + key
}
