package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseChord(t *testing.T) {
	tests := []struct {
		chord    string
		wantKey  string
		wantMods []string
	}{
		{"ctrl+enter", "enter", []string{"ctrl"}},
		{"ctrl+shift+p", "p", []string{"ctrl", "shift"}},
		{"enter", "enter", nil},
		{"Control+Enter", "enter", []string{"ctrl"}},
		{" alt+tab ", "tab", []string{"alt"}},
		{"cmd+a", "a", []string{"cmd"}},
		{"super+l", "l", []string{"cmd"}},
	}
	for _, tt := range tests {
		key, mods := parseChord(tt.chord)
		assert.Equal(t, tt.wantKey, key, "chord %q", tt.chord)
		assert.Equal(t, tt.wantMods, mods, "chord %q", tt.chord)
	}
}

func TestXDoToolChord(t *testing.T) {
	tests := []struct {
		chord string
		want  string
	}{
		{"ctrl+enter", "ctrl+Return"},
		{"ctrl+shift+p", "ctrl+shift+p"},
		{"enter", "Return"},
		{"esc", "Escape"},
		{"ctrl+a", "ctrl+a"},
		{"f12", "F12"},
		{"alt+f4", "alt+F4"},
		{"shift+tab", "shift+Tab"},
		{"up", "Up"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, xdotoolChord(tt.chord), "chord %q", tt.chord)
	}
}
