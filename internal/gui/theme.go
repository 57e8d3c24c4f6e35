package gui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

var (
	// DefaultWindowSize is the default window dimensions
	DefaultWindowSize = fyne.NewSize(720, 540)

	// Colors
	ColorPrimary    = color.NRGBA{R: 33, G: 150, B: 243, A: 255} // Material Blue
	ColorSuccess    = color.NRGBA{R: 76, G: 175, B: 80, A: 255}  // Material Green
	ColorWarning    = color.NRGBA{R: 255, G: 152, B: 0, A: 255}  // Material Orange
	ColorError      = color.NRGBA{R: 244, G: 67, B: 54, A: 255}  // Material Red
	ColorBackground = color.NRGBA{R: 18, G: 18, B: 18, A: 255}   // Dark background
)

// WatchTheme implements a custom theme for the dashboard
type WatchTheme struct{}

func (t *WatchTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNamePrimary:
		return ColorPrimary
	case theme.ColorNameBackground:
		return ColorBackground
	case theme.ColorNameSuccess:
		return ColorSuccess
	case theme.ColorNameWarning:
		return ColorWarning
	case theme.ColorNameError:
		return ColorError
	default:
		return theme.DefaultTheme().Color(name, variant)
	}
}

func (t *WatchTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return theme.DefaultTheme().Icon(name)
}

func (t *WatchTheme) Font(style fyne.TextStyle) fyne.Resource {
	return theme.DefaultTheme().Font(style)
}

func (t *WatchTheme) Size(name fyne.ThemeSizeName) float32 {
	switch name {
	case theme.SizeNameText:
		return 14
	case theme.SizeNameHeadingText:
		return 18
	case theme.SizeNamePadding:
		return 8
	default:
		return theme.DefaultTheme().Size(name)
	}
}
