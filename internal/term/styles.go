package term

import (
	"charm.land/lipgloss/v2"
)

const arrow = ""

// ColorPair is a text color and a label background.
type ColorPair struct {
	Fg lipgloss.RGBColor
	Bg lipgloss.RGBColor
}

// Palette holds the colors of the three speakers.
type Palette struct {
	User       ColorPair
	Apprentice ColorPair
	Tool       ColorPair
}

func DefaultPalette() Palette {
	return Palette{
		User:       ColorPair{Fg: lipgloss.RGBColor{R: 128, G: 64, B: 64}, Bg: lipgloss.RGBColor{R: 128, G: 0, B: 0}},
		Apprentice: ColorPair{Fg: lipgloss.RGBColor{R: 64, G: 128, B: 64}, Bg: lipgloss.RGBColor{R: 0, G: 128, B: 0}},
		Tool:       ColorPair{Fg: lipgloss.RGBColor{R: 128, G: 128, B: 0}, Bg: lipgloss.RGBColor{R: 64, G: 64, B: 0}},
	}
}

type speakerStyle struct {
	label lipgloss.Style
	arrow lipgloss.Style
	text  lipgloss.Style
}

func newSpeakerStyle(c ColorPair) speakerStyle {
	white := lipgloss.RGBColor{R: 255, G: 255, B: 255}
	return speakerStyle{
		label: lipgloss.NewStyle().Bold(true).Background(c.Bg).Foreground(white),
		arrow: lipgloss.NewStyle().Bold(true).Foreground(c.Bg),
		text:  lipgloss.NewStyle().Foreground(c.Fg),
	}
}

// prompt renders " NAME " followed by the arrow glyph.
func (s speakerStyle) prompt(name string) string {
	return s.label.Render(" "+name+" ") + s.arrow.Render(arrow) + " "
}

// Styles are the rendered styles of a palette.
type Styles struct {
	user       speakerStyle
	apprentice speakerStyle
	tool       speakerStyle
}

func NewStyles(p Palette) Styles {
	return Styles{
		user:       newSpeakerStyle(p.User),
		apprentice: newSpeakerStyle(p.Apprentice),
		tool:       newSpeakerStyle(p.Tool),
	}
}
