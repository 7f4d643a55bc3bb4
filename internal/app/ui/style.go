package ui

import (
	"github.com/muesli/termenv"
)

// slate tones of the chat layout
const (
	systemBadgeColor = "#94A3B8"
	selfBubbleColor  = "#4F46E5"
	otherBubbleColor = "#334155"
)

// palette styles text for a termenv color profile. The Ascii profile leaves text
// unstyled.
type palette struct {
	profile termenv.Profile
}

func newPalette(color bool) palette {
	if color {
		return palette{profile: termenv.TrueColor}
	}
	return palette{profile: termenv.Ascii}
}

func (p palette) enabled() bool {
	return p.profile != termenv.Ascii
}

// fg paints s with the hex color. Invalid colors leave s unpainted.
func (p palette) fg(hex, s string) string {
	return p.profile.String(s).Foreground(p.profile.Color(hex)).String()
}

// bg paints the background of s with the hex color.
func (p palette) bg(hex, s string) string {
	return p.profile.String(s).Background(p.profile.Color(hex)).String()
}

// strong is s in bold, painted with hex.
func (p palette) strong(hex, s string) string {
	return p.profile.String(s).Foreground(p.profile.Color(hex)).Bold().String()
}

func (p palette) bold(s string) string {
	return p.profile.String(s).Bold().String()
}

func (p palette) dim(s string) string {
	return p.profile.String(s).Faint().String()
}
