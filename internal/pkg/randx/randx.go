/*
Package randx provides the random choices the client makes on its own: the avatar color
picked at login and the session identifier used to correlate log lines.
*/
package randx

import (
	"crypto/rand"
	"math/big"

	"github.com/google/uuid"
)

// Palette is the fixed set of avatar colors a user can be assigned at login.
var Palette = [8]string{
	"#34D399",
	"#F87171",
	"#60A5FA",
	"#FBBF24",
	"#A78BFA",
	"#F472B6",
	"#2DD4BF",
	"#FB923C",
}

// Color picks a palette entry using crypto/rand.
// If the system random source fails it falls back to the first palette entry, since
// the color is cosmetic and login must not fail because of it.
func Color() string {
	num, err := rand.Int(rand.Reader, big.NewInt(int64(len(Palette))))
	if err != nil {
		return Palette[0]
	}

	return Palette[num.Int64()]
}

// IsPaletteColor reports whether color is one of the Palette entries.
func IsPaletteColor(color string) bool {
	for _, c := range Palette {
		if c == color {
			return true
		}
	}
	return false
}

// SessionID generates a UUID v4 string identifying one client run in the logs.
func SessionID() string {
	return uuid.New().String()
}
