/*
Package user contains the data structures describing chat participants.

It defines the User struct as it appears on the wire and the Self record holding the
local participant's identity.
*/
package user

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// User represents the identity information of a chat participant.
// Fields use JSON tags for serialization in WebSocket messages.
type User struct {

	// ID is the server-assigned identifier.
	ID string `json:"id"`

	// Name is the display name chosen at login.
	Name string `json:"name"`

	// Color is the avatar color, one of the randx palette entries.
	Color string `json:"color"`
}

// Initial returns the upper-cased first letter of the name, used as the avatar glyph.
func (u User) Initial() string {
	r, _ := utf8.DecodeRuneInString(u.Name)
	if r == utf8.RuneError {
		return "?"
	}
	return string(unicode.ToUpper(r))
}

// Matches reports whether u has the given name and color.
func (u User) Matches(name, color string) bool {
	return u.Name == name && u.Color == color
}

// Self is the local user. Name and Color are fixed at login; ID is back-filled once
// the server announces it.
type Self struct {
	User
}

// HasID reports whether the server-assigned id has been adopted.
func (s *Self) HasID() bool {
	return s.ID != ""
}

// AdoptID sets the id if it is still unset. It returns true only when the id changed.
func (s *Self) AdoptID(id string) bool {
	if s.HasID() || id == "" {
		return false
	}
	s.ID = id
	return true
}

// FindIn returns the first entry of users matching the local (name, color) pair.
func (s *Self) FindIn(users []User) (User, bool) {
	for _, u := range users {
		if u.Matches(s.Name, s.Color) {
			return u, true
		}
	}
	return User{}, false
}

// IsSender reports whether sender is the local user. An unset local id never matches.
func (s *Self) IsSender(sender User) bool {
	return s.HasID() && sender.ID == s.ID
}

// IsMentionedFirst reports whether text opens with the local user's name as a whole
// word, which is how the server phrases announcements about a user. "Anabel entrou"
// is not about "Ana".
func (s *Self) IsMentionedFirst(text string) bool {
	if s.Name == "" {
		return false
	}
	return text == s.Name || strings.HasPrefix(text, s.Name+" ")
}
