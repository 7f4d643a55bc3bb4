package ui

import "sync"

// Field is a single-line text input. It satisfies chat.Input.
type Field struct {
	mu    sync.Mutex
	value string
}

// Value returns the current text.
func (f *Field) Value() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value
}

// Set replaces the current text.
func (f *Field) Set(v string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.value = v
}

// Clear empties the field.
func (f *Field) Clear() {
	f.Set("")
}
