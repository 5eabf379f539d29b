// Package settings owns the memory-size mode (preset or custom key) and the
// use-context flag, mirrored locally and confirmed by the backend.
package settings

import "fmt"

// Mode is the memory-size mode.
type Mode string

const (
	ModePreset Mode = "preset"
	ModeCustom Mode = "custom"
)

const (
	// DefaultSize is the preset restored by ResetKey.
	DefaultSize = 5
	// MinCustomSize and MaxCustomSize bound a custom size, inclusive.
	MinCustomSize = 1
	MaxCustomSize = 100
	// KeyPrefix is required on every custom API key.
	KeyPrefix = "sk-"
)

// Presets are the sizes selectable without a key.
var Presets = []int{5, 10, 20}

// IsPreset reports whether size is one of Presets.
func IsPreset(size int) bool {
	for _, p := range Presets {
		if p == size {
			return true
		}
	}
	return false
}

// State is the settings mirror.
type State struct {
	Size          int
	Mode          Mode
	APIKeyPresent bool
	UseContext    bool
}

// Preset returns the preset state for size.
func Preset(size int) State {
	return State{Size: size, Mode: ModePreset}
}

// Custom returns the custom state for size with a validated key.
func Custom(size int) State {
	return State{Size: size, Mode: ModeCustom, APIKeyPresent: true}
}

// IsCustom reports whether custom mode is active.
func (s State) IsCustom() bool {
	return s.Mode == ModeCustom
}

// Label is the memory-size text shown to the user.
func (s State) Label() string {
	if s.IsCustom() {
		return fmt.Sprintf("Custom (%d)", s.Size)
	}
	return fmt.Sprintf("%d", s.Size)
}

// ValidationError is a local input failure. It never reaches the network.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// UserMessage is shown inline next to the input.
func (e *ValidationError) UserMessage() string {
	return e.Message
}
