// Package store persists client-local state in SQLite: the theme
// preference, the last confirmed settings and the last conversation list.
package store

import "time"

// Theme names accepted by SetTheme.
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// DefaultTheme is used until the user picks one.
const DefaultTheme = ThemeDark

// SettingsSnapshot is the last backend-confirmed settings mirror.
type SettingsSnapshot struct {
	Size       int
	Custom     bool
	UseContext bool
	UpdatedAt  time.Time
}
