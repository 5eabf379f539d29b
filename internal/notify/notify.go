// Package notify raises desktop notifications for events the user may miss
// while the terminal is in the background.
package notify

import (
	"log/slog"

	"github.com/gen2brain/beeep"
)

const title = "walkie-talkie"

// Notifier sends desktop notifications. A disabled Notifier does nothing.
type Notifier struct {
	enabled bool
	notify  func(title, message string) error
	alert   func(title, message string) error
}

// New creates a notifier backed by beeep.
func New(enabled bool) *Notifier {
	return &Notifier{
		enabled: enabled,
		notify:  func(t, m string) error { return beeep.Notify(t, m, "") },
		alert:   func(t, m string) error { return beeep.Alert(t, m, "") },
	}
}

// Info posts a passive notification.
func (n *Notifier) Info(message string) {
	if n == nil || !n.enabled {
		return
	}
	if err := n.notify(title, message); err != nil {
		slog.Debug("Desktop notification failed", "error", err)
	}
}

// Alert posts a notification with sound, used for blocking errors.
func (n *Notifier) Alert(message string) {
	if n == nil || !n.enabled {
		return
	}
	if err := n.alert(title, message); err != nil {
		slog.Debug("Desktop alert failed", "error", err)
	}
}
