package notify

import (
	"errors"
	"testing"
)

func TestDisabledNotifierIsSilent(t *testing.T) {
	calls := 0
	n := &Notifier{
		enabled: false,
		notify:  func(string, string) error { calls++; return nil },
		alert:   func(string, string) error { calls++; return nil },
	}
	n.Info("hello")
	n.Alert("boom")
	if calls != 0 {
		t.Errorf("expected no calls, got %d", calls)
	}
}

func TestNotifierRoutes(t *testing.T) {
	var got []string
	n := &Notifier{
		enabled: true,
		notify:  func(title, m string) error { got = append(got, "info:"+m); return nil },
		alert:   func(title, m string) error { got = append(got, "alert:"+m); return errors.New("no dbus") },
	}
	n.Info("Recording stopped at 60 seconds")
	n.Alert("No speech detected")

	if len(got) != 2 || got[0] != "info:Recording stopped at 60 seconds" || got[1] != "alert:No speech detected" {
		t.Errorf("unexpected calls: %v", got)
	}
}

func TestNilNotifier(t *testing.T) {
	var n *Notifier
	n.Info("x")
	n.Alert("y")
}
