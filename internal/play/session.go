// Package play owns audio playback: the host player and the session
// manager that keeps at most one playback alive.
package play

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Handle identifies the UI control that owns a playback. The zero value
// means no control is bound (autoplay).
type Handle string

// IndicatorFunc observes "playing" indicator changes for a handle. It is
// called with the manager lock held and must not call back into Manager.
type IndicatorFunc func(h Handle, playing bool)

// Session describes the active playback.
type Session struct {
	ID        string
	SourceURL string
	Handle    Handle
	Playing   bool
	StartedAt time.Time
	// Done is closed when the underlying playback ends.
	Done <-chan struct{}
}

type activeSession struct {
	Session
	playback Playback
}

// Manager enforces the single-playback invariant.
type Manager struct {
	mu        sync.Mutex
	player    Player
	current   *activeSession
	indicator IndicatorFunc
}

func NewManager(player Player) *Manager {
	return &Manager{player: player}
}

// SetIndicator installs the indicator observer.
func (m *Manager) SetIndicator(fn IndicatorFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.indicator = fn
}

// Toggle flips pause/resume when h already owns the current session for
// the same sourceURL. Otherwise it tears the current session down and starts
// sourceURL bound to h. Handles are reused when the backend renumbers
// conversations, so a handle alone does not identify the audio. started reports whether a new session was created.
func (m *Manager) Toggle(ctx context.Context, sourceURL string, h Handle) (sess Session, started bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cur := m.current; cur != nil && h != "" && cur.Handle == h && cur.SourceURL == sourceURL {
		if cur.Playing {
			if err := cur.playback.Pause(); err != nil {
				return cur.Session, false, fmt.Errorf("pause: %w", err)
			}
			cur.Playing = false
		} else {
			if err := cur.playback.Resume(); err != nil {
				return cur.Session, false, fmt.Errorf("resume: %w", err)
			}
			cur.Playing = true
		}
		m.notify(h, cur.Playing)
		return cur.Session, false, nil
	}

	sess, err = m.startLocked(ctx, sourceURL, h)
	if err != nil {
		return Session{}, false, err
	}
	return sess, true, nil
}

// Autoplay starts sourceURL with no controlling handle, replacing any
// current session.
func (m *Manager) Autoplay(ctx context.Context, sourceURL string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.startLocked(ctx, sourceURL, "")
}

// Ended handles natural completion of session id. Stale ids are ignored.
func (m *Manager) Ended(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil || m.current.ID != id {
		return false
	}
	slog.Debug("Playback finished", "session", id, "url", m.current.SourceURL)
	m.teardownLocked()
	return true
}

// ForceStop tears down any active session.
func (m *Manager) ForceStop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.teardownLocked()
}

// Playing reports the indicator state of h.
func (m *Manager) Playing(h Handle) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current != nil && h != "" && m.current.Handle == h && m.current.Playing
}

// Current returns the active session, if any.
func (m *Manager) Current() (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return Session{}, false
	}
	return m.current.Session, true
}

func (m *Manager) startLocked(ctx context.Context, sourceURL string, h Handle) (Session, error) {
	m.teardownLocked()

	if sourceURL == "" {
		return Session{}, fmt.Errorf("no audio url to play")
	}

	pb, err := m.player.Start(ctx, sourceURL)
	if err != nil {
		return Session{}, err
	}

	m.current = &activeSession{
		Session: Session{
			ID:        uuid.New().String(),
			SourceURL: sourceURL,
			Handle:    h,
			Playing:   true,
			StartedAt: time.Now(),
			Done:      pb.Done(),
		},
		playback: pb,
	}
	m.notify(h, true)

	slog.Debug("Playback session started", "session", m.current.ID, "handle", h, "url", sourceURL)
	return m.current.Session, nil
}

func (m *Manager) teardownLocked() {
	cur := m.current
	if cur == nil {
		return
	}
	m.current = nil

	if err := cur.playback.Stop(); err != nil {
		slog.Warn("Failed to stop playback", "session", cur.ID, "error", err)
	}
	m.notify(cur.Handle, false)
}

func (m *Manager) notify(h Handle, playing bool) {
	if h == "" || m.indicator == nil {
		return
	}
	m.indicator(h, playing)
}
