package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// PlaybackStopper is the part of the playback manager a new recording needs.
type PlaybackStopper interface {
	ForceStop()
}

// Session is a snapshot of the recording session.
type Session struct {
	ID             string
	Status         Status
	ElapsedSeconds int
	StartTime      time.Time
}

// Remaining is the countdown shown to the user.
func (s Session) Remaining() int {
	if r := MaxDurationSeconds - s.ElapsedSeconds; r > 0 {
		return r
	}
	return 0
}

// Progress is elapsed/MaxDuration in [0, 1].
func (s Session) Progress() float64 {
	p := float64(s.ElapsedSeconds) / MaxDurationSeconds
	if p > 1 {
		return 1
	}
	return p
}

// TickResult reports the effect of one timer tick.
type TickResult struct {
	Session Session
	// Stale is set when the tick belongs to a session that is no longer
	// capturing; nothing was changed.
	Stale bool
	// CapReached is set on the tick that hits MaxDuration. The caller must
	// stop the capture.
	CapReached bool
}

// ToggleResult is the outcome of Toggle: either a capture started or an
// artifact was produced.
type ToggleResult struct {
	Started  bool
	Session  Session
	Artifact Artifact
}

// Controller owns the single recording session.
type Controller struct {
	mu       sync.Mutex
	mic      Microphone
	playback PlaybackStopper
	format   Format
	tempDir  string

	session *Session
	capture Capture
}

// NewController creates an idle controller. playback may be nil.
func NewController(mic Microphone, playback PlaybackStopper, format Format) *Controller {
	return &Controller{
		mic:      mic,
		playback: playback,
		format:   format,
	}
}

// SetTempDir changes where artifacts are written.
func (c *Controller) SetTempDir(dir string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tempDir = dir
}

// Status returns the current controller status.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return StatusIdle
	}
	return c.session.Status
}

// Session returns the active session, if any.
func (c *Controller) Session() (Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return Session{}, false
	}
	return *c.session, true
}

// Countdown returns the remaining seconds and progress of the active
// session, or (MaxDurationSeconds, 0) when idle.
func (c *Controller) Countdown() (remaining int, progress float64) {
	s, ok := c.Session()
	if !ok {
		return MaxDurationSeconds, 0
	}
	return s.Remaining(), s.Progress()
}

// Toggle starts a capture when idle and stops it when capturing.
func (c *Controller) Toggle(ctx context.Context) (ToggleResult, error) {
	switch c.Status() {
	case StatusIdle:
		s, err := c.BeginCapture(ctx)
		if err != nil {
			return ToggleResult{}, err
		}
		return ToggleResult{Started: true, Session: s}, nil
	case StatusCapturing:
		a, err := c.StopCapture(ctx)
		if err != nil {
			return ToggleResult{}, err
		}
		return ToggleResult{Artifact: a}, nil
	default:
		return ToggleResult{}, ErrBusy
	}
}

// BeginCapture force-stops playback, then acquires the microphone and
// starts a new session. On failure the controller stays idle.
func (c *Controller) BeginCapture(ctx context.Context) (Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil {
		if c.session.Status == StatusStopping {
			return Session{}, ErrBusy
		}
		return Session{}, ErrAlreadyCapturing
	}

	if c.playback != nil {
		c.playback.ForceStop()
	}

	capture, err := c.mic.Open(ctx, c.format)
	if err != nil {
		var devErr *DeviceAccessError
		if !errors.As(err, &devErr) && !errors.Is(err, context.Canceled) {
			err = &DeviceAccessError{Backend: "microphone", Err: err}
		}
		slog.Warn("Failed to acquire microphone", "error", err)
		return Session{}, err
	}

	c.capture = capture
	c.session = &Session{
		ID:        uuid.New().String(),
		Status:    StatusCapturing,
		StartTime: time.Now(),
	}

	slog.Info("Recording started", "session", c.session.ID)
	return *c.session, nil
}

// Tick advances the elapsed counter of sessionID by one second. Ticks for
// any other session, or after capture stopped, are stale and ignored.
func (c *Controller) Tick(sessionID string) TickResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil || c.session.ID != sessionID || c.session.Status != StatusCapturing {
		return TickResult{Stale: true}
	}

	if c.session.ElapsedSeconds < MaxDurationSeconds {
		c.session.ElapsedSeconds++
	}
	return TickResult{
		Session:    *c.session,
		CapReached: c.session.ElapsedSeconds >= MaxDurationSeconds,
	}
}

// StopCapture halts the device and packages the audio into a WAV artifact.
// The controller is idle again when it returns, whatever the outcome.
func (c *Controller) StopCapture(ctx context.Context) (Artifact, error) {
	c.mu.Lock()
	if c.session == nil {
		c.mu.Unlock()
		return Artifact{}, ErrNotCapturing
	}
	if c.session.Status == StatusStopping {
		c.mu.Unlock()
		return Artifact{}, ErrBusy
	}
	c.session.Status = StatusStopping
	session := *c.session
	capture := c.capture
	dir := c.tempDir
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.session = nil
		c.capture = nil
		c.mu.Unlock()
	}()

	chunks, err := capture.Stop()
	if err != nil {
		slog.Warn("Capture stopped with error", "session", session.ID, "error", err)
		if len(chunks) == 0 {
			return Artifact{}, fmt.Errorf("stop capture: %w", err)
		}
	}

	if err := ctx.Err(); err != nil {
		return Artifact{}, err
	}

	artifact, err := EncodeWAV(chunks, c.format, dir)
	if err != nil {
		return Artifact{}, err
	}

	slog.Info("Recording stopped",
		"session", session.ID,
		"elapsed", session.ElapsedSeconds,
		"duration", artifact.Duration,
		"bytes", artifact.Size,
	)
	return artifact, nil
}
