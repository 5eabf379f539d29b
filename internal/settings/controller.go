package settings

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/adityanavgire01/walkie-talkie/internal/backend"
	"github.com/adityanavgire01/walkie-talkie/internal/history"
	"github.com/adityanavgire01/walkie-talkie/internal/store"
)

// DefaultResetMessage is used when the backend acknowledges a key reset
// without a message of its own.
const DefaultResetMessage = "Custom API key removed. Memory size reset to 5."

// Backend is the part of the backend client settings need.
type Backend interface {
	Settings(ctx context.Context) (backend.Settings, error)
	UpdateSettings(ctx context.Context, useContext bool) error
	SetMemorySize(ctx context.Context, req backend.MemorySizeRequest) error
	ValidateKey(ctx context.Context, apiKey string) (backend.KeyValidation, error)
	ResetCustomKey(ctx context.Context) (backend.Ack, error)
}

// Mirror persists the last confirmed state.
type Mirror interface {
	SaveSettings(snap store.SettingsSnapshot) error
	Settings() (*store.SettingsSnapshot, error)
}

// Refresher reloads the conversation history after a confirmed change.
type Refresher interface {
	Reload(ctx context.Context) (history.View, error)
}

// Controller holds the confirmed settings plus at most one optimistic
// pending change.
type Controller struct {
	backend   Backend
	mirror    Mirror
	refresher Refresher

	mu          sync.Mutex
	confirmed   State
	pending     *State
	apiKey      string
	surfaceOpen bool
}

// NewController starts from Preset(DefaultSize). mirror and refresher may
// be nil.
func NewController(b Backend, mirror Mirror, refresher Refresher) *Controller {
	return &Controller{
		backend:   b,
		mirror:    mirror,
		refresher: refresher,
		confirmed: Preset(DefaultSize),
	}
}

// State returns the state to display: the pending change if one is in
// flight, otherwise the confirmed state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending != nil {
		return withMemory(c.confirmed, *c.pending)
	}
	return c.confirmed
}

// Confirmed returns the last backend-confirmed state.
func (c *Controller) Confirmed() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.confirmed
}

// Pending reports whether a change awaits confirmation.
func (c *Controller) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending != nil
}

// LoadCached restores the persisted mirror without a network call.
func (c *Controller) LoadCached() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mirror == nil {
		return c.confirmed
	}
	snap, err := c.mirror.Settings()
	if err != nil {
		slog.Warn("Failed to read cached settings", "error", err)
		return c.confirmed
	}
	if snap != nil {
		c.confirmed = fromSnapshot(*snap)
	}
	return c.confirmed
}

// Load reconciles the mirror with the backend.
func (c *Controller) Load(ctx context.Context) (State, error) {
	s, err := c.backend.Settings(ctx)
	if err != nil {
		return c.State(), fmt.Errorf("load settings: %w", err)
	}

	state := State{
		Size:          s.MemorySize,
		Mode:          ModePreset,
		APIKeyPresent: s.IsCustom,
		UseContext:    s.UseContext,
	}
	if s.IsCustom {
		state.Mode = ModeCustom
	}

	c.mu.Lock()
	c.confirmed = state
	c.pending = nil
	c.mu.Unlock()

	c.persist(state)
	return state, nil
}

// SelectPreset switches to Preset(size). On failure the confirmed state is
// kept and the error returned.
func (c *Controller) SelectPreset(ctx context.Context, size int) (State, error) {
	if !IsPreset(size) {
		return c.State(), &ValidationError{Field: "size", Message: fmt.Sprintf("Memory size must be one of %s.", presetList())}
	}

	c.mu.Lock()
	next := Preset(size)
	c.pending = &next
	c.mu.Unlock()

	err := c.backend.SetMemorySize(ctx, backend.MemorySizeRequest{Size: size})

	c.mu.Lock()
	if c.pending == nil || *c.pending != next {
		// superseded by a later change
		c.mu.Unlock()
		if err != nil {
			return c.State(), fmt.Errorf("set memory size: %w", err)
		}
		return c.State(), nil
	}
	c.pending = nil
	if err != nil {
		c.mu.Unlock()
		slog.Warn("Preset change rejected", "size", size, "error", err)
		return c.Confirmed(), fmt.Errorf("set memory size: %w", err)
	}
	c.confirmed = withMemory(c.confirmed, next)
	committed := c.confirmed
	c.apiKey = ""
	c.mu.Unlock()

	c.persist(committed)
	c.refresh(ctx)
	slog.Info("Memory size updated", "size", size)
	return committed, nil
}

// OpenCustom opens the custom entry surface. The mode is unchanged.
func (c *Controller) OpenCustom() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.surfaceOpen = true
}

// CloseCustom closes the custom entry surface.
func (c *Controller) CloseCustom() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.surfaceOpen = false
}

// SurfaceOpen reports whether the custom entry surface is open.
func (c *Controller) SurfaceOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.surfaceOpen
}

// ValidateCustom checks the custom entry locally and returns the size.
func ValidateCustom(sizeText, key string) (int, error) {
	size, err := strconv.Atoi(strings.TrimSpace(sizeText))
	if err != nil || size < MinCustomSize || size > MaxCustomSize {
		return 0, &ValidationError{
			Field:   "size",
			Message: fmt.Sprintf("Please enter a size between %d and %d.", MinCustomSize, MaxCustomSize),
		}
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return 0, &ValidationError{Field: "api_key", Message: "Please enter an API key."}
	}
	if !strings.HasPrefix(key, KeyPrefix) {
		return 0, &ValidationError{Field: "api_key", Message: fmt.Sprintf("API key must start with %q.", KeyPrefix)}
	}
	return size, nil
}

// SubmitCustom validates locally, then asks the backend to validate the key.
// Only a valid key moves the state to Custom(size).
func (c *Controller) SubmitCustom(ctx context.Context, sizeText, key string) (State, error) {
	size, err := ValidateCustom(sizeText, key)
	if err != nil {
		return c.State(), err
	}
	key = strings.TrimSpace(key)

	v, err := c.backend.ValidateKey(ctx, key)
	if err != nil {
		return c.State(), fmt.Errorf("validate key: %w", err)
	}
	if !v.Valid {
		msg := v.Error
		if msg == "" {
			msg = "Invalid API key"
		}
		slog.Info("API key rejected by backend")
		return c.State(), &backend.RejectionError{Endpoint: "/validate-key", StatusCode: 200, Message: msg}
	}

	c.mu.Lock()
	prev := c.confirmed
	c.confirmed = withMemory(c.confirmed, Custom(size))
	c.pending = nil
	c.apiKey = key
	c.mu.Unlock()

	if err := c.backend.SetMemorySize(ctx, backend.MemorySizeRequest{Size: size, IsCustom: true, APIKey: key}); err != nil {
		// The backend kept the old size, so the mirror goes back to it.
		c.mu.Lock()
		c.confirmed = withMemory(c.confirmed, prev)
		c.apiKey = ""
		reverted := c.confirmed
		c.mu.Unlock()
		return reverted, fmt.Errorf("set custom memory size: %w", err)
	}

	committed := c.Confirmed()
	c.persist(committed)
	c.refresh(ctx)
	slog.Info("Custom memory size enabled", "size", size)
	return committed, nil
}

// ResetKey returns to Preset(DefaultSize) unconditionally, forgets the key
// and tells the backend to discard its copy. The returned message is the
// confirmation to show before the entry surface closes.
func (c *Controller) ResetKey(ctx context.Context) (State, string, error) {
	c.mu.Lock()
	c.confirmed = withMemory(c.confirmed, Preset(DefaultSize))
	next := c.confirmed
	c.pending = nil
	c.apiKey = ""
	c.mu.Unlock()

	c.persist(next)

	ack, err := c.backend.ResetCustomKey(ctx)
	if err != nil {
		return next, "", fmt.Errorf("reset custom key: %w", err)
	}

	msg := ack.Message
	if msg == "" {
		msg = DefaultResetMessage
	}
	c.refresh(ctx)
	return next, msg, nil
}

// SetUseContext reports the use-context flag. A failed report restores the
// previous value.
func (c *Controller) SetUseContext(ctx context.Context, on bool) (State, error) {
	c.mu.Lock()
	prev := c.confirmed.UseContext
	c.confirmed.UseContext = on
	c.mu.Unlock()

	if err := c.backend.UpdateSettings(ctx, on); err != nil {
		c.mu.Lock()
		c.confirmed.UseContext = prev
		c.mu.Unlock()
		return c.State(), fmt.Errorf("update use context: %w", err)
	}

	s := c.Confirmed()
	c.persist(s)
	return s, nil
}

// ResetDelay is how long the reset confirmation stays visible.
const ResetDelay = 3 * time.Second

func (c *Controller) persist(s State) {
	if c.mirror == nil {
		return
	}
	snap := store.SettingsSnapshot{
		Size:       s.Size,
		Custom:     s.IsCustom(),
		UseContext: s.UseContext,
		UpdatedAt:  time.Now(),
	}
	if err := c.mirror.SaveSettings(snap); err != nil {
		slog.Warn("Failed to persist settings", "error", err)
	}
}

func (c *Controller) refresh(ctx context.Context) {
	if c.refresher == nil {
		return
	}
	if _, err := c.refresher.Reload(ctx); err != nil {
		slog.Warn("History refresh after settings change failed", "error", err)
	}
}

// withMemory returns base with the memory-size fields of m. The use-context
// flag is confirmed separately and always comes from base.
func withMemory(base, m State) State {
	base.Size = m.Size
	base.Mode = m.Mode
	base.APIKeyPresent = m.APIKeyPresent
	return base
}

func fromSnapshot(snap store.SettingsSnapshot) State {
	s := State{Size: snap.Size, Mode: ModePreset, UseContext: snap.UseContext}
	if snap.Custom {
		s.Mode = ModeCustom
		s.APIKeyPresent = true
	}
	if s.Size == 0 {
		s.Size = DefaultSize
	}
	return s
}

func presetList() string {
	parts := make([]string, len(Presets))
	for i, p := range Presets {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ", ")
}
