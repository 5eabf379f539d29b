package history

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/adityanavgire01/walkie-talkie/internal/backend"
)

// Source is the backend surface the history needs.
type Source interface {
	Conversations(ctx context.Context) ([]backend.Conversation, error)
	Stats(ctx context.Context) (backend.Stats, error)
	Clear(ctx context.Context) (backend.Ack, error)
	ResolveURL(path string) string
}

// Cache keeps the last fetched list between runs.
type Cache interface {
	ReplaceConversations(records []backend.Conversation) error
	Conversations() ([]backend.Conversation, error)
}

// Reloader fetches the conversation list and renders it.
type Reloader struct {
	source Source
	cache  Cache

	mu   sync.Mutex
	last View
}

// NewReloader creates a reloader. cache may be nil.
func NewReloader(source Source, cache Cache) *Reloader {
	return &Reloader{source: source, cache: cache, last: View{Placeholder: EmptyPlaceholder}}
}

// Reload fetches conversations and stats and returns the fresh view.
// A stats failure is logged and leaves Stats nil.
func (r *Reloader) Reload(ctx context.Context) (View, error) {
	records, err := r.source.Conversations(ctx)
	if err != nil {
		return View{}, fmt.Errorf("load conversations: %w", err)
	}

	view := Render(records, r.source.ResolveURL)

	stats, err := r.source.Stats(ctx)
	if err != nil {
		slog.Warn("Failed to load stats", "error", err)
	} else {
		view.Stats = &stats
	}

	if r.cache != nil {
		if err := r.cache.ReplaceConversations(records); err != nil {
			slog.Warn("Failed to cache conversations", "error", err)
		}
	}

	r.mu.Lock()
	r.last = view
	r.mu.Unlock()

	slog.Debug("History reloaded", "records", len(records))
	return view, nil
}

// Cached renders the locally stored list without touching the network.
func (r *Reloader) Cached() View {
	if r.cache == nil {
		return r.Last()
	}
	records, err := r.cache.Conversations()
	if err != nil {
		slog.Warn("Failed to read cached conversations", "error", err)
		return r.Last()
	}
	return Render(records, r.source.ResolveURL)
}

// Last returns the view produced by the most recent successful Reload.
func (r *Reloader) Last() View {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

// Clear deletes all conversations on the backend and reloads.
func (r *Reloader) Clear(ctx context.Context) (View, error) {
	ack, err := r.source.Clear(ctx)
	if err != nil {
		return View{}, fmt.Errorf("clear history: %w", err)
	}
	slog.Info("History cleared", "status", ack.Status)
	return r.Reload(ctx)
}
