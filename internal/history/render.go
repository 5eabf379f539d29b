// Package history turns the backend's conversation list into what the user
// sees, and keeps the local copy of that list fresh.
package history

import (
	"fmt"
	"html"
	"strings"

	"github.com/adityanavgire01/walkie-talkie/internal/backend"
	"github.com/adityanavgire01/walkie-talkie/internal/play"
)

// EmptyPlaceholder is shown when there are no conversations.
const EmptyPlaceholder = "No conversations yet. Press space to start talking."

// Role tells the two halves of an exchange apart.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Block is one rendered message with its own playback control.
type Block struct {
	Role     Role
	Text     string
	Handle   play.Handle
	AudioURL string
}

// Entry is one exchange: the user's message and the assistant's reply.
type Entry struct {
	ID        int
	User      Block
	Assistant Block
}

// View is the display list, newest first.
type View struct {
	Entries []Entry
	// Placeholder is set instead of Entries when there is nothing to show.
	Placeholder string
	Stats       *backend.Stats
}

// Empty reports whether the view has no entries.
func (v View) Empty() bool {
	return len(v.Entries) == 0
}

// Blocks flattens the view in display order.
func (v View) Blocks() []Block {
	blocks := make([]Block, 0, 2*len(v.Entries))
	for _, e := range v.Entries {
		blocks = append(blocks, e.User, e.Assistant)
	}
	return blocks
}

// StatsLine is "count / limit" or empty when stats are unknown.
func (v View) StatsLine() string {
	if v.Stats == nil {
		return ""
	}
	return fmt.Sprintf("%d / %d", v.Stats.Count, v.Stats.Limit)
}

// InputHandle is the playback control of a record's user audio.
func InputHandle(id int) play.Handle {
	return play.Handle(fmt.Sprintf("%d/input", id))
}

// OutputHandle is the playback control of a record's reply audio.
func OutputHandle(id int) play.Handle {
	return play.Handle(fmt.Sprintf("%d/output", id))
}

// Render converts records, oldest first as received, into a newest-first
// view. resolve turns backend audio paths into playable URLs; nil keeps
// them unchanged.
func Render(records []backend.Conversation, resolve func(string) string) View {
	if len(records) == 0 {
		return View{Placeholder: EmptyPlaceholder}
	}
	if resolve == nil {
		resolve = func(s string) string { return s }
	}

	entries := make([]Entry, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		r := records[i]
		entries = append(entries, Entry{
			ID: r.ID,
			User: Block{
				Role:     RoleUser,
				Text:     Sanitize(r.UserText),
				Handle:   InputHandle(r.ID),
				AudioURL: resolve(r.InputAudioURL),
			},
			Assistant: Block{
				Role:     RoleAssistant,
				Text:     Sanitize(r.AIText),
				Handle:   OutputHandle(r.ID),
				AudioURL: resolve(r.OutputAudioURL),
			},
		})
	}
	return View{Entries: entries}
}

// Sanitize neutralizes markup and terminal control sequences so message
// text is always shown literally.
func Sanitize(s string) string {
	s = html.EscapeString(s)
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\t':
			return r
		case r < 0x20 || r == 0x7f || (r >= 0x80 && r < 0xa0):
			return -1
		}
		return r
	}, s)
}
