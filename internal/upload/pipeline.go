// Package upload sends finished recordings to the backend and plays the
// reply once the history has caught up.
package upload

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/adityanavgire01/walkie-talkie/internal/audio"
	"github.com/adityanavgire01/walkie-talkie/internal/backend"
	"github.com/adityanavgire01/walkie-talkie/internal/history"
	"github.com/adityanavgire01/walkie-talkie/internal/play"
)

// Phase is the progress hint shown while an upload is in flight. It is not
// tied to what the backend is actually doing.
type Phase string

const (
	PhaseIdle         Phase = ""
	PhaseTranscribing Phase = "transcribing"
	PhaseProcessing   Phase = "processing"
)

// Label is the user-facing text of p.
func (p Phase) Label() string {
	switch p {
	case PhaseTranscribing:
		return "Transcribing..."
	case PhaseProcessing:
		return "Processing..."
	}
	return ""
}

// DefaultHintDelay is when "transcribing" turns into "processing".
const DefaultHintDelay = 2 * time.Second

// Processor sends audio to the backend.
type Processor interface {
	Process(ctx context.Context, filename, mimeType string, audio io.Reader) (backend.ProcessResult, error)
	ResolveURL(path string) string
}

// Reloader refreshes the conversation history.
type Reloader interface {
	Reload(ctx context.Context) (history.View, error)
}

// Player is the playback surface the pipeline drives.
type Player interface {
	ForceStop()
	Autoplay(ctx context.Context, sourceURL string) (play.Session, error)
}

// Result describes a successful upload. Reload and autoplay failures do
// not fail the upload; they are reported here.
type Result struct {
	Conversation backend.Conversation
	ReplyURL     string
	View         history.View
	ReloadErr    error
	Playback     *play.Session
	AutoplayErr  error
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithHintDelay overrides DefaultHintDelay.
func WithHintDelay(d time.Duration) Option {
	return func(p *Pipeline) { p.hintDelay = d }
}

// WithReporter receives every phase change. It may be called from a timer
// goroutine.
func WithReporter(fn func(Phase)) Option {
	return func(p *Pipeline) { p.report = fn }
}

// Pipeline uploads recordings.
type Pipeline struct {
	proc      Processor
	reloader  Reloader
	player    Player
	hintDelay time.Duration
	report    func(Phase)

	reportMu sync.Mutex
	mu       sync.Mutex
	inFlight int
	phase    Phase
}

// New creates a pipeline. player may be nil to skip autoplay.
func New(proc Processor, reloader Reloader, player Player, opts ...Option) *Pipeline {
	p := &Pipeline{
		proc:      proc,
		reloader:  reloader,
		player:    player,
		hintDelay: DefaultHintDelay,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Phase returns the current hint.
func (p *Pipeline) Phase() Phase {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.phase
}

// Submit uploads a recorded artifact and removes its file afterwards.
func (p *Pipeline) Submit(ctx context.Context, a audio.Artifact) (Result, error) {
	defer func() {
		if err := a.Remove(); err != nil {
			slog.Warn("Failed to remove recording", "error", err)
		}
	}()

	f, err := os.Open(a.Path)
	if err != nil {
		return Result{}, fmt.Errorf("open recording: %w", err)
	}
	defer f.Close()

	filename := a.Filename
	if filename == "" {
		filename = audio.RecordingFilename
	}
	mimeType := a.MimeType
	if mimeType == "" {
		mimeType = audio.RecordingMimeType
	}

	slog.Info("Uploading recording", "bytes", a.Size, "duration", a.Duration)
	return p.send(ctx, filename, mimeType, f)
}

// SubmitFile uploads an existing audio file. The file is left in place.
func (p *Pipeline) SubmitFile(ctx context.Context, path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("open audio file: %w", err)
	}
	defer f.Close()

	mimeType := audioMimeType(path)

	slog.Info("Uploading file", "path", path, "mime", mimeType)
	return p.send(ctx, filepath.Base(path), mimeType, f)
}

var audioTypes = map[string]string{
	".wav":  "audio/wav",
	".mp3":  "audio/mpeg",
	".ogg":  "audio/ogg",
	".webm": "audio/webm",
	".m4a":  "audio/mp4",
	".flac": "audio/flac",
}

func audioMimeType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if t, ok := audioTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "application/octet-stream"
}

func (p *Pipeline) send(ctx context.Context, filename, mimeType string, body io.Reader) (Result, error) {
	stopHint := p.begin()
	defer p.finish(stopHint)

	res, err := p.proc.Process(ctx, filename, mimeType, body)
	if err != nil {
		slog.Warn("Upload failed", "error", err)
		return Result{}, fmt.Errorf("process recording: %w", err)
	}

	result := Result{
		Conversation: res.Conversation,
		ReplyURL:     p.proc.ResolveURL(res.OutputAudioURL),
	}

	// The reply only plays once the history shows it.
	if p.reloader != nil {
		view, err := p.reloader.Reload(ctx)
		if err != nil {
			slog.Warn("History reload after upload failed", "error", err)
			result.ReloadErr = err
		}
		result.View = view
	}

	if p.player != nil {
		p.player.ForceStop()
		if result.ReplyURL == "" {
			slog.Warn("Backend returned no reply audio")
		} else if sess, err := p.player.Autoplay(ctx, result.ReplyURL); err != nil {
			slog.Warn("Autoplay failed", "url", result.ReplyURL, "error", err)
			result.AutoplayErr = err
		} else {
			result.Playback = &sess
		}
	}

	slog.Info("Upload complete", "conversation", res.ID)
	return result, nil
}

// begin reports "transcribing" and schedules the "processing" hint.
func (p *Pipeline) begin() (stop func()) {
	p.mu.Lock()
	p.inFlight++
	p.mu.Unlock()
	p.transition(PhaseTranscribing, nil)

	var once sync.Once
	done := make(chan struct{})
	timer := time.AfterFunc(p.hintDelay, func() {
		p.transition(PhaseProcessing, func() bool {
			select {
			case <-done:
				return false
			default:
			}
			return p.phase == PhaseTranscribing
		})
	})
	return func() {
		once.Do(func() {
			close(done)
			timer.Stop()
		})
	}
}

// finish always runs; the hint clears once nothing is in flight.
func (p *Pipeline) finish(stopHint func()) {
	stopHint()

	p.mu.Lock()
	p.inFlight--
	idle := p.inFlight == 0
	p.mu.Unlock()

	if idle {
		p.transition(PhaseIdle, nil)
	}
}

// transition sets the phase when cond (evaluated under the lock) allows it
// and reports it. Reports arrive in the order the phase changed.
func (p *Pipeline) transition(phase Phase, cond func() bool) {
	p.reportMu.Lock()
	defer p.reportMu.Unlock()

	p.mu.Lock()
	if cond != nil && !cond() {
		p.mu.Unlock()
		return
	}
	p.phase = phase
	p.mu.Unlock()

	if p.report != nil {
		p.report(phase)
	}
}
