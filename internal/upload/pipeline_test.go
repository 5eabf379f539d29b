package upload

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/adityanavgire01/walkie-talkie/internal/audio"
	"github.com/adityanavgire01/walkie-talkie/internal/backend"
	"github.com/adityanavgire01/walkie-talkie/internal/history"
	"github.com/adityanavgire01/walkie-talkie/internal/play"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(e string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

type fakeProcessor struct {
	log      *eventLog
	delay    time.Duration
	err      error
	filename string
	mimeType string
	body     []byte
}

func (f *fakeProcessor) Process(_ context.Context, filename, mimeType string, r io.Reader) (backend.ProcessResult, error) {
	f.log.add("process")
	f.filename, f.mimeType = filename, mimeType
	f.body, _ = io.ReadAll(r)
	time.Sleep(f.delay)
	if f.err != nil {
		return backend.ProcessResult{}, f.err
	}
	return backend.ProcessResult{Conversation: backend.Conversation{
		ID:             7,
		UserText:       "hello",
		AIText:         "hi",
		OutputAudioURL: "/audio/output_7.mp3",
	}}, nil
}

func (f *fakeProcessor) ResolveURL(p string) string {
	if p == "" {
		return ""
	}
	return "http://srv" + p
}

type fakeReloader struct {
	log *eventLog
	err error
}

func (f *fakeReloader) Reload(context.Context) (history.View, error) {
	// Make ordering problems visible.
	time.Sleep(5 * time.Millisecond)
	f.log.add("reload")
	return history.View{Placeholder: history.EmptyPlaceholder}, f.err
}

type fakePlayer struct {
	log *eventLog
	err error
}

func (f *fakePlayer) ForceStop() { f.log.add("force-stop") }

func (f *fakePlayer) Autoplay(_ context.Context, url string) (play.Session, error) {
	f.log.add("autoplay " + url)
	if f.err != nil {
		return play.Session{}, f.err
	}
	return play.Session{ID: "s1", SourceURL: url, Playing: true}, nil
}

type phaseLog struct {
	mu     sync.Mutex
	phases []Phase
}

func (p *phaseLog) report(ph Phase) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.phases = append(p.phases, ph)
}

func (p *phaseLog) list() []Phase {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Phase(nil), p.phases...)
}

func testArtifact(t *testing.T) audio.Artifact {
	t.Helper()
	a, err := audio.EncodeWAV([][]byte{make([]byte, 3200)}, audio.Format{SampleRate: 16000, Channels: 1}, t.TempDir())
	require.NoError(t, err)
	return a
}

func TestSubmitOrdersReloadTeardownAutoplay(t *testing.T) {
	log := &eventLog{}
	phases := &phaseLog{}
	proc := &fakeProcessor{log: log}
	p := New(proc, &fakeReloader{log: log}, &fakePlayer{log: log},
		WithHintDelay(time.Hour), WithReporter(phases.report))

	a := testArtifact(t)
	res, err := p.Submit(context.Background(), a)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"process",
		"reload",
		"force-stop",
		"autoplay http://srv/audio/output_7.mp3",
	}, log.list())
	assert.Equal(t, []Phase{PhaseTranscribing, PhaseIdle}, phases.list())
	assert.Equal(t, PhaseIdle, p.Phase())

	assert.Equal(t, 7, res.Conversation.ID)
	assert.Equal(t, "http://srv/audio/output_7.mp3", res.ReplyURL)
	require.NotNil(t, res.Playback)
	assert.Empty(t, res.Playback.Handle, "autoplay is not bound to a control")

	assert.Equal(t, audio.RecordingFilename, proc.filename)
	assert.Equal(t, audio.RecordingMimeType, proc.mimeType)
	assert.Equal(t, "RIFF", string(proc.body[:4]))

	_, statErr := os.Stat(a.Path)
	assert.True(t, os.IsNotExist(statErr), "recording should be removed after upload")
}

func TestSubmitProcessingHint(t *testing.T) {
	log := &eventLog{}
	phases := &phaseLog{}
	p := New(&fakeProcessor{log: log, delay: 100 * time.Millisecond}, nil, nil,
		WithHintDelay(10*time.Millisecond), WithReporter(phases.report))

	_, err := p.Submit(context.Background(), testArtifact(t))
	require.NoError(t, err)

	assert.Equal(t, []Phase{PhaseTranscribing, PhaseProcessing, PhaseIdle}, phases.list())
}

func TestSubmitFailureClearsPhaseAndSkipsPlayback(t *testing.T) {
	log := &eventLog{}
	phases := &phaseLog{}
	rej := &backend.RejectionError{Endpoint: "/process", StatusCode: 400, Message: "No speech detected"}
	p := New(&fakeProcessor{log: log, err: rej}, &fakeReloader{log: log}, &fakePlayer{log: log},
		WithHintDelay(time.Hour), WithReporter(phases.report))

	a := testArtifact(t)
	_, err := p.Submit(context.Background(), a)
	require.Error(t, err)

	assert.Equal(t, "No speech detected", backend.UserMessage(err))
	assert.Equal(t, []string{"process"}, log.list())
	assert.Equal(t, []Phase{PhaseTranscribing, PhaseIdle}, phases.list())

	_, statErr := os.Stat(a.Path)
	assert.True(t, os.IsNotExist(statErr), "recording should be removed after a failed upload")
}

func TestSubmitReloadFailureStillAutoplays(t *testing.T) {
	log := &eventLog{}
	p := New(&fakeProcessor{log: log}, &fakeReloader{log: log, err: errors.New("offline")}, &fakePlayer{log: log},
		WithHintDelay(time.Hour))

	res, err := p.Submit(context.Background(), testArtifact(t))
	require.NoError(t, err)
	assert.Error(t, res.ReloadErr)
	assert.Equal(t, []string{"process", "reload", "force-stop", "autoplay http://srv/audio/output_7.mp3"}, log.list())
}

func TestSubmitAutoplayFailureIsReported(t *testing.T) {
	log := &eventLog{}
	p := New(&fakeProcessor{log: log}, nil, &fakePlayer{log: log, err: errors.New("no player")},
		WithHintDelay(time.Hour))

	res, err := p.Submit(context.Background(), testArtifact(t))
	require.NoError(t, err)
	assert.Error(t, res.AutoplayErr)
	assert.Nil(t, res.Playback)
}

func TestSubmitFile(t *testing.T) {
	log := &eventLog{}
	proc := &fakeProcessor{log: log}
	p := New(proc, nil, nil, WithHintDelay(time.Hour))

	path := filepath.Join(t.TempDir(), "question.wav")
	require.NoError(t, os.WriteFile(path, []byte("RIFFxxxx"), 0644))

	_, err := p.SubmitFile(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "question.wav", proc.filename)
	assert.Equal(t, "audio/wav", proc.mimeType)
	_, statErr := os.Stat(path)
	assert.NoError(t, statErr, "user files are never removed")
}

func TestSubmitFileMissing(t *testing.T) {
	p := New(&fakeProcessor{log: &eventLog{}}, nil, nil)
	_, err := p.SubmitFile(context.Background(), filepath.Join(t.TempDir(), "nope.wav"))
	assert.Error(t, err)
}

func TestAudioMimeType(t *testing.T) {
	assert.Equal(t, "audio/mpeg", audioMimeType("/x/reply.MP3"))
	assert.Equal(t, "audio/webm", audioMimeType("clip.webm"))
	assert.Equal(t, "application/octet-stream", audioMimeType("noext"))
}

func TestPhaseLabel(t *testing.T) {
	assert.Equal(t, "Transcribing...", PhaseTranscribing.Label())
	assert.Equal(t, "Processing...", PhaseProcessing.Label())
	assert.Empty(t, PhaseIdle.Label())
}
