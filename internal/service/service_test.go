package service

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/adityanavgire01/walkie-talkie/internal/audio"
	"github.com/adityanavgire01/walkie-talkie/internal/config"
	"github.com/adityanavgire01/walkie-talkie/internal/play"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubMic struct{}

func (stubMic) Open(context.Context, audio.Format) (audio.Capture, error) {
	return stubCapture{}, nil
}

type stubCapture struct{}

func (stubCapture) Stop() ([][]byte, error) {
	return [][]byte{make([]byte, 3200)}, nil
}

type stubPlayer struct {
	mu   sync.Mutex
	urls []string
}

func (p *stubPlayer) Start(_ context.Context, url string) (play.Playback, error) {
	p.mu.Lock()
	p.urls = append(p.urls, url)
	p.mu.Unlock()
	return &stubPlayback{done: make(chan struct{})}, nil
}

type stubPlayback struct {
	done chan struct{}
	once sync.Once
}

func (pb *stubPlayback) Pause() error  { return nil }
func (pb *stubPlayback) Resume() error { return nil }
func (pb *stubPlayback) Stop() error {
	pb.once.Do(func() { close(pb.done) })
	return nil
}
func (pb *stubPlayback) Done() <-chan struct{} { return pb.done }

func newTestService(t *testing.T, handler http.Handler) (*Service, *stubPlayer) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.Server.URL = srv.URL
	cfg.Store.Path = filepath.Join(t.TempDir(), "state.sqlite")
	cfg.UI.Notifications = false

	player := &stubPlayer{}
	s, err := New(cfg, WithMicrophone(stubMic{}), WithPlayer(player))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, player
}

func TestRecordSubmitAutoplay(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/process", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id": 1, "user_text": "hi", "ai_text": "hello", "input_audio_url": "/audio/input_1.wav", "output_audio_url": "/audio/output_1.mp3"}`)
	})
	mux.HandleFunc("/api/conversations", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"id": 1, "user_text": "hi", "ai_text": "hello", "input_audio_url": "/audio/input_1.wav", "output_audio_url": "/audio/output_1.mp3"}]`)
	})
	mux.HandleFunc("/api/stats", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"count": 1, "limit": 5}`)
	})
	s, player := newTestService(t, mux)
	ctx := context.Background()

	res, err := s.ToggleRecording(ctx)
	require.NoError(t, err)
	require.True(t, res.Started)

	res, err = s.ToggleRecording(ctx)
	require.NoError(t, err)
	require.False(t, res.Started)

	up, err := s.Submit(ctx, res.Artifact)
	require.NoError(t, err)
	assert.Len(t, up.View.Entries, 1)
	assert.Equal(t, "1 / 5", up.View.StatsLine())

	srvURL := s.Config().Server.URL
	assert.Equal(t, []string{srvURL + "/audio/output_1.mp3"}, player.urls)
	assert.Empty(t, s.GetLastError())

	// The cached copy survives without the network.
	assert.Len(t, s.History.Cached().Entries, 1)
}

func TestSubmitFailureRecordsLastError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/process", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error": "No speech detected"}`)
	})
	s, player := newTestService(t, mux)
	ctx := context.Background()

	_, err := s.ToggleRecording(ctx)
	require.NoError(t, err)
	res, err := s.ToggleRecording(ctx)
	require.NoError(t, err)

	_, err = s.Submit(ctx, res.Artifact)
	require.Error(t, err)
	assert.Equal(t, "No speech detected", s.GetLastError())
	assert.Empty(t, player.urls)
}

func TestRecordingStopsPlayback(t *testing.T) {
	s, _ := newTestService(t, http.NotFoundHandler())
	ctx := context.Background()

	_, err := s.Playback.Autoplay(ctx, "http://x/a.mp3")
	require.NoError(t, err)
	_, ok := s.Playback.Current()
	require.True(t, ok)

	_, err = s.ToggleRecording(ctx)
	require.NoError(t, err)
	_, ok = s.Playback.Current()
	assert.False(t, ok)
}

func TestTheme(t *testing.T) {
	s, _ := newTestService(t, http.NotFoundHandler())

	assert.Equal(t, "dark", s.Theme())
	require.NoError(t, s.SetTheme("light"))
	assert.Equal(t, "light", s.Theme())
	assert.Error(t, s.SetTheme("neon"))
}

func TestSettingsChangeStopsPlaybackBeforeRefresh(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/memory-size", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status": "ok"}`)
	})
	mux.HandleFunc("/api/conversations", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	})
	mux.HandleFunc("/api/stats", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"count": 0, "limit": 10}`)
	})
	s, _ := newTestService(t, mux)
	ctx := context.Background()

	_, err := s.Playback.Autoplay(ctx, "http://x/a.mp3")
	require.NoError(t, err)

	_, err = s.Settings.SelectPreset(ctx, 10)
	require.NoError(t, err)

	_, ok := s.Playback.Current()
	assert.False(t, ok)
	assert.Equal(t, "0 / 10", s.History.Last().StatsLine())
}
