package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, "/api")
}

func TestSettings(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/settings", r.URL.Path)
		fmt.Fprint(w, `{"use_context": true, "memory_size": 10, "is_custom": false}`)
	})

	s, err := c.Settings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Settings{UseContext: true, MemorySize: 10}, s)
}

func TestUpdateSettingsSendsFlag(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/settings", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		fmt.Fprint(w, `{"status": "ok", "use_context": false}`)
	})

	require.NoError(t, c.UpdateSettings(context.Background(), false))
	assert.Equal(t, map[string]any{"use_context": false}, got)
}

func TestConversationsOrderPreserved(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[
			{"id": 1, "user_text": "first", "ai_text": "a", "input_audio_url": "/audio/input_1.wav", "output_audio_url": "/audio/output_1.mp3"},
			{"id": 2, "user_text": "second", "ai_text": "b", "input_audio_url": "/audio/input_2.wav", "output_audio_url": "/audio/output_2.mp3"}
		]`)
	})

	records, err := c.Conversations(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "first", records[0].UserText)
	assert.Equal(t, "/audio/output_2.mp3", records[1].OutputAudioURL)
}

func TestSetMemorySizeOmitsEmptyKey(t *testing.T) {
	var raw map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		fmt.Fprint(w, `{"status": "ok"}`)
	})

	require.NoError(t, c.SetMemorySize(context.Background(), MemorySizeRequest{Size: 20}))
	assert.Equal(t, float64(20), raw["size"])
	assert.Equal(t, false, raw["is_custom"])
	_, hasKey := raw["api_key"]
	assert.False(t, hasKey, "api_key should be omitted when empty")
}

func TestValidateKeyInvalid(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"valid": false, "error": "Invalid API key"}`)
	})

	v, err := c.ValidateKey(context.Background(), "sk-bad")
	require.NoError(t, err)
	assert.False(t, v.Valid)
	assert.Equal(t, "Invalid API key", v.Error)
}

func TestRejectionMessageExtraction(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"detail string", `{"detail": "Custom size must be between 1 and 100"}`, "Custom size must be between 1 and 100"},
		{"error field", `{"error": "No speech detected"}`, "No speech detected"},
		{"message field", `{"message": "busy"}`, "busy"},
		{"fastapi validation list", `{"detail": [{"msg": "field required"}, {"msg": "value is not a valid integer"}]}`, "field required; value is not a valid integer"},
		{"empty detail falls through", `{"detail": "", "error": "boom"}`, "boom"},
		{"not json", `Internal Server Error`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				fmt.Fprint(w, tt.body)
			})

			err := c.SetMemorySize(context.Background(), MemorySizeRequest{Size: 7})
			require.Error(t, err)

			var rej *RejectionError
			require.True(t, errors.As(err, &rej))
			assert.Equal(t, http.StatusBadRequest, rej.StatusCode)
			assert.Equal(t, tt.want, rej.Message)

			if tt.want == "" {
				assert.Equal(t, GenericFailureMessage, UserMessage(err))
			} else {
				assert.Equal(t, tt.want, UserMessage(err))
			}
		})
	}
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	c := New(srv.URL, "/api")

	_, err := c.Stats(context.Background())
	require.Error(t, err)
	assert.True(t, IsNetwork(err))
	assert.False(t, IsRejection(err))
	assert.Equal(t, NetworkFailureMessage, UserMessage(err))
}

func TestProcessUploadsMultipart(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/process", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		file, header, err := r.FormFile("audio")
		require.NoError(t, err)
		defer file.Close()

		assert.Equal(t, "recording.wav", header.Filename)
		assert.Equal(t, "audio/wav", header.Header.Get("Content-Type"))
		data, _ := io.ReadAll(file)
		assert.Equal(t, "RIFFDATA", string(data))

		fmt.Fprint(w, `{"id": 3, "user_text": "hello", "ai_text": "hi there", "input_audio_url": "/audio/input_9.wav", "output_audio_url": "/audio/output_9.mp3"}`)
	})

	res, err := c.Process(context.Background(), "/tmp/x/recording.wav", "audio/wav", strings.NewReader("RIFFDATA"))
	require.NoError(t, err)
	assert.Equal(t, 3, res.ID)
	assert.Equal(t, "/audio/output_9.mp3", res.OutputAudioURL)
}

func TestProcessRejected(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error": "No speech detected"}`)
	})

	_, err := c.Process(context.Background(), "recording.wav", "audio/wav", strings.NewReader("x"))
	require.Error(t, err)
	assert.Equal(t, "No speech detected", UserMessage(err))
}

func TestResolveURL(t *testing.T) {
	c := New("http://localhost:8000/", "/api")

	assert.Equal(t, "http://localhost:8000/audio/a.mp3", c.ResolveURL("/audio/a.mp3"))
	assert.Equal(t, "http://localhost:8000/audio/a.mp3", c.ResolveURL("audio/a.mp3"))
	assert.Equal(t, "https://cdn.example.com/a.mp3", c.ResolveURL("https://cdn.example.com/a.mp3"))
	assert.Equal(t, "", c.ResolveURL(""))
}

func TestUserMessageCancelled(t *testing.T) {
	assert.Equal(t, "Cancelled.", UserMessage(fmt.Errorf("upload: %w", context.Canceled)))
	assert.Equal(t, "", UserMessage(nil))
}
