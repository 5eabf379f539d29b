package audio

import (
	"context"
	"errors"
	"sync"
)

type fakeMicrophone struct {
	mu      sync.Mutex
	log     *[]string
	fail    error
	chunks  [][]byte
	opened  int
	active  int
	maxLive int
}

func (m *fakeMicrophone) Open(_ context.Context, _ Format) (Capture, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.log != nil {
		*m.log = append(*m.log, "mic open")
	}
	if m.fail != nil {
		return nil, m.fail
	}
	m.opened++
	m.active++
	if m.active > m.maxLive {
		m.maxLive = m.active
	}
	return &fakeCapture{mic: m, chunks: m.chunks}, nil
}

type fakeCapture struct {
	mic     *fakeMicrophone
	chunks  [][]byte
	stopped bool
}

func (c *fakeCapture) Stop() ([][]byte, error) {
	c.mic.mu.Lock()
	defer c.mic.mu.Unlock()
	if c.stopped {
		return nil, errors.New("already stopped")
	}
	c.stopped = true
	c.mic.active--
	return c.chunks, nil
}

type fakePlayback struct {
	log   *[]string
	stops int
}

func (p *fakePlayback) ForceStop() {
	p.stops++
	if p.log != nil {
		*p.log = append(*p.log, "playback stop")
	}
}

// pcm returns n samples of s16le silence-ish data.
func pcm(n int) []byte {
	b := make([]byte, 2*n)
	for i := 0; i < n; i++ {
		b[2*i] = byte(i)
	}
	return b
}
