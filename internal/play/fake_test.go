package play

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// recorder collects player and indicator events in order.
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, fmt.Sprintf(format, args...))
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

type fakePlayer struct {
	log      *recorder
	fail     error
	started  []*fakePlayback
	startsMu sync.Mutex
}

func (p *fakePlayer) Start(_ context.Context, url string) (Playback, error) {
	if p.fail != nil {
		return nil, p.fail
	}
	p.log.add("start %s", url)
	pb := &fakePlayback{url: url, log: p.log, done: make(chan struct{})}
	p.startsMu.Lock()
	p.started = append(p.started, pb)
	p.startsMu.Unlock()
	return pb, nil
}

func (p *fakePlayer) live() int {
	p.startsMu.Lock()
	defer p.startsMu.Unlock()
	n := 0
	for _, pb := range p.started {
		if !pb.stopped {
			n++
		}
	}
	return n
}

type fakePlayback struct {
	url     string
	log     *recorder
	done    chan struct{}
	stopped bool
	paused  bool
}

func (pb *fakePlayback) Pause() error {
	if pb.stopped {
		return errors.New("stopped")
	}
	pb.paused = true
	pb.log.add("pause %s", pb.url)
	return nil
}

func (pb *fakePlayback) Resume() error {
	if pb.stopped {
		return errors.New("stopped")
	}
	pb.paused = false
	pb.log.add("resume %s", pb.url)
	return nil
}

func (pb *fakePlayback) Stop() error {
	if !pb.stopped {
		pb.stopped = true
		pb.log.add("stop %s", pb.url)
		close(pb.done)
	}
	return nil
}

func (pb *fakePlayback) Done() <-chan struct{} { return pb.done }

// finish simulates natural end of media.
func (pb *fakePlayback) finish() {
	if !pb.stopped {
		pb.stopped = true
		close(pb.done)
	}
}
