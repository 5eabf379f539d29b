// Package audio captures microphone audio on the host and owns the single
// recording session.
package audio

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Status represents the current state of the recording controller
type Status string

const (
	StatusIdle      Status = "IDLE"
	StatusCapturing Status = "CAPTURING"
	StatusStopping  Status = "STOPPING"
)

// MaxDurationSeconds is the hard cap on a single recording.
const MaxDurationSeconds = 60

// MaxDuration is MaxDurationSeconds as a duration.
const MaxDuration = MaxDurationSeconds * time.Second

var (
	// ErrBusy is returned while a capture is being torn down.
	ErrBusy = errors.New("recorder is stopping")
	// ErrAlreadyCapturing is returned by BeginCapture during a capture.
	ErrAlreadyCapturing = errors.New("a recording is already in progress")
	// ErrNotCapturing is returned by StopCapture when idle.
	ErrNotCapturing = errors.New("no recording in progress")
	// ErrEmptyRecording is returned when the device produced no audio.
	ErrEmptyRecording = errors.New("recording contains no audio")
)

// Format describes raw signed 16-bit little-endian PCM.
type Format struct {
	SampleRate int
	Channels   int
}

// BytesPerSecond of PCM in this format.
func (f Format) BytesPerSecond() int {
	return f.SampleRate * f.Channels * 2
}

// Microphone is the host capture capability.
type Microphone interface {
	// Open acquires the device and starts capturing. Failures to acquire
	// the device are reported as *DeviceAccessError.
	Open(ctx context.Context, format Format) (Capture, error)
}

// Capture is one running device capture.
type Capture interface {
	// Stop halts capture, releases the device and returns the captured
	// chunks in order.
	Stop() ([][]byte, error)
}

// DeviceAccessError reports that the microphone could not be acquired.
type DeviceAccessError struct {
	Backend string
	Err     error
}

func (e *DeviceAccessError) Error() string {
	return fmt.Sprintf("microphone unavailable (%s): %v", e.Backend, e.Err)
}

func (e *DeviceAccessError) Unwrap() error { return e.Err }

// UserMessage is the text shown when the microphone cannot be used.
func (e *DeviceAccessError) UserMessage() string {
	return "Microphone access was denied or no input device is available. Check your audio setup and try again."
}
