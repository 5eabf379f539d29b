package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// startupProbe is how long a freshly started capture tool must survive
// before the device counts as acquired.
const startupProbe = 250 * time.Millisecond

// stopTimeout bounds how long Stop waits for the tool to exit after SIGINT.
const stopTimeout = 5 * time.Second

// ExecMicrophone captures by running a host tool that writes raw PCM to stdout.
type ExecMicrophone struct {
	backend BackendType
	device  string
}

// Backend returns the resolved capture backend.
func (m *ExecMicrophone) Backend() BackendType {
	return m.backend
}

// Open starts the capture tool. The device is considered acquired once the
// tool has been running for a short probe window without exiting.
func (m *ExecMicrophone) Open(ctx context.Context, format Format) (Capture, error) {
	args := captureArgs(m.backend, m.device, format)
	if _, err := exec.LookPath(args[0]); err != nil {
		return nil, &DeviceAccessError{Backend: string(m.backend), Err: fmt.Errorf("%s not found in PATH", args[0])}
	}

	slog.Info("Starting capture", "backend", m.backend, "command", strings.Join(args, " "))

	cmd := exec.Command(args[0], args[1:]...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, &DeviceAccessError{Backend: string(m.backend), Err: err}
	}

	c := &execCapture{
		cmd:        cmd,
		chunkSize:  format.BytesPerSecond() / 10,
		readerDone: make(chan struct{}),
		stderrDone: make(chan struct{}),
		exited:     make(chan struct{}),
	}
	go c.readPCM(stdout)
	go c.readStderr(stderr)
	go func() {
		// Wait closes the pipes, so both readers must drain first.
		<-c.readerDone
		<-c.stderrDone
		c.waitErr = cmd.Wait()
		close(c.exited)
	}()

	select {
	case <-c.exited:
		return nil, &DeviceAccessError{Backend: string(m.backend), Err: c.exitReason()}
	case <-ctx.Done():
		c.kill()
		return nil, ctx.Err()
	case <-time.After(startupProbe):
	}

	return c, nil
}

type execCapture struct {
	cmd       *exec.Cmd
	chunkSize int

	mu        sync.Mutex
	chunks    [][]byte
	stderrBuf strings.Builder
	readErr   error

	readerDone chan struct{}
	stderrDone chan struct{}
	exited     chan struct{}
	waitErr    error
	stopOnce   sync.Once
}

// readPCM drains stdout into fixed-size chunks until EOF.
func (c *execCapture) readPCM(pipe io.Reader) {
	defer close(c.readerDone)

	size := c.chunkSize
	if size <= 0 {
		size = 3200
	}
	for {
		buf := make([]byte, size)
		n, err := io.ReadFull(pipe, buf)
		if n > 0 {
			c.mu.Lock()
			c.chunks = append(c.chunks, buf[:n])
			c.mu.Unlock()
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, os.ErrClosed) {
				c.mu.Lock()
				c.readErr = err
				c.mu.Unlock()
			}
			return
		}
	}
}

func (c *execCapture) readStderr(pipe io.Reader) {
	defer close(c.stderrDone)
	data, _ := io.ReadAll(pipe)
	if len(data) == 0 {
		return
	}
	c.mu.Lock()
	c.stderrBuf.Write(data)
	c.mu.Unlock()
	slog.Debug("Capture tool output", "stderr", strings.TrimSpace(string(data)))
}

// Stop interrupts the tool and returns everything read from it.
func (c *execCapture) Stop() ([][]byte, error) {
	var stopErr error
	c.stopOnce.Do(func() {
		stopErr = c.stop()
	})

	<-c.readerDone

	c.mu.Lock()
	defer c.mu.Unlock()
	if stopErr == nil && c.readErr != nil {
		stopErr = fmt.Errorf("read captured audio: %w", c.readErr)
	}
	return c.chunks, stopErr
}

func (c *execCapture) stop() error {
	if c.cmd.Process != nil {
		slog.Debug("Sending SIGINT to capture process")
		if err := c.cmd.Process.Signal(os.Interrupt); err != nil {
			slog.Debug("Failed to interrupt capture process, killing", "error", err)
			_ = c.cmd.Process.Kill()
		}
	}

	select {
	case <-c.exited:
	case <-time.After(stopTimeout):
		slog.Warn("Capture process did not exit within timeout, force killing")
		c.kill()
		<-c.exited
		return nil
	}

	if c.waitErr != nil && !interruptedExit(c.waitErr) {
		c.mu.Lock()
		slog.Debug("Capture stderr", "output", c.stderrBuf.String())
		c.mu.Unlock()
		return fmt.Errorf("capture process failed: %w", c.waitErr)
	}
	return nil
}

func (c *execCapture) kill() {
	if c.cmd.Process != nil {
		_ = c.cmd.Process.Kill()
	}
}

// exitReason describes an early exit, preferring the tool's own words.
func (c *execCapture) exitReason() error {
	c.mu.Lock()
	msg := strings.TrimSpace(c.stderrBuf.String())
	c.mu.Unlock()
	if msg != "" {
		return errors.New(lastLine(msg))
	}
	if c.waitErr != nil {
		return c.waitErr
	}
	return errors.New("capture process exited immediately")
}

// interruptedExit reports whether err is the normal result of SIGINT/SIGKILL.
func interruptedExit(err error) bool {
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return false
	}
	// ffmpeg exits with 255 when interrupted
	if exitErr.ExitCode() == 255 || exitErr.ExitCode() == 130 {
		return true
	}
	if exitErr.ProcessState != nil {
		state := exitErr.ProcessState.String()
		return state == "signal: interrupt" || state == "signal: killed"
	}
	return false
}

func lastLine(s string) string {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
