package play

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"syscall"

	"github.com/adityanavgire01/walkie-talkie/internal/config"
)

// Player starts audio playback of a URL on the host.
type Player interface {
	Start(ctx context.Context, sourceURL string) (Playback, error)
}

// Playback is one running playback.
type Playback interface {
	Pause() error
	Resume() error
	// Stop halts playback; the next Start of the same URL begins at zero.
	Stop() error
	// Done is closed when playback ends for any reason.
	Done() <-chan struct{}
}

// preferred audio players in order of preference
var knownPlayers = []string{"ffplay", "mpv", "vlc"}

// ExecPlayer plays audio through an external command-line player.
type ExecPlayer struct {
	preferred string
	lookPath  func(string) (string, error)
}

func NewExecPlayer(cfg config.PlaybackConfig) *ExecPlayer {
	return &ExecPlayer{
		preferred: strings.ToLower(cfg.Player),
		lookPath:  exec.LookPath,
	}
}

// Start launches the player for sourceURL and returns immediately.
func (p *ExecPlayer) Start(ctx context.Context, sourceURL string) (Playback, error) {
	player, err := p.findAudioPlayer()
	if err != nil {
		return nil, fmt.Errorf("no suitable audio player found: %w", err)
	}

	cmd := exec.Command(player, playerArgs(player, sourceURL)...)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("playback failed with %s: %w", player, err)
	}

	slog.Debug("Playback started", "player", player, "url", sourceURL, "pid", cmd.Process.Pid)

	pb := &execPlayback{cmd: cmd, done: make(chan struct{})}
	go func() {
		err := cmd.Wait()
		if err != nil {
			slog.Debug("Player exited", "player", player, "error", err)
		}
		close(pb.done)
	}()
	return pb, nil
}

func playerArgs(player, sourceURL string) []string {
	switch player {
	case "mpv":
		return []string{"--no-video", "--really-quiet", sourceURL}
	case "vlc":
		return []string{"--intf", "dummy", "--play-and-exit", sourceURL}
	default:
		return []string{"-nodisp", "-autoexit", "-loglevel", "error", sourceURL}
	}
}

func (p *ExecPlayer) findAudioPlayer() (string, error) {
	candidates := knownPlayers
	if p.preferred != "" && p.preferred != "auto" {
		candidates = []string{p.preferred}
	}

	for _, player := range candidates {
		if _, err := p.lookPath(player); err == nil {
			return player, nil
		}
	}

	return "", fmt.Errorf("no audio player found (tried: %s)", strings.Join(candidates, ", "))
}

// AvailablePlayers returns the known players installed on this system, in
// order of preference.
func AvailablePlayers(lookPath func(string) (string, error)) []string {
	var found []string
	for _, player := range knownPlayers {
		if _, err := lookPath(player); err == nil {
			found = append(found, player)
		}
	}
	return found
}

type execPlayback struct {
	cmd  *exec.Cmd
	done chan struct{}
	once sync.Once
}

func (pb *execPlayback) Pause() error {
	return pb.signal(syscall.SIGSTOP)
}

func (pb *execPlayback) Resume() error {
	return pb.signal(syscall.SIGCONT)
}

func (pb *execPlayback) Stop() error {
	var err error
	pb.once.Do(func() {
		select {
		case <-pb.done:
			return
		default:
		}
		// a stopped process must be continued before it can die
		_ = pb.cmd.Process.Signal(syscall.SIGCONT)
		err = pb.cmd.Process.Kill()
		<-pb.done
	})
	return err
}

func (pb *execPlayback) Done() <-chan struct{} {
	return pb.done
}

func (pb *execPlayback) signal(sig syscall.Signal) error {
	select {
	case <-pb.done:
		return nil
	default:
	}
	if err := pb.cmd.Process.Signal(sig); err != nil {
		return fmt.Errorf("signal player: %w", err)
	}
	return nil
}
