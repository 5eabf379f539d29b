package audio

import (
	"os/exec"
	"strconv"
	"strings"

	"github.com/adityanavgire01/walkie-talkie/internal/config"
)

// BackendType represents the host tool used for capture
type BackendType string

const (
	BackendTypePipeWire BackendType = "pipewire"
	BackendTypeALSA     BackendType = "alsa"
	BackendTypeFFmpeg   BackendType = "ffmpeg"
	BackendTypeAuto     BackendType = "auto"
)

// backendCommands maps each backend to the executable it needs
var backendCommands = map[BackendType]string{
	BackendTypePipeWire: "pw-record",
	BackendTypeALSA:     "arecord",
	BackendTypeFFmpeg:   "ffmpeg",
}

// NewMicrophone creates a microphone using the backend selected in cfg.
func NewMicrophone(cfg config.AudioConfig) *ExecMicrophone {
	return &ExecMicrophone{
		backend: determineBackend(cfg, exec.LookPath),
		device:  cfg.Device,
	}
}

// determineBackend resolves "auto" to the first available host tool.
func determineBackend(cfg config.AudioConfig, lookPath func(string) (string, error)) BackendType {
	switch BackendType(strings.ToLower(cfg.Backend)) {
	case BackendTypePipeWire:
		return BackendTypePipeWire
	case BackendTypeALSA:
		return BackendTypeALSA
	case BackendTypeFFmpeg:
		return BackendTypeFFmpeg
	}

	for _, b := range GetAvailableBackends(lookPath) {
		return b
	}
	// Nothing installed; ffmpeg gives the most useful error message.
	return BackendTypeFFmpeg
}

// GetAvailableBackends returns the capture backends installed on this system,
// in order of preference.
func GetAvailableBackends(lookPath func(string) (string, error)) []BackendType {
	backends := []BackendType{}
	for _, b := range []BackendType{BackendTypePipeWire, BackendTypeALSA, BackendTypeFFmpeg} {
		if _, err := lookPath(backendCommands[b]); err == nil {
			backends = append(backends, b)
		}
	}
	return backends
}

// captureArgs builds the command line that writes raw s16le PCM to stdout.
func captureArgs(backend BackendType, device string, format Format) []string {
	rate := strconv.Itoa(format.SampleRate)
	channels := strconv.Itoa(format.Channels)

	switch backend {
	case BackendTypePipeWire:
		args := []string{"pw-record", "--rate", rate, "--channels", channels, "--format", "s16"}
		if device != "" {
			args = append(args, "--target", device)
		}
		return append(args, "-")
	case BackendTypeALSA:
		args := []string{"arecord", "-q", "-t", "raw", "-f", "S16_LE", "-r", rate, "-c", channels}
		if device != "" {
			args = append(args, "-D", device)
		}
		return args
	default:
		input := device
		if input == "" {
			input = "default"
		}
		return []string{
			"ffmpeg", "-hide_banner", "-loglevel", "error", "-nostdin",
			"-f", "pulse", "-i", input,
			"-ac", channels, "-ar", rate,
			"-f", "s16le", "-",
		}
	}
}
