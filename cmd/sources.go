package cmd

import (
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"strings"

	"github.com/adityanavgire01/walkie-talkie/internal/audio"
	"github.com/adityanavgire01/walkie-talkie/internal/play"

	"github.com/spf13/cobra"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the capture backends and players found on this system",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("🎵 Audio tools (%s)\n", runtime.GOOS)
		fmt.Printf("═══════════════════════════════════════\n\n")

		backends := audio.GetAvailableBackends(exec.LookPath)
		mic := audio.NewMicrophone(cfg.Audio)
		fmt.Printf("Capture backends: %s\n", listOrNone(backendNames(backends)))
		fmt.Printf("  configured: %s, using: %s\n", cfg.Audio.Backend, mic.Backend())
		if cfg.Audio.Device != "" {
			fmt.Printf("  device: %s\n", cfg.Audio.Device)
		}
		fmt.Printf("  format: %d Hz, %d channel(s)\n", cfg.Audio.SampleRate, cfg.Audio.Channels)

		if len(backends) > 0 {
			devices, err := audio.ListDevices(cmd.Context(), mic.Backend())
			if err != nil {
				slog.Warn("Could not list capture devices", "backend", mic.Backend(), "error", err)
			}
			fmt.Printf("\n📋 %s devices (%d found):\n", mic.Backend(), len(devices))
			for i, d := range devices {
				fmt.Printf("  %d. %s\n", i+1, d)
			}
			fmt.Printf("  • Set audio.device to one of these names; empty uses the default.\n")
		}
		fmt.Println()

		players := play.AvailablePlayers(exec.LookPath)
		fmt.Printf("Players: %s\n", listOrNone(players))
		fmt.Printf("  configured: %s\n", cfg.Playback.Player)

		if len(backends) == 0 {
			fmt.Println("\n⚠️  No capture tool found. Install pipewire (pw-record), alsa-utils (arecord) or ffmpeg.")
		}
		if len(players) == 0 {
			fmt.Println("\n⚠️  No player found. Install ffmpeg (ffplay), mpv or vlc.")
		}
		return nil
	},
}

func backendNames(backends []audio.BackendType) []string {
	names := make([]string, len(backends))
	for i, b := range backends {
		names[i] = string(b)
	}
	return names
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}
