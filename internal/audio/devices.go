package audio

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// CommandOutput runs a host command and returns its stdout.
type CommandOutput func(ctx context.Context, name string, args ...string) ([]byte, error)

func execOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// ListDevices returns the capture devices the backend can be pointed at with
// audio.device. An empty list means only the default device is known.
func ListDevices(ctx context.Context, backend BackendType) ([]string, error) {
	return listDevices(ctx, backend, execOutput)
}

func listDevices(ctx context.Context, backend BackendType, run CommandOutput) ([]string, error) {
	switch backend {
	case BackendTypePipeWire:
		output, err := run(ctx, "pw-link", "-o")
		if err != nil {
			return nil, fmt.Errorf("failed to list PipeWire ports: %w", err)
		}
		return parsePipeWireNodes(string(output)), nil
	case BackendTypeALSA:
		output, err := run(ctx, "arecord", "-L")
		if err != nil {
			return nil, fmt.Errorf("failed to list ALSA devices: %w", err)
		}
		return parseALSADevices(string(output)), nil
	case BackendTypeFFmpeg:
		output, err := run(ctx, "pactl", "list", "short", "sources")
		if err != nil {
			slog.Debug("pactl unavailable, only the default source is usable", "error", err)
			return nil, nil
		}
		return parsePulseSources(string(output)), nil
	}
	return nil, fmt.Errorf("unknown capture backend: %s", backend)
}

// parsePipeWireNodes reduces "node:port" lines to unique node names, the form
// pw-record --target accepts.
func parsePipeWireNodes(output string) []string {
	var nodes []string
	seen := map[string]bool{}

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasSuffix(line, "ports:") {
			continue
		}
		node := line
		if i := strings.LastIndex(line, ":"); i > 0 {
			node = line[:i]
		}
		if !seen[node] {
			seen[node] = true
			nodes = append(nodes, node)
		}
	}
	return nodes
}

// parseALSADevices keeps the unindented device names of arecord -L; the
// indented lines are descriptions.
func parseALSADevices(output string) []string {
	var devices []string
	for _, line := range strings.Split(output, "\n") {
		if line == "" || line[0] == ' ' || line[0] == '\t' {
			continue
		}
		if name := strings.TrimSpace(line); name != "null" {
			devices = append(devices, name)
		}
	}
	return devices
}

// parsePulseSources takes the name column of pactl's short listing, skipping
// the monitors of output sinks.
func parsePulseSources(output string) []string {
	var sources []string
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 || strings.HasSuffix(fields[1], ".monitor") {
			continue
		}
		sources = append(sources, fields[1])
	}
	return sources
}
