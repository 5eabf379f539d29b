package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/adityanavgire01/walkie-talkie/internal/backend"
	"github.com/adityanavgire01/walkie-talkie/internal/service"
	"github.com/adityanavgire01/walkie-talkie/internal/settings"

	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change the assistant's memory settings",
	Long: fmt.Sprintf(`Show or change how many past exchanges the assistant remembers.

Presets (%s) use the server's key. A custom size between %d and %d needs
your own API key, which is sent to the server once and never stored locally.`,
		presetNames(), settings.MinCustomSize, settings.MaxCustomSize),
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current settings",
	Args:  cobra.NoArgs,
	RunE: withSettings(func(ctx context.Context, svc *service.Service, args []string) error {
		state, err := svc.Settings.Load(ctx)
		if err != nil {
			fmt.Printf("%s Showing the last known settings.\n", backend.UserMessage(err))
		}
		printSettings(state)
		return nil
	}),
}

var settingsPresetCmd = &cobra.Command{
	Use:   "preset [size]",
	Short: "Select a preset memory size",
	Args:  cobra.ExactArgs(1),
	RunE: withSettings(func(ctx context.Context, svc *service.Service, args []string) error {
		size, err := strconv.Atoi(args[0])
		if err != nil || !settings.IsPreset(size) {
			return fmt.Errorf("preset must be one of %s", presetNames())
		}
		state, err := svc.Settings.SelectPreset(ctx, size)
		if err != nil {
			return userError(err)
		}
		printSettings(state)
		return nil
	}),
}

var settingsCustomCmd = &cobra.Command{
	Use:   "custom [size]",
	Short: "Use a custom memory size with your own API key",
	Args:  cobra.MaximumNArgs(1),
	RunE: withSettings(func(ctx context.Context, svc *service.Service, args []string) error {
		p := newPrompter()

		sizeText := ""
		if len(args) == 1 {
			sizeText = args[0]
		} else {
			var err error
			sizeText, err = p.Prompt(fmt.Sprintf("Memory size (%d-%d)", settings.MinCustomSize, settings.MaxCustomSize))
			if err != nil {
				return err
			}
		}

		key, err := p.PromptSecret("API key")
		if err != nil {
			return err
		}

		// Nothing goes to the network until the input passes the local check.
		if _, err := settings.ValidateCustom(sizeText, key); err != nil {
			return userError(err)
		}

		fmt.Println("Validating key...")
		state, err := svc.Settings.SubmitCustom(ctx, sizeText, key)
		if err != nil {
			return userError(err)
		}
		printSettings(state)
		return nil
	}),
}

var settingsResetKeyCmd = &cobra.Command{
	Use:   "reset-key",
	Short: "Discard the custom API key and return to the default preset",
	Args:  cobra.NoArgs,
	RunE: withSettings(func(ctx context.Context, svc *service.Service, args []string) error {
		state, msg, err := svc.Settings.ResetKey(ctx)
		if err != nil {
			fmt.Println(backend.UserMessage(err))
		}
		fmt.Println(msg)
		printSettings(state)
		return nil
	}),
}

var settingsContextCmd = &cobra.Command{
	Use:       "context [on|off]",
	Short:     "Turn use of past exchanges on or off",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"on", "off"},
	RunE: withSettings(func(ctx context.Context, svc *service.Service, args []string) error {
		var on bool
		switch strings.ToLower(args[0]) {
		case "on", "true", "yes":
			on = true
		case "off", "false", "no":
		default:
			return fmt.Errorf("expected on or off, got %q", args[0])
		}
		state, err := svc.Settings.SetUseContext(ctx, on)
		if err != nil {
			return userError(err)
		}
		printSettings(state)
		return nil
	}),
}

// withSettings builds the service, loads the confirmed settings and runs fn.
func withSettings(fn func(ctx context.Context, svc *service.Service, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		svc, err := service.New(cfg)
		if err != nil {
			return err
		}
		defer svc.Close()

		svc.Settings.LoadCached()
		return fn(cmd.Context(), svc, args)
	}
}

func printSettings(s settings.State) {
	fmt.Printf("Memory size: %s\n", s.Label())
	fmt.Printf("Mode:        %s\n", s.Mode)
	fmt.Printf("Use context: %t\n", s.UseContext)
	if s.IsCustom() {
		fmt.Printf("API key:     %s\n", keyStatus(s.APIKeyPresent))
	}
}

func keyStatus(present bool) string {
	if present {
		return "set for this session"
	}
	return "not set"
}

func presetNames() string {
	names := make([]string, len(settings.Presets))
	for i, p := range settings.Presets {
		names[i] = strconv.Itoa(p)
	}
	return strings.Join(names, ", ")
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsPresetCmd)
	settingsCmd.AddCommand(settingsCustomCmd)
	settingsCmd.AddCommand(settingsResetKeyCmd)
	settingsCmd.AddCommand(settingsContextCmd)
}
