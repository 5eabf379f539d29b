package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/adityanavgire01/walkie-talkie/internal/config"
	"github.com/adityanavgire01/walkie-talkie/internal/logging"

	"github.com/spf13/cobra"
)

var (
	cfg          *config.Config
	cfgFile      string
	verboseLevel int

	closeLog func() error
)

var rootCmd = &cobra.Command{
	Use:   "walkie-talkie",
	Short: "Push-to-talk terminal client for a voice assistant",
	Long: `walkie-talkie records a short spoken message from the microphone,
sends it to the assistant backend and plays the spoken reply.

Without a subcommand it opens the interactive terminal UI (same as
'walkie-talkie talk').`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Use default config path if not specified
		if cfgFile == "" {
			cfgFile = config.DefaultPath()
		}

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		closeLog = logging.Setup(cfg.Log, logging.Options{
			Verbose:  verboseLevel,
			FileOnly: ownsTerminal(cmd),
		})
		slog.Debug("Configuration loaded", "file", cfgFile, "server", cfg.APIBaseURL())
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if closeLog != nil {
			_ = closeLog()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTalk(cmd.Context())
	},
}

// ownsTerminal reports whether cmd draws a full-screen UI, in which case log
// lines must not reach the terminal.
func ownsTerminal(cmd *cobra.Command) bool {
	return !cmd.HasParent() || cmd.Name() == "talk"
}

func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/walkie-talkie.yaml)")
	rootCmd.PersistentFlags().IntVarP(&verboseLevel, "verbose", "v", 0, "verbose level: 0=info, 1=debug, 2=debug with source locations")

	rootCmd.AddCommand(talkCmd)
	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(themeCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(sourcesCmd)
}
