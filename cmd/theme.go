package cmd

import (
	"fmt"
	"strings"

	"github.com/adityanavgire01/walkie-talkie/internal/service"
	"github.com/adityanavgire01/walkie-talkie/internal/store"

	"github.com/spf13/cobra"
)

var themeCmd = &cobra.Command{
	Use:       "theme [dark|light]",
	Short:     "Show or set the UI theme",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{store.ThemeDark, store.ThemeLight},
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := service.New(cfg)
		if err != nil {
			return err
		}
		defer svc.Close()

		if len(args) == 0 {
			fmt.Println(svc.Theme())
			return nil
		}

		theme := strings.ToLower(args[0])
		if theme != store.ThemeDark && theme != store.ThemeLight {
			return fmt.Errorf("theme must be %s or %s, got %q", store.ThemeDark, store.ThemeLight, args[0])
		}
		if err := svc.SetTheme(theme); err != nil {
			return fmt.Errorf("failed to save theme: %w", err)
		}
		fmt.Printf("Theme set to %s\n", theme)
		return nil
	},
}
