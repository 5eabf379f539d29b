package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/adityanavgire01/walkie-talkie/internal/service"

	"github.com/spf13/cobra"
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every stored conversation",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes {
			fmt.Print("Delete all conversations? [y/N] ")
			answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
			if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
				fmt.Println("Aborted.")
				return nil
			}
		}

		svc, err := service.New(cfg)
		if err != nil {
			return err
		}
		defer svc.Close()

		view, err := svc.ClearHistory(cmd.Context())
		if err != nil {
			return userError(err)
		}
		fmt.Println("History cleared.")
		printView(os.Stdout, view)
		return nil
	},
}

func init() {
	clearCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")
}
