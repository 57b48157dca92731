package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/romaklym/kronsteen"
	"github.com/romaklym/kronsteen/internal/output"
)

// OpenResult is the output of an open or close command.
type OpenResult struct {
	OK     bool   `yaml:"ok"     json:"ok"`
	Action string `yaml:"action" json:"action"`
	App    string `yaml:"app"    json:"app"`
}

var openCmd = &cobra.Command{
	Use:   "open <app>",
	Short: "Launch an application",
	Long:  "Launch an application by name or path. With --wait-text the command blocks until the given text appears on screen, confirming the app is up.",
	Args:  cobra.ExactArgs(1),
	RunE:  runOpen,
}

var closeCmd = &cobra.Command{
	Use:   "close <app>",
	Short: "Quit an application",
	Args:  cobra.ExactArgs(1),
	RunE:  runClose,
}

func init() {
	rootCmd.AddCommand(openCmd)
	rootCmd.AddCommand(closeCmd)
	openCmd.Flags().StringSlice("arg", nil, "Argument passed to the launched application (repeatable)")
	openCmd.Flags().String("wait-text", "", "Block until this text appears on screen after launching")
}

func runOpen(cmd *cobra.Command, args []string) error {
	app := args[0]
	appArgs, _ := cmd.Flags().GetStringSlice("arg")
	waitText, _ := cmd.Flags().GetString("wait-text")

	client, err := newClient(cmd)
	if err != nil {
		return err
	}
	if err := client.Launch(app, appArgs...); err != nil {
		return err
	}

	if waitText != "" {
		if _, err := client.WaitForText(commandContext(cmd), waitText, kronsteen.TextOptions{}); err != nil {
			return fmt.Errorf("%s launched but %q never appeared: %w", app, waitText, err)
		}
	} else {
		// Give the process a moment to create its window.
		time.Sleep(500 * time.Millisecond)
	}

	return output.Print(OpenResult{OK: true, Action: "open", App: app})
}

func runClose(cmd *cobra.Command, args []string) error {
	app := args[0]

	client, err := newClient(cmd)
	if err != nil {
		return err
	}
	if err := client.CloseApp(app); err != nil {
		return err
	}
	return output.Print(OpenResult{OK: true, Action: "close", App: app})
}
