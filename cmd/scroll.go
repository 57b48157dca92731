package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/romaklym/kronsteen/internal/output"
)

// ScrollResult is the output of a scroll command.
type ScrollResult struct {
	OK        bool   `yaml:"ok"        json:"ok"`
	Action    string `yaml:"action"    json:"action"`
	Direction string `yaml:"direction" json:"direction"`
	Amount    int    `yaml:"amount"    json:"amount"`
}

var scrollCmd = &cobra.Command{
	Use:   "scroll",
	Short: "Scroll the mouse wheel",
	Long:  "Scroll the mouse wheel up or down at the current pointer position.",
	RunE:  runScroll,
}

func init() {
	rootCmd.AddCommand(scrollCmd)
	scrollCmd.Flags().String("direction", "down", "Scroll direction: up, down")
	scrollCmd.Flags().Int("amount", 3, "Number of scroll clicks")
}

func runScroll(cmd *cobra.Command, args []string) error {
	direction, _ := cmd.Flags().GetString("direction")
	amount, _ := cmd.Flags().GetInt("amount")

	clicks := amount
	switch direction {
	case "up":
	case "down":
		clicks = -amount
	default:
		return fmt.Errorf("unsupported direction: %s (use up or down)", direction)
	}

	client, err := newClient(cmd)
	if err != nil {
		return err
	}
	if err := client.Scroll(commandContext(cmd), clicks); err != nil {
		return err
	}
	return output.Print(ScrollResult{OK: true, Action: "scroll", Direction: direction, Amount: amount})
}
