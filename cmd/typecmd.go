package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/romaklym/kronsteen"
	"github.com/romaklym/kronsteen/internal/output"
)

// TypeResult is the output of a type command.
type TypeResult struct {
	OK     bool   `yaml:"ok"             json:"ok"`
	Action string `yaml:"action"         json:"action"`
	Text   string `yaml:"text,omitempty" json:"text,omitempty"`
	Key    string `yaml:"key,omitempty"  json:"key,omitempty"`
}

var typeCmd = &cobra.Command{
	Use:   "type [text]",
	Short: "Type text or press key combinations",
	Long:  "Type text into the focused element or press key combinations. Text can be passed as a positional argument or via --text.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runType,
}

func init() {
	rootCmd.AddCommand(typeCmd)
	typeCmd.Flags().String("text", "", "Text to type (alternative to positional arg)")
	typeCmd.Flags().String("key", "", "Key combination (e.g. \"cmd+c\", \"ctrl+shift+t\", \"enter\", \"tab\")")
	typeCmd.Flags().Int("delay", 0, "Delay between keystrokes in ms")
	typeCmd.Flags().Bool("enter", false, "Press enter after typing")
}

func runType(cmd *cobra.Command, args []string) error {
	text, _ := cmd.Flags().GetString("text")
	key, _ := cmd.Flags().GetString("key")
	delayMs, _ := cmd.Flags().GetInt("delay")
	pressEnter, _ := cmd.Flags().GetBool("enter")

	// Positional arg overrides --text flag
	if len(args) > 0 {
		text = args[0]
	}

	if text == "" && key == "" {
		return fmt.Errorf("specify --text, --key, or a positional text argument")
	}

	client, err := newClient(cmd)
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)

	if key != "" {
		keys := strings.Split(key, "+")
		if len(keys) > 1 {
			err = client.Hotkey(ctx, keys...)
		} else {
			err = client.Press(ctx, key)
		}
		if err != nil {
			return err
		}
		return output.Print(TypeResult{OK: true, Action: "key", Key: key})
	}

	opts := kronsteen.TypeOptions{
		Delay:      time.Duration(delayMs) * time.Millisecond,
		PressEnter: pressEnter,
	}
	if err := client.TypeText(ctx, text, opts); err != nil {
		return err
	}
	return output.Print(TypeResult{OK: true, Action: "type", Text: text})
}
