package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/romaklym/kronsteen/internal/output"
	"github.com/romaklym/kronsteen/pkg/platform"
)

// ClickResult is the output of a click command.
type ClickResult struct {
	OK     bool       `yaml:"ok"              json:"ok"`
	Action string     `yaml:"action"          json:"action"`
	Query  string     `yaml:"query,omitempty" json:"query,omitempty"`
	X      int        `yaml:"x"               json:"x"`
	Y      int        `yaml:"y"               json:"y"`
	Match  *matchInfo `yaml:"match,omitempty" json:"match,omitempty"`
}

var clickCmd = &cobra.Command{
	Use:   "click [text]",
	Short: "Click on text, a template image, or coordinates",
	Long:  "Find the given text or template image on screen and click the center of its match, or click at absolute screen coordinates with --x/--y.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runClick,
}

func init() {
	rootCmd.AddCommand(clickCmd)
	addTextMatchFlags(clickCmd)
	clickCmd.Flags().Int("x", -1, "Click at absolute X screen coordinate")
	clickCmd.Flags().Int("y", -1, "Click at absolute Y screen coordinate")
	clickCmd.Flags().String("button", "left", "Mouse button: left, right, middle")
	clickCmd.Flags().Bool("double", false, "Double-click")
}

func runClick(cmd *cobra.Command, args []string) error {
	x, _ := cmd.Flags().GetInt("x")
	y, _ := cmd.Flags().GetInt("y")
	buttonStr, _ := cmd.Flags().GetString("button")
	double, _ := cmd.Flags().GetBool("double")

	button, err := platform.ParseMouseButton(buttonStr)
	if err != nil {
		return err
	}
	count := 1
	if double {
		count = 2
	}

	client, err := newClient(cmd)
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)

	// Coordinate mode needs no visual query.
	if x >= 0 && y >= 0 {
		if err := client.ClickButton(ctx, x, y, button, count); err != nil {
			return err
		}
		return output.Print(ClickResult{OK: true, Action: "click", X: x, Y: y})
	}

	text, template, err := queryArg(cmd, args)
	if err != nil {
		return fmt.Errorf("specify text, --template, or both --x and --y: %w", err)
	}

	var result ClickResult
	if template != "" {
		opts, err := templateOptionsFromFlags(cmd)
		if err != nil {
			return err
		}
		m, err := client.WaitForTemplate(ctx, template, opts)
		if err != nil {
			return err
		}
		cx, cy := m.Region.Center()
		if err := client.ClickButton(ctx, cx, cy, button, count); err != nil {
			return err
		}
		result = ClickResult{OK: true, Action: "click", Query: template, X: cx, Y: cy, Match: matchInfoPtr(m)}
	} else {
		opts, err := textOptionsFromFlags(cmd)
		if err != nil {
			return err
		}
		m, err := client.FindText(ctx, text, opts)
		if err != nil {
			return err
		}
		cx, cy := m.Region.Center()
		if err := client.ClickButton(ctx, cx, cy, button, count); err != nil {
			return err
		}
		result = ClickResult{OK: true, Action: "click", Query: text, X: cx, Y: cy, Match: matchInfoPtr(m)}
	}
	return output.Print(result)
}
