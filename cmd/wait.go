package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/romaklym/kronsteen/internal/output"
)

// WaitResult is the output of a wait command.
type WaitResult struct {
	OK          bool       `yaml:"ok"                     json:"ok"`
	Action      string     `yaml:"action"                 json:"action"`
	Query       string     `yaml:"query"                  json:"query"`
	Gone        bool       `yaml:"gone,omitempty"         json:"gone,omitempty"`
	Elapsed     string     `yaml:"elapsed"                json:"elapsed"`
	Attempts    int        `yaml:"attempts,omitempty"     json:"attempts,omitempty"`
	EverPresent bool       `yaml:"ever_present,omitempty" json:"ever_present,omitempty"`
	Match       *matchInfo `yaml:"match,omitempty"        json:"match,omitempty"`
}

var waitCmd = &cobra.Command{
	Use:   "wait [text]",
	Short: "Wait for text or an image to appear or disappear",
	Long:  "Poll the screen until the given text or template image appears, or with --gone until it is no longer visible. Exits non-zero on timeout.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runWait,
}

func init() {
	rootCmd.AddCommand(waitCmd)
	addTextMatchFlags(waitCmd)
	waitCmd.Flags().Bool("gone", false, "Invert: wait until the query is NO LONGER visible")
}

func runWait(cmd *cobra.Command, args []string) error {
	text, template, err := queryArg(cmd, args)
	if err != nil {
		return err
	}
	gone, _ := cmd.Flags().GetBool("gone")

	client, err := newClient(cmd)
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)
	start := time.Now()

	if gone {
		if template != "" {
			return fmt.Errorf("--gone supports text queries only")
		}
		opts, err := textOptionsFromFlags(cmd)
		if err != nil {
			return err
		}
		outcome, err := client.WaitForTextToDisappear(ctx, text, opts)
		if err != nil {
			return err
		}
		return output.Print(WaitResult{
			OK:          true,
			Action:      "wait",
			Query:       text,
			Gone:        true,
			Elapsed:     fmt.Sprintf("%.1fs", time.Since(start).Seconds()),
			Attempts:    outcome.Attempts,
			EverPresent: outcome.EverPresent,
		})
	}

	result := WaitResult{OK: true, Action: "wait", Query: text}
	if template != "" {
		result.Query = template
		opts, err := templateOptionsFromFlags(cmd)
		if err != nil {
			return err
		}
		m, err := client.WaitForTemplate(ctx, template, opts)
		if err != nil {
			return err
		}
		result.Match = matchInfoPtr(m)
	} else {
		opts, err := textOptionsFromFlags(cmd)
		if err != nil {
			return err
		}
		m, err := client.WaitForText(ctx, text, opts)
		if err != nil {
			return err
		}
		result.Match = matchInfoPtr(m)
	}
	result.Elapsed = fmt.Sprintf("%.1fs", time.Since(start).Seconds())
	return output.Print(result)
}
