package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/romaklym/kronsteen/internal/output"
)

// FindResult is the output of a find command.
type FindResult struct {
	OK      bool        `yaml:"ok"                json:"ok"`
	Action  string      `yaml:"action"            json:"action"`
	Query   string      `yaml:"query"             json:"query"`
	Elapsed string      `yaml:"elapsed"           json:"elapsed"`
	Matches []matchInfo `yaml:"matches"           json:"matches"`
	Total   int         `yaml:"total"             json:"total"`
}

var findCmd = &cobra.Command{
	Use:   "find [text]",
	Short: "Find text or a template image on screen",
	Long:  "Wait until the given text (via OCR) or template image appears on screen, then print the matching regions. Exits non-zero when nothing appears before the timeout.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runFind,
}

func init() {
	rootCmd.AddCommand(findCmd)
	addTextMatchFlags(findCmd)
	findCmd.Flags().Bool("all", false, "Print every match from a single capture instead of waiting for the best one")
}

func runFind(cmd *cobra.Command, args []string) error {
	text, template, err := queryArg(cmd, args)
	if err != nil {
		return err
	}

	client, err := newClient(cmd)
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	start := time.Now()

	result := FindResult{OK: true, Action: "find", Query: text}
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
		result.Matches = []matchInfo{toMatchInfo(m)}
	} else {
		opts, err := textOptionsFromFlags(cmd)
		if err != nil {
			return err
		}
		all, _ := cmd.Flags().GetBool("all")
		if all {
			matches, err := client.FindAllText(ctx, text, opts)
			if err != nil {
				return err
			}
			for _, m := range matches {
				result.Matches = append(result.Matches, toMatchInfo(m))
			}
		} else {
			m, err := client.FindText(ctx, text, opts)
			if err != nil {
				return err
			}
			result.Matches = []matchInfo{toMatchInfo(m)}
		}
	}

	result.Elapsed = fmt.Sprintf("%.1fs", time.Since(start).Seconds())
	result.Total = len(result.Matches)
	if result.Matches == nil {
		result.Matches = []matchInfo{}
	}
	return output.Print(result)
}
