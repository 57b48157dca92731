package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/romaklym/kronsteen"
	"github.com/romaklym/kronsteen/pkg/match"
)

// matchInfo is the compact match representation shared by find, click,
// and wait output.
type matchInfo struct {
	Text       string  `yaml:"text,omitempty"  json:"text,omitempty"`
	X          int     `yaml:"x"               json:"x"`
	Y          int     `yaml:"y"               json:"y"`
	Width      int     `yaml:"w"               json:"w"`
	Height     int     `yaml:"h"               json:"h"`
	Confidence float64 `yaml:"confidence"      json:"confidence"`
}

func toMatchInfo(m match.Match) matchInfo {
	return matchInfo{
		Text:       m.Text,
		X:          m.Region.X,
		Y:          m.Region.Y,
		Width:      m.Region.Width,
		Height:     m.Region.Height,
		Confidence: m.Confidence,
	}
}

func matchInfoPtr(m match.Match) *matchInfo {
	mi := toMatchInfo(m)
	return &mi
}

// addTextMatchFlags registers the query-refinement flags shared by the
// text-driven commands.
func addTextMatchFlags(cmd *cobra.Command) {
	cmd.Flags().String("mode", "contains", "Text comparison mode: contains, equals, starts-with, regex")
	cmd.Flags().Bool("case-sensitive", false, "Require exact-case text match")
	cmd.Flags().String("region", "", "Limit search to a region: \"x,y,w,h\" in physical pixels")
	cmd.Flags().String("template", "", "Match a template image file instead of text")
}

// textOptionsFromFlags builds TextOptions from the shared flags.
func textOptionsFromFlags(cmd *cobra.Command) (kronsteen.TextOptions, error) {
	var opts kronsteen.TextOptions

	modeStr, _ := cmd.Flags().GetString("mode")
	mode, err := match.ParseMode(modeStr)
	if err != nil {
		return opts, err
	}
	opts.Mode = mode
	opts.CaseSensitive, _ = cmd.Flags().GetBool("case-sensitive")

	region, err := regionFromFlags(cmd)
	if err != nil {
		return opts, err
	}
	opts.Region = region
	return opts, nil
}

func templateOptionsFromFlags(cmd *cobra.Command) (kronsteen.TemplateOptions, error) {
	var opts kronsteen.TemplateOptions
	region, err := regionFromFlags(cmd)
	if err != nil {
		return opts, err
	}
	opts.Region = region
	opts.Confidence, _ = rootCmd.PersistentFlags().GetFloat64("confidence")
	return opts, nil
}

func regionFromFlags(cmd *cobra.Command) (*match.Region, error) {
	regionStr, _ := cmd.Flags().GetString("region")
	if regionStr == "" {
		return nil, nil
	}
	region, err := match.ParseRegion(regionStr)
	if err != nil {
		return nil, fmt.Errorf("invalid --region: %w", err)
	}
	return &region, nil
}

// queryArg resolves the positional text query, requiring it unless a
// --template path was given instead.
func queryArg(cmd *cobra.Command, args []string) (text, template string, err error) {
	template, _ = cmd.Flags().GetString("template")
	if len(args) > 0 {
		text = args[0]
	}
	if text == "" && template == "" {
		return "", "", fmt.Errorf("specify text to find or --template image path")
	}
	if text != "" && template != "" {
		return "", "", fmt.Errorf("text and --template are mutually exclusive")
	}
	return text, template, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
