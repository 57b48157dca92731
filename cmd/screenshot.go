package cmd

import (
	"github.com/spf13/cobra"

	"github.com/romaklym/kronsteen/internal/output"
)

// ScreenshotResult is the output of a screenshot command.
type ScreenshotResult struct {
	OK     bool   `yaml:"ok"               json:"ok"`
	Action string `yaml:"action"           json:"action"`
	Path   string `yaml:"path"             json:"path"`
	Region string `yaml:"region,omitempty" json:"region,omitempty"`
}

var screenshotCmd = &cobra.Command{
	Use:   "screenshot [path]",
	Short: "Capture the screen to a PNG file",
	Long:  "Capture the full screen, or a region of it, and write the result as PNG. Coordinates are physical pixels.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runScreenshot,
}

func init() {
	rootCmd.AddCommand(screenshotCmd)
	screenshotCmd.Flags().String("region", "", "Capture only a region: \"x,y,w,h\" in physical pixels")
}

func runScreenshot(cmd *cobra.Command, args []string) error {
	path := "screenshot.png"
	if len(args) > 0 {
		path = args[0]
	}

	region, err := regionFromFlags(cmd)
	if err != nil {
		return err
	}

	client, err := newClient(cmd)
	if err != nil {
		return err
	}
	if err := client.SaveScreenshot(path, region); err != nil {
		return err
	}

	result := ScreenshotResult{OK: true, Action: "screenshot", Path: path}
	if region != nil {
		result.Region = region.String()
	}
	return output.Print(result)
}
