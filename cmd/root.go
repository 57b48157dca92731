package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/romaklym/kronsteen"
	"github.com/romaklym/kronsteen/internal/output"
	"github.com/romaklym/kronsteen/internal/version"
	"github.com/romaklym/kronsteen/pkg/vision"
)

var rootCmd = &cobra.Command{
	Use:   "kronsteen",
	Short: "Vision-driven desktop automation",
	Long:  "A CLI that finds on-screen text and images with OCR and template matching, then drives mouse and keyboard input against them.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version.Version, version.Commit, version.BuildDate)
	rootCmd.PersistentFlags().String("format", "yaml", "Output format: yaml, json")
	rootCmd.PersistentFlags().Bool("pretty", false, "Pretty-print JSON output")
	rootCmd.PersistentFlags().String("engine", "", "OCR engine: tesseract, ollama")
	rootCmd.PersistentFlags().Float64("timeout", 0, "Max seconds to wait for a visual match (0 = configured default)")
	rootCmd.PersistentFlags().Int("interval", 0, "Polling interval in milliseconds (0 = configured default)")
	rootCmd.PersistentFlags().Float64("confidence", 0, "Minimum match confidence 0..1 (0 = configured default)")
	rootCmd.PersistentFlags().Bool("verbose", false, "Log wait-loop and focus-gate activity to stderr")
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		format, _ := rootCmd.PersistentFlags().GetString("format")
		switch format {
		case "yaml":
			output.OutputFormat = output.FormatYAML
		case "json":
			output.OutputFormat = output.FormatJSON
		default:
			return fmt.Errorf("unsupported format: %s (use yaml or json)", format)
		}
		if pretty, err := rootCmd.PersistentFlags().GetBool("pretty"); err == nil && pretty {
			output.PrettyOutput = true
		}
		return nil
	}
}

// newClient builds a client from the environment and overlays the root
// persistent flags that were explicitly set.
func newClient(cmd *cobra.Command) (*kronsteen.Client, error) {
	settings := kronsteen.SettingsFromEnv()

	flags := rootCmd.PersistentFlags()
	if engineStr, _ := flags.GetString("engine"); engineStr != "" {
		engine, err := vision.ParseEngine(engineStr)
		if err != nil {
			return nil, err
		}
		settings.Engine = engine
	}
	if timeoutSec, _ := flags.GetFloat64("timeout"); timeoutSec > 0 {
		settings.DefaultTimeout = time.Duration(timeoutSec * float64(time.Second))
	}
	if intervalMs, _ := flags.GetInt("interval"); intervalMs > 0 {
		settings.RetryInterval = time.Duration(intervalMs) * time.Millisecond
	}
	if confidence, _ := flags.GetFloat64("confidence"); confidence > 0 {
		settings.MinConfidence = confidence
	}

	opts := []kronsteen.ClientOption{kronsteen.WithSettings(settings)}
	if verbose, _ := flags.GetBool("verbose"); verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			return nil, err
		}
		opts = append(opts, kronsteen.WithLogger(logger))
	}
	return kronsteen.New(opts...)
}
