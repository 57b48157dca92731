package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/romaklym/kronsteen/pkg/focus"
)

var watchCmd = &cobra.Command{
	Use:   "watch <window name>",
	Short: "Watch a window's focus state and stream transitions as JSONL",
	Long: `Continuously monitor whether the named window holds foreground focus and
emit one JSON line per state transition.

Output is always JSONL regardless of the --format flag.

Use Ctrl+C or --duration to stop watching.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().Int("interval", 500, "Polling interval in milliseconds")
	watchCmd.Flags().Int("duration", 0, "Max seconds to watch (0 = until Ctrl+C)")
	watchCmd.Flags().Bool("exact", false, "Require exact window title match instead of substring")
}

func runWatch(cmd *cobra.Command, args []string) error {
	windowName := args[0]
	intervalMs, _ := cmd.Flags().GetInt("interval")
	durationSec, _ := cmd.Flags().GetInt("duration")
	exact, _ := cmd.Flags().GetBool("exact")

	client, err := newClient(cmd)
	if err != nil {
		return err
	}

	cfg := focus.Config{
		WindowName:    windowName,
		CheckInterval: time.Duration(intervalMs) * time.Millisecond,
		Exact:         exact,
	}
	if err := client.StartWindowMonitoring(cfg); err != nil {
		return err
	}
	defer client.StopWindowMonitoring()

	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)

	enc.Encode(map[string]interface{}{
		"type":   "start",
		"ts":     time.Now().Unix(),
		"window": windowName,
	})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var deadline <-chan time.Time
	if durationSec > 0 {
		deadline = time.After(time.Duration(durationSec) * time.Second)
	}

	ticker := time.NewTicker(cfg.CheckInterval)
	defer ticker.Stop()

	start := time.Now()
	prev := client.FocusState()
	transitions := 0

loop:
	for {
		select {
		case <-sigCh:
			break loop
		case <-deadline:
			break loop
		case <-ticker.C:
			state := client.FocusState()
			if state == prev {
				continue
			}
			enc.Encode(map[string]interface{}{
				"type":  "transition",
				"ts":    time.Now().Unix(),
				"from":  prev.String(),
				"to":    state.String(),
				"focus": state == focus.Focused,
			})
			prev = state
			transitions++
		}
	}

	enc.Encode(map[string]interface{}{
		"type":        "done",
		"ts":          time.Now().Unix(),
		"elapsed":     fmt.Sprintf("%.1fs", time.Since(start).Seconds()),
		"transitions": transitions,
	})
	return nil
}
