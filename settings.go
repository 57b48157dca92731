package kronsteen

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/romaklym/kronsteen/pkg/vision"
)

// Settings are the runtime knobs for automation behavior. Every client owns
// its own Settings value, so independent clients can coexist in one process
// without shared configuration.
type Settings struct {
	// DefaultTimeout bounds find/wait operations when the caller gives no
	// explicit timeout.
	DefaultTimeout time.Duration `yaml:"default_timeout"`
	// RetryInterval is the sleep between wait-loop attempts.
	RetryInterval time.Duration `yaml:"retry_interval"`
	// FailSafe aborts input injection when the pointer is parked in the
	// top-left screen corner, giving the operator an emergency stop.
	FailSafe bool `yaml:"fail_safe"`
	// DefaultPause is inserted after every injected input action.
	DefaultPause time.Duration `yaml:"default_pause"`
	// MinConfidence is the default confidence cut for visual matches.
	MinConfidence float64 `yaml:"min_confidence"`
	// CaseSensitive switches text matching from the case-insensitive
	// default to exact-case comparison.
	CaseSensitive bool `yaml:"case_sensitive"`
	// Engine selects the OCR backend for text queries.
	Engine vision.Engine `yaml:"engine"`
	// OllamaURL and OllamaModel configure the ollama engine.
	OllamaURL   string `yaml:"ollama_url"`
	OllamaModel string `yaml:"ollama_model"`
	// TesseractPath overrides tesseract binary discovery.
	TesseractPath string `yaml:"tesseract_path"`
}

// DefaultSettings returns the stock configuration.
func DefaultSettings() Settings {
	return Settings{
		DefaultTimeout: 10 * time.Second,
		RetryInterval:  500 * time.Millisecond,
		FailSafe:       true,
		DefaultPause:   100 * time.Millisecond,
		MinConfidence:  0.8,
		Engine:         vision.EngineTesseract,
	}
}

// SettingsFromEnv overlays KRONSTEEN_* environment variables on the
// defaults. Unset variables leave the default untouched.
func SettingsFromEnv() Settings {
	s := DefaultSettings()
	if d, ok := envDuration("KRONSTEEN_DEFAULT_TIMEOUT"); ok {
		s.DefaultTimeout = d
	}
	if d, ok := envDuration("KRONSTEEN_RETRY_INTERVAL"); ok {
		s.RetryInterval = d
	}
	if b, ok := envBool("KRONSTEEN_FAILSAFE"); ok {
		s.FailSafe = b
	}
	if d, ok := envDuration("KRONSTEEN_DEFAULT_PAUSE"); ok {
		s.DefaultPause = d
	}
	if v := os.Getenv("KRONSTEEN_DEFAULT_CONFIDENCE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			s.MinConfidence = f
		}
	}
	if b, ok := envBool("KRONSTEEN_CASE_SENSITIVE"); ok {
		s.CaseSensitive = b
	}
	if v := os.Getenv("KRONSTEEN_OCR_ENGINE"); v != "" {
		if e, err := vision.ParseEngine(v); err == nil {
			s.Engine = e
		}
	}
	if v := os.Getenv("KRONSTEEN_OLLAMA_URL"); v != "" {
		s.OllamaURL = v
	}
	if v := os.Getenv("KRONSTEEN_OLLAMA_MODEL"); v != "" {
		s.OllamaModel = v
	}
	if v := os.Getenv("KRONSTEEN_TESSERACT_PATH"); v != "" {
		s.TesseractPath = v
	}
	return s
}

// LoadSettings overlays a YAML settings file on the defaults. Fields absent
// from the file keep their defaults.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()
	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("read settings file: %w", err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("parse settings file %s: %w", path, err)
	}
	return s, nil
}

// envDuration accepts both Go duration strings ("1.5s") and bare seconds
// ("1.5").
func envDuration(name string) (time.Duration, bool) {
	v := os.Getenv(name)
	if v == "" {
		return 0, false
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d, true
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(f * float64(time.Second)), true
	}
	return 0, false
}

func envBool(name string) (bool, bool) {
	v := os.Getenv(name)
	if v == "" {
		return false, false
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true, true
	default:
		return false, true
	}
}

// Option mutates a single setting. Configure applies options as a partial
// merge: settings not named by any option keep their current values.
type Option func(*Settings)

// WithDefaultTimeout sets the default find/wait timeout.
func WithDefaultTimeout(d time.Duration) Option {
	return func(s *Settings) { s.DefaultTimeout = d }
}

// WithRetryInterval sets the wait-loop polling interval.
func WithRetryInterval(d time.Duration) Option {
	return func(s *Settings) { s.RetryInterval = d }
}

// WithFailSafe toggles the corner-abort emergency stop.
func WithFailSafe(enabled bool) Option {
	return func(s *Settings) { s.FailSafe = enabled }
}

// WithDefaultPause sets the pause inserted after each input action.
func WithDefaultPause(d time.Duration) Option {
	return func(s *Settings) { s.DefaultPause = d }
}

// WithMinConfidence sets the default confidence cut.
func WithMinConfidence(c float64) Option {
	return func(s *Settings) { s.MinConfidence = c }
}

// WithCaseSensitive toggles exact-case text matching.
func WithCaseSensitive(enabled bool) Option {
	return func(s *Settings) { s.CaseSensitive = enabled }
}
