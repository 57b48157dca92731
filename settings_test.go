package kronsteen

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/romaklym/kronsteen/pkg/vision"
)

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	if s.DefaultTimeout != 10*time.Second {
		t.Errorf("expected 10s default timeout, got %v", s.DefaultTimeout)
	}
	if s.RetryInterval != 500*time.Millisecond {
		t.Errorf("expected 500ms retry interval, got %v", s.RetryInterval)
	}
	if !s.FailSafe {
		t.Error("expected the fail-safe armed by default")
	}
	if s.MinConfidence != 0.8 {
		t.Errorf("expected 0.8 confidence cut, got %v", s.MinConfidence)
	}
	if s.CaseSensitive {
		t.Error("expected case-insensitive matching by default")
	}
	if s.Engine != vision.EngineTesseract {
		t.Errorf("expected tesseract default, got %v", s.Engine)
	}
}

func TestSettingsFromEnv(t *testing.T) {
	t.Setenv("KRONSTEEN_DEFAULT_TIMEOUT", "30s")
	t.Setenv("KRONSTEEN_RETRY_INTERVAL", "0.25")
	t.Setenv("KRONSTEEN_FAILSAFE", "false")
	t.Setenv("KRONSTEEN_DEFAULT_CONFIDENCE", "0.6")
	t.Setenv("KRONSTEEN_CASE_SENSITIVE", "true")
	t.Setenv("KRONSTEEN_OCR_ENGINE", "ollama")
	t.Setenv("KRONSTEEN_OLLAMA_MODEL", "llava")

	s := SettingsFromEnv()
	if s.DefaultTimeout != 30*time.Second {
		t.Errorf("expected 30s, got %v", s.DefaultTimeout)
	}
	if s.RetryInterval != 250*time.Millisecond {
		t.Errorf("bare seconds must parse, got %v", s.RetryInterval)
	}
	if s.FailSafe {
		t.Error("expected fail-safe off")
	}
	if s.MinConfidence != 0.6 {
		t.Errorf("expected 0.6, got %v", s.MinConfidence)
	}
	if !s.CaseSensitive {
		t.Error("expected case-sensitive matching")
	}
	if s.Engine != vision.EngineOllama {
		t.Errorf("expected ollama, got %v", s.Engine)
	}
	if s.OllamaModel != "llava" {
		t.Errorf("expected llava, got %q", s.OllamaModel)
	}
}

func TestSettingsFromEnv_UnsetKeepsDefaults(t *testing.T) {
	for _, name := range []string{
		"KRONSTEEN_DEFAULT_TIMEOUT", "KRONSTEEN_RETRY_INTERVAL", "KRONSTEEN_FAILSAFE",
		"KRONSTEEN_DEFAULT_CONFIDENCE", "KRONSTEEN_CASE_SENSITIVE", "KRONSTEEN_OCR_ENGINE",
		"KRONSTEEN_DEFAULT_PAUSE", "KRONSTEEN_OLLAMA_URL", "KRONSTEEN_OLLAMA_MODEL",
		"KRONSTEEN_TESSERACT_PATH",
	} {
		os.Unsetenv(name)
	}
	if SettingsFromEnv() != DefaultSettings() {
		t.Error("unset environment must yield the defaults")
	}
}

func TestSettingsFromEnv_InvalidValuesIgnored(t *testing.T) {
	t.Setenv("KRONSTEEN_DEFAULT_TIMEOUT", "soon")
	t.Setenv("KRONSTEEN_OCR_ENGINE", "gpt4v")

	s := SettingsFromEnv()
	if s.DefaultTimeout != DefaultSettings().DefaultTimeout {
		t.Errorf("unparseable duration must keep the default, got %v", s.DefaultTimeout)
	}
	if s.Engine != vision.EngineTesseract {
		t.Errorf("unknown engine must keep the default, got %v", s.Engine)
	}
}

func TestLoadSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	content := "default_timeout: 25s\nengine: ollama\nmin_confidence: 0.7\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write settings: %v", err)
	}

	s, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if s.DefaultTimeout != 25*time.Second {
		t.Errorf("expected 25s, got %v", s.DefaultTimeout)
	}
	if s.Engine != vision.EngineOllama {
		t.Errorf("expected ollama, got %v", s.Engine)
	}
	if s.MinConfidence != 0.7 {
		t.Errorf("expected 0.7, got %v", s.MinConfidence)
	}
	// Fields absent from the file keep their defaults.
	if s.RetryInterval != DefaultSettings().RetryInterval {
		t.Errorf("expected default retry interval, got %v", s.RetryInterval)
	}
}

func TestLoadSettings_MissingFile(t *testing.T) {
	if _, err := LoadSettings(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestLoadSettings_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte("default_timeout: [oops"), 0o600); err != nil {
		t.Fatalf("write settings: %v", err)
	}
	if _, err := LoadSettings(path); err == nil {
		t.Error("expected a parse error")
	}
}

func TestOptions(t *testing.T) {
	s := DefaultSettings()
	for _, opt := range []Option{
		WithDefaultTimeout(time.Minute),
		WithRetryInterval(50 * time.Millisecond),
		WithFailSafe(false),
		WithDefaultPause(0),
		WithMinConfidence(0.5),
		WithCaseSensitive(true),
	} {
		opt(&s)
	}
	if s.DefaultTimeout != time.Minute || s.RetryInterval != 50*time.Millisecond ||
		s.FailSafe || s.DefaultPause != 0 || s.MinConfidence != 0.5 || !s.CaseSensitive {
		t.Errorf("options not applied: %+v", s)
	}
}
