package cmd

import (
	"testing"
)

func TestFindCommand_Registered(t *testing.T) {
	commands := rootCmd.Commands()
	found := false
	for _, c := range commands {
		if c.Name() == "find" {
			found = true
			break
		}
	}
	if !found {
		t.Error("expected 'find' subcommand to be registered")
	}
}

func TestFindCommand_HasExpectedFlags(t *testing.T) {
	expectedFlags := []string{"all", "mode", "case-sensitive", "region", "template"}
	for _, name := range expectedFlags {
		if findCmd.Flags().Lookup(name) == nil {
			t.Errorf("expected flag --%s to exist on find command", name)
		}
	}
}

func TestFindCommand_DefaultMode(t *testing.T) {
	val, _ := findCmd.Flags().GetString("mode")
	if val != "contains" {
		t.Errorf("expected default mode to be contains, got %q", val)
	}
}

func TestQueryArg(t *testing.T) {
	// Positional text alone is valid.
	text, template, err := queryArg(findCmd, []string{"Submit"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "Submit" || template != "" {
		t.Errorf("expected text query, got text=%q template=%q", text, template)
	}

	// Neither text nor template is an error.
	if _, _, err := queryArg(findCmd, nil); err == nil {
		t.Error("expected error when no query is given")
	}
}

func TestQueryArg_TemplateExclusive(t *testing.T) {
	if err := findCmd.Flags().Set("template", "button.png"); err != nil {
		t.Fatalf("set flag: %v", err)
	}
	defer findCmd.Flags().Set("template", "")

	text, template, err := queryArg(findCmd, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "" || template != "button.png" {
		t.Errorf("expected template query, got text=%q template=%q", text, template)
	}

	// Text and template together must be rejected.
	if _, _, err := queryArg(findCmd, []string{"Submit"}); err == nil {
		t.Error("expected error when both text and --template are given")
	}
}
