package cli

import (
	"errors"
	"strings"
	"testing"
)

func TestCommandOpenerAppendsURL(t *testing.T) {
	o := newCommandOpener("firefox --new-tab")
	var gotName string
	var gotArgs []string
	o.start = func(name string, args ...string) error {
		gotName = name
		gotArgs = args
		return nil
	}

	if err := o.Open("https://example.com/a"); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if gotName != "firefox" || strings.Join(gotArgs, " ") != "--new-tab https://example.com/a" {
		t.Fatalf("unexpected command: %s %v", gotName, gotArgs)
	}

	// The configured argv is not mutated between calls.
	if err := o.Open("https://example.com/b"); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if strings.Join(gotArgs, " ") != "--new-tab https://example.com/b" {
		t.Fatalf("unexpected args on second open: %v", gotArgs)
	}
}

func TestCommandOpenerErrors(t *testing.T) {
	o := newCommandOpener("browser")
	o.start = func(name string, args ...string) error { return errors.New("not found") }

	if err := o.Open(""); err == nil {
		t.Fatalf("expected error for empty url")
	}
	err := o.Open("https://example.com")
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected start error, got %v", err)
	}
}
