package preview

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func stubClipboard(t *testing.T, system, osc func(string) error) {
	t.Helper()
	origWriteAll := clipboardWriteAll
	origWriteOSC52 := clipboardWriteOSC52
	t.Cleanup(func() {
		clipboardWriteAll = origWriteAll
		clipboardWriteOSC52 = origWriteOSC52
	})
	clipboardWriteAll = system
	clipboardWriteOSC52 = osc
}

func TestCopyTextToClipboardUsesSystemBackend(t *testing.T) {
	fallbackCalled := false
	stubClipboard(t, func(string) error { return nil }, func(string) error {
		fallbackCalled = true
		return nil
	})

	method, err := copyTextToClipboard("hello")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if method != clipboardMethodSystem {
		t.Fatalf("expected system method, got %v", method)
	}
	if fallbackCalled {
		t.Fatalf("expected no OSC52 fallback call")
	}
}

func TestCopyTextToClipboardFallsBackToOSC52(t *testing.T) {
	stubClipboard(t, func(string) error { return errors.New("exit status 1") }, func(string) error { return nil })

	method, err := copyTextToClipboard("hello")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if method != clipboardMethodOSC52 {
		t.Fatalf("expected OSC52 method, got %v", method)
	}
}

func TestCopyTextToClipboardHelpfulErrorWhenDisplayMissing(t *testing.T) {
	t.Setenv("DISPLAY", "")
	t.Setenv("WAYLAND_DISPLAY", "")
	stubClipboard(t,
		func(string) error { return errors.New("exit status 1") },
		func(string) error { return errors.New("open /dev/tty: no such device") })

	_, err := copyTextToClipboard("hello")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "no GUI clipboard available") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestWriteOSC52SequenceWrapsForTmux(t *testing.T) {
	t.Setenv("TMUX", "/tmp/tmux-1000/default,1,0")
	t.Setenv("TERM", "xterm-256color")

	var buf bytes.Buffer
	if err := writeOSC52Sequence(&buf, "sheet"); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := buf.String()
	if strings.Count(out, "\x1b]52;") != 2 {
		t.Fatalf("expected plain and tmux sequences, got %q", out)
	}
	if !strings.Contains(out, "\x1bPtmux;") {
		t.Fatalf("expected tmux passthrough, got %q", out)
	}
}

func TestShouldAttemptOSC52(t *testing.T) {
	t.Setenv("TERM", "dumb")
	if shouldAttemptOSC52() {
		t.Fatalf("expected dumb terminal to be rejected")
	}
	t.Setenv("TERM", "xterm")
	t.Setenv("TABSYNC_DISABLE_OSC52", "yes")
	if shouldAttemptOSC52() {
		t.Fatalf("expected opt-out to be honored")
	}
	t.Setenv("TABSYNC_DISABLE_OSC52", "")
	if !shouldAttemptOSC52() {
		t.Fatalf("expected xterm to allow OSC52")
	}
}
