package terminal

import (
	"strings"
	"testing"

	"tinykernel/internal/keyboard"
	"tinykernel/internal/vfs"
)

func newTestSession(t *testing.T, endpointID uint32) (*Session, *strings.Builder) {
	t.Helper()
	var console strings.Builder
	s := NewSession(endpointID, nil, &console, vfs.NewContext(), nil)
	return s, &console
}

func typeText(s *Session, text string) error {
	for _, r := range text {
		if err := s.HandleEvent(keyboard.Event{Kind: keyboard.KindText, Text: r}); err != nil {
			return err
		}
	}
	return nil
}

func pressEnter(s *Session) error {
	return s.HandleEvent(keyboard.Event{Kind: keyboard.KindControl, Code: keyboard.Enter})
}

func TestTypingAccumulatesIntoInputBuffer(t *testing.T) {
	s, _ := newTestSession(t, 1)
	typeText(s, "hello")
	if s.InputBuffer() != "hello" || s.InputLen() != 5 {
		t.Fatalf("InputBuffer = %q, InputLen = %d", s.InputBuffer(), s.InputLen())
	}
}

func TestBackspaceTrimsLastRune(t *testing.T) {
	s, _ := newTestSession(t, 1)
	typeText(s, "hello")
	s.HandleEvent(keyboard.Event{Kind: keyboard.KindControl, Code: keyboard.Backspace})
	if s.InputBuffer() != "hell" {
		t.Fatalf("InputBuffer = %q, want hell", s.InputBuffer())
	}
}

func TestBackspaceOnEmptyBufferIsNoop(t *testing.T) {
	s, _ := newTestSession(t, 1)
	if err := s.HandleEvent(keyboard.Event{Kind: keyboard.KindControl, Code: keyboard.Backspace}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.InputLen() != 0 {
		t.Fatalf("InputLen = %d, want 0", s.InputLen())
	}
}

func TestEnterCommitsAndClearsBuffer(t *testing.T) {
	s, console := newTestSession(t, 1)
	typeText(s, "echo hi")
	if err := pressEnter(s); err != nil {
		t.Fatalf("pressEnter: %v", err)
	}
	if s.InputLen() != 0 {
		t.Fatalf("InputLen after enter = %d, want 0", s.InputLen())
	}
	if s.LinesExecuted() != 1 {
		t.Fatalf("LinesExecuted = %d, want 1", s.LinesExecuted())
	}
	if console.String() != "echo: hi\n" {
		t.Fatalf("console = %q, want echo output", console.String())
	}
}

func TestTwoIndependentSessionsTrackOwnState(t *testing.T) {
	left, leftConsole := newTestSession(t, 1)
	right, rightConsole := newTestSession(t, 2)

	typeText(left, "hello")
	pressEnter(left)

	typeText(right, "hi")
	pressEnter(right)

	if left.LinesExecuted() != 1 || right.LinesExecuted() != 1 {
		t.Fatalf("expected each session to have executed exactly one line")
	}
	if leftConsole.String() != "echo: hello\n" {
		t.Fatalf("left console = %q", leftConsole.String())
	}
	if rightConsole.String() != "echo: hi\n" {
		t.Fatalf("right console = %q", rightConsole.String())
	}
	if left.Marker() == right.Marker() {
		t.Fatal("distinct endpoint ids and distinct commands should diverge the marker hash")
	}
}

func TestHistoryRingWrapsAtCapacity(t *testing.T) {
	s, _ := newTestSession(t, 1)
	for i := 0; i < 10; i++ {
		typeText(s, "pwd")
		pressEnter(s)
	}
	if s.HistoryCount() != 8 {
		t.Fatalf("HistoryCount = %d, want 8 (capped)", s.HistoryCount())
	}
}

func TestCwdCacheUpdatesAfterCd(t *testing.T) {
	s, _ := newTestSession(t, 1)
	typeText(s, "mkdir /projects")
	pressEnter(s)
	typeText(s, "cd /projects")
	pressEnter(s)
	if s.Cwd() != "/projects" {
		t.Fatalf("Cwd = %q, want /projects", s.Cwd())
	}
}

func TestMarkerIsDeterministicAcrossEquivalentRuns(t *testing.T) {
	s1, _ := newTestSession(t, 7)
	s2, _ := newTestSession(t, 7)
	for _, line := range []string{"echo a", "mkdir /x", "cd /x"} {
		typeText(s1, line)
		pressEnter(s1)
		typeText(s2, line)
		pressEnter(s2)
	}
	if s1.Marker() != s2.Marker() {
		t.Fatal("identical endpoint id and command sequence should produce identical marker hashes")
	}
}
