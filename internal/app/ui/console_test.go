package ui

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"wschat/internal/app/chat"
	"wschat/internal/app/user"
	"wschat/internal/pkg/errs"
)

// fakeSession records what the console asks of the chat session.
type fakeSession struct {
	mu sync.Mutex

	self   user.User
	logins []string
	sent   []string

	// dropNext makes the next n submits fail as if the socket were not open.
	dropNext int
	closed   bool
}

func (s *fakeSession) Login(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logins = append(s.logins, name)
	if strings.TrimSpace(name) == "" {
		return errs.NewError(errs.ErrEmptyName)
	}
	s.self.Name = strings.TrimSpace(name)
	return nil
}

func (s *fakeSession) SubmitChat(_ context.Context, in chat.Input) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errs.NewError(errs.ErrSessionClosed)
	}
	if s.dropNext > 0 {
		s.dropNext--
		return errs.NewError(errs.ErrNotConnected)
	}
	content := strings.TrimSpace(in.Value())
	if content == "" {
		return errs.NewError(errs.ErrEmptyContent)
	}
	s.sent = append(s.sent, content)
	in.Clear()
	return nil
}

func (s *fakeSession) Self(context.Context) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.self, nil
}

type touchCounter struct {
	mu sync.Mutex
	n  int
}

func (c *touchCounter) Touch() {
	c.mu.Lock()
	c.n++
	c.mu.Unlock()
}

func runConsole(t *testing.T, session *fakeSession, prefill, input string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	term := NewTerminal(&out, 60, false)
	console := NewConsole(session, term, strings.NewReader(input), nil)

	err := console.Run(context.Background(), prefill)
	return out.String(), err
}

func TestConsoleRepromptsBlankNames(t *testing.T) {
	session := &fakeSession{}

	out, err := runConsole(t, session, "", "\n   \nana\n/quit\nnão enviar\n")
	if err != nil {
		t.Fatalf("Run returned %v", err)
	}

	if got := strings.Join(session.logins, "|"); got != "|   |ana" {
		t.Errorf("unexpected login attempts %q", got)
	}
	if n := strings.Count(out, "Seu nome: "); n != 3 {
		t.Errorf("expected 3 name prompts, got %d", n)
	}
	if len(session.sent) != 0 {
		t.Errorf("expected nothing sent after /quit, got %q", session.sent)
	}
}

func TestConsoleUsesPrefilledName(t *testing.T) {
	session := &fakeSession{}

	out, err := runConsole(t, session, "bia", "oi\n")
	if err != nil {
		t.Fatalf("Run returned %v", err)
	}

	if strings.Join(session.logins, "|") != "bia" {
		t.Errorf("unexpected login attempts %q", session.logins)
	}
	if strings.Contains(out, "Seu nome: ") {
		t.Error("prefilled name must skip the name prompt")
	}
	if strings.Join(session.sent, "|") != "oi" {
		t.Errorf("unexpected sent messages %q", session.sent)
	}
}

func TestConsoleKeepsDraftWhenSendIsDropped(t *testing.T) {
	session := &fakeSession{dropNext: 1}

	out, err := runConsole(t, session, "", "ana\nolá\n\n")
	if err != nil {
		t.Fatalf("Run returned %v", err)
	}

	if !strings.Contains(out, "(enter reenvia: olá) > ") {
		t.Errorf("expected prompt to show the kept draft, got %q", out)
	}
	if strings.Join(session.sent, "|") != "olá" {
		t.Errorf("expected the draft to be re-sent once, got %q", session.sent)
	}
}

func TestConsoleIgnoresEmptyLines(t *testing.T) {
	session := &fakeSession{}

	if _, err := runConsole(t, session, "ana", "\n   \n"); err != nil {
		t.Fatalf("Run returned %v", err)
	}
	if len(session.sent) != 0 {
		t.Errorf("expected nothing sent, got %q", session.sent)
	}
}

func TestConsoleSidebarCommands(t *testing.T) {
	session := &fakeSession{self: user.User{ID: "u1", Color: "#34D399"}}

	out, err := runConsole(t, session, "ana", "/users\n/close\n/me\n")
	if err != nil {
		t.Fatalf("Run returned %v", err)
	}

	for _, want := range []string{"Online (0)", "(lista de usuários oculta)", "Logado como:\n(A) ana"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output %q", want, out)
		}
	}
	if len(session.sent) != 0 {
		t.Errorf("commands must not be sent as chat, got %q", session.sent)
	}
}

func TestConsoleStopsWhenSessionCloses(t *testing.T) {
	session := &fakeSession{closed: true}

	_, err := runConsole(t, session, "ana", "oi\nmais\n")
	if !errs.Is(err, errs.ErrSessionClosed) {
		t.Fatalf("expected ErrSessionClosed, got %v", err)
	}
}

func TestConsoleTouchesActivity(t *testing.T) {
	session := &fakeSession{}
	activity := &touchCounter{}

	var out bytes.Buffer
	console := NewConsole(session, NewTerminal(&out, 60, false), strings.NewReader("ana\noi\n/users\n"), activity)
	if err := console.Run(context.Background(), ""); err != nil {
		t.Fatalf("Run returned %v", err)
	}

	activity.mu.Lock()
	defer activity.mu.Unlock()
	if activity.n != 3 {
		t.Errorf("expected 3 touches, got %d", activity.n)
	}
}

func TestConsoleReturnsOnCancel(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	var out bytes.Buffer
	console := NewConsole(&fakeSession{}, NewTerminal(&out, 60, false), pr, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- console.Run(ctx, "ana") }()

	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
