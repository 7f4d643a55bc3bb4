package ui

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"

	"wschat/internal/app/chat"
	"wschat/internal/app/user"
	"wschat/internal/pkg/errs"
	"wschat/internal/pkg/logx"
)

// ChatSession is the part of chat.Session the console drives.
type ChatSession interface {
	Login(ctx context.Context, name string) error
	SubmitChat(ctx context.Context, in chat.Input) error
	Self(ctx context.Context) (user.User, error)
}

// Activity receives a signal each time the user enters a line.
type Activity interface {
	Touch()
}

// Console reads the login form and then the chat form from a line-oriented input.
type Console struct {
	session  ChatSession
	term     *Terminal
	in       io.Reader
	activity Activity

	// field is the chat form input; it keeps the draft when a send is dropped.
	field Field
}

// NewConsole returns a Console reading lines from in. activity may be nil.
func NewConsole(session ChatSession, term *Terminal, in io.Reader, activity Activity) *Console {
	return &Console{
		session:  session,
		term:     term,
		in:       in,
		activity: activity,
	}
}

// errQuit ends the chat loop on /quit.
var errQuit = errors.New("quit")

// Run shows the login screen, logs in with the first non-blank name (starting with
// prefill, if any) and then forwards chat lines until /quit, end of input or ctx ends.
func (c *Console) Run(ctx context.Context, prefill string) error {
	stop := make(chan struct{})
	defer close(stop)

	lines := c.readLines(stop)

	c.term.ShowLogin()

	loggedIn := false
	if strings.TrimSpace(prefill) != "" {
		if err := c.login(ctx, prefill); err != nil {
			return err
		}
		loggedIn = true
	}

	for !loggedIn {
		c.term.LoginPrompt()

		line, ok, err := next(ctx, lines)
		if err != nil || !ok {
			return err
		}
		c.term.Consumed()
		c.touch()

		err = c.login(ctx, line)
		if errs.Is(err, errs.ErrEmptyName) {
			continue
		}
		if err != nil {
			return err
		}
		loggedIn = true
	}

	for {
		c.term.Prompt(c.field.Value())

		line, ok, err := next(ctx, lines)
		if err != nil || !ok {
			return err
		}
		c.term.Consumed()
		c.touch()

		if err := c.handleLine(ctx, line); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			return err
		}
	}
}

func (c *Console) login(ctx context.Context, name string) error {
	err := c.session.Login(ctx, name)
	if err != nil && !errs.Is(err, errs.ErrEmptyName) {
		logx.Error(err, "Login failed")
	}
	return err
}

// handleLine runs a command or submits the line through the chat form.
func (c *Console) handleLine(ctx context.Context, line string) error {
	switch strings.TrimSpace(line) {
	case "/quit":
		return errQuit

	case "/users":
		c.term.OpenSidebar()
		return nil

	case "/close":
		c.term.CloseSidebar()
		return nil

	case "/me":
		self, err := c.session.Self(ctx)
		if err != nil {
			return err
		}
		c.term.RenderUserInfo(self)
		return nil

	case "":
		if c.field.Value() == "" {
			return nil
		}

	default:
		c.field.Set(line)
	}

	err := c.session.SubmitChat(ctx, &c.field)
	switch {
	case err == nil:
	case errs.Is(err, errs.ErrSessionClosed):
		return err
	default:
		logx.Debug("Chat message dropped", "reason", err.Error())
	}
	return nil
}

func (c *Console) touch() {
	if c.activity != nil {
		c.activity.Touch()
	}
}

// readLines scans c.in in the background until end of input or stop is closed. The
// channel is closed when scanning ends.
func (c *Console) readLines(stop <-chan struct{}) <-chan string {
	lines := make(chan string)

	go func() {
		defer close(lines)

		scanner := bufio.NewScanner(c.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-stop:
				return
			}
		}
		if err := scanner.Err(); err != nil {
			logx.Error(err, "Failed to read input")
		}
	}()

	return lines
}

// next returns the next line, ok=false at end of input, or ctx's error.
func next(ctx context.Context, lines <-chan string) (string, bool, error) {
	select {
	case line, ok := <-lines:
		return line, ok, nil
	case <-ctx.Done():
		return "", false, ctx.Err()
	}
}
