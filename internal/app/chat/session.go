/*
Package chat contains the client side of the chat protocol.

This file defines Session, which owns the local user and the single connection. All
session state is confined to the Run loop: UI actions, inbound frames and connection
events are queued as events and handled one at a time, in arrival order.
*/
package chat

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"wschat/internal/app/user"
	"wschat/internal/pkg/errs"
	"wschat/internal/pkg/limiter"
	"wschat/internal/pkg/logx"
	"wschat/internal/pkg/randx"
)

const (
	// DefaultTransitionDelay is how long the login screen takes to fade out.
	DefaultTransitionDelay = 500 * time.Millisecond

	// capacity of the session event queue.
	eventQueueSize = 256
)

// Static messages rendered when the connection goes away.
const (
	DisconnectedMessage    = "Você foi desconectado. Tente recarregar a página."
	ConnectionErrorMessage = "Erro de conexão. Verifique o console."
)

type sessionState int

const (
	stateLogin sessionState = iota
	stateConnecting
	stateOpen
	stateClosed
)

func (s sessionState) String() string {
	switch s {
	case stateLogin:
		return "login"
	case stateConnecting:
		return "connecting"
	case stateOpen:
		return "open"
	case stateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Options configures a Session.
type Options struct {
	// Endpoint is the ws:// or wss:// URL of the chat server.
	Endpoint string

	// SessionID tags log lines. A random one is generated when empty.
	SessionID string

	// TransitionDelay is the pause between leaving the login screen and dialing.
	// Zero means DefaultTransitionDelay; a negative value disables the pause.
	TransitionDelay time.Duration

	// Limiter guards outbound chat messages. Nil means unlimited.
	Limiter *limiter.SendLimiter

	// Notifier delivers notifications. Nil disables them.
	Notifier Notifier
}

// Session is one login of the local user against the chat server.
type Session struct {
	opts     Options
	view     View
	notifier Notifier

	// state below is owned by the Run loop.
	self    user.Self
	state   sessionState
	conn    *Conn
	closing bool

	// runCtx is the context Run was started with.
	runCtx context.Context

	// events is the queue drained by Run.
	events chan event

	// started is closed when Run begins, done when it returns.
	started chan struct{}
	done    chan struct{}

	// structured logger with session context.
	logger zerolog.Logger
}

// NewSession constructs a Session rendering into view. Run must be started before any
// other method is called.
func NewSession(view View, opts Options) *Session {
	if opts.SessionID == "" {
		opts.SessionID = randx.SessionID()
	}
	if opts.TransitionDelay == 0 {
		opts.TransitionDelay = DefaultTransitionDelay
	}

	var notifier Notifier = nopNotifier{}
	if opts.Notifier != nil {
		notifier = opts.Notifier
	}

	return &Session{
		opts:     opts,
		view:     view,
		notifier: notifier,
		state:    stateLogin,
		events:   make(chan event, eventQueueSize),
		started:  make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logx.ConnLogger(opts.Endpoint, opts.SessionID),
	}
}

// Run processes session events until ctx is cancelled. On return the connection, if
// any, has been closed.
func (s *Session) Run(ctx context.Context) {
	s.runCtx = ctx
	close(s.started)

	defer close(s.done)
	defer s.shutdown()

	s.logger.Debug().Msg("Session loop started.")

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug().Msg("Session loop stopping.")
			return

		case ev := <-s.events:
			ev.apply(s)
		}
	}
}

// Done is closed once Run has returned.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Login validates name, picks the avatar color and starts connecting. A blank name is
// rejected with ErrEmptyName and leaves the login screen untouched.
func (s *Session) Login(ctx context.Context, name string) error {
	return s.do(ctx, func() error {
		return s.login(name)
	})
}

// SubmitChat sends the content of in as a chat message. The message is dropped, and in
// left untouched, when the content is blank, the socket is not open, or the flood guard
// rejects it. On success in is cleared.
func (s *Session) SubmitChat(ctx context.Context, in Input) error {
	return s.do(ctx, func() error {
		return s.submitChat(in)
	})
}

// Self returns a snapshot of the local user.
func (s *Session) Self(ctx context.Context) (user.User, error) {
	var u user.User
	err := s.do(ctx, func() error {
		u = s.self.User
		return nil
	})
	return u, err
}

func (s *Session) login(name string) error {
	if s.state != stateLogin {
		return errs.NewError(errs.ErrAlreadyConnected)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return errs.NewError(errs.ErrEmptyName)
	}

	s.self.Name = name
	s.self.Color = randx.Color()
	s.state = stateConnecting

	s.logger.Info().
		Str("name", s.self.Name).
		Str("color", s.self.Color).
		Msg("Logging in.")

	s.view.LeaveLogin()

	delay := s.opts.TransitionDelay
	ctx := s.runCtx
	go func() {
		if delay > 0 {
			timer := time.NewTimer(delay)
			defer timer.Stop()

			select {
			case <-timer.C:
			case <-ctx.Done():
				return
			}
		}
		s.post(transitionDone{})
	}()

	return nil
}

func (s *Session) submitChat(in Input) error {
	content := strings.TrimSpace(in.Value())
	if content == "" {
		return errs.NewError(errs.ErrEmptyContent)
	}

	if s.state != stateOpen || s.conn == nil {
		return errs.NewError(errs.ErrNotConnected)
	}

	if !s.opts.Limiter.Allow(time.Now()) {
		s.logger.Debug().Msg("Outbound message rejected by flood guard.")
		return errs.NewError(errs.ErrRateLimited)
	}

	if err := s.conn.Send(NewTextEnvelope(content)); err != nil {
		return err
	}

	in.Clear()
	return nil
}

// connect dials off the loop and reports the outcome as an event.
func (s *Session) connect() {
	ctx := s.runCtx
	go func() {
		conn, err := Dial(ctx, s.opts.Endpoint, s.logger)
		if err != nil {
			s.post(dialFailed{err: err})
			return
		}
		if !s.post(connOpened{conn: conn}) {
			conn.Close()
		}
	}()
}

// onOpen adopts conn as the session connection and sends the login envelope.
func (s *Session) onOpen(conn *Conn) {
	if s.state != stateConnecting {
		conn.Close()
		return
	}

	s.conn = conn
	s.state = stateOpen

	go conn.WritePump()
	go func() {
		err := conn.ReadPump(func(data []byte) {
			s.post(frameReceived{conn: conn, data: data})
		})
		s.post(connClosed{conn: conn, err: err})
	}()

	if err := conn.Send(NewLoginEnvelope(s.self.User)); err != nil {
		s.logger.Error().Err(err).Msg("Failed to queue login envelope.")
	}
}

// onClose renders the terminal disconnect state. The session never redials.
func (s *Session) onClose(err error, abnormal bool) {
	s.state = stateClosed

	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}

	if s.closing {
		return
	}

	if abnormal {
		s.logger.Error().Err(err).Msg("WebSocket error.")
		s.view.RenderSystemMessage(ConnectionErrorMessage)
		s.view.ScrollToBottom()
	}

	s.logger.Info().Msg("Disconnected from the WebSocket server.")
	s.view.RenderSystemMessage(DisconnectedMessage)
	s.view.ScrollToBottom()
}

// shutdown closes the connection and waits briefly for the close frame to go out.
func (s *Session) shutdown() {
	s.closing = true

	if s.conn == nil {
		return
	}

	conn := s.conn
	s.conn = nil
	s.state = stateClosed
	conn.Close()

	select {
	case <-conn.Done():
	case <-time.After(writeWait):
		s.logger.Warn().Msg("Timed out waiting for the connection to close.")
	}
}

// post queues ev for the Run loop. It returns false if the loop has stopped.
func (s *Session) post(ev event) bool {
	select {
	case s.events <- ev:
		return true
	case <-s.done:
		return false
	}
}

// do runs fn on the Run loop and returns its error.
func (s *Session) do(ctx context.Context, fn func() error) error {
	select {
	case <-s.started:
	case <-ctx.Done():
		return ctx.Err()
	}

	reply := make(chan error, 1)

	select {
	case s.events <- action{fn: fn, reply: reply}:
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return errs.NewError(errs.ErrSessionClosed)
	}

	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		select {
		case err := <-reply:
			return err
		default:
			return errs.NewError(errs.ErrSessionClosed)
		}
	}
}

// event is anything the Run loop processes.
type event interface {
	apply(s *Session)
}

type action struct {
	fn    func() error
	reply chan<- error
}

func (a action) apply(_ *Session) {
	a.reply <- a.fn()
}

type transitionDone struct{}

func (transitionDone) apply(s *Session) {
	if s.state != stateConnecting {
		return
	}

	s.view.EnterChat()
	s.connect()

	go s.notifier.RequestPermission(s.runCtx)
}

type connOpened struct {
	conn *Conn
}

func (e connOpened) apply(s *Session) {
	s.onOpen(e.conn)
}

type dialFailed struct {
	err error
}

func (e dialFailed) apply(s *Session) {
	if s.state != stateConnecting {
		return
	}
	s.onClose(e.err, true)
}

type frameReceived struct {
	conn *Conn
	data []byte
}

func (e frameReceived) apply(s *Session) {
	if e.conn != s.conn {
		return
	}
	s.dispatch(e.data)
}

type connClosed struct {
	conn *Conn
	err  error
}

func (e connClosed) apply(s *Session) {
	if e.conn != s.conn {
		return
	}
	s.onClose(e.err, IsAbnormalClose(e.err))
}
