package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"wschat/internal/app/user"
)

type bubble struct {
	msg    ChatMessage
	isSelf bool
}

// fakeView records every render call.
type fakeView struct {
	mu       sync.Mutex
	left     int
	entered  int
	users    [][]user.User
	infos    []user.User
	systems  []string
	bubbles  []bubble
	scrolls  int
	sequence []string
}

func (v *fakeView) record(name string) {
	v.sequence = append(v.sequence, name)
}

func (v *fakeView) LeaveLogin() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.left++
	v.record("leave")
}

func (v *fakeView) EnterChat() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.entered++
	v.record("enter")
}

func (v *fakeView) RenderUserList(users []user.User) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.users = append(v.users, users)
	v.record("users")
}

func (v *fakeView) RenderUserInfo(self user.User) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.infos = append(v.infos, self)
	v.record("info")
}

func (v *fakeView) RenderSystemMessage(content string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.systems = append(v.systems, content)
	v.record("system")
}

func (v *fakeView) RenderChatMessage(msg ChatMessage, isSelf bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.bubbles = append(v.bubbles, bubble{msg: msg, isSelf: isSelf})
	v.record("bubble")
}

func (v *fakeView) ScrollToBottom() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.scrolls++
	v.record("scroll")
}

func (v *fakeView) read(fn func(v *fakeView)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fn(v)
}

type shown struct {
	title, body, icon string
}

// fakeNotifier records notifications instead of delivering them.
type fakeNotifier struct {
	mu        sync.Mutex
	requested int
	shown     []shown
}

func (n *fakeNotifier) RequestPermission(context.Context) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.requested++
}

func (n *fakeNotifier) Show(title, body, icon string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.shown = append(n.shown, shown{title: title, body: body, icon: icon})
}

func (n *fakeNotifier) snapshot() (int, []shown) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.requested, append([]shown(nil), n.shown...)
}

// field is a minimal Input.
type field struct {
	mu    sync.Mutex
	value string
}

func (f *field) Value() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value
}

func (f *field) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.value = ""
}

// testServer is a chat server stand-in that exposes its side of each connection.
type testServer struct {
	*httptest.Server
	accepted atomic.Int32
	conns    chan *websocket.Conn
	frames   chan []byte
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	ts := &testServer{
		conns:  make(chan *websocket.Conn, 4),
		frames: make(chan []byte, 64),
	}
	upgrader := websocket.Upgrader{
		CheckOrigin: func(*http.Request) bool { return true },
	}

	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade error: %v", err)
			return
		}
		ts.accepted.Add(1)
		ts.conns <- conn

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			ts.frames <- data
		}
	}))
	t.Cleanup(ts.Close)

	return ts
}

func (ts *testServer) wsURL() string {
	return "ws" + strings.TrimPrefix(ts.URL, "http")
}

// nextConn waits for the next accepted server-side connection.
func (ts *testServer) nextConn(t *testing.T) *websocket.Conn {
	t.Helper()
	select {
	case conn := <-ts.conns:
		return conn
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a connection")
		return nil
	}
}

type wireFrame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// nextFrame waits for the next frame the client sent.
func (ts *testServer) nextFrame(t *testing.T) wireFrame {
	t.Helper()
	select {
	case data := <-ts.frames:
		var f wireFrame
		if err := json.Unmarshal(data, &f); err != nil {
			t.Fatalf("client sent invalid JSON %q: %v", data, err)
		}
		return f
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a frame")
		return wireFrame{}
	}
}

func writeJSON(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	if err := conn.WriteJSON(v); err != nil {
		t.Fatalf("server write: %v", err)
	}
}

// startSession runs a session against endpoint with no login transition delay.
func startSession(t *testing.T, endpoint string, opts Options) (*Session, *fakeView) {
	t.Helper()

	view := &fakeView{}
	opts.Endpoint = endpoint
	if opts.TransitionDelay == 0 {
		opts.TransitionDelay = -1
	}

	s := NewSession(view, opts)
	ctx, cancel := context.WithCancel(context.Background())
	go s.Run(ctx)

	t.Cleanup(func() {
		cancel()
		<-s.Done()
	})

	return s, view
}

// loginAndAccept logs in as name and returns the server side of the connection plus
// the login payload the client sent.
func loginAndAccept(t *testing.T, s *Session, ts *testServer, name string) (*websocket.Conn, LoginPayload) {
	t.Helper()

	if err := s.Login(context.Background(), name); err != nil {
		t.Fatalf("Login: %v", err)
	}

	conn := ts.nextConn(t)

	f := ts.nextFrame(t)
	if f.Type != string(TypeLogin) {
		t.Fatalf("expected login frame, got %q", f.Type)
	}

	var payload LoginPayload
	if err := json.Unmarshal(f.Payload, &payload); err != nil {
		t.Fatalf("invalid login payload: %v", err)
	}

	return conn, payload
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
