package notify

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeBackend struct {
	mu        sync.Mutex
	supported bool
	grant     Permission
	grantErr  error
	requests  int
	shown     []Notification
}

func (b *fakeBackend) Name() string    { return "fake" }
func (b *fakeBackend) Supported() bool { return b.supported }

func (b *fakeBackend) RequestPermission(context.Context) (Permission, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests++
	return b.grant, b.grantErr
}

func (b *fakeBackend) Show(_ context.Context, n Notification) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.shown = append(b.shown, n)
	return nil
}

func (b *fakeBackend) snapshot() (int, []Notification) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.requests, append([]Notification(nil), b.shown...)
}

type staticFocus bool

func (f staticFocus) Focused() bool { return bool(f) }

func TestNotifierUnsupportedBackend(t *testing.T) {
	n := New(nil, nil)
	if n.Permission() != PermissionUnsupported {
		t.Fatalf("expected unsupported, got %q", n.Permission())
	}

	n.RequestPermission(context.Background())
	n.Show("t", "b", "")
	n.Wait()

	backend := &fakeBackend{supported: false, grant: PermissionGranted}
	n = New(backend, nil)
	n.RequestPermission(context.Background())
	if requests, _ := backend.snapshot(); requests != 0 {
		t.Errorf("unsupported backend must not be asked for permission, got %d requests", requests)
	}
}

func TestNotifierRequestsOnce(t *testing.T) {
	backend := &fakeBackend{supported: true, grant: PermissionGranted}
	n := New(backend, staticFocus(false))

	n.RequestPermission(context.Background())
	n.RequestPermission(context.Background())

	if requests, _ := backend.snapshot(); requests != 1 {
		t.Errorf("expected a single permission request, got %d", requests)
	}
	if n.Permission() != PermissionGranted {
		t.Errorf("expected granted, got %q", n.Permission())
	}
}

func TestNotifierDeniedIsFinal(t *testing.T) {
	backend := &fakeBackend{supported: true, grant: PermissionDenied}
	n := New(backend, staticFocus(false))

	n.RequestPermission(context.Background())
	n.RequestPermission(context.Background())
	n.Show("bia", "oi", "")
	n.Wait()

	requests, shown := backend.snapshot()
	if requests != 1 {
		t.Errorf("denied permission must not be asked again, got %d requests", requests)
	}
	if len(shown) != 0 {
		t.Errorf("expected no notification when denied, got %+v", shown)
	}
}

func TestNotifierRequestErrorKeepsDefault(t *testing.T) {
	backend := &fakeBackend{supported: true, grantErr: errors.New("no bus")}
	n := New(backend, nil)

	n.RequestPermission(context.Background())
	if n.Permission() != PermissionDefault {
		t.Errorf("expected default after a failed request, got %q", n.Permission())
	}
}

func TestNotifierShowRespectsFocus(t *testing.T) {
	backend := &fakeBackend{supported: true, grant: PermissionGranted}

	focused := New(backend, staticFocus(true))
	focused.RequestPermission(context.Background())
	focused.Show("bia", "oi", "")
	focused.Wait()

	if _, shown := backend.snapshot(); len(shown) != 0 {
		t.Fatalf("expected no notification while focused, got %+v", shown)
	}

	away := New(backend, staticFocus(false))
	away.RequestPermission(context.Background())
	away.Show("bia", "oi", "icon")
	away.Wait()

	_, shown := backend.snapshot()
	if len(shown) != 1 {
		t.Fatalf("expected one notification while away, got %+v", shown)
	}
	if shown[0] != (Notification{Title: "bia", Body: "oi", Icon: "icon"}) {
		t.Errorf("unexpected notification %+v", shown[0])
	}
}

func TestNotifierShowBeforePermission(t *testing.T) {
	backend := &fakeBackend{supported: true, grant: PermissionGranted}
	n := New(backend, staticFocus(false))

	n.Show("bia", "oi", "")
	n.Wait()

	if _, shown := backend.snapshot(); len(shown) != 0 {
		t.Errorf("expected no notification before permission, got %+v", shown)
	}
}

func TestBellBackend(t *testing.T) {
	var buf bytes.Buffer
	n := New(NewBell(&buf), nil)

	n.RequestPermission(context.Background())
	n.Show("Novo usuário!", "bia entrou no chat", "")
	n.Wait()

	if got := buf.String(); got != "\a[Novo usuário!] bia entrou no chat\n" {
		t.Errorf("unexpected bell output %q", got)
	}
}

func TestDesktopBackendSupportAndPermission(t *testing.T) {
	env := map[string]string{}
	d := NewDesktop("wschat")
	d.getenv = func(k string) string { return env[k] }

	d.goos = "plan9"
	if d.Supported() {
		t.Error("expected unsupported on a platform without a notification service")
	}

	d.goos = "linux"
	if !d.Supported() {
		t.Error("expected supported on linux")
	}
	if p, _ := d.RequestPermission(context.Background()); p != PermissionDenied {
		t.Errorf("expected denied without a graphical session, got %q", p)
	}

	env["WAYLAND_DISPLAY"] = "wayland-0"
	if p, _ := d.RequestPermission(context.Background()); p != PermissionGranted {
		t.Errorf("expected granted with a graphical session, got %q", p)
	}

	delete(env, "WAYLAND_DISPLAY")
	d.goos = "darwin"
	if p, _ := d.RequestPermission(context.Background()); p != PermissionGranted {
		t.Errorf("expected granted on darwin, got %q", p)
	}
}

type desktopCall struct {
	title, body, icon string
}

func newTestDesktop(t *testing.T) (*Desktop, *[]desktopCall) {
	t.Helper()

	var calls []desktopCall
	d := NewDesktop("wschat")
	d.icons = newIconCache(t.TempDir())
	d.notify = func(title, body, icon string) error {
		calls = append(calls, desktopCall{title, body, icon})
		return nil
	}
	return d, &calls
}

func TestDesktopShowDownloadsIconOnce(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("png-bytes"))
	}))
	defer srv.Close()

	d, calls := newTestDesktop(t)
	n := Notification{Title: "bia", Body: "oi", Icon: srv.URL + "/64x64/34D399/FFFFFF?text=B"}

	for i := 0; i < 2; i++ {
		if err := d.Show(context.Background(), n); err != nil {
			t.Fatalf("Show: %v", err)
		}
	}

	if hits.Load() != 1 {
		t.Errorf("expected the icon to be fetched once, got %d", hits.Load())
	}
	if len(*calls) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(*calls))
	}

	first := (*calls)[0]
	if first.title != "bia" || first.body != "oi" {
		t.Errorf("unexpected notification %+v", first)
	}
	if filepath.Ext(first.icon) != ".png" {
		t.Errorf("expected a cached png icon, got %q", first.icon)
	}
	data, err := os.ReadFile(first.icon)
	if err != nil || string(data) != "png-bytes" {
		t.Errorf("unexpected icon file %q: %v", data, err)
	}
	if (*calls)[1].icon != first.icon {
		t.Errorf("expected the cached icon to be reused, got %q", (*calls)[1].icon)
	}
}

func TestDesktopShowWithoutIcon(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	d, calls := newTestDesktop(t)

	if err := d.Show(context.Background(), Notification{Title: "bia", Body: "oi", Icon: srv.URL + "/missing"}); err != nil {
		t.Fatalf("Show: %v", err)
	}
	if len(*calls) != 1 || (*calls)[0].icon != "" {
		t.Errorf("expected a notification without icon, got %+v", *calls)
	}
}

func TestDesktopShowReportsFailure(t *testing.T) {
	d, _ := newTestDesktop(t)
	d.notify = func(string, string, string) error { return errors.New("no service") }

	if err := d.Show(context.Background(), Notification{Title: "bia"}); err == nil {
		t.Error("expected the delivery error to be returned")
	}
}

func TestPresence(t *testing.T) {
	now := time.Unix(1000, 0)
	p := &Presence{idleAfter: 30 * time.Second, now: func() time.Time { return now }}
	p.Touch()

	if !p.Focused() {
		t.Fatal("expected focus right after activity")
	}

	now = now.Add(31 * time.Second)
	if p.Focused() {
		t.Fatal("expected focus to lapse after the idle window")
	}

	p.Touch()
	if !p.Focused() {
		t.Error("expected focus after new activity")
	}
}

func TestPresenceStartsFocused(t *testing.T) {
	if !NewPresence(time.Minute).Focused() {
		t.Error("expected a new presence to be focused")
	}
	if NewPresence(0).Focused() {
		t.Error("a zero idle window means the user is always away")
	}
}
