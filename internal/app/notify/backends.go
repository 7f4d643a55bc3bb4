package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"

	"github.com/gen2brain/beeep"

	"wschat/internal/pkg/logx"
)

// Desktop shows notifications through the platform notification service.
type Desktop struct {
	// AppName names the icon cache directory.
	AppName string

	icons *iconCache

	// notify, goos and getenv are replaceable in tests.
	notify func(title, body, icon string) error
	goos   string
	getenv func(string) string
}

// NewDesktop returns a Desktop backend built on beeep. Remote icons are downloaded
// once into the user cache directory.
func NewDesktop(appName string) *Desktop {
	return &Desktop{
		AppName: appName,
		icons:   newIconCache(iconDir(appName)),
		notify: func(title, body, icon string) error {
			return beeep.Notify(title, body, icon)
		},
		goos:   runtime.GOOS,
		getenv: os.Getenv,
	}
}

func (d *Desktop) Name() string { return "desktop" }

// Supported reports whether beeep has a notification service for this platform.
func (d *Desktop) Supported() bool {
	switch d.goos {
	case "linux", "freebsd", "netbsd", "openbsd", "dragonfly", "darwin", "windows":
		return true
	default:
		return false
	}
}

// RequestPermission grants permission when a notification service is reachable. On
// freedesktop systems that needs a graphical session or a session bus; without one
// the request is reported as denied.
func (d *Desktop) RequestPermission(_ context.Context) (Permission, error) {
	if d.goos == "darwin" || d.goos == "windows" {
		return PermissionGranted, nil
	}

	for _, key := range []string{"DISPLAY", "WAYLAND_DISPLAY", "DBUS_SESSION_BUS_ADDRESS"} {
		if d.getenv(key) != "" {
			return PermissionGranted, nil
		}
	}
	return PermissionDenied, nil
}

// Show delivers the notification. An icon that cannot be fetched is left out rather
// than failing the notification.
func (d *Desktop) Show(ctx context.Context, n Notification) error {
	icon, err := d.icons.path(ctx, n.Icon)
	if err != nil {
		logx.Debug("Notification icon unavailable", "icon", n.Icon, "error", err.Error())
		icon = ""
	}

	if err := d.notify(n.Title, n.Body, icon); err != nil {
		return fmt.Errorf("desktop notification: %w", err)
	}
	return nil
}

// Bell rings the terminal bell and prints the notification on a side channel, usually
// stderr.
type Bell struct {
	mu  sync.Mutex
	out io.Writer
}

// NewBell returns a Bell writing to out.
func NewBell(out io.Writer) *Bell {
	return &Bell{out: out}
}

func (b *Bell) Name() string { return "bell" }

func (b *Bell) Supported() bool { return b.out != nil }

// RequestPermission always grants; the user chose this backend explicitly.
func (b *Bell) RequestPermission(_ context.Context) (Permission, error) {
	return PermissionGranted, nil
}

// Show writes a BEL character followed by the title and body.
func (b *Bell) Show(_ context.Context, n Notification) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	_, err := fmt.Fprintf(b.out, "\a[%s] %s\n", n.Title, n.Body)
	return err
}
