/*
Package notify delivers best-effort desktop notifications.

A Notifier tracks the permission state, asks its Backend for permission once, and only
shows a notification while the user is away from the terminal. Every failure degrades
to a log line; nothing here is allowed to interrupt the chat.
*/
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"wschat/internal/pkg/errs"
	"wschat/internal/pkg/logx"
)

// deliverTimeout bounds how long a single notification may take.
const deliverTimeout = 5 * time.Second

// Permission is the notification permission state.
type Permission string

const (
	PermissionDefault     Permission = "default"
	PermissionGranted     Permission = "granted"
	PermissionDenied      Permission = "denied"
	PermissionUnsupported Permission = "unsupported"
)

// Notification is one message to show.
type Notification struct {
	Title string
	Body  string
	Icon  string
}

// Backend displays notifications on some medium.
type Backend interface {
	// Name identifies the backend in logs.
	Name() string

	// Supported reports whether the backend can work on this machine at all.
	Supported() bool

	// RequestPermission asks the platform for permission to notify.
	RequestPermission(ctx context.Context) (Permission, error)

	// Show displays n.
	Show(ctx context.Context, n Notification) error
}

// FocusReporter tells whether the user is currently looking at the chat.
type FocusReporter interface {
	Focused() bool
}

// Notifier gates a Backend behind permission and focus.
type Notifier struct {
	backend Backend
	focus   FocusReporter

	// mu protects permission.
	mu         sync.Mutex
	permission Permission

	// wg tracks in-flight deliveries.
	wg sync.WaitGroup

	logger zerolog.Logger
}

// New returns a Notifier. A nil backend means notifications are unsupported; a nil
// focus reporter means the user is always considered away.
func New(backend Backend, focus FocusReporter) *Notifier {
	n := &Notifier{
		backend:    backend,
		focus:      focus,
		permission: PermissionDefault,
		logger:     logx.Logger().With().Str("component", "notify").Logger(),
	}

	if backend == nil || !backend.Supported() {
		n.permission = PermissionUnsupported
	}

	return n
}

// Permission returns the current permission state.
func (n *Notifier) Permission() Permission {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.permission
}

// RequestPermission asks the backend for permission unless the outcome is already known.
func (n *Notifier) RequestPermission(ctx context.Context) {
	n.mu.Lock()
	current := n.permission
	n.mu.Unlock()

	switch current {
	case PermissionUnsupported:
		n.logger.Info().Err(errs.NewError(errs.ErrNotificationsUnsupported)).Msg("Desktop notifications unavailable.")
		return
	case PermissionGranted, PermissionDenied:
		return
	}

	granted, err := n.backend.RequestPermission(ctx)
	if err != nil {
		n.logger.Warn().Err(err).Str("backend", n.backend.Name()).Msg("Notification permission request failed.")
		return
	}

	n.mu.Lock()
	n.permission = granted
	n.mu.Unlock()

	n.logger.Debug().Str("permission", string(granted)).Str("backend", n.backend.Name()).Msg("Notification permission resolved.")
}

// Show delivers a notification in the background when permission is granted and the
// user is not focused on the chat.
func (n *Notifier) Show(title, body, icon string) {
	if n.Permission() != PermissionGranted {
		n.logger.Debug().Err(errs.NewError(errs.ErrNotificationDenied)).Msg("Skipping notification.")
		return
	}

	if n.focus != nil && n.focus.Focused() {
		return
	}

	notification := Notification{Title: title, Body: body, Icon: icon}

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), deliverTimeout)
		defer cancel()

		if err := n.backend.Show(ctx, notification); err != nil {
			n.logger.Warn().Err(err).Str("backend", n.backend.Name()).Msg("Failed to show notification.")
		}
	}()
}

// Wait blocks until every in-flight notification has been delivered or has failed.
func (n *Notifier) Wait() {
	n.wg.Wait()
}
