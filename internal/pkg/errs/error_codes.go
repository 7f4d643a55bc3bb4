/*
Package errs provides custom error types and application-level error code constants.

These error codes identify why a user action or a connection event was dropped. The
console treats most of them as silent outcomes; they exist so callers and tests can
tell the cases apart.
*/
package errs

// 1xxx: Input Errors
const (
	// ErrEmptyName indicates that the login form was submitted with a blank name.
	ErrEmptyName = 1001

	// ErrEmptyContent indicates that the chat form was submitted with blank content.
	ErrEmptyContent = 1002

	// ErrInvalidFrame indicates that an inbound WebSocket frame was not a valid envelope.
	ErrInvalidFrame = 1003
)

// 2xxx: Connection Errors
const (
	// ErrNotConnected indicates that a send was attempted while the socket is not open.
	ErrNotConnected = 2001

	// ErrAlreadyConnected indicates a second login on a session that already owns a connection.
	ErrAlreadyConnected = 2002

	// ErrDialFailed indicates that the WebSocket handshake could not be completed.
	ErrDialFailed = 2003

	// ErrSendQueueFull indicates that the outbound queue could not accept another frame.
	ErrSendQueueFull = 2004

	// ErrRateLimited indicates that the local flood guard rejected an outbound message.
	ErrRateLimited = 2005

	// ErrSessionClosed indicates that the session event loop is no longer running.
	ErrSessionClosed = 2006
)

// 3xxx: Notification Errors
const (
	// ErrNotificationsUnsupported indicates that no notification backend is available.
	ErrNotificationsUnsupported = 3001

	// ErrNotificationDenied indicates that notification permission was not granted.
	ErrNotificationDenied = 3002
)

// 5xxx: Internal Errors
const (
	// ErrUnknown represents an unclassified internal error.
	ErrUnknown = 5000
)
