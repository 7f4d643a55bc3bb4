/*
Package errs provides custom error types and application-level error code constants.

This file defines the map from error codes to the CustomError struct.
*/
package errs

// errorMap stores the CustomError template for every application error code.
var errorMap = map[int]CustomError{
	// 1xxx: Input Errors
	ErrEmptyName:    {Code: ErrEmptyName, Message: "Name must not be empty."},
	ErrEmptyContent: {Code: ErrEmptyContent, Message: "Message must not be empty."},
	ErrInvalidFrame: {Code: ErrInvalidFrame, Message: "Received a malformed frame: %s"},

	// 2xxx: Connection Errors
	ErrNotConnected:     {Code: ErrNotConnected, Message: "Not connected to the chat server."},
	ErrAlreadyConnected: {Code: ErrAlreadyConnected, Message: "Session is already logged in."},
	ErrDialFailed:       {Code: ErrDialFailed, Message: "Could not connect to %s."},
	ErrSendQueueFull:    {Code: ErrSendQueueFull, Message: "Outbound queue is full."},
	ErrRateLimited:      {Code: ErrRateLimited, Message: "Sending too fast. Slow down."},
	ErrSessionClosed:    {Code: ErrSessionClosed, Message: "Session is closed."},

	// 3xxx: Notification Errors
	ErrNotificationsUnsupported: {Code: ErrNotificationsUnsupported, Message: "Desktop notifications are not supported."},
	ErrNotificationDenied:       {Code: ErrNotificationDenied, Message: "Notification permission was not granted."},

	// 5xxx: Internal Errors
	ErrUnknown: {Code: ErrUnknown, Message: "Something went wrong."},
}
