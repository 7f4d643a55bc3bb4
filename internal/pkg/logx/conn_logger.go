/*
Package logx provides a structured logging wrapper based on zerolog.

This file builds the per-connection logger used by the WebSocket client. Endpoints are
redacted before they reach the log so credentials and query tokens never get written.
*/
package logx

import (
	"net/url"

	"github.com/rs/zerolog"
)

// RedactEndpoint strips user info, query and fragment from a WebSocket endpoint.
// Unparseable input is reported as "invalid_endpoint".
func RedactEndpoint(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "invalid_endpoint"
	}

	redacted := url.URL{
		Scheme: u.Scheme,
		Host:   u.Host,
		Path:   u.Path,
	}
	return redacted.String()
}

// ConnLogger returns a logger tagged with the chat component, the session id and the
// redacted endpoint.
func ConnLogger(endpoint, sessionID string) zerolog.Logger {
	return Logger().With().
		Str("component", "ws").
		Str("session_id", sessionID).
		Str("endpoint", RedactEndpoint(endpoint)).
		Logger()
}
