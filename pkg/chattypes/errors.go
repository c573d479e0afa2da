package chattypes

import "errors"

// Sentinel errors for the failure taxonomy. Everything below is caught at
// the conversation controller boundary; none of these abort the process.
var (
	// ErrSessionNotFound is returned when switching to or reading an
	// unknown session id.
	ErrSessionNotFound = errors.New("session not found")

	// ErrLastSession rejects deletion of the only remaining session.
	ErrLastSession = errors.New("cannot delete the last remaining session")

	// ErrSendInFlight rejects a send while a previous one is still
	// streaming. One attempt per user action, no interleaving.
	ErrSendInFlight = errors.New("a send is already in flight")

	// ErrEmptyMessage rejects a send with no text.
	ErrEmptyMessage = errors.New("message cannot be empty")

	// ErrEndpointUnreachable reports a rejected connection or a
	// non-success HTTP status from the chat endpoint.
	ErrEndpointUnreachable = errors.New("chat endpoint unreachable")
)
