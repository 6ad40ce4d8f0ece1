package ws

import "errors"

var (
	// ErrAuthenticationFailed means the handshake carried a bad or missing
	// identity. The channel is closed immediately; the hub never retries.
	ErrAuthenticationFailed = errors.New("ws: authentication failed")

	// ErrChannelClosed means a send was attempted on a connection that is
	// already ineligible for writes.
	ErrChannelClosed = errors.New("ws: channel closed")
)
