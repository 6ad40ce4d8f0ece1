package dispatch

import "errors"

var (
	ErrUnknownCommand = errors.New("dispatch: unknown command kind")
	ErrNoIssuer       = errors.New("dispatch: command has no issuing operator")
	ErrRosterLookup   = errors.New("dispatch: roster lookup failed")
)
