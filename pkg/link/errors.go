package link

import (
	"errors"
	"fmt"
)

var (
	// ErrNoReply indicates no reply was received for a command.
	// This happens when a reply arrives for a later command: all earlier
	// outstanding commands fail with this error.
	ErrNoReply = errors.New("no reply")
)

// RemoteError reports a failure response code received from the peer.
type RemoteError struct {
	Request  uint16
	Response uint16
}

// Error implements error.
func (e *RemoteError) Error() string {
	return fmt.Sprintf("request %#04x failed with response %#04x", e.Request, e.Response)
}
