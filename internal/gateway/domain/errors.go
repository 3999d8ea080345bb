package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates that a requested resource was not found.
	ErrNotFound = errors.New("resource not found")
	// ErrNotConnected indicates the chat network session is not open.
	ErrNotConnected = errors.New("chat network not connected")
)

// UnresolvedRecipientError is returned when a recipient input is neither an
// address, a phone number, nor a known contact or group name.
type UnresolvedRecipientError struct {
	Input string
}

func (e *UnresolvedRecipientError) Error() string {
	return fmt.Sprintf("unresolved recipient %q: not a jid/phone and not found in contacts or groups", e.Input)
}

// AmbiguousGroupError is returned when a group name matches more than one
// group. The gateway never auto-picks; callers get the candidate set.
type AmbiguousGroupError struct {
	Input   string
	Matches []GroupInfo
}

func (e *AmbiguousGroupError) Error() string {
	return fmt.Sprintf("group name %q matched %d groups; use a group alias or be more specific", e.Input, len(e.Matches))
}
