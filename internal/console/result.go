package console

import (
	"fmt"
	"time"
)

// Status classifies a settled command.
type Status string

const (
	StatusUnknown Status = "unknown"
	StatusError   Status = "error"
	StatusInvalid Status = "invalid"
	// StatusCom marks a transport failure. It is never produced by the
	// classifier.
	StatusCom Status = "com"
)

// ParseStatus converts a configuration tag into a classifiable Status.
// StatusCom is reserved for transport failures and is rejected.
func ParseStatus(tag string) (Status, error) {
	switch Status(tag) {
	case StatusUnknown, StatusError, StatusInvalid:
		return Status(tag), nil
	case StatusCom:
		return "", fmt.Errorf("console: status %q is reserved for transport failures", tag)
	default:
		return "", fmt.Errorf("console: unknown status %q", tag)
	}
}

// CommandResult is one finalized exchange.
type CommandResult struct {
	ID            string    `json:"id"`
	SourceCommand string    `json:"source_command"`
	MatchedStatus Status    `json:"matched_status"`
	DecodedReply  string    `json:"decoded_reply"`
	RawReply      string    `json:"raw_reply,omitempty"`
	SettledAt     time.Time `json:"settled_at"`
}

// Resendable reports whether the source command may be dispatched again.
// Application errors and invalid commands are not worth repeating as-is.
func (r CommandResult) Resendable() bool {
	return r.MatchedStatus == StatusUnknown || r.MatchedStatus == StatusCom
}
