package transport

import "context"

// Kind tags an inbound event as free text or a selection token.
type Kind string

const (
	KindText      Kind = "text"
	KindSelection Kind = "selection"
)

// Event is one inbound user action delivered by the chat transport.
// Payload holds the typed text for KindText or an opaque selection
// token for KindSelection; domain entities are always identified by
// token, never by rendered label.
type Event struct {
	SessionID int64
	Kind      Kind
	Payload   string

	UserID   int64
	Username string
	FullName string
}

// Choice is one selectable option offered with an outbound message. The
// token round-trips unchanged in the matching selection event.
type Choice struct {
	Label string `json:"label"`
	Token string `json:"token"`
}

// Sender is the outbound half of the chat transport. EditLast updates
// the previously sent message in place, used for confirmation-summary
// and decision acknowledgements.
type Sender interface {
	Send(ctx context.Context, sessionID int64, text string, choices []Choice) error
	EditLast(ctx context.Context, sessionID int64, text string, choices []Choice) error
}
