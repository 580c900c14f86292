package transport

import (
	"context"
	"sync"
)

// Message is one outbound message captured by the Recorder.
type Message struct {
	SessionID int64
	Text      string
	Choices   []Choice
	Edited    bool
}

// Recorder is a Sender that records outbound traffic instead of
// delivering it. It backs tests and can seed failures per session to
// exercise best-effort delivery paths.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
	failFor  map[int64]error
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{failFor: make(map[int64]error)}
}

// FailFor makes every delivery to the given session return err.
func (r *Recorder) FailFor(sessionID int64, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failFor[sessionID] = err
}

// Send records an outbound message.
func (r *Recorder) Send(ctx context.Context, sessionID int64, text string, choices []Choice) error {
	return r.record(sessionID, text, choices, false)
}

// EditLast records an in-place update.
func (r *Recorder) EditLast(ctx context.Context, sessionID int64, text string, choices []Choice) error {
	return r.record(sessionID, text, choices, true)
}

func (r *Recorder) record(sessionID int64, text string, choices []Choice, edited bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.failFor[sessionID]; err != nil {
		return err
	}
	r.messages = append(r.messages, Message{
		SessionID: sessionID,
		Text:      text,
		Choices:   choices,
		Edited:    edited,
	})
	return nil
}

// Messages returns a copy of everything recorded so far.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Message, len(r.messages))
	copy(out, r.messages)
	return out
}

// LastFor returns the most recent message recorded for a session.
func (r *Recorder) LastFor(sessionID int64) (Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := len(r.messages) - 1; i >= 0; i-- {
		if r.messages[i].SessionID == sessionID {
			return r.messages[i], true
		}
	}
	return Message{}, false
}
