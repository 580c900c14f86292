package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPSender delivers outbound messages to the chat-transport
// collaborator over HTTP. The transport owns rendering, button layout
// and the actual chat protocol; this side only posts the logical
// message.
type HTTPSender struct {
	baseURL string
	client  *http.Client
}

// NewHTTPSender creates a sender posting to the given transport base
// URL.
func NewHTTPSender(baseURL string) *HTTPSender {
	return &HTTPSender{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type outboundMessage struct {
	SessionID int64    `json:"sessionId"`
	Text      string   `json:"text"`
	Choices   []Choice `json:"choices,omitempty"`
}

// Send posts a new message for the session.
func (s *HTTPSender) Send(ctx context.Context, sessionID int64, text string, choices []Choice) error {
	return s.post(ctx, "/send", outboundMessage{SessionID: sessionID, Text: text, Choices: choices})
}

// EditLast asks the transport to update the previously sent message in
// place.
func (s *HTTPSender) EditLast(ctx context.Context, sessionID int64, text string, choices []Choice) error {
	return s.post(ctx, "/edit", outboundMessage{SessionID: sessionID, Text: text, Choices: choices})
}

func (s *HTTPSender) post(ctx context.Context, path string, msg outboundMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal outbound message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("transport returned status %d", resp.StatusCode)
	}
	return nil
}
