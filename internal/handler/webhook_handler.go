package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dstasiak/shopbot/internal/bot"
	"github.com/dstasiak/shopbot/internal/transport"
)

// WebhookHandler converts transport webhook updates into events for the
// dispatcher.
type WebhookHandler struct {
	bot *bot.Bot
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(b *bot.Bot) *WebhookHandler {
	return &WebhookHandler{bot: b}
}

type inboundUpdate struct {
	SessionID int64  `json:"sessionId" binding:"required"`
	Kind      string `json:"kind" binding:"required,oneof=text selection"`
	Payload   string `json:"payload"`
	UserID    int64  `json:"userId"`
	Username  string `json:"username"`
	FullName  string `json:"fullName"`
}

// HandleUpdate processes one inbound update. This is the outermost
// event boundary: a failed dispatch is logged and the event dropped,
// leaving the session in its prior state for a retry.
func (h *WebhookHandler) HandleUpdate(c *gin.Context) {
	var upd inboundUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid update"})
		return
	}

	ev := transport.Event{
		SessionID: upd.SessionID,
		Kind:      transport.Kind(upd.Kind),
		Payload:   upd.Payload,
		UserID:    upd.UserID,
		Username:  upd.Username,
		FullName:  upd.FullName,
	}
	if ev.UserID == 0 {
		ev.UserID = upd.SessionID
	}

	if err := h.bot.Dispatch(c.Request.Context(), ev); err != nil {
		log.Error().Err(err).Int64("session_id", ev.SessionID).Msg("failed to process event")
		c.JSON(http.StatusOK, gin.H{"ok": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
