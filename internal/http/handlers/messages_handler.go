// Message HTTP handlers.
//
// This file exposes REST endpoints inside a conversation thread:
//   - GET    /conversations/{id}/messages            (list, paginated)
//   - POST   /conversations/{id}/messages            (send, idempotency-aware)
//   - GET    /conversations/{id}/typing              (indicators)
//   - PUT    /conversations/{id}/typing              (set caller state)
//   - GET    /messages/{id}/reactions                (list)
//   - POST   /messages/{id}/reactions                (add)
//   - DELETE /messages/{id}/reactions/{emoji}        (remove)
package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sellexa/go-marketplace-backend/internal/domain"
	"github.com/sellexa/go-marketplace-backend/internal/http/middleware"
	"github.com/sellexa/go-marketplace-backend/internal/repo"
	"github.com/sellexa/go-marketplace-backend/internal/store"
)

// idempotencyTTL is how long a recorded send key can be replayed.
const idempotencyTTL = 24 * time.Hour

// MessagesResponse wraps a page of messages and pagination information.
type MessagesResponse struct {
	Messages   []domain.Message `json:"messages"`
	Pagination Pagination       `json:"pagination"`
}

// SendMessageRequest is the JSON payload for sending a message.
type SendMessageRequest struct {
	// Body is the message text (trimmed; at most 2000 runes).
	Body string `json:"body" binding:"required" example:"Is this still available?"`
}

// TypingResponse reports who is typing in a thread.
type TypingResponse struct {
	ThreadID string                   `json:"thread_id"`
	Typing   []domain.TypingIndicator `json:"typing"`
}

// SetTypingRequest is the JSON payload for updating the caller's typing state.
type SetTypingRequest struct {
	Typing bool `json:"typing"`
}

// ReactionsResponse wraps the reactions on a message.
type ReactionsResponse struct {
	MessageID string                   `json:"message_id"`
	Reactions []domain.MessageReaction `json:"reactions"`
}

// AddReactionRequest is the JSON payload for reacting to a message.
type AddReactionRequest struct {
	Emoji string `json:"emoji" binding:"required" example:"👍"`
}

// ListMessages godoc
// @ID          listMessages
// @Summary     List messages in a thread (paginated)
// @Description Returns a page of the thread's messages, oldest first.
// @Tags        Messages
// @Produce     json
//
// @Param       id         path   string  true  "Thread ID (UUID)" format(uuid)
// @Param       page       query  int     false "Page number"      minimum(1) default(1)
// @Param       page_size  query  int     false "Items per page"   minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.MessagesResponse
// @Failure     401  {object} handlers.ErrorResponse "Signed out"
// @Failure     502  {object} handlers.ErrorResponse "Upstream error"
// @Router      /conversations/{id}/messages [get]
func (h *Handlers) ListMessages(c *gin.Context) {
	if h.account.User() == nil {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "no active session")
		return
	}
	threadID := c.Param("id")
	page, pageSize := clampPagination(c)

	if err := h.chat.LoadMessages(c.Request.Context(), threadID); err != nil {
		fail(c, http.StatusBadGateway, ErrCodeListFailed, err.Error())
		return
	}

	items, pg := paginate(h.chat.Messages(threadID), page, pageSize)
	ok(c, http.StatusOK, MessagesResponse{Messages: items, Pagination: pg})
}

// SendMessage godoc
// @ID          sendMessage
// @Summary     Send a message
// @Description Persists a message in the thread and returns the confirmed row. Honors Idempotency-Key via upstream middleware.
// @Tags        Messages
// @Accept      json
// @Produce     json
//
// @Param       id               path    string  true  "Thread ID (UUID)"              format(uuid)
// @Param       Idempotency-Key  header  string  false "Dedupe key for safe retries"   example(2b8f0c4e-9a1d-4f7e-8f3a-6c2d1e0b9a87)
// @Param       body             body    handlers.SendMessageRequest  true  "Message payload"
//
// @Success     201  {object} domain.Message
// @Failure     400  {object} handlers.ErrorResponse "Empty or oversized body"
// @Failure     401  {object} handlers.ErrorResponse "Signed out"
// @Failure     502  {object} handlers.ErrorResponse "Send failed"
// @Router      /conversations/{id}/messages [post]
func (h *Handlers) SendMessage(c *gin.Context) {
	threadID := c.Param("id")

	// Replay path: a prior send with this key already succeeded, so serve
	// the confirmed row instead of sending again.
	idemKey, _ := middleware.GetIdempotencyKey(c)
	if idemKey != "" && middleware.IsReplay(c) && h.DB != nil {
		rec, err := repo.GetIdempotency(c.Request.Context(), h.DB, userID(c), threadID, idemKey, time.Now().UTC())
		if err == nil && rec != nil {
			if prev := h.threadMessage(c, threadID, rec.MessageID); prev != nil {
				c.Header("Idempotency-Replayed", "true")
				ok(c, http.StatusOK, *prev)
				return
			}
		}
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "body is required")
		return
	}

	m, err := h.chat.SendMessage(c.Request.Context(), threadID, req.Body)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrEmptyBody):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message body is empty")
		case errors.Is(err, store.ErrTooLong):
			fail(c, http.StatusBadRequest, ErrCodeMessageTooLong, "message exceeds the 2000 rune limit")
		case errors.Is(err, store.ErrNoUser):
			fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "sign in to send messages")
		default:
			fail(c, http.StatusBadGateway, ErrCodeSendFailed, err.Error())
		}
		return
	}

	// Record the key so a retried send replays instead of duplicating.
	// Best effort: a failed insert only costs the dedup, not the send.
	if idemKey != "" && h.DB != nil {
		_, _ = repo.CreateIdempotency(c.Request.Context(), h.DB, userID(c), threadID, idemKey, m.ID, http.StatusCreated, idempotencyTTL)
	}
	ok(c, http.StatusCreated, m)
}

// threadMessage finds a message by id in the thread, refreshing history from
// the backend when it is not already in memory.
func (h *Handlers) threadMessage(c *gin.Context, threadID, messageID string) *domain.Message {
	find := func() *domain.Message {
		for _, m := range h.chat.Messages(threadID) {
			if m.ID == messageID {
				msg := m
				return &msg
			}
		}
		return nil
	}
	if m := find(); m != nil {
		return m
	}
	if err := h.chat.LoadMessages(c.Request.Context(), threadID); err != nil {
		return nil
	}
	return find()
}

// GetTyping godoc
// @ID          getTyping
// @Summary     Who is typing
// @Description Refreshes and returns the ephemeral typing indicators for a thread.
// @Tags        Messages
// @Produce     json
//
// @Param       id  path  string  true "Thread ID (UUID)" format(uuid)
//
// @Success     200  {object} handlers.TypingResponse
// @Failure     401  {object} handlers.ErrorResponse "Signed out"
// @Router      /conversations/{id}/typing [get]
func (h *Handlers) GetTyping(c *gin.Context) {
	if h.account.User() == nil {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "no active session")
		return
	}
	threadID := c.Param("id")
	h.chat.FetchTyping(c.Request.Context(), threadID)
	typing := h.chat.Typing(threadID)
	if typing == nil {
		typing = []domain.TypingIndicator{}
	}
	ok(c, http.StatusOK, TypingResponse{ThreadID: threadID, Typing: typing})
}

// SetTyping godoc
// @ID          setTyping
// @Summary     Set the caller's typing state
// @Description Records or clears the caller's typing indicator in a thread.
// @Tags        Messages
// @Accept      json
// @Produce     json
//
// @Param       id    path  string  true "Thread ID (UUID)" format(uuid)
// @Param       body  body  handlers.SetTypingRequest  true "Typing state"
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     401  {object} handlers.ErrorResponse "Signed out"
// @Router      /conversations/{id}/typing [put]
func (h *Handlers) SetTyping(c *gin.Context) {
	if h.account.User() == nil {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "no active session")
		return
	}
	var req SetTypingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	h.chat.SetTyping(c.Request.Context(), c.Param("id"), req.Typing)
	noContent(c)
}

// ListReactions godoc
// @ID          listReactions
// @Summary     List reactions on a message
// @Tags        Messages
// @Produce     json
//
// @Param       id  path  string  true "Message ID (UUID)" format(uuid)
//
// @Success     200  {object} handlers.ReactionsResponse
// @Failure     502  {object} handlers.ErrorResponse "Upstream error"
// @Router      /messages/{id}/reactions [get]
func (h *Handlers) ListReactions(c *gin.Context) {
	id := c.Param("id")
	rx, err := h.chat.Reactions(c.Request.Context(), id)
	if err != nil {
		fail(c, http.StatusBadGateway, ErrCodeListFailed, err.Error())
		return
	}
	if rx == nil {
		rx = []domain.MessageReaction{}
	}
	ok(c, http.StatusOK, ReactionsResponse{MessageID: id, Reactions: rx})
}

// AddReaction godoc
// @ID          addReaction
// @Summary     React to a message
// @Tags        Messages
// @Accept      json
// @Produce     json
//
// @Param       id    path  string  true "Message ID (UUID)" format(uuid)
// @Param       body  body  handlers.AddReactionRequest  true "Reaction payload"
//
// @Success     201  {object} domain.MessageReaction
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     401  {object} handlers.ErrorResponse "Signed out"
// @Failure     502  {object} handlers.ErrorResponse "Upstream error"
// @Router      /messages/{id}/reactions [post]
func (h *Handlers) AddReaction(c *gin.Context) {
	var req AddReactionRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Emoji) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "emoji is required")
		return
	}
	rx, err := h.chat.AddReaction(c.Request.Context(), c.Param("id"), req.Emoji)
	if err != nil {
		if errors.Is(err, store.ErrNoUser) {
			fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "sign in to react")
			return
		}
		fail(c, http.StatusBadGateway, ErrCodeSendFailed, err.Error())
		return
	}
	ok(c, http.StatusCreated, rx)
}

// RemoveReaction godoc
// @ID          removeReaction
// @Summary     Remove one of the caller's reactions
// @Tags        Messages
// @Produce     json
//
// @Param       id     path  string  true "Message ID (UUID)" format(uuid)
// @Param       emoji  path  string  true "Emoji to remove"
//
// @Success     204  {string} string "No Content"
// @Failure     401  {object} handlers.ErrorResponse "Signed out"
// @Failure     502  {object} handlers.ErrorResponse "Upstream error"
// @Router      /messages/{id}/reactions/{emoji} [delete]
func (h *Handlers) RemoveReaction(c *gin.Context) {
	if err := h.chat.RemoveReaction(c.Request.Context(), c.Param("id"), c.Param("emoji")); err != nil {
		if errors.Is(err, store.ErrNoUser) {
			fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "sign in to react")
			return
		}
		fail(c, http.StatusBadGateway, ErrCodeSendFailed, err.Error())
		return
	}
	noContent(c)
}
