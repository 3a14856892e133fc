// Conversation HTTP handlers.
//
// This file exposes REST endpoints for conversation threads:
//   - GET  /conversations                (list + unread total)
//   - POST /conversations                (start or reuse a thread)
//   - GET  /conversations/search         (ranked free-text search)
//   - GET  /conversations/{id}           (single conversation)
//   - POST /conversations/{id}/read      (optimistic mark-read)
//   - POST /conversations/{id}/archive   (optimistic toggle)
//   - POST /conversations/{id}/mute      (optimistic toggle)
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sellexa/go-marketplace-backend/internal/domain"
	"github.com/sellexa/go-marketplace-backend/internal/store"
	"github.com/sellexa/go-marketplace-backend/internal/utils"
)

// ConversationsResponse wraps the conversation list with the unread total.
type ConversationsResponse struct {
	Conversations []domain.Conversation `json:"conversations"`
	UnreadTotal   int                   `json:"unread_total"`
}

// ConversationSearchResponse wraps ranked conversation hits for a query.
type ConversationSearchResponse struct {
	Query         string                `json:"query"`
	Conversations []domain.Conversation `json:"conversations"`
}

// StartThreadRequest is the JSON payload for opening a buyer/seller thread.
type StartThreadRequest struct {
	ProductID string `json:"product_id" binding:"required" example:"141add05-4415-4938-b5a1-17e0d3171aff"`
	SellerID  string `json:"seller_id" binding:"required" example:"7d9f3a20-11c2-4f6e-9a42-0f5b3f6f2c11"`
}

// ListConversations godoc
// @ID          listConversations
// @Summary     List conversations
// @Description Returns the user's conversations, most recently active first, with the unread total across unmuted threads.
// @Tags        Conversations
// @Produce     json
//
// @Success     200  {object} handlers.ConversationsResponse
// @Failure     401  {object} handlers.ErrorResponse "Signed out"
// @Failure     502  {object} handlers.ErrorResponse "Upstream error"
// @Router      /conversations [get]
func (h *Handlers) ListConversations(c *gin.Context) {
	if h.account.User() == nil {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "no active session")
		return
	}
	if err := h.chat.LoadConversations(c.Request.Context()); err != nil {
		fail(c, http.StatusBadGateway, ErrCodeListFailed, err.Error())
		return
	}
	items := h.chat.Conversations()
	if items == nil {
		items = []domain.Conversation{}
	}
	ok(c, http.StatusOK, ConversationsResponse{Conversations: items, UnreadTotal: h.chat.UnreadTotal()})
}

// GetConversation godoc
// @ID          getConversation
// @Summary     Get one conversation
// @Description Returns a single cached conversation by thread id.
// @Tags        Conversations
// @Produce     json
//
// @Param       id  path  string  true "Thread ID (UUID)" format(uuid)
//
// @Success     200  {object} domain.Conversation
// @Failure     404  {object} handlers.ErrorResponse "Thread not found"
// @Router      /conversations/{id} [get]
func (h *Handlers) GetConversation(c *gin.Context) {
	conv, found := h.chat.Conversation(c.Param("id"))
	if !found {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "thread not found")
		return
	}
	ok(c, http.StatusOK, conv)
}

// StartThread godoc
// @ID          startThread
// @Summary     Start a conversation about a listing
// @Description Opens a buyer/seller thread for a listing, reusing the existing one when it already exists.
// @Tags        Conversations
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.StartThreadRequest  true "Thread target"
//
// @Success     201  {object} domain.Thread
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     401  {object} handlers.ErrorResponse "Signed out"
// @Failure     502  {object} handlers.ErrorResponse "Upstream error"
// @Router      /conversations [post]
func (h *Handlers) StartThread(c *gin.Context) {
	var req StartThreadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "product_id and seller_id are required")
		return
	}
	if _, err := uuid.Parse(req.ProductID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "product_id must be a UUID")
		return
	}
	if _, err := uuid.Parse(req.SellerID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "seller_id must be a UUID")
		return
	}

	th, err := h.chat.StartThread(c.Request.Context(), req.ProductID, req.SellerID)
	if err != nil {
		if errors.Is(err, store.ErrNoUser) {
			fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "sign in to message sellers")
			return
		}
		fail(c, http.StatusBadGateway, ErrCodeSendFailed, err.Error())
		return
	}
	ok(c, http.StatusCreated, th)
}

// SearchConversations godoc
// @ID          searchConversations
// @Summary     Search conversations
// @Description Ranks conversations against a free-text query over product title, counterpart name, and last message.
// @Tags        Conversations
// @Produce     json
//
// @Param       q      query  string  true  "Search query"
// @Param       limit  query  int     false "Maximum hits" minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ConversationSearchResponse
// @Failure     400  {object} handlers.ErrorResponse "Missing query"
// @Router      /conversations/search [get]
func (h *Handlers) SearchConversations(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "query parameter q is required")
		return
	}
	limit := utils.AtoiDefault(c.Query("limit"), defaultSearchLimit)
	if limit < 1 {
		limit = 1
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	hits := h.chat.SearchConversations(q, limit)
	if hits == nil {
		hits = []domain.Conversation{}
	}
	ok(c, http.StatusOK, ConversationSearchResponse{Query: q, Conversations: hits})
}

// MarkThreadRead godoc
// @ID          markThreadRead
// @Summary     Mark a thread read
// @Description Optimistically zeroes the thread's unread count; on backend failure the count is restored and 409 is returned.
// @Tags        Conversations
// @Produce     json
//
// @Param       id  path  string  true "Thread ID (UUID)" format(uuid)
//
// @Success     204  {string} string "No Content"
// @Failure     401  {object} handlers.ErrorResponse "Signed out"
// @Failure     409  {object} handlers.ErrorResponse "Rolled back"
// @Router      /conversations/{id}/read [post]
func (h *Handlers) MarkThreadRead(c *gin.Context) {
	if h.account.User() == nil {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "no active session")
		return
	}
	if !h.chat.MarkAsRead(c.Request.Context(), c.Param("id")) {
		fail(c, http.StatusConflict, ErrCodeUpdateFailed, "mark-read rejected")
		return
	}
	noContent(c)
}

// ToggleArchive godoc
// @ID          toggleArchive
// @Summary     Toggle a thread's archived flag
// @Description Optimistically flips the flag; on backend failure the flip is rolled back and 409 is returned.
// @Tags        Conversations
// @Produce     json
//
// @Param       id  path  string  true "Thread ID (UUID)" format(uuid)
//
// @Success     200  {object} domain.Conversation
// @Failure     401  {object} handlers.ErrorResponse "Signed out"
// @Failure     409  {object} handlers.ErrorResponse "Rolled back"
// @Router      /conversations/{id}/archive [post]
func (h *Handlers) ToggleArchive(c *gin.Context) {
	h.toggleThreadFlag(c, h.chat.ToggleArchive)
}

// ToggleMute godoc
// @ID          toggleMute
// @Summary     Toggle a thread's muted flag
// @Description Optimistically flips the flag; on backend failure the flip is rolled back and 409 is returned.
// @Tags        Conversations
// @Produce     json
//
// @Param       id  path  string  true "Thread ID (UUID)" format(uuid)
//
// @Success     200  {object} domain.Conversation
// @Failure     401  {object} handlers.ErrorResponse "Signed out"
// @Failure     409  {object} handlers.ErrorResponse "Rolled back"
// @Router      /conversations/{id}/mute [post]
func (h *Handlers) ToggleMute(c *gin.Context) {
	h.toggleThreadFlag(c, h.chat.ToggleMute)
}

// toggleThreadFlag runs one of the optimistic thread toggles and renders the
// refreshed conversation on success.
func (h *Handlers) toggleThreadFlag(c *gin.Context, toggle func(ctx context.Context, threadID string) bool) {
	if h.account.User() == nil {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "no active session")
		return
	}
	id := c.Param("id")
	if !toggle(c.Request.Context(), id) {
		fail(c, http.StatusConflict, ErrCodeToggleFailed, "toggle rejected")
		return
	}
	conv, found := h.chat.Conversation(id)
	if !found {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "thread not found")
		return
	}
	ok(c, http.StatusOK, conv)
}
