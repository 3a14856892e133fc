// Notification inbox HTTP handlers.
//
// This file exposes REST endpoints for the inbox:
//   - GET  /notifications           (list, ETag support)
//   - POST /notifications/{id}/read (optimistic mark-read)
//   - POST /notifications/read-all  (optimistic mark-all-read)
package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sellexa/go-marketplace-backend/internal/domain"
	"github.com/sellexa/go-marketplace-backend/internal/repo"
)

// NotificationsResponse wraps the inbox with its unread count.
type NotificationsResponse struct {
	Notifications []domain.Notification `json:"notifications"`
	UnreadCount   int                   `json:"unread_count"`
}

// ListNotifications godoc
// @ID          listNotifications
// @Summary     List notifications
// @Description Returns the inbox, newest first. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Notifications
// @Produce     json
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"abc123\")
//
// @Success     200  {object} handlers.NotificationsResponse
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     401  {object} handlers.ErrorResponse "Signed out"
// @Failure     502  {object} handlers.ErrorResponse "Upstream error"
// @Router      /notifications [get]
func (h *Handlers) ListNotifications(c *gin.Context) {
	ctx := c.Request.Context()
	if h.account.User() == nil {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "no active session")
		return
	}

	// ETag pre-check against the local snapshot (best effort).
	if h.DB != nil {
		uid := userID(c)
		count, maxTS, err := repo.NotificationsStats(ctx, h.DB, uid)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"notifications:%s:%d:%d"`, uid, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	if err := h.notifs.Fetch(ctx); err != nil {
		fail(c, http.StatusBadGateway, ErrCodeListFailed, err.Error())
		return
	}
	items := h.notifs.Notifications()
	if items == nil {
		items = []domain.Notification{}
	}
	ok(c, http.StatusOK, NotificationsResponse{Notifications: items, UnreadCount: h.notifs.UnreadCount()})
}

// MarkNotificationRead godoc
// @ID          markNotificationRead
// @Summary     Mark one notification read
// @Description Optimistically marks the row read; on backend failure the flag is rolled back and 409 is returned.
// @Tags        Notifications
// @Produce     json
//
// @Param       id  path  string  true "Notification ID"
//
// @Success     204  {string} string "No Content"
// @Failure     401  {object} handlers.ErrorResponse "Signed out"
// @Failure     409  {object} handlers.ErrorResponse "Rolled back"
// @Router      /notifications/{id}/read [post]
func (h *Handlers) MarkNotificationRead(c *gin.Context) {
	if h.account.User() == nil {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "no active session")
		return
	}
	if !h.notifs.MarkRead(c.Request.Context(), c.Param("id")) {
		msg := h.notifs.Err()
		if msg == "" {
			msg = "mark-read rejected"
		}
		fail(c, http.StatusConflict, ErrCodeUpdateFailed, msg)
		return
	}
	noContent(c)
}

// MarkAllNotificationsRead godoc
// @ID          markAllNotificationsRead
// @Summary     Mark every notification read
// @Description Optimistically clears the unread set; on backend failure the set is restored and 409 is returned.
// @Tags        Notifications
// @Produce     json
//
// @Success     204  {string} string "No Content"
// @Failure     401  {object} handlers.ErrorResponse "Signed out"
// @Failure     409  {object} handlers.ErrorResponse "Rolled back"
// @Router      /notifications/read-all [post]
func (h *Handlers) MarkAllNotificationsRead(c *gin.Context) {
	if h.account.User() == nil {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "no active session")
		return
	}
	if !h.notifs.MarkAllRead(c.Request.Context()) {
		msg := h.notifs.Err()
		if msg == "" {
			msg = "mark-all-read rejected"
		}
		fail(c, http.StatusConflict, ErrCodeUpdateFailed, msg)
		return
	}
	noContent(c)
}
