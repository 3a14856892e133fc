// Profile and session HTTP handlers.
//
// This file exposes REST endpoints for the authenticated user:
//   - GET    /me          (session user + unread summary)
//   - GET    /me/profile  (marketplace profile)
//   - PATCH  /me/profile  (optimistic update)
//   - POST   /me/signout  (end session)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sellexa/go-marketplace-backend/internal/domain"
	"github.com/sellexa/go-marketplace-backend/internal/supabase"
)

// MeResponse summarizes the signed-in session for the app shell.
type MeResponse struct {
	User                *domain.User `json:"user"`
	UnreadMessages      int          `json:"unread_messages"`
	UnreadNotifications int          `json:"unread_notifications"`
}

// ProfileResponse wraps the profile with derived capability flags.
type ProfileResponse struct {
	Profile           *domain.Profile `json:"profile"`
	CanCreateListings bool            `json:"can_create_listings"`
}

// UpdateProfileRequest is the JSON payload for patching the profile.
// Absent fields are left untouched.
type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name,omitempty" example:"Ada L."`
	AvatarURL   *string `json:"avatar_url,omitempty"`
	Bio         *string `json:"bio,omitempty"`
	Location    *string `json:"location,omitempty" example:"Athens, GR"`
}

// GetMe godoc
// @ID          getMe
// @Summary     Current session
// @Description Returns the signed-in user together with unread message and notification counts.
// @Tags        Me
// @Produce     json
//
// @Success     200  {object} handlers.MeResponse
// @Failure     401  {object} handlers.ErrorResponse "Signed out"
// @Router      /me [get]
func (h *Handlers) GetMe(c *gin.Context) {
	if err := h.account.FetchCurrentUser(c.Request.Context()); err != nil {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, err.Error())
		return
	}
	u := h.account.User()
	if u == nil {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "no active session")
		return
	}
	ok(c, http.StatusOK, MeResponse{
		User:                u,
		UnreadMessages:      h.chat.UnreadTotal(),
		UnreadNotifications: h.notifs.UnreadCount(),
	})
}

// GetProfile godoc
// @ID          getProfile
// @Summary     Get the current user's profile
// @Description Returns the cached profile, refreshing it when stale.
// @Tags        Me
// @Produce     json
//
// @Success     200  {object} handlers.ProfileResponse
// @Failure     401  {object} handlers.ErrorResponse "Signed out"
// @Failure     502  {object} handlers.ErrorResponse "Upstream error"
// @Router      /me/profile [get]
func (h *Handlers) GetProfile(c *gin.Context) {
	if h.account.User() == nil {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "no active session")
		return
	}
	if err := h.profile.Fetch(c.Request.Context()); err != nil {
		fail(c, http.StatusBadGateway, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ProfileResponse{
		Profile:           h.profile.Profile(),
		CanCreateListings: h.profile.CanCreateListings(),
	})
}

// UpdateProfile godoc
// @ID          updateProfile
// @Summary     Update the current user's profile
// @Description Optimistically applies the patch; on backend failure the patch is rolled back and 409 is returned.
// @Tags        Me
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.UpdateProfileRequest  true "Profile patch"
//
// @Success     200  {object} handlers.ProfileResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     401  {object} handlers.ErrorResponse "Signed out"
// @Failure     409  {object} handlers.ErrorResponse "Update rolled back"
// @Router      /me/profile [patch]
func (h *Handlers) UpdateProfile(c *gin.Context) {
	if h.account.User() == nil {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "no active session")
		return
	}
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	patch := supabase.ProfilePatch{
		DisplayName: req.DisplayName,
		AvatarURL:   req.AvatarURL,
		Bio:         req.Bio,
		Location:    req.Location,
	}
	if !h.profile.Update(c.Request.Context(), patch) {
		msg := h.profile.Err()
		if msg == "" {
			msg = "profile update rejected"
		}
		fail(c, http.StatusConflict, ErrCodeUpdateFailed, msg)
		return
	}
	ok(c, http.StatusOK, ProfileResponse{
		Profile:           h.profile.Profile(),
		CanCreateListings: h.profile.CanCreateListings(),
	})
}

// SignOut godoc
// @ID          signOut
// @Summary     End the current session
// @Description Signs out and clears all user-scoped caches. Local state is cleared even when the backend call fails.
// @Tags        Me
// @Produce     json
//
// @Success     204  {string} string "No Content"
// @Failure     502  {object} handlers.ErrorResponse "Upstream error (local state still cleared)"
// @Router      /me/signout [post]
func (h *Handlers) SignOut(c *gin.Context) {
	if err := h.account.SignOut(c.Request.Context()); err != nil {
		fail(c, http.StatusBadGateway, ErrCodeInternal, err.Error())
		return
	}
	noContent(c)
}
