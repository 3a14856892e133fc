// Save (wishlist) HTTP handlers.
//
// This file exposes REST endpoints for per-listing save state:
//   - GET  /products/{id}/save (count + saved flag)
//   - POST /products/{id}/save (optimistic toggle)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sellexa/go-marketplace-backend/internal/domain"
)

// SaveResponse reports a listing's save state after a read or a toggle.
type SaveResponse struct {
	ProductID string          `json:"product_id"`
	Save      domain.SaveData `json:"save"`
}

// GetSave godoc
// @ID          getSave
// @Summary     Get save state for a listing
// @Description Returns the save count and whether the current user has saved the listing.
// @Tags        Saves
// @Produce     json
//
// @Param       id  path  string  true "Product ID (UUID)" format(uuid)
//
// @Success     200  {object} handlers.SaveResponse
// @Failure     502  {object} handlers.ErrorResponse "Upstream error"
// @Router      /products/{id}/save [get]
func (h *Handlers) GetSave(c *gin.Context) {
	id := c.Param("id")
	if err := h.saves.FetchSaveData(c.Request.Context(), id); err != nil {
		fail(c, http.StatusBadGateway, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, SaveResponse{ProductID: id, Save: h.saves.SaveData(id)})
}

// ToggleSave godoc
// @ID          toggleSave
// @Summary     Toggle a save on a listing
// @Description Optimistically flips the saved flag; on backend failure the flip is rolled back and 409 is returned.
// @Tags        Saves
// @Produce     json
//
// @Param       id  path  string  true "Product ID (UUID)" format(uuid)
//
// @Success     200  {object} handlers.SaveResponse
// @Failure     401  {object} handlers.ErrorResponse "Signed out"
// @Failure     409  {object} handlers.ErrorResponse "Toggle rejected or rolled back"
// @Router      /products/{id}/save [post]
func (h *Handlers) ToggleSave(c *gin.Context) {
	id := c.Param("id")
	if h.account.User() == nil {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "sign in to save listings")
		return
	}
	if !h.saves.ToggleSave(c.Request.Context(), id) {
		msg := h.saves.Err(id)
		if msg == "" {
			msg = "another toggle for this listing is in flight"
		}
		fail(c, http.StatusConflict, ErrCodeToggleFailed, msg)
		return
	}
	ok(c, http.StatusOK, SaveResponse{ProductID: id, Save: h.saves.SaveData(id)})
}
