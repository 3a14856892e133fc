// Product feed HTTP handlers.
//
// This file exposes REST endpoints for the public browse surface:
//   - GET /products        (feed, paginated, ETag support)
//   - GET /products/{id}   (single listing)
//   - GET /products/search (ranked free-text search)
package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sellexa/go-marketplace-backend/internal/domain"
	"github.com/sellexa/go-marketplace-backend/internal/repo"
	"github.com/sellexa/go-marketplace-backend/internal/utils"
)

// Search limits mirror the client defaults.
const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
)

// FeedResponse wraps a page of listings and pagination information.
type FeedResponse struct {
	Products   []domain.Product `json:"products"`
	Pagination Pagination       `json:"pagination"`
}

// SearchResponse wraps ranked search hits for a query.
type SearchResponse struct {
	Query    string           `json:"query"`
	Products []domain.Product `json:"products"`
}

// ListFeed godoc
// @ID          listFeed
// @Summary     List the product feed (paginated)
// @Description Returns a page of active listings, newest first. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Products
// @Produce     json
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"abc123\")
// @Param       page           query   int     false "Page number"                  minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"               minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.FeedResponse
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     502  {object} handlers.ErrorResponse "Upstream error"
// @Router      /products [get]
func (h *Handlers) ListFeed(c *gin.Context) {
	ctx := c.Request.Context()
	page, pageSize := clampPagination(c)

	// ETag pre-check against the local snapshot (best effort).
	if h.DB != nil {
		count, maxTS, err := repo.FeedStats(ctx, h.DB)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"feed:%d:%d"`, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	if err := h.feed.FetchFeed(ctx); err != nil {
		fail(c, http.StatusBadGateway, ErrCodeListFailed, err.Error())
		return
	}

	items, pg := paginate(h.feed.Feed(), page, pageSize)
	ok(c, http.StatusOK, FeedResponse{Products: items, Pagination: pg})
}

// GetProduct godoc
// @ID          getProduct
// @Summary     Get one listing
// @Description Returns a single listing, serving from the cached feed when possible.
// @Tags        Products
// @Produce     json
//
// @Param       id  path  string  true "Product ID (UUID)" format(uuid)
//
// @Success     200  {object} domain.Product
// @Failure     404  {object} handlers.ErrorResponse "Listing not found"
// @Router      /products/{id} [get]
func (h *Handlers) GetProduct(c *gin.Context) {
	p, found := h.feed.Product(c.Request.Context(), c.Param("id"))
	if !found {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "listing not found")
		return
	}
	ok(c, http.StatusOK, p)
}

// SearchProducts godoc
// @ID          searchProducts
// @Summary     Search listings
// @Description Ranks cached listings against a free-text query over title, description, and category.
// @Tags        Products
// @Produce     json
//
// @Param       q      query  string  true  "Search query"
// @Param       limit  query  int     false "Maximum hits" minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.SearchResponse
// @Failure     400  {object} handlers.ErrorResponse "Missing query"
// @Router      /products/search [get]
func (h *Handlers) SearchProducts(c *gin.Context) {
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

	hits := h.feed.Search(q, limit)
	if hits == nil {
		hits = []domain.Product{}
	}
	ok(c, http.StatusOK, SearchResponse{Query: q, Products: hits})
}
