package venuesim

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"venue-client/internal/api"
)

// Handler serves the venue REST API from a Store.
type Handler struct {
	store *Store
}

// NewHandler creates a Handler.
func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

// GetTable handles GET /tables/:id.
func (h *Handler) GetTable(c *gin.Context) {
	t, err := h.store.Table(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	Success(c, gin.H{"table": t})
}

type startRequest struct {
	TableID string `json:"tableId"`
}

// StartSession handles POST /sessions/start and POST /sessions.
func (h *Handler) StartSession(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.TableID) == "" {
		BadRequest(c, "tableId is required")
		return
	}

	sess, created, err := h.store.StartSession(strings.TrimSpace(req.TableID))
	if err != nil {
		h.fail(c, err)
		return
	}
	if created {
		Created(c, gin.H{"session": sess})
		return
	}
	Success(c, gin.H{"session": sess})
}

// ActiveSession handles GET /sessions/by-table/:id.
func (h *Handler) ActiveSession(c *gin.Context) {
	sess, err := h.store.ActiveSession(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	Success(c, gin.H{"session": sess})
}

// Ping handles POST /sessions/:id/ping.
func (h *Handler) Ping(c *gin.Context) {
	until, err := h.store.Ping(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	Success(c, gin.H{"until": until})
}

// CloseSession handles POST /sessions/:id/close.
func (h *Handler) CloseSession(c *gin.Context) {
	sess, err := h.store.Close(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	Success(c, gin.H{"session": sess})
}

// Search handles GET /music/search?q=&market=.
func (h *Handler) Search(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		BadRequest(c, "q is required")
		return
	}
	Success(c, gin.H{"items": Search(q), "market": c.DefaultQuery("market", api.DefaultMarket)})
}

// CreateRequest handles POST /music/requests.
func (h *Handler) CreateRequest(c *gin.Context) {
	var p api.RequestPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		BadRequest(c, "invalid request body")
		return
	}
	if strings.TrimSpace(p.SessionID) == "" {
		Fail(c, http.StatusUnauthorized, CodeNoSession, "Scan your table's QR code to start a session.")
		return
	}

	r, err := h.store.CreateRequest(p)
	if err != nil {
		h.fail(c, err)
		return
	}
	Created(c, gin.H{"request": r})
}

// ListRequests handles GET /music/requests?status=&sort=&limit=&sessionId=.
func (h *Handler) ListRequests(c *gin.Context) {
	if sort := c.Query("sort"); sort != "" && sort != "createdAt:asc" {
		BadRequest(c, "unsupported sort "+strconv.Quote(sort))
		return
	}

	f := ListFilter{
		Statuses:  ParseStatuses(c.Query("status")),
		SessionID: c.Query("sessionId"),
	}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			BadRequest(c, "limit must be a non-negative integer")
			return
		}
		f.Limit = n
	}

	items, total := h.store.List(f)
	if items == nil {
		items = []api.SongRequest{}
	}
	Success(c, gin.H{"items": items, "total": total})
}

type statusUpdate struct {
	Status api.RequestStatus `json:"status"`
}

// UpdateRequest handles PATCH /music/requests/:id.
func (h *Handler) UpdateRequest(c *gin.Context) {
	var u statusUpdate
	if err := c.ShouldBindJSON(&u); err != nil {
		BadRequest(c, "invalid request body")
		return
	}
	r, err := h.store.SetStatus(c.Param("id"), u.Status)
	if err != nil {
		h.fail(c, err)
		return
	}
	Success(c, gin.H{"request": r})
}

func (h *Handler) fail(c *gin.Context, err error) {
	_ = c.Error(err)
	switch {
	case errors.Is(err, ErrTableNotFound):
		Fail(c, http.StatusNotFound, CodeTableNotFound, "That table does not exist.")
	case errors.Is(err, ErrSessionNotFound):
		Fail(c, http.StatusUnauthorized, CodeNoSession, "Scan your table's QR code to start a session.")
	case errors.Is(err, ErrSessionExpired):
		Fail(c, http.StatusGone, CodeSessionExpired, "Your session expired.")
	case errors.Is(err, ErrSessionClosed):
		Fail(c, http.StatusForbidden, CodeSessionInvalid, "This session was closed.")
	case errors.Is(err, ErrTrackRequired):
		Fail(c, http.StatusBadRequest, CodeTrackRequired, "Pick a song from the search results.")
	case errors.Is(err, ErrDuplicate):
		Fail(c, http.StatusConflict, CodeDuplicate, "You already requested that song.")
	case errors.Is(err, ErrRequestNotFound):
		Fail(c, http.StatusNotFound, CodeNotFound, "request not found")
	case errors.Is(err, ErrInvalidStatus):
		BadRequest(c, "invalid status")
	default:
		Fail(c, http.StatusInternalServerError, CodeInternal, "internal server error")
	}
}
