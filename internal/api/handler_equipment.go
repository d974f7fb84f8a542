package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"equipment-registry-backend/internal/idempotency"
	"equipment-registry-backend/internal/model"
	"equipment-registry-backend/internal/mw"
	"equipment-registry-backend/internal/parse"
	"equipment-registry-backend/internal/store"
)

// IdempotencyKeyHeader lets clients retry registrations safely.
const IdempotencyKeyHeader = "Idempotency-Key"

// ReplayedHeader is set to "true" when a response replays an earlier registration.
const ReplayedHeader = "Idempotent-Replayed"

type registerRequest struct {
	Name string `json:"name"`
	model.Details
}

type statusRequest struct {
	Status *string `json:"status" binding:"required"`
}

type idResponse struct {
	ID int64 `json:"id"`
}

func parseEquipmentID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid equipment ID"})
		return 0, false
	}
	return id, true
}

func callerOf(c *gin.Context) (model.Principal, bool) {
	caller, ok := mw.Principal(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
	}
	return caller, ok
}

// RegisterEquipment handles POST /api/equipment.
func (h *Handler) RegisterEquipment(c *gin.Context) {
	caller, ok := callerOf(c)
	if !ok {
		return
	}

	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	register := func() (int64, error) {
		return h.registry.Register(c.Request.Context(), caller, req.Name, req.Details)
	}

	key := c.GetHeader(IdempotencyKeyHeader)
	if key == "" || h.idempotency == nil {
		id, err := register()
		if err != nil {
			abortWithRegistryError(c, err)
			return
		}
		c.JSON(http.StatusCreated, idResponse{ID: id})
		return
	}

	// Keys are scoped per caller so one donor cannot replay another's registration.
	id, replayed, err := h.idempotency.Do(string(caller)+":"+key, register)
	if errors.Is(err, idempotency.ErrNotRecorded) {
		// The item exists; hand back its id so the client has no reason to retry.
		c.JSON(http.StatusCreated, idResponse{ID: id})
		return
	}
	if err != nil {
		abortWithRegistryError(c, err)
		return
	}
	if replayed {
		c.Header(ReplayedHeader, "true")
		c.JSON(http.StatusOK, idResponse{ID: id})
		return
	}
	c.JSON(http.StatusCreated, idResponse{ID: id})
}

// UpdateEquipmentStatus handles PUT /api/equipment/:id/status.
func (h *Handler) UpdateEquipmentStatus(c *gin.Context) {
	caller, ok := callerOf(c)
	if !ok {
		return
	}
	id, ok := parseEquipmentID(c)
	if !ok {
		return
	}

	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.registry.UpdateStatus(c.Request.Context(), caller, id, *req.Status)
	if err != nil {
		abortWithRegistryError(c, err)
		return
	}
	c.JSON(http.StatusOK, idResponse{ID: updated})
}

// UpdateEquipmentDetails handles PUT /api/equipment/:id/details.
func (h *Handler) UpdateEquipmentDetails(c *gin.Context) {
	caller, ok := callerOf(c)
	if !ok {
		return
	}
	id, ok := parseEquipmentID(c)
	if !ok {
		return
	}

	var req model.Details
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.registry.UpdateDetails(c.Request.Context(), caller, id, req)
	if err != nil {
		abortWithRegistryError(c, err)
		return
	}
	c.JSON(http.StatusOK, idResponse{ID: updated})
}

// GetEquipment handles GET /api/equipment/:id.
func (h *Handler) GetEquipment(c *gin.Context) {
	id, ok := parseEquipmentID(c)
	if !ok {
		return
	}

	e, err := h.registry.Get(c.Request.Context(), id)
	if err != nil {
		abortWithRegistryError(c, err)
		return
	}
	if e == nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "equipment not found"})
		return
	}
	c.JSON(http.StatusOK, e)
}

// ListEquipment handles GET /api/equipment?owner=&status=.
func (h *Handler) ListEquipment(c *gin.Context) {
	var filter store.ListFilter
	if raw := c.Query("owner"); raw != "" {
		owner, err := parse.ParsePrincipal(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		filter.Owner = owner
	}
	filter.Status = c.Query("status")

	items, err := h.registry.List(c.Request.Context(), filter)
	if err != nil {
		abortWithRegistryError(c, err)
		return
	}
	if items == nil {
		items = []model.Equipment{}
	}
	c.JSON(http.StatusOK, items)
}

// GetStats handles GET /api/stats.
func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.registry.Stats(c.Request.Context())
	if err != nil {
		abortWithRegistryError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
