package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"equipment-registry-backend/internal/idempotency"
	"equipment-registry-backend/internal/registry"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	registry    *registry.Registry
	db          *gorm.DB
	webpush     *webpush.Options
	idempotency *idempotency.Store
}

// NewHandler creates a new API handler. db backs push subscriptions and
// may be nil when the registry runs without a SQL database; idem may be nil
// to disable Idempotency-Key support.
func NewHandler(reg *registry.Registry, db *gorm.DB, webpushOptions *webpush.Options, idem *idempotency.Store) *Handler {
	return &Handler{
		registry:    reg,
		db:          db,
		webpush:     webpushOptions,
		idempotency: idem,
	}
}

// abortWithRegistryError maps registry errors onto HTTP status codes.
func abortWithRegistryError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, registry.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "equipment not found"})
	case errors.Is(err, registry.ErrForbidden):
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "only the registering donor may modify this equipment"})
	default:
		log.Printf("registry error on %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
