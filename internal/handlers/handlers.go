package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/XavierBriggs/fortuna/services/replay-api/internal/apierrors"
	"github.com/XavierBriggs/fortuna/services/replay-api/internal/db"
	"github.com/XavierBriggs/fortuna/services/replay-api/internal/positions"
	"github.com/sirupsen/logrus"
)

// Handler contains dependencies for HTTP handlers
type Handler struct {
	catalog   db.Catalog
	positions positions.Source
	log       logrus.FieldLogger
}

// NewHandler creates a new handler with dependencies
func NewHandler(catalog db.Catalog, source positions.Source, log logrus.FieldLogger) *Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handler{
		catalog:   catalog,
		positions: source,
		log:       log,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	// Check database connectivity
	if err := h.catalog.Ping(ctx); err != nil {
		h.log.WithError(err).Warn("catalog unhealthy")
		respondJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":  "unhealthy",
			"message": "catalog unavailable",
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"service":   "replay-api",
	})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logrus.WithError(err).Error("error encoding response")
	}
}

// respondError writes err as {"message": ...}. API errors carry their own
// status; anything else is logged and reported as a 500.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr, ok := apierrors.From(err)
	if !ok {
		apiErr = apierrors.Internal(err)
	}

	entry := h.log.WithFields(logrus.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
		"code":   apiErr.Code,
	})
	if apiErr.StatusCode() >= http.StatusInternalServerError {
		entry.WithError(err).Error("request failed")
	} else {
		entry.Debug(apiErr.Message)
	}

	respondJSON(w, apiErr.StatusCode(), apiErr.Body())
}
