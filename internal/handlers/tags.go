package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/XavierBriggs/fortuna/services/replay-api/internal/apierrors"
	"github.com/XavierBriggs/fortuna/services/replay-api/internal/auth"
	"github.com/XavierBriggs/fortuna/services/replay-api/internal/db"
	"github.com/XavierBriggs/fortuna/services/replay-api/pkg/models"
	"github.com/go-chi/chi/v5"
)

// CreateTag creates a tag for the caller, or returns the existing one
// PUT /api/v1/tags/{name}
func (h *Handler) CreateTag(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := auth.UserID(ctx)
	if !ok {
		h.respondError(w, r, apierrors.Authorization())
		return
	}

	name := strings.TrimSpace(chi.URLParam(r, "name"))
	if name == "" {
		h.respondError(w, r, apierrors.TagNotFound())
		return
	}

	existing, err := h.catalog.GetTag(ctx, userID, name)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if existing != nil {
		respondJSON(w, http.StatusOK, existing)
		return
	}

	tag, err := h.catalog.CreateTag(ctx, userID, name)
	if errors.Is(err, db.ErrDuplicateTag) {
		// Lost a race with a concurrent create.
		tag, err = h.catalog.GetTag(ctx, userID, name)
	}
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, tag)
}

// TagReplay adds the caller's tag to a replay
// PUT /api/v1/tags/{name}/replays/{id}
func (h *Handler) TagReplay(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	tag, err := h.ownedTag(ctx, chi.URLParam(r, "name"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	replayID := chi.URLParam(r, "id")
	replay, err := h.catalog.GetReplay(ctx, replayID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if replay == nil {
		h.respondError(w, r, apierrors.ReplayNotFound())
		return
	}

	if err := h.catalog.AddTagToReplay(ctx, tag.ID, replayID); err != nil {
		h.respondError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UntagReplay removes the caller's tag from a replay
// DELETE /api/v1/tags/{name}/replays/{id}
func (h *Handler) UntagReplay(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	tag, err := h.ownedTag(ctx, chi.URLParam(r, "name"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	removed, err := h.catalog.RemoveTagFromReplay(ctx, tag.ID, chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if !removed {
		h.respondError(w, r, apierrors.ReplayNotFound())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ownedTag(ctx context.Context, name string) (*models.Tag, error) {
	userID, ok := auth.UserID(ctx)
	if !ok {
		return nil, apierrors.Authorization()
	}

	tag, err := h.catalog.GetTag(ctx, userID, strings.TrimSpace(name))
	if err != nil {
		return nil, err
	}
	if tag == nil {
		return nil, apierrors.TagNotFound()
	}
	return tag, nil
}
