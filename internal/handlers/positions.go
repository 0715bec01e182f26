package handlers

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/XavierBriggs/fortuna/services/replay-api/internal/queryparams"
	"github.com/go-chi/chi/v5"
)

const positionsTimeout = 30 * time.Second

var (
	frameStartParam = queryparams.Param{Name: "frame_start", Kind: queryparams.Int, Tip: "first frame index, starting at 0"}
	frameEndParam   = queryparams.Param{Name: "frame_end", Kind: queryparams.Int, Tip: "frame index to stop before"}
)

// GetPositions returns per-frame ball, player and game telemetry
// GET /api/v1/replays/{id}/positions?frame_start=&frame_end=
func (h *Handler) GetPositions(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), positionsTimeout)
	defer cancel()

	params, err := queryparams.Parse(r.URL.Query(), frameStartParam, frameEndParam)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	rp, err := h.positions.Load(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	if params.Has(frameStartParam.Name) || params.Has(frameEndParam.Name) {
		rp = rp.Window(params.Int(frameStartParam.Name, 0), params.Int(frameEndParam.Name, 0))
	}

	respondJSON(w, http.StatusOK, rp)
}

// GetPlayerPositions returns one player's telemetry
// GET /api/v1/replays/{id}/positions/players/{name}
func (h *Handler) GetPlayerPositions(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), positionsTimeout)
	defer cancel()

	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil {
		name = chi.URLParam(r, "name")
	}

	rp, err := h.positions.Load(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	track, err := rp.Player(name)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, track)
}
