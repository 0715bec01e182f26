package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/XavierBriggs/fortuna/services/replay-api/internal/apierrors"
	"github.com/XavierBriggs/fortuna/services/replay-api/internal/auth"
	"github.com/XavierBriggs/fortuna/services/replay-api/internal/queryparams"
	"github.com/XavierBriggs/fortuna/services/replay-api/pkg/models"
	"github.com/go-chi/chi/v5"
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

var (
	playlistParam       = queryparams.Param{Name: "playlist", Tip: "playlist name such as ranked_doubles, or its numeric id"}
	tagNamesParam       = queryparams.Param{Name: "tag_names", List: true}
	privateTagKeysParam = queryparams.Param{Name: "private_tag_keys", List: true}
	dateAfterParam      = queryparams.Param{Name: "date_after", Kind: queryparams.Date, Tip: "YYYY-MM-DD"}
	dateBeforeParam     = queryparams.Param{Name: "date_before", Kind: queryparams.Date, Tip: "YYYY-MM-DD"}
	limitParam          = queryparams.Param{Name: "limit", Kind: queryparams.Int, Tip: "a whole number of results"}
	offsetParam         = queryparams.Param{Name: "offset", Kind: queryparams.Int, Tip: "a whole number of results to skip"}
)

// GetReplayCount returns the number of replays in the catalog
// GET /api/v1/global/replay_count
func (h *Handler) GetReplayCount(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	count, err := h.catalog.CountReplays(ctx)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, models.ReplayCount{Count: count})
}

// GetReplay returns one catalog record
// GET /api/v1/replays/{id}
func (h *Handler) GetReplay(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	replay, err := h.catalog.GetReplay(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if replay == nil {
		h.respondError(w, r, apierrors.ReplayNotFound())
		return
	}

	respondJSON(w, http.StatusOK, replay)
}

// SearchReplays lists catalog replays matching the query
// GET /api/v1/replays?playlist=&tag_names=&private_tag_keys=&date_after=&date_before=&limit=&offset=
func (h *Handler) SearchReplays(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	query := r.URL.Query()

	// Private keys only make sense paired with the names they unlock
	tagNames := tagNamesParam
	tagNames.Required = query.Has(privateTagKeysParam.Name)

	params, err := queryparams.Parse(query,
		playlistParam, tagNames, privateTagKeysParam,
		dateAfterParam, dateBeforeParam, limitParam, offsetParam,
	)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	filters := models.ReplayFilters{
		Since:  params.Date(dateAfterParam.Name),
		Until:  params.Date(dateBeforeParam.Name),
		Limit:  clampLimit(params.Int(limitParam.Name, defaultLimit)),
		Offset: max(params.Int(offsetParam.Name, 0), 0),
	}

	if params.Has(playlistParam.Name) {
		playlist, err := models.ParsePlaylist(params.String(playlistParam.Name, ""))
		if err != nil {
			h.respondError(w, r, apierrors.UnsupportedPlaylist())
			return
		}
		filters.Playlist = &playlist
	}

	tagIDs, err := h.resolveTags(ctx, params)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	filters.TagIDs = tagIDs

	replays, err := h.catalog.SearchReplays(ctx, filters)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"replays": replays,
		"count":   len(replays),
		"limit":   filters.Limit,
		"offset":  filters.Offset,
	})
}

// resolveTags maps tag_names to tag ids. With private_tag_keys each name is
// paired with the key at the same position and may belong to anyone; without
// keys the names are looked up among the caller's own tags.
func (h *Handler) resolveTags(ctx context.Context, params queryparams.Values) ([]int64, error) {
	names := params.Strings(tagNamesParam.Name)

	if params.Has(privateTagKeysParam.Name) {
		if err := queryparams.RequireSameLength(params, tagNamesParam.Name, privateTagKeysParam.Name); err != nil {
			return nil, err
		}
		keys := params.Strings(privateTagKeysParam.Name)
		ids := make([]int64, 0, len(keys))
		for i, key := range keys {
			tag, err := h.catalog.GetTagByPrivateKey(ctx, key)
			if err != nil {
				return nil, err
			}
			if tag == nil || tag.Name != names[i] {
				return nil, apierrors.TagNotFound()
			}
			ids = append(ids, tag.ID)
		}
		return ids, nil
	}

	if len(names) == 0 {
		return nil, nil
	}

	userID, ok := auth.UserID(ctx)
	if !ok {
		return nil, apierrors.Authorization()
	}

	ids := make([]int64, 0, len(names))
	for _, name := range names {
		tag, err := h.catalog.GetTag(ctx, userID, name)
		if err != nil {
			return nil, err
		}
		if tag == nil {
			return nil, apierrors.TagNotFound()
		}
		ids = append(ids, tag.ID)
	}
	return ids, nil
}

// GetPlayerReplays lists the replays a player appears in
// GET /api/v1/players/{player_id}/replays?limit=&offset=
func (h *Handler) GetPlayerReplays(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	params, err := queryparams.Parse(r.URL.Query(), limitParam, offsetParam)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	filters := models.ReplayFilters{
		PlayerID: chi.URLParam(r, "player_id"),
		Limit:    clampLimit(params.Int(limitParam.Name, defaultLimit)),
		Offset:   max(params.Int(offsetParam.Name, 0), 0),
	}

	replays, err := h.catalog.SearchReplays(ctx, filters)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if len(replays) == 0 && filters.Offset == 0 {
		h.respondError(w, r, apierrors.UserHasNoReplays())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"replays": replays,
		"count":   len(replays),
		"limit":   filters.Limit,
		"offset":  filters.Offset,
	})
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}
