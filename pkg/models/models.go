package models

import "time"

// Replay is a catalog entry for an uploaded replay
type Replay struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Map        string    `json:"map"`
	Playlist   Playlist  `json:"playlist"`
	TeamSize   int       `json:"team_size"`
	UploaderID *string   `json:"uploader_id"`
	MatchDate  time.Time `json:"match_date"`
	UploadedAt time.Time `json:"uploaded_at"`
	Players    []string  `json:"players"`
	Tags       []string  `json:"tags,omitempty"`
}

// ReplayFilters defines filters for catalog searches
type ReplayFilters struct {
	Playlist *Playlist
	PlayerID string
	TagIDs   []int64
	Since    *time.Time
	Until    *time.Time
	Limit    int
	Offset   int
}

// Tag is a user-owned label on replays. PrivateKey lets others search by the
// tag without knowing its owner.
type Tag struct {
	ID         int64     `json:"id"`
	OwnerID    string    `json:"owner_id"`
	Name       string    `json:"name"`
	PrivateKey string    `json:"private_key,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// ReplayCount is the global counter shown on the home page
type ReplayCount struct {
	Count int64 `json:"count"`
}
