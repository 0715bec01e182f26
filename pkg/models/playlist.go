package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Playlist is the in-game playlist id the replay was recorded in.
type Playlist int32

const (
	PlaylistUnranked1v1      Playlist = 1
	PlaylistUnranked2v2      Playlist = 2
	PlaylistUnranked3v3      Playlist = 3
	PlaylistUnrankedChaos    Playlist = 4
	PlaylistPrivate          Playlist = 6
	PlaylistCustomLobby      Playlist = 8
	PlaylistRankedDuels      Playlist = 10
	PlaylistRankedDoubles    Playlist = 11
	PlaylistRankedStandard   Playlist = 13
	PlaylistUnrankedSnowDay  Playlist = 15
	PlaylistUnrankedRumble   Playlist = 23
	PlaylistUnrankedHoops    Playlist = 25
	PlaylistTournament       Playlist = 22
	PlaylistRankedHoops      Playlist = 27
	PlaylistRankedRumble     Playlist = 28
	PlaylistRankedDropshot   Playlist = 29
	PlaylistRankedSnowDay    Playlist = 30
	PlaylistUnrankedDropshot Playlist = 31
)

var playlistNames = map[Playlist]string{
	PlaylistUnranked1v1:      "unranked_duels",
	PlaylistUnranked2v2:      "unranked_doubles",
	PlaylistUnranked3v3:      "unranked_standard",
	PlaylistUnrankedChaos:    "unranked_chaos",
	PlaylistPrivate:          "private",
	PlaylistCustomLobby:      "custom_lobby",
	PlaylistRankedDuels:      "ranked_duels",
	PlaylistRankedDoubles:    "ranked_doubles",
	PlaylistRankedStandard:   "ranked_standard",
	PlaylistUnrankedSnowDay:  "unranked_snow_day",
	PlaylistTournament:       "tournament",
	PlaylistUnrankedRumble:   "unranked_rumble",
	PlaylistUnrankedHoops:    "unranked_hoops",
	PlaylistRankedHoops:      "ranked_hoops",
	PlaylistRankedRumble:     "ranked_rumble",
	PlaylistRankedDropshot:   "ranked_dropshot",
	PlaylistRankedSnowDay:    "ranked_snow_day",
	PlaylistUnrankedDropshot: "unranked_dropshot",
}

// String returns the playlist's API name.
func (p Playlist) String() string {
	if name, ok := playlistNames[p]; ok {
		return name
	}
	return fmt.Sprintf("playlist_%d", int32(p))
}

// Supported reports whether the service knows how to present the playlist.
func (p Playlist) Supported() bool {
	_, ok := playlistNames[p]
	return ok
}

// MarshalJSON encodes the playlist by name.
func (p Playlist) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON accepts a playlist name or numeric id.
func (p *Playlist) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var n int32
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("playlist must be a name or id: %w", err)
		}
		*p = Playlist(n)
		return nil
	}
	parsed, err := ParsePlaylist(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ParsePlaylist resolves a playlist from its API name or numeric id. Unknown
// playlists return an error.
func ParsePlaylist(s string) (Playlist, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.ParseInt(s, 10, 32); err == nil {
		p := Playlist(n)
		if !p.Supported() {
			return 0, fmt.Errorf("unsupported playlist %d", n)
		}
		return p, nil
	}
	for p, name := range playlistNames {
		if name == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unsupported playlist %q", s)
}
