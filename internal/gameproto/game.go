// Package gameproto decodes the protocol-buffer game object written by the
// replay analyzer. Only the fields this service reads are modelled; anything
// else on the wire is skipped.
package gameproto

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers from the analyzer's game.proto, metadata.proto and player.proto.
const (
	gameMetadataField protowire.Number = 1
	gamePlayersField  protowire.Number = 2

	metadataIDField        protowire.Number = 1
	metadataMapField       protowire.Number = 2
	metadataVersionField   protowire.Number = 3
	metadataTimeField      protowire.Number = 4
	metadataFramesField    protowire.Number = 5
	metadataMatchGUIDField protowire.Number = 13
	metadataTeamSizeField  protowire.Number = 14
	metadataPlaylistField  protowire.Number = 15

	playerIDField       protowire.Number = 1
	playerNameField     protowire.Number = 2
	playerScoreField    protowire.Number = 4
	playerGoalsField    protowire.Number = 5
	playerAssistsField  protowire.Number = 6
	playerSavesField    protowire.Number = 7
	playerShotsField    protowire.Number = 8
	playerIsOrangeField protowire.Number = 11

	playerIDIDField protowire.Number = 1
)

// MaxMessageSize bounds a delimited message read from disk or the network.
const MaxMessageSize = 64 << 20

// Game is the pre-parsed match: metadata plus the roster in replay order.
type Game struct {
	Metadata Metadata
	Players  []Player
}

// Metadata describes the match.
type Metadata struct {
	ID        string
	Map       string
	Version   int32
	Time      uint64
	Frames    int32
	MatchGUID string
	TeamSize  int32
	Playlist  int32
}

// Player is one roster entry.
type Player struct {
	ID       string
	Name     string
	Score    int32
	Goals    int32
	Assists  int32
	Saves    int32
	Shots    int32
	IsOrange bool
}

// GUID returns the match guid when present, otherwise the replay id.
func (g *Game) GUID() string {
	if g.Metadata.MatchGUID != "" {
		return g.Metadata.MatchGUID
	}
	return g.Metadata.ID
}

// Unmarshal decodes a Game message.
func Unmarshal(b []byte) (*Game, error) {
	game := &Game{}
	err := walk(b, func(num protowire.Number, typ protowire.Type, v []byte) (int, error) {
		switch {
		case num == gameMetadataField && typ == protowire.BytesType:
			msg, n := protowire.ConsumeBytes(v)
			if n < 0 {
				return n, nil
			}
			md, err := unmarshalMetadata(msg)
			if err != nil {
				return 0, fmt.Errorf("metadata: %w", err)
			}
			game.Metadata = md
			return n, nil
		case num == gamePlayersField && typ == protowire.BytesType:
			msg, n := protowire.ConsumeBytes(v)
			if n < 0 {
				return n, nil
			}
			p, err := unmarshalPlayer(msg)
			if err != nil {
				return 0, fmt.Errorf("player %d: %w", len(game.Players), err)
			}
			game.Players = append(game.Players, p)
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, v), nil
	})
	if err != nil {
		return nil, err
	}
	return game, nil
}

// ReadDelimited reads one varint length-prefixed Game message, the layout the
// analyzer uses for .replay.pts files.
func ReadDelimited(r io.Reader) (*Game, error) {
	br, ok := r.(io.ByteReader)
	if !ok {
		buffered := bufio.NewReader(r)
		br, r = buffered, buffered
	}

	size, err := binary.ReadUvarint(br)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read message size: %w", io.ErrUnexpectedEOF)
		}
		return nil, fmt.Errorf("read message size: %w", err)
	}
	if size > MaxMessageSize {
		return nil, fmt.Errorf("message size %d exceeds limit %d", size, MaxMessageSize)
	}

	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("read message: %w", err)
	}
	return Unmarshal(buf)
}

func unmarshalMetadata(b []byte) (Metadata, error) {
	var md Metadata
	err := walk(b, func(num protowire.Number, typ protowire.Type, v []byte) (int, error) {
		switch num {
		case metadataIDField:
			return consumeString(typ, v, &md.ID)
		case metadataMapField:
			return consumeString(typ, v, &md.Map)
		case metadataMatchGUIDField:
			return consumeString(typ, v, &md.MatchGUID)
		case metadataVersionField:
			return consumeInt32(typ, v, &md.Version)
		case metadataFramesField:
			return consumeInt32(typ, v, &md.Frames)
		case metadataTeamSizeField:
			return consumeInt32(typ, v, &md.TeamSize)
		case metadataPlaylistField:
			return consumeInt32(typ, v, &md.Playlist)
		case metadataTimeField:
			if typ != protowire.VarintType {
				break
			}
			x, n := protowire.ConsumeVarint(v)
			md.Time = x
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, v), nil
	})
	return md, err
}

func unmarshalPlayer(b []byte) (Player, error) {
	var p Player
	err := walk(b, func(num protowire.Number, typ protowire.Type, v []byte) (int, error) {
		switch num {
		case playerIDField:
			if typ != protowire.BytesType {
				break
			}
			msg, n := protowire.ConsumeBytes(v)
			if n < 0 {
				return n, nil
			}
			id, err := unmarshalPlayerID(msg)
			if err != nil {
				return 0, fmt.Errorf("id: %w", err)
			}
			p.ID = id
			return n, nil
		case playerNameField:
			return consumeString(typ, v, &p.Name)
		case playerScoreField:
			return consumeInt32(typ, v, &p.Score)
		case playerGoalsField:
			return consumeInt32(typ, v, &p.Goals)
		case playerAssistsField:
			return consumeInt32(typ, v, &p.Assists)
		case playerSavesField:
			return consumeInt32(typ, v, &p.Saves)
		case playerShotsField:
			return consumeInt32(typ, v, &p.Shots)
		case playerIsOrangeField:
			if typ != protowire.VarintType {
				break
			}
			x, n := protowire.ConsumeVarint(v)
			p.IsOrange = protowire.DecodeBool(x)
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, v), nil
	})
	return p, err
}

func unmarshalPlayerID(b []byte) (string, error) {
	var id string
	err := walk(b, func(num protowire.Number, typ protowire.Type, v []byte) (int, error) {
		if num == playerIDIDField {
			return consumeString(typ, v, &id)
		}
		return protowire.ConsumeFieldValue(num, typ, v), nil
	})
	return id, err
}

// walk iterates the fields of a message. fn receives the bytes following the
// tag and returns how many of them the field value used (negative on a
// malformed value).
func walk(b []byte, fn func(num protowire.Number, typ protowire.Type, v []byte) (int, error)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		m, err := fn(num, typ, b)
		if err != nil {
			return err
		}
		if m < 0 {
			return protowire.ParseError(m)
		}
		b = b[m:]
	}
	return nil
}

func consumeString(typ protowire.Type, v []byte, dst *string) (int, error) {
	if typ != protowire.BytesType {
		return 0, fmt.Errorf("expected length-delimited field, got wire type %d", typ)
	}
	s, n := protowire.ConsumeString(v)
	if n >= 0 {
		*dst = s
	}
	return n, nil
}

func consumeInt32(typ protowire.Type, v []byte, dst *int32) (int, error) {
	if typ != protowire.VarintType {
		return 0, fmt.Errorf("expected varint field, got wire type %d", typ)
	}
	x, n := protowire.ConsumeVarint(v)
	if n >= 0 {
		*dst = int32(x)
	}
	return n, nil
}
