package gameproto

import (
	"fmt"
	"io"

	"google.golang.org/protobuf/encoding/protowire"
)

// Marshal encodes g using the same field numbers Unmarshal reads.
func Marshal(g *Game) []byte {
	var b []byte

	md := marshalMetadata(g.Metadata)
	b = protowire.AppendTag(b, gameMetadataField, protowire.BytesType)
	b = protowire.AppendBytes(b, md)

	for _, p := range g.Players {
		b = protowire.AppendTag(b, gamePlayersField, protowire.BytesType)
		b = protowire.AppendBytes(b, marshalPlayer(p))
	}
	return b
}

// WriteDelimited writes g with a varint length prefix.
func WriteDelimited(w io.Writer, g *Game) error {
	msg := Marshal(g)
	buf := protowire.AppendVarint(make([]byte, 0, len(msg)+binaryVarintLen), uint64(len(msg)))
	buf = append(buf, msg...)
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("write game: %w", err)
	}
	return nil
}

const binaryVarintLen = 10

func marshalMetadata(md Metadata) []byte {
	var b []byte
	b = appendString(b, metadataIDField, md.ID)
	b = appendString(b, metadataMapField, md.Map)
	b = appendVarint(b, metadataVersionField, uint64(md.Version))
	b = appendVarint(b, metadataTimeField, md.Time)
	b = appendVarint(b, metadataFramesField, uint64(md.Frames))
	b = appendString(b, metadataMatchGUIDField, md.MatchGUID)
	b = appendVarint(b, metadataTeamSizeField, uint64(md.TeamSize))
	b = appendVarint(b, metadataPlaylistField, uint64(md.Playlist))
	return b
}

func marshalPlayer(p Player) []byte {
	var b []byte
	if p.ID != "" {
		b = protowire.AppendTag(b, playerIDField, protowire.BytesType)
		b = protowire.AppendBytes(b, appendString(nil, playerIDIDField, p.ID))
	}
	b = appendString(b, playerNameField, p.Name)
	b = appendVarint(b, playerScoreField, uint64(p.Score))
	b = appendVarint(b, playerGoalsField, uint64(p.Goals))
	b = appendVarint(b, playerAssistsField, uint64(p.Assists))
	b = appendVarint(b, playerSavesField, uint64(p.Saves))
	b = appendVarint(b, playerShotsField, uint64(p.Shots))
	if p.IsOrange {
		b = appendVarint(b, playerIsOrangeField, protowire.EncodeBool(true))
	}
	return b
}

// proto3 semantics: zero values are not written.
func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}
