package gameproto

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

func sampleGame() *Game {
	return &Game{
		Metadata: Metadata{
			ID:        "4E5A6B3C11E8D1A2",
			Map:       "stadium_p",
			Version:   868,
			Time:      1546300800,
			Frames:    9000,
			MatchGUID: "A1B2C3D4",
			TeamSize:  2,
			Playlist:  11,
		},
		Players: []Player{
			{ID: "76561198000000001", Name: "Kaydop", Score: 540, Goals: 2, Saves: 1, Shots: 4},
			{ID: "76561198000000002", Name: "Turbopolsa", Score: 320, Assists: 1, IsOrange: true},
		},
	}
}

func TestMarshalUnmarshal(t *testing.T) {
	game := sampleGame()

	decoded, err := Unmarshal(Marshal(game))
	require.NoError(t, err)

	assert.Equal(t, game.Metadata, decoded.Metadata)
	require.Len(t, decoded.Players, 2)
	assert.Equal(t, game.Players[0], decoded.Players[0])
	assert.True(t, decoded.Players[1].IsOrange)
	assert.Equal(t, "Turbopolsa", decoded.Players[1].Name)
}

func TestUnmarshal_SkipsUnknownFields(t *testing.T) {
	var b []byte
	b = protowire.AppendTag(b, 99, protowire.BytesType)
	b = protowire.AppendString(b, "ignored")
	b = protowire.AppendTag(b, 3, protowire.BytesType)
	b = protowire.AppendBytes(b, []byte{0x08, 0x01})
	b = append(b, Marshal(sampleGame())...)

	decoded, err := Unmarshal(b)
	require.NoError(t, err)
	assert.Len(t, decoded.Players, 2)
}

func TestUnmarshal_Truncated(t *testing.T) {
	b := Marshal(sampleGame())

	_, err := Unmarshal(b[:len(b)-3])
	assert.Error(t, err)
}

func TestUnmarshal_WrongWireType(t *testing.T) {
	var md []byte
	md = protowire.AppendTag(md, metadataIDField, protowire.VarintType)
	md = protowire.AppendVarint(md, 7)

	var b []byte
	b = protowire.AppendTag(b, gameMetadataField, protowire.BytesType)
	b = protowire.AppendBytes(b, md)

	_, err := Unmarshal(b)
	assert.ErrorContains(t, err, "metadata")
}

func TestDelimited(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDelimited(&buf, sampleGame()))

	decoded, err := ReadDelimited(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, "A1B2C3D4", decoded.GUID())
	assert.Len(t, decoded.Players, 2)
}

func TestReadDelimited_Empty(t *testing.T) {
	_, err := ReadDelimited(bytes.NewReader(nil))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestReadDelimited_ShortBody(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDelimited(&buf, sampleGame()))

	_, err := ReadDelimited(bytes.NewReader(buf.Bytes()[:buf.Len()-5]))
	assert.Error(t, err)
}

func TestGUID_FallsBackToID(t *testing.T) {
	game := &Game{Metadata: Metadata{ID: "REPLAYID"}}
	assert.Equal(t, "REPLAYID", game.GUID())
}
