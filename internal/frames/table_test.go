package frames

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTable(t *testing.T) *Table {
	t.Helper()

	table := NewTable(3)
	require.NoError(t, table.Set("ball", "pos_x", []float64{1, math.NaN(), 3}))
	require.NoError(t, table.Set("ball", "pos_y", []float64{4, 5, 6}))
	require.NoError(t, table.Set("game", "delta", []float64{0.03, 0.03, math.NaN()}))
	return table
}

func TestSet_RejectsWrongLength(t *testing.T) {
	table := NewTable(2)
	err := table.Set("ball", "pos_x", []float64{1})
	assert.Error(t, err)
}

func TestRows_FillsMissing(t *testing.T) {
	table := sampleTable(t)

	rows, err := table.Rows("ball", []string{"pos_x", "pos_y"}, -100)
	require.NoError(t, err)

	assert.Equal(t, [][]float64{{1, 4}, {-100, 5}, {3, 6}}, rows)
}

func TestRows_MissingColumn(t *testing.T) {
	table := sampleTable(t)

	_, err := table.Rows("ball", []string{"pos_z"}, -100)
	assert.ErrorContains(t, err, "missing column ball.pos_z")
}

func TestMap_LeavesSourceUntouched(t *testing.T) {
	table := sampleTable(t)

	doubled, err := table.Map("ball", []string{"pos_x"}, func(v float64) float64 { return v * 2 })
	require.NoError(t, err)

	got, _ := doubled.Get("ball", "pos_x")
	assert.Equal(t, 2.0, got[0])
	assert.True(t, math.IsNaN(got[1]))
	assert.Equal(t, 6.0, got[2])

	orig, _ := table.Get("ball", "pos_x")
	assert.Equal(t, 1.0, orig[0])
}

func TestWriteRead_PreservesColumnsAndNaN(t *testing.T) {
	table := sampleTable(t)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, table))

	decoded, err := Read(&buf)
	require.NoError(t, err)

	assert.Equal(t, 3, decoded.Len())
	assert.Equal(t, table.Columns(), decoded.Columns())
	assert.True(t, decoded.HasGroup("game"))
	assert.False(t, decoded.HasGroup("Player1"))

	delta, ok := decoded.Get("game", "delta")
	require.True(t, ok)
	assert.Equal(t, 0.03, delta[0])
	assert.True(t, math.IsNaN(delta[2]))
}

func TestRead_RejectsBadMagic(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte("NOPE\x01\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	_, err = Read(&buf)
	assert.ErrorContains(t, err, "invalid magic")
}

func TestRead_RejectsNonGzip(t *testing.T) {
	_, err := Read(bytes.NewReader([]byte("plain text")))
	assert.Error(t, err)
}

func gzipHeader(t *testing.T, rows, cols uint32) *bytes.Buffer {
	t.Helper()

	header := FileHeader{Version: Version1, RowCount: rows, ColumnCount: cols}
	copy(header.Magic[:], MagicHeader)

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	require.NoError(t, binary.Write(zw, binary.LittleEndian, &header))
	require.NoError(t, zw.Close())
	return &buf
}

func TestRead_RejectsOversizedRowCount(t *testing.T) {
	_, err := Read(gzipHeader(t, 0xFFFFFFFF, 1))
	assert.ErrorContains(t, err, "row count 4294967295 exceeds limit")
}

func TestRead_RejectsOversizedTable(t *testing.T) {
	_, err := Read(gzipHeader(t, MaxRows, 0xFFFF))
	assert.ErrorContains(t, err, "table size")
}

func TestRead_TruncatedColumn(t *testing.T) {
	_, err := Read(gzipHeader(t, 1000, 1))
	assert.ErrorContains(t, err, "failed to read column 0 header")
}
