package frames

import (
	"bufio"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

const (
	MagicHeader string = "RLFT"
	Version1    uint32 = 1
)

// Limits on a decoded table. A full-length overtime replay is well under
// 100k frames and a few hundred columns.
const (
	MaxRows      = 1 << 20
	MaxTableSize = 512 << 20
)

// FileHeader is the fixed-size header at the start of a decompressed table.
type FileHeader struct {
	Magic       [4]byte
	Version     uint32
	RowCount    uint32
	ColumnCount uint32
}

// ColumnHeader precedes each column's name bytes and values.
type ColumnHeader struct {
	GroupLen uint16
	FieldLen uint16
}

// Read decodes a gzip-compressed table.
func Read(r io.Reader) (*Table, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("open gzip stream: %w", err)
	}
	defer zr.Close()

	return readBinary(bufio.NewReader(zr))
}

// Write encodes t as a gzip-compressed table.
func Write(w io.Writer, t *Table) error {
	zw := gzip.NewWriter(w)
	bw := bufio.NewWriter(zw)

	if err := writeBinary(bw, t); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush table: %w", err)
	}
	return zw.Close()
}

func readBinary(r io.Reader) (*Table, error) {
	var header FileHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	if string(header.Magic[:]) != MagicHeader {
		return nil, fmt.Errorf("invalid magic")
	}
	if header.Version != Version1 {
		return nil, fmt.Errorf("unsupported version: %d (expected %d)", header.Version, Version1)
	}

	if header.RowCount > MaxRows {
		return nil, fmt.Errorf("row count %d exceeds limit %d", header.RowCount, MaxRows)
	}
	if size := 8 * uint64(header.RowCount) * uint64(header.ColumnCount); size > MaxTableSize {
		return nil, fmt.Errorf("table size %d exceeds limit %d", size, MaxTableSize)
	}

	table := NewTable(int(header.RowCount))
	buf := make([]byte, 8*int(header.RowCount))

	for i := 0; i < int(header.ColumnCount); i++ {
		var ch ColumnHeader
		if err := binary.Read(r, binary.LittleEndian, &ch); err != nil {
			return nil, fmt.Errorf("failed to read column %d header: %w", i, err)
		}

		names := make([]byte, int(ch.GroupLen)+int(ch.FieldLen))
		if _, err := io.ReadFull(r, names); err != nil {
			return nil, fmt.Errorf("failed to read column %d name: %w", i, err)
		}
		group := string(names[:ch.GroupLen])
		field := string(names[ch.GroupLen:])

		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("failed to read column %s.%s: %w", group, field, err)
		}
		values := make([]float64, header.RowCount)
		for j := range values {
			values[j] = math.Float64frombits(binary.LittleEndian.Uint64(buf[j*8:]))
		}
		table.columns[Column{Group: group, Field: field}] = values
	}

	return table, nil
}

func writeBinary(w io.Writer, t *Table) error {
	cols := t.Columns()

	header := FileHeader{
		Version:     Version1,
		RowCount:    uint32(t.rows),
		ColumnCount: uint32(len(cols)),
	}
	copy(header.Magic[:], MagicHeader)

	if err := binary.Write(w, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	buf := make([]byte, 8*t.rows)
	for _, col := range cols {
		if len(col.Group) > math.MaxUint16 || len(col.Field) > math.MaxUint16 {
			return fmt.Errorf("column name too long: %s", col)
		}
		ch := ColumnHeader{
			GroupLen: uint16(len(col.Group)),
			FieldLen: uint16(len(col.Field)),
		}
		if err := binary.Write(w, binary.LittleEndian, &ch); err != nil {
			return err
		}
		if _, err := io.WriteString(w, col.Group+col.Field); err != nil {
			return err
		}

		for j, v := range t.columns[col] {
			binary.LittleEndian.PutUint64(buf[j*8:], math.Float64bits(v))
		}
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}

	return nil
}
