// Package nmap converts N++ maps between their in-memory form and the
// binary layouts used by the game and by storage.
package nmap

import (
	"bytes"
	"fmt"
	"io"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/klauspost/compress/zlib"
)

const (
	Rows    = 23
	Columns = 42
	// TileBytes is the size of a packed tile grid.
	TileBytes = Rows * Columns
	// ObjectBytes is the size of one object record in the current format.
	ObjectBytes = 5

	// MaxTile is the highest valid tile value; anything above renders as empty.
	MaxTile = 33
	// MaxOrientation is the highest of the eight object orientations.
	MaxOrientation = 7
)

var (
	// ErrTruncated is returned when data ends before a mandatory section.
	ErrTruncated = errors.New("map data truncated")
	// ErrBadFormat is returned for structurally invalid input.
	ErrBadFormat = errors.New("malformed map data")
)

type Mode uint8

const (
	ModeSolo Mode = iota
	ModeCoop
	ModeRace
)

// Object is one entity in the current five byte layout.
type Object struct {
	Type        ObjectType
	X           uint8
	Y           uint8
	Orientation uint8
	Extra       uint8
}

func (o Object) bytes() [ObjectBytes]byte {
	return [ObjectBytes]byte{byte(o.Type), o.X, o.Y, o.Orientation, o.Extra}
}

type Map struct {
	Title   string
	Mode    Mode
	Tiles   [Rows][Columns]uint8
	Objects []Object
}

// Report collects non fatal anomalies found while decoding. Callers log
// them and keep using the result.
type Report struct {
	Warnings []string
}

func (r *Report) warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func (r Report) Clean() bool {
	return len(r.Warnings) == 0
}

// EncodeTiles packs the grid row-major at one byte per cell and compresses it.
func EncodeTiles(tiles [Rows][Columns]uint8) ([]byte, error) {
	raw := make([]byte, 0, TileBytes)
	for _, row := range tiles {
		raw = append(raw, row[:]...)
	}
	return deflate(raw)
}

func DecodeTiles(data []byte) ([Rows][Columns]uint8, error) {
	var tiles [Rows][Columns]uint8
	raw, err := inflate(data)
	if err != nil {
		return tiles, err
	}
	if len(raw) != TileBytes {
		return tiles, errors.Wrapf(ErrBadFormat, "tile data has %d bytes, want %d", len(raw), TileBytes)
	}
	for r := 0; r < Rows; r++ {
		copy(tiles[r][:], raw[r*Columns:(r+1)*Columns])
	}
	return tiles, nil
}

// EncodeObjects transposes the object list so that all types come first,
// then all x coordinates and so on, then compresses it. Grouping similar
// values this way compresses noticeably better.
func EncodeObjects(objects []Object) ([]byte, error) {
	n := len(objects)
	raw := make([]byte, ObjectBytes*n)
	for i, o := range objects {
		b := o.bytes()
		for col := 0; col < ObjectBytes; col++ {
			raw[col*n+i] = b[col]
		}
	}
	return deflate(raw)
}

func DecodeObjects(data []byte) ([]Object, error) {
	raw, err := inflate(data)
	if err != nil {
		return nil, err
	}
	if len(raw)%ObjectBytes != 0 {
		return nil, errors.Wrapf(ErrBadFormat, "object data has %d bytes, not a multiple of %d", len(raw), ObjectBytes)
	}
	n := len(raw) / ObjectBytes
	objects := make([]Object, n)
	for i := range objects {
		objects[i] = Object{
			Type:        ObjectType(raw[i]),
			X:           raw[n+i],
			Y:           raw[2*n+i],
			Orientation: raw[3*n+i],
			Extra:       raw[4*n+i],
		}
	}
	return objects, nil
}

// stableSortObjects orders objects by type while keeping every switch
// right behind the door it belongs to.
func stableSortObjects(objects []Object) []Object {
	out := make([]Object, len(objects))
	copy(out, objects)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Type.sortKey() < out[j].Type.sortKey()
	})
	return out
}

func deflate(raw []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
	if err != nil {
		return nil, errors.Wrap(err, "create zlib writer")
	}
	if _, err := w.Write(raw); err != nil {
		return nil, errors.Wrap(err, "compress")
	}
	if err := w.Close(); err != nil {
		return nil, errors.Wrap(err, "flush compressor")
	}
	return buf.Bytes(), nil
}

func inflate(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrapf(ErrBadFormat, "open zlib stream: %v", err)
	}
	defer r.Close()
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrapf(ErrBadFormat, "inflate: %v", err)
	}
	return raw, nil
}
