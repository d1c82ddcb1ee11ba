package nmap

import (
	"encoding/binary"
	"strings"

	"github.com/cockroachdb/errors"
)

const (
	levelHeaderBytes = 30
	titleBytes       = 128
	titlePadBytes    = 18
	// countSlots is the number of per-type object counters in a level file.
	countSlots = 40

	tilesOffset   = levelHeaderBytes + titleBytes + titlePadBytes
	countsOffset  = tilesOffset + TileBytes
	objectsOffset = countsOffset + 2*countSlots

	// userlevelQT is the query type the game stamps on userlevel files.
	userlevelQT = 37
	// filePrefixBytes precedes the level block in a standalone file.
	filePrefixBytes = 8
)

// Dump produces the level file the game loads from disk: a magic number,
// the file size, and the level block.
func Dump(m Map) ([]byte, error) {
	block, err := levelBlock(m, -1)
	if err != nil {
		return nil, err
	}
	out := make([]byte, filePrefixBytes, filePrefixBytes+len(block))
	binary.LittleEndian.PutUint32(out[4:], uint32(filePrefixBytes+len(block)))
	return append(out, block...), nil
}

// Load reads a level file written by Dump.
func Load(data []byte) (Map, error) {
	if len(data) < filePrefixBytes {
		return Map{}, errors.Wrapf(ErrTruncated, "level file has %d bytes", len(data))
	}
	if size := binary.LittleEndian.Uint32(data[4:]); int(size) != len(data) {
		return Map{}, errors.Wrapf(ErrBadFormat, "level file declares %d bytes but has %d", size, len(data))
	}
	return parseLevelBlock(data[filePrefixBytes:])
}

// levelBlock renders the level block shared by files and query pages.
// Objects are sorted by type with every door followed by its switch.
func levelBlock(m Map, authorID int32) ([]byte, error) {
	objects, err := zipDoors(stableSortObjects(m.Objects))
	if err != nil {
		return nil, err
	}

	out := make([]byte, objectsOffset+ObjectBytes*len(objects))
	le := binary.LittleEndian
	le.PutUint32(out[0:], 0xFFFFFFFF)
	le.PutUint32(out[4:], uint32(m.Mode))
	le.PutUint32(out[8:], userlevelQT)
	le.PutUint32(out[12:], uint32(authorID))

	title := []byte(m.Title)
	if len(title) > titleBytes {
		title = title[:titleBytes]
	}
	copy(out[levelHeaderBytes:], title)

	for r, row := range m.Tiles {
		copy(out[tilesOffset+r*Columns:], row[:])
	}

	var counts [countSlots]uint16
	for i, o := range objects {
		if int(o.Type) >= countSlots {
			return nil, errors.Wrapf(ErrBadFormat, "object type %d cannot be stored in a level file", o.Type)
		}
		if !o.Type.IsSwitch() {
			counts[o.Type]++
		}
		b := o.bytes()
		copy(out[objectsOffset+i*ObjectBytes:], b[:])
	}
	for i, c := range counts {
		le.PutUint16(out[countsOffset+2*i:], c)
	}
	return out, nil
}

// zipDoors interleaves each door with the switch of the same rank, as
// the game expects them in pairs.
func zipDoors(sorted []Object) ([]Object, error) {
	out := make([]Object, 0, len(sorted))
	for i := 0; i < len(sorted); {
		key := sorted[i].Type.sortKey()
		j := i
		for j < len(sorted) && sorted[j].Type.sortKey() == key {
			j++
		}
		group := sorted[i:j]
		i = j

		if !ObjectType(key).IsDoor() {
			out = append(out, group...)
			continue
		}
		var doors, switches []Object
		for _, o := range group {
			if o.Type.IsSwitch() {
				switches = append(switches, o)
			} else {
				doors = append(doors, o)
			}
		}
		if len(doors) != len(switches) {
			return nil, errors.Wrapf(ErrBadFormat, "%d %s objects but %d switches", len(doors), ObjectType(key), len(switches))
		}
		for k := range doors {
			out = append(out, doors[k], switches[k])
		}
	}
	return out, nil
}

// parseLevelBlock is the inverse of levelBlock.
func parseLevelBlock(raw []byte) (Map, error) {
	var m Map
	if len(raw) < objectsOffset {
		return m, errors.Wrapf(ErrTruncated, "level block has %d bytes, need at least %d", len(raw), objectsOffset)
	}
	if (len(raw)-objectsOffset)%ObjectBytes != 0 {
		return m, errors.Wrapf(ErrBadFormat, "object section of %d bytes is not a multiple of %d", len(raw)-objectsOffset, ObjectBytes)
	}
	m.Mode = Mode(binary.LittleEndian.Uint32(raw[4:]))
	m.Title = cleanText(raw[levelHeaderBytes : levelHeaderBytes+titleBytes])
	for r := 0; r < Rows; r++ {
		copy(m.Tiles[r][:], raw[tilesOffset+r*Columns:tilesOffset+(r+1)*Columns])
	}
	for off := objectsOffset; off < len(raw); off += ObjectBytes {
		m.Objects = append(m.Objects, Object{
			Type:        ObjectType(raw[off]),
			X:           raw[off+1],
			Y:           raw[off+2],
			Orientation: raw[off+3],
			Extra:       raw[off+4],
		})
	}
	return m, nil
}

// cleanText reads a fixed width text field: everything after the first
// NUL is padding, and non printable bytes are dropped.
func cleanText(field []byte) string {
	out := make([]byte, 0, len(field))
	for _, b := range field {
		if b == 0 {
			break
		}
		if b < 32 || b > 126 {
			continue
		}
		out = append(out, b)
	}
	return strings.TrimSpace(string(out))
}
