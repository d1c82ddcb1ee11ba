package nmap

import (
	"encoding/binary"
	"encoding/hex"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"
)

const (
	legacyHeaderBytes = 4
	legacyFooterBytes = 4
	// legacyMinBytes is the mandatory header plus tile section.
	legacyMinBytes = legacyHeaderBytes + TileBytes
)

var (
	legacyHeader = [legacyHeaderBytes]byte{}
	legacyFooter = [legacyFooterBytes]byte{}
)

// ParseLegacy reads a map in the plain hex format of the old level
// editor, "$title#hexdata#". Structural problems are returned as errors;
// recoverable ones (bad footer, out of range tiles or orientations) are
// repaired and listed in the report.
func ParseLegacy(s string) (Map, Report, error) {
	var (
		m      Map
		report Report
	)
	s = strings.TrimSpace(s)
	if len(s) < 3 || s[0] != '$' || s[len(s)-1] != '#' {
		return m, report, errors.Wrap(ErrBadFormat, "legacy map must look like $title#data#")
	}
	body := s[1 : len(s)-1]
	sep := strings.LastIndexByte(body, '#')
	if sep < 0 {
		return m, report, errors.Wrap(ErrBadFormat, "legacy map has no title separator")
	}
	m.Title = body[:sep]

	data, err := hex.DecodeString(body[sep+1:])
	if err != nil {
		return m, report, errors.Wrapf(ErrBadFormat, "decode hex: %v", err)
	}
	if len(data) < legacyMinBytes {
		return m, report, errors.Wrapf(ErrTruncated, "legacy map has %d bytes, need at least %d", len(data), legacyMinBytes)
	}

	if [legacyHeaderBytes]byte(data[:legacyHeaderBytes]) != legacyHeader {
		report.warn("unexpected header %x", data[:legacyHeaderBytes])
	}

	tiles := data[legacyHeaderBytes:legacyMinBytes]
	for i, t := range tiles {
		if t > MaxTile {
			report.warn("tile %d at row %d column %d is invalid, cleared", t, i/Columns, i%Columns)
			t = 0
		}
		m.Tiles[i/Columns][i%Columns] = t
	}

	off := legacyMinBytes
	for _, typ := range legacyOrder() {
		if off+2 > len(data) {
			return m, report, errors.Wrapf(ErrTruncated, "missing %s count at byte %d", typ, off)
		}
		count := int(binary.LittleEndian.Uint16(data[off:]))
		off += 2

		attrs := objectTable[typ].attrs
		end := off + count*attrs
		if end > len(data) {
			return m, report, errors.Wrapf(ErrTruncated, "%d %s objects run past the end of the data", count, typ)
		}
		for ; off < end; off += attrs {
			rec := data[off : off+attrs]
			m.Objects = append(m.Objects, legacyObjects(typ, rec, &report)...)
		}
	}

	if tail := data[off:]; len(tail) != legacyFooterBytes || [legacyFooterBytes]byte(tail) != legacyFooter {
		report.warn("unexpected footer %x", tail)
	}

	m.Objects = stableSortObjects(m.Objects)
	return m, report, nil
}

// legacyObjects expands one legacy record. Exits and doors carry their
// switch in the two trailing bytes and turn into two objects.
func legacyObjects(typ ObjectType, rec []byte, report *Report) []Object {
	fields := [4]uint8{}
	n := len(rec)
	sw, paired := typ.companion()
	if paired {
		n -= 2
	}
	copy(fields[:], rec[:n])

	if n >= 3 && fields[2] > MaxOrientation {
		report.warn("%s at (%d, %d) has orientation %d, cleared", typ, fields[0], fields[1], fields[2])
		fields[2] = 0
	}
	obj := Object{Type: typ, X: fields[0], Y: fields[1], Orientation: fields[2], Extra: fields[3]}
	if !paired {
		return []Object{obj}
	}
	return []Object{obj, {Type: sw, X: rec[n], Y: rec[n+1]}}
}

// EncodeLegacy writes the map back in the plain hex format. Exits and
// doors are paired with their switches in list order.
func EncodeLegacy(m Map) (string, error) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	_, _ = buf.Write(legacyHeader[:])
	for _, row := range m.Tiles {
		_, _ = buf.Write(row[:])
	}

	byType := make(map[ObjectType][]Object)
	for _, o := range m.Objects {
		if !o.Type.Known() || (objectTable[o.Type].legacy < 0 && !o.Type.isCompanion()) {
			return "", errors.Wrapf(ErrBadFormat, "%s has no legacy encoding", o.Type)
		}
		byType[o.Type] = append(byType[o.Type], o)
	}

	var count [2]byte
	for _, typ := range legacyOrder() {
		items := byType[typ]
		if len(items) > 0xFFFF {
			return "", errors.Wrapf(ErrBadFormat, "too many %s objects: %d", typ, len(items))
		}
		var switches []Object
		sw, paired := typ.companion()
		if paired {
			switches = byType[sw]
			if len(switches) != len(items) {
				return "", errors.Wrapf(ErrBadFormat, "%d %s objects but %d switches", len(items), typ, len(switches))
			}
		}

		binary.LittleEndian.PutUint16(count[:], uint16(len(items)))
		_, _ = buf.Write(count[:])

		attrs := objectTable[typ].attrs
		for i, o := range items {
			b := o.bytes()
			if paired {
				_, _ = buf.Write(b[1 : attrs-1])
				_, _ = buf.Write([]byte{switches[i].X, switches[i].Y})
				continue
			}
			_, _ = buf.Write(b[1 : 1+attrs])
		}
	}
	_, _ = buf.Write(legacyFooter[:])

	var sb strings.Builder
	sb.Grow(len(m.Title) + 2*buf.Len() + 3)
	sb.WriteByte('$')
	sb.WriteString(m.Title)
	sb.WriteByte('#')
	sb.WriteString(hex.EncodeToString(buf.B))
	sb.WriteByte('#')
	return sb.String(), nil
}
