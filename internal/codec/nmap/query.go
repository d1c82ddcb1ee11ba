package nmap

import (
	"encoding/binary"
	"time"

	"github.com/cockroachdb/errors"
)

const (
	queryHeaderBytes    = 48
	queryMapHeaderBytes = 44
	queryDateBytes      = 16
	queryBlockPrefix    = 6
	queryDateLayout     = "2006-01-02-15:04"
)

// QueryPage is one page of a userlevel browse or search reply.
type QueryPage struct {
	Date     time.Time
	Page     int
	Category int
	Mode     Mode
	Maps     []QueryMap
}

type QueryMap struct {
	ID       int64
	AuthorID int64 // -1 when the author is unknown
	Author   string
	Favs     int
	Date     time.Time
	Map      Map
}

// ParseQueryPage reads a reply made of a 48 byte page header, one 44
// byte header per map and one compressed data block per map.
func ParseQueryPage(data []byte) (QueryPage, error) {
	var page QueryPage
	if len(data) < queryHeaderBytes {
		return page, errors.Wrapf(ErrTruncated, "query page has %d bytes", len(data))
	}
	le := binary.LittleEndian
	page.Date = parseQueryDate(data[0:queryDateBytes])
	count := int(le.Uint32(data[16:]))
	page.Page = int(le.Uint32(data[20:]))
	page.Category = int(le.Uint32(data[28:]))
	page.Mode = Mode(le.Uint32(data[32:]))

	off := queryHeaderBytes
	if off+count*queryMapHeaderBytes > len(data) {
		return page, errors.Wrapf(ErrTruncated, "query page declares %d maps", count)
	}
	page.Maps = make([]QueryMap, count)
	for i := range page.Maps {
		h := data[off : off+queryMapHeaderBytes]
		qm := QueryMap{
			ID:     int64(le.Uint32(h[0:])),
			Author: cleanText(h[8:24]),
			Favs:   int(le.Uint32(h[24:])),
			Date:   parseQueryDate(h[28:44]),
		}
		qm.AuthorID = int64(int32(le.Uint32(h[4:])))
		if qm.Author == "null" {
			qm.AuthorID = -1
		}
		page.Maps[i] = qm
		off += queryMapHeaderBytes
	}

	for i := range page.Maps {
		if off+queryBlockPrefix > len(data) {
			return page, errors.Wrapf(ErrTruncated, "missing data block for map %d", page.Maps[i].ID)
		}
		size := int(le.Uint32(data[off:]))
		if size < queryBlockPrefix || off+size > len(data) {
			return page, errors.Wrapf(ErrTruncated, "data block of map %d declares %d bytes", page.Maps[i].ID, size)
		}
		raw, err := inflate(data[off+queryBlockPrefix : off+size])
		if err != nil {
			return page, errors.Wrapf(err, "map %d", page.Maps[i].ID)
		}
		m, err := parseLevelBlock(raw)
		if err != nil {
			return page, errors.Wrapf(err, "map %d", page.Maps[i].ID)
		}
		page.Maps[i].Map = m
		off += size
	}
	return page, nil
}

// EncodeQueryPage renders a page the way the game server sends it.
func EncodeQueryPage(page QueryPage) ([]byte, error) {
	le := binary.LittleEndian
	out := make([]byte, queryHeaderBytes, queryHeaderBytes+len(page.Maps)*queryMapHeaderBytes)
	copy(out[0:], formatQueryDate(page.Date))
	le.PutUint32(out[16:], uint32(len(page.Maps)))
	le.PutUint32(out[20:], uint32(page.Page))
	le.PutUint32(out[28:], uint32(page.Category))
	le.PutUint32(out[32:], uint32(page.Mode))

	for _, qm := range page.Maps {
		h := make([]byte, queryMapHeaderBytes)
		le.PutUint32(h[0:], uint32(qm.ID))
		le.PutUint32(h[4:], uint32(int32(qm.AuthorID)))
		author := []byte(qm.Author)
		if len(author) > 16 {
			author = author[:16]
		}
		copy(h[8:24], author)
		le.PutUint32(h[24:], uint32(qm.Favs))
		copy(h[28:44], formatQueryDate(qm.Date))
		out = append(out, h...)
	}

	for _, qm := range page.Maps {
		block, err := levelBlock(qm.Map, int32(qm.AuthorID))
		if err != nil {
			return nil, errors.Wrapf(err, "map %d", qm.ID)
		}
		compressed, err := deflate(block)
		if err != nil {
			return nil, err
		}
		prefix := make([]byte, queryBlockPrefix)
		le.PutUint32(prefix[0:], uint32(len(compressed)+queryBlockPrefix))
		le.PutUint16(prefix[4:], uint16((len(block)-objectsOffset)/ObjectBytes))
		out = append(out, prefix...)
		out = append(out, compressed...)
	}
	return out, nil
}

func parseQueryDate(field []byte) time.Time {
	t, err := time.Parse(queryDateLayout, cleanText(field))
	if err != nil {
		return time.Time{}
	}
	return t
}

func formatQueryDate(t time.Time) []byte {
	if t.IsZero() {
		return make([]byte, queryDateBytes)
	}
	return []byte(t.UTC().Format(queryDateLayout))
}
