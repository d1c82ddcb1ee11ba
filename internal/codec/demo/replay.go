package demo

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"
)

// Replay is a get_replay reply: four little endian ids followed by the
// compressed demo.
type Replay struct {
	QueryType uint32
	ReplayID  int64
	LevelID   int64
	UserID    int64
	Payload   []byte
}

func ParseReplay(raw []byte) (Replay, error) {
	if len(raw) <= ReplayPrefixBytes {
		return Replay{}, errors.Wrapf(ErrMalformed, "replay has %d bytes", len(raw))
	}
	le := binary.LittleEndian
	return Replay{
		QueryType: le.Uint32(raw[0:]),
		ReplayID:  int64(le.Uint32(raw[4:])),
		LevelID:   int64(le.Uint32(raw[8:])),
		UserID:    int64(le.Uint32(raw[12:])),
		Payload:   raw[ReplayPrefixBytes:],
	}, nil
}

// NewReplay compresses payload and wraps it with the reply header.
func NewReplay(layout Layout, replayID, levelID, userID int64, payload []byte) (Replay, error) {
	compressed, err := deflate(payload)
	if err != nil {
		return Replay{}, err
	}
	return Replay{
		QueryType: layout.QueryType(),
		ReplayID:  replayID,
		LevelID:   levelID,
		UserID:    userID,
		Payload:   compressed,
	}, nil
}

func (r Replay) Bytes() []byte {
	out := make([]byte, ReplayPrefixBytes, ReplayPrefixBytes+len(r.Payload))
	le := binary.LittleEndian
	le.PutUint32(out[0:], r.QueryType)
	le.PutUint32(out[4:], uint32(r.ReplayID))
	le.PutUint32(out[8:], uint32(r.LevelID))
	le.PutUint32(out[12:], uint32(r.UserID))
	return append(out, r.Payload...)
}

// Decode walks the payload using the layout implied by the query type.
func (r Replay) Decode() (Demo, error) {
	layout, err := LayoutForQT(r.QueryType)
	if err != nil {
		return Demo{}, err
	}
	return Decode(r.Payload, layout)
}
