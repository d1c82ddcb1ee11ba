// Package demo decodes N++ replays into per frame input bytes.
//
// Every level block starts with a 30 byte header followed by one byte per
// frame (bit 0 jump, bit 1 right, bit 2 left, bit 3 suicide). The first
// frame of each block is padding that the game never plays; Decode keeps
// it so that frame counts match the server's, and consumers that replay
// inputs must drop it themselves.
package demo

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"

	"github.com/cockroachdb/errors"
	"github.com/klauspost/compress/zlib"
)

const (
	// HeaderBytes is the size of a level block header.
	HeaderBytes = 30
	// ReplayPrefixBytes precedes the compressed payload in a server reply.
	ReplayPrefixBytes = 16
	// Delimiter separates the frame arrays of a stored multi level demo.
	Delimiter = '&'
	// MaxInput is the highest frame byte the game writes.
	MaxInput = 0x0F
)

// ErrMalformed is returned for any replay that cannot be walked.
var ErrMalformed = errors.New("malformed demo")

// Layout is the block structure of a decompressed payload.
type Layout int

const (
	LayoutLevel Layout = iota
	LayoutEpisode
	LayoutStory
)

type layoutSpec struct {
	levels int
	// lengths is where the block length table starts.
	lengths int
	// blocks is where the first block starts.
	blocks int
	qt     uint32
}

var layouts = map[Layout]layoutSpec{
	LayoutLevel:   {levels: 1, lengths: 1, blocks: 0, qt: 0},
	LayoutEpisode: {levels: 5, lengths: 4, blocks: 24, qt: 1},
	LayoutStory:   {levels: 25, lengths: 8, blocks: 108, qt: 4},
}

// LayoutOf picks the layout for a run through the given number of levels.
func LayoutOf(levels int) (Layout, error) {
	for l, spec := range layouts {
		if spec.levels == levels {
			return l, nil
		}
	}
	return 0, errors.Newf("no demo layout spans %d levels", levels)
}

// LayoutForQT maps a server query type onto a layout.
func LayoutForQT(qt uint32) (Layout, error) {
	for l, spec := range layouts {
		if spec.qt == qt {
			return l, nil
		}
	}
	return 0, errors.Wrapf(ErrMalformed, "unknown query type %d", qt)
}

func (l Layout) Levels() int { return layouts[l].levels }

// QueryType is the value the server uses for this layout.
func (l Layout) QueryType() uint32 { return layouts[l].qt }

// Header is the 30 byte prologue of a level block.
type Header struct {
	Type       uint8
	Size       int32
	Version    int32
	Framecount int32
	LevelID    int32
	Mode       int32
	Unknown    int32
	NinjaMask  uint8
	Static     int32
}

func ParseHeader(block []byte) (Header, error) {
	if len(block) < HeaderBytes {
		return Header{}, errors.Wrapf(ErrMalformed, "level block has %d bytes", len(block))
	}
	le := binary.LittleEndian
	return Header{
		Type:       block[0],
		Size:       int32(le.Uint32(block[1:])),
		Version:    int32(le.Uint32(block[5:])),
		Framecount: int32(le.Uint32(block[9:])),
		LevelID:    int32(le.Uint32(block[13:])),
		Mode:       int32(le.Uint32(block[17:])),
		Unknown:    int32(le.Uint32(block[21:])),
		NinjaMask:  block[25],
		Static:     int32(le.Uint32(block[26:])),
	}, nil
}

func (h Header) put(block []byte) {
	le := binary.LittleEndian
	block[0] = h.Type
	le.PutUint32(block[1:], uint32(h.Size))
	le.PutUint32(block[5:], uint32(h.Version))
	le.PutUint32(block[9:], uint32(h.Framecount))
	le.PutUint32(block[13:], uint32(h.LevelID))
	le.PutUint32(block[17:], uint32(h.Mode))
	le.PutUint32(block[21:], uint32(h.Unknown))
	block[25] = h.NinjaMask
	le.PutUint32(block[26:], uint32(h.Static))
}

// Demo is a decoded run.
type Demo struct {
	Headers []Header
	Frames  [][]byte
}

// Framecount is the number of frames across every level, padding included.
func (d Demo) Framecount() int {
	total := 0
	for _, f := range d.Frames {
		total += len(f)
	}
	return total
}

// Gold estimates how many gold pieces the run collected given its score
// in frames.
func (d Demo) Gold(scoreFrames int64) int {
	return int(math.Round(GoldEstimate(scoreFrames, int64(d.Framecount()))))
}

// GoldEstimate inverts the timer: a run starts with 90 seconds and each
// gold piece adds two, so time left plus time played reveals the gold.
func GoldEstimate(scoreFrames, framecount int64) float64 {
	return (float64(scoreFrames+framecount)/60 - 90) / 2
}

// Decode inflates a payload and splits it into level blocks.
func Decode(compressed []byte, layout Layout) (Demo, error) {
	spec, ok := layouts[layout]
	if !ok {
		return Demo{}, errors.Newf("unknown layout %d", layout)
	}
	data, err := inflate(compressed)
	if err != nil {
		return Demo{}, err
	}

	if len(data) < spec.lengths+4*spec.levels {
		return Demo{}, errors.Wrapf(ErrMalformed, "payload of %d bytes has no length table", len(data))
	}
	out := Demo{
		Headers: make([]Header, 0, spec.levels),
		Frames:  make([][]byte, 0, spec.levels),
	}
	off := spec.blocks
	for i := 0; i < spec.levels; i++ {
		size := int(int32(binary.LittleEndian.Uint32(data[spec.lengths+4*i:])))
		if size < HeaderBytes || off+size > len(data) {
			return Demo{}, errors.Wrapf(ErrMalformed, "block %d declares %d bytes at offset %d of %d", i, size, off, len(data))
		}
		block := data[off : off+size]
		h, err := ParseHeader(block)
		if err != nil {
			return Demo{}, err
		}
		out.Headers = append(out.Headers, h)
		out.Frames = append(out.Frames, block[HeaderBytes:])
		off += size
	}
	return out, nil
}

// Compose builds the uncompressed payload the game produces for the
// given frame arrays, one per level.
func Compose(layout Layout, levelIDs []int64, frames [][]byte) ([]byte, error) {
	spec, ok := layouts[layout]
	if !ok {
		return nil, errors.Newf("unknown layout %d", layout)
	}
	if len(frames) != spec.levels || len(levelIDs) != spec.levels {
		return nil, errors.Newf("layout needs %d levels, got %d frame arrays and %d ids", spec.levels, len(frames), len(levelIDs))
	}

	out := make([]byte, spec.blocks)
	for i, f := range frames {
		block := make([]byte, HeaderBytes+len(f))
		Header{
			Size:       int32(len(block)),
			Framecount: int32(len(f)),
			LevelID:    int32(levelIDs[i]),
			Static:     -1,
		}.put(block)
		copy(block[HeaderBytes:], f)
		if layout != LayoutLevel {
			binary.LittleEndian.PutUint32(out[spec.lengths+4*i:], uint32(len(block)))
		}
		out = append(out, block...)
	}
	return out, nil
}

// Encode compresses frame arrays for storage. A frame equal to Delimiter
// would split the array on decode and is rejected.
func Encode(frames [][]byte) ([]byte, error) {
	for i, f := range frames {
		if j := bytes.IndexByte(f, Delimiter); j >= 0 {
			return nil, errors.Wrapf(ErrMalformed, "level %d frame %d holds the delimiter", i, j)
		}
	}
	return deflate(bytes.Join(frames, []byte{Delimiter}))
}

// CheckInputs rejects frame bytes the game cannot produce.
func CheckInputs(frames [][]byte) error {
	for i, f := range frames {
		for j, b := range f {
			if b > MaxInput {
				return errors.Wrapf(ErrMalformed, "level %d frame %d has input %#x", i, j, b)
			}
		}
	}
	return nil
}

// DecodeStored is the inverse of Encode.
func DecodeStored(data []byte) ([][]byte, error) {
	raw, err := inflate(data)
	if err != nil {
		return nil, err
	}
	return bytes.Split(raw, []byte{Delimiter}), nil
}

func deflate(raw []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
	if err != nil {
		return nil, errors.Wrap(err, "create zlib writer")
	}
	if _, err := w.Write(raw); err != nil {
		return nil, errors.Wrap(err, "compress demo")
	}
	if err := w.Close(); err != nil {
		return nil, errors.Wrap(err, "flush compressor")
	}
	return buf.Bytes(), nil
}

func inflate(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrapf(ErrMalformed, "open zlib stream: %v", err)
	}
	defer r.Close()
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrapf(ErrMalformed, "inflate: %v", err)
	}
	return raw, nil
}
