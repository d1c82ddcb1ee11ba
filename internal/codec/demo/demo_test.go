package demo

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func frames(n int, fill byte) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = fill
	}
	return out
}

func TestDecode_Layouts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		layout Layout
		levels int
	}{
		{name: "level", layout: LayoutLevel, levels: 1},
		{name: "episode", layout: LayoutEpisode, levels: 5},
		{name: "story", layout: LayoutStory, levels: 25},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ids := make([]int64, tc.levels)
			in := make([][]byte, tc.levels)
			want := 0
			for i := range in {
				ids[i] = int64(100 + i)
				in[i] = frames(10+i, byte(i%8))
				want += len(in[i])
			}
			payload, err := Compose(tc.layout, ids, in)
			require.NoError(t, err)
			replay, err := NewReplay(tc.layout, 55, 7, 9, payload)
			require.NoError(t, err)

			parsed, err := ParseReplay(replay.Bytes())
			require.NoError(t, err)
			assert.Equal(t, int64(55), parsed.ReplayID)
			assert.Equal(t, tc.layout.QueryType(), parsed.QueryType)

			d, err := parsed.Decode()
			require.NoError(t, err)
			if diff := cmp.Diff(in, d.Frames); diff != "" {
				t.Fatalf("frames mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, want, d.Framecount())
			assert.Equal(t, int32(ids[tc.levels-1]), d.Headers[tc.levels-1].LevelID)
		})
	}
}

func TestLayoutOf(t *testing.T) {
	t.Parallel()

	l, err := LayoutOf(25)
	require.NoError(t, err)
	assert.Equal(t, LayoutStory, l)
	assert.Equal(t, uint32(4), l.QueryType())

	_, err = LayoutOf(3)
	require.Error(t, err)
}

func TestDecode_Malformed(t *testing.T) {
	t.Parallel()

	t.Run("not zlib", func(t *testing.T) {
		t.Parallel()
		_, err := Decode([]byte("plain"), LayoutLevel)
		require.ErrorIs(t, err, ErrMalformed)
	})

	t.Run("block past the end", func(t *testing.T) {
		t.Parallel()
		payload, err := Compose(LayoutEpisode, []int64{0, 1, 2, 3, 4}, [][]byte{{0}, {0}, {0}, {0}, {0}})
		require.NoError(t, err)
		compressed, err := deflate(payload[:len(payload)-1])
		require.NoError(t, err)
		_, err = Decode(compressed, LayoutEpisode)
		require.ErrorIs(t, err, ErrMalformed)
	})

	t.Run("short reply", func(t *testing.T) {
		t.Parallel()
		_, err := ParseReplay(make([]byte, ReplayPrefixBytes))
		require.ErrorIs(t, err, ErrMalformed)
	})

	t.Run("unknown query type", func(t *testing.T) {
		t.Parallel()
		_, err := Replay{QueryType: 2, Payload: []byte{1}}.Decode()
		require.ErrorIs(t, err, ErrMalformed)
	})
}

func TestParseHeader(t *testing.T) {
	t.Parallel()

	block := make([]byte, HeaderBytes+3)
	Header{Type: 1, Size: 33, Version: 2, Framecount: 3, LevelID: 1234, Mode: 1, NinjaMask: 3, Static: -1}.put(block)

	h, err := ParseHeader(block)
	require.NoError(t, err)
	assert.Equal(t, Header{Type: 1, Size: 33, Version: 2, Framecount: 3, LevelID: 1234, Mode: 1, NinjaMask: 3, Static: -1}, h)

	_, err = ParseHeader(block[:HeaderBytes-1])
	require.ErrorIs(t, err, ErrMalformed)
}

func TestStoredRoundTrip(t *testing.T) {
	t.Parallel()

	in := [][]byte{{0, 1, 2, 3}, {4, 5}, {6}}
	data, err := Encode(in)
	require.NoError(t, err)
	out, err := DecodeStored(data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestEncode_RejectsDelimiterFrames(t *testing.T) {
	t.Parallel()

	_, err := Encode([][]byte{{0, 1}, {2, Delimiter, 3}})
	require.ErrorIs(t, err, ErrMalformed)
}

func TestCheckInputs(t *testing.T) {
	t.Parallel()

	require.NoError(t, CheckInputs([][]byte{{0, 7, MaxInput}, {}}))
	require.ErrorIs(t, CheckInputs([][]byte{{0, 1}, {MaxInput + 1}}), ErrMalformed)
	require.ErrorIs(t, CheckInputs([][]byte{{Delimiter}}), ErrMalformed)
}

func TestGold(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 1.0, GoldEstimate(5400, 120), 1e-9)
	d := Demo{Frames: [][]byte{frames(120, 0)}}
	assert.Equal(t, 1, d.Gold(5400))
}
