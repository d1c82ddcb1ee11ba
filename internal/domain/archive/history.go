package archive

import (
	"sort"
	"time"
)

const (
	// SnapshotSize is the depth of a reconstructed leaderboard.
	SnapshotSize = 20
	// DefaultChangeTolerance merges archive dates written by one refresh.
	DefaultChangeTolerance = 5 * time.Second
)

// Better orders archives best first: higher score, then lower replay id.
func Better(a, b Archive) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.ReplayID < b.ReplayID
}

// Snapshot reconstructs the leaderboard as of at: each player's best
// archive dated at or before at, best first, at most SnapshotSize rows.
// Rows dated after at never influence the result. Dates compare at one
// second resolution, the same resolution Changes reports.
func Snapshot(rows []Archive, at time.Time) []Archive {
	limit := at.Unix()
	best := make(map[int64]Archive)
	for _, row := range rows {
		if row.Date.Unix() > limit {
			continue
		}
		current, ok := best[row.MetanetID]
		if !ok || Better(row, current) {
			best[row.MetanetID] = row
		}
	}

	out := make([]Archive, 0, len(best))
	for _, row := range best {
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return Better(out[i], out[j]) })
	if len(out) > SnapshotSize {
		out = out[:SnapshotSize]
	}
	return out
}

// Changes lists the instants at which the board changed. Dates closer
// than tolerance to the next one are folded into it, so a cluster is
// represented by its last date.
func Changes(rows []Archive, tolerance time.Duration) []time.Time {
	seen := make(map[int64]struct{}, len(rows))
	secs := make([]int64, 0, len(rows))
	for _, row := range rows {
		unix := row.Date.Unix()
		if _, ok := seen[unix]; ok {
			continue
		}
		seen[unix] = struct{}{}
		secs = append(secs, unix)
	}
	sort.Slice(secs, func(i, j int) bool { return secs[i] < secs[j] })

	limit := int64(tolerance / time.Second)
	out := make([]time.Time, 0, len(secs))
	for i, s := range secs {
		if i == len(secs)-1 || secs[i+1]-s > limit {
			out = append(out, time.Unix(s, 0).UTC())
		}
	}
	return out
}

// Zeroths walks the change points up to until and returns every archive
// that took 0th by strictly beating the running record, in order. The
// holder at the first change point is always included, even when that
// point lies after until.
func Zeroths(rows []Archive, tolerance time.Duration, until time.Time) []Archive {
	dates := Changes(rows, tolerance)
	if len(dates) == 0 {
		return nil
	}

	first := Snapshot(rows, dates[0])
	if len(first) == 0 {
		return nil
	}
	holders := []Archive{first[0]}
	record := first[0].Score

	for i := 0; i+1 < len(dates); i++ {
		from, to := dates[i], dates[i+1]
		if to.After(until) {
			break
		}

		var top *Archive
		for j := range rows {
			row := rows[j]
			unix := row.Date.Unix()
			if unix <= from.Unix() || unix > to.Unix() {
				continue
			}
			if top == nil || Better(row, *top) {
				top = &rows[j]
			}
		}
		if top != nil && top.Score > record {
			holders = append(holders, *top)
			record = top.Score
		}
	}

	return holders
}

// HolderSet collects the metanet ids of historical 0th holders.
func HolderSet(holders []Archive) map[int64]struct{} {
	out := make(map[int64]struct{}, len(holders))
	for _, h := range holders {
		out[h.MetanetID] = struct{}{}
	}
	return out
}

// FindRank is the position of the player in the snapshot at at, or
// SnapshotSize when they were not on the board.
func FindRank(rows []Archive, metanetID int64, at time.Time) int {
	for i, row := range Snapshot(rows, at) {
		if row.MetanetID == metanetID {
			return i
		}
	}
	return SnapshotSize
}
