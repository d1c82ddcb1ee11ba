package leaderboard

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/riskibarqy/nleaderboard/internal/domain/highscoreable"
)

// Entry is one raw row as served by the game server. Score is in
// thousandths of a second.
type Entry struct {
	UserID   int64  `json:"user_id"`
	UserName string `json:"user_name"`
	Score    int64  `json:"score"`
	ReplayID int64  `json:"replay_id"`
}

// Ranked is a cleaned entry with its position on the board.
type Ranked struct {
	Entry
	Rank     int
	TiedRank int
	Cool     bool
	Star     bool
}

// CleanReport counts what the policy dropped or corrected.
type CleanReport struct {
	Blacklisted int `json:"blacklisted"`
	Denied      int `json:"denied"`
	Implausible int `json:"implausible"`
	Patched     int `json:"patched"`
}

func (r CleanReport) Dropped() int {
	return r.Blacklisted + r.Denied + r.Implausible
}

// Clean drops entries the policy rejects and applies score corrections.
// The result is not sorted.
func Clean(ref highscoreable.Ref, entries []Entry, policy Policy) ([]Entry, CleanReport) {
	var report CleanReport
	limit, bounded := policy.Ceiling(ref)

	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		switch {
		case policy.Blacklisted(e.UserID, e.UserName):
			report.Blacklisted++
			continue
		case policy.Denied(ref.Kind, e.ReplayID):
			report.Denied++
			continue
		case bounded && float64(e.Score)/1000 >= limit:
			report.Implausible++
			continue
		}

		if offset := policy.Correction(ref, e.ReplayID); offset != 0 {
			e.Score += 1000 * offset
			report.Patched++
		}
		out = append(out, e)
	}
	return out, report
}

// Sort orders entries best first: higher score, then lower replay id.
func Sort(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].ReplayID < entries[j].ReplayID
	})
}

// TiedRanks assigns each position the index of the first position holding
// an equal value. values must already be in board order.
func TiedRanks(values []int64) []int {
	out := make([]int, len(values))
	for i := range values {
		if i > 0 && values[i] == values[i-1] {
			out[i] = out[i-1]
			continue
		}
		out[i] = i
	}
	return out
}

// Rank runs the full pipeline for one board: clean, order, truncate to
// limit rows, assign ranks and badges. holders is the set of metanet ids
// that held 0th before this refresh; nil disables both badges.
func Rank(ref highscoreable.Ref, entries []Entry, policy Policy, holders map[int64]struct{}, limit int) ([]Ranked, CleanReport) {
	cleaned, report := Clean(ref, entries, policy)
	Sort(cleaned)
	if limit > 0 && len(cleaned) > limit {
		cleaned = cleaned[:limit]
	}

	values := make([]int64, len(cleaned))
	seconds := make([]float64, len(cleaned))
	for i, e := range cleaned {
		values[i] = e.Score
		seconds[i] = float64(e.Score) / 1000
	}
	tied := TiedRanks(values)

	cools := 0
	if holders != nil {
		cools = CoolCount(seconds)
	}

	out := make([]Ranked, 0, len(cleaned))
	for i, e := range cleaned {
		r := Ranked{Entry: e, Rank: i, TiedRank: tied[i], Cool: i < cools}
		if i == 0 && holders != nil {
			_, r.Star = holders[e.UserID]
		}
		out = append(out, r)
	}
	return out, report
}

// CoolCount returns how many leading rows are "cool", i.e. close to 0th
// relative to the spread of the board. scores are in seconds, best first.
//
// The precision is the first decimal position at which the string forms of
// the best and worst score diverge, shifted so boards whose top and bottom
// agree on more digits get a finer threshold. A board whose extremes agree
// on every compared digit has no cool rows.
func CoolCount(scores []float64) int {
	if len(scores) == 0 {
		return 0
	}

	best := scores[0]
	for _, s := range scores {
		best = math.Max(best, s)
	}
	max := len(strconv.FormatInt(int64(best), 10)) + 4

	s1 := floatString(scores[0])
	s2 := floatString(scores[len(scores)-1])
	d := -1
	for i := 0; i < max; i++ {
		if charAt(s1, i) != charAt(s2, i) {
			d = i
			break
		}
	}
	if d < 0 {
		return 0
	}

	digits := -(max - d - 5)
	if max-d < 4 {
		digits--
	}
	threshold := truncateDigits(scores[0], digits)
	for i, s := range scores {
		if s < threshold {
			return i
		}
	}
	return len(scores)
}

// charAt returns -1 past the end so a shorter string differs from a
// longer one at its first missing position.
func charAt(s string, i int) int {
	if i >= len(s) {
		return -1
	}
	return int(s[i])
}

// floatString formats like the shortest round-trip representation
// but always keeps a fractional part ("90.0", not "90").
func floatString(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// truncateDigits truncates x toward zero to the given number of decimal
// digits; non-positive digits truncate to a multiple of 10^-digits.
func truncateDigits(x float64, digits int) float64 {
	if digits > 0 {
		if x < 0 {
			return -floorDigits(-x, digits)
		}
		return floorDigits(x, digits)
	}

	i := math.Trunc(x)
	if digits == 0 {
		return i
	}
	unit := math.Pow(10, float64(-digits))
	return math.Trunc(i/unit) * unit
}

// floorDigits mirrors the correction step of a decimal floor so values
// such as 0.29 do not collapse to 0.28 through binary rounding.
func floorDigits(x float64, digits int) float64 {
	f := math.Pow(10, float64(digits))
	mul := math.Floor(x * f)
	res := (mul + 1) / f
	if res > x {
		res = mul / f
	}
	return res
}
