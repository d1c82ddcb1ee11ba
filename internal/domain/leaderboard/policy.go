package leaderboard

import (
	"github.com/riskibarqy/nleaderboard/internal/domain/highscoreable"
)

// BatchPatch corrects every run on one highscoreable with a replay id up
// to MaxReplayID, which were played on an older version of the map.
type BatchPatch struct {
	MaxReplayID int64
	Offset      int64 // seconds
}

// Ceiling is the highest plausible score, in seconds, for one tab.
type Ceiling struct {
	Kind  highscoreable.Kind
	Tab   highscoreable.Tab
	MinID int64
	MaxID int64
	Limit float64
}

// Policy is the anti-cheat and correction configuration. It is built once
// at startup and treated as read-only afterwards.
type Policy struct {
	BlacklistedIDs   map[int64]struct{}
	BlacklistedNames map[string]struct{}
	DeniedReplays    map[highscoreable.Kind]map[int64]struct{}
	BatchPatches     map[highscoreable.Kind]map[int64]BatchPatch
	ReplayPatches    map[highscoreable.Kind]map[int64]int64
	Ceilings         []Ceiling
}

func (p Policy) Blacklisted(metanetID int64, name string) bool {
	if _, ok := p.BlacklistedIDs[metanetID]; ok {
		return true
	}
	_, ok := p.BlacklistedNames[name]
	return ok
}

func (p Policy) Denied(kind highscoreable.Kind, replayID int64) bool {
	_, ok := p.DeniedReplays[kind][replayID]
	return ok
}

// Ceiling returns the plausibility limit for ref. A highscoreable outside
// every listed range falls back to the highest limit of its kind; kinds
// without ceilings (userlevels, mappacks) are unbounded.
func (p Policy) Ceiling(ref highscoreable.Ref) (float64, bool) {
	var (
		max   float64
		found bool
	)
	for _, c := range p.Ceilings {
		if c.Kind != ref.Kind {
			continue
		}
		if ref.ID >= c.MinID && ref.ID <= c.MaxID {
			return c.Limit, true
		}
		if !found || c.Limit > max {
			max = c.Limit
		}
		found = true
	}
	return max, found
}

// Correction is the total offset in seconds applied to a run.
func (p Policy) Correction(ref highscoreable.Ref, replayID int64) int64 {
	var offset int64
	if patch, ok := p.BatchPatches[ref.Kind][ref.ID]; ok && replayID <= patch.MaxReplayID {
		offset += patch.Offset
	}
	if delta, ok := p.ReplayPatches[ref.Kind][replayID]; ok {
		offset += delta
	}
	return offset
}

// DefaultPolicy is the policy the public leaderboards are cleaned with.
func DefaultPolicy() Policy {
	ids := []int64{
		63944, 115572, 128613, 201322, 146275, 243184, 253161, 253072, 221472,
		276273, 291743, 75839, 307030, 298531, 76223, 325245, 202167, 173617,
	}
	names := []string{
		"Kronogenics", "BlueIsTrue", "fiordhraoi", "cheeseburgur101", "Jey",
		"jungletek", "Hedgy", "Venom", "EpicGamer10075", "Altii",
		"Floof The Goof", "Prismo", "Mishu", "dimitry008", "Chara", "test8378",
		"VexatiousCheff", "vex", "DBYT3", "Yup_This_Is_My_Name", "vorcazm",
		"Treagus", "The_Mega_Force", "Boringfish", "cock unsucker", "TylerDC",
		"Staticwork", "crit a cola drinker", "You have been banned.",
	}

	p := Policy{
		BlacklistedIDs:   make(map[int64]struct{}, len(ids)),
		BlacklistedNames: make(map[string]struct{}, len(names)),
		DeniedReplays: map[highscoreable.Kind]map[int64]struct{}{
			highscoreable.KindEpisode: {5035576: {}, 5073211: {}},
			highscoreable.KindLevel:   {3572785: {}, 3622469: {}},
		},
		BatchPatches: map[highscoreable.Kind]map[int64]BatchPatch{
			highscoreable.KindEpisode: {
				182: {MaxReplayID: 695142, Offset: -42},
				217: {MaxReplayID: 1165074, Offset: -8},
				509: {MaxReplayID: 2010381, Offset: -6},
			},
			highscoreable.KindLevel: {
				910:  {MaxReplayID: 286360, Offset: -42},
				1089: {MaxReplayID: 225710, Offset: -8},
				2549: {MaxReplayID: 2000000, Offset: -6},
			},
		},
		ReplayPatches: map[highscoreable.Kind]map[int64]int64{
			highscoreable.KindEpisode: {5067031: -6},
			highscoreable.KindLevel:   {3758900: -6},
		},
		Ceilings: defaultCeilings(),
	}
	for _, id := range ids {
		p.BlacklistedIDs[id] = struct{}{}
	}
	for _, name := range names {
		p.BlacklistedNames[name] = struct{}{}
	}
	return p
}

func defaultCeilings() []Ceiling {
	limits := map[highscoreable.Kind]map[highscoreable.Tab]float64{
		highscoreable.KindEpisode: {"SI": 400, "S": 950, "SL": 650, "SU": 650},
		highscoreable.KindLevel:   {"SI": 298, "S": 874, "SL": 400, "SS": 2462, "SU": 530, "SS2": 322},
		highscoreable.KindStory:   {"SI": 1000, "S": 2000, "SL": 2000, "SU": 1500},
	}

	out := make([]Ceiling, 0, len(highscoreable.TabRanges))
	for _, r := range highscoreable.TabRanges {
		limit, ok := limits[r.Kind][r.Tab]
		if !ok {
			continue
		}
		out = append(out, Ceiling{Kind: r.Kind, Tab: r.Tab, MinID: r.MinID, MaxID: r.MaxID, Limit: limit})
	}
	return out
}
