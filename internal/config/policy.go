package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/riskibarqy/nleaderboard/internal/domain/highscoreable"
	"github.com/riskibarqy/nleaderboard/internal/domain/leaderboard"
	"gopkg.in/yaml.v3"
)

// policyFile is the YAML shape of the anti-cheat policy. Sections left out
// of the file keep their built-in values.
type policyFile struct {
	Blacklist *struct {
		IDs   []int64  `yaml:"ids"`
		Names []string `yaml:"names"`
	} `yaml:"blacklist"`
	DeniedReplays map[string][]int64                  `yaml:"denied_replays"`
	BatchPatches  map[string]map[int64]batchPatchFile `yaml:"batch_patches"`
	ReplayPatches map[string]map[int64]int64          `yaml:"replay_patches"`
	Ceilings      []ceilingFile                       `yaml:"ceilings"`
}

type batchPatchFile struct {
	MaxReplayID int64 `yaml:"max_replay_id"`
	Offset      int64 `yaml:"offset"`
}

type ceilingFile struct {
	Kind  string  `yaml:"kind"`
	Tab   string  `yaml:"tab"`
	MinID int64   `yaml:"min_id"`
	MaxID int64   `yaml:"max_id"`
	Limit float64 `yaml:"limit"`
}

// LoadPolicy reads the policy at path. An empty path yields the built-in
// policy.
func LoadPolicy(path string) (leaderboard.Policy, error) {
	if strings.TrimSpace(path) == "" {
		return leaderboard.DefaultPolicy(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return leaderboard.Policy{}, fmt.Errorf("read policy file: %w", err)
	}
	return ParsePolicy(data)
}

func ParsePolicy(data []byte) (leaderboard.Policy, error) {
	var file policyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return leaderboard.Policy{}, fmt.Errorf("failed to unmarshal policy: %w", err)
	}

	policy := leaderboard.DefaultPolicy()
	if file.Blacklist != nil {
		policy.BlacklistedIDs = make(map[int64]struct{}, len(file.Blacklist.IDs))
		for _, id := range file.Blacklist.IDs {
			policy.BlacklistedIDs[id] = struct{}{}
		}
		policy.BlacklistedNames = make(map[string]struct{}, len(file.Blacklist.Names))
		for _, name := range file.Blacklist.Names {
			policy.BlacklistedNames[name] = struct{}{}
		}
	}

	if file.DeniedReplays != nil {
		policy.DeniedReplays = make(map[highscoreable.Kind]map[int64]struct{}, len(file.DeniedReplays))
		for rawKind, ids := range file.DeniedReplays {
			kind, err := highscoreable.ParseKind(rawKind)
			if err != nil {
				return leaderboard.Policy{}, fmt.Errorf("denied_replays: %w", err)
			}
			set := make(map[int64]struct{}, len(ids))
			for _, id := range ids {
				set[id] = struct{}{}
			}
			policy.DeniedReplays[kind] = set
		}
	}

	if file.BatchPatches != nil {
		policy.BatchPatches = make(map[highscoreable.Kind]map[int64]leaderboard.BatchPatch, len(file.BatchPatches))
		for rawKind, patches := range file.BatchPatches {
			kind, err := highscoreable.ParseKind(rawKind)
			if err != nil {
				return leaderboard.Policy{}, fmt.Errorf("batch_patches: %w", err)
			}
			byID := make(map[int64]leaderboard.BatchPatch, len(patches))
			for id, patch := range patches {
				byID[id] = leaderboard.BatchPatch{MaxReplayID: patch.MaxReplayID, Offset: patch.Offset}
			}
			policy.BatchPatches[kind] = byID
		}
	}

	if file.ReplayPatches != nil {
		policy.ReplayPatches = make(map[highscoreable.Kind]map[int64]int64, len(file.ReplayPatches))
		for rawKind, patches := range file.ReplayPatches {
			kind, err := highscoreable.ParseKind(rawKind)
			if err != nil {
				return leaderboard.Policy{}, fmt.Errorf("replay_patches: %w", err)
			}
			policy.ReplayPatches[kind] = patches
		}
	}

	if file.Ceilings != nil {
		policy.Ceilings = make([]leaderboard.Ceiling, 0, len(file.Ceilings))
		for i, c := range file.Ceilings {
			kind, err := highscoreable.ParseKind(c.Kind)
			if err != nil {
				return leaderboard.Policy{}, fmt.Errorf("ceilings[%d]: %w", i, err)
			}
			if c.MaxID < c.MinID {
				return leaderboard.Policy{}, fmt.Errorf("ceilings[%d]: max_id %d is below min_id %d", i, c.MaxID, c.MinID)
			}
			if c.Limit <= 0 {
				return leaderboard.Policy{}, fmt.Errorf("ceilings[%d]: limit must be > 0", i)
			}
			policy.Ceilings = append(policy.Ceilings, leaderboard.Ceiling{
				Kind:  kind,
				Tab:   highscoreable.Tab(strings.TrimSpace(c.Tab)),
				MinID: c.MinID,
				MaxID: c.MaxID,
				Limit: c.Limit,
			})
		}
	}

	return policy, nil
}
