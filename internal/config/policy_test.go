package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/riskibarqy/nleaderboard/internal/domain/highscoreable"
	"github.com/riskibarqy/nleaderboard/internal/domain/leaderboard"
)

func TestLoadPolicy_EmptyPathUsesDefaults(t *testing.T) {
	policy, err := LoadPolicy("")
	if err != nil {
		t.Fatalf("load policy: %v", err)
	}
	if !policy.Blacklisted(63944, "") {
		t.Fatalf("expected built-in blacklist")
	}
}

func TestLoadPolicy_MissingFile(t *testing.T) {
	if _, err := LoadPolicy(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing policy file")
	}
}

func TestLoadPolicy_OverridesListedSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	data := []byte(`
blacklist:
  ids: [7]
  names: [cheater]
denied_replays:
  level: [11, 12]
batch_patches:
  episode:
    120: {max_replay_id: 5000, offset: -3}
ceilings:
  - {kind: level, tab: SI, min_id: 0, max_id: 599, limit: 100}
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write policy: %v", err)
	}

	policy, err := LoadPolicy(path)
	if err != nil {
		t.Fatalf("load policy: %v", err)
	}

	if !policy.Blacklisted(7, "") || !policy.Blacklisted(1, "cheater") {
		t.Fatalf("expected file blacklist")
	}
	if policy.Blacklisted(63944, "") {
		t.Fatalf("file blacklist must replace the built-in one")
	}
	if !policy.Denied(highscoreable.KindLevel, 12) || policy.Denied(highscoreable.KindLevel, 3572785) {
		t.Fatalf("unexpected denied replays: %v", policy.DeniedReplays)
	}

	episode := highscoreable.Ref{Kind: highscoreable.KindEpisode, ID: 120}
	if got := policy.Correction(episode, 4000); got != -3 {
		t.Fatalf("unexpected correction: %d", got)
	}

	want := []leaderboard.Ceiling{{Kind: highscoreable.KindLevel, Tab: "SI", MinID: 0, MaxID: 599, Limit: 100}}
	if diff := cmp.Diff(want, policy.Ceilings); diff != "" {
		t.Fatalf("ceilings mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff(leaderboard.DefaultPolicy().ReplayPatches, policy.ReplayPatches); diff != "" {
		t.Fatalf("replay patches should keep defaults (-want +got):\n%s", diff)
	}
}

func TestParsePolicy_Errors(t *testing.T) {
	tests := map[string]string{
		"bad yaml":       "blacklist: [",
		"unknown kind":   "denied_replays:\n  planet: [1]\n",
		"inverted range": "ceilings:\n  - {kind: level, tab: S, min_id: 10, max_id: 5, limit: 1}\n",
		"zero limit":     "ceilings:\n  - {kind: level, tab: S, min_id: 0, max_id: 5, limit: 0}\n",
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ParsePolicy([]byte(raw)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
