package memory

import (
	"fmt"

	"github.com/riskibarqy/nleaderboard/internal/domain/highscoreable"
)

// SeedCatalog lists every vanilla level, episode and story.
func SeedCatalog() []highscoreable.Highscoreable {
	out := make([]highscoreable.Highscoreable, 0, 4000)
	for _, r := range highscoreable.TabRanges {
		for id := r.MinID; id <= r.MaxID; id++ {
			meta := highscoreable.Meta{
				ID:   id,
				Name: fmt.Sprintf("%s-%03d", r.Tab, id-r.MinID),
				Tab:  r.Tab,
			}
			switch r.Kind {
			case highscoreable.KindLevel:
				out = append(out, highscoreable.Level{Meta: meta, EpisodeID: id / 5})
			case highscoreable.KindEpisode:
				out = append(out, highscoreable.Episode{Meta: meta, StoryID: id / 5})
			case highscoreable.KindStory:
				out = append(out, highscoreable.Story{Meta: meta})
			}
		}
	}
	return out
}
