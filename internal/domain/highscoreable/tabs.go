package highscoreable

// TabRange is a contiguous id range of one tab for one kind.
type TabRange struct {
	Kind  Kind
	Tab   Tab
	MinID int64
	MaxID int64
}

// TabRanges lists the vanilla id layout of the game.
var TabRanges = []TabRange{
	{Kind: KindEpisode, Tab: TabIntro, MinID: 0, MaxID: 24},
	{Kind: KindEpisode, Tab: TabN, MinID: 120, MaxID: 239},
	{Kind: KindEpisode, Tab: TabLegacy, MinID: 240, MaxID: 359},
	{Kind: KindEpisode, Tab: TabUltimate, MinID: 480, MaxID: 599},
	{Kind: KindLevel, Tab: TabIntro, MinID: 0, MaxID: 124},
	{Kind: KindLevel, Tab: TabN, MinID: 600, MaxID: 1199},
	{Kind: KindLevel, Tab: TabLegacy, MinID: 1200, MaxID: 1799},
	{Kind: KindLevel, Tab: TabSecret, MinID: 1800, MaxID: 1919},
	{Kind: KindLevel, Tab: TabUltimate, MinID: 2400, MaxID: 2999},
	{Kind: KindLevel, Tab: TabSecret2, MinID: 3000, MaxID: 3119},
	{Kind: KindStory, Tab: TabIntro, MinID: 0, MaxID: 4},
	{Kind: KindStory, Tab: TabN, MinID: 24, MaxID: 43},
	{Kind: KindStory, Tab: TabLegacy, MinID: 48, MaxID: 67},
	{Kind: KindStory, Tab: TabUltimate, MinID: 96, MaxID: 115},
}

// TabOf classifies a vanilla highscoreable by id.
func TabOf(ref Ref) Tab {
	if ref.Kind == KindUserlevel {
		return TabUserlevel
	}
	for _, r := range TabRanges {
		if r.Kind == ref.Kind && ref.ID >= r.MinID && ref.ID <= r.MaxID {
			return r.Tab
		}
	}
	return TabNone
}
