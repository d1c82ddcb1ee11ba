package highscoreable

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is the closed set of rankable targets.
type Kind string

const (
	KindLevel          Kind = "level"
	KindEpisode        Kind = "episode"
	KindStory          Kind = "story"
	KindUserlevel      Kind = "userlevel"
	KindMappackLevel   Kind = "mappack_level"
	KindMappackEpisode Kind = "mappack_episode"
	KindMappackStory   Kind = "mappack_story"
)

var AllKinds = []Kind{
	KindLevel,
	KindEpisode,
	KindStory,
	KindUserlevel,
	KindMappackLevel,
	KindMappackEpisode,
	KindMappackStory,
}

func ParseKind(v string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(v)))
	for _, known := range AllKinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown highscoreable kind %q", v)
}

// Base maps mappack kinds onto the vanilla kind with the same shape.
func (k Kind) Base() Kind {
	switch k {
	case KindMappackLevel:
		return KindLevel
	case KindMappackEpisode:
		return KindEpisode
	case KindMappackStory:
		return KindStory
	default:
		return k
	}
}

func (k Kind) IsMappack() bool {
	return k == KindMappackLevel || k == KindMappackEpisode || k == KindMappackStory
}

// LevelCount is the number of levels a run of this kind plays through.
func (k Kind) LevelCount() int {
	switch k.Base() {
	case KindEpisode:
		return 5
	case KindStory:
		return 25
	default:
		return 1
	}
}

// Archived reports whether refreshes of this kind keep a history.
func (k Kind) Archived() bool {
	return k == KindLevel || k == KindEpisode || k == KindStory
}

// Tab is the thematic grouping a highscoreable is listed under.
type Tab string

const (
	TabIntro     Tab = "SI"
	TabN         Tab = "S"
	TabLegacy    Tab = "SL"
	TabSecret    Tab = "SS"
	TabUltimate  Tab = "SU"
	TabSecret2   Tab = "SS2"
	TabUserlevel Tab = "UL"
	TabNone      Tab = ""
)

type Mode int

const (
	ModeSolo Mode = iota
	ModeCoop
	ModeRace
)

func (m Mode) String() string {
	switch m {
	case ModeCoop:
		return "coop"
	case ModeRace:
		return "race"
	default:
		return "solo"
	}
}

// Ref is the stable identity of a highscoreable.
type Ref struct {
	Kind Kind
	ID   int64
}

func (r Ref) String() string {
	return string(r.Kind) + ":" + strconv.FormatInt(r.ID, 10)
}

func (r Ref) Validate() error {
	if _, err := ParseKind(string(r.Kind)); err != nil {
		return err
	}
	if r.ID < 0 {
		return fmt.Errorf("highscoreable id must be >= 0")
	}
	return nil
}

// Meta carries the attributes shared by every variant.
type Meta struct {
	ID   int64
	Name string
	Tab  Tab
	Mode Mode
	// Gold is the number of gold pieces placed in the map(s), used to
	// sanity check submitted runs. Zero when unknown.
	Gold        int
	Completions int
}

func (m Meta) Info() Meta { return m }

// Highscoreable is implemented by every rankable variant.
type Highscoreable interface {
	Ref() Ref
	Info() Meta
}

type Level struct {
	Meta
	EpisodeID int64
}

func (l Level) Ref() Ref { return Ref{Kind: KindLevel, ID: l.ID} }

type Episode struct {
	Meta
	StoryID int64
}

func (e Episode) Ref() Ref { return Ref{Kind: KindEpisode, ID: e.ID} }

// LevelIDs lists the five levels of the episode, which are numbered
// consecutively from five times the episode id.
func (e Episode) LevelIDs() []int64 {
	out := make([]int64, 0, 5)
	for i := int64(0); i < 5; i++ {
		out = append(out, 5*e.ID+i)
	}
	return out
}

type Story struct {
	Meta
}

func (s Story) Ref() Ref { return Ref{Kind: KindStory, ID: s.ID} }

func (s Story) EpisodeIDs() []int64 {
	out := make([]int64, 0, 5)
	for i := int64(0); i < 5; i++ {
		out = append(out, 5*s.ID+i)
	}
	return out
}

type Userlevel struct {
	Meta
	AuthorID int64
	Author   string
	Favs     int
	Scored   bool
}

func (u Userlevel) Ref() Ref { return Ref{Kind: KindUserlevel, ID: u.ID} }

// Mappack variants belong to a community map pack.
type MappackLevel struct {
	Meta
	MappackID int64
	EpisodeID int64
}

func (l MappackLevel) Ref() Ref { return Ref{Kind: KindMappackLevel, ID: l.ID} }

type MappackEpisode struct {
	Meta
	MappackID int64
	StoryID   int64
}

func (e MappackEpisode) Ref() Ref { return Ref{Kind: KindMappackEpisode, ID: e.ID} }

type MappackStory struct {
	Meta
	MappackID int64
}

func (s MappackStory) Ref() Ref { return Ref{Kind: KindMappackStory, ID: s.ID} }

// MappackID returns the owning map pack, or false for vanilla content.
func MappackID(h Highscoreable) (int64, bool) {
	switch v := h.(type) {
	case MappackLevel:
		return v.MappackID, true
	case MappackEpisode:
		return v.MappackID, true
	case MappackStory:
		return v.MappackID, true
	default:
		return 0, false
	}
}
