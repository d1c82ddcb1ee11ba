package memory

import (
	"context"
	"sync"
	"time"

	"github.com/riskibarqy/nleaderboard/internal/domain/archive"
	"github.com/riskibarqy/nleaderboard/internal/domain/highscoreable"
	"github.com/riskibarqy/nleaderboard/internal/domain/mappack"
	"github.com/riskibarqy/nleaderboard/internal/domain/player"
	"github.com/riskibarqy/nleaderboard/internal/domain/score"
)

// Database holds every table in process. It backs local runs and tests;
// repositories built from it share its state.
type Database struct {
	mu         sync.RWMutex
	boardLocks sync.Map

	highscoreables  map[highscoreable.Ref]highscoreable.Highscoreable
	players         map[int64]player.Player
	playerByMetanet map[int64]int64
	scores          map[highscoreable.Ref][]score.Score
	archives        map[int64]archive.Archive
	demos           map[int64][]byte
	mappackScores   map[int64]mappack.Score
	mappackDemos    map[int64][]byte

	nextPlayerID  int64
	nextArchiveID int64
	nextMappackID int64

	now func() time.Time
}

func NewDatabase(items []highscoreable.Highscoreable) *Database {
	db := &Database{
		highscoreables:  make(map[highscoreable.Ref]highscoreable.Highscoreable, len(items)),
		players:         make(map[int64]player.Player),
		playerByMetanet: make(map[int64]int64),
		scores:          make(map[highscoreable.Ref][]score.Score),
		archives:        make(map[int64]archive.Archive),
		demos:           make(map[int64][]byte),
		mappackScores:   make(map[int64]mappack.Score),
		mappackDemos:    make(map[int64][]byte),
		now:             time.Now,
	}
	for _, item := range items {
		db.highscoreables[item.Ref()] = item
	}
	return db
}

// SetClock replaces the time source used for archive and score dates.
func (db *Database) SetClock(now func() time.Time) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.now = now
}

func (db *Database) clock() time.Time {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.now().UTC()
}

// lockBoard serializes writers of one highscoreable.
func (db *Database) lockBoard(ref highscoreable.Ref) func() {
	v, _ := db.boardLocks.LoadOrStore(ref, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// undoLog makes a sequence of in place writes revertible.
type undoLog struct {
	steps []func()
}

func (u *undoLog) push(step func()) {
	u.steps = append(u.steps, step)
}

func (u *undoLog) rollback() {
	for i := len(u.steps) - 1; i >= 0; i-- {
		u.steps[i]()
	}
	u.steps = nil
}

// withinBoard runs fn under the board lock and reverts its writes when it
// fails or the context is done.
func (db *Database) withinBoard(ctx context.Context, ref highscoreable.Ref, fn func(undo *undoLog) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	unlock := db.lockBoard(ref)
	defer unlock()

	undo := &undoLog{}
	if err := fn(undo); err != nil {
		db.mu.Lock()
		undo.rollback()
		db.mu.Unlock()
		return err
	}
	if err := ctx.Err(); err != nil {
		db.mu.Lock()
		undo.rollback()
		db.mu.Unlock()
		return err
	}
	return nil
}

func (db *Database) findOrCreatePlayer(metanetID int64, name string) player.Player {
	db.mu.Lock()
	defer db.mu.Unlock()

	if id, ok := db.playerByMetanet[metanetID]; ok {
		p := db.players[id]
		if name != "" && p.Name != name {
			p.Name = name
			db.players[id] = p
		}
		return p
	}
	db.nextPlayerID++
	p := player.Player{ID: db.nextPlayerID, MetanetID: metanetID, Name: name}
	db.players[p.ID] = p
	db.playerByMetanet[metanetID] = p.ID
	return p
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

func cloneMappackScore(s mappack.Score) mappack.Score {
	s.RankHS = cloneInt(s.RankHS)
	s.TiedRankHS = cloneInt(s.TiedRankHS)
	s.RankSR = cloneInt(s.RankSR)
	s.TiedRankSR = cloneInt(s.TiedRankSR)
	return s
}
