package history

import (
	"goban/internal/domain/board"
	errs "goban/internal/errors"
)

// Game is a branchable sequence of board states plus a cursor. The states
// slice is ordered most-recent-first: states[0] is the live tip, the cursor
// selects which snapshot is currently viewed. Methods return new Game
// values, the receiver is never mutated.
type Game struct {
	states []board.State
	index  int
}

// New returns a game with a single empty board of the given size and the
// cursor at the tip.
func New(size int) Game {
	return Game{states: []board.State{board.NewState(size)}}
}

// State returns the snapshot under the cursor.
func (g Game) State() board.State {
	return g.states[g.index]
}

// Len returns the number of recorded states on the active branch.
func (g Game) Len() int {
	return len(g.states)
}

// Cursor returns the current cursor position, 0 is the live tip.
func (g Game) Cursor() int {
	return g.index
}

// AtTip reports whether the cursor is at the latest state. Клиенту это нужно,
// чтобы блокировать ход во время просмотра истории.
func (g Game) AtTip() bool {
	return g.index == 0
}

// Contains reports whether dest is a valid cursor position. Jump must only
// be trusted after this check.
func (g Game) Contains(dest int) bool {
	return dest >= 0 && dest < len(g.states)
}

// Jump moves the cursor without touching the recorded states. It performs no
// bounds check itself, callers validate dest via Contains first.
func (g Game) Jump(dest int) Game {
	return Game{states: g.states, index: dest}
}

// Place applies a stone placement at the viewed state and records the result
// as the new tip. Any future beyond the cursor is discarded: placing while
// time-traveling forks the game from the viewed point.
func (g Game) Place(index int) Game {
	next := g.State().Place(index)
	kept := g.states[g.index:]
	states := make([]board.State, 0, len(kept)+1)
	states = append(states, next)
	states = append(states, kept...)
	return Game{states: states}
}

// Legal reports whether placing at index is allowed from the viewed state.
// On top of the board rules it enforces ko: the move may not recreate a
// position that already occurred earlier on the active branch (states past
// the cursor). States on branches abandoned by an earlier jump-and-place are
// gone from the slice and deliberately cannot veto the move.
func (g Game) Legal(index int) bool {
	current := g.State()
	if !current.Legal(index) {
		return false
	}
	tentative := current.Place(index)
	for _, prev := range g.states[g.index+1:] {
		if samePositions(tentative.Positions, prev.Positions) {
			return false
		}
	}
	return true
}

func samePositions(a, b []board.Cell) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Snapshot is the serializable form of a Game, used by the persistence
// layer to park live games in Redis and archive finished ones in Mongo.
type Snapshot struct {
	States []board.State `json:"states" bson:"states"`
	Index  int           `json:"index" bson:"index"`
}

// Snapshot copies the game into its serializable form.
func (g Game) Snapshot() Snapshot {
	states := make([]board.State, len(g.states))
	copy(states, g.states)
	return Snapshot{States: states, Index: g.index}
}

// FromSnapshot validates and restores a game from its serializable form.
func FromSnapshot(s Snapshot) (Game, error) {
	if len(s.States) == 0 {
		return Game{}, errs.ErrCorruptSnapshot
	}
	if s.Index < 0 || s.Index >= len(s.States) {
		return Game{}, errs.ErrCorruptSnapshot
	}
	states := make([]board.State, len(s.States))
	copy(states, s.States)
	return Game{states: states, index: s.Index}, nil
}
