package board

import (
	"fmt"
	"math"
)

// Cell описывает содержимое пункта доски.
type Cell int8

const (
	Empty Cell = iota
	Black
	White
)

func (c Cell) String() string {
	switch c {
	case Black:
		return "black"
	case White:
		return "white"
	default:
		return "empty"
	}
}

// Opponent returns the other stone color. Empty has no opponent.
func (c Cell) Opponent() Cell {
	switch c {
	case Black:
		return White
	case White:
		return Black
	}
	return Empty
}

// Captures counts stones lost by each color.
type Captures struct {
	Black int `json:"black" bson:"black"`
	White int `json:"white" bson:"white"`
}

// Of returns the number of captured stones of the given color.
func (c Captures) Of(color Cell) int {
	switch color {
	case Black:
		return c.Black
	case White:
		return c.White
	}
	return 0
}

// State is one immutable snapshot of a game: cell contents, the color to
// move and cumulative capture counters. Place never mutates its receiver,
// every placement produces a fresh State, so values may be shared freely.
type State struct {
	Positions []Cell   `json:"positions" bson:"positions"`
	Current   Cell     `json:"current" bson:"current"`
	Captures  Captures `json:"captures" bson:"captures"`
}

// NewState returns an empty board of size x size cells, Black to move.
func NewState(size int) State {
	if size <= 0 {
		panic(fmt.Sprintf("board: invalid size %d", size))
	}
	return State{
		Positions: make([]Cell, size*size),
		Current:   Black,
	}
}

// Size derives the board dimension from the positions length. The length is
// always a perfect square.
func (s State) Size() int {
	return int(math.Sqrt(float64(len(s.Positions))))
}

// At returns the cell contents at index.
func (s State) At(index int) Cell {
	return s.Positions[index]
}

// Place puts the current player's stone at index and resolves captures.
// Порядок важен: сначала снимаются камни соперника, потом свои, поэтому ход,
// который отбирает у соперника последнее дыхание, легален даже если без
// снятия он был бы самоубийственным.
//
// Place performs no occupancy or legality validation, that is the caller's
// job via Legal. An index outside the board panics: it is a caller bug, not
// a game condition. If the resulting positions are element-for-element equal
// to the original ones (a pure self-capture with no effect), the mover does
// not switch.
func (s State) Place(index int) State {
	if index < 0 || index >= len(s.Positions) {
		panic(fmt.Sprintf("board: index %d out of range for %d cells", index, len(s.Positions)))
	}

	mover := s.Current
	opponent := mover.Opponent()

	next := make([]Cell, len(s.Positions))
	copy(next, s.Positions)
	next[index] = mover

	captured := removeDeadGroups(next, opponent)
	removeDeadGroups(next, mover)

	out := State{
		Positions: next,
		Current:   mover,
		Captures:  s.Captures,
	}
	switch opponent {
	case Black:
		out.Captures.Black += captured
	case White:
		out.Captures.White += captured
	}
	if !equalPositions(next, s.Positions) {
		out.Current = opponent
	}
	return out
}

// Legal reports whether placing the current player's stone at index is
// allowed by the board rules: the cell is empty and the stone survives its
// own placement (pure suicide is rejected). It never mutates s.
func (s State) Legal(index int) bool {
	if s.Positions[index] != Empty {
		return false
	}
	return s.Place(index).Positions[index] == s.Current
}

// removeDeadGroups clears every stone of the given color whose group has no
// liberty and returns how many were cleared. Каждая клетка оценивается по
// доске до снятия, затем все мёртвые снимаются разом: снятие одной не должно
// "оживлять" остаток её же группы.
func removeDeadGroups(positions []Cell, color Cell) int {
	size := int(math.Sqrt(float64(len(positions))))
	dead := make([]bool, len(positions))
	count := 0
	for i, c := range positions {
		if c != color {
			continue
		}
		if !groupHasLiberty(positions, size, i, make([]bool, len(positions))) {
			dead[i] = true
			count++
		}
	}
	for i := range positions {
		if dead[i] {
			positions[i] = Empty
		}
	}
	return count
}

// groupHasLiberty walks the group containing index and reports whether any
// of its stones touches an empty cell. The visited set guards against
// revisiting stones, so loops of same-colored stones terminate.
func groupHasLiberty(positions []Cell, size, index int, visited []bool) bool {
	visited[index] = true
	color := positions[index]
	for _, n := range neighbors(size, index) {
		switch {
		case positions[n] == Empty:
			return true
		case positions[n] == color && !visited[n]:
			if groupHasLiberty(positions, size, n, visited) {
				return true
			}
		}
	}
	return false
}

// neighbors returns the up-to-4 orthogonally adjacent indices on the board.
func neighbors(size, index int) []int {
	row, col := index/size, index%size
	out := make([]int, 0, 4)
	if row > 0 {
		out = append(out, index-size)
	}
	if row < size-1 {
		out = append(out, index+size)
	}
	if col > 0 {
		out = append(out, index-1)
	}
	if col < size-1 {
		out = append(out, index+1)
	}
	return out
}

func equalPositions(a, b []Cell) bool {
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
