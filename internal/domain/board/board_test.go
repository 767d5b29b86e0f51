package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stateOf(current Cell, cells ...Cell) State {
	return State{Positions: cells, Current: current}
}

func TestNewStateIsEmptyBlackToMove(t *testing.T) {
	s := NewState(9)
	require.Len(t, s.Positions, 81)
	assert.Equal(t, 9, s.Size())
	assert.Equal(t, Black, s.Current)
	for i := range s.Positions {
		assert.Equal(t, Empty, s.At(i))
	}
	assert.Equal(t, 0, s.Captures.Of(Black))
	assert.Equal(t, 0, s.Captures.Of(White))
}

func TestPlaceOnEmptyBoard(t *testing.T) {
	s := NewState(2)
	next := s.Place(0)

	assert.Equal(t, []Cell{Black, Empty, Empty, Empty}, next.Positions)
	assert.Equal(t, White, next.Current)
	// исходное состояние не тронуто
	assert.Equal(t, []Cell{Empty, Empty, Empty, Empty}, s.Positions)
	assert.Equal(t, Black, s.Current)
}

func TestPlaceCapturesSurroundedStone(t *testing.T) {
	s := stateOf(Black, White, Black, Empty, Empty)
	next := s.Place(2)

	assert.Equal(t, []Cell{Empty, Black, Black, Empty}, next.Positions)
	assert.Equal(t, 1, next.Captures.Of(White))
	assert.Equal(t, 0, next.Captures.Of(Black))
	assert.Equal(t, White, next.Current)
}

func TestSuicideVanishesAndMoverKeepsTurn(t *testing.T) {
	s := stateOf(White, Empty, Black, Black, Empty)
	next := s.Place(0)

	assert.Equal(t, []Cell{Empty, Black, Black, Empty}, next.Positions)
	assert.Equal(t, White, next.Current, "a fully self-cancelling move must not pass the turn")
	assert.Equal(t, 0, next.Captures.Of(White))
	assert.Equal(t, 0, next.Captures.Of(Black))
}

func TestOpponentCapturedBeforeOwnSuicideCheck(t *testing.T) {
	// White plays into 0, which has no liberties of its own, but the two
	// black stones at 1 and 3 lose their last liberty first and come off.
	s := stateOf(White,
		Empty, Black, White,
		Black, White, Empty,
		White, Empty, Empty,
	)
	require.True(t, s.Legal(0))

	next := s.Place(0)
	assert.Equal(t, White, next.At(0))
	assert.Equal(t, Empty, next.At(1))
	assert.Equal(t, Empty, next.At(3))
	assert.Equal(t, 2, next.Captures.Of(Black))
	assert.Equal(t, Black, next.Current)
}

func TestWholeGroupRemovedTogether(t *testing.T) {
	// Two connected black stones share their last liberty: both must go,
	// removing the first may not "revive" the second.
	s := stateOf(White,
		Black, Black, Empty,
		White, White, Empty,
		Empty, Empty, Empty,
	)
	next := s.Place(2)
	assert.Equal(t, []Cell{
		Empty, Empty, White,
		White, White, Empty,
		Empty, Empty, Empty,
	}, next.Positions)
	assert.Equal(t, 2, next.Captures.Of(Black))
}

func TestLegal(t *testing.T) {
	s := stateOf(White,
		Empty, Black, Empty,
		Black, Empty, Empty,
		Empty, Empty, Empty,
	)

	assert.False(t, s.Legal(1), "occupied cell")
	assert.False(t, s.Legal(0), "pure suicide")
	assert.True(t, s.Legal(4))
}

func TestLegalDoesNotMutate(t *testing.T) {
	s := stateOf(Black, White, Black, Empty, Empty)
	before := append([]Cell(nil), s.Positions...)

	s.Legal(2)
	s.Legal(3)

	assert.Equal(t, before, s.Positions)
	assert.Equal(t, Black, s.Current)
	assert.Equal(t, Captures{}, s.Captures)
}

func TestPlaceConservation(t *testing.T) {
	s := NewState(3)
	next := s.Place(4)

	assert.Equal(t, stones(s)+1, stones(next), "a capture-free placement adds exactly one stone")
}

func TestPlacePanicsOutOfBounds(t *testing.T) {
	s := NewState(2)
	assert.Panics(t, func() { s.Place(4) })
	assert.Panics(t, func() { s.Place(-1) })
}

func stones(s State) int {
	n := 0
	for _, c := range s.Positions {
		if c != Empty {
			n++
		}
	}
	return n
}
