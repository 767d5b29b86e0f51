package errors

import "errors"

var (
	ErrGameNotFound     = errors.New("game not found")
	ErrCreateGameFailed = errors.New("create game failed")
	ErrCellOccupied     = errors.New("target cell is occupied")
	ErrIllegalMove      = errors.New("illegal move")
	ErrOutOfBounds      = errors.New("cell index is outside the board")
	ErrBadHistoryIndex  = errors.New("history index is out of range")
	ErrGameFinished     = errors.New("game is already finished")
	ErrCorruptSnapshot  = errors.New("game snapshot is corrupt")
	ErrInternal         = errors.New("internal error")
)
