package game

import (
	"time"

	"goban/internal/domain/board"
	"goban/internal/domain/history"
)

type Game struct {
	GameKeySecret string     `json:"game_key_secret" bson:"game_key_secret"` // уникальный ключ
	GameKeyPublic string     `json:"game_key_public" bson:"game_key_public"`
	BoardSize     int        `json:"board_size" bson:"board_size"`
	Status        string     `json:"status" bson:"status"`
	CreatedAt     time.Time  `json:"created_at" bson:"created_at"`
	FinishedAt    *time.Time `json:"finished_at,omitempty" bson:"finished_at,omitempty"`
}

type CreateGameRequest struct {
	BoardSize int `json:"board_size"`
}

type GameCreateResponse struct {
	PublicKey string `json:"public_key"`
	SecretKey string `json:"secret_key"`
	BoardSize int    `json:"board_size"`
}

// StateResponse is everything a client needs to render the viewed position:
// cell contents, whose turn it is, capture counters and where the cursor
// sits inside the history.
type StateResponse struct {
	PublicKey  string         `json:"public_key"`
	BoardSize  int            `json:"board_size"`
	Positions  []board.Cell   `json:"positions"`
	Current    board.Cell     `json:"current"`
	Captures   board.Captures `json:"captures"`
	HistoryLen int            `json:"history_len"`
	Cursor     int            `json:"cursor"`
	AtLiveTip  bool           `json:"at_live_tip"`
	Status     string         `json:"status"`
}

// ArchiveRecord is a finished game parked in Mongo: metadata plus the full
// history snapshot so the game can still be replayed.
type ArchiveRecord struct {
	ID            string           `json:"id" bson:"_id"`
	GameKeyPublic string           `json:"game_key_public" bson:"game_key_public"`
	BoardSize     int              `json:"board_size" bson:"board_size"`
	CreatedAt     time.Time        `json:"created_at" bson:"created_at"`
	FinishedAt    time.Time        `json:"finished_at" bson:"finished_at"`
	Moves         int              `json:"moves" bson:"moves"`
	Captures      board.Captures   `json:"captures" bson:"captures"`
	History       history.Snapshot `json:"history" bson:"history"`
}

type ArchiveResponse struct {
	Games []ArchiveRecord `json:"games"`
	Page  int             `json:"page"`
	Total int64           `json:"total"`
}
