package game

// @name MoveRequest
type MoveRequest struct {
	GameKey string `json:"game_key"`
	Index   int    `json:"index"`
}

// @name JumpRequest
type JumpRequest struct {
	GameKey     string `json:"game_key"`
	Destination int    `json:"destination"`
}

// @name Command
// Command is one websocket message from a live client. Action is either
// "place" or "jump".
type Command struct {
	Action      string `json:"action"`
	Index       int    `json:"index"`
	Destination int    `json:"destination"`
}

const (
	ActionPlace = "place"
	ActionJump  = "jump"
)
