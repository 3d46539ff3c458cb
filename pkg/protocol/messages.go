package protocol

const (
	MsgPlayerID       = "player_id"
	MsgPlayerJoined   = "player_joined"
	MsgOpponentState  = "opponent_state"
	MsgPlayerGameOver = "player_game_over"
	MsgGameState      = "game_state"
	MsgGameOver       = "game_over"
)

type Message struct {
	Type string `json:"type"`

	PlayerID string    `json:"player_id,omitempty"`
	State    *StateMsg `json:"state,omitempty"`
	// без omitempty: game_over с нулевым счётом всё равно несёт score
	Score int `json:"score"`
}

type StateMsg struct {
	Board Grid `json:"board"`
	Score int  `json:"score"`
}
