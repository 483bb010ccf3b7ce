package ws

import "encoding/json"

// Inbound is the client message envelope: a declared type plus a
// type-specific payload passed through to the game untouched.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Inbound message types.
const (
	MsgLoadGame       = "load_game"
	MsgReadyUp        = "ready_up"
	MsgPlaceBet       = "place_bet"
	MsgPlaceBet1      = "place_bet1" // craps pass-line alias
	MsgPlaceBet2      = "place_bet2" // craps come-bet alias
	MsgAction         = "action"
	MsgRequestBalance = "request_user_balance"
	MsgChat           = "chat_msg"
)

// ReadySpec is the ready_up payload. reset distinguishes the play-again
// vote during ending from the pre-deal ready.
type ReadySpec struct {
	Ready bool `json:"ready"`
	Reset bool `json:"reset"`
}

// ChatSpec is the chat_msg payload. A non-empty To addresses one player
// instead of the whole table.
type ChatSpec struct {
	Message string `json:"message"`
	To      string `json:"to,omitempty"`
}

// Outbound is the server frame. Type is load_game, update, chat_msg or
// error; User names the sender for chat frames.
type Outbound struct {
	Type string `json:"type"`
	User string `json:"user,omitempty"`
	Data any    `json:"data,omitempty"`
}

// UpdateData wraps a partial refresh: clients switch on to_update and
// re-render from the embedded state.
type UpdateData struct {
	ToUpdate string         `json:"to_update"`
	State    map[string]any `json:"state,omitempty"`
	Balance  *int64         `json:"balance,omitempty"`
}
