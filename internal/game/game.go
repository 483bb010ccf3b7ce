// Package game defines the contract every casino round implements: a
// stage-gated state machine whose mutating operations are serialized by the
// owning session and whose rejections are typed, never fatal.
package game

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/Richrosh3/online-casino/internal/ledger"
	"github.com/Richrosh3/online-casino/internal/random"
)

type Kind string

const (
	KindBlackjack Kind = "blackjack"
	KindCraps     Kind = "craps"
	KindPoker     Kind = "poker"
	KindRoulette  Kind = "roulette"
	KindSlots     Kind = "slots"
)

var Kinds = []Kind{KindBlackjack, KindCraps, KindPoker, KindRoulette, KindSlots}

func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(s))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown game kind %q", s)
}

// Stage is the discrete phase of a round's lifecycle. Values are
// game-specific; StageEnding is shared because the reset vote and the
// janitor's stale-vote timeout key off it.
type Stage string

const StageEnding Stage = "ending"

// Update tells the router what to broadcast after a successful mutation.
// An empty Tag means the full load_game snapshot; otherwise an update
// frame carrying Tag as its to_update discriminator.
type Update struct {
	Tag string
}

const (
	TagReady       = "ready"
	TagHands       = "hands"
	TagBalance     = "balance"
	TagComeOutDone = "come_out_done"
	TagPointReroll = "point_reroll"
	TagGameOver    = "game_over"
)

var FullState = Update{}

// Round is one session's authoritative state machine. Implementations are
// not safe for concurrent use; the session registry serializes access.
type Round interface {
	Kind() Kind
	Stage() Stage

	// AddPlayer seats the identity, or parks it in the waiting room when
	// the round has already started.
	AddPlayer(ctx context.Context, user string) error
	// RemovePlayer applies the game's implicit default for a
	// disconnecting player (stand, fold, bet void) and unseats them.
	RemovePlayer(ctx context.Context, user string)

	// SetReady records a readiness vote. During the ending stage reset
	// reads as a play-again vote. When the vote completes the round
	// advances (or resets) exactly once.
	SetReady(ctx context.Context, user string, ready, reset bool) (Update, error)

	// PlaceBet records a bet during a betting stage. The ledger is not
	// debited until the stage locks, so bets may be re-placed.
	PlaceBet(ctx context.Context, user string, data json.RawMessage) (Update, error)

	// ApplyAction performs an in-round move (hit, roll, call, spin).
	ApplyAction(ctx context.Context, user string, data json.RawMessage) (Update, error)

	// SnapshotFor is the externally visible state as seen by user
	// (hidden cards masked). Safe to call at any time, never mutates.
	SnapshotFor(user string) map[string]any

	// NumPlayers counts seated plus waiting players.
	NumPlayers() int

	// ForceReset abandons a stuck play-again vote and returns the round
	// to its first betting stage. No-op outside the ending stage.
	ForceReset(ctx context.Context)
}

// Deps is everything a round needs from the outside world.
type Deps struct {
	Ledger       ledger.Ledger
	Random       random.Source
	NumDecks     int
	ReshufflePct float64
}

// CC is a money amount in cents. Clients may send it as a JSON number or
// a numeric string; anything else is a malformed bet.
type CC int64

func (c *CC) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return ErrInvalidBet
	}
	*c = CC(n)
	return nil
}

func (c CC) Int64() int64 { return int64(c) }
