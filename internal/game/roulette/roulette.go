// Package roulette implements an American double-zero roulette table.
// Players place one wager each during the betting stage; when every seat
// is ready the stakes are locked, the wheel spins once, and winners are
// paid in the same motion.
package roulette

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/Richrosh3/online-casino/internal/game"
)

const StageBetting game.Stage = "betting"

// wheel lists every pocket on the double-zero wheel.
var wheel = func() []string {
	pockets := []string{"0", "00"}
	for n := 1; n <= 36; n++ {
		pockets = append(pockets, strconv.Itoa(n))
	}
	return pockets
}()

type placedBet struct {
	spec   Spec
	amount int64
}

// Table is the per-session roulette state machine.
type Table struct {
	deps   game.Deps
	seats  *game.Seats
	bets   map[string]*placedBet
	pocket string
	spun   bool
}

func New(deps game.Deps) *Table {
	return &Table{
		deps:  deps,
		seats: game.NewSeats(),
		bets:  map[string]*placedBet{},
	}
}

func (t *Table) Kind() game.Kind { return game.KindRoulette }

func (t *Table) Stage() game.Stage {
	if t.spun {
		return game.StageEnding
	}
	return StageBetting
}

func (t *Table) NumPlayers() int { return t.seats.Len() }

func (t *Table) AddPlayer(_ context.Context, user string) error {
	if t.Stage() == StageBetting {
		t.seats.Seat(user)
		return nil
	}
	t.seats.Park(user)
	return nil
}

func (t *Table) RemovePlayer(ctx context.Context, user string) {
	seated := t.seats.Has(user)
	t.seats.Unseat(user)
	delete(t.bets, user)
	if !seated {
		return
	}
	if t.seats.NumSeated() == 0 {
		t.reset()
		return
	}
	// The departing seat may have been the last unready one.
	if t.Stage() == game.StageEnding {
		if t.seats.AllReady() {
			t.reset()
		}
		return
	}
	t.maybeSpin(ctx)
}

type betSpec struct {
	Amount game.CC `json:"amount"`
	Spec
}

func (t *Table) PlaceBet(ctx context.Context, user string, data json.RawMessage) (game.Update, error) {
	if t.Stage() != StageBetting {
		return game.Update{}, game.ErrWrongStage
	}
	if !t.seats.Has(user) {
		return game.Update{}, game.ErrUnknownPlayer
	}
	var spec betSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return game.Update{}, game.ErrInvalidBet
	}
	amount := spec.Amount.Int64()
	if amount < 0 || !spec.Valid() {
		return game.Update{}, game.ErrInvalidBet
	}
	balance, err := t.deps.Ledger.Balance(ctx, user)
	if err != nil || amount > balance {
		return game.Update{}, game.ErrInvalidBet
	}
	t.bets[user] = &placedBet{spec: spec.Spec, amount: amount}
	return game.Update{Tag: game.TagReady}, nil
}

func (t *Table) SetReady(ctx context.Context, user string, ready, reset bool) (game.Update, error) {
	switch t.Stage() {
	case StageBetting:
		if err := t.seats.SetReady(user, ready); err != nil {
			return game.Update{}, err
		}
		if t.seats.AllReady() && t.seats.NumSeated() > 0 {
			t.spin(ctx)
			return game.FullState, nil
		}
		return game.Update{Tag: game.TagReady}, nil
	case game.StageEnding:
		if err := t.seats.SetReady(user, ready && reset); err != nil {
			return game.Update{}, err
		}
		if t.seats.AllReady() && t.seats.NumSeated() > 0 {
			t.reset()
			return game.FullState, nil
		}
		return game.Update{Tag: game.TagReady}, nil
	default:
		return game.Update{}, game.ErrWrongStage
	}
}

// ApplyAction has no moves: the wheel is the only actor.
func (t *Table) ApplyAction(context.Context, string, json.RawMessage) (game.Update, error) {
	return game.Update{}, game.ErrInvalidAction
}

func (t *Table) maybeSpin(ctx context.Context) {
	if t.Stage() == StageBetting && t.seats.AllReady() && t.seats.NumSeated() > 0 {
		t.spin(ctx)
	}
}

// spin locks the stakes, lands the ball, and settles every wager. A stake
// the ledger can no longer cover is voided rather than failing the table.
func (t *Table) spin(ctx context.Context) {
	for _, user := range t.seats.Users() {
		b := t.bets[user]
		if b == nil || b.amount == 0 {
			continue
		}
		if err := t.deps.Ledger.Withdraw(ctx, user, b.amount); err != nil {
			log.Warn().Str("user", user).Int64("amount", b.amount).Err(err).
				Msg("roulette bet voided at lock")
			b.amount = 0
		}
	}

	t.pocket = wheel[t.deps.Random.Spin(len(wheel))]
	t.spun = true

	for _, user := range t.seats.Users() {
		b := t.bets[user]
		if b == nil || b.amount == 0 {
			continue
		}
		if payout := b.spec.Payout(t.pocket, b.amount); payout > 0 {
			if err := t.deps.Ledger.Deposit(ctx, user, payout); err != nil {
				log.Error().Str("user", user).Int64("amount", payout).Err(err).
					Msg("roulette payout failed")
			}
		}
	}
	t.seats.ClearReady()
}

func (t *Table) reset() {
	t.pocket = ""
	t.spun = false
	t.seats.AdmitWaiting()
	clear(t.bets)
	t.seats.ClearReady()
}

func (t *Table) ForceReset(_ context.Context) {
	if t.Stage() == game.StageEnding {
		t.reset()
	}
}

func (t *Table) SnapshotFor(_ string) map[string]any {
	players := []map[string]any{}
	for _, user := range t.seats.Users() {
		entry := map[string]any{
			"player": user,
			"ready":  t.seats.Ready(user),
		}
		if b := t.bets[user]; b != nil {
			entry["bet_amount"] = b.amount
			entry["bet"] = map[string]any{
				"type": string(b.spec.Kind),
				"nums": b.spec.Nums,
			}
			if t.spun {
				entry["payout"] = b.spec.Payout(t.pocket, b.amount)
			}
		}
		players = append(players, entry)
	}
	snap := map[string]any{
		"stage":   string(t.Stage()),
		"players": players,
	}
	if t.spun {
		snap["result"] = t.pocket
		snap["color"] = colorOf(t.pocket)
	}
	return snap
}
