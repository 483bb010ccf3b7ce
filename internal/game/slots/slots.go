// Package slots implements a single-seat slot machine session: one player
// owns the machine, bets, and spins three reels. Matching symbols pay from
// a fixed table and a skewed random multiplier scales the win.
package slots

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/Richrosh3/online-casino/internal/game"
	"github.com/Richrosh3/online-casino/internal/random"
)

const StageBetting game.Stage = "betting"

// symbols are the reel faces. X voids the whole spin.
var symbols = []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "$", "*", "X"}

// Payout returns the pre-multiplier win for three reel faces. Pairs and
// triples stack, so "7 7 $" pays the pair plus the single dollar sign.
func Payout(reels []string) int64 {
	counts := map[string]int{}
	for _, s := range reels {
		if s == "X" {
			return 0
		}
		counts[s]++
	}
	var total int64
	for sym, n := range counts {
		switch sym {
		case "$":
			total += []int64{0, 100, 500, 5000}[n]
		case "*":
			total += []int64{0, 50, 1000, 2500}[n]
		default:
			total += []int64{0, 0, 250, 1000}[n]
		}
	}
	return total
}

// drawMultiplier picks 1x..5x with probabilities 75/15/7/2/1.
func drawMultiplier(src random.Source) int64 {
	switch r := src.Roll(100); {
	case r <= 75:
		return 1
	case r <= 90:
		return 2
	case r <= 97:
		return 3
	case r <= 99:
		return 4
	default:
		return 5
	}
}

// Machine is the per-session slots state machine. Exactly one player may
// hold the seat; later joiners are turned away.
type Machine struct {
	deps       game.Deps
	player     string
	ready      bool
	bet        int64
	reels      []string
	multiplier int64
	payout     int64
	spun       bool
}

func New(deps game.Deps) *Machine {
	return &Machine{deps: deps}
}

func (m *Machine) Kind() game.Kind { return game.KindSlots }

func (m *Machine) Stage() game.Stage {
	if m.spun {
		return game.StageEnding
	}
	return StageBetting
}

func (m *Machine) NumPlayers() int {
	if m.player == "" {
		return 0
	}
	return 1
}

func (m *Machine) AddPlayer(_ context.Context, user string) error {
	if m.player != "" && m.player != user {
		return game.ErrSeatUnavailable
	}
	m.player = user
	return nil
}

func (m *Machine) RemovePlayer(_ context.Context, user string) {
	if m.player != user {
		return
	}
	m.player = ""
	m.reset()
}

type betSpec struct {
	Amount game.CC `json:"amount"`
}

func (m *Machine) PlaceBet(ctx context.Context, user string, data json.RawMessage) (game.Update, error) {
	if m.Stage() != StageBetting {
		return game.Update{}, game.ErrWrongStage
	}
	if m.player != user {
		return game.Update{}, game.ErrUnknownPlayer
	}
	var spec betSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return game.Update{}, game.ErrInvalidBet
	}
	amount := spec.Amount.Int64()
	if amount < 0 {
		return game.Update{}, game.ErrInvalidBet
	}
	balance, err := m.deps.Ledger.Balance(ctx, user)
	if err != nil || amount > balance {
		return game.Update{}, game.ErrInvalidBet
	}
	m.bet = amount
	return game.Update{Tag: game.TagReady}, nil
}

func (m *Machine) SetReady(ctx context.Context, user string, ready, reset bool) (game.Update, error) {
	if m.player != user {
		return game.Update{}, game.ErrUnknownPlayer
	}
	switch m.Stage() {
	case StageBetting:
		m.ready = ready
		if m.ready {
			m.spin(ctx)
			return game.FullState, nil
		}
		return game.Update{Tag: game.TagReady}, nil
	case game.StageEnding:
		if ready && reset {
			m.reset()
			return game.FullState, nil
		}
		return game.Update{Tag: game.TagReady}, nil
	default:
		return game.Update{}, game.ErrWrongStage
	}
}

// ApplyAction has no moves: pulling the lever is the ready-up itself.
func (m *Machine) ApplyAction(context.Context, string, json.RawMessage) (game.Update, error) {
	return game.Update{}, game.ErrInvalidAction
}

func (m *Machine) spin(ctx context.Context) {
	if m.bet > 0 {
		if err := m.deps.Ledger.Withdraw(ctx, m.player, m.bet); err != nil {
			log.Warn().Str("user", m.player).Int64("amount", m.bet).Err(err).
				Msg("slots bet voided at spin")
			m.bet = 0
		}
	}

	m.reels = make([]string, 3)
	for i := range m.reels {
		m.reels[i] = symbols[m.deps.Random.Spin(len(symbols))]
	}
	m.multiplier = drawMultiplier(m.deps.Random)
	m.payout = Payout(m.reels) * m.multiplier
	m.spun = true

	if m.payout > 0 {
		if err := m.deps.Ledger.Deposit(ctx, m.player, m.payout); err != nil {
			log.Error().Str("user", m.player).Int64("amount", m.payout).Err(err).
				Msg("slots payout failed")
		}
	}
}

func (m *Machine) reset() {
	m.ready = false
	m.bet = 0
	m.reels = nil
	m.multiplier = 0
	m.payout = 0
	m.spun = false
}

func (m *Machine) ForceReset(_ context.Context) {
	if m.Stage() == game.StageEnding {
		m.reset()
	}
}

func (m *Machine) SnapshotFor(_ string) map[string]any {
	snap := map[string]any{
		"stage":  string(m.Stage()),
		"player": m.player,
		"bet":    m.bet,
		"ready":  m.ready,
	}
	if m.spun {
		snap["slots"] = m.reels
		snap["multiplier"] = m.multiplier
		snap["payout"] = m.payout
	}
	return snap
}
