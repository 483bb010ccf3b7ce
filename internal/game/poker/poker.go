// Package poker implements no-limit hold'em without antes: a lobby stage
// gated by ready-up, four acting streets with a rotating turn queue, and a
// showdown that splits the pot among the best live hands.
package poker

import (
	"context"
	"encoding/json"
	"slices"

	"github.com/rs/zerolog/log"

	"github.com/Richrosh3/online-casino/internal/cards"
	"github.com/Richrosh3/online-casino/internal/game"
)

const (
	StageBetting game.Stage = "betting"
	StagePreflop game.Stage = "preflop"
	StageFlop    game.Stage = "flop"
	StageTurn    game.Stage = "turn"
	StageRiver   game.Stage = "river"
)

const minPlayers = 2

// OutcomeFolded and friends label seats in the end-of-round summary.
const (
	OutcomeFolded = "Folded"
	OutcomeLeft   = "Player Left"
	OutcomeWinner = "Last Standing"
)

type hand struct {
	cards   []cards.Card
	stake   int64
	folded  bool
	outcome string
}

type round struct {
	hands       map[string]*hand
	queue       []string
	lastRaiser  string
	board       []cards.Card
	pot         int64
	priceToCall int64
	winners     []string
	over        bool
}

// Table is the per-session hold'em state machine.
type Table struct {
	deps  game.Deps
	seats *game.Seats
	deck  *cards.Deck
	round *round
}

func New(deps game.Deps) *Table {
	return &Table{deps: deps, seats: game.NewSeats()}
}

func (t *Table) Kind() game.Kind { return game.KindPoker }

func (t *Table) Stage() game.Stage {
	r := t.round
	switch {
	case r == nil:
		return StageBetting
	case r.over:
		return game.StageEnding
	case len(r.board) == 0:
		return StagePreflop
	case len(r.board) == 3:
		return StageFlop
	case len(r.board) == 4:
		return StageTurn
	default:
		return StageRiver
	}
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
	if !seated {
		return
	}
	if t.seats.NumSeated() == 0 {
		t.round = nil
		t.seats.AdmitWaiting()
		return
	}
	r := t.round
	switch {
	case r == nil:
		// The leaver may have been the last seat blocking the deal.
		if t.seats.AllReady() && t.seats.NumSeated() >= minPlayers {
			t.startRound(ctx)
		}
		return
	case r.over:
		if t.seats.AllReady() {
			t.reset()
		}
		return
	case !slices.Contains(r.queue, user):
		return
	}
	// A leaver's chips stay in the pot; the hand folds in place.
	h := r.hands[user]
	r.pot += h.stake
	h.stake = 0
	h.folded = true
	h.outcome = OutcomeLeft
	t.dropFromQueue(ctx, user)
}

// dropFromQueue removes a seat from the turn order, repairing the raiser
// pointer when the raiser is the one leaving, then checks whether the
// departure closed the street or the whole hand.
func (t *Table) dropFromQueue(ctx context.Context, user string) {
	r := t.round
	i := slices.Index(r.queue, user)
	if i < 0 {
		return
	}
	if r.lastRaiser == user {
		before := r.queue[(i+len(r.queue)-1)%len(r.queue)]
		r.lastRaiser = before
		r.priceToCall = r.hands[before].stake
	}
	r.queue = slices.Delete(r.queue, i, i+1)
	t.checkStreetEnd(ctx)
}

// PlaceBet is a raise: poker has no pre-deal wagers, so a bet message is
// routed to the same move as {"action":"bet"}.
func (t *Table) PlaceBet(ctx context.Context, user string, data json.RawMessage) (game.Update, error) {
	var spec struct {
		Amount game.CC `json:"amount"`
	}
	if err := json.Unmarshal(data, &spec); err != nil {
		return game.Update{}, game.ErrInvalidBet
	}
	raw, _ := json.Marshal(map[string]any{"action": "bet", "amount": spec.Amount.Int64()})
	return t.ApplyAction(ctx, user, raw)
}

func (t *Table) SetReady(ctx context.Context, user string, ready, reset bool) (game.Update, error) {
	switch t.Stage() {
	case StageBetting:
		if err := t.seats.SetReady(user, ready); err != nil {
			return game.Update{}, err
		}
		if t.seats.AllReady() && t.seats.NumSeated() >= minPlayers {
			t.startRound(ctx)
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

func (t *Table) startRound(_ context.Context) {
	t.seats.ClearReady()
	deck := cards.NewDeck(t.deps.Random)
	r := &round{hands: map[string]*hand{}}
	for _, user := range t.seats.Users() {
		r.hands[user] = &hand{cards: deck.Deal(2)}
		r.queue = append(r.queue, user)
	}
	r.lastRaiser = r.queue[0]
	t.round = r
	t.deck = deck
}

type actionSpec struct {
	Action string  `json:"action"`
	Amount game.CC `json:"amount"`
}

func (t *Table) ApplyAction(ctx context.Context, user string, data json.RawMessage) (game.Update, error) {
	switch t.Stage() {
	case StagePreflop, StageFlop, StageTurn, StageRiver:
	default:
		return game.Update{}, game.ErrWrongStage
	}
	r := t.round
	if _, ok := r.hands[user]; !ok {
		return game.Update{}, game.ErrUnknownPlayer
	}
	if r.queue[0] != user {
		return game.Update{}, game.ErrNotYourTurn
	}

	var spec actionSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return game.Update{}, game.ErrInvalidAction
	}
	h := r.hands[user]
	switch spec.Action {
	case "bet":
		amount := spec.Amount.Int64()
		if amount <= 0 || h.stake+amount <= r.priceToCall {
			return game.Update{}, game.ErrInvalidBet
		}
		if err := t.deps.Ledger.Withdraw(ctx, user, amount); err != nil {
			return game.Update{}, game.ErrInvalidBet
		}
		h.stake += amount
		r.priceToCall = h.stake
		r.lastRaiser = user
		t.rotate()
	case "call", "check":
		if owed := r.priceToCall - h.stake; owed > 0 {
			if err := t.deps.Ledger.Withdraw(ctx, user, owed); err != nil {
				return game.Update{}, game.ErrInvalidBet
			}
			h.stake = r.priceToCall
		}
		t.rotate()
	case "fold":
		h.folded = true
		h.outcome = OutcomeFolded
		t.dropFromQueue(ctx, user)
		return game.FullState, nil
	default:
		return game.Update{}, game.ErrInvalidAction
	}
	t.checkStreetEnd(ctx)
	return game.FullState, nil
}

func (t *Table) rotate() {
	r := t.round
	r.queue = append(r.queue[1:], r.queue[0])
}

// checkStreetEnd fires after every action: a lone survivor takes the pot
// immediately, and action returning to the last raiser closes the street.
func (t *Table) checkStreetEnd(ctx context.Context) {
	r := t.round
	if r == nil || r.over || len(r.queue) == 0 {
		return
	}
	if len(r.queue) == 1 {
		t.sweepStakes()
		survivor := r.queue[0]
		r.winners = []string{survivor}
		r.hands[survivor].outcome = OutcomeWinner
		r.over = true
		t.payWinners(ctx)
		return
	}
	if r.queue[0] == r.lastRaiser {
		t.sweepStakes()
		t.advanceBoard(ctx)
	}
}

func (t *Table) sweepStakes() {
	r := t.round
	for _, user := range r.queue {
		r.pot += r.hands[user].stake
		r.hands[user].stake = 0
	}
	r.priceToCall = 0
}

func (t *Table) advanceBoard(ctx context.Context) {
	r := t.round
	switch len(r.board) {
	case 0:
		r.board = append(r.board, t.deck.Deal(3)...)
	case 3, 4:
		r.board = append(r.board, t.deck.DealOne())
	case 5:
		t.showdown(ctx)
	}
}

// showdown scores every live hand, records the category each played, and
// splits the pot among the winners. An uneven split leaves the remainder
// with the earliest winner in turn order.
func (t *Table) showdown(ctx context.Context) {
	r := t.round
	var best int64
	for _, user := range r.queue {
		h := r.hands[user]
		name, value := Evaluate(append(append([]cards.Card{}, h.cards...), r.board...))
		h.outcome = name
		switch {
		case value > best:
			best = value
			r.winners = []string{user}
		case value == best:
			r.winners = append(r.winners, user)
		}
	}
	r.over = true
	t.payWinners(ctx)
}

func (t *Table) payWinners(ctx context.Context) {
	r := t.round
	if len(r.winners) == 0 || r.pot == 0 {
		return
	}
	share := r.pot / int64(len(r.winners))
	remainder := r.pot % int64(len(r.winners))
	for i, user := range r.winners {
		amount := share
		if i == 0 {
			amount += remainder
		}
		if amount == 0 {
			continue
		}
		if err := t.deps.Ledger.Deposit(ctx, user, amount); err != nil {
			log.Error().Str("user", user).Int64("amount", amount).Err(err).
				Msg("poker pot payout failed")
		}
	}
}

func (t *Table) reset() {
	t.round = nil
	t.deck = nil
	t.seats.AdmitWaiting()
	t.seats.ClearReady()
}

func (t *Table) ForceReset(_ context.Context) {
	if t.Stage() == game.StageEnding {
		t.reset()
	}
}

func (t *Table) SnapshotFor(viewer string) map[string]any {
	ready := map[string]bool{}
	for _, user := range t.seats.Users() {
		ready[user] = t.seats.Ready(user)
	}
	snap := map[string]any{
		"stage":         string(t.Stage()),
		"players_ready": ready,
	}
	r := t.round
	if r == nil {
		return snap
	}

	var currentTurn any
	if !r.over && len(r.queue) > 0 {
		currentTurn = r.queue[0]
	}
	outcomes := map[string]string{}
	players := map[string]any{}
	for user, h := range r.hands {
		if h.outcome != "" {
			outcomes[user] = h.outcome
		}
		shown := make([]string, len(h.cards))
		for i, c := range h.cards {
			if user == viewer || r.over {
				shown[i] = c.String()
			} else {
				shown[i] = cards.HiddenCard
			}
		}
		players[user] = map[string]any{
			"hand":   shown,
			"stake":  h.stake,
			"folded": h.folded,
		}
	}
	board := make([]string, len(r.board))
	for i, c := range r.board {
		board[i] = c.String()
	}
	snap["game"] = map[string]any{
		"pot":           r.pot,
		"price_to_call": r.priceToCall,
		"current_turn":  currentTurn,
		"board":         board,
		"winners":       append([]string{}, r.winners...),
		"outcomes":      outcomes,
	}
	snap["players"] = players
	return snap
}
