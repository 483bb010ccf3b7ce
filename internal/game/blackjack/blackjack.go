// Package blackjack implements the multi-seat blackjack table: a betting
// stage gated by ready-up, a dealing stage where every seat plays against
// the dealer, and an ending stage that collects play-again votes.
package blackjack

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/Richrosh3/online-casino/internal/cards"
	"github.com/Richrosh3/online-casino/internal/game"
)

const (
	StageBetting game.Stage = "betting"
	StageDealing game.Stage = "dealing"
)

const blackjackValue = 21

// Outcomes rendered to clients at the end of a round.
const (
	OutcomeBlackjack  = "Blackjack"
	OutcomeWin        = "Win"
	OutcomeLoss       = "Loss"
	OutcomePush       = "Push"
	OutcomePlayerBust = "Player Bust"
	OutcomeDealerBust = "Dealer Bust"
)

// CardValue scores a single card: faces are 10, aces count 11 until the
// hand demotes them.
func CardValue(c cards.Card) int {
	switch c.Rank {
	case cards.Jack, cards.Queen, cards.King:
		return 10
	case cards.Ace:
		return 11
	default:
		return c.Rank.Order()
	}
}

// HandValue totals a hand, demoting aces from 11 to 1 while the total
// busts.
func HandValue(hand []cards.Card) int {
	total, aces := 0, 0
	for _, c := range hand {
		total += CardValue(c)
		if c.Rank == cards.Ace {
			aces++
		}
	}
	for total > blackjackValue && aces > 0 {
		total -= 10
		aces--
	}
	return total
}

// IsBlackjack is a two-card 21, which pays at its own ratio.
func IsBlackjack(hand []cards.Card) bool {
	return len(hand) == 2 && HandValue(hand) == blackjackValue
}

type seatHand struct {
	cards   []cards.Card
	done    bool
	outcome string
}

type round struct {
	hands    map[string]*seatHand
	dealer   []cards.Card
	resolved bool
}

// Table is the per-session blackjack state machine.
type Table struct {
	deps  game.Deps
	seats *game.Seats
	shoe  *cards.Shoe
	bets  map[string]int64
	round *round
}

func New(deps game.Deps) *Table {
	return &Table{
		deps:  deps,
		seats: game.NewSeats(),
		shoe:  cards.NewShoe(deps.Random, deps.NumDecks, deps.ReshufflePct),
		bets:  map[string]int64{},
	}
}

func (t *Table) Kind() game.Kind { return game.KindBlackjack }

func (t *Table) Stage() game.Stage {
	switch {
	case t.round == nil:
		return StageBetting
	case t.round.resolved:
		return game.StageEnding
	default:
		return StageDealing
	}
}

func (t *Table) NumPlayers() int { return t.seats.Len() }

func (t *Table) AddPlayer(_ context.Context, user string) error {
	if t.Stage() == StageBetting {
		if t.seats.Seat(user) {
			t.bets[user] = 0
		}
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
	if t.round != nil {
		delete(t.round.hands, user)
	}
	if t.seats.NumSeated() == 0 {
		t.reset()
		return
	}
	// A departing seat may have been the last holdout.
	switch t.Stage() {
	case StageBetting:
		if t.seats.AllReady() {
			t.lockBets(ctx)
			t.deal(ctx)
		}
	case StageDealing:
		t.maybePlayDealer(ctx)
	case game.StageEnding:
		if t.seats.AllReady() {
			t.reset()
		}
	}
}

type betSpec struct {
	Amount game.CC `json:"amount"`
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
	if amount < 0 {
		return game.Update{}, game.ErrInvalidBet
	}
	balance, err := t.deps.Ledger.Balance(ctx, user)
	if err != nil || amount > balance {
		return game.Update{}, game.ErrInvalidBet
	}
	t.bets[user] = amount
	return game.Update{Tag: game.TagReady}, nil
}

func (t *Table) SetReady(ctx context.Context, user string, ready, reset bool) (game.Update, error) {
	switch t.Stage() {
	case StageBetting:
		if err := t.seats.SetReady(user, ready); err != nil {
			return game.Update{}, err
		}
		if t.seats.AllReady() && t.seats.NumSeated() > 0 {
			t.lockBets(ctx)
			t.deal(ctx)
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

// lockBets debits every seated player's recorded bet. A bet the ledger can
// no longer cover is voided rather than failing the whole table.
func (t *Table) lockBets(ctx context.Context) {
	for _, user := range t.seats.Users() {
		amount := t.bets[user]
		if amount == 0 {
			continue
		}
		if err := t.deps.Ledger.Withdraw(ctx, user, amount); err != nil {
			log.Warn().Str("user", user).Int64("amount", amount).Err(err).
				Msg("blackjack bet voided at lock")
			t.bets[user] = 0
		}
	}
}

func (t *Table) deal(ctx context.Context) {
	t.seats.ClearReady()
	r := &round{hands: map[string]*seatHand{}}
	for _, user := range t.seats.Users() {
		r.hands[user] = &seatHand{}
	}
	for i := 0; i < 2; i++ {
		for _, user := range t.seats.Users() {
			h := r.hands[user]
			h.cards = append(h.cards, t.shoe.DealOne())
		}
		r.dealer = append(r.dealer, t.shoe.DealOne())
	}
	t.round = r

	// A dealt 21 stands immediately and can auto-resolve the round.
	for _, user := range t.seats.Users() {
		if HandValue(r.hands[user].cards) == blackjackValue {
			r.hands[user].done = true
			_ = t.seats.SetReady(user, true)
		}
	}
	t.maybePlayDealer(ctx)
}

type actionSpec struct {
	Move string `json:"move"`
}

func (t *Table) ApplyAction(ctx context.Context, user string, data json.RawMessage) (game.Update, error) {
	if t.Stage() != StageDealing {
		return game.Update{}, game.ErrWrongStage
	}
	h, ok := t.round.hands[user]
	if !ok {
		return game.Update{}, game.ErrUnknownPlayer
	}
	if h.done {
		return game.Update{}, game.ErrInvalidAction
	}
	var spec actionSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return game.Update{}, game.ErrInvalidAction
	}
	switch spec.Move {
	case "hit":
		h.cards = append(h.cards, t.shoe.DealOne())
		if HandValue(h.cards) >= blackjackValue {
			t.stand(ctx, user, h)
		}
	case "stay":
		t.stand(ctx, user, h)
	default:
		return game.Update{}, game.ErrInvalidAction
	}
	return game.FullState, nil
}

func (t *Table) stand(ctx context.Context, user string, h *seatHand) {
	h.done = true
	_ = t.seats.SetReady(user, true)
	t.maybePlayDealer(ctx)
}

// maybePlayDealer resolves the round once every live hand has stood.
// Guarded by the stage so payouts can never double-apply.
func (t *Table) maybePlayDealer(ctx context.Context) {
	if t.Stage() != StageDealing || !t.seats.AllReady() {
		return
	}
	r := t.round
	for HandValue(r.dealer) <= 16 {
		r.dealer = append(r.dealer, t.shoe.DealOne())
	}
	dealerValue := HandValue(r.dealer)
	for _, user := range t.seats.Users() {
		h := r.hands[user]
		h.outcome = outcome(h.cards, dealerValue)
		if payout := payoutFor(h.outcome, t.bets[user]); payout > 0 {
			if err := t.deps.Ledger.Deposit(ctx, user, payout); err != nil {
				log.Error().Str("user", user).Int64("amount", payout).Err(err).
					Msg("blackjack payout failed")
			}
		}
	}
	t.shoe.CheckReshuffle()
	t.seats.ClearReady()
	r.resolved = true
}

func outcome(hand []cards.Card, dealerValue int) string {
	value := HandValue(hand)
	switch {
	case value > blackjackValue:
		return OutcomePlayerBust
	case IsBlackjack(hand):
		return OutcomeBlackjack
	case dealerValue > blackjackValue:
		return OutcomeDealerBust
	case value > dealerValue:
		return OutcomeWin
	case value == dealerValue:
		return OutcomePush
	default:
		return OutcomeLoss
	}
}

// payoutFor returns the total credit for a settled bet, stake included.
// Blackjack pays 3:2.
func payoutFor(outcome string, bet int64) int64 {
	switch outcome {
	case OutcomeBlackjack:
		return bet * 5 / 2
	case OutcomeWin, OutcomeDealerBust:
		return bet * 2
	case OutcomePush:
		return bet
	default:
		return 0
	}
}

func (t *Table) reset() {
	t.round = nil
	t.seats.AdmitWaiting()
	for _, user := range t.seats.Users() {
		if _, ok := t.bets[user]; !ok {
			t.bets[user] = 0
		}
	}
	for user := range t.bets {
		t.bets[user] = 0
	}
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
		players = append(players, map[string]any{
			"player": user,
			"bet":    t.bets[user],
			"ready":  t.seats.Ready(user),
		})
	}
	snap := map[string]any{
		"stage":   string(t.Stage()),
		"players": players,
	}
	if t.round == nil {
		return snap
	}

	r := t.round
	hands := []map[string]any{}
	for _, user := range t.seats.Users() {
		h, ok := r.hands[user]
		if !ok {
			continue
		}
		hands = append(hands, map[string]any{
			"player":  user,
			"hand":    cardStrings(h.cards),
			"value":   HandValue(h.cards),
			"outcome": h.outcome,
			"ready":   h.done,
		})
	}
	snap["hands"] = hands

	// The dealer's hole card stays hidden until the round resolves.
	if r.resolved {
		snap["dealer"] = map[string]any{
			"hand":  cardStrings(r.dealer),
			"value": HandValue(r.dealer),
		}
	} else {
		snap["dealer"] = map[string]any{
			"hand":  []string{r.dealer[0].String(), cards.HiddenCard},
			"value": CardValue(r.dealer[0]),
		}
	}
	return snap
}

func cardStrings(hand []cards.Card) []string {
	out := make([]string, len(hand))
	for i, c := range hand {
		out[i] = c.String()
	}
	return out
}
