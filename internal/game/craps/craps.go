// Package craps implements the craps table. A round walks two bet/roll
// pairs: pass-line bets before the come-out roll, then come bets while the
// shooter chases the point. All line bets pay even money.
package craps

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/Richrosh3/online-casino/internal/game"
)

const (
	StageBetting1 game.Stage = "betting1"
	StageComeOut  game.Stage = "come-out"
	StageBetting2 game.Stage = "betting2"
	StagePoint    game.Stage = "point"
)

// lineBets is one player's wagers for the round, in cents.
type lineBets struct {
	Pass     int64
	DontPass int64
	Come     int64
	DontCome int64
}

// comeBet tracks a come or don't-come wager through its own come-out:
// point 0 means the next roll is its come-out roll.
type comeBet struct {
	amount int64
	point  int
	dont   bool
	won    bool
	lost   bool
}

func (b *comeBet) live() bool {
	return b != nil && b.amount > 0 && !b.won && !b.lost
}

// Table is the per-session craps state machine.
type Table struct {
	deps  game.Deps
	seats *game.Seats
	stage game.Stage

	bets     map[string]*lineBets
	comeBets map[string][]*comeBet

	shooter  string
	point    int
	lastRoll [2]int

	passWin     bool
	dontPassWin bool
	dontPassBar bool
}

func New(deps game.Deps) *Table {
	return &Table{
		deps:     deps,
		seats:    game.NewSeats(),
		stage:    StageBetting1,
		bets:     map[string]*lineBets{},
		comeBets: map[string][]*comeBet{},
	}
}

func (t *Table) Kind() game.Kind   { return game.KindCraps }
func (t *Table) Stage() game.Stage { return t.stage }
func (t *Table) NumPlayers() int   { return t.seats.Len() }

func (t *Table) AddPlayer(_ context.Context, user string) error {
	if t.stage == StageBetting1 {
		if t.seats.Seat(user) {
			t.bets[user] = &lineBets{}
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
	delete(t.comeBets, user)
	if !seated {
		return
	}
	if t.seats.NumSeated() == 0 {
		t.reset()
		return
	}
	// The dice cannot leave the table with the shooter.
	if user == t.shooter {
		t.chooseShooter()
	}
	// The departure may complete a pending ready vote.
	switch t.stage {
	case StageBetting1:
		t.maybeStartComeOut(ctx)
	case StageBetting2:
		t.maybeStartPoint(ctx)
	case game.StageEnding:
		if t.seats.AllReady() {
			t.reset()
		}
	}
}

type betSpec struct {
	Pass     *game.CC `json:"pass_bet"`
	DontPass *game.CC `json:"dont_pass_bet"`
	Come     *game.CC `json:"come_bet"`
	DontCome *game.CC `json:"dont_come_bet"`
}

func (t *Table) PlaceBet(ctx context.Context, user string, data json.RawMessage) (game.Update, error) {
	if !t.seats.Has(user) {
		return game.Update{}, game.ErrUnknownPlayer
	}
	var spec betSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return game.Update{}, game.ErrInvalidBet
	}
	balance, err := t.deps.Ledger.Balance(ctx, user)
	if err != nil {
		return game.Update{}, game.ErrInvalidBet
	}
	b := t.bets[user]
	switch t.stage {
	case StageBetting1:
		pass, dontPass := amountOr(spec.Pass, b.Pass), amountOr(spec.DontPass, b.DontPass)
		if pass < 0 || dontPass < 0 || pass+dontPass > balance {
			return game.Update{}, game.ErrInvalidBet
		}
		b.Pass, b.DontPass = pass, dontPass
	case StageBetting2:
		come, dontCome := amountOr(spec.Come, b.Come), amountOr(spec.DontCome, b.DontCome)
		if come < 0 || dontCome < 0 || come+dontCome > balance {
			return game.Update{}, game.ErrInvalidBet
		}
		b.Come, b.DontCome = come, dontCome
	default:
		return game.Update{}, game.ErrWrongStage
	}
	return game.Update{Tag: game.TagReady}, nil
}

func amountOr(v *game.CC, current int64) int64 {
	if v == nil {
		return current
	}
	return v.Int64()
}

func (t *Table) SetReady(ctx context.Context, user string, ready, reset bool) (game.Update, error) {
	switch t.stage {
	case StageBetting1:
		if err := t.seats.SetReady(user, ready); err != nil {
			return game.Update{}, err
		}
		if t.maybeStartComeOut(ctx) {
			return game.FullState, nil
		}
		return game.Update{Tag: game.TagReady}, nil
	case StageBetting2:
		if err := t.seats.SetReady(user, ready); err != nil {
			return game.Update{}, err
		}
		if t.maybeStartPoint(ctx) {
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

func (t *Table) maybeStartComeOut(ctx context.Context) bool {
	if t.stage != StageBetting1 || !t.seats.AllReady() || t.seats.NumSeated() == 0 {
		return false
	}
	for _, user := range t.seats.Users() {
		b := t.bets[user]
		t.debitOrVoid(ctx, user, &b.Pass)
		t.debitOrVoid(ctx, user, &b.DontPass)
	}
	t.seats.ClearReady()
	t.chooseShooter()
	t.stage = StageComeOut
	return true
}

func (t *Table) maybeStartPoint(ctx context.Context) bool {
	if t.stage != StageBetting2 || !t.seats.AllReady() || t.seats.NumSeated() == 0 {
		return false
	}
	for _, user := range t.seats.Users() {
		b := t.bets[user]
		t.debitOrVoid(ctx, user, &b.Come)
		t.debitOrVoid(ctx, user, &b.DontCome)
		if b.Come > 0 {
			t.comeBets[user] = append(t.comeBets[user], &comeBet{amount: b.Come})
		}
		if b.DontCome > 0 {
			t.comeBets[user] = append(t.comeBets[user], &comeBet{amount: b.DontCome, dont: true})
		}
	}
	t.seats.ClearReady()
	t.stage = StagePoint
	return true
}

func (t *Table) debitOrVoid(ctx context.Context, user string, amount *int64) {
	if *amount == 0 {
		return
	}
	if err := t.deps.Ledger.Withdraw(ctx, user, *amount); err != nil {
		log.Warn().Str("user", user).Int64("amount", *amount).Err(err).
			Msg("craps bet voided at lock")
		*amount = 0
	}
}

// chooseShooter hands the dice to a random player, never the same one
// twice in a row while others are seated.
func (t *Table) chooseShooter() {
	users := t.seats.Users()
	if len(users) == 0 {
		t.shooter = ""
		return
	}
	next := users[t.deps.Random.Spin(len(users))]
	for len(users) > 1 && next == t.shooter {
		next = users[t.deps.Random.Spin(len(users))]
	}
	t.shooter = next
}

type actionSpec struct {
	Action string `json:"action"`
}

func (t *Table) ApplyAction(ctx context.Context, user string, data json.RawMessage) (game.Update, error) {
	if t.stage != StageComeOut && t.stage != StagePoint {
		return game.Update{}, game.ErrWrongStage
	}
	if !t.seats.Has(user) {
		return game.Update{}, game.ErrUnknownPlayer
	}
	if user != t.shooter {
		return game.Update{}, game.ErrNotYourTurn
	}
	var spec actionSpec
	if err := json.Unmarshal(data, &spec); err != nil || spec.Action != "roll" {
		return game.Update{}, game.ErrInvalidAction
	}

	d1, d2 := t.deps.Random.Roll(6), t.deps.Random.Roll(6)
	t.lastRoll = [2]int{d1, d2}
	total := d1 + d2

	if t.stage == StageComeOut {
		return t.resolveComeOut(ctx, total), nil
	}
	return t.resolvePointRoll(ctx, total), nil
}

func (t *Table) resolveComeOut(ctx context.Context, total int) game.Update {
	switch {
	case total == 7 || total == 11:
		t.passWin = true
		t.settle(ctx)
		return game.Update{Tag: game.TagGameOver}
	case total == 2 || total == 3:
		t.dontPassWin = true
		t.settle(ctx)
		return game.Update{Tag: game.TagGameOver}
	case total == 12:
		// Pass loses, don't-pass is barred and pushes.
		t.dontPassBar = true
		t.settle(ctx)
		return game.Update{Tag: game.TagGameOver}
	default:
		t.point = total
		t.seats.ClearReady()
		t.stage = StageBetting2
		return game.Update{Tag: game.TagComeOutDone}
	}
}

func (t *Table) resolvePointRoll(ctx context.Context, total int) game.Update {
	t.resolveComeBets(ctx, total)
	switch total {
	case t.point:
		t.passWin = true
		t.settle(ctx)
		return game.Update{Tag: game.TagGameOver}
	case 7:
		t.dontPassWin = true
		t.settle(ctx)
		return game.Update{Tag: game.TagGameOver}
	default:
		return game.Update{Tag: game.TagPointReroll}
	}
}

// resolveComeBets walks every live come/don't-come bet against the roll.
// A bet with no come point yet treats this roll as its own come-out.
func (t *Table) resolveComeBets(ctx context.Context, total int) {
	for user, bets := range t.comeBets {
		for _, b := range bets {
			if !b.live() {
				continue
			}
			if b.point == 0 {
				t.resolveFreshComeBet(ctx, user, b, total)
				continue
			}
			switch {
			case total == b.point:
				t.finishComeBet(ctx, user, b, !b.dont)
			case total == 7:
				t.finishComeBet(ctx, user, b, b.dont)
			}
		}
	}
}

func (t *Table) resolveFreshComeBet(ctx context.Context, user string, b *comeBet, total int) {
	switch {
	case total == 7 || total == 11:
		t.finishComeBet(ctx, user, b, !b.dont)
	case total == 2 || total == 3:
		t.finishComeBet(ctx, user, b, b.dont)
	case total == 12:
		if b.dont {
			// Barred: push back the stake.
			b.won = false
			b.lost = true
			t.credit(ctx, user, b.amount)
		} else {
			t.finishComeBet(ctx, user, b, false)
		}
	default:
		b.point = total
	}
}

func (t *Table) finishComeBet(ctx context.Context, user string, b *comeBet, won bool) {
	if won {
		b.won = true
		t.credit(ctx, user, 2*b.amount)
	} else {
		b.lost = true
	}
}

// settle pays the line bets and pushes any come bet the round ended under.
// Stage-guarded by the callers: every path here flips to ending exactly
// once.
func (t *Table) settle(ctx context.Context) {
	for _, user := range t.seats.Users() {
		b := t.bets[user]
		if t.passWin && b.Pass > 0 {
			t.credit(ctx, user, 2*b.Pass)
		}
		if t.dontPassWin && b.DontPass > 0 {
			t.credit(ctx, user, 2*b.DontPass)
		}
		if t.dontPassBar && b.DontPass > 0 {
			t.credit(ctx, user, b.DontPass)
		}
		for _, cb := range t.comeBets[user] {
			if cb.live() {
				t.credit(ctx, user, cb.amount)
				cb.lost = true
			}
		}
	}
	t.seats.ClearReady()
	t.stage = game.StageEnding
}

func (t *Table) credit(ctx context.Context, user string, amount int64) {
	if err := t.deps.Ledger.Deposit(ctx, user, amount); err != nil {
		log.Error().Str("user", user).Int64("amount", amount).Err(err).
			Msg("craps payout failed")
	}
}

func (t *Table) reset() {
	t.stage = StageBetting1
	t.point = 0
	t.lastRoll = [2]int{}
	t.passWin, t.dontPassWin, t.dontPassBar = false, false, false
	t.comeBets = map[string][]*comeBet{}
	t.seats.AdmitWaiting()
	for _, user := range t.seats.Users() {
		t.bets[user] = &lineBets{}
	}
	t.seats.ClearReady()
}

func (t *Table) ForceReset(_ context.Context) {
	if t.stage == game.StageEnding {
		t.reset()
	}
}

func (t *Table) SnapshotFor(_ string) map[string]any {
	players := []map[string]any{}
	for _, user := range t.seats.Users() {
		b := t.bets[user]
		players = append(players, map[string]any{
			"player": user,
			"bet": map[string]int64{
				"pass_bet":      b.Pass,
				"dont_pass_bet": b.DontPass,
				"come_bet":      b.Come,
				"dont_come_bet": b.DontCome,
			},
			"ready":   t.seats.Ready(user),
			"shooter": user == t.shooter,
		})
	}
	snap := map[string]any{
		"stage":   string(t.stage),
		"players": players,
		"shooter": t.shooter,
		"point":   t.point,
		"roll":    []int{t.lastRoll[0], t.lastRoll[1]},
	}
	if t.stage == game.StageEnding {
		snap["pass_win"] = t.passWin
		snap["dont_pass_win"] = t.dontPassWin
	}
	return snap
}
