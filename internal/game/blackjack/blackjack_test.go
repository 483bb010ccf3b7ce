package blackjack

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Richrosh3/online-casino/internal/cards"
	"github.com/Richrosh3/online-casino/internal/game"
	"github.com/Richrosh3/online-casino/internal/ledger"
	"github.com/Richrosh3/online-casino/internal/random"
)

func card(r cards.Rank) cards.Card {
	return cards.Card{Rank: r, Suit: cards.Spades}
}

func TestHandValue(t *testing.T) {
	tests := []struct {
		name string
		hand []cards.Card
		want int
	}{
		{"ace king is blackjack", []cards.Card{card(cards.Ace), card(cards.King)}, 21},
		{"two aces and a nine", []cards.Card{card(cards.Ace), card(cards.Ace), card(cards.Nine)}, 21},
		{"king queen five busts", []cards.Card{card(cards.King), card(cards.Queen), card(cards.Five)}, 25},
		{"soft seventeen", []cards.Card{card(cards.Ace), card(cards.Six)}, 17},
		{"hard demotion", []cards.Card{card(cards.Ace), card(cards.Nine), card(cards.Five)}, 15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HandValue(tt.hand))
		})
	}
}

func TestIsBlackjack(t *testing.T) {
	assert.True(t, IsBlackjack([]cards.Card{card(cards.Ace), card(cards.King)}))
	assert.False(t, IsBlackjack([]cards.Card{card(cards.Seven), card(cards.Seven), card(cards.Seven)}))
}

func TestPayoutRatios(t *testing.T) {
	assert.Equal(t, int64(250), payoutFor(OutcomeBlackjack, 100))
	assert.Equal(t, int64(200), payoutFor(OutcomeWin, 100))
	assert.Equal(t, int64(200), payoutFor(OutcomeDealerBust, 100))
	assert.Equal(t, int64(100), payoutFor(OutcomePush, 100))
	assert.Equal(t, int64(0), payoutFor(OutcomeLoss, 100))
	assert.Equal(t, int64(0), payoutFor(OutcomePlayerBust, 100))
}

func newTable(t *testing.T, seed uint64, users ...string) (*Table, *ledger.Memory) {
	t.Helper()
	led := ledger.NewMemory()
	tbl := New(game.Deps{
		Ledger:       led,
		Random:       random.NewSeeded(seed),
		NumDecks:     2,
		ReshufflePct: 0.75,
	})
	for _, u := range users {
		require.NoError(t, led.Ensure(context.Background(), u, 10000))
		require.NoError(t, tbl.AddPlayer(context.Background(), u))
	}
	return tbl, led
}

func placeBet(t *testing.T, tbl *Table, user string, amount int64) error {
	t.Helper()
	raw, _ := json.Marshal(map[string]int64{"amount": amount})
	_, err := tbl.PlaceBet(context.Background(), user, raw)
	return err
}

func TestBetExceedingBalanceRejected(t *testing.T) {
	ctx := context.Background()
	tbl, led := newTable(t, 1, "rich")

	require.ErrorIs(t, placeBet(t, tbl, "rich", 10001), game.ErrInvalidBet)
	require.ErrorIs(t, placeBet(t, tbl, "rich", -5), game.ErrInvalidBet)

	bal, err := led.Balance(ctx, "rich")
	require.NoError(t, err)
	assert.Equal(t, int64(10000), bal)
}

func TestBetMalformedRejected(t *testing.T) {
	tbl, _ := newTable(t, 1, "rich")
	_, err := tbl.PlaceBet(context.Background(), "rich", []byte(`{"amount":"lots"}`))
	require.ErrorIs(t, err, game.ErrInvalidBet)
}

func TestBetFromUnknownPlayer(t *testing.T) {
	tbl, _ := newTable(t, 1, "rich")
	require.ErrorIs(t, placeBet(t, tbl, "ghost", 100), game.ErrUnknownPlayer)
}

func TestReadyGatingThreePlayers(t *testing.T) {
	ctx := context.Background()
	tbl, _ := newTable(t, 2, "a", "b", "c")

	up, err := tbl.SetReady(ctx, "a", true, false)
	require.NoError(t, err)
	assert.Equal(t, game.TagReady, up.Tag)
	up, err = tbl.SetReady(ctx, "b", true, false)
	require.NoError(t, err)
	assert.Equal(t, game.TagReady, up.Tag)
	assert.Equal(t, StageBetting, tbl.Stage(), "2 of 3 ready must not deal")

	up, err = tbl.SetReady(ctx, "c", true, false)
	require.NoError(t, err)
	assert.Equal(t, game.FullState, up)
	assert.NotEqual(t, StageBetting, tbl.Stage())
}

func TestUnreadyHoldsStage(t *testing.T) {
	ctx := context.Background()
	tbl, _ := newTable(t, 3, "a", "b")

	_, err := tbl.SetReady(ctx, "a", true, false)
	require.NoError(t, err)
	_, err = tbl.SetReady(ctx, "a", false, false)
	require.NoError(t, err)
	_, err = tbl.SetReady(ctx, "b", true, false)
	require.NoError(t, err)
	assert.Equal(t, StageBetting, tbl.Stage())
}

// playRoundToEnd stands every player until the dealer resolves.
func playRoundToEnd(t *testing.T, tbl *Table, users ...string) {
	t.Helper()
	ctx := context.Background()
	stay, _ := json.Marshal(map[string]string{"move": "stay"})
	for _, u := range users {
		if tbl.Stage() != StageDealing {
			break
		}
		if h := tbl.round.hands[u]; h != nil && !h.done {
			_, err := tbl.ApplyAction(ctx, u, stay)
			require.NoError(t, err)
		}
	}
	require.Equal(t, game.StageEnding, tbl.Stage())
}

func TestRoundSettlesOnce(t *testing.T) {
	ctx := context.Background()
	tbl, led := newTable(t, 4, "a", "b")

	require.NoError(t, placeBet(t, tbl, "a", 1000))
	require.NoError(t, placeBet(t, tbl, "b", 500))
	_, err := tbl.SetReady(ctx, "a", true, false)
	require.NoError(t, err)
	_, err = tbl.SetReady(ctx, "b", true, false)
	require.NoError(t, err)

	playRoundToEnd(t, tbl, "a", "b")

	snap := tbl.SnapshotFor("a")
	require.Equal(t, "ending", snap["stage"])

	wantA := int64(10000) - 1000 + payoutFor(tbl.round.hands["a"].outcome, 1000)
	wantB := int64(10000) - 500 + payoutFor(tbl.round.hands["b"].outcome, 500)
	balA, _ := led.Balance(ctx, "a")
	balB, _ := led.Balance(ctx, "b")
	assert.Equal(t, wantA, balA)
	assert.Equal(t, wantB, balB)

	// Further actions cannot re-run the dealer or re-pay.
	stay, _ := json.Marshal(map[string]string{"move": "stay"})
	_, err = tbl.ApplyAction(ctx, "a", stay)
	require.ErrorIs(t, err, game.ErrWrongStage)
	balA2, _ := led.Balance(ctx, "a")
	assert.Equal(t, balA, balA2)
}

func TestDealerStandsOnSeventeenOrMore(t *testing.T) {
	ctx := context.Background()
	for seed := uint64(0); seed < 20; seed++ {
		tbl, _ := newTable(t, seed, "a")
		require.NoError(t, placeBet(t, tbl, "a", 100))
		_, err := tbl.SetReady(ctx, "a", true, false)
		require.NoError(t, err)
		playRoundToEnd(t, tbl, "a")
		require.GreaterOrEqual(t, HandValue(tbl.round.dealer), 17)
	}
}

func TestMidRoundJoinParksUntilReset(t *testing.T) {
	ctx := context.Background()
	tbl, led := newTable(t, 5, "a")

	require.NoError(t, placeBet(t, tbl, "a", 100))
	_, err := tbl.SetReady(ctx, "a", true, false)
	require.NoError(t, err)
	require.NotEqual(t, StageBetting, tbl.Stage())

	require.NoError(t, led.Ensure(ctx, "late", 10000))
	require.NoError(t, tbl.AddPlayer(ctx, "late"))
	assert.Equal(t, 2, tbl.NumPlayers())
	assert.NotContains(t, tbl.bets, "late")

	playRoundToEnd(t, tbl, "a")

	// Play-again vote admits the waiting room.
	_, err = tbl.SetReady(ctx, "a", true, true)
	require.NoError(t, err)
	assert.Equal(t, StageBetting, tbl.Stage())
	assert.Contains(t, tbl.bets, "late")
}

func TestDisconnectOfLastHoldoutResolvesRound(t *testing.T) {
	ctx := context.Background()
	tbl, _ := newTable(t, 6, "a", "b")

	require.NoError(t, placeBet(t, tbl, "a", 100))
	require.NoError(t, placeBet(t, tbl, "b", 100))
	_, err := tbl.SetReady(ctx, "a", true, false)
	require.NoError(t, err)
	_, err = tbl.SetReady(ctx, "b", true, false)
	require.NoError(t, err)

	if tbl.Stage() == game.StageEnding {
		t.Skip("both players dealt 21, nothing to disconnect out of")
	}

	stay, _ := json.Marshal(map[string]string{"move": "stay"})
	if !tbl.round.hands["a"].done {
		_, err = tbl.ApplyAction(ctx, "a", stay)
		require.NoError(t, err)
	}
	tbl.RemovePlayer(ctx, "b")
	assert.Equal(t, game.StageEnding, tbl.Stage())
}

func TestDepartingBettingHoldoutDeals(t *testing.T) {
	ctx := context.Background()
	tbl, _ := newTable(t, 9, "a", "b", "c")

	require.NoError(t, placeBet(t, tbl, "a", 100))
	require.NoError(t, placeBet(t, tbl, "b", 100))
	_, err := tbl.SetReady(ctx, "a", true, false)
	require.NoError(t, err)
	_, err = tbl.SetReady(ctx, "b", true, false)
	require.NoError(t, err)
	require.Equal(t, StageBetting, tbl.Stage())

	tbl.RemovePlayer(ctx, "c")
	assert.NotEqual(t, StageBetting, tbl.Stage(), "the last holdout leaving must deal the round")
}

func TestDepartingResetHoldoutStartsNewRound(t *testing.T) {
	ctx := context.Background()
	tbl, _ := newTable(t, 10, "a", "b", "c")

	for _, u := range []string{"a", "b", "c"} {
		require.NoError(t, placeBet(t, tbl, u, 100))
	}
	for _, u := range []string{"a", "b", "c"} {
		_, err := tbl.SetReady(ctx, u, true, false)
		require.NoError(t, err)
	}
	playRoundToEnd(t, tbl, "a", "b", "c")

	_, err := tbl.SetReady(ctx, "a", true, true)
	require.NoError(t, err)
	_, err = tbl.SetReady(ctx, "b", true, true)
	require.NoError(t, err)
	require.Equal(t, game.StageEnding, tbl.Stage())

	tbl.RemovePlayer(ctx, "c")
	assert.Equal(t, StageBetting, tbl.Stage(), "the last reset holdout leaving must start the next round")
}

func TestForceResetOnlyInEnding(t *testing.T) {
	ctx := context.Background()
	tbl, _ := newTable(t, 7, "a")

	tbl.ForceReset(ctx)
	assert.Equal(t, StageBetting, tbl.Stage())

	require.NoError(t, placeBet(t, tbl, "a", 100))
	_, err := tbl.SetReady(ctx, "a", true, false)
	require.NoError(t, err)
	if tbl.Stage() == StageDealing {
		tbl.ForceReset(ctx)
		assert.Equal(t, StageDealing, tbl.Stage(), "force reset must not abort a live hand")
	}

	playRoundToEnd(t, tbl, "a")
	tbl.ForceReset(ctx)
	assert.Equal(t, StageBetting, tbl.Stage())
}

func TestSnapshotHidesDealerHoleCard(t *testing.T) {
	ctx := context.Background()
	tbl, _ := newTable(t, 8, "a", "b")

	require.NoError(t, placeBet(t, tbl, "a", 100))
	require.NoError(t, placeBet(t, tbl, "b", 100))
	_, err := tbl.SetReady(ctx, "a", true, false)
	require.NoError(t, err)
	_, err = tbl.SetReady(ctx, "b", true, false)
	require.NoError(t, err)

	if tbl.Stage() == StageDealing {
		snap := tbl.SnapshotFor("a")
		dealer := snap["dealer"].(map[string]any)
		hand := dealer["hand"].([]string)
		require.Len(t, hand, 2)
		assert.Equal(t, cards.HiddenCard, hand[1])
	}

	playRoundToEnd(t, tbl, "a", "b")
	snap := tbl.SnapshotFor("a")
	dealer := snap["dealer"].(map[string]any)
	for _, c := range dealer["hand"].([]string) {
		assert.NotEqual(t, cards.HiddenCard, c)
	}
}
