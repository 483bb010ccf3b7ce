package roulette

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Richrosh3/online-casino/internal/game"
	"github.com/Richrosh3/online-casino/internal/ledger"
)

// fixedWheel lands the ball on a predetermined wheel index.
type fixedWheel struct{ idx int }

func (f *fixedWheel) Spin(size int) int           { return f.idx % size }
func (f *fixedWheel) Roll(int) int                { return 1 }
func (f *fixedWheel) Shuffle(int, func(i, j int)) {}

// pocketIndex maps a pocket label to its slot in the wheel slice.
func pocketIndex(t *testing.T, pocket string) int {
	t.Helper()
	for i, p := range wheel {
		if p == pocket {
			return i
		}
	}
	t.Fatalf("pocket %q not on wheel", pocket)
	return -1
}

const bankroll = int64(10000)

func newTable(t *testing.T, pocket string, users ...string) (*Table, *ledger.Memory) {
	t.Helper()
	led := ledger.NewMemory()
	tbl := New(game.Deps{Ledger: led, Random: &fixedWheel{idx: pocketIndex(t, pocket)}})
	for _, u := range users {
		require.NoError(t, led.Ensure(context.Background(), u, bankroll))
		require.NoError(t, tbl.AddPlayer(context.Background(), u))
	}
	return tbl, led
}

func placeBet(t *testing.T, tbl *Table, user string, amount int64, kind BetKind, nums ...string) error {
	t.Helper()
	raw, _ := json.Marshal(map[string]any{"amount": amount, "type": kind, "nums": nums})
	_, err := tbl.PlaceBet(context.Background(), user, raw)
	return err
}

func readyAll(t *testing.T, tbl *Table, users ...string) {
	t.Helper()
	for _, u := range users {
		_, err := tbl.SetReady(context.Background(), u, true, false)
		require.NoError(t, err)
	}
}

func TestBetValidation(t *testing.T) {
	tests := []struct {
		name string
		spec Spec
		want bool
	}{
		{"single seventeen", Spec{BetSingle, []string{"17"}}, true},
		{"single double zero", Spec{BetSingle, []string{"00"}}, true},
		{"single off wheel", Spec{BetSingle, []string{"37"}}, false},
		{"split vertical", Spec{BetSplit, []string{"14", "17"}}, true},
		{"split horizontal", Spec{BetSplit, []string{"17", "18"}}, true},
		{"split across rows", Spec{BetSplit, []string{"3", "4"}}, false},
		{"split zero one", Spec{BetSplit, []string{"0", "1"}}, true},
		{"split double zero three", Spec{BetSplit, []string{"00", "3"}}, true},
		{"split not adjacent", Spec{BetSplit, []string{"5", "9"}}, false},
		{"trio with zero", Spec{BetTrio, []string{"0", "1", "2"}}, true},
		{"trio without zero", Spec{BetTrio, []string{"4", "5", "6"}}, false},
		{"street", Spec{BetStreet, []string{"7", "8", "9"}}, true},
		{"street off head", Spec{BetStreet, []string{"8", "9", "10"}}, false},
		{"corner", Spec{BetCorner, []string{"17", "18", "20", "21"}}, true},
		{"corner across rows", Spec{BetCorner, []string{"3", "4", "6", "7"}}, false},
		{"double street", Spec{BetDouble, []string{"13", "14", "15", "16", "17", "18"}}, true},
		{"double off head", Spec{BetDouble, []string{"14", "15", "16", "17", "18", "19"}}, false},
		{"column two", Spec{BetColumn, []string{"2"}}, true},
		{"column four", Spec{BetColumn, []string{"4"}}, false},
		{"dozen three", Spec{BetDozen, []string{"3"}}, true},
		{"color red", Spec{BetColor, []string{"r"}}, true},
		{"color green", Spec{BetColor, []string{"g"}}, false},
		{"even no nums", Spec{BetEven, nil}, true},
		{"snake no nums", Spec{BetSnake, nil}, true},
		{"basket no nums", Spec{BetBasket, nil}, true},
		{"unknown kind", Spec{"zigzag", nil}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.spec.Valid())
		})
	}
}

func TestPocketColors(t *testing.T) {
	assert.Equal(t, "g", colorOf("0"))
	assert.Equal(t, "g", colorOf("00"))
	assert.Equal(t, "r", colorOf("1"))
	assert.Equal(t, "b", colorOf("17"))
	assert.Equal(t, "r", colorOf("18"))
	assert.Equal(t, "b", colorOf("10"))
	assert.Equal(t, "r", colorOf("36"))
}

func TestSinglePaysThirtyFiveToOne(t *testing.T) {
	ctx := context.Background()
	tbl, led := newTable(t, "17", "a")
	require.NoError(t, placeBet(t, tbl, "a", 100, BetSingle, "17"))
	readyAll(t, tbl, "a")

	require.Equal(t, game.StageEnding, tbl.Stage())
	bal, _ := led.Balance(ctx, "a")
	assert.Equal(t, bankroll-100+3600, bal)
}

func TestOutsideBets(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name   string
		pocket string
		kind   BetKind
		nums   []string
		want   int64
	}{
		{"red wins even money", "5", BetColor, []string{"r"}, bankroll + 100},
		{"black loses on red", "5", BetColor, []string{"b"}, bankroll - 100},
		{"dozen pays two to one", "15", BetDozen, []string{"2"}, bankroll + 200},
		{"column pays two to one", "18", BetColumn, []string{"3"}, bankroll + 200},
		{"snake pays two to one", "23", BetSnake, nil, bankroll + 200},
		{"basket pays six to one", "00", BetBasket, nil, bankroll + 600},
		{"high loses on low", "4", BetHigh, nil, bankroll - 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl, led := newTable(t, tt.pocket, "a")
			require.NoError(t, placeBet(t, tbl, "a", 100, tt.kind, tt.nums...))
			readyAll(t, tbl, "a")
			bal, _ := led.Balance(ctx, "a")
			assert.Equal(t, tt.want, bal)
		})
	}
}

func TestZeroBeatsEvenMoneyBets(t *testing.T) {
	ctx := context.Background()
	for _, kind := range []BetKind{BetEven, BetOdd, BetLow, BetHigh} {
		tbl, led := newTable(t, "0", "a")
		require.NoError(t, placeBet(t, tbl, "a", 100, kind))
		readyAll(t, tbl, "a")
		bal, _ := led.Balance(ctx, "a")
		assert.Equal(t, bankroll-100, bal, "%s must lose on 0", kind)
	}
}

func TestInvalidBetRejected(t *testing.T) {
	tbl, _ := newTable(t, "17", "a")
	require.ErrorIs(t, placeBet(t, tbl, "a", 100, BetSplit, "3", "4"), game.ErrInvalidBet)
	require.ErrorIs(t, placeBet(t, tbl, "a", -5, BetEven), game.ErrInvalidBet)
	require.ErrorIs(t, placeBet(t, tbl, "a", bankroll+1, BetEven), game.ErrInvalidBet)
	require.ErrorIs(t, placeBet(t, tbl, "ghost", 100, BetEven), game.ErrUnknownPlayer)
}

func TestActionsHaveNoMeaning(t *testing.T) {
	tbl, _ := newTable(t, "17", "a")
	_, err := tbl.ApplyAction(context.Background(), "a", []byte(`{"move":"spin"}`))
	require.ErrorIs(t, err, game.ErrInvalidAction)
}

func TestMidSpinJoinParksUntilReset(t *testing.T) {
	ctx := context.Background()
	tbl, led := newTable(t, "17", "a")
	require.NoError(t, placeBet(t, tbl, "a", 100, BetSingle, "17"))
	readyAll(t, tbl, "a")
	require.Equal(t, game.StageEnding, tbl.Stage())

	require.NoError(t, led.Ensure(ctx, "late", bankroll))
	require.NoError(t, tbl.AddPlayer(ctx, "late"))
	assert.Equal(t, 2, tbl.NumPlayers())
	assert.False(t, tbl.seats.Has("late"))

	up, err := tbl.SetReady(ctx, "a", true, true)
	require.NoError(t, err)
	assert.Equal(t, game.FullState, up)
	assert.Equal(t, StageBetting, tbl.Stage())
	assert.True(t, tbl.seats.Has("late"))
	assert.Empty(t, tbl.bets)
}

func TestDepartingBettingHoldoutSpins(t *testing.T) {
	ctx := context.Background()
	tbl, _ := newTable(t, "17", "a", "b", "c")
	require.NoError(t, placeBet(t, tbl, "a", 100, BetSingle, "17"))
	readyAll(t, tbl, "a", "b")
	require.Equal(t, StageBetting, tbl.Stage())

	tbl.RemovePlayer(ctx, "c")
	assert.Equal(t, game.StageEnding, tbl.Stage(), "the last holdout leaving must spin the wheel")
}

func TestDepartingResetHoldoutStartsNewRound(t *testing.T) {
	ctx := context.Background()
	tbl, _ := newTable(t, "17", "a", "b", "c")
	readyAll(t, tbl, "a", "b", "c")
	require.Equal(t, game.StageEnding, tbl.Stage())

	_, err := tbl.SetReady(ctx, "a", true, true)
	require.NoError(t, err)
	_, err = tbl.SetReady(ctx, "b", true, true)
	require.NoError(t, err)
	require.Equal(t, game.StageEnding, tbl.Stage())

	tbl.RemovePlayer(ctx, "c")
	assert.Equal(t, StageBetting, tbl.Stage(), "the last reset holdout leaving must start the next round")
}

func TestSnapshotCarriesResult(t *testing.T) {
	tbl, _ := newTable(t, "17", "a")
	require.NoError(t, placeBet(t, tbl, "a", 100, BetSingle, "17"))

	snap := tbl.SnapshotFor("a")
	assert.NotContains(t, snap, "result")

	readyAll(t, tbl, "a")
	snap = tbl.SnapshotFor("a")
	assert.Equal(t, "17", snap["result"])
	assert.Equal(t, "b", snap["color"])
	players := snap["players"].([]map[string]any)
	require.Len(t, players, 1)
	assert.Equal(t, int64(3600), players[0]["payout"])
}
