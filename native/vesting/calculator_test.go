package vesting

import (
	"math/big"
	"testing"
)

func schedule(dir Direction, total, claimed int64) *Schedule {
	cliff, duration := dir.Terms()
	return &Schedule{
		CliffSeconds:   cliff,
		VestingSeconds: duration,
		TotalAmount:    big.NewInt(total),
		ClaimedAmount:  big.NewInt(claimed),
	}
}

func TestUnlockedEmptySchedule(t *testing.T) {
	if got := Unlocked(nil, DirectionStaking, 1); got.Sign() != 0 {
		t.Fatalf("nil schedule: got %s, want 0", got)
	}
	if got := Unlocked(&Schedule{}, DirectionStaking, 1); got.Sign() != 0 {
		t.Fatalf("zero schedule: got %s, want 0", got)
	}
}

func TestUnlockedPublicRoundImmediate(t *testing.T) {
	s := schedule(DirectionPublicRound, 100, 0)
	if got := Unlocked(s, DirectionPublicRound, 0); got.Int64() != 100 {
		t.Fatalf("elapsed 0: got %s, want 100", got)
	}
	s.ClaimedAmount = big.NewInt(100)
	if got := Unlocked(s, DirectionPublicRound, 1); got.Sign() != 0 {
		t.Fatalf("fully claimed: got %s, want 0", got)
	}
}

func TestUnlockedLinearCurve(t *testing.T) {
	cliff, duration := DirectionStaking.Terms()
	cases := []struct {
		name    string
		elapsed int64
		claimed int64
		want    int64
	}{
		{"before cliff", int64(cliff) - 1, 0, 0},
		{"at cliff", int64(cliff), 0, 20},
		{"half vesting period", int64(duration) / 2, 0, 50},
		{"mid with prior claim", int64(duration) / 2, 20, 30},
		{"past vesting span before maturity", int64(duration) + int64(cliff)/2, 0, 100},
		{"past vesting span with prior claim", int64(duration) + int64(cliff)/2, 40, 60},
		{"at maturity", int64(cliff + duration), 0, 100},
		{"past maturity with prior claim", int64(cliff+duration) + 1, 40, 60},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := schedule(DirectionStaking, 100, tc.claimed)
			if got := Unlocked(s, DirectionStaking, tc.elapsed); got.Int64() != tc.want {
				t.Fatalf("elapsed=%d claimed=%d: got %s, want %d", tc.elapsed, tc.claimed, got, tc.want)
			}
		})
	}
}

func TestUnlockedLiquidityCurve(t *testing.T) {
	_, duration := DirectionLiquidity.Terms()
	s := schedule(DirectionLiquidity, 100, 0)
	if got := Unlocked(s, DirectionLiquidity, 0); got.Int64() != 50 {
		t.Fatalf("first release: got %s, want 50", got)
	}
	s.ClaimedAmount = big.NewInt(50)
	if got := Unlocked(s, DirectionLiquidity, int64(duration)-1); got.Sign() != 0 {
		t.Fatalf("before maturity after half release: got %s, want 0", got)
	}
	if got := Unlocked(s, DirectionLiquidity, int64(duration)); got.Int64() != 50 {
		t.Fatalf("at maturity: got %s, want 50", got)
	}
}

func TestUnlockedLiquidityHalfRoundsDown(t *testing.T) {
	s := schedule(DirectionLiquidity, 101, 0)
	if got := Unlocked(s, DirectionLiquidity, 0); got.Int64() != 50 {
		t.Fatalf("odd total: got %s, want 50", got)
	}
}

func TestUnlockedClampsAfterTotalLowered(t *testing.T) {
	// An admin can lower totalAmount down to the claimed amount; the linear
	// curve may then lag behind what was already paid out.
	_, duration := DirectionStaking.Terms()
	s := schedule(DirectionStaking, 100, 50)
	if got := Unlocked(s, DirectionStaking, int64(duration)/4); got.Sign() != 0 {
		t.Fatalf("lagging curve: got %s, want 0", got)
	}
}

func TestUnlockedNegativeElapsed(t *testing.T) {
	s := schedule(DirectionPublicRound, 100, 0)
	if got := Unlocked(s, DirectionPublicRound, -1); got.Sign() != 0 {
		t.Fatalf("negative elapsed: got %s, want 0", got)
	}
}
