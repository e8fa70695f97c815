package vesting

import "math/big"

var two = big.NewInt(2)

// Unlocked computes the amount of a schedule that has unlocked and not yet
// been claimed, elapsed seconds after the vesting start. The function is pure
// and serves both the read views and the claim path.
//
// Every direction except liquidity unlocks linearly over the vesting period
// once the cliff has passed. The liquidity bucket releases half of the total
// immediately after its cliff and the remainder only at full maturity.
func Unlocked(s *Schedule, dir Direction, elapsed int64) *big.Int {
	if s == nil || s.TotalAmount == nil || s.TotalAmount.Sign() == 0 {
		return big.NewInt(0)
	}
	total := s.TotalAmount
	claimed := s.ClaimedAmount
	if claimed == nil {
		claimed = big.NewInt(0)
	}
	if claimed.Cmp(total) >= 0 {
		return big.NewInt(0)
	}
	if elapsed < 0 || uint64(elapsed) < s.CliffSeconds {
		return big.NewInt(0)
	}
	maxTime := s.CliffSeconds + s.VestingSeconds
	if uint64(elapsed) >= maxTime {
		return new(big.Int).Sub(total, claimed)
	}
	if dir == DirectionLiquidity {
		// One-time half release right after the cliff; the rest waits for
		// full maturity.
		if claimed.Sign() == 0 {
			return new(big.Int).Div(total, two)
		}
		return big.NewInt(0)
	}
	// elapsed < maxTime here, so VestingSeconds is non-zero: a zero vesting
	// duration only occurs with a zero cliff, making maxTime == 0.
	vested := new(big.Int).Mul(total, big.NewInt(elapsed))
	vested.Div(vested, new(big.Int).SetUint64(s.VestingSeconds))
	unlocked := vested.Sub(vested, claimed)
	if unlocked.Sign() < 0 {
		return big.NewInt(0)
	}
	// Elapsed counts from the start timestamp, so with a non-zero cliff the
	// proration can exceed the total before maxTime. Never release more than
	// what remains unclaimed.
	remaining := new(big.Int).Sub(total, claimed)
	if unlocked.Cmp(remaining) > 0 {
		return remaining
	}
	return unlocked
}
