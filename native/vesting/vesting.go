package vesting

import "math/big"

// Direction identifies one of the six fixed allocation buckets. Every account
// holds at most one schedule per direction, and aggregation (claims, info
// views) always walks directions in numeric order so emitted events stay
// deterministic.
type Direction uint8

const (
	DirectionPublicRound Direction = iota
	DirectionStaking
	DirectionTeam
	DirectionLiquidity
	DirectionMarketing
	DirectionTreasury

	directionCount = 6
)

const (
	halfYearSeconds = 15_768_000
	oneYearSeconds  = 2 * halfYearSeconds
)

// Terms returns the fixed (cliff, vesting) duration pair bound to the
// direction, in seconds.
func (d Direction) Terms() (cliff uint64, vesting uint64) {
	switch d {
	case DirectionPublicRound:
		return 0, 0
	case DirectionStaking:
		return halfYearSeconds, 5 * halfYearSeconds
	case DirectionTeam:
		return oneYearSeconds, 2 * oneYearSeconds
	case DirectionLiquidity:
		return 0, halfYearSeconds
	case DirectionMarketing:
		return 0, 5 * halfYearSeconds
	case DirectionTreasury:
		return halfYearSeconds, 5 * halfYearSeconds
	default:
		return 0, 0
	}
}

// Valid reports whether the direction value is within the supported range.
func (d Direction) Valid() bool { return d < directionCount }

func (d Direction) String() string {
	switch d {
	case DirectionPublicRound:
		return "publicRound"
	case DirectionStaking:
		return "staking"
	case DirectionTeam:
		return "team"
	case DirectionLiquidity:
		return "liquidity"
	case DirectionMarketing:
		return "marketing"
	case DirectionTreasury:
		return "treasury"
	default:
		return "unknown"
	}
}

// Directions returns all supported directions in numeric order.
func Directions() [directionCount]Direction {
	return [directionCount]Direction{
		DirectionPublicRound,
		DirectionStaking,
		DirectionTeam,
		DirectionLiquidity,
		DirectionMarketing,
		DirectionTreasury,
	}
}

// Schedule captures the committed and claimed amounts for one
// (account, direction) pair. The cliff and vesting durations are stored on
// every write; the per-direction setters always supply the fixed pair from
// Terms. A zero TotalAmount means no schedule exists.
type Schedule struct {
	CliffSeconds   uint64
	VestingSeconds uint64
	TotalAmount    *big.Int
	ClaimedAmount  *big.Int
}

// Clone returns a deep copy so callers can mutate the copy without affecting
// the stored instance.
func (s *Schedule) Clone() *Schedule {
	if s == nil {
		return nil
	}
	clone := &Schedule{
		CliffSeconds:   s.CliffSeconds,
		VestingSeconds: s.VestingSeconds,
		TotalAmount:    big.NewInt(0),
		ClaimedAmount:  big.NewInt(0),
	}
	if s.TotalAmount != nil {
		clone.TotalAmount = new(big.Int).Set(s.TotalAmount)
	}
	if s.ClaimedAmount != nil {
		clone.ClaimedAmount = new(big.Int).Set(s.ClaimedAmount)
	}
	return clone
}

// Exists reports whether the schedule carries a committed amount.
func (s *Schedule) Exists() bool {
	return s != nil && s.TotalAmount != nil && s.TotalAmount.Sign() > 0
}

func ensureSchedule(s *Schedule) *Schedule {
	if s == nil {
		return &Schedule{TotalAmount: big.NewInt(0), ClaimedAmount: big.NewInt(0)}
	}
	if s.TotalAmount == nil {
		s.TotalAmount = big.NewInt(0)
	}
	if s.ClaimedAmount == nil {
		s.ClaimedAmount = big.NewInt(0)
	}
	return s
}

// VestingInfo aggregates an account's position across all six directions.
// LockedAmount is the remainder that is neither claimed nor currently
// claimable.
type VestingInfo struct {
	TotalAmount    *big.Int
	UnlockedAmount *big.Int
	ClaimedAmount  *big.Int
	LockedAmount   *big.Int
}
