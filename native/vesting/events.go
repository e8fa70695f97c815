package vesting

import (
	"encoding/hex"
	"math/big"
	"strconv"

	"tokenvest/core/types"
)

const (
	// EventTypeVestingStarted marks the one-shot start of the global clock.
	EventTypeVestingStarted = "vesting.started"
	// EventTypeVestingCreated is emitted for every schedule write inside a
	// committed batch.
	EventTypeVestingCreated = "vesting.created"
	// EventTypeClaimed is emitted per direction with a non-zero unlock in a
	// claim call.
	EventTypeClaimed = "vesting.claimed"
	// EventTypeRescued records an admin withdrawal of a foreign token.
	EventTypeRescued = "vesting.rescued"
)

// VestingStarted captures the activation of the vesting clock.
type VestingStarted struct {
	Timestamp int64
}

func (VestingStarted) EventType() string { return EventTypeVestingStarted }

func (e VestingStarted) Event() *types.Event {
	return &types.Event{
		Type: EventTypeVestingStarted,
		Attributes: map[string]string{
			"timestamp": strconv.FormatInt(e.Timestamp, 10),
		},
	}
}

// VestingCreated captures a single schedule write applied by a batch setter.
type VestingCreated struct {
	Account   [20]byte
	Amount    *big.Int
	Cliff     uint64
	Duration  uint64
	CreatedAt int64
	Direction Direction
}

func (VestingCreated) EventType() string { return EventTypeVestingCreated }

func (e VestingCreated) Event() *types.Event {
	return &types.Event{
		Type: EventTypeVestingCreated,
		Attributes: map[string]string{
			"account":   hex.EncodeToString(e.Account[:]),
			"amount":    formatAmount(e.Amount),
			"cliff":     strconv.FormatUint(e.Cliff, 10),
			"duration":  strconv.FormatUint(e.Duration, 10),
			"createdAt": strconv.FormatInt(e.CreatedAt, 10),
			"direction": e.Direction.String(),
		},
	}
}

// Claimed captures a non-zero unlock paid out for one direction.
type Claimed struct {
	Account   [20]byte
	Amount    *big.Int
	CreatedAt int64
	Direction Direction
}

func (Claimed) EventType() string { return EventTypeClaimed }

func (e Claimed) Event() *types.Event {
	return &types.Event{
		Type: EventTypeClaimed,
		Attributes: map[string]string{
			"account":   hex.EncodeToString(e.Account[:]),
			"amount":    formatAmount(e.Amount),
			"createdAt": strconv.FormatInt(e.CreatedAt, 10),
			"direction": e.Direction.String(),
		},
	}
}

// Rescued captures a pass-through withdrawal of a foreign token.
type Rescued struct {
	Token  [20]byte
	To     [20]byte
	Amount *big.Int
}

func (Rescued) EventType() string { return EventTypeRescued }

func (e Rescued) Event() *types.Event {
	return &types.Event{
		Type: EventTypeRescued,
		Attributes: map[string]string{
			"token":  hex.EncodeToString(e.Token[:]),
			"to":     hex.EncodeToString(e.To[:]),
			"amount": formatAmount(e.Amount),
		},
	}
}

func formatAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
