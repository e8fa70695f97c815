package vesting

import "errors"

var (
	ErrDataLengthsIsZero    = errors.New("vesting: batch arrays are empty")
	ErrDataLengthsNotMatch  = errors.New("vesting: batch array lengths differ")
	ErrIncorrectAmount      = errors.New("vesting: amount must be positive")
	ErrZeroAddress          = errors.New("vesting: zero address")
	ErrInsufficientTokens   = errors.New("vesting: insufficient uncommitted tokens")
	ErrTotalLessThanClaimed = errors.New("vesting: total amount less than claimed")
	ErrNotStarted           = errors.New("vesting: vesting not started")
	ErrAlreadyStarted       = errors.New("vesting: vesting already started")
	ErrClaimAmountIsZero    = errors.New("vesting: nothing to claim")
	ErrForbiddenWithdrawal  = errors.New("vesting: withdrawal of the vesting token is forbidden")
	ErrAccessDenied         = errors.New("vesting: access denied")
)
