package vesting

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"tokenvest/core/events"
	"tokenvest/core/types"
)

var (
	errNilState  = errors.New("vesting engine: state not configured")
	errNilToken  = errors.New("vesting engine: token ledger not configured")
	errNilRescue = errors.New("vesting engine: rescue transfer not configured")
)

// engineState is the authoritative store for schedules, the committed total
// and the start timestamp. Implementations must return deep copies from
// ScheduleGet so staged engine mutations never leak before a commit.
type engineState interface {
	ScheduleGet(account [20]byte, dir Direction) (*Schedule, error)
	SchedulePut(account [20]byte, dir Direction, s *Schedule) error
	VestingStart() (int64, error)
	SetVestingStart(ts int64) error
	CommittedTotal() (*big.Int, error)
	SetCommittedTotal(total *big.Int) error
}

// tokenLedger is the fungible-token collaborator holding the vested supply.
type tokenLedger interface {
	Address() [20]byte
	BalanceOf(account [20]byte) (*big.Int, error)
	Transfer(from, to [20]byte, amount *big.Int) error
}

type vestingEvent struct {
	evt *types.Event
}

func (e vestingEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e vestingEvent) Event() *types.Event { return e.evt }

// Engine wires the vesting business logic with external state, the token
// ledger and event emitters. All mutating operations validate fully before
// touching the store, mirroring whole-call commit/rollback semantics.
type Engine struct {
	state    engineState
	token    tokenLedger
	vault    [20]byte
	admin    [20]byte
	emitter  events.Emitter
	nowFn    func() int64
	rescueFn func(token [20]byte, to [20]byte, amount *big.Int) error
}

// NewEngine creates a vesting engine with a no-op emitter. Callers can
// override the emitter via SetEmitter.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetToken configures the token ledger holding the vested supply.
func (e *Engine) SetToken(token tokenLedger) { e.token = token }

// SetVault configures the holding account that the full supply is minted to
// and claims are paid from.
func (e *Engine) SetVault(addr [20]byte) { e.vault = addr }

// SetAdmin configures the single authority allowed to mutate schedules,
// start vesting and rescue foreign tokens.
func (e *Engine) SetAdmin(addr [20]byte) { e.admin = addr }

// SetNowFunc overrides the time source used by the engine. Primarily intended
// for tests to provide deterministic timestamps.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// SetEmitter configures the event emitter used by the engine. Passing nil
// resets the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetRescueTransfer configures the pass-through used to move foreign tokens
// out of the vault. The engine itself only performs the guard checks.
func (e *Engine) SetRescueTransfer(fn func(token [20]byte, to [20]byte, amount *big.Int) error) {
	e.rescueFn = fn
}

func (e *Engine) emit(event *types.Event) {
	if e == nil || e.emitter == nil || event == nil {
		return
	}
	e.emitter.Emit(vestingEvent{evt: event})
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func (e *Engine) requireAdmin(caller [20]byte) error {
	if e == nil || e.admin == ([20]byte{}) || caller != e.admin {
		return ErrAccessDenied
	}
	return nil
}

// Admin returns the configured authority address.
func (e *Engine) Admin() [20]byte { return e.admin }

// VestingStart returns the global start timestamp, zero when not started.
func (e *Engine) VestingStart() (int64, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	return e.state.VestingStart()
}

// CommittedTotal returns the sum of all outstanding unclaimed amounts.
func (e *Engine) CommittedTotal() (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	return e.state.CommittedTotal()
}

// AvailableAmount returns the spare vault capacity: the token balance of the
// vault minus the committed total. Batch setters consume it entry by entry.
func (e *Engine) AvailableAmount() (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if e.token == nil {
		return nil, errNilToken
	}
	balance, err := e.token.BalanceOf(e.vault)
	if err != nil {
		return nil, err
	}
	committed, err := e.state.CommittedTotal()
	if err != nil {
		return nil, err
	}
	return new(big.Int).Sub(balance, committed), nil
}

// ScheduleOf returns the stored schedule for the account and direction. A
// schedule with a zero total means none exists.
func (e *Engine) ScheduleOf(account [20]byte, dir Direction) (*Schedule, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if !dir.Valid() {
		return nil, fmt.Errorf("vesting: invalid direction %d", dir)
	}
	sched, err := e.state.ScheduleGet(account, dir)
	if err != nil {
		return nil, err
	}
	return ensureSchedule(sched), nil
}

// TotalVestingInfo aggregates the account's position across all directions at
// the current time.
func (e *Engine) TotalVestingInfo(account [20]byte) (*VestingInfo, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	start, err := e.state.VestingStart()
	if err != nil {
		return nil, err
	}
	elapsed := int64(-1)
	if start > 0 {
		elapsed = e.now() - start
	}
	info := &VestingInfo{
		TotalAmount:    big.NewInt(0),
		UnlockedAmount: big.NewInt(0),
		ClaimedAmount:  big.NewInt(0),
		LockedAmount:   big.NewInt(0),
	}
	for _, dir := range Directions() {
		sched, err := e.state.ScheduleGet(account, dir)
		if err != nil {
			return nil, err
		}
		sched = ensureSchedule(sched)
		info.TotalAmount.Add(info.TotalAmount, sched.TotalAmount)
		info.ClaimedAmount.Add(info.ClaimedAmount, sched.ClaimedAmount)
		if start > 0 {
			info.UnlockedAmount.Add(info.UnlockedAmount, Unlocked(sched, dir, elapsed))
		}
	}
	info.LockedAmount.Sub(info.TotalAmount, info.ClaimedAmount)
	info.LockedAmount.Sub(info.LockedAmount, info.UnlockedAmount)
	return info, nil
}

// StartVesting activates the global vesting clock. One-shot: the timestamp is
// set exactly once and never reset.
func (e *Engine) StartVesting(caller [20]byte) (int64, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	if err := e.requireAdmin(caller); err != nil {
		return 0, err
	}
	start, err := e.state.VestingStart()
	if err != nil {
		return 0, err
	}
	if start != 0 {
		return 0, ErrAlreadyStarted
	}
	ts := e.now()
	if err := e.state.SetVestingStart(ts); err != nil {
		return 0, err
	}
	e.emit(VestingStarted{Timestamp: ts}.Event())
	return ts, nil
}

// SetVestForPublicRound writes public-round schedules (no cliff, immediate).
func (e *Engine) SetVestForPublicRound(caller [20]byte, accounts [][20]byte, amounts []*big.Int) error {
	return e.setVestFor(caller, DirectionPublicRound, accounts, amounts)
}

// SetVestForStaking writes staking schedules (6 month cliff, 2.5 year vest).
func (e *Engine) SetVestForStaking(caller [20]byte, accounts [][20]byte, amounts []*big.Int) error {
	return e.setVestFor(caller, DirectionStaking, accounts, amounts)
}

// SetVestForTeam writes team schedules (1 year cliff, 2 year vest).
func (e *Engine) SetVestForTeam(caller [20]byte, accounts [][20]byte, amounts []*big.Int) error {
	return e.setVestFor(caller, DirectionTeam, accounts, amounts)
}

// SetVestForLiquidity writes liquidity schedules (half immediately, the rest
// after 6 months).
func (e *Engine) SetVestForLiquidity(caller [20]byte, accounts [][20]byte, amounts []*big.Int) error {
	return e.setVestFor(caller, DirectionLiquidity, accounts, amounts)
}

// SetVestForMarketing writes marketing schedules (no cliff, 2.5 year vest).
func (e *Engine) SetVestForMarketing(caller [20]byte, accounts [][20]byte, amounts []*big.Int) error {
	return e.setVestFor(caller, DirectionMarketing, accounts, amounts)
}

// SetVestForTreasury writes treasury schedules (6 month cliff, 2.5 year vest).
func (e *Engine) SetVestForTreasury(caller [20]byte, accounts [][20]byte, amounts []*big.Int) error {
	return e.setVestFor(caller, DirectionTreasury, accounts, amounts)
}

type stagedSchedule struct {
	account [20]byte
	sched   *Schedule
	prior   *Schedule
}

// setVestFor validates and applies a batch of schedule writes for one
// direction. Entries are processed strictly in input order with a running
// committed total, so later entries see the capacity consumed by earlier
// ones. Any failure discards the whole batch.
func (e *Engine) setVestFor(caller [20]byte, dir Direction, accounts [][20]byte, amounts []*big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if e.token == nil {
		return errNilToken
	}
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	start, err := e.state.VestingStart()
	if err != nil {
		return err
	}
	if start == 0 {
		return ErrNotStarted
	}
	if len(accounts) == 0 || len(amounts) == 0 {
		return ErrDataLengthsIsZero
	}
	if len(accounts) != len(amounts) {
		return ErrDataLengthsNotMatch
	}
	balance, err := e.token.BalanceOf(e.vault)
	if err != nil {
		return err
	}
	committed, err := e.state.CommittedTotal()
	if err != nil {
		return err
	}
	committed = new(big.Int).Set(committed)

	cliff, duration := dir.Terms()
	now := e.now()
	staged := make([]*stagedSchedule, 0, len(accounts))
	stagedIdx := make(map[[20]byte]int, len(accounts))
	created := make([]VestingCreated, 0, len(accounts))

	for i, account := range accounts {
		amount := amounts[i]
		if amount == nil || amount.Sign() <= 0 {
			return ErrIncorrectAmount
		}
		if account == ([20]byte{}) {
			return ErrZeroAddress
		}
		var entry *stagedSchedule
		if idx, ok := stagedIdx[account]; ok {
			entry = staged[idx]
		} else {
			stored, err := e.state.ScheduleGet(account, dir)
			if err != nil {
				return err
			}
			stored = ensureSchedule(stored)
			entry = &stagedSchedule{account: account, sched: stored.Clone(), prior: stored}
			stagedIdx[account] = len(staged)
			staged = append(staged, entry)
		}
		prior := entry.sched.TotalAmount
		claimed := entry.sched.ClaimedAmount

		delta := new(big.Int).Sub(amount, prior)
		if delta.Sign() < 0 {
			delta.SetInt64(0)
		}
		available := new(big.Int).Sub(balance, committed)
		if available.Cmp(delta) < 0 {
			return ErrInsufficientTokens
		}
		if prior.Sign() == 0 {
			committed.Add(committed, amount)
		} else {
			if amount.Cmp(claimed) < 0 {
				return ErrTotalLessThanClaimed
			}
			committed.Add(committed, new(big.Int).Sub(amount, prior))
		}
		entry.sched.CliffSeconds = cliff
		entry.sched.VestingSeconds = duration
		entry.sched.TotalAmount = new(big.Int).Set(amount)
		created = append(created, VestingCreated{
			Account:   account,
			Amount:    new(big.Int).Set(amount),
			Cliff:     cliff,
			Duration:  duration,
			CreatedAt: now,
			Direction: dir,
		})
	}

	if err := e.commitSchedules(dir, staged, committed); err != nil {
		return err
	}
	for _, evt := range created {
		e.emit(evt.Event())
	}
	return nil
}

// commitSchedules applies staged schedule writes and the updated committed
// total. If a write fails mid-apply, the already-applied entries are restored
// so the store never exposes a partially applied batch.
func (e *Engine) commitSchedules(dir Direction, staged []*stagedSchedule, committed *big.Int) error {
	for i, entry := range staged {
		if err := e.state.SchedulePut(entry.account, dir, entry.sched); err != nil {
			e.rollbackSchedules(dir, staged[:i])
			return err
		}
	}
	if err := e.state.SetCommittedTotal(committed); err != nil {
		e.rollbackSchedules(dir, staged)
		return err
	}
	return nil
}

func (e *Engine) rollbackSchedules(dir Direction, applied []*stagedSchedule) {
	for _, entry := range applied {
		_ = e.state.SchedulePut(entry.account, dir, entry.prior)
	}
}

type stagedClaim struct {
	dir   Direction
	sched *Schedule
	prior *Schedule
}

// Claim pays out every newly unlocked amount across the caller's six
// directions in a single transfer. Ledger mutations complete before the
// outbound transfer; a transfer failure rolls the staged writes back so the
// call has no effect.
func (e *Engine) Claim(caller [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if e.token == nil {
		return nil, errNilToken
	}
	start, err := e.state.VestingStart()
	if err != nil {
		return nil, err
	}
	if start == 0 {
		// No schedule can exist before the clock starts.
		return nil, ErrClaimAmountIsZero
	}
	now := e.now()
	elapsed := now - start

	total := big.NewInt(0)
	staged := make([]*stagedClaim, 0, directionCount)
	claims := make([]Claimed, 0, directionCount)
	for _, dir := range Directions() {
		stored, err := e.state.ScheduleGet(caller, dir)
		if err != nil {
			return nil, err
		}
		stored = ensureSchedule(stored)
		unlocked := Unlocked(stored, dir, elapsed)
		if unlocked.Sign() == 0 {
			continue
		}
		next := stored.Clone()
		next.ClaimedAmount.Add(next.ClaimedAmount, unlocked)
		staged = append(staged, &stagedClaim{dir: dir, sched: next, prior: stored})
		claims = append(claims, Claimed{
			Account:   caller,
			Amount:    unlocked,
			CreatedAt: now,
			Direction: dir,
		})
		total.Add(total, unlocked)
	}
	if total.Sign() == 0 {
		return nil, ErrClaimAmountIsZero
	}

	priorCommitted, err := e.state.CommittedTotal()
	if err != nil {
		return nil, err
	}
	committed := new(big.Int).Sub(priorCommitted, total)
	if committed.Sign() < 0 {
		return nil, fmt.Errorf("vesting: committed total underflow")
	}
	for i, entry := range staged {
		if err := e.state.SchedulePut(caller, entry.dir, entry.sched); err != nil {
			e.rollbackClaims(caller, staged[:i], nil)
			return nil, err
		}
	}
	if err := e.state.SetCommittedTotal(committed); err != nil {
		e.rollbackClaims(caller, staged, nil)
		return nil, err
	}
	if err := e.token.Transfer(e.vault, caller, total); err != nil {
		e.rollbackClaims(caller, staged, priorCommitted)
		return nil, fmt.Errorf("vesting: claim transfer: %w", err)
	}
	for _, evt := range claims {
		e.emit(evt.Event())
	}
	return total, nil
}

func (e *Engine) rollbackClaims(caller [20]byte, applied []*stagedClaim, priorCommitted *big.Int) {
	for _, entry := range applied {
		_ = e.state.SchedulePut(caller, entry.dir, entry.prior)
	}
	if priorCommitted != nil {
		_ = e.state.SetCommittedTotal(priorCommitted)
	}
}

// Rescue moves a foreign token out of the vault. The vesting token itself can
// never leave through this path, which keeps committed funds safe.
func (e *Engine) Rescue(caller [20]byte, token [20]byte, to [20]byte, amount *big.Int) error {
	if e == nil {
		return errNilState
	}
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	if token == ([20]byte{}) {
		return ErrZeroAddress
	}
	if e.token != nil && token == e.token.Address() {
		return ErrForbiddenWithdrawal
	}
	if e.rescueFn == nil {
		return errNilRescue
	}
	if err := e.rescueFn(token, to, amount); err != nil {
		return err
	}
	e.emit(Rescued{Token: token, To: to, Amount: amount}.Event())
	return nil
}
