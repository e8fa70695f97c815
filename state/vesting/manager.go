package vesting

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/rlp"

	"tokenvest/native/vesting"
	"tokenvest/storage"
)

const (
	scheduleKeyFormat = "vesting/schedule/%s/%d"
	startKey          = "vesting/start"
	committedKey      = "vesting/committed"
)

// Manager persists vesting schedules, the committed total and the start
// timestamp in a key-value store. It is the engine's state backend; every
// read returns a deep copy so engine staging never aliases stored records.
type Manager struct {
	db storage.Database
	mu sync.RWMutex
}

// NewManager constructs a vesting state manager backed by the supplied
// key-value store.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

type storedSchedule struct {
	CliffSeconds   uint64
	VestingSeconds uint64
	TotalAmount    []byte
	ClaimedAmount  []byte
}

func scheduleKey(account [20]byte, dir vesting.Direction) []byte {
	return []byte(fmt.Sprintf(scheduleKeyFormat, hex.EncodeToString(account[:]), dir))
}

// ScheduleGet loads the schedule for the account and direction. A missing
// record decodes as the zero schedule.
func (m *Manager) ScheduleGet(account [20]byte, dir vesting.Direction) (*vesting.Schedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, err := m.db.Get(scheduleKey(account, dir))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return &vesting.Schedule{TotalAmount: big.NewInt(0), ClaimedAmount: big.NewInt(0)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("vesting state: read schedule: %w", err)
	}
	var stored storedSchedule
	if err := rlp.DecodeBytes(data, &stored); err != nil {
		return nil, fmt.Errorf("vesting state: decode schedule: %w", err)
	}
	return &vesting.Schedule{
		CliffSeconds:   stored.CliffSeconds,
		VestingSeconds: stored.VestingSeconds,
		TotalAmount:    new(big.Int).SetBytes(stored.TotalAmount),
		ClaimedAmount:  new(big.Int).SetBytes(stored.ClaimedAmount),
	}, nil
}

// SchedulePut stores the schedule for the account and direction.
func (m *Manager) SchedulePut(account [20]byte, dir vesting.Direction, s *vesting.Schedule) error {
	if s == nil {
		return errors.New("vesting state: nil schedule")
	}
	if s.TotalAmount != nil && s.TotalAmount.Sign() < 0 {
		return errors.New("vesting state: negative total amount")
	}
	if s.ClaimedAmount != nil && s.ClaimedAmount.Sign() < 0 {
		return errors.New("vesting state: negative claimed amount")
	}
	stored := storedSchedule{
		CliffSeconds:   s.CliffSeconds,
		VestingSeconds: s.VestingSeconds,
	}
	if s.TotalAmount != nil {
		stored.TotalAmount = s.TotalAmount.Bytes()
	}
	if s.ClaimedAmount != nil {
		stored.ClaimedAmount = s.ClaimedAmount.Bytes()
	}
	encoded, err := rlp.EncodeToBytes(stored)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.db.Put(scheduleKey(account, dir), encoded)
}

// VestingStart returns the global start timestamp, zero when unset.
func (m *Manager) VestingStart() (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, err := m.db.Get([]byte(startKey))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("vesting state: read start: %w", err)
	}
	var stored uint64
	if err := rlp.DecodeBytes(data, &stored); err != nil {
		return 0, fmt.Errorf("vesting state: decode start: %w", err)
	}
	return int64(stored), nil
}

// SetVestingStart stores the start timestamp.
func (m *Manager) SetVestingStart(ts int64) error {
	if ts < 0 {
		return errors.New("vesting state: negative start timestamp")
	}
	encoded, err := rlp.EncodeToBytes(uint64(ts))
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.db.Put([]byte(startKey), encoded)
}

// CommittedTotal returns the stored committed total, zero when unset.
func (m *Manager) CommittedTotal() (*big.Int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, err := m.db.Get([]byte(committedKey))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return big.NewInt(0), nil
	}
	if err != nil {
		return nil, fmt.Errorf("vesting state: read committed total: %w", err)
	}
	var stored []byte
	if err := rlp.DecodeBytes(data, &stored); err != nil {
		return nil, fmt.Errorf("vesting state: decode committed total: %w", err)
	}
	return new(big.Int).SetBytes(stored), nil
}

// SetCommittedTotal stores the committed total.
func (m *Manager) SetCommittedTotal(total *big.Int) error {
	if total == nil || total.Sign() < 0 {
		return errors.New("vesting state: committed total must be non-negative")
	}
	encoded, err := rlp.EncodeToBytes(total.Bytes())
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.db.Put([]byte(committedKey), encoded)
}
