package vesting

import (
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"tokenvest/native/vesting"
	"tokenvest/storage"
)

func testAddr(fill byte) [20]byte {
	var addr [20]byte
	for i := range addr {
		addr[i] = fill
	}
	return addr
}

func TestScheduleRoundTrip(t *testing.T) {
	manager := NewManager(storage.NewMemDB())
	account := testAddr(0x01)

	missing, err := manager.ScheduleGet(account, vesting.DirectionTeam)
	require.NoError(t, err)
	require.False(t, missing.Exists())

	cliff, duration := vesting.DirectionTeam.Terms()
	stored := &vesting.Schedule{
		CliffSeconds:   cliff,
		VestingSeconds: duration,
		TotalAmount:    big.NewInt(12345),
		ClaimedAmount:  big.NewInt(45),
	}
	require.NoError(t, manager.SchedulePut(account, vesting.DirectionTeam, stored))

	loaded, err := manager.ScheduleGet(account, vesting.DirectionTeam)
	require.NoError(t, err)
	require.Equal(t, cliff, loaded.CliffSeconds)
	require.Equal(t, duration, loaded.VestingSeconds)
	require.Zero(t, loaded.TotalAmount.Cmp(big.NewInt(12345)))
	require.Zero(t, loaded.ClaimedAmount.Cmp(big.NewInt(45)))

	// Directions are isolated per account.
	other, err := manager.ScheduleGet(account, vesting.DirectionStaking)
	require.NoError(t, err)
	require.False(t, other.Exists())
}

func TestScheduleGetReturnsCopy(t *testing.T) {
	manager := NewManager(storage.NewMemDB())
	account := testAddr(0x01)
	require.NoError(t, manager.SchedulePut(account, vesting.DirectionPublicRound, &vesting.Schedule{
		TotalAmount:   big.NewInt(100),
		ClaimedAmount: big.NewInt(0),
	}))

	loaded, err := manager.ScheduleGet(account, vesting.DirectionPublicRound)
	require.NoError(t, err)
	loaded.TotalAmount.SetInt64(999)

	fresh, err := manager.ScheduleGet(account, vesting.DirectionPublicRound)
	require.NoError(t, err)
	require.Zero(t, fresh.TotalAmount.Cmp(big.NewInt(100)))
}

func TestSchedulePutRejectsInvalid(t *testing.T) {
	manager := NewManager(storage.NewMemDB())
	account := testAddr(0x01)
	require.Error(t, manager.SchedulePut(account, vesting.DirectionTeam, nil))
	require.Error(t, manager.SchedulePut(account, vesting.DirectionTeam, &vesting.Schedule{
		TotalAmount: big.NewInt(-1),
	}))
}

func TestVestingStartRoundTrip(t *testing.T) {
	manager := NewManager(storage.NewMemDB())

	start, err := manager.VestingStart()
	require.NoError(t, err)
	require.Zero(t, start)

	require.NoError(t, manager.SetVestingStart(1_700_000_000))
	start, err = manager.VestingStart()
	require.NoError(t, err)
	require.Equal(t, int64(1_700_000_000), start)

	require.Error(t, manager.SetVestingStart(-1))
}

func TestCommittedTotalRoundTrip(t *testing.T) {
	manager := NewManager(storage.NewMemDB())

	total, err := manager.CommittedTotal()
	require.NoError(t, err)
	require.Zero(t, total.Sign())

	require.NoError(t, manager.SetCommittedTotal(big.NewInt(987654321)))
	total, err = manager.CommittedTotal()
	require.NoError(t, err)
	require.Zero(t, total.Cmp(big.NewInt(987654321)))

	require.Error(t, manager.SetCommittedTotal(nil))
	require.Error(t, manager.SetCommittedTotal(big.NewInt(-5)))
}

type faultyDB struct {
	*storage.MemDB
	readErr error
}

func (db *faultyDB) Get(key []byte) ([]byte, error) {
	if db.readErr != nil {
		return nil, db.readErr
	}
	return db.MemDB.Get(key)
}

func TestReadsPropagateStorageErrors(t *testing.T) {
	// Only an absent key reads as a zero value; real storage failures must
	// surface instead of silently zeroing ledger state.
	readErr := errors.New("disk gone")
	manager := NewManager(&faultyDB{MemDB: storage.NewMemDB(), readErr: readErr})

	_, err := manager.ScheduleGet(testAddr(0x01), vesting.DirectionTeam)
	require.ErrorIs(t, err, readErr)

	_, err = manager.VestingStart()
	require.ErrorIs(t, err, readErr)

	_, err = manager.CommittedTotal()
	require.ErrorIs(t, err, readErr)
}
