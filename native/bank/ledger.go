package bank

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/rlp"

	"tokenvest/core/events"
	"tokenvest/core/types"
	"tokenvest/storage"
)

var (
	ErrAlreadyGenerated    = errors.New("bank: supply already generated")
	ErrNotGenerated        = errors.New("bank: supply not generated")
	ErrInvalidAmount       = errors.New("bank: amount must be positive")
	ErrInsufficientBalance = errors.New("bank: insufficient balance")
)

const (
	balanceKeyFormat = "bank/%s/balance/%s"
	supplyKeyFormat  = "bank/%s/supply"

	// EventTypeSupplyGenerated records the one-time mint of the full fixed
	// supply into the vault.
	EventTypeSupplyGenerated = "token.supplyGenerated"
)

type storedBalance struct {
	Balance []byte
}

// Ledger tracks balances of a single fixed-supply token. The entire supply is
// minted exactly once via Generate; afterwards only transfers move it.
type Ledger struct {
	db      storage.Database
	symbol  string
	addr    [20]byte
	emitter events.Emitter
	mu      sync.RWMutex
}

// NewLedger constructs a token ledger persisted in the supplied key-value
// store. The address identifies this token when foreign tokens are rescued.
func NewLedger(db storage.Database, symbol string, addr [20]byte) *Ledger {
	return &Ledger{db: db, symbol: symbol, addr: addr, emitter: events.NoopEmitter{}}
}

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (l *Ledger) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		l.emitter = events.NoopEmitter{}
		return
	}
	l.emitter = emitter
}

// Address returns the identity of this token.
func (l *Ledger) Address() [20]byte { return l.addr }

// Symbol returns the token symbol.
func (l *Ledger) Symbol() string { return l.symbol }

func (l *Ledger) balanceKey(account [20]byte) []byte {
	return []byte(fmt.Sprintf(balanceKeyFormat, l.symbol, hex.EncodeToString(account[:])))
}

func (l *Ledger) supplyKey() []byte {
	return []byte(fmt.Sprintf(supplyKeyFormat, l.symbol))
}

func (l *Ledger) loadBalance(account [20]byte) (*big.Int, error) {
	data, err := l.db.Get(l.balanceKey(account))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return big.NewInt(0), nil
	}
	if err != nil {
		return nil, fmt.Errorf("bank: read balance: %w", err)
	}
	var stored storedBalance
	if err := rlp.DecodeBytes(data, &stored); err != nil {
		return nil, fmt.Errorf("bank: decode balance: %w", err)
	}
	return new(big.Int).SetBytes(stored.Balance), nil
}

func (l *Ledger) storeBalance(account [20]byte, balance *big.Int) error {
	encoded, err := rlp.EncodeToBytes(storedBalance{Balance: balance.Bytes()})
	if err != nil {
		return err
	}
	return l.db.Put(l.balanceKey(account), encoded)
}

// TotalSupply returns the generated supply, zero before the generation event.
func (l *Ledger) TotalSupply() (*big.Int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	data, err := l.db.Get(l.supplyKey())
	if errors.Is(err, storage.ErrKeyNotFound) {
		return big.NewInt(0), nil
	}
	if err != nil {
		return nil, fmt.Errorf("bank: read supply: %w", err)
	}
	var stored storedBalance
	if err := rlp.DecodeBytes(data, &stored); err != nil {
		return nil, fmt.Errorf("bank: decode supply: %w", err)
	}
	return new(big.Int).SetBytes(stored.Balance), nil
}

// Generated reports whether the generation event has already happened.
func (l *Ledger) Generated() (bool, error) {
	supply, err := l.TotalSupply()
	if err != nil {
		return false, err
	}
	return supply.Sign() > 0, nil
}

// Generate mints the entire fixed supply to the recipient. The operation can
// succeed at most once over the lifetime of the ledger.
func (l *Ledger) Generate(recipient [20]byte, supply *big.Int) error {
	if supply == nil || supply.Sign() <= 0 {
		return ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	_, err := l.db.Get(l.supplyKey())
	if err == nil {
		return ErrAlreadyGenerated
	}
	if !errors.Is(err, storage.ErrKeyNotFound) {
		return fmt.Errorf("bank: read supply: %w", err)
	}
	encoded, err := rlp.EncodeToBytes(storedBalance{Balance: supply.Bytes()})
	if err != nil {
		return err
	}
	if err := l.db.Put(l.supplyKey(), encoded); err != nil {
		return err
	}
	if err := l.storeBalance(recipient, new(big.Int).Set(supply)); err != nil {
		return err
	}
	l.emitter.Emit(SupplyGenerated{Recipient: recipient, Supply: new(big.Int).Set(supply), Symbol: l.symbol})
	return nil
}

// BalanceOf returns the balance of the account, zero when unknown.
func (l *Ledger) BalanceOf(account [20]byte) (*big.Int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loadBalance(account)
}

// Transfer moves amount from one account to another.
func (l *Ledger) Transfer(from, to [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fromBalance, err := l.loadBalance(from)
	if err != nil {
		return err
	}
	if fromBalance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	toBalance, err := l.loadBalance(to)
	if err != nil {
		return err
	}
	if err := l.storeBalance(from, new(big.Int).Sub(fromBalance, amount)); err != nil {
		return err
	}
	if err := l.storeBalance(to, new(big.Int).Add(toBalance, amount)); err != nil {
		// Restore the debited side so balances stay consistent.
		_ = l.storeBalance(from, fromBalance)
		return err
	}
	return nil
}

// SupplyGenerated captures the one-time generation event.
type SupplyGenerated struct {
	Recipient [20]byte
	Supply    *big.Int
	Symbol    string
}

func (SupplyGenerated) EventType() string { return EventTypeSupplyGenerated }

func (e SupplyGenerated) Event() *types.Event {
	supply := "0"
	if e.Supply != nil {
		supply = e.Supply.String()
	}
	return &types.Event{
		Type: EventTypeSupplyGenerated,
		Attributes: map[string]string{
			"recipient": hex.EncodeToString(e.Recipient[:]),
			"supply":    supply,
			"symbol":    e.Symbol,
		},
	}
}
