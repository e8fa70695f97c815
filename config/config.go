package config

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config carries the daemon settings decoded from the TOML file.
type Config struct {
	ListenAddress string `toml:"ListenAddress"`
	DataDir       string `toml:"DataDir"`
	Env           string `toml:"Env"`
	AdminAddress  string `toml:"AdminAddress"`
	TokenSymbol   string `toml:"TokenSymbol"`
	TokenAddress  string `toml:"TokenAddress"`
	VaultAddress  string `toml:"VaultAddress"`
	TotalSupply   string `toml:"TotalSupply"`
}

const defaultConfig = `# vestd configuration
ListenAddress = ":8645"
DataDir = "./vestd-data"
Env = ""

# Hex-encoded 20-byte addresses. AdminAddress is the only identity allowed to
# start vesting, write schedules and rescue foreign tokens. The full supply is
# generated to VaultAddress on first boot.
AdminAddress = ""
TokenSymbol = "VST"
TokenAddress = ""
VaultAddress = ""

# Fixed supply minted once at first boot, in base units (decimal string).
TotalSupply = "0"
`

// Load reads the configuration from the given path. A missing file is
// populated with a commented default that still requires the operator to fill
// in addresses and supply before Validate passes.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func createDefault(path string) (*Config, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	if err := os.WriteFile(path, []byte(defaultConfig), 0o644); err != nil {
		return nil, err
	}
	cfg := &Config{}
	if _, err := toml.Decode(defaultConfig, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that every field required to run the daemon is present and
// well formed.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ListenAddress) == "" {
		return fmt.Errorf("config: ListenAddress required")
	}
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("config: DataDir required")
	}
	if strings.TrimSpace(c.TokenSymbol) == "" {
		return fmt.Errorf("config: TokenSymbol required")
	}
	if _, err := c.Admin(); err != nil {
		return fmt.Errorf("config: AdminAddress: %w", err)
	}
	if _, err := c.Token(); err != nil {
		return fmt.Errorf("config: TokenAddress: %w", err)
	}
	if _, err := c.Vault(); err != nil {
		return fmt.Errorf("config: VaultAddress: %w", err)
	}
	supply, err := c.Supply()
	if err != nil {
		return fmt.Errorf("config: TotalSupply: %w", err)
	}
	if supply.Sign() <= 0 {
		return fmt.Errorf("config: TotalSupply must be positive")
	}
	return nil
}

// Admin returns the decoded admin address.
func (c *Config) Admin() ([20]byte, error) { return ParseAddress(c.AdminAddress) }

// Token returns the decoded vesting token address.
func (c *Config) Token() ([20]byte, error) { return ParseAddress(c.TokenAddress) }

// Vault returns the decoded vault address.
func (c *Config) Vault() ([20]byte, error) { return ParseAddress(c.VaultAddress) }

// Supply returns the decoded total supply.
func (c *Config) Supply() (*big.Int, error) { return ParseAmount(c.TotalSupply) }

// ParseAddress decodes a hex-encoded 20-byte address, with or without a 0x
// prefix. The zero address is rejected.
func ParseAddress(s string) ([20]byte, error) {
	var addr [20]byte
	trimmed := strings.TrimSpace(s)
	trimmed = strings.TrimPrefix(strings.TrimPrefix(trimmed, "0x"), "0X")
	if len(trimmed) != 40 {
		return addr, fmt.Errorf("address must be 20 bytes (got %d hex chars)", len(trimmed))
	}
	decoded, err := hex.DecodeString(trimmed)
	if err != nil {
		return addr, fmt.Errorf("decode address: %w", err)
	}
	copy(addr[:], decoded)
	if addr == ([20]byte{}) {
		return addr, fmt.Errorf("zero address")
	}
	return addr, nil
}

// ParseAmount decodes a non-negative decimal amount string.
func ParseAmount(s string) (*big.Int, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil, fmt.Errorf("amount required")
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("amount must be non-negative")
	}
	return amount, nil
}
