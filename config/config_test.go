package config

import (
	"os"
	"path/filepath"
	"testing"
)

const validConfig = `ListenAddress = ":8645"
DataDir = "/tmp/vestd"
AdminAddress = "00000000000000000000000000000000000000ad"
TokenSymbol = "VST"
TokenAddress = "00000000000000000000000000000000000000ee"
VaultAddress = "000000000000000000000000000000000000000f"
TotalSupply = "1000000000"
`

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vestd.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadValidConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	admin, err := cfg.Admin()
	if err != nil {
		t.Fatalf("admin: %v", err)
	}
	if admin[19] != 0xad {
		t.Fatalf("admin address decoded incorrectly: %x", admin)
	}
	supply, err := cfg.Supply()
	if err != nil {
		t.Fatalf("supply: %v", err)
	}
	if supply.Int64() != 1_000_000_000 {
		t.Fatalf("supply %s, want 1000000000", supply)
	}
}

func TestLoadCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vestd.toml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, statErr := os.Stat(path); statErr != nil {
		t.Fatalf("default config not written: %v", statErr)
	}
	// The default leaves addresses blank, so it must not validate as-is.
	if err := cfg.Validate(); err == nil {
		t.Fatal("default config validated without addresses")
	}
}

func TestValidateRejectsMissingFields(t *testing.T) {
	cases := []struct {
		name     string
		mutate   func(*Config)
		expected string
	}{
		{"missing admin", func(c *Config) { c.AdminAddress = "" }, "AdminAddress"},
		{"zero admin", func(c *Config) { c.AdminAddress = "0000000000000000000000000000000000000000" }, "AdminAddress"},
		{"missing supply", func(c *Config) { c.TotalSupply = "" }, "TotalSupply"},
		{"zero supply", func(c *Config) { c.TotalSupply = "0" }, "TotalSupply"},
		{"bad token", func(c *Config) { c.TokenAddress = "xyz" }, "TokenAddress"},
		{"missing listen", func(c *Config) { c.ListenAddress = " " }, "ListenAddress"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, validConfig))
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("validation passed for %s", tc.name)
			}
		})
	}
}

func TestParseAddress(t *testing.T) {
	if _, err := ParseAddress("0x00000000000000000000000000000000000000ad"); err != nil {
		t.Fatalf("0x prefix rejected: %v", err)
	}
	if _, err := ParseAddress("abcd"); err == nil {
		t.Fatal("short address accepted")
	}
	if _, err := ParseAddress("0000000000000000000000000000000000000000"); err == nil {
		t.Fatal("zero address accepted")
	}
}
