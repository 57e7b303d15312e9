package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is the runtime configuration for the seatswap service.
type Config struct {
	ListenAddress     string  `toml:"ListenAddress"`
	Environment       string  `toml:"Environment"`
	DatabaseURL       string  `toml:"DatabaseURL"`
	SQLitePath        string  `toml:"SQLitePath"`
	JWTSecretEnv      string  `toml:"JWTSecretEnv"`
	OwnerAddress      string  `toml:"OwnerAddress"`
	PlatformAddress   string  `toml:"PlatformAddress"`
	Deposit           int64   `toml:"Deposit"`
	PlatformFeePct    uint32  `toml:"PlatformFeePercent"`
	PerTicketFee      uint64  `toml:"PerTicketFee"`
	DisputeFeePct     uint32  `toml:"DisputeFeePercent"`
	RequestsPerMinute float64 `toml:"RequestsPerMinute"`
	RateBurst         int     `toml:"RateBurst"`
	LogFile           string  `toml:"LogFile"`
	LogMaxSizeMB      int     `toml:"LogMaxSizeMB"`
	LogMaxBackups     int     `toml:"LogMaxBackups"`
	LogMaxAgeDays     int     `toml:"LogMaxAgeDays"`

	Genesis []GenesisAccount `toml:"Genesis"`
}

// GenesisAccount seeds the in-process ledger with an opening balance.
type GenesisAccount struct {
	Address string `toml:"Address"`
	Balance int64  `toml:"Balance"`
}

// Load reads the configuration from the given path and applies defaults. A
// missing file yields the default configuration.
func Load(path string) (*Config, error) {
	cfg := defaults()
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, cfg); err != nil {
				return nil, fmt.Errorf("config: decode %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, err
		}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		ListenAddress:     ":8080",
		Environment:       "dev",
		SQLitePath:        "seatswap.db",
		JWTSecretEnv:      "SEATSWAP_JWT_SECRET",
		Deposit:           5_000,
		PlatformFeePct:    3,
		PerTicketFee:      125,
		DisputeFeePct:     30,
		RequestsPerMinute: 600,
		RateBurst:         30,
		LogMaxSizeMB:      64,
		LogMaxBackups:     5,
		LogMaxAgeDays:     14,
	}
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.ListenAddress) == "" {
		return fmt.Errorf("config: ListenAddress is required")
	}
	if c.Deposit <= 0 {
		return fmt.Errorf("config: Deposit must be positive")
	}
	if c.PlatformFeePct > 100 || c.DisputeFeePct > 100 {
		return fmt.Errorf("config: fee percentages must not exceed 100")
	}
	if strings.TrimSpace(c.OwnerAddress) != "" {
		if _, err := ParseAddress(c.OwnerAddress); err != nil {
			return fmt.Errorf("config: OwnerAddress: %w", err)
		}
	}
	if strings.TrimSpace(c.PlatformAddress) != "" {
		if _, err := ParseAddress(c.PlatformAddress); err != nil {
			return fmt.Errorf("config: PlatformAddress: %w", err)
		}
	}
	for _, acct := range c.Genesis {
		if _, err := ParseAddress(acct.Address); err != nil {
			return fmt.Errorf("config: Genesis: %w", err)
		}
		if acct.Balance <= 0 {
			return fmt.Errorf("config: Genesis balance for %s must be positive", acct.Address)
		}
	}
	return nil
}

// JWTSecret resolves the signing secret from the configured environment
// variable.
func (c *Config) JWTSecret() ([]byte, error) {
	name := strings.TrimSpace(c.JWTSecretEnv)
	if name == "" {
		return nil, fmt.Errorf("config: JWTSecretEnv is required")
	}
	secret := os.Getenv(name)
	if secret == "" {
		return nil, fmt.Errorf("config: environment variable %s is empty", name)
	}
	return []byte(secret), nil
}

// ParseAddress decodes a 20-byte hex account address, with or without an 0x
// prefix.
func ParseAddress(raw string) ([20]byte, error) {
	var addr [20]byte
	trimmed := strings.TrimPrefix(strings.TrimSpace(raw), "0x")
	decoded, err := hex.DecodeString(trimmed)
	if err != nil {
		return addr, fmt.Errorf("invalid address %q: %w", raw, err)
	}
	if len(decoded) != 20 {
		return addr, fmt.Errorf("invalid address %q: want 20 bytes, got %d", raw, len(decoded))
	}
	copy(addr[:], decoded)
	return addr, nil
}
