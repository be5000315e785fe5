// Package config loads the server configuration from the environment.
package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the runtime configuration, populated from STAKEBANK_*
// environment variables.
type Config struct {
	// Port is the HTTP listen port.
	Port int `envconfig:"PORT" default:"8080"`

	// DBPath is the SQLite database file path.
	DBPath string `envconfig:"DB_PATH" default:"./data/stakebank.db"`

	// JWTSecret signs operator session tokens.
	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`

	// TokenDurationHours is how long operator tokens remain valid.
	TokenDurationHours int `envconfig:"TOKEN_DURATION_HOURS" default:"24"`

	// BankAccount holds deposits and pays out refunds, income and reserve.
	BankAccount string `envconfig:"BANK_ACCOUNT" default:"stakebank"`

	// RelayAccount receives outbound transfers for forwarding.
	RelayAccount string `envconfig:"RELAY_ACCOUNT" default:"stakerelay"`

	// ReserveAccount is named in reserve payout memos.
	ReserveAccount string `envconfig:"RESERVE_ACCOUNT" default:"stakereserve"`

	// FundingAccount is the treasury top-up account whose deposits open no
	// lease.
	FundingAccount string `envconfig:"FUNDING_ACCOUNT" default:"stakefunding"`

	// BootstrapOperator and BootstrapPassword create an initial operator
	// account on startup when it does not exist yet. Leave empty to skip.
	BootstrapOperator string `envconfig:"BOOTSTRAP_OPERATOR"`
	BootstrapPassword string `envconfig:"BOOTSTRAP_PASSWORD"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := envconfig.Process("stakebank", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}
