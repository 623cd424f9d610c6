package config

import (
	"github.com/gatepass-network/boxoffice/common"
	"github.com/gatepass-network/boxoffice/internal/postgres"
)

type Config struct {
	Database    string          `mapstructure:"database"` // Storage backend for ticketing state: `postgres` | `memory`
	Postgres    postgres.Config `mapstructure:"postgres"`
	APIHandlers []string        `mapstructure:"api_handlers"` // API handlers to mount. E.g. `["http"]`

	// OperatorAddress may submit deposit and sweep_treasury operations.
	OperatorAddress common.Address `mapstructure:"operator_address"`

	// RegistrationFee is charged per register_event, in µGP.
	RegistrationFee uint64 `mapstructure:"registration_fee"`
}
