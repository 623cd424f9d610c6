// Package postgres owns pgx connection pooling for module repositories.
package postgres

import (
	"context"
	"fmt"

	"github.com/Cleverse/go-utilities/utils"
	"github.com/cockroachdb/errors"
	"github.com/gatepass-network/boxoffice/pkg/logger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	pgxslog "github.com/mcosta74/pgx-slog"
)

const (
	DefaultMaxConns = 16
	DefaultMinConns = 0
	DefaultLogLevel = tracelog.LogLevelError
)

type Config struct {
	Host     string `env:"HOST"`     // Default is 127.0.0.1
	Port     string `env:"PORT"`     // Default is 5432
	User     string `env:"USER"`     // Default is empty
	Password string `env:"PASSWORD"` // Default is empty
	DBName   string `env:"DBNAME"`   // Default is postgres
	SSLMode  string `env:"SSLMODE"`  // Default is prefer

	// URL takes precedence over the individual fields when set.
	URL string `env:"URL"`

	MaxConns int32 `env:"MAX_CONNS"`
	MinConns int32 `env:"MIN_CONNS"`

	// Debug raises the query tracer to trace level.
	Debug bool `env:"DEBUG"`
}

// NewPool opens a pgxpool connection pool and verifies it with a ping.
// Queries are traced into the process logger via pgx-slog.
func NewPool(ctx context.Context, conf Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(conf.String())
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse config to create a new connection pool")
	}
	poolConfig.MaxConns = utils.Default(conf.MaxConns, DefaultMaxConns)
	poolConfig.MinConns = utils.Default(conf.MinConns, DefaultMinConns)
	poolConfig.ConnConfig.Tracer = conf.queryTracer()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create a new connection pool")
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, errors.Wrap(err, "failed to connect to the database")
	}
	return pool, nil
}

// String renders the connection string, in URL format when URL is set and
// DSN format otherwise.
func (conf Config) String() string {
	if conf.URL != "" {
		return conf.URL
	}
	host := utils.Default(conf.Host, "127.0.0.1")
	port := utils.Default(conf.Port, "5432")
	sslMode := utils.Default(conf.SSLMode, "prefer")
	dbName := utils.Default(conf.DBName, "postgres")

	connString := fmt.Sprintf("host=%s dbname=%s port=%s sslmode=%s", host, dbName, port, sslMode)
	if conf.User != "" {
		connString = fmt.Sprintf("%s user=%s", connString, conf.User)
	}
	if conf.Password != "" {
		connString = fmt.Sprintf("%s password=%s", connString, conf.Password)
	}
	return connString
}

func (conf Config) queryTracer() pgx.QueryTracer {
	logLevel := DefaultLogLevel
	if conf.Debug {
		logLevel = tracelog.LogLevelTrace
	}
	return &tracelog.TraceLog{
		Logger:   pgxslog.NewLogger(logger.With("package", "postgres")),
		LogLevel: logLevel,
	}
}
