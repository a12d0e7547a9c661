package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/Cleverse/go-utilities/utils"
	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	pgxslog "github.com/mcosta74/pgx-slog"
	"github.com/mintvault/series-ledger/pkg/logger"
)

const (
	DefaultMaxConns = 16
	DefaultMinConns = 0
	DefaultLogLevel = tracelog.LogLevelError
)

type Config struct {
	Host     string `mapstructure:"host"`     // Default is 127.0.0.1
	Port     string `mapstructure:"port"`     // Default is 5432
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`  // Default is postgres
	SSLMode  string `mapstructure:"sslmode"` // Default is prefer
	URL      string `mapstructure:"url"`     // When set, takes precedence over the fields above

	MaxConns int32 `mapstructure:"max_conns"` // Default is 16
	MinConns int32 `mapstructure:"min_conns"` // Default is 0

	Debug bool `mapstructure:"debug"` // Trace-level query logging
}

// NewPool opens a pgx connection pool and verifies the connection with a
// ping before returning it.
func NewPool(ctx context.Context, conf Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(conf.String())
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse config to create a new connection pool")
	}
	poolConfig.MaxConns = utils.Default(conf.MaxConns, DefaultMaxConns)
	poolConfig.MinConns = utils.Default(conf.MinConns, DefaultMinConns)
	poolConfig.ConnConfig.Tracer = conf.QueryTracer()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create a new connection pool")
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, errors.Wrap(err, "failed to connect to the database")
	}
	return pool, nil
}

// String returns the connection string, either conf.URL verbatim or a DSN
// assembled from the individual fields.
func (conf Config) String() string {
	if conf.URL != "" {
		return conf.URL
	}

	parts := []string{
		"host=" + utils.Default(conf.Host, "127.0.0.1"),
		"dbname=" + utils.Default(conf.DBName, "postgres"),
		"port=" + utils.Default(conf.Port, "5432"),
		"sslmode=" + utils.Default(conf.SSLMode, "prefer"),
	}
	if conf.User != "" {
		parts = append(parts, "user="+conf.User)
	}
	if conf.Password != "" {
		parts = append(parts, fmt.Sprintf("password=%s", conf.Password))
	}
	return strings.Join(parts, " ")
}

// QueryTracer logs queries through slog, at trace level when Debug is set.
func (conf Config) QueryTracer() pgx.QueryTracer {
	level := DefaultLogLevel
	if conf.Debug {
		level = tracelog.LogLevelTrace
	}
	return &tracelog.TraceLog{
		Logger:   pgxslog.NewLogger(logger.With("package", "postgres")),
		LogLevel: level,
	}
}
