package pg

import "time"

type Config struct {
	ConnectionString  string        `env:"DATABASE_URL,required"`                        // ConnectionString is the postgres connection URL.
	MaxOpenConns      int32         `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`            // MaxOpenConns caps the pool size.
	MaxIdleConns      int32         `env:"DB_MAX_IDLE_CONNS" envDefault:"2"`             // MaxIdleConns is the minimum number of idle connections kept open.
	HealthCheckPeriod time.Duration `env:"DB_HEALTHCHECK_PERIOD" envDefault:"1m"`        // HealthCheckPeriod is how often idle connections are checked.
	MaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"10m"`       // MaxConnIdleTime is how long a connection may sit idle before being closed.
	MaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"30m"`        // MaxConnLifetime bounds total connection age.
	RetryAttempts     int           `env:"DB_RETRY_ATTEMPTS" envDefault:"3"`             // RetryAttempts is the number of connection attempts at startup.
	RetryInterval     time.Duration `env:"DB_RETRY_INTERVAL" envDefault:"5s"`            // RetryInterval is the base delay between attempts.
	MigrationsPath    string        `env:"DB_MIGRATIONS_PATH" envDefault:"./migrations"` // MigrationsPath points at the goose migration files.
	MigrationsTable   string        `env:"DB_MIGRATIONS_TABLE" envDefault:"schema_migrations"`
}
