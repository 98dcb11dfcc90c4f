package config

import (
	"strings"
	"time"

	"studycircle-backend/pkg/env"
)

// Config holds all environment-driven settings
type Config struct {
	Env      string
	HTTPPort int

	DBHost    string
	DBPort    string
	DBUser    string
	DBName    string
	DBSSLMode string

	CassandraHosts    []string
	CassandraKeyspace string
	CassandraUser     string
	CassandraPassword string

	RedisHost     string
	RedisPort     int
	RedisPassword string
	RedisDB       int
	RedisPoolSize int
	RedisTimeout  time.Duration

	ReminderCallWindow     time.Duration
	ReminderDeadlineWindow time.Duration
}

// Load reads configuration from the environment with development
// defaults. Secrets also resolve through the _FILE convention.
func Load() *Config {
	return &Config{
		Env:      env.GetString("ENV", "development"),
		HTTPPort: env.GetInt("HTTP_PORT", 8080),

		DBHost:    env.GetString("DB_HOST", "localhost"),
		DBPort:    env.GetString("DB_PORT", "26257"),
		DBUser:    env.GetString("DB_USER", "root"),
		DBName:    env.GetString("DB_NAME", "studycircle"),
		DBSSLMode: env.GetString("DB_SSLMODE", "disable"),

		CassandraHosts:    strings.Split(env.GetString("CASSANDRA_HOSTS", "localhost"), ","),
		CassandraKeyspace: env.GetString("CASSANDRA_KEYSPACE", "studycircle"),
		CassandraUser:     env.GetString("CASSANDRA_USER", ""),
		CassandraPassword: env.GetStringFromFile("CASSANDRA_PASSWORD", ""),

		RedisHost:     env.GetString("REDIS_HOST", "localhost"),
		RedisPort:     env.GetInt("REDIS_PORT", 6379),
		RedisPassword: env.GetStringFromFile("REDIS_PASSWORD", ""),
		RedisDB:       env.GetInt("REDIS_DB", 0),
		RedisPoolSize: env.GetInt("REDIS_POOL_SIZE", 10),
		RedisTimeout:  env.GetDuration("REDIS_TIMEOUT", 3*time.Second),

		ReminderCallWindow:     env.GetDuration("REMINDER_CALL_WINDOW", 10*time.Minute),
		ReminderDeadlineWindow: env.GetDuration("REMINDER_DEADLINE_WINDOW", 24*time.Hour),
	}
}

// DBConnectionString builds the CockroachDB connection string
func (c *Config) DBConnectionString() string {
	return "host=" + c.DBHost + " port=" + c.DBPort + " user=" + c.DBUser +
		" dbname=" + c.DBName + " sslmode=" + c.DBSSLMode
}
