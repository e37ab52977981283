package database

import (
	"database/sql"
	"errors"
	"sync"
)

// Supported drivers
const (
	DBSQLite3    = "sqlite3"
	DBPostgreSQL = "postgres"
)

// MigrationDir is the default goose migration folder
const MigrationDir = "database/migrations"

var (
	// ErrNoDatabaseProvided is returned when no database name or file is set
	ErrNoDatabaseProvided = errors.New("no database provided")
	// ErrDatabaseNotConnected is returned when a query is attempted without
	// a connection
	ErrDatabaseNotConnected = errors.New("database not connected")
	// ErrUnsupportedDriver is returned for drivers other than sqlite3 and
	// postgres
	ErrUnsupportedDriver = errors.New("unsupported database driver")

	errNilInstance = errors.New("database instance is nil")
	errNilConfig   = errors.New("received nil database config")
	errNilSQL      = errors.New("database SQL connection is nil")
)

// Config holds the database connection settings
type Config struct {
	Enabled     bool   `json:"enabled" mapstructure:"enabled"`
	Verbose     bool   `json:"verbose" mapstructure:"verbose"`
	Driver      string `json:"driver" mapstructure:"driver"`
	AutoMigrate bool   `json:"autoMigrate" mapstructure:"autoMigrate"`
	ConnectionDetails `mapstructure:",squash"`
}

// ConnectionDetails holds DSN information
type ConnectionDetails struct {
	Host     string `json:"host" mapstructure:"host"`
	Port     uint16 `json:"port" mapstructure:"port"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
	Database string `json:"database" mapstructure:"database"`
	SSLMode  string `json:"sslmode" mapstructure:"sslmode"`
}

// Instance holds a database connection and its config
type Instance struct {
	SQL       *sql.DB
	DataPath  string
	config    *Config
	connected bool
	m         sync.RWMutex
}
