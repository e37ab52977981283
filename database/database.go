package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/thrasher-corp/goose"
	"github.com/thrasher-corp/tradecore/log"
)

// NewInstance returns a disconnected instance for cfg
func NewInstance(cfg *Config) (*Instance, error) {
	i := &Instance{}
	if err := i.SetConfig(cfg); err != nil {
		return nil, err
	}
	return i, nil
}

// SetConfig safely sets the database instance's config
func (i *Instance) SetConfig(cfg *Config) error {
	if i == nil {
		return errNilInstance
	}
	if cfg == nil {
		return errNilConfig
	}
	i.m.Lock()
	i.config = cfg
	i.m.Unlock()
	return nil
}

// SetSQLiteConnection safely sets the instance's connection to use SQLite
func (i *Instance) SetSQLiteConnection(con *sql.DB) {
	i.m.Lock()
	defer i.m.Unlock()
	i.SQL = con
	i.SQL.SetMaxOpenConns(1)
}

// SetPostgresConnection safely sets the instance's connection to use
// Postgres
func (i *Instance) SetPostgresConnection(con *sql.DB) error {
	if err := con.Ping(); err != nil {
		return err
	}
	i.m.Lock()
	defer i.m.Unlock()
	i.SQL = con
	i.SQL.SetMaxOpenConns(2)
	i.SQL.SetMaxIdleConns(1)
	i.SQL.SetConnMaxLifetime(time.Hour)
	return nil
}

// SetConnected safely sets the connected status
func (i *Instance) SetConnected(v bool) {
	i.m.Lock()
	i.connected = v
	i.m.Unlock()
}

// CloseConnection safely disconnects the instance
func (i *Instance) CloseConnection() error {
	i.m.Lock()
	defer i.m.Unlock()
	i.connected = false
	if i.SQL == nil {
		return errNilSQL
	}
	return i.SQL.Close()
}

// IsConnected safely checks the SQL connection status
func (i *Instance) IsConnected() bool {
	i.m.RLock()
	defer i.m.RUnlock()
	return i.connected
}

// GetConfig safely returns a copy of the config
func (i *Instance) GetConfig() *Config {
	i.m.RLock()
	defer i.m.RUnlock()
	if i.config == nil {
		return nil
	}
	cpy := *i.config
	return &cpy
}

// Dialect returns the configured driver name
func (i *Instance) Dialect() string {
	i.m.RLock()
	defer i.m.RUnlock()
	if i.config == nil {
		return ""
	}
	return i.config.Driver
}

// Ping pings the database
func (i *Instance) Ping() error {
	if i == nil {
		return errNilInstance
	}
	i.m.RLock()
	defer i.m.RUnlock()
	if i.SQL == nil {
		return errNilSQL
	}
	return i.SQL.Ping()
}

// GetSQL returns the connection or nil when disconnected
func (i *Instance) GetSQL() *sql.DB {
	if i == nil || !i.IsConnected() {
		return nil
	}
	i.m.RLock()
	defer i.m.RUnlock()
	return i.SQL
}

// Migrate runs a goose command against the connection. An empty command
// applies every pending migration
func (i *Instance) Migrate(command, dir, args string) error {
	db := i.GetSQL()
	if db == nil {
		return ErrDatabaseNotConnected
	}
	if command == "" {
		command = "up"
	}
	if dir == "" {
		dir = MigrationDir
	}
	log.Infof(log.Database, "running migration %q from %s", command, dir)
	if err := goose.Run(command, db, i.Dialect(), dir, args); err != nil {
		return fmt.Errorf("migration %s: %w", command, err)
	}
	return nil
}
