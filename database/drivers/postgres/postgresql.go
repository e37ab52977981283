package postgres

import (
	"database/sql"
	"fmt"

	// import postgres driver
	_ "github.com/lib/pq"
	"github.com/thrasher-corp/tradecore/database"
)

// DSN renders the lib/pq connection string for cfg
func DSN(cfg *database.Config) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.Username,
		cfg.Password,
		cfg.Database,
		sslMode)
}

// Connect opens and pings a postgres connection pool
func Connect(cfg *database.Config) (*database.Instance, error) {
	if cfg == nil || cfg.Database == "" {
		return nil, database.ErrNoDatabaseProvided
	}
	dbConn, err := sql.Open(database.DBPostgreSQL, DSN(cfg))
	if err != nil {
		return nil, err
	}
	i, err := database.NewInstance(cfg)
	if err != nil {
		return nil, err
	}
	if err = i.SetPostgresConnection(dbConn); err != nil {
		return nil, err
	}
	i.SetConnected(true)
	return i, nil
}
