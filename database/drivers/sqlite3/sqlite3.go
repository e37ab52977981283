package sqlite

import (
	"database/sql"
	"path/filepath"

	// import sqlite3 driver
	_ "github.com/mattn/go-sqlite3"
	"github.com/thrasher-corp/tradecore/database"
)

// Connect opens a connection to the sqlite database file named in cfg,
// relative to dataPath when it is not absolute
func Connect(cfg *database.Config, dataPath string) (*database.Instance, error) {
	if cfg == nil || cfg.Database == "" {
		return nil, database.ErrNoDatabaseProvided
	}
	location := cfg.Database
	if !filepath.IsAbs(location) && location != ":memory:" {
		location = filepath.Join(dataPath, location)
	}
	dbConn, err := sql.Open(database.DBSQLite3, location)
	if err != nil {
		return nil, err
	}
	i, err := database.NewInstance(cfg)
	if err != nil {
		return nil, err
	}
	i.DataPath = dataPath
	i.SetSQLiteConnection(dbConn)
	i.SetConnected(true)
	return i, nil
}
