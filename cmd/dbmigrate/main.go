package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/thrasher-corp/tradecore/config"
	"github.com/thrasher-corp/tradecore/database"
	"github.com/thrasher-corp/tradecore/database/drivers/postgres"
	sqlite "github.com/thrasher-corp/tradecore/database/drivers/sqlite3"
	"github.com/thrasher-corp/tradecore/log"
	"github.com/urfave/cli/v2"
)

var (
	configPath   string
	dataDir      string
	migrationDir string
	args         string
)

var errDatabaseDisabled = errors.New("database support is disabled")

// gooseCommands are the migration commands passed through to goose
var gooseCommands = []string{"status", "up", "up-by-one", "up-to", "down", "down-to", "redo", "version"}

func openDBConnection(cfg *database.Config) (*database.Instance, error) {
	switch cfg.Driver {
	case database.DBPostgreSQL:
		return postgres.Connect(cfg)
	case database.DBSQLite3:
		return sqlite.Connect(cfg, dataDir)
	default:
		return nil, fmt.Errorf("%w %q", database.ErrUnsupportedDriver, cfg.Driver)
	}
}

func migrate(c *cli.Context) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if !cfg.Database.Enabled {
		return fmt.Errorf("%w in %q", errDatabaseDisabled, configPath)
	}
	db, err := openDBConnection(&cfg.Database)
	if err != nil {
		return fmt.Errorf("database failed to connect: %w", err)
	}
	defer func() {
		if err := db.CloseConnection(); err != nil {
			log.Errorf(log.Database, "closing database: %v", err)
		}
	}()
	return db.Migrate(c.Command.Name, migrationDir, args)
}

func main() {
	app := cli.NewApp()
	app.Name = "dbmigrate"
	app.Usage = "runs the candle and order table migrations"
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "the config file holding the database settings",
			Destination: &configPath,
		},
		&cli.StringFlag{
			Name:        "datadir",
			Usage:       "the directory relative sqlite database files are opened in",
			Destination: &dataDir,
		},
		&cli.StringFlag{
			Name:        "migrationdir",
			Value:       database.MigrationDir,
			Usage:       "overrides the migration folder",
			Destination: &migrationDir,
		},
		&cli.StringFlag{
			Name:        "args",
			Usage:       "arguments passed to goose, such as the target version of up-to",
			Destination: &args,
		},
	}
	for _, name := range gooseCommands {
		app.Commands = append(app.Commands, &cli.Command{
			Name:   name,
			Usage:  "goose " + name,
			Action: migrate,
		})
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
