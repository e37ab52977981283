package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/thrasher-corp/tradecore/config"
	"github.com/thrasher-corp/tradecore/engine"
	"github.com/thrasher-corp/tradecore/log"
	"github.com/urfave/cli/v2"
)

var (
	configPath string
	live       bool
	force      bool
)

var errConfigExists = errors.New("config file already exists")

var configFlag = &cli.StringFlag{
	Name:        "config",
	Aliases:     []string{"c"},
	Usage:       "the config file to load (json, yaml or toml)",
	Destination: &configPath,
}

var runCommand = &cli.Command{
	Name:  "run",
	Usage: "runs a backtest, or a live session with --live, until the data ends or an interrupt is received",
	Flags: []cli.Flag{
		configFlag,
		&cli.BoolFlag{
			Name:        "live",
			Usage:       "overrides the config and trades against the live clock",
			Destination: &live,
		},
	},
	Action: run,
}

var validateCommand = &cli.Command{
	Name:   "validate",
	Usage:  "loads and checks a config file without running it",
	Flags:  []cli.Flag{configFlag},
	Action: validate,
}

var initCommand = &cli.Command{
	Name:      "init",
	Usage:     "writes the default config to a file",
	ArgsUsage: "<path>",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:        "force",
			Usage:       "overwrites an existing file",
			Destination: &force,
		},
	},
	Action: writeDefault,
}

func run(c *cli.Context) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if c.IsSet("live") {
		cfg.Live = live
	}
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return engine.Run(ctx, cfg)
}

func validate(_ *cli.Context) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log.Infof(log.ConfigMgr, "%s is valid: %d assets, %d strategies, %s feed",
		cfg.Name, len(cfg.Assets), len(cfg.Strategies), cfg.Feed.Type)
	return nil
}

func writeDefault(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return cli.ShowSubcommandHelp(c)
	}
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%w: %s", errConfigExists, path)
	}
	return config.Default().SaveConfigToFile(path)
}

func main() {
	app := cli.NewApp()
	app.Name = "tradecore"
	app.Usage = "event driven backtesting and live trading core"
	app.EnableBashCompletion = true
	app.Commands = []*cli.Command{
		runCommand,
		validateCommand,
		initCommand,
	}
	if err := app.RunContext(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
