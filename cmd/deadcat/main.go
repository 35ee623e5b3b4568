package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/deadcat-network/deadcat/internal/config"
	"github.com/deadcat-network/deadcat/internal/core/application"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

//nolint:all
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var svc application.Service

func main() {
	app := cli.NewApp()

	app.Version = fmt.Sprintf("%s (%s, %s)", version, commit, date)
	app.Name = "deadcat"
	app.Usage = "prediction market, AMM pool and maker order covenants on Liquid"
	app.Commands = append(
		app.Commands,
		infoCmd,
		marketCmd,
		poolCmd,
		orderCmd,
		broadcastCmd,
	)

	app.Before = func(ctx *cli.Context) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("invalid config: %s", err)
		}
		log.SetLevel(log.Level(cfg.LogLevel))

		svc, err = cfg.AppService()
		if err != nil {
			return fmt.Errorf("error while initializing service: %s", err)
		}
		return nil
	}
	app.After = func(ctx *cli.Context) error {
		if svc != nil {
			svc.Close()
		}
		return nil
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Println(fmt.Errorf("error: %v", err))
		os.Exit(1)
	}
}

func printJSON(resp interface{}) error {
	jsonBytes, err := json.MarshalIndent(resp, "", "\t")
	if err != nil {
		return err
	}

	fmt.Println(string(jsonBytes))
	return nil
}
