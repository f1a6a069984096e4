package main

import (
	"context"
	"time"

	"github.com/urfave/cli/v3"
	"github.com/zintix-labs/nslab"
	"github.com/zintix-labs/nslab/server"
	"github.com/zintix-labs/nslab/server/svrcfg"
)

// serve 是 lab server 入口：--config 下的每個 lab 各有一個 WorkerPool。
func serveCmd() *cli.Command {
	var (
		addr     string
		maxDraws int
		timeout  time.Duration
	)
	return &cli.Command{
		Name:  "serve",
		Usage: "serve the HTTP API (/v1/labs, /v1/table, /v1/sample, /v1/loss, /v1/trigger, /v1/fidelity)",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       ":5808",
				Destination: &addr,
			},
			&cli.IntFlag{
				Name:        "max-draws",
				Usage:       "upper bound of draws per /v1/fidelity request",
				Value:       1_000_000,
				Destination: &maxDraws,
			},
			&cli.DurationFlag{
				Name:        "timeout",
				Usage:       "per-request timeout",
				Value:       5 * time.Second,
				Destination: &timeout,
			},
			workersFlag(3),
			seedFlag(),
		},
		Action: profiled(func(ctx context.Context, cmd *cli.Command) error {
			log, flush, err := newLogger()
			if err != nil {
				return err
			}
			defer flush()

			cat, err := loadCatalog(configPath)
			if err != nil {
				return err
			}
			s, err := resolveSeed(seed)
			if err != nil {
				return err
			}
			rt, err := nslab.NewRuntime(cat, workers, s)
			if err != nil {
				return err
			}
			return server.RunContext(ctx, &svrcfg.SvrCfg{
				Log:      log,
				Addr:     addr,
				Runtime:  rt,
				MaxDraws: maxDraws,
				Timeout:  timeout,
			})
		}),
	}
}
