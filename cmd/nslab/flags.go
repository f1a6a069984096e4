package main

import (
	"github.com/urfave/cli/v3"
	"github.com/zintix-labs/nslab/sdk/perf"
)

var (
	configPath string
	labName    string
	logMode    string
	pprofMode  string
	pprofDir   string
	format     string
	seed       int64
	workers    int
)

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "lab config file (.yaml/.yml/.json) or a directory of them; empty uses the embedded demo labs",
			Destination: &configPath,
		},
		&cli.StringFlag{
			Name:        "lab",
			Aliases:     []string{"l"},
			Usage:       "lab name; may be omitted when the config holds a single lab",
			Destination: &labName,
		},
		&cli.StringFlag{
			Name:        "log-mode",
			Usage:       "log mode (dev, prod, silence)",
			Value:       "dev",
			Destination: &logMode,
		},
		&cli.StringFlag{
			Name:        "pprof",
			Aliases:     []string{"p"},
			Usage:       "profile the command (cpu, heap, allocs)",
			Destination: &pprofMode,
		},
		&cli.StringFlag{
			Name:        "pprof-dir",
			Usage:       "directory for pprof output",
			Value:       perf.DefaultDir,
			Destination: &pprofDir,
		},
	}
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:        "format",
		Aliases:     []string{"f"},
		Usage:       "output format (table, yaml, json)",
		Value:       "table",
		Destination: &format,
	}
}

// seedFlag：< 0 表示由 crypto/rand 產生
func seedFlag() cli.Flag {
	return &cli.Int64Flag{
		Name:        "seed",
		Usage:       "seed for the run; negative picks a random one",
		Value:       -1,
		Destination: &seed,
	}
}

func workersFlag(def int) cli.Flag {
	return &cli.IntFlag{
		Name:        "workers",
		Aliases:     []string{"w"},
		Usage:       "number of workers",
		Value:       def,
		Destination: &workers,
	}
}
