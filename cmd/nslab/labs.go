package main

import (
	"context"
	"os"

	"github.com/mattn/go-runewidth"
	"github.com/urfave/cli/v3"
	"github.com/zintix-labs/nslab"
)

func labsCmd() *cli.Command {
	return &cli.Command{
		Name:  "labs",
		Usage: "list the labs found under --config",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cat, err := loadCatalog(configPath)
			if err != nil {
				return err
			}
			printer.Fprintf(os.Stdout, "%s  %6s  %7s  %6s  %5s  %-8s  %s\n",
				runewidth.FillRight("name", 16), "vocab", "in_size", "k", "power", "backend", "rng")
			for _, e := range cat.All() {
				ls, err := cat.Setting(e.Name)
				if err != nil {
					return err
				}
				src, _ := cat.Source(e.Name)
				lab, err := nslab.Build(ls, src)
				if err != nil {
					return err
				}
				printer.Fprintf(os.Stdout, "%s  %6d  %7d  %6d  %5.2f  %-8s  %s\n",
					runewidth.FillRight(lab.Name(), 16), lab.Table().Len(), ls.Loss.InSize,
					ls.Loss.SampleSize, ls.Sampler.Power, lab.Table().Backend(), ls.RNG)
			}
			return nil
		},
	}
}
