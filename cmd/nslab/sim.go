package main

import (
	"context"
	"os"
	"time"

	"github.com/urfave/cli/v3"
	"github.com/zintix-labs/nslab"
	"github.com/zintix-labs/nslab/corefmt"
	"github.com/zintix-labs/nslab/errs"
	"github.com/zintix-labs/nslab/stats"
)

// 狀態檔只存一顆 Core，上限給寬一點
const maxStateBytes = 1 << 16

func simCmd() *cli.Command {
	var (
		draws     int
		alpha     float64
		loadState string
		saveState string
		noPB      bool
	)
	return &cli.Command{
		Name:  "sim",
		Usage: "draw from a lab's alias table and report the distribution fidelity",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:        "draws",
				Aliases:     []string{"n"},
				Usage:       "draws per worker",
				Value:       1_000_000,
				Destination: &draws,
			},
			&cli.FloatFlag{
				Name:        "alpha",
				Usage:       "significance level of the chi-square test",
				Value:       0.01,
				Destination: &alpha,
			},
			&cli.StringFlag{
				Name:        "load-state",
				Usage:       "restore the PRNG from a state file before drawing (single worker only)",
				Destination: &loadState,
			},
			&cli.StringFlag{
				Name:        "save-state",
				Usage:       "write the PRNG state after drawing (single worker only)",
				Destination: &saveState,
			},
			&cli.BoolFlag{
				Name:        "no-pb",
				Usage:       "hide the progress bar",
				Destination: &noPB,
			},
			seedFlag(),
			workersFlag(1),
			formatFlag(),
		},
		Action: profiled(func(ctx context.Context, cmd *cli.Command) error {
			if workers < 1 {
				return errs.InvalidArgumentf("workers must be > 0, got %d", workers)
			}
			if workers > 1 && (loadState != "" || saveState != "") {
				return errs.InvalidArgumentf("--load-state / --save-state need a single worker")
			}
			if alpha <= 0 || alpha >= 1 {
				return errs.InvalidArgumentf("alpha must be in (0,1), got %v", alpha)
			}
			lab, err := loadLab()
			if err != nil {
				return err
			}
			s, err := resolveSeed(seed)
			if err != nil {
				return err
			}
			sim := lab.NewSimulatorWithSeed(s)
			if loadState != "" {
				if err := restoreState(sim, loadState); err != nil {
					return err
				}
			}

			if format == "table" {
				printer.Fprintf(os.Stderr, "%s[LAB:%s] [SEED:%d] [WORKERS:%d] [DRAWS:%d]%s\n",
					green, lab.Name(), s, workers, workers*draws, reset)
			}
			f, used, err := runSim(sim, draws, workers, !noPB)
			if err != nil {
				return err
			}
			if saveState != "" {
				if err := storeState(sim, saveState); err != nil {
					return err
				}
			}

			r, err := stats.RenderByName(format, used)
			if err != nil {
				return err
			}
			if err := f.WriteWith(os.Stdout, r); err != nil {
				return err
			}
			if format == "table" {
				verdict := "PASS"
				if !f.Pass(alpha) {
					verdict = "FAIL"
				}
				printer.Printf("fidelity at alpha=%v: %s\n", alpha, verdict)
			}
			return nil
		}),
	}
}

func runSim(sim *nslab.Simulator, draws, mp int, showpb bool) (*stats.Fidelity, time.Duration, error) {
	if mp == 1 {
		return sim.Sim(draws, showpb)
	}
	return sim.SimMP(draws, mp, showpb)
}

func restoreState(sim *nslab.Simulator, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errs.Wrap(err, "open state file")
	}
	defer f.Close()
	b, err := corefmt.ReadBlobFrame(f, maxStateBytes)
	if err != nil {
		return err
	}
	if err := sim.Core().Restore(b); err != nil {
		return errs.Wrap(err, "restore state")
	}
	return nil
}

func storeState(sim *nslab.Simulator, path string) error {
	b, err := sim.Core().Snapshot()
	if err != nil {
		return errs.Wrap(err, "snapshot state")
	}
	f, err := os.Create(path)
	if err != nil {
		return errs.Wrap(err, "create state file")
	}
	if err := corefmt.WriteBlobFrame(f, b); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
