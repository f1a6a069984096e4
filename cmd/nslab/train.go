package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"
	"github.com/zintix-labs/nslab"
	"github.com/zintix-labs/nslab/errs"
	"github.com/zintix-labs/nslab/stats"
	"github.com/zintix-labs/nslab/trainer"
	"gopkg.in/yaml.v3"
)

// trainReport 是 train 子命令的輸出
type trainReport struct {
	Lab        string             `json:"lab" yaml:"lab"`
	Iterations int                `json:"iterations" yaml:"iterations"`
	Epochs     int                `json:"epochs" yaml:"epochs"`
	LastLoss   float64            `json:"last_loss" yaml:"last_loss"`
	ElapsedSec float64            `json:"elapsed_sec" yaml:"elapsed_sec"`
	Logs       []trainer.LogEntry `json:"logs,omitempty" yaml:"logs,omitempty"`
	Summary    *stats.LossSummary `json:"summary,omitempty" yaml:"summary,omitempty"`
}

func trainCmd() *cli.Command {
	var (
		snapshotDir string
		resume      string
		noPB        bool
	)
	return &cli.Command{
		Name:  "train",
		Usage: "run the training harness: evaluate the loss per batch and fire the configured extensions",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "snapshot-dir",
				Usage:       "directory for snapshots (enables train.snapshot)",
				Destination: &snapshotDir,
			},
			&cli.StringFlag{
				Name:        "resume",
				Usage:       "load W and the PRNG state from a snapshot before training",
				Destination: &resume,
			},
			&cli.BoolFlag{
				Name:        "no-pb",
				Usage:       "hide the progress bar",
				Destination: &noPB,
			},
			formatFlag(),
		},
		Action: profiled(func(ctx context.Context, cmd *cli.Command) error {
			log, flush, err := newLogger()
			if err != nil {
				return err
			}
			defer flush()

			lab, err := loadLab()
			if err != nil {
				return err
			}
			if resume != "" {
				snap, err := trainer.LoadSnapshot(resume)
				if err != nil {
					return err
				}
				if err := snap.Apply(lab.Loss(), lab.RNG()); err != nil {
					return err
				}
				log.Info("resumed", slog.String("from", resume), slog.Int("iteration", snap.Iteration))
			}

			t, rep, err := lab.NewTrainer(nslab.TrainerOptions{
				Logger:      log,
				ShowPB:      !noPB,
				SnapshotDir: snapshotDir,
			})
			if err != nil {
				return err
			}
			if err := t.Run(ctx); err != nil {
				return err
			}

			c := t.Updater().Counters()
			out := trainReport{
				Lab:        lab.Name(),
				Iterations: c.Iteration,
				Epochs:     c.Epoch,
				LastLoss:   t.Updater().LastLoss(),
				ElapsedSec: t.Elapsed().Seconds(),
			}
			if rep != nil {
				out.Logs = rep.Entries()
				means := make([]float64, len(out.Logs))
				for i, e := range out.Logs {
					means[i] = e.MeanLoss
				}
				if len(means) > 0 {
					if out.Summary, err = stats.NewLossSummary(means); err != nil {
						return err
					}
				}
			}
			return writeTrain(os.Stdout, out, format)
		}),
	}
}

func writeTrain(w io.Writer, rep trainReport, format string) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(rep)
	case "", "table":
	default:
		return errs.InvalidArgumentf("unknown format %q (expected table, yaml or json)", format)
	}

	printer.Fprintf(w, "%s[LAB:%s] iterations=%d epochs=%d last_loss=%.6f elapsed=%.2fs%s\n",
		green, rep.Lab, rep.Iterations, rep.Epochs, rep.LastLoss, rep.ElapsedSec, reset)
	if len(rep.Logs) == 0 {
		return nil
	}
	printer.Fprintf(w, "%10s  %6s  %6s  %12s  %12s\n", "iteration", "epoch", "steps", "mean_loss", "std_loss")
	for _, e := range rep.Logs {
		printer.Fprintf(w, "%10d  %6d  %6d  %12.6f  %12.6f\n", e.Iteration, e.Epoch, e.Steps, e.MeanLoss, e.StdLoss)
	}
	if s := rep.Summary; s != nil {
		printer.Fprintf(w, "mean of logged losses %.6f (95%% CI %.6f .. %.6f)\n", s.Mean, s.MeanCI.Lo, s.MeanCI.Hi)
	}
	return nil
}
