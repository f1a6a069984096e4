package main

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"github.com/mattn/go-runewidth"
	"github.com/urfave/cli/v3"
	"github.com/zintix-labs/nslab/corpus"
	"github.com/zintix-labs/nslab/errs"
	"gopkg.in/yaml.v3"
)

// vocabReport 是 vocab 子命令的輸出
type vocabReport struct {
	Source string             `json:"source" yaml:"source"`
	Size   int                `json:"size" yaml:"size"`
	Tokens int                `json:"tokens" yaml:"tokens"`
	Top    []corpus.WordCount `json:"top" yaml:"top"`
}

func vocabCmd() *cli.Command {
	var (
		minCount int
		top      int
	)
	return &cli.Command{
		Name:      "vocab",
		Usage:     "count a corpus (plain, gzip or zstd) and list the most frequent words",
		ArgsUsage: "<corpus-file>",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:        "min-count",
				Usage:       "drop words seen fewer times",
				Value:       1,
				Destination: &minCount,
			},
			&cli.IntFlag{
				Name:        "top",
				Usage:       "number of words to list (negative lists all)",
				Value:       20,
				Destination: &top,
			},
			formatFlag(),
		},
		Action: profiled(func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.Args().First()
			if path == "" {
				return errs.InvalidArgumentf("corpus file is required")
			}
			rc, err := corpus.Open(path)
			if err != nil {
				return err
			}
			defer rc.Close()
			v, err := corpus.BuildVocab(rc, minCount)
			if err != nil {
				return err
			}
			rep := vocabReport{Source: path, Size: v.Len(), Tokens: v.Total(), Top: v.Top(top)}
			return writeVocab(os.Stdout, rep, format)
		}),
	}
}

func writeVocab(w io.Writer, rep vocabReport, format string) error {
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

	// 詞可能含全形字，以顯示寬度對齊
	width := runewidth.StringWidth("word")
	for _, wc := range rep.Top {
		width = max(width, runewidth.StringWidth(wc.Word))
	}
	printer.Fprintf(w, "%s  vocab=%d  tokens=%d\n", rep.Source, rep.Size, rep.Tokens)
	printer.Fprintf(w, "%4s  %s  %12s  %8s\n", "#", runewidth.FillRight("word", width), "count", "share")
	for i, wc := range rep.Top {
		share := 0.0
		if rep.Tokens > 0 {
			share = float64(wc.Count) / float64(rep.Tokens)
		}
		printer.Fprintf(w, "%4d  %s  %12d  %7.3f%%\n", i, runewidth.FillRight(wc.Word, width), wc.Count, 100*share)
	}
	return nil
}
