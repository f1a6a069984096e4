package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/zintix-labs/nslab/corpus"
	"github.com/zintix-labs/nslab/errs"
	"github.com/zintix-labs/nslab/trainer"
)

const testLab = `name: Tiny
seed: 5
sampler:
  power: 1
loss:
  in_size: 4
  sample_size: 2
corpus:
  path: tiny.txt
train:
  batch_size: 2
  stop: "1 epoch"
`

func writeLabDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "tiny.yaml"), []byte(testLab), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "tiny.txt"), []byte("a b a c a b\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestLoadCatalog(t *testing.T) {
	demoCat, err := loadCatalog("")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := pickLab(demoCat, ""); !errors.Is(err, errs.ErrInvalidArgument) {
		t.Fatalf("demo has several labs, expected invalid argument, got %v", err)
	}
	if name, err := pickLab(demoCat, "zipf"); err != nil || name != "zipf" {
		t.Fatalf("pick zipf: %q %v", name, err)
	}

	dir := writeLabDir(t)
	for _, path := range []string{dir, filepath.Join(dir, "tiny.yaml")} {
		c, err := loadCatalog(path)
		if err != nil {
			t.Fatalf("%s: %v", path, err)
		}
		if !c.IsFrozen() {
			t.Fatalf("%s: catalog should be frozen", path)
		}
		name, err := pickLab(c, "")
		if err != nil || name != "tiny" {
			t.Fatalf("%s: pick %q %v", path, name, err)
		}
	}

	configPath, labName = filepath.Join(dir, "tiny.yaml"), ""
	t.Cleanup(func() { configPath, labName = "", "" })
	lab, err := loadLab()
	if err != nil {
		t.Fatal(err)
	}
	if lab.Table().Len() != 3 || lab.Labels()[0] != "a" {
		t.Fatalf("lab vocab %v", lab.Labels())
	}

	if _, err := loadCatalog(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatalf("missing config should fail")
	}
}

func TestResolveSeed(t *testing.T) {
	if s, err := resolveSeed(42); err != nil || s != 42 {
		t.Fatalf("seed %d %v", s, err)
	}
	s, err := resolveSeed(-1)
	if err != nil || s < 0 {
		t.Fatalf("random seed %d %v", s, err)
	}
}

func TestStateRoundTrip(t *testing.T) {
	configPath, labName = "", "zipf"
	t.Cleanup(func() { configPath, labName = "", "" })
	lab, err := loadLab()
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "state.bin")

	a := lab.NewSimulatorWithSeed(9)
	if _, _, err := runSim(a, 1000, 1, false); err != nil {
		t.Fatal(err)
	}
	if err := storeState(a, path); err != nil {
		t.Fatal(err)
	}
	want := lab.Table().Pick(a.Core())

	b := lab.NewSimulatorWithSeed(123)
	if err := restoreState(b, path); err != nil {
		t.Fatal(err)
	}
	if got := lab.Table().Pick(b.Core()); got != want {
		t.Fatalf("restored stream differs: %d vs %d", got, want)
	}
}

func TestWriteVocab(t *testing.T) {
	v, err := corpus.BuildVocab(strings.NewReader("貓 dog 貓 cat 貓 dog"), 1)
	if err != nil {
		t.Fatal(err)
	}
	rep := vocabReport{Source: "x", Size: v.Len(), Tokens: v.Total(), Top: v.Top(2)}

	var tb bytes.Buffer
	if err := writeVocab(&tb, rep, "table"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(tb.String(), "貓") || !strings.Contains(tb.String(), "50.000%") {
		t.Fatalf("table:\n%s", tb.String())
	}

	var jb bytes.Buffer
	if err := writeVocab(&jb, rep, "json"); err != nil {
		t.Fatal(err)
	}
	var back vocabReport
	if err := json.Unmarshal(jb.Bytes(), &back); err != nil || back.Size != 3 || len(back.Top) != 2 {
		t.Fatalf("json %s: %v", jb.String(), err)
	}

	if err := writeVocab(&tb, rep, "xml"); !errors.Is(err, errs.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}

func TestWriteTrain(t *testing.T) {
	rep := trainReport{
		Lab:        "tiny",
		Iterations: 6,
		Epochs:     2,
		Logs:       []trainer.LogEntry{{Iteration: 3, Epoch: 1, Steps: 3, MeanLoss: 2}},
	}
	var b bytes.Buffer
	if err := writeTrain(&b, rep, "yaml"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(b.String(), "iterations: 6") {
		t.Fatalf("yaml:\n%s", b.String())
	}
	b.Reset()
	if err := writeTrain(&b, rep, "table"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(b.String(), "mean_loss") {
		t.Fatalf("table:\n%s", b.String())
	}
}
