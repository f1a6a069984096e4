package setting

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/zintix-labs/nslab/errs"
	"github.com/zintix-labs/nslab/nn"
	"github.com/zintix-labs/nslab/sdk/backend"
	"github.com/zintix-labs/nslab/trigger"
)

const labYAML = `
name: text8-mini
seed: 42
rng: pcg32
backend: compact
sampler:
  power: 0.5
loss:
  in_size: 32
  sample_size: 3
  reduce: "no"
corpus:
  min_count: 2
  window: 4
train:
  batch_size: 16
  stop: "2 epoch"
  log: [50, iteration]
extra:
  optimizer:
    lr: 0.025
`

func TestYAML(t *testing.T) {
	ls, err := GetLabSettingByYAML([]byte(labYAML))
	if err != nil {
		t.Fatal(err)
	}
	if ls.Name != "text8-mini" || ls.Seed != 42 || ls.RNG != "pcg32" || ls.Backend != backend.Compact {
		t.Fatalf("header fields: %+v", ls)
	}
	if ls.Sampler.Power != 0.5 || ls.Loss.InSize != 32 || ls.Loss.SampleSize != 3 || ls.Loss.Reduce != nn.ReduceNo {
		t.Fatalf("loss fields: %+v %+v", ls.Sampler, ls.Loss)
	}
	if ls.Train.Stop != (trigger.IntervalSpec{Period: 2, Unit: trigger.UnitEpoch}) ||
		ls.Train.Log != (trigger.IntervalSpec{Period: 50, Unit: trigger.UnitIteration}) ||
		!ls.Train.Snapshot.IsZero() {
		t.Fatalf("train fields: %+v", ls.Train)
	}
}

func TestDefaultsApplied(t *testing.T) {
	ls, err := GetLabSettingByYAML([]byte("name: tiny\n"))
	if err != nil {
		t.Fatal(err)
	}
	d := Default()
	if ls.Sampler.Power != d.Sampler.Power || ls.Loss.SampleSize != d.Loss.SampleSize || ls.Train.Stop != d.Train.Stop {
		t.Fatalf("defaults lost: %+v", ls)
	}
}

func TestUnknownFieldRejected(t *testing.T) {
	if _, err := GetLabSettingByYAML([]byte("name: x\nloss:\n  sample_sz: 3\n")); err == nil {
		t.Fatalf("expected strict yaml decode error")
	}
	if _, err := GetLabSettingByJSON([]byte(`{"name":"x","bogus":1}`)); err == nil {
		t.Fatalf("expected strict json decode error")
	}
}

func TestValidation(t *testing.T) {
	cases := map[string]string{
		"reduce":  "name: x\nloss:\n  reduce: avg\n",
		"rng":     "name: x\nrng: mt19937\n",
		"backend": "name: x\nbackend: cuda\n",
		"trigger": "name: x\ntrain:\n  stop: \"3 days\"\n",
		"sample":  "name: x\nloss:\n  sample_size: 0\n",
		"corpus":  "name: x\ncorpus:\n  path: a.txt\n  counts: [1, 2]\n",
	}
	for name, src := range cases {
		_, err := GetLabSettingByYAML([]byte(src))
		if err == nil {
			t.Errorf("%s: expected error", name)
			continue
		}
		if !errors.Is(err, errs.ErrInvalidArgument) {
			t.Errorf("%s: expected invalid argument, got %v", name, err)
		}
	}
}

func TestJSONAndRoundTrip(t *testing.T) {
	src := `{"name":"j","loss":{"in_size":8,"sample_size":2,"reduce":"sum"},"train":{"batch_size":4,"stop":{"period":10,"unit":"iteration"}}}`
	ls, err := GetLabSettingByJSON([]byte(src))
	if err != nil {
		t.Fatal(err)
	}
	if ls.Loss.InSize != 8 || ls.Train.Stop.Period != 10 {
		t.Fatalf("json fields: %+v", ls)
	}
	out, err := ls.ToYAML()
	if err != nil {
		t.Fatal(err)
	}
	back, err := GetLabSettingByYAML(out)
	if err != nil {
		t.Fatalf("re-decode %s: %v", out, err)
	}
	if back.Train != ls.Train || back.Loss != ls.Loss || back.Backend != ls.Backend {
		t.Fatalf("round trip changed setting: %+v vs %+v", back, ls)
	}
}

func TestLoadFS(t *testing.T) {
	fsys := fstest.MapFS{
		"lab.yaml": {Data: []byte(labYAML)},
		"lab.toml": {Data: []byte("name = 'x'")},
	}
	if _, err := LoadFS(fsys, "lab.yaml"); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFS(fsys, "lab.toml"); err == nil {
		t.Fatalf("expected unsupported format error")
	}
	if _, err := LoadFS(fsys, "missing.yaml"); err == nil {
		t.Fatalf("expected read error")
	}
}

func TestDecodeSection(t *testing.T) {
	ls, err := GetLabSettingByYAML([]byte(labYAML))
	if err != nil {
		t.Fatal(err)
	}
	var opt struct {
		LR float64 `yaml:"lr"`
	}
	if err := DecodeSection(ls, "optimizer", &opt); err != nil {
		t.Fatal(err)
	}
	if opt.LR != 0.025 {
		t.Fatalf("lr = %v", opt.LR)
	}
	var strict struct {
		Momentum float64 `yaml:"momentum"`
	}
	if err := DecodeSection(ls, "optimizer", &strict); err == nil {
		t.Fatalf("expected unknown field error")
	}
	if err := DecodeSection(ls, "scheduler", &strict); err == nil {
		t.Fatalf("expected missing section error")
	}
}
