// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package trigger

import (
	"errors"
	"testing"

	"github.com/goccy/go-json"
	"github.com/zintix-labs/nslab/errs"
	"gopkg.in/yaml.v3"
)

func TestIterationUnit(t *testing.T) {
	it, err := NewInterval(3, "iteration")
	if err != nil {
		t.Fatal(err)
	}
	var fired []int
	for i := 0; i <= 10; i++ {
		if it.Fire(Counters{Iteration: i}) {
			fired = append(fired, i)
		}
	}
	want := []int{0, 3, 6, 9}
	if len(fired) != len(want) {
		t.Fatalf("fired at %v, want %v", fired, want)
	}
	for i := range want {
		if fired[i] != want[i] {
			t.Fatalf("fired at %v, want %v", fired, want)
		}
	}
}

func TestZeroIntervalNeverFires(t *testing.T) {
	for _, it := range []*Interval{{}, {Period: 0, Unit: UnitIteration}, {Period: -2, Unit: UnitEpoch}, {Period: 3}} {
		for _, c := range []Counters{{}, {Iteration: 3}, {Epoch: 2, IsNewEpoch: true}} {
			if it.Fire(c) {
				t.Fatalf("%+v fired at %+v", *it, c)
			}
		}
	}
}

func TestEpochUnit(t *testing.T) {
	it, err := NewInterval(2, "epoch")
	if err != nil {
		t.Fatal(err)
	}
	cases := []struct {
		c    Counters
		want bool
	}{
		{Counters{Epoch: 2, IsNewEpoch: true}, true},
		{Counters{Epoch: 2, IsNewEpoch: false}, false},
		{Counters{Epoch: 3, IsNewEpoch: true}, false},
		{Counters{Epoch: 4, IsNewEpoch: true, Iteration: 7}, true},
	}
	for i, tc := range cases {
		if got := it.Fire(tc.c); got != tc.want {
			t.Errorf("case %d: Fire(%+v) = %v, want %v", i, tc.c, got, tc.want)
		}
	}
}

func TestPeriodOneIterationAlwaysFires(t *testing.T) {
	it, _ := NewInterval(1, "iteration")
	for i := 0; i < 5; i++ {
		if !it.Fire(Counters{Iteration: i}) {
			t.Fatalf("period 1 must fire at iteration %d", i)
		}
	}
}

func TestNewIntervalErrors(t *testing.T) {
	if _, err := NewInterval(1, "step"); !errors.Is(err, errs.ErrInvalidArgument) {
		t.Fatalf("unknown unit: %v", err)
	}
	if _, err := NewInterval(0, "epoch"); !errors.Is(err, errs.ErrInvalidArgument) {
		t.Fatalf("period 0: %v", err)
	}
	if _, err := NewInterval(-4, "iteration"); !errors.Is(err, errs.ErrInvalidArgument) {
		t.Fatalf("negative period: %v", err)
	}
}

func TestGet(t *testing.T) {
	calls := 0
	custom := Custom(func(c Counters) bool { calls++; return c.Epoch == 7 })
	f, err := Get(custom)
	if err != nil {
		t.Fatal(err)
	}
	if !f(Counters{Epoch: 7}) || f(Counters{Epoch: 1}) || calls != 2 {
		t.Fatalf("custom trigger not returned unchanged")
	}

	flag := false
	f, err = Get(Nullary(func() bool { return flag }))
	if err != nil {
		t.Fatal(err)
	}
	if f(Counters{}) {
		t.Fatalf("nullary should be false")
	}
	flag = true
	if !f(Counters{Iteration: 123}) {
		t.Fatalf("nullary should ignore counters")
	}

	f, err = Get(IntervalSpec{Period: 5, Unit: UnitIteration})
	if err != nil {
		t.Fatal(err)
	}
	if !f(Counters{Iteration: 10}) || f(Counters{Iteration: 11}) {
		t.Fatalf("interval spec fired wrongly")
	}
}

func TestGetErrors(t *testing.T) {
	if _, err := Get(nil); !errors.Is(err, errs.ErrInvalidArgument) {
		t.Fatalf("nil spec: %v", err)
	}
	if _, err := Get(Custom(nil)); !errors.Is(err, errs.ErrInvalidArgument) {
		t.Fatalf("nil custom: %v", err)
	}
	if _, err := Get(IntervalSpec{Period: 1, Unit: "day"}); !errors.Is(err, errs.ErrInvalidArgument) {
		t.Fatalf("bad unit: %v", err)
	}
}

func TestDecodeYAML(t *testing.T) {
	var cfg struct {
		A IntervalSpec `yaml:"a"`
		B IntervalSpec `yaml:"b"`
		C IntervalSpec `yaml:"c"`
	}
	src := "a: \"3 epoch\"\nb: [100, iteration]\nc: {period: 2, unit: epoch}\n"
	if err := yaml.Unmarshal([]byte(src), &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.A != (IntervalSpec{3, UnitEpoch}) || cfg.B != (IntervalSpec{100, UnitIteration}) || cfg.C != (IntervalSpec{2, UnitEpoch}) {
		t.Fatalf("unexpected decode %+v", cfg)
	}

	var bad struct {
		A IntervalSpec `yaml:"a"`
	}
	if err := yaml.Unmarshal([]byte("a: \"3 days\"\n"), &bad); err == nil {
		t.Fatalf("expected error for unknown unit")
	}

	out, err := yaml.Marshal(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if err := yaml.Unmarshal(out, &cfg); err != nil {
		t.Fatalf("re-decode of %q failed: %v", out, err)
	}
}

func TestDecodeJSON(t *testing.T) {
	var cfg struct {
		A IntervalSpec `json:"a"`
		B IntervalSpec `json:"b"`
		C IntervalSpec `json:"c"`
	}
	src := `{"a":"1 iteration","b":[4,"epoch"],"c":{"period":6,"unit":"iteration"}}`
	if err := json.Unmarshal([]byte(src), &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.A != (IntervalSpec{1, UnitIteration}) || cfg.B != (IntervalSpec{4, UnitEpoch}) || cfg.C != (IntervalSpec{6, UnitIteration}) {
		t.Fatalf("unexpected decode %+v", cfg)
	}
	var s IntervalSpec
	if err := json.Unmarshal([]byte(`[1.5,"epoch"]`), &s); err == nil {
		t.Fatalf("expected error for fractional period")
	}
	b, err := json.Marshal(IntervalSpec{2, UnitEpoch})
	if err != nil || string(b) != `"2 epoch"` {
		t.Fatalf("marshal = %s, %v", b, err)
	}
}
