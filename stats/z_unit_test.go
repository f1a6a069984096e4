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

package stats_test

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/zintix-labs/nslab/errs"
	"github.com/zintix-labs/nslab/stats"
	"gopkg.in/yaml.v3"
)

func TestFidelityExactMatch(t *testing.T) {
	f, err := stats.NewFidelity("exact", []float64{1, 2, 1, 0}, []int{250, 500, 250, 0})
	if err != nil {
		t.Fatal(err)
	}
	f.Done()
	s := f.Summary
	if s.Draws != 1000 || s.Support != 3 || s.DF != 2 {
		t.Fatalf("unexpected summary %+v", s)
	}
	if s.ChiSquare != 0 || s.PValue != 1 || s.MaxAbsDev != 0 {
		t.Fatalf("perfect match should give chi2=0 p=1, got %+v", s)
	}
	if s.OutsideCI != 0 || s.ZeroHits != 0 {
		t.Fatalf("unexpected CI misses %+v", s)
	}
	if !f.Pass(0.05) {
		t.Fatalf("should pass")
	}
}

func TestFidelityDetectsSkew(t *testing.T) {
	f, _ := stats.NewFidelity("skew", []float64{1, 1, 2}, []int{2600, 2000, 5400})
	f.Done()
	if f.Summary.PValue > 1e-6 {
		t.Fatalf("p-value too large for skewed counts: %g", f.Summary.PValue)
	}
	if math.Abs(f.Summary.ChiSquare-136) > 1e-9 {
		t.Fatalf("chi-square = %v, want 136", f.Summary.ChiSquare)
	}
	if f.Summary.MaxDevIndex != 1 || math.Abs(f.Summary.MaxAbsDev-0.05) > 1e-12 {
		t.Fatalf("max deviation %+v", f.Summary)
	}
	if f.Summary.OutsideCI != 3 {
		t.Fatalf("all outcomes should miss their CI, got %d", f.Summary.OutsideCI)
	}
}

func TestFidelityZeroWeightHit(t *testing.T) {
	f, _ := stats.NewFidelity("zero", []float64{1, 0}, []int{9, 1})
	if f.Pass(1e-9) {
		t.Fatalf("drawing a zero-weight outcome must fail")
	}
	if f.Summary.ZeroHits != 1 {
		t.Fatalf("zero hits = %d", f.Summary.ZeroHits)
	}
}

func TestFidelityErrors(t *testing.T) {
	if _, err := stats.NewFidelity("x", []float64{1}, []int{1, 2}); !errors.Is(err, errs.ErrDimensionMismatch) {
		t.Fatalf("expected dimension mismatch, got %v", err)
	}
	if _, err := stats.NewFidelity("x", []float64{0, 0}, []int{1, 2}); !errors.Is(err, errs.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if _, err := stats.NewFidelity("x", []float64{1, 1}, []int{1, -2}); !errors.Is(err, errs.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestTopOrdering(t *testing.T) {
	f, _ := stats.NewFidelity("top", []float64{1, 5, 3, 5}, []int{1, 5, 3, 5})
	top := f.Top(3)
	if len(top) != 3 || top[0].Index != 1 || top[1].Index != 3 || top[2].Index != 2 {
		t.Fatalf("unexpected order %+v", top)
	}
}

func TestLossSummary(t *testing.T) {
	ls, err := stats.NewLossSummary([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	if err != nil {
		t.Fatal(err)
	}
	if ls.N != 8 || ls.Mean != 5 || ls.Min != 2 || ls.Max != 9 {
		t.Fatalf("unexpected %+v", ls)
	}
	// 樣本標準差 sqrt(32/7)
	if math.Abs(ls.Std-math.Sqrt(32.0/7)) > 1e-12 {
		t.Fatalf("std = %v", ls.Std)
	}
	if !(ls.MeanCI.Lo < 5 && ls.MeanCI.Hi > 5) {
		t.Fatalf("ci = %+v", ls.MeanCI)
	}

	one, err := stats.NewLossSummary([]float64{3})
	if err != nil || one.Std != 0 || one.MeanCI.Lo != 3 {
		t.Fatalf("single value summary %+v %v", one, err)
	}
	if _, err := stats.NewLossSummary(nil); !errors.Is(err, errs.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if _, err := stats.NewLossSummary([]float64{1, math.NaN()}); !errors.Is(err, errs.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestRenders(t *testing.T) {
	f, _ := stats.NewFidelity("render", []float64{1, 1}, []int{10, 12})
	f.SetLabels([]string{"貓", "dog"})
	f.Summary.RunID = "abc"

	var tb bytes.Buffer
	r, err := stats.RenderByName("table", time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.WriteWith(&tb, r); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(tb.String(), "render") || !strings.Contains(tb.String(), "#0 貓") {
		t.Fatalf("table output missing content:\n%s", tb.String())
	}
	// 每一行表格寬度一致（寬字元以兩格計）
	var widths []int
	for _, line := range strings.Split(tb.String(), "\n") {
		if strings.HasPrefix(line, "|") || strings.HasPrefix(line, "+") {
			widths = append(widths, len([]rune(line))+strings.Count(line, "貓"))
		}
	}
	for _, w := range widths[:len(widths)/2] {
		if w != widths[0] {
			t.Fatalf("misaligned table:\n%s", tb.String())
		}
	}

	var jb bytes.Buffer
	r, _ = stats.RenderByName("json", 0)
	if err := f.WriteWith(&jb, r); err != nil {
		t.Fatal(err)
	}
	var back stats.Fidelity
	if err := json.Unmarshal(jb.Bytes(), &back); err != nil {
		t.Fatal(err)
	}
	if back.Summary.Draws != 22 || len(back.Outcomes) != 2 {
		t.Fatalf("json round trip %+v", back.Summary)
	}

	var yb bytes.Buffer
	r, _ = stats.RenderByName("yaml", 0)
	if err := r.Write(&yb, f); err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := yaml.Unmarshal(yb.Bytes(), &m); err != nil {
		t.Fatal(err)
	}
	if _, ok := m["summary"]; !ok {
		t.Fatalf("yaml output missing summary:\n%s", yb.String())
	}

	if _, err := stats.RenderByName("xml", 0); !errors.Is(err, errs.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}
