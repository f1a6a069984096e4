package stats

import (
	"math"

	"github.com/zintix-labs/nslab/errs"
	"gonum.org/v1/gonum/stat/distuv"
)

// 信賴區間
type CI struct {
	Lo float64 `json:"Lo" yaml:"lo"`
	Hi float64 `json:"Hi" yaml:"hi"`
}

// Fidelity 抽樣分布忠實度報告
//
// 紀錄時只累積整數次數；Done() 一次性計算頻率、卡方統計量與 p-value。
type Fidelity struct {
	Summary  *FidelitySummary `json:"Summary" yaml:"summary"`
	Outcomes []OutcomeStat    `json:"Outcomes" yaml:"outcomes"`
	isDone   bool
}

// FidelitySummary 整體檢定結果
type FidelitySummary struct {
	Name        string  `json:"Name" yaml:"name"`
	RunID       string  `json:"RunID,omitempty" yaml:"run_id,omitempty"`
	Backend     string  `json:"Backend,omitempty" yaml:"backend,omitempty"`
	Draws       int     `json:"Draws" yaml:"draws"`
	Support     int     `json:"Support" yaml:"support"` // 權重 > 0 的結果數
	ChiSquare   float64 `json:"ChiSquare" yaml:"chi_square"`
	DF          int     `json:"DF" yaml:"df"`
	PValue      float64 `json:"PValue" yaml:"p_value"`
	MaxAbsDev   float64 `json:"MaxAbsDev" yaml:"max_abs_dev"`
	MaxDevIndex int     `json:"MaxDevIndex" yaml:"max_dev_index"`
	OutsideCI   int     `json:"OutsideCI" yaml:"outside_ci"` // 期望機率落在 95% CI 外的結果數
	ZeroHits    int     `json:"ZeroHits" yaml:"zero_hits"`   // 權重為 0 卻被抽到的次數
}

// OutcomeStat 單一結果的觀測與期望
type OutcomeStat struct {
	Index    int     `json:"Index" yaml:"index"`
	Label    string  `json:"Label,omitempty" yaml:"label,omitempty"`
	Expected float64 `json:"Expected" yaml:"expected"`
	Count    int     `json:"Count" yaml:"count"`
	Observed float64 `json:"Observed" yaml:"observed"`
	CI       CI      `json:"CI" yaml:"ci"`
}

// NewFidelity 以期望機率（會自動正規化）與觀測次數建立報告。
func NewFidelity(name string, expected []float64, counts []int) (*Fidelity, error) {
	if len(expected) == 0 || len(expected) != len(counts) {
		return nil, errs.DimensionMismatchf("expected has %d outcomes, counts has %d", len(expected), len(counts))
	}
	total := 0.0
	for i, p := range expected {
		if p < 0 || math.IsNaN(p) || math.IsInf(p, 0) {
			return nil, errs.InvalidInputf("expected[%d] = %v is not a valid weight", i, p)
		}
		total += p
	}
	if total <= 0 {
		return nil, errs.InvalidInputf("expected weights sum to zero")
	}
	draws := 0
	for i, c := range counts {
		if c < 0 {
			return nil, errs.InvalidInputf("count[%d] = %d is negative", i, c)
		}
		draws += c
	}
	f := &Fidelity{
		Summary:  &FidelitySummary{Name: name, Draws: draws},
		Outcomes: make([]OutcomeStat, len(expected)),
	}
	for i := range expected {
		f.Outcomes[i] = OutcomeStat{Index: i, Expected: expected[i] / total, Count: counts[i]}
	}
	return f, nil
}

// SetLabels 為每個結果標上名稱（例如詞彙），長度不符時忽略。
func (f *Fidelity) SetLabels(labels []string) {
	if len(labels) != len(f.Outcomes) {
		return
	}
	for i := range f.Outcomes {
		f.Outcomes[i].Label = labels[i]
	}
}

// ============================================================
// ** 公開方法 **
// ============================================================

// Done 計算所有衍生統計並鎖定 isDone 標記。
func (f *Fidelity) Done() {
	if f.isDone {
		return
	}
	s := f.Summary
	n := float64(s.Draws)
	s.ChiSquare, s.DF, s.Support, s.ZeroHits = 0, -1, 0, 0
	s.MaxAbsDev, s.MaxDevIndex, s.OutsideCI = 0, -1, 0

	for i := range f.Outcomes {
		o := &f.Outcomes[i]
		if n > 0 {
			o.Observed = float64(o.Count) / n
		}
		_, o.CI = proportionCICP(o.Count, s.Draws, 0.95)
		if o.Expected == 0 {
			s.ZeroHits += o.Count
			continue
		}
		s.Support++
		s.DF++
		if n > 0 {
			exp := n * o.Expected
			d := float64(o.Count) - exp
			s.ChiSquare += d * d / exp
		}
		if dev := math.Abs(o.Observed - o.Expected); dev > s.MaxAbsDev || s.MaxDevIndex < 0 {
			s.MaxAbsDev, s.MaxDevIndex = dev, i
		}
		if o.Expected < o.CI.Lo || o.Expected > o.CI.Hi {
			s.OutsideCI++
		}
	}

	switch {
	case s.ZeroHits > 0:
		s.PValue = 0
	case s.DF < 1 || n == 0:
		s.PValue = 1
	default:
		s.PValue = distuv.ChiSquared{K: float64(s.DF)}.Survival(s.ChiSquare)
	}
	if s.DF < 0 {
		s.DF = 0
	}
	f.isDone = true
}

// Pass 回傳 p-value 是否不小於 alpha
func (f *Fidelity) Pass(alpha float64) bool {
	f.Done()
	return f.Summary.PValue >= alpha
}

// Top 回傳期望機率最高的前 n 個結果（穩定排序，原順序為 tie-break）
func (f *Fidelity) Top(n int) []OutcomeStat {
	f.Done()
	out := append([]OutcomeStat(nil), f.Outcomes...)
	sortByExpected(out)
	if n >= 0 && n < len(out) {
		out = out[:n]
	}
	return out
}

// ============================================================
// ** 內部統計函數 **
// ============================================================

// Clopper–Pearson exact CI for binomial proportion (k successes out of n)
func proportionCICP(k int, n int, confidence float64) (pHat float64, ci CI) {
	if n == 0 {
		return 0, CI{0, 1}
	}
	alpha := 1 - confidence
	pHat = float64(k) / float64(n)

	// Beta PPF 映射，處理邊界
	if k == 0 {
		ci.Lo = 0
	} else {
		b := distuv.Beta{Alpha: float64(k), Beta: float64(n - k + 1)}
		ci.Lo = b.Quantile(alpha / 2)
	}
	if k == n {
		ci.Hi = 1
	} else {
		b := distuv.Beta{Alpha: float64(k + 1), Beta: float64(n - k)}
		ci.Hi = b.Quantile(1 - alpha/2)
	}
	return
}
