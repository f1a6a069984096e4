package stats

import (
	"cmp"
	"math"
	"slices"

	"github.com/zintix-labs/nslab/errs"
	"gonum.org/v1/gonum/stat"
)

// LossSummary 一串損失值的描述統計
type LossSummary struct {
	N      int     `json:"N" yaml:"n"`
	Mean   float64 `json:"Mean" yaml:"mean"`
	Std    float64 `json:"Std" yaml:"std"`
	Min    float64 `json:"Min" yaml:"min"`
	Median float64 `json:"Median" yaml:"median"`
	Max    float64 `json:"Max" yaml:"max"`
	MeanCI CI      `json:"MeanCI" yaml:"mean_ci"` // 95% 常態近似
}

// NewLossSummary 計算平均、標準差、中位數與平均數的 95% CI。
func NewLossSummary(values []float64) (*LossSummary, error) {
	if len(values) == 0 {
		return nil, errs.InvalidInputf("loss summary needs at least one value")
	}
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, errs.InvalidInputf("loss[%d] = %v is not finite", i, v)
		}
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	ls := &LossSummary{
		N:      len(values),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
	}
	if ls.N == 1 {
		ls.Mean = values[0]
		ls.MeanCI = CI{Lo: ls.Mean, Hi: ls.Mean}
		return ls, nil
	}
	ls.Mean, ls.Std = stat.MeanStdDev(values, nil)
	se := ls.Std / math.Sqrt(float64(ls.N))
	ls.MeanCI = CI{Lo: ls.Mean - 1.96*se, Hi: ls.Mean + 1.96*se}
	return ls, nil
}

func sortByExpected(o []OutcomeStat) {
	slices.SortStableFunc(o, func(a, b OutcomeStat) int {
		return cmp.Compare(b.Expected, a.Expected)
	})
}
