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

package nn

import (
	"math"

	"github.com/zintix-labs/nslab/errs"
	"github.com/zintix-labs/nslab/sdk/sampler"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Reduce 決定損失輸出形式
type Reduce string

const (
	ReduceSum Reduce = "sum" // 整個 batch 加總成純量
	ReduceNo  Reduce = "no"  // 逐樣本回傳長度 B 的向量
)

// ParseReduce 解析字串；只接受 "sum" 與 "no"。
func ParseReduce(s string) (Reduce, error) {
	r := Reduce(s)
	if err := r.Valid(); err != nil {
		return "", err
	}
	return r, nil
}

// Valid 檢查 reduce 是否為已知值
func (r Reduce) Valid() error {
	switch r {
	case ReduceSum, ReduceNo:
		return nil
	default:
		return errs.InvalidArgumentf("only 'sum' and 'no' are valid for 'reduce', but '%s' is given", string(r))
	}
}

// Result 是一次 Evaluate 的輸出。
//
//   - Reduce == ReduceSum：Value 為總和，PerExample 為 nil。
//   - Reduce == ReduceNo：PerExample 長度為 B，Value 仍填入其總和方便記錄。
type Result struct {
	Reduce     Reduce    `json:"reduce" yaml:"reduce"`
	Value      float64   `json:"value" yaml:"value"`
	PerExample []float64 `json:"per_example,omitempty" yaml:"per_example,omitempty"`
}

// Loss 是 negative sampling 損失的純函式版本，不抽樣也不持有狀態。
//
//	loss_i = softplus(-x_i·W[t_i]) + Σ_j softplus(x_i·W[negatives[i][j]])
//
// 其中 softplus(z) = log(1 + exp(z))，以數值穩定的形式計算。
// negatives 的列數必須等於 batch 大小，元素必須落在 [0, vocab)。
func Loss(x mat.Matrix, t []int, w mat.Matrix, negatives *sampler.Grid, reduce Reduce) (*Result, error) {
	if err := reduce.Valid(); err != nil {
		return nil, err
	}
	b, err := checkShapes(x, t, w)
	if err != nil {
		return nil, err
	}
	if negatives == nil {
		return nil, errs.InvalidArgumentf("negatives must not be nil")
	}
	if negatives.Rows != b {
		return nil, errs.DimensionMismatchf("negatives has %d rows, batch size is %d", negatives.Rows, b)
	}
	if len(negatives.Data) != negatives.Rows*negatives.Cols {
		return nil, errs.DimensionMismatchf("negatives data length %d does not match %dx%d", len(negatives.Data), negatives.Rows, negatives.Cols)
	}
	vocab, _ := w.Dims()
	for i, n := range negatives.Data {
		if n < 0 || n >= vocab {
			return nil, errs.InvalidArgumentf("negative sample %d = %d out of range [0, %d)", i, n, vocab)
		}
	}

	_, d := x.Dims()
	xr := make([]float64, d)
	wr := make([]float64, d)
	per := make([]float64, b)
	for i := 0; i < b; i++ {
		row(x, i, xr)
		row(w, t[i], wr)
		l := softplus(-floats.Dot(xr, wr))
		for _, n := range negatives.Row(i) {
			row(w, n, wr)
			l += softplus(floats.Dot(xr, wr))
		}
		per[i] = l
	}

	res := &Result{Reduce: reduce, Value: floats.Sum(per)}
	if reduce == ReduceNo {
		res.PerExample = per
	}
	return res, nil
}

// checkShapes 驗證 x (B × D)、t (B)、w (V × D) 的形狀與標籤範圍，回傳 B。
func checkShapes(x mat.Matrix, t []int, w mat.Matrix) (int, error) {
	if x == nil || w == nil {
		return 0, errs.InvalidArgumentf("x and W must not be nil")
	}
	b, d := x.Dims()
	vocab, inSize := w.Dims()
	if d != inSize {
		return 0, errs.DimensionMismatchf("x has %d columns, W expects in_size %d", d, inSize)
	}
	if len(t) != b {
		return 0, errs.DimensionMismatchf("t has length %d, x has %d rows", len(t), b)
	}
	for i, label := range t {
		if label < 0 || label >= vocab {
			return 0, errs.InvalidArgumentf("label t[%d] = %d out of range [0, %d)", i, label, vocab)
		}
	}
	return b, nil
}

// row 把第 i 列複製到 dst；RawRowViewer 走快速路徑。
func row(m mat.Matrix, i int, dst []float64) {
	if rv, ok := m.(mat.RawRowViewer); ok {
		copy(dst, rv.RawRowView(i))
		return
	}
	for j := range dst {
		dst[j] = m.At(i, j)
	}
}

// softplus 計算 log(1 + exp(z))，|z| 很大時不溢位
func softplus(z float64) float64 {
	if z > 0 {
		return z + math.Log1p(math.Exp(-z))
	}
	return math.Log1p(math.Exp(z))
}
