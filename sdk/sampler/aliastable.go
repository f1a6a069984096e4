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

// Package sampler 提供 negative sampling 使用的加權抽樣演算法。
//
// 本檔案 (aliastable.go) 實作 Walker's Alias Method（Vose 的雙工作列建表法）。
//
// 演算法原理：
//   - 將任意離散分佈轉換為 n 個等寬槽位 (Bucket) 的組合。
//   - 每個槽位只存放「自己」和「別名 (Alias)」兩個選項。
//   - 抽樣時先均勻選槽位，再擲一次 [0,1) 決定是自己還是別名。
//
// 特性：
//   - 建表時間：O(N)，額外空間 O(N)。
//   - 抽樣時間：O(1)，固定兩次亂數。
//   - 建表後唯讀，可被多個 goroutine 同時抽樣（亂數來源需自行同步，見 core.NewLocked）。
//
// 實作細節：
//   - 浮點版本：權重經過 power 次方後必然是浮點數（counts^0.75），無法沿用整數 scaling。
//   - 與 1 相差在 epsilon 以內的 scaled 值一律視為 1，避免浮點殘差造成反覆重分類。
package sampler

import (
	"math"

	"github.com/zintix-labs/nslab/errs"
	"github.com/zintix-labs/nslab/sdk/backend"
	"github.com/zintix-labs/nslab/sdk/core"
)

const epsilon float64 = 1e-12

// Count 是詞頻的型別約束。
type Count interface {
	~int | ~int32 | ~int64 | ~uint | ~uint32 | ~uint64
}

// Weight 是 New 接受的權重型別：詞頻本身，或平滑後的浮點權重。
type Weight interface {
	Count | ~float32 | ~float64
}

// AliasTable 是 Walker's Alias Method 的 O(1) 加權抽樣結構。
//
// 結構欄位說明：
//   - n: 槽位數量，即詞彙量。
//   - kind: 目前落地的後端；決定下列哪一組陣列有效。
//   - prob / alias: CPU 後端，prob[i] ∈ [0,1]，alias[i] ∈ [0,n)。
//   - prob32 / alias32: Compact 後端，同樣語意的緊湊版本。
//
// 建好之後不再修改；To 會回傳新的表。
type AliasTable struct {
	n    int
	kind backend.Kind

	prob  []float64
	alias []int

	prob32  []float32
	alias32 []int32
}

// New 根據輸入權重建立 AliasTable（CPU 後端）。
//
// 權重不需事先正規化；可以有 0（永遠抽不到），但不可以：
//   - 長度為 0
//   - 任何一個為負、NaN 或 Inf
//   - 總和為 0（沒有合法分佈）
//
// 以上皆回傳 errs.ErrInvalidInput。
//
// 演算法流程：
//  1. scaled[i] = w[i] * n / Σw，平均值為 1。
//  2. scaled < 1 進 small，>= 1 進 large。
//  3. 各取一個 s, l：prob[s] = scaled[s]、alias[s] = l，
//     l 把 1-scaled[s] 的機率讓給 s，重新分類 l。
//  4. 直到任一列空；剩下的索引 prob = 1、alias = 自己。
func New[T Weight](weights []T) (*AliasTable, error) {
	n := len(weights)
	if n == 0 {
		return nil, errs.InvalidInputf("alias table: weights must not be empty")
	}

	w := make([]float64, n)
	peak := 0.0
	for i, v := range weights {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, errs.InvalidInputf("alias table: weight[%d] is not finite", i)
		}
		if f < 0 {
			return nil, errs.InvalidInputf("alias table: weight[%d] = %v is negative", i, f)
		}
		w[i] = f
		peak = max(peak, f)
	}
	if peak == 0 {
		return nil, errs.InvalidInputf("alias table: all weights are zero")
	}
	// 先以最大權重縮到 (0,1]，總和最多為 n，不會溢位
	total := 0.0
	for i := range w {
		w[i] /= peak
		total += w[i]
	}

	prob := make([]float64, n)
	alias := make([]int, n)
	scaled := make([]float64, n)
	small := make([]int, 0, n)
	large := make([]int, 0, n)

	fn := float64(n)
	positive := -1
	for i, v := range w {
		if v > 0 && positive < 0 {
			positive = i
		}
		scaled[i] = snap(v / total * fn)
		if scaled[i] < 1 {
			small = append(small, i)
		} else {
			large = append(large, i)
		}
	}

	for len(small) > 0 && len(large) > 0 {
		s := small[len(small)-1]
		small = small[:len(small)-1]
		l := large[len(large)-1]
		large = large[:len(large)-1]

		prob[s] = scaled[s]
		alias[s] = l

		// 等價於 scaled[l] -= 1 - scaled[s]，但先加後減精度較好
		scaled[l] = snap((scaled[l] + scaled[s]) - 1)
		if scaled[l] < 1 {
			small = append(small, l)
		} else {
			large = append(large, l)
		}
	}

	for _, l := range large {
		prob[l] = 1
		alias[l] = l
	}
	for _, s := range small {
		// 浮點殘差留下來的 small；權重為 0 者維持抽不到
		if w[s] == 0 {
			prob[s] = 0
			alias[s] = positive
			continue
		}
		prob[s] = 1
		alias[s] = s
	}

	for i := range prob {
		prob[i] = min(max(prob[i], 0), 1)
	}

	return &AliasTable{n: n, kind: backend.CPU, prob: prob, alias: alias}, nil
}

// snap 把與 1 相差在 epsilon 以內的值視為 1
func snap(v float64) float64 {
	if math.Abs(v-1) <= epsilon {
		return 1
	}
	return v
}

// Len 回傳槽位數量（詞彙量）。
func (at *AliasTable) Len() int { return at.n }

// Backend 回傳目前落地的後端。
func (at *AliasTable) Backend() backend.Kind { return at.kind }

// Pick 從 AliasTable 中抽取一個索引。
//
//  1. c.IntN(n) 均勻選槽位 b。
//  2. c.Float64() 得到 u ∈ [0,1)。
//  3. u < prob[b] 回傳 b，否則回傳 alias[b]。
func (at *AliasTable) Pick(c *core.Core) int {
	b := c.IntN(at.n)
	u := c.Float64()
	switch at.kind {
	case backend.Compact:
		if u < float64(at.prob32[b]) {
			return b
		}
		return int(at.alias32[b])
	default:
		if u < at.prob[b] {
			return b
		}
		return at.alias[b]
	}
}

// SampleInto 以 len(dst) 次獨立抽樣填滿 dst，不做額外配置。
func (at *AliasTable) SampleInto(c *core.Core, dst []int) {
	for i := range dst {
		dst[i] = at.Pick(c)
	}
}

// Sample 回傳 k 次獨立同分佈的抽樣結果。k < 0 回傳 errs.ErrInvalidArgument。
func (at *AliasTable) Sample(c *core.Core, k int) ([]int, error) {
	if k < 0 {
		return nil, errs.InvalidArgumentf("sample count must be >= 0, got %d", k)
	}
	out := make([]int, k)
	at.SampleInto(c, out)
	return out, nil
}

// SampleShape 一次抽出 rows × cols 的網格（row-major）。
// negative sampling 用它替每個訓練樣本各抽 sample_size 個負例。
func (at *AliasTable) SampleShape(c *core.Core, rows, cols int) (*Grid, error) {
	g, err := NewGrid(rows, cols)
	if err != nil {
		return nil, err
	}
	at.SampleInto(c, g.Data)
	return g, nil
}

// Prob 回傳 prob 陣列的複本（以 float64 表示，不論後端）。
func (at *AliasTable) Prob() []float64 {
	out := make([]float64, at.n)
	switch at.kind {
	case backend.Compact:
		for i, p := range at.prob32 {
			out[i] = float64(p)
		}
	default:
		copy(out, at.prob)
	}
	return out
}

// Alias 回傳 alias 陣列的複本。
func (at *AliasTable) Alias() []int {
	out := make([]int, at.n)
	switch at.kind {
	case backend.Compact:
		for i, a := range at.alias32 {
			out[i] = int(a)
		}
	default:
		copy(out, at.alias)
	}
	return out
}

// Distribution 由表反推每個結果的抽中機率：
//
//	p[j] = (prob[j] + Σ_{i: alias[i]=j} (1 - prob[i])) / n
//
// 在精確算術下等於 w[j] / Σw，可用來驗證建表正確性或當作卡方檢定的期望值。
func (at *AliasTable) Distribution() []float64 {
	prob := at.Prob()
	alias := at.Alias()
	out := make([]float64, at.n)
	fn := float64(at.n)
	for i, p := range prob {
		out[i] += p / fn
		out[alias[i]] += (1 - p) / fn
	}
	return out
}

// To 把表落地到指定後端，回傳新的 AliasTable；原表不變。
// 已在目標後端時直接回傳自己（表不可變，共用安全）。
func (at *AliasTable) To(kind backend.Kind) (*AliasTable, error) {
	if !kind.Valid() {
		return nil, errs.InvalidArgumentf("unknown backend kind %d", kind)
	}
	if kind == at.kind {
		return at, nil
	}
	out := &AliasTable{n: at.n, kind: kind}
	switch kind {
	case backend.Compact:
		if at.n > math.MaxInt32 {
			return nil, errs.InvalidArgumentf("compact backend holds at most %d outcomes, got %d", math.MaxInt32, at.n)
		}
		out.prob32 = make([]float32, at.n)
		out.alias32 = make([]int32, at.n)
		for i := range at.n {
			out.prob32[i] = float32(at.prob[i])
			out.alias32[i] = int32(at.alias[i])
		}
	default:
		out.prob = at.Prob()
		out.alias = at.Alias()
	}
	return out, nil
}
