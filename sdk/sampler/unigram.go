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

package sampler

import (
	"math"

	"github.com/zintix-labs/nslab/errs"
)

// DefaultPower 是 word2vec 論文使用的 unigram 平滑指數。
const DefaultPower = 0.75

// PowWeights 將詞頻逐元素取 power 次方：weight[i] = counts[i]^power。
//
// counts[i] == 0 得到 0（合法，代表永遠抽不到），即使 power == 0 也是如此
// （math.Pow(0, 0) == 1 會讓沒出現過的詞被抽到，這不是我們要的）。
// 負的詞頻回傳 errs.ErrInvalidInput；power 必須是有限非負數，否則 errs.ErrInvalidArgument。
func PowWeights[T Count](counts []T, power float64) ([]float64, error) {
	if math.IsNaN(power) || math.IsInf(power, 0) || power < 0 {
		return nil, errs.InvalidArgumentf("power must be a finite non-negative number, got %v", power)
	}
	out := make([]float64, len(counts))
	for i, c := range counts {
		if c < 0 {
			return nil, errs.InvalidInputf("count[%d] = %d is negative", i, int64(c))
		}
		if c == 0 {
			continue
		}
		out[i] = math.Pow(float64(c), power)
	}
	return out, nil
}

// NewUnigram 由詞頻與平滑指數建立 negative sampling 用的 AliasTable。
func NewUnigram[T Count](counts []T, power float64) (*AliasTable, error) {
	w, err := PowWeights(counts, power)
	if err != nil {
		return nil, err
	}
	return New(w)
}
