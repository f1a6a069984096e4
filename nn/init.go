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
	"github.com/zintix-labs/nslab/sdk/core"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Initializer 就地填入權重矩陣
type Initializer func(w *mat.Dense)

// Zeros 全部填 0（Dense 預設即為 0，這裡只是讓意圖明確）
func Zeros() Initializer {
	return func(w *mat.Dense) { w.Zero() }
}

// Constant 全部填 v
func Constant(v float64) Initializer {
	return func(w *mat.Dense) {
		r, c := w.Dims()
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				w.Set(i, j, v)
			}
		}
	}
}

// Uniform 從 U(-scale, scale) 抽樣
func Uniform(c *core.Core, scale float64) Initializer {
	return fill(distuv.Uniform{Min: -scale, Max: scale, Src: c})
}

// Normal 從 N(0, std²) 抽樣
func Normal(c *core.Core, std float64) Initializer {
	return fill(distuv.Normal{Mu: 0, Sigma: std, Src: c})
}

type randomer interface{ Rand() float64 }

func fill(d randomer) Initializer {
	return func(w *mat.Dense) {
		r, c := w.Dims()
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				w.Set(i, j, d.Rand())
			}
		}
	}
}
