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

import "github.com/zintix-labs/nslab/errs"

// Grid 是 rows × cols 的整數網格，row-major 存放於單一切片。
// 在 negative sampling 中每一列對應一個訓練樣本的負例。
type Grid struct {
	Rows int
	Cols int
	Data []int
}

// NewGrid 配置一個全零網格。維度不可為負。
func NewGrid(rows, cols int) (*Grid, error) {
	if rows < 0 || cols < 0 {
		return nil, errs.InvalidArgumentf("grid shape must be non-negative, got %dx%d", rows, cols)
	}
	return &Grid{Rows: rows, Cols: cols, Data: make([]int, rows*cols)}, nil
}

// At 回傳 (r, c) 的值
func (g *Grid) At(r, c int) int {
	return g.Data[r*g.Cols+c]
}

// Row 回傳第 r 列（共用底層陣列，不複製）
func (g *Grid) Row(r int) []int {
	return g.Data[r*g.Cols : (r+1)*g.Cols]
}
