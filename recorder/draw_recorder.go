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

package recorder

import (
	"fmt"

	"github.com/zintix-labs/nslab/errs"
	"github.com/zintix-labs/nslab/stats"
)

// DrawRecorder 抽樣紀錄員
//
// DrawRecorder 只累積每個結果被抽到的次數，並透過 Done 輸出分布忠實度報表。
// 單一 DrawRecorder 不是並發安全的：平行模擬時每個 worker 各持一個，結束後 Merge。
type DrawRecorder struct {
	Name     string
	Expected []float64 // 期望機率（或未正規化權重）
	Counts   []int
	Draws    int
}

func NewDrawRecorder(name string, expected []float64) (*DrawRecorder, error) {
	if len(expected) == 0 {
		return nil, errs.NewFatal(fmt.Sprintf("draw recorder %s: empty expected distribution", name))
	}
	return &DrawRecorder{
		Name:     name,
		Expected: expected,
		Counts:   make([]int, len(expected)),
	}, nil
}

// Record 紀錄一次抽樣結果
func (r *DrawRecorder) Record(idx int) {
	r.Counts[idx]++
	r.Draws++
}

// RecordAll 紀錄一批抽樣結果
func (r *DrawRecorder) RecordAll(idx []int) {
	for _, v := range idx {
		r.Counts[v]++
	}
	r.Draws += len(idx)
}

// Reset 清空次數，保留期望分布
func (r *DrawRecorder) Reset() {
	clear(r.Counts)
	r.Draws = 0
}

// MergeDrawRecorder 合併多個紀錄員；期望分布長度與名稱必須一致。
func MergeDrawRecorder(rs []*DrawRecorder) (*DrawRecorder, error) {
	if len(rs) == 0 {
		return nil, errs.NewFatal("merge draw record err : nothing to merge")
	}
	r0 := rs[0]
	s, err := NewDrawRecorder(r0.Name, r0.Expected)
	if err != nil {
		return nil, err
	}
	for _, v := range rs {
		if v.Name != r0.Name {
			return nil, errs.NewFatal("merge draw record err : different name")
		}
		if len(v.Counts) != len(s.Counts) {
			return nil, errs.NewFatal("merge draw record err : different outcome count")
		}
		for i, c := range v.Counts {
			s.Counts[i] += c
		}
		s.Draws += v.Draws
	}
	return s, nil
}

// Done 產出忠實度報表（已完成計算）
func (r *DrawRecorder) Done() (*stats.Fidelity, error) {
	f, err := stats.NewFidelity(r.Name, r.Expected, r.Counts)
	if err != nil {
		return nil, err
	}
	f.Done()
	return f, nil
}
