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

package dto

import (
	"github.com/zintix-labs/nslab/nn"
	"github.com/zintix-labs/nslab/stats"
	"github.com/zintix-labs/nslab/trigger"
)

// LabSummary 為 /v1/labs 的單筆輸出
type LabSummary struct {
	Name       string  `json:"name"`
	Vocab      int     `json:"vocab"`
	InSize     int     `json:"in_size"`
	SampleSize int     `json:"sample_size"`
	Power      float64 `json:"power"`
	Backend    string  `json:"backend"`
	RNG        string  `json:"rng"`
	Workers    int     `json:"workers"`
}

// TableResult 為抽樣表的扁平輸出
type TableResult struct {
	Lab     string    `json:"lab"`
	Backend string    `json:"backend"`
	N       int       `json:"n"`
	Prob    []float64 `json:"prob"`
	Alias   []int     `json:"alias"`
}

// CoreState 記錄一次請求前後的 RNG 快照（Base64URL），用於回放與續抽。
//   - 回放：下次請求帶入 Before 作為 start_b64u，會得到相同的抽樣。
//   - 續抽：帶入 After，延續同一條亂數流。
type CoreState struct {
	Before string `json:"start_b64u"`
	After  string `json:"after_b64u"`
}

// SampleResult 為抽樣輸出
type SampleResult struct {
	Lab     string    `json:"lab"`
	Backend string    `json:"backend"`
	Draws   []int     `json:"draws"`
	Words   []string  `json:"words,omitempty"` // 有詞彙表時對應每個抽樣
	State   CoreState `json:"state"`
}

// LossResult 為 loss 計算輸出
type LossResult struct {
	Lab        string    `json:"lab"`
	Reduce     nn.Reduce `json:"reduce"`
	Value      float64   `json:"value"`
	PerExample []float64 `json:"per_example,omitempty"`
	Negatives  [][]int   `json:"negatives,omitempty"`
	State      CoreState `json:"state"`
}

// NewLossResult 由 nn.Result 轉換
func NewLossResult(lab string, r *nn.Result) LossResult {
	return LossResult{
		Lab:        lab,
		Reduce:     r.Reduce,
		Value:      r.Value,
		PerExample: r.PerExample,
	}
}

// TriggerResult 為 trigger 判斷輸出
type TriggerResult struct {
	Trigger  string           `json:"trigger"`
	Fire     bool             `json:"fire"`
	Counters trigger.Counters `json:"counters"`
}

// FidelityResult 為模擬輸出
type FidelityResult struct {
	Report   *stats.Fidelity `json:"report"`
	Pass     bool            `json:"pass"`
	Alpha    float64         `json:"alpha"`
	UsedTime int64           `json:"used_ms"`
}
