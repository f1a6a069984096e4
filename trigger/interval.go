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

// Package trigger 決定訓練迴圈中「這一步要不要執行某個擴充」。
//
// trigger 本身不持有任何狀態：每次判斷都只看 updater 交來的 Counters 快照，
// 因此同一個 trigger 可以安全地被多個擴充或多個 goroutine 共用。
package trigger

import (
	"fmt"
	"strings"

	"github.com/zintix-labs/nslab/errs"
)

// Unit 是區間的計量單位
type Unit string

const (
	UnitIteration Unit = "iteration" // 參數更新次數
	UnitEpoch     Unit = "epoch"     // 完整掃過資料集的次數
)

// ParseUnit 只接受 "iteration" 與 "epoch"
func ParseUnit(s string) (Unit, error) {
	switch u := Unit(strings.TrimSpace(s)); u {
	case UnitIteration, UnitEpoch:
		return u, nil
	default:
		return "", errs.InvalidArgumentf("trigger unit must be 'iteration' or 'epoch', got %q", s)
	}
}

// Counters 是 updater 在某一步的計數快照。
type Counters struct {
	Iteration   int     `json:"iteration" yaml:"iteration"`       // 已完成的更新次數
	Epoch       int     `json:"epoch" yaml:"epoch"`               // 已完成的 epoch 數
	IsNewEpoch  bool    `json:"is_new_epoch" yaml:"is_new_epoch"` // 這一步是否剛跨過 epoch 邊界
	EpochDetail float64 `json:"epoch_detail" yaml:"epoch_detail"` // 含小數的 epoch 進度
}

// Interval 以固定間隔觸發。
//
//   - UnitIteration：Iteration % Period == 0
//   - UnitEpoch：IsNewEpoch && Epoch % Period == 0
type Interval struct {
	Period int
	Unit   Unit
}

// NewInterval 建立區間 trigger；period 必須 > 0，unit 必須是 iteration 或 epoch。
func NewInterval(period int, unit string) (*Interval, error) {
	u, err := ParseUnit(unit)
	if err != nil {
		return nil, err
	}
	if period <= 0 {
		return nil, errs.InvalidArgumentf("trigger period must be > 0, got %d", period)
	}
	return &Interval{Period: period, Unit: u}, nil
}

// Fire 回傳這一步是否觸發
// 未經 NewInterval 建立的零值（Period <= 0 或 unit 不明）永遠不觸發。
func (it *Interval) Fire(c Counters) bool {
	if it.Period <= 0 {
		return false
	}
	switch it.Unit {
	case UnitEpoch:
		return c.IsNewEpoch && c.Epoch%it.Period == 0
	case UnitIteration:
		return c.Iteration%it.Period == 0
	default:
		return false
	}
}

func (it *Interval) String() string {
	return fmt.Sprintf("%d %s", it.Period, it.Unit)
}
