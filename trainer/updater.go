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

// Package trainer 是最小的訓練迴圈骨架：
// Updater 推進計數並呼叫使用者的 StepFunc，Trainer 依 trigger 觸發擴充、判斷何時停止。
//
// 梯度與參數更新不在本包範圍內，全部交給 StepFunc。
package trainer

import (
	"context"

	"github.com/zintix-labs/nslab/corpus"
	"github.com/zintix-labs/nslab/errs"
	"github.com/zintix-labs/nslab/trigger"
)

// StepFunc 處理一個 batch 並回傳該步的損失值。
// 計數 c 已經包含這一步（Iteration 從 1 起算）。
type StepFunc func(ctx context.Context, batch []corpus.Pair, c trigger.Counters) (float64, error)

// Updater 擁有計數，是 trigger 讀取的唯一來源。
type Updater struct {
	it        *corpus.Iterator
	step      StepFunc
	iteration int
	lastLoss  float64
}

// NewUpdater 建立 updater
func NewUpdater(it *corpus.Iterator, step StepFunc) (*Updater, error) {
	if it == nil || step == nil {
		return nil, errs.InvalidArgumentf("updater needs an iterator and a step func")
	}
	return &Updater{it: it, step: step}, nil
}

// Update 取一個 batch、推進計數並執行 StepFunc
func (u *Updater) Update(ctx context.Context) error {
	batch := u.it.Next()
	u.iteration++
	loss, err := u.step(ctx, batch, u.Counters())
	if err != nil {
		return errs.Wrap(err, "updater: step failed")
	}
	u.lastLoss = loss
	return nil
}

// Counters 回傳目前的計數快照
func (u *Updater) Counters() trigger.Counters {
	return trigger.Counters{
		Iteration:   u.iteration,
		Epoch:       u.it.Epoch(),
		IsNewEpoch:  u.it.IsNewEpoch(),
		EpochDetail: u.it.EpochDetail(),
	}
}

// LastLoss 回傳最近一步的損失
func (u *Updater) LastLoss() float64 { return u.lastLoss }

// Iterator 回傳資料 iterator
func (u *Updater) Iterator() *corpus.Iterator { return u.it }
