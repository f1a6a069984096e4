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

package nslab

import (
	"sync"

	"github.com/zintix-labs/nslab/corefmt"
	"github.com/zintix-labs/nslab/dto"
	"github.com/zintix-labs/nslab/errs"
	"github.com/zintix-labs/nslab/sdk/core"
)

// MaxSampleN 是單次請求可抽的上限
const MaxSampleN = 1_000_000

// Worker 封裝一顆可對外服務的 Core。
//
// 抽樣表與 W 屬於 Lab，所有 Worker 共用且只讀；Worker 只擁有自己的亂數流。
// 同一個 Worker 不應被多個 goroutine 同時使用，並發由 WorkerPool 借還管理。
//
// 每個請求都會回傳前後快照：
//   - 請求帶 start_b64u：先 restore 再計算，完成後回到 Worker 原本的亂數流（回放不影響之後的請求）。
//   - 沒帶：直接接續 Worker 的亂數流。
type Worker struct {
	lab      *Lab
	core     *core.Core
	mu       sync.Mutex
	initseed int64 // 出生 seed（便於追溯；完整重現請用快照）
}

func newWorker(l *Lab, seed int64) *Worker {
	return &Worker{lab: l, core: l.NewCore(seed), initseed: seed}
}

// Sample 抽 n 個結果
func (w *Worker) Sample(req *dto.SampleRequest) (dto.SampleResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if req.N < 1 || req.N > MaxSampleN {
		return dto.SampleResult{}, errs.InvalidArgumentf("n must be between 1 and %d, got %d", MaxSampleN, req.N)
	}
	out := dto.SampleResult{
		Lab:     w.lab.Name(),
		Backend: w.lab.Table().Backend().String(),
		Draws:   make([]int, req.N),
	}
	st, err := w.run(req.Start, func() error {
		w.lab.Table().SampleInto(w.core, out.Draws)
		return nil
	})
	if err != nil {
		return dto.SampleResult{}, err
	}
	out.State = st
	if labels := w.lab.Labels(); labels != nil {
		out.Words = make([]string, len(out.Draws))
		for i, d := range out.Draws {
			out.Words[i] = labels[d]
		}
	}
	return out, nil
}

// Loss 以 Worker 的 Core 抽負例並計算 loss
func (w *Worker) Loss(req *dto.LossRequest) (dto.LossResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	x, err := req.Matrix()
	if err != nil {
		return dto.LossResult{}, err
	}
	ns := w.lab.Loss()
	var out dto.LossResult
	st, err := w.run(req.Start, func() error {
		var before []byte
		if req.Negatives {
			if before, err = w.core.Snapshot(); err != nil {
				return errs.Wrap(err, "snapshot core")
			}
		}
		r, err := ns.EvaluateWith(w.core, x, req.T, req.Reduce)
		if err != nil {
			return err
		}
		out = dto.NewLossResult(w.lab.Name(), r)
		if !req.Negatives {
			return nil
		}
		// 回到抽負例前的狀態重抽一次，得到與 loss 相同的負例，結束狀態也一致
		if err := w.core.Restore(before); err != nil {
			return errs.Wrap(err, "restore core")
		}
		g, err := ns.Sampler().SampleShape(w.core, len(req.T), ns.SampleSize())
		if err != nil {
			return err
		}
		out.Negatives = make([][]int, g.Rows)
		for i := range g.Rows {
			out.Negatives[i] = append([]int(nil), g.Row(i)...)
		}
		return nil
	})
	if err != nil {
		return dto.LossResult{}, err
	}
	out.State = st
	return out, nil
}

// run 處理快照與回放；fn 在鎖內執行。
func (w *Worker) run(start string, fn func() error) (dto.CoreState, error) {
	own, err := w.SnapshotCore()
	if err != nil {
		return dto.CoreState{}, errs.NewFatal("before snapshot error " + err.Error())
	}
	before := own
	replay := start != ""
	if replay {
		b, err := corefmt.DecodeBase64URL(start)
		if err != nil {
			return dto.CoreState{}, err
		}
		if err := w.RestoreCore(b); err != nil {
			return dto.CoreState{}, errs.NewWarn("restore core err " + err.Error())
		}
		before = b
	}

	ferr := fn()
	after, err := w.SnapshotCore()
	if err != nil {
		return dto.CoreState{}, errs.NewFatal("after snapshot error " + err.Error())
	}
	if replay {
		if err := w.RestoreCore(own); err != nil {
			return dto.CoreState{}, errs.NewFatal("restore own stream error " + err.Error())
		}
	}
	if ferr != nil {
		return dto.CoreState{}, ferr
	}
	return dto.CoreState{
		Before: corefmt.EncodeBase64URL(before),
		After:  corefmt.EncodeBase64URL(after),
	}, nil
}

// SnapshotCore 回傳 Core 的序列化狀態
func (w *Worker) SnapshotCore() ([]byte, error) {
	return w.core.Snapshot()
}

// RestoreCore 還原 Core 的狀態
func (w *Worker) RestoreCore(b []byte) error {
	return w.core.Restore(b)
}

// InitSeed 回傳出生 seed
func (w *Worker) InitSeed() int64 { return w.initseed }
