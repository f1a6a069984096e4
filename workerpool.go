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
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/zintix-labs/nslab/dto"
	"github.com/zintix-labs/nslab/errs"
	"github.com/zintix-labs/nslab/sdk/core"
)

// WorkerPool 管理「某一個 Lab」的所有 Worker。
// 它透過兩個通道管理 Worker 生命週期：
//  1. pool：健康且可用的 Worker，供 Do() 借出 / 歸還。
//  2. broken：執行中發生 panic 或 fatal error 的 Worker，送往此通道等待檢查或丟棄。
//
// 壞掉的 Worker 會被立即替換成新的（新 seed），維持容量。
type WorkerPool struct {
	lab           *Lab
	initSeed      int64
	seedMaker     *core.SeedMaker
	pool          chan *Worker  // 可用 Worker
	broken        chan *Worker  // 壞掉的 Worker
	done          chan struct{} // 關閉訊號：關閉後不再允許借出/歸還/補充
	closeOnce     sync.Once
	poolsize      int
	rebuild       atomic.Int32 // 補充次數
	inflight      atomic.Int32 // 使用中
	panics        atomic.Int32
	fatals        atomic.Int32 // Worker 狀態不可信的次數
	served        atomic.Int64 // 成功完成的請求數
	closeReason   atomic.Value // string
	closeInflight atomic.Int32 // 關閉當下 inflight（快照）
	closeAvail    atomic.Int32 // 關閉當下可用數量（快照）
	closeBroken   atomic.Int32 // 關閉當下 broken backlog（快照）
}

// NewWorkerPool 建立 n 個 Worker（至少 1 個），seed 由 SeedMaker 依序衍生。
func (l *Lab) NewWorkerPool(n int, seed int64) *WorkerPool {
	n = max(1, n)
	p := &WorkerPool{
		lab:       l,
		initSeed:  seed,
		seedMaker: core.NewSeedMaker(seed),
		pool:      make(chan *Worker, n),
		broken:    make(chan *Worker, 100),
		done:      make(chan struct{}),
		poolsize:  n,
	}
	p.closeReason.Store("")
	p.closeInflight.Store(-1)
	p.closeAvail.Store(-1)
	p.closeBroken.Store(-1)

	for i := 0; i < n; i++ {
		p.pool <- newWorker(l, p.seedMaker.Next())
	}
	return p
}

// Close 進入關閉狀態：之後所有 Do() 直接回錯誤
func (p *WorkerPool) Close() {
	p.closeWithReason("closed")
}

// Closed 回報池是否已進入關閉狀態。
func (p *WorkerPool) Closed() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// closeWithReason 進入關閉狀態並記錄原因（reason 只會被寫入一次）。
func (p *WorkerPool) closeWithReason(reason string) {
	p.closeOnce.Do(func() {
		if reason == "" {
			reason = "closed"
		}
		p.closeReason.Store(reason)
		p.closeInflight.Store(p.inflight.Load())
		p.closeAvail.Store(int32(len(p.pool)))
		p.closeBroken.Store(int32(len(p.broken)))
		close(p.done)
	})
}

// isFatalErr 判斷本次錯誤是否代表 Worker 狀態不可信。
// 請求類錯誤（Warn、InvalidArgument 等）不淘汰 Worker。
func isFatalErr(err error) bool {
	e, ok := errs.AsErr(err)
	return ok && e.ErrLv == errs.Fatal
}

// Do 借出一個 Worker 執行 fn，結束後歸還。
//
// fn panic 或回傳 Fatal 錯誤時，該 Worker 送往 broken 並補上一個新的；
// broken 滿了代表連續故障，池進入關閉狀態讓上層接管。
func (p *WorkerPool) Do(ctx context.Context, fn func(*Worker) error) (err error) {
	// done 與 pool 同時可讀時 select 隨機挑選，先確認未關閉
	if p.Closed() {
		return p.closedErr()
	}
	var w *Worker
	select {
	case <-p.done:
		return p.closedErr()
	case <-ctx.Done():
		return errs.Wrap(ctx.Err(), "wait for worker canceled")
	case w = <-p.pool:
	}
	if p.Closed() {
		// 借到的同時池被關閉：放回去，不再借出
		select {
		case p.pool <- w:
		default:
		}
		return p.closedErr()
	}
	if w == nil {
		return errs.NewFatal("worker pool got nil worker")
	}
	p.inflight.Add(1)

	var isPanic bool
	defer func() {
		p.inflight.Add(-1)
		if r := recover(); r != nil {
			isPanic = true
			p.panics.Add(1)
			err = errs.NewFatal(fmt.Sprintf("worker %s panic : %v", p.lab.Name(), r))
		}

		if p.Closed() {
			return
		}

		if isPanic || isFatalErr(err) {
			if !isPanic {
				p.fatals.Add(1)
			}
			select {
			case p.broken <- w:
			default:
				p.closeWithReason("overwhelmed_by_failures")
				if err == nil {
					err = errs.NewFatal("worker pool overwhelmed by failures")
				}
				return
			}

			nw := newWorker(p.lab, p.seedMaker.Next())
			p.rebuild.Add(1)
			select {
			case <-p.done:
			case p.pool <- nw:
			}
			return
		}

		if err == nil {
			p.served.Add(1)
		}
		select {
		case <-p.done:
		case p.pool <- w:
		}
	}()

	err = fn(w)
	return
}

func (p *WorkerPool) closedErr() error {
	return errs.NewFatal("worker pool closed: " + p.ClosedReason())
}

// Sample 借一個 Worker 抽樣
func (p *WorkerPool) Sample(ctx context.Context, req *dto.SampleRequest) (out dto.SampleResult, err error) {
	err = p.Do(ctx, func(w *Worker) error {
		out, err = w.Sample(req)
		return err
	})
	return out, err
}

// Loss 借一個 Worker 計算 loss
func (p *WorkerPool) Loss(ctx context.Context, req *dto.LossRequest) (out dto.LossResult, err error) {
	err = p.Do(ctx, func(w *Worker) error {
		out, err = w.Loss(req)
		return err
	})
	return out, err
}

func (p *WorkerPool) Lab() *Lab      { return p.lab }
func (p *WorkerPool) PoolSize() int  { return p.poolsize }
func (p *WorkerPool) Available() int { return len(p.pool) }
func (p *WorkerPool) Inflight() int  { return int(p.inflight.Load()) }
func (p *WorkerPool) ReBuild() int   { return int(p.rebuild.Load()) }
func (p *WorkerPool) Panics() int    { return int(p.panics.Load()) }
func (p *WorkerPool) Fatals() int    { return int(p.fatals.Load()) }

func (p *WorkerPool) ClosedReason() string {
	if v := p.closeReason.Load(); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// WorkerPoolMetrics 是拉取式的觀測快照。
// Available / BrokenBacklog 來自 len(chan)，高併發下為近似值。
type WorkerPoolMetrics struct {
	Lab           string `json:"lab"`
	PoolSize      int    `json:"pool_size"`
	Available     int    `json:"available"`
	Inflight      int    `json:"inflight"`
	BrokenBacklog int    `json:"broken_backlog"`
	Rebuild       int    `json:"rebuild"`
	Panics        int    `json:"panics"`
	Fatals        int    `json:"fatals"`
	Served        int64  `json:"served"`
	Closed        bool   `json:"closed"`
	CloseReason   string `json:"close_reason"`

	CloseInflight int `json:"close_inflight"` // -1 表示尚未關閉
	CloseAvail    int `json:"close_avail"`
	CloseBroken   int `json:"close_broken"`
}

// Metrics 回傳觀測快照
func (p *WorkerPool) Metrics() WorkerPoolMetrics {
	return WorkerPoolMetrics{
		Lab:           p.lab.Name(),
		PoolSize:      p.poolsize,
		Available:     len(p.pool),
		Inflight:      int(p.inflight.Load()),
		BrokenBacklog: len(p.broken),
		Rebuild:       int(p.rebuild.Load()),
		Panics:        int(p.panics.Load()),
		Fatals:        int(p.fatals.Load()),
		Served:        p.served.Load(),
		Closed:        p.Closed(),
		CloseReason:   p.ClosedReason(),
		CloseInflight: int(p.closeInflight.Load()),
		CloseAvail:    int(p.closeAvail.Load()),
		CloseBroken:   int(p.closeBroken.Load()),
	}
}
