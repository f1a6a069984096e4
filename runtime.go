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
	"strings"
	"sync"
	"sync/atomic"

	"github.com/zintix-labs/nslab/catalog"
	"github.com/zintix-labs/nslab/dto"
	"github.com/zintix-labs/nslab/errs"
	"github.com/zintix-labs/nslab/sdk/core"
)

// Runtime 是對外服務的資料面：目錄中的每個 lab 各有一個 WorkerPool。
type Runtime struct {
	labs  map[string]*Lab
	pools map[string]*WorkerPool
	names []string // 固定順序，用於列舉

	done      chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool
	reason    atomic.Value // string

	poolSize int
}

// NewRuntime 依凍結後的目錄建出所有 Lab 與 WorkerPool。
// 任一 lab 建立失敗即整體失敗；各 pool 的 seed 由 seed 依序衍生。
func NewRuntime(cat *catalog.Catalog, workers int, seed int64) (*Runtime, error) {
	if cat == nil {
		return nil, errs.NewFatal("catalog required")
	}
	if !cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	names := cat.Names()
	if len(names) == 0 {
		return nil, errs.NewFatal("catalog is empty")
	}
	rt := &Runtime{
		labs:     make(map[string]*Lab, len(names)),
		pools:    make(map[string]*WorkerPool, len(names)),
		names:    names,
		done:     make(chan struct{}),
		poolSize: max(1, workers),
	}
	rt.reason.Store("")
	sm := core.NewSeedMaker(seed)
	for _, name := range names {
		ls, err := cat.Setting(name)
		if err != nil {
			return nil, err
		}
		src, _ := cat.Source(name)
		lab, err := Build(ls, src)
		if err != nil {
			return nil, errs.Wrap(err, "build lab "+name)
		}
		rt.labs[name] = lab
		rt.pools[name] = lab.NewWorkerPool(rt.poolSize, sm.Next())
	}
	for name, p := range rt.pools {
		go rt.watch(name, p)
	}
	return rt, nil
}

// watch 任一 pool 自行關閉時（例如連續故障），整個 runtime 跟著關閉交給上層處理
func (rt *Runtime) watch(name string, p *WorkerPool) {
	select {
	case <-rt.done:
	case <-p.done:
		rt.closeWithReason("pool_" + name + "_" + p.ClosedReason())
	}
}

// resolve 以名稱找 lab；只有一個 lab 時名稱可省略。
func (rt *Runtime) resolve(name string) (string, error) {
	if name == "" {
		if len(rt.names) == 1 {
			return rt.names[0], nil
		}
		return "", errs.InvalidArgumentf("lab is required (available: %v)", rt.names)
	}
	key := normLabName(name)
	if _, ok := rt.labs[key]; !ok {
		return "", errs.InvalidArgumentf("lab %q not found", name)
	}
	return key, nil
}

func normLabName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (rt *Runtime) check(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return errs.Wrap(ctx.Err(), "request canceled")
	case <-rt.done:
		return errs.NewFatal("runtime closed: " + rt.ClosedReason())
	default:
		return nil
	}
}

// Lab 回傳指定名稱的 Lab
func (rt *Runtime) Lab(name string) (*Lab, error) {
	key, err := rt.resolve(name)
	if err != nil {
		return nil, err
	}
	return rt.labs[key], nil
}

// Pool 回傳指定 lab 的 WorkerPool
func (rt *Runtime) Pool(name string) (*WorkerPool, error) {
	key, err := rt.resolve(name)
	if err != nil {
		return nil, err
	}
	return rt.pools[key], nil
}

func (rt *Runtime) Sample(ctx context.Context, req *dto.SampleRequest) (dto.SampleResult, error) {
	if err := rt.check(ctx); err != nil {
		return dto.SampleResult{}, err
	}
	p, err := rt.Pool(req.Lab)
	if err != nil {
		return dto.SampleResult{}, err
	}
	return p.Sample(ctx, req)
}

func (rt *Runtime) Loss(ctx context.Context, req *dto.LossRequest) (dto.LossResult, error) {
	if err := rt.check(ctx); err != nil {
		return dto.LossResult{}, err
	}
	p, err := rt.Pool(req.Lab)
	if err != nil {
		return dto.LossResult{}, err
	}
	return p.Loss(ctx, req)
}

// Names 回傳所有 lab 名稱
func (rt *Runtime) Names() []string {
	return append([]string(nil), rt.names...)
}

// Summary 列出所有 lab 的基本資訊
func (rt *Runtime) Summary() []dto.LabSummary {
	out := make([]dto.LabSummary, 0, len(rt.names))
	for _, n := range rt.names {
		l := rt.labs[n]
		ls := l.Setting()
		out = append(out, dto.LabSummary{
			Name:       n,
			Vocab:      l.Table().Len(),
			InSize:     ls.Loss.InSize,
			SampleSize: ls.Loss.SampleSize,
			Power:      ls.Sampler.Power,
			Backend:    l.Table().Backend().String(),
			RNG:        ls.RNG,
			Workers:    rt.pools[n].PoolSize(),
		})
	}
	return out
}

// Metrics 回傳所有 pool 的觀測快照
func (rt *Runtime) Metrics() []WorkerPoolMetrics {
	out := make([]WorkerPoolMetrics, 0, len(rt.names))
	for _, n := range rt.names {
		out = append(out, rt.pools[n].Metrics())
	}
	return out
}

// Close 關閉 runtime 與所有 pool，可重複呼叫。
func (rt *Runtime) Close() {
	rt.closeWithReason("closed")
}

func (rt *Runtime) closeWithReason(reason string) {
	rt.closeOnce.Do(func() {
		if reason == "" {
			reason = "closed"
		}
		rt.reason.Store(reason)
		rt.closed.Store(true)
		close(rt.done)
		for _, p := range rt.pools {
			p.closeWithReason("runtime_" + reason)
		}
	})
}

// Done 在 runtime 關閉時被 close
func (rt *Runtime) Done() <-chan struct{} { return rt.done }

func (rt *Runtime) Closed() bool {
	return rt.closed.Load()
}

func (rt *Runtime) ClosedReason() string {
	if v := rt.reason.Load(); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
