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

package logger

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

const defaultBuffer = 8192

// AsyncHandler 把 Handle 變成 enqueue，由單一背景 goroutine 依序寫給 next。
//
// 佇列滿或已 Close 時直接丟棄並計數，請求路徑永遠不等 I/O。
// WithAttrs / WithGroup 衍生出來的 handler 共用同一條佇列。
//
// slog.Logger 會忽略 Handle 的 error，next 的 I/O 錯誤在這裡同樣被吞掉。
type AsyncHandler struct {
	next slog.Handler
	q    *queue
}

type entry struct {
	ctx context.Context
	h   slog.Handler
	rec slog.Record
}

type queue struct {
	mu     sync.RWMutex // 保護 closed 與 close(ch) 的先後
	closed bool
	ch     chan entry
	done   chan struct{}

	dropped atomic.Uint64
	written atomic.Uint64
}

// NewAsyncHandler 啟動背景寫出；buf <= 0 時用 1024。
func NewAsyncHandler(next slog.Handler, buf int) *AsyncHandler {
	if next == nil {
		next = ModeDev.Handler()
	}
	if buf <= 0 {
		buf = 1024
	}
	q := &queue{ch: make(chan entry, buf), done: make(chan struct{})}
	go q.drain()
	return &AsyncHandler{next: next, q: q}
}

func (q *queue) drain() {
	defer close(q.done)
	// ch 只會在 Close 時關閉，range 會把剩下的寫完
	for e := range q.ch {
		_ = e.h.Handle(e.ctx, e.rec)
		q.written.Add(1)
	}
}

func (q *queue) push(e entry) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.dropped.Add(1)
		return
	}
	select {
	case q.ch <- e:
	default:
		q.dropped.Add(1)
	}
}

// Ready 回報 handler 是否由 NewAsyncHandler 建立。
func (h *AsyncHandler) Ready() bool {
	return h != nil && h.q != nil
}

// Dropped 是因佇列滿或已關閉而丟掉的筆數。
func (h *AsyncHandler) Dropped() uint64 {
	if !h.Ready() {
		return 0
	}
	return h.q.dropped.Load()
}

// Written 是已交給 next 的筆數。
func (h *AsyncHandler) Written() uint64 {
	if !h.Ready() {
		return 0
	}
	return h.q.written.Load()
}

// Close 停止收件並等佇列寫完，可重複呼叫。
func (h *AsyncHandler) Close() {
	if !h.Ready() {
		return
	}
	h.q.mu.Lock()
	if !h.q.closed {
		h.q.closed = true
		close(h.q.ch)
	}
	h.q.mu.Unlock()
	<-h.q.done
}

func (h *AsyncHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *AsyncHandler) Handle(ctx context.Context, r slog.Record) error {
	if !h.Ready() {
		return nil
	}
	// Record 的 attrs 可能與呼叫端共用底層陣列，跨 goroutine 前先 Clone
	h.q.push(entry{ctx: ctx, h: h.next, rec: r.Clone()})
	return nil
}

func (h *AsyncHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &AsyncHandler{next: h.next.WithAttrs(attrs), q: h.q}
}

func (h *AsyncHandler) WithGroup(name string) slog.Handler {
	return &AsyncHandler{next: h.next.WithGroup(name), q: h.q}
}
