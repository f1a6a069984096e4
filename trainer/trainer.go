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

package trainer

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/zintix-labs/nslab/errs"
	"github.com/zintix-labs/nslab/trigger"
)

// Extension 在 trigger 觸發時執行
type Extension interface {
	Run(ctx context.Context, t *Trainer) error
}

// Observer 是可選介面：每一步都會收到損失，用於需要累積資料的擴充（例如 LogReport）。
type Observer interface {
	Observe(c trigger.Counters, loss float64)
}

// ExtensionFunc 讓普通函式當作 Extension
type ExtensionFunc func(ctx context.Context, t *Trainer) error

func (f ExtensionFunc) Run(ctx context.Context, t *Trainer) error { return f(ctx, t) }

type entry struct {
	name string
	ext  Extension
	fire trigger.Func
}

// Trainer 依序執行 Update → 觸發擴充 → 檢查停止條件。
type Trainer struct {
	updater *Updater
	stop    trigger.Func
	exts    []entry
	log     *slog.Logger
	showpb  bool
	barMax  int
	started time.Time
}

// Option 調整 Trainer
type Option func(*Trainer)

// WithLogger 設定 logger，預設丟棄
func WithLogger(l *slog.Logger) Option {
	return func(t *Trainer) {
		if l != nil {
			t.log = l
		}
	}
}

// WithProgressBar 顯示進度條；total 為預估的總步數（未知時給 0）
func WithProgressBar(total int) Option {
	return func(t *Trainer) {
		t.showpb = true
		t.barMax = total
	}
}

// New 建立 trainer；stop 決定何時結束。
func New(u *Updater, stop trigger.Spec, opts ...Option) (*Trainer, error) {
	if u == nil {
		return nil, errs.InvalidArgumentf("trainer needs an updater")
	}
	f, err := trigger.Get(stop)
	if err != nil {
		return nil, errs.Wrap(err, "trainer: stop trigger")
	}
	t := &Trainer{
		updater: u,
		stop:    f,
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Extend 註冊擴充；同名擴充不可重複。
func (t *Trainer) Extend(name string, ext Extension, when trigger.Spec) error {
	if name == "" || ext == nil {
		return errs.InvalidArgumentf("extension needs a name and a body")
	}
	for _, e := range t.exts {
		if e.name == name {
			return errs.InvalidArgumentf("extension %q already registered", name)
		}
	}
	f, err := trigger.Get(when)
	if err != nil {
		return errs.Wrap(err, "trainer: extension "+name)
	}
	t.exts = append(t.exts, entry{name: name, ext: ext, fire: f})
	return nil
}

// Updater 回傳 updater
func (t *Trainer) Updater() *Updater { return t.updater }

// Logger 回傳 trainer 的 logger
func (t *Trainer) Logger() *slog.Logger { return t.log }

// Elapsed 回傳 Run 開始至今的時間
func (t *Trainer) Elapsed() time.Duration {
	if t.started.IsZero() {
		return 0
	}
	return time.Since(t.started)
}

// Run 執行訓練直到 stop trigger 觸發、ctx 取消或任何一步出錯。
func (t *Trainer) Run(ctx context.Context) error {
	t.started = time.Now()
	bar := pb.New(t.barMax)
	if !t.showpb {
		bar.SetWriter(io.Discard)
	}
	bar.Start()
	defer bar.Finish()

	t.log.Info("training started", "extensions", len(t.exts))
	for {
		if err := ctx.Err(); err != nil {
			return errs.Wrap(err, "trainer: canceled")
		}
		if err := t.updater.Update(ctx); err != nil {
			return err
		}
		c := t.updater.Counters()
		loss := t.updater.LastLoss()
		bar.Increment()

		for _, e := range t.exts {
			if o, ok := e.ext.(Observer); ok {
				o.Observe(c, loss)
			}
			if !e.fire(c) {
				continue
			}
			if err := e.ext.Run(ctx, t); err != nil {
				return errs.Wrap(err, "trainer: extension "+e.name)
			}
		}
		if t.stop(c) {
			t.log.Info("training finished",
				"iteration", c.Iteration,
				"epoch", c.Epoch,
				"elapsed", t.Elapsed().String(),
			)
			return nil
		}
	}
}
