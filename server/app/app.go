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

// Package app 提供應用程式生命週期管理（App），負責統一啟動與關閉多個 Component。
package app

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// DefaultShutdownTimeout 是優雅關閉的預設上限
const DefaultShutdownTimeout = 5 * time.Second

// App 啟動所有註冊的 Component，並在以下任一情況發生時依註冊順序關閉全部元件：
//   - 收到 SIGINT / SIGTERM
//   - 外部 ctx 結束（RunContext）
//   - 任一 Component 的 Run 返回
type App struct {
	comps   []Component
	log     *slog.Logger
	timeout time.Duration
}

func New() *App { return &App{timeout: DefaultShutdownTimeout} }

func NewWith(comps ...Component) *App {
	app := New()
	for _, c := range comps {
		app.Register(c)
	}
	return app
}

func (a *App) Register(c Component) {
	if c == nil {
		return
	}
	a.comps = append(a.comps, c)
}

// WithLogger 指定關閉錯誤的輸出位置；nil 表示丟棄
func (a *App) WithLogger(log *slog.Logger) *App {
	a.log = log
	return a
}

// WithShutdownTimeout 指定優雅關閉上限；<= 0 時沿用預設
func (a *App) WithShutdownTimeout(td time.Duration) *App {
	if td > 0 {
		a.timeout = td
	}
	return a
}

// Run 阻塞直到收到 OS 信號或任一 Component 結束
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext 與 Run 相同，但停止信號改由 ctx 提供。
// ctx 結束視為正常關閉，回傳 nil；Component 先結束則回傳它的錯誤。
func (a *App) RunContext(ctx context.Context) error {
	// errCh 收集任一 Component 首次返回的錯誤
	errCh := make(chan error, len(a.comps))
	for _, c := range a.comps {
		go func(c Component) {
			errCh <- c.Run()
		}(c)
	}

	select {
	case <-ctx.Done():
		a.gracefulShutdown()
		return nil
	case err := <-errCh:
		a.gracefulShutdown()
		return err
	}
}

func (a *App) gracefulShutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()
	for _, c := range a.comps {
		if err := c.Shutdown(ctx); err != nil && a.log != nil {
			a.log.Warn("shutdown err", slog.Any("err", err))
		}
	}
}
