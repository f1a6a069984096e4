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

package netsvr

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
)

const defaultAddr string = ":5808"

// chiRoutes 只負責路由；Group 交出去的也是它，拿不到啟停控制權。
type chiRoutes struct {
	r chi.Router
}

func (c chiRoutes) Use(mw func(http.Handler) http.Handler) { c.r.Use(mw) }

func (c chiRoutes) Get(path string, h http.HandlerFunc)    { c.r.Get(path, h) }
func (c chiRoutes) Post(path string, h http.HandlerFunc)   { c.r.Post(path, h) }
func (c chiRoutes) Put(path string, h http.HandlerFunc)    { c.r.Put(path, h) }
func (c chiRoutes) Delete(path string, h http.HandlerFunc) { c.r.Delete(path, h) }

// Methods 以同一個 handler 註冊多個 method。
func (c chiRoutes) Methods(path string, h http.HandlerFunc, methods ...string) {
	for _, m := range methods {
		c.r.Method(m, path, h)
	}
}

func (c chiRoutes) Group(path string, fn func(NetRouter)) {
	c.r.Route(path, func(sub chi.Router) { fn(chiRoutes{r: sub}) })
}

// ChiAdapter 以 chi 實作 NetSvr。
//
// 監聽在 Run 才開始；addr 的 port 為 0 時，Run 之後 Address 回傳實際綁定的位址。
type ChiAdapter struct {
	chiRoutes
	server *http.Server

	mu    sync.Mutex
	addr  string
	bound net.Listener
}

// NewChiServer 建立 ChiAdapter；addr 為空時使用 :5808。
// fidelity 模擬可能接近請求上限，WriteTimeout 比一般 API 寬。
func NewChiServer(addr string) *ChiAdapter {
	if addr == "" {
		addr = defaultAddr
	}
	r := chi.NewRouter()
	return &ChiAdapter{
		chiRoutes: chiRoutes{r: r},
		server: &http.Server{
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		addr: addr,
	}
}

func (c *ChiAdapter) Ready() bool {
	return c != nil && c.r != nil && c.server != nil &&
		strings.Contains(c.addr, ":") && c.server.Handler == c.r
}

// Run 監聽並阻塞到 server 停止；Shutdown 造成的 ErrServerClosed 視為正常結束。
func (c *ChiAdapter) Run() error {
	ln, err := net.Listen("tcp", c.addr)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.bound = ln
	c.mu.Unlock()

	if err := c.server.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown 可在 Run 之前呼叫，之後的 Run 會立刻以 nil 返回。
func (c *ChiAdapter) Shutdown(ctx context.Context) error {
	if c == nil || c.server == nil {
		return nil
	}
	return c.server.Shutdown(ctx)
}

func (c *ChiAdapter) Address() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.bound != nil {
		return c.bound.Addr().String()
	}
	return c.addr
}

// Handler 回傳根 router，供 httptest 或掛載到既有服務使用
func (c *ChiAdapter) Handler() http.Handler {
	return c.r
}
