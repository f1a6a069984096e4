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

// Package v1 是對外 HTTP API 的第一版。
//
// 所有 handler 共用同一個 nslab.Runtime：
//   - /labs、/table 只讀 Lab 的靜態資訊。
//   - /sample、/loss 向 WorkerPool 借 Worker，每個 Worker 持有自己的 Core。
//   - /fidelity 每次請求建一個新的 Simulator，不動到 pool。
//   - /trigger 不需要 Runtime。
package v1

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/zintix-labs/nslab"
	"github.com/zintix-labs/nslab/errs"
	"github.com/zintix-labs/nslab/server/httperr"
	"github.com/zintix-labs/nslab/server/svrcfg"
)

// Handler 持有 v1 所有路由需要的依賴
type Handler struct {
	rt       *nslab.Runtime
	log      *slog.Logger
	maxDraws int
	timeout  time.Duration
}

// NewHandler 由已驗證過的 SvrCfg 建立 Handler
func NewHandler(sCfg *svrcfg.SvrCfg) (*Handler, error) {
	if sCfg == nil || sCfg.Runtime == nil {
		return nil, errs.NewFatal("v1 handler: runtime is required")
	}
	return &Handler{
		rt:       sCfg.Runtime,
		log:      sCfg.Log,
		maxDraws: sCfg.MaxDraws,
		timeout:  sCfg.Timeout,
	}, nil
}

func (h *Handler) withTimeout(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), h.timeout)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	httperr.Log(h.log, "v1 "+r.URL.Path, err)
	httperr.Errs(w, err)
}

// writeJSON 先完整編碼再寫出，避免寫到一半才出錯
func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	var b bytes.Buffer
	if err := json.NewEncoder(&b).Encode(v); err != nil {
		h.fail(w, r, errs.Wrap(err, "encode response"))
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b.Bytes())
}
