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

package httperr

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/zintix-labs/nslab/errs"
)

// StatusCode 將錯誤映射成 HTTP status code。
//
// 規則（邊界層最小映射、可預期）：
//   - ctx timeout/cancel → 504/408（請求生命週期問題）
//   - errs.Warn 與種類錯誤 → 400（請求/參數問題）
//   - 其他              → 500（系統/不可恢復問題）
//
// 本函數屬於 HTTP 邊界層，因此放在 server/*，核心錯誤包不依賴 net/http。
func StatusCode(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	case errs.Kind(err) != nil:
		return http.StatusBadRequest
	}

	if e, ok := errs.AsErr(err); ok && e.ErrLv == errs.Warn {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// Body 是錯誤回應的 JSON 內容
type Body struct {
	Status int    `json:"status"`
	Kind   string `json:"kind,omitempty"`
	Error  string `json:"error"`
}

// NewBody 組出錯誤回應；500 不回傳內部訊息
func NewBody(err error) Body {
	status := StatusCode(err)
	b := Body{Status: status, Error: err.Error()}
	if k := errs.Kind(err); k != nil {
		b.Kind = k.Error()
	}
	if status == http.StatusInternalServerError {
		b.Error = http.StatusText(status)
	}
	return b
}

// Errs 寫回 JSON 錯誤；err 為 nil 時不做事
func Errs(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	b := NewBody(err)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(b.Status)
	_ = json.NewEncoder(w).Encode(b)
}

// Log 只記錄值得關注的錯誤：408/409/429 記 Warn，5xx 記 Error，其他 4xx 交給 access log。
func Log(log *slog.Logger, msg string, err error) {
	if err == nil || log == nil {
		return
	}
	status := StatusCode(err)
	if (status == 408) || (status == 409) || (status == 429) {
		log.Warn(msg, slog.Int("status", status), slog.Any("err", err))
	} else if (status >= 500) && (status < 600) {
		log.Error(msg, slog.Int("status", status), slog.Any("err", err))
	}
}
