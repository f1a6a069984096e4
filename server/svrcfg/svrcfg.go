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

package svrcfg

import (
	"log/slog"
	"time"

	"github.com/zintix-labs/nslab"
	"github.com/zintix-labs/nslab/errs"
	"github.com/zintix-labs/nslab/server/logger"
)

const (
	defaultAddr     = ":5808"
	defaultMaxDraws = 1_000_000
	defaultTimeout  = 5 * time.Second
)

// SvrCfg 是 server 的所有外部依賴；由呼叫端組好再交給 server.Run。
type SvrCfg struct {
	Log     *slog.Logger
	Addr    string
	Runtime *nslab.Runtime

	// MaxDraws 限制 /v1/fidelity 單次模擬的抽樣數
	MaxDraws int
	// Timeout 是單一請求的處理上限
	Timeout time.Duration
}

func (sc *SvrCfg) Vaild() error {
	if sc.Log != nil {
		if ah, ok := sc.Log.Handler().(*logger.AsyncHandler); ok && !ah.Ready() {
			return errs.NewFatal("nil default log handler: async handler is nil")
		}
	} else {
		// 保持安靜、合法
		sc.Log, _ = logger.NewAsync(1024, logger.ModeDev)
	}
	if sc.Addr == "" {
		sc.Addr = defaultAddr
	}
	if sc.MaxDraws <= 0 {
		sc.MaxDraws = defaultMaxDraws
	}
	if sc.Timeout <= 0 {
		sc.Timeout = defaultTimeout
	}
	if sc.Runtime == nil {
		return errs.NewFatal("runtime is required")
	}
	if sc.Runtime.Closed() {
		return errs.NewFatal("runtime is closed: " + sc.Runtime.ClosedReason())
	}
	return nil
}
