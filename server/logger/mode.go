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

// Package logger 組裝 nslab 使用的 *slog.Logger。
//
// 兩種注入方式：
//   - 直接拿 *slog.Logger：NewDefaultLogger / NewAsync。
//   - 自己組 slog.Handler 再交給 NewLogger，或用 NewAsyncHandler 包成非阻塞。
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/zintix-labs/nslab/errs"
)

// LogMode 決定預設 handler 的格式、輸出位置與等級。
type LogMode uint8

const (
	ModeDev     LogMode = iota // text, stderr, debug
	ModeProd                   // json, stdout, info
	ModeSilence                // 全丟
)

// ParseMode 解析 dev / prod / silence（不分大小寫），空字串為 dev。
func ParseMode(s string) (LogMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "dev":
		return ModeDev, nil
	case "prod":
		return ModeProd, nil
	case "silence", "silent":
		return ModeSilence, nil
	default:
		return ModeDev, errs.InvalidArgumentf("unknown log mode %q (dev|prod|silence)", s)
	}
}

func (m LogMode) String() string {
	switch m {
	case ModeDev:
		return "dev"
	case ModeProd:
		return "prod"
	case ModeSilence:
		return "silence"
	default:
		return "unknown"
	}
}

// Handler 回傳該模式的同步 handler。
func (m LogMode) Handler() slog.Handler {
	switch m {
	case ModeProd:
		// JSON 走 stdout，交給收集端
		return slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	case ModeSilence:
		return slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 4})
	default:
		return slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
}

// NewDefaultLogger 以 mode 的預設 handler 建立同步 logger。
func NewDefaultLogger(mode LogMode) *slog.Logger {
	return slog.New(mode.Handler())
}

// NewDefaultAsyncLogger 同 NewDefaultLogger，但寫出在背景進行。
// 拿不到 *AsyncHandler，無法 Close；短命程式請改用 NewAsync。
func NewDefaultAsyncLogger(mode LogMode) *slog.Logger {
	return slog.New(NewAsyncHandler(mode.Handler(), defaultBuffer))
}

// NewLogger 把自組的 handler 包成 logger；nil 時退回 dev。
func NewLogger(h slog.Handler) *slog.Logger {
	if h == nil {
		h = ModeDev.Handler()
	}
	return slog.New(h)
}

// NewAsync 回傳非同步 logger 與其 handler；結束前呼叫 handler.Close 把佇列寫完。
func NewAsync(buf int, mode LogMode) (*slog.Logger, *AsyncHandler) {
	ah := NewAsyncHandler(mode.Handler(), buf)
	return slog.New(ah), ah
}
