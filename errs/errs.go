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

// Package errs 定義 nslab 全專案共用的錯誤型別。
//
// 錯誤分兩個維度：
//   - ErrLevel：嚴重程度。Fatal 代表元件已不可信（worker 要重建、程式要中止），
//     Warn 代表呼叫端可修正（HTTP 回 400）。
//   - Kind：錯誤種類哨兵，掛在 Cause 鏈上，以 errors.Is 判斷。
package errs

import (
	"errors"
	"fmt"
	"strings"
)

// ErrLevel 是錯誤嚴重程度
type ErrLevel uint8

const (
	None ErrLevel = iota
	Fatal
	Warn
	Log
)

func (lv ErrLevel) String() string {
	switch lv {
	case Fatal:
		return "fatal"
	case Warn:
		return "warn"
	case Log:
		return "log"
	default:
		return ""
	}
}

// 錯誤種類哨兵
var (
	// ErrInvalidInput 權重/計數不合法：空陣列、負值、NaN/Inf、總和為零。
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidArgument 參數不合法：未知的 reduce、未知的 trigger unit、非正數的 period 等。
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrDimensionMismatch 維度不一致：輸入向量寬度與 embedding 不符、batch 大小不一致。
	ErrDimensionMismatch = errors.New("dimension mismatch")
)

var kinds = [...]error{ErrInvalidInput, ErrInvalidArgument, ErrDimensionMismatch}

// E 是統一的錯誤型別；Extra 放不影響主訊息的上下文，例如 batch 編號。
type E struct {
	Message string
	Extra   string
	Cause   error
	ErrLv   ErrLevel
}

func (e *E) Error() string {
	var b strings.Builder
	b.WriteString("errlv=")
	b.WriteString(e.ErrLv.String())
	b.WriteByte(' ')
	b.WriteString(e.Message)
	if e.Extra != "" {
		b.WriteString(" | extra: ")
		b.WriteString(e.Extra)
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, " (cause: %v)", e.Cause)
	}
	return b.String()
}

func (e *E) Unwrap() error { return e.Cause }

func NewFatal(msg string) *E { return &E{Message: msg, ErrLv: Fatal} }

func NewWarn(msg string) *E { return &E{Message: msg, ErrLv: Warn} }

func Fatalf(format string, a ...any) *E { return NewFatal(fmt.Sprintf(format, a...)) }

func Warnf(format string, a ...any) *E { return NewWarn(fmt.Sprintf(format, a...)) }

// InvalidInputf 建立 ErrInvalidInput 種類的錯誤。
func InvalidInputf(format string, a ...any) *E {
	return kindf(ErrInvalidInput, format, a...)
}

// InvalidArgumentf 建立 ErrInvalidArgument 種類的錯誤。
func InvalidArgumentf(format string, a ...any) *E {
	return kindf(ErrInvalidArgument, format, a...)
}

// DimensionMismatchf 建立 ErrDimensionMismatch 種類的錯誤。
func DimensionMismatchf(format string, a ...any) *E {
	return kindf(ErrDimensionMismatch, format, a...)
}

// 種類錯誤都是呼叫端可修正的前置條件，一律 Warn。
func kindf(kind error, format string, a ...any) *E {
	return &E{Message: fmt.Sprintf(format, a...), Cause: kind, ErrLv: Warn}
}

// Kind 回傳 err 鏈上的種類哨兵，沒有則回傳 nil。
func Kind(err error) error {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// Wrap 以 msg 包裝 cause。
// cause 鏈上已有 *E 時沿用其等級；其餘（標準庫、三方套件的錯誤）一律 Fatal。
func Wrap(cause error, msg string) *E {
	lv := Fatal
	if e, ok := AsErr(cause); ok {
		lv = e.ErrLv
	}
	return &E{Message: msg, Cause: cause, ErrLv: lv}
}

// WrapWithExtra 同 Wrap，另外附上 extra。
func WrapWithExtra(cause error, msg string, extra string) *E {
	r := Wrap(cause, msg)
	r.Extra = extra
	return r
}

// AsErr 取出 err 鏈上第一個 *E。
func AsErr(err error) (*E, bool) {
	var e *E
	ok := errors.As(err, &e)
	return e, ok
}
