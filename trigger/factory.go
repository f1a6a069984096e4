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

package trigger

import "github.com/zintix-labs/nslab/errs"

// Func 是統一後的 trigger 形式
type Func func(Counters) bool

// Spec 描述一個 trigger，只有本包的三種型別可以實作：
//
//   - IntervalSpec：固定區間
//   - Custom：使用者自訂，看 Counters 決定
//   - Nullary：不看 Counters 的零參數判斷式
type Spec interface {
	isSpec()
}

// IntervalSpec 是 (period, unit) 形式的 trigger 描述，可由設定檔解析（見 decode.go）。
type IntervalSpec struct {
	Period int  `json:"period" yaml:"period"`
	Unit   Unit `json:"unit" yaml:"unit"`
}

// Custom 原樣回傳
type Custom Func

// Nullary 會被包成忽略 Counters 的 Func
type Nullary func() bool

func (IntervalSpec) isSpec() {}
func (Custom) isSpec()       {}
func (Nullary) isSpec()      {}

// Get 把 Spec 轉成可直接呼叫的 Func。
// nil spec、nil 函式或不合法的區間回傳 errs.ErrInvalidArgument。
func Get(spec Spec) (Func, error) {
	switch s := spec.(type) {
	case nil:
		return nil, errs.InvalidArgumentf("trigger spec must not be nil")
	case Custom:
		if s == nil {
			return nil, errs.InvalidArgumentf("custom trigger must not be nil")
		}
		return Func(s), nil
	case Nullary:
		if s == nil {
			return nil, errs.InvalidArgumentf("nullary trigger must not be nil")
		}
		return func(Counters) bool { return s() }, nil
	case IntervalSpec:
		it, err := NewInterval(s.Period, string(s.Unit))
		if err != nil {
			return nil, err
		}
		return it.Fire, nil
	case *IntervalSpec:
		if s == nil {
			return nil, errs.InvalidArgumentf("trigger spec must not be nil")
		}
		return Get(*s)
	default:
		return nil, errs.InvalidArgumentf("unsupported trigger spec %T", spec)
	}
}

// MustGet 與 Get 相同，但在錯誤時 panic；只用於套件層級常數。
func MustGet(spec Spec) Func {
	f, err := Get(spec)
	if err != nil {
		panic(err)
	}
	return f
}

// Never 永遠不觸發
var Never = Func(func(Counters) bool { return false })
