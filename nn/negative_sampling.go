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

// Package nn 實作 negative sampling 損失。
//
// Negative sampling 用「一個正例 + sample_size 個從 unigram^power 抽出的負例」
// 近似整個詞彙表上的 softmax。本包只負責前向損失：
//   - 不計算梯度、不更新參數；W 交給外部 optimizer 在兩次 Evaluate 之間修改。
//   - 抽出的負例不去重，可能彼此重複或與正例相同（Walker 抽樣是放回抽樣）。
package nn

import (
	"github.com/zintix-labs/nslab/errs"
	"github.com/zintix-labs/nslab/sdk/backend"
	"github.com/zintix-labs/nslab/sdk/core"
	"github.com/zintix-labs/nslab/sdk/sampler"
	"gonum.org/v1/gonum/mat"
)

// defaultSeed 只在呼叫端沒有提供 Core 時使用，讓預設行為可重現。
const defaultSeed int64 = 1

// NegativeSampling 持有權重矩陣 W (vocab × inSize) 與負例抽樣器。
//
// W 由本結構獨占；Evaluate 期間唯讀，外部 optimizer 只能在兩次 Evaluate 之間寫入
// （單一寫者，前向與更新之間需要呼叫端自行隔開）。
//
// Evaluate 會推進內部 Core 的亂數狀態；若要多個 goroutine 同時 Evaluate，
// 請以 WithCore(core.NewLocked(...)) 建立。
type NegativeSampling struct {
	w          *mat.Dense
	sampleSize int
	power      float64
	sampler    *sampler.AliasTable
	core       *core.Core
}

type options struct {
	power   float64
	init    Initializer
	core    *core.Core
	backend backend.Kind
}

// Option 調整 NewNegativeSampling 的預設值
type Option func(*options)

// WithPower 設定 unigram 平滑指數，預設 0.75
func WithPower(p float64) Option {
	return func(o *options) { o.power = p }
}

// WithInitializer 設定 W 的初始值，預設全零
func WithInitializer(init Initializer) Option {
	return func(o *options) { o.init = init }
}

// WithCore 設定負例抽樣使用的亂數核心
func WithCore(c *core.Core) Option {
	return func(o *options) { o.core = c }
}

// WithBackend 設定抽樣表落地的後端，預設 CPU
func WithBackend(k backend.Kind) Option {
	return func(o *options) { o.backend = k }
}

// NewNegativeSampling 建立 negative sampling 損失層。
//
//   - inSize: 輸入向量維度，必須 > 0。
//   - counts: 每個詞的出現次數，長度即詞彙量；weight[i] = counts[i]^power。
//   - sampleSize: 每個樣本抽幾個負例，必須 > 0。
//
// counts 不合法（空、負值、全為 0）回傳 errs.ErrInvalidInput；
// inSize / sampleSize / power 不合法回傳 errs.ErrInvalidArgument。
func NewNegativeSampling(inSize int, counts []int, sampleSize int, opts ...Option) (*NegativeSampling, error) {
	o := &options{power: sampler.DefaultPower, backend: backend.CPU}
	for _, opt := range opts {
		opt(o)
	}
	if inSize <= 0 {
		return nil, errs.InvalidArgumentf("in_size must be > 0, got %d", inSize)
	}
	if sampleSize <= 0 {
		return nil, errs.InvalidArgumentf("sample_size must be > 0, got %d", sampleSize)
	}

	table, err := sampler.NewUnigram(counts, o.power)
	if err != nil {
		return nil, errs.Wrap(err, "negative sampling: build sampler failed")
	}
	if table, err = table.To(o.backend); err != nil {
		return nil, errs.Wrap(err, "negative sampling: materialize sampler failed")
	}

	w := mat.NewDense(len(counts), inSize, nil)
	if o.init != nil {
		o.init(w)
	}
	c := o.core
	if c == nil {
		c = core.NewSeeded(defaultSeed)
	}

	return &NegativeSampling{
		w:          w,
		sampleSize: sampleSize,
		power:      o.power,
		sampler:    table,
		core:       c,
	}, nil
}

// W 回傳權重矩陣本體（非複本），供外部 optimizer 更新。
func (ns *NegativeSampling) W() *mat.Dense { return ns.w }

// SampleSize 回傳每個樣本的負例數。
func (ns *NegativeSampling) SampleSize() int { return ns.sampleSize }

// Power 回傳 unigram 平滑指數。
func (ns *NegativeSampling) Power() float64 { return ns.power }

// Sampler 回傳共用的抽樣表（唯讀）。
func (ns *NegativeSampling) Sampler() *sampler.AliasTable { return ns.sampler }

// VocabSize 回傳詞彙量。
func (ns *NegativeSampling) VocabSize() int {
	r, _ := ns.w.Dims()
	return r
}

// InSize 回傳輸入向量維度。
func (ns *NegativeSampling) InSize() int {
	_, c := ns.w.Dims()
	return c
}

// To 把抽樣表落地到指定後端。W 永遠以 gonum 的 float64 Dense 存放於主記憶體。
func (ns *NegativeSampling) To(k backend.Kind) error {
	t, err := ns.sampler.To(k)
	if err != nil {
		return err
	}
	ns.sampler = t
	return nil
}

// Backend 回傳抽樣表目前的後端。
func (ns *NegativeSampling) Backend() backend.Kind { return ns.sampler.Backend() }

// Evaluate 計算一個 batch 的 negative sampling 損失。
//
//   - x: B × inSize 的輸入向量。
//   - t: 長度 B 的正確標籤。
//   - reduce: ReduceSum 回傳純量總和，ReduceNo 回傳逐樣本損失。
//
// 所有前置檢查都在抽樣之前完成：發生錯誤時不消耗亂數。
func (ns *NegativeSampling) Evaluate(x mat.Matrix, t []int, reduce Reduce) (*Result, error) {
	return ns.EvaluateWith(ns.core, x, t, reduce)
}

// EvaluateWith 與 Evaluate 相同，但負例改由呼叫端的 Core 抽出。
// W 與抽樣表只讀，各 goroutine 持有自己的 Core 即可並行計算。
func (ns *NegativeSampling) EvaluateWith(c *core.Core, x mat.Matrix, t []int, reduce Reduce) (*Result, error) {
	if err := reduce.Valid(); err != nil {
		return nil, err
	}
	b, err := checkShapes(x, t, ns.w)
	if err != nil {
		return nil, err
	}
	negs, err := ns.sampler.SampleShape(c, b, ns.sampleSize)
	if err != nil {
		return nil, err
	}
	return Loss(x, t, ns.w, negs, reduce)
}

// DrawNegatives 以內部 Core 替 batch 大小 b 抽出負例網格，
// 搭配 Loss 可以在相同負例下比較不同 reduce。
func (ns *NegativeSampling) DrawNegatives(b int) (*sampler.Grid, error) {
	return ns.sampler.SampleShape(ns.core, b, ns.sampleSize)
}
