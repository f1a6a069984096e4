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

package corpus

import (
	"github.com/zintix-labs/nslab/errs"
	"github.com/zintix-labs/nslab/sdk/core"
)

// Pair 是一筆 skip-gram 訓練樣本：用 Center 預測 Context。
type Pair struct {
	Center  int
	Context int
}

// SkipGram 以 ±window 的視窗從 ID 序列產生 (center, context) 配對。
func SkipGram(ids []int, window int) ([]Pair, error) {
	if window < 1 {
		return nil, errs.InvalidArgumentf("window must be >= 1, got %d", window)
	}
	pairs := make([]Pair, 0, len(ids)*2*window)
	for i, c := range ids {
		lo := max(0, i-window)
		hi := min(len(ids)-1, i+window)
		for j := lo; j <= hi; j++ {
			if j == i {
				continue
			}
			pairs = append(pairs, Pair{Center: c, Context: ids[j]})
		}
	}
	return pairs, nil
}

// Split 把 batch 拆成 center 與 context 兩條 ID 序列
func Split(batch []Pair) (centers, contexts []int) {
	centers = make([]int, len(batch))
	contexts = make([]int, len(batch))
	for i, p := range batch {
		centers[i] = p.Center
		contexts[i] = p.Context
	}
	return centers, contexts
}

// Iterator 是無限重複的 batch iterator。
//
// 每跑完一輪資料 epoch 加一、IsNewEpoch 為 true，並（若開啟 shuffle）重洗順序。
// 跨 epoch 的 batch 會用下一輪順序的開頭補滿，因此每個 batch 大小固定。
// Iterator 不是並發安全的；它就是 updater 的計數來源。
type Iterator struct {
	data    []Pair
	order   []int
	batch   []Pair
	size    int
	pos     int
	epoch   int
	isNew   bool
	shuffle bool
	core    *core.Core
}

// NewIterator 建立 iterator；batchSize 必須介於 1 與資料筆數之間。
// shuffle 為 true 時 c 不可為 nil。
func NewIterator(data []Pair, batchSize int, shuffle bool, c *core.Core) (*Iterator, error) {
	if len(data) == 0 {
		return nil, errs.InvalidInputf("dataset is empty")
	}
	if batchSize < 1 || batchSize > len(data) {
		return nil, errs.InvalidArgumentf("batch size must be in [1, %d], got %d", len(data), batchSize)
	}
	if shuffle && c == nil {
		return nil, errs.InvalidArgumentf("shuffle requires a core")
	}
	it := &Iterator{
		data:    data,
		order:   make([]int, len(data)),
		batch:   make([]Pair, batchSize),
		size:    batchSize,
		shuffle: shuffle,
		core:    c,
	}
	it.reorder()
	return it, nil
}

func (it *Iterator) reorder() {
	for i := range it.order {
		it.order[i] = i
	}
	if it.shuffle {
		it.core.ShuffleInts(it.order)
	}
}

// Next 回傳下一個 batch。回傳的切片在下一次呼叫前有效。
func (it *Iterator) Next() []Pair {
	n := len(it.data)
	end := it.pos + it.size
	k := 0
	for i := it.pos; i < min(end, n); i++ {
		it.batch[k] = it.data[it.order[i]]
		k++
	}
	if end >= n {
		rest := end - n
		it.reorder()
		for i := 0; i < rest; i++ {
			it.batch[k] = it.data[it.order[i]]
			k++
		}
		it.pos = rest
		it.epoch++
		it.isNew = true
	} else {
		it.pos = end
		it.isNew = false
	}
	return it.batch
}

// Epoch 回傳已完成的 epoch 數
func (it *Iterator) Epoch() int { return it.epoch }

// IsNewEpoch 回傳最近一次 Next 是否跨過 epoch 邊界
func (it *Iterator) IsNewEpoch() bool { return it.isNew }

// EpochDetail 回傳含小數的 epoch 進度
func (it *Iterator) EpochDetail() float64 {
	return float64(it.epoch) + float64(it.pos)/float64(len(it.data))
}

// BatchSize 回傳 batch 大小
func (it *Iterator) BatchSize() int { return it.size }

// Len 回傳資料筆數
func (it *Iterator) Len() int { return len(it.data) }
