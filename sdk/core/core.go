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

// Package core 提供 nslab 所有抽樣使用的亂數核心。
//
// 亂數是抽樣子系統裡唯一的共享可變資源：alias table 建好後唯讀，
// 但每一次抽樣都會推進 PRNG 狀態。因此：
//   - 單執行緒使用：直接 New(Default().New(seed))。
//   - 多個 goroutine 共用同一個 Core：用 NewLocked 包一層互斥鎖。
//   - 平行模擬：每個 worker 用 SeedMaker 派生自己的 seed，各自持有 Core（thread-local）。
package core

import (
	"strings"

	"github.com/zintix-labs/nslab/errs"
)

// PRNG 定義 Core 所需的亂數來源，需同時支援取樣與狀態保存/還原。
type PRNG interface {
	RAND
	Restorable
}

// Restorable 定義可快照與還原的狀態介面。
type Restorable interface {
	// Snapshot 回傳可用於還原的序列化狀態。
	Snapshot() ([]byte, error)
	// Restore 依序列化狀態還原 PRNG 內部狀態。
	Restore([]byte) error
}

// RAND 定義核心亂數取樣能力。
//
// 要求實作同時提供 Uint64 / Float64 / UintN / IntN，而不是只要 Uint64：
// bounded 生成與 [0,1) 浮點的精度（32-bit 或 53-bit）由各 PRNG 依自己的原生輸出寬度決定。
type RAND interface {
	// Uint64 回傳非負 uint64 亂數。
	Uint64() uint64
	// Float64 回傳 [0,1) 的浮點亂數。
	Float64() float64
	// UintN 回傳 [0,max) 的 uint 亂數，若 max == 0 回傳 0。
	UintN(uint) uint
	// IntN 回傳 [0,max) 的 int 亂數，若 max <= 0 回傳 -1。
	IntN(int) int
}

// Factory 以 seed 建立 PRNG。
//
// 合約：同一個實作、同一個版本下，New(seed) 必須是決定性的。
// 相同 seed 產生相同輸出序列，模擬與測試才可重現。
type Factory interface {
	New(int64) PRNG
}

// PCG64Factory 建立 PCG64（預設）。
type PCG64Factory struct{}

func (PCG64Factory) New(seed int64) PRNG { return newPCG64WithSeed(seed) }

// PCG32Factory 建立 PCG32（32-bit 輸出，Float64 僅 32-bit 精度）。
type PCG32Factory struct{}

func (PCG32Factory) New(seed int64) PRNG { return newPCG32WithSeed(seed) }

// Default 回傳預設的 PCG64 工廠。
func Default() Factory {
	return PCG64Factory{}
}

// FactoryByName 依設定檔名稱選擇 PRNG 工廠，空字串視為預設 pcg64。
func FactoryByName(name string) (Factory, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "pcg64":
		return PCG64Factory{}, nil
	case "pcg32":
		return PCG32Factory{}, nil
	default:
		return nil, errs.InvalidArgumentf("unknown rng %q (expected pcg64 or pcg32)", name)
	}
}

// Core 封裝 PRNG，並提供常用取樣與工具方法。
type Core struct {
	PRNG
}

// New 允許使用外部自實現的 PRNG 建立 Core。
func New(rng PRNG) *Core {
	return &Core{rng}
}

// NewSeeded 等同 New(Default().New(seed))。
func NewSeeded(seed int64) *Core {
	return New(Default().New(seed))
}

// Pick 從列表中隨機選取一個元素，若列表為空回傳 -1
func (c *Core) Pick(src []int) int {
	if len(src) == 0 {
		return -1
	}
	return src[c.IntN(len(src))]
}

// ShuffleInts 以 Fisher-Yates 對 []int 做就地隨機重排。
// 所有 N! 種排列等機率，O(N) 時間、零配置。
func (c *Core) ShuffleInts(src []int) {
	if len(src) <= 1 {
		return
	}
	for i := len(src) - 1; i > 0; i-- {
		j := c.IntN(i + 1)
		src[i], src[j] = src[j], src[i]
	}
}
