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

package core

import (
	"sync"
	"sync/atomic"
)

// lockedPRNG 以互斥鎖序列化對底層 PRNG 的存取。
// 每次呼叫只鎖一次亂數，alias table 本身唯讀不需要鎖。
type lockedPRNG struct {
	mu  sync.Mutex
	rng PRNG
}

// NewLocked 建立可被多個 goroutine 共用的 Core。
//
// 抽到的序列仍然是決定性的「集合」，但各 goroutine 拿到哪一段取決於排程。
// 需要逐 worker 可重現時，請改用 SeedMaker 派生獨立 Core。
func NewLocked(rng PRNG) *Core {
	return &Core{&lockedPRNG{rng: rng}}
}

func (l *lockedPRNG) Uint64() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rng.Uint64()
}

func (l *lockedPRNG) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rng.Float64()
}

func (l *lockedPRNG) UintN(n uint) uint {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rng.UintN(n)
}

func (l *lockedPRNG) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rng.IntN(n)
}

func (l *lockedPRNG) Snapshot() ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rng.Snapshot()
}

func (l *lockedPRNG) Restore(b []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rng.Restore(b)
}

const mask63 = uint64(1<<63) - 1

// SeedMaker 由一個 base seed 派生出不重複的子 seed，給平行 worker 使用。
type SeedMaker struct {
	state atomic.Uint64 // always in [0, 2^63)
}

func NewSeedMaker(seed int64) *SeedMaker {
	s := &SeedMaker{}
	s.state.Store(uint64(seed) & mask63)
	return s
}

// Next 回傳下一個子 seed（一定非負）。
//
// state 以 full-period LCG mod 2^63 推進（不重複），再用可逆的 mix63 打散。
// 可能被多個 goroutine 同時呼叫，所以用 CAS 迴圈推進。
func (s *SeedMaker) Next() int64 {
	for {
		old := s.state.Load()
		next := (old*6364136223846793005 + 1442695040888963407) & mask63
		if s.state.CompareAndSwap(old, next) {
			return int64(mix63(next))
		}
	}
}

// mix63：只用可逆的 bit 操作 + 乘奇數（mod 2^63）
func mix63(x uint64) uint64 {
	x &= mask63
	x ^= x >> 30
	x = (x * 0xBF58476D1CE4E5B9) & mask63
	x ^= x >> 27
	x = (x * 0x94D049BB133111EB) & mask63
	x ^= x >> 31
	return x & mask63
}
