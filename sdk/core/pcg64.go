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

// 有界整數取樣採用 Lemire 的乘法高位法，與 math/rand/v2 相同。
package core

import (
	"math/bits"
	r2 "math/rand/v2"
)

const golden64 = 0x9e3779b97f4a7c15

// PCG64 包裝 math/rand/v2 的 PCG（128-bit 狀態、64-bit 輸出），為預設 PRNG。
type PCG64 struct {
	src r2.PCG
}

// newPCG64WithSeed 以 splitmix64 把 seed 展開成 (hi, lo) 兩個狀態字。
func newPCG64WithSeed(seed int64) *PCG64 {
	x := uint64(seed) ^ golden64
	r := &PCG64{}
	r.src.Seed(splitmix64(x), splitmix64(x^0xDA942042E4DD58B5))
	return r
}

func (r *PCG64) Uint64() uint64 { return r.src.Uint64() }

func (r *PCG64) UintN(max uint) uint {
	if max == 0 {
		return 0
	}
	return uint(below64(r.src.Uint64, uint64(max)))
}

func (r *PCG64) IntN(max int) int {
	if max <= 0 {
		return -1
	}
	return int(below64(r.src.Uint64, uint64(max)))
}

// Float64 取高 53 bits。
func (r *PCG64) Float64() float64 {
	return float64(r.src.Uint64()<<11>>11) / (1 << 53)
}

func (r *PCG64) Snapshot() ([]byte, error) { return r.src.MarshalBinary() }

func (r *PCG64) Restore(data []byte) error { return r.src.UnmarshalBinary(data) }

func splitmix64(x uint64) uint64 {
	x += golden64
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

// below64 以 Lemire 的乘法高位法取 [0,n) 的無偏整數，n > 0。
func below64(next func() uint64, n uint64) uint64 {
	if n&(n-1) == 0 {
		return next() & (n - 1)
	}
	hi, lo := bits.Mul64(next(), n)
	if lo >= n {
		return hi
	}
	for thresh := -n % n; lo < thresh; {
		hi, lo = bits.Mul64(next(), n)
	}
	return hi
}
