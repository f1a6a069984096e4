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
	"encoding/binary"
	"math"
	"math/bits"

	"github.com/zintix-labs/nslab/errs"
)

const (
	pcg32Multiplier = 6364136223846793005
	pcg32FloatUnit  = 1.0 / (1 << 32)
	pcg32StateSize  = 16
)

// PCG32 為 64-bit 狀態、32-bit 輸出的 PCG (XSH RR) 產生器。
// 介面對齊 PCG64，可在設定檔以 rng: pcg32 互換。
type PCG32 struct {
	state uint64
	inc   uint64
}

func newPCG32WithSeed(seed int64) *PCG32 {
	r := &PCG32{}
	r.initWithSeed(seed, 1)
	return r
}

// Uint32 回傳 uint32 亂數。
func (r *PCG32) Uint32() uint32 {
	return r.next()
}

// Uint64 以兩次 32-bit 輸出拼成 uint64
func (r *PCG32) Uint64() uint64 {
	return (uint64(r.next()) << 32) | uint64(r.next())
}

// UintN 產出[0,n) 的uint整數，若 max == 0 回傳 0
func (r *PCG32) UintN(max uint) uint {
	if max == 0 {
		return 0
	}
	return uint(r.randBelowUint64(uint64(max)))
}

// IntN 回傳 [0,n) 的亂數；若 n <= 0 回傳 -1。
func (r *PCG32) IntN(max int) int {
	if max <= 0 {
		return -1
	}
	if max <= math.MaxUint32 {
		return int(r.randBelowUint32(uint32(max)))
	}
	return int(r.randBelowUint64(uint64(max)))
}

// Float64 回傳 [0,1) 的浮點亂數（32-bit 精度）。
func (r *PCG32) Float64() float64 {
	return float64(r.next()) * pcg32FloatUnit
}

// Snapshot 取得當下內部狀態 (state, inc) 共 16 bytes，big-endian。
func (r *PCG32) Snapshot() ([]byte, error) {
	b := make([]byte, pcg32StateSize)
	binary.BigEndian.PutUint64(b[:8], r.state)
	binary.BigEndian.PutUint64(b[8:], r.inc)
	return b, nil
}

// Restore 由 Snapshot 的輸出還原狀態。inc 必須是奇數。
func (r *PCG32) Restore(data []byte) error {
	if len(data) != pcg32StateSize {
		return errs.InvalidInputf("pcg32 restore: want %d bytes, got %d", pcg32StateSize, len(data))
	}
	inc := binary.BigEndian.Uint64(data[8:])
	if inc&1 == 0 {
		return errs.InvalidInputf("pcg32 restore: stream increment must be odd")
	}
	r.state = binary.BigEndian.Uint64(data[:8])
	r.inc = inc
	return nil
}

// PCG 建議的初始化流程：先用 stream 初始化一次，再加 seed，最後再 step。
func (r *PCG32) initWithSeed(seed int64, seq uint64) {
	r.state = 0
	r.inc = (seq << 1) | 1
	r.next()
	r.state += uint64(seed)
	r.next()
}

func (r *PCG32) next() uint32 {
	old := r.state
	r.state = old*pcg32Multiplier + r.inc
	xorshifted := uint32(((old >> 18) ^ old) >> 27)
	rot := uint32(old >> 59)
	return bits.RotateLeft32(xorshifted, -int(rot))
}

func (r *PCG32) randBelowUint32(bound uint32) uint32 {
	threshold := (^bound + 1) % bound
	for {
		v := r.next()
		if v >= threshold {
			return v % bound
		}
	}
}

func (r *PCG32) randBelowUint64(bound uint64) uint64 {
	threshold := (^bound + 1) % bound
	for {
		v := r.Uint64()
		if v >= threshold {
			return v % bound
		}
	}
}
