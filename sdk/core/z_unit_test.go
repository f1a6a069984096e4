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
	"errors"
	"slices"
	"sync"
	"testing"

	"github.com/zintix-labs/nslab/errs"
)

func TestCoreDeterminism(t *testing.T) {
	for _, f := range []Factory{PCG64Factory{}, PCG32Factory{}} {
		c1 := New(f.New(7))
		c2 := New(f.New(7))
		for i := 0; i < 5; i++ {
			if c1.Uint64() != c2.Uint64() {
				t.Fatalf("%T: Uint64 mismatch at %d", f, i)
			}
		}
		if c1.IntN(10) != c2.IntN(10) {
			t.Fatalf("%T: IntN mismatch", f)
		}
		if c1.Float64() != c2.Float64() {
			t.Fatalf("%T: Float64 mismatch", f)
		}
	}
}

func TestBoundedRanges(t *testing.T) {
	for _, f := range []Factory{PCG64Factory{}, PCG32Factory{}} {
		c := New(f.New(3))
		for i := 0; i < 10000; i++ {
			if v := c.IntN(7); v < 0 || v >= 7 {
				t.Fatalf("%T: IntN out of range: %d", f, v)
			}
			if v := c.Float64(); v < 0 || v >= 1 {
				t.Fatalf("%T: Float64 out of range: %v", f, v)
			}
		}
		if c.IntN(0) != -1 || c.IntN(-3) != -1 {
			t.Fatalf("%T: IntN(<=0) must be -1", f)
		}
		if c.UintN(0) != 0 {
			t.Fatalf("%T: UintN(0) must be 0", f)
		}
	}
}

func TestSnapshotRestore(t *testing.T) {
	for _, f := range []Factory{PCG64Factory{}, PCG32Factory{}} {
		c := New(f.New(11))
		c.Uint64()
		snap, err := c.Snapshot()
		if err != nil {
			t.Fatalf("%T: snapshot: %v", f, err)
		}
		want := []uint64{c.Uint64(), c.Uint64(), c.Uint64()}

		other := New(f.New(999))
		if err := other.Restore(snap); err != nil {
			t.Fatalf("%T: restore: %v", f, err)
		}
		got := []uint64{other.Uint64(), other.Uint64(), other.Uint64()}
		if !slices.Equal(want, got) {
			t.Fatalf("%T: restored stream differs: %v vs %v", f, want, got)
		}
	}
}

func TestPCG32RestoreRejectsBadState(t *testing.T) {
	r := newPCG32WithSeed(1)
	if err := r.Restore([]byte{1, 2, 3}); !errors.Is(err, errs.ErrInvalidInput) {
		t.Fatalf("expected invalid input for short state, got %v", err)
	}
	even := make([]byte, pcg32StateSize)
	if err := r.Restore(even); !errors.Is(err, errs.ErrInvalidInput) {
		t.Fatalf("expected invalid input for even increment, got %v", err)
	}
}

func TestFactoryByName(t *testing.T) {
	if f, err := FactoryByName(""); err != nil || f == nil {
		t.Fatalf("empty name should give default: %v", err)
	}
	if _, ok := mustFactory(t, "PCG32").(PCG32Factory); !ok {
		t.Fatalf("expected PCG32Factory")
	}
	if _, err := FactoryByName("mt19937"); !errors.Is(err, errs.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}

func mustFactory(t *testing.T, name string) Factory {
	t.Helper()
	f, err := FactoryByName(name)
	if err != nil {
		t.Fatalf("factory %s: %v", name, err)
	}
	return f
}

func TestCorePickAndShuffle(t *testing.T) {
	c := NewSeeded(9)
	if got := c.Pick(nil); got != -1 {
		t.Fatalf("expected -1 for empty pick, got %d", got)
	}

	src := []int{1, 2, 3, 4}
	c.ShuffleInts(src)
	got := slices.Clone(src)
	slices.Sort(got)
	if !slices.Equal([]int{1, 2, 3, 4}, got) {
		t.Fatalf("shuffle changed elements: %v", src)
	}
}

func TestLockedConcurrentUse(t *testing.T) {
	c := NewLocked(Default().New(5))
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				if v := c.IntN(10); v < 0 || v >= 10 {
					t.Errorf("IntN out of range: %d", v)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestSeedMakerUnique(t *testing.T) {
	sm := NewSeedMaker(42)
	seen := make(map[int64]bool)
	for i := 0; i < 10000; i++ {
		s := sm.Next()
		if s < 0 {
			t.Fatalf("negative seed %d", s)
		}
		if seen[s] {
			t.Fatalf("duplicate seed %d at %d", s, i)
		}
		seen[s] = true
	}
	if NewSeedMaker(42).Next() != NewSeedMaker(42).Next() {
		t.Fatalf("seed maker must be deterministic")
	}
}
