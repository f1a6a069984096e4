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

package errs

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestKindSurvivesWrap(t *testing.T) {
	base := InvalidInputf("weights empty")
	wrapped := Wrap(Wrap(base, "build sampler"), "build loss")

	if !errors.Is(wrapped, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput through wrap chain, got %v", wrapped)
	}
	if errors.Is(wrapped, ErrInvalidArgument) {
		t.Fatalf("unexpected ErrInvalidArgument match")
	}
	if wrapped.ErrLv != Warn {
		t.Fatalf("wrap must keep Warn level, got %s", wrapped.ErrLv)
	}
	if Kind(wrapped) != ErrInvalidInput {
		t.Fatalf("Kind mismatch: %v", Kind(wrapped))
	}
}

func TestWrapForeignErrorIsFatal(t *testing.T) {
	e := Wrap(io.ErrUnexpectedEOF, "read corpus")
	if e.ErrLv != Fatal {
		t.Fatalf("foreign cause should be fatal, got %s", e.ErrLv)
	}
	if Kind(e) != nil {
		t.Fatalf("foreign cause should have no kind")
	}
	if !strings.Contains(e.Error(), "unexpected EOF") {
		t.Fatalf("cause missing from message: %s", e.Error())
	}
}

func TestKindConstructors(t *testing.T) {
	cases := []struct {
		err  *E
		kind error
	}{
		{InvalidInputf("a"), ErrInvalidInput},
		{InvalidArgumentf("b %d", 1), ErrInvalidArgument},
		{DimensionMismatchf("c"), ErrDimensionMismatch},
	}
	for _, c := range cases {
		if !errors.Is(c.err, c.kind) {
			t.Errorf("%v: expected kind %v", c.err, c.kind)
		}
		if c.err.ErrLv != Warn {
			t.Errorf("%v: expected warn level", c.err)
		}
	}
}

func TestWrapWithExtra(t *testing.T) {
	e := WrapWithExtra(DimensionMismatchf("x cols 3 != 4"), "evaluate", "batch=2")
	if !strings.Contains(e.Error(), "extra: batch=2") {
		t.Fatalf("extra missing: %s", e.Error())
	}
	got, ok := AsErr(e)
	if !ok || got != e {
		t.Fatalf("AsErr failed")
	}
}
