package logger

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/zintix-labs/nslab/errs"
)

// syncBuffer 讓背景 goroutine 與測試可以安全共用輸出
type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

func TestParseMode(t *testing.T) {
	cases := map[string]LogMode{"": ModeDev, "DEV": ModeDev, " prod ": ModeProd, "silent": ModeSilence}
	for in, want := range cases {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Fatalf("ParseMode(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseMode("verbose"); !errors.Is(err, errs.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
	if ModeProd.String() != "prod" || LogMode(9).String() != "unknown" {
		t.Fatalf("String mismatch")
	}
}

func TestAsyncHandlerDrainsOnClose(t *testing.T) {
	var out syncBuffer
	ah := NewAsyncHandler(slog.NewTextHandler(&out, nil), 64)
	log := slog.New(ah).With("lab", "zipf")
	for i := 0; i < 20; i++ {
		log.Info("draw", "i", i)
	}
	ah.Close()
	ah.Close()

	if got := strings.Count(out.String(), "lab=zipf"); got != 20 {
		t.Fatalf("expected 20 records, got %d:\n%s", got, out.String())
	}
	if ah.Written() != 20 || ah.Dropped() != 0 {
		t.Fatalf("written %d dropped %d", ah.Written(), ah.Dropped())
	}

	log.Info("late")
	if ah.Dropped() != 1 {
		t.Fatalf("records after Close must be dropped, got %d", ah.Dropped())
	}
}

func TestNilAsyncHandler(t *testing.T) {
	var ah *AsyncHandler
	if ah.Ready() || ah.Dropped() != 0 {
		t.Fatalf("nil handler must not be ready")
	}
	ah.Close()
}
