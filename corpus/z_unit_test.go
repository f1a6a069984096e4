package corpus

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/zintix-labs/nslab/errs"
	"github.com/zintix-labs/nslab/sdk/core"
)

const text = "the cat sat on the mat the cat ran"

func readAll(t *testing.T, rc io.ReadCloser) string {
	t.Helper()
	defer func() { _ = rc.Close() }()
	b, err := io.ReadAll(rc)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func TestNewReaderDetectsCompression(t *testing.T) {
	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	_, _ = gw.Write([]byte(text))
	_ = gw.Close()

	var zs bytes.Buffer
	zw, err := zstd.NewWriter(&zs)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = zw.Write([]byte(text))
	_ = zw.Close()

	for name, src := range map[string][]byte{
		"plain": []byte(text),
		"gzip":  gz.Bytes(),
		"zstd":  zs.Bytes(),
		"short": []byte("a"),
	} {
		rc, err := NewReader(bytes.NewReader(src))
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		got := readAll(t, rc)
		want := text
		if name == "short" {
			want = "a"
		}
		if got != want {
			t.Fatalf("%s: got %q", name, got)
		}
	}
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.txt.gz")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	gw := gzip.NewWriter(f)
	_, _ = gw.Write([]byte(text))
	_ = gw.Close()
	_ = f.Close()

	rc, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := readAll(t, rc); got != text {
		t.Fatalf("got %q", got)
	}
	if _, err := Open(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatalf("expected open error")
	}
}

func TestVocabOrderAndMinCount(t *testing.T) {
	v, err := BuildVocab(strings.NewReader(text), 1)
	if err != nil {
		t.Fatal(err)
	}
	// the:3 cat:2 然後同頻 1 的詞按字典序
	want := []string{"the", "cat", "mat", "on", "ran", "sat"}
	if v.Len() != len(want) {
		t.Fatalf("len = %d", v.Len())
	}
	for i, w := range want {
		if v.Word(i) != w {
			t.Fatalf("word %d = %q, want %q", i, v.Word(i), w)
		}
	}
	if c := v.Counts(); c[0] != 3 || c[1] != 2 || c[5] != 1 {
		t.Fatalf("counts = %v", c)
	}
	if v.Total() != 9 {
		t.Fatalf("total = %d", v.Total())
	}

	v2, err := BuildVocab(strings.NewReader(text), 2)
	if err != nil {
		t.Fatal(err)
	}
	if v2.Len() != 2 {
		t.Fatalf("min_count 2 should keep 2 words, got %d", v2.Len())
	}
	if ids := v2.Encode(strings.Fields(text)); len(ids) != 5 {
		t.Fatalf("encode should drop rare words: %v", ids)
	}

	if _, err := BuildVocab(strings.NewReader(text), 10); !errors.Is(err, errs.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestSkipGram(t *testing.T) {
	pairs, err := SkipGram([]int{0, 1, 2}, 1)
	if err != nil {
		t.Fatal(err)
	}
	want := []Pair{{0, 1}, {1, 0}, {1, 2}, {2, 1}}
	if len(pairs) != len(want) {
		t.Fatalf("pairs = %v", pairs)
	}
	for i := range want {
		if pairs[i] != want[i] {
			t.Fatalf("pairs = %v, want %v", pairs, want)
		}
	}
	if _, err := SkipGram([]int{0}, 0); !errors.Is(err, errs.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}

func TestIteratorEpochs(t *testing.T) {
	data := make([]Pair, 10)
	for i := range data {
		data[i] = Pair{Center: i, Context: i}
	}
	it, err := NewIterator(data, 4, true, core.NewSeeded(5))
	if err != nil {
		t.Fatal(err)
	}
	// 10 筆、batch 4：第 3 個 batch 跨過 epoch 1，第 5 個 batch 剛好結束 epoch 2
	var newEpochAt []int
	seen := map[int]int{}
	for step := 1; step <= 5; step++ {
		b := it.Next()
		if len(b) != 4 {
			t.Fatalf("batch size %d", len(b))
		}
		if step <= 2 {
			for _, p := range b {
				seen[p.Center]++
			}
		}
		if it.IsNewEpoch() {
			newEpochAt = append(newEpochAt, step)
		}
	}
	if len(newEpochAt) != 2 || newEpochAt[0] != 3 || newEpochAt[1] != 5 {
		t.Fatalf("new epoch at %v", newEpochAt)
	}
	if it.Epoch() != 2 || it.EpochDetail() != 2 {
		t.Fatalf("epoch %d detail %v", it.Epoch(), it.EpochDetail())
	}
	for c, n := range seen {
		if n != 1 {
			t.Fatalf("center %d seen %d times within one epoch", c, n)
		}
	}
}

func TestIteratorArguments(t *testing.T) {
	data := []Pair{{0, 1}}
	if _, err := NewIterator(nil, 1, false, nil); !errors.Is(err, errs.ErrInvalidInput) {
		t.Fatalf("empty: %v", err)
	}
	if _, err := NewIterator(data, 2, false, nil); !errors.Is(err, errs.ErrInvalidArgument) {
		t.Fatalf("batch too large: %v", err)
	}
	if _, err := NewIterator(data, 1, true, nil); !errors.Is(err, errs.ErrInvalidArgument) {
		t.Fatalf("nil core: %v", err)
	}
}

func TestLoad(t *testing.T) {
	c, err := Load(strings.NewReader(text), 1, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(c.IDs) != 9 || len(c.Pairs) == 0 || c.Vocab.Len() != 6 {
		t.Fatalf("unexpected corpus %d ids, %d pairs", len(c.IDs), len(c.Pairs))
	}
}
