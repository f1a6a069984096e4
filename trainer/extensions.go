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

package trainer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/zstd"
	"github.com/zintix-labs/nslab/errs"
	"github.com/zintix-labs/nslab/nn"
	"github.com/zintix-labs/nslab/sdk/core"
	"github.com/zintix-labs/nslab/trigger"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ---------------------------------------------------------------------------
// LogReport
// ---------------------------------------------------------------------------

// LogEntry 是 LogReport 每次觸發時的彙總
type LogEntry struct {
	Iteration   int     `json:"iteration" yaml:"iteration"`
	Epoch       int     `json:"epoch" yaml:"epoch"`
	EpochDetail float64 `json:"epoch_detail" yaml:"epoch_detail"`
	Steps       int     `json:"steps" yaml:"steps"`
	MeanLoss    float64 `json:"mean_loss" yaml:"mean_loss"`
	StdLoss     float64 `json:"std_loss" yaml:"std_loss"`
	ElapsedSec  float64 `json:"elapsed_sec" yaml:"elapsed_sec"`
}

// LogReport 累積上次觸發以來每一步的損失，觸發時輸出平均與標準差。
type LogReport struct {
	mu      sync.Mutex
	window  []float64
	entries []LogEntry
}

// NewLogReport 建立 LogReport
func NewLogReport() *LogReport {
	return &LogReport{window: make([]float64, 0, 128)}
}

func (r *LogReport) Observe(_ trigger.Counters, loss float64) {
	r.mu.Lock()
	r.window = append(r.window, loss)
	r.mu.Unlock()
}

func (r *LogReport) Run(_ context.Context, t *Trainer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.window) == 0 {
		return nil
	}
	c := t.Updater().Counters()
	mean, std := stat.MeanStdDev(r.window, nil)
	if len(r.window) == 1 {
		std = 0
	}
	e := LogEntry{
		Iteration:   c.Iteration,
		Epoch:       c.Epoch,
		EpochDetail: c.EpochDetail,
		Steps:       len(r.window),
		MeanLoss:    mean,
		StdLoss:     std,
		ElapsedSec:  t.Elapsed().Seconds(),
	}
	r.entries = append(r.entries, e)
	r.window = r.window[:0]

	t.Logger().Info("log report",
		"iteration", e.Iteration,
		"epoch", e.Epoch,
		"epoch_detail", e.EpochDetail,
		"mean_loss", e.MeanLoss,
		"std_loss", e.StdLoss,
	)
	return nil
}

// Entries 回傳所有彙總複本
func (r *LogReport) Entries() []LogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]LogEntry(nil), r.entries...)
}

// ---------------------------------------------------------------------------
// Snapshot
// ---------------------------------------------------------------------------

// SnapshotData 是寫入磁碟的快照內容：權重與抽樣用 PRNG 狀態。
type SnapshotData struct {
	Iteration int       `json:"iteration"`
	Epoch     int       `json:"epoch"`
	Rows      int       `json:"rows"`
	Cols      int       `json:"cols"`
	W         []float64 `json:"w"`
	RNG       []byte    `json:"rng"`
}

// Snapshot 觸發時把 W 與 PRNG 狀態存成 zstd 壓縮的 JSON。
type Snapshot struct {
	Dir  string
	Loss *nn.NegativeSampling
	RNG  core.Restorable

	// Last 是最近一次寫出的檔案路徑
	Last string
}

func (s *Snapshot) Run(_ context.Context, t *Trainer) error {
	if s.Loss == nil {
		return errs.Warnf("snapshot: loss is nil")
	}
	c := t.Updater().Counters()
	r, cols := s.Loss.W().Dims()
	data := SnapshotData{
		Iteration: c.Iteration,
		Epoch:     c.Epoch,
		Rows:      r,
		Cols:      cols,
		W:         append([]float64(nil), s.Loss.W().RawMatrix().Data...),
	}
	if s.RNG != nil {
		st, err := s.RNG.Snapshot()
		if err != nil {
			return errs.Wrap(err, "snapshot: rng state")
		}
		data.RNG = st
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return errs.Wrap(err, "snapshot: mkdir output dir")
	}
	path := filepath.Join(s.Dir, fmt.Sprintf("snapshot_iter_%d.json.zst", c.Iteration))
	if err := writeSnapshot(path, &data); err != nil {
		return err
	}
	s.Last = path
	t.Logger().Info("snapshot saved", "path", path, "iteration", c.Iteration)
	return nil
}

func writeSnapshot(path string, data *SnapshotData) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return errs.Wrap(err, "snapshot: marshal json")
	}
	f, err := os.Create(path)
	if err != nil {
		return errs.Wrap(err, "snapshot: create file")
	}
	defer func() { _ = f.Close() }()

	zw, err := zstd.NewWriter(f)
	if err != nil {
		return errs.Wrap(err, "snapshot: create zstd writer")
	}
	if _, err := zw.Write(raw); err != nil {
		_ = zw.Close()
		return errs.Wrap(err, "snapshot: write")
	}
	if err := zw.Close(); err != nil {
		return errs.Wrap(err, "snapshot: close zstd writer")
	}
	return f.Close()
}

// LoadSnapshot 讀回 Snapshot 寫出的檔案
func LoadSnapshot(path string) (*SnapshotData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(err, "snapshot: read file")
	}
	zr, err := zstd.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, errs.Wrap(err, "snapshot: zstd reader")
	}
	defer zr.Close()
	plain, err := io.ReadAll(zr)
	if err != nil {
		return nil, errs.Wrap(err, "snapshot: decompress")
	}
	data := &SnapshotData{}
	if err := json.Unmarshal(plain, data); err != nil {
		return nil, errs.Wrap(err, "snapshot: unmarshal json")
	}
	if len(data.W) != data.Rows*data.Cols {
		return nil, errs.DimensionMismatchf("snapshot: w has %d values for %dx%d", len(data.W), data.Rows, data.Cols)
	}
	return data, nil
}

// Apply 把快照寫回 loss 的權重與 rng 狀態。
func (d *SnapshotData) Apply(loss *nn.NegativeSampling, rng core.Restorable) error {
	r, c := loss.W().Dims()
	if r != d.Rows || c != d.Cols {
		return errs.DimensionMismatchf("snapshot is %dx%d, loss W is %dx%d", d.Rows, d.Cols, r, c)
	}
	loss.W().Copy(mat.NewDense(d.Rows, d.Cols, append([]float64(nil), d.W...)))
	if rng != nil && len(d.RNG) > 0 {
		if err := rng.Restore(d.RNG); err != nil {
			return errs.Wrap(err, "snapshot: restore rng")
		}
	}
	return nil
}
