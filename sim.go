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

package nslab

import (
	"context"
	"crypto/rand"
	"io"
	"math"
	"math/big"
	"sync"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/google/uuid"
	"github.com/zintix-labs/nslab/errs"
	"github.com/zintix-labs/nslab/recorder"
	"github.com/zintix-labs/nslab/sdk/core"
	"github.com/zintix-labs/nslab/sdk/sampler"
	"github.com/zintix-labs/nslab/stats"
)

const (
	capPrepare int = 100
	// chunk 是每次 SampleInto 的批量；也是進度條更新的粒度
	chunk int = 4096
)

// Simulator 對 Lab 的抽樣表做大量抽樣，可建立多顆 Core 平行紀錄。
type Simulator struct {
	Name      string
	table     *sampler.AliasTable
	expected  []float64
	labels    []string
	cf        core.Factory
	initSeed  int64
	seedmaker *core.SeedMaker
	cBuf      []*core.Core             // 併發執行的 Core
	rBuf      []*recorder.DrawRecorder // 併發紀錄員
}

// NewSimulator 以 crypto/rand 產生初始 seed 建立模擬器
func (l *Lab) NewSimulator() (*Simulator, error) {
	seed, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	if err != nil {
		return nil, errs.Wrap(err, "new crypto seed error in go std lib")
	}
	return l.NewSimulatorWithSeed(seed.Int64()), nil
}

// NewSimulatorWithSeed 以指定 seed 建立模擬器；同一 seed 與 workers 數的結果可重現。
func (l *Lab) NewSimulatorWithSeed(seed int64) *Simulator {
	s := &Simulator{
		Name:      l.Name(),
		table:     l.Table(),
		expected:  l.Expected(),
		labels:    l.Labels(),
		cf:        l.cf,
		initSeed:  seed,
		seedmaker: core.NewSeedMaker(seed),
		cBuf:      make([]*core.Core, 1, capPrepare),
		rBuf:      make([]*recorder.DrawRecorder, 0, capPrepare),
	}
	s.cBuf[0] = core.New(l.cf.New(seed))
	return s
}

// Seed 回傳模擬器的初始 seed
func (s *Simulator) Seed() int64 { return s.initSeed }

// Core 回傳單線模擬使用的 Core，可用於快照與還原
func (s *Simulator) Core() *core.Core { return s.cBuf[0] }

// Sim 單線模擬器：以一顆 Core 連續抽 draws 次，回傳忠實度報表與用時
func (s *Simulator) Sim(draws int, showpb bool) (*stats.Fidelity, time.Duration, error) {
	return s.SimContext(context.Background(), draws, showpb)
}

// SimContext 同 Sim，但每個 chunk 之間檢查 ctx；ctx 結束時回傳其錯誤，不產出報表。
func (s *Simulator) SimContext(ctx context.Context, draws int, showpb bool) (*stats.Fidelity, time.Duration, error) {
	defer s.reset()
	if draws < 1 {
		return nil, 0, errs.InvalidArgumentf("draws must be > 0, got %d", draws)
	}
	if err := s.prepareRecorders(1); err != nil {
		return nil, 0, err
	}
	r := s.rBuf[0]
	c := s.cBuf[0]

	bar := pb.StartNew(draws)
	if !showpb {
		bar.SetWriter(io.Discard)
	}
	buf := make([]int, min(chunk, draws))
	for left := draws; left > 0; left -= len(buf) {
		if err := ctx.Err(); err != nil {
			bar.Finish()
			return nil, 0, errs.Wrap(err, "simulate "+s.Name)
		}
		buf = buf[:min(len(buf), left)]
		s.table.SampleInto(c, buf)
		r.RecordAll(buf)
		bar.Add(len(buf))
	}
	used := time.Since(bar.StartTime())
	bar.Finish()

	f, err := s.report(r)
	return f, used, err
}

// SimMP 平行執行 mp 顆 Core，每顆抽 draws 次，合併後回傳報表與用時
func (s *Simulator) SimMP(draws int, mp int, showpb bool) (*stats.Fidelity, time.Duration, error) {
	defer s.reset()
	if mp <= 0 {
		return nil, 0, errs.InvalidArgumentf("workers must be > 0, got %d", mp)
	}
	if draws < 1 {
		return nil, 0, errs.InvalidArgumentf("draws must be > 0, got %d", draws)
	}
	for len(s.cBuf) < mp {
		s.cBuf = append(s.cBuf, core.New(s.cf.New(s.seedmaker.Next())))
	}
	if err := s.prepareRecorders(mp); err != nil {
		return nil, 0, err
	}

	wg := new(sync.WaitGroup)
	wg.Add(mp)
	bar := pb.StartNew(draws * mp)
	if !showpb {
		bar.SetWriter(io.Discard)
	}
	for i := 0; i < mp; i++ {
		go func(i int) {
			defer wg.Done()
			c := s.cBuf[i]
			r := s.rBuf[i]
			buf := make([]int, min(chunk, draws))
			for left := draws; left > 0; left -= len(buf) {
				buf = buf[:min(len(buf), left)]
				s.table.SampleInto(c, buf)
				r.RecordAll(buf)
				bar.Add(len(buf))
			}
		}(i)
	}
	wg.Wait()
	used := time.Since(bar.StartTime())
	bar.Finish()

	merged, err := recorder.MergeDrawRecorder(s.rBuf[:mp])
	if err != nil {
		return nil, 0, err
	}
	f, err := s.report(merged)
	return f, used, err
}

func (s *Simulator) prepareRecorders(n int) error {
	for len(s.rBuf) < n {
		r, err := recorder.NewDrawRecorder(s.Name, s.expected)
		if err != nil {
			return err
		}
		s.rBuf = append(s.rBuf, r)
	}
	return nil
}

func (s *Simulator) report(r *recorder.DrawRecorder) (*stats.Fidelity, error) {
	f, err := r.Done()
	if err != nil {
		return nil, err
	}
	if s.labels != nil {
		f.SetLabels(s.labels)
	}
	f.Summary.RunID = uuid.NewString()
	f.Summary.Backend = s.table.Backend().String()
	return f, nil
}

func (s *Simulator) reset() {
	for _, r := range s.rBuf {
		r.Reset()
	}
}
