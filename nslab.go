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

// Package nslab 提供 negative sampling 實驗室的「組裝入口（assembler）」。
//
// 一個 Lab 把三個地基組裝在一起：
//  1. LabSetting：實驗設定（seed、PRNG、後端、loss 參數、訓練節奏）。
//  2. 詞頻：來自設定內嵌的 counts、語料檔，或呼叫端直接提供。
//  3. NegativeSampling：持有 W 與共用的 unigram 抽樣表。
//
// 由 Lab 再衍生出：
//   - Simulator：大量抽樣並產出分布忠實度報表（sim）。
//   - Trainer：依設定組好的訓練迴圈（train）。
//   - WorkerPool：對外服務時每個 worker 各持一顆 Core（serve）。
//
// Lab 本身不綁定檔案路徑：設定與語料都可以由 fs.FS 注入。
package nslab

import (
	"context"
	"io"
	"io/fs"
	"log/slog"

	"github.com/zintix-labs/nslab/corpus"
	"github.com/zintix-labs/nslab/errs"
	"github.com/zintix-labs/nslab/nn"
	"github.com/zintix-labs/nslab/sdk/core"
	"github.com/zintix-labs/nslab/sdk/sampler"
	"github.com/zintix-labs/nslab/setting"
	"github.com/zintix-labs/nslab/trainer"
	"github.com/zintix-labs/nslab/trigger"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Lab 是一個組裝完成的實驗。建好之後抽樣表與設定不再變動；
// W 與輸入向量屬於訓練狀態，只在 Trainer 內被讀取。
type Lab struct {
	ls     *setting.LabSetting
	cf     core.Factory
	counts []int
	expect []float64 // counts^power 正規化，總和為 1
	corp   *corpus.Corpus // 只有從語料建立時才有
	labels []string
	loss   *nn.NegativeSampling
	in     *mat.Dense // 中心詞向量（vocab × in_size），作為 loss 的 x
	rng    *core.Core // loss 抽負例用
}

// New 以設定與詞頻建立 Lab。
//
// 參數要求：
//   - ls 不能為 nil
//   - counts 不可為空、不可有負值、總和不可為 0（錯誤來自抽樣表）
func New(ls *setting.LabSetting, counts []int) (*Lab, error) {
	if ls == nil {
		return nil, errs.NewFatal("lab setting required")
	}
	cf, err := ls.CoreFactory()
	if err != nil {
		return nil, err
	}
	l := &Lab{
		ls:     ls,
		cf:     cf,
		counts: append([]int(nil), counts...),
		rng:    core.New(cf.New(ls.Seed)),
	}

	opts := []nn.Option{
		nn.WithPower(ls.Sampler.Power),
		nn.WithCore(l.rng),
		nn.WithBackend(ls.Backend),
	}
	// W 與輸入向量用不同 stream 初始化，不影響負例序列
	initCore := core.New(cf.New(ls.Seed ^ 0x5bd1e995))
	if ls.Loss.InitScale > 0 {
		opts = append(opts, nn.WithInitializer(nn.Uniform(initCore, ls.Loss.InitScale)))
	}
	l.loss, err = nn.NewNegativeSampling(ls.Loss.InSize, l.counts, ls.Loss.SampleSize, opts...)
	if err != nil {
		return nil, errs.Wrap(err, "lab "+ls.Name+": build loss")
	}

	// loss 建好代表 counts 合法，總和必然大於 0
	if l.expect, err = sampler.PowWeights(l.counts, ls.Sampler.Power); err != nil {
		return nil, errs.Wrap(err, "lab "+ls.Name+": expected distribution")
	}
	floats.Scale(1/floats.Max(l.expect), l.expect)
	floats.Scale(1/floats.Sum(l.expect), l.expect)

	l.in = mat.NewDense(len(l.counts), ls.Loss.InSize, nil)
	scale := ls.Loss.InitScale
	if scale == 0 {
		scale = 0.5 / float64(ls.Loss.InSize)
	}
	nn.Uniform(initCore, scale)(l.in)
	return l, nil
}

// NewFromCorpus 以已讀入的語料建立 Lab，詞頻取自其詞彙表。
func NewFromCorpus(ls *setting.LabSetting, c *corpus.Corpus) (*Lab, error) {
	if c == nil || c.Vocab == nil {
		return nil, errs.InvalidInputf("corpus is empty")
	}
	l, err := New(ls, c.Vocab.Counts())
	if err != nil {
		return nil, err
	}
	l.corp = c
	l.labels = make([]string, c.Vocab.Len())
	for i := range l.labels {
		l.labels[i] = c.Vocab.Word(i)
	}
	return l, nil
}

// Build 依設定決定詞頻來源：
//  1. corpus.counts 有值：直接使用。
//  2. corpus.path 有值：從 fsys 讀（fsys 為 nil 時讀本機檔案），支援 gzip / zstd。
//  3. 兩者皆無：回傳錯誤，請改用 New 並自行提供詞頻。
func Build(ls *setting.LabSetting, fsys fs.FS) (*Lab, error) {
	if ls == nil {
		return nil, errs.NewFatal("lab setting required")
	}
	if len(ls.Corpus.Counts) > 0 {
		return New(ls, ls.Corpus.Counts)
	}
	if ls.Corpus.Path == "" {
		return nil, errs.InvalidArgumentf("lab %s: neither corpus.counts nor corpus.path is set", ls.Name)
	}

	var (
		rc  io.ReadCloser
		err error
	)
	if fsys != nil {
		rc, err = corpus.OpenFS(fsys, ls.Corpus.Path)
	} else {
		rc, err = corpus.Open(ls.Corpus.Path)
	}
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	c, err := corpus.Load(rc, ls.Corpus.MinCount, ls.Corpus.Window)
	if err != nil {
		return nil, errs.Wrap(err, "lab "+ls.Name+": load corpus")
	}
	return NewFromCorpus(ls, c)
}

func (l *Lab) Name() string { return l.ls.Name }
func (l *Lab) Setting() *setting.LabSetting { return l.ls }
func (l *Lab) Loss() *nn.NegativeSampling { return l.loss }
func (l *Lab) Table() *sampler.AliasTable { return l.loss.Sampler() }
func (l *Lab) Corpus() *corpus.Corpus { return l.corp }
func (l *Lab) Input() *mat.Dense { return l.in }
func (l *Lab) CoreFactory() core.Factory { return l.cf }
func (l *Lab) Counts() []int { return append([]int(nil), l.counts...) }
func (l *Lab) RNG() core.Restorable { return l.rng }

// Labels 回傳每個 ID 對應的詞（共用，勿修改）；沒有語料時回傳 nil。
func (l *Lab) Labels() []string { return l.labels }

// Expected 回傳抽樣表應呈現的機率，也就是 counts^power 正規化後的結果（總和為 1）。
func (l *Lab) Expected() []float64 { return append([]float64(nil), l.expect...) }

// NewCore 以 Lab 的 PRNG 工廠建立一顆 Core
func (l *Lab) NewCore(seed int64) *core.Core {
	return core.New(l.cf.New(seed))
}

// Step 回傳訓練用的 StepFunc：取中心詞向量為 x、上下文詞為標籤，回報 batch 內每個樣本的平均損失。
// 梯度與參數更新不在這裡，需要時由呼叫端包一層。
func (l *Lab) Step() trainer.StepFunc {
	inSize := l.ls.Loss.InSize
	reduce := l.ls.Loss.Reduce
	return func(_ context.Context, batch []corpus.Pair, _ trigger.Counters) (float64, error) {
		centers, contexts := corpus.Split(batch)
		x := mat.NewDense(len(batch), inSize, nil)
		for i, c := range centers {
			x.SetRow(i, l.in.RawRowView(c))
		}
		r, err := l.loss.Evaluate(x, contexts, reduce)
		if err != nil {
			return 0, err
		}
		// 不論 reduce 為何都回報每個樣本的平均損失，LogReport 的尺度才不隨設定變動
		return r.Value / float64(len(batch)), nil
	}
}

// TrainerOptions 控制 NewTrainer 的外圍行為
type TrainerOptions struct {
	Logger      *slog.Logger
	ShowPB      bool
	SnapshotDir string
}

// NewTrainer 依 train 區段組出訓練迴圈：
//   - stop：停止條件
//   - log：LogReport（若有設定）
//   - snapshot：寫出 W 與 PRNG 狀態（若有設定且指定了輸出目錄）
//
// 回傳的 LogReport 在 log 未設定時為 nil。
func (l *Lab) NewTrainer(o TrainerOptions) (*trainer.Trainer, *trainer.LogReport, error) {
	if l.corp == nil {
		return nil, nil, errs.InvalidArgumentf("lab %s: training needs a corpus", l.ls.Name)
	}
	tr := l.ls.Train
	it, err := corpus.NewIterator(l.corp.Pairs, min(tr.BatchSize, len(l.corp.Pairs)), true, l.NewCore(l.ls.Seed+1))
	if err != nil {
		return nil, nil, errs.Wrap(err, "lab "+l.ls.Name+": iterator")
	}
	u, err := trainer.NewUpdater(it, l.Step())
	if err != nil {
		return nil, nil, err
	}

	opts := []trainer.Option{trainer.WithLogger(o.Logger)}
	if o.ShowPB {
		opts = append(opts, trainer.WithProgressBar(estimateSteps(tr.Stop, it)))
	}
	t, err := trainer.New(u, tr.Stop, opts...)
	if err != nil {
		return nil, nil, err
	}

	var rep *trainer.LogReport
	if !tr.Log.IsZero() {
		rep = trainer.NewLogReport()
		if err := t.Extend("log_report", rep, tr.Log); err != nil {
			return nil, nil, err
		}
	}
	if !tr.Snapshot.IsZero() && o.SnapshotDir != "" {
		snap := &trainer.Snapshot{Dir: o.SnapshotDir, Loss: l.loss, RNG: l.rng}
		if err := t.Extend("snapshot", snap, tr.Snapshot); err != nil {
			return nil, nil, err
		}
	}
	return t, rep, nil
}

// estimateSteps 估算 stop 觸發前的步數，只用於進度條。
func estimateSteps(stop trigger.IntervalSpec, it *corpus.Iterator) int {
	if stop.Unit == trigger.UnitIteration {
		return stop.Period
	}
	per := (it.Len() + it.BatchSize() - 1) / it.BatchSize()
	return stop.Period * per
}
