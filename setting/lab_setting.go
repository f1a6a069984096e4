package setting

import (
	"fmt"
	"strings"

	"github.com/zintix-labs/nslab/errs"
	"github.com/zintix-labs/nslab/nn"
	"github.com/zintix-labs/nslab/sdk/backend"
	"github.com/zintix-labs/nslab/sdk/core"
	"github.com/zintix-labs/nslab/sdk/sampler"
	"github.com/zintix-labs/nslab/trigger"
)

// LabSetting 包含建立一個 negative sampling 實驗所需的所有設定。
type LabSetting struct {
	Name    string         `yaml:"name"    json:"name"`
	Seed    int64          `yaml:"seed"    json:"seed"`
	RNG     string         `yaml:"rng"     json:"rng"`
	Backend backend.Kind   `yaml:"backend" json:"backend"`
	Sampler SamplerSetting `yaml:"sampler" json:"sampler"`
	Loss    LossSetting    `yaml:"loss"    json:"loss"`
	Corpus  CorpusSetting  `yaml:"corpus"  json:"corpus"`
	Train   TrainSetting   `yaml:"train"   json:"train"`
	Extra   map[string]any `yaml:"extra,omitempty" json:"extra,omitempty"`
}

// SamplerSetting 控制 unigram 平滑
type SamplerSetting struct {
	Power float64 `yaml:"power" json:"power"`
}

// LossSetting 對應 NewNegativeSampling 的參數
type LossSetting struct {
	InSize     int       `yaml:"in_size"     json:"in_size"`
	SampleSize int       `yaml:"sample_size" json:"sample_size"`
	Reduce     nn.Reduce `yaml:"reduce"      json:"reduce"`
	InitScale  float64   `yaml:"init_scale"  json:"init_scale"`
}

// CorpusSetting 描述語料來源；Path 與 Counts 二選一，都沒寫時由呼叫端直接提供詞頻。
type CorpusSetting struct {
	Path     string `yaml:"path,omitempty" json:"path,omitempty"`
	Counts   []int  `yaml:"counts,omitempty" json:"counts,omitempty"`
	MinCount int    `yaml:"min_count"      json:"min_count"`
	Window   int    `yaml:"window"         json:"window"`
}

// TrainSetting 描述訓練迴圈；Log / Snapshot 留空代表不啟用。
type TrainSetting struct {
	BatchSize int                  `yaml:"batch_size"         json:"batch_size"`
	Stop      trigger.IntervalSpec `yaml:"stop"               json:"stop"`
	Log       trigger.IntervalSpec `yaml:"log,omitempty"      json:"log,omitempty"`
	Snapshot  trigger.IntervalSpec `yaml:"snapshot,omitempty" json:"snapshot,omitempty"`
}

// Default 回傳帶預設值的設定；解碼時會覆寫檔案中有寫的欄位。
func Default() *LabSetting {
	return &LabSetting{
		Name:    "lab",
		Seed:    1,
		RNG:     "pcg64",
		Backend: backend.CPU,
		Sampler: SamplerSetting{Power: sampler.DefaultPower},
		Loss: LossSetting{
			InSize:     16,
			SampleSize: 5,
			Reduce:     nn.ReduceSum,
		},
		Corpus: CorpusSetting{MinCount: 1, Window: 2},
		Train: TrainSetting{
			BatchSize: 64,
			Stop:      trigger.IntervalSpec{Period: 1, Unit: trigger.UnitEpoch},
		},
	}
}

// CoreFactory 依 rng 欄位回傳 PRNG 工廠
func (ls *LabSetting) CoreFactory() (core.Factory, error) {
	return core.FactoryByName(ls.RNG)
}

// init
func (ls *LabSetting) init() error {
	ls.Name = strings.TrimSpace(ls.Name)
	ls.RNG = strings.ToLower(strings.TrimSpace(ls.RNG))
	if ls.RNG == "" {
		ls.RNG = "pcg64"
	}
	return ls.valid()
}

// valid 執行基本設定檢查
func (ls *LabSetting) valid() error {
	if ls.Name == "" {
		return errs.NewFatal("empty lab name")
	}
	if _, err := ls.CoreFactory(); err != nil {
		return err
	}
	if !ls.Backend.Valid() {
		return errs.InvalidArgumentf("lab %s: invalid backend %v", ls.Name, ls.Backend)
	}
	if _, err := sampler.PowWeights([]int{1}, ls.Sampler.Power); err != nil {
		return errs.Wrap(err, fmt.Sprintf("lab %s: sampler.power", ls.Name))
	}
	if ls.Loss.InSize <= 0 || ls.Loss.SampleSize <= 0 {
		return errs.InvalidArgumentf("lab %s: loss.in_size and loss.sample_size must be > 0 (got %d, %d)",
			ls.Name, ls.Loss.InSize, ls.Loss.SampleSize)
	}
	if err := ls.Loss.Reduce.Valid(); err != nil {
		return err
	}
	if ls.Loss.InitScale < 0 {
		return errs.InvalidArgumentf("lab %s: loss.init_scale must be >= 0", ls.Name)
	}
	if ls.Corpus.Path != "" && len(ls.Corpus.Counts) > 0 {
		return errs.InvalidArgumentf("lab %s: corpus.path and corpus.counts are mutually exclusive", ls.Name)
	}
	if ls.Corpus.MinCount < 1 || ls.Corpus.Window < 1 {
		return errs.InvalidArgumentf("lab %s: corpus.min_count and corpus.window must be >= 1", ls.Name)
	}
	if ls.Train.BatchSize <= 0 {
		return errs.InvalidArgumentf("lab %s: train.batch_size must be > 0", ls.Name)
	}
	if ls.Train.Stop.IsZero() {
		return errs.InvalidArgumentf("lab %s: train.stop is required", ls.Name)
	}
	for _, s := range []trigger.IntervalSpec{ls.Train.Stop, ls.Train.Log, ls.Train.Snapshot} {
		if s.IsZero() {
			continue
		}
		if _, err := trigger.Get(s); err != nil {
			return err
		}
	}
	return nil
}
