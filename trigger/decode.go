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

// 本檔案 (decode.go) 讓 IntervalSpec 可以直接寫在設定檔裡，支援三種寫法：
//
//	stop: "2 epoch"
//	stop: [2, epoch]
//	stop: {period: 2, unit: epoch}

package trigger

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/zintix-labs/nslab/errs"
	"gopkg.in/yaml.v3"
)

// ParseSpec 解析 "3 epoch" / "100 iteration" 形式的字串
func ParseSpec(s string) (IntervalSpec, error) {
	f := strings.Fields(s)
	if len(f) != 2 {
		return IntervalSpec{}, errs.InvalidArgumentf("trigger %q must look like '<period> <unit>'", s)
	}
	p, err := strconv.Atoi(f[0])
	if err != nil {
		return IntervalSpec{}, errs.InvalidArgumentf("trigger %q: period is not an integer", s)
	}
	return validSpec(p, f[1])
}

func validSpec(period int, unit string) (IntervalSpec, error) {
	it, err := NewInterval(period, unit)
	if err != nil {
		return IntervalSpec{}, err
	}
	return IntervalSpec{Period: it.Period, Unit: it.Unit}, nil
}

func (s IntervalSpec) String() string {
	return fmt.Sprintf("%d %s", s.Period, s.Unit)
}

// IsZero 讓 omitempty 在未設定時略過
func (s IntervalSpec) IsZero() bool {
	return s.Period == 0 && s.Unit == ""
}

// ---------------------------------------------------------------------------
// YAML
// ---------------------------------------------------------------------------

func (s IntervalSpec) MarshalYAML() (any, error) {
	if s.IsZero() {
		return nil, nil
	}
	return s.String(), nil
}

func (s *IntervalSpec) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		if n.Tag == "!!null" {
			*s = IntervalSpec{}
			return nil
		}
		v, err := ParseSpec(n.Value)
		if err != nil {
			return errs.Wrap(err, fmt.Sprintf("line %d", n.Line))
		}
		*s = v
		return nil
	case yaml.SequenceNode:
		if len(n.Content) != 2 {
			return errs.InvalidArgumentf("line %d: trigger list must be [period, unit]", n.Line)
		}
		var p int
		var u string
		if err := n.Content[0].Decode(&p); err != nil {
			return errs.InvalidArgumentf("line %d: trigger period is not an integer", n.Line)
		}
		if err := n.Content[1].Decode(&u); err != nil {
			return errs.InvalidArgumentf("line %d: trigger unit is not a string", n.Line)
		}
		v, err := validSpec(p, u)
		if err != nil {
			return err
		}
		*s = v
		return nil
	case yaml.MappingNode:
		type plain IntervalSpec
		var raw plain
		if err := n.Decode(&raw); err != nil {
			return errs.Wrap(err, "trigger mapping decode failed")
		}
		v, err := validSpec(raw.Period, string(raw.Unit))
		if err != nil {
			return err
		}
		*s = v
		return nil
	default:
		return errs.InvalidArgumentf("line %d: unsupported trigger form", n.Line)
	}
}

// ---------------------------------------------------------------------------
// JSON
// ---------------------------------------------------------------------------

func (s IntervalSpec) MarshalJSON() ([]byte, error) {
	if s.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(s.String())
}

func (s *IntervalSpec) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return errs.Wrap(err, "trigger json decode failed")
	}
	var (
		v   IntervalSpec
		err error
	)
	switch r := raw.(type) {
	case nil:
	case string:
		v, err = ParseSpec(r)
	case []any:
		if len(r) != 2 {
			return errs.InvalidArgumentf("trigger list must be [period, unit]")
		}
		p, ok := wholeNumber(r[0])
		u, uok := r[1].(string)
		if !ok || !uok {
			return errs.InvalidArgumentf("trigger list must be [period, unit]")
		}
		v, err = validSpec(p, u)
	case map[string]any:
		p, ok := wholeNumber(r["period"])
		u, uok := r["unit"].(string)
		if !ok || !uok {
			return errs.InvalidArgumentf("trigger object needs integer 'period' and string 'unit'")
		}
		v, err = validSpec(p, u)
	default:
		return errs.InvalidArgumentf("unsupported trigger form %s", string(b))
	}
	if err != nil {
		return err
	}
	*s = v
	return nil
}

func wholeNumber(v any) (int, bool) {
	f, ok := v.(float64)
	if !ok || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}
