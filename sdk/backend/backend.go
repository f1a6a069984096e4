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

// Package backend 定義抽樣表可以被「落地」的儲存後端。
//
// 後端在設定期決定（tagged enum），不做動態 dispatch：
//   - CPU：prob 為 []float64、alias 為 []int，預設後端。
//   - Compact：prob 為 []float32、alias 為 []int32，記憶體減半，
//     對應裝置端（device-resident）常見的緊湊緩衝區配置。
//
// 任何後端都只用兩條扁平數值陣列描述 alias table。
package backend

import (
	"strings"

	"github.com/zintix-labs/nslab/errs"
)

// Kind 是後端的 tagged enum
type Kind uint8

const (
	CPU Kind = iota
	Compact
)

const (
	nameCPU     = "cpu"
	nameCompact = "compact"
	nameAuto    = "auto"
)

var kindNames = map[Kind]string{
	CPU:     nameCPU,
	Compact: nameCompact,
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Valid 回傳 k 是否為已知後端。
func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// Parse 正規化設定檔中的後端名稱。空字串與 auto 皆解析為 CPU。
func Parse(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", nameAuto, nameCPU:
		return CPU, nil
	case nameCompact:
		return Compact, nil
	default:
		return CPU, errs.InvalidArgumentf("unknown backend %q (expected auto, cpu or compact)", name)
	}
}

// Available 回傳所有可用後端名稱，以逗號分隔。
func Available() string {
	return strings.Join([]string{nameCPU, nameCompact}, ",")
}

// MarshalText 讓 Kind 可以直接出現在 YAML / JSON 報表中。
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, errs.InvalidArgumentf("unknown backend kind %d", k)
	}
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}
