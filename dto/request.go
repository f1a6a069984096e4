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

package dto

import (
	"io"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/zintix-labs/nslab/errs"
	"github.com/zintix-labs/nslab/nn"
	"github.com/zintix-labs/nslab/trigger"
	"gonum.org/v1/gonum/mat"
)

// maxBody 限制 POST body 大小（1MiB）
const maxBody = 1 << 20

// SampleRequest 抽樣請求
type SampleRequest struct {
	Lab   string `json:"lab"`
	N     int    `json:"n"`
	Start string `json:"start_b64u,omitempty"` // 可選：RNG 起始快照；缺省為接續 worker 自身的亂數流
}

// DecodeSampleRequest 會把 HTTP 請求解碼成 SampleRequest。
//
// 支援：
//   - GET：從 query string 讀取 lab / n / start_b64u。
//   - POST：從 JSON body 反序列化；query 上的 lab / n 作為預設值。
func DecodeSampleRequest(r *http.Request) (*SampleRequest, error) {
	if r == nil {
		return nil, errs.NewWarn("nil request")
	}
	req := new(SampleRequest)
	q := r.URL.Query()
	req.Lab = q.Get("lab")
	req.Start = q.Get("start_b64u")
	if s := q.Get("n"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return nil, errs.InvalidArgumentf("invalid n: %v", err)
		}
		req.N = v
	}

	switch r.Method {
	case http.MethodGet:
		return req, nil
	case http.MethodPost:
		if err := decodeJSON(r.Body, req); err != nil {
			return nil, err
		}
		return req, nil
	default:
		return nil, errs.NewWarn("method not allowed")
	}
}

// LossRequest loss 計算請求；X 為 B × in_size 的輸入，T 為長度 B 的標籤。
type LossRequest struct {
	Lab       string      `json:"lab"`
	X         [][]float64 `json:"x"`
	T         []int       `json:"t"`
	Reduce    nn.Reduce   `json:"reduce"`
	Start     string      `json:"start_b64u,omitempty"`
	Negatives bool        `json:"with_negatives,omitempty"` // 回傳本次抽出的負例
}

// DecodeLossRequest 只接受 POST JSON
func DecodeLossRequest(r *http.Request) (*LossRequest, error) {
	if r == nil || r.Method != http.MethodPost {
		return nil, errs.NewWarn("loss only accepts POST")
	}
	req := &LossRequest{Reduce: nn.ReduceSum}
	if err := decodeJSON(r.Body, req); err != nil {
		return nil, err
	}
	if req.Lab == "" {
		req.Lab = r.URL.Query().Get("lab")
	}
	return req, nil
}

// Matrix 把 X 轉成 *mat.Dense；列長度不一致時回傳 DimensionMismatch。
func (lr *LossRequest) Matrix() (*mat.Dense, error) {
	if len(lr.X) == 0 || len(lr.X[0]) == 0 {
		return nil, errs.InvalidArgumentf("x must be a non-empty matrix")
	}
	cols := len(lr.X[0])
	data := make([]float64, 0, len(lr.X)*cols)
	for i, row := range lr.X {
		if len(row) != cols {
			return nil, errs.DimensionMismatchf("x row %d has %d columns, want %d", i, len(row), cols)
		}
		data = append(data, row...)
	}
	return mat.NewDense(len(lr.X), cols, data), nil
}

// TriggerRequest 詢問某組計數下 interval trigger 是否觸發
type TriggerRequest struct {
	Period   int              `json:"period"`
	Unit     string           `json:"unit"`
	Counters trigger.Counters `json:"counters"`
}

// DecodeTriggerRequest 只接受 POST JSON
func DecodeTriggerRequest(r *http.Request) (*TriggerRequest, error) {
	if r == nil || r.Method != http.MethodPost {
		return nil, errs.NewWarn("trigger only accepts POST")
	}
	req := new(TriggerRequest)
	if err := decodeJSON(r.Body, req); err != nil {
		return nil, err
	}
	return req, nil
}

// FidelityRequest 模擬請求
type FidelityRequest struct {
	Lab   string  `json:"lab"`
	Draws int     `json:"draws"`
	Alpha float64 `json:"alpha"`
	Seed  *int64  `json:"seed,omitempty"`
}

// DecodeFidelityRequest 支援 GET query（lab / n / alpha / seed）與 POST JSON
func DecodeFidelityRequest(r *http.Request) (*FidelityRequest, error) {
	if r == nil {
		return nil, errs.NewWarn("nil request")
	}
	req := &FidelityRequest{Alpha: 0.01}
	q := r.URL.Query()
	req.Lab = q.Get("lab")
	if s := q.Get("n"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return nil, errs.InvalidArgumentf("invalid n: %v", err)
		}
		req.Draws = v
	}
	if s := q.Get("alpha"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, errs.InvalidArgumentf("invalid alpha: %v", err)
		}
		req.Alpha = v
	}
	if s := q.Get("seed"); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, errs.InvalidArgumentf("invalid seed: %v", err)
		}
		req.Seed = &v
	}
	switch r.Method {
	case http.MethodGet:
	case http.MethodPost:
		if err := decodeJSON(r.Body, req); err != nil {
			return nil, err
		}
	default:
		return nil, errs.NewWarn("method not allowed")
	}
	if req.Alpha <= 0 || req.Alpha >= 1 {
		return nil, errs.InvalidArgumentf("alpha must be in (0,1), got %v", req.Alpha)
	}
	return req, nil
}

// decodeJSON 嚴格解碼（未知欄位即報錯），空 body 視為沒有內容。
func decodeJSON(body io.Reader, v any) error {
	if body == nil {
		return nil
	}
	dec := json.NewDecoder(io.LimitReader(body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if err == io.EOF {
			return nil
		}
		return errs.InvalidArgumentf("invalid json: %v", err)
	}
	return nil
}
