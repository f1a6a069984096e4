package v1

import (
	"net/http"

	"github.com/zintix-labs/nslab"
	"github.com/zintix-labs/nslab/dto"
)

// LabsResponse 是 /v1/labs 的輸出
type LabsResponse struct {
	Labs    []dto.LabSummary          `json:"labs"`
	Metrics []nslab.WorkerPoolMetrics `json:"metrics"`
}

// Labs 列出所有 lab 與各自 pool 的狀態
func (h *Handler) Labs(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, LabsResponse{
		Labs:    h.rt.Summary(),
		Metrics: h.rt.Metrics(),
	})
}

// Table 回傳抽樣表的扁平陣列（?lab=）
func (h *Handler) Table(w http.ResponseWriter, r *http.Request) {
	lab, err := h.rt.Lab(r.URL.Query().Get("lab"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	t := lab.Table()
	h.writeJSON(w, r, dto.TableResult{
		Lab:     lab.Name(),
		Backend: t.Backend().String(),
		N:       t.Len(),
		Prob:    t.Prob(),
		Alias:   t.Alias(),
	})
}
