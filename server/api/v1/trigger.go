package v1

import (
	"net/http"

	"github.com/zintix-labs/nslab/dto"
	"github.com/zintix-labs/nslab/trigger"
)

// Trigger POST /v1/trigger：給定 period / unit 與計數，回傳是否觸發
func (h *Handler) Trigger(w http.ResponseWriter, r *http.Request) {
	req, err := dto.DecodeTriggerRequest(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	it, err := trigger.NewInterval(req.Period, req.Unit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, r, dto.TriggerResult{
		Trigger:  it.String(),
		Fire:     it.Fire(req.Counters),
		Counters: req.Counters,
	})
}
