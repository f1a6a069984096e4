package v1

import (
	"net/http"

	"github.com/zintix-labs/nslab"
	"github.com/zintix-labs/nslab/dto"
	"github.com/zintix-labs/nslab/errs"
)

// Fidelity GET|POST /v1/fidelity：對 lab 的抽樣表跑一次模擬並回傳報表。
// 未指定 seed 時以 crypto/rand 產生，報表的 run_id 可用來對照 log。
func (h *Handler) Fidelity(w http.ResponseWriter, r *http.Request) {
	req, err := dto.DecodeFidelityRequest(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if req.Draws < 1 || req.Draws > h.maxDraws {
		h.fail(w, r, errs.InvalidArgumentf("n must be between 1 and %d, got %d", h.maxDraws, req.Draws))
		return
	}
	if h.rt.Closed() {
		h.fail(w, r, errs.NewFatal("runtime closed: "+h.rt.ClosedReason()))
		return
	}
	lab, err := h.rt.Lab(req.Lab)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var sim *nslab.Simulator
	if req.Seed != nil {
		sim = lab.NewSimulatorWithSeed(*req.Seed)
	} else if sim, err = lab.NewSimulator(); err != nil {
		h.fail(w, r, err)
		return
	}
	ctx, cancel := h.withTimeout(r)
	defer cancel()
	f, used, err := sim.SimContext(ctx, req.Draws, false)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, r, dto.FidelityResult{
		Report:   f,
		Pass:     f.Pass(req.Alpha),
		Alpha:    req.Alpha,
		UsedTime: used.Milliseconds(),
	})
}
