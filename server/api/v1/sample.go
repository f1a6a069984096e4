package v1

import (
	"net/http"

	"github.com/zintix-labs/nslab/dto"
)

// Sample GET|POST /v1/sample
func (h *Handler) Sample(w http.ResponseWriter, r *http.Request) {
	req, err := dto.DecodeSampleRequest(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	// 請求解析完成才開始計時
	ctx, cancel := h.withTimeout(r)
	defer cancel()

	res, err := h.rt.Sample(ctx, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, r, res)
}

// Loss POST /v1/loss
func (h *Handler) Loss(w http.ResponseWriter, r *http.Request) {
	req, err := dto.DecodeLossRequest(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ctx, cancel := h.withTimeout(r)
	defer cancel()

	res, err := h.rt.Loss(ctx, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, r, res)
}
