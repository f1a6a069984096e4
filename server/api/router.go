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

// Package api 把 middleware 與各版本路由掛到 NetSvr 上。
package api

import (
	"log/slog"
	"net/http"

	v1 "github.com/zintix-labs/nslab/server/api/v1"
	"github.com/zintix-labs/nslab/server/netsvr"
	"github.com/zintix-labs/nslab/server/netsvr/middleware"
	"github.com/zintix-labs/nslab/server/svrcfg"
)

// RegisterRoutes 註冊 middleware 與 v1 api；sCfg 需先通過 Vaild。
func RegisterRoutes(svr netsvr.NetRouter, sCfg *svrcfg.SvrCfg) error {
	registerMiddleware(svr, sCfg.Log)
	return registerV1API(svr, sCfg)
}

// 註冊 middleware
func registerMiddleware(svr netsvr.NetRouter, log *slog.Logger) {
	svr.Use(middleware.RequestID)
	svr.Use(middleware.AccessLog(log))
	svr.Use(middleware.Recover(log))
	svr.Use(middleware.Compression)
}

// 註冊 v1 api
func registerV1API(svr netsvr.NetRouter, sCfg *svrcfg.SvrCfg) error {
	h, err := v1.NewHandler(sCfg)
	if err != nil {
		return err
	}
	svr.Group("/v1", func(vOne netsvr.NetRouter) {
		vOne.Get("/labs", h.Labs)
		vOne.Get("/table", h.Table)

		vOne.Methods("/sample", h.Sample, http.MethodGet, http.MethodPost)
		vOne.Post("/loss", h.Loss)
		vOne.Post("/trigger", h.Trigger)

		vOne.Methods("/fidelity", h.Fidelity, http.MethodGet, http.MethodPost)
	})
	return nil
}
