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

package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/zintix-labs/nslab"
	"github.com/zintix-labs/nslab/errs"
	"github.com/zintix-labs/nslab/server/api"
	"github.com/zintix-labs/nslab/server/app"
	"github.com/zintix-labs/nslab/server/netsvr"
	"github.com/zintix-labs/nslab/server/svrcfg"
)

// Run 是 server 套件的「組裝器（assembler）」與「啟動入口（runtime entry）」。
//
// 它負責：
//  1. 驗證 SvrCfg（logger、Runtime 等必要依賴）。
//  2. 以 SvrCfg.Addr 建立 HTTP server（netsvr）。
//  3. 註冊路由與 middleware（api.RegisterRoutes）。
//  4. 把 server 與 Runtime 交給 app 管理，直到收到信號或任一方停止。
//
// Run 不綁定檔案路徑或環境變數；所有依賴都透過 SvrCfg 注入。
// 結束時 Runtime 一定會被關閉。
func Run(sCfg *svrcfg.SvrCfg) error {
	return RunContext(context.Background(), sCfg)
}

// RunContext 與 Run 相同，另外在 ctx 結束時也會優雅關閉。
func RunContext(ctx context.Context, sCfg *svrcfg.SvrCfg) error {
	if err := sCfg.Vaild(); err != nil {
		// 防止外層傳入的logger不可用
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return RunWithSvr(ctx, sCfg, netsvr.NewChiServer(sCfg.Addr))
}

// RunWithSvr 允許呼叫端注入自訂的 NetSvr（自己的 listener、TLS、timeout 或其他框架的 adapter），
// 其餘流程與 Run 相同。svr 不可為 nil；若是 ChiAdapter 則必須 Ready()。
func RunWithSvr(ctx context.Context, sCfg *svrcfg.SvrCfg, svr netsvr.NetSvr) error {
	if err := sCfg.Vaild(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	defer sCfg.Runtime.Close()

	if svr == nil {
		err := errs.NewFatal("svr is required")
		sCfg.Log.Error(err.Error())
		return err
	}
	if s, ok := svr.(*netsvr.ChiAdapter); ok && !s.Ready() {
		err := errs.NewFatal("default server is not ready")
		sCfg.Log.Error(err.Error())
		return err
	}

	if err := api.RegisterRoutes(svr, sCfg); err != nil {
		sCfg.Log.Error("register routes", slog.Any("err", err))
		return err
	}

	a := app.NewWith(svr, RuntimeComponent(sCfg.Runtime)).WithLogger(sCfg.Log)
	sCfg.Log.Info("[nslab] listening on http://localhost"+svr.Address(),
		slog.Any("labs", sCfg.Runtime.Names()))
	if err := a.RunContext(ctx); err != nil {
		sCfg.Log.Error("app stopped", slog.Any("err", err))
		return err
	}
	sCfg.Log.Info("[nslab] stopped", slog.String("reason", sCfg.Runtime.ClosedReason()))
	return nil
}

// RuntimeComponent 把 Runtime 包成 app.Component：
// Runtime 被關閉（例如 pool 因連續故障自我關閉）時 Run 返回，帶動整個 app 停止。
func RuntimeComponent(rt *nslab.Runtime) app.Component {
	return app.Funcs{
		RunFn: func() error {
			<-rt.Done()
			return errs.NewFatal("runtime closed: " + rt.ClosedReason())
		},
		ShutdownFn: func(context.Context) error {
			rt.Close()
			return nil
		},
	}
}
