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

package demo

import (
	"github.com/zintix-labs/nslab"
	"github.com/zintix-labs/nslab/catalog"
	"github.com/zintix-labs/nslab/demo/demo_configs"
	"github.com/zintix-labs/nslab/errs"
	"github.com/zintix-labs/nslab/server/logger"
	"github.com/zintix-labs/nslab/server/svrcfg"
)

// New 回傳已註冊並凍結的 demo 目錄
func New() (*catalog.Catalog, error) {
	c, err := catalog.New(demo_configs.FS)
	if err != nil {
		return nil, err
	}
	if err := c.RegisterAll(); err != nil {
		return nil, err
	}
	c.Freeze()
	return c, nil
}

// Lab 以 demo 目錄中的設定建立 Lab
func Lab(name string) (*nslab.Lab, error) {
	c, err := New()
	if err != nil {
		return nil, err
	}
	ls, err := c.Setting(name)
	if err != nil {
		return nil, err
	}
	src, _ := c.Source(name)
	return nslab.Build(ls, src)
}

// NewRuntime 以 demo 目錄建立 runtime，每個 lab workers 個 Worker
func NewRuntime(workers int, seed int64) (*nslab.Runtime, error) {
	c, err := New()
	if err != nil {
		return nil, err
	}
	return nslab.NewRuntime(c, workers, seed)
}

func NewServerConfig() (*svrcfg.SvrCfg, error) {
	rt, err := NewRuntime(1, 1)
	if err != nil {
		return nil, errs.NewFatal("new demo runtime failed:" + err.Error())
	}
	scfg := &svrcfg.SvrCfg{
		Log:     logger.NewDefaultAsyncLogger(logger.ModeDev),
		Runtime: rt,
	}
	return scfg, nil
}
