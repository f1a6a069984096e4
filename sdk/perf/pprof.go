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

// Package perf 包裝 runtime/pprof：在一段工作前後寫出 profile，供性能分析或 PGO 使用。
package perf

import (
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"

	"github.com/zintix-labs/nslab/errs"
)

// DefaultDir 是 profile 的預設輸出目錄
const DefaultDir = "build/profiling"

// Modes 是支援的 profile 種類；空字串表示不做 profiling
var Modes = []string{"", "cpu", "heap", "allocs"}

// RunPProf 依 mode 執行 exe 並把 profile 寫到 dir/<mode>.pprof。
//
//   - "" ：直接執行 exe。
//   - cpu：exe 執行期間的 CPU profile。
//   - heap：exe 結束後 GC 一次，寫出 in-use 快照。
//   - allocs：exe 結束後寫出累積配置。
//
// exe 的錯誤優先回傳；profile 寫入失敗時回傳 Fatal。未知的 mode 回傳 InvalidArgument，exe 不會被執行。
func RunPProf(exe func() error, mode string, dir string) error {
	switch mode {
	case "":
		return exe()
	case "cpu", "heap", "allocs":
	default:
		return errs.InvalidArgumentf("unknown pprof mode %q (cpu|heap|allocs)", mode)
	}
	if dir == "" {
		dir = DefaultDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errs.Wrap(err, "create pprof dir")
	}
	path := filepath.Join(dir, mode+".pprof")
	if mode == "cpu" {
		return PProfCPU(exe, path)
	}

	if err := exe(); err != nil {
		return err
	}
	if mode == "heap" {
		return writeProfile(path, "heap", true)
	}
	return writeProfile(path, "allocs", false)
}

// PProfCPU 在 exe 執行期間開啟 CPU profiling，寫到 path。
func PProfCPU(exe func() error, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errs.Wrap(err, "create cpu profile")
	}
	defer f.Close()
	if err := pprof.StartCPUProfile(f); err != nil {
		return errs.Wrap(err, "start cpu profile")
	}
	defer pprof.StopCPUProfile()

	return exe()
}

// writeProfile 寫出具名 profile；gc 為真時先 GC 讓快照貼近 live objects。
func writeProfile(path string, name string, gc bool) error {
	if gc {
		runtime.GC()
	}
	prof := pprof.Lookup(name)
	if prof == nil {
		return errs.NewFatal("pprof profile not found: " + name)
	}
	f, err := os.Create(path)
	if err != nil {
		return errs.Wrap(err, "create "+name+" profile")
	}
	defer f.Close()
	if err := prof.WriteTo(f, 0); err != nil {
		return errs.Wrap(err, "write "+name+" profile")
	}
	return nil
}
