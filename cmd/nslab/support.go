package main

import (
	"context"
	"crypto/rand"
	"log/slog"
	"math"
	"math/big"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"github.com/zintix-labs/nslab"
	"github.com/zintix-labs/nslab/catalog"
	"github.com/zintix-labs/nslab/demo"
	"github.com/zintix-labs/nslab/errs"
	"github.com/zintix-labs/nslab/sdk/perf"
	"github.com/zintix-labs/nslab/server/logger"
	"github.com/zintix-labs/nslab/setting"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	green = "\033[1;32m"
	reset = "\033[0m"
)

var printer = message.NewPrinter(language.English)

// profiled 讓每個子命令都能套用 --pprof
func profiled(fn cli.ActionFunc) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		return perf.RunPProf(func() error { return fn(ctx, cmd) }, pprofMode, pprofDir)
	}
}

// newLogger 回傳 logger 與 flush 函數；結束前要呼叫 flush 才不會漏 log。
func newLogger() (*slog.Logger, func(), error) {
	mode, err := logger.ParseMode(logMode)
	if err != nil {
		return nil, nil, err
	}
	log, ah := logger.NewAsync(4096, mode)
	return log, ah.Close, nil
}

// loadCatalog 依 --config 建立並凍結目錄：
//   - 空字串：內嵌 demo。
//   - 目錄：目錄下所有設定檔。
//   - 檔案：只註冊這一個；語料路徑相對於檔案所在目錄。
func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return demo.New()
	}
	st, err := os.Stat(path)
	if err != nil {
		return nil, errs.Wrap(err, "stat config")
	}
	var c *catalog.Catalog
	if st.IsDir() {
		if c, err = catalog.New(os.DirFS(path)); err != nil {
			return nil, err
		}
		if err := c.RegisterAll(); err != nil {
			return nil, err
		}
	} else {
		dir, base := filepath.Split(path)
		if dir == "" {
			dir = "."
		}
		fsys := os.DirFS(dir)
		ls, err := setting.LoadFS(fsys, base)
		if err != nil {
			return nil, err
		}
		if c, err = catalog.New(fsys); err != nil {
			return nil, err
		}
		if err := c.Register(catalog.Entry{Name: ls.Name, ConfigName: base}); err != nil {
			return nil, err
		}
	}
	c.Freeze()
	return c, nil
}

// pickLab 決定要用哪個 lab；只有一個時可省略 --lab
func pickLab(c *catalog.Catalog, name string) (string, error) {
	if name != "" {
		if _, ok := c.GetByName(name); !ok {
			return "", errs.InvalidArgumentf("lab %q not found (available: %v)", name, c.Names())
		}
		return name, nil
	}
	names := c.Names()
	if len(names) != 1 {
		return "", errs.InvalidArgumentf("--lab is required (available: %v)", names)
	}
	return names[0], nil
}

// loadLab 依 --config / --lab 建出 Lab
func loadLab() (*nslab.Lab, error) {
	c, err := loadCatalog(configPath)
	if err != nil {
		return nil, err
	}
	name, err := pickLab(c, labName)
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

// resolveSeed：負數時以 crypto/rand 產生
func resolveSeed(s int64) (int64, error) {
	if s >= 0 {
		return s, nil
	}
	v, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	if err != nil {
		return 0, errs.Wrap(err, "new crypto seed error in go std lib")
	}
	return v.Int64(), nil
}
