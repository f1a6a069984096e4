// Package catalog 是實驗目錄：從一或多個 fs.FS 掃描 lab 設定檔，以 lab 名稱索引。
//
// 設定檔來源必須是扁平目錄（不可有子目錄）；同名檔案跨來源重複時直接失敗。
package catalog

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/zintix-labs/nslab/errs"
	"github.com/zintix-labs/nslab/setting"
)

var ErrDupName = errs.NewFatal("duplicate lab name")

type Entry struct {
	Name       string
	ConfigName string
}

type Catalog struct {
	byName map[string]Entry
	names  []string            // 用來穩定排序
	unique map[string]struct{} // 一組實驗，檔名需唯一
	config *multiFS
	frozen bool
}

func New(cfg ...fs.FS) (*Catalog, error) {
	multFS, err := newMultiFS(cfg...)
	if err != nil {
		return nil, errs.Wrap(err, "can not create catalog")
	}
	return &Catalog{
		byName: map[string]Entry{},
		names:  make([]string, 0, 16),
		unique: map[string]struct{}{},
		config: multFS,
	}, nil
}

// Register 批次註冊；任何一筆不合法就整批拒絕。
func (c *Catalog) Register(metas ...Entry) error {
	if c.frozen {
		return errs.NewWarn("can not register when catalog already frozen")
	}
	seenName := map[string]struct{}{}
	seenCfg := map[string]struct{}{}
	for i := range metas {
		meta := &metas[i]
		meta.Name = normName(meta.Name)
		if meta.Name == "" {
			return errs.NewFatal("lab name required")
		}
		if err := validFileName(meta.ConfigName); err != nil {
			return err
		}
		if _, ok := c.config.index[meta.ConfigName]; !ok {
			return errs.NewFatal(fmt.Sprintf("config file not found: %s", meta.ConfigName))
		}
		if _, ok := c.byName[meta.Name]; ok {
			return ErrDupName
		}
		if _, ok := seenName[meta.Name]; ok {
			return ErrDupName
		}
		if _, ok := c.unique[meta.ConfigName]; ok {
			return errs.NewFatal(fmt.Sprintf("duplicate config name: %s", meta.ConfigName))
		}
		if _, ok := seenCfg[meta.ConfigName]; ok {
			return errs.NewFatal(fmt.Sprintf("duplicate config name: %s", meta.ConfigName))
		}
		seenName[meta.Name] = struct{}{}
		seenCfg[meta.ConfigName] = struct{}{}
	}
	for _, meta := range metas {
		c.unique[meta.ConfigName] = struct{}{}
		c.byName[meta.Name] = meta
		c.names = append(c.names, meta.Name)
	}
	sort.Strings(c.names)
	return nil
}

// RegisterAll
//
// 掃描所有來源中的 .yaml/.yml/.json，解析成 LabSetting，以設定內的 name 註冊。
//   - Fail-fast：任何一個檔案讀取/解析失敗都立刻回傳 error。
//   - 原子性：全部成功才一次寫入。
//   - 依檔名排序處理，行為可重現。
func (c *Catalog) RegisterAll() error {
	files := make([]string, 0, len(c.config.index))
	for name := range c.config.index {
		files = append(files, name)
	}
	if len(files) == 0 {
		return errs.NewFatal("no config files found to register")
	}
	sort.Strings(files)

	entries := make([]Entry, 0, len(files))
	for _, base := range files {
		ls, err := c.read(base)
		if err != nil {
			return err
		}
		entries = append(entries, Entry{Name: ls.Name, ConfigName: base})
	}
	return c.Register(entries...)
}

func (c *Catalog) GetByName(name string) (Entry, bool) {
	m, ok := c.byName[normName(name)]
	return m, ok
}

// Names 回傳已註冊的 lab 名稱（排序後）
func (c *Catalog) Names() []string {
	if len(c.names) == 0 {
		return nil
	}
	return append([]string(nil), c.names...)
}

func (c *Catalog) All() []Entry {
	m := make([]Entry, 0, len(c.names))
	for _, n := range c.names {
		m = append(m, c.byName[n])
	}
	return m
}

func (c *Catalog) Freeze() {
	c.frozen = true
}

func (c *Catalog) IsFrozen() bool {
	return c.frozen
}

// Setting
//
// 會讀取 fs 中的 YAML/JSON 設定、套用預設值並執行基本檢查後回傳
func (c *Catalog) Setting(name string) (*setting.LabSetting, error) {
	e, ok := c.GetByName(name)
	if !ok {
		return nil, errs.Warnf("lab %q does not exist in catalog", name)
	}
	return c.read(e.ConfigName)
}

// Source 回傳 lab 設定檔所在的 fs.FS；語料路徑相對於它解析。
func (c *Catalog) Source(name string) (fs.FS, bool) {
	e, ok := c.GetByName(name)
	if !ok {
		return nil, false
	}
	return c.config.GetFS(e.ConfigName)
}

func (c *Catalog) read(base string) (*setting.LabSetting, error) {
	src, ok := c.config.GetFS(base)
	if !ok {
		return nil, errs.Warnf("file %q does not exist in catalog", base)
	}
	raw, err := fs.ReadFile(src, base)
	if err != nil {
		return nil, errs.Wrap(err, "catalog read file error")
	}
	ls, err := setting.ParseByExt(base, raw)
	if err != nil {
		return nil, errs.Wrap(err, "parse lab setting failed: "+base)
	}
	return ls, nil
}

func normName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func isConfig(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

func validFileName(file string) error {
	if file == "" {
		return errs.NewFatal("empty config filename")
	}
	if strings.ContainsAny(file, `/\:`) {
		return errs.NewFatal(fmt.Sprintf("invalid config filename: %q (must be a basename; no / \\\\ :) ", file))
	}
	if !isConfig(file) {
		return errs.NewFatal(fmt.Sprintf("invalid config filename: %q (must end with .yaml, .yml, or .json)", file))
	}
	if strings.HasPrefix(file, ".") {
		return errs.NewFatal(fmt.Sprintf("invalid config filename: %q (cannot start with '.')", file))
	}
	return nil
}

type multiFS struct {
	src   []fs.FS
	index map[string]int // name -> src index
}

func newMultiFS(src ...fs.FS) (*multiFS, error) {
	if len(src) == 0 {
		return nil, errs.NewFatal("no fs provided")
	}
	for i, s := range src {
		if s == nil {
			return nil, errs.NewFatal(fmt.Sprintf("fs[%d] is nil", i))
		}
	}

	m := &multiFS{
		src:   src,
		index: make(map[string]int, 64),
	}
	for i := 0; i < len(src); i++ {
		err := fs.WalkDir(src[i], ".", func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path == "." {
					return nil
				}
				return errs.NewFatal(fmt.Sprintf("config FS must be flat (no subdirectories): %q", path))
			}
			// 只索引設定檔，其他檔案（語料等）略過
			if strings.HasPrefix(path, ".") || !isConfig(path) {
				return nil
			}
			if prev, ok := m.index[path]; ok {
				return errs.NewFatal(fmt.Sprintf("duplicate config %q in fs[%d] and fs[%d]", path, prev, i))
			}
			m.index[path] = i
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *multiFS) GetFS(name string) (fs.FS, bool) {
	if id, ok := m.index[name]; ok {
		return m.src[id], ok
	}
	return nil, false
}
