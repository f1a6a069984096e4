package setting

import (
	"bytes"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/zintix-labs/nslab/errs"
	"gopkg.in/yaml.v3"
)

// GetLabSettingByYAML
// 會讀取 YAML 設定（嚴格模式：未知欄位即報錯）、套用預設值並執行基本檢查後回傳。
func GetLabSettingByYAML(data []byte) (*LabSetting, error) {
	ls := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(ls); err != nil {
		return nil, errs.Wrap(err, "failed to unmarshall yaml")
	}

	// 設定檔初始化
	if err := ls.init(); err != nil {
		return nil, errs.Wrap(err, "lab setting initialized err")
	}
	return ls, nil
}

// GetLabSettingByJSON
// 會讀取 Json 設定、套用預設值並執行基本檢查後回傳
func GetLabSettingByJSON(data []byte) (*LabSetting, error) {
	ls := Default()
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(ls); err != nil {
		return nil, errs.Wrap(err, "can not unmarshall json byte")
	}

	if err := ls.init(); err != nil {
		return nil, errs.Wrap(err, "lab setting initialized err")
	}
	return ls, nil
}

// ParseByExt 依副檔名選擇解碼器
func ParseByExt(filename string, raw []byte) (*LabSetting, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		return GetLabSettingByYAML(raw)
	case ".json":
		return GetLabSettingByJSON(raw)
	default:
		return nil, errs.NewFatal(fmt.Sprintf("unsupported config format: %q", filename))
	}
}

// LoadFS 從 fs.FS 讀取設定檔
func LoadFS(fsys fs.FS, name string) (*LabSetting, error) {
	raw, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, errs.Wrap(err, "read lab setting failed")
	}
	return ParseByExt(name, raw)
}

// ToYAML 產生可再讀回的 YAML
func (ls *LabSetting) ToYAML() ([]byte, error) {
	return yaml.Marshal(ls)
}
