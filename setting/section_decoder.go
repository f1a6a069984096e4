package setting

import (
	"bytes"

	"github.com/zintix-labs/nslab/errs"
	"gopkg.in/yaml.v3"
)

// DecodeSection 會把 ls.Extra[key] 由 map[string]any 轉成你要的型別 T。
// key 為空字串時解碼整個 Extra。不存在的 key 回傳 Warn 錯誤。
func DecodeSection[T any](ls *LabSetting, key string, out *T) error {
	var src any = ls.Extra
	if key != "" {
		v, ok := ls.Extra[key]
		if !ok {
			return errs.NewWarn("setting.section_decoder : no extra section " + key)
		}
		src = v
	}
	// 先把 map[string]any -> YAML bytes
	bs, err := yaml.Marshal(src)
	if err != nil {
		return errs.Wrap(err, "setting.section_decoder : marshal failed")
	}
	// 再把 YAML bytes -> 自定義的型別
	dec := yaml.NewDecoder(bytes.NewReader(bs))
	dec.KnownFields(true) // 嚴格檢查：多寫/拼錯欄位就報錯
	if err = dec.Decode(out); err != nil {
		return errs.Wrap(err, "setting.section_decoder : decode failed")
	}
	return nil
}
