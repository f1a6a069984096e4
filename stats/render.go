package stats

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/zintix-labs/nslab/errs"
	"gopkg.in/yaml.v3"
)

var stdout io.Writer = os.Stdout

// Render 定義報表輸出行為
type Render interface {
	Write(w io.Writer, v any) error
}

// Json渲染
type JsonRender struct{}

func (jr *JsonRender) Write(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// YAML渲染
type YAMLRender struct{}

func (yr *YAMLRender) Write(w io.Writer, v any) error {
	// 不管欄位，只要是陣列（YAML Sequence），就維持外層預設展開；
	// 只有「最內層的一維陣列」或「本身就是一維陣列」時才輸出成 flow style：[..., ...]
	return forceReadableList(w, v)
}

// TableRender 只認得 *Fidelity 與 *LossSummary，其餘型別回傳錯誤
type TableRender struct {
	Used  time.Duration
	Title string
}

func (tr *TableRender) Write(w io.Writer, v any) error {
	switch r := v.(type) {
	case *Fidelity:
		return r.WriteTable(w, tr.Used)
	case *LossSummary:
		title := tr.Title
		if title == "" {
			title = "Loss"
		}
		return r.WriteTable(w, title)
	default:
		return errs.Warnf("table render does not support %T", v)
	}
}

// RenderByName 依名稱回傳 Render：table | yaml | json
func RenderByName(name string, used time.Duration) (Render, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "table":
		return &TableRender{Used: used}, nil
	case "yaml", "yml":
		return &YAMLRender{}, nil
	case "json":
		return &JsonRender{}, nil
	default:
		return nil, errs.InvalidArgumentf("unknown format %q (expected table, yaml or json)", name)
	}
}

// WriteWith 先完成計算再交給 Render
func (f *Fidelity) WriteWith(w io.Writer, rep Render) error {
	f.Done()
	return rep.Write(w, f)
}

// YAML 內層方法
func forceReadableList(w io.Writer, v any) error {
	var node yaml.Node
	if err := node.Encode(v); err != nil {
		return err
	}

	// 自頂向下調整所有 sequence node 的 style：
	// - 若該 sequence 內部「沒有子 sequence／mapping」，代表它是最內層的一維 => 用 flow style: [...]
	// - 否則保持預設 block（展開）
	styleReadableSequences(&node)

	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(&node)
}

func styleReadableSequences(n *yaml.Node) {
	if n == nil {
		return
	}

	switch n.Kind {
	case yaml.DocumentNode, yaml.MappingNode:
		for _, c := range n.Content {
			styleReadableSequences(c)
		}
		return

	case yaml.SequenceNode:
		hasChild := false
		for _, c := range n.Content {
			if c != nil && (c.Kind == yaml.SequenceNode || c.Kind == yaml.MappingNode) {
				hasChild = true
				break
			}
		}

		for _, c := range n.Content {
			styleReadableSequences(c)
		}

		if !hasChild {
			n.Style = yaml.FlowStyle
		}
		return

	default:
		// Scalar / Alias 等不處理
		return
	}
}
