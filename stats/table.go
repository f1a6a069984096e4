package stats

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var lang language.Tag = language.English

// tableRows 是 StdOut 預設列出的結果數
const tableRows = 10

// WriteTable 以對齊表格輸出報告摘要與前幾個高機率結果
func (f *Fidelity) WriteTable(w io.Writer, used time.Duration) error {
	f.Done()
	var sb strings.Builder
	sb.WriteString(formatDuration(used, f.Summary.Draws))
	sk, sm := f.fmtBasic()
	sb.WriteString(fmtTable(f.Summary.Name, sk, sm))
	ok, om := f.fmtOutcomes(tableRows)
	sb.WriteString(fmtTable("Top outcomes", ok, om))
	_, err := io.WriteString(w, sb.String())
	return err
}

// StdOut 輸出到標準輸出
func (f *Fidelity) StdOut(used time.Duration) {
	_ = f.WriteTable(stdout, used)
}

// WriteTable 以對齊表格輸出損失摘要
func (ls *LossSummary) WriteTable(w io.Writer, title string) error {
	p := message.NewPrinter(lang)
	msg := map[string]string{
		"Steps":       p.Sprintf("%d", ls.N),
		"Mean Loss":   p.Sprintf("%.6f", ls.Mean),
		"Std":         p.Sprintf("%.6f", ls.Std),
		"Min":         p.Sprintf("%.6f", ls.Min),
		"Median":      p.Sprintf("%.6f", ls.Median),
		"Max":         p.Sprintf("%.6f", ls.Max),
		"Mean 95% CI": p.Sprintf("[%.6f, %.6f]", ls.MeanCI.Lo, ls.MeanCI.Hi),
	}
	keys := []string{"Steps", "Mean Loss", "Std", "Min", "Median", "Max", "Mean 95% CI"}
	_, err := io.WriteString(w, fmtTable(title, keys, msg))
	return err
}

// ============================================================
// ** 內部方法 **
// ============================================================

func formatDuration(d time.Duration, draws int) string {
	p := message.NewPrinter(lang)
	if d < 0 {
		d = -d
	}
	sec := d.Seconds()
	if sec <= 0 {
		sec = 1e-9
	}
	dps := int(float64(draws) / sec)
	if sec < 60.0 {
		return p.Sprintf("used: %.2f seconds\ndps : %d draws/sec\n", sec, dps)
	}
	s := int(d.Seconds()) % 60
	m := int(d.Minutes()) % 60
	h := int(d.Hours())
	if h == 0 {
		return p.Sprintf("used: %dm %ds\ndps : %d draws/sec\n", m, s, dps)
	}
	return p.Sprintf("used: %dh:%dm:%ds\ndps : %d draws/sec\n", h, m, s, dps)
}

func (f *Fidelity) fmtBasic() ([]string, map[string]string) {
	p := message.NewPrinter(lang)
	s := f.Summary
	basic := map[string]string{
		"Run ID":        s.RunID,
		"Backend":       s.Backend,
		"Total Draws":   p.Sprintf("%d", s.Draws),
		"Outcomes":      p.Sprintf("%d (%d supported)", len(f.Outcomes), s.Support),
		"Chi-Square":    p.Sprintf("%.3f", s.ChiSquare),
		"DF":            p.Sprintf("%d", s.DF),
		"P-Value":       p.Sprintf("%.4f", s.PValue),
		"Max |obs-exp|": p.Sprintf("%.3e @ %d", s.MaxAbsDev, s.MaxDevIndex),
		"Outside 95%":   p.Sprintf("%d", s.OutsideCI),
		"Zero Hits":     p.Sprintf("%d", s.ZeroHits),
	}
	keys := []string{"Run ID", "Backend", "Total Draws", "Outcomes", "Chi-Square", "DF", "P-Value", "Max |obs-exp|", "Outside 95%", "Zero Hits"}
	if s.RunID == "" {
		keys = keys[1:]
	}
	return keys, basic
}

func (f *Fidelity) fmtOutcomes(n int) ([]string, map[string]string) {
	top := f.Top(n)
	keys := make([]string, 0, len(top))
	msg := make(map[string]string, len(top))
	for _, o := range top {
		k := fmt.Sprintf("#%d", o.Index)
		if o.Label != "" {
			k = fmt.Sprintf("#%d %s", o.Index, o.Label)
		}
		keys = append(keys, k)
		msg[k] = fmt.Sprintf("exp %.4f%%  obs %.4f%%  [%.4f%%, %.4f%%]",
			100*o.Expected, 100*o.Observed, 100*o.CI.Lo, 100*o.CI.Hi)
	}
	return keys, msg
}

func fmtTable(title string, keys []string, msg map[string]string) string {
	p := message.NewPrinter(lang)
	maxKeyLen := 0
	maxValLen := 0
	for _, k := range keys {
		if w := runewidth.StringWidth(k); w > maxKeyLen {
			maxKeyLen = w
		}
		if w := runewidth.StringWidth(msg[k]); w > maxValLen {
			maxValLen = w
		}
	}
	maxKeyLen += 2
	maxValLen += 2

	totalInner := maxKeyLen + maxValLen + 1
	titleW := runewidth.StringWidth(title)
	if titleW > totalInner {
		maxValLen += titleW - totalInner
		totalInner = titleW
	}

	divider := "+" + strings.Repeat("-", maxKeyLen) + "+" + strings.Repeat("-", maxValLen) + "+\n"
	top := "+" + strings.Repeat("-", totalInner) + "+\n"

	left := (totalInner - titleW) / 2
	right := totalInner - titleW - left

	var sb strings.Builder
	sb.WriteString(top)
	sb.WriteString(p.Sprintf("|%s%s%s|\n", blank(left), title, blank(right)))
	sb.WriteString(divider)
	for _, k := range keys {
		sb.WriteString(p.Sprintf("| %s%s | %s%s |\n", k, blank(maxKeyLen-2-runewidth.StringWidth(k)), msg[k], blank(maxValLen-2-runewidth.StringWidth(msg[k]))))
	}
	sb.WriteString(divider)
	return sb.String()
}

func blank(w int) string {
	if w < 1 {
		return ""
	}
	return strings.Repeat(" ", w)
}
