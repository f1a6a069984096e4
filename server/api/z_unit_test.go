package api_test

import (
	"bytes"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/gzip"
	"github.com/zintix-labs/nslab/demo"
	"github.com/zintix-labs/nslab/dto"
	"github.com/zintix-labs/nslab/server/api"
	v1 "github.com/zintix-labs/nslab/server/api/v1"
	"github.com/zintix-labs/nslab/server/httperr"
	"github.com/zintix-labs/nslab/server/logger"
	"github.com/zintix-labs/nslab/server/netsvr"
	"github.com/zintix-labs/nslab/server/svrcfg"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	rt, err := demo.NewRuntime(2, 1)
	if err != nil {
		t.Fatal(err)
	}
	sCfg := &svrcfg.SvrCfg{
		Log:      logger.NewDefaultLogger(logger.ModeSilence),
		Runtime:  rt,
		MaxDraws: 50_000,
	}
	if err := sCfg.Vaild(); err != nil {
		t.Fatal(err)
	}
	svr := netsvr.NewChiServer(":0")
	if err := api.RegisterRoutes(svr, sCfg); err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(svr.Handler())
	t.Cleanup(func() {
		ts.Close()
		rt.Close()
	})
	return ts
}

func getJSON(t *testing.T, ts *httptest.Server, path string, out any) int {
	t.Helper()
	resp, err := http.Get(ts.URL + path)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	return decodeResp(t, resp, out)
}

func postJSON(t *testing.T, ts *httptest.Server, path string, body string, out any) int {
	t.Helper()
	resp, err := http.Post(ts.URL+path, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	return decodeResp(t, resp, out)
}

func decodeResp(t *testing.T, resp *http.Response, out any) int {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		var eb httperr.Body
		if err := json.Unmarshal(b, &eb); err == nil && out != nil {
			if p, ok := out.(*httperr.Body); ok {
				*p = eb
			}
		}
		return resp.StatusCode
	}
	if out != nil {
		if err := json.Unmarshal(b, out); err != nil {
			t.Fatalf("decode %s: %v", b, err)
		}
	}
	return resp.StatusCode
}

func TestLabsAndTable(t *testing.T) {
	ts := newTestServer(t)

	var labs v1.LabsResponse
	if code := getJSON(t, ts, "/v1/labs", &labs); code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if len(labs.Labs) != 2 || labs.Labs[0].Name != "fox" || labs.Labs[1].Name != "zipf" {
		t.Fatalf("labs %+v", labs.Labs)
	}
	if labs.Labs[1].Vocab != 12 || labs.Labs[1].Workers != 2 || labs.Labs[1].Backend != "cpu" {
		t.Fatalf("zipf summary %+v", labs.Labs[1])
	}
	if len(labs.Metrics) != 2 || labs.Metrics[0].Closed {
		t.Fatalf("metrics %+v", labs.Metrics)
	}

	var tb dto.TableResult
	if code := getJSON(t, ts, "/v1/table?lab=zipf", &tb); code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if tb.N != 12 || len(tb.Prob) != 12 || len(tb.Alias) != 12 {
		t.Fatalf("table %+v", tb)
	}
	for i, p := range tb.Prob {
		if p < 0 || p > 1 || tb.Alias[i] < 0 || tb.Alias[i] >= 12 {
			t.Fatalf("bad table entry %d: %v %d", i, p, tb.Alias[i])
		}
	}

	// 兩個 lab 時名稱不可省略
	var eb httperr.Body
	if code := getJSON(t, ts, "/v1/table", &eb); code != http.StatusBadRequest || eb.Kind != "invalid argument" {
		t.Fatalf("status %d body %+v", code, eb)
	}
}

func TestSampleAndReplay(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/v1/sample?lab=zipf&n=200")
	if err != nil {
		t.Fatal(err)
	}
	if resp.Header.Get("X-Request-Id") == "" {
		t.Fatalf("missing request id header")
	}
	var first dto.SampleResult
	if code := decodeResp(t, resp, &first); code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	resp.Body.Close()
	if len(first.Draws) != 200 || first.Lab != "zipf" || first.Words != nil {
		t.Fatalf("sample %+v", first)
	}
	for _, d := range first.Draws {
		if d == 10 {
			t.Fatalf("zero-count outcome drawn")
		}
	}
	if first.State.Before == "" || first.State.After == "" || first.State.Before == first.State.After {
		t.Fatalf("state %+v", first.State)
	}

	var replay dto.SampleResult
	body := `{"lab":"zipf","n":200,"start_b64u":"` + first.State.Before + `"}`
	if code := postJSON(t, ts, "/v1/sample", body, &replay); code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	for i := range first.Draws {
		if first.Draws[i] != replay.Draws[i] {
			t.Fatalf("replay differs at %d", i)
		}
	}
	if replay.State.After != first.State.After {
		t.Fatalf("replay should end at the same state")
	}

	var fox dto.SampleResult
	if code := getJSON(t, ts, "/v1/sample?lab=fox&n=5", &fox); code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if len(fox.Words) != 5 || fox.Backend != "compact" {
		t.Fatalf("fox sample %+v", fox)
	}

	cases := []string{
		"/v1/sample?lab=zipf&n=0",
		"/v1/sample?lab=zipf&n=abc",
		"/v1/sample?lab=nope&n=1",
		"/v1/sample?lab=zipf&n=1&start_b64u=" + url.QueryEscape("!!"),
	}
	for _, c := range cases {
		if code := getJSON(t, ts, c, nil); code != http.StatusBadRequest {
			t.Fatalf("%s: status %d", c, code)
		}
	}
}

func TestLoss(t *testing.T) {
	ts := newTestServer(t)

	// zipf 的 W 為零，每個樣本的 loss 為 (1 + sample_size)·ln2
	var res dto.LossResult
	body := `{"lab":"zipf","x":[[1,2,3,4,5,6,7,8],[0,0,0,0,0,0,0,1]],"t":[0,3],"with_negatives":true}`
	if code := postJSON(t, ts, "/v1/loss", body, &res); code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if math.Abs(res.Value-12*math.Ln2) > 1e-9 {
		t.Fatalf("loss = %v, want %v", res.Value, 12*math.Ln2)
	}
	if len(res.Negatives) != 2 || len(res.Negatives[0]) != 5 {
		t.Fatalf("negatives %+v", res.Negatives)
	}

	var no dto.LossResult
	body = `{"lab":"zipf","x":[[0,0,0,0,0,0,0,0]],"t":[1],"reduce":"no"}`
	if code := postJSON(t, ts, "/v1/loss", body, &no); code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if len(no.PerExample) != 1 || math.Abs(no.PerExample[0]-6*math.Ln2) > 1e-9 {
		t.Fatalf("per example %+v", no.PerExample)
	}

	var eb httperr.Body
	body = `{"lab":"zipf","x":[[1,2],[3]],"t":[0,1]}`
	if code := postJSON(t, ts, "/v1/loss", body, &eb); code != http.StatusBadRequest || eb.Kind != "dimension mismatch" {
		t.Fatalf("status %d body %+v", code, eb)
	}
	body = `{"lab":"zipf","x":[[1,2,3,4,5,6,7,8]],"t":[0],"reduce":"max"}`
	if code := postJSON(t, ts, "/v1/loss", body, &eb); code != http.StatusBadRequest || eb.Kind != "invalid argument" {
		t.Fatalf("status %d body %+v", code, eb)
	}
	if code := postJSON(t, ts, "/v1/loss", `{"lab":"zipf","bogus":1}`, nil); code != http.StatusBadRequest {
		t.Fatalf("unknown field should be rejected, got %d", code)
	}
	if code := getJSON(t, ts, "/v1/loss", nil); code != http.StatusMethodNotAllowed {
		t.Fatalf("GET /v1/loss status %d", code)
	}
}

func TestTrigger(t *testing.T) {
	ts := newTestServer(t)

	var res dto.TriggerResult
	body := `{"period":2,"unit":"epoch","counters":{"iteration":40,"epoch":4,"is_new_epoch":true}}`
	if code := postJSON(t, ts, "/v1/trigger", body, &res); code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if !res.Fire || res.Trigger != "2 epoch" {
		t.Fatalf("trigger %+v", res)
	}

	body = `{"period":3,"unit":"iteration","counters":{"iteration":4}}`
	if code := postJSON(t, ts, "/v1/trigger", body, &res); code != http.StatusOK || res.Fire {
		t.Fatalf("status %d fire %v", code, res.Fire)
	}

	var eb httperr.Body
	for _, b := range []string{
		`{"period":2,"unit":"day"}`,
		`{"period":0,"unit":"epoch"}`,
	} {
		if code := postJSON(t, ts, "/v1/trigger", b, &eb); code != http.StatusBadRequest || eb.Kind != "invalid argument" {
			t.Fatalf("%s: status %d body %+v", b, code, eb)
		}
	}
}

func TestFidelity(t *testing.T) {
	ts := newTestServer(t)

	var res dto.FidelityResult
	if code := getJSON(t, ts, "/v1/fidelity?lab=zipf&n=20000&seed=3", &res); code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if res.Report == nil || res.Report.Summary.Draws != 20000 || res.Alpha != 0.01 {
		t.Fatalf("fidelity %+v", res)
	}
	if res.Report.Summary.ZeroHits != 0 || res.Report.Summary.RunID == "" {
		t.Fatalf("summary %+v", res.Report.Summary)
	}

	// 同一 seed 的結果可重現
	var again dto.FidelityResult
	postJSON(t, ts, "/v1/fidelity", `{"lab":"zipf","draws":20000,"seed":3}`, &again)
	if again.Report == nil || again.Report.Summary.ChiSquare != res.Report.Summary.ChiSquare {
		t.Fatalf("same seed should give the same report")
	}

	for _, c := range []string{
		"/v1/fidelity?lab=zipf&n=0",
		"/v1/fidelity?lab=zipf&n=50001",
		"/v1/fidelity?lab=zipf&n=10&alpha=1.5",
	} {
		if code := getJSON(t, ts, c, nil); code != http.StatusBadRequest {
			t.Fatalf("%s: status %d", c, code)
		}
	}
}

func TestCompression(t *testing.T) {
	ts := newTestServer(t)

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/v1/labs", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.Header.Get("Content-Encoding") != "gzip" {
		t.Fatalf("content encoding %q", resp.Header.Get("Content-Encoding"))
	}
	raw, _ := io.ReadAll(resp.Body)
	gr, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		t.Fatal(err)
	}
	plain, err := io.ReadAll(gr)
	if err != nil {
		t.Fatal(err)
	}
	var labs v1.LabsResponse
	if err := json.Unmarshal(plain, &labs); err != nil || len(labs.Labs) != 2 {
		t.Fatalf("decoded %s: %v", plain, err)
	}
}
