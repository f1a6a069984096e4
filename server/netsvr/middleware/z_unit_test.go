package middleware

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"
)

func TestNegotiate(t *testing.T) {
	cases := map[string]string{
		"":                     "",
		"gzip":                 encGzip,
		"gzip, zstd":           encZstd,
		"zstd;q=0, gzip;q=0.5": encGzip,
		"br":                   "",
		" GZIP ;q=1":           encGzip,
	}
	for in, want := range cases {
		if got := negotiate(in); got != want {
			t.Errorf("negotiate(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestAccessLogAndRequestID(t *testing.T) {
	var out bytes.Buffer
	log := slog.New(slog.NewTextHandler(&out, nil))
	h := RequestID(AccessLog(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		io.WriteString(w, "short and stout")
	})))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/labs?x=1", nil))

	if rr.Header().Get(RequestIDHeader) == "" {
		t.Fatalf("request id header missing")
	}
	line := out.String()
	for _, want := range []string{"level=WARN", "status=418", "bytes=15", "query=\"x=1\"", "req_id="} {
		if !strings.Contains(line, want) {
			t.Fatalf("access log missing %s:\n%s", want, line)
		}
	}
}

func TestAccessLogImplicitOK(t *testing.T) {
	var out bytes.Buffer
	log := slog.New(slog.NewTextHandler(&out, nil))
	h := AccessLog(log)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if !strings.Contains(out.String(), "status=200") || !strings.Contains(out.String(), "level=INFO") {
		t.Fatalf("unexpected log:\n%s", out.String())
	}
}

func TestRecover(t *testing.T) {
	var out bytes.Buffer
	log := slog.New(slog.NewTextHandler(&out, nil))
	h := Recover(log)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("alias table exploded")
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/loss", nil))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if !strings.Contains(out.String(), "http.panic") || !strings.Contains(out.String(), "alias table exploded") {
		t.Fatalf("panic not logged:\n%s", out.String())
	}
}

func TestCompressionZstd(t *testing.T) {
	body := strings.Repeat("negative sampling ", 512)
	h := Compression(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		io.WriteString(w, body)
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Encoding", "gzip, zstd")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if got := rr.Header().Get("Content-Encoding"); got != encZstd {
		t.Fatalf("expected zstd, got %q", got)
	}
	dec, err := zstd.NewReader(rr.Body)
	if err != nil {
		t.Fatal(err)
	}
	defer dec.Close()
	plain, err := io.ReadAll(dec)
	if err != nil {
		t.Fatal(err)
	}
	if string(plain) != body {
		t.Fatalf("round trip mismatch: %d bytes", len(plain))
	}
}
