package middleware

import (
	"bufio"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// CompressConfig 壓縮等級
type CompressConfig struct {
	GzipLevel int
	ZstdLevel zstd.EncoderLevel
}

var DefaultCompressConfig = CompressConfig{
	GzipLevel: gzip.DefaultCompression,
	ZstdLevel: zstd.SpeedFastest,
}

const (
	encZstd = "zstd"
	encGzip = "gzip"
)

// encoder 是 *gzip.Writer 與 *zstd.Encoder 共有的操作
type encoder interface {
	io.Writer
	Reset(w io.Writer)
	Flush() error
	Close() error
}

var pools = map[string]*sync.Pool{
	encZstd: {New: func() any {
		zw, err := zstd.NewWriter(nil,
			zstd.WithEncoderLevel(DefaultCompressConfig.ZstdLevel),
			zstd.WithEncoderConcurrency(1),
		)
		if err != nil {
			panic(err)
		}
		return zw
	}},
	encGzip: {New: func() any {
		gw, err := gzip.NewWriterLevel(nil, DefaultCompressConfig.GzipLevel)
		if err != nil {
			gw = gzip.NewWriter(nil)
		}
		return gw
	}},
}

func acquire(enc string, w io.Writer) encoder {
	e := pools[enc].Get().(encoder)
	e.Reset(w)
	return e
}

// release 關閉並歸還；discard 為真時 footer 丟進 io.Discard
func release(enc string, e encoder, discard bool) {
	if discard {
		e.Reset(io.Discard)
	}
	_ = e.Close()
	pools[enc].Put(e)
}

// negotiate 依 Accept-Encoding 選編碼；zstd 優先，q=0 表示拒絕。
func negotiate(header string) string {
	accept := map[string]bool{}
	for _, part := range strings.Split(header, ",") {
		name, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		name = strings.ToLower(strings.TrimSpace(name))
		ok := true
		if q, found := strings.CutPrefix(strings.TrimSpace(params), "q="); found {
			if v, err := strconv.ParseFloat(q, 64); err == nil && v == 0 {
				ok = false
			}
		}
		accept[name] = ok
	}
	for _, enc := range []string{encZstd, encGzip} {
		if accept[enc] {
			return enc
		}
	}
	return ""
}

func skipCompression(r *http.Request) bool {
	return r.Method == http.MethodHead ||
		strings.Contains(strings.ToLower(r.Header.Get("Connection")), "upgrade") ||
		r.Header.Get("Upgrade") != ""
}

func isNoBodyStatus(code int) bool {
	return (code >= 100 && code < 200) || code == http.StatusNoContent || code == http.StatusNotModified
}

type compressResponseWriter struct {
	http.ResponseWriter
	enc      encoder
	disabled bool // 204/304/1xx 不帶 body
}

func (cw *compressResponseWriter) Write(b []byte) (int, error) {
	if cw.disabled {
		return cw.ResponseWriter.Write(b)
	}
	cw.Header().Del("Content-Length")
	if cw.Header().Get("Content-Type") == "" {
		cw.Header().Set("Content-Type", http.DetectContentType(b))
	}
	return cw.enc.Write(b)
}

func (cw *compressResponseWriter) WriteHeader(code int) {
	cw.Header().Del("Content-Length")
	if isNoBodyStatus(code) {
		cw.disabled = true
		cw.Header().Del("Content-Encoding")
		cw.Header().Del("Vary")
	}
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *compressResponseWriter) Flush() {
	if !cw.disabled {
		_ = cw.enc.Flush()
	}
	if f, ok := cw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (cw *compressResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := cw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("underlying response writer does not support Hijacker")
	}
	return hj.Hijack()
}

// Compression 以 zstd 或 gzip 壓縮回應。
// 已帶 Content-Encoding 的回應、HEAD 與 upgrade 請求不處理。
func Compression(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if skipCompression(r) || w.Header().Get("Content-Encoding") != "" {
			next.ServeHTTP(w, r)
			return
		}
		enc := negotiate(r.Header.Get("Accept-Encoding"))
		if enc == "" {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("Content-Encoding", enc)
		w.Header().Add("Vary", "Accept-Encoding")
		cw := &compressResponseWriter{ResponseWriter: w, enc: acquire(enc, w)}
		defer func() { release(enc, cw.enc, cw.disabled) }()

		next.ServeHTTP(cw, r)
	})
}
