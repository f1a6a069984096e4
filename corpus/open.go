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

// Package corpus 負責把文字語料變成 negative sampling 需要的東西：
// 詞頻（餵給 unigram 抽樣表）、skip-gram (center, context) 配對，
// 以及按 epoch 重洗的 batch iterator（提供 trigger 使用的計數）。
package corpus

import (
	"bufio"
	"bytes"
	"io"
	"io/fs"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/zintix-labs/nslab/errs"
)

var (
	magicGzip = []byte{0x1f, 0x8b}
	magicZstd = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// Open 開啟語料檔；依檔頭自動解 gzip / zstd，否則視為純文字。
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.Wrap(err, "corpus: open failed")
	}
	rc, err := NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &stacked{ReadCloser: rc, under: f}, nil
}

// OpenFS 與 Open 相同，但從 fs.FS 讀取（例如 embed 的示範語料）。
func OpenFS(fsys fs.FS, name string) (io.ReadCloser, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, errs.Wrap(err, "corpus: open failed")
	}
	rc, err := NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &stacked{ReadCloser: rc, under: f}, nil
}

// NewReader 包裝任意 reader，偵測壓縮格式後回傳解壓後的串流。
// 回傳的 ReadCloser 只關閉解壓器，不關閉 r。
func NewReader(r io.Reader) (io.ReadCloser, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(4)
	if err != nil && err != io.EOF {
		return nil, errs.Wrap(err, "corpus: peek header failed")
	}
	switch {
	case bytes.HasPrefix(head, magicGzip):
		gr, err := gzip.NewReader(br)
		if err != nil {
			return nil, errs.Wrap(err, "corpus: gzip reader")
		}
		return gr, nil
	case bytes.HasPrefix(head, magicZstd):
		zr, err := zstd.NewReader(br, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, errs.Wrap(err, "corpus: zstd reader")
		}
		return zr.IOReadCloser(), nil
	default:
		return io.NopCloser(br), nil
	}
}

// stacked 依序關閉解壓器與底層檔案
type stacked struct {
	io.ReadCloser
	under io.Closer
}

func (s *stacked) Close() error {
	err := s.ReadCloser.Close()
	if uerr := s.under.Close(); err == nil {
		err = uerr
	}
	return err
}
