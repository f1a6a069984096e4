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

package corpus

import (
	"bufio"
	"io"
	"sort"

	"github.com/zintix-labs/nslab/errs"
)

// Vocab 是頻率由高到低排序的詞彙表，同頻以字典序排列。
type Vocab struct {
	words  []string
	counts []int
	index  map[string]int
}

// WordCount 是 Vocab 的一筆資料
type WordCount struct {
	Word  string `json:"word" yaml:"word"`
	Count int    `json:"count" yaml:"count"`
}

// Tokenize 以空白切詞，回傳所有 token
func Tokenize(r io.Reader) ([]string, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1<<24)
	sc.Split(bufio.ScanWords)
	toks := make([]string, 0, 1024)
	for sc.Scan() {
		toks = append(toks, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, errs.Wrap(err, "corpus: tokenize failed")
	}
	return toks, nil
}

// BuildVocab 讀取 r 的所有 token 並建立詞彙表，出現次數小於 minCount 的詞會被丟棄。
func BuildVocab(r io.Reader, minCount int) (*Vocab, error) {
	toks, err := Tokenize(r)
	if err != nil {
		return nil, err
	}
	return VocabFromTokens(toks, minCount)
}

// VocabFromTokens 同 BuildVocab，但直接吃已切好的 token。
func VocabFromTokens(toks []string, minCount int) (*Vocab, error) {
	if minCount < 1 {
		return nil, errs.InvalidArgumentf("min_count must be >= 1, got %d", minCount)
	}
	freq := make(map[string]int, 1024)
	for _, t := range toks {
		freq[t]++
	}
	list := make([]WordCount, 0, len(freq))
	for w, c := range freq {
		if c >= minCount {
			list = append(list, WordCount{Word: w, Count: c})
		}
	}
	if len(list) == 0 {
		return nil, errs.InvalidInputf("corpus has no word with count >= %d", minCount)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Count != list[j].Count {
			return list[i].Count > list[j].Count
		}
		return list[i].Word < list[j].Word
	})

	v := &Vocab{
		words:  make([]string, len(list)),
		counts: make([]int, len(list)),
		index:  make(map[string]int, len(list)),
	}
	for i, wc := range list {
		v.words[i] = wc.Word
		v.counts[i] = wc.Count
		v.index[wc.Word] = i
	}
	return v, nil
}

// Len 回傳詞彙量
func (v *Vocab) Len() int { return len(v.words) }

// Counts 回傳詞頻複本，順序與 ID 一致
func (v *Vocab) Counts() []int {
	return append([]int(nil), v.counts...)
}

// Word 回傳 ID 對應的詞
func (v *Vocab) Word(id int) string { return v.words[id] }

// ID 查詢詞的 ID
func (v *Vocab) ID(word string) (int, bool) {
	id, ok := v.index[word]
	return id, ok
}

// Encode 把 token 轉成 ID，不在詞彙表內的 token 直接略過。
func (v *Vocab) Encode(toks []string) []int {
	ids := make([]int, 0, len(toks))
	for _, t := range toks {
		if id, ok := v.index[t]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// Top 回傳前 n 個高頻詞
func (v *Vocab) Top(n int) []WordCount {
	if n > len(v.words) || n < 0 {
		n = len(v.words)
	}
	out := make([]WordCount, n)
	for i := 0; i < n; i++ {
		out[i] = WordCount{Word: v.words[i], Count: v.counts[i]}
	}
	return out
}

// Total 回傳詞彙表內所有 token 的出現次數總和
func (v *Vocab) Total() int {
	s := 0
	for _, c := range v.counts {
		s += c
	}
	return s
}
