package corpus

import "io"

// Corpus 是讀完一份語料後的結果
type Corpus struct {
	Vocab *Vocab
	IDs   []int  // 過濾低頻詞後的 ID 序列
	Pairs []Pair // skip-gram 配對
}

// Load 一次完成切詞、建詞彙表、編碼與 skip-gram 配對。
func Load(r io.Reader, minCount, window int) (*Corpus, error) {
	toks, err := Tokenize(r)
	if err != nil {
		return nil, err
	}
	v, err := VocabFromTokens(toks, minCount)
	if err != nil {
		return nil, err
	}
	ids := v.Encode(toks)
	pairs, err := SkipGram(ids, window)
	if err != nil {
		return nil, err
	}
	return &Corpus{Vocab: v, IDs: ids, Pairs: pairs}, nil
}
