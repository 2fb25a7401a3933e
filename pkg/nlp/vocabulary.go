package nlp

import (
	"errors"
	"fmt"
)

// ErrInvalidVocabulary 表示词表为空或包含重复词干。
var ErrInvalidVocabulary = errors.New("invalid vocabulary")

// Vocabulary 是固定顺序的已知词干集合，决定特征向量每一维的含义。
// 加载后不可变，可被多个请求并发读取。
type Vocabulary struct {
	words []string
	index map[string]int
}

// NewVocabulary 根据训练时保存的词干顺序构建词表。
func NewVocabulary(words []string) (*Vocabulary, error) {
	if len(words) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrInvalidVocabulary)
	}
	index := make(map[string]int, len(words))
	for i, w := range words {
		if _, dup := index[w]; dup {
			return nil, fmt.Errorf("%w: duplicate stem %q at %d", ErrInvalidVocabulary, w, i)
		}
		index[w] = i
	}
	cp := make([]string, len(words))
	copy(cp, words)
	return &Vocabulary{words: cp, index: index}, nil
}

// Len 返回词表长度，即模型的输入维度。
func (v *Vocabulary) Len() int {
	return len(v.words)
}

// Words 返回词表的副本。
func (v *Vocabulary) Words() []string {
	cp := make([]string, len(v.words))
	copy(cp, v.words)
	return cp
}

// BagOfWords 将词干序列编码为二值词袋向量。
// 只看是否出现，不计次数；不在词表中的词干被忽略。
func (v *Vocabulary) BagOfWords(stems []string) []float32 {
	vec := make([]float32, len(v.words))
	for _, s := range stems {
		if i, ok := v.index[s]; ok {
			vec[i] = 1
		}
	}
	return vec
}
