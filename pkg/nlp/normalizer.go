// Package nlp 提供分词、词干化以及词袋向量化。
package nlp

import (
	"strings"
	"unicode"

	"github.com/kljensen/snowball/english"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Tokenize 将语句按非字母数字字符切分为小写的词元，标点被丢弃。
func Tokenize(utterance string) []string {
	folded := cases.Lower(language.English).String(norm.NFKC.String(utterance))
	return strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// Stem 返回单词的英文词干（Snowball/Porter2）。
func Stem(word string) string {
	return english.Stem(word, true)
}

// Normalize 把原始语句转换为有序的词干序列。
// 空字符串或只包含空白的输入返回空切片。
func Normalize(utterance string) []string {
	tokens := Tokenize(utterance)
	stems := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if s := Stem(tok); s != "" {
			stems = append(stems, s)
		}
	}
	return stems
}
