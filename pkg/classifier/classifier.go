package classifier

import (
	"fmt"
	"math"

	"github.com/Vinayak-S-Khosh/CHATBOT/pkg/nlp"
)

// Prediction 是一次分类的结果。
type Prediction struct {
	Tag           string
	Index         int
	Confidence    float64
	Probabilities []float64
}

type dense struct {
	weight [][]float32
	bias   []float32
}

func (d dense) forward(x []float64, relu bool) []float64 {
	out := make([]float64, len(d.weight))
	for i, row := range d.weight {
		sum := float64(d.bias[i])
		for j, w := range row {
			sum += float64(w) * x[j]
		}
		if relu && sum < 0 {
			sum = 0
		}
		out[i] = sum
	}
	return out
}

// Model 是加载后的只读分类器。所有字段在构造后不再修改，
// 因此可以在多个请求间无锁并发调用 Predict。
type Model struct {
	vocab  *nlp.Vocabulary
	tags   []string
	layers [3]dense
}

// New 根据已校验的产物构建模型。
func New(a *Artifact) (*Model, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	vocab, err := nlp.NewVocabulary(a.AllWords)
	if err != nil {
		return nil, err
	}
	tags := make([]string, len(a.Tags))
	copy(tags, a.Tags)
	return &Model{
		vocab: vocab,
		tags:  tags,
		layers: [3]dense{
			{weight: a.ModelState.L1.Weight, bias: a.ModelState.L1.Bias},
			{weight: a.ModelState.L2.Weight, bias: a.ModelState.L2.Bias},
			{weight: a.ModelState.L3.Weight, bias: a.ModelState.L3.Bias},
		},
	}, nil
}

// LoadFile 读取本地模型产物并构建模型。
func LoadFile(path string) (*Model, error) {
	a, err := ReadArtifactFile(path)
	if err != nil {
		return nil, err
	}
	return New(a)
}

// Vocabulary 返回与模型配套的词表。
func (m *Model) Vocabulary() *nlp.Vocabulary {
	return m.vocab
}

// Tags 返回模型输出层对应的标签顺序。
func (m *Model) Tags() []string {
	cp := make([]string, len(m.tags))
	copy(cp, m.tags)
	return cp
}

// Scores 执行前向传播，返回每个标签的原始得分。
func (m *Model) Scores(features []float32) ([]float64, error) {
	if len(features) != m.vocab.Len() {
		return nil, fmt.Errorf("%w: got %d features, model expects %d", ErrShapeMismatch, len(features), m.vocab.Len())
	}
	x := make([]float64, len(features))
	for i, f := range features {
		x[i] = float64(f)
	}
	h := m.layers[0].forward(x, true)
	h = m.layers[1].forward(h, true)
	return m.layers[2].forward(h, false), nil
}

// Predict 对特征向量分类，置信度为 softmax 后最大概率。
// 多个标签概率相同时取下标最小者。
func (m *Model) Predict(features []float32) (Prediction, error) {
	scores, err := m.Scores(features)
	if err != nil {
		return Prediction{}, err
	}
	probs := Softmax(scores)
	best := 0
	for i := 1; i < len(probs); i++ {
		if probs[i] > probs[best] {
			best = i
		}
	}
	return Prediction{
		Tag:           m.tags[best],
		Index:         best,
		Confidence:    probs[best],
		Probabilities: probs,
	}, nil
}

// Softmax 将得分归一化为概率分布（先减去最大值保证数值稳定）。
func Softmax(scores []float64) []float64 {
	if len(scores) == 0 {
		return nil
	}
	maxScore := scores[0]
	for _, s := range scores[1:] {
		if s > maxScore {
			maxScore = s
		}
	}
	probs := make([]float64, len(scores))
	var sum float64
	for i, s := range scores {
		probs[i] = math.Exp(s - maxScore)
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}
