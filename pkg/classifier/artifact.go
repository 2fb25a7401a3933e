// Package classifier 加载训练好的词袋前馈网络并对特征向量做意图分类。
package classifier

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/crypto/blake2b"
)

var (
	// ErrShapeMismatch 表示产物中的维度信息与权重、词表或标签数量不一致。
	ErrShapeMismatch = errors.New("model artifact shape mismatch")
	// ErrFingerprintMismatch 表示词表/标签与模型训练时记录的指纹不一致。
	ErrFingerprintMismatch = errors.New("model artifact fingerprint mismatch")
)

// Layer 是一个全连接层，Weight 按 [out][in] 行优先存放。
type Layer struct {
	Weight [][]float32 `json:"weight"`
	Bias   []float32   `json:"bias"`
}

// ModelState 对应三层网络 l1 -> ReLU -> l2 -> ReLU -> l3。
type ModelState struct {
	L1 Layer `json:"l1"`
	L2 Layer `json:"l2"`
	L3 Layer `json:"l3"`
}

// Artifact 是训练脚本导出的模型文件，词表与标签顺序和权重一同保存。
type Artifact struct {
	InputSize   int        `json:"input_size"`
	HiddenSize  int        `json:"hidden_size"`
	OutputSize  int        `json:"output_size"`
	AllWords    []string   `json:"all_words"`
	Tags        []string   `json:"tags"`
	Fingerprint string     `json:"fingerprint,omitempty"`
	ModelState  ModelState `json:"model_state"`
}

// Fingerprint 计算维度、词表与标签顺序的 BLAKE2b-256 摘要。
// 训练端写入同样的摘要，加载时比对即可发现词表与模型不配套。
func Fingerprint(inputSize, hiddenSize, outputSize int, words, tags []string) string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(inputSize))
	b.WriteByte(':')
	b.WriteString(strconv.Itoa(hiddenSize))
	b.WriteByte(':')
	b.WriteString(strconv.Itoa(outputSize))
	b.WriteByte('\n')
	b.WriteString(strings.Join(words, "\n"))
	b.WriteByte(0)
	b.WriteString(strings.Join(tags, "\n"))
	sum := blake2b.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// Validate 检查产物内部的一致性。
func (a *Artifact) Validate() error {
	if a.InputSize <= 0 || a.HiddenSize <= 0 || a.OutputSize <= 0 {
		return fmt.Errorf("%w: non-positive dimensions %d/%d/%d", ErrShapeMismatch, a.InputSize, a.HiddenSize, a.OutputSize)
	}
	if len(a.AllWords) != a.InputSize {
		return fmt.Errorf("%w: input_size=%d but vocabulary has %d words", ErrShapeMismatch, a.InputSize, len(a.AllWords))
	}
	if len(a.Tags) != a.OutputSize {
		return fmt.Errorf("%w: output_size=%d but %d tags", ErrShapeMismatch, a.OutputSize, len(a.Tags))
	}
	if err := checkLayer("l1", a.ModelState.L1, a.InputSize, a.HiddenSize); err != nil {
		return err
	}
	if err := checkLayer("l2", a.ModelState.L2, a.HiddenSize, a.HiddenSize); err != nil {
		return err
	}
	if err := checkLayer("l3", a.ModelState.L3, a.HiddenSize, a.OutputSize); err != nil {
		return err
	}
	if a.Fingerprint != "" {
		want := Fingerprint(a.InputSize, a.HiddenSize, a.OutputSize, a.AllWords, a.Tags)
		if !strings.EqualFold(a.Fingerprint, want) {
			return fmt.Errorf("%w: artifact=%s computed=%s", ErrFingerprintMismatch, a.Fingerprint, want)
		}
	}
	return nil
}

func checkLayer(name string, l Layer, in, out int) error {
	if len(l.Weight) != out || len(l.Bias) != out {
		return fmt.Errorf("%w: %s expects %d output rows, got weight=%d bias=%d", ErrShapeMismatch, name, out, len(l.Weight), len(l.Bias))
	}
	for i, row := range l.Weight {
		if len(row) != in {
			return fmt.Errorf("%w: %s row %d has %d columns, want %d", ErrShapeMismatch, name, i, len(row), in)
		}
	}
	return nil
}

// ReadArtifact 从 reader 解析并校验模型产物。
func ReadArtifact(r io.Reader) (*Artifact, error) {
	var a Artifact
	if err := json.NewDecoder(r).Decode(&a); err != nil {
		return nil, fmt.Errorf("failed to decode model artifact: %w", err)
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return &a, nil
}

// ReadArtifactFile 从本地文件读取模型产物。
func ReadArtifactFile(path string) (*Artifact, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open model artifact: %w", err)
	}
	defer f.Close()
	return ReadArtifact(f)
}
