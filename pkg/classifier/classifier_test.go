package classifier

import (
	"bytes"
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func identity(n int) Layer {
	l := Layer{Weight: make([][]float32, n), Bias: make([]float32, n)}
	for i := range l.Weight {
		l.Weight[i] = make([]float32, n)
		l.Weight[i][i] = 1
	}
	return l
}

func testArtifact() *Artifact {
	a := &Artifact{
		InputSize:  2,
		HiddenSize: 2,
		OutputSize: 2,
		AllWords:   []string{"hello", "caravan"},
		Tags:       []string{"greeting", "caravan"},
		ModelState: ModelState{L1: identity(2), L2: identity(2), L3: identity(2)},
	}
	a.Fingerprint = Fingerprint(a.InputSize, a.HiddenSize, a.OutputSize, a.AllWords, a.Tags)
	return a
}

func TestPredict(t *testing.T) {
	m, err := New(testArtifact())
	require.NoError(t, err)

	t.Run("argmax and softmax confidence", func(t *testing.T) {
		p, err := m.Predict([]float32{0, 1})
		require.NoError(t, err)
		assert.Equal(t, "caravan", p.Tag)
		assert.Equal(t, 1, p.Index)
		assert.InDelta(t, math.E/(math.E+1), p.Confidence, 1e-9)
	})

	t.Run("tie resolves to first tag", func(t *testing.T) {
		p, err := m.Predict([]float32{0, 0})
		require.NoError(t, err)
		assert.Equal(t, "greeting", p.Tag)
		assert.InDelta(t, 0.5, p.Confidence, 1e-9)
	})

	t.Run("wrong feature length", func(t *testing.T) {
		_, err := m.Predict([]float32{1, 0, 0})
		require.ErrorIs(t, err, ErrShapeMismatch)
	})
}

func TestSoftmaxSumsToOne(t *testing.T) {
	probs := Softmax([]float64{1000, 1001, -5})
	var sum float64
	for _, p := range probs {
		assert.GreaterOrEqual(t, p, 0.0)
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.Greater(t, probs[1], probs[0])
	assert.Nil(t, Softmax(nil))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(a *Artifact)
		want   error
	}{
		{name: "vocabulary size", mutate: func(a *Artifact) { a.AllWords = a.AllWords[:1] }, want: ErrShapeMismatch},
		{name: "tag count", mutate: func(a *Artifact) { a.OutputSize = 3 }, want: ErrShapeMismatch},
		{name: "layer columns", mutate: func(a *Artifact) { a.ModelState.L2.Weight[0] = []float32{1} }, want: ErrShapeMismatch},
		{name: "reordered vocabulary", mutate: func(a *Artifact) { a.AllWords = []string{"caravan", "hello"} }, want: ErrFingerprintMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := testArtifact()
			tt.mutate(a)
			require.ErrorIs(t, a.Validate(), tt.want)
		})
	}
}

func TestReadArtifactWithoutFingerprint(t *testing.T) {
	a := testArtifact()
	a.Fingerprint = ""
	data, err := json.Marshal(a)
	require.NoError(t, err)

	got, err := ReadArtifact(bytes.NewReader(data))
	require.NoError(t, err)

	m, err := New(got)
	require.NoError(t, err)
	assert.Equal(t, []string{"greeting", "caravan"}, m.Tags())
	assert.Equal(t, 2, m.Vocabulary().Len())
}
