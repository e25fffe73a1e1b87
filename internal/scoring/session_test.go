package scoring

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/hyperjump/fastcos/internal/codec"
	"github.com/hyperjump/fastcos/internal/docvalues"
	"github.com/hyperjump/fastcos/internal/vector"
)

func newFactory(t *testing.T, query []float64, mode vector.Mode, opts ...FactoryOption) *Factory {
	t.Helper()
	params, err := ParseParams(map[string]interface{}{
		ParamField:         "vec",
		ParamEncodedVector: codec.Default.FormatBase64Vector(query),
		ParamMode:          mode.String(),
	}, codec.Default, vector.ModeCosine)
	require.NoError(t, err)
	f, err := NewFactory(params, opts...)
	require.NoError(t, err)
	return f
}

func segment(t *testing.T, docs map[int][]float64) *docvalues.MemoryValues {
	t.Helper()
	raw := make(map[int][]byte, len(docs))
	for doc, v := range docs {
		raw[doc] = codec.Default.Encode(v)
	}
	values, err := docvalues.NewMemoryValues(raw)
	require.NoError(t, err)
	return values
}

func TestSession_ScenarioA(t *testing.T) {
	docs := map[int][]float64{0: {0.1, 0.2}}

	raw := newFactory(t, []float64{0.2, 0.1}, vector.ModeCosine).NewSession(segment(t, docs))
	score, err := raw.Score(0)
	require.NoError(t, err)
	assert.InDelta(t, 0.8, score, 1e-9)

	unit := newFactory(t, []float64{0.2, 0.1}, vector.ModeUnitCosine).NewSession(segment(t, docs))
	score, err = unit.Score(0)
	require.NoError(t, err)
	assert.InDelta(t, 0.9, score, 1e-9)
}

func TestSession_ScenarioB_MissingValue(t *testing.T) {
	s := newFactory(t, []float64{0.2, 0.1}, vector.ModeCosine).NewSession(segment(t, map[int][]float64{
		1: {0.1, 0.2},
		4: {0.3, 0.3},
	}))

	for _, doc := range []int{0, 2, 3, 5, 100} {
		score, err := s.Score(doc)
		require.NoError(t, err, "doc %d", doc)
		assert.Equal(t, 0.0, score, "doc %d", doc)
	}
}

func TestSession_ScenarioC_ShapeMismatch(t *testing.T) {
	query := make([]float64, 512)
	query[0] = 1
	doc := make([]float64, 256)
	doc[0] = 1
	s := newFactory(t, query, vector.ModeCosine).NewSession(segment(t, map[int][]float64{3: doc}))

	_, err := s.Score(3)
	require.Error(t, err)

	var mismatch *codec.ShapeMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, 512, mismatch.Expected)
	assert.Equal(t, 256, mismatch.Actual)
	assert.Equal(t, 3, mismatch.DocID)
	assert.Contains(t, err.Error(), "512")
	assert.Contains(t, err.Error(), "256")
}

func TestSession_MalformedValueIsFatal(t *testing.T) {
	values, err := docvalues.NewMemoryValues(map[int][]byte{0: {0x02, 0x10}})
	require.NoError(t, err)
	s := newFactory(t, []float64{1, 2}, vector.ModeCosine).NewSession(values)

	_, err = s.Score(0)
	assert.ErrorIs(t, err, codec.ErrMalformedValue)
}

func TestSession_EmptyValueScoresZero(t *testing.T) {
	values, err := docvalues.NewMemoryValues(map[int][]byte{0: codec.EncodeRaw()})
	require.NoError(t, err)
	s := newFactory(t, []float64{1, 2}, vector.ModeCosine).NewSession(values)

	score, err := s.Score(0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, score)
}

func TestSession_ZeroVectors(t *testing.T) {
	docs := map[int][]float64{0: {0, 0}, 1: {1, 1}}
	for _, mode := range []vector.Mode{vector.ModeCosine, vector.ModeUnitCosine, vector.ModeDot} {
		s := newFactory(t, []float64{1, 0}, mode).NewSession(segment(t, docs))
		score, err := s.Score(0)
		require.NoError(t, err)
		assert.Equal(t, 0.0, score, "zero doc, mode %s", mode)

		z := newFactory(t, []float64{0, 0}, mode).NewSession(segment(t, docs))
		score, err = z.Score(1)
		require.NoError(t, err)
		assert.Equal(t, 0.0, score, "zero query, mode %s", mode)
	}
}

func TestSession_ProtocolViolationScoresZero(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	f := newFactory(t, []float64{1, 0}, vector.ModeCosine, WithLogger(zap.New(core)))
	s := f.NewSession(segment(t, map[int][]float64{2: {1, 0}, 5: {1, 0}}))

	score, err := s.Score(5)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, score, 1e-12)

	score, err = s.Score(2)
	require.NoError(t, err)
	assert.Equal(t, 0.0, score)
	assert.Equal(t, 1, logs.Len())

	bound := s.(*BoundSession)
	assert.Equal(t, docvalues.StateWithValue, bound.State())
}

func TestSession_SweepReusesBuffer(t *testing.T) {
	docs := map[int][]float64{}
	for i := 0; i < 100; i += 3 {
		docs[i] = []float64{float64(i), 1, 2}
	}
	s := newFactory(t, []float64{1, 1, 1}, vector.ModeCosine).NewSession(segment(t, docs)).(*BoundSession)
	buf := &s.buf[0]

	for doc := 0; doc < 100; doc++ {
		score, err := s.Score(doc)
		require.NoError(t, err)
		if v, ok := docs[doc]; ok {
			assert.InDelta(t, vector.Cosine(v, []float64{1, 1, 1}), score, 1e-12)
		} else {
			assert.Equal(t, 0.0, score)
		}
	}
	assert.Same(t, buf, &s.buf[0])
}

func TestSession_ConstantZeroForAbsentField(t *testing.T) {
	s := newFactory(t, []float64{0.2, 0.1}, vector.ModeCosine).NewSession(nil)
	_, ok := s.(*ConstantZero)
	require.True(t, ok)

	for _, doc := range []int{0, 1, 1000} {
		score, err := s.Score(doc)
		require.NoError(t, err)
		assert.Equal(t, 0.0, score)
	}
	exp, err := s.Explain(3, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, exp.Value)
}

func TestSession_ExplainMatchesScore(t *testing.T) {
	s := newFactory(t, []float64{0.2, 0.1}, vector.ModeCosine).NewSession(segment(t, map[int][]float64{0: {0.1, 0.2}}))

	score, err := s.Score(0)
	require.NoError(t, err)

	exp, err := s.Explain(0, Match(1, "*:*"))
	require.NoError(t, err)
	assert.Equal(t, score, exp.Value)
	assert.Equal(t, "cosineSimilarity(doc['vec'].value, [0.2, 0.1])", exp.Description)
	require.Len(t, exp.Details, 1)
	assert.Equal(t, "_score:", exp.Details[0].Description)
	assert.Equal(t, 1.0, exp.Details[0].Value)
	require.Len(t, exp.Details[0].Details, 1)
	assert.Equal(t, "*:*", exp.Details[0].Details[0].Description)
}

func TestSession_ExplainWithoutPriorScore(t *testing.T) {
	s := newFactory(t, []float64{0.2, 0.1}, vector.ModeUnitCosine).NewSession(segment(t, map[int][]float64{4: {0.1, 0.2}}))

	exp, err := s.Explain(4, nil)
	require.NoError(t, err)
	assert.InDelta(t, 0.9, exp.Value, 1e-9)
	assert.Empty(t, exp.Details)
	assert.Contains(t, exp.Description, "+ 1) / 2")
	assert.Contains(t, exp.String(), "= (cosineSimilarity")
}

func TestSession_ExplainEarlierDocument(t *testing.T) {
	s := newFactory(t, []float64{0.2, 0.1}, vector.ModeCosine).NewSession(segment(t, map[int][]float64{
		3: {0.1, 0.2},
		5: {0.2, 0.1},
	}))

	first, err := s.Score(3)
	require.NoError(t, err)
	second, err := s.Score(5)
	require.NoError(t, err)
	assert.InDelta(t, 0.8, first, 1e-9)
	assert.InDelta(t, 1.0, second, 1e-9)

	exp, err := s.Explain(3, nil)
	require.NoError(t, err)
	assert.Equal(t, first, exp.Value)

	exp, err = s.Explain(5, Match(1, "*:*"))
	require.NoError(t, err)
	assert.Equal(t, second, exp.Value)
}

func TestSession_ExplainUnscoredDocumentBehindCursor(t *testing.T) {
	s := newFactory(t, []float64{0.2, 0.1}, vector.ModeCosine).NewSession(segment(t, map[int][]float64{
		3: {0.1, 0.2},
		5: {0.2, 0.1},
	}))

	_, err := s.Score(5)
	require.NoError(t, err)

	_, err = s.Explain(3, nil)
	assert.ErrorIs(t, err, ErrNotScored)

	// Documents ahead of the cursor are still scored on demand.
	s2 := newFactory(t, []float64{0.2, 0.1}, vector.ModeCosine).NewSession(segment(t, map[int][]float64{5: {0.2, 0.1}}))
	exp, err := s2.Explain(5, nil)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, exp.Value, 1e-9)
}

func TestSession_ExplainDot(t *testing.T) {
	s := newFactory(t, []float64{2, 0}, vector.ModeDot).NewSession(segment(t, map[int][]float64{0: {3, 1}}))
	exp, err := s.Explain(0, nil)
	require.NoError(t, err)
	assert.Equal(t, 6.0, exp.Value)
	assert.Equal(t, "dotProduct(doc['vec'].value, [2, 0])", exp.Description)
}

func TestSession_NonFiniteDocument(t *testing.T) {
	s := newFactory(t, []float64{1, 1}, vector.ModeCosine).NewSession(segment(t, map[int][]float64{0: {math.NaN(), 1}}))
	score, err := s.Score(0)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(score))
}

func TestFactory_SharedQueryVector(t *testing.T) {
	q, err := NewQueryVector([]float64{0.2, 0.1})
	require.NoError(t, err)
	params := &Params{Field: "vec", Vector: []float64{9, 9}, Mode: vector.ModeCosine}

	f, err := NewFactory(params, WithQueryVector(q))
	require.NoError(t, err)
	assert.Same(t, q, f.Query())

	a := f.NewSession(segment(t, map[int][]float64{0: {0.1, 0.2}}))
	b := f.NewSession(segment(t, map[int][]float64{0: {0.1, 0.2}}))
	sa, err := a.Score(0)
	require.NoError(t, err)
	sb, err := b.Score(0)
	require.NoError(t, err)
	assert.Equal(t, sa, sb)
}

func TestFactory_LittleEndianCodec(t *testing.T) {
	f := newFactory(t, []float64{0.2, 0.1}, vector.ModeCosine, WithCodec(codec.LittleEndian))
	values, err := docvalues.NewMemoryValues(map[int][]byte{0: codec.LittleEndian.Encode([]float64{0.1, 0.2})})
	require.NoError(t, err)

	score, err := f.NewSession(values).Score(0)
	require.NoError(t, err)
	assert.InDelta(t, 0.8, score, 1e-9)
}

func TestQueryVector(t *testing.T) {
	src := []float64{3, 4}
	q, err := NewQueryVector(src)
	require.NoError(t, err)
	src[0] = 100

	assert.Equal(t, 2, q.Len())
	assert.Equal(t, 25.0, q.Norm())
	assert.Equal(t, []float64{3, 4}, q.Values())
	assert.Equal(t, "[3, 4]", q.String())

	_, err = NewQueryVector(nil)
	assert.Error(t, err)
}
