package scoring

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/fastcos/internal/codec"
	"github.com/hyperjump/fastcos/internal/docvalues"
	"github.com/hyperjump/fastcos/internal/vector"
)

// ErrNotScored is returned when explaining a document that was never scored and
// lies behind the doc values cursor.
var ErrNotScored = errors.New("document was not scored and is behind the cursor")

// Factory holds the per-query state shared by the sessions of every segment.
type Factory struct {
	params *Params
	query  *QueryVector
	codec  codec.Codec
	logger *zap.Logger
}

// FactoryOption configures a Factory.
type FactoryOption func(*Factory)

// WithLogger sets the diagnostics logger handed to every session.
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithCodec sets the codec used to decode document values.
func WithCodec(c codec.Codec) FactoryOption {
	return func(f *Factory) {
		f.codec = c
	}
}

// WithQueryVector reuses an already parsed query vector instead of building one from the params.
func WithQueryVector(q *QueryVector) FactoryOption {
	return func(f *Factory) {
		f.query = q
	}
}

// NewFactory builds the per-query state from validated params.
func NewFactory(params *Params, opts ...FactoryOption) (*Factory, error) {
	if params == nil {
		return nil, &ConfigError{Param: ParamField, Reason: "missing parameters"}
	}
	f := &Factory{
		params: params,
		codec:  codec.Default,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.query == nil {
		q, err := NewQueryVector(params.Vector)
		if err != nil {
			return nil, &ConfigError{Param: ParamEncodedVector, Reason: err.Error()}
		}
		f.query = q
	}
	f.logger.Debug("scoring factory created",
		zap.String("field", params.Field),
		zap.Int("dimensions", f.query.Len()),
		zap.Stringer("mode", params.Mode),
	)
	return f, nil
}

// Params returns the parameters the factory was built from.
func (f *Factory) Params() *Params {
	return f.params
}

// Query returns the shared query vector.
func (f *Factory) Query() *QueryVector {
	return f.query
}

// NewSession binds a session to one segment. A nil accessor means the field is absent
// from the segment, in which case every document scores 0.
func (f *Factory) NewSession(values docvalues.BinaryValues) Session {
	if values == nil {
		f.logger.Warn("field has no doc values in segment, scoring all documents 0",
			zap.String("field", f.params.Field))
		return &ConstantZero{description: f.description()}
	}
	return &BoundSession{
		field:       f.params.Field,
		mode:        f.params.Mode,
		query:       f.query,
		codec:       f.codec,
		cursor:      docvalues.NewCursor(values, f.logger),
		buf:         make([]float64, f.query.Len()),
		logger:      f.logger,
		description: f.description(),
		scores:      make(map[int]float64),
	}
}

func (f *Factory) description() string {
	switch f.params.Mode {
	case vector.ModeDot:
		return fmt.Sprintf("dotProduct(doc['%s'].value, %s)", f.params.Field, f.query)
	case vector.ModeUnitCosine:
		return fmt.Sprintf("(cosineSimilarity(doc['%s'].value, %s) + 1) / 2", f.params.Field, f.query)
	default:
		return fmt.Sprintf("cosineSimilarity(doc['%s'].value, %s)", f.params.Field, f.query)
	}
}

// Session scores the documents of one segment. Documents must be presented in
// non-decreasing doc id order. A Session is not safe for concurrent use.
type Session interface {
	// Score returns the score of docID. Errors are fatal for the whole query.
	Score(docID int) (float64, error)
	// Explain describes the score of docID. sub is the score of the wrapped query and may be nil.
	Explain(docID int, sub *Explanation) (*Explanation, error)
}

// ConstantZero is the session of a segment without the vector field.
type ConstantZero struct {
	description string
}

// Score always returns 0.
func (z *ConstantZero) Score(int) (float64, error) {
	return 0, nil
}

// Explain reports the constant score.
func (z *ConstantZero) Explain(_ int, sub *Explanation) (*Explanation, error) {
	return explanation(0, z.description, sub), nil
}

// BoundSession scores documents from a segment's doc values.
type BoundSession struct {
	field       string
	mode        vector.Mode
	query       *QueryVector
	codec       codec.Codec
	cursor      *docvalues.Cursor
	buf         []float64
	logger      *zap.Logger
	description string

	// scores holds every score returned by Score, by doc id.
	scores map[int]float64
}

// Score advances to docID and scores its vector. Documents without a value, and
// requests the doc values refuse, score 0.
func (s *BoundSession) Score(docID int) (float64, error) {
	score, err := s.score(docID)
	if err != nil {
		return 0, err
	}
	s.scores[docID] = score
	return score, nil
}

func (s *BoundSession) score(docID int) (float64, error) {
	accepted, err := s.cursor.AdvanceTo(docID)
	if err != nil {
		return 0, err
	}
	if !accepted {
		return 0, nil
	}

	raw, ok, err := s.cursor.CurrentValue()
	if err != nil {
		s.logger.Error("could not read doc value", zap.Int("doc", docID), zap.Error(err))
		return 0, nil
	}
	if !ok {
		s.logger.Debug("doc has no value for field", zap.Int("doc", docID), zap.String("field", s.field))
		return 0, nil
	}

	vec, err := s.codec.Decode(raw, s.query.Len(), s.buf)
	if err != nil {
		var mismatch *codec.ShapeMismatchError
		switch {
		case errors.Is(err, codec.ErrNoValues):
			s.logger.Debug("doc value is empty", zap.Int("doc", docID), zap.String("field", s.field))
			return 0, nil
		case errors.As(err, &mismatch):
			mismatch.DocID = docID
			return 0, mismatch
		default:
			return 0, fmt.Errorf("decode doc %d of field [%s]: %w", docID, s.field, err)
		}
	}
	s.buf = vec
	return vector.Score(vec, s.query.values, s.query.norm, s.mode), nil
}

// Explain describes the score of docID with the value Score returned for it. A
// document never scored is scored now unless the cursor has already passed it.
func (s *BoundSession) Explain(docID int, sub *Explanation) (*Explanation, error) {
	score, ok := s.scores[docID]
	if !ok {
		if docID < s.cursor.Doc() {
			return nil, fmt.Errorf("explain doc %d of field [%s]: %w", docID, s.field, ErrNotScored)
		}
		var err error
		if score, err = s.Score(docID); err != nil {
			return nil, err
		}
	}
	return explanation(score, s.description, sub), nil
}

// State returns the cursor state after the last Score call.
func (s *BoundSession) State() docvalues.State {
	return s.cursor.State()
}

func explanation(score float64, description string, sub *Explanation) *Explanation {
	if sub == nil {
		return Match(score, description)
	}
	return Match(score, description, Match(sub.Value, "_score:", sub))
}
