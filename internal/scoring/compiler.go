package scoring

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/fastcos/internal/codec"
	"github.com/hyperjump/fastcos/internal/vector"
)

// Compiler turns raw script parameters into factories. Query vectors given as
// encoded_vector are cached, so repeated queries skip decoding and the norm.
type Compiler struct {
	Codec       codec.Codec
	DefaultMode vector.Mode
	Cache       *QueryCache
	Logger      *zap.Logger
	// MaxDimensions rejects longer query vectors when positive.
	MaxDimensions int
}

// Compile validates raw and builds the factory for one query.
func (c *Compiler) Compile(raw map[string]interface{}) (*Factory, error) {
	decode := c.Codec.ParseBase64Vector
	var (
		key    string
		cached *QueryVector
	)
	if s, ok := raw[ParamEncodedVector].(string); ok && c.Cache != nil {
		key = c.Codec.Name() + ":" + s
		if q, hit := c.Cache.Get(key); hit {
			cached = q
			decode = func(string) ([]float64, error) { return q.values, nil }
		}
	}

	params, err := parseParams(raw, decode, c.DefaultMode)
	if err != nil {
		return nil, err
	}
	if c.MaxDimensions > 0 && len(params.Vector) > c.MaxDimensions {
		return nil, &ConfigError{
			Param:  ParamEncodedVector,
			Reason: fmt.Sprintf("vector has %d dimensions, limit is %d", len(params.Vector), c.MaxDimensions),
		}
	}

	opts := []FactoryOption{WithLogger(c.Logger), WithCodec(c.Codec)}
	if cached != nil {
		opts = append(opts, WithQueryVector(cached))
	}
	f, err := NewFactory(params, opts...)
	if err != nil {
		return nil, err
	}
	if cached == nil && key != "" {
		c.Cache.Set(key, f.Query())
	}
	return f, nil
}
