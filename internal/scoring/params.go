// Package scoring scores documents against a query vector, one segment at a time.
package scoring

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/hyperjump/fastcos/internal/codec"
	"github.com/hyperjump/fastcos/internal/vector"
)

// Script parameter names.
const (
	ParamField         = "field"
	ParamEncodedVector = "encoded_vector"
	ParamVector        = "vector"
	ParamCosine        = "cosine"
	ParamMode          = "mode"
)

var knownParams = map[string]bool{
	ParamField:         true,
	ParamEncodedVector: true,
	ParamVector:        true,
	ParamCosine:        true,
	ParamMode:          true,
}

// ErrConfiguration is matched by every *ConfigError.
var ErrConfiguration = errors.New("invalid scoring configuration")

// ConfigError reports a missing or invalid script parameter.
type ConfigError struct {
	Param  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: [%s] %s", ErrConfiguration, e.Param, e.Reason)
}

// Is reports whether target is ErrConfiguration.
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfiguration
}

// Params is the typed form of the script parameters.
type Params struct {
	// Field is the binary doc-value field holding document vectors.
	Field string
	// Vector is the query vector. It may be shared with a cached QueryVector and must not be modified.
	Vector []float64
	// Encoded is the encoded_vector parameter as given, empty when a literal vector was used.
	Encoded string
	// Mode selects how similarities are reported.
	Mode vector.Mode
}

// ParseParams validates raw script parameters. Query vectors given as encoded_vector
// are decoded with c. defaultMode applies when neither cosine nor mode is set.
func ParseParams(raw map[string]interface{}, c codec.Codec, defaultMode vector.Mode) (*Params, error) {
	return parseParams(raw, c.ParseBase64Vector, defaultMode)
}

func parseParams(raw map[string]interface{}, decode func(string) ([]float64, error), defaultMode vector.Mode) (*Params, error) {
	if err := checkUnknown(raw); err != nil {
		return nil, err
	}

	p := &Params{Mode: defaultMode}

	field, ok := raw[ParamField]
	if !ok || field == nil {
		return nil, &ConfigError{Param: ParamField, Reason: "missing parameter"}
	}
	name, ok := field.(string)
	if !ok || strings.TrimSpace(name) == "" {
		return nil, &ConfigError{Param: ParamField, Reason: "must be a non-empty string"}
	}
	p.Field = name

	encoded, hasEncoded := raw[ParamEncodedVector]
	literal, hasLiteral := raw[ParamVector]
	hasEncoded = hasEncoded && encoded != nil
	hasLiteral = hasLiteral && literal != nil
	switch {
	case hasEncoded && hasLiteral:
		return nil, &ConfigError{Param: ParamEncodedVector, Reason: "cannot be combined with [vector]"}
	case hasEncoded:
		s, ok := encoded.(string)
		if !ok {
			return nil, &ConfigError{Param: ParamEncodedVector, Reason: "must be a base64 string"}
		}
		v, err := decode(s)
		if err != nil {
			return nil, &ConfigError{Param: ParamEncodedVector, Reason: err.Error()}
		}
		p.Vector = v
		p.Encoded = s
	case hasLiteral:
		v, err := literalVector(literal)
		if err != nil {
			return nil, &ConfigError{Param: ParamVector, Reason: err.Error()}
		}
		p.Vector = v
	default:
		return nil, &ConfigError{Param: ParamEncodedVector, Reason: "must have [vector] or [encoded_vector] as a parameter"}
	}

	mode, err := parseMode(raw, defaultMode)
	if err != nil {
		return nil, err
	}
	p.Mode = mode
	return p, nil
}

func checkUnknown(raw map[string]interface{}) error {
	var unknown []string
	for k := range raw {
		if !knownParams[k] {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return &ConfigError{Param: strings.Join(unknown, ","), Reason: "unknown parameter"}
}

// parseMode combines the legacy cosine flag with the mode name.
// cosine=true selects cosine, cosine=false selects the dot product.
func parseMode(raw map[string]interface{}, defaultMode vector.Mode) (vector.Mode, error) {
	var (
		fromFlag vector.Mode
		hasFlag  bool
		fromName vector.Mode
		hasName  bool
	)
	if v, ok := raw[ParamCosine]; ok && v != nil {
		b, ok := v.(bool)
		if !ok {
			return 0, &ConfigError{Param: ParamCosine, Reason: "must be a boolean"}
		}
		hasFlag = true
		fromFlag = vector.ModeDot
		if b {
			fromFlag = vector.ModeCosine
		}
	}
	if v, ok := raw[ParamMode]; ok && v != nil {
		s, ok := v.(string)
		if !ok {
			return 0, &ConfigError{Param: ParamMode, Reason: "must be a string"}
		}
		m, err := vector.ParseMode(s)
		if err != nil {
			return 0, &ConfigError{Param: ParamMode, Reason: err.Error()}
		}
		hasName = true
		fromName = m
	}

	switch {
	case hasFlag && hasName:
		cosineFamily := fromName == vector.ModeCosine || fromName == vector.ModeUnitCosine
		if (fromFlag == vector.ModeCosine) != cosineFamily {
			return 0, &ConfigError{Param: ParamMode, Reason: fmt.Sprintf("conflicts with [cosine]=%t", fromFlag == vector.ModeCosine)}
		}
		return fromName, nil
	case hasName:
		return fromName, nil
	case hasFlag:
		return fromFlag, nil
	default:
		return defaultMode, nil
	}
}

func literalVector(v interface{}) ([]float64, error) {
	switch vals := v.(type) {
	case []float64:
		if len(vals) == 0 {
			return nil, errors.New("must not be empty")
		}
		return append([]float64(nil), vals...), nil
	case []interface{}:
		if len(vals) == 0 {
			return nil, errors.New("must not be empty")
		}
		out := make([]float64, len(vals))
		for i, x := range vals {
			switch n := x.(type) {
			case float64:
				out[i] = n
			case float32:
				out[i] = float64(n)
			case int:
				out[i] = float64(n)
			case int64:
				out[i] = float64(n)
			default:
				return nil, fmt.Errorf("element %d is %T, not a number", i, x)
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("must be a list of numbers, got %T", v)
	}
}
