// Package engine dispatches named scripts to the scoring implementations that compile them.
package engine

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/hyperjump/fastcos/internal/scoring"
)

// Script languages, sources and contexts known to the registry.
const (
	LangFastCosine = "fast_cosine"

	SourceStaysense = "staysense"
	SourceCosine    = "cosine"

	ContextScore = "score"
)

var (
	// ErrUnknownLang is returned for a script language without a registered engine.
	ErrUnknownLang = errors.New("unknown script language")
	// ErrUnsupportedContext is returned when an engine cannot run in the requested context.
	ErrUnsupportedContext = errors.New("unsupported script context")
	// ErrUnknownScript is returned for a script source the engine does not provide.
	ErrUnknownScript = errors.New("unknown script name")
)

// ScriptEngine compiles the scripts of one language.
type ScriptEngine interface {
	Type() string
	Compile(source, context string, params map[string]interface{}) (*scoring.Factory, error)
}

// Registry maps script languages to engines. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	engines map[string]ScriptEngine
	// DefaultLang is used when a script names no language.
	DefaultLang string
}

// NewRegistry returns a registry holding engines. The first engine is the default.
func NewRegistry(engines ...ScriptEngine) *Registry {
	r := &Registry{engines: make(map[string]ScriptEngine, len(engines))}
	for _, e := range engines {
		r.Register(e)
	}
	return r
}

// Register adds or replaces the engine for e.Type().
func (r *Registry) Register(e ScriptEngine) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.engines[e.Type()] = e
	if r.DefaultLang == "" {
		r.DefaultLang = e.Type()
	}
}

// Langs returns the registered languages, sorted.
func (r *Registry) Langs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.engines))
	for lang := range r.engines {
		out = append(out, lang)
	}
	sort.Strings(out)
	return out
}

// Compile finds the engine for lang and compiles source for context.
func (r *Registry) Compile(lang, source, context string, params map[string]interface{}) (*scoring.Factory, error) {
	r.mu.RLock()
	if lang == "" {
		lang = r.DefaultLang
	}
	e, ok := r.engines[lang]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w [%s]", ErrUnknownLang, lang)
	}
	return e.Compile(source, context, params)
}

// FastCosine is the engine of the fast_cosine language. Its scripts score
// documents by the similarity of a stored vector to the query vector.
type FastCosine struct {
	compiler *scoring.Compiler
}

// NewFastCosine returns the engine compiling scripts with compiler.
func NewFastCosine(compiler *scoring.Compiler) *FastCosine {
	return &FastCosine{compiler: compiler}
}

// Type returns fast_cosine.
func (f *FastCosine) Type() string {
	return LangFastCosine
}

// Compile builds the scoring factory for source. Only the score context is supported.
// An empty source selects staysense.
func (f *FastCosine) Compile(source, context string, params map[string]interface{}) (*scoring.Factory, error) {
	if context != ContextScore {
		return nil, fmt.Errorf("%w: %s scripts cannot be used for context [%s]", ErrUnsupportedContext, LangFastCosine, context)
	}
	switch source {
	case "", SourceStaysense, SourceCosine:
		return f.compiler.Compile(params)
	default:
		return nil, fmt.Errorf("%w %s", ErrUnknownScript, source)
	}
}

// IsScriptError reports whether err was caused by the script request rather than the data.
func IsScriptError(err error) bool {
	return errors.Is(err, ErrUnknownLang) ||
		errors.Is(err, ErrUnsupportedContext) ||
		errors.Is(err, ErrUnknownScript) ||
		errors.Is(err, scoring.ErrConfiguration)
}
