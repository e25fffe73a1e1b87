// Package search ranks documents by vector similarity, segment by segment.
package search

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/fastcos/internal/codec"
	"github.com/hyperjump/fastcos/internal/config"
	"github.com/hyperjump/fastcos/internal/docvalues"
	"github.com/hyperjump/fastcos/internal/engine"
	"github.com/hyperjump/fastcos/internal/keyword"
	"github.com/hyperjump/fastcos/internal/metrics"
	"github.com/hyperjump/fastcos/internal/models"
	"github.com/hyperjump/fastcos/internal/scoring"
	"github.com/hyperjump/fastcos/internal/storage"
)

const defaultMaxCandidates = 10000

// ErrInvalidRequest wraps request validation failures.
var ErrInvalidRequest = errors.New("invalid search request")

// Engine selects candidates by name and scores them with a compiled script.
type Engine struct {
	storage storage.Storage
	names   keyword.NameIndex
	scripts *engine.Registry
	codec   codec.Codec
	config  *config.SearchConfig
	logger  *zap.Logger
	metrics *metrics.SearchMetrics
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *zap.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.SearchMetrics) EngineOption {
	return func(e *Engine) {
		e.metrics = m
	}
}

// NewEngine creates a search engine with the given dependencies. Segments are
// written with c.
func NewEngine(
	storage storage.Storage,
	names keyword.NameIndex,
	scripts *engine.Registry,
	c codec.Codec,
	cfg *config.SearchConfig,
	opts ...EngineOption,
) *Engine {
	e := &Engine{
		storage: storage,
		names:   names,
		scripts: scripts,
		codec:   c,
		config:  cfg,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Index stores docs as a new segment and indexes their names.
func (e *Engine) Index(ctx context.Context, docs []*models.DocumentInput) (*models.Segment, error) {
	seg, err := e.storage.CreateSegment(ctx, docs, e.codec)
	if err != nil {
		return nil, fmt.Errorf("create segment: %w", err)
	}
	stored, err := e.storage.ListDocuments(ctx, seg.ID)
	if err == nil {
		err = e.names.IndexBatch(ctx, stored)
	}
	if err != nil {
		if delErr := e.storage.DeleteSegment(ctx, seg.ID); delErr != nil {
			e.logger.Error("failed to roll back segment", zap.String("segment", seg.ID), zap.Error(delErr))
		}
		return nil, fmt.Errorf("index names of segment %s: %w", seg.ID, err)
	}
	e.logger.Info("segment indexed", zap.String("segment", seg.ID), zap.Int("documents", seg.DocCount))
	e.refreshSegmentCount(ctx)
	return seg, nil
}

// DeleteSegment removes a segment from storage and the name index.
func (e *Engine) DeleteSegment(ctx context.Context, id string) error {
	if err := e.storage.DeleteSegment(ctx, id); err != nil {
		return err
	}
	if err := e.names.DeleteSegment(ctx, id); err != nil {
		return fmt.Errorf("delete names of segment %s: %w", id, err)
	}
	e.logger.Info("segment deleted", zap.String("segment", id))
	e.refreshSegmentCount(ctx)
	return nil
}

func (e *Engine) refreshSegmentCount(ctx context.Context) {
	if e.metrics == nil {
		return
	}
	segs, err := e.storage.ListSegments(ctx)
	if err != nil {
		e.logger.Warn("failed to count segments", zap.Error(err))
		return
	}
	e.metrics.SetSegments(len(segs))
}

type scoredHit struct {
	segment     string
	docID       int
	score       float64
	explanation *scoring.Explanation
}

// Search scores the candidates matching req.Query with req.Script and returns the best req.Limit.
func (e *Engine) Search(ctx context.Context, req *models.SearchRequest) (*models.SearchResponse, error) {
	startTime := time.Now()
	resp, err := e.search(ctx, req)
	e.metrics.ObserveSearch(outcome(err), time.Since(startTime))
	if err != nil {
		return nil, err
	}
	resp.QueryTime = time.Since(startTime).Milliseconds()
	return resp, nil
}

func outcome(err error) string {
	var mismatch *codec.ShapeMismatchError
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.As(err, &mismatch):
		return metrics.OutcomeShape
	case errors.Is(err, ErrInvalidRequest), engine.IsScriptError(err):
		return metrics.OutcomeInvalid
	default:
		return metrics.OutcomeFailed
	}
}

func (e *Engine) search(ctx context.Context, req *models.SearchRequest) (*models.SearchResponse, error) {
	if err := ProcessQuery(req, e.config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	factory, err := e.scripts.Compile(req.Script.Lang, req.Script.Source, engine.ContextScore, req.Script.Params)
	if err != nil {
		return nil, err
	}

	maxCandidates := e.config.MaxCandidates
	if maxCandidates <= 0 {
		maxCandidates = defaultMaxCandidates
	}
	candidates, err := e.names.Search(ctx, req.Query, maxCandidates, &keyword.SearchOptions{Fuzziness: req.Fuzziness})
	if err != nil {
		return nil, fmt.Errorf("name search failed: %w", err)
	}
	if len(candidates) == maxCandidates {
		e.logger.Debug("candidate limit reached", zap.Int("max_candidates", maxCandidates))
	}

	segments, bySegment := groupBySegment(candidates)
	subDescription := "*:*"
	if strings.TrimSpace(req.Query) != "" {
		subDescription = "name:" + req.Query
	}

	results := make([][]scoredHit, len(segments))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, segment := range segments {
		i, segment := i, segment
		g.Go(func() error {
			hits, err := e.scoreSegment(gctx, factory, segment, bySegment[segment], req.Explain, subDescription)
			if err != nil {
				return err
			}
			results[i] = hits
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []scoredHit
	for _, hits := range results {
		for _, h := range hits {
			if math.IsNaN(h.score) || math.IsInf(h.score, 0) {
				e.logger.Warn("dropping document with non-finite score",
					zap.String("segment", h.segment), zap.Int("doc", h.docID), zap.Float64("score", h.score))
				continue
			}
			all = append(all, h)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].score != all[j].score {
			return all[i].score > all[j].score
		}
		if all[i].segment != all[j].segment {
			return all[i].segment < all[j].segment
		}
		return all[i].docID < all[j].docID
	})

	resp := &models.SearchResponse{
		Hits:  make([]*models.SearchHit, 0, min(req.Limit, len(all))),
		Total: len(all),
	}
	if len(all) > 0 {
		resp.MaxScore = all[0].score
	}
	if len(all) > req.Limit {
		all = all[:req.Limit]
	}
	for _, h := range all {
		hit := &models.SearchHit{
			Segment:     h.segment,
			DocID:       h.docID,
			Score:       h.score,
			Explanation: h.explanation,
		}
		doc, err := e.storage.GetDocument(ctx, h.segment, h.docID)
		if err != nil {
			e.logger.Warn("scored document not found in storage",
				zap.String("segment", h.segment), zap.Int("doc", h.docID), zap.Error(err))
		} else {
			hit.ID = doc.ID
			hit.Name = doc.Name
		}
		resp.Hits = append(resp.Hits, hit)
	}
	return resp, nil
}

// groupBySegment returns the segments in name order and their candidates sorted by
// ascending doc id, the order doc values can be read in.
func groupBySegment(candidates []*keyword.Hit) ([]string, map[string][]*keyword.Hit) {
	bySegment := make(map[string][]*keyword.Hit)
	for _, c := range candidates {
		bySegment[c.Segment] = append(bySegment[c.Segment], c)
	}
	segments := make([]string, 0, len(bySegment))
	for segment, hits := range bySegment {
		sort.Slice(hits, func(i, j int) bool { return hits[i].DocID < hits[j].DocID })
		segments = append(segments, segment)
	}
	sort.Strings(segments)
	return segments, bySegment
}

func (e *Engine) scoreSegment(
	ctx context.Context,
	factory *scoring.Factory,
	segment string,
	candidates []*keyword.Hit,
	explain bool,
	subDescription string,
) ([]scoredHit, error) {
	rv, err := e.storage.BinaryValues(ctx, segment, factory.Params().Field)
	if err != nil {
		return nil, fmt.Errorf("open doc values of segment %s: %w", segment, err)
	}
	var values docvalues.BinaryValues
	if rv != nil {
		defer rv.Close()
		values = rv
	} else {
		e.metrics.IncAbsentField()
	}
	session := factory.NewSession(values)

	out := make([]scoredHit, 0, len(candidates))
	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		score, err := session.Score(c.DocID)
		if err != nil {
			return nil, fmt.Errorf("segment %s: %w", segment, err)
		}
		hit := scoredHit{segment: segment, docID: c.DocID, score: score}
		if explain {
			exp, err := session.Explain(c.DocID, scoring.Match(c.Score, subDescription))
			if err != nil {
				return nil, fmt.Errorf("segment %s: %w", segment, err)
			}
			hit.explanation = exp
		}
		out = append(out, hit)
	}
	e.metrics.AddScored(len(out))
	return out, nil
}
