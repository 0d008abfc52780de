// Package engine composes every other internal package into the single
// external interface spec §6 describes: Ingest(event) and Query(tenant,
// timeql). Per spec §9's redesign note ("replace the package-level
// singleton with an Engine value callers construct explicitly"), there is
// no global state here — every dependency is a field on *Engine.
package engine

import (
	"context"
	"time"

	"github.com/traversion/causengine/internal/anomaly"
	"github.com/traversion/causengine/internal/apperrors"
	"github.com/traversion/causengine/internal/chain"
	"github.com/traversion/causengine/internal/config"
	"github.com/traversion/causengine/internal/detect"
	"github.com/traversion/causengine/internal/durable"
	"github.com/traversion/causengine/internal/eventbus"
	"github.com/traversion/causengine/internal/graph"
	"github.com/traversion/causengine/internal/logging"
	"github.com/traversion/causengine/internal/models"
	"github.com/traversion/causengine/internal/pattern"
	"github.com/traversion/causengine/internal/predict"
	"github.com/traversion/causengine/internal/querycache"
	"github.com/traversion/causengine/internal/timeql"
)

// Engine owns every piece of mutable state the causality system needs:
// the event graph, its detectors and scorer, the pattern store and chain
// cache the predictor reads from, the TimeQL executor and its result
// cache, the event bus, and an optional durable store for replay.
type Engine struct {
	cfg      config.Config
	logger   *logging.Logger
	graph    *graph.Graph
	bus      *eventbus.Bus
	patterns *pattern.Store
	chains   *chain.ActiveChains
	cache    *querycache.Cache
	executor *timeql.Executor
	store    durable.Store
}

// Option customizes a new Engine.
type Option func(*Engine)

// WithStore attaches a durable store; persistence is opportunistic and
// best-effort (a Persist/PersistEdge error is logged, never returned to
// the caller of Ingest, since the in-memory graph is the system of
// record for every query).
func WithStore(s durable.Store) Option {
	return func(e *Engine) { e.store = s }
}

// New constructs an Engine ready to accept Ingest/Query calls.
func New(cfg config.Config, opts ...Option) *Engine {
	g := graph.New()
	patterns := pattern.NewStore(cfg.PatternCap)

	e := &Engine{
		cfg:      cfg,
		logger:   logging.GetLogger("engine"),
		graph:    g,
		bus:      eventbus.New(),
		patterns: patterns,
		chains:   chain.NewActiveChains(cfg.ActiveChainsCap),
		cache:    querycache.New(cfg.QueryCacheCap, time.Duration(cfg.QueryCacheTTLMs)*time.Millisecond),
		executor: timeql.NewExecutor(g, patterns),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Bus exposes the event bus so callers (MCP server, TUI, CLI) can
// subscribe to event:processed, causality:detected, pattern:matched, and
// anomaly:detected.
func (e *Engine) Bus() *eventbus.Bus { return e.bus }

// Graph exposes the underlying graph for components (TUI) that need
// read-only introspection beyond TimeQL, e.g. Len().
func (e *Engine) Graph() *graph.Graph { return e.graph }

// IngestResult summarizes what Ingest did, for callers that want more
// than the bare node (MCP tool responses, CLI output).
type IngestResult struct {
	Node         *models.Node
	EdgesCreated []models.Edge
	Anomaly      anomaly.Result
	Pattern      *pattern.MatchResult
}

// Ingest runs the full pipeline spec §5 defines for one incoming event:
// validate, insert, detect (trace -> temporal -> service -> dataflow),
// score anomaly, extract/match pattern from the chain rooted at this
// node, publish bus events in order, opportunistically persist and
// evict, and return the resulting node.
func (e *Engine) Ingest(ctx context.Context, ev models.Event) (*IngestResult, error) {
	if field, ok := ev.Validate(); !ok {
		return nil, apperrors.InvalidEvent("missing required field", field)
	}

	e.graph.Lock()
	node, err := e.graph.Insert(ev)
	if err != nil {
		e.graph.Unlock()
		return nil, err
	}

	edgesCreated := detect.Run(e.graph, node, e.cfg)
	anomalyResult := anomaly.Score(e.graph, node, e.cfg)
	node.AnomalyScore = anomalyResult.Score

	c := chain.Trace(e.graph, node.ID(), chain.Backward, e.cfg.MaxChainDepth, e.cfg.ConfidenceThreshold)
	var matched *pattern.MatchResult
	if c != nil && len(c.Steps) > 1 {
		e.chains.Put(c)
		sig := pattern.Signature(c)
		mr := e.patterns.Ingest(sig, ev.Timestamp, ev.ServiceID, ev.EventType)
		matched = &mr
	}

	if evicted := e.graph.EvictBefore(ev.Timestamp - e.cfg.RetentionWindowMs); evicted > 0 {
		e.logger.WithFields(logging.TenantIDField(ev.TenantID)).Debug("evicted %d node(s) older than retention window", evicted)
	}
	e.graph.Unlock()

	e.bus.Publish(eventbus.TopicEventProcessed, node)
	for _, edge := range edgesCreated {
		e.bus.Publish(eventbus.TopicCausalityDetected, edge)
	}
	if matched != nil && matched.NodeFits {
		e.bus.Publish(eventbus.TopicPatternMatched, *matched)
	}
	if anomalyResult.Exceeded {
		e.bus.Publish(eventbus.TopicAnomalyDetected, anomalyResult)
	}

	if e.store != nil {
		eventLogger := e.logger.WithFields(logging.EventIDField(node.ID()), logging.TenantIDField(ev.TenantID), logging.ServiceIDField(ev.ServiceID))
		if err := e.store.Persist(ctx, node); err != nil {
			eventLogger.Warn("durable persist failed: %v", err)
		}
		for _, edge := range edgesCreated {
			edge := edge
			if err := e.store.PersistEdge(ctx, &edge); err != nil {
				eventLogger.WithFields(logging.ConfidenceField(edge.Confidence)).Warn("durable persist edge failed for %s->%s: %v", edge.From, edge.To, err)
			}
		}
	}

	return &IngestResult{Node: node, EdgesCreated: edgesCreated, Anomaly: anomalyResult, Pattern: matched}, nil
}

// Query parses and runs a TimeQL statement scoped to tenantID, serving
// from the result cache when possible (spec §4.M), and wraps the
// statement-specific payload in the {type, tenant_id, executed_at_ms,
// elapsed_ms} envelope spec §6 mandates for every query result.
//
// ctx carries the caller's cancellation signal. timeout overrides the
// configured default deadline (spec §5: "default 5 s deadline, overridable
// per call"); pass 0 to use cfg.QueryDefaultTimeoutMs.
func (e *Engine) Query(ctx context.Context, tenantID, text string, nowMs int64, timeout time.Duration) (*timeql.QueryResult, error) {
	start := time.Now()

	if timeout <= 0 {
		timeout = time.Duration(e.cfg.QueryDefaultTimeoutMs) * time.Millisecond
	}
	ctx, cancel := context.WithTimeout(context.WithValue(ctx, logging.TenantIDKey(), tenantID), timeout)
	defer cancel()
	queryLogger := e.logger.WithContext(ctx)

	stmt, err := timeql.Parse(text)
	if err != nil {
		queryLogger.Debug("query parse failed: %v", err)
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, timeql.CtxErr(ctx)
	}

	key := querycache.Key(stmt, tenantID)
	result, ok := e.cache.Get(key, time.UnixMilli(nowMs))
	if !ok {
		result, err = e.executor.Execute(ctx, stmt, tenantID, nowMs)
		if err != nil {
			return nil, err
		}
		e.cache.Put(key, result, time.UnixMilli(nowMs))
	}

	elapsedMs := time.Since(start).Milliseconds()
	queryLogger.WithFields(logging.ElapsedMsField(elapsedMs)).Debug("%s query served", stmt.Kind.String())

	return &timeql.QueryResult{
		Type:         stmt.Kind.String(),
		TenantID:     tenantID,
		ExecutedAtMs: start.UnixMilli(),
		ElapsedMs:    elapsedMs,
		Result:       result,
	}, nil
}

// FindRootCause exposes root-cause search (spec §4.I) directly, for
// callers (MCP tool, CLI) that want it without going through TimeQL.
func (e *Engine) FindRootCause(eventID string) *models.ChainStep {
	e.graph.RLock()
	defer e.graph.RUnlock()
	return chain.FindRoot(e.graph, eventID, chain.DefaultMaxDepth, chain.DefaultConfidenceThreshold)
}

// Predict exposes the predictor (spec §4.J) directly.
func (e *Engine) Predict(eventID string, horizonMs int64, minConfidence float64) []predict.Candidate {
	e.graph.RLock()
	defer e.graph.RUnlock()
	return predict.Predict(e.graph, e.patterns, eventID, horizonMs, minConfidence)
}

// Replay re-ingests every event the durable store holds since sinceMs,
// rebuilding in-memory graph state after a restart (spec §9's durability
// open question). Detectors, scoring, and pattern matching all re-run
// exactly as they did on first ingest, so replay is side-effect
// equivalent to the original ingest sequence.
func (e *Engine) Replay(ctx context.Context, sinceMs int64) (int, error) {
	if e.store == nil {
		return 0, nil
	}
	events, err := e.store.Replay(ctx, sinceMs)
	if err != nil {
		return 0, err
	}
	count := 0
	for ev := range events {
		if _, err := e.Ingest(ctx, ev); err != nil {
			e.logger.Warn("replay: skipping event %s: %v", ev.EventID, err)
			continue
		}
		count++
	}
	return count, nil
}

// Close releases the durable store, if any.
func (e *Engine) Close() error {
	if e.store != nil {
		return e.store.Close()
	}
	return nil
}
