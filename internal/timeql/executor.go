package timeql

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/traversion/causengine/internal/apperrors"
	"github.com/traversion/causengine/internal/chain"
	"github.com/traversion/causengine/internal/graph"
	"github.com/traversion/causengine/internal/models"
	"github.com/traversion/causengine/internal/pattern"
	"github.com/traversion/causengine/internal/predict"
)

// Executor runs parsed TimeQL statements read-only against the graph
// (spec §4.L). It never mutates graph state.
type Executor struct {
	Graph    *graph.Graph
	Patterns *pattern.Store
}

func NewExecutor(g *graph.Graph, patterns *pattern.Store) *Executor {
	return &Executor{Graph: g, Patterns: patterns}
}

// QueryResult is the envelope every query result is wrapped in (spec §6:
// "every result includes {type, tenant_id, executed_at_ms, elapsed_ms}").
// Result carries the statement-specific payload (*StateResult, *models.Chain,
// []PatternMatch, ...).
type QueryResult struct {
	Type         string      `json:"type"`
	TenantID     string      `json:"tenant_id"`
	ExecutedAtMs int64       `json:"executed_at_ms"`
	ElapsedMs    int64       `json:"elapsed_ms"`
	Result       interface{} `json:"result"`
}

// CtxErr maps a cancelled/expired context into the apperrors kind spec §5
// requires: Timeout for a deadline, Cancelled for any other cancellation.
func CtxErr(ctx context.Context) error {
	select {
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return apperrors.Timeout()
		}
		return apperrors.Cancelled()
	default:
		return nil
	}
}

// Execute runs stmt scoped to tenantID (tenant isolation, spec §3), using
// nowMs as the wall clock for relative time resolution and the default
// MATCH PATTERN window.
// ctx carries the per-query cancellation signal and deadline (spec §5);
// scan loops check it periodically and abort with Cancelled/Timeout.
func (ex *Executor) Execute(ctx context.Context, stmt *Statement, tenantID string, nowMs int64) (interface{}, error) {
	ex.Graph.RLock()
	defer ex.Graph.RUnlock()

	if err := CtxErr(ctx); err != nil {
		return nil, err
	}

	switch stmt.Kind {
	case StmtStateAt:
		return ex.stateAt(ctx, stmt, tenantID, nowMs)
	case StmtTraverse:
		return ex.traverse(ctx, stmt, tenantID)
	case StmtMatchPattern:
		return ex.matchPattern(ctx, stmt, tenantID, nowMs)
	case StmtTimeline:
		return ex.timeline(ctx, stmt, tenantID, nowMs)
	case StmtCompare:
		return ex.compare(ctx, stmt, tenantID, nowMs)
	case StmtPredict:
		return ex.predict(ctx, stmt, tenantID, nowMs)
	default:
		return nil, apperrors.Internal("unknown statement kind")
	}
}

// String renders a statement kind as the snake_case label used in
// QueryResult.Type and log output.
func (k StatementKind) String() string {
	switch k {
	case StmtStateAt:
		return "state_at"
	case StmtTraverse:
		return "traverse"
	case StmtMatchPattern:
		return "match_pattern"
	case StmtTimeline:
		return "timeline"
	case StmtCompare:
		return "compare"
	case StmtPredict:
		return "predict"
	default:
		return "unknown"
	}
}

func (ex *Executor) tenantNodes(tenantID string) []*models.Node {
	all := ex.Graph.AllNodes()
	if tenantID == "" {
		return all
	}
	out := make([]*models.Node, 0, len(all))
	for _, n := range all {
		if n.Event.TenantID == tenantID {
			out = append(out, n)
		}
	}
	return out
}

// ServiceState is one service's view within a STATE AT result.
type ServiceState struct {
	ServiceID  string         `json:"service_id"`
	Events     []models.Event `json:"events"`
	LastEvent  *models.Event  `json:"last_event"`
}

// StateResult is STATE AT's return value (§4.L).
type StateResult struct {
	Health         string                   `json:"health"`
	Services       map[string]*ServiceState `json:"services"`
	Errors         []models.Event           `json:"errors"`
	ActiveRequests []models.Event           `json:"active_requests"`
	Metrics        map[string]interface{}   `json:"metrics"`
}

var spanStartTypes = map[string]string{"span:start": "span:end", "http:request": "http:response"}

func (ex *Executor) stateAt(ctx context.Context, stmt *Statement, tenantID string, nowMs int64) (*StateResult, error) {
	t, err := Resolve(stmt.Time, nowMs)
	if err != nil {
		return nil, err
	}

	nodes := ex.tenantNodes(tenantID)
	var asOf []*models.Node
	for i, n := range nodes {
		if i%256 == 0 {
			if err := CtxErr(ctx); err != nil {
				return nil, err
			}
		}
		if n.Event.Timestamp <= t {
			asOf = append(asOf, n)
		}
	}

	result := &StateResult{
		Services: make(map[string]*ServiceState),
		Metrics:  make(map[string]interface{}),
	}

	// Build the closed-span set: any span_id with an *:end/*:response at
	// or before T.
	endTypesSeen := make(map[string]bool)
	for _, n := range asOf {
		if isCloseType(n.Event.EventType) && n.Event.SpanID != "" {
			endTypesSeen[n.Event.SpanID] = true
		}
	}

	sort.Slice(asOf, func(i, j int) bool { return asOf[i].Event.Timestamp < asOf[j].Event.Timestamp })

	for _, n := range asOf {
		svc := result.Services[n.Event.ServiceID]
		if svc == nil {
			svc = &ServiceState{ServiceID: n.Event.ServiceID}
			result.Services[n.Event.ServiceID] = svc
		}
		svc.Events = append(svc.Events, n.Event)
		ev := n.Event
		svc.LastEvent = &ev

		if n.Event.EventType == "error" || n.Event.HasError() {
			result.Errors = append(result.Errors, n.Event)
		}
		if _, open := spanStartTypes[n.Event.EventType]; open && n.Event.SpanID != "" && !endTypesSeen[n.Event.SpanID] {
			result.ActiveRequests = append(result.ActiveRequests, n.Event)
		}
		if n.Event.EventType == "system:metrics" {
			for k, v := range n.Event.Data {
				result.Metrics[k] = v
			}
		}
	}

	result.Health = classifyHealth(len(result.Errors), len(result.ActiveRequests))

	if len(stmt.Where) > 0 {
		for id, svc := range result.Services {
			match := false
			for _, ev := range svc.Events {
				ok, err := MatchConditions(&ev, stmt.Where)
				if err != nil {
					return nil, err
				}
				if ok {
					match = true
					break
				}
			}
			if !match {
				delete(result.Services, id)
			}
		}
	}
	return result, nil
}

func isCloseType(eventType string) bool {
	for _, close := range spanStartTypes {
		if close == eventType {
			return true
		}
	}
	return false
}

func classifyHealth(errorCount, activeRequests int) string {
	switch {
	case errorCount == 0 && activeRequests < 100:
		return "healthy"
	case errorCount < 5 && activeRequests < 200:
		return "degraded"
	default:
		return "critical"
	}
}

func (ex *Executor) traverse(ctx context.Context, stmt *Statement, tenantID string) (*models.Chain, error) {
	root := ex.Graph.Get(stmt.EventID)
	if root == nil {
		return nil, apperrors.NotFound(stmt.EventID)
	}
	if tenantID != "" && root.Event.TenantID != tenantID {
		return nil, apperrors.NotFound(stmt.EventID)
	}

	c := chain.Trace(ex.Graph, stmt.EventID, chain.Direction(stmt.Direction), chain.DefaultMaxDepth, chain.DefaultConfidenceThreshold)
	if c == nil {
		return nil, apperrors.NotFound(stmt.EventID)
	}
	if len(stmt.Where) == 0 {
		return c, nil
	}

	for i, step := range c.Steps {
		if i%256 == 0 {
			if err := CtxErr(ctx); err != nil {
				return nil, err
			}
		}
		n := ex.Graph.Get(step.EventID)
		if n == nil {
			continue
		}
		ok, err := MatchConditions(&n.Event, stmt.Where)
		if err != nil {
			return nil, err
		}
		if ok {
			c.Steps = c.Steps[:i+1]
			break
		}
	}
	return c, nil
}

// PatternMatch is one MATCH PATTERN result row (spec §4.L).
type PatternMatch struct {
	Events     []models.Event `json:"events"`
	DurationMs int64          `json:"duration"`
}

func (ex *Executor) matchPattern(ctx context.Context, stmt *Statement, tenantID string, nowMs int64) ([]PatternMatch, error) {
	lo := nowMs - 24*time.Hour.Milliseconds()
	if stmt.HasInLast {
		lo = nowMs - stmt.InLastAmount*UnitMs(stmt.InLastUnit)
	}
	withinMs := stmt.WithinAmount * UnitMs(stmt.WithinUnit)

	nodes := ex.tenantNodes(tenantID)
	var firstMatches []*models.Node
	for i, n := range nodes {
		if i%256 == 0 {
			if err := CtxErr(ctx); err != nil {
				return nil, err
			}
		}
		if n.Event.Timestamp < lo || n.Event.Timestamp > nowMs {
			continue
		}
		ok, err := MatchConditions(&n.Event, stmt.Where)
		if err != nil {
			return nil, err
		}
		if ok {
			firstMatches = append(firstMatches, n)
		}
	}
	sort.Slice(firstMatches, func(i, j int) bool { return firstMatches[i].Event.Timestamp < firstMatches[j].Event.Timestamp })

	var results []PatternMatch
	for _, a := range firstMatches {
		if err := CtxErr(ctx); err != nil {
			return nil, err
		}
		if !stmt.HasFollowedBy {
			results = append(results, PatternMatch{Events: []models.Event{a.Event}, DurationMs: 0})
			continue
		}
		for _, b := range nodes {
			if b.Event.Timestamp <= a.Event.Timestamp || b.Event.Timestamp > a.Event.Timestamp+withinMs {
				continue
			}
			ok, err := MatchConditions(&b.Event, stmt.FollowedBy)
			if err != nil {
				return nil, err
			}
			if ok {
				results = append(results, PatternMatch{
					Events:     []models.Event{a.Event, b.Event},
					DurationMs: b.Event.Timestamp - a.Event.Timestamp,
				})
			}
		}
	}
	return results, nil
}

// TimelineEvent is one TIMELINE result row, annotated with derived fields
// (§4.L).
type TimelineEvent struct {
	models.Event
	RelativeTime int64   `json:"relative_time"`
	TimePercent  float64 `json:"time_percent"`
}

func (ex *Executor) timeline(ctx context.Context, stmt *Statement, tenantID string, nowMs int64) ([]TimelineEvent, error) {
	start, err := Resolve(stmt.Time, nowMs)
	if err != nil {
		return nil, err
	}
	end, err := Resolve(stmt.Time2, nowMs)
	if err != nil {
		return nil, err
	}

	nodes := ex.tenantNodes(tenantID)
	var matched []*models.Node
	for i, n := range nodes {
		if i%256 == 0 {
			if err := CtxErr(ctx); err != nil {
				return nil, err
			}
		}
		if n.Event.Timestamp < start || n.Event.Timestamp > end {
			continue
		}
		if len(stmt.Where) > 0 {
			ok, err := MatchConditions(&n.Event, stmt.Where)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		matched = append(matched, n)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Event.Timestamp < matched[j].Event.Timestamp })

	out := make([]TimelineEvent, 0, len(matched))
	span := end - start
	for _, n := range matched {
		te := TimelineEvent{Event: n.Event, RelativeTime: n.Event.Timestamp - start}
		if span > 0 {
			te.TimePercent = float64(n.Event.Timestamp-start) / float64(span) * 100
		}
		out = append(out, te)
	}
	return out, nil
}

// MetricDiff is one COMPARE metric row.
type MetricDiff struct {
	Before        interface{} `json:"before"`
	After         interface{} `json:"after"`
	Change        interface{} `json:"change"`
	ChangePercent float64     `json:"change_percent"`
}

// CompareResult is COMPARE's return value.
type CompareResult struct {
	ServicesAdded         []string              `json:"services_added"`
	ServicesRemoved       []string              `json:"services_removed"`
	ServicesStatusChanged []string              `json:"services_status_changed"`
	Metrics               map[string]MetricDiff `json:"metrics"`
	ErrorsAdded           []string              `json:"errors_added"`
	ErrorsResolved        []string              `json:"errors_resolved"`
}

func (ex *Executor) compare(ctx context.Context, stmt *Statement, tenantID string, nowMs int64) (*CompareResult, error) {
	before, err := ex.stateAt(ctx, &Statement{Kind: StmtStateAt, Time: stmt.Time}, tenantID, nowMs)
	if err != nil {
		return nil, err
	}
	after, err := ex.stateAt(ctx, &Statement{Kind: StmtStateAt, Time: stmt.Time2}, tenantID, nowMs)
	if err != nil {
		return nil, err
	}

	result := &CompareResult{Metrics: make(map[string]MetricDiff)}
	for id := range after.Services {
		if _, ok := before.Services[id]; !ok {
			result.ServicesAdded = append(result.ServicesAdded, id)
		}
	}
	for id := range before.Services {
		if _, ok := after.Services[id]; !ok {
			result.ServicesRemoved = append(result.ServicesRemoved, id)
		}
	}
	for id, beforeSvc := range before.Services {
		afterSvc, ok := after.Services[id]
		if !ok || beforeSvc.LastEvent == nil || afterSvc.LastEvent == nil {
			continue
		}
		if beforeSvc.LastEvent.EventType != afterSvc.LastEvent.EventType {
			result.ServicesStatusChanged = append(result.ServicesStatusChanged, id)
		}
	}

	for _, path := range stmt.Metrics {
		bv := before.Metrics[path]
		av := after.Metrics[path]
		diff := MetricDiff{Before: bv, After: av}
		bn, bok := numeric(bv)
		an, aok := numeric(av)
		if bok && aok {
			diff.Change = an - bn
			if bn != 0 {
				diff.ChangePercent = (an - bn) / bn * 100
			}
		}
		result.Metrics[path] = diff
	}

	beforeMsgs := errorMessages(before.Errors)
	afterMsgs := errorMessages(after.Errors)
	for msg := range afterMsgs {
		if !beforeMsgs[msg] {
			result.ErrorsAdded = append(result.ErrorsAdded, msg)
		}
	}
	for msg := range beforeMsgs {
		if !afterMsgs[msg] {
			result.ErrorsResolved = append(result.ErrorsResolved, msg)
		}
	}
	return result, nil
}

func errorMessages(errors []models.Event) map[string]bool {
	out := make(map[string]bool)
	for _, e := range errors {
		if e.Data == nil {
			continue
		}
		if msg, ok := e.Data["error"].(string); ok {
			out[msg] = true
		}
	}
	return out
}

// PredictionResult is one PREDICT NEXT result row (§4.L).
type PredictionResult struct {
	predict.Candidate
	PredictedTime string  `json:"predicted_time"`
	TimeFromNow   int64   `json:"time_from_now"`
	Likelihood    string  `json:"likelihood"`
}

// PredictResult is PREDICT NEXT's return value.
type PredictResult struct {
	Predictions []PredictionResult `json:"predictions"`
	Confidence  float64            `json:"confidence"`
}

func (ex *Executor) predict(ctx context.Context, stmt *Statement, tenantID string, nowMs int64) (*PredictResult, error) {
	t := nowMs
	if stmt.HasFrom {
		resolved, err := Resolve(stmt.Time, nowMs)
		if err != nil {
			return nil, err
		}
		t = resolved
	}

	nodes := ex.tenantNodes(tenantID)
	var anchor *models.Node
	for i, n := range nodes {
		if i%256 == 0 {
			if err := CtxErr(ctx); err != nil {
				return nil, err
			}
		}
		if n.Event.Timestamp > t {
			continue
		}
		if anchor == nil || n.Event.Timestamp > anchor.Event.Timestamp {
			anchor = n
		}
	}
	if anchor == nil {
		return &PredictResult{}, nil
	}

	horizon := stmt.NextAmount * UnitMs(stmt.NextUnit)
	candidates := predict.Predict(ex.Graph, ex.Patterns, anchor.ID(), horizon, 0.3)
	if len(candidates) > 10 {
		candidates = candidates[:10]
	}

	out := make([]PredictionResult, 0, len(candidates))
	sum := 0.0
	for _, c := range candidates {
		out = append(out, PredictionResult{
			Candidate:     c,
			PredictedTime: time.UnixMilli(c.Timestamp).UTC().Format(time.RFC3339Nano),
			TimeFromNow:   c.Timestamp - t,
			Likelihood:    likelihood(c.Confidence),
		})
		sum += c.Confidence
	}
	result := &PredictResult{Predictions: out}
	if len(out) > 0 {
		result.Confidence = sum / float64(len(out))
	}
	return result, nil
}

func likelihood(confidence float64) string {
	switch {
	case confidence > 0.8:
		return "very likely"
	case confidence > 0.6:
		return "likely"
	case confidence > 0.4:
		return "possible"
	case confidence > 0.2:
		return "unlikely"
	default:
		return "very unlikely"
	}
}
