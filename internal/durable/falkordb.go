package durable

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/FalkorDB/falkordb-go/v2"

	"github.com/traversion/causengine/internal/logging"
	"github.com/traversion/causengine/internal/models"
)

// FalkorDBConfig configures the FalkorDB-backed durable store, mirroring
// the teacher's graph.ClientConfig fields relevant to a single logical
// graph.
type FalkorDBConfig struct {
	Host         string
	Port         int
	Password     string
	GraphName    string
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int
}

func DefaultFalkorDBConfig() FalkorDBConfig {
	return FalkorDBConfig{
		Host:         "localhost",
		Port:         6379,
		GraphName:    "causengine",
		DialTimeout:  30 * time.Second,
		ReadTimeout:  120 * time.Second,
		WriteTimeout: 120 * time.Second,
		PoolSize:     10,
	}
}

// FalkorStore persists events and edges as a property graph in FalkorDB,
// using the same hand-built Cypher string approach as the teacher's
// graph.Client (no query builder dependency in the pack covers parameterized
// Cypher, so this follows the teacher's pattern rather than introducing one).
type FalkorStore struct {
	cfg    FalkorDBConfig
	logger *logging.Logger
	db     *falkordb.FalkorDB
	graph  *falkordb.Graph
}

// NewFalkorStore connects to FalkorDB and selects cfg.GraphName.
func NewFalkorStore(cfg FalkorDBConfig) (*FalkorStore, error) {
	logger := logging.GetLogger("durable.falkordb")

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	db, err := falkordb.FalkorDBNew(&falkordb.ConnectionOption{
		Addr:         addr,
		Password:     cfg.Password,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolSize:     cfg.PoolSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create FalkorDB client: %w", err)
	}

	return &FalkorStore{
		cfg:    cfg,
		logger: logger,
		db:     db,
		graph:  db.SelectGraph(cfg.GraphName),
	}, nil
}

func (s *FalkorStore) Persist(ctx context.Context, node *models.Node) error {
	props, err := eventProperties(node.Event)
	if err != nil {
		return err
	}
	query := fmt.Sprintf("MERGE (e:Event {event_id: '%s'}) SET e += %s", escapeCypher(node.Event.EventID), props)
	_, err = s.graph.Query(query, nil, nil)
	return err
}

func (s *FalkorStore) PersistEdge(ctx context.Context, edge *models.Edge) error {
	query := fmt.Sprintf(
		"MATCH (a:Event {event_id: '%s'}), (b:Event {event_id: '%s'}) MERGE (a)-[r:CAUSES {type: '%s'}]->(b) SET r.confidence = %f, r.target_timestamp = %d",
		escapeCypher(edge.From), escapeCypher(edge.To), escapeCypher(string(edge.Type)), edge.Confidence, edge.TargetTimestamp,
	)
	_, err := s.graph.Query(query, nil, nil)
	return err
}

func (s *FalkorStore) Replay(ctx context.Context, sinceMs int64) (<-chan models.Event, error) {
	query := fmt.Sprintf("MATCH (e:Event) WHERE e.timestamp >= %d RETURN e", sinceMs)
	result, err := s.graph.Query(query, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("replay query failed: %w", err)
	}

	var events []models.Event
	for result.Next() {
		record := result.Record()
		values := record.Values()
		if len(values) == 0 {
			continue
		}
		props, ok := nodeProperties(values[0])
		if !ok {
			continue
		}
		ev, err := eventFromProperties(props)
		if err != nil {
			s.logger.Warn("replay: skipping unparseable node: %v", err)
			continue
		}
		events = append(events, ev)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].Timestamp < events[j].Timestamp })

	out := make(chan models.Event)
	go func() {
		defer close(out)
		for _, e := range events {
			select {
			case <-ctx.Done():
				return
			case out <- e:
			}
		}
	}()
	return out, nil
}

func (s *FalkorStore) Close() error {
	if s.db != nil && s.db.Conn != nil {
		return s.db.Conn.Close()
	}
	return nil
}

// eventProperties renders an Event as a Cypher property map literal,
// following the teacher's buildPropertiesString convention: data and
// metadata (arbitrary nested maps) are JSON-encoded into a single string
// property since Cypher property maps cannot hold nested maps directly.
func eventProperties(e models.Event) (string, error) {
	dataJSON, err := json.Marshal(e.Data)
	if err != nil {
		return "", fmt.Errorf("failed to marshal event data: %w", err)
	}
	metaJSON, err := json.Marshal(e.Metadata)
	if err != nil {
		return "", fmt.Errorf("failed to marshal event metadata: %w", err)
	}

	var b strings.Builder
	b.WriteString("{")
	fmt.Fprintf(&b, "event_id: '%s', ", escapeCypher(e.EventID))
	fmt.Fprintf(&b, "timestamp: %d, ", e.Timestamp)
	fmt.Fprintf(&b, "service_id: '%s', ", escapeCypher(e.ServiceID))
	fmt.Fprintf(&b, "service_name: '%s', ", escapeCypher(e.ServiceName))
	fmt.Fprintf(&b, "trace_id: '%s', ", escapeCypher(e.TraceID))
	fmt.Fprintf(&b, "span_id: '%s', ", escapeCypher(e.SpanID))
	fmt.Fprintf(&b, "parent_span_id: '%s', ", escapeCypher(e.ParentSpanID))
	fmt.Fprintf(&b, "event_type: '%s', ", escapeCypher(e.EventType))
	fmt.Fprintf(&b, "tenant_id: '%s', ", escapeCypher(e.TenantID))
	fmt.Fprintf(&b, "data: '%s', ", escapeCypher(string(dataJSON)))
	fmt.Fprintf(&b, "metadata: '%s'", escapeCypher(string(metaJSON)))
	b.WriteString("}")
	return b.String(), nil
}

func eventFromProperties(props map[string]interface{}) (models.Event, error) {
	e := models.Event{
		EventID:      str(props["event_id"]),
		ServiceID:    str(props["service_id"]),
		ServiceName:  str(props["service_name"]),
		TraceID:      str(props["trace_id"]),
		SpanID:       str(props["span_id"]),
		ParentSpanID: str(props["parent_span_id"]),
		EventType:    str(props["event_type"]),
		TenantID:     str(props["tenant_id"]),
	}
	if ts, ok := props["timestamp"].(int64); ok {
		e.Timestamp = ts
	} else if ts, ok := props["timestamp"].(float64); ok {
		e.Timestamp = int64(ts)
	}
	if dataStr := str(props["data"]); dataStr != "" {
		if err := json.Unmarshal([]byte(dataStr), &e.Data); err != nil {
			return e, fmt.Errorf("failed to unmarshal event data: %w", err)
		}
	}
	if metaStr := str(props["metadata"]); metaStr != "" {
		if err := json.Unmarshal([]byte(metaStr), &e.Metadata); err != nil {
			return e, fmt.Errorf("failed to unmarshal event metadata: %w", err)
		}
	}
	return e, nil
}

// nodeProperties extracts a node's property map regardless of whether
// the FalkorDB client returned it by value or by pointer, mirroring the
// teacher's ParseNodeFromResult.
func nodeProperties(v interface{}) (map[string]interface{}, bool) {
	switch n := v.(type) {
	case falkordb.Node:
		return n.Properties, true
	case *falkordb.Node:
		return n.Properties, true
	default:
		return nil, false
	}
}

func str(v interface{}) string {
	s, _ := v.(string)
	return s
}

func escapeCypher(s string) string {
	return strings.ReplaceAll(s, "'", "\\'")
}
