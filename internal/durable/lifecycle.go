package durable

import (
	"context"

	"github.com/traversion/causengine/internal/logging"
)

// StoreComponent wraps a Store as a lifecycle.Component so its replay
// step and shutdown participate in the engine's managed startup/shutdown
// ordering (spec.md's durability open question, resolved in DESIGN.md).
type StoreComponent struct {
	store     Store
	replay    func(ctx context.Context) error
	logger    *logging.Logger
}

// NewStoreComponent wraps store; replay is invoked during Start after a
// successful connection and should rehydrate engine state (typically
// Engine.Replay).
func NewStoreComponent(store Store, replay func(ctx context.Context) error) *StoreComponent {
	return &StoreComponent{store: store, replay: replay, logger: logging.GetLogger("durable")}
}

func (c *StoreComponent) Name() string { return "durable-store" }

func (c *StoreComponent) Start(ctx context.Context) error {
	if c.replay == nil {
		return nil
	}
	c.logger.Info("replaying persisted events")
	return c.replay(ctx)
}

func (c *StoreComponent) Stop(ctx context.Context) error {
	return c.store.Close()
}
