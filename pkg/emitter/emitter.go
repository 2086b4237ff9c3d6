// Package emitter hands a composite Sample to the Store and the EventBus,
// in that order, per §4.6. Failures in either are logged and never delay
// the scheduler's next tick.
package emitter

import (
	"context"
	"log/slog"

	"github.com/insighthire/engine/pkg/canonicalize"
	"github.com/insighthire/engine/pkg/store/iface"
)

// Emitter is safe to call concurrently from different sessions; its own
// state is just the shared, concurrency-safe Store and EventBus.
type Emitter struct {
	store  iface.Store
	bus    iface.EventBus
	logger *slog.Logger
}

// New builds an Emitter over store and bus.
func New(store iface.Store, bus iface.EventBus, logger *slog.Logger) *Emitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Emitter{store: store, bus: bus, logger: logger}
}

// Emit persists sample and then broadcasts it as an analysis_update event.
// A persistence error is logged and the sample is dropped; a broadcast
// error is logged and ignored. Neither blocks the caller's next tick.
func (e *Emitter) Emit(ctx context.Context, sessionID string, sample canonicalize.Sample) {
	if err := e.store.PersistSample(ctx, sessionID, sample); err != nil {
		e.logger.ErrorContext(ctx, "failed to persist sample",
			slog.String("session_id", sessionID), slog.Any("error", err))
	}

	payload := map[string]any{
		"session_id": sessionID,
		"timestamp":  sample.Timestamp,
		"analysis":   sample,
	}
	if err := e.bus.Broadcast(ctx, sessionID, "analysis_update", payload); err != nil {
		e.logger.ErrorContext(ctx, "failed to broadcast analysis update",
			slog.String("session_id", sessionID), slog.Any("error", err))
	}
}
