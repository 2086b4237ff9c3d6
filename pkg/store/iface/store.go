// Package iface defines the durable-storage and broadcast contracts the
// core depends on (§6.3), kept deliberately narrow so new backends only
// need to satisfy five Store methods and one EventBus method.
package iface

import (
	"context"
	"errors"
	"time"

	"github.com/insighthire/engine/pkg/canonicalize"
)

// ErrJobRoleNotFound is returned by GetJobRole when no role exists for the
// given ID.
var ErrJobRoleNotFound = errors.New("job role not found")

// ErrFinalScoreNotFound is returned by GetFinalScore when the session has
// not been finalized yet.
var ErrFinalScoreNotFound = errors.New("final score not found")

// ConfidenceBreakdown holds the per-modality ratios and contributions
// computed during Finalize (§4.8).
type ConfidenceBreakdown struct {
	VoiceRatio float64
	HandRatio  float64
	EyeRatio   float64

	VoiceContribution float64
	HandContribution  float64
	EyeContribution   float64
}

// FinalScore is the once-computed, overwrite-on-recompute summary of a
// closed session.
type FinalScore struct {
	SessionID         string
	ConfidenceBand    string
	StressBand        string
	Breakdown         ConfidenceBreakdown
	OverallConfidence float64
	OverallStress     float64
	SamplesAnalyzed   int
	JobWeights        Weights
	ComputedAt        time.Time
}

// Weights is a job role's per-modality weighting, expected to sum to 100 at
// creation time but used as-given at finalization (§9).
type Weights struct {
	Voice float64
	Hand  float64
	Eye   float64
}

// JobRole associates an identifier with aggregation weights.
type JobRole struct {
	ID      string
	Weights Weights
}

// Store is the durable persistence boundary: one sample write per
// composite tick, one final-score write per session close.
type Store interface {
	PersistSample(ctx context.Context, sessionID string, sample canonicalize.Sample) error
	// ListSamples returns every persisted sample for sessionID ordered by
	// timestamp ascending.
	ListSamples(ctx context.Context, sessionID string) ([]canonicalize.Sample, error)
	PersistFinalScore(ctx context.Context, final FinalScore) error
	GetFinalScore(ctx context.Context, sessionID string) (FinalScore, error)
	GetJobRole(ctx context.Context, jobRoleID string) (JobRole, error)
}

// EventBus is the best-effort broadcast boundary (§4.6); failures are
// logged by the Emitter and never propagate to the scheduler.
type EventBus interface {
	Broadcast(ctx context.Context, sessionID string, event string, payload any) error
}
