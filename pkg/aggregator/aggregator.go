// Package aggregator computes the once-per-session FinalScore from a
// session's persisted samples and its job role's weights (§4.8).
package aggregator

import (
	"context"
	"fmt"

	"github.com/insighthire/engine/pkg/canonicalize"
	"github.com/insighthire/engine/pkg/store/iface"
)

// defaultWeights is used when a session has no associated job role, an even
// three-way split per §4.8.
var defaultWeights = iface.Weights{Voice: 33.33, Hand: 33.33, Eye: 33.34}

// Aggregator finalizes closed sessions against a Store.
type Aggregator struct {
	store iface.Store
}

// New builds an Aggregator over store.
func New(store iface.Store) *Aggregator {
	return &Aggregator{store: store}
}

// Finalize fetches sessionID's samples and job role, computes the
// confidence/stress bands, persists the result, and returns it.
//
// Weights are applied as-given, never renormalized even when they don't sum
// to exactly 100 — this mirrors the original system's behavior, where
// renormalization happened only at job-role creation, not at finalization.
func (a *Aggregator) Finalize(ctx context.Context, sessionID, jobRoleID string) (iface.FinalScore, error) {
	samples, err := a.store.ListSamples(ctx, sessionID)
	if err != nil {
		return iface.FinalScore{}, fmt.Errorf("aggregator: list samples: %w", err)
	}

	weights := defaultWeights
	if jobRoleID != "" {
		role, err := a.store.GetJobRole(ctx, jobRoleID)
		if err == nil {
			weights = role.Weights
		} else if err != iface.ErrJobRoleNotFound {
			return iface.FinalScore{}, fmt.Errorf("aggregator: get job role: %w", err)
		}
	}

	final := compute(sessionID, samples, weights)

	if err := a.store.PersistFinalScore(ctx, final); err != nil {
		return iface.FinalScore{}, fmt.Errorf("aggregator: persist final score: %w", err)
	}
	return final, nil
}

// compute is the pure core of Finalize, kept separate so the weighted-law
// invariant (P7) and the N=0 edge case (R... AggregatorMissingData) can be
// unit tested without a Store.
//
// ComputedAt is derived from the latest sample's timestamp rather than
// time.Now(), so two calls to Finalize against the same unchanged Store
// state are idempotent (R2): repeated finalization never drifts ComputedAt
// off wall-clock noise. With no samples, ComputedAt is left at its zero
// value for the same reason.
func compute(sessionID string, samples []canonicalize.Sample, weights iface.Weights) iface.FinalScore {
	n := len(samples)
	if n == 0 {
		return iface.FinalScore{
			SessionID:       sessionID,
			ConfidenceBand:  "Very Low",
			StressBand:      "Very Low",
			JobWeights:      weights,
			SamplesAnalyzed: 0,
		}
	}

	var voiceOnes, handOnes, eyeOnes, stressOnes int
	for _, s := range samples {
		voiceOnes += s.Voice.ConfidenceBit
		handOnes += s.Hand.ConfidenceBit
		eyeOnes += s.Eye.ConfidenceBit
		stressOnes += s.FaceStress.Stress
	}

	voiceRatio := float64(voiceOnes) / float64(n)
	handRatio := float64(handOnes) / float64(n)
	eyeRatio := float64(eyeOnes) / float64(n)

	voiceContribution := voiceRatio * weights.Voice / 100
	handContribution := handRatio * weights.Hand / 100
	eyeContribution := eyeRatio * weights.Eye / 100

	overallConfidence := (voiceContribution + handContribution + eyeContribution) * 100
	overallStress := float64(stressOnes) / float64(n) * 100

	return iface.FinalScore{
		SessionID: sessionID,
		Breakdown: iface.ConfidenceBreakdown{
			VoiceRatio:        voiceRatio,
			HandRatio:         handRatio,
			EyeRatio:          eyeRatio,
			VoiceContribution: voiceContribution,
			HandContribution:  handContribution,
			EyeContribution:   eyeContribution,
		},
		OverallConfidence: overallConfidence,
		OverallStress:     overallStress,
		ConfidenceBand:    confidenceBand(overallConfidence),
		StressBand:        stressBand(overallStress),
		SamplesAnalyzed:   n,
		JobWeights:        weights,
		ComputedAt:        samples[n-1].Timestamp,
	}
}

// confidenceBand classifies overallConfidence ∈ [0,100] into one of five
// bands per §4.8's confidence table.
func confidenceBand(score float64) string {
	switch {
	case score >= 80:
		return "Very High"
	case score >= 60:
		return "High"
	case score >= 40:
		return "Medium"
	case score >= 20:
		return "Low"
	default:
		return "Very Low"
	}
}

// stressBand classifies overallStress ∈ [0,100] into one of five bands,
// using the inclusive-upper-bound variant §4.8 specifies for stress (the
// inverse edge convention from confidenceBand).
func stressBand(score float64) string {
	switch {
	case score <= 20:
		return "Very Low"
	case score <= 40:
		return "Low"
	case score <= 60:
		return "Medium"
	case score <= 80:
		return "High"
	default:
		return "Very High"
	}
}
