package batch

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/snappy-loop/muse/internal/models"
)

// DefaultFanOut is the fixed number of identical requests issued per batch.
const DefaultFanOut = 5

// Generator issues one generation request.
type Generator interface {
	GenerateImage(ctx context.Context, prompt string) (*models.Artifact, error)
}

// Result aggregates a settled fan-out. Succeeded never exceeds Attempted;
// Artifacts holds one entry per success, in request order.
type Result struct {
	Artifacts []models.Artifact
	Succeeded int
	Attempted int
}

// Partial reports whether the batch produced some but not all artifacts.
// Callers surface this as a visible, non-fatal notice.
func (r *Result) Partial() bool {
	return r.Succeeded > 0 && r.Succeeded < r.Attempted
}

// Execute issues count structurally identical requests concurrently, waits
// for all of them to settle, then aggregates. No request depends on another;
// an individual failure never short-circuits the rest. Zero successes
// returns ErrNoArtifacts.
func Execute(ctx context.Context, gen Generator, prompt string, count int) (*Result, error) {
	if count < 1 {
		count = DefaultFanOut
	}

	type settled struct {
		artifact *models.Artifact
		err      error
	}
	outcomes := make([]settled, count)

	var wg sync.WaitGroup
	for i := 0; i < count; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			artifact, err := gen.GenerateImage(ctx, prompt)
			outcomes[i] = settled{artifact: artifact, err: err}
		}(i)
	}
	wg.Wait()

	result := &Result{Attempted: count}
	for i, o := range outcomes {
		if o.err != nil || o.artifact == nil {
			log.Warn().Err(o.err).Int("request", i).Msg("Batch request failed")
			continue
		}
		result.Artifacts = append(result.Artifacts, *o.artifact)
		result.Succeeded++
	}

	if result.Succeeded == 0 {
		return nil, fmt.Errorf("batch of %d settled with zero successes: %w", count, models.ErrNoArtifacts)
	}

	log.Info().
		Int("succeeded", result.Succeeded).
		Int("attempted", result.Attempted).
		Msg("Batch fan-out settled")
	return result, nil
}
