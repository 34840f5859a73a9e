package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gyeh/hccscore/internal/db"
	"github.com/gyeh/hccscore/internal/model"
)

// Persist COPY-loads the run's per-year scores and blended scores.
func Persist(ctx context.Context, store RunStore, log zerolog.Logger, runID uuid.UUID, byYear map[int][]model.ScoreRecord, blended []model.BlendRecord, years []int) (time.Duration, error) {
	start := time.Now()

	scores, err := store.CopyScores(ctx, runID, FlattenScores(byYear, years))
	if err != nil {
		return 0, fmt.Errorf("copy scores: %w", err)
	}
	blendRows, err := store.CopyBlend(ctx, runID, blended, years)
	if err != nil {
		return 0, fmt.Errorf("copy blend: %w", err)
	}
	if err := store.UpdateRunStatus(ctx, runID, db.RunPersisted); err != nil {
		return 0, err
	}

	dur := time.Since(start)
	log.Info().
		Int64("scores", scores).
		Int64("blended", blendRows).
		Str("duration", dur.String()).
		Float64("rows_per_sec", float64(scores+blendRows)/dur.Seconds()).
		Msg("persist complete")
	return dur, nil
}
