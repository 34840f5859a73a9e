// Package pipeline runs a scoring job: preflight, compute, blend, output,
// persist and finalize.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gyeh/hccscore/internal/blend"
	"github.com/gyeh/hccscore/internal/config"
	"github.com/gyeh/hccscore/internal/db"
	"github.com/gyeh/hccscore/internal/metrics"
	"github.com/gyeh/hccscore/internal/model"
)

// Phase names reported in PipelineError.
const (
	PhasePreflight = "preflight"
	PhaseRegister  = "register"
	PhaseCompute   = "compute"
	PhaseOutput    = "output"
	PhasePersist   = "persist"
	PhaseFinalize  = "finalize"
)

// PipelineError wraps an error with the phase where it occurred.
type PipelineError struct {
	Phase string
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s: %s", e.Phase, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// RunStore persists runs and scores. *db.Store implements it.
type RunStore interface {
	LookupRun(ctx context.Context, fingerprint string) (*db.RunRef, error)
	RegisterRun(ctx context.Context, run db.Run) error
	UpdateRunStatus(ctx context.Context, id uuid.UUID, status string) error
	CopyScores(ctx context.Context, id uuid.UUID, recs []model.ScoreRecord) (int64, error)
	CopyBlend(ctx context.Context, id uuid.UUID, recs []model.BlendRecord, years []int) (int64, error)
	FinishRun(ctx context.Context, id uuid.UUID, summary *model.RunSummary) error
	DeleteRunRows(ctx context.Context, id uuid.UUID) error
}

var _ RunStore = (*db.Store)(nil)

// Result is what a run produced.
type Result struct {
	Summary *model.RunSummary
	Scores  map[int][]model.ScoreRecord
	Blended []model.BlendRecord
}

// Run executes the full scoring pipeline. store may be nil, in which case
// nothing is persisted and the already-scored check is skipped.
func Run(ctx context.Context, store RunStore, log zerolog.Logger, cfg *config.Config) (res *Result, err error) {
	totalStart := time.Now()
	if cfg.MetricsFile != "" {
		defer func() {
			if werr := metrics.WriteTextfile(cfg.MetricsFile); werr != nil {
				log.Warn().Err(werr).Str("path", cfg.MetricsFile).Msg("metrics textfile write failed")
			}
		}()
	}

	// Phase 1: Preflight
	log.Info().Str("members", cfg.MembersPath).Int("years", len(cfg.Years)).Msg("starting preflight")
	pf, err := Preflight(log, cfg)
	if err != nil {
		return nil, &PipelineError{Phase: PhasePreflight, Err: err}
	}
	metrics.ObservePhase(PhasePreflight, pf.Duration)

	summary := &model.RunSummary{
		RunID:        pf.RunID.String(),
		Fingerprint:  pf.Fingerprint,
		AsOf:         pf.AsOf,
		Members:      int64(len(pf.Patients)),
		FieldErrors:  pf.FieldErrors,
		DurationLoad: pf.Duration,
	}

	// Phase 2: Register
	if store != nil {
		skip, err := register(ctx, store, log, cfg, pf)
		if err != nil {
			return nil, &PipelineError{Phase: PhaseRegister, Err: err}
		}
		if skip {
			summary.AlreadyLoaded = true
			summary.DurationTotal = time.Since(totalStart)
			return &Result{Summary: summary}, nil
		}
		defer func() {
			if err != nil {
				markFailed(store, log, pf.RunID)
			}
		}()
	}

	// Phase 3: Compute
	log.Info().Int("patients", len(pf.Patients)).Int("workers", cfg.Workers).Msg("starting compute")
	if store != nil {
		if err := store.UpdateRunStatus(ctx, pf.RunID, db.RunScoring); err != nil {
			return nil, &PipelineError{Phase: PhaseCompute, Err: err}
		}
	}
	cr, err := Compute(ctx, log, pf, cfg.Workers)
	if err != nil {
		return nil, &PipelineError{Phase: PhaseCompute, Err: err}
	}
	blended := blend.Records(cr.Scores, cfg.Weights())
	years := pf.YearNumbers()
	summary.Years = cr.Years
	summary.Blended = int64(len(blended))
	summary.DurationCompute = cr.Duration
	metrics.ObservePhase(PhaseCompute, cr.Duration)

	// Phase 4: Output files
	if err := WriteOutputs(log, cfg, cr.Scores, blended, years); err != nil {
		return nil, &PipelineError{Phase: PhaseOutput, Err: err}
	}

	// Phase 5: Persist
	if store != nil {
		dur, err := Persist(ctx, store, log, pf.RunID, cr.Scores, blended, years)
		if err != nil {
			return nil, &PipelineError{Phase: PhasePersist, Err: err}
		}
		summary.DurationPersist = dur
		metrics.ObservePhase(PhasePersist, dur)

		// Phase 6: Finalize
		summary.DurationTotal = time.Since(totalStart)
		if err := store.FinishRun(ctx, pf.RunID, summary); err != nil {
			return nil, &PipelineError{Phase: PhaseFinalize, Err: err}
		}
	}

	summary.DurationTotal = time.Since(totalStart)
	log.Info().
		Str("run_id", summary.RunID).
		Int64("members", summary.Members).
		Int64("field_errors", summary.FieldErrors).
		Int64("unavailable", summary.Unavailable()).
		Int64("blended", summary.Blended).
		Str("total_duration", summary.DurationTotal.String()).
		Msg("scoring pipeline complete")

	return &Result{Summary: summary, Scores: cr.Scores, Blended: blended}, nil
}

// register checks the fingerprint and records a new pending run. It returns
// true when an identical run is already complete and force is off.
func register(ctx context.Context, store RunStore, log zerolog.Logger, cfg *config.Config, pf *PreflightResult) (bool, error) {
	prev, err := store.LookupRun(ctx, pf.Fingerprint)
	if err != nil {
		return false, err
	}
	if prev != nil {
		if prev.Status == db.RunComplete && !cfg.Force {
			log.Info().
				Str("run_id", prev.ID.String()).
				Str("fingerprint", pf.Fingerprint).
				Msg("inputs already scored, skipping (use --force to re-score)")
			return true, nil
		}
		if prev.Status != db.RunComplete {
			log.Warn().Str("run_id", prev.ID.String()).Str("status", prev.Status).Msg("removing rows of incomplete previous run")
			if err := store.DeleteRunRows(ctx, prev.ID); err != nil {
				log.Warn().Err(err).Msg("previous run cleanup failed (non-fatal)")
			}
		}
	}

	if err := store.RegisterRun(ctx, db.Run{
		ID:          pf.RunID,
		Fingerprint: pf.Fingerprint,
		AsOf:        pf.AsOf,
		Years:       pf.YearNumbers(),
		MembersPath: cfg.MembersPath,
	}); err != nil {
		return false, err
	}
	log.Info().Str("run_id", pf.RunID.String()).Msg("run registered")
	return false, nil
}

// markFailed flags the run and drops its partial rows. It uses a fresh
// context so cleanup still happens after cancellation.
func markFailed(store RunStore, log zerolog.Logger, id uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := store.UpdateRunStatus(ctx, id, db.RunFailed); err != nil {
		log.Warn().Err(err).Msg("mark run failed (non-fatal)")
	}
	if err := store.DeleteRunRows(ctx, id); err != nil {
		log.Warn().Err(err).Msg("failed run cleanup (non-fatal)")
	}
}
