package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/gyeh/hccscore/internal/model"
	embedsql "github.com/gyeh/hccscore/internal/sql"
)

// Run statuses stored in risk.runs.
const (
	RunPending   = "pending"
	RunScoring   = "scoring"
	RunPersisted = "persisted"
	RunComplete  = "complete"
	RunFailed    = "failed"
)

const copyBufferSize = 1024

// Run describes a scoring run at registration time.
type Run struct {
	ID          uuid.UUID
	Fingerprint string
	AsOf        time.Time
	Years       []int
	MembersPath string
}

// RunRef is a previously registered run found by fingerprint.
type RunRef struct {
	ID     uuid.UUID
	Status string
}

// Store persists runs and their scores in the risk schema.
type Store struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

// NewStore wraps an open pool.
func NewStore(pool *pgxpool.Pool, log zerolog.Logger) *Store {
	return &Store{pool: pool, log: log}
}

// LookupRun returns the latest run with the given fingerprint, or nil if none exists.
func (s *Store) LookupRun(ctx context.Context, fingerprint string) (*RunRef, error) {
	var ref RunRef
	err := s.pool.QueryRow(ctx, embedsql.LookupRun, fingerprint).Scan(&ref.ID, &ref.Status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup run: %w", err)
	}
	return &ref, nil
}

// RegisterRun inserts a pending run.
func (s *Store) RegisterRun(ctx context.Context, run Run) error {
	years := make([]int32, len(run.Years))
	for i, y := range run.Years {
		years[i] = int32(y)
	}
	if _, err := s.pool.Exec(ctx, embedsql.RegisterRun,
		run.ID, run.Fingerprint, run.AsOf, years, run.MembersPath,
	); err != nil {
		return fmt.Errorf("register run: %w", err)
	}
	return nil
}

// UpdateRunStatus sets the status of a run.
func (s *Store) UpdateRunStatus(ctx context.Context, id uuid.UUID, status string) error {
	if _, err := s.pool.Exec(ctx, embedsql.UpdateRunStatus, id, status); err != nil {
		return fmt.Errorf("update run status: %w", err)
	}
	return nil
}

// CopyScores COPY-loads per-year score records into risk.patient_scores.
func (s *Store) CopyScores(ctx context.Context, id uuid.UUID, recs []model.ScoreRecord) (int64, error) {
	return copyRows(ctx, s.pool, pgx.Identifier{"risk", "patient_scores"}, model.ScoreCopyColumns(), len(recs),
		func(i int) *model.ScoreRow {
			row := model.NewScoreRow(&recs[i])
			row.RunID = id
			return row
		})
}

// CopyBlend COPY-loads blended records into risk.blended_scores.
func (s *Store) CopyBlend(ctx context.Context, id uuid.UUID, recs []model.BlendRecord, years []int) (int64, error) {
	return copyRows(ctx, s.pool, pgx.Identifier{"risk", "blended_scores"}, model.BlendCopyColumns(), len(recs),
		func(i int) *model.BlendRow {
			row := model.NewBlendRow(&recs[i], years)
			row.RunID = id
			return row
		})
}

// copyRows streams n rows built by build through a channel into COPY.
func copyRows[T CopyRow](ctx context.Context, pool *pgxpool.Pool, table pgx.Identifier, columns []string, n int, build func(i int) T) (int64, error) {
	ch := make(chan T, copyBufferSize)
	errCh := make(chan error, 1)

	go func() {
		defer close(ch)
		for i := 0; i < n; i++ {
			select {
			case ch <- build(i):
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			}
		}
		errCh <- nil
	}()

	copied, err := pool.CopyFrom(ctx, table, columns, NewChannelSource[T](ch))
	if err != nil {
		// Unblock the producer if COPY stopped reading.
		for range ch {
		}
	}
	if prodErr := <-errCh; prodErr != nil {
		return 0, fmt.Errorf("copy %s producer: %w", table.Sanitize(), prodErr)
	}
	if err != nil {
		return 0, fmt.Errorf("copy %s: %w", table.Sanitize(), err)
	}
	return copied, nil
}

// FinishRun stores the run counts, marks it complete and refreshes planner stats.
func (s *Store) FinishRun(ctx context.Context, id uuid.UUID, summary *model.RunSummary) error {
	var scored int64
	for _, y := range summary.Years {
		scored += y.Scored
	}
	if _, err := s.pool.Exec(ctx, embedsql.FinishRun,
		id, summary.Members, summary.FieldErrors, scored, summary.Unavailable(), summary.Blended,
	); err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if _, err := s.pool.Exec(ctx, embedsql.AnalyzeScores); err != nil {
		s.log.Warn().Err(err).Msg("analyze failed (non-fatal)")
	}
	return nil
}

// DeleteRunRows removes the scores of a run. It cleans up failed runs and
// incomplete earlier runs with the same fingerprint; a complete run replaced
// by --force keeps its rows as history.
func (s *Store) DeleteRunRows(ctx context.Context, id uuid.UUID) error {
	start := time.Now()
	scores, err := s.pool.Exec(ctx, embedsql.DeleteRunScores, id)
	if err != nil {
		return fmt.Errorf("delete run scores: %w", err)
	}
	blended, err := s.pool.Exec(ctx, embedsql.DeleteRunBlend, id)
	if err != nil {
		return fmt.Errorf("delete run blend: %w", err)
	}
	s.log.Info().
		Str("run_id", id.String()).
		Int64("scores_deleted", scores.RowsAffected()).
		Int64("blend_deleted", blended.RowsAffected()).
		Dur("duration", time.Since(start)).
		Msg("run cleanup complete")
	return nil
}
