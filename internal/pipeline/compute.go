package pipeline

import (
	"context"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/gyeh/hccscore/internal/metrics"
	"github.com/gyeh/hccscore/internal/model"
	"github.com/gyeh/hccscore/internal/score"
)

const chunkSize = 256

// ComputeResult holds the per-year score records of a run.
type ComputeResult struct {
	// Scores maps model year to records in patient order.
	Scores   map[int][]model.ScoreRecord
	Years    []model.YearSummary
	Duration time.Duration
}

// Compute scores every patient for every model year on a bounded worker pool.
// Tables are shared read-only; each job writes a disjoint slice range.
func Compute(ctx context.Context, log zerolog.Logger, pf *PreflightResult, workers int) (*ComputeResult, error) {
	start := time.Now()
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	scorers := make([]*score.Scorer, len(pf.Years))
	results := make([][]model.ScoreRecord, len(pf.Years))
	for i, y := range pf.Years {
		scorers[i] = &score.Scorer{
			Params: score.Params{
				Year:                    y.Config.Year,
				NormalizationFactor:     y.Config.NormalizationFactor,
				CodingPatternAdjustment: y.Config.CodingPatternAdjustment,
				Weight:                  y.Config.Weight,
			},
			Table: y.Table,
			Codes: y.Codes,
			AsOf:  pf.AsOf,
			Log:   log,
		}
		results[i] = make([]model.ScoreRecord, len(pf.Patients))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for yi := range scorers {
		for lo := 0; lo < len(pf.Patients); lo += chunkSize {
			hi := min(lo+chunkSize, len(pf.Patients))
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				s := scorers[yi]
				out := results[yi]
				for i := lo; i < hi; i++ {
					out[i] = s.Score(pf.Patients[i])
				}
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &ComputeResult{Scores: make(map[int][]model.ScoreRecord, len(scorers))}
	for yi, s := range scorers {
		ys := model.YearSummary{Year: s.Year}
		for i := range results[yi] {
			r := &results[yi][i]
			metrics.RecordScore(s.Year, string(r.Status))
			if !r.Available() {
				ys.Unavailable++
				metrics.RecordUnavailable(s.Year, r.Reason)
				continue
			}
			ys.Scored++
			for _, m := range r.Misses {
				ys.LookupMisses++
				metrics.RecordLookupMiss(string(m.Kind), m.Status)
			}
		}
		res.Scores[s.Year] = results[yi]
		res.Years = append(res.Years, ys)
		log.Info().
			Int("year", s.Year).
			Int64("scored", ys.Scored).
			Int64("unavailable", ys.Unavailable).
			Int64("lookup_misses", ys.LookupMisses).
			Msg("model year scored")
	}
	res.Duration = time.Since(start)
	return res, nil
}
