package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/gyeh/hccscore/internal/config"
	"github.com/gyeh/hccscore/internal/model"
	"github.com/gyeh/hccscore/internal/tabular"
)

// FlattenScores returns all per-year records ordered by year, then patient order.
func FlattenScores(byYear map[int][]model.ScoreRecord, years []int) []model.ScoreRecord {
	var n int
	for _, y := range years {
		n += len(byYear[y])
	}
	out := make([]model.ScoreRecord, 0, n)
	for _, y := range years {
		out = append(out, byYear[y]...)
	}
	return out
}

// WriteOutputs writes the score and blend files named in cfg. Empty paths are skipped.
func WriteOutputs(log zerolog.Logger, cfg *config.Config, byYear map[int][]model.ScoreRecord, blended []model.BlendRecord, years []int) error {
	if cfg.ScoresOut != "" {
		if err := ensureDir(cfg.ScoresOut); err != nil {
			return err
		}
		recs := FlattenScores(byYear, years)
		if err := tabular.WriteScores(cfg.ScoresOut, recs); err != nil {
			return fmt.Errorf("write scores: %w", err)
		}
		log.Info().Str("path", cfg.ScoresOut).Int("rows", len(recs)).Msg("scores written")
	}
	if cfg.BlendOut != "" {
		if err := ensureDir(cfg.BlendOut); err != nil {
			return err
		}
		if err := tabular.WriteBlend(cfg.BlendOut, blended, years); err != nil {
			return fmt.Errorf("write blend: %w", err)
		}
		log.Info().Str("path", cfg.BlendOut).Int("rows", len(blended)).Msg("blended scores written")
	}
	return nil
}

func ensureDir(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	return nil
}
