package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gyeh/hccscore/internal/db"
	"github.com/gyeh/hccscore/internal/exitcode"
	"github.com/gyeh/hccscore/internal/pipeline"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a member table for every configured model year and blend the results",
	RunE:  runScore,
}

func init() {
	f := scoreCmd.Flags()
	f.StringVar(&cfg.MembersPath, "members", "", "Path to member table (.csv or .parquet)")
	f.StringVar(&cfg.AsOfRaw, "as-of", "", "Date ages are computed at, YYYY-MM-DD (default today)")
	f.IntVar(&cfg.Workers, "workers", 0, "Scoring workers (default GOMAXPROCS)")
	f.StringVar(&cfg.ScoresOut, "scores-out", "", "Write per-year scores to this .csv or .parquet file")
	f.StringVar(&cfg.BlendOut, "blend-out", "", "Write blended scores to this .csv or .parquet file")
	f.StringVar(&cfg.MetricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile at exit")
	f.BoolVar(&cfg.Force, "force", false, "Re-score even if identical inputs were already persisted")
	f.BoolVar(&cfg.Strict, "strict", false, "Exit with a partial-success code when any patient is unavailable")
	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, args []string) error {
	log := setup()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cfg.ResolveAsOf(time.Now()); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}
	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}
	if !cfg.WeightsBalanced() {
		log.Warn().Float64("weight_sum", cfg.WeightSum()).Msg("model year weights do not sum to 1")
	}

	var store pipeline.RunStore
	if cfg.DSN != "" {
		pool, err := db.NewPool(ctx, cfg.DSN)
		if err != nil {
			log.Error().Err(err).Msg("database connection failed")
			os.Exit(exitcode.DBConnError)
		}
		defer pool.Close()
		store = db.NewStore(pool, log)
	}

	res, err := pipeline.Run(ctx, store, log, &cfg)
	if err != nil {
		var pe *pipeline.PipelineError
		if errors.As(err, &pe) {
			log.Error().Err(pe.Err).Str("phase", pe.Phase).Msg("scoring failed")
			switch pe.Phase {
			case pipeline.PhasePreflight:
				os.Exit(exitcode.ValidationError)
			case pipeline.PhaseRegister:
				os.Exit(exitcode.DBConnError)
			case pipeline.PhaseOutput, pipeline.PhasePersist, pipeline.PhaseFinalize:
				os.Exit(exitcode.PersistError)
			default:
				os.Exit(exitcode.ComputeError)
			}
		}
		log.Error().Err(err).Msg("scoring failed")
		os.Exit(exitcode.ComputeError)
	}

	s := res.Summary
	if s.AlreadyLoaded {
		fmt.Printf("Inputs already scored (fingerprint %s); nothing to do\n", s.Fingerprint)
		return nil
	}
	fmt.Printf("Scoring complete: %d members, %d model years, %d unavailable, %d blended (%.1fs)\n",
		s.Members, len(s.Years), s.Unavailable(), s.Blended, s.DurationTotal.Seconds())
	if cfg.Strict && s.Unavailable() > 0 {
		os.Exit(exitcode.PartialSuccess)
	}
	return nil
}
