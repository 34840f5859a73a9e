package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/gyeh/hccscore/internal/blend"
	"github.com/gyeh/hccscore/internal/exitcode"
	"github.com/gyeh/hccscore/internal/model"
	"github.com/gyeh/hccscore/internal/tabular"
)

var (
	blendInputs  []string
	blendWeights map[string]string
	blendOut     string
)

var blendCmd = &cobra.Command{
	Use:   "blend",
	Short: "Combine previously written per-year score files into blended scores",
	RunE:  runBlend,
}

func init() {
	f := blendCmd.Flags()
	f.StringArrayVar(&blendInputs, "in", nil, "Score file written by score --scores-out (repeatable)")
	f.StringToStringVar(&blendWeights, "weight", nil, "Model year weight, e.g. --weight 2020=0.3,2024=0.7 (default from --config)")
	f.StringVar(&blendOut, "out", "", "Blended output file (.csv or .parquet)")
	_ = blendCmd.MarkFlagRequired("in")
	_ = blendCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(blendCmd)
}

func runBlend(cmd *cobra.Command, args []string) error {
	log := setup()

	weights, err := parseWeights(blendWeights)
	if err != nil {
		log.Error().Err(err).Msg("invalid --weight")
		os.Exit(exitcode.UsageError)
	}
	if len(weights) == 0 {
		weights = cfg.Weights()
	}

	byYear := make(map[int][]model.ScoreRecord)
	for _, path := range blendInputs {
		recs, err := tabular.ReadScores(path)
		if err != nil {
			log.Error().Err(err).Str("path", path).Msg("read score file failed")
			os.Exit(exitcode.ValidationError)
		}
		for _, r := range recs {
			byYear[r.Year] = append(byYear[r.Year], r)
		}
		log.Info().Str("path", path).Int("rows", len(recs)).Msg("score file loaded")
	}

	years := blend.Years(byYear)
	for _, y := range years {
		if _, ok := weights[y]; !ok {
			log.Error().Int("year", y).Msg("no weight for model year")
			os.Exit(exitcode.UsageError)
		}
	}
	var sum float64
	for _, y := range years {
		sum += weights[y]
	}
	if sum < 1-1e-9 || sum > 1+1e-9 {
		log.Warn().Float64("weight_sum", sum).Msg("model year weights do not sum to 1")
	}

	blended := blend.Records(byYear, weights)
	if err := tabular.WriteBlend(blendOut, blended, years); err != nil {
		log.Error().Err(err).Msg("write blend failed")
		os.Exit(exitcode.PersistError)
	}

	fmt.Printf("Blend complete: %d members across %d model years written to %s\n", len(blended), len(years), blendOut)
	return nil
}

func parseWeights(raw map[string]string) (map[int]float64, error) {
	out := make(map[int]float64, len(raw))
	for k, v := range raw {
		year, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("model year %q: %w", k, err)
		}
		w, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("weight for %d: %w", year, err)
		}
		out[year] = w
	}
	return out, nil
}
