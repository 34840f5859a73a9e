package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/gyeh/hccscore/internal/exitcode"
	"github.com/gyeh/hccscore/internal/normalize"
	"github.com/gyeh/hccscore/internal/pipeline"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Dry-run validation and table stats (no scoring, no writes)",
	RunE:  runPlan,
}

func init() {
	planCmd.Flags().StringVar(&cfg.MembersPath, "members", "", "Path to member table (optional)")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	log := setup()

	if err := cfg.ValidateTables(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}

	fmt.Println("=== hccscore plan ===")
	fmt.Printf("Model years:    %v\n", cfg.YearNumbers())
	for _, yc := range cfg.Years {
		yi, err := pipeline.LoadYear(yc)
		if err != nil {
			log.Error().Err(err).Int("year", yc.Year).Msg("table validation failed")
			os.Exit(exitcode.ValidationError)
		}
		st := yi.Table.Stats()
		fmt.Printf("\nModel year %d\n", yc.Year)
		fmt.Printf("  Rate table:   %s (skip %d rows)\n", yc.RateTable, yc.RateTableSkipRows)
		fmt.Printf("  SHA-256:      %s\n", yi.RateTableSHA256)
		fmt.Printf("  Rows:         %d\n", st.Rows)
		fmt.Printf("  Conditions:   %d\n", st.Conditions)
		genders := make([]string, 0, len(st.Sections))
		for g := range st.Sections {
			genders = append(genders, g)
		}
		sort.Strings(genders)
		for _, g := range genders {
			fmt.Printf("  Section %-7s %d age bands\n", g+":", st.Sections[g])
		}
		if st.OrphanBands > 0 {
			fmt.Printf("  Orphan bands: %d (age-band rows before any gender header)\n", st.OrphanBands)
		}
		if st.BadCells > 0 {
			fmt.Printf("  Bad cells:    %d (non-numeric coefficients)\n", st.BadCells)
		}

		cats := yi.Codes.Categories()
		var unmatched int
		for c := range cats {
			if !yi.Table.HasRow(c) {
				unmatched++
			}
		}
		fmt.Printf("  Code map:     %s\n", yc.CodeMap)
		fmt.Printf("  Codes:        %d mapped to %d categories (%d rows skipped)\n", yi.Codes.Len(), len(cats), yi.Codes.Skipped())
		if unmatched > 0 {
			fmt.Printf("  Categories without a rate-table row: %d\n", unmatched)
		}
		fmt.Printf("  Constants:    normalization %.4f, coding pattern %.4f, weight %.4f\n",
			yc.NormalizationFactor, yc.CodingPatternAdjustment, yc.Weight)
	}

	fmt.Printf("\nWeight sum: %.4f\n", cfg.WeightSum())
	if !cfg.WeightsBalanced() {
		fmt.Println("WARNING: model year weights do not sum to 1")
	}

	if cfg.MembersPath != "" {
		sha, err := normalize.FileHash(cfg.MembersPath)
		if err != nil {
			log.Error().Err(err).Msg("failed to hash member table")
			os.Exit(exitcode.ValidationError)
		}
		patients, fieldErrors, dups, err := pipeline.LoadPatients(log, cfg.MembersPath)
		if err != nil {
			log.Error().Err(err).Msg("member table validation failed")
			os.Exit(exitcode.ValidationError)
		}
		fmt.Printf("\nMembers:      %s\n", cfg.MembersPath)
		fmt.Printf("SHA-256:      %s\n", sha)
		fmt.Printf("Patients:     %d (%d duplicate ids dropped)\n", len(patients), dups)
		fmt.Printf("Field errors: %d\n", fieldErrors)
	}
	fmt.Println("Table validation: OK")
	return nil
}
