package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/lucasmmg12/liquidaciones-osde/internal/exitcode"
	"github.com/lucasmmg12/liquidaciones-osde/internal/export"
	"github.com/lucasmmg12/liquidaciones-osde/internal/liquidacion"
	"github.com/lucasmmg12/liquidaciones-osde/internal/logging"
	"github.com/lucasmmg12/liquidaciones-osde/internal/model"
	"github.com/lucasmmg12/liquidaciones-osde/internal/normalize"
	"github.com/lucasmmg12/liquidaciones-osde/internal/sheet"
	"github.com/lucasmmg12/liquidaciones-osde/internal/store"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Inspect a visit export offline (no database, no writes)",
	Long: "Reads the visit export and reports header detection and row counters. With " +
		"--nomenclador, also rates the batch against that workbook in memory.",
	RunE: runPlan,
}

func init() {
	f := planCmd.Flags()
	f.StringVar(&cfg.FilePath, "file", "", "Visit export workbook (required)")
	f.StringVar(&cfg.ReferencePath, "nomenclador", "", "Nomenclador workbook to rate against")
	f.BoolVar(&cfg.Suggest, "sugerencias", true, "Suggest the closest code for missing lines")
	addPeriodFlags(planCmd)
	_ = planCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat, cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}

	sha, err := normalize.FileHash(cfg.FilePath)
	if err != nil {
		log.Error().Err(err).Msg("failed to hash file")
		os.Exit(exitcode.InputError)
	}
	stat, err := os.Stat(cfg.FilePath)
	if err != nil {
		log.Error().Err(err).Msg("failed to stat file")
		os.Exit(exitcode.InputError)
	}

	sh, err := sheet.ReadFile(cfg.FilePath, cfg.Rules.SheetOptions())
	if err != nil {
		log.Error().Err(err).Msg("failed to read visit export")
		os.Exit(exitcode.InputError)
	}
	lr, err := normalize.Lines(sh, cfg.Rules.Mapping())
	if err != nil {
		log.Error().Err(err).Msg("row normalization failed")
		os.Exit(exitCodeFor(err))
	}

	staff := make(map[string]int)
	for _, l := range lr.Lines {
		staff[l.Staff]++
	}

	fmt.Println("=== liquidar plan ===")
	fmt.Printf("File:               %s\n", cfg.FilePath)
	fmt.Printf("SHA-256:            %s\n", sha)
	fmt.Printf("Size:               %d bytes\n", stat.Size())
	fmt.Printf("Sheet:              %s (header row %d)\n", sh.Name, sh.HeaderRow+1)
	fmt.Printf("Procedure columns:  %s\n", strings.Join(lr.ProcedureColumns, ", "))
	fmt.Printf("Rows read:          %d\n", lr.RowsRead)
	fmt.Printf("Rows without staff: %d\n", lr.RowsNoStaff)
	fmt.Printf("Rows without proc:  %d\n", lr.RowsNoProcedure)
	fmt.Printf("Procedure lines:    %d (%d undated)\n", len(lr.Lines), lr.Undated)
	fmt.Printf("Instrumentadores:   %d\n", len(staff))

	if cfg.ReferencePath == "" {
		return nil
	}
	if err := cfg.ValidatePeriod(); err != nil {
		log.Error().Err(err).Msg("--mes and --anio are required with --nomenclador")
		os.Exit(exitcode.UsageError)
	}
	return planRating(log, sh)
}

func planRating(log zerolog.Logger, visits *model.Sheet) error {
	ctx := context.Background()
	p := cfg.Period()

	ref, err := sheet.ReadFile(cfg.ReferencePath, sheet.ReferenceOptions())
	if err != nil {
		log.Error().Err(err).Str("file", cfg.ReferencePath).Msg("failed to read nomenclador")
		os.Exit(exitcode.InputError)
	}

	svc := liquidacion.New(store.NewMemory(), log, serviceOptions())
	imp, err := svc.ImportReference(ctx, ref, p)
	if err != nil {
		fail(log, err, "nomenclador import failed")
	}
	res, err := svc.Process(ctx, liquidacion.Input{
		Sheet:      visits,
		SourceName: cfg.FilePath,
		Period:     p,
		DryRun:     true,
	})
	if err != nil {
		fail(log, err, "rating failed")
	}

	fmt.Println()
	fmt.Printf("Nomenclador:        %d procedures, %d prices (%d rows skipped)\n", imp.Procedures, imp.Prices, imp.Skipped)
	fmt.Printf("Rated:              %d lines, %s\n", res.Totals.ProcedureCount, export.FormatARS(res.Totals.TotalAmount))
	fmt.Printf("Missing codes:      %d\n", res.Totals.MissingCount)
	for _, m := range res.Missing {
		fmt.Printf("  %-12s %-12s x%-3d %s %s\n", m.Code, m.Reason, m.Occurrences, m.Description, m.Suggestion)
	}
	return nil
}
