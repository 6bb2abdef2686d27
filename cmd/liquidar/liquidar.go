package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/lucasmmg12/liquidaciones-osde/internal/archive"
	"github.com/lucasmmg12/liquidaciones-osde/internal/exitcode"
	"github.com/lucasmmg12/liquidaciones-osde/internal/export"
	"github.com/lucasmmg12/liquidaciones-osde/internal/liquidacion"
	"github.com/lucasmmg12/liquidaciones-osde/internal/logging"
	"github.com/lucasmmg12/liquidaciones-osde/internal/normalize"
	"github.com/lucasmmg12/liquidaciones-osde/internal/sheet"
)

var liquidarCmd = &cobra.Command{
	Use:     "procesar",
	Aliases: []string{"run"},
	Short:   "Liquidate a visit export for one period",
	RunE:    runLiquidar,
}

var historialCmd = &cobra.Command{
	Use:   "historial",
	Short: "List the recorded runs of a period",
	RunE:  runHistorial,
}

func init() {
	f := liquidarCmd.Flags()
	f.StringVar(&cfg.FilePath, "file", "", "Visit export workbook, .xlsx or .xls (required)")
	f.BoolVar(&cfg.DryRun, "dry-run", false, "Rate the batch without recording it")
	f.BoolVar(&cfg.Suggest, "sugerencias", true, "Suggest the closest nomenclador code for missing lines")
	f.StringVar(&cfg.OutPath, "out", "", "Write the Detalle/Resumen workbook here")
	f.StringVar(&cfg.ArchivePath, "archive", "", "Write the rated lines as Parquet here")
	f.StringVar(&cfg.ReportsPath, "reportes", "", "Write the per-instrumentador reports as JSON here")
	addPeriodFlags(liquidarCmd)
	_ = liquidarCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(liquidarCmd)

	addPeriodFlags(historialCmd)
	rootCmd.AddCommand(historialCmd)
}

func runLiquidar(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat, cfg.LogLevel)
	ctx := context.Background()

	if err := cfg.ValidateWithDSN(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}

	sum, err := normalize.FileHash(cfg.FilePath)
	if err != nil {
		log.Error().Err(err).Msg("failed to hash file")
		os.Exit(exitcode.InputError)
	}
	sh, err := sheet.ReadFile(cfg.FilePath, cfg.Rules.SheetOptions())
	if err != nil {
		log.Error().Err(err).Str("file", cfg.FilePath).Msg("failed to read visit export")
		os.Exit(exitcode.InputError)
	}

	svc, closePool := openService(ctx, log)
	defer closePool()

	p := cfg.Period()
	res, err := svc.Process(ctx, liquidacion.Input{
		Sheet:        sh,
		SourceName:   filepath.Base(cfg.FilePath),
		SourceSHA256: sum,
		Period:       p,
		DryRun:       cfg.DryRun,
	})
	if err != nil {
		if pe, ok := err.(*liquidacion.PipelineError); ok {
			log.Error().Err(pe.Err).Str("phase", pe.Phase).Msg("liquidation failed")
			switch pe.Phase {
			case "validate":
				os.Exit(exitcode.ValidationError)
			case "normalize":
				os.Exit(exitcode.InputError)
			default:
				os.Exit(exitCodeFor(pe.Err))
			}
		}
		fail(log, err, "liquidation failed")
	}

	detail := export.Detail(res.Rated)
	if cfg.OutPath != "" {
		if err := writeWorkbook(cfg.OutPath, detail, export.Summary(res.Summary, res.Totals)); err != nil {
			log.Error().Err(err).Str("path", cfg.OutPath).Msg("failed to write workbook")
			os.Exit(exitcode.PersistError)
		}
		log.Info().Str("path", cfg.OutPath).Msg("workbook written")
	}
	if cfg.ArchivePath != "" {
		batchID := uuid.New()
		if res.Run != nil {
			batchID = res.Run.ID
		}
		if err := archive.Write(cfg.ArchivePath, batchID, res.Rated); err != nil {
			log.Error().Err(err).Str("path", cfg.ArchivePath).Msg("failed to write archive")
			os.Exit(exitcode.PersistError)
		}
		log.Info().Str("path", cfg.ArchivePath).Int("lines", len(res.Rated)).Msg("archive written")
	}
	if cfg.ReportsPath != "" {
		reports, err := svc.StaffReports(ctx, res, p)
		if err != nil {
			fail(log, err, "failed to build staff reports")
		}
		if err := writeJSON(cfg.ReportsPath, reports); err != nil {
			log.Error().Err(err).Str("path", cfg.ReportsPath).Msg("failed to write reports")
			os.Exit(exitcode.PersistError)
		}
	}

	seq, err := svc.SequenceNumber(ctx, p)
	if err != nil {
		fail(log, err, "failed to read liquidation number")
	}

	fmt.Printf("=== Liquidación N° %d - %s ===\n", seq, export.PeriodLabel(p))
	fmt.Printf("Archivo:          %s\n", cfg.FilePath)
	fmt.Printf("Filas leídas:     %d\n", res.Stats.RowsRead)
	fmt.Printf("Procedimientos:   %d\n", res.Totals.ProcedureCount)
	if res.Run != nil {
		fmt.Printf("Lote:             %s\n", res.Run.ID)
	} else {
		fmt.Println("Lote:             (dry run, no registrado)")
	}
	fmt.Println()
	for _, row := range res.Summary {
		fmt.Printf("  %-32s %4d  %16s\n", row.Staff, row.Count, export.FormatARS(row.Total))
	}
	fmt.Printf("  %-32s %4d  %16s\n", export.TotalLabel, res.Totals.ProcedureCount, export.FormatARS(res.Totals.TotalAmount))

	if len(res.Missing) > 0 {
		fmt.Printf("\nCódigos faltantes: %d\n", res.Totals.MissingCount)
		for _, m := range res.Missing {
			line := fmt.Sprintf("  %-12s %-8s x%-3d %s", m.Code, m.Reason, m.Occurrences, m.Description)
			if m.Suggestion != "" {
				line += fmt.Sprintf("  (¿%s?)", m.Suggestion)
			}
			fmt.Println(line)
		}
		os.Exit(exitcode.PartialSuccess)
	}
	return nil
}

func runHistorial(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat, cfg.LogLevel)
	ctx := context.Background()

	if err := cfg.ValidatePeriod(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}
	svc, closePool := openService(ctx, log)
	defer closePool()

	runs, err := svc.History(ctx, cfg.Period())
	if err != nil {
		fail(log, err, "failed to list runs")
	}
	if len(runs) == 0 {
		fmt.Printf("No runs recorded for %s\n", export.PeriodLabel(cfg.Period()))
		return nil
	}
	for _, r := range runs {
		fmt.Printf("%s  %s  %-28s %4d procs  %16s  %d faltantes\n",
			r.CreatedAt.Local().Format(time.DateTime), r.ID, r.SourceFile,
			r.Totals.ProcedureCount, export.FormatARS(r.Totals.TotalAmount), r.Totals.MissingCount)
	}
	return nil
}

func writeWorkbook(path string, detail []export.DetailRow, summary []export.SummaryLine) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := export.WriteWorkbook(f, detail, summary); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
