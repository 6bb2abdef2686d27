package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/lucasmmg12/liquidaciones-osde/internal/exitcode"
	"github.com/lucasmmg12/liquidaciones-osde/internal/export"
	"github.com/lucasmmg12/liquidaciones-osde/internal/liquidacion"
	"github.com/lucasmmg12/liquidaciones-osde/internal/logging"
	"github.com/lucasmmg12/liquidaciones-osde/internal/model"
	"github.com/lucasmmg12/liquidaciones-osde/internal/normalize"
	"github.com/lucasmmg12/liquidaciones-osde/internal/sheet"
)

var adminFlags struct {
	code        string
	description string
	complexity  string
	price       string
	fromMonth   int
	fromYear    int
	percentage  string
	date        string
	number      int
	license     string
	inactive    bool
}

var resolverCmd = &cobra.Command{
	Use:   "resolver",
	Short: "Register a missing code with its complexity and unit price",
	RunE:  runResolver,
}

var valoresCmd = &cobra.Command{
	Use:   "valores",
	Short: "Unit price administration",
}

var copiarCmd = &cobra.Command{
	Use:   "copiar",
	Short: "Copy a period's prices onto a later period, optionally raised by a percentage",
	RunE:  runCopiar,
}

var nomencladorCmd = &cobra.Command{
	Use:   "nomenclador",
	Short: "Nomenclador administration",
}

var importarCmd = &cobra.Command{
	Use:   "importar",
	Short: "Import a nomenclador workbook and its per-class prices",
	RunE:  runImportar,
}

func init() {
	f := resolverCmd.Flags()
	f.StringVar(&adminFlags.code, "codigo", "", "Procedure code (required)")
	f.StringVar(&adminFlags.description, "descripcion", "", "Procedure description")
	f.StringVar(&adminFlags.complexity, "complejidad", "", "Complexity class (required)")
	f.StringVar(&adminFlags.price, "valor", "", "Unit price for the period (required)")
	addPeriodFlags(resolverCmd)
	rootCmd.AddCommand(resolverCmd)

	f = copiarCmd.Flags()
	f.IntVar(&adminFlags.fromMonth, "desde-mes", 0, "Source month")
	f.IntVar(&adminFlags.fromYear, "desde-anio", 0, "Source year")
	f.StringVar(&adminFlags.percentage, "porcentaje", "", "Increase in percent, e.g. 12.5")
	addPeriodFlags(copiarCmd)
	valoresCmd.AddCommand(copiarCmd)
	rootCmd.AddCommand(valoresCmd)

	f = importarCmd.Flags()
	f.StringVar(&cfg.ReferencePath, "file", "", "Nomenclador workbook (required)")
	addPeriodFlags(importarCmd)
	_ = importarCmd.MarkFlagRequired("file")
	nomencladorCmd.AddCommand(importarCmd)
	rootCmd.AddCommand(nomencladorCmd)
}

func runResolver(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat, cfg.LogLevel)
	ctx := context.Background()

	price, err := normalize.ParseAmount(adminFlags.price)
	if err != nil {
		log.Error().Err(err).Str("valor", adminFlags.price).Msg("invalid unit price")
		os.Exit(exitcode.UsageError)
	}
	svc, closePool := openService(ctx, log)
	defer closePool()

	res, err := svc.Resolve(ctx, liquidacion.Resolution{
		Code:        adminFlags.code,
		Description: adminFlags.description,
		Complexity:  adminFlags.complexity,
		Period:      cfg.Period(),
		UnitPrice:   price,
	})
	if err != nil {
		fail(log, err, "resolution failed")
	}
	verb := "updated"
	if res.Created {
		verb = "created"
	}
	fmt.Printf("Code %s %s; %d missing lines resolved\n", res.Code, verb, res.Resolved)
	return nil
}

func runCopiar(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat, cfg.LogLevel)
	ctx := context.Background()

	to := cfg.Period()
	from := model.NewPeriod(adminFlags.fromMonth, adminFlags.fromYear, to.Payer, to.Module)
	if adminFlags.fromMonth == 0 && adminFlags.fromYear == 0 {
		from = to.Previous()
	}

	pct := decimal.Zero
	if adminFlags.percentage != "" {
		var err error
		if pct, err = decimal.NewFromString(adminFlags.percentage); err != nil {
			log.Error().Err(err).Str("porcentaje", adminFlags.percentage).Msg("invalid percentage")
			os.Exit(exitcode.UsageError)
		}
	}

	svc, closePool := openService(ctx, log)
	defer closePool()

	n, err := svc.CopyPeriodWithIncrease(ctx, from, to, pct)
	if err != nil {
		fail(log, err, "period copy failed")
	}
	fmt.Printf("%d prices copied from %s to %s (+%s%%)\n",
		n, export.PeriodLabel(from), export.PeriodLabel(to), pct.String())
	return nil
}

func runImportar(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat, cfg.LogLevel)
	ctx := context.Background()

	sh, err := sheet.ReadFile(cfg.ReferencePath, sheet.ReferenceOptions())
	if err != nil {
		log.Error().Err(err).Str("file", cfg.ReferencePath).Msg("failed to read nomenclador")
		os.Exit(exitcode.InputError)
	}
	svc, closePool := openService(ctx, log)
	defer closePool()

	res, err := svc.ImportReference(ctx, sh, cfg.Period())
	if err != nil {
		fail(log, err, "nomenclador import failed")
	}
	fmt.Printf("%d procedures, %d prices imported (%d rows skipped)\n", res.Procedures, res.Prices, res.Skipped)
	return nil
}

var feriadosCmd = &cobra.Command{
	Use:   "feriados",
	Short: "List the effective holiday calendar",
	RunE:  runFeriados,
}

var agregarFeriadoCmd = &cobra.Command{
	Use:   "agregar",
	Short: "Add a holiday",
	RunE:  runAgregarFeriado,
}

var quitarFeriadoCmd = &cobra.Command{
	Use:   "quitar",
	Short: "Remove a holiday",
	RunE:  runQuitarFeriado,
}

var restaurarFeriadosCmd = &cobra.Command{
	Use:   "restaurar",
	Short: "Replace the calendar with the built-in holidays",
	RunE:  runRestaurarFeriados,
}

var instrumentadorCmd = &cobra.Command{
	Use:   "instrumentador [nombre]",
	Short: "Add or update a staff directory record",
	Args:  cobra.ExactArgs(1),
	RunE:  runInstrumentador,
}

var numeroCmd = &cobra.Command{
	Use:   "numero",
	Short: "Show the liquidation number of a period",
	RunE:  runNumero,
}

var fijarNumeroCmd = &cobra.Command{
	Use:   "fijar",
	Short: "Override the liquidation number of a period",
	RunE:  runFijarNumero,
}

func init() {
	f := agregarFeriadoCmd.Flags()
	f.StringVar(&adminFlags.date, "fecha", "", "Date, DD/MM/YYYY or YYYY-MM-DD (required)")
	f.StringVar(&adminFlags.description, "descripcion", "", "Holiday name")
	_ = agregarFeriadoCmd.MarkFlagRequired("fecha")

	quitarFeriadoCmd.Flags().StringVar(&adminFlags.date, "fecha", "", "Date, DD/MM/YYYY or YYYY-MM-DD (required)")
	_ = quitarFeriadoCmd.MarkFlagRequired("fecha")

	feriadosCmd.AddCommand(agregarFeriadoCmd, quitarFeriadoCmd, restaurarFeriadosCmd)
	rootCmd.AddCommand(feriadosCmd)

	f = instrumentadorCmd.Flags()
	f.StringVar(&adminFlags.license, "matricula", "", "License number printed on the report")
	f.BoolVar(&adminFlags.inactive, "inactivo", false, "Mark the staff member inactive")
	rootCmd.AddCommand(instrumentadorCmd)

	addPeriodFlags(numeroCmd)
	addPeriodFlags(fijarNumeroCmd)
	fijarNumeroCmd.Flags().IntVar(&adminFlags.number, "valor", 0, "Liquidation number (required)")
	_ = fijarNumeroCmd.MarkFlagRequired("valor")
	numeroCmd.AddCommand(fijarNumeroCmd)
	rootCmd.AddCommand(numeroCmd)
}

func runFeriados(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat, cfg.LogLevel)
	ctx := context.Background()
	svc, closePool := openService(ctx, log)
	defer closePool()

	hs, err := svc.Holidays(ctx)
	if err != nil {
		fail(log, err, "failed to list holidays")
	}
	for _, h := range hs {
		fmt.Printf("%s  %s\n", h.Date, h.Description)
	}
	return nil
}

func runAgregarFeriado(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat, cfg.LogLevel)
	ctx := context.Background()

	d, ok := normalize.ParseDate(adminFlags.date)
	if !ok {
		log.Error().Str("fecha", adminFlags.date).Msg("invalid date")
		os.Exit(exitcode.UsageError)
	}
	svc, closePool := openService(ctx, log)
	defer closePool()

	err := svc.AddHoliday(ctx, model.Holiday{Date: d, Description: adminFlags.description})
	if errors.Is(err, model.ErrDuplicateHoliday) {
		log.Error().Str("fecha", d.String()).Msg("date is already a holiday")
		os.Exit(exitcode.ValidationError)
	}
	if err != nil {
		fail(log, err, "failed to add holiday")
	}
	fmt.Printf("Holiday %s added\n", d)
	return nil
}

func runQuitarFeriado(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat, cfg.LogLevel)
	ctx := context.Background()

	d, ok := normalize.ParseDate(adminFlags.date)
	if !ok {
		log.Error().Str("fecha", adminFlags.date).Msg("invalid date")
		os.Exit(exitcode.UsageError)
	}
	svc, closePool := openService(ctx, log)
	defer closePool()

	removed, err := svc.RemoveHoliday(ctx, d)
	if err != nil {
		fail(log, err, "failed to remove holiday")
	}
	if !removed {
		fmt.Printf("%s was not a holiday\n", d)
		return nil
	}
	fmt.Printf("Holiday %s removed\n", d)
	return nil
}

func runRestaurarFeriados(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat, cfg.LogLevel)
	ctx := context.Background()
	svc, closePool := openService(ctx, log)
	defer closePool()

	n, err := svc.RestoreDefaultHolidays(ctx)
	if err != nil {
		fail(log, err, "failed to restore holidays")
	}
	fmt.Printf("%d holidays restored\n", n)
	return nil
}

func runInstrumentador(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat, cfg.LogLevel)
	ctx := context.Background()
	svc, closePool := openService(ctx, log)
	defer closePool()

	m := model.StaffMember{Name: args[0], License: adminFlags.license, Active: !adminFlags.inactive}
	if err := svc.SaveStaff(ctx, m); err != nil {
		fail(log, err, "failed to save staff member")
	}
	fmt.Printf("%s saved\n", args[0])
	return nil
}

func runNumero(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat, cfg.LogLevel)
	ctx := context.Background()
	if err := cfg.ValidatePeriod(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}
	svc, closePool := openService(ctx, log)
	defer closePool()

	p := cfg.Period()
	n, err := svc.SequenceNumber(ctx, p)
	if err != nil {
		fail(log, err, "failed to read liquidation number")
	}
	fmt.Printf("%s: N° %d (computed %d)\n", export.PeriodLabel(p), n, svc.ComputedSequenceNumber(p))
	return nil
}

func runFijarNumero(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat, cfg.LogLevel)
	ctx := context.Background()
	if err := cfg.ValidatePeriod(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}
	svc, closePool := openService(ctx, log)
	defer closePool()

	p := cfg.Period()
	if err := svc.SetSequenceNumber(ctx, p, adminFlags.number); err != nil {
		fail(log, err, "failed to set liquidation number")
	}
	fmt.Printf("%s: N° %d\n", export.PeriodLabel(p), adminFlags.number)
	return nil
}
