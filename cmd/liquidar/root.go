package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/lucasmmg12/liquidaciones-osde/internal/config"
	"github.com/lucasmmg12/liquidaciones-osde/internal/db"
	"github.com/lucasmmg12/liquidaciones-osde/internal/exitcode"
	"github.com/lucasmmg12/liquidaciones-osde/internal/liquidacion"
	"github.com/lucasmmg12/liquidaciones-osde/internal/logging"
	"github.com/lucasmmg12/liquidaciones-osde/internal/model"
	"github.com/lucasmmg12/liquidaciones-osde/internal/store"
)

var (
	cfg config.Config
	// env is loaded during package initialization so every command's init
	// can default its flags from it.
	env = mustLoadEnv()
)

var rootCmd = &cobra.Command{
	Use:   "liquidar",
	Short: "Liquidación de procedimientos de instrumentadores",
	Long: "Reads a monthly visit export, rates every procedure against the nomenclador " +
		"and the period's unit prices, and totals the amount owed per instrumentador.",
	SilenceUsage:      true,
	PersistentPreRunE: loadRules,
}

func mustLoadEnv() *config.Env {
	e, err := config.LoadEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "environment: %v\n", err)
		os.Exit(exitcode.UsageError)
	}
	return e
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfg.DSN, "dsn", env.DatabaseURL, "Postgres connection string (or set DATABASE_URL)")
	pf.StringVar(&cfg.LogFormat, "log-format", env.LogFormat, "Log format: text or json")
	pf.StringVar(&cfg.LogLevel, "log-level", env.LogLevel, "Log level: debug, info, warn, error")
	pf.StringVar(&cfg.RulesPath, "rules", env.RulesFile, "YAML file with column and numbering rules")
}

func loadRules(cmd *cobra.Command, args []string) error {
	rules, err := config.LoadRules(cfg.RulesPath)
	if err != nil {
		log := logging.Setup(cfg.LogFormat, cfg.LogLevel)
		log.Error().Err(err).Str("rules", cfg.RulesPath).Msg("invalid rules file")
		os.Exit(exitcode.UsageError)
	}
	cfg.Rules = rules
	return nil
}

// addPeriodFlags binds --mes/--anio/--obra-social/--modulo to cfg.
func addPeriodFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.IntVar(&cfg.Month, "mes", 0, "Liquidation month (1-12)")
	f.IntVar(&cfg.Year, "anio", 0, "Liquidation year")
	f.StringVar(&cfg.Payer, "obra-social", env.DefaultPayer, "Payer")
	f.StringVar(&cfg.Module, "modulo", env.DefaultModule, "Billing module")
}

func serviceOptions() liquidacion.Options {
	return liquidacion.Options{
		Mapping:  cfg.Rules.Mapping(),
		Sequence: cfg.Rules.Sequence,
		Suggest:  cfg.Suggest,
	}
}

// openService connects to the database and returns a Service over it. The
// returned func closes the pool.
func openService(ctx context.Context, log zerolog.Logger) (*liquidacion.Service, func()) {
	if err := cfg.RequireDSN(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}
	pool, err := db.NewPool(ctx, cfg.DSN)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		os.Exit(exitcode.DBConnError)
	}
	svc := liquidacion.New(store.NewPG(pool, log), log, serviceOptions())
	return svc, pool.Close
}

// exitCodeFor maps the error taxonomy onto process exit codes.
func exitCodeFor(err error) int {
	switch {
	case model.IsValidation(err):
		return exitcode.ValidationError
	case model.IsInputFormat(err):
		return exitcode.InputError
	default:
		return exitcode.PersistError
	}
}

// fail logs err and exits with the code its type maps to.
func fail(log zerolog.Logger, err error, msg string) {
	log.Error().Err(err).Msg(msg)
	os.Exit(exitCodeFor(err))
}
