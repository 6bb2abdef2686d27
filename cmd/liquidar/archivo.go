package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/lucasmmg12/liquidaciones-osde/internal/archive"
	"github.com/lucasmmg12/liquidaciones-osde/internal/exitcode"
	"github.com/lucasmmg12/liquidaciones-osde/internal/export"
	"github.com/lucasmmg12/liquidaciones-osde/internal/logging"
)

var archivoCmd = &cobra.Command{
	Use:   "archivo [path]",
	Short: "Inspect a Parquet archive written by procesar --archive",
	Args:  cobra.ExactArgs(1),
	RunE:  runArchivo,
}

func init() {
	rootCmd.AddCommand(archivoCmd)
}

func runArchivo(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat, cfg.LogLevel)

	st, err := archive.Inspect(args[0])
	if err != nil {
		log.Error().Err(err).Str("file", args[0]).Msg("failed to inspect archive")
		os.Exit(exitcode.InputError)
	}

	fmt.Printf("Lote:        %s\n", st.BatchRunID)
	fmt.Printf("Líneas:      %d (%d con plus horario)\n", st.Lines, st.Surcharged)
	fmt.Printf("Total:       %s\n", export.FormatARS(st.Total))

	staff := make([]string, 0, len(st.ByStaff))
	for name := range st.ByStaff {
		staff = append(staff, name)
	}
	sort.Strings(staff)
	for _, name := range staff {
		fmt.Printf("  %-32s %6d\n", name, st.ByStaff[name])
	}
	return nil
}
