// mkfixture writes a synthetic visit export and a matching nomenclador
// workbook for trying the CLI and the API without hospital data.
// Usage: go run ./cmd/mkfixture --out testdata/visitas.xlsx --nomenclador testdata/nomenclador.xlsx --rows 200
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/xuri/excelize/v2"
)

type procedure struct {
	code, description, complexity string
}

var procedures = []procedure{
	{"031301", "COLECISTECTOMIA LAPAROSCOPICA", "A"},
	{"031302", "APENDICECTOMIA", "B"},
	{"080101", "HERNIOPLASTIA INGUINAL", "B"},
	{"110301", "ARTROSCOPIA DE RODILLA", "A"},
	{"120401", "CESAREA", "C"},
	{"050201", "AMIGDALECTOMIA", "D"},
	{"090105", "SAFENECTOMIA", "C"},
}

var prices = map[string]int{"A": 39000, "B": 30000, "C": 24000, "D": 18000}

var (
	staff    = []string{"PEREZ ANA", "GOMEZ LAURA", "DIAZ MARTIN", "SIN INSTRUMENTADOR"}
	surgeons = []string{"DR. LOPEZ", "DRA. FERNANDEZ", "DR. SUAREZ"}
	payers   = []string{"OSDE", "OSDE 210", "OSDE 310"}
)

func main() {
	out := flag.String("out", "testdata/visitas.xlsx", "visit export to write")
	ref := flag.String("nomenclador", "", "also write a nomenclador workbook here")
	rows := flag.Int("rows", 200, "visit rows")
	month := flag.Int("mes", 8, "month of the visits")
	year := flag.Int("anio", 2025, "year of the visits")
	seed := flag.Int64("seed", 1, "random seed")
	unknown := flag.Int("faltantes", 3, "rows carrying a code absent from the nomenclador")
	flag.Parse()

	rng := rand.New(rand.NewSource(*seed))
	if err := writeVisits(*out, rng, *rows, *unknown, time.Month(*month), *year); err != nil {
		fmt.Fprintf(os.Stderr, "write visits: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %d visit rows to %s\n", *rows, *out)

	if *ref != "" {
		if err := writeReference(*ref); err != nil {
			fmt.Fprintf(os.Stderr, "write nomenclador: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %d procedures to %s\n", len(procedures), *ref)
	}
}

func writeVisits(path string, rng *rand.Rand, rows, unknown int, month time.Month, year int) error {
	f := excelize.NewFile()
	defer f.Close()
	const sheet = "Sheet1"

	// exporters put a title block above the header
	if err := f.SetCellValue(sheet, "A1", "Listado de visitas"); err != nil {
		return err
	}
	header := []any{"Fecha de visita", "Hora de comienzo", "Paciente", "Cirujano", "Instrumentador/a",
		"Cliente", "Procedimiento Quirurgico 1", "Procedimiento Quirurgico 2"}
	if err := f.SetSheetRow(sheet, "A3", &header); err != nil {
		return err
	}

	days := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	for i := 0; i < rows; i++ {
		day := time.Date(year, month, 1+rng.Intn(days), 0, 0, 0, 0, time.UTC)
		hour := fmt.Sprintf("%02d:%02d", rng.Intn(24), 15*rng.Intn(4))

		first := procedures[rng.Intn(len(procedures))]
		cell1 := first.code + " - " + first.description
		if i < unknown {
			cell1 = fmt.Sprintf("99%04d - PROCEDIMIENTO NO NOMENCLADO %d", i, i)
		}
		cell2 := ""
		if rng.Intn(4) == 0 {
			second := procedures[rng.Intn(len(procedures))]
			cell2 = second.code + " - " + second.description
		}

		row := []any{
			day.Format("02/01/2006"),
			hour,
			fmt.Sprintf("PACIENTE %04d", i+1),
			surgeons[rng.Intn(len(surgeons))],
			staff[rng.Intn(len(staff))],
			payers[rng.Intn(len(payers))],
			cell1,
			cell2,
		}
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", i+4), &row); err != nil {
			return err
		}
	}
	return f.SaveAs(path)
}

func writeReference(path string) error {
	f := excelize.NewFile()
	defer f.Close()
	const sheet = "Nomenclador"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	header := []any{"Código", "Procedimiento", "Complejidad", "Valor"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for i, p := range procedures {
		row := []any{p.code, p.description, p.complexity, prices[p.complexity]}
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return err
		}
	}
	return f.SaveAs(path)
}
