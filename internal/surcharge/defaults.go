package surcharge

import (
	"time"

	"github.com/lucasmmg12/liquidaciones-osde/internal/model"
)

type fixed struct {
	y    int
	m    time.Month
	d    int
	desc string
}

var argentina = []fixed{
	{2024, time.January, 1, "Año Nuevo"},
	{2024, time.February, 12, "Carnaval"},
	{2024, time.February, 13, "Carnaval"},
	{2024, time.March, 24, "Día Nacional de la Memoria"},
	{2024, time.March, 29, "Viernes Santo"},
	{2024, time.April, 2, "Día del Veterano"},
	{2024, time.May, 1, "Día del Trabajador"},
	{2024, time.May, 25, "Revolución de Mayo"},
	{2024, time.June, 20, "Paso a la Inmortalidad del Gral. Belgrano"},
	{2024, time.July, 9, "Día de la Independencia"},
	{2024, time.August, 17, "Paso a la Inmortalidad del Gral. San Martín"},
	{2024, time.October, 12, "Día del Respeto a la Diversidad Cultural"},
	{2024, time.November, 18, "Día de la Soberanía Nacional"},
	{2024, time.December, 8, "Inmaculada Concepción de María"},
	{2024, time.December, 25, "Navidad"},

	{2025, time.January, 1, "Año Nuevo"},
	{2025, time.March, 3, "Carnaval"},
	{2025, time.March, 4, "Carnaval"},
	{2025, time.March, 24, "Día Nacional de la Memoria"},
	{2025, time.April, 2, "Día del Veterano"},
	{2025, time.April, 18, "Viernes Santo"},
	{2025, time.May, 1, "Día del Trabajador"},
	{2025, time.May, 25, "Revolución de Mayo"},
	{2025, time.June, 20, "Paso a la Inmortalidad del Gral. Belgrano"},
	{2025, time.July, 9, "Día de la Independencia"},
	{2025, time.August, 17, "Paso a la Inmortalidad del Gral. San Martín"},
	{2025, time.October, 12, "Día del Respeto a la Diversidad Cultural"},
	{2025, time.November, 24, "Día de la Soberanía Nacional"},
	{2025, time.December, 8, "Inmaculada Concepción de María"},
	{2025, time.December, 25, "Navidad"},

	{2026, time.January, 1, "Año Nuevo"},
	{2026, time.February, 16, "Carnaval"},
	{2026, time.February, 17, "Carnaval"},
	{2026, time.March, 24, "Día Nacional de la Memoria"},
	{2026, time.April, 2, "Día del Veterano"},
	{2026, time.April, 3, "Viernes Santo"},
	{2026, time.May, 1, "Día del Trabajador"},
	{2026, time.May, 25, "Revolución de Mayo"},
	{2026, time.June, 20, "Paso a la Inmortalidad del Gral. Belgrano"},
	{2026, time.July, 9, "Día de la Independencia"},
	{2026, time.August, 17, "Paso a la Inmortalidad del Gral. San Martín"},
	{2026, time.October, 12, "Día del Respeto a la Diversidad Cultural"},
	{2026, time.November, 23, "Día de la Soberanía Nacional"},
	{2026, time.December, 8, "Inmaculada Concepción de María"},
	{2026, time.December, 25, "Navidad"},
}

// DefaultHolidays returns Argentine national holidays for 2024 through 2026.
func DefaultHolidays() []model.Holiday {
	out := make([]model.Holiday, len(argentina))
	for i, f := range argentina {
		out[i] = model.Holiday{Date: model.MustDate(f.y, f.m, f.d), Description: f.desc}
	}
	return out
}
