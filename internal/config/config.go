package config

import (
	"fmt"
	"os"

	"github.com/lucasmmg12/liquidaciones-osde/internal/model"
)

// Config holds all runtime configuration for a liquidar run.
type Config struct {
	DSN         string
	LogFormat   string // "text" or "json"
	LogLevel    string
	RulesPath   string
	FilePath    string
	Month       int
	Year        int
	Payer       string
	Module      string
	DryRun      bool
	Suggest     bool
	OutPath     string // xlsx Detail/Summary workbook
	ArchivePath string // parquet archive of rated lines
	ReportsPath string // per-staff reports as JSON

	// ReferencePath is a nomenclador workbook used instead of the database.
	ReferencePath string
	Addr          string

	Rules Rules
}

// Period returns the liquidation period built from the flags.
func (c *Config) Period() model.Period {
	return model.NewPeriod(c.Month, c.Year, c.Payer, c.Module)
}

// Validate checks required fields and returns an error if the config is invalid.
func (c *Config) Validate() error {
	if c.FilePath == "" {
		return fmt.Errorf("--file is required")
	}
	if _, err := os.Stat(c.FilePath); err != nil {
		return fmt.Errorf("file not accessible: %w", err)
	}
	return nil
}

// ValidatePeriod checks the month/year/payer/module flags.
func (c *Config) ValidatePeriod() error {
	if c.Month == 0 {
		return fmt.Errorf("--mes is required")
	}
	if c.Year == 0 {
		return fmt.Errorf("--anio is required")
	}
	return c.Period().Validate()
}

// ValidateWithDSN checks the file, the period and the DSN.
func (c *Config) ValidateWithDSN() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := c.ValidatePeriod(); err != nil {
		return err
	}
	return c.RequireDSN()
}

// RequireDSN checks only the database connection string.
func (c *Config) RequireDSN() error {
	if c.DSN == "" {
		return fmt.Errorf("--dsn or DATABASE_URL is required")
	}
	return nil
}
