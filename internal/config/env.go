package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Env is the process environment layer. Flags default to these values.
type Env struct {
	DatabaseURL   string `mapstructure:"DATABASE_URL"`
	LogFormat     string `mapstructure:"LOG_FORMAT"`
	LogLevel      string `mapstructure:"LOG_LEVEL"`
	RulesFile     string `mapstructure:"RULES_FILE"`
	Port          string `mapstructure:"PORT"`
	DefaultPayer  string `mapstructure:"DEFAULT_PAYER"`
	DefaultModule string `mapstructure:"DEFAULT_MODULE"`
}

// LoadEnv reads the environment and an optional .env file in the working
// directory.
func LoadEnv() (*Env, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("PORT", "8080")
	v.SetDefault("DEFAULT_PAYER", "OSDE")
	v.SetDefault("DEFAULT_MODULE", "instrumentadores")

	for _, key := range []string{"DATABASE_URL", "LOG_FORMAT", "LOG_LEVEL", "RULES_FILE", "PORT",
		"DEFAULT_PAYER", "DEFAULT_MODULE"} {
		_ = v.BindEnv(key)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	env := &Env{}
	if err := v.Unmarshal(env); err != nil {
		return nil, fmt.Errorf("unmarshal env: %w", err)
	}
	if env.DatabaseURL == "" {
		// Supabase deployments export the pooler URL under this name.
		_ = v.BindEnv("SUPABASE_DB_URL")
		env.DatabaseURL = v.GetString("SUPABASE_DB_URL")
	}
	return env, nil
}
