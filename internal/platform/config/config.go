package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"authbridge/internal/auth/provider"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `env:"AUTHBRIDGE_ADDR"             envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"AUTHBRIDGE_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	RequestTimeout  time.Duration `env:"AUTHBRIDGE_REQUEST_TIMEOUT"  envDefault:"30s"`
}

// Firebase holds the Identity Toolkit credentials.
type Firebase struct {
	APIKey  string        `env:"FIREBASE_API_KEY"`
	BaseURL string        `env:"FIREBASE_BASE_URL" envDefault:"https://identitytoolkit.googleapis.com"`
	Timeout time.Duration `env:"FIREBASE_TIMEOUT"  envDefault:"10s"`
}

// Supabase holds the project URL and anon key.
type Supabase struct {
	URL     string        `env:"SUPABASE_URL"`
	AnonKey string        `env:"SUPABASE_ANON_KEY"`
	Timeout time.Duration `env:"SUPABASE_TIMEOUT" envDefault:"10s"`
}

// Config is the process configuration. Provider is chosen once at start.
type Config struct {
	Provider     string `env:"AUTH_PROVIDER"  envDefault:"firebase"`
	LogLevel     string `env:"LOG_LEVEL"      envDefault:"info"`
	LogFormat    string `env:"LOG_FORMAT"     envDefault:"json"`
	OTelEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	Server   Server
	Firebase Firebase
	Supabase Supabase
}

// Load parses the environment and validates the selected provider.
func Load() (Config, error) {
	return LoadFrom(nil)
}

// LoadFrom parses vars instead of the process environment when vars is non-nil.
func LoadFrom(vars map[string]string) (Config, error) {
	var cfg Config
	opts := env.Options{}
	if vars != nil {
		opts.Environment = vars
	}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ProviderName returns the validated provider identifier.
func (c Config) ProviderName() provider.Name {
	name, _ := provider.ParseName(c.Provider)
	return name
}

// Validate checks that the selected provider has its credentials.
func (c Config) Validate() error {
	name, err := provider.ParseName(c.Provider)
	if err != nil {
		return fmt.Errorf("AUTH_PROVIDER: %w", err)
	}
	switch name {
	case provider.NameFirebase:
		if c.Firebase.APIKey == "" {
			return errors.New("FIREBASE_API_KEY is required when AUTH_PROVIDER=firebase")
		}
	case provider.NameSupabase:
		if c.Supabase.URL == "" || c.Supabase.AnonKey == "" {
			return errors.New("SUPABASE_URL and SUPABASE_ANON_KEY are required when AUTH_PROVIDER=supabase")
		}
	}
	return nil
}
