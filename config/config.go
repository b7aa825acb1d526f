package config

import (
	"fmt"
	"os"
	"time"

	"github.com/alejandrodnm/polycopy/internal/domain"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del daemon de copy-trading.
type Config struct {
	Copier     CopierConfig     `yaml:"copier"`
	Guardrails GuardrailsConfig `yaml:"guardrails"`
	API        APIConfig        `yaml:"api"`
	Storage    StorageConfig    `yaml:"storage"`
	Log        LogConfig        `yaml:"log"`
	Wallets    []WalletConfig   `yaml:"wallets"`
}

// CopierConfig controla las cadencias y el modo de ejecución.
type CopierConfig struct {
	PollIntervalSeconds      int    `yaml:"poll_interval_seconds"`
	ReconcileIntervalMinutes int    `yaml:"reconcile_interval_minutes"`
	MaxTradeAgeMinutes       int    `yaml:"max_trade_age_minutes"`
	DryRun                   bool   `yaml:"dry_run"`
	VenueAddress             string `yaml:"venue_address"` // nuestra cuenta en el venue
}

// GuardrailsConfig son los defaults globales de la política. Cualquier
// wallet puede overridearlos individualmente.
type GuardrailsConfig struct {
	CopyBuys        bool    `yaml:"copy_buys"`
	CopySells       bool    `yaml:"copy_sells"`
	MinPrice        float64 `yaml:"min_price"`
	MaxPrice        float64 `yaml:"max_price"`
	MinSourceSize   float64 `yaml:"min_source_size"`
	SizingMode      string  `yaml:"sizing_mode"`
	FixedDollar     float64 `yaml:"fixed_dollar"`
	FixedShares     float64 `yaml:"fixed_shares"`
	CopyRatio       float64 `yaml:"copy_ratio"`
	ConvictionRatio float64 `yaml:"conviction_ratio"`
	MaxCostPerTrade float64 `yaml:"max_cost_per_trade"`
	MaxExposure     float64 `yaml:"max_exposure"`
	MaxTradesPerRun int     `yaml:"max_trades_per_run"`
	MaxRunSpend     float64 `yaml:"max_run_spend"`
}

// APIConfig contiene los base URLs de las APIs externas.
type APIConfig struct {
	DataBase     string `yaml:"data_base"`
	ExecutorBase string `yaml:"executor_base"`
}

// StorageConfig controla dónde se persiste el ledger.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// WalletConfig declara una wallet trackeada en el YAML; se sincroniza al
// ledger en el arranque sin tocar sus totales de funding.
type WalletConfig struct {
	Address   string                    `yaml:"address"`
	Alias     string                    `yaml:"alias"`
	Enabled   *bool                     `yaml:"enabled"`
	Overrides domain.GuardrailOverrides `yaml:"overrides"`
}

// Load carga la configuración desde el archivo YAML y el archivo .env si
// existe. El YAML se parsea sobre los defaults, así los booleanos ausentes
// conservan su valor por defecto.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// Default devuelve una configuración sensata para producción.
func Default() *Config {
	return &Config{
		Copier: CopierConfig{
			PollIntervalSeconds:      30,
			ReconcileIntervalMinutes: 15,
			MaxTradeAgeMinutes:       60,
			DryRun:                   true,
		},
		Guardrails: GuardrailsConfig{
			CopyBuys:        true,
			CopySells:       true,
			MinPrice:        0.02,
			MaxPrice:        0.98,
			MinSourceSize:   1,
			SizingMode:      domain.SizingConviction,
			FixedDollar:     5,
			FixedShares:     10,
			CopyRatio:       0.05,
			ConvictionRatio: 0.10,
			MaxCostPerTrade: 25,
			MaxExposure:     250,
			MaxTradesPerRun: 5,
			MaxRunSpend:     50,
		},
		API: APIConfig{
			DataBase:     "https://data-api.polymarket.com",
			ExecutorBase: "http://localhost:8787",
		},
		Storage: StorageConfig{DSN: "polycopy.db"},
		Log:     LogConfig{Level: "info", Format: "text"},
	}
}

// PollInterval devuelve el intervalo del copy loop como time.Duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Copier.PollIntervalSeconds) * time.Second
}

// ReconcileInterval devuelve la cadencia de reconciliación.
func (c *Config) ReconcileInterval() time.Duration {
	return time.Duration(c.Copier.ReconcileIntervalMinutes) * time.Minute
}

// MaxTradeAge devuelve la ventana máxima de edad de un signal.
func (c *Config) MaxTradeAge() time.Duration {
	return time.Duration(c.Copier.MaxTradeAgeMinutes) * time.Minute
}

// Policy construye la política global de guardrails desde los defaults.
func (c *Config) Policy() domain.Policy {
	g := c.Guardrails
	return domain.Policy{
		CopyBuys:        g.CopyBuys,
		CopySells:       g.CopySells,
		MinPrice:        g.MinPrice,
		MaxPrice:        g.MaxPrice,
		MinSourceSize:   g.MinSourceSize,
		SizingMode:      g.SizingMode,
		FixedDollar:     g.FixedDollar,
		FixedShares:     g.FixedShares,
		CopyRatio:       g.CopyRatio,
		ConvictionRatio: g.ConvictionRatio,
		MaxCostPerTrade: g.MaxCostPerTrade,
		MaxExposure:     g.MaxExposure,
		MaxTradesPerRun: g.MaxTradesPerRun,
		MaxRunSpend:     g.MaxRunSpend,
	}
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están
// presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("POLYCOPY_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("POLYCOPY_EXECUTOR_BASE"); v != "" {
		cfg.API.ExecutorBase = v
	}
	if v := os.Getenv("POLYCOPY_VENUE_ADDRESS"); v != "" {
		cfg.Copier.VenueAddress = v
	}
}
