package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del adapter.
type Config struct {
	Gateway   GatewayConfig   `yaml:"gateway"`
	Connector ConnectorConfig `yaml:"connector"`
	Retry     RetryConfig     `yaml:"retry"`
	Storage   StorageConfig   `yaml:"storage"`
	Log       LogConfig       `yaml:"log"`
}

// GatewayConfig apunta al gateway service.
type GatewayConfig struct {
	BaseURL               string `yaml:"base_url"`
	RequestTimeoutSeconds int    `yaml:"request_timeout_seconds"`
}

// ConnectorConfig identifica al adapter frente al venue.
type ConnectorConfig struct {
	Chain               string   `yaml:"chain"`
	Network             string   `yaml:"network"`
	Connector           string   `yaml:"connector"`
	WalletAddress       string   `yaml:"wallet_address"`
	TradingPairs        []string `yaml:"trading_pairs"`         // vacío = todos los mercados
	MarketsRefreshHours int      `yaml:"markets_refresh_hours"` // periodo del refresh en background
}

// RetryConfig gobierna el retry runner para llamadas al gateway.
type RetryConfig struct {
	Attempts       int `yaml:"attempts"`
	TimeoutSeconds int `yaml:"timeout_seconds"`
	DelaySeconds   int `yaml:"delay_seconds"`
}

// StorageConfig controla dónde se persiste el journal de eventos.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si
// existe. Las variables de entorno sobreescriben el YAML.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if cfg.Connector.WalletAddress == "" {
		return nil, fmt.Errorf("config.Load: wallet_address is required (YAML or WALLET_ADDRESS env)")
	}

	return &cfg, nil
}

// RequestTimeout devuelve el timeout HTTP como time.Duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Gateway.RequestTimeoutSeconds) * time.Second
}

// MarketsRefreshInterval devuelve el periodo del refresh de mercados.
func (c *Config) MarketsRefreshInterval() time.Duration {
	return time.Duration(c.Connector.MarketsRefreshHours) * time.Hour
}

// applyEnvOverrides sobreescribe valores con variables de entorno.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("GATEWAY_BASE_URL"); v != "" {
		cfg.Gateway.BaseURL = v
	}
	if v := os.Getenv("WALLET_ADDRESS"); v != "" {
		cfg.Connector.WalletAddress = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// setDefaults asegura valores sensatos para lo no configurado.
func setDefaults(cfg *Config) {
	if cfg.Gateway.BaseURL == "" {
		cfg.Gateway.BaseURL = "http://localhost:15888"
	}
	if cfg.Gateway.RequestTimeoutSeconds <= 0 {
		cfg.Gateway.RequestTimeoutSeconds = 10
	}
	if cfg.Connector.Chain == "" {
		cfg.Connector.Chain = "kujira"
	}
	if cfg.Connector.Network == "" {
		cfg.Connector.Network = "mainnet"
	}
	if cfg.Connector.Connector == "" {
		cfg.Connector.Connector = "kujira"
	}
	if cfg.Connector.MarketsRefreshHours <= 0 {
		cfg.Connector.MarketsRefreshHours = 8
	}
	if cfg.Retry.Attempts <= 0 {
		cfg.Retry.Attempts = 3
	}
	if cfg.Retry.TimeoutSeconds <= 0 {
		cfg.Retry.TimeoutSeconds = 60
	}
	if cfg.Retry.DelaySeconds <= 0 {
		cfg.Retry.DelaySeconds = 1
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "kujibot.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
