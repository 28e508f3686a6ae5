package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the MME configuration
type Config struct {
	SBI           SBIConfig           `yaml:"sbi"`
	NF            NFConfig            `yaml:"nf"`
	NRF           NRFConfig           `yaml:"nrf"`
	GUAMI         GUAMI               `yaml:"guami"`
	Timers        TimersConfig        `yaml:"timers"`
	Features      FeaturesConfig      `yaml:"features"`
	Subscriber    SubscriberConfig    `yaml:"subscriber"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// SBIConfig holds Service Based Interface configuration for the MME's
// debug/control-plane HTTP API.
type SBIConfig struct {
	Scheme      string    `yaml:"scheme"`       // http or https
	BindAddress string    `yaml:"bind_address"` // 0.0.0.0
	Port        int       `yaml:"port"`         // 8080
	TLS         TLSConfig `yaml:"tls"`
}

// TLSConfig holds TLS configuration
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// NFConfig holds NF-specific configuration
type NFConfig struct {
	Name        string `yaml:"name"`        // mme-1
	InstanceID  string `yaml:"instance_id"` // UUID
	Description string `yaml:"description"`
}

// NRFConfig holds NRF client configuration for self-registration
type NRFConfig struct {
	URL               string `yaml:"url"`
	HeartbeatInterval int    `yaml:"heartbeat_interval"` // seconds
}

// GUAMI holds the Globally Unique MME Identifier plus the PLMN/TAC it
// uses to synthesize GUTIs for newly attached UEs.
type GUAMI struct {
	PLMN        PLMN   `yaml:"plmn"`
	MMEGroupID  string `yaml:"mme_group_id"` // MMEgid
	MMECode     string `yaml:"mme_code"`     // MMEC
	TAC         string `yaml:"tac"`
}

// PLMN represents Public Land Mobile Network identity
type PLMN struct {
	MCC string `yaml:"mcc"`
	MNC string `yaml:"mnc"`
}

// TimersConfig holds the EMM procedure timer configuration
type TimersConfig struct {
	T3450Seconds     int `yaml:"t3450_seconds"`      // default 6
	AttachCounterMax int `yaml:"attach_counter_max"` // default 5
}

// FeaturesConfig holds the MME API feature flags referenced in spec.md §6
type FeaturesConfig struct {
	EmergencyAttach     bool `yaml:"emergency_attach"`
	UnauthenticatedIMSI bool `yaml:"unauthenticated_imsi"`
}

// SubscriberConfig selects and configures the subscriber/auth-vector backing store
type SubscriberConfig struct {
	Backend    string           `yaml:"backend"` // memory, clickhouse
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
}

// ClickHouseConfig holds ClickHouse connection parameters
type ClickHouseConfig struct {
	Addr     []string `yaml:"addr"`
	Database string   `yaml:"database"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
}

// ObservabilityConfig holds observability configuration
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
	Logging LoggingConfig `yaml:"logging"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// TracingConfig holds tracing configuration
type TracingConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Exporter string `yaml:"exporter"` // otlp, jaeger
	Endpoint string `yaml:"endpoint"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// Load loads configuration from a YAML file, falling back to DefaultConfig
// when the file does not exist.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.SBI.Port <= 0 || c.SBI.Port > 65535 {
		return fmt.Errorf("invalid SBI port: %d", c.SBI.Port)
	}

	if c.SBI.Scheme != "http" && c.SBI.Scheme != "https" {
		return fmt.Errorf("invalid SBI scheme: %s (must be http or https)", c.SBI.Scheme)
	}

	if c.SBI.TLS.Enabled {
		if c.SBI.TLS.CertFile == "" || c.SBI.TLS.KeyFile == "" {
			return fmt.Errorf("TLS enabled but cert/key files not specified")
		}
	}

	if c.NF.InstanceID == "" {
		return fmt.Errorf("NF instance ID is required")
	}

	if c.GUAMI.PLMN.MCC == "" || c.GUAMI.PLMN.MNC == "" {
		return fmt.Errorf("GUAMI PLMN MCC/MNC is required")
	}

	if len(c.GUAMI.PLMN.MNC) != 2 && len(c.GUAMI.PLMN.MNC) != 3 {
		return fmt.Errorf("GUAMI PLMN MNC must be 2 or 3 digits, got %q", c.GUAMI.PLMN.MNC)
	}

	if c.Timers.T3450Seconds <= 0 {
		return fmt.Errorf("invalid t3450_seconds: %d", c.Timers.T3450Seconds)
	}

	if c.Timers.AttachCounterMax <= 0 {
		return fmt.Errorf("invalid attach_counter_max: %d", c.Timers.AttachCounterMax)
	}

	switch c.Subscriber.Backend {
	case "memory", "clickhouse":
	default:
		return fmt.Errorf("invalid subscriber backend: %s (must be memory or clickhouse)", c.Subscriber.Backend)
	}

	return nil
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		SBI: SBIConfig{
			Scheme:      "http",
			BindAddress: "0.0.0.0",
			Port:        8080,
			TLS: TLSConfig{
				Enabled: false,
			},
		},
		NF: NFConfig{
			Name:        "mme-1",
			InstanceID:  "00000000-0000-0000-0000-000000000001",
			Description: "Mobility Management Entity",
		},
		NRF: NRFConfig{
			URL:               "",
			HeartbeatInterval: 30,
		},
		GUAMI: GUAMI{
			PLMN: PLMN{
				MCC: "208",
				MNC: "93",
			},
			MMEGroupID: "0001",
			MMECode:    "01",
			TAC:        "0001",
		},
		Timers: TimersConfig{
			T3450Seconds:     6,
			AttachCounterMax: 5,
		},
		Features: FeaturesConfig{
			EmergencyAttach:     false,
			UnauthenticatedIMSI: false,
		},
		Subscriber: SubscriberConfig{
			Backend: "memory",
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: true,
				Port:    9090,
			},
			Tracing: TracingConfig{
				Enabled:  false,
				Exporter: "otlp",
			},
			Logging: LoggingConfig{
				Level:  "info",
				Format: "json",
			},
		},
	}
}
