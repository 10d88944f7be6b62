// Package config provides environment-variable-first configuration loading
// with optional YAML file fallback for the mail event appender.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrUnknownProvider is returned by Validate for an unsupported provider name.
var ErrUnknownProvider = errors.New("unknown provider")

// Config holds the complete application configuration.
type Config struct {
	Appender  AppenderConfig  `yaml:"appender"`
	Transport TransportConfig `yaml:"transport"`
	Provider  string          `yaml:"provider"`
	SMTP      SMTPConfig      `yaml:"smtp"`
	SES       SESConfig       `yaml:"ses"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// AppenderConfig holds the appender parameters. Port and Dry keep their raw
// text; the appender coerces them when they are applied, so "abc" is an unset
// port rather than a load error.
type AppenderConfig struct {
	Name      string `yaml:"name"`
	From      string `yaml:"from"`
	To        string `yaml:"to"`
	Subject   string `yaml:"subject"`
	SMTPHost  string `yaml:"smtp_host"`
	Port      string `yaml:"port"`
	Dry       string `yaml:"dry"`
	Layout    string `yaml:"layout"`
	Threshold string `yaml:"threshold"`
}

// Option is a named appender parameter in string form.
type Option struct {
	Name  string
	Value string
}

// Options returns the appender parameters in the order they are applied.
func (a AppenderConfig) Options() []Option {
	return []Option{
		{Name: "from", Value: a.From},
		{Name: "to", Value: a.To},
		{Name: "subject", Value: a.Subject},
		{Name: "smtp_host", Value: a.SMTPHost},
		{Name: "port", Value: a.Port},
		{Name: "dry", Value: a.Dry},
	}
}

// TransportConfig holds the ambient relay settings the appender overrides per send.
type TransportConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// SMTPConfig holds relay credentials and TLS options for the smtp provider.
type SMTPConfig struct {
	Username           string        `yaml:"username"`
	Password           string        `yaml:"password"`
	Encryption         string        `yaml:"encryption"`
	CAFile             string        `yaml:"ca_file"`
	InsecureSkipVerify bool          `yaml:"insecure_skip_verify"`
	Timeout            time.Duration `yaml:"timeout"`
}

// SESConfig holds AWS SES configuration.
type SESConfig struct {
	Region           string `yaml:"region"`
	AccessKeyID      string `yaml:"access_key_id"`
	SecretAccessKey  string `yaml:"secret_access_key"`
	UseRelayEndpoint bool   `yaml:"use_relay_endpoint"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// MetricsConfig holds the Prometheus endpoint configuration.
type MetricsConfig struct {
	Listen string `yaml:"listen"`
}

// Load loads configuration from environment variables with sensible defaults.
// Environment variables always take precedence.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.applyEnvVars()
	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file as the base layer,
// then overrides with environment variables. Returns an error if the
// specified file path does not exist.
func LoadFromFile(path string) (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Environment variables always override YAML values
	cfg.applyEnvVars()

	return cfg, nil
}

// Validate checks the fields that would otherwise fail later at startup.
// Missing from/to is not an error; the appender drops events instead.
func (c *Config) Validate() error {
	switch c.Provider {
	case "smtp", "stdout":
	case "ses":
		if !c.SESConfigured() {
			return errors.New("ses provider selected but SES_REGION is not set")
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownProvider, c.Provider)
	}

	switch c.SMTP.Encryption {
	case "none", "starttls", "ssl_tls":
	default:
		return fmt.Errorf("invalid smtp encryption %q", c.SMTP.Encryption)
	}

	return nil
}

// SESConfigured returns true if an SES region is set.
func (c *Config) SESConfigured() bool {
	return c.SES.Region != ""
}

// applyDefaults sets sensible default values for all configuration fields.
func (c *Config) applyDefaults() {
	c.Appender.Name = "mail"
	c.Appender.Port = "25"
	c.Appender.Dry = "false"
	c.Appender.Layout = "simple"
	c.Appender.Threshold = "error"
	c.Transport.Host = "localhost"
	c.Transport.Port = 25
	c.Provider = "smtp"
	c.SMTP.Encryption = "none"
	c.SMTP.Timeout = 10 * time.Second
	c.Logging.Level = "info"
	c.Logging.MaxSizeMB = 10
	c.Logging.MaxBackups = 3
}

// applyEnvVars overrides configuration with environment variable values.
// Only non-empty environment variables override existing values.
func (c *Config) applyEnvVars() {
	if v := os.Getenv("APPENDER_NAME"); v != "" {
		c.Appender.Name = v
	}
	if v := os.Getenv("MAIL_FROM"); v != "" {
		c.Appender.From = v
	}
	if v := os.Getenv("MAIL_TO"); v != "" {
		c.Appender.To = v
	}
	if v := os.Getenv("MAIL_SUBJECT"); v != "" {
		c.Appender.Subject = v
	}
	if v := os.Getenv("MAIL_SMTP_HOST"); v != "" {
		c.Appender.SMTPHost = v
	}
	if v := os.Getenv("MAIL_PORT"); v != "" {
		c.Appender.Port = v
	}
	if v := os.Getenv("MAIL_DRY"); v != "" {
		c.Appender.Dry = v
	}
	if v := os.Getenv("MAIL_LAYOUT"); v != "" {
		c.Appender.Layout = strings.ToLower(v)
	}
	if v := os.Getenv("MAIL_THRESHOLD"); v != "" {
		c.Appender.Threshold = strings.ToLower(v)
	}

	if v := os.Getenv("TRANSPORT_HOST"); v != "" {
		c.Transport.Host = v
	}
	if v := os.Getenv("TRANSPORT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Transport.Port = port
		}
	}

	if v := os.Getenv("PROVIDER"); v != "" {
		c.Provider = strings.ToLower(v)
	}

	if v := os.Getenv("SMTP_USERNAME"); v != "" {
		c.SMTP.Username = v
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		c.SMTP.Password = v
	}
	if v := os.Getenv("SMTP_ENCRYPTION"); v != "" {
		c.SMTP.Encryption = strings.ToLower(v)
	}
	if v := os.Getenv("SMTP_CA_FILE"); v != "" {
		c.SMTP.CAFile = v
	}
	if v := os.Getenv("SMTP_INSECURE_SKIP_VERIFY"); v != "" {
		if insecure, err := strconv.ParseBool(v); err == nil {
			c.SMTP.InsecureSkipVerify = insecure
		}
	}
	if v := os.Getenv("SMTP_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.SMTP.Timeout = d
		}
	}

	if v := os.Getenv("SES_REGION"); v != "" {
		c.SES.Region = v
	}
	if v := os.Getenv("SES_ACCESS_KEY_ID"); v != "" {
		c.SES.AccessKeyID = v
	}
	if v := os.Getenv("SES_SECRET_ACCESS_KEY"); v != "" {
		c.SES.SecretAccessKey = v
	}
	if v := os.Getenv("SES_USE_RELAY_ENDPOINT"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.SES.UseRelayEndpoint = b
		}
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		c.Logging.File = v
	}

	if v := os.Getenv("METRICS_LISTEN"); v != "" {
		c.Metrics.Listen = v
	}
}
