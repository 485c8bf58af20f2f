package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultTimezone is used when the configured time zone fails validation.
const DefaultTimezone = "America/New_York"

// timezonePattern is the allow-listed character set for time zone strings.
// Anything outside it (spaces, quotes, control characters) falls back to
// DefaultTimezone rather than being sent to the cloud API verbatim.
var timezonePattern = regexp.MustCompile(`^[A-Za-z0-9/_+\-]+$`)

// Config is the root configuration structure for the VeSync fleet controller.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Account  AccountConfig  `yaml:"account"`
	Fleet    FleetConfig    `yaml:"fleet"`
	API      APIConfig      `yaml:"api"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// AccountConfig contains VeSync cloud account settings.
type AccountConfig struct {
	// Username is the VeSync account email address.
	Username string `yaml:"username"`

	// Password is the VeSync account password. Prefer the
	// VESYNC_ACCOUNT_PASSWORD environment variable over the YAML file.
	Password string `yaml:"password"`

	// Region selects the API endpoint: "US" or "EU".
	Region string `yaml:"region"`

	// CountryCode overrides the ISO 3166-1 country code used during login.
	// Empty means the negotiator derives it from the region and, if the
	// cloud rejects that, searches the region/country space itself.
	CountryCode string `yaml:"country_code"`

	// Timezone is the IANA time zone sent in every request envelope.
	// Invalid values fall back to DefaultTimezone.
	Timezone string `yaml:"timezone"`

	// Debug enables verbose request/response logging.
	Debug bool `yaml:"debug"`

	// Redact masks tokens and account identifiers in log output.
	// Enabled by default; disable only for local troubleshooting.
	Redact bool `yaml:"redact"`
}

// FleetConfig contains device fleet polling settings.
type FleetConfig struct {
	// UpdateInterval is the minimum number of seconds between successful
	// device-list refreshes. Update() calls inside the window are no-ops.
	UpdateInterval int `yaml:"update_interval"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Enabled   bool             `yaml:"enabled"`
	Host      string           `yaml:"host"`
	Port      int              `yaml:"port"`
	Timeouts  APITimeoutConfig `yaml:"timeouts"`
	CORS      CORSConfig       `yaml:"cors"`
	WebSocket WebSocketConfig  `yaml:"websocket"`
}

// WebSocketConfig contains real-time event stream settings.
// Intervals and timeouts are in seconds.
type WebSocketConfig struct {
	PingInterval   int `yaml:"ping_interval"`
	PongTimeout    int `yaml:"pong_timeout"`
	MaxMessageSize int `yaml:"max_message_size"`
}

// APITimeoutConfig contains HTTP timeout settings in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// MQTTConfig contains settings for the optional telemetry publisher.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings in seconds.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// InfluxDBConfig contains settings for the optional telemetry history sink.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: VESYNC_SECTION_KEY
// For example: VESYNC_ACCOUNT_USERNAME, VESYNC_API_PORT
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	cfg.Account.Timezone = SanitizeTimezone(cfg.Account.Timezone)

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Account: AccountConfig{
			Region:   "US",
			Timezone: DefaultTimezone,
			Redact:   true,
		},
		Fleet: FleetConfig{
			UpdateInterval: 30,
		},
		API: APIConfig{
			Enabled: true,
			Host:    "127.0.0.1",
			Port:    8280,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
			WebSocket: WebSocketConfig{
				PingInterval:   30,
				PongTimeout:    60,
				MaxMessageSize: 4096,
			},
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "vesyncd",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: VESYNC_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Account
	if v := os.Getenv("VESYNC_ACCOUNT_USERNAME"); v != "" {
		cfg.Account.Username = v
	}
	if v := os.Getenv("VESYNC_ACCOUNT_PASSWORD"); v != "" {
		cfg.Account.Password = v
	}
	if v := os.Getenv("VESYNC_ACCOUNT_REGION"); v != "" {
		cfg.Account.Region = v
	}
	if v := os.Getenv("VESYNC_ACCOUNT_COUNTRY_CODE"); v != "" {
		cfg.Account.CountryCode = v
	}
	if v := os.Getenv("VESYNC_ACCOUNT_TIMEZONE"); v != "" {
		cfg.Account.Timezone = v
	}

	// API
	if v := os.Getenv("VESYNC_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("VESYNC_API_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.API.Port = port
		}
	}

	// MQTT
	if v := os.Getenv("VESYNC_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("VESYNC_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("VESYNC_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("VESYNC_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	if c.Account.Username == "" {
		errs = append(errs, "account.username is required (set VESYNC_ACCOUNT_USERNAME)")
	}
	if c.Account.Password == "" {
		errs = append(errs, "account.password is required (set VESYNC_ACCOUNT_PASSWORD)")
	}

	region := strings.ToUpper(c.Account.Region)
	if region != "US" && region != "EU" {
		errs = append(errs, "account.region must be US or EU")
	}
	c.Account.Region = region

	if cc := c.Account.CountryCode; cc != "" && len(cc) != 2 {
		errs = append(errs, "account.country_code must be a two-letter ISO code")
	}
	c.Account.CountryCode = strings.ToUpper(c.Account.CountryCode)

	if c.Fleet.UpdateInterval < 0 {
		errs = append(errs, "fleet.update_interval must not be negative")
	}

	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if c.MQTT.Enabled && (c.MQTT.QoS < 0 || c.MQTT.QoS > 2) {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Token == "" {
			errs = append(errs, "influxdb.token is required when influxdb is enabled (set VESYNC_INFLUXDB_TOKEN)")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// SanitizeTimezone validates a time zone string against the allow-listed
// character set, returning DefaultTimezone when the value is empty or
// contains unexpected characters.
func SanitizeTimezone(tz string) string {
	if tz == "" || !timezonePattern.MatchString(tz) {
		return DefaultTimezone
	}
	return tz
}
