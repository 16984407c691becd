// Package config provides YAML-based configuration loading for the showroom
// chat, with environment overrides for secrets.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/City-Bureau/showroomchat/pkg/settings"
)

// Config is the top-level configuration, loaded from showroomchat.yaml
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Chat    ChatConfig    `yaml:"chat"`
	Admin   AdminConfig   `yaml:"admin"`
	Notify  NotifyConfig  `yaml:"notify"`
	Log     LogConfig     `yaml:"log"`
	Site    settings.Site `yaml:"site"`
}

// StorageConfig selects where chat state is persisted
type StorageConfig struct {
	Driver string `yaml:"driver"` // file, memory, postgres, sqlite3
	Path   string `yaml:"path"`
	DSN    string `yaml:"dsn"`
}

// ChatConfig holds chat role settings
type ChatConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
	Locale       string        `yaml:"locale"`
}

// AdminConfig holds the admin gate and alert destination
type AdminConfig struct {
	Password    string `yaml:"password"`
	NotifyPhone string `yaml:"notify_phone"`
}

// NotifyConfig selects how visitor activity is announced
type NotifyConfig struct {
	Driver      string `yaml:"driver"` // none, twilio, sns
	SNSTopicArn string `yaml:"sns_topic_arn"`
	TwilioSID   string `yaml:"-"`
	TwilioToken string `yaml:"-"`
	TwilioFrom  string `yaml:"twilio_from"`
}

// LogConfig controls the slog handler
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text, json
}

// Load reads a YAML config file from path and returns a validated Config. A
// missing file yields the defaults. A .env file next to the working directory
// is loaded into the environment first if present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv overrides secrets from the environment
func (c *Config) applyEnv() {
	if v := os.Getenv("SHOWROOM_ADMIN_PASSWORD"); v != "" {
		c.Admin.Password = v
	}
	if v := os.Getenv("SHOWROOM_STORAGE_DSN"); v != "" {
		c.Storage.DSN = v
	}
	if v := os.Getenv("SNS_TOPIC_ARN"); v != "" {
		c.Notify.SNSTopicArn = v
	}
	if v := os.Getenv("TWILIO_FROM"); v != "" {
		c.Notify.TwilioFrom = v
	}
	c.Notify.TwilioSID = os.Getenv("TWILIO_ACCOUNT_SID")
	c.Notify.TwilioToken = os.Getenv("TWILIO_AUTH_TOKEN")
}

// applyDefaults fills in default values
func (c *Config) applyDefaults() {
	if c.Storage.Driver == "" {
		c.Storage.Driver = "file"
	}
	if c.Storage.Driver == "file" && c.Storage.Path == "" {
		c.Storage.Path = "showroomchat.json"
	}
	if c.Chat.PollInterval <= 0 {
		c.Chat.PollInterval = 2 * time.Second
	}
	if c.Chat.Locale == "" {
		c.Chat.Locale = "ar"
	}
	if c.Notify.Driver == "" {
		c.Notify.Driver = "none"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	c.Site = c.Site.WithDefaults()
}

// validate checks that all required fields are present and consistent
func (c *Config) validate() error {
	var errs []string
	switch c.Storage.Driver {
	case "file", "memory":
	case "postgres", "sqlite3":
		if c.Storage.DSN == "" {
			errs = append(errs, fmt.Sprintf("storage.dsn is required for driver %s", c.Storage.Driver))
		}
	default:
		errs = append(errs, fmt.Sprintf("storage.driver %q is not supported", c.Storage.Driver))
	}
	switch c.Chat.Locale {
	case "ar", "en":
	default:
		errs = append(errs, fmt.Sprintf("chat.locale %q is not supported", c.Chat.Locale))
	}
	switch c.Notify.Driver {
	case "none":
	case "sns":
		if c.Notify.SNSTopicArn == "" {
			errs = append(errs, "notify.sns_topic_arn is required for driver sns")
		}
	case "twilio":
		if c.Admin.NotifyPhone == "" {
			errs = append(errs, "admin.notify_phone is required for driver twilio")
		}
		if c.Notify.TwilioFrom == "" {
			errs = append(errs, "notify.twilio_from is required for driver twilio")
		}
	default:
		errs = append(errs, fmt.Sprintf("notify.driver %q is not supported", c.Notify.Driver))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("log.format %q is not supported", c.Log.Format))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
