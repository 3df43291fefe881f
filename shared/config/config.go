package config

import (
	"fmt"
	"os"
	"path"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"

	"github.com/carebridge-dev/carebridge/shared/validation"
)

const (
	DefaultPollInterval       = 2 * time.Second
	DefaultPageSize           = 50
	DefaultHTTPTimeout        = 30 * time.Second
	DefaultProgressClearDelay = 2 * time.Second
	DefaultBatchDelay         = time.Second
	DefaultSessionIdleTTL     = 30 * time.Minute
	DefaultJwtTTL             = 24 * time.Hour
	DefaultRequestsPerSecond  = 20
	DefaultRequestBurst       = 40
	DefaultSendsPerSecond     = 2
	DefaultSendBurst          = 5
)

type Config struct {
	Public  Public
	Private Private
}

type Public struct {
	ListenAddr     string        `yaml:"listen_addr"`
	ApiBaseURL     string        `yaml:"api_base_url" validate:"required,url"`
	HTTPTimeout    time.Duration `yaml:"http_timeout" validate:"gte=0"`
	LogLevel       string        `yaml:"log_level" validate:"omitempty,oneof=debug info warn warning error"`
	LogJSON        bool          `yaml:"log_json"`
	CORSOrigins    []string      `yaml:"cors_origins"`
	SecureCookies  bool          `yaml:"secure_cookies"`
	JwtTTL         time.Duration `yaml:"jwt_ttl" validate:"gte=0"`
	SessionIdleTTL time.Duration `yaml:"session_idle_ttl" validate:"gte=0"`
	Chat           Chat          `yaml:"chat"`
	Attachments    Attachments   `yaml:"attachments"`
	RateLimit      RateLimit     `yaml:"rate_limit"`
}

// RateLimit is per viewer. Send limits apply to messages and uploads on top
// of the request limit.
type RateLimit struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" validate:"gte=0"`
	RequestBurst      float64 `yaml:"request_burst" validate:"gte=0"`
	SendsPerSecond    float64 `yaml:"sends_per_second" validate:"gte=0"`
	SendBurst         float64 `yaml:"send_burst" validate:"gte=0"`
}

type Chat struct {
	PollInterval time.Duration `yaml:"poll_interval" validate:"gte=0"`
	PageSize     int           `yaml:"page_size" validate:"gte=0,lte=500"`
}

type Attachments struct {
	MaxSizeBytes       int64         `yaml:"max_size_bytes" validate:"gte=0"`
	AllowedMimeTypes   []string      `yaml:"allowed_mime_types"`
	ProgressClearDelay time.Duration `yaml:"progress_clear_delay" validate:"gte=0"`
	BatchDelay         time.Duration `yaml:"batch_delay" validate:"gte=0"`
}

type Private struct {
	JwtKey string `yaml:"jwt_key" validate:"required"`
}

func (c *Config) JwtKey() string {
	return c.Private.JwtKey
}

func (c *Config) JwtTTL() time.Duration {
	return c.Public.JwtTTL
}

// AttachmentPolicy is the pre-flight policy derived from the config.
func (c *Config) AttachmentPolicy() validation.AttachmentPolicy {
	return validation.AttachmentPolicy{
		MaxSizeBytes:     c.Public.Attachments.MaxSizeBytes,
		AllowedMimeTypes: c.Public.Attachments.AllowedMimeTypes,
	}
}

func (p *Public) applyDefaults() {
	if p.ListenAddr == "" {
		p.ListenAddr = ":8081"
	}
	if p.HTTPTimeout == 0 {
		p.HTTPTimeout = DefaultHTTPTimeout
	}
	if p.LogLevel == "" {
		p.LogLevel = "info"
	}
	if p.JwtTTL == 0 {
		p.JwtTTL = DefaultJwtTTL
	}
	if p.SessionIdleTTL == 0 {
		p.SessionIdleTTL = DefaultSessionIdleTTL
	}
	if p.Chat.PollInterval == 0 {
		p.Chat.PollInterval = DefaultPollInterval
	}
	if p.Chat.PageSize == 0 {
		p.Chat.PageSize = DefaultPageSize
	}
	if p.Attachments.MaxSizeBytes == 0 {
		p.Attachments.MaxSizeBytes = validation.DefaultMaxAttachmentSize
	}
	if len(p.Attachments.AllowedMimeTypes) == 0 {
		p.Attachments.AllowedMimeTypes = validation.DefaultAllowedMimeTypes
	}
	if p.Attachments.ProgressClearDelay == 0 {
		p.Attachments.ProgressClearDelay = DefaultProgressClearDelay
	}
	if p.Attachments.BatchDelay == 0 {
		p.Attachments.BatchDelay = DefaultBatchDelay
	}
	if p.RateLimit.RequestsPerSecond == 0 {
		p.RateLimit.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if p.RateLimit.RequestBurst == 0 {
		p.RateLimit.RequestBurst = DefaultRequestBurst
	}
	if p.RateLimit.SendsPerSecond == 0 {
		p.RateLimit.SendsPerSecond = DefaultSendsPerSecond
	}
	if p.RateLimit.SendBurst == 0 {
		p.RateLimit.SendBurst = DefaultSendBurst
	}
}

func mustLoadPath(configPath string, output interface{}) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		panic("can't read config file: " + configPath)
	}
	if err := yaml.Unmarshal(configFile, output); err != nil {
		panic(fmt.Sprintf("can't unmarshal config file %s: %v", configPath, err))
	}
}

// Parse builds a validated Config from the raw public and private documents.
func Parse(public, private []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(public, &cfg.Public); err != nil {
		return nil, fmt.Errorf("config: parse public: %w", err)
	}
	if err := yaml.Unmarshal(private, &cfg.Private); err != nil {
		return nil, fmt.Errorf("config: parse private: %w", err)
	}
	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) finish() error {
	c.Public.applyDefaults()
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: invalid: %w", err)
	}
	return nil
}

// MustLoad reads public.yaml and private.yaml from configFolder and panics on
// any missing, malformed or invalid value.
func MustLoad(configFolder string) *Config {
	var cfg Config
	mustLoadPath(path.Join(configFolder, "public.yaml"), &cfg.Public)
	mustLoadPath(path.Join(configFolder, "private.yaml"), &cfg.Private)
	if err := cfg.finish(); err != nil {
		panic(err.Error())
	}
	return &cfg
}
