package config

import (
	"errors"
	"fmt"
	"net/mail"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// Mail providers
const (
	ProviderSES    = "ses"
	ProviderResend = "resend"
	ProviderSMTP   = "smtp"
	ProviderLog    = "log"
)

// Template sources
const (
	SourceEmbedded = "embedded"
	SourceDir      = "dir"
	SourceS3       = "s3"
)

// Config holds the service configuration
type Config struct {
	Log       LogConfig       `yaml:"log"`
	AWS       AWSConfig       `yaml:"aws"`
	Mail      MailConfig      `yaml:"mail"`
	Templates TemplatesConfig `yaml:"templates"`
	Queue     QueueConfig     `yaml:"queue"`
	Worker    WorkerConfig    `yaml:"worker"`
	HTTP      HTTPConfig      `yaml:"http"`
}

// LogConfig selects the logger flavour
type LogConfig struct {
	// Env is "dev" (coloured console) or "prod" (JSON)
	Env string `yaml:"env"`

	// Level is debug, info, warn or error
	Level string `yaml:"level"`
}

// AWSConfig is shared by the S3, SQS and SES clients
type AWSConfig struct {
	Region string `yaml:"region"`

	// Endpoint overrides the service endpoint, e.g. a local stack
	Endpoint string `yaml:"endpoint"`

	// AccessKey and SecretKey, when both set, replace the default credential chain
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

// MailConfig selects and configures the outbound mailer
type MailConfig struct {
	// Provider is ses, resend, smtp or log
	Provider string `yaml:"provider"`

	// DefaultFrom is the sender address of every email
	DefaultFrom string `yaml:"default_from"`

	// FromName is an optional display name for DefaultFrom
	FromName string `yaml:"from_name"`

	Resend ResendConfig `yaml:"resend"`
	SMTP   SMTPConfig   `yaml:"smtp"`
}

type ResendConfig struct {
	APIKey string `yaml:"api_key"`
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	// TLSMode is auto, starttls, ssl or none
	TLSMode string `yaml:"tls_mode"`
}

// TemplatesConfig says where the template corpus is loaded from
type TemplatesConfig struct {
	// Source is embedded, dir or s3
	Source string `yaml:"source"`
	Dir    string `yaml:"dir"`
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`

	// FallbackLanguage is used when a template lacks the requested language.
	// Empty means no fallback.
	FallbackLanguage string `yaml:"fallback_language"`
}

// QueueConfig describes the SQS queue the worker consumes
type QueueConfig struct {
	URL               string        `yaml:"url"`
	MaxMessages       int           `yaml:"max_messages"`
	WaitTime          time.Duration `yaml:"wait_time"`
	VisibilityTimeout time.Duration `yaml:"visibility_timeout"`
}

// WorkerConfig tunes message processing
type WorkerConfig struct {
	// Concurrency bounds the messages of one batch handled at once
	Concurrency int `yaml:"concurrency"`

	// MessageTimeout bounds render and send of a single message
	MessageTimeout time.Duration `yaml:"message_timeout"`

	// DedupTTL is how long a processed message ID is remembered
	DedupTTL time.Duration `yaml:"dedup_ttl"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns a configuration that runs locally with the embedded corpus
func Default() Config {
	return Config{
		Log: LogConfig{
			Env:   "dev",
			Level: "info",
		},
		AWS: AWSConfig{
			Region: "us-east-1",
		},
		Mail: MailConfig{
			Provider: ProviderSES,
			SMTP: SMTPConfig{
				Port:    587,
				TLSMode: "auto",
			},
		},
		Templates: TemplatesConfig{
			Source: SourceEmbedded,
		},
		Queue: QueueConfig{
			MaxMessages:       10,
			WaitTime:          20 * time.Second,
			VisibilityTimeout: 60 * time.Second,
		},
		Worker: WorkerConfig{
			Concurrency:    4,
			MessageTimeout: 30 * time.Second,
			DedupTTL:       15 * time.Minute,
		},
		HTTP: HTTPConfig{
			Addr: ":8080",
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file at
// path, a .env file in the working directory and the process environment,
// in that order, and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadDotEnv reads the given env files (".env" when none) into the process
// environment. A missing file is normal outside local development.
func loadDotEnv(files ...string) error {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v, ok := getEnvStr("LOG_ENV"); ok {
		c.Log.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = strings.ToLower(v)
	}

	if v, ok := getEnvStr("AWS_REGION"); ok {
		c.AWS.Region = v
	}
	if v, ok := getEnvStr("AWS_ENDPOINT_URL"); ok {
		c.AWS.Endpoint = v
	}
	if v, ok := getEnvStr("AWS_ACCESS_KEY_ID"); ok {
		c.AWS.AccessKey = v
	}
	if v, ok := getEnvStr("AWS_SECRET_ACCESS_KEY"); ok {
		c.AWS.SecretKey = v
	}

	if v, ok := getEnvStr("MAIL_PROVIDER"); ok {
		c.Mail.Provider = strings.ToLower(v)
	}
	if v, ok := getEnvStr("DEFAULT_FROM_ADDRESS"); ok {
		c.Mail.DefaultFrom = v
	}
	if v, ok := getEnvStr("DEFAULT_FROM_NAME"); ok {
		c.Mail.FromName = v
	}
	if v, ok := getEnvStr("RESEND_API_KEY"); ok {
		c.Mail.Resend.APIKey = v
	}
	if v, ok := getEnvStr("SMTP_HOST"); ok {
		c.Mail.SMTP.Host = v
	}
	if v, ok := getEnvInt("SMTP_PORT"); ok {
		c.Mail.SMTP.Port = v
	}
	if v, ok := getEnvStr("SMTP_USERNAME"); ok {
		c.Mail.SMTP.Username = v
	}
	if v, ok := getEnvStr("SMTP_PASSWORD"); ok {
		c.Mail.SMTP.Password = v
	}
	if v, ok := getEnvStr("SMTP_TLS_MODE"); ok {
		c.Mail.SMTP.TLSMode = strings.ToLower(v)
	}

	if v, ok := getEnvStr("TEMPLATES_SOURCE"); ok {
		c.Templates.Source = strings.ToLower(v)
	}
	if v, ok := getEnvStr("TEMPLATES_DIR"); ok {
		c.Templates.Dir = v
	}
	if v, ok := getEnvStr("TEMPLATES_BUCKET"); ok {
		c.Templates.Bucket = v
	}
	if v, ok := getEnvStr("TEMPLATES_PREFIX"); ok {
		c.Templates.Prefix = v
	}
	if v, ok := getEnvStr("FALLBACK_LANGUAGE"); ok {
		c.Templates.FallbackLanguage = v
	}

	if v, ok := getEnvStr("QUEUE_URL"); ok {
		c.Queue.URL = v
	}
	if v, ok := getEnvInt("QUEUE_MAX_MESSAGES"); ok {
		c.Queue.MaxMessages = v
	}
	if v, ok := getEnvDur("QUEUE_WAIT_TIME"); ok {
		c.Queue.WaitTime = v
	}
	if v, ok := getEnvDur("QUEUE_VISIBILITY_TIMEOUT"); ok {
		c.Queue.VisibilityTimeout = v
	}

	if v, ok := getEnvInt("WORKER_CONCURRENCY"); ok {
		c.Worker.Concurrency = v
	}
	if v, ok := getEnvDur("WORKER_MESSAGE_TIMEOUT"); ok {
		c.Worker.MessageTimeout = v
	}
	if v, ok := getEnvDur("DEDUP_TTL"); ok {
		c.Worker.DedupTTL = v
	}

	if v, ok := getEnvStr("HTTP_ADDR"); ok {
		c.HTTP.Addr = v
	}
}

// Validate checks the values every command relies on. Settings only a
// single command needs, such as the queue URL, are checked by that command.
func (c *Config) Validate() error {
	var errs []error

	switch c.Log.Env {
	case "dev", "prod":
	default:
		errs = append(errs, fmt.Errorf("log.env must be dev or prod, got %q", c.Log.Env))
	}

	switch c.Mail.Provider {
	case ProviderSES, ProviderLog:
	case ProviderResend:
		if c.Mail.Resend.APIKey == "" {
			errs = append(errs, errors.New("mail.resend.api_key is required for the resend provider"))
		}
	case ProviderSMTP:
		if c.Mail.SMTP.Host == "" || c.Mail.SMTP.Port <= 0 {
			errs = append(errs, errors.New("mail.smtp.host and mail.smtp.port are required for the smtp provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown mail provider %q", c.Mail.Provider))
	}

	if c.Mail.DefaultFrom != "" {
		if _, err := mail.ParseAddress(c.Mail.DefaultFrom); err != nil {
			errs = append(errs, fmt.Errorf("mail.default_from: %w", err))
		}
	}

	switch c.Templates.Source {
	case SourceEmbedded:
	case SourceDir:
		if c.Templates.Dir == "" {
			errs = append(errs, errors.New("templates.dir is required for the dir source"))
		}
	case SourceS3:
		if c.Templates.Bucket == "" {
			errs = append(errs, errors.New("templates.bucket is required for the s3 source"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown templates source %q", c.Templates.Source))
	}

	if c.Queue.MaxMessages < 1 || c.Queue.MaxMessages > 10 {
		errs = append(errs, fmt.Errorf("queue.max_messages must be between 1 and 10, got %d", c.Queue.MaxMessages))
	}
	if c.Queue.WaitTime < 0 || c.Queue.WaitTime > 20*time.Second {
		errs = append(errs, fmt.Errorf("queue.wait_time must be between 0s and 20s, got %s", c.Queue.WaitTime))
	}
	if c.Worker.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("worker.concurrency must be positive, got %d", c.Worker.Concurrency))
	}
	if c.Worker.MessageTimeout <= 0 {
		errs = append(errs, errors.New("worker.message_timeout must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

func getEnvStr(key string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	return v, v != ""
}

func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(s); err == nil {
			return i, true
		}
	}
	return 0, false
}

func getEnvDur(key string) (time.Duration, bool) {
	if s, ok := getEnvStr(key); ok {
		if d, err := time.ParseDuration(s); err == nil {
			return d, true
		}
	}
	return 0, false
}
