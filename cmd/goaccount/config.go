package main

import (
	"encoding/hex"
	"strings"
	"time"

	goAccount "github.com/MrEthical07/goAccount"
	"github.com/MrEthical07/goAccount/mail"
	"github.com/MrEthical07/goAccount/reminders"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

const minSessionKeyBytes = 32

// AppConfig is the server configuration. Precedence: flags set on the
// command line, then the YAML file, then flag defaults.
type AppConfig struct {
	Log struct {
		Level  string `koanf:"level"`
		Format string `koanf:"format"`
	} `koanf:"log"`

	HTTP struct {
		Addr            string        `koanf:"addr"`
		SecureCookie    bool          `koanf:"secure_cookie"`
		ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	} `koanf:"http"`

	Database struct {
		// URL selects the Postgres store. Empty runs on the in-memory store.
		URL         string `koanf:"url"`
		AutoMigrate bool   `koanf:"auto_migrate"`
	} `koanf:"database"`

	Redis struct {
		// Addr enables the distributed email lock.
		Addr     string `koanf:"addr"`
		Password string `koanf:"password"`
		DB       int    `koanf:"db"`
	} `koanf:"redis"`

	Session struct {
		// Key is the hex-encoded HS256 secret.
		Key    string        `koanf:"key"`
		TTL    time.Duration `koanf:"ttl"`
		Issuer string        `koanf:"issuer"`
	} `koanf:"session"`

	Mail struct {
		AppName     string `koanf:"app_name"`
		FrontendURL string `koanf:"frontend_url"`
		// Host enables SMTP delivery. Empty logs messages instead.
		Host     string `koanf:"host"`
		Port     int    `koanf:"port"`
		Username string `koanf:"username"`
		Password string `koanf:"password"`
		From     string `koanf:"from"`
	} `koanf:"mail"`

	Reminders struct {
		Enabled  bool          `koanf:"enabled"`
		Interval time.Duration `koanf:"interval"`
		Grace    time.Duration `koanf:"grace"`
	} `koanf:"reminders"`

	Audit struct {
		Enabled bool `koanf:"enabled"`
	} `koanf:"audit"`

	Metrics struct {
		Enabled bool   `koanf:"enabled"`
		Path    string `koanf:"path"`
	} `koanf:"metrics"`
}

// registerServeFlags declares every overridable key. Flag names are the
// koanf paths.
func registerServeFlags(fs *pflag.FlagSet) {
	defaults := goAccount.DefaultConfig()
	rem := reminders.DefaultConfig()

	fs.String("log.level", "info", "log level (debug, info, warn, error)")
	fs.String("log.format", "json", "log format (json, text)")

	fs.String("http.addr", ":8080", "listen address")
	fs.Bool("http.secure_cookie", false, "mark the session cookie Secure")
	fs.Duration("http.shutdown_timeout", 10*time.Second, "graceful shutdown timeout")

	fs.String("database.url", "", "PostgreSQL URL; empty uses the in-memory store")
	fs.Bool("database.auto_migrate", false, "apply migrations before serving")

	fs.String("redis.addr", "", "Redis address for the distributed email lock")
	fs.String("redis.password", "", "Redis password")
	fs.Int("redis.db", 0, "Redis database")

	fs.String("session.key", "", "hex-encoded HS256 signing key (at least 32 bytes)")
	fs.Duration("session.ttl", defaults.Session.TTL, "session lifetime")
	fs.String("session.issuer", "", "token issuer claim")

	fs.String("mail.app_name", defaults.Mail.AppName, "product name shown in emails")
	fs.String("mail.frontend_url", defaults.Mail.FrontendURL, "base URL of password recovery links")
	fs.String("mail.host", "", "SMTP host; empty logs emails instead of sending")
	fs.Int("mail.port", 587, "SMTP port")
	fs.String("mail.username", "", "SMTP username")
	fs.String("mail.password", "", "SMTP password")
	fs.String("mail.from", "", "sender address")

	fs.Bool("reminders.enabled", false, "run the overdue loan reminder job")
	fs.Duration("reminders.interval", rem.Interval, "time between overdue scans")
	fs.Duration("reminders.grace", rem.Grace, "how long past due before reminding")

	fs.Bool("audit.enabled", true, "log audit events")

	fs.Bool("metrics.enabled", true, "expose Prometheus metrics")
	fs.String("metrics.path", "/metrics", "metrics route")
}

// loadConfig merges the optional YAML file with flags.
func loadConfig(path string, fs *pflag.FlagSet) (AppConfig, error) {
	var cfg AppConfig
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return cfg, oops.Code("CONFIG_INVALID").With("path", path).Wrap(err)
		}
	}
	if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
		return cfg, oops.Code("CONFIG_INVALID").With("operation", "load flags").Wrap(err)
	}
	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, oops.Code("CONFIG_INVALID").With("operation", "decode config").Wrap(err)
	}
	return cfg, nil
}

// engineConfig maps AppConfig onto the Engine configuration.
func (c AppConfig) engineConfig() (goAccount.Config, error) {
	cfg := goAccount.DefaultConfig()

	key, err := hex.DecodeString(strings.TrimSpace(c.Session.Key))
	if err != nil {
		return cfg, oops.Code("CONFIG_INVALID").With("field", "session.key").Wrap(err)
	}
	if len(key) < minSessionKeyBytes {
		return cfg, oops.Code("CONFIG_INVALID").
			With("field", "session.key").
			Errorf("session key must be at least %d bytes", minSessionKeyBytes)
	}
	cfg.Session.PrivateKey = key
	cfg.Session.TTL = c.Session.TTL
	cfg.Session.Issuer = c.Session.Issuer

	cfg.Mail.AppName = c.Mail.AppName
	cfg.Mail.FrontendURL = c.Mail.FrontendURL
	cfg.Metrics.Enabled = c.Metrics.Enabled
	cfg.Audit.Enabled = c.Audit.Enabled

	if err := cfg.Validate(); err != nil {
		return cfg, oops.Code("CONFIG_INVALID").Wrap(err)
	}
	return cfg, nil
}

func (c AppConfig) smtpConfig() mail.SMTPConfig {
	return mail.SMTPConfig{
		Host:     c.Mail.Host,
		Port:     c.Mail.Port,
		Username: c.Mail.Username,
		Password: c.Mail.Password,
		From:     c.Mail.From,
	}
}

func (c AppConfig) reminderConfig() reminders.Config {
	return reminders.Config{
		AppName:  c.Mail.AppName,
		Interval: c.Reminders.Interval,
		Grace:    c.Reminders.Grace,
	}
}
