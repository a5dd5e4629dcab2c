package core

import (
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Mail transports
const (
	MailTransportAuto     = "auto"
	MailTransportSMTP     = "smtp"
	MailTransportSendgrid = "sendgrid"
	MailTransportConsole  = "console"
	MailTransportNone     = "none"
)

// Database engines
const (
	DBEnginePostgres = "postgres"
	DBEngineSQLite   = "sqlite"
)

type (
	MailConfig struct {
		Transport      string
		FromEmail      string
		SMTPHost       string
		SMTPPort       int
		SMTPUsername   string
		SMTPPassword   string
		SendgridAPIKey string
		Timeout        time.Duration
		LogResetTokens bool // insecure, dev only
	}

	DatabaseConfig struct {
		Engine        string
		Path          string // sqlite only
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	ServerConfig struct {
		Host            string
		DebugHost       string
		ShutdownTimeout time.Duration
	}

	Config struct {
		Env                       string
		Build                     string
		Debug                     bool
		TestMode                  bool
		AppName                   string
		SecretKey                 string
		FrontendBaseURL           string
		PasswordResetTimeoutDelta time.Duration
		RollbarToken              string

		Mail     MailConfig
		Database DatabaseConfig
		Server   ServerConfig
	}
)

func (c DatabaseConfig) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// DefaultFromEmail returns the sender of every outgoing email.
func (c *Config) DefaultFromEmail() mail.Address {
	return mail.Address{Name: c.AppName, Address: c.Mail.FromEmail}
}

// HasSMTPCredentials reports whether both SMTP username and password are set.
func (c MailConfig) HasSMTPCredentials() bool {
	return c.SMTPUsername != "" && c.SMTPPassword != ""
}

// env var bindings: {config key: env var}
var envBindings = map[string]string{
	"debug":                     "DEBUG",
	"build":                     "BUILD",
	"appName":                   "APP_NAME",
	"secretKey":                 "SECRET_KEY",
	"frontendBaseURL":           "FRONTEND_URL",
	"passwordResetTimeoutDelta": "PASSWORD_RESET_TIMEOUT",
	"rollbarToken":              "ROLLBAR_TOKEN",

	"mail.transport":      "MAIL_TRANSPORT",
	"mail.from":           "EMAIL_FROM",
	"mail.smtpHost":       "SMTP_HOST",
	"mail.smtpPort":       "SMTP_PORT",
	"mail.smtpUser":       "SMTP_USER",
	"mail.smtpPass":       "SMTP_PASS",
	"mail.sendgridApiKey": "SENDGRID_API_KEY",
	"mail.timeout":        "MAIL_TIMEOUT",
	"mail.logResetTokens": "MAIL_LOG_RESET_TOKENS",

	"db.engine":        "DB_ENGINE",
	"db.path":          "DB_PATH",
	"db.host":          "DB_HOST",
	"db.port":          "DB_PORT",
	"db.name":          "DB_NAME",
	"db.user":          "DB_USER",
	"db.password":      "DB_PASSWORD",
	"db.adminUser":     "DB_ADMIN_USER",
	"db.adminPassword": "DB_ADMIN_PASSWORD",
	"db.disableTLS":    "DB_DISABLE_TLS",

	"server.host":            "SERVER_ADDR",
	"server.debugHost":       "SERVER_DEBUG_HOST",
	"server.shutdownTimeout": "SERVER_SHUTDOWN_TIMEOUT",
}

// NewConfig loads the configuration of the current environment.
// ENV selects the environment: DEV (local; default), TEST, QA, PROD.
// config/.env.<env> is loaded first when it exists; real env vars always win.
func NewConfig() *Config {
	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(Getwd(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}

	return loadConfig(env, viper.New())
}

func loadConfig(env string, v *viper.Viper) *Config {
	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", env != "PROD")
	v.SetDefault("build", "dev")
	v.SetDefault("appName", "Archify")
	v.SetDefault("secretKey", "s3cr3t-9x!r@archify#dev+k3y=not-for-prod")
	v.SetDefault("frontendBaseURL", "http://localhost:4200")
	v.SetDefault("passwordResetTimeoutDelta", time.Hour)
	v.SetDefault("rollbarToken", "")

	v.SetDefault("mail.transport", MailTransportAuto)
	v.SetDefault("mail.from", "noreply@archify.com")
	v.SetDefault("mail.smtpHost", "smtp.gmail.com")
	v.SetDefault("mail.smtpPort", 587)
	v.SetDefault("mail.smtpUser", "")
	v.SetDefault("mail.smtpPass", "")
	v.SetDefault("mail.sendgridApiKey", "")
	v.SetDefault("mail.timeout", 30*time.Second)
	v.SetDefault("mail.logResetTokens", false)

	v.SetDefault("db.engine", DBEngineSQLite)
	v.SetDefault("db.path", "archify.db")
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", "5432")
	v.SetDefault("db.name", "archify")
	v.SetDefault("db.user", "")
	v.SetDefault("db.password", "")
	v.SetDefault("db.adminUser", "")
	v.SetDefault("db.adminPassword", "")
	v.SetDefault("db.disableTLS", false)

	v.SetDefault("server.host", ":8000")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.shutdownTimeout", 10*time.Second)

	for key, envVar := range envBindings {
		_ = v.BindEnv(key, envVar)
	}

	return &Config{
		Env:                       env,
		Build:                     v.GetString("build"),
		Debug:                     v.GetBool("debug"),
		TestMode:                  env == "TEST",
		AppName:                   v.GetString("appName"),
		SecretKey:                 v.GetString("secretKey"),
		FrontendBaseURL:           strings.TrimRight(v.GetString("frontendBaseURL"), "/"),
		PasswordResetTimeoutDelta: v.GetDuration("passwordResetTimeoutDelta"),
		RollbarToken:              v.GetString("rollbarToken"),
		Mail: MailConfig{
			Transport:      strings.ToLower(v.GetString("mail.transport")),
			FromEmail:      v.GetString("mail.from"),
			SMTPHost:       v.GetString("mail.smtpHost"),
			SMTPPort:       parsePort(v.GetString("mail.smtpPort"), 587),
			SMTPUsername:   v.GetString("mail.smtpUser"),
			SMTPPassword:   v.GetString("mail.smtpPass"),
			SendgridAPIKey: v.GetString("mail.sendgridApiKey"),
			Timeout:        v.GetDuration("mail.timeout"),
			LogResetTokens: v.GetBool("mail.logResetTokens"),
		},
		Database: DatabaseConfig{
			Engine:        strings.ToLower(v.GetString("db.engine")),
			Path:          v.GetString("db.path"),
			Host:          v.GetString("db.host"),
			Port:          v.GetString("db.port"),
			Name:          v.GetString("db.name"),
			User:          v.GetString("db.user"),
			Password:      v.GetString("db.password"),
			AdminUser:     v.GetString("db.adminUser"),
			AdminPassword: v.GetString("db.adminPassword"),
			DisableTLS:    v.GetBool("db.disableTLS"),
		},
		Server: ServerConfig{
			Host:            v.GetString("server.host"),
			DebugHost:       v.GetString("server.debugHost"),
			ShutdownTimeout: v.GetDuration("server.shutdownTimeout"),
		},
	}
}

// NewTestConfig returns the configuration used by tests: no real mail transport, in-memory sqlite.
func NewTestConfig() *Config {
	v := viper.New()
	v.Set("mail.transport", MailTransportConsole)
	v.Set("db.engine", DBEngineSQLite)
	v.Set("db.path", ":memory:")
	v.Set("secretKey", "test-secret")
	return loadConfig("TEST", v)
}

func parsePort(s string, def int) int {
	port, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || port <= 0 {
		return def
	}
	return port
}
