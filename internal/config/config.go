package config

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator"
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/providers/env"
)

type Config struct {
	Primary  Primary        `koanf:"primary"`
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Payment  PaymentConfig  `koanf:"payment"`
	VNPay    VNPayConfig    `koanf:"vnpay"`
	MoMo     MoMoConfig     `koanf:"momo"`
	Bank     BankConfig     `koanf:"bank"`
	Auth     AuthConfig     `koanf:"auth"`
	Notifier NotifierConfig `koanf:"notifier"`
	Worker   WorkerConfig   `koanf:"worker"`
	Logger   LoggerConfig   `koanf:"logger"`
}

type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

// IsProduction gates test-only surfaces such as the simulate endpoint.
func (p Primary) IsProduction() bool {
	return p.Env == "production"
}

type ServerConfig struct {
	Port         string        `koanf:"port" validate:"required"`
	ReadTimeout  time.Duration `koanf:"read_timeout" validate:"required"`
	WriteTimeout time.Duration `koanf:"write_timeout" validate:"required"`
	IdleTimeout  time.Duration `koanf:"idle_timeout" validate:"required"`
}

type DatabaseConfig struct {
	Host            string        `koanf:"host" validate:"required"`
	Port            int           `koanf:"port" validate:"required"`
	User            string        `koanf:"user" validate:"required"`
	Password        string        `koanf:"password" validate:"required"`
	Name            string        `koanf:"name" validate:"required"`
	SSLMode         string        `koanf:"ssl_mode" validate:"required"`
	MaxOpenConns    int           `koanf:"max_open_conns" validate:"required"`
	MaxIdleConns    int           `koanf:"max_idle_conns" validate:"required"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime" validate:"required"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time" validate:"required"`
}

type PaymentConfig struct {
	ReturnURL  string        `koanf:"return_url" validate:"required"`
	PendingTTL time.Duration `koanf:"pending_ttl" validate:"required"`
}

// VNPayConfig holds the merchant credentials for the VNPay adapter.
// Adapters receive these explicitly; there is no shared gateway state.
type VNPayConfig struct {
	TmnCode    string `koanf:"tmn_code"`
	HashSecret string `koanf:"hash_secret"`
	PayURL     string `koanf:"pay_url"`
}

type MoMoConfig struct {
	PartnerCode string `koanf:"partner_code"`
	AccessKey   string `koanf:"access_key"`
	SecretKey   string `koanf:"secret_key"`
	Endpoint    string `koanf:"endpoint"`
	IpnURL      string `koanf:"ipn_url"`
}

// BankConfig describes the company account manual transfers go to. The
// confirm payload is signed with the internal secret.
type BankConfig struct {
	AccountName   string `koanf:"account_name"`
	AccountNumber string `koanf:"account_number"`
	BankName      string `koanf:"bank_name"`
	ConfirmSecret string `koanf:"confirm_secret"`
}

type AuthConfig struct {
	JWTSecret string `koanf:"jwt_secret" validate:"required"`
}

type NotifierConfig struct {
	Endpoint string `koanf:"endpoint"`
}

type WorkerConfig struct {
	Interval  time.Duration `koanf:"interval" validate:"required"`
	BatchSize int           `koanf:"batch_size" validate:"required"`
}

type LoggerConfig struct {
	Level string `koanf:"level"`
}

// NewLogger builds the process logger at the configured level.
func (c LoggerConfig) NewLogger() *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(c.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
}

func LoadConfig() (*Config, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
	k := koanf.New(".")

	err := k.Load(env.Provider("CHARTERDESK_", ".", func(s string) string {
		return strings.ReplaceAll(
			strings.ToLower(strings.TrimPrefix(s, "CHARTERDESK_")),
			"__",
			".",
		)
	}), nil)
	if err != nil {
		logger.Error("failed to load environment variables", "error", err)
		return nil, err
	}

	mainConfig := &Config{}

	err = k.Unmarshal("", mainConfig)
	if err != nil {
		logger.Error("could not unmarshal main config", "error", err)
		return nil, err
	}

	validate := validator.New()

	err = validate.Struct(mainConfig)
	if err != nil {
		logger.Error("config validation failed", "error", err)
		return nil, err
	}

	return mainConfig, nil
}
