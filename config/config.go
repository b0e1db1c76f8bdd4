package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Auth     AuthConfig     `yaml:"auth"`
	OTP      OTPConfig      `yaml:"otp"`
	Ledger   LedgerConfig   `yaml:"ledger"`
	Review   ReviewConfig   `yaml:"review"`
}

type HTTPConfig struct {
	Address string `yaml:"address"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	BookingTopic       string   `yaml:"booking_topic"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	GroupID            string   `yaml:"group_id"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

// OTPConfig carries the verification-challenge timing knobs. The defaults
// mirror the product rules: 10 minute codes, 3 attempts, resend unlocked
// during the final minute of a live challenge.
type OTPConfig struct {
	TTLSeconds          int `yaml:"ttl_seconds"`
	Attempts            int `yaml:"attempts"`
	ResendWindowSeconds int `yaml:"resend_window_seconds"`
	BcryptCost          int `yaml:"bcrypt_cost"`
}

func (c OTPConfig) TTL() time.Duration          { return time.Duration(c.TTLSeconds) * time.Second }
func (c OTPConfig) ResendWindow() time.Duration { return time.Duration(c.ResendWindowSeconds) * time.Second }

type LedgerConfig struct {
	SlotLockTTLSeconds     int `yaml:"slot_lock_ttl_seconds"`
	AvailabilityTTLSeconds int `yaml:"availability_cache_ttl_seconds"`
}

func (c LedgerConfig) SlotLockTTL() time.Duration {
	return time.Duration(c.SlotLockTTLSeconds) * time.Second
}

func (c LedgerConfig) AvailabilityTTL() time.Duration {
	return time.Duration(c.AvailabilityTTLSeconds) * time.Second
}

type ReviewConfig struct {
	AllowFromCompleted bool `yaml:"allow_from_completed"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.OTP.TTLSeconds == 0 {
		cfg.OTP.TTLSeconds = 600
	}
	if cfg.OTP.Attempts == 0 {
		cfg.OTP.Attempts = 3
	}
	if cfg.OTP.ResendWindowSeconds == 0 {
		cfg.OTP.ResendWindowSeconds = 60
	}
	if cfg.Ledger.SlotLockTTLSeconds == 0 {
		cfg.Ledger.SlotLockTTLSeconds = 30
	}
	if cfg.Ledger.AvailabilityTTLSeconds == 0 {
		cfg.Ledger.AvailabilityTTLSeconds = 60
	}
}
