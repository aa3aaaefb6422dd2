package config

import (
	"github.com/spf13/viper"
)

// Config is the process configuration, loaded once at startup from an
// optional config.env file and the environment. It satisfies the
// accounts.Config interface.
type Config struct {
	Port int    `mapstructure:"PORT"`
	DSN  string `mapstructure:"DATABASE_DSN"`

	AppBaseURL       string `mapstructure:"APP_BASE_URL"`
	Issuer           string `mapstructure:"TOKEN_ISSUER"`
	SigningKey       string `mapstructure:"SIGNING_KEY"`
	EncryptionSecret string `mapstructure:"ENCRYPTION_SECRET"`
	SessionHours     int    `mapstructure:"SESSION_TOKEN_HOURS"`

	SMTPHost       string `mapstructure:"SMTP_HOST"`
	SMTPPort       int    `mapstructure:"SMTP_PORT"`
	SMTPUsername   string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword   string `mapstructure:"SMTP_PASSWORD"`
	SMTPFrom       string `mapstructure:"SMTP_FROM"`
	SMTPSenderName string `mapstructure:"SMTP_SENDER_NAME"`

	S3Region    string `mapstructure:"S3_REGION"`
	S3Bucket    string `mapstructure:"S3_BUCKET"`
	S3AccessKey string `mapstructure:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `mapstructure:"S3_SECRET_ACCESS_KEY"`
	S3Endpoint  string `mapstructure:"S3_ENDPOINT"`
}

// Load reads configuration from config.env (when present) and the
// environment, with environment taking precedence.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	viper.SetDefault("PORT", 8080)
	viper.SetDefault("DATABASE_DSN", "file:accounts.db?cache=shared")
	viper.SetDefault("APP_BASE_URL", "http://localhost:8080")
	viper.SetDefault("TOKEN_ISSUER", "go-accounts")
	viper.SetDefault("SESSION_TOKEN_HOURS", 24)
	viper.SetDefault("SMTP_PORT", 587)
	viper.SetDefault("SMTP_SENDER_NAME", "Classmate")
	viper.SetDefault("S3_REGION", "us-east-1")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) GetSigningKey() string       { return c.SigningKey }
func (c *Config) GetEncryptionSecret() string { return c.EncryptionSecret }
func (c *Config) GetIssuer() string           { return c.Issuer }
func (c *Config) GetAppBaseURL() string       { return c.AppBaseURL }

// GetSessionTokenExpiration returns the session lifetime in hours.
func (c *Config) GetSessionTokenExpiration() int { return c.SessionHours }
