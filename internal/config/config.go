package config

import (
	"errors"
	"log"
	"log/slog"
	"time"

	"github.com/spf13/viper"
)

// InsecureJWTSecret is used when JWT_SECRET is not configured. Tokens signed
// with it must never reach production.
const InsecureJWTSecret = "insecure-dev-secret"

type Config struct {
	Port                          string        `mapstructure:"PORT"`
	DatabasePath                  string        `mapstructure:"DATABASE_PATH"`
	JWTSecret                     string        `mapstructure:"JWT_SECRET"`
	TokenTTL                      time.Duration `mapstructure:"TOKEN_TTL"`
	SessionTTL                    time.Duration `mapstructure:"SESSION_TTL"`
	SessionStore                  string        `mapstructure:"SESSION_STORE"`
	SessionCookieSecure           bool          `mapstructure:"SESSION_COOKIE_SECURE"`
	BcryptCost                    int           `mapstructure:"BCRYPT_COST"`
	AllowAdminSignup              bool          `mapstructure:"ALLOW_ADMIN_SIGNUP"`
	DiscordBotToken               string        `mapstructure:"DISCORD_BOT_TOKEN"`
	DiscordNotificationsChannelID string        `mapstructure:"DISCORD_NOTIFICATIONS_CHANNEL_ID"`
}

// LoadConfig reads configuration from the environment and an optional config
// file, exiting the process when it cannot be decoded.
func LoadConfig() *Config {
	cfg, err := Load(viper.New())
	if err != nil {
		log.Fatalf("Unable to decode into struct, %v", err)
	}
	return cfg
}

func Load(v *viper.Viper) (*Config, error) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("DATABASE_PATH", "events.db")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("TOKEN_TTL", 24*time.Hour)
	v.SetDefault("SESSION_TTL", 24*time.Hour)
	v.SetDefault("SESSION_STORE", "database")
	v.SetDefault("SESSION_COOKIE_SECURE", false)
	v.SetDefault("BCRYPT_COST", 10)
	v.SetDefault("ALLOW_ADMIN_SIGNUP", false)
	v.SetDefault("DISCORD_BOT_TOKEN", "")
	v.SetDefault("DISCORD_NOTIFICATIONS_CHANNEL_ID", "")

	v.BindEnv("CONFIG_FILE")
	v.BindEnv("JWT_SECRET")
	v.BindEnv("DISCORD_BOT_TOKEN")
	v.BindEnv("DISCORD_NOTIFICATIONS_CHANNEL_ID")
	v.AutomaticEnv()

	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if config.JWTSecret == "" {
		slog.Warn("JWT_SECRET is not set, falling back to an insecure development secret")
		config.JWTSecret = InsecureJWTSecret
	}

	return &config, nil
}
