package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	MongoURI            string        `mapstructure:"MONGO_URI"`
	MongoDatabase       string        `mapstructure:"MONGO_DB"`
	RedisAddr           string        `mapstructure:"REDIS_ADDR"`
	UserCacheTTL        time.Duration `mapstructure:"USER_CACHE_TTL"`
	ConfirmationTTL     time.Duration `mapstructure:"CONFIRMATION_CODE_TTL"`
	BcryptCost          int           `mapstructure:"BCRYPT_COST"`
	SMTPHost            string        `mapstructure:"SMTP_HOST"`
	SMTPPort            int           `mapstructure:"SMTP_PORT"`
	SMTPUsername        string        `mapstructure:"SMTP_USERNAME"`
	SMTPPassword        string        `mapstructure:"SMTP_PASSWORD"`
	SenderEmail         string        `mapstructure:"SENDER_EMAIL"`
	SenderName          string        `mapstructure:"SENDER_NAME"`
	SeedAdminEmail      string        `mapstructure:"SEED_ADMIN_EMAIL"`
	SeedAdminPassword   string        `mapstructure:"SEED_ADMIN_PASSWORD"`
	SeedAdminRoleName   string        `mapstructure:"SEED_ADMIN_ROLE_NAME"`
	SeedAdminRoleNumber int64         `mapstructure:"SEED_ADMIN_ROLE_ID"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Set default values
	viper.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	viper.SetDefault("MONGO_DB", "crowdbase")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("USER_CACHE_TTL", "10m")
	viper.SetDefault("CONFIRMATION_CODE_TTL", "15m")
	viper.SetDefault("BCRYPT_COST", 10)
	viper.SetDefault("SMTP_HOST", "localhost")
	viper.SetDefault("SMTP_PORT", 587)
	viper.SetDefault("SMTP_USERNAME", "")
	viper.SetDefault("SMTP_PASSWORD", "")
	viper.SetDefault("SENDER_EMAIL", "no-reply@crowdbase.example")
	viper.SetDefault("SENDER_NAME", "Crowdbase")
	viper.SetDefault("SEED_ADMIN_EMAIL", "admin@crowdbase.example")
	viper.SetDefault("SEED_ADMIN_PASSWORD", "change-me")
	viper.SetDefault("SEED_ADMIN_ROLE_NAME", "administrator")
	viper.SetDefault("SEED_ADMIN_ROLE_ID", 1)

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
