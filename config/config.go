package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	DB        DBConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Scheduler SchedulerConfig
}

type AppConfig struct {
	Port string
	Env  string
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret        string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
}

type SchedulerConfig struct {
	Enabled        bool
	SweepInterval  time.Duration
	SweepBatchSize int
	LockTTL        time.Duration
	PurgeInterval  time.Duration
	SlotRetention  time.Duration
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	config := &Config{
		App: AppConfig{
			Port: viper.GetString("APP_PORT"),
			Env:  viper.GetString("APP_ENV"),
		},
		DB: DBConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			Name:     viper.GetString("DB_NAME"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret:        viper.GetString("JWT_SECRET"),
			AccessExpiry:  durationOrDefault("JWT_ACCESS_EXPIRY", 15*time.Minute),
			RefreshExpiry: durationOrDefault("JWT_REFRESH_EXPIRY", 7*24*time.Hour),
		},
		Scheduler: SchedulerConfig{
			Enabled:        boolOrDefault("SCHEDULER_ENABLED", true),
			SweepInterval:  durationOrDefault("SCHEDULER_SWEEP_INTERVAL", 10*time.Minute),
			SweepBatchSize: intOrDefault("SCHEDULER_SWEEP_BATCH_SIZE", 50),
			LockTTL:        durationOrDefault("SCHEDULER_LOCK_TTL", 2*time.Minute),
			PurgeInterval:  durationOrDefault("SCHEDULER_PURGE_INTERVAL", 24*time.Hour),
			SlotRetention:  durationOrDefault("SCHEDULER_SLOT_RETENTION", 30*24*time.Hour),
		},
	}

	return config, nil
}

func durationOrDefault(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(viper.GetString(key))
	if err != nil {
		return fallback
	}
	return d
}

func intOrDefault(key string, fallback int) int {
	if !viper.IsSet(key) {
		return fallback
	}
	return viper.GetInt(key)
}

func boolOrDefault(key string, fallback bool) bool {
	if !viper.IsSet(key) {
		return fallback
	}
	return viper.GetBool(key)
}
