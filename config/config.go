package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type ConsulConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}

type FixturesConfig struct {
	UserCount       int    `mapstructure:"user_count"`
	DefaultPassword string `mapstructure:"default_password"`
}

type AdminConfig struct {
	Email    string `mapstructure:"email"`
	Name     string `mapstructure:"name"`
	Password string `mapstructure:"password"`
}

type Config struct {
	HTTPPort      int    `mapstructure:"http_port"`
	LogLevel      string `mapstructure:"log_level"`
	DatabaseURL   string `mapstructure:"database_url"`
	ServiceName   string `mapstructure:"service_name"`
	JwtSecret     string `mapstructure:"jwt_secret"`
	TokenTTLHours int    `mapstructure:"token_ttl_hours"`

	Redis    RedisConfig    `mapstructure:"redis"`
	Consul   ConsulConfig   `mapstructure:"consul"`
	Fixtures FixturesConfig `mapstructure:"fixtures"`
	Admin    AdminConfig    `mapstructure:"admin"`
}

var AppConfig Config

func InitConfig() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Environment variable overrides, e.g. USERCENTER_HTTP_PORT,
	// USERCENTER_REDIS_ADDR.
	viper.SetEnvPrefix("USERCENTER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("http_port", 8080)
	viper.SetDefault("log_level", "info")
	viper.SetDefault("service_name", "user-center")
	viper.SetDefault("database_url", "usercenter:usercenter@tcp(localhost:3306)/usercenter?charset=utf8mb4&parseTime=True&loc=Local")
	viper.SetDefault("jwt_secret", "default-very-insecure-secret-key") // CHANGE THIS IN PRODUCTION
	viper.SetDefault("token_ttl_hours", 24)
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("consul.enabled", false)
	viper.SetDefault("consul.address", "localhost:8500")
	viper.SetDefault("fixtures.user_count", 20)
	viper.SetDefault("fixtures.default_password", "password")
	viper.SetDefault("admin.email", "admin@example.com")
	viper.SetDefault("admin.name", "Administrator")
	viper.SetDefault("admin.password", "adminpassword")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			fmt.Println("Config file not found, using defaults and environment variables.")
		} else {
			panic(fmt.Errorf("fatal error reading config file: %w", err))
		}
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		panic(fmt.Errorf("unable to decode config into struct: %w", err))
	}
}
