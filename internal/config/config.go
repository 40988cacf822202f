package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Log      LogConfig
	JWT      JWTConfig
	License  LicenseConfig
	Admin    AdminConfig
	CORS     CORSConfig
}

type ServerConfig struct {
	Port           string        `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"readTimeout"`
	WriteTimeout   time.Duration `mapstructure:"writeTimeout"`
	IdleTimeout    time.Duration `mapstructure:"idleTimeout"`
	ShutdownPeriod time.Duration `mapstructure:"shutdownPeriod"`
}

type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxOpenConns    int           `mapstructure:"maxOpenConns"`
	MaxIdleConns    int           `mapstructure:"maxIdleConns"`
	ConnMaxLifetime time.Duration `mapstructure:"connMaxLifetime"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type JWTConfig struct {
	Secret   string        `mapstructure:"secret"`
	TokenTTL time.Duration `mapstructure:"tokenTTL"`
}

// LicenseConfig carries the assertion signing key material. Exactly one
// of PrivateKeyPEM / PrivateKeyB64 / PrivateKeyFile must be set; the key
// is loaded once at startup.
type LicenseConfig struct {
	PrivateKeyPEM  string        `mapstructure:"privateKeyPem"`
	PrivateKeyB64  string        `mapstructure:"privateKeyB64"`
	PrivateKeyFile string        `mapstructure:"privateKeyFile"`
	AssertionTTL   time.Duration `mapstructure:"assertionTTL"`
}

type AdminConfig struct {
	Emails           []string          `mapstructure:"emails"`
	TOTPSecrets      map[string]string `mapstructure:"totpSecrets"`
	TOTPSharedSecret string            `mapstructure:"totpSharedSecret"`
	SessionTTL       time.Duration     `mapstructure:"sessionTTL"`
	TOTPIssuer       string            `mapstructure:"totpIssuer"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowedOrigins"`
}

func LoadConfig(configPath string) (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found or error loading it, relying on environment variables and config file")
	}

	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.readTimeout", 5*time.Second)
	viper.SetDefault("server.writeTimeout", 10*time.Second)
	viper.SetDefault("server.idleTimeout", 120*time.Second)
	viper.SetDefault("server.shutdownPeriod", 15*time.Second)

	viper.SetDefault("database.maxOpenConns", 25)
	viper.SetDefault("database.maxIdleConns", 25)
	viper.SetDefault("database.connMaxLifetime", 5*time.Minute)

	viper.SetDefault("redis.db", "0")

	viper.SetDefault("log.level", "info")

	viper.SetDefault("jwt.tokenTTL", 12*time.Hour)

	viper.SetDefault("license.assertionTTL", 60*time.Second)

	viper.SetDefault("admin.sessionTTL", 1*time.Hour)
	viper.SetDefault("admin.totpIssuer", "AInside")

	viper.SetDefault("cors.allowedOrigins", []string{"http://localhost:5173", "http://localhost:8080"})

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AllowEmptyEnv(true)

	if configPath != "" {
		viper.SetConfigFile(configPath)
		if err := viper.ReadInConfig(); err != nil {
			log.Printf("Warning: could not read config file: %s. Error: %v\n", configPath, err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
