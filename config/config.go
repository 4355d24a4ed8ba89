package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config структура конфигурации приложения
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Stripe   StripeConfig   `mapstructure:"stripe"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Import   ImportConfig   `mapstructure:"import"`
	Prices   PricesConfig   `mapstructure:"prices"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig конфигурация HTTP сервера
type ServerConfig struct {
	Port            string `mapstructure:"port"`
	BaseURL         string `mapstructure:"base_url"`
	ReadTimeout     int    `mapstructure:"read_timeout"`
	WriteTimeout    int    `mapstructure:"write_timeout"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig конфигурация базы данных
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

// RedisConfig конфигурация Redis-кэша
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// KafkaConfig конфигурация Kafka
type KafkaConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Brokers string `mapstructure:"brokers"`
}

// BrokerList возвращает адреса брокеров из строки с запятыми
func (c *KafkaConfig) BrokerList() []string {
	if strings.TrimSpace(c.Brokers) == "" {
		return nil
	}
	parts := strings.Split(c.Brokers, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}

// StripeConfig конфигурация Stripe
type StripeConfig struct {
	APIKey        string `mapstructure:"api_key"`
	WebhookSecret string `mapstructure:"webhook_secret"`
}

// AuthConfig конфигурация аутентификации
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

// ImportConfig конфигурация задачи импорта контента
type ImportConfig struct {
	Secret      string `mapstructure:"secret"`
	FixturesDir string `mapstructure:"fixtures_dir"`
}

// PricesConfig привязки идентификаторов цен Stripe к тарифам.
// Шесть значений: essential/family/plus x monthly/annual.
type PricesConfig struct {
	EssentialMonthly string `mapstructure:"essential_monthly"`
	EssentialAnnual  string `mapstructure:"essential_annual"`
	FamilyMonthly    string `mapstructure:"family_monthly"`
	FamilyAnnual     string `mapstructure:"family_annual"`
	PlusMonthly      string `mapstructure:"plus_monthly"`
	PlusAnnual       string `mapstructure:"plus_annual"`
}

// LoggingConfig конфигурация логгера
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// GetDSN возвращает строку подключения к базе данных
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// Configured сообщает, задана ли конфигурация базы данных
func (c *DatabaseConfig) Configured() bool {
	return c.Host != "" && c.Name != ""
}

// Load загружает конфигурацию из переменных окружения (и config.yaml, если есть)
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Файл конфигурации опционален, окружение имеет приоритет
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("config: failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.base_url", "")
	v.SetDefault("server.read_timeout", 15)
	v.SetDefault("server.write_timeout", 15)
	v.SetDefault("server.shutdown_timeout", 30)

	v.SetDefault("database.host", "")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "")
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", "")

	v.SetDefault("stripe.api_key", "")
	v.SetDefault("stripe.webhook_secret", "")

	v.SetDefault("auth.jwt_secret", "")

	v.SetDefault("import.secret", "")
	v.SetDefault("import.fixtures_dir", "fixtures")

	v.SetDefault("prices.essential_monthly", "")
	v.SetDefault("prices.essential_annual", "")
	v.SetDefault("prices.family_monthly", "")
	v.SetDefault("prices.family_annual", "")
	v.SetDefault("prices.plus_monthly", "")
	v.SetDefault("prices.plus_annual", "")

	v.SetDefault("logging.level", "info")
}
