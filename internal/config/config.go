package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN returns a keyword/value connection string for the postgres driver.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// URL returns a postgres:// URL, as expected by golang-migrate.
func (c DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

// GatewayConfig holds the payment gateway credentials. HashKey and HashIV are
// the symmetric cipher parameters for the TradeInfo field; they are secret and
// must never be logged.
type GatewayConfig struct {
	MerchantID string
	HashKey    string
	HashIV     string
	PayURL     string
	NotifyURL  string
}

// JWTConfig holds the signing secret for admin API tokens.
type JWTConfig struct {
	Secret string
}

// KafkaConfig holds broker addresses and the payment event topic.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// ServiceConfig holds all configuration for the registration service.
type ServiceConfig struct {
	Port        string
	AppEnv      string
	DBConfig    DatabaseConfig
	JWTConfig   JWTConfig
	KafkaConfig KafkaConfig
	Gateway     GatewayConfig
}

// Load reads configuration from environment variables. Missing gateway
// secrets or database credentials are a fatal configuration error, not
// something to discover on the first webhook call.
func Load() (*ServiceConfig, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVICE_PORT", ":8084")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_PAYMENT_TOPIC", "registration.payment.events")
	v.SetDefault("GATEWAY_PAY_URL", "https://ccore.newebpay.com/MPG/mpg_gateway")

	required := map[string]string{
		"DB_PASSWORD":      v.GetString("DB_PASSWORD"),
		"DB_NAME":          v.GetString("DB_NAME"),
		"JWT_SECRET":       v.GetString("JWT_SECRET"),
		"GATEWAY_HASH_KEY": v.GetString("GATEWAY_HASH_KEY"),
		"GATEWAY_HASH_IV":  v.GetString("GATEWAY_HASH_IV"),
	}
	var missing []string
	for name, val := range required {
		if val == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	port := v.GetString("SERVICE_PORT")
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	return &ServiceConfig{
		Port:   port,
		AppEnv: v.GetString("APP_ENV"),
		DBConfig: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSL_MODE"),
		},
		JWTConfig: JWTConfig{Secret: v.GetString("JWT_SECRET")},
		KafkaConfig: KafkaConfig{
			Brokers: strings.Split(v.GetString("KAFKA_BROKERS"), ","),
			Topic:   v.GetString("KAFKA_PAYMENT_TOPIC"),
		},
		Gateway: GatewayConfig{
			MerchantID: v.GetString("GATEWAY_MERCHANT_ID"),
			HashKey:    v.GetString("GATEWAY_HASH_KEY"),
			HashIV:     v.GetString("GATEWAY_HASH_IV"),
			PayURL:     v.GetString("GATEWAY_PAY_URL"),
			NotifyURL:  v.GetString("GATEWAY_NOTIFY_URL"),
		},
	}, nil
}
