package config

import "github.com/kelseyhightower/envconfig"

// Settings is the process configuration, loaded from the environment.
type Settings struct {
	Port string `envconfig:"PORT" default:"8082"`

	DBHost string `envconfig:"DB_HOST" default:"127.0.0.1"`
	DBPort string `envconfig:"DB_PORT" default:"3306"`
	DBUser string `envconfig:"DB_USER" default:"root"`
	DBPass string `envconfig:"DB_PASS" default:""`
	DBName string `envconfig:"DB_NAME" default:"marketplace"`

	RedisAddr    string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	KafkaBrokers string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`

	JWTSecret     string `envconfig:"JWT_SECRET" default:"secret"`
	WebhookSecret string `envconfig:"WEBHOOK_SECRET" default:"secret"`

	GatewayBaseURL     string `envconfig:"GATEWAY_BASE_URL" default:"https://api.gateway.example"`
	GatewaySecretKey   string `envconfig:"GATEWAY_SECRET_KEY" default:""`
	PaymentRedirectURL string `envconfig:"PAYMENT_REDIRECT_URL" default:"http://localhost:3000/payment/complete"`

	PricingServiceURL   string `envconfig:"PRICING_SERVICE_URL" default:"http://localhost:8083"`
	InventoryServiceURL string `envconfig:"INVENTORY_SERVICE_URL" default:"http://localhost:8081"`
	ShippingServiceURL  string `envconfig:"SHIPPING_SERVICE_URL" default:"http://localhost:8084"`
	CouponServiceURL    string `envconfig:"COUPON_SERVICE_URL" default:"http://localhost:8085"`
	UserServiceURL      string `envconfig:"USER_SERVICE_URL" default:"http://localhost:8080"`
}

func Load() (*Settings, error) {
	var s Settings
	if err := envconfig.Process("", &s); err != nil {
		return nil, err
	}
	return &s, nil
}
