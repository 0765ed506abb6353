package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	BackendMemory   = "memory"
	BackendDynamoDB = "dynamodb"

	GatewaySandbox  = "sandbox"
	GatewayRazorpay = "razorpay"
)

type Config struct {
	ServiceName string `envconfig:"SERVICE_NAME" default:"farmdirect-orders"`
	Env         string `envconfig:"ENV" default:"dev"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogFile     string `envconfig:"LOG_FILE"`
	HTTPAddr    string `envconfig:"HTTP_ADDR" default:":8080"`

	StoreBackend     string `envconfig:"STORE_BACKEND" default:"memory"`
	AWSRegion        string `envconfig:"AWS_REGION" default:"ap-south-1"`
	DynamoDBEndpoint string `envconfig:"DYNAMODB_ENDPOINT"`
	OrderTableName   string `envconfig:"ORDER_TABLE_NAME" default:"orders"`
	ProductTableName string `envconfig:"PRODUCT_TABLE_NAME" default:"products"`
	SeedProducts     string `envconfig:"SEED_PRODUCTS"`

	PaymentGateway            string        `envconfig:"PAYMENT_GATEWAY" default:"sandbox"`
	PaymentBaseURL            string        `envconfig:"PAYMENT_BASE_URL" default:"https://api.razorpay.com"`
	PaymentKeyID              string        `envconfig:"PAYMENT_KEY_ID"`
	PaymentKeySecret          string        `envconfig:"PAYMENT_KEY_SECRET"`
	PaymentCurrency           string        `envconfig:"PAYMENT_CURRENCY" default:"INR"`
	PaymentTimeout            time.Duration `envconfig:"PAYMENT_TIMEOUT" default:"5s"`
	PaymentSandboxSuccessRate float64       `envconfig:"PAYMENT_SANDBOX_SUCCESS_RATE" default:"1"`
	ReservationMode           string        `envconfig:"RESERVATION_MODE" default:"all_or_nothing"`

	KafkaBrokers     string `envconfig:"KAFKA_BROKERS"`
	KafkaNotifyTopic string `envconfig:"KAFKA_NOTIFY_TOPIC" default:"order-notifications"`

	OtelEndpoint string `envconfig:"OTEL_ENDPOINT"`
	OtelInsecure bool   `envconfig:"OTEL_INSECURE" default:"true"`

	SignatureDebugEndpoints bool `envconfig:"SIGNATURE_DEBUG_ENDPOINTS" default:"false"`
}

// Load reads an optional .env file, then the environment. Variables already
// set in the environment win over the file.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	switch c.StoreBackend {
	case BackendMemory, BackendDynamoDB:
	default:
		errs = append(errs, fmt.Errorf("STORE_BACKEND: unknown backend %q", c.StoreBackend))
	}
	switch c.PaymentGateway {
	case GatewaySandbox:
	case GatewayRazorpay:
		if c.PaymentKeyID == "" || c.PaymentKeySecret == "" {
			errs = append(errs, errors.New("PAYMENT_KEY_ID and PAYMENT_KEY_SECRET are required for razorpay"))
		}
	default:
		errs = append(errs, fmt.Errorf("PAYMENT_GATEWAY: unknown gateway %q", c.PaymentGateway))
	}
	switch c.ReservationMode {
	case "", "all_or_nothing", "legacy_partial":
	default:
		errs = append(errs, fmt.Errorf("RESERVATION_MODE: unknown mode %q", c.ReservationMode))
	}
	if c.PaymentTimeout <= 0 {
		errs = append(errs, errors.New("PAYMENT_TIMEOUT must be positive"))
	}
	if c.PaymentSandboxSuccessRate < 0 || c.PaymentSandboxSuccessRate > 1 {
		errs = append(errs, errors.New("PAYMENT_SANDBOX_SUCCESS_RATE must be within [0, 1]"))
	}
	return errors.Join(errs...)
}

// SandboxSecret is the HMAC key used when no real processor is configured.
func (c *Config) SandboxSecret() string {
	if c.PaymentKeySecret != "" {
		return c.PaymentKeySecret
	}
	return "sandbox_secret"
}
