package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// PlaceholderKeyID is the key id shipped in sample configuration. Treating it
// like an unset key keeps a fresh checkout in dev mode.
const PlaceholderKeyID = "rzp_test_YOUR_KEY_ID_HERE"

// Config holds application configuration
type Config struct {
	ServiceName  string
	OTELEndpoint string
	Port         string

	KeyID          string
	KeySecret      string
	GatewayURL     string
	GatewayTimeout time.Duration

	Currency       string
	CompanyName    string
	CompanyLogoURL string
	PaymentMethods []string

	AllowedOrigins  []string
	ShutdownTimeout time.Duration

	// DevMode is true when no real gateway credentials are configured.
	DevMode bool
}

// env names per viper key
var bindings = map[string]string{
	"service.name":           "SERVICE_NAME",
	"service.port":           "PORT",
	"otel.endpoint":          "OTEL_EXPORTER_OTLP_ENDPOINT",
	"razorpay.key_id":        "RAZORPAY_KEY_ID",
	"razorpay.key_secret":    "RAZORPAY_KEY_SECRET",
	"razorpay.api_url":       "RAZORPAY_API_URL",
	"razorpay.timeout":       "GATEWAY_TIMEOUT",
	"payment.currency":       "PAYMENT_CURRENCY",
	"payment.methods":        "PAYMENT_METHODS",
	"company.name":           "COMPANY_NAME",
	"company.logo":           "COMPANY_LOGO",
	"server.allowed_origins": "CORS_ALLOWED_ORIGINS",
	"server.shutdown":        "SHUTDOWN_TIMEOUT",
}

// Load loads configuration from an optional configs/config.yaml and
// environment variables. Environment wins over the file.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../configs")

	setDefaults(v)
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{
		ServiceName:     v.GetString("service.name"),
		OTELEndpoint:    v.GetString("otel.endpoint"),
		Port:            v.GetString("service.port"),
		KeyID:           strings.TrimSpace(v.GetString("razorpay.key_id")),
		KeySecret:       v.GetString("razorpay.key_secret"),
		GatewayURL:      strings.TrimRight(v.GetString("razorpay.api_url"), "/"),
		GatewayTimeout:  v.GetDuration("razorpay.timeout"),
		Currency:        strings.ToUpper(v.GetString("payment.currency")),
		CompanyName:     v.GetString("company.name"),
		CompanyLogoURL:  v.GetString("company.logo"),
		PaymentMethods:  splitList(v.GetString("payment.methods")),
		AllowedOrigins:  splitList(v.GetString("server.allowed_origins")),
		ShutdownTimeout: v.GetDuration("server.shutdown"),
	}
	cfg.DevMode = IsDevKey(cfg.KeyID)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsDevKey reports whether keyID leaves the service without a usable gateway.
func IsDevKey(keyID string) bool {
	return keyID == "" || keyID == PlaceholderKeyID
}

func (c *Config) validate() error {
	if c.GatewayTimeout <= 0 {
		return fmt.Errorf("invalid gateway timeout %q", c.GatewayTimeout)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("invalid shutdown timeout %q", c.ShutdownTimeout)
	}
	if c.Currency == "" {
		return errors.New("payment currency must not be empty")
	}
	if !c.DevMode && c.KeySecret == "" {
		return errors.New("RAZORPAY_KEY_SECRET is required when RAZORPAY_KEY_ID is set")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service.name", "storefront-payments")
	v.SetDefault("service.port", "8081")
	v.SetDefault("otel.endpoint", "localhost:4317")

	v.SetDefault("razorpay.key_id", "")
	v.SetDefault("razorpay.key_secret", "")
	v.SetDefault("razorpay.api_url", "https://api.razorpay.com/v1")
	v.SetDefault("razorpay.timeout", "10s")

	v.SetDefault("payment.currency", "INR")
	v.SetDefault("payment.methods", "netbanking,card,upi,wallet,emi")
	v.SetDefault("company.name", "Tanishq Jewelry")
	v.SetDefault("company.logo", "https://your-logo-url.com/logo.png")

	v.SetDefault("server.allowed_origins", "*")
	v.SetDefault("server.shutdown", "5s")
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
