package service

import (
	"storefront-payments/config"
	"storefront-payments/gateway"
)

// MockKeyID is the public key reported to the checkout widget in dev mode.
const MockKeyID = "rzp_test_mock_key"

// GatewayMode selects how PaymentService reaches the payment processor. It is
// either LiveMode or MockMode and is fixed for the life of the service.
type GatewayMode interface {
	gatewayMode()
}

// LiveMode sends every call to a real gateway.
type LiveMode struct {
	Gateway gateway.PaymentGateway
}

// MockMode synthesizes orders and accepts every well-formed callback without
// contacting any gateway. Only for local development.
type MockMode struct{}

func (LiveMode) gatewayMode() {}
func (MockMode) gatewayMode() {}

// ModeFromConfig picks MockMode when cfg carries no usable key and a Razorpay
// backed LiveMode otherwise.
func ModeFromConfig(cfg *config.Config) GatewayMode {
	if cfg.DevMode {
		return MockMode{}
	}
	return LiveMode{
		Gateway: gateway.NewRazorpayClient(cfg.GatewayURL, cfg.KeyID, cfg.KeySecret, cfg.GatewayTimeout),
	}
}
