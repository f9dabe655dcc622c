package gateway

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/hanbit-commerce/payment-service/internal/config"
	"github.com/hanbit-commerce/payment-service/internal/domain/gateway"
	stripeClient "github.com/hanbit-commerce/payment-service/internal/infrastructure/gateway/stripe"
	tossClient "github.com/hanbit-commerce/payment-service/internal/infrastructure/gateway/toss"
)

// Factory creates gateway clients based on the configured gateway type
type Factory struct {
	config *config.Config
	logger *zap.Logger
}

// NewFactory creates a new gateway factory
func NewFactory(cfg *config.Config, logger *zap.Logger) *Factory {
	return &Factory{
		config: cfg,
		logger: logger,
	}
}

// GetClient returns the gateway client for the given type
func (f *Factory) GetClient(gatewayType gateway.Type) (gateway.Client, error) {
	switch gatewayType {
	case gateway.TypeToss:
		return f.createTossClient()
	case gateway.TypeStripe:
		return f.createStripeClient()
	default:
		return nil, fmt.Errorf("unsupported gateway type: %s", gatewayType)
	}
}

// GetConfiguredClient returns the client selected by service config,
// defaulting to Toss.
func (f *Factory) GetConfiguredClient() (gateway.Client, error) {
	name := f.config.Service.Gateway
	if name == "" {
		name = string(gateway.TypeToss)
	}
	return f.GetClient(gateway.Type(name))
}

func (f *Factory) createTossClient() (gateway.Client, error) {
	if f.config.Service.Toss.SecretKey == "" {
		return nil, fmt.Errorf("Toss secret key not configured")
	}

	return tossClient.NewClient(
		f.config.Service.Toss.SecretKey,
		f.config.Service.GatewayTimeout,
		f.logger,
	), nil
}

func (f *Factory) createStripeClient() (gateway.Client, error) {
	if f.config.Service.Stripe.SecretKey == "" {
		return nil, fmt.Errorf("Stripe secret key not configured")
	}

	return stripeClient.NewClient(
		f.config.Service.Stripe.SecretKey,
		f.logger,
	), nil
}
