package config

import "time"

type ServiceConfig struct {
	Name           string             `yaml:"name"`
	Environment    string             `yaml:"environment"`
	Version        string             `yaml:"version"`
	ClientURL      string             `yaml:"client_url"`
	Gateway        string             `yaml:"gateway"` // toss or stripe
	GatewayTimeout time.Duration      `yaml:"gateway_timeout"`
	Toss           TossConfig         `yaml:"toss"`
	Stripe         StripeConfig       `yaml:"stripe"`
	OrderService   OrderServiceConfig `yaml:"order_service"`
}

type TossConfig struct {
	SecretKey string `yaml:"secret_key"`
	ClientKey string `yaml:"client_key"`
}

type StripeConfig struct {
	SecretKey string `yaml:"secret_key"`
}

// OrderServiceConfig points at the order collaborator
type OrderServiceConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}
