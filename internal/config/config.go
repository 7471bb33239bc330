package config

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	Orders   OrdersConfig   `yaml:"orders"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

type RabbitMQConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

type OrdersConfig struct {
	// ShippingCost is the flat shipping charge added to every order.
	ShippingCost decimal.Decimal `yaml:"shipping_cost"`
	// AnonymousDailyLimit caps orders per hashed client identity per 24h.
	AnonymousDailyLimit int `yaml:"anonymous_daily_limit"`
}

const (
	defaultShippingCost = "79"
	defaultDailyLimit   = 5
)

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Orders.ShippingCost.IsZero() {
		c.Orders.ShippingCost, _ = decimal.NewFromString(defaultShippingCost)
	}
	if c.Orders.AnonymousDailyLimit <= 0 {
		c.Orders.AnonymousDailyLimit = defaultDailyLimit
	}
}
