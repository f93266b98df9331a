// Package gateway implements the GP-API connector: transport, access-token
// acquisition and the mapping between builder state and the service's wire
// format.
package gateway

import (
	"time"

	"go.uber.org/zap"

	"github.com/kevin07696/globalpay-sdk/entities"
	"github.com/kevin07696/globalpay-sdk/gpapi"
)

// Environment selects the default service URL.
type Environment string

const (
	EnvironmentTest       Environment = "test"
	EnvironmentProduction Environment = "production"
)

// Service URLs per environment.
const (
	serviceURLTest       = "https://apis.sandbox.globalpay.com/ucp"
	serviceURLProduction = "https://apis.globalpay.com/ucp"
)

// Config holds the credentials and connection settings for one named
// configuration.
type Config struct {
	// App credentials issued by the gateway.
	AppID  string
	AppKey string

	// Channel is the gateway's CP/CNP classification for this account.
	Channel entities.Channel

	// Environment picks the default service URL; ServiceURL overrides it.
	Environment Environment
	ServiceURL  string

	// HTTP client timeout. The connect/read timeout is the only
	// cancellation mechanism for an in-flight call.
	Timeout time.Duration

	// InsecureSkipVerify disables TLS verification; test environments only.
	InsecureSkipVerify bool

	// Logger receives structured request/response logs. Nil means no-op.
	Logger *zap.Logger
}

// DefaultConfig returns the connection settings for an environment; the
// caller still has to fill in credentials.
func DefaultConfig(environment Environment) *Config {
	return &Config{
		Channel:     entities.ChannelCardNotPresent,
		Environment: environment,
		Timeout:     30 * time.Second,
	}
}

// Validate checks the configuration for the failures that must surface
// before any I/O.
func (c *Config) Validate() error {
	if c.AppID == "" || c.AppKey == "" {
		return gpapi.NewConfigurationError("app id and app key are required")
	}
	return nil
}

func (c *Config) serviceURL() string {
	if c.ServiceURL != "" {
		return c.ServiceURL
	}
	if c.Environment == EnvironmentProduction {
		return serviceURLProduction
	}
	return serviceURLTest
}

func (c *Config) logger() *zap.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return zap.NewNop()
}

// Configure validates the configuration, builds a connector for it and
// registers it in the service container under configName.
func Configure(configName string, cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	conn := NewConnector(cfg)
	gpapi.RegisterGateway(configName, conn)
	gpapi.RegisterReporting(configName, conn)
	return nil
}
