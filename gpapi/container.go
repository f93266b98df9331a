package gpapi

import (
	"context"
	"sync"

	"github.com/kevin07696/globalpay-sdk/entities"
)

// DefaultConfigName is used when a caller does not name a configuration.
const DefaultConfigName = "default"

// PaymentGateway executes authorization and management operations for one
// gateway family. Implementations translate a populated builder into a wire
// request and the wire response back into a Transaction.
type PaymentGateway interface {
	ProcessAuthorization(ctx context.Context, b *AuthorizationBuilder) (*entities.Transaction, error)
	ManageTransaction(ctx context.Context, b *ManagementBuilder) (*entities.Transaction, error)
}

// ReportingService executes report operations for one gateway family.
type ReportingService interface {
	FindTransactions(ctx context.Context, q *ReportQuery) (entities.TransactionSummaryList, error)
	TransactionDetail(ctx context.Context, transactionID string) (*entities.TransactionSummary, error)
}

// The container maps configuration names to connector instances. It is
// process-wide: a connector registered under a name is shared by every
// builder executed against that name, which is what makes the connector's
// credential cache per-configuration rather than per-call.
type container struct {
	mu        sync.RWMutex
	gateways  map[string]PaymentGateway
	reporting map[string]ReportingService
}

var services = &container{
	gateways:  make(map[string]PaymentGateway),
	reporting: make(map[string]ReportingService),
}

// RegisterGateway binds a payment gateway to a configuration name,
// replacing any previous binding.
func RegisterGateway(configName string, gw PaymentGateway) {
	services.mu.Lock()
	defer services.mu.Unlock()
	services.gateways[configName] = gw
}

// RegisterReporting binds a reporting service to a configuration name.
func RegisterReporting(configName string, rs ReportingService) {
	services.mu.Lock()
	defer services.mu.Unlock()
	services.reporting[configName] = rs
}

// RemoveConfiguration unbinds a configuration name.
func RemoveConfiguration(configName string) {
	services.mu.Lock()
	defer services.mu.Unlock()
	delete(services.gateways, configName)
	delete(services.reporting, configName)
}

func paymentGateway(configName string) (PaymentGateway, error) {
	services.mu.RLock()
	defer services.mu.RUnlock()
	gw, ok := services.gateways[configName]
	if !ok {
		return nil, NewConfigurationError("no gateway configured under name %q", configName)
	}
	return gw, nil
}

func reportingService(configName string) (ReportingService, error) {
	services.mu.RLock()
	defer services.mu.RUnlock()
	rs, ok := services.reporting[configName]
	if !ok {
		return nil, NewConfigurationError("no reporting service configured under name %q", configName)
	}
	return rs, nil
}
