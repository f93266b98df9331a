package gpapi

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/kevin07696/globalpay-sdk/entities"
)

// ManagementBuilder accumulates the parameters of an operation on an
// existing transaction: capture, refund or reversal under the original
// transaction identifier.
type ManagementBuilder struct {
	transactionType entities.TransactionType
	transactionID   string
	amount          *decimal.Decimal
	gratuity        *decimal.Decimal

	validations *validations
}

// CaptureTransaction begins a capture of a previously authorized transaction.
func CaptureTransaction(transactionID string) *ManagementBuilder {
	return newManagementBuilder(entities.TransactionTypeCapture, transactionID)
}

// RefundTransaction begins a refund of a captured transaction.
func RefundTransaction(transactionID string) *ManagementBuilder {
	return newManagementBuilder(entities.TransactionTypeRefund, transactionID)
}

// ReverseTransaction begins a reversal of a transaction.
func ReverseTransaction(transactionID string) *ManagementBuilder {
	return newManagementBuilder(entities.TransactionTypeReversal, transactionID)
}

func newManagementBuilder(t entities.TransactionType, transactionID string) *ManagementBuilder {
	b := &ManagementBuilder{
		transactionType: t,
		transactionID:   transactionID,
		validations:     newValidations(),
	}
	for _, kind := range []entities.TransactionType{
		entities.TransactionTypeCapture,
		entities.TransactionTypeRefund,
		entities.TransactionTypeReversal,
	} {
		b.validations.of(string(kind)).
			check("transactionId", func() any { return b.transactionID }).isNotNull()
	}
	return b
}

// WithAmount sets the amount to capture, refund or reverse. When unset the
// gateway applies the operation to the transaction's full amount.
func (b *ManagementBuilder) WithAmount(amount decimal.Decimal) *ManagementBuilder {
	b.amount = &amount
	return b
}

// WithGratuity sets the gratuity amount. Only captures carry it.
func (b *ManagementBuilder) WithGratuity(amount decimal.Decimal) *ManagementBuilder {
	b.gratuity = &amount
	return b
}

// Execute resolves the named configuration, validates the builder for its
// transaction type, and delegates to the gateway.
func (b *ManagementBuilder) Execute(ctx context.Context, configName string) (*entities.Transaction, error) {
	gw, err := paymentGateway(configName)
	if err != nil {
		return nil, err
	}
	if err := b.validations.validate(string(b.transactionType)); err != nil {
		return nil, err
	}
	return gw.ManageTransaction(ctx, b)
}

// Read access for connectors.

func (b *ManagementBuilder) TransactionType() entities.TransactionType { return b.transactionType }
func (b *ManagementBuilder) TransactionID() string                     { return b.transactionID }
func (b *ManagementBuilder) Amount() *decimal.Decimal                  { return b.amount }
func (b *ManagementBuilder) Gratuity() *decimal.Decimal                { return b.gratuity }
