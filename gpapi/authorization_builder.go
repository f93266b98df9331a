// Package gpapi is the SDK surface: fluent builders that accumulate
// operation parameters, validate them against per-transaction-type rules,
// and execute against a named gateway configuration.
package gpapi

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/kevin07696/globalpay-sdk/entities"
	"github.com/kevin07696/globalpay-sdk/paymethods"
)

// AuthorizationBuilder accumulates the parameters of a sale, auth or refund
// created as a new transaction. Setters never validate; all checks run when
// Execute is called. A builder is single-owner and is not reset after
// execution: re-invoking Execute re-sends identical data.
type AuthorizationBuilder struct {
	transactionType   entities.TransactionType
	amount            decimal.Decimal
	currency          string
	paymentMethod     *paymethods.PaymentMethod
	billingAddress    *entities.Address
	clientTxnID       string
	description       string
	orderID           string
	customerIPAddress string
	gratuity          *decimal.Decimal
	cashBackAmount    *decimal.Decimal
	surchargeAmount   *decimal.Decimal
	convenienceAmount *decimal.Decimal
	offlineAuthCode   string
	tagData           string
	chipCondition     entities.EmvChipCondition
	emvFallback       bool
	allowDuplicates   bool
	allowPartialAuth  bool
	multiCapture      bool

	validations *validations
}

// Charge begins a sale (auth plus automatic capture) for the given amount.
func Charge(amount decimal.Decimal) *AuthorizationBuilder {
	return newAuthorizationBuilder(entities.TransactionTypeSale, amount)
}

// Authorize begins an authorization captured later for the given amount.
func Authorize(amount decimal.Decimal) *AuthorizationBuilder {
	return newAuthorizationBuilder(entities.TransactionTypeAuth, amount)
}

// Refund begins a refund created as a standalone transaction.
func Refund(amount decimal.Decimal) *AuthorizationBuilder {
	return newAuthorizationBuilder(entities.TransactionTypeRefund, amount)
}

func newAuthorizationBuilder(t entities.TransactionType, amount decimal.Decimal) *AuthorizationBuilder {
	b := &AuthorizationBuilder{
		transactionType: t,
		amount:          amount,
		validations:     newValidations(),
	}
	for _, kind := range []entities.TransactionType{
		entities.TransactionTypeSale,
		entities.TransactionTypeAuth,
		entities.TransactionTypeRefund,
	} {
		b.validations.of(string(kind)).
			check("currency", func() any { return b.currency }).isNotNull().
			check("paymentMethod", func() any { return b.paymentMethod }).isNotNull()
	}
	return b
}

// WithCurrency sets the ISO currency code.
func (b *AuthorizationBuilder) WithCurrency(currency string) *AuthorizationBuilder {
	b.currency = currency
	return b
}

// WithPaymentMethod attaches the payment method to charge.
func (b *AuthorizationBuilder) WithPaymentMethod(pm *paymethods.PaymentMethod) *AuthorizationBuilder {
	b.paymentMethod = pm
	return b
}

// WithAddress attaches the billing address used for AVS.
func (b *AuthorizationBuilder) WithAddress(address *entities.Address) *AuthorizationBuilder {
	b.billingAddress = address
	return b
}

// WithClientTransactionID sets the caller-supplied reference. When unset the
// connector generates one, so callers wanting idempotent resends should
// always provide it.
func (b *AuthorizationBuilder) WithClientTransactionID(reference string) *AuthorizationBuilder {
	b.clientTxnID = reference
	return b
}

// WithDescription sets a free-text description.
func (b *AuthorizationBuilder) WithDescription(description string) *AuthorizationBuilder {
	b.description = description
	return b
}

// WithOrderID sets the order reference.
func (b *AuthorizationBuilder) WithOrderID(orderID string) *AuthorizationBuilder {
	b.orderID = orderID
	return b
}

// WithCustomerIPAddress sets the customer's IP address.
func (b *AuthorizationBuilder) WithCustomerIPAddress(ip string) *AuthorizationBuilder {
	b.customerIPAddress = ip
	return b
}

// WithGratuity sets the gratuity amount.
func (b *AuthorizationBuilder) WithGratuity(amount decimal.Decimal) *AuthorizationBuilder {
	b.gratuity = &amount
	return b
}

// WithCashBack sets the cash-back amount.
func (b *AuthorizationBuilder) WithCashBack(amount decimal.Decimal) *AuthorizationBuilder {
	b.cashBackAmount = &amount
	return b
}

// WithSurcharge sets the surcharge amount.
func (b *AuthorizationBuilder) WithSurcharge(amount decimal.Decimal) *AuthorizationBuilder {
	b.surchargeAmount = &amount
	return b
}

// WithConvenienceAmount sets the convenience fee amount.
func (b *AuthorizationBuilder) WithConvenienceAmount(amount decimal.Decimal) *AuthorizationBuilder {
	b.convenienceAmount = &amount
	return b
}

// WithOfflineAuthCode sets an authorization code obtained offline.
func (b *AuthorizationBuilder) WithOfflineAuthCode(code string) *AuthorizationBuilder {
	b.offlineAuthCode = code
	return b
}

// WithTagData attaches EMV tag data captured by the reader.
func (b *AuthorizationBuilder) WithTagData(tagData string) *AuthorizationBuilder {
	b.tagData = tagData
	return b
}

// WithChipCondition records a prior chip-read failure.
func (b *AuthorizationBuilder) WithChipCondition(condition entities.EmvChipCondition) *AuthorizationBuilder {
	b.chipCondition = condition
	return b
}

// WithEmvFallback marks the request as an EMV fallback read.
func (b *AuthorizationBuilder) WithEmvFallback() *AuthorizationBuilder {
	b.emvFallback = true
	return b
}

// WithAllowDuplicates disables the gateway's duplicate checking.
func (b *AuthorizationBuilder) WithAllowDuplicates(allow bool) *AuthorizationBuilder {
	b.allowDuplicates = allow
	return b
}

// WithAllowPartialAuth permits the gateway to authorize part of the amount.
func (b *AuthorizationBuilder) WithAllowPartialAuth(allow bool) *AuthorizationBuilder {
	b.allowPartialAuth = allow
	return b
}

// WithMultiCapture permits multiple captures against the authorization.
func (b *AuthorizationBuilder) WithMultiCapture() *AuthorizationBuilder {
	b.multiCapture = true
	return b
}

// Execute resolves the named configuration, validates the builder for its
// transaction type, and delegates to the gateway. It is the terminal call;
// no network activity happens before validation passes.
func (b *AuthorizationBuilder) Execute(ctx context.Context, configName string) (*entities.Transaction, error) {
	gw, err := paymentGateway(configName)
	if err != nil {
		return nil, err
	}
	if err := b.validations.validate(string(b.transactionType)); err != nil {
		return nil, err
	}
	return gw.ProcessAuthorization(ctx, b)
}

// Read access for connectors.

func (b *AuthorizationBuilder) TransactionType() entities.TransactionType { return b.transactionType }
func (b *AuthorizationBuilder) Amount() decimal.Decimal                   { return b.amount }
func (b *AuthorizationBuilder) Currency() string                          { return b.currency }
func (b *AuthorizationBuilder) PaymentMethod() *paymethods.PaymentMethod  { return b.paymentMethod }
func (b *AuthorizationBuilder) BillingAddress() *entities.Address         { return b.billingAddress }
func (b *AuthorizationBuilder) ClientTransactionID() string               { return b.clientTxnID }
func (b *AuthorizationBuilder) Description() string                       { return b.description }
func (b *AuthorizationBuilder) OrderID() string                           { return b.orderID }
func (b *AuthorizationBuilder) CustomerIPAddress() string                 { return b.customerIPAddress }
func (b *AuthorizationBuilder) Gratuity() *decimal.Decimal                { return b.gratuity }
func (b *AuthorizationBuilder) CashBackAmount() *decimal.Decimal          { return b.cashBackAmount }
func (b *AuthorizationBuilder) SurchargeAmount() *decimal.Decimal         { return b.surchargeAmount }
func (b *AuthorizationBuilder) ConvenienceAmount() *decimal.Decimal       { return b.convenienceAmount }
func (b *AuthorizationBuilder) OfflineAuthCode() string                   { return b.offlineAuthCode }
func (b *AuthorizationBuilder) TagData() string                           { return b.tagData }
func (b *AuthorizationBuilder) ChipCondition() entities.EmvChipCondition  { return b.chipCondition }
func (b *AuthorizationBuilder) HasEmvFallbackData() bool                  { return b.emvFallback }
func (b *AuthorizationBuilder) AllowDuplicates() bool                     { return b.allowDuplicates }
func (b *AuthorizationBuilder) AllowPartialAuth() bool                    { return b.allowPartialAuth }
func (b *AuthorizationBuilder) IsMultiCapture() bool                      { return b.multiCapture }
