package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// Timestamp layouts exchanged with the gateway.
const (
	TimestampFormat = "2006-01-02T15:04:05.000Z"
	DateFormat      = "2006-01-02"
)

// Transaction is the result of an authorization or management operation.
type Transaction struct {
	TransactionID   string
	BalanceAmount   decimal.Decimal
	Timestamp       string
	ResponseMessage string
	ReferenceNumber string
	BatchSummary    *BatchSummary
	ResponseCode    string
}

// BatchSummary carries the settlement batch a transaction was assigned to.
type BatchSummary struct {
	SequenceNumber string
}

// TransactionSummary is one row of a transaction report.
type TransactionSummary struct {
	TransactionID           string
	TransactionDate         time.Time
	TransactionStatus       string
	TransactionType         string
	Amount                  decimal.Decimal
	Currency                string
	ReferenceNumber         string
	BatchSequenceNumber     string
	Country                 string
	OriginalTransactionID   string
	GatewayResponseMessage  string
	EntryMode               string
	CardType                string
	AuthCode                string
	AcquirerReferenceNumber string
	MaskedCardNumber        string
}

// TransactionSummaryList is the result of a find-transactions report.
type TransactionSummaryList []*TransactionSummary

// Address is a billing address attached to an authorization.
type Address struct {
	StreetAddress1 string
	City           string
	State          string
	PostalCode     string
	Country        string
}
