package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/kevin07696/globalpay-sdk/entities"
	"github.com/kevin07696/globalpay-sdk/gpapi"
	"github.com/kevin07696/globalpay-sdk/jsondoc"
)

// Fixed request values from the service contract.
const (
	accountNameTransactions = "Transaction_Processing"
	defaultCountry          = "US"
)

// Connector maps builder state onto the GP-API wire format and response
// documents back onto domain results. It implements both the payment
// gateway and reporting service contracts.
type Connector struct {
	channel entities.Channel
	client  *restClient
	tokens  *accessTokenSource
	logger  *zap.Logger
}

// NewConnector builds a connector for one configuration. The token source
// is owned by the connector, so every builder executed against the same
// configuration name shares one credential cache.
func NewConnector(cfg *Config) *Connector {
	client := newRestClient(cfg)
	return &Connector{
		channel: cfg.Channel,
		client:  client,
		tokens:  newAccessTokenSource(cfg, client),
		logger:  cfg.logger(),
	}
}

// doSecure performs an authenticated exchange. On a 401 the cached token is
// invalidated and the request resent once with a fresh token; this is the
// only internally retried path.
func (c *Connector) doSecure(ctx context.Context, verb, path string, body []byte, query url.Values) (*gatewayResponse, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.send(ctx, verb, path, body, query, map[string]string{
		"Authorization": "Bearer " + token,
	})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	c.logger.Debug("access token rejected, re-acquiring", zap.String("path", path))
	c.tokens.Invalidate(token)
	token, err = c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}
	return c.client.send(ctx, verb, path, body, query, map[string]string{
		"Authorization": "Bearer " + token,
	})
}

// ProcessAuthorization creates a transaction: sale, auth or standalone
// refund.
func (c *Connector) ProcessAuthorization(ctx context.Context, b *gpapi.AuthorizationBuilder) (*entities.Transaction, error) {
	paymentMethod := jsondoc.New().Set("entry_mode", entryMode(b))
	pm := b.PaymentMethod()

	card := jsondoc.New()
	switch {
	case pm.HasCardData():
		card.Set("number", pm.Card.Number).
			Set("expiry_month", fmt.Sprintf("%02d", pm.Card.ExpMonth)).
			Set("expiry_year", fmt.Sprintf("%02d", pm.Card.ExpYear%100)).
			Set("cvv", pm.Card.Cvn).
			Set("cvv_indicator", cvvIndicator(pm.Card.CvnPresence))
	case pm.HasTrackData():
		card.Set("track", pm.Track.Value)
		// Sales also carry the PAN and expiry read from the track.
		if b.TransactionType() == entities.TransactionTypeSale {
			card.Set("number", pm.Track.Pan).
				Set("expiry_month", trackExpiryMonth(pm.Track.Expiry)).
				Set("expiry_year", trackExpiryYear(pm.Track.Expiry))
		}
	}
	card.Set("tag", b.TagData()).
		Set("funding", string(pm.Funding)).
		Set("chip_condition", chipCondition(b.ChipCondition())).
		Set("authcode", b.OfflineAuthCode())
	if addr := b.BillingAddress(); addr != nil {
		card.Set("avs_address", addr.StreetAddress1).
			Set("avs_postal_code", addr.PostalCode)
	}
	if pm.IsPinProtected() {
		card.Set("pin_block", pm.PinBlock)
	}
	paymentMethod.Set("card", card)
	if pm.HasCardData() {
		paymentMethod.Set("name", pm.Card.CardHolderName)
	}

	if pm.HasAuthenticationData() {
		paymentMethod.Set("authentication", jsondoc.New().
			Set("xid", pm.ThreeDSecure.Xid).
			Set("cavv", pm.ThreeDSecure.Cavv).
			Set("eci", pm.ThreeDSecure.Eci))
	}
	if pm.IsEncrypted() {
		enc := jsondoc.New().Set("version", pm.Encryption.Version)
		if pm.Encryption.Ktb != "" {
			enc.Set("method", "KTB").Set("info", pm.Encryption.Ktb)
		} else if pm.Encryption.Ksn != "" {
			enc.Set("method", "KSN").Set("info", pm.Encryption.Ksn)
		}
		paymentMethod.Set("encryption", enc)
	}

	reference := b.ClientTransactionID()
	if reference == "" {
		reference = uuid.NewString()
	}
	country := defaultCountry
	if addr := b.BillingAddress(); addr != nil && addr.Country != "" {
		country = addr.Country
	}

	data := jsondoc.New().
		Set("account_name", accountNameTransactions).
		Set("type", requestType(b.TransactionType())).
		Set("channel", string(c.channel)).
		Set("capture_mode", captureMode(b)).
		Set("authorization_mode", authorizationMode(b.AllowPartialAuth())).
		Set("amount", toNumeric(b.Amount())).
		Set("currency", b.Currency()).
		Set("reference", reference).
		Set("description", b.Description()).
		Set("order_reference", b.OrderID()).
		Set("gratuity_amount", decimalString(b.Gratuity())).
		Set("surcharge_amount", decimalString(b.SurchargeAmount())).
		Set("cashback_amount", decimalString(b.CashBackAmount())).
		Set("convenience_amount", decimalString(b.ConvenienceAmount())).
		Set("ip_address", b.CustomerIPAddress()).
		Set("country", country).
		Set("payment_method", paymentMethod)

	raw, err := data.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encode transaction request: %w", err)
	}

	resp, err := c.doSecure(ctx, http.MethodPost, "/transactions", raw, nil)
	if err != nil {
		return nil, err
	}
	doc, err := handleResponse(resp)
	if err != nil {
		return nil, err
	}
	return mapResponse(doc)
}

// ManageTransaction captures, refunds or reverses an existing transaction
// through its sub-resource endpoint.
func (c *Connector) ManageTransaction(ctx context.Context, b *gpapi.ManagementBuilder) (*entities.Transaction, error) {
	var resource string
	data := jsondoc.New()
	switch b.TransactionType() {
	case entities.TransactionTypeCapture:
		resource = "capture"
		if amt := b.Amount(); amt != nil {
			data.Set("amount", toNumeric(*amt))
		}
		data.Set("gratuity_amount", decimalString(b.Gratuity()))
	case entities.TransactionTypeRefund:
		resource = "refund"
		if amt := b.Amount(); amt != nil {
			data.Set("amount", toNumeric(*amt))
		}
	case entities.TransactionTypeReversal:
		resource = "reversal"
		if amt := b.Amount(); amt != nil {
			data.Set("amount", toNumeric(*amt))
		}
	default:
		return nil, gpapi.ErrUnsupportedTransaction
	}

	raw, err := data.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encode management request: %w", err)
	}

	path := fmt.Sprintf("/transactions/%s/%s", b.TransactionID(), resource)
	resp, err := c.doSecure(ctx, http.MethodPost, path, raw, nil)
	if err != nil {
		return nil, err
	}
	doc, err := handleResponse(resp)
	if err != nil {
		return nil, err
	}
	return mapResponse(doc)
}

// FindTransactions runs a paged transaction search. Every populated
// criterion becomes a query parameter under its external name; unset
// criteria are omitted entirely.
func (c *Connector) FindTransactions(ctx context.Context, q *gpapi.ReportQuery) (entities.TransactionSummaryList, error) {
	query := url.Values{}
	setQuery(query, "ID", q.TransactionID)
	setQuery(query, "PAGE", strconv.Itoa(q.Page))
	setQuery(query, "PAGE_SIZE", strconv.Itoa(q.PageSize))
	setQuery(query, "ORDER_BY", string(q.OrderProperty))
	setQuery(query, "ORDER", string(q.OrderDirection))
	setQuery(query, "ACCOUNT_NAME", q.StringCriterion(gpapi.CriteriaAccountName))
	setQuery(query, "BRAND", q.StringCriterion(gpapi.CriteriaCardBrand))
	setQuery(query, "MASKED_NUMBER_FIRST6LAST4", q.StringCriterion(gpapi.CriteriaMaskedCardNumber))
	setQuery(query, "ARN", q.StringCriterion(gpapi.CriteriaAcquirerReferenceNumber))
	setQuery(query, "BRAND_REFERENCE", q.StringCriterion(gpapi.CriteriaBrandReference))
	setQuery(query, "AUTHCODE", q.StringCriterion(gpapi.CriteriaAuthCode))
	setQuery(query, "REFERENCE", q.StringCriterion(gpapi.CriteriaReferenceNumber))
	setQuery(query, "STATUS", q.StringCriterion(gpapi.CriteriaTransactionStatus))
	setQuery(query, "FROM_TIME_CREATED", dateOrToday(q.TimeCriterion(gpapi.CriteriaStartDate)))
	setQuery(query, "TO_TIME_CREATED", dateOrEmpty(q.TimeCriterion(gpapi.CriteriaEndDate)))
	setQuery(query, "DEPOSIT_ID", q.StringCriterion(gpapi.CriteriaDepositReference))
	setQuery(query, "FROM_DEPOSIT_TIME_CREATED", dateOrEmpty(q.TimeCriterion(gpapi.CriteriaStartDepositDate)))
	setQuery(query, "TO_DEPOSIT_TIME_CREATED", dateOrEmpty(q.TimeCriterion(gpapi.CriteriaEndDepositDate)))
	setQuery(query, "FROM_BATCH_TIME_CREATED", dateOrEmpty(q.TimeCriterion(gpapi.CriteriaStartBatchDate)))
	setQuery(query, "TO_BATCH_TIME_CREATED", dateOrEmpty(q.TimeCriterion(gpapi.CriteriaEndBatchDate)))
	setQuery(query, "SYSTEM.MID", q.StringCriterion(gpapi.CriteriaMerchantID))

	resp, err := c.doSecure(ctx, http.MethodGet, "/transactions", nil, query)
	if err != nil {
		return nil, err
	}
	doc, err := handleResponse(resp)
	if err != nil {
		return nil, err
	}

	var list entities.TransactionSummaryList
	for row := range doc.Enumerate("transactions") {
		list = append(list, mapTransactionSummary(row))
	}
	if err := doc.Err(); err != nil {
		return nil, gpapi.WrapGatewayError("malformed report response", err)
	}
	return list, nil
}

// TransactionDetail fetches a single transaction by identifier.
func (c *Connector) TransactionDetail(ctx context.Context, transactionID string) (*entities.TransactionSummary, error) {
	resp, err := c.doSecure(ctx, http.MethodGet, "/transactions/"+transactionID, nil, nil)
	if err != nil {
		return nil, err
	}
	doc, err := handleResponse(resp)
	if err != nil {
		return nil, err
	}
	summary := mapTransactionSummary(doc)
	if err := doc.Err(); err != nil {
		return nil, gpapi.WrapGatewayError("malformed detail response", err)
	}
	return summary, nil
}

// handleResponse parses a success body into a document. Non-2xx responses
// with a machine-readable error envelope surface as structured gateway
// failures; anything else surfaces the raw body.
func handleResponse(resp *gatewayResponse) (*jsondoc.JsonDoc, error) {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		doc, err := jsondoc.Parse(resp.RawResponse)
		if err != nil {
			return nil, gpapi.WrapGatewayError("malformed response body", err)
		}
		return doc, nil
	}

	if doc, err := jsondoc.Parse(resp.RawResponse); err == nil && doc.Has("error_code") {
		return nil, &gpapi.GatewayError{
			StatusCode:               resp.StatusCode,
			ErrorCode:                doc.GetString("error_code"),
			DetailedErrorCode:        doc.GetString("detailed_error_code"),
			DetailedErrorDescription: doc.GetString("detailed_error_description"),
		}
	}
	return nil, &gpapi.GatewayError{
		StatusCode: resp.StatusCode,
		Message:    string(resp.RawResponse),
	}
}

// mapResponse maps a create/manage response onto a Transaction.
func mapResponse(doc *jsondoc.JsonDoc) (*entities.Transaction, error) {
	txn := &entities.Transaction{
		TransactionID:   doc.GetString("id"),
		BalanceAmount:   doc.GetDecimal("amount"),
		Timestamp:       doc.GetString("time_created"),
		ResponseMessage: doc.GetString("status"),
		ReferenceNumber: doc.GetString("reference"),
		BatchSummary:    &entities.BatchSummary{SequenceNumber: doc.GetString("batch_id")},
		ResponseCode:    doc.Get("action").GetString("result_code"),
	}
	if err := doc.Err(); err != nil {
		return nil, gpapi.WrapGatewayError("malformed transaction response", err)
	}
	return txn, nil
}

// mapTransactionSummary maps one report row. The walk mirrors the response
// shape: top-level fields, then payment_method, then payment_method.card.
func mapTransactionSummary(doc *jsondoc.JsonDoc) *entities.TransactionSummary {
	summary := &entities.TransactionSummary{
		TransactionID:          doc.GetString("id"),
		TransactionStatus:      doc.GetString("status"),
		TransactionType:        doc.GetString("type"),
		Amount:                 doc.GetDecimal("amount"),
		Currency:               doc.GetString("currency"),
		ReferenceNumber:        doc.GetString("reference"),
		BatchSequenceNumber:   doc.GetString("batch_id"),
		Country:               doc.GetString("country"),
		OriginalTransactionID: doc.GetString("parent_resource_id"),
	}
	if created := doc.GetString("time_created"); created != "" {
		if t, err := time.Parse(entities.TimestampFormat, created); err == nil {
			summary.TransactionDate = t
		}
	}

	pm := doc.Get("payment_method")
	summary.EntryMode = pm.GetString("entry_mode")
	summary.GatewayResponseMessage = pm.GetString("message")

	card := pm.Get("card")
	summary.CardType = card.GetString("brand")
	summary.AuthCode = card.GetString("authcode")
	summary.AcquirerReferenceNumber = card.GetString("arn")
	summary.MaskedCardNumber = card.GetString("masked_number_first6last4")
	return summary
}

// requestType is the create-transaction type field: refunds are standalone
// REFUND transactions, everything else is a SALE.
func requestType(t entities.TransactionType) string {
	if t == entities.TransactionTypeRefund {
		return "REFUND"
	}
	return "SALE"
}

// entryMode classifies how card data was captured.
func entryMode(b *gpapi.AuthorizationBuilder) string {
	pm := b.PaymentMethod()
	switch {
	case pm.HasCardData():
		switch {
		case pm.Card.ReaderPresent && pm.Card.CardPresent:
			return "MANUAL"
		case pm.Card.ReaderPresent && !pm.Card.CardPresent:
			return "IN_APP"
		case pm.Card.CardPresent:
			return "MANUAL"
		default:
			return "ECOM"
		}
	case pm.HasTrackData():
		switch {
		case b.TagData() != "":
			if pm.Track.EntryMethod == entities.EntryMethodSwipe {
				return "CHIP"
			}
			return "CONTACTLESS_CHIP"
		case b.HasEmvFallbackData():
			return "CONTACTLESS_SWIPE"
		default:
			return "SWIPE"
		}
	}
	return "ECOM"
}

// captureMode decides how funds capture happens for a create request.
func captureMode(b *gpapi.AuthorizationBuilder) string {
	switch {
	case b.IsMultiCapture():
		return "MULTIPLE"
	case b.TransactionType() == entities.TransactionTypeAuth:
		return "LATER"
	default:
		return "AUTO"
	}
}

// cvvIndicator maps the presence indicator onto the values the service
// accepts: ILLEGIBLE, NOT_PRESENT or PRESENT. A card without a CVN on it
// is reported as NOT_PRESENT; an unset indicator sends nothing.
func cvvIndicator(p entities.CvnPresenceIndicator) string {
	switch p {
	case entities.CvnPresent:
		return "PRESENT"
	case entities.CvnIllegible:
		return "ILLEGIBLE"
	case entities.CvnNotOnCard:
		return "NOT_PRESENT"
	}
	return ""
}

// authorizationMode tells the service whether a partial approval is
// acceptable.
func authorizationMode(allowPartial bool) string {
	if allowPartial {
		return "PARTIAL"
	}
	return "WHOLE"
}

// Track expiry is YYMM.

func trackExpiryMonth(expiry string) string {
	if len(expiry) != 4 {
		return ""
	}
	return expiry[2:4]
}

func trackExpiryYear(expiry string) string {
	if len(expiry) != 4 {
		return ""
	}
	return expiry[0:2]
}

func chipCondition(c entities.EmvChipCondition) string {
	switch c {
	case entities.ChipFailPreviousSuccess:
		return "PREV_SUCCESS"
	case entities.ChipFailPreviousFail:
		return "PREV_FAILED"
	}
	return ""
}

// toNumeric renders an amount in plain minor units, so 14.00 becomes
// "1400" and 0.50 becomes "50".
func toNumeric(amount decimal.Decimal) string {
	minor := strings.Replace(amount.StringFixed(2), ".", "", 1)
	minor = strings.TrimLeft(minor, "0")
	if minor == "" {
		return "0"
	}
	return minor
}

// decimalString renders an auxiliary amount with two fixed decimal places,
// or "" when unset so the field stays off the wire.
func decimalString(amount *decimal.Decimal) string {
	if amount == nil {
		return ""
	}
	return amount.StringFixed(2)
}

func setQuery(query url.Values, name, value string) {
	if value != "" {
		query.Set(name, value)
	}
}

func dateOrEmpty(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(entities.DateFormat)
}

func dateOrToday(t *time.Time) string {
	if t == nil {
		return time.Now().Format(entities.DateFormat)
	}
	return t.Format(entities.DateFormat)
}
