package gateway

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kevin07696/globalpay-sdk/entities"
	"github.com/kevin07696/globalpay-sdk/gpapi"
	"github.com/kevin07696/globalpay-sdk/jsondoc"
	"github.com/kevin07696/globalpay-sdk/paymethods"
)

// newTestConnector wires a connector against a fake gateway that always
// grants tokens before dispatching to handler.
func newTestConnector(t *testing.T, handler http.HandlerFunc) *Connector {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/accesstoken", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"token":"tok_1"}`))
	})
	mux.HandleFunc("/", handler)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	cfg := DefaultConfig(EnvironmentTest)
	cfg.AppID = "app-id"
	cfg.AppKey = "app-key"
	cfg.ServiceURL = server.URL
	cfg.Channel = entities.ChannelCardPresent
	return NewConnector(cfg)
}

func presentCard() *paymethods.PaymentMethod {
	return &paymethods.PaymentMethod{
		Card: &paymethods.CardData{
			Number:         "4263970000005262",
			ExpMonth:       5,
			ExpYear:        2025,
			Cvn:            "123",
			CvnPresence:    entities.CvnPresent,
			CardHolderName: "Jane Doe",
			ReaderPresent:  true,
			CardPresent:    true,
		},
	}
}

func TestProcessAuthorizationSale(t *testing.T) {
	var path, method, auth string
	var body *jsondoc.JsonDoc
	conn := newTestConnector(t, func(w http.ResponseWriter, r *http.Request) {
		path, method, auth = r.URL.Path, r.Method, r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		var err error
		body, err = jsondoc.Parse(raw)
		require.NoError(t, err)
		w.Write([]byte(`{
			"id": "TRN_1",
			"amount": "14.00",
			"time_created": "2026-08-30T10:00:00.000Z",
			"status": "CAPTURED",
			"reference": "my-ref",
			"batch_id": "BAT_1",
			"action": {"result_code": "SUCCESS"}
		}`))
	})

	builder := gpapi.Charge(decimal.RequireFromString("14.00")).
		WithCurrency("USD").
		WithPaymentMethod(presentCard()).
		WithClientTransactionID("my-ref").
		WithAllowDuplicates(true)

	txn, err := conn.ProcessAuthorization(context.Background(), builder)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, method)
	assert.Equal(t, "/transactions", path)
	assert.Equal(t, "Bearer tok_1", auth)

	assert.Equal(t, "SALE", body.GetString("type"))
	assert.Equal(t, "CP", body.GetString("channel"))
	assert.Equal(t, "AUTO", body.GetString("capture_mode"))
	assert.Equal(t, "1400", body.GetString("amount"))
	assert.Equal(t, "USD", body.GetString("currency"))
	assert.Equal(t, "my-ref", body.GetString("reference"))
	assert.Equal(t, "US", body.GetString("country"))
	assert.Equal(t, accountNameTransactions, body.GetString("account_name"))

	assert.Equal(t, "WHOLE", body.GetString("authorization_mode"))

	pm := body.Get("payment_method")
	assert.Equal(t, "MANUAL", pm.GetString("entry_mode"))
	assert.Equal(t, "Jane Doe", pm.GetString("name"))
	card := pm.Get("card")
	assert.Equal(t, "4263970000005262", card.GetString("number"))
	assert.Equal(t, "05", card.GetString("expiry_month"))
	assert.Equal(t, "25", card.GetString("expiry_year"))
	assert.Equal(t, "123", card.GetString("cvv"))
	assert.Equal(t, "PRESENT", card.GetString("cvv_indicator"))
	require.NoError(t, body.Err())

	assert.Equal(t, "TRN_1", txn.TransactionID)
	assert.True(t, txn.BalanceAmount.Equal(decimal.RequireFromString("14.00")))
	assert.Equal(t, "CAPTURED", txn.ResponseMessage)
	assert.Equal(t, "my-ref", txn.ReferenceNumber)
	assert.Equal(t, "BAT_1", txn.BatchSummary.SequenceNumber)
	assert.Equal(t, "SUCCESS", txn.ResponseCode)
}

func TestProcessAuthorizationGeneratesReference(t *testing.T) {
	var body *jsondoc.JsonDoc
	conn := newTestConnector(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		body, _ = jsondoc.Parse(raw)
		w.Write([]byte(`{"id":"TRN_1","action":{"result_code":"SUCCESS"}}`))
	})

	builder := gpapi.Authorize(decimal.NewFromInt(5)).
		WithCurrency("USD").
		WithPaymentMethod(presentCard())

	_, err := conn.ProcessAuthorization(context.Background(), builder)
	require.NoError(t, err)

	assert.NotEmpty(t, body.GetString("reference"), "a reference is generated when none is supplied")
	assert.Equal(t, "LATER", body.GetString("capture_mode"))
}

func TestProcessAuthorizationEntryModes(t *testing.T) {
	tests := []struct {
		name  string
		build func() *gpapi.AuthorizationBuilder
		want  string
	}{
		{
			name: "ecom card",
			build: func() *gpapi.AuthorizationBuilder {
				pm := &paymethods.PaymentMethod{Card: &paymethods.CardData{Number: "4263970000005262", ExpMonth: 5, ExpYear: 2025}}
				return gpapi.Charge(decimal.NewFromInt(1)).WithCurrency("USD").WithPaymentMethod(pm)
			},
			want: "ECOM",
		},
		{
			name: "in app",
			build: func() *gpapi.AuthorizationBuilder {
				pm := &paymethods.PaymentMethod{Card: &paymethods.CardData{Number: "4263970000005262", ExpMonth: 5, ExpYear: 2025, ReaderPresent: true}}
				return gpapi.Charge(decimal.NewFromInt(1)).WithCurrency("USD").WithPaymentMethod(pm)
			},
			want: "IN_APP",
		},
		{
			name: "swiped track",
			build: func() *gpapi.AuthorizationBuilder {
				pm := &paymethods.PaymentMethod{Track: &paymethods.TrackData{Value: "%B4263...", EntryMethod: entities.EntryMethodSwipe}}
				return gpapi.Charge(decimal.NewFromInt(1)).WithCurrency("USD").WithPaymentMethod(pm)
			},
			want: "SWIPE",
		},
		{
			name: "chip with tag data",
			build: func() *gpapi.AuthorizationBuilder {
				pm := &paymethods.PaymentMethod{Track: &paymethods.TrackData{Value: "%B4263...", EntryMethod: entities.EntryMethodSwipe}}
				return gpapi.Charge(decimal.NewFromInt(1)).WithCurrency("USD").WithPaymentMethod(pm).WithTagData("9F4005F000F0A001")
			},
			want: "CHIP",
		},
		{
			name: "contactless chip",
			build: func() *gpapi.AuthorizationBuilder {
				pm := &paymethods.PaymentMethod{Track: &paymethods.TrackData{Value: "%B4263...", EntryMethod: entities.EntryMethodProximity}}
				return gpapi.Charge(decimal.NewFromInt(1)).WithCurrency("USD").WithPaymentMethod(pm).WithTagData("9F4005F000F0A001")
			},
			want: "CONTACTLESS_CHIP",
		},
		{
			name: "emv fallback",
			build: func() *gpapi.AuthorizationBuilder {
				pm := &paymethods.PaymentMethod{Track: &paymethods.TrackData{Value: "%B4263...", EntryMethod: entities.EntryMethodProximity}}
				return gpapi.Charge(decimal.NewFromInt(1)).WithCurrency("USD").WithPaymentMethod(pm).WithEmvFallback()
			},
			want: "CONTACTLESS_SWIPE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body *jsondoc.JsonDoc
			conn := newTestConnector(t, func(w http.ResponseWriter, r *http.Request) {
				raw, _ := io.ReadAll(r.Body)
				body, _ = jsondoc.Parse(raw)
				w.Write([]byte(`{"id":"TRN_1","action":{"result_code":"SUCCESS"}}`))
			})

			_, err := conn.ProcessAuthorization(context.Background(), tt.build())
			require.NoError(t, err)

			assert.Equal(t, tt.want, body.Get("payment_method").GetString("entry_mode"))
		})
	}
}

func TestProcessAuthorizationPartialAuthAndCashback(t *testing.T) {
	var body *jsondoc.JsonDoc
	conn := newTestConnector(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		body, _ = jsondoc.Parse(raw)
		w.Write([]byte(`{"id":"TRN_1","action":{"result_code":"SUCCESS"}}`))
	})

	builder := gpapi.Charge(decimal.RequireFromString("20.00")).
		WithCurrency("USD").
		WithPaymentMethod(presentCard()).
		WithAllowPartialAuth(true).
		WithCashBack(decimal.RequireFromString("5.00"))

	_, err := conn.ProcessAuthorization(context.Background(), builder)
	require.NoError(t, err)

	assert.Equal(t, "PARTIAL", body.GetString("authorization_mode"))
	assert.Equal(t, "5.00", body.GetString("cashback_amount"))
	assert.False(t, body.Has("cash_back_amount"))
	assert.Equal(t, "Jane Doe", body.Get("payment_method").GetString("name"))
}

func TestProcessAuthorizationTrackSale(t *testing.T) {
	var body *jsondoc.JsonDoc
	conn := newTestConnector(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		body, _ = jsondoc.Parse(raw)
		w.Write([]byte(`{"id":"TRN_1","action":{"result_code":"SUCCESS"}}`))
	})

	pm := &paymethods.PaymentMethod{
		Funding: entities.FundingDebit,
		Track: &paymethods.TrackData{
			Value:       "%B4263970000005262^DOE/JANE^30051010000000000000?",
			Pan:         "4263970000005262",
			Expiry:      "3005",
			EntryMethod: entities.EntryMethodSwipe,
		},
	}
	builder := gpapi.Charge(decimal.RequireFromString("10.00")).
		WithCurrency("USD").
		WithPaymentMethod(pm).
		WithAddress(&entities.Address{StreetAddress1: "1 Main St", PostalCode: "50001"})

	_, err := conn.ProcessAuthorization(context.Background(), builder)
	require.NoError(t, err)

	card := body.Get("payment_method").Get("card")
	assert.Equal(t, "4263970000005262", card.GetString("number"))
	assert.Equal(t, "05", card.GetString("expiry_month"))
	assert.Equal(t, "30", card.GetString("expiry_year"))
	assert.Equal(t, "DEBIT", card.GetString("funding"))
	assert.Equal(t, "1 Main St", card.GetString("avs_address"))
	assert.Equal(t, "50001", card.GetString("avs_postal_code"))
}

func TestProcessAuthorizationKeyedCardCarriesReaderFields(t *testing.T) {
	var body *jsondoc.JsonDoc
	conn := newTestConnector(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		body, _ = jsondoc.Parse(raw)
		w.Write([]byte(`{"id":"TRN_1","action":{"result_code":"SUCCESS"}}`))
	})

	pm := presentCard()
	pm.Funding = entities.FundingCredit
	builder := gpapi.Charge(decimal.NewFromInt(1)).
		WithCurrency("USD").
		WithPaymentMethod(pm).
		WithTagData("9F4005F000F0A001").
		WithOfflineAuthCode("A1B2").
		WithChipCondition(entities.ChipFailPreviousSuccess)

	_, err := conn.ProcessAuthorization(context.Background(), builder)
	require.NoError(t, err)

	card := body.Get("payment_method").Get("card")
	assert.Equal(t, "9F4005F000F0A001", card.GetString("tag"))
	assert.Equal(t, "CREDIT", card.GetString("funding"))
	assert.Equal(t, "A1B2", card.GetString("authcode"))
	assert.Equal(t, "PREV_SUCCESS", card.GetString("chip_condition"))
}

func TestCvvIndicator(t *testing.T) {
	tests := []struct {
		in   entities.CvnPresenceIndicator
		want string
	}{
		{entities.CvnPresent, "PRESENT"},
		{entities.CvnIllegible, "ILLEGIBLE"},
		{entities.CvnNotOnCard, "NOT_PRESENT"},
		{entities.CvnNotPresent, ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cvvIndicator(tt.in), string(tt.in))
	}
}

func TestProcessAuthorizationRefundType(t *testing.T) {
	var body *jsondoc.JsonDoc
	conn := newTestConnector(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		body, _ = jsondoc.Parse(raw)
		w.Write([]byte(`{"id":"TRN_1","action":{"result_code":"SUCCESS"}}`))
	})

	builder := gpapi.Refund(decimal.RequireFromString("9.99")).
		WithCurrency("USD").
		WithPaymentMethod(presentCard())

	_, err := conn.ProcessAuthorization(context.Background(), builder)
	require.NoError(t, err)

	assert.Equal(t, "REFUND", body.GetString("type"))
	assert.Equal(t, "999", body.GetString("amount"))
}

func TestManageTransactionCapture(t *testing.T) {
	var path string
	var body *jsondoc.JsonDoc
	conn := newTestConnector(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		body, _ = jsondoc.Parse(raw)
		w.Write([]byte(`{"id":"TRN_1","status":"CAPTURED","action":{"result_code":"SUCCESS"}}`))
	})

	builder := gpapi.CaptureTransaction("TRN_1").
		WithAmount(decimal.RequireFromString("14.00")).
		WithGratuity(decimal.RequireFromString("2.00"))

	txn, err := conn.ManageTransaction(context.Background(), builder)
	require.NoError(t, err)

	assert.Equal(t, "/transactions/TRN_1/capture", path)
	assert.Equal(t, "1400", body.GetString("amount"))
	assert.Equal(t, "2.00", body.GetString("gratuity_amount"))
	assert.Equal(t, "CAPTURED", txn.ResponseMessage)
}

func TestManageTransactionRefundOmitsGratuity(t *testing.T) {
	var path string
	var body *jsondoc.JsonDoc
	conn := newTestConnector(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		body, _ = jsondoc.Parse(raw)
		w.Write([]byte(`{"id":"TRN_1","action":{"result_code":"SUCCESS"}}`))
	})

	builder := gpapi.RefundTransaction("TRN_1").
		WithAmount(decimal.RequireFromString("5.00")).
		WithGratuity(decimal.RequireFromString("1.00"))

	_, err := conn.ManageTransaction(context.Background(), builder)
	require.NoError(t, err)

	assert.Equal(t, "/transactions/TRN_1/refund", path)
	assert.Equal(t, "500", body.GetString("amount"))
	assert.False(t, body.Has("gratuity_amount"), "gratuity is a capture-only field")
}

func TestManageTransactionReversal(t *testing.T) {
	var path string
	conn := newTestConnector(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Write([]byte(`{"id":"TRN_1","status":"REVERSED","action":{"result_code":"SUCCESS"}}`))
	})

	_, err := conn.ManageTransaction(context.Background(), gpapi.ReverseTransaction("TRN_1"))
	require.NoError(t, err)

	assert.Equal(t, "/transactions/TRN_1/reversal", path)
}

func TestFindTransactionsQueryParameters(t *testing.T) {
	var query map[string][]string
	conn := newTestConnector(t, func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		w.Write([]byte(`{"transactions":[
			{"id":"TRN_1","status":"CAPTURED","type":"SALE","amount":"14.00","currency":"USD",
			 "time_created":"2026-08-30T10:00:00.000Z",
			 "payment_method":{"entry_mode":"ECOM","message":"APPROVAL",
			  "card":{"brand":"VISA","masked_number_first6last4":"426397XXXXXX5262"}}}
		]}`))
	})

	b := gpapi.FindTransactions().
		WithPaging(2, 10).
		OrderBy(entities.SortPropertyTimeCreated, entities.SortDirectionDescending)
	b.Where(gpapi.CriteriaCardBrand, "VISA").
		And(gpapi.CriteriaTransactionStatus, entities.TransactionStatusCaptured)

	list, err := conn.FindTransactions(context.Background(), b.Query())
	require.NoError(t, err)

	assert.Equal(t, "2", query["PAGE"][0])
	assert.Equal(t, "10", query["PAGE_SIZE"][0])
	assert.Equal(t, "TIME_CREATED", query["ORDER_BY"][0])
	assert.Equal(t, "DESC", query["ORDER"][0])
	assert.Equal(t, "VISA", query["BRAND"][0])
	assert.Equal(t, "CAPTURED", query["STATUS"][0])
	assert.NotEmpty(t, query["FROM_TIME_CREATED"], "start date defaults to today")
	assert.NotContains(t, query, "ARN", "unset criteria are never emitted")
	assert.NotContains(t, query, "TO_TIME_CREATED")

	require.Len(t, list, 1)
	assert.Equal(t, "TRN_1", list[0].TransactionID)
	assert.Equal(t, "VISA", list[0].CardType)
	assert.Equal(t, "426397XXXXXX5262", list[0].MaskedCardNumber)
	assert.Equal(t, "ECOM", list[0].EntryMode)
	assert.Equal(t, "APPROVAL", list[0].GatewayResponseMessage)
}

func TestTransactionDetailPath(t *testing.T) {
	var path, method string
	conn := newTestConnector(t, func(w http.ResponseWriter, r *http.Request) {
		path, method = r.URL.Path, r.Method
		w.Write([]byte(`{"id":"TRN_9","status":"BATCHED","type":"SALE","amount":"7.50","currency":"USD",
			"time_created":"2026-08-29T08:30:00.000Z","batch_id":"BAT_2",
			"parent_resource_id":"TRN_8",
			"payment_method":{"entry_mode":"MANUAL","message":"APPROVAL",
			 "card":{"brand":"MC","authcode":"A1","arn":"arn-1","masked_number_first6last4":"526397XXXXXX1234"}}}`))
	})

	summary, err := conn.TransactionDetail(context.Background(), "TRN_9")
	require.NoError(t, err)

	assert.Equal(t, http.MethodGet, method)
	assert.Equal(t, "/transactions/TRN_9", path)
	assert.Equal(t, "TRN_9", summary.TransactionID)
	assert.Equal(t, "BATCHED", summary.TransactionStatus)
	assert.Equal(t, "BAT_2", summary.BatchSequenceNumber)
	assert.Equal(t, "A1", summary.AuthCode)
	assert.Equal(t, "arn-1", summary.AcquirerReferenceNumber)
	assert.Equal(t, "TRN_8", summary.OriginalTransactionID)
	assert.Equal(t, "APPROVAL", summary.GatewayResponseMessage)
	assert.Equal(t, "526397XXXXXX1234", summary.MaskedCardNumber)
	assert.Equal(t, 2026, summary.TransactionDate.Year())
}

func TestErrorEnvelopeMapsToGatewayError(t *testing.T) {
	conn := newTestConnector(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error_code":"X","detailed_error_code":"Y","detailed_error_description":"Z"}`))
	})

	builder := gpapi.Charge(decimal.NewFromInt(1)).
		WithCurrency("USD").
		WithPaymentMethod(presentCard())

	_, err := conn.ProcessAuthorization(context.Background(), builder)

	var gerr *gpapi.GatewayError
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, http.StatusBadRequest, gerr.StatusCode)
	assert.Equal(t, "X", gerr.ErrorCode)
	assert.Equal(t, "Y", gerr.DetailedErrorCode)
	assert.Equal(t, "Z", gerr.DetailedErrorDescription)
}

func TestUnstructuredErrorSurfacesRawBody(t *testing.T) {
	conn := newTestConnector(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`upstream unavailable`))
	})

	_, err := conn.TransactionDetail(context.Background(), "TRN_1")

	var gerr *gpapi.GatewayError
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, http.StatusBadGateway, gerr.StatusCode)
	assert.Contains(t, gerr.Message, "upstream unavailable")
}

func TestUnauthorizedTriggersSingleReacquisition(t *testing.T) {
	var tokenCalls, txnCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/accesstoken", func(w http.ResponseWriter, r *http.Request) {
		n := tokenCalls.Add(1)
		if n == 1 {
			w.Write([]byte(`{"token":"tok_stale"}`))
			return
		}
		w.Write([]byte(`{"token":"tok_fresh"}`))
	})
	mux.HandleFunc("/transactions/TRN_1", func(w http.ResponseWriter, r *http.Request) {
		txnCalls.Add(1)
		if r.Header.Get("Authorization") == "Bearer tok_stale" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error_code":"NOT_AUTHENTICATED"}`))
			return
		}
		w.Write([]byte(`{"id":"TRN_1","status":"CAPTURED","type":"SALE"}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	cfg := DefaultConfig(EnvironmentTest)
	cfg.AppID = "app-id"
	cfg.AppKey = "app-key"
	cfg.ServiceURL = server.URL
	conn := NewConnector(cfg)

	summary, err := conn.TransactionDetail(context.Background(), "TRN_1")
	require.NoError(t, err)

	assert.Equal(t, "TRN_1", summary.TransactionID)
	assert.Equal(t, int32(2), tokenCalls.Load(), "exactly one re-acquisition")
	assert.Equal(t, int32(2), txnCalls.Load(), "exactly one resend")
}

func TestToNumeric(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"14.00", "1400"},
		{"9.99", "999"},
		{"0.50", "50"},
		{"0.05", "5"},
		{"0.00", "0"},
		{"100", "10000"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, toNumeric(decimal.RequireFromString(tt.in)), tt.in)
	}
}
