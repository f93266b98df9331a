package gpapi

import (
	"context"
	"time"

	"github.com/kevin07696/globalpay-sdk/entities"
)

// Report paging defaults applied when WithPaging is never called.
const (
	DefaultReportPage     = 1
	DefaultReportPageSize = 5
)

// SearchCriteria names a report filter. Each criterion holds at most one
// value; setting it again overwrites.
type SearchCriteria string

const (
	CriteriaAccountName             SearchCriteria = "accountName"
	CriteriaCardBrand               SearchCriteria = "cardBrand"
	CriteriaMaskedCardNumber        SearchCriteria = "maskedCardNumber"
	CriteriaAcquirerReferenceNumber SearchCriteria = "acquirerReferenceNumber"
	CriteriaBrandReference          SearchCriteria = "brandReference"
	CriteriaAuthCode                SearchCriteria = "authCode"
	CriteriaReferenceNumber         SearchCriteria = "referenceNumber"
	CriteriaTransactionStatus       SearchCriteria = "transactionStatus"
	CriteriaStartDate               SearchCriteria = "startDate"
	CriteriaEndDate                 SearchCriteria = "endDate"
	CriteriaDepositReference        SearchCriteria = "depositReference"
	CriteriaStartDepositDate        SearchCriteria = "startDepositDate"
	CriteriaEndDepositDate          SearchCriteria = "endDepositDate"
	CriteriaStartBatchDate          SearchCriteria = "startBatchDate"
	CriteriaEndBatchDate            SearchCriteria = "endBatchDate"
	CriteriaMerchantID              SearchCriteria = "merchantId"
)

// ReportQuery is the wire-facing view of a report builder handed to the
// reporting service, independent of the builder's result type parameter.
type ReportQuery struct {
	ReportType     entities.ReportType
	TransactionID  string
	Page           int
	PageSize       int
	OrderProperty  entities.TransactionSortProperty
	OrderDirection entities.SortDirection
	criteria       map[SearchCriteria]any
}

// StringCriterion returns the string value of a criterion, or "" when the
// criterion is unset. Enum-typed values are widened to their string form.
func (q *ReportQuery) StringCriterion(c SearchCriteria) string {
	switch v := q.criteria[c].(type) {
	case string:
		return v
	case entities.TransactionStatus:
		return string(v)
	default:
		return ""
	}
}

// TimeCriterion returns the time value of a criterion, or nil when unset.
func (q *ReportQuery) TimeCriterion(c SearchCriteria) *time.Time {
	if v, ok := q.criteria[c].(time.Time); ok {
		return &v
	}
	return nil
}

// TransactionReportBuilder accumulates the parameters of a transaction
// report. The type parameter fixes the result Execute returns: a summary
// list for searches, a single summary for detail lookups.
type TransactionReportBuilder[T any] struct {
	query       ReportQuery
	search      *SearchCriteriaBuilder[T]
	validations *validations
}

// FindTransactions begins a paged transaction search.
func FindTransactions() *TransactionReportBuilder[entities.TransactionSummaryList] {
	return newReportBuilder[entities.TransactionSummaryList](entities.ReportTypeFindTransactions)
}

// ActivityReport begins an activity report. No connector currently maps it,
// so Execute surfaces an unsupported-operation failure after validation.
func ActivityReport() *TransactionReportBuilder[entities.TransactionSummaryList] {
	return newReportBuilder[entities.TransactionSummaryList](entities.ReportTypeActivity)
}

// TransactionDetail begins a lookup of a single transaction by identifier.
func TransactionDetail(transactionID string) *TransactionReportBuilder[*entities.TransactionSummary] {
	b := newReportBuilder[*entities.TransactionSummary](entities.ReportTypeTransactionDetail)
	b.query.TransactionID = transactionID
	return b
}

func newReportBuilder[T any](rt entities.ReportType) *TransactionReportBuilder[T] {
	b := &TransactionReportBuilder[T]{
		query: ReportQuery{
			ReportType: rt,
			Page:       DefaultReportPage,
			PageSize:   DefaultReportPageSize,
		},
		validations: newValidations(),
	}
	b.validations.of(string(entities.ReportTypeTransactionDetail)).
		check("transactionId", func() any { return b.query.TransactionID }).isNotNull()
	b.validations.of(string(entities.ReportTypeActivity)).
		check("transactionId", func() any { return b.query.TransactionID }).isNull()
	return b
}

// WithTransactionID filters the report to a single transaction identifier.
func (b *TransactionReportBuilder[T]) WithTransactionID(id string) *TransactionReportBuilder[T] {
	b.query.TransactionID = id
	return b
}

// WithPaging sets the page number and page size.
func (b *TransactionReportBuilder[T]) WithPaging(page, pageSize int) *TransactionReportBuilder[T] {
	b.query.Page = page
	b.query.PageSize = pageSize
	return b
}

// OrderBy sets the sort property and direction. An empty direction defaults
// to ascending.
func (b *TransactionReportBuilder[T]) OrderBy(property entities.TransactionSortProperty, direction entities.SortDirection) *TransactionReportBuilder[T] {
	b.query.OrderProperty = property
	if direction == "" {
		direction = entities.SortDirectionAscending
	}
	b.query.OrderDirection = direction
	return b
}

// WithStartDate filters to transactions created on or after the date.
func (b *TransactionReportBuilder[T]) WithStartDate(date time.Time) *TransactionReportBuilder[T] {
	b.searchBuilder().And(CriteriaStartDate, date)
	return b
}

// WithEndDate filters to transactions created on or before the date.
func (b *TransactionReportBuilder[T]) WithEndDate(date time.Time) *TransactionReportBuilder[T] {
	b.searchBuilder().And(CriteriaEndDate, date)
	return b
}

// Where sets a search criterion and returns the criteria accumulator so
// further criteria can be chained with And.
func (b *TransactionReportBuilder[T]) Where(c SearchCriteria, value any) *SearchCriteriaBuilder[T] {
	return b.searchBuilder().And(c, value)
}

func (b *TransactionReportBuilder[T]) searchBuilder() *SearchCriteriaBuilder[T] {
	if b.search == nil {
		b.search = &SearchCriteriaBuilder[T]{owner: b}
		b.query.criteria = make(map[SearchCriteria]any)
	}
	return b.search
}

// Execute resolves the named configuration, validates the builder for its
// report type, and delegates to the reporting service.
func (b *TransactionReportBuilder[T]) Execute(ctx context.Context, configName string) (T, error) {
	var zero T
	rs, err := reportingService(configName)
	if err != nil {
		return zero, err
	}
	if err := b.validations.validate(string(b.query.ReportType)); err != nil {
		return zero, err
	}

	var result any
	switch b.query.ReportType {
	case entities.ReportTypeFindTransactions:
		result, err = rs.FindTransactions(ctx, &b.query)
	case entities.ReportTypeTransactionDetail:
		result, err = rs.TransactionDetail(ctx, b.query.TransactionID)
	default:
		return zero, ErrUnsupportedTransaction
	}
	if err != nil {
		return zero, err
	}
	out, ok := result.(T)
	if !ok {
		return zero, ErrUnsupportedTransaction
	}
	return out, nil
}

// Query exposes the wire-facing view of the builder's state.
func (b *TransactionReportBuilder[T]) Query() *ReportQuery {
	return &b.query
}

// SearchCriteriaBuilder accumulates named search criteria for its owning
// report builder. It is created lazily on the first Where call and lives
// exactly as long as the builder that owns it.
type SearchCriteriaBuilder[T any] struct {
	owner *TransactionReportBuilder[T]
}

// And sets a criterion, overwriting any previous value for the same name.
func (s *SearchCriteriaBuilder[T]) And(c SearchCriteria, value any) *SearchCriteriaBuilder[T] {
	s.owner.query.criteria[c] = value
	return s
}

// Execute runs the owning report builder.
func (s *SearchCriteriaBuilder[T]) Execute(ctx context.Context, configName string) (T, error) {
	return s.owner.Execute(ctx, configName)
}
