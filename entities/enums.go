package entities

// TransactionType identifies the operation a builder will perform.
type TransactionType string

const (
	TransactionTypeSale     TransactionType = "SALE"
	TransactionTypeAuth     TransactionType = "AUTH"
	TransactionTypeRefund   TransactionType = "REFUND"
	TransactionTypeCapture  TransactionType = "CAPTURE"
	TransactionTypeReversal TransactionType = "REVERSAL"
)

// ReportType identifies the kind of report a report builder requests.
type ReportType string

const (
	ReportTypeFindTransactions  ReportType = "FIND_TRANSACTIONS"
	ReportTypeTransactionDetail ReportType = "TRANSACTION_DETAIL"
	ReportTypeActivity          ReportType = "ACTIVITY"
)

// Channel is the gateway's card-present / card-not-present classification.
type Channel string

const (
	ChannelCardPresent    Channel = "CP"
	ChannelCardNotPresent Channel = "CNP"
)

// TransactionStatus values reported by the gateway.
type TransactionStatus string

const (
	TransactionStatusInitiated     TransactionStatus = "INITIATED"
	TransactionStatusPreauthorized TransactionStatus = "PREAUTHORIZED"
	TransactionStatusCaptured      TransactionStatus = "CAPTURED"
	TransactionStatusBatched       TransactionStatus = "BATCHED"
	TransactionStatusReversed      TransactionStatus = "REVERSED"
	TransactionStatusFunded        TransactionStatus = "FUNDED"
	TransactionStatusDeclined      TransactionStatus = "DECLINED"
	TransactionStatusRejected      TransactionStatus = "REJECTED"
)

// SortDirection orders report results.
type SortDirection string

const (
	SortDirectionAscending  SortDirection = "ASC"
	SortDirectionDescending SortDirection = "DESC"
)

// TransactionSortProperty selects the property report results are ordered by.
type TransactionSortProperty string

const (
	SortPropertyTimeCreated TransactionSortProperty = "TIME_CREATED"
	SortPropertyStatus      TransactionSortProperty = "STATUS"
	SortPropertyType        TransactionSortProperty = "TYPE"
	SortPropertyDepositID   TransactionSortProperty = "DEPOSIT_ID"
)

// EntryMethod is how track data was read from the card.
type EntryMethod string

const (
	EntryMethodSwipe     EntryMethod = "swipe"
	EntryMethodProximity EntryMethod = "proximity"
)

// CvnPresenceIndicator describes the state of the card verification number.
type CvnPresenceIndicator string

const (
	CvnPresent    CvnPresenceIndicator = "present"
	CvnIllegible  CvnPresenceIndicator = "illegible"
	CvnNotOnCard  CvnPresenceIndicator = "not_on_card"
	CvnNotPresent CvnPresenceIndicator = "not_present"
)

// EmvChipCondition describes a prior chip-read failure.
type EmvChipCondition string

const (
	ChipFailPreviousSuccess EmvChipCondition = "chip_fail_previous_success"
	ChipFailPreviousFail    EmvChipCondition = "chip_fail_previous_fail"
)

// Funding distinguishes debit from credit payment methods.
type Funding string

const (
	FundingCredit Funding = "CREDIT"
	FundingDebit  Funding = "DEBIT"
)
