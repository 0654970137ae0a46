package constant

import "errors"

var (
	ErrInstanceNotFound          = errors.New("0001")
	ErrAccountNotFound           = errors.New("0002")
	ErrTransactionNotFound       = errors.New("0003")
	ErrCommandNotFound           = errors.New("0004")
	ErrCreateCommandNotFound     = errors.New("0005")
	ErrActionNotSupported        = errors.New("0006")
	ErrDuplicateCommand          = errors.New("0007")
	ErrInstanceAddressConflict   = errors.New("0008")
	ErrAccountAddressConflict    = errors.New("0009")
	ErrInstanceInUse             = errors.New("0010")
	ErrUnbalancedTransaction     = errors.New("0011")
	ErrTooFewEntries             = errors.New("0012")
	ErrDuplicateEntryAddresses   = errors.New("0013")
	ErrCurrencyMismatch          = errors.New("0014")
	ErrInvalidEntryAmount        = errors.New("0015")
	ErrInsufficientAvailable     = errors.New("0016")
	ErrInvalidStatusTransition   = errors.New("0017")
	ErrTransactionNotPending     = errors.New("0018")
	ErrEntryCountMismatch        = errors.New("0019")
	ErrEntryOrderMismatch        = errors.New("0020")
	ErrEntryCurrencyImmutable    = errors.New("0021")
	ErrImmutableAccountField     = errors.New("0022")
	ErrCreateCommandDeadLettered = errors.New("0023")
	ErrMissingTransactionEntries = errors.New("0024")
	ErrMissingAccountPayload     = errors.New("0025")
	ErrMissingTransactionPayload = errors.New("0026")
	ErrInvalidInstanceAddress    = errors.New("0027")
	ErrMetadataNestedStructure   = errors.New("0028")
	ErrInvalidCreateStatus       = errors.New("0029")
	ErrJournalEventNotFound      = errors.New("0030")
	ErrInvalidQueueStatus        = errors.New("0031")
)

// Control-flow sentinels. These never surface to callers as business
// errors; they steer retry and dispatch decisions.
var (
	// ErrStaleVersion signals a lock_version CAS update that matched zero
	// rows. Handled by the OCC retry engine.
	ErrStaleVersion = errors.New("stale version")

	// ErrAlreadyClaimed signals a queue-item claim lost to another
	// processor. The caller releases and advances.
	ErrAlreadyClaimed = errors.New("already claimed")

	// ErrOCCTimeout signals OCC retry exhaustion for the current claim.
	ErrOCCTimeout = errors.New("occ timeout")

	// ErrCreateCommandStillPending defers an update command whose target
	// create command has not finished processing yet.
	ErrCreateCommandStillPending = errors.New("create command still pending")
)
