// Package pkg holds the business error taxonomy, payload validation helpers
// and small utilities shared by every component of the posting core.
package pkg

import (
	"errors"
	"fmt"
	"strings"

	"github.com/CroesusLabs/croesus/pkg/constant"
)

// EntityNotFoundError records an error indicating an entity was not found.
// You can use it to representing a business error when a referenced
// instance, account, transaction or command does not exist in the ledger.
type EntityNotFoundError struct {
	EntityType string `json:"entityType,omitempty"`
	Title      string `json:"title,omitempty"`
	Code       string `json:"code,omitempty"`
	Message    string `json:"message,omitempty"`
	Err        error  `json:"err,omitempty"`
}

func (e EntityNotFoundError) Error() string {
	if strings.TrimSpace(e.Message) == "" {
		if e.Err != nil && strings.TrimSpace(e.Err.Error()) != "" {
			return e.Err.Error()
		}

		return "entity not found"
	}

	return e.Message
}

func (e EntityNotFoundError) Unwrap() error {
	return e.Err
}

// ValidationError records an error indicating a command payload did not pass
// shape or content validation.
type ValidationError struct {
	EntityType string `json:"entityType,omitempty"`
	Title      string `json:"title,omitempty"`
	Code       string `json:"code,omitempty"`
	Message    string `json:"message,omitempty"`
	Err        error  `json:"err,omitempty"`
}

func (e ValidationError) Error() string {
	if strings.TrimSpace(e.Code) != "" {
		return e.Code + " - " + e.Message
	}

	return e.Message
}

func (e ValidationError) Unwrap() error {
	return e.Err
}

// EntityConflictError records an error indicating an insert collided with an
// already existing row, such as a duplicate idempotency key or address.
type EntityConflictError struct {
	EntityType string `json:"entityType,omitempty"`
	Title      string `json:"title,omitempty"`
	Code       string `json:"code,omitempty"`
	Message    string `json:"message,omitempty"`
	Err        error  `json:"err,omitempty"`
}

func (e EntityConflictError) Error() string {
	if e.Err != nil && strings.TrimSpace(e.Err.Error()) != "" {
		return e.Err.Error()
	}

	return e.Message
}

func (e EntityConflictError) Unwrap() error {
	return e.Err
}

// UnprocessableOperationError records an error indicating the command is well
// formed but the requested posting violates a ledger rule, such as an
// unbalanced transaction or a negative available balance.
type UnprocessableOperationError struct {
	EntityType string `json:"entityType,omitempty"`
	Title      string `json:"title,omitempty"`
	Code       string `json:"code,omitempty"`
	Message    string `json:"message,omitempty"`
	Err        error  `json:"err,omitempty"`
}

func (e UnprocessableOperationError) Error() string {
	return e.Message
}

func (e UnprocessableOperationError) Unwrap() error {
	return e.Err
}

// InternalServerError records an unclassified infrastructure failure.
type InternalServerError struct {
	EntityType string `json:"entityType,omitempty"`
	Title      string `json:"title,omitempty"`
	Code       string `json:"code,omitempty"`
	Message    string `json:"message,omitempty"`
	Err        error  `json:"err,omitempty"`
}

func (e InternalServerError) Error() string {
	return e.Message
}

func (e InternalServerError) Unwrap() error {
	return e.Err
}

// FieldValidations maps a snake_case field name to its validation message.
type FieldValidations map[string]string

// ValidationKnownFieldsError records a validation error with the offending
// fields broken out, produced by the struct validator at the submission
// boundary.
type ValidationKnownFieldsError struct {
	EntityType string           `json:"entityType,omitempty"`
	Title      string           `json:"title,omitempty"`
	Code       string           `json:"code,omitempty"`
	Message    string           `json:"message,omitempty"`
	Fields     FieldValidations `json:"fields,omitempty"`
}

func (e ValidationKnownFieldsError) Error() string {
	return e.Message
}

// IsBusinessError reports whether err belongs to the business taxonomy, i.e.
// it is terminal for the command that raised it and must not be retried.
func IsBusinessError(err error) bool {
	var (
		notFound      EntityNotFoundError
		validation    ValidationError
		knownFields   ValidationKnownFieldsError
		conflict      EntityConflictError
		unprocessable UnprocessableOperationError
	)

	return errors.As(err, &notFound) ||
		errors.As(err, &validation) ||
		errors.As(err, &knownFields) ||
		errors.As(err, &conflict) ||
		errors.As(err, &unprocessable)
}

// ValidateBusinessError translates a constant sentinel into the corresponding
// typed business error, formatting the message with the given args. Sentinels
// without a mapping are returned unchanged.
//
// Parameters:
//   - err: the sentinel raised by a use case or repository.
//   - entityType: the entity the error is about, used in diagnostics.
//   - args: values interpolated into the error message.
//
// Returns:
//   - error: the typed business error, or err when no mapping exists.
func ValidateBusinessError(err error, entityType string, args ...any) error {
	errorMap := map[error]error{
		constant.ErrInstanceNotFound: EntityNotFoundError{
			EntityType: entityType,
			Code:       constant.ErrInstanceNotFound.Error(),
			Title:      "Instance Not Found",
			Message:    fmt.Sprintf("No instance was found for the given address %v. Please verify the instance address and try again.", args...),
		},
		constant.ErrAccountNotFound: EntityNotFoundError{
			EntityType: entityType,
			Code:       constant.ErrAccountNotFound.Error(),
			Title:      "Account Not Found",
			Message:    fmt.Sprintf("No account was found for address %v in this instance. Please verify the account address and try again.", args...),
		},
		constant.ErrTransactionNotFound: EntityNotFoundError{
			EntityType: entityType,
			Code:       constant.ErrTransactionNotFound.Error(),
			Title:      "Transaction Not Found",
			Message:    "No transaction was found for the given identifier. Please verify the identifier and try again.",
		},
		constant.ErrCommandNotFound: EntityNotFoundError{
			EntityType: entityType,
			Code:       constant.ErrCommandNotFound.Error(),
			Title:      "Command Not Found",
			Message:    "No command was found for the given identifier. Please verify the identifier and try again.",
		},
		constant.ErrCreateCommandNotFound: EntityNotFoundError{
			EntityType: entityType,
			Code:       constant.ErrCreateCommandNotFound.Error(),
			Title:      "Create Command Not Found",
			Message:    fmt.Sprintf("No create_transaction command was found for source key %v/%v. The update has nothing to target.", args...),
		},
		constant.ErrActionNotSupported: ValidationError{
			EntityType: entityType,
			Code:       constant.ErrActionNotSupported.Error(),
			Title:      "Action Not Supported",
			Message:    fmt.Sprintf("The action %v is not supported. Use one of create_account, update_account, create_transaction or update_transaction.", args...),
		},
		constant.ErrDuplicateCommand: EntityConflictError{
			EntityType: entityType,
			Code:       constant.ErrDuplicateCommand.Error(),
			Title:      "Duplicate Command",
			Message:    fmt.Sprintf("A command with the same idempotency key already exists with id %v. The original outcome stands; no new work was scheduled.", args...),
		},
		constant.ErrInstanceAddressConflict: EntityConflictError{
			EntityType: entityType,
			Code:       constant.ErrInstanceAddressConflict.Error(),
			Title:      "Instance Address Conflict",
			Message:    fmt.Sprintf("An instance with address %v already exists. Please choose another address.", args...),
		},
		constant.ErrAccountAddressConflict: EntityConflictError{
			EntityType: entityType,
			Code:       constant.ErrAccountAddressConflict.Error(),
			Title:      "Account Address Conflict",
			Message:    fmt.Sprintf("An account with address %v already exists in this instance. Please choose another address.", args...),
		},
		constant.ErrInstanceInUse: UnprocessableOperationError{
			EntityType: entityType,
			Code:       constant.ErrInstanceInUse.Error(),
			Title:      "Instance In Use",
			Message:    "The instance still owns accounts or transactions and cannot be deleted.",
		},
		constant.ErrUnbalancedTransaction: UnprocessableOperationError{
			EntityType: entityType,
			Code:       constant.ErrUnbalancedTransaction.Error(),
			Title:      "Unbalanced Transaction",
			Message:    fmt.Sprintf("The debit and credit totals differ for currency %v. A transaction must balance per currency after sign normalization.", args...),
		},
		constant.ErrTooFewEntries: ValidationError{
			EntityType: entityType,
			Code:       constant.ErrTooFewEntries.Error(),
			Title:      "Too Few Entries",
			Message:    "A transaction requires at least two entries.",
		},
		constant.ErrDuplicateEntryAddresses: ValidationError{
			EntityType: entityType,
			Code:       constant.ErrDuplicateEntryAddresses.Error(),
			Title:      "Duplicate Entry Addresses",
			Message:    fmt.Sprintf("The account address %v appears in more than one entry. Each entry must target a distinct account.", args...),
		},
		constant.ErrCurrencyMismatch: UnprocessableOperationError{
			EntityType: entityType,
			Code:       constant.ErrCurrencyMismatch.Error(),
			Title:      "Currency Mismatch",
			Message:    fmt.Sprintf("The entry currency %v does not match the account currency %v for address %v.", args...),
		},
		constant.ErrInvalidEntryAmount: ValidationError{
			EntityType: entityType,
			Code:       constant.ErrInvalidEntryAmount.Error(),
			Title:      "Invalid Entry Amount",
			Message:    fmt.Sprintf("The entry amount %v is invalid. Amounts must be non-zero integers in minor units.", args...),
		},
		constant.ErrInsufficientAvailable: UnprocessableOperationError{
			EntityType: entityType,
			Code:       constant.ErrInsufficientAvailable.Error(),
			Title:      "Negative Balance Violation",
			Message:    fmt.Sprintf("negative_balance: posting would drive the available balance of account %v below zero and the account does not allow negative balances.", args...),
		},
		constant.ErrInvalidStatusTransition: ValidationError{
			EntityType: entityType,
			Code:       constant.ErrInvalidStatusTransition.Error(),
			Title:      "Invalid Status Transition",
			Message:    fmt.Sprintf("A transaction cannot move from status %v to %v.", args...),
		},
		constant.ErrTransactionNotPending: ValidationError{
			EntityType: entityType,
			Code:       constant.ErrTransactionNotPending.Error(),
			Title:      "Transaction Not Pending",
			Message:    "The target transaction is no longer pending. Posted and archived transactions are immutable.",
		},
		constant.ErrEntryCountMismatch: ValidationError{
			EntityType: entityType,
			Code:       constant.ErrEntryCountMismatch.Error(),
			Title:      "Entry Count Mismatch",
			Message:    fmt.Sprintf("The update supplies %v entries but the original transaction has %v. Updates must keep the original entry count.", args...),
		},
		constant.ErrEntryOrderMismatch: ValidationError{
			EntityType: entityType,
			Code:       constant.ErrEntryOrderMismatch.Error(),
			Title:      "Entry Order Mismatch",
			Message:    fmt.Sprintf("The update entry at position %v targets %v but the original targets %v. Updates must keep the original account order.", args...),
		},
		constant.ErrEntryCurrencyImmutable: ValidationError{
			EntityType: entityType,
			Code:       constant.ErrEntryCurrencyImmutable.Error(),
			Title:      "Entry Currency Immutable",
			Message:    fmt.Sprintf("The update entry at position %v changes currency from %v to %v. Entry currencies are immutable.", args...),
		},
		constant.ErrImmutableAccountField: ValidationError{
			EntityType: entityType,
			Code:       constant.ErrImmutableAccountField.Error(),
			Title:      "Immutable Account Field",
			Message:    fmt.Sprintf("The account field %v is immutable after creation.", args...),
		},
		constant.ErrCreateCommandDeadLettered: UnprocessableOperationError{
			EntityType: entityType,
			Code:       constant.ErrCreateCommandDeadLettered.Error(),
			Title:      "Create Command Dead Lettered",
			Message:    "The create command this update targets was dead-lettered. The update cannot be applied.",
		},
		constant.ErrMissingTransactionEntries: ValidationError{
			EntityType: entityType,
			Code:       constant.ErrMissingTransactionEntries.Error(),
			Title:      "Missing Transaction Entries",
			Message:    "A create_transaction command requires an entries list.",
		},
		constant.ErrMissingAccountPayload: ValidationError{
			EntityType: entityType,
			Code:       constant.ErrMissingAccountPayload.Error(),
			Title:      "Missing Account Payload",
			Message:    "An account command requires an account payload.",
		},
		constant.ErrMissingTransactionPayload: ValidationError{
			EntityType: entityType,
			Code:       constant.ErrMissingTransactionPayload.Error(),
			Title:      "Missing Transaction Payload",
			Message:    "A transaction command requires a transaction payload.",
		},
		constant.ErrInvalidInstanceAddress: ValidationError{
			EntityType: entityType,
			Code:       constant.ErrInvalidInstanceAddress.Error(),
			Title:      "Invalid Instance Address",
			Message:    fmt.Sprintf("The instance address %v is invalid. Addresses must start with a letter or digit and may contain letters, digits and the characters . _ : -", args...),
		},
		constant.ErrMetadataNestedStructure: ValidationError{
			EntityType: entityType,
			Code:       constant.ErrMetadataNestedStructure.Error(),
			Title:      "Invalid Context Structure",
			Message:    "The context field must be a flat map. Nested structures are not supported.",
		},
		constant.ErrInvalidCreateStatus: ValidationError{
			EntityType: entityType,
			Code:       constant.ErrInvalidCreateStatus.Error(),
			Title:      "Invalid Create Status",
			Message:    "A transaction can only be created as pending or posted. Archived transactions arise from updates.",
		},
		constant.ErrJournalEventNotFound: EntityNotFoundError{
			EntityType: entityType,
			Code:       constant.ErrJournalEventNotFound.Error(),
			Title:      "Journal Event Not Found",
			Message:    "No journal event was found for the given identifier. Please verify the identifier and try again.",
		},
		constant.ErrInvalidQueueStatus: ValidationError{
			EntityType: entityType,
			Code:       constant.ErrInvalidQueueStatus.Error(),
			Title:      "Invalid Queue Status",
			Message:    fmt.Sprintf("The queue status %v is invalid. Use one of pending, processing, processed, failed, occ_timeout or dead_letter.", args...),
		},
	}

	if mappedError, found := errorMap[err]; found {
		return mappedError
	}

	return err
}
