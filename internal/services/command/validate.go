package command

import (
	"github.com/CroesusLabs/croesus/pkg"
	"github.com/CroesusLabs/croesus/pkg/constant"
	"github.com/CroesusLabs/croesus/pkg/mmodel"
)

// validateCommandMap runs the shape checks a command must pass before
// anything is persisted. State checks, such as whether the referenced
// accounts exist or the entry set balances against their normal balances,
// belong to processing; rejecting here keeps invalid commands out of the
// queue entirely.
func validateCommandMap(m *mmodel.CommandMap) error {
	if !pkg.IsValidAddress(m.InstanceAddress) {
		return pkg.ValidateBusinessError(constant.ErrInvalidInstanceAddress, constant.EntityCommand, m.InstanceAddress)
	}

	if err := validateIdentity(m); err != nil {
		return err
	}

	if m.IsAccountAction() {
		return validateAccountPayload(m)
	}

	return validateTransactionPayload(m)
}

// validateIdentity checks the fields forming the command identity hash. An
// update must carry its own idempotency key or its hash would collide with
// the create it targets; a create must not carry one or two retries of the
// same intent would hash apart.
func validateIdentity(m *mmodel.CommandMap) error {
	fields := pkg.FieldValidations{}

	if !pkg.IsValidSource(m.Source) {
		fields["source"] = "source must be 2 to 30 lowercase letters, digits, underscores or hyphens, starting with a letter or digit"
	}

	if !pkg.IsValidSourceIdemPK(m.SourceIdemPK) {
		fields["source_idempk"] = "source_idempk must be 1 to 128 letters, digits or the characters . _ : -"
	}

	if m.IsUpdateAction() {
		if m.UpdateIdemPK == "" {
			fields["update_idempk"] = "update commands require an update_idempk"
		} else if !pkg.IsValidSourceIdemPK(m.UpdateIdemPK) {
			fields["update_idempk"] = "update_idempk must be 1 to 128 letters, digits or the characters . _ : -"
		}

		if m.UpdateSource != "" && !pkg.IsValidSource(m.UpdateSource) {
			fields["update_source"] = "update_source must be 2 to 30 lowercase letters, digits, underscores or hyphens, starting with a letter or digit"
		}
	} else if m.UpdateIdemPK != "" {
		fields["update_idempk"] = "create commands must not carry an update_idempk"
	}

	if len(fields) == 0 {
		return nil
	}

	return pkg.ValidationKnownFieldsError{
		EntityType: constant.EntityCommand,
		Code:       "0400",
		Title:      "Bad Request",
		Message:    "The command payload contains invalid fields. Correct the listed fields and resubmit.",
		Fields:     fields,
	}
}

func validateAccountPayload(m *mmodel.CommandMap) error {
	if m.Account == nil {
		return pkg.ValidateBusinessError(constant.ErrMissingAccountPayload, constant.EntityAccount)
	}

	if err := pkg.ValidatePayloadStruct(m.Account, constant.EntityAccount); err != nil {
		return err
	}

	if m.Account.Context != nil && !pkg.IsFlatMap(m.Account.Context) {
		return pkg.ValidateBusinessError(constant.ErrMetadataNestedStructure, constant.EntityAccount)
	}

	return nil
}

func validateTransactionPayload(m *mmodel.CommandMap) error {
	if m.Transaction == nil {
		return pkg.ValidateBusinessError(constant.ErrMissingTransactionPayload, constant.EntityTransaction)
	}

	data := m.Transaction

	if m.Action == constant.ActionCreateTransaction {
		if len(data.Entries) == 0 {
			return pkg.ValidateBusinessError(constant.ErrMissingTransactionEntries, constant.EntityTransaction)
		}

		if data.Status == constant.TransactionArchived {
			return pkg.ValidateBusinessError(constant.ErrInvalidCreateStatus, constant.EntityTransaction)
		}
	}

	if m.Action == constant.ActionUpdateTransaction && data.Status == constant.TransactionArchived && len(data.Entries) > 0 {
		return pkg.ValidationKnownFieldsError{
			EntityType: constant.EntityTransaction,
			Code:       "0400",
			Title:      "Bad Request",
			Message:    "The command payload contains invalid fields. Correct the listed fields and resubmit.",
			Fields:     pkg.FieldValidations{"entries": "an archive update must not carry entries"},
		}
	}

	if err := pkg.ValidatePayloadStruct(data, constant.EntityTransaction); err != nil {
		return err
	}

	if len(data.Entries) > 0 {
		if err := validateEntrySet(data.Entries); err != nil {
			return err
		}
	}

	if data.Context != nil && !pkg.IsFlatMap(data.Context) {
		return pkg.ValidateBusinessError(constant.ErrMetadataNestedStructure, constant.EntityTransaction)
	}

	return nil
}

// validateEntrySet checks the entry list shape: at least two entries, each
// account targeted once, every amount a non-zero integer in minor units.
func validateEntrySet(entries []mmodel.EntryData) error {
	if len(entries) < 2 {
		return pkg.ValidateBusinessError(constant.ErrTooFewEntries, constant.EntityTransaction)
	}

	seen := make(map[string]struct{}, len(entries))

	for _, e := range entries {
		if _, dup := seen[e.AccountAddress]; dup {
			return pkg.ValidateBusinessError(constant.ErrDuplicateEntryAddresses, constant.EntityTransaction, e.AccountAddress)
		}

		seen[e.AccountAddress] = struct{}{}

		if e.Amount.IsZero() || !e.Amount.IsInteger() {
			return pkg.ValidateBusinessError(constant.ErrInvalidEntryAmount, constant.EntityTransaction, e.Amount)
		}
	}

	return nil
}
