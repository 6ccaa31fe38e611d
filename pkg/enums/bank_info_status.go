package enums

import "strings"

// BankInfoStatus is the provider-reported validation state of an account's
// bank details. Only a validated account may receive withdrawals.
type BankInfoStatus string

const (
	BankInfoStatusBlank                BankInfoStatus = "blank"
	BankInfoStatusMissing              BankInfoStatus = "missing"
	BankInfoStatusValidationInProgress BankInfoStatus = "validation_in_progress"
	BankInfoStatusValidated            BankInfoStatus = "validated"
)

// String implements fmt.Stringer.
func (s BankInfoStatus) String() string {
	return string(s)
}

// Validated reports whether the bank details cleared provider validation.
func (s BankInfoStatus) Validated() bool {
	return s == BankInfoStatusValidated
}

// NormalizeBankInfoStatus maps a raw provider status string onto the enum.
// Unknown values pass through lowercased so diagnostics keep the original text.
func NormalizeBankInfoStatus(raw string) BankInfoStatus {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" {
		return BankInfoStatusBlank
	}
	return BankInfoStatus(value)
}
