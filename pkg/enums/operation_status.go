package enums

import "fmt"

// OperationStatus tracks the two-phase lifecycle of a payout operation.
type OperationStatus string

const (
	OperationStatusCreated           OperationStatus = "created"
	OperationStatusTransferSuccess   OperationStatus = "transfer_success"
	OperationStatusTransferFailed    OperationStatus = "transfer_failed"
	OperationStatusWithdrawRequested OperationStatus = "withdraw_requested"
	OperationStatusWithdrawFailed    OperationStatus = "withdraw_failed"
)

var validOperationStatuses = []OperationStatus{
	OperationStatusCreated,
	OperationStatusTransferSuccess,
	OperationStatusTransferFailed,
	OperationStatusWithdrawRequested,
	OperationStatusWithdrawFailed,
}

// String implements fmt.Stringer.
func (s OperationStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OperationStatus.
func (s OperationStatus) IsValid() bool {
	for _, candidate := range validOperationStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseOperationStatus converts raw input into an OperationStatus.
func ParseOperationStatus(value string) (OperationStatus, error) {
	for _, candidate := range validOperationStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid operation status %q", value)
}
