package payouts

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// AccountNotFoundError signals that an operation's seller has no resolvable
// wallet account, or the account is not provisioned at the provider.
type AccountNotFoundError struct {
	SellerID *int64
}

func (e *AccountNotFoundError) Error() string {
	if e.SellerID == nil {
		return "operator wallet account not found"
	}
	return fmt.Sprintf("wallet account not found for seller %d", *e.SellerID)
}

// UnidentifiedAccountError signals that the wallet account has not passed the
// provider's identity verification, so no withdrawal may proceed.
type UnidentifiedAccountError struct {
	SellerID *int64
}

func (e *UnidentifiedAccountError) Error() string {
	if e.SellerID == nil {
		return "operator wallet account is not identified"
	}
	return fmt.Sprintf("wallet account for seller %d is not identified", *e.SellerID)
}

// UnconfirmedBankAccountError signals that the provider has not validated the
// account's bank details. Status carries the provider-reported state.
type UnconfirmedBankAccountError struct {
	SellerID *int64
	Status   string
}

func (e *UnconfirmedBankAccountError) Error() string {
	if e.SellerID == nil {
		return fmt.Sprintf("operator bank account not confirmed (status %q)", e.Status)
	}
	return fmt.Sprintf("bank account for seller %d not confirmed (status %q)", *e.SellerID, e.Status)
}

// InsufficientBalanceError signals that the wallet holds less than the
// requested withdrawal amount. Seller withdrawals are never partially filled;
// operator withdrawals are capped and fail only when the wallet is empty.
type InsufficientBalanceError struct {
	SellerID  *int64
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	if e.SellerID == nil {
		return fmt.Sprintf("insufficient operator balance: requested %s, available %s",
			e.Requested.StringFixed(2), e.Available.StringFixed(2))
	}
	return fmt.Sprintf("insufficient balance for seller %d: requested %s, available %s",
		*e.SellerID, e.Requested.StringFixed(2), e.Available.StringFixed(2))
}

// IsBusinessFailure reports whether err is one of the precondition failures a
// seller or operator must resolve externally, as opposed to a transport or
// store fault.
func IsBusinessFailure(err error) bool {
	var accountNotFound *AccountNotFoundError
	var unidentified *UnidentifiedAccountError
	var unconfirmed *UnconfirmedBankAccountError
	var insufficient *InsufficientBalanceError
	return errors.As(err, &accountNotFound) ||
		errors.As(err, &unidentified) ||
		errors.As(err, &unconfirmed) ||
		errors.As(err, &insufficient)
}
