package application

import "errors"

var (
	// ErrDecryptionFailure ...
	ErrDecryptionFailure = errors.New("unable to decrypt request params")
	// ErrMalformedParams ...
	ErrMalformedParams = errors.New("request params are malformed")
	// ErrSigningFailure ...
	ErrSigningFailure = errors.New("unable to sign order")
	// ErrBalanceLookupFailure ...
	ErrBalanceLookupFailure = errors.New("unable to read on-chain balance")
	// ErrApprovalFailure halts the approval sequence; remaining tokens are
	// left unapproved and visible as such.
	ErrApprovalFailure = errors.New("approval transaction failed")
	// ErrInsufficientGasBalance is fatal: the signing wallet cannot pay gas.
	ErrInsufficientGasBalance = errors.New("signing wallet has no native balance to pay for gas")
)
