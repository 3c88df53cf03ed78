package domain

import "errors"

var (
	// ErrUnknownToken is returned when a token's decimal precision cannot be
	// resolved. It aborts the enclosing negotiation, no partial order is sent.
	ErrUnknownToken = errors.New("token decimals cannot be resolved")
	// ErrUnpricableRequest is returned when a request supplies neither or
	// both trade amounts. Such a request is a protocol violation and must be
	// rejected, never priced as zero.
	ErrUnpricableRequest = errors.New("request must supply exactly one trade amount")
	// ErrInvalidAmount ...
	ErrInvalidAmount = errors.New("amount is not an atomic integer")
)
