package domain

import "errors"

var (
	ErrBillNotFound     = errors.New("bill_not_found")
	ErrInvalidAmount    = errors.New("invalid_payment_amount")
	ErrExceedsRemaining = errors.New("payment_exceeds_remaining")
	ErrAlreadyPaid      = errors.New("bill_already_paid")
	ErrConcurrentUpdate = errors.New("concurrent_bill_update")
)
