package types

import "errors"

var (
	// ErrInvalidConfig is returned when configuration is invalid
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrWalletNotFound is returned when no wallet (signer) is available
	ErrWalletNotFound = errors.New("wallet not found")

	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("not found")

	// ErrTimeout is returned when an operation times out
	ErrTimeout = errors.New("operation timed out")

	// ErrInvalidAmount is returned when an amount cannot be converted to wei
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrTxFailed is returned when a mined transaction reverted
	ErrTxFailed = errors.New("transaction failed")
)
