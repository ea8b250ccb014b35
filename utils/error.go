package utils

import "errors"

// Construction-time errors abort before anything reaches the network.
var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrInvalidEndpoint       = errors.New("invalid block engine endpoint")
	ErrMissingOnChainAccount = errors.New("referenced on-chain account not found")
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrBundleTooLarge        = errors.New("bundle exceeds relay transaction limit")
)

// Relay-side errors carry the relay's raw error text via wrapping; they
// are surfaced to the caller and never retried here.
var (
	ErrRelayUnavailable       = errors.New("relay unavailable")
	ErrBundleSubmissionFailed = errors.New("bundle submission failed")
)
