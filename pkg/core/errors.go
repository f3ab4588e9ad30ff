package core

import (
	"errors"
	"fmt"
)

// ErrorType represents the semantic category of an exchange error.
type ErrorType int

// Error type constants form the fixed taxonomy upstream error codes are
// mapped onto.
const (
	// ErrorTypeExchange is the catch-all upstream failure.
	ErrorTypeExchange ErrorType = iota
	// ErrorTypeNetwork indicates the upstream endpoint was unreachable.
	ErrorTypeNetwork
	// ErrorTypeAuthentication indicates bad or missing credentials or a
	// rejected signature.
	ErrorTypeAuthentication
	// ErrorTypePermissionDenied indicates an IP or account restriction.
	ErrorTypePermissionDenied
	// ErrorTypeInsufficientFunds indicates the account lacks the required
	// balance.
	ErrorTypeInsufficientFunds
	// ErrorTypeInvalidOrder indicates quantity or price out of bounds or
	// missing.
	ErrorTypeInvalidOrder
	// ErrorTypeOrderNotFound indicates the referenced order does not exist.
	ErrorTypeOrderNotFound
	// ErrorTypeAddressPending indicates a deposit address has not been
	// generated yet; the caller should retry later.
	ErrorTypeAddressPending
	// ErrorTypeExchangeNotAvailable indicates upstream maintenance.
	ErrorTypeExchangeNotAvailable
)

// String returns the string representation of the error type.
func (t ErrorType) String() string {
	return [...]string{
		"EXCHANGE_ERROR",
		"NETWORK_ERROR",
		"AUTHENTICATION_ERROR",
		"PERMISSION_DENIED",
		"INSUFFICIENT_FUNDS",
		"INVALID_ORDER",
		"ORDER_NOT_FOUND",
		"ADDRESS_PENDING",
		"EXCHANGE_NOT_AVAILABLE",
	}[t]
}

// Retryable reports whether a request failing with this error type may
// succeed if repeated later. Only AddressPending and ExchangeNotAvailable
// qualify; every other type is terminal for the request.
func (t ErrorType) Retryable() bool {
	return t == ErrorTypeAddressPending || t == ErrorTypeExchangeNotAvailable
}

// Sentinel errors for conditions detected locally, before or after a
// round trip to the exchange.
var (
	// ErrClientClosed is returned when attempting to use a closed client.
	ErrClientClosed = errors.New("client is closed")
	// ErrMarketsNotLoaded is returned when a symbol lookup is attempted
	// before LoadMarkets has populated the registry.
	ErrMarketsNotLoaded = errors.New("markets not loaded")
	// ErrSymbolNotFound is returned when a symbol is absent from the
	// market registry.
	ErrSymbolNotFound = errors.New("symbol not found in markets")
	// ErrKlinesOutOfOrder is returned when an OHLCV batch violates the
	// ascending-timestamp ordering the upstream is expected to provide.
	ErrKlinesOutOfOrder = errors.New("klines not in ascending timestamp order")
)

// ExchangeError represents a structured error surfaced by the adapter.
// It always carries the full raw response body for diagnostics.
type ExchangeError struct {
	// Type categorizes the error for programmatic handling.
	Type ErrorType `json:"type"`
	// Code is the exchange-specific error code, when one was returned.
	Code string `json:"code"`
	// Message is the human-readable error description.
	Message string `json:"message"`
	// Raw contains the complete response body that produced the error.
	Raw []byte `json:"raw,omitempty"`
	// Exchange identifies which exchange returned this error.
	Exchange string `json:"exchange"`
}

// Error implements the error interface for ExchangeError.
func (e *ExchangeError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("[%s] %s (%s): %s", e.Exchange, e.Type, e.Code, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Exchange, e.Type, e.Message)
}

// Retryable reports whether the caller may retry the failed request later.
func (e *ExchangeError) Retryable() bool {
	return e.Type.Retryable()
}

// WithRaw attaches the raw response body and returns the error for chaining.
func (e *ExchangeError) WithRaw(raw []byte) *ExchangeError {
	e.Raw = raw
	return e
}

// NewExchangeError creates a new ExchangeError with the specified details.
func NewExchangeError(exchange string, errorType ErrorType, message string) *ExchangeError {
	return &ExchangeError{
		Type:     errorType,
		Message:  message,
		Exchange: exchange,
	}
}

// NewExchangeErrorWithCode creates a new ExchangeError including the
// exchange-specific error code.
func NewExchangeErrorWithCode(exchange string, errorType ErrorType, code, message string) *ExchangeError {
	return &ExchangeError{
		Type:     errorType,
		Code:     code,
		Message:  message,
		Exchange: exchange,
	}
}

// IsErrorType checks whether err is an ExchangeError of the given type.
func IsErrorType(err error, t ErrorType) bool {
	var exErr *ExchangeError
	if errors.As(err, &exErr) {
		return exErr.Type == t
	}
	return false
}

// IsRetryable reports whether err is an ExchangeError a caller should treat
// as retryable (AddressPending or ExchangeNotAvailable).
func IsRetryable(err error) bool {
	var exErr *ExchangeError
	if errors.As(err, &exErr) {
		return exErr.Retryable()
	}
	return false
}

// IsNetworkError returns true if the error is a network connectivity issue.
func IsNetworkError(err error) bool {
	return IsErrorType(err, ErrorTypeNetwork)
}

// IsAuthenticationError returns true if the error is an authentication
// failure. Authentication errors require credential validation and are not
// retryable.
func IsAuthenticationError(err error) bool {
	return IsErrorType(err, ErrorTypeAuthentication)
}

// IsOrderNotFound returns true if the error reports a missing order.
func IsOrderNotFound(err error) bool {
	return IsErrorType(err, ErrorTypeOrderNotFound)
}
