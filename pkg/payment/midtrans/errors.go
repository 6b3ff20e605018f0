package midtrans

import "errors"

var (
	ErrInvalidConfig = errors.New("midtrans: server key and base urls are required")

	// ErrInvalidRequest covers rejected payloads; these do not trip the breaker.
	ErrInvalidRequest = errors.New("midtrans: invalid request")

	ErrUnauthorized = errors.New("midtrans: unauthorized: invalid server key")

	ErrTransactionNotFound = errors.New("midtrans: transaction not found")

	ErrUpstream = errors.New("midtrans: upstream error")

	ErrNetworkError = errors.New("midtrans: network error")

	ErrCircuitOpen = errors.New("midtrans: circuit open")
)
