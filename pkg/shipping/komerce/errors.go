package komerce

import "errors"

var (
	ErrInvalidConfig = errors.New("komerce: base url and api key are required")

	// ErrKeywordTooShort is returned before any request is made.
	ErrKeywordTooShort = errors.New("komerce: keyword must be at least 3 characters")

	// ErrInvalidRequest covers 4xx responses; these do not trip the breaker.
	ErrInvalidRequest = errors.New("komerce: invalid request")

	ErrUnauthorized = errors.New("komerce: unauthorized")

	// ErrUpstream covers 5xx responses, success=false bodies and undecodable payloads.
	ErrUpstream = errors.New("komerce: upstream error")

	ErrNetworkError = errors.New("komerce: network error")

	ErrCircuitOpen = errors.New("komerce: circuit open")
)
