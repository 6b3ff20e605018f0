package errors

// Error codes returned in the "error" field of every error response.
// Format: CATEGORY_SPECIFIC_DETAIL. Clients branch on these, never on messages.

const (
	// auth
	AuthUnauthorized       = "AUTH_UNAUTHORIZED"
	AuthInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	AuthTokenExpired       = "AUTH_TOKEN_EXPIRED"
	AuthTokenInvalid       = "AUTH_TOKEN_INVALID"
	AuthTokenRevoked       = "AUTH_TOKEN_REVOKED"
	AuthEmailAlreadyExists = "AUTH_EMAIL_EXISTS"

	// authorization
	AuthzForbidden = "AUTHZ_FORBIDDEN"
	AuthzAdminOnly = "AUTHZ_ADMIN_ONLY"

	// validation
	ValidationInvalidInput = "VALIDATION_INVALID_INPUT"
	ValidationInvalidID    = "VALIDATION_INVALID_ID"
	ValidationRequired     = "VALIDATION_REQUIRED"

	// resources
	ResourceNotFound = "RESOURCE_NOT_FOUND"
	ResourceConflict = "RESOURCE_CONFLICT"

	// cart / checkout
	CartEmpty                  = "CART_EMPTY"
	CartItemNotFound           = "CART_ITEM_NOT_FOUND"
	CartChanged                = "CART_CHANGED"
	StockInsufficient          = "STOCK_INSUFFICIENT"
	ProductNotFound            = "PRODUCT_NOT_FOUND"
	ShippingServiceUnavailable = "SHIPPING_SERVICE_UNAVAILABLE"
	ShippingKeywordTooShort    = "SHIPPING_KEYWORD_TOO_SHORT"

	// orders / payment
	OrderNotFound           = "ORDER_NOT_FOUND"
	OrderNotPayable         = "ORDER_NOT_PAYABLE"
	PaymentBodyMissing      = "PAYMENT_BODY_MISSING"
	PaymentPayloadMalformed = "PAYMENT_PAYLOAD_MALFORMED"
	PaymentSignatureInvalid = "PAYMENT_SIGNATURE_INVALID"
	PaymentSessionFailed    = "PAYMENT_SESSION_FAILED"

	// upstream
	ShippingUpstream = "SHIPPING_UPSTREAM"
	PaymentUpstream  = "PAYMENT_UPSTREAM"
	StorageUpstream  = "STORAGE_UPSTREAM"

	// internal
	InternalServerError   = "INTERNAL_SERVER_ERROR"
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR"
	RateLimited           = "RATE_LIMITED"
)
