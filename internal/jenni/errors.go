package jenni

import "errors"

var (
	// ErrDisabled means required provider configuration is absent.
	ErrDisabled = errors.New("jenni_disabled")
	// ErrAuth means the credential exchange exhausted its retries.
	ErrAuth = errors.New("jenni_auth_failed")
	// ErrUnavailable covers network failures and 5xx responses.
	ErrUnavailable = errors.New("jenni_unavailable")
	// ErrNotFound is a 404 from the search endpoint.
	ErrNotFound = errors.New("jenni_not_found")
	// ErrConflict means the provider already accepted this order.
	ErrConflict = errors.New("jenni_order_conflict")
)
