package domain

import "errors"

var (
	// ErrInvalidRequest: the client's fault, nothing was sent upstream.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrMissingNotificationFields: the status PATCH already went through,
	// but the request lacks the fields needed to notify the customer.
	ErrMissingNotificationFields = errors.New("missing email or reviewLink for sending email")

	// ErrUpstreamUpdate / ErrUpstreamRead: the ERP rejected or dropped a call.
	ErrUpstreamUpdate = errors.New("order status update failed upstream")
	ErrUpstreamRead   = errors.New("order fetch failed upstream")

	// ErrTokenUnavailable: no Graph token could be acquired.
	ErrTokenUnavailable = errors.New("access token unavailable")

	// ErrSendFailed: the mail provider did not accept the message.
	ErrSendFailed = errors.New("email send failed")

	// ErrStoreUnavailable: an object-store endpoint was hit without
	// configured credentials.
	ErrStoreUnavailable = errors.New("object store not configured")

	// ErrSnapshotMissing: no working copy of the order data exists yet.
	ErrSnapshotMissing = errors.New("order snapshot not found")

	// ErrOrderNotFound: order absent from both the cache and the snapshot.
	ErrOrderNotFound = errors.New("order not found")
)
