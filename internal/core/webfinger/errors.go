package webfinger

import "errors"

var (
	// ErrMalformedIdentifier is returned when a resource is not a usable
	// acct: identifier. Nothing is looked up or fetched for such input.
	ErrMalformedIdentifier = errors.New("malformed identifier")

	// ErrStorageUnavailable is returned when a local account cannot be looked
	// up because no account store is configured or the store failed.
	ErrStorageUnavailable = errors.New("account storage unavailable")

	// ErrNotFound is the normal negative result: no such local account, or
	// the remote server did not answer 200.
	ErrNotFound = errors.New("resource not found")

	// ErrNetworkFailure is returned when the remote server could not be
	// reached or did not answer in time.
	ErrNetworkFailure = errors.New("remote lookup failed")

	// ErrDecodeFailure is returned when the remote server answered 200 with
	// a body that is not a JSON document.
	ErrDecodeFailure = errors.New("remote response could not be decoded")

	// ErrNoPublicHost is returned for local lookups on a Site without a
	// configured host, since no subject can be named.
	ErrNoPublicHost = errors.New("no public host configured")

	// ErrProbeFailure marks a failed avatar media-type probe. It is logged
	// and recovered from, never returned by Resolve.
	ErrProbeFailure = errors.New("avatar media type probe failed")
)
