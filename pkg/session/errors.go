package session

import "errors"

var (
	// ErrNoStore indicates the manager was built without a store.
	ErrNoStore = errors.New("session.no_store")

	// ErrStoreFailure wraps transport errors returned by the backing store.
	ErrStoreFailure = errors.New("session.store_failure")

	// ErrEncode indicates session data could not be serialized.
	ErrEncode = errors.New("session.encode_failed")
)
