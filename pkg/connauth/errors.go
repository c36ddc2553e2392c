package connauth

import "errors"

var (
	// ErrUnauthenticated means the handshake carried no valid signed session cookie.
	ErrUnauthenticated = errors.New("connauth.unauthenticated")
)
