package httpserver

import "errors"

var (
	ErrStart          = errors.New("httpserver.start")
	ErrAlreadyRunning = errors.New("httpserver.already_running")
	ErrShutdown       = errors.New("httpserver.shutdown")
)
