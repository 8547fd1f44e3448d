package service

import "errors"

var (
	// ErrUnsupportedTarget the wallet stakes for a protocol the endpoint does not serve
	ErrUnsupportedTarget = errors.New("unsupported stake target")

	ErrInvalidRequest = errors.New("invalid request")
)
