package dataplane

import "errors"

var (
	ErrUnsupportedVersion = errors.New("unsupported wire version")
	ErrMalformed          = errors.New("malformed message")
)
