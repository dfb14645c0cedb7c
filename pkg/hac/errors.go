package hac

import "errors"

// Static errors for err113 compliance.
var (
	ErrConfigRequired      = errors.New("config is required")
	ErrNoEngine            = errors.New("no managed engine configured")
	ErrUnsupportedMethod   = errors.New("unsupported method")
	ErrAmbiguousBody       = errors.New("both json and form bodies supplied")
	ErrRawBodyUnsupported  = errors.New("transport cannot send a raw form body")
	ErrInvalidArgs         = errors.New("invalid call arguments")
	ErrUnsupportedFormType = errors.New("unsupported form value type")
	ErrNotURL              = errors.New("chain did not resolve to a URL")
	ErrInvalidCookie       = errors.New("invalid cookie name")
)
