package registry

import "errors"

var (
	ErrModuleNotFound   = errors.New("module not found")
	ErrTagNotFound      = errors.New("tag not found")
	ErrDigestNotFound   = errors.New("digest not found")
	ErrInvalidReference = errors.New("invalid reference format")
	ErrRegistryClosed   = errors.New("registry is closed")
)
