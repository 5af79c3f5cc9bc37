package domain

import "errors"

var (
	// ErrUsage signals a programmer error detected before any I/O
	// (for example a second Limit on the same query chain).
	ErrUsage = errors.New("usage error")
	// ErrNotFound signals a missing document.
	ErrNotFound = errors.New("not found")
	// ErrNotRegistered signals a document type or Go type without a mapping.
	ErrNotRegistered = errors.New("mapping not registered")
	// ErrInvalidMapping signals an invalid mapping declaration.
	ErrInvalidMapping = errors.New("invalid mapping")
	// ErrIndexNotFound signals a missing index.
	ErrIndexNotFound = errors.New("index not found")
	// ErrInvalidRecord signals a source record that cannot become a document.
	ErrInvalidRecord = errors.New("invalid record")
)
