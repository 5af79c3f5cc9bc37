package db

import (
	"errors"
	"fmt"
)

// Sentinel errors for storage operations.
var (
	ErrDocumentNotFound = errors.New("db: document not found")
	ErrIndexNotFound    = errors.New("db: index not found")
	ErrIndexExists      = errors.New("db: index already exists")
	ErrKeyNotFound      = errors.New("db: key not found")
)

// Op constants name engine and Redis operations for error context.
const (
	OpPing        = "PING"
	OpSearch      = "_search"
	OpCount       = "_count"
	OpGet         = "GET _doc"
	OpIndex       = "PUT _doc"
	OpDelete      = "DELETE _doc"
	OpBulk        = "_bulk"
	OpRefresh     = "_refresh"
	OpCreateIndex = "PUT index"
	OpDeleteIndex = "DELETE index"
	OpIndexExists = "HEAD index"
	OpPutMapping  = "PUT _mapping"
	OpGetMapping  = "GET _mapping"
	OpHSet        = "HSET"
	OpHGetAll     = "HGETALL"
	OpDel         = "DEL"
	OpScan        = "SCAN"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

// StatusError is a non-success engine response that maps to no sentinel.
type StatusError struct {
	Status int
	Type   string
	Reason string
}

func (e *StatusError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("engine status %d", e.Status)
	}
	return fmt.Sprintf("engine status %d: %s: %s", e.Status, e.Type, e.Reason)
}
