package redis

import "errors"

var (
	// ErrEmptyConnectionURL is returned when no connection URL is provided.
	ErrEmptyConnectionURL = errors.New("empty redis connection URL")
	// ErrFailedToParseConnString is returned when the connection URL is malformed.
	ErrFailedToParseConnString = errors.New("failed to parse redis connection string")
	// ErrNotReady is returned when redis does not answer a ping within the
	// configured attempts.
	ErrNotReady = errors.New("redis did not become ready within the given time period")
	// ErrEmptyKey is returned when a store is created without a record key.
	ErrEmptyKey = errors.New("empty token record key")
)
