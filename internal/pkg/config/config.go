package config

import (
	"io"
	"time"
)

// Config is the read side of the application configuration.
//
// Missing keys yield zero values; callers apply their own defaults.
type Config interface {
	io.Closer

	GetString(key string) string
	GetBool(key string) bool
	GetInt(key string) int
	GetInt64(key string) int64
	GetFloat64(key string) float64

	// GetSecond reads an integer number of seconds.
	GetSecond(key string) time.Duration

	// GetBinary reads a base64 encoded value. Invalid base64 yields nil.
	GetBinary(key string) []byte

	// GetArray reads a comma separated list, e.g. "a,b,c".
	GetArray(key string) []string
}
