package driver

import (
	"errors"
	"time"
)

// ErrKeyNotFound returned by Get when the key has no value
var ErrKeyNotFound = errors.New("key not found")

// KeyValueDB define a key-value storage interface
type KeyValueDB interface {
	Set(key string, value string) error
	SetEX(key string, value string, expiration time.Duration) error
	Get(key string) (string, error)
	Exists(key string) (bool, error)
	Ping() error
}
