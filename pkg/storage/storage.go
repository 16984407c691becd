// Package storage provides the key-value persistence area shared by the chat
// widget and the admin panel. It plays the part the browser's local storage
// plays on the showroom site: synchronous reads and whole-value writes, scoped
// to one installation.
package storage

import "errors"

// ErrNotFound is returned by Get when a key has never been set
var ErrNotFound = errors.New("storage: key not found")

// KV is a synchronous string key-value area. Set fully replaces any previous
// value stored under the key.
type KV interface {
	Get(key string) (string, error)
	Set(key, value string) error
}
