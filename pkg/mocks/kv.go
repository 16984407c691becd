package mocks

import (
	"sync"

	"github.com/City-Bureau/showroomchat/pkg/storage"
)

// FlakyKV wraps a storage.KV and fails chosen reads or writes once
type FlakyKV struct {
	storage.KV

	mu            sync.Mutex
	failures      map[string]error
	writeFailures map[string]error
}

// NewFlakyKV wraps kv
func NewFlakyKV(kv storage.KV) *FlakyKV {
	return &FlakyKV{KV: kv, failures: map[string]error{}, writeFailures: map[string]error{}}
}

// FailNextGet makes the next Get of key return err
func (f *FlakyKV) FailNextGet(key string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[key] = err
}

// Get returns a queued failure for key, or reads through
func (f *FlakyKV) Get(key string) (string, error) {
	f.mu.Lock()
	err, ok := f.failures[key]
	delete(f.failures, key)
	f.mu.Unlock()
	if ok {
		return "", err
	}
	return f.KV.Get(key)
}

// FailNextSet makes the next Set of key return err without writing
func (f *FlakyKV) FailNextSet(key string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writeFailures[key] = err
}

// Set returns a queued failure for key, or writes through
func (f *FlakyKV) Set(key, value string) error {
	f.mu.Lock()
	err, ok := f.writeFailures[key]
	delete(f.writeFailures, key)
	f.mu.Unlock()
	if ok {
		return err
	}
	return f.KV.Set(key, value)
}
