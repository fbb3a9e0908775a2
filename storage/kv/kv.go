// Package kv persists whole JSON documents under fixed keys.
package kv

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/pkg/errors"

	"github.com/shepherd-app/shepherd/core"
)

// Storage backends
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

var ErrNotFound = errors.New("key not found")

// Store reads and writes opaque documents. Set replaces the whole document.
type Store interface {
	// Get returns ErrNotFound when nothing is stored under key.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

// Load decodes the document stored under key into a T.
// def provides the value when the key is absent or its document cannot be decoded.
func Load[T any](ctx context.Context, store Store, key string, def func() T) (T, error) {
	data, err := store.Get(ctx, key)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return def(), nil
		}
		var zero T
		return zero, errors.Wrapf(err, "loading %s", key)
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return def(), nil
	}
	return v, nil
}

// Save encodes v and stores it under key.
func Save[T any](ctx context.Context, store Store, key string, v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "encoding %s", key)
	}
	if err := store.Set(ctx, key, data); err != nil {
		return errors.Wrapf(err, "saving %s", key)
	}
	return nil
}

// Open returns the Store selected by conf.Backend.
func Open(conf core.StorageConfig) (Store, error) {
	switch conf.Backend {
	case "", BackendMemory:
		return NewMemory(), nil
	case BackendFile:
		return NewFile(conf.Dir)
	case BackendRedis:
		return NewRedis(conf.RedisAddr, conf.RedisPassword, conf.RedisDB, conf.RedisPrefix)
	case BackendPostgres:
		return NewPostgres(conf.DatabaseURL)
	}
	return nil, errors.Errorf("unknown storage backend %q", conf.Backend)
}

type memory struct {
	docs  map[string][]byte
	mutex sync.RWMutex
}

// NewMemory returns a Store that forgets everything once closed.
func NewMemory() Store {
	return &memory{docs: make(map[string][]byte)}
}

func (m *memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	data, ok := m.docs[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (m *memory) Set(_ context.Context, key string, value []byte) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.docs[key] = append([]byte(nil), value...)
	return nil
}

func (m *memory) Close() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.docs = make(map[string][]byte)
	return nil
}
