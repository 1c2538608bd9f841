// Package kvstore provides namespaced key-value persistence for per-session
// state. Values are opaque bytes; callers own the encoding.
package kvstore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

var (
	// ErrNotFound is returned by Get when nothing is stored under the key
	ErrNotFound = errors.New("kvstore: key not found")
	// ErrInvalidName is returned for namespaces or keys that are not safe identifiers
	ErrInvalidName = errors.New("kvstore: invalid namespace or key")
)

var nameRegex = regexp.MustCompile(`^[A-Za-z0-9_:\-]{1,128}$`)

// Store is a key-value store partitioned by namespace (one per session)
type Store interface {
	Get(ctx context.Context, namespace, key string) ([]byte, error)
	Set(ctx context.Context, namespace, key string, value []byte) error
	Delete(ctx context.Context, namespace, key string) error
	Ping(ctx context.Context) error
	Close() error
}

func validateNames(namespace, key string) error {
	if !nameRegex.MatchString(namespace) {
		return fmt.Errorf("%w: namespace %q", ErrInvalidName, namespace)
	}
	if !nameRegex.MatchString(key) {
		return fmt.Errorf("%w: key %q", ErrInvalidName, key)
	}
	return nil
}

// Bucket is a Store view fixed to one namespace
type Bucket struct {
	store     Store
	namespace string
}

// Scoped returns the namespace's view of store
func Scoped(store Store, namespace string) *Bucket {
	return &Bucket{store: store, namespace: namespace}
}

func (b *Bucket) Get(ctx context.Context, key string) ([]byte, error) {
	return b.store.Get(ctx, b.namespace, key)
}

func (b *Bucket) Set(ctx context.Context, key string, value []byte) error {
	return b.store.Set(ctx, b.namespace, key, value)
}

func (b *Bucket) Delete(ctx context.Context, key string) error {
	return b.store.Delete(ctx, b.namespace, key)
}

// Namespace returns the namespace the bucket is bound to
func (b *Bucket) Namespace() string {
	return b.namespace
}
