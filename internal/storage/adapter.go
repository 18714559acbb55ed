package storage

import "context"

// Logical keys for the persisted client snapshot.
const (
	KeyCart        = "cart"
	KeyCartContext = "cart_context"
)

// Adapter is the durable key-value store the client state survives
// process restarts through. Values are serialized JSON.
type Adapter interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}
