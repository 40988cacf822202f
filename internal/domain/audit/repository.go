package audit

import "context"

// Repository records administrative actions. Writes are best-effort:
// an audit failure must never block the primary operation.
type Repository interface {
	Insert(ctx context.Context, entry *Entry) error
}
