package person

import "context"

// Store is the read surface the engine consumes plus Put for seeding.
// Implementations return sentinel.ErrNotFound for unknown ids.
type Store interface {
	Get(ctx context.Context, id int64) (*Person, error)
	// GetMany loads a batch of persons keyed by id. Unknown ids are simply
	// absent from the result; callers decide whether that matters.
	GetMany(ctx context.Context, ids []int64) (map[int64]*Person, error)
	Put(ctx context.Context, p *Person) error
}
