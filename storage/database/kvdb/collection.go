package kvdb

import (
	"context"

	"github.com/shepherd-app/shepherd/core"
	"github.com/shepherd-app/shepherd/storage/kv"
)

// collection is a JSON array of T stored under one key and rewritten as a whole on every mutation.
// Callers hold the DB mutex.
type collection[T any] struct {
	key   string
	store kv.Store
	def   func() []T
	id    func(*T) *string
}

func (c collection[T]) all(ctx context.Context) ([]T, error) {
	recs, err := kv.Load(ctx, c.store, c.key, c.def)
	if err != nil {
		return nil, err
	}
	if recs == nil {
		recs = []T{}
	}
	return recs, nil
}

func (c collection[T]) save(ctx context.Context, recs []T) error {
	return kv.Save(ctx, c.store, c.key, recs)
}

func (c collection[T]) find(ctx context.Context, pred func(T) bool) ([]T, error) {
	recs, err := c.all(ctx)
	if err != nil {
		return nil, err
	}
	found := make([]T, 0)
	for _, rec := range recs {
		if pred == nil || pred(rec) {
			found = append(found, rec)
		}
	}
	return found, nil
}

// first returns the first record matching pred, or notFound.
func (c collection[T]) first(ctx context.Context, pred func(T) bool, notFound error) (T, error) {
	recs, err := c.all(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	for _, rec := range recs {
		if pred(rec) {
			return rec, nil
		}
	}
	var zero T
	return zero, notFound
}

func (c collection[T]) get(ctx context.Context, id string, notFound error) (T, error) {
	return c.first(ctx, func(rec T) bool { return *c.id(&rec) == id }, notFound)
}

// create assigns a fresh id to rec and appends it.
func (c collection[T]) create(ctx context.Context, rec T) (T, error) {
	recs, err := c.all(ctx)
	if err != nil {
		return rec, err
	}
	*c.id(&rec) = core.NewID()
	if err := c.save(ctx, append(recs, rec)); err != nil {
		return rec, err
	}
	return rec, nil
}

// update replaces the record with the same id as rec, or returns notFound.
func (c collection[T]) update(ctx context.Context, rec T, notFound error) (T, error) {
	recs, err := c.all(ctx)
	if err != nil {
		return rec, err
	}
	id := *c.id(&rec)
	for i := range recs {
		if *c.id(&recs[i]) == id {
			recs[i] = rec
			return rec, c.save(ctx, recs)
		}
	}
	return rec, notFound
}
