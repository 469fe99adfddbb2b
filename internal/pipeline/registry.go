package pipeline

import (
	"context"

	"todo-api/internal/repository"
)

// Lookup loads an entity by id, returning repository.ErrNotFound when it is absent.
type Lookup func(ctx context.Context, id int64) (any, error)

// Registry maps entity names to their lookups. It is filled once at startup and only
// read while serving.
type Registry struct {
	lookups map[string]Lookup
}

func NewRegistry() *Registry {
	return &Registry{lookups: make(map[string]Lookup)}
}

// Register adds or replaces the lookup for name.
func (r *Registry) Register(name string, l Lookup) *Registry {
	r.lookups[name] = l
	return r
}

func (r *Registry) Lookup(name string) (Lookup, bool) {
	l, ok := r.lookups[name]
	return l, ok
}

// Names lists the registered entity names.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.lookups))
	for name := range r.lookups {
		out = append(out, name)
	}
	return out
}

// RepositoryLookup adapts a repository's Get to a Lookup.
func RepositoryLookup[E any, PE interface {
	*E
	repository.Entity
}](repo *repository.Repository[E, PE]) Lookup {
	return func(ctx context.Context, id int64) (any, error) {
		e, err := repo.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		return e, nil
	}
}
