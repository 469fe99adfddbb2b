// Package behaviour orchestrates repositories, mapping and identity for the controllers.
package behaviour

import (
	"context"
	"slices"
	"strconv"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"todo-api/internal/mapping"
	"todo-api/internal/models"
	"todo-api/internal/repository"
	"todo-api/pkg/logger"
)

// TodoRepository is the repository the todo behaviour works against.
type TodoRepository = repository.Repository[models.Todo, *models.Todo]

// TodoBehaviour implements the todo use cases.
type TodoBehaviour struct {
	repo   *TodoRepository
	mapper mapping.TodoMapper
	group  singleflight.Group
	// writes counts committed todo writes and is part of the list key, so a read issued
	// after a write never joins a query that started before it.
	writes atomic.Uint64
}

// NewTodoBehaviour returns a TodoBehaviour over repo.
func NewTodoBehaviour(repo *TodoRepository) *TodoBehaviour {
	return &TodoBehaviour{repo: repo}
}

// Repository returns the underlying repository.
func (b *TodoBehaviour) Repository() *TodoRepository {
	return b.repo
}

func (b *TodoBehaviour) GetAllTodos(ctx context.Context) ([]models.TodoViewModel, error) {
	list, err := b.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return mapping.ToModels(b.mapper, list), nil
}

func (b *TodoBehaviour) GetTodo(ctx context.Context, id int64) (*models.TodoViewModel, error) {
	e, err := b.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return b.mapper.ToModel(e), nil
}

func (b *TodoBehaviour) listKey(username string) string {
	return strconv.FormatUint(b.writes.Load(), 10) + ":" + username
}

// GetTodosByUsername lists the todos owned by username. Identical concurrent reads with
// no write between them share one query; the query is detached from the caller's
// cancellation so one client going away does not fail the others.
func (b *TodoBehaviour) GetTodosByUsername(ctx context.Context, username string) ([]models.TodoViewModel, error) {
	v, err, shared := b.group.Do(b.listKey(username), func() (interface{}, error) {
		list, err := b.repo.List(context.WithoutCancel(ctx), ownedBy(username), false)
		if err != nil {
			return nil, err
		}
		return mapping.ToModels(b.mapper, list), nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		logger.Debug(ctx, "Todo list query shared", "username", username)
	}
	return slices.Clone(v.([]models.TodoViewModel)), nil
}

// AddTodo inserts m unless its owner already has a todo with the same name.
func (b *TodoBehaviour) AddTodo(ctx context.Context, m *models.TodoViewModel) (*models.TodoViewModel, error) {
	guard := repository.Where("username = ? AND name = ?", m.Username, m.Name)
	out, err := repository.AddFromModel(ctx, b.repo, m, b.mapper, guard)
	if err != nil {
		return nil, err
	}
	b.writes.Add(1)
	return out, nil
}

// UpdateTodo applies m to the todo with the given id. A zero model id takes the route id.
func (b *TodoBehaviour) UpdateTodo(ctx context.Context, m *models.TodoViewModel, id int64) (*models.TodoViewModel, error) {
	if m.ID == 0 {
		m.ID = id
	}
	out, err := repository.UpdateFromModel(ctx, b.repo, m, id, b.mapper)
	if err != nil {
		return nil, err
	}
	b.writes.Add(1)
	return out, nil
}

// DeleteTodo reports false when no todo had the given id.
func (b *TodoBehaviour) DeleteTodo(ctx context.Context, id int64) (bool, error) {
	ok, err := b.repo.DeleteFrom(ctx, id)
	if ok {
		b.writes.Add(1)
	}
	return ok, err
}

func ownedBy(username string) repository.Predicate {
	return repository.Where("username = ?", username)
}
