// Package mapping converts between persisted entities and their transport view models.
package mapping

import "todo-api/internal/models"

// Mapper converts between an entity E and its view model M.
// ToEntity merges the model onto an existing entity so store-owned fields survive.
type Mapper[E any, M any] interface {
	ToEntity(m *M, e *E)
	ToModel(e *E) *M
}

// TodoMapper maps models.Todo <-> models.TodoViewModel.
type TodoMapper struct{}

// ToEntity copies client-writable fields. Created, audit tags and the concurrency token
// stay as loaded; Updated is assigned by the store.
func (TodoMapper) ToEntity(m *models.TodoViewModel, e *models.Todo) {
	e.ID = m.ID
	e.Name = m.Name
	e.Description = m.Description
	e.Username = m.Username
	e.IsComplete = m.IsComplete
}

func (TodoMapper) ToModel(e *models.Todo) *models.TodoViewModel {
	if e == nil {
		return nil
	}
	return &models.TodoViewModel{
		ID:          e.ID,
		Name:        e.Name,
		Description: e.Description,
		Username:    e.Username,
		IsComplete:  e.IsComplete,
		Updated:     e.Updated,
	}
}

// ToModels maps a slice of entities, never returning nil.
func ToModels[E any, M any](mp Mapper[E, M], list []E) []M {
	out := make([]M, 0, len(list))
	for i := range list {
		out = append(out, *mp.ToModel(&list[i]))
	}
	return out
}
