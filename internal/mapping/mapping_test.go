package mapping

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-api/internal/models"
)

func TestTodoMapperMergeKeepsStoreFields(t *testing.T) {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	e := &models.Todo{
		ID:        7,
		Name:      "old",
		Username:  "user",
		Created:   created,
		CreatedBy: "seed",
		Version:   4,
	}
	m := &models.TodoViewModel{ID: 7, Name: "new", Description: "d", Username: "user", IsComplete: true}

	TodoMapper{}.ToEntity(m, e)

	assert.Equal(t, "new", e.Name)
	assert.Equal(t, "d", e.Description)
	assert.True(t, e.IsComplete)
	assert.Equal(t, created, e.Created)
	assert.Equal(t, "seed", e.CreatedBy)
	assert.Equal(t, int64(4), e.Version)
}

func TestTodoMapperToModel(t *testing.T) {
	updated := time.Now().UTC()
	m := TodoMapper{}.ToModel(&models.Todo{ID: 3, Name: "Dog", Username: "user", Updated: updated})

	require.NotNil(t, m)
	assert.Equal(t, int64(3), m.ID)
	assert.Equal(t, "Dog", m.Name)
	assert.Equal(t, updated, m.Updated)
	assert.Nil(t, TodoMapper{}.ToModel(nil))
}

func TestToModelsNeverNil(t *testing.T) {
	var mp Mapper[models.Todo, models.TodoViewModel] = TodoMapper{}

	out := ToModels(mp, nil)
	assert.NotNil(t, out)
	assert.Empty(t, out)

	out = ToModels(mp, []models.Todo{{ID: 1}, {ID: 2}})
	require.Len(t, out, 2)
	assert.Equal(t, int64(2), out[1].ID)
}
