package repository

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"todo-api/internal/mapping"
	"todo-api/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Discard,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&models.Todo{}))
	return db
}

func newTodoRepo(t *testing.T) *Repository[models.Todo, *models.Todo] {
	return New[models.Todo](newTestDB(t))
}

func seedTodos(t *testing.T, r *Repository[models.Todo, *models.Todo], todos ...models.Todo) []models.Todo {
	t.Helper()
	ctx := context.Background()
	for i := range todos {
		require.NoError(t, r.Add(ctx, &todos[i], nil))
	}
	return todos
}

func byUsername(name string) Predicate {
	return Where("username = ?", name)
}

func TestAddPopulatesGeneratedFields(t *testing.T) {
	r := newTodoRepo(t)
	todo := &models.Todo{Name: "Dog", Description: "Take the dog for a walk", Username: "user"}

	require.NoError(t, r.Add(context.Background(), todo, nil))

	assert.NotZero(t, todo.ID)
	assert.False(t, todo.Created.IsZero())
	assert.Equal(t, models.SystemTag, todo.CreatedBy)
	assert.Equal(t, int64(1), todo.Version)
}

func TestAddWithExistenceGuardInsertsOnce(t *testing.T) {
	r := newTodoRepo(t)
	ctx := context.Background()
	guard := Where("username = ? AND name = ?", "user", "Dog")

	require.NoError(t, r.Add(ctx, &models.Todo{Name: "Dog", Username: "user"}, guard))
	err := r.Add(ctx, &models.Todo{Name: "Dog", Username: "user"}, guard)

	assert.ErrorIs(t, err, ErrDuplicate)
	n, err := r.Count(ctx, guard)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestGetAndGetWhere(t *testing.T) {
	r := newTodoRepo(t)
	ctx := context.Background()
	todos := seedTodos(t, r,
		models.Todo{Name: "Dog", Username: "user"},
		models.Todo{Name: "Boiler", Username: "other"},
	)

	got, err := r.Get(ctx, todos[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "Boiler", got.Name)

	got, err = r.GetWhere(ctx, byUsername("user"), false)
	require.NoError(t, err)
	assert.Equal(t, todos[0].ID, got.ID)

	_, err = r.Get(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = r.GetWhere(ctx, byUsername("nobody"), false)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListFiltersAndNeverReturnsNil(t *testing.T) {
	r := newTodoRepo(t)
	ctx := context.Background()

	all, err := r.ListAll(ctx)
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)

	seedTodos(t, r,
		models.Todo{Name: "Dog", Username: "user"},
		models.Todo{Name: "Rubbish", Username: "user"},
		models.Todo{Name: "Boiler", Username: "other"},
	)

	list, err := r.List(ctx, byUsername("user"), false)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	all, err = r.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestUpdateThenGetReturnsWrittenFields(t *testing.T) {
	r := newTodoRepo(t)
	ctx := context.Background()
	todo := &seedTodos(t, r, models.Todo{Name: "Dog", Username: "user"})[0]
	created, updated := todo.Created, todo.Updated

	todo.Name = "Cat"
	todo.Description = "Feed the cat"
	todo.IsComplete = true
	require.NoError(t, r.Update(ctx, todo))

	got, err := r.Get(ctx, todo.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cat", got.Name)
	assert.Equal(t, "Feed the cat", got.Description)
	assert.True(t, got.IsComplete)
	assert.Equal(t, int64(2), got.Version)
	assert.True(t, got.Created.Equal(created))
	assert.False(t, got.Updated.Before(updated))
}

func TestUpdateStaleVersionConflicts(t *testing.T) {
	r := newTodoRepo(t)
	ctx := context.Background()
	id := seedTodos(t, r, models.Todo{Name: "Dog", Username: "user"})[0].ID

	first, err := r.Get(ctx, id)
	require.NoError(t, err)
	second, err := r.Get(ctx, id)
	require.NoError(t, err)

	first.Name = "first"
	require.NoError(t, r.Update(ctx, first))

	second.Name = "second"
	err = r.Update(ctx, second)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, int64(1), second.Version)

	got, err := r.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "first", got.Name)
}

func TestUpdateMissingRowIsNotFound(t *testing.T) {
	r := newTodoRepo(t)

	err := r.Update(context.Background(), &models.Todo{ID: 42, Name: "ghost", Username: "user", Version: 1})

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAddFromModel(t *testing.T) {
	r := newTodoRepo(t)
	ctx := context.Background()
	mp := mapping.TodoMapper{}
	guard := Where("username = ? AND name = ?", "user", "Alarm clock")

	m, err := AddFromModel(ctx, r, &models.TodoViewModel{ID: 77, Name: "Alarm clock", Username: "user"}, mp, guard)
	require.NoError(t, err)
	assert.NotZero(t, m.ID)
	assert.NotEqual(t, int64(77), m.ID)

	_, err = AddFromModel(ctx, r, &models.TodoViewModel{Name: "Alarm clock", Username: "user"}, mp, guard)
	assert.ErrorIs(t, err, ErrDuplicate)

	n, err := r.Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestUpdateFromModelMergesOntoLoadedEntity(t *testing.T) {
	r := newTodoRepo(t)
	ctx := context.Background()
	orig := seedTodos(t, r, models.Todo{Name: "Dog", Username: "user", CreatedBy: "seed"})[0]

	m, err := UpdateFromModel(ctx, r, &models.TodoViewModel{Name: "X", Username: "user", IsComplete: true}, orig.ID, mapping.TodoMapper{})
	require.NoError(t, err)
	assert.Equal(t, orig.ID, m.ID)
	assert.Equal(t, "X", m.Name)
	assert.True(t, m.IsComplete)

	got, err := r.Get(ctx, orig.ID)
	require.NoError(t, err)
	assert.Equal(t, "seed", got.CreatedBy)
	assert.Equal(t, int64(2), got.Version)
}

func TestUpdateFromModelMissingIDCreatesNothing(t *testing.T) {
	r := newTodoRepo(t)
	ctx := context.Background()

	m, err := UpdateFromModel(ctx, r, &models.TodoViewModel{Name: "X", Username: "user"}, 5, mapping.TodoMapper{})

	assert.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, m)
	n, err := r.Count(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDeleteVariants(t *testing.T) {
	r := newTodoRepo(t)
	ctx := context.Background()
	todos := seedTodos(t, r,
		models.Todo{Name: "Dog", Username: "user"},
		models.Todo{Name: "Rubbish", Username: "user"},
		models.Todo{Name: "Boiler", Username: "other"},
		models.Todo{Name: "Shopping list", Username: "other"},
	)

	ok, err := r.DeleteFrom(ctx, todos[0].ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.DeleteFrom(ctx, todos[0].ID)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = r.Delete(ctx, byUsername("user"))
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = r.Delete(ctx, byUsername("user"))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = r.DeleteList(ctx, byUsername("other"))
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = r.DeleteList(ctx, byUsername("other"))
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = r.DeleteList(ctx, nil)
	assert.ErrorIs(t, err, gorm.ErrMissingWhereClause)
}

func TestWithTxRollsBack(t *testing.T) {
	r := newTodoRepo(t)
	ctx := context.Background()

	err := r.DB().Transaction(func(tx *gorm.DB) error {
		txRepo := r.WithTx(tx)
		require.NoError(t, txRepo.Add(ctx, &models.Todo{Name: "Dog", Username: "user"}, nil))
		_, err := txRepo.List(ctx, byUsername("user"), true)
		require.NoError(t, err)
		return ErrConflict
	})
	assert.ErrorIs(t, err, ErrConflict)

	n, err := r.Count(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}
