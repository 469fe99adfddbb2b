package repository

import (
	"context"
	"errors"

	"todo-api/internal/mapping"
	"todo-api/pkg/logger"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrNotFound is returned when no row matches an id or predicate.
	ErrNotFound = errors.New("entity not found")
	// ErrDuplicate is returned by the add variants when the existence guard matches.
	ErrDuplicate = errors.New("entity already exists")
	// ErrConflict is returned when the stored concurrency token no longer matches the baseline.
	ErrConflict = errors.New("entity was modified concurrently")
)

// versionColumn stores the optimistic-concurrency token of Versioned entities.
const versionColumn = "version"

// createdFields are never overwritten by an update.
var createdFields = []string{"Created", "CreatedBy", "CreatedAt"}

// Entity is a row keyed by a numeric id.
type Entity interface {
	GetID() int64
	SetID(id int64)
}

// Versioned entities carry a concurrency token bumped on every update.
type Versioned interface {
	ConcurrencyToken() int64
	SetConcurrencyToken(v int64)
}

// Predicate narrows a query. A nil predicate matches every row.
type Predicate func(*gorm.DB) *gorm.DB

// Where builds a Predicate from a GORM condition.
func Where(query interface{}, args ...interface{}) Predicate {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(query, args...)
	}
}

// Repository provides CRUD over entities of type E.
type Repository[E any, PE interface {
	*E
	Entity
}] struct {
	db   *gorm.DB
	inTx bool
}

// New returns a repository for E backed by db.
func New[E any, PE interface {
	*E
	Entity
}](db *gorm.DB) *Repository[E, PE] {
	return &Repository[E, PE]{db: db}
}

// WithTx returns a repository bound to an open transaction.
func (r *Repository[E, PE]) WithTx(tx *gorm.DB) *Repository[E, PE] {
	return &Repository[E, PE]{db: tx, inTx: true}
}

// DB exposes the underlying handle, e.g. to start a transaction spanning several repositories.
func (r *Repository[E, PE]) DB() *gorm.DB {
	return r.db
}

func (r *Repository[E, PE]) query(ctx context.Context, pred Predicate) *gorm.DB {
	q := r.db.WithContext(ctx).Model(new(E))
	if pred != nil {
		q = q.Scopes(pred)
	}
	return q
}

// lock adds FOR UPDATE when tracking inside a transaction. Outside one the lock would be
// released immediately, so it is skipped.
func (r *Repository[E, PE]) lock(q *gorm.DB, tracking bool) *gorm.DB {
	if tracking && r.inTx {
		return q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return q
}

// transaction runs fn against a transaction-bound repository, reusing the current one if any.
func (r *Repository[E, PE]) transaction(ctx context.Context, fn func(tx *Repository[E, PE]) error) error {
	if r.inTx {
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTx(tx))
	})
}

// Count returns the number of rows matching pred.
func (r *Repository[E, PE]) Count(ctx context.Context, pred Predicate) (int64, error) {
	var n int64
	if err := r.query(ctx, pred).Count(&n).Error; err != nil {
		logger.Error(ctx, "Repository Count failed", "error", err)
		return 0, err
	}
	return n, nil
}

// ListAll returns every row.
func (r *Repository[E, PE]) ListAll(ctx context.Context) ([]E, error) {
	return r.List(ctx, nil, false)
}

// List returns rows matching pred. With tracking set inside a transaction the rows are
// locked until it ends.
func (r *Repository[E, PE]) List(ctx context.Context, pred Predicate, tracking bool) ([]E, error) {
	out := []E{}
	if err := r.lock(r.query(ctx, pred), tracking).Find(&out).Error; err != nil {
		logger.Error(ctx, "Repository List failed", "error", err)
		return nil, err
	}
	if out == nil {
		out = []E{}
	}
	return out, nil
}

// Get returns the row with the given id.
func (r *Repository[E, PE]) Get(ctx context.Context, id int64) (*E, error) {
	e := new(E)
	err := r.db.WithContext(ctx).First(e, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		logger.Error(ctx, "Repository Get failed", "error", err, "id", id)
		return nil, err
	}
	return e, nil
}

// GetWhere returns the first row matching pred.
func (r *Repository[E, PE]) GetWhere(ctx context.Context, pred Predicate, tracking bool) (*E, error) {
	e := new(E)
	err := r.lock(r.query(ctx, pred), tracking).First(e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		logger.Error(ctx, "Repository GetWhere failed", "error", err)
		return nil, err
	}
	return e, nil
}

func (r *Repository[E, PE]) exists(ctx context.Context, pred Predicate) (bool, error) {
	if pred == nil {
		return false, nil
	}
	n, err := r.Count(ctx, pred)
	return n > 0, err
}

// Add inserts e. When exists matches a row, nothing is inserted and ErrDuplicate is
// returned. Generated id and timestamps are written back to e.
func (r *Repository[E, PE]) Add(ctx context.Context, e PE, exists Predicate) error {
	dup, err := r.exists(ctx, exists)
	if err != nil {
		return err
	}
	if dup {
		return ErrDuplicate
	}
	return r.insert(ctx, e)
}

func (r *Repository[E, PE]) insert(ctx context.Context, e PE) error {
	err := r.db.WithContext(ctx).Create(e).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	if err != nil {
		logger.Error(ctx, "Repository Add failed", "error", err)
		return err
	}
	return nil
}

// Update overwrites every persisted column of e except the creation fields, then reloads
// e so store-assigned values are visible. Versioned entities only match their current
// token and fail with ErrConflict otherwise.
func (r *Repository[E, PE]) Update(ctx context.Context, e PE) error {
	if err := r.save(ctx, e); err != nil {
		return err
	}
	return r.reload(ctx, e)
}

func (r *Repository[E, PE]) save(ctx context.Context, e PE) error {
	q := r.db.WithContext(ctx).Model(e).Select("*").Omit(createdFields...)

	v, versioned := any(e).(Versioned)
	var baseline int64
	if versioned {
		baseline = v.ConcurrencyToken()
		v.SetConcurrencyToken(baseline + 1)
		q = q.Where(versionColumn+" = ?", baseline)
	}

	res := q.Updates(e)
	if res.Error == nil && res.RowsAffected > 0 {
		return nil
	}
	if versioned {
		v.SetConcurrencyToken(baseline)
	}
	if res.Error != nil {
		logger.Error(ctx, "Repository Update failed", "error", res.Error, "id", e.GetID())
		return res.Error
	}

	n, err := r.Count(ctx, Where("id = ?", e.GetID()))
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	logger.Warn(ctx, "Repository Update conflict", "id", e.GetID(), "baseline", baseline)
	return ErrConflict
}

func (r *Repository[E, PE]) reload(ctx context.Context, e PE) error {
	err := r.db.WithContext(ctx).First(e, e.GetID()).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// DeleteList removes every row matching pred. It reports false when nothing matched.
func (r *Repository[E, PE]) DeleteList(ctx context.Context, pred Predicate) (bool, error) {
	if pred == nil {
		return false, gorm.ErrMissingWhereClause
	}
	res := r.db.WithContext(ctx).Scopes(pred).Delete(new(E))
	if res.Error != nil {
		logger.Error(ctx, "Repository DeleteList failed", "error", res.Error)
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Delete removes the first row matching pred.
func (r *Repository[E, PE]) Delete(ctx context.Context, pred Predicate) (bool, error) {
	e, err := r.GetWhere(ctx, pred, false)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return r.deleteByID(ctx, PE(e).GetID())
}

// DeleteFrom removes the row with the given id inside a transaction.
func (r *Repository[E, PE]) DeleteFrom(ctx context.Context, id int64) (bool, error) {
	var deleted bool
	err := r.transaction(ctx, func(tx *Repository[E, PE]) error {
		var err error
		deleted, err = tx.deleteByID(ctx, id)
		return err
	})
	return deleted, err
}

func (r *Repository[E, PE]) deleteByID(ctx context.Context, id int64) (bool, error) {
	res := r.db.WithContext(ctx).Delete(new(E), id)
	if res.Error != nil {
		logger.Error(ctx, "Repository Delete failed", "error", res.Error, "id", id)
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// AddFromModel maps m onto a new entity and inserts it in a transaction. The existence
// guard runs first; on a match no transaction is opened and ErrDuplicate is returned.
func AddFromModel[E any, PE interface {
	*E
	Entity
}, M any](ctx context.Context, r *Repository[E, PE], m *M, mp mapping.Mapper[E, M], exists Predicate) (*M, error) {
	dup, err := r.exists(ctx, exists)
	if err != nil {
		return nil, err
	}
	if dup {
		return nil, ErrDuplicate
	}

	e := new(E)
	mp.ToEntity(m, e)
	PE(e).SetID(0)
	err = r.transaction(ctx, func(tx *Repository[E, PE]) error {
		return tx.insert(ctx, PE(e))
	})
	if err != nil {
		return nil, err
	}
	return mp.ToModel(e), nil
}

// UpdateFromModel loads the row with the given id, merges m onto it and saves it in a
// transaction. The freshly loaded concurrency token is the baseline, so only a writer
// that commits between the load and the save causes ErrConflict. A missing row yields
// ErrNotFound and nothing is created.
func UpdateFromModel[E any, PE interface {
	*E
	Entity
}, M any](ctx context.Context, r *Repository[E, PE], m *M, id int64, mp mapping.Mapper[E, M]) (*M, error) {
	var e *E
	err := r.transaction(ctx, func(tx *Repository[E, PE]) error {
		var err error
		if e, err = tx.Get(ctx, id); err != nil {
			return err
		}
		mp.ToEntity(m, e)
		PE(e).SetID(id)
		return tx.save(ctx, PE(e))
	})
	if err != nil {
		return nil, err
	}
	if err := r.reload(ctx, PE(e)); err != nil {
		return nil, err
	}
	return mp.ToModel(e), nil
}
