package repository

import (
	"context"
	"fmt"
	"sync"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

// Entity is any persisted type carrying an integer identity.
type Entity interface {
	Identity() int64
}

type validatable interface {
	Validate() error
}

// Page is one slice of a paged query. PageNumber is 1-based.
type Page[T any] struct {
	Items      []*T  `json:"items"`
	TotalCount int64 `json:"total_count"`
	PageNumber int   `json:"page_number"`
	PageSize   int   `json:"page_size"`
}

// Store is the contract shared by every entity repository.
type Store[T Entity] interface {
	GetByID(ctx context.Context, id int64) (*T, error)
	GetAll(ctx context.Context) ([]*T, error)
	GetPaged(ctx context.Context, pageNumber, pageSize int) (*Page[T], error)
	FindPaged(ctx context.Context, p Predicate, pageNumber, pageSize int) (*Page[T], error)
	Find(ctx context.Context, p Predicate) ([]*T, error)
	Add(ctx context.Context, entity *T) (*T, error)
	AddRange(ctx context.Context, entities []*T) error
	Update(ctx context.Context, entity *T) error
	Delete(ctx context.Context, entity *T) error
	DeleteRange(ctx context.Context, entities []*T) error
	Count(ctx context.Context, p ...Predicate) (int64, error)
	Any(ctx context.Context, p Predicate) (bool, error)
	DeleteAll(ctx context.Context) error
}

const insertBatchSize = 100

type Option[T Entity] func(*Repository[T])

// WithDeleteRules attaches the referential policy applied whenever rows of T are deleted.
func WithDeleteRules[T Entity](rules ...DeleteRule) Option[T] {
	return func(r *Repository[T]) {
		r.rules = append(r.rules, rules...)
	}
}

// Repository implements Store on top of gorm.
type Repository[T Entity] struct {
	db    *gorm.DB
	rules []DeleteRule

	once      sync.Once
	schema    *schema.Schema
	schemaErr error
}

var schemaCache sync.Map

func New[T Entity](db *gorm.DB, opts ...Option[T]) *Repository[T] {
	r := &Repository[T]{db: db}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Repository[T]) entitySchema() (*schema.Schema, error) {
	r.once.Do(func() {
		r.schema, r.schemaErr = schema.Parse(new(T), &schemaCache, r.db.NamingStrategy)
	})
	return r.schema, r.schemaErr
}

func (r *Repository[T]) name() string {
	if s, err := r.entitySchema(); err == nil {
		return s.Table
	}
	return fmt.Sprintf("%T", *new(T))
}

func (r *Repository[T]) primaryKey() string {
	if s, err := r.entitySchema(); err == nil && s.PrioritizedPrimaryField != nil {
		return s.PrioritizedPrimaryField.DBName
	}
	return "id"
}

// query returns a session over T filtered by p.
func (r *Repository[T]) query(ctx context.Context, db *gorm.DB, p Predicate) (*gorm.DB, error) {
	s, err := r.entitySchema()
	if err != nil {
		return nil, err
	}
	expr, err := p.expression(s)
	if err != nil {
		return nil, err
	}
	q := db.WithContext(ctx).Model(new(T))
	if expr != nil {
		q = q.Clauses(clause.Where{Exprs: []clause.Expression{expr}})
	}
	return q, nil
}

func (r *Repository[T]) GetByID(ctx context.Context, id int64) (*T, error) {
	var entity T
	err := r.db.WithContext(ctx).Where(clause.Eq{Column: clause.Column{Name: r.primaryKey()}, Value: id}).First(&entity).Error
	if err != nil {
		return nil, translate(r.name(), err)
	}
	return &entity, nil
}

// GetAll performs an unbounded scan; callers bound its use.
func (r *Repository[T]) GetAll(ctx context.Context) ([]*T, error) {
	return r.Find(ctx, Predicate{})
}

func (r *Repository[T]) GetPaged(ctx context.Context, pageNumber, pageSize int) (*Page[T], error) {
	return r.FindPaged(ctx, Predicate{}, pageNumber, pageSize)
}

func (r *Repository[T]) FindPaged(ctx context.Context, p Predicate, pageNumber, pageSize int) (*Page[T], error) {
	if pageSize <= 0 {
		return nil, fmt.Errorf("%w: page size must be positive, got %d", ErrInvalidArgument, pageSize)
	}
	if pageNumber < 1 {
		return nil, fmt.Errorf("%w: page number must be at least 1, got %d", ErrInvalidArgument, pageNumber)
	}

	total, err := r.Count(ctx, p)
	if err != nil {
		return nil, err
	}

	page := &Page[T]{
		Items:      []*T{},
		TotalCount: total,
		PageNumber: pageNumber,
		PageSize:   pageSize,
	}

	offset := int64(pageNumber-1) * int64(pageSize)
	if offset >= total {
		return page, nil
	}

	q, err := r.query(ctx, r.db, p)
	if err != nil {
		return nil, err
	}
	err = q.Order(clause.OrderByColumn{Column: clause.Column{Table: clause.CurrentTable, Name: r.primaryKey()}}).
		Offset(int(offset)).
		Limit(pageSize).
		Find(&page.Items).Error
	if err != nil {
		return nil, translate(r.name(), err)
	}
	return page, nil
}

func (r *Repository[T]) Find(ctx context.Context, p Predicate) ([]*T, error) {
	q, err := r.query(ctx, r.db, p)
	if err != nil {
		return nil, err
	}
	items := []*T{}
	if err := q.Find(&items).Error; err != nil {
		return nil, translate(r.name(), err)
	}
	return items, nil
}

// Add persists entity, assigning its identity and timestamps.
func (r *Repository[T]) Add(ctx context.Context, entity *T) (*T, error) {
	if err := validate(entity); err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(entity).Error; err != nil {
		return nil, translate(r.name(), err)
	}
	return entity, nil
}

// AddRange inserts all entities or none of them.
func (r *Repository[T]) AddRange(ctx context.Context, entities []*T) error {
	if len(entities) == 0 {
		return nil
	}
	for i, entity := range entities {
		if err := validate(entity); err != nil {
			return fmt.Errorf("entity %d: %w", i, err)
		}
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Omit(clause.Associations).CreateInBatches(entities, insertBatchSize).Error
	})
	return translate(r.name(), err)
}

// Update replaces the mutable fields of an existing row and refreshes UpdatedAt.
func (r *Repository[T]) Update(ctx context.Context, entity *T) error {
	id := (*entity).Identity()
	if id == 0 {
		return fmt.Errorf("%s: %w", r.name(), ErrNotFound)
	}
	if err := validate(entity); err != nil {
		return err
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.mustExist(ctx, tx, id); err != nil {
			return err
		}
		return tx.Model(entity).
			Select("*").
			Omit("CreatedAt", clause.Associations).
			Updates(entity).Error
	})
	return translate(r.name(), err)
}

// Delete removes one existing row, applying the referential policy first.
func (r *Repository[T]) Delete(ctx context.Context, entity *T) error {
	id := (*entity).Identity()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.mustExist(ctx, tx, id); err != nil {
			return err
		}
		return r.deleteIDs(tx, []int64{id})
	})
	return translate(r.name(), err)
}

// DeleteRange removes the given rows; ids already absent are ignored.
func (r *Repository[T]) DeleteRange(ctx context.Context, entities []*T) error {
	ids := make([]int64, 0, len(entities))
	for _, entity := range entities {
		if id := (*entity).Identity(); id != 0 {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return r.deleteIDs(tx, ids)
	})
	return translate(r.name(), err)
}

func (r *Repository[T]) Count(ctx context.Context, p ...Predicate) (int64, error) {
	q, err := r.query(ctx, r.db, And(p...))
	if err != nil {
		return 0, err
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, translate(r.name(), err)
	}
	return total, nil
}

func (r *Repository[T]) Any(ctx context.Context, p Predicate) (bool, error) {
	q, err := r.query(ctx, r.db, p)
	if err != nil {
		return false, err
	}
	var found []int64
	if err := q.Limit(1).Pluck(r.primaryKey(), &found).Error; err != nil {
		return false, translate(r.name(), err)
	}
	return len(found) > 0, nil
}

// DeleteAll clears the table. Reserved for maintenance and seeding.
func (r *Repository[T]) DeleteAll(ctx context.Context) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, rule := range r.rules {
			if err := rule.apply(tx, nil); err != nil {
				return err
			}
		}
		return tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(new(T)).Error
	})
	return translate(r.name(), err)
}

func (r *Repository[T]) mustExist(ctx context.Context, tx *gorm.DB, id int64) error {
	var count int64
	err := tx.WithContext(ctx).Model(new(T)).
		Where(clause.Eq{Column: clause.Column{Name: r.primaryKey()}, Value: id}).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository[T]) deleteIDs(tx *gorm.DB, ids []int64) error {
	for _, rule := range r.rules {
		if err := rule.apply(tx, ids); err != nil {
			return err
		}
	}
	values := make([]any, len(ids))
	for i, id := range ids {
		values[i] = id
	}
	return tx.Where(clause.IN{Column: clause.Column{Name: r.primaryKey()}, Values: values}).Delete(new(T)).Error
}

func validate(entity any) error {
	if v, ok := entity.(validatable); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
		}
	}
	return nil
}
