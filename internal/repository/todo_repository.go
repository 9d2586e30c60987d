package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/pray3m/hyteno-fullstack-todo/internal/model"
	"github.com/pray3m/hyteno-fullstack-todo/internal/query"
)

// TodoRepository defines todo persistence operations. List translates the
// accumulated query clauses into the storage's native form; it carries no
// business logic beyond predicate assembly.
type TodoRepository interface {
	Create(ctx context.Context, todo *model.Todo) error
	Update(ctx context.Context, todo *model.Todo) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.Todo, error)
	List(ctx context.Context, ownerID uint, spec *query.Spec) ([]model.Todo, error)
}

type todoRepository struct {
	db *gorm.DB
}

// NewTodoRepository creates a new todo repository.
func NewTodoRepository(db *gorm.DB) TodoRepository {
	return &todoRepository{db: db}
}

func (r *todoRepository) Create(ctx context.Context, todo *model.Todo) error {
	return r.db.WithContext(ctx).Create(todo).Error
}

func (r *todoRepository) Update(ctx context.Context, todo *model.Todo) error {
	return r.db.WithContext(ctx).Save(todo).Error
}

// Delete removes the row permanently; todos are never soft-deleted.
func (r *todoRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Unscoped().Delete(&model.Todo{}, id).Error
}

func (r *todoRepository) FindByID(ctx context.Context, id uint) (*model.Todo, error) {
	var todo model.Todo
	if err := r.db.WithContext(ctx).Preload("User").First(&todo, id).Error; err != nil {
		return nil, err
	}
	return &todo, nil
}

// List applies the spec's clauses AND-ed onto the owner scope and orders
// by the spec's plan. ownerID zero means no owner restriction (admin-wide
// listing is not exposed over HTTP but the seed tool uses it).
func (r *todoRepository) List(ctx context.Context, ownerID uint, spec *query.Spec) ([]model.Todo, error) {
	tx := r.db.WithContext(ctx).Model(&model.Todo{}).Preload("User")
	if ownerID != 0 {
		tx = tx.Where("user_id = ?", ownerID)
	}
	for _, clause := range spec.Clauses() {
		cond, args := clause.Cond()
		tx = tx.Where(cond, args...)
	}

	var todos []model.Todo
	if err := tx.Order(spec.OrderBy()).Find(&todos).Error; err != nil {
		return nil, err
	}
	return todos, nil
}
