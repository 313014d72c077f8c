package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uniroom-api/internal/models"
)

// ClassRepository reads the class catalog consumed for capacity sizing.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs the repository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// FindByID loads a class.
func (r *ClassRepository) FindByID(ctx context.Context, id string) (*models.Class, error) {
	const query = `SELECT id, code, name, department_id, max_students, created_at FROM classes WHERE id = $1`
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, id); err != nil {
		return nil, err
	}
	return &class, nil
}

// FindClassType loads a theory component or practice group.
func (r *ClassRepository) FindClassType(ctx context.Context, id string) (*models.ClassType, error) {
	const query = `SELECT id, class_id, kind, group_number, max_students FROM class_types WHERE id = $1`
	var classType models.ClassType
	if err := r.db.GetContext(ctx, &classType, query, id); err != nil {
		return nil, err
	}
	return &classType, nil
}
