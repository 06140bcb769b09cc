package student

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"
)

type Repository interface {
	ListAll(ctx context.Context) ([]Student, error)
	ListMajors(ctx context.Context) ([]Major, error)
	GetByID(ctx context.Context, id int) (*Student, error)
	Insert(ctx context.Context, student *Student) error
	// Update writes every field except the image reference.
	Update(ctx context.Context, student *Student) error
	// UpdateWithImage additionally overwrites the image reference; used only
	// when a new upload produced one.
	UpdateWithImage(ctx context.Context, student *Student) error
	Delete(ctx context.Context, id int) error
}

type repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ListAll(ctx context.Context) ([]Student, error) {
	var students []Student
	err := r.db.NewSelect().
		Model(&students).
		ColumnExpr("s.*").
		ColumnExpr("m.description AS major_description").
		Join("LEFT JOIN majors AS m ON m.code = s.major_code").
		Order("s.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, &DataAccessError{Op: "list students", Err: err}
	}
	return students, nil
}

func (r *repository) ListMajors(ctx context.Context) ([]Major, error) {
	var majors []Major
	err := r.db.NewSelect().
		Model(&majors).
		Order("m.code ASC").
		Scan(ctx)
	if err != nil {
		return nil, &DataAccessError{Op: "list majors", Err: err}
	}
	return majors, nil
}

func (r *repository) GetByID(ctx context.Context, id int) (*Student, error) {
	student := new(Student)
	err := r.db.NewSelect().
		Model(student).
		ColumnExpr("s.*").
		ColumnExpr("m.description AS major_description").
		Join("LEFT JOIN majors AS m ON m.code = s.major_code").
		Where("s.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStudentNotFound
		}
		return nil, &DataAccessError{Op: "get student", Err: err}
	}
	return student, nil
}

func (r *repository) Insert(ctx context.Context, student *Student) error {
	_, err := r.db.NewInsert().
		Model(student).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return &DataAccessError{Op: "insert student", Err: err}
	}
	return nil
}

func (r *repository) Update(ctx context.Context, student *Student) error {
	return r.update(ctx, student, false)
}

func (r *repository) UpdateWithImage(ctx context.Context, student *Student) error {
	return r.update(ctx, student, true)
}

func (r *repository) update(ctx context.Context, student *Student, withImage bool) error {
	columns := []string{"first_name", "last_name", "email", "major_code", "address"}
	if withImage {
		columns = append(columns, "profile_image")
	}

	result, err := r.db.NewUpdate().
		Model(student).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		return &DataAccessError{Op: "update student", Err: err}
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return &DataAccessError{Op: "update student", Err: err}
	}
	if rowsAffected == 0 {
		return ErrStudentNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int) error {
	student := &Student{ID: id}
	result, err := r.db.NewDelete().
		Model(student).
		WherePK().
		Exec(ctx)
	if err != nil {
		return &DataAccessError{Op: "delete student", Err: err}
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return &DataAccessError{Op: "delete student", Err: err}
	}
	if rowsAffected == 0 {
		return ErrStudentNotFound
	}
	return nil
}
