package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/javedansari81/sunrise-school-management-sub000/internal/models"
)

// StudentRepository reads the student directory. The fee engine never
// writes students; admissions owns that table.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByID returns a student by identifier, including soft-deleted rows so
// callers can report why a student was skipped.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	const query = `SELECT id, admission_no, full_name, class_id, session_id, active, deleted_at, created_at FROM students WHERE id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// ListByIDs returns the students matching the given identifiers, keyed by id.
func (r *StudentRepository) ListByIDs(ctx context.Context, ids []string) (map[string]models.Student, error) {
	result := make(map[string]models.Student, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT id, admission_no, full_name, class_id, session_id, active, deleted_at, created_at FROM students WHERE id IN (%s)`, strings.Join(placeholders, ","))
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, fmt.Errorf("list students by ids: %w", err)
	}
	for _, s := range students {
		result[s.ID] = s
	}
	return result, nil
}

// ListActive returns active, non-deleted students for a session, optionally
// restricted to one class.
func (r *StudentRepository) ListActive(ctx context.Context, sessionID, classID string) ([]models.Student, error) {
	query := `SELECT id, admission_no, full_name, class_id, session_id, active, deleted_at, created_at FROM students WHERE session_id = $1 AND active = TRUE AND deleted_at IS NULL`
	args := []interface{}{sessionID}
	if classID != "" {
		query += " AND class_id = $2"
		args = append(args, classID)
	}
	query += " ORDER BY full_name ASC"
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, fmt.Errorf("list active students: %w", err)
	}
	return students, nil
}
