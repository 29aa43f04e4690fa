package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/javedansari81/sunrise-school-management-sub000/internal/models"
)

const feeStructureColumns = `id, class_id, session_id, tuition_fee, development_fee, activity_fee, transport_fee, library_fee, exam_fee, other_fee, total_annual_fee, active, created_at, updated_at`

// FeeStructureRepository reads the fee structure catalogue. Editing is an
// admin workflow outside this service.
type FeeStructureRepository struct {
	db *sqlx.DB
}

// NewFeeStructureRepository constructs the repository.
func NewFeeStructureRepository(db *sqlx.DB) *FeeStructureRepository {
	return &FeeStructureRepository{db: db}
}

// FindActive returns the single active structure for a class and session.
// sql.ErrNoRows is passed through so callers can map it to a configuration
// error for that one student rather than a global failure.
func (r *FeeStructureRepository) FindActive(ctx context.Context, classID, sessionID string) (*models.FeeStructure, error) {
	query := fmt.Sprintf(`SELECT %s FROM fee_structures WHERE class_id = $1 AND session_id = $2 AND active = TRUE LIMIT 1`, feeStructureColumns)
	var structure models.FeeStructure
	if err := r.db.GetContext(ctx, &structure, query, classID, sessionID); err != nil {
		return nil, err
	}
	return &structure, nil
}

// FindByID returns a structure by identifier.
func (r *FeeStructureRepository) FindByID(ctx context.Context, id string) (*models.FeeStructure, error) {
	query := fmt.Sprintf(`SELECT %s FROM fee_structures WHERE id = $1`, feeStructureColumns)
	var structure models.FeeStructure
	if err := r.db.GetContext(ctx, &structure, query, id); err != nil {
		return nil, err
	}
	return &structure, nil
}

// List returns structures matching the filter.
func (r *FeeStructureRepository) List(ctx context.Context, filter models.FeeStructureFilter) ([]models.FeeStructure, error) {
	var conditions []string
	var args []interface{}

	if filter.ClassID != "" {
		conditions = append(conditions, fmt.Sprintf("class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.SessionID != "" {
		conditions = append(conditions, fmt.Sprintf("session_id = $%d", len(args)+1))
		args = append(args, filter.SessionID)
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}

	query := fmt.Sprintf("SELECT %s FROM fee_structures", feeStructureColumns)
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY class_id ASC, session_id ASC"

	var structures []models.FeeStructure
	if err := r.db.SelectContext(ctx, &structures, query, args...); err != nil {
		return nil, fmt.Errorf("list fee structures: %w", err)
	}
	return structures, nil
}
