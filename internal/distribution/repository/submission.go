package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/agrimed/agrimed-backend/internal/distribution/domain"
	"github.com/agrimed/agrimed-backend/internal/distribution/service"
	"github.com/agrimed/agrimed-backend/pkg/database"
	"github.com/agrimed/agrimed-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// SubmissionRepository handles submission persistence. Decisions commit the
// status change, item adjustments and audit entry in a single transaction.
type SubmissionRepository struct {
	db *database.DB
}

// NewSubmissionRepository creates a new submission repository
func NewSubmissionRepository(db *database.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

type submissionRow struct {
	ID            string          `db:"id"`
	Status        string          `db:"status"`
	Priority      string          `db:"priority"`
	AffectedArea  decimal.Decimal `db:"affected_area"`
	PestTargets   pq.StringArray  `db:"pest_targets"`
	RequesterID   string          `db:"requester_id"`
	ReviewerID    *string         `db:"reviewer_id"`
	ReviewerNotes *string         `db:"reviewer_notes"`
	ReviewedAt    *time.Time      `db:"reviewed_at"`
	CreatedAt     time.Time       `db:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
}

func (r submissionRow) toDomain() *domain.Submission {
	return &domain.Submission{
		ID:            r.ID,
		Status:        domain.SubmissionStatus(r.Status),
		Priority:      domain.Priority(r.Priority),
		AffectedArea:  r.AffectedArea,
		PestTargets:   []string(r.PestTargets),
		RequesterID:   r.RequesterID,
		ReviewerID:    r.ReviewerID,
		ReviewerNotes: r.ReviewerNotes,
		ReviewedAt:    r.ReviewedAt,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

// GetSubmissionWithItems gets a submission by ID together with its items.
func (r *SubmissionRepository) GetSubmissionWithItems(ctx context.Context, id string) (*domain.Submission, error) {
	var row submissionRow
	query := `
		SELECT id, status, priority, affected_area, pest_targets, requester_id,
		       reviewer_id, reviewer_notes, reviewed_at, created_at, updated_at
		FROM submissions
		WHERE id = $1
	`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("submission")
		}
		return nil, database.MapPQError(err)
	}

	sub := row.toDomain()

	itemsQuery := `
		SELECT id, submission_id, medicine_id, medicine_name,
		       requested_quantity, approved_quantity, unit, notes
		FROM submission_items
		WHERE submission_id = $1
		ORDER BY id
	`
	if err := r.db.SelectContext(ctx, &sub.Items, itemsQuery, id); err != nil {
		return nil, database.MapPQError(err)
	}

	return sub, nil
}

// ApplyDecision commits a decision atomically. The status update is keyed on
// the expected status: zero rows updated means another reviewer got there
// first, and the whole transaction rolls back with a conflict.
func (r *SubmissionRepository) ApplyDecision(ctx context.Context, params service.ApplyDecisionParams) (*domain.Submission, error) {
	err := r.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		updateQuery := `
			UPDATE submissions
			SET status = $1, reviewer_id = $2, reviewer_notes = $3,
			    reviewed_at = NOW(), updated_at = NOW()
			WHERE id = $4 AND status = $5
		`
		res, err := tx.ExecContext(ctx, updateQuery,
			params.NewStatus, params.ReviewerID, params.ReviewerNotes,
			params.SubmissionID, params.ExpectedStatus,
		)
		if err != nil {
			return database.MapPQError(err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return errors.Conflict("submission status changed during review")
		}

		itemQuery := `
			UPDATE submission_items
			SET approved_quantity = $1, notes = COALESCE($2, notes)
			WHERE id = $3 AND submission_id = $4
		`
		for _, item := range params.ApprovedItems {
			if _, err := tx.ExecContext(ctx, itemQuery,
				item.ApprovedQuantity, item.Notes, item.ItemID, params.SubmissionID,
			); err != nil {
				return database.MapPQError(err)
			}
		}

		auditQuery := `
			INSERT INTO submission_audit_log (
				id, submission_id, actor_id, action, previous_status, new_status, payload
			) VALUES ($1, $2, $3, $4, $5, $6, $7)
		`
		if _, err := tx.ExecContext(ctx, auditQuery,
			uuid.New().String(), params.SubmissionID, params.ReviewerID,
			string(params.Action), params.ExpectedStatus, params.NewStatus,
			params.AuditPayload,
		); err != nil {
			return database.MapPQError(err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return r.GetSubmissionWithItems(ctx, params.SubmissionID)
}

// AppendAuditLog records an audit entry outside a decision transaction.
func (r *SubmissionRepository) AppendAuditLog(ctx context.Context, entry *domain.AuditEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}

	query := `
		INSERT INTO submission_audit_log (
			id, submission_id, actor_id, action, previous_status, new_status, payload
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`
	return r.db.QueryRowxContext(ctx, query,
		entry.ID, entry.SubmissionID, entry.ActorID, entry.Action,
		entry.PreviousStatus, entry.NewStatus, entry.Payload,
	).Scan(&entry.CreatedAt)
}

// UsageRows reads every submission line for usage statistics.
func (r *SubmissionRepository) UsageRows(ctx context.Context) ([]domain.UsageRow, error) {
	var rows []domain.UsageRow
	query := `
		SELECT medicine_id, medicine_name, requested_quantity, approved_quantity
		FROM submission_items
		ORDER BY medicine_name
	`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, database.MapPQError(err)
	}
	return rows, nil
}
