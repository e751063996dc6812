package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hackmate/hackathon-system/models"
	"github.com/lib/pq"
)

var (
	ErrApplicationNotFound         = errors.New("application not found")
	ErrApplicationConflict         = errors.New("application conflict: user already applied to this hackathon")
	ErrApplicationHackathonInvalid = errors.New("application hackathon conflict or invalid")
	ErrApplicationUserInvalid      = errors.New("application user conflict or invalid")
)

type ApplicationRepository interface {
	Create(ctx context.Context, a *models.Application) error
	FindByID(ctx context.Context, id int) (*models.Application, error)
	// FindByIDForUpdate блокирует строку заявки (FOR UPDATE) до конца
	// транзакции, сериализуя переходы статусов по одной заявке.
	FindByIDForUpdate(ctx context.Context, id int) (*models.Application, error)
	// FindActiveByUserAndHackathon ищет неотменённую заявку пользователя.
	FindActiveByUserAndHackathon(ctx context.Context, applicantID, hackathonID int) (*models.Application, error)
	ListByApplicant(ctx context.Context, applicantID int) ([]*models.Application, error)
	ListByHackathon(ctx context.Context, hackathonID int, statusFilter *models.ApplicationStatus) ([]*models.Application, error)
	// ListOverduePayment возвращает заявки payment_pending с истёкшим сроком оплаты.
	ListOverduePayment(ctx context.Context, now time.Time, limit int) ([]*models.Application, error)
	Update(ctx context.Context, a *models.Application) error
	CountByStatus(ctx context.Context, hackathonID int) (map[models.ApplicationStatus]int, error)
}

const applicationColumns = `
	id, hackathon_id, applicant_id, application_type, status, payment_status,
	looking_for_team, preferred_team_size, skills_bringing, preferred_roles,
	open_to_remote_collaboration, project_ideas,
	applied_at, payment_deadline, confirmed_at, amount_paid, payment_reference`

type postgresApplicationRepository struct {
	db *sql.DB
}

func NewPostgresApplicationRepository(db *sql.DB) ApplicationRepository {
	return &postgresApplicationRepository{db: db}
}

func (r *postgresApplicationRepository) Create(ctx context.Context, a *models.Application) error {
	query := `
		INSERT INTO applications (
			hackathon_id, applicant_id, application_type, status, payment_status,
			looking_for_team, preferred_team_size, skills_bringing, preferred_roles,
			open_to_remote_collaboration, project_ideas,
			applied_at, payment_deadline, confirmed_at, amount_paid, payment_reference
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id`

	err := executor(ctx, r.db).QueryRowContext(ctx, query,
		a.HackathonID, a.ApplicantID, a.ApplicationType, a.Status, a.PaymentStatus,
		a.LookingForTeam, a.PreferredTeamSize, pq.Array(a.SkillsBringing), pq.Array(a.PreferredRoles),
		a.OpenToRemoteCollaboration, a.ProjectIdeas,
		a.AppliedAt, a.PaymentDeadline, a.ConfirmedAt, a.AmountPaid, a.PaymentReference,
	).Scan(&a.ID)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505": // unique_violation
				if pqErr.Constraint == "applications_active_applicant_key" {
					return ErrApplicationConflict
				}
			case "23503": // foreign_key_violation
				switch pqErr.Constraint {
				case "applications_hackathon_id_fkey":
					return ErrApplicationHackathonInvalid
				case "applications_applicant_id_fkey":
					return ErrApplicationUserInvalid
				}
			}
		}
		return fmt.Errorf("failed to create application: %w", err)
	}
	return nil
}

func (r *postgresApplicationRepository) scanApplication(rowScanner interface {
	Scan(dest ...interface{}) error
}, a *models.Application) error {
	return rowScanner.Scan(
		&a.ID, &a.HackathonID, &a.ApplicantID, &a.ApplicationType, &a.Status, &a.PaymentStatus,
		&a.LookingForTeam, &a.PreferredTeamSize, pq.Array(&a.SkillsBringing), pq.Array(&a.PreferredRoles),
		&a.OpenToRemoteCollaboration, &a.ProjectIdeas,
		&a.AppliedAt, &a.PaymentDeadline, &a.ConfirmedAt, &a.AmountPaid, &a.PaymentReference,
	)
}

func (r *postgresApplicationRepository) findOne(ctx context.Context, query string, args ...interface{}) (*models.Application, error) {
	a := &models.Application{}
	row := executor(ctx, r.db).QueryRowContext(ctx, query, args...)
	if err := r.scanApplication(row, a); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrApplicationNotFound
		}
		return nil, fmt.Errorf("failed to find application: %w", err)
	}
	return a, nil
}

func (r *postgresApplicationRepository) FindByID(ctx context.Context, id int) (*models.Application, error) {
	query := `SELECT` + applicationColumns + ` FROM applications WHERE id = $1`
	return r.findOne(ctx, query, id)
}

func (r *postgresApplicationRepository) FindByIDForUpdate(ctx context.Context, id int) (*models.Application, error) {
	query := `SELECT` + applicationColumns + ` FROM applications WHERE id = $1 FOR UPDATE`
	return r.findOne(ctx, query, id)
}

func (r *postgresApplicationRepository) FindActiveByUserAndHackathon(ctx context.Context, applicantID, hackathonID int) (*models.Application, error) {
	query := `SELECT` + applicationColumns + `
		FROM applications
		WHERE applicant_id = $1 AND hackathon_id = $2 AND status <> $3`
	return r.findOne(ctx, query, applicantID, hackathonID, models.StatusCancelled)
}

func (r *postgresApplicationRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.Application, error) {
	rows, err := executor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	defer rows.Close()

	applications := make([]*models.Application, 0)
	for rows.Next() {
		var a models.Application
		if err := r.scanApplication(rows, &a); err != nil {
			return nil, fmt.Errorf("failed to scan application row: %w", err)
		}
		applications = append(applications, &a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating application rows: %w", err)
	}
	return applications, nil
}

func (r *postgresApplicationRepository) ListByApplicant(ctx context.Context, applicantID int) ([]*models.Application, error) {
	query := `SELECT` + applicationColumns + `
		FROM applications
		WHERE applicant_id = $1
		ORDER BY applied_at DESC`
	return r.list(ctx, query, applicantID)
}

func (r *postgresApplicationRepository) ListByHackathon(ctx context.Context, hackathonID int, statusFilter *models.ApplicationStatus) ([]*models.Application, error) {
	query := `SELECT` + applicationColumns + `
		FROM applications
		WHERE hackathon_id = $1`
	args := []interface{}{hackathonID}
	if statusFilter != nil {
		query += ` AND status = $2`
		args = append(args, *statusFilter)
	}
	query += ` ORDER BY applied_at ASC`
	return r.list(ctx, query, args...)
}

func (r *postgresApplicationRepository) ListOverduePayment(ctx context.Context, now time.Time, limit int) ([]*models.Application, error) {
	query := `SELECT` + applicationColumns + `
		FROM applications
		WHERE status = $1 AND payment_deadline IS NOT NULL AND payment_deadline < $2
		ORDER BY payment_deadline ASC
		LIMIT $3`
	return r.list(ctx, query, models.StatusPaymentPending, now, limit)
}

func (r *postgresApplicationRepository) Update(ctx context.Context, a *models.Application) error {
	query := `
		UPDATE applications SET
			status = $1,
			payment_status = $2,
			looking_for_team = $3,
			payment_deadline = $4,
			confirmed_at = $5,
			amount_paid = $6,
			payment_reference = $7
		WHERE id = $8`

	result, err := executor(ctx, r.db).ExecContext(ctx, query,
		a.Status, a.PaymentStatus, a.LookingForTeam,
		a.PaymentDeadline, a.ConfirmedAt, a.AmountPaid, a.PaymentReference,
		a.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update application: %w", err)
	}
	return checkAffectedRows(result, ErrApplicationNotFound)
}

func (r *postgresApplicationRepository) CountByStatus(ctx context.Context, hackathonID int) (map[models.ApplicationStatus]int, error) {
	query := `
		SELECT status, COUNT(*)
		FROM applications
		WHERE hackathon_id = $1
		GROUP BY status`

	rows, err := executor(ctx, r.db).QueryContext(ctx, query, hackathonID)
	if err != nil {
		return nil, fmt.Errorf("failed to count applications by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.ApplicationStatus]int)
	for rows.Next() {
		var status models.ApplicationStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count row: %w", err)
		}
		counts[status] = count
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating status count rows: %w", err)
	}
	return counts, nil
}
