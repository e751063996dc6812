package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hackmate/hackathon-system/models"
	"github.com/lib/pq"
)

var (
	ErrHackathonNotFound     = errors.New("hackathon not found")
	ErrHackathonTitleTaken   = errors.New("hackathon title conflict for this organizer")
	ErrHackathonInvalidOrg   = errors.New("invalid organizer reference")
	ErrHackathonSeatOverflow = errors.New("confirmed participants would exceed capacity")
)

type ListHackathonsFilter struct {
	OrganizerID   *int
	Mode          *models.HackathonMode
	OnlyPublished bool
	Limit         int
	Offset        int
}

type HackathonRepository interface {
	Create(ctx context.Context, h *models.Hackathon) error
	GetByID(ctx context.Context, id int) (*models.Hackathon, error)
	// GetByIDForUpdate блокирует строку хакатона (FOR UPDATE) до конца
	// транзакции. Вызывать только внутри TxManager.WithTx.
	GetByIDForUpdate(ctx context.Context, id int) (*models.Hackathon, error)
	List(ctx context.Context, filter ListHackathonsFilter) ([]models.Hackathon, error)
	Update(ctx context.Context, h *models.Hackathon) error
	// IncrementConfirmed занимает одно место. Защищён условием в SQL:
	// при переполнении возвращает ErrHackathonSeatOverflow.
	IncrementConfirmed(ctx context.Context, id int) error
	// DecrementConfirmed освобождает одно место, не опускаясь ниже нуля.
	DecrementConfirmed(ctx context.Context, id int) error
}

const hackathonColumns = `
	id, organizer_id, title, description, mode, venue, meeting_link,
	registration_start, registration_end, start_date, end_date,
	registration_type, min_team_size, max_team_size, max_participants, confirmed_participants,
	is_free, registration_fee, is_published, created_at`

type postgresHackathonRepository struct {
	db *sql.DB
}

func NewPostgresHackathonRepository(db *sql.DB) HackathonRepository {
	return &postgresHackathonRepository{db: db}
}

func (r *postgresHackathonRepository) Create(ctx context.Context, h *models.Hackathon) error {
	query := `
		INSERT INTO hackathons (
			organizer_id, title, description, mode, venue, meeting_link,
			registration_start, registration_end, start_date, end_date,
			registration_type, min_team_size, max_team_size, max_participants,
			is_free, registration_fee, is_published
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id, confirmed_participants, created_at`

	err := executor(ctx, r.db).QueryRowContext(ctx, query,
		h.OrganizerID, h.Title, h.Description, h.Mode, h.Venue, h.MeetingLink,
		h.RegistrationStart, h.RegistrationEnd, h.StartDate, h.EndDate,
		h.RegistrationType, h.MinTeamSize, h.MaxTeamSize, h.MaxParticipants,
		h.IsFree, h.RegistrationFee, h.IsPublished,
	).Scan(&h.ID, &h.ConfirmedParticipants, &h.CreatedAt)

	return r.handleHackathonError(err)
}

func (r *postgresHackathonRepository) scanHackathon(row *sql.Row) (*models.Hackathon, error) {
	h := &models.Hackathon{}
	err := row.Scan(
		&h.ID, &h.OrganizerID, &h.Title, &h.Description, &h.Mode, &h.Venue, &h.MeetingLink,
		&h.RegistrationStart, &h.RegistrationEnd, &h.StartDate, &h.EndDate,
		&h.RegistrationType, &h.MinTeamSize, &h.MaxTeamSize, &h.MaxParticipants, &h.ConfirmedParticipants,
		&h.IsFree, &h.RegistrationFee, &h.IsPublished, &h.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrHackathonNotFound
		}
		return nil, fmt.Errorf("failed to scan hackathon: %w", err)
	}
	return h, nil
}

func (r *postgresHackathonRepository) GetByID(ctx context.Context, id int) (*models.Hackathon, error) {
	query := `SELECT` + hackathonColumns + ` FROM hackathons WHERE id = $1`
	return r.scanHackathon(executor(ctx, r.db).QueryRowContext(ctx, query, id))
}

func (r *postgresHackathonRepository) GetByIDForUpdate(ctx context.Context, id int) (*models.Hackathon, error) {
	query := `SELECT` + hackathonColumns + ` FROM hackathons WHERE id = $1 FOR UPDATE`
	return r.scanHackathon(executor(ctx, r.db).QueryRowContext(ctx, query, id))
}

func (r *postgresHackathonRepository) List(ctx context.Context, filter ListHackathonsFilter) ([]models.Hackathon, error) {
	query := `SELECT` + hackathonColumns + ` FROM hackathons WHERE 1=1`

	args := []interface{}{}
	argID := 1

	if filter.OrganizerID != nil {
		query += fmt.Sprintf(" AND organizer_id = $%d", argID)
		args = append(args, *filter.OrganizerID)
		argID++
	}
	if filter.Mode != nil {
		query += fmt.Sprintf(" AND mode = $%d", argID)
		args = append(args, *filter.Mode)
		argID++
	}
	if filter.OnlyPublished {
		query += " AND is_published = TRUE"
	}

	query += " ORDER BY registration_start ASC, created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, filter.Limit)
		argID++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argID)
		args = append(args, filter.Offset)
	}

	rows, err := executor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	hackathons := make([]models.Hackathon, 0)
	for rows.Next() {
		var h models.Hackathon
		if scanErr := rows.Scan(
			&h.ID, &h.OrganizerID, &h.Title, &h.Description, &h.Mode, &h.Venue, &h.MeetingLink,
			&h.RegistrationStart, &h.RegistrationEnd, &h.StartDate, &h.EndDate,
			&h.RegistrationType, &h.MinTeamSize, &h.MaxTeamSize, &h.MaxParticipants, &h.ConfirmedParticipants,
			&h.IsFree, &h.RegistrationFee, &h.IsPublished, &h.CreatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		hackathons = append(hackathons, h)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	return hackathons, nil
}

func (r *postgresHackathonRepository) Update(ctx context.Context, h *models.Hackathon) error {
	// confirmed_participants обновляется только через Increment/DecrementConfirmed
	query := `
		UPDATE hackathons SET
			title = $1,
			description = $2,
			mode = $3,
			venue = $4,
			meeting_link = $5,
			registration_start = $6,
			registration_end = $7,
			start_date = $8,
			end_date = $9,
			registration_type = $10,
			min_team_size = $11,
			max_team_size = $12,
			max_participants = $13,
			is_free = $14,
			registration_fee = $15,
			is_published = $16
		WHERE id = $17`

	result, err := executor(ctx, r.db).ExecContext(ctx, query,
		h.Title, h.Description, h.Mode, h.Venue, h.MeetingLink,
		h.RegistrationStart, h.RegistrationEnd, h.StartDate, h.EndDate,
		h.RegistrationType, h.MinTeamSize, h.MaxTeamSize, h.MaxParticipants,
		h.IsFree, h.RegistrationFee, h.IsPublished,
		h.ID,
	)
	if err != nil {
		return r.handleHackathonError(err)
	}
	return checkAffectedRows(result, ErrHackathonNotFound)
}

func (r *postgresHackathonRepository) IncrementConfirmed(ctx context.Context, id int) error {
	query := `
		UPDATE hackathons
		SET confirmed_participants = confirmed_participants + 1
		WHERE id = $1 AND confirmed_participants < max_participants`

	result, err := executor(ctx, r.db).ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to increment confirmed participants: %w", err)
	}
	return checkAffectedRows(result, ErrHackathonSeatOverflow)
}

func (r *postgresHackathonRepository) DecrementConfirmed(ctx context.Context, id int) error {
	query := `
		UPDATE hackathons
		SET confirmed_participants = confirmed_participants - 1
		WHERE id = $1 AND confirmed_participants > 0`

	result, err := executor(ctx, r.db).ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to decrement confirmed participants: %w", err)
	}
	return checkAffectedRows(result, ErrHackathonNotFound)
}

func (r *postgresHackathonRepository) handleHackathonError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Code {
		case "23505":
			if pqErr.Constraint == "hackathons_organizer_id_title_key" {
				return ErrHackathonTitleTaken
			}
		case "23503":
			if pqErr.Constraint == "hackathons_organizer_id_fkey" {
				return ErrHackathonInvalidOrg
			}
		case "23514":
			if pqErr.Constraint == "chk_hackathons_confirmed_within_capacity" {
				return ErrHackathonSeatOverflow
			}
		}
	}
	return err
}
