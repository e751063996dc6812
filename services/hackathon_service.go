package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hackmate/hackathon-system/clock"
	"github.com/hackmate/hackathon-system/models"
	"github.com/hackmate/hackathon-system/repositories"
)

// CreateHackathonInput — конфигурация хакатона, подаваемая организатором.
type CreateHackathonInput struct {
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Mode        models.HackathonMode `json:"mode"`
	Venue       *string              `json:"venue"`
	MeetingLink *string              `json:"meeting_link"`

	RegistrationStart time.Time `json:"registration_start"`
	RegistrationEnd   time.Time `json:"registration_end"`
	StartDate         time.Time `json:"start_date"`
	EndDate           time.Time `json:"end_date"`

	RegistrationType models.RegistrationType `json:"registration_type"`
	MinTeamSize      int                     `json:"min_team_size"`
	MaxTeamSize      int                     `json:"max_team_size"`
	MaxParticipants  int                     `json:"max_participants"`

	IsFree          bool `json:"is_free"`
	RegistrationFee int  `json:"registration_fee"`

	IsPublished bool `json:"is_published"`
}

type HackathonService interface {
	// Create валидирует конфигурацию и сохраняет хакатон. При нарушениях
	// возвращает *ValidationError со всеми полями сразу; ничего не пишет.
	// Второй результат — необязательные предупреждения о реализуемости
	// командной сетки, они не блокируют создание.
	Create(ctx context.Context, organizerID int, input CreateHackathonInput) (*models.Hackathon, []FieldError, error)
	Update(ctx context.Context, hackathonID, currentUserID int, input CreateHackathonInput) (*models.Hackathon, []FieldError, error)
	GetByID(ctx context.Context, id int) (*models.Hackathon, error)
	List(ctx context.Context, filter repositories.ListHackathonsFilter) ([]models.Hackathon, error)
}

type hackathonService struct {
	hackathonRepo repositories.HackathonRepository
	userRepo      repositories.UserRepository
	clk           clock.Clock
}

func NewHackathonService(
	hackathonRepo repositories.HackathonRepository,
	userRepo repositories.UserRepository,
	clk clock.Clock,
) HackathonService {
	return &hackathonService{
		hackathonRepo: hackathonRepo,
		userRepo:      userRepo,
		clk:           clk,
	}
}

// ValidateHackathonConfig проверяет конфигурацию хакатона на внутреннюю
// реализуемость. Все проверки независимы: возвращаются все нарушения, а не
// первое. Вторым результатом идут предупреждения, не блокирующие создание.
func ValidateHackathonConfig(input CreateHackathonInput, now time.Time) (violations, warnings []FieldError) {
	addViolation := func(field, reason string) {
		violations = append(violations, FieldError{Field: field, Reason: reason})
	}

	if strings.TrimSpace(input.Title) == "" {
		addViolation("title", "title is required")
	}
	if strings.TrimSpace(input.Description) == "" {
		addViolation("description", "description is required")
	}

	if !input.Mode.Valid() {
		addViolation("mode", "mode must be one of: online, offline, hybrid")
	}
	if !input.RegistrationType.Valid() {
		addViolation("registration_type", "registration type must be one of: individual, team, both")
	}

	missingDates := false
	for _, d := range []struct {
		field string
		value time.Time
	}{
		{"registration_start", input.RegistrationStart},
		{"registration_end", input.RegistrationEnd},
		{"start_date", input.StartDate},
		{"end_date", input.EndDate},
	} {
		if d.value.IsZero() {
			addViolation(d.field, d.field+" is required")
			missingDates = true
		}
	}

	// Порядок дат проверяется только когда все даты заданы,
	// чтобы не дублировать нарушения.
	if !missingDates {
		if !input.RegistrationStart.After(now) {
			addViolation("registration_start", "registration start must be in the future")
		}
		if !input.RegistrationEnd.After(input.RegistrationStart) {
			addViolation("registration_end", "registration end must be after registration start")
		}
		if !input.StartDate.After(input.RegistrationEnd) {
			addViolation("start_date", "registration must close before the event begins")
		}
		if !input.EndDate.After(input.StartDate) {
			addViolation("end_date", "event end must be after event start")
		}
	}

	if input.MaxParticipants < 1 {
		addViolation("max_participants", "must allow at least 1 participant")
	}
	if input.MinTeamSize < 1 {
		addViolation("min_team_size", "minimum team size must be at least 1")
	}
	if input.MaxTeamSize < input.MinTeamSize {
		addViolation("max_team_size", "maximum team size must be greater than or equal to minimum")
	}

	teamAllowed := input.RegistrationType == models.RegistrationTeam || input.RegistrationType == models.RegistrationBoth
	if teamAllowed && input.MinTeamSize >= 1 && input.MaxParticipants >= 1 {
		if input.MaxParticipants < input.MinTeamSize {
			addViolation("max_participants",
				fmt.Sprintf("to allow team registration, max participants must be at least %d (min team size)", input.MinTeamSize))
		}
		if input.MinTeamSize > input.MaxParticipants {
			addViolation("min_team_size", "minimum team size cannot exceed maximum participants")
		}
		if input.MaxTeamSize > input.MaxParticipants {
			addViolation("max_team_size", "maximum team size cannot exceed maximum participants")
		}

		// Для командных хакатонов остаток от деления мест на минимальный
		// размер команды оставляет участников без полной команды. Это
		// предупреждение, а не отказ: точное правило — продуктовое решение.
		if input.RegistrationType == models.RegistrationTeam && input.MaxParticipants%input.MinTeamSize != 0 {
			warnings = append(warnings, FieldError{
				Field: "max_participants",
				Reason: fmt.Sprintf("with min team size of %d, %d participant(s) may be unable to form a full team",
					input.MinTeamSize, input.MaxParticipants%input.MinTeamSize),
			})
		}
	}

	if input.Mode.Valid() && input.Mode != models.ModeOnline {
		if input.Venue == nil || strings.TrimSpace(*input.Venue) == "" {
			addViolation("venue", "venue is required for offline and hybrid events")
		}
	}
	if input.Mode.Valid() && input.Mode != models.ModeOffline {
		if input.MeetingLink == nil || strings.TrimSpace(*input.MeetingLink) == "" {
			addViolation("meeting_link", "meeting link is required for online and hybrid events")
		}
	}

	if input.RegistrationFee < 0 {
		addViolation("registration_fee", "registration fee cannot be negative")
	}
	if !input.IsFree && input.RegistrationFee <= 0 {
		addViolation("registration_fee", "registration fee must be greater than 0 for paid events")
	}

	return violations, warnings
}

func (s *hackathonService) Create(ctx context.Context, organizerID int, input CreateHackathonInput) (*models.Hackathon, []FieldError, error) {
	if _, err := s.userRepo.GetByID(ctx, organizerID); err != nil {
		return nil, nil, s.mapUserError(err)
	}

	violations, warnings := ValidateHackathonConfig(input, s.clk.Now())
	if len(violations) > 0 {
		return nil, warnings, &ValidationError{Violations: violations}
	}

	hackathon := hackathonFromInput(organizerID, input)
	if err := s.hackathonRepo.Create(ctx, hackathon); err != nil {
		return nil, warnings, s.mapHackathonError(err)
	}
	return hackathon, warnings, nil
}

func (s *hackathonService) Update(ctx context.Context, hackathonID, currentUserID int, input CreateHackathonInput) (*models.Hackathon, []FieldError, error) {
	existing, err := s.hackathonRepo.GetByID(ctx, hackathonID)
	if err != nil {
		return nil, nil, s.mapHackathonError(err)
	}
	if existing.OrganizerID != currentUserID {
		return nil, nil, ErrForbiddenOperation
	}

	violations, warnings := ValidateHackathonConfig(input, s.clk.Now())
	if len(violations) > 0 {
		return nil, warnings, &ValidationError{Violations: violations}
	}

	updated := hackathonFromInput(existing.OrganizerID, input)
	updated.ID = existing.ID
	updated.ConfirmedParticipants = existing.ConfirmedParticipants
	updated.CreatedAt = existing.CreatedAt
	if err := s.hackathonRepo.Update(ctx, updated); err != nil {
		return nil, warnings, s.mapHackathonError(err)
	}
	return updated, warnings, nil
}

func (s *hackathonService) GetByID(ctx context.Context, id int) (*models.Hackathon, error) {
	hackathon, err := s.hackathonRepo.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapHackathonError(err)
	}
	return hackathon, nil
}

func (s *hackathonService) List(ctx context.Context, filter repositories.ListHackathonsFilter) ([]models.Hackathon, error) {
	return s.hackathonRepo.List(ctx, filter)
}

func hackathonFromInput(organizerID int, input CreateHackathonInput) *models.Hackathon {
	return &models.Hackathon{
		OrganizerID:       organizerID,
		Title:             strings.TrimSpace(input.Title),
		Description:       input.Description,
		Mode:              input.Mode,
		Venue:             input.Venue,
		MeetingLink:       input.MeetingLink,
		RegistrationStart: input.RegistrationStart,
		RegistrationEnd:   input.RegistrationEnd,
		StartDate:         input.StartDate,
		EndDate:           input.EndDate,
		RegistrationType:  input.RegistrationType,
		MinTeamSize:       input.MinTeamSize,
		MaxTeamSize:       input.MaxTeamSize,
		MaxParticipants:   input.MaxParticipants,
		IsFree:            input.IsFree,
		RegistrationFee:   input.RegistrationFee,
		IsPublished:       input.IsPublished,
	}
}

func (s *hackathonService) mapHackathonError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repositories.ErrHackathonNotFound) {
		return ErrHackathonNotFound
	}
	if errors.Is(err, repositories.ErrHackathonTitleTaken) {
		return ErrHackathonTitleTaken
	}
	return err
}

func (s *hackathonService) mapUserError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repositories.ErrUserNotFound) {
		return ErrUserNotFound
	}
	return err
}
