package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hackmate/hackathon-system/clock"
	"github.com/hackmate/hackathon-system/models"
	"github.com/hackmate/hackathon-system/repositories"
)

// defaultPaymentGrace — сколько времени даётся на оплату после подачи заявки.
// Срок оплаты никогда не выходит за конец окна регистрации.
const defaultPaymentGrace = 24 * time.Hour

const expireBatchSize = 100

// HackathonEventPublisher рассылает события комнаты хакатона подписчикам
// (реализуется websocket-хабом). Nil-издатель допустим.
type HackathonEventPublisher interface {
	PublishHackathonUpdate(hackathonID int, eventType string, payload interface{})
}

// RegisterApplicationInput — анкета участника при подаче заявки.
type RegisterApplicationInput struct {
	ApplicationType           models.ApplicationType `json:"application_type"`
	LookingForTeam            bool                   `json:"looking_for_team"`
	PreferredTeamSize         *int                   `json:"preferred_team_size"`
	SkillsBringing            []string               `json:"skills_bringing"`
	PreferredRoles            []string               `json:"preferred_roles"`
	OpenToRemoteCollaboration bool                   `json:"open_to_remote_collaboration"`
	ProjectIdeas              string                 `json:"project_ideas"`
}

// PaymentEvent — подтверждение оплаты от внешнего платёжного сервиса.
// Доверенный вход: сам платёж уже проведён снаружи.
type PaymentEvent struct {
	Amount           int    `json:"amount"`
	PaymentReference string `json:"payment_reference"`
}

// ApplicationStats — счётчики заявок хакатона по статусам.
type ApplicationStats struct {
	HackathonID    int `json:"hackathon_id"`
	Total          int `json:"total"`
	Applied        int `json:"applied"`
	PaymentPending int `json:"payment_pending"`
	TeamPending    int `json:"team_pending"`
	Confirmed      int `json:"confirmed"`
	Rejected       int `json:"rejected"`
	Cancelled      int `json:"cancelled"`
}

type ApplicationService interface {
	// Register проводит заявку через лестницу проверок допуска и атомарно
	// занимает место для бесплатных хакатонов. Проверка мест и инкремент
	// счётчика выполняются под блокировкой строки хакатона.
	Register(ctx context.Context, hackathonID, applicantID int, input RegisterApplicationInput) (*models.Application, error)
	// ConfirmPayment применяет событие оплаты к заявке payment_pending.
	ConfirmPayment(ctx context.Context, applicationID int, event PaymentEvent) (*models.Application, error)
	// Withdraw отзывает заявку самим участником.
	Withdraw(ctx context.Context, applicationID, currentUserID int) (*models.Application, error)
	GetByID(ctx context.Context, applicationID, currentUserID int) (*models.Application, error)
	ListMine(ctx context.Context, applicantID int) ([]*models.Application, error)
	ListByHackathon(ctx context.Context, hackathonID, currentUserID int, statusFilter *models.ApplicationStatus) ([]*models.Application, error)
	// Reject — отклонение заявки организатором хакатона.
	Reject(ctx context.Context, applicationID, currentUserID int) (*models.Application, error)
	Stats(ctx context.Context, hackathonID, currentUserID int) (*ApplicationStats, error)
	// ExpireOverduePayments переводит просроченные payment_pending заявки
	// в rejected. Запускается планировщиком из cmd/main.go.
	ExpireOverduePayments(ctx context.Context) (int, error)
}

type applicationService struct {
	tx              repositories.TxManager
	applicationRepo repositories.ApplicationRepository
	hackathonRepo   repositories.HackathonRepository
	clk             clock.Clock
	publisher       HackathonEventPublisher
	logger          *slog.Logger
	paymentGrace    time.Duration
}

type ApplicationServiceOption func(*applicationService)

// WithPaymentGrace переопределяет срок, отводимый на оплату заявки.
func WithPaymentGrace(d time.Duration) ApplicationServiceOption {
	return func(s *applicationService) {
		if d > 0 {
			s.paymentGrace = d
		}
	}
}

// WithEventPublisher подключает рассылку live-обновлений комнат хакатонов.
func WithEventPublisher(p HackathonEventPublisher) ApplicationServiceOption {
	return func(s *applicationService) {
		s.publisher = p
	}
}

func NewApplicationService(
	tx repositories.TxManager,
	applicationRepo repositories.ApplicationRepository,
	hackathonRepo repositories.HackathonRepository,
	clk clock.Clock,
	logger *slog.Logger,
	opts ...ApplicationServiceOption,
) ApplicationService {
	svc := &applicationService{
		tx:              tx,
		applicationRepo: applicationRepo,
		hackathonRepo:   hackathonRepo,
		clk:             clk,
		logger:          logger,
		paymentGrace:    defaultPaymentGrace,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func (s *applicationService) Register(ctx context.Context, hackathonID, applicantID int, input RegisterApplicationInput) (*models.Application, error) {
	if !input.ApplicationType.Valid() {
		return nil, ErrRegistrationTypeDenied
	}

	var application *models.Application
	var hackathon *models.Hackathon

	err := s.tx.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		// Блокировка строки хакатона сериализует проверку мест и инкремент
		// счётчика между конкурентными регистрациями.
		hackathon, err = s.hackathonRepo.GetByIDForUpdate(txCtx, hackathonID)
		if err != nil {
			return s.mapHackathonError(err)
		}
		if !hackathon.IsPublished {
			return ErrHackathonNotFound
		}

		now := s.clk.Now()
		if !hackathon.RegistrationOpen(now) {
			return ErrRegistrationClosed
		}

		existing, err := s.applicationRepo.FindActiveByUserAndHackathon(txCtx, applicantID, hackathonID)
		if err != nil && !errors.Is(err, repositories.ErrApplicationNotFound) {
			return err
		}
		if existing != nil {
			return ErrAlreadyApplied
		}

		if applicantID == hackathon.OrganizerID {
			return ErrOrganizerSelfApply
		}

		if !hackathon.AllowsApplicationType(input.ApplicationType) {
			return ErrRegistrationTypeDenied
		}

		if hackathon.Full() {
			return ErrHackathonFull
		}

		if input.ApplicationType == models.ApplicationTeamLeader {
			size := 0
			if input.PreferredTeamSize != nil {
				size = *input.PreferredTeamSize
			}
			if size < hackathon.MinTeamSize || size > hackathon.MaxTeamSize {
				return ErrTeamSizeOutOfBounds
			}
		}

		application = s.buildApplication(hackathon, applicantID, input, now)

		if hackathon.IsFree {
			if err := s.hackathonRepo.IncrementConfirmed(txCtx, hackathon.ID); err != nil {
				if errors.Is(err, repositories.ErrHackathonSeatOverflow) {
					return ErrHackathonFull
				}
				return err
			}
			hackathon.ConfirmedParticipants++
		}

		if err := s.applicationRepo.Create(txCtx, application); err != nil {
			// Уникальный индекс по активным заявкам закрывает гонку
			// двух одновременных регистраций одного пользователя.
			if errors.Is(err, repositories.ErrApplicationConflict) {
				return ErrAlreadyApplied
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishApplicationUpdate(hackathon, application)
	return application, nil
}

// buildApplication формирует заявку с начальным статусом по решению о допуске:
// бесплатный хакатон — место занято сразу (confirmed либо team_pending, если
// без команды участвовать нельзя); платный — payment_pending без места.
func (s *applicationService) buildApplication(hackathon *models.Hackathon, applicantID int, input RegisterApplicationInput, now time.Time) *models.Application {
	application := &models.Application{
		HackathonID:               hackathon.ID,
		ApplicantID:               applicantID,
		ApplicationType:           input.ApplicationType,
		LookingForTeam:            deriveLookingForTeam(hackathon.RegistrationType, input.LookingForTeam),
		PreferredTeamSize:         input.PreferredTeamSize,
		SkillsBringing:            input.SkillsBringing,
		PreferredRoles:            input.PreferredRoles,
		OpenToRemoteCollaboration: input.OpenToRemoteCollaboration,
		ProjectIdeas:              input.ProjectIdeas,
		AppliedAt:                 now,
	}

	if hackathon.IsFree {
		application.PaymentStatus = models.PaymentNotRequired
		application.ConfirmedAt = &now
		if hackathon.TeamFormationRequired() {
			application.Status = models.StatusTeamPending
		} else {
			application.Status = models.StatusConfirmed
		}
		return application
	}

	deadline := now.Add(s.paymentGrace)
	if deadline.After(hackathon.RegistrationEnd) {
		deadline = hackathon.RegistrationEnd
	}
	application.Status = models.StatusPaymentPending
	application.PaymentStatus = models.PaymentPending
	application.PaymentDeadline = &deadline
	return application
}

// deriveLookingForTeam: для командных хакатонов поиск команды обязателен,
// для смешанных — выбор участника, для индивидуальных — всегда false.
func deriveLookingForTeam(registrationType models.RegistrationType, requested bool) bool {
	switch registrationType {
	case models.RegistrationTeam:
		return true
	case models.RegistrationBoth:
		return requested
	}
	return false
}

func (s *applicationService) ConfirmPayment(ctx context.Context, applicationID int, event PaymentEvent) (*models.Application, error) {
	var application *models.Application
	var hackathon *models.Hackathon

	err := s.tx.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		application, err = s.applicationRepo.FindByIDForUpdate(txCtx, applicationID)
		if err != nil {
			return s.mapApplicationError(err)
		}
		if application.Status != models.StatusPaymentPending {
			return ErrInvalidApplicationState
		}

		now := s.clk.Now()
		if application.PaymentOverdue(now) {
			return ErrPaymentDeadlineExceeded
		}

		hackathon, err = s.hackathonRepo.GetByIDForUpdate(txCtx, application.HackathonID)
		if err != nil {
			return s.mapHackathonError(err)
		}

		if event.Amount != hackathon.RegistrationFee {
			return ErrPaymentAmountMismatch
		}

		// Поздняя гонка: пока заявка ждала оплаты, хакатон мог заполниться.
		// Заявка остаётся payment_pending для ручного разбора.
		if hackathon.Full() {
			return ErrHackathonFull
		}
		if err := s.hackathonRepo.IncrementConfirmed(txCtx, hackathon.ID); err != nil {
			if errors.Is(err, repositories.ErrHackathonSeatOverflow) {
				return ErrHackathonFull
			}
			return err
		}
		hackathon.ConfirmedParticipants++

		reference := event.PaymentReference
		if reference == "" {
			reference = uuid.NewString()
		}
		amount := event.Amount

		if hackathon.TeamFormationRequired() {
			application.Status = models.StatusTeamPending
		} else {
			application.Status = models.StatusConfirmed
		}
		application.PaymentStatus = models.PaymentCompleted
		application.AmountPaid = &amount
		application.PaymentReference = &reference
		application.ConfirmedAt = &now

		return s.applicationRepo.Update(txCtx, application)
	})
	if err != nil {
		return nil, err
	}

	s.publishApplicationUpdate(hackathon, application)
	return application, nil
}

func (s *applicationService) Withdraw(ctx context.Context, applicationID, currentUserID int) (*models.Application, error) {
	var application *models.Application
	var hackathon *models.Hackathon

	err := s.tx.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		application, err = s.applicationRepo.FindByIDForUpdate(txCtx, applicationID)
		if err != nil {
			return s.mapApplicationError(err)
		}
		if application.ApplicantID != currentUserID {
			return ErrForbiddenOperation
		}
		if !application.CanWithdraw() {
			return ErrInvalidApplicationState
		}

		// team_pending после бесплатного допуска уже держит место — вернуть его.
		if application.HoldsSeat() {
			hackathon, err = s.hackathonRepo.GetByIDForUpdate(txCtx, application.HackathonID)
			if err != nil {
				return s.mapHackathonError(err)
			}
			if err := s.hackathonRepo.DecrementConfirmed(txCtx, hackathon.ID); err != nil {
				return err
			}
			hackathon.ConfirmedParticipants--
		}

		application.Status = models.StatusCancelled
		return s.applicationRepo.Update(txCtx, application)
	})
	if err != nil {
		return nil, err
	}

	if hackathon != nil {
		s.publishApplicationUpdate(hackathon, application)
	}
	return application, nil
}

func (s *applicationService) GetByID(ctx context.Context, applicationID, currentUserID int) (*models.Application, error) {
	application, err := s.applicationRepo.FindByID(ctx, applicationID)
	if err != nil {
		return nil, s.mapApplicationError(err)
	}

	hackathon, err := s.hackathonRepo.GetByID(ctx, application.HackathonID)
	if err != nil {
		return nil, s.mapHackathonError(err)
	}

	// Заявку видят только её автор и организатор хакатона.
	if application.ApplicantID != currentUserID && hackathon.OrganizerID != currentUserID {
		return nil, ErrForbiddenOperation
	}

	application.Hackathon = hackathon
	return application, nil
}

func (s *applicationService) ListMine(ctx context.Context, applicantID int) ([]*models.Application, error) {
	return s.applicationRepo.ListByApplicant(ctx, applicantID)
}

func (s *applicationService) ListByHackathon(ctx context.Context, hackathonID, currentUserID int, statusFilter *models.ApplicationStatus) ([]*models.Application, error) {
	hackathon, err := s.hackathonRepo.GetByID(ctx, hackathonID)
	if err != nil {
		return nil, s.mapHackathonError(err)
	}
	if hackathon.OrganizerID != currentUserID {
		return nil, ErrForbiddenOperation
	}
	return s.applicationRepo.ListByHackathon(ctx, hackathonID, statusFilter)
}

func (s *applicationService) Reject(ctx context.Context, applicationID, currentUserID int) (*models.Application, error) {
	var application *models.Application
	var hackathon *models.Hackathon

	err := s.tx.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		application, err = s.applicationRepo.FindByIDForUpdate(txCtx, applicationID)
		if err != nil {
			return s.mapApplicationError(err)
		}

		hackathon, err = s.hackathonRepo.GetByIDForUpdate(txCtx, application.HackathonID)
		if err != nil {
			return s.mapHackathonError(err)
		}
		if hackathon.OrganizerID != currentUserID {
			return ErrForbiddenOperation
		}

		if !models.CanTransition(application.Status, models.StatusRejected) {
			return ErrInvalidApplicationState
		}

		if application.HoldsSeat() {
			if err := s.hackathonRepo.DecrementConfirmed(txCtx, hackathon.ID); err != nil {
				return err
			}
			hackathon.ConfirmedParticipants--
		}

		application.Status = models.StatusRejected
		return s.applicationRepo.Update(txCtx, application)
	})
	if err != nil {
		return nil, err
	}

	s.publishApplicationUpdate(hackathon, application)
	return application, nil
}

func (s *applicationService) Stats(ctx context.Context, hackathonID, currentUserID int) (*ApplicationStats, error) {
	hackathon, err := s.hackathonRepo.GetByID(ctx, hackathonID)
	if err != nil {
		return nil, s.mapHackathonError(err)
	}
	if hackathon.OrganizerID != currentUserID {
		return nil, ErrForbiddenOperation
	}

	counts, err := s.applicationRepo.CountByStatus(ctx, hackathonID)
	if err != nil {
		return nil, err
	}

	stats := &ApplicationStats{
		HackathonID:    hackathonID,
		Applied:        counts[models.StatusApplied],
		PaymentPending: counts[models.StatusPaymentPending],
		TeamPending:    counts[models.StatusTeamPending],
		Confirmed:      counts[models.StatusConfirmed],
		Rejected:       counts[models.StatusRejected],
		Cancelled:      counts[models.StatusCancelled],
	}
	for _, count := range counts {
		stats.Total += count
	}
	return stats, nil
}

func (s *applicationService) ExpireOverduePayments(ctx context.Context) (int, error) {
	now := s.clk.Now()
	overdue, err := s.applicationRepo.ListOverduePayment(ctx, now, expireBatchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to list overdue applications: %w", err)
	}

	expired := 0
	for _, candidate := range overdue {
		rejected := false
		err := s.tx.WithTx(ctx, func(txCtx context.Context) error {
			application, err := s.applicationRepo.FindByIDForUpdate(txCtx, candidate.ID)
			if err != nil {
				return err
			}
			// Повторная проверка под блокировкой: заявка могла быть
			// оплачена или отозвана между выборкой и блокировкой.
			if application.Status != models.StatusPaymentPending || !application.PaymentOverdue(now) {
				return nil
			}
			application.Status = models.StatusRejected
			if err := s.applicationRepo.Update(txCtx, application); err != nil {
				return err
			}
			rejected = true
			return nil
		})
		if err != nil {
			s.logger.Error("failed to expire overdue application",
				slog.Int("application_id", candidate.ID), slog.Any("error", err))
			continue
		}
		if rejected {
			expired++
		}
	}
	return expired, nil
}

func (s *applicationService) publishApplicationUpdate(hackathon *models.Hackathon, application *models.Application) {
	if s.publisher == nil || hackathon == nil || application == nil {
		return
	}
	s.publisher.PublishHackathonUpdate(hackathon.ID, "APPLICATION_UPDATED", map[string]interface{}{
		"application_id": application.ID,
		"status":         application.Status,
		"payment_status": application.PaymentStatus,
	})
	s.publisher.PublishHackathonUpdate(hackathon.ID, "SEATS_UPDATED", map[string]interface{}{
		"confirmed_participants": hackathon.ConfirmedParticipants,
		"max_participants":       hackathon.MaxParticipants,
	})
}

func (s *applicationService) mapHackathonError(err error) error {
	if errors.Is(err, repositories.ErrHackathonNotFound) {
		return ErrHackathonNotFound
	}
	return err
}

func (s *applicationService) mapApplicationError(err error) error {
	if errors.Is(err, repositories.ErrApplicationNotFound) {
		return ErrApplicationNotFound
	}
	return err
}
