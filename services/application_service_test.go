package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hackmate/hackathon-system/clock"
	"github.com/hackmate/hackathon-system/models"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func intPtr(v int) *int { return &v }

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }

func testHackathon(overrides func(*models.Hackathon)) *models.Hackathon {
	h := &models.Hackathon{
		ID:                1,
		OrganizerID:       100,
		Title:             "Open Data Hack",
		Description:       "48 hours of civic data",
		Mode:              models.ModeOnline,
		MeetingLink:       strPtr("https://meet.example.com/odh"),
		RegistrationStart: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		RegistrationEnd:   time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC),
		StartDate:         time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC),
		EndDate:           time.Date(2026, 4, 3, 18, 0, 0, 0, time.UTC),
		RegistrationType:  models.RegistrationBoth,
		MinTeamSize:       2,
		MaxTeamSize:       5,
		MaxParticipants:   50,
		IsFree:            true,
		IsPublished:       true,
	}
	if overrides != nil {
		overrides(h)
	}
	return h
}

func newTestApplicationService(now time.Time, hackathons []*models.Hackathon, applications []*models.Application) (ApplicationService, *fakeHackathonRepo, *fakeApplicationRepo, *fakePublisher) {
	hackathonRepo := newFakeHackathonRepo(hackathons...)
	applicationRepo := newFakeApplicationRepo(applications...)
	publisher := &fakePublisher{}
	svc := NewApplicationService(
		&fakeTxManager{},
		applicationRepo,
		hackathonRepo,
		clock.NewFixed(now),
		testLogger,
		WithEventPublisher(publisher),
	)
	return svc, hackathonRepo, applicationRepo, publisher
}

func TestApplicationService_Register(t *testing.T) {
	t.Parallel()

	inWindow := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("free individual registration is confirmed immediately", func(t *testing.T) {
		svc, hackathonRepo, _, publisher := newTestApplicationService(inWindow, []*models.Hackathon{testHackathon(nil)}, nil)

		app, err := svc.Register(context.Background(), 1, 7, RegisterApplicationInput{
			ApplicationType: models.ApplicationIndividual,
			SkillsBringing:  []string{"go", "sql"},
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if app.Status != models.StatusConfirmed {
			t.Fatalf("expected status %s, got %s", models.StatusConfirmed, app.Status)
		}
		if app.PaymentStatus != models.PaymentNotRequired {
			t.Fatalf("expected payment status %s, got %s", models.PaymentNotRequired, app.PaymentStatus)
		}
		if app.ConfirmedAt == nil || !app.ConfirmedAt.Equal(inWindow) {
			t.Fatalf("expected confirmed_at %v, got %v", inWindow, app.ConfirmedAt)
		}
		if got := hackathonRepo.confirmed(1); got != 1 {
			t.Fatalf("expected 1 confirmed participant, got %d", got)
		}
		if len(publisher.events) == 0 {
			t.Fatalf("expected live events to be published")
		}
	})

	t.Run("free team-only registration parks in team_pending but holds a seat", func(t *testing.T) {
		hackathon := testHackathon(func(h *models.Hackathon) {
			h.RegistrationType = models.RegistrationTeam
		})
		svc, hackathonRepo, _, _ := newTestApplicationService(inWindow, []*models.Hackathon{hackathon}, nil)

		app, err := svc.Register(context.Background(), 1, 7, RegisterApplicationInput{
			ApplicationType:   models.ApplicationTeamLeader,
			PreferredTeamSize: intPtr(3),
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if app.Status != models.StatusTeamPending {
			t.Fatalf("expected status %s, got %s", models.StatusTeamPending, app.Status)
		}
		if !app.LookingForTeam {
			t.Fatalf("expected looking_for_team to be forced for team-only hackathons")
		}
		if got := hackathonRepo.confirmed(1); got != 1 {
			t.Fatalf("expected seat to be held, got %d confirmed", got)
		}
	})

	t.Run("paid registration is payment_pending with capped deadline", func(t *testing.T) {
		hackathon := testHackathon(func(h *models.Hackathon) {
			h.IsFree = false
			h.RegistrationFee = 500
		})
		svc, hackathonRepo, _, _ := newTestApplicationService(inWindow, []*models.Hackathon{hackathon}, nil)

		app, err := svc.Register(context.Background(), 1, 7, RegisterApplicationInput{
			ApplicationType: models.ApplicationIndividual,
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if app.Status != models.StatusPaymentPending {
			t.Fatalf("expected status %s, got %s", models.StatusPaymentPending, app.Status)
		}
		if app.PaymentDeadline == nil || !app.PaymentDeadline.Equal(inWindow.Add(24*time.Hour)) {
			t.Fatalf("expected deadline %v, got %v", inWindow.Add(24*time.Hour), app.PaymentDeadline)
		}
		if got := hackathonRepo.confirmed(1); got != 0 {
			t.Fatalf("payment_pending must not hold a seat, got %d confirmed", got)
		}
	})

	t.Run("payment deadline never extends past registration end", func(t *testing.T) {
		nearEnd := time.Date(2026, 3, 19, 20, 0, 0, 0, time.UTC)
		hackathon := testHackathon(func(h *models.Hackathon) {
			h.IsFree = false
			h.RegistrationFee = 500
		})
		svc, _, _, _ := newTestApplicationService(nearEnd, []*models.Hackathon{hackathon}, nil)

		app, err := svc.Register(context.Background(), 1, 7, RegisterApplicationInput{
			ApplicationType: models.ApplicationIndividual,
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !app.PaymentDeadline.Equal(hackathon.RegistrationEnd) {
			t.Fatalf("expected deadline clamped to %v, got %v", hackathon.RegistrationEnd, app.PaymentDeadline)
		}
	})

	t.Run("rejects when registration window is closed", func(t *testing.T) {
		afterEnd := time.Date(2026, 3, 21, 0, 0, 0, 0, time.UTC)
		svc, _, _, _ := newTestApplicationService(afterEnd, []*models.Hackathon{testHackathon(nil)}, nil)

		_, err := svc.Register(context.Background(), 1, 7, RegisterApplicationInput{
			ApplicationType: models.ApplicationIndividual,
		})
		if !errors.Is(err, ErrRegistrationClosed) {
			t.Fatalf("expected ErrRegistrationClosed, got %v", err)
		}
	})

	t.Run("rejects duplicate active application", func(t *testing.T) {
		existing := &models.Application{
			HackathonID: 1, ApplicantID: 7,
			ApplicationType: models.ApplicationIndividual,
			Status:          models.StatusConfirmed,
		}
		svc, _, _, _ := newTestApplicationService(inWindow, []*models.Hackathon{testHackathon(nil)}, []*models.Application{existing})

		_, err := svc.Register(context.Background(), 1, 7, RegisterApplicationInput{
			ApplicationType: models.ApplicationIndividual,
		})
		if !errors.Is(err, ErrAlreadyApplied) {
			t.Fatalf("expected ErrAlreadyApplied, got %v", err)
		}
	})

	t.Run("allows re-applying after cancellation", func(t *testing.T) {
		cancelled := &models.Application{
			HackathonID: 1, ApplicantID: 7,
			ApplicationType: models.ApplicationIndividual,
			Status:          models.StatusCancelled,
		}
		svc, _, _, _ := newTestApplicationService(inWindow, []*models.Hackathon{testHackathon(nil)}, []*models.Application{cancelled})

		if _, err := svc.Register(context.Background(), 1, 7, RegisterApplicationInput{
			ApplicationType: models.ApplicationIndividual,
		}); err != nil {
			t.Fatalf("expected cancelled application to not block, got %v", err)
		}
	})

	t.Run("rejects organizer applying to own hackathon", func(t *testing.T) {
		svc, _, _, _ := newTestApplicationService(inWindow, []*models.Hackathon{testHackathon(nil)}, nil)

		_, err := svc.Register(context.Background(), 1, 100, RegisterApplicationInput{
			ApplicationType: models.ApplicationIndividual,
		})
		if !errors.Is(err, ErrOrganizerSelfApply) {
			t.Fatalf("expected ErrOrganizerSelfApply, got %v", err)
		}
	})

	t.Run("rejects application type not allowed by registration policy", func(t *testing.T) {
		hackathon := testHackathon(func(h *models.Hackathon) {
			h.RegistrationType = models.RegistrationIndividual
		})
		svc, _, _, _ := newTestApplicationService(inWindow, []*models.Hackathon{hackathon}, nil)

		_, err := svc.Register(context.Background(), 1, 7, RegisterApplicationInput{
			ApplicationType:   models.ApplicationTeamLeader,
			PreferredTeamSize: intPtr(3),
		})
		if !errors.Is(err, ErrRegistrationTypeDenied) {
			t.Fatalf("expected ErrRegistrationTypeDenied, got %v", err)
		}
	})

	t.Run("rejects when hackathon is full", func(t *testing.T) {
		hackathon := testHackathon(func(h *models.Hackathon) {
			h.MaxParticipants = 2
			h.ConfirmedParticipants = 2
		})
		svc, _, _, _ := newTestApplicationService(inWindow, []*models.Hackathon{hackathon}, nil)

		_, err := svc.Register(context.Background(), 1, 7, RegisterApplicationInput{
			ApplicationType: models.ApplicationIndividual,
		})
		if !errors.Is(err, ErrHackathonFull) {
			t.Fatalf("expected ErrHackathonFull, got %v", err)
		}
	})

	t.Run("rejects team leader with preferred size out of bounds", func(t *testing.T) {
		svc, _, _, _ := newTestApplicationService(inWindow, []*models.Hackathon{testHackathon(nil)}, nil)

		_, err := svc.Register(context.Background(), 1, 7, RegisterApplicationInput{
			ApplicationType:   models.ApplicationTeamLeader,
			PreferredTeamSize: intPtr(9),
		})
		if !errors.Is(err, ErrTeamSizeOutOfBounds) {
			t.Fatalf("expected ErrTeamSizeOutOfBounds, got %v", err)
		}
	})

	t.Run("unpublished hackathon looks like it does not exist", func(t *testing.T) {
		hackathon := testHackathon(func(h *models.Hackathon) {
			h.IsPublished = false
		})
		svc, _, _, _ := newTestApplicationService(inWindow, []*models.Hackathon{hackathon}, nil)

		_, err := svc.Register(context.Background(), 1, 7, RegisterApplicationInput{
			ApplicationType: models.ApplicationIndividual,
		})
		if !errors.Is(err, ErrHackathonNotFound) {
			t.Fatalf("expected ErrHackathonNotFound, got %v", err)
		}
	})
}

func TestApplicationService_Register_ConcurrentSeats(t *testing.T) {
	t.Parallel()

	inWindow := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	const seats = 5
	const contenders = 40

	hackathon := testHackathon(func(h *models.Hackathon) {
		h.MaxParticipants = seats
	})
	svc, hackathonRepo, _, _ := newTestApplicationService(inWindow, []*models.Hackathon{hackathon}, nil)

	var g errgroup.Group
	results := make([]error, contenders)
	for i := 0; i < contenders; i++ {
		i := i
		g.Go(func() error {
			_, err := svc.Register(context.Background(), 1, 1000+i, RegisterApplicationInput{
				ApplicationType: models.ApplicationIndividual,
			})
			results[i] = err
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("unexpected errgroup error: %v", err)
	}

	admitted, full := 0, 0
	for _, err := range results {
		switch {
		case err == nil:
			admitted++
		case errors.Is(err, ErrHackathonFull):
			full++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if admitted != seats {
		t.Fatalf("expected exactly %d admitted, got %d", seats, admitted)
	}
	if full != contenders-seats {
		t.Fatalf("expected %d rejected as full, got %d", contenders-seats, full)
	}
	if got := hackathonRepo.confirmed(1); got != seats {
		t.Fatalf("expected confirmed counter %d, got %d", seats, got)
	}
}

func TestApplicationService_ConfirmPayment(t *testing.T) {
	t.Parallel()

	inWindow := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	deadline := inWindow.Add(24 * time.Hour)

	paidHackathon := func() *models.Hackathon {
		return testHackathon(func(h *models.Hackathon) {
			h.IsFree = false
			h.RegistrationFee = 500
		})
	}
	pendingApp := func() *models.Application {
		return &models.Application{
			ID: 1, HackathonID: 1, ApplicantID: 7,
			ApplicationType: models.ApplicationIndividual,
			Status:          models.StatusPaymentPending,
			PaymentStatus:   models.PaymentPending,
			AppliedAt:       inWindow,
			PaymentDeadline: timePtr(deadline),
		}
	}

	t.Run("confirms application and takes a seat", func(t *testing.T) {
		svc, hackathonRepo, _, _ := newTestApplicationService(inWindow.Add(time.Hour),
			[]*models.Hackathon{paidHackathon()}, []*models.Application{pendingApp()})

		app, err := svc.ConfirmPayment(context.Background(), 1, PaymentEvent{Amount: 500, PaymentReference: "pay_123"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if app.Status != models.StatusConfirmed {
			t.Fatalf("expected status %s, got %s", models.StatusConfirmed, app.Status)
		}
		if app.PaymentStatus != models.PaymentCompleted {
			t.Fatalf("expected payment status %s, got %s", models.PaymentCompleted, app.PaymentStatus)
		}
		if app.AmountPaid == nil || *app.AmountPaid != 500 {
			t.Fatalf("expected amount_paid 500, got %v", app.AmountPaid)
		}
		if app.PaymentReference == nil || *app.PaymentReference != "pay_123" {
			t.Fatalf("expected payment reference to be stored, got %v", app.PaymentReference)
		}
		if got := hackathonRepo.confirmed(1); got != 1 {
			t.Fatalf("expected seat taken, got %d", got)
		}
	})

	t.Run("team-only hackathon moves paid application to team_pending", func(t *testing.T) {
		hackathon := paidHackathon()
		hackathon.RegistrationType = models.RegistrationTeam
		svc, _, _, _ := newTestApplicationService(inWindow.Add(time.Hour),
			[]*models.Hackathon{hackathon}, []*models.Application{pendingApp()})

		app, err := svc.ConfirmPayment(context.Background(), 1, PaymentEvent{Amount: 500})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if app.Status != models.StatusTeamPending {
			t.Fatalf("expected status %s, got %s", models.StatusTeamPending, app.Status)
		}
		if app.PaymentReference == nil || *app.PaymentReference == "" {
			t.Fatalf("expected generated payment reference")
		}
	})

	t.Run("rejects amount mismatch", func(t *testing.T) {
		svc, _, appRepo, _ := newTestApplicationService(inWindow.Add(time.Hour),
			[]*models.Hackathon{paidHackathon()}, []*models.Application{pendingApp()})

		_, err := svc.ConfirmPayment(context.Background(), 1, PaymentEvent{Amount: 499})
		if !errors.Is(err, ErrPaymentAmountMismatch) {
			t.Fatalf("expected ErrPaymentAmountMismatch, got %v", err)
		}
		stored, _ := appRepo.FindByID(context.Background(), 1)
		if stored.Status != models.StatusPaymentPending {
			t.Fatalf("application must stay payment_pending, got %s", stored.Status)
		}
	})

	t.Run("rejects payment after deadline", func(t *testing.T) {
		svc, _, _, _ := newTestApplicationService(deadline.Add(time.Minute),
			[]*models.Hackathon{paidHackathon()}, []*models.Application{pendingApp()})

		_, err := svc.ConfirmPayment(context.Background(), 1, PaymentEvent{Amount: 500})
		if !errors.Is(err, ErrPaymentDeadlineExceeded) {
			t.Fatalf("expected ErrPaymentDeadlineExceeded, got %v", err)
		}
	})

	t.Run("rejects payment for non-pending application", func(t *testing.T) {
		app := pendingApp()
		app.Status = models.StatusCancelled
		svc, _, _, _ := newTestApplicationService(inWindow.Add(time.Hour),
			[]*models.Hackathon{paidHackathon()}, []*models.Application{app})

		_, err := svc.ConfirmPayment(context.Background(), 1, PaymentEvent{Amount: 500})
		if !errors.Is(err, ErrInvalidApplicationState) {
			t.Fatalf("expected ErrInvalidApplicationState, got %v", err)
		}
	})

	t.Run("late payment into a full hackathon keeps application payment_pending", func(t *testing.T) {
		hackathon := paidHackathon()
		hackathon.MaxParticipants = 1
		hackathon.ConfirmedParticipants = 1
		svc, _, appRepo, _ := newTestApplicationService(inWindow.Add(time.Hour),
			[]*models.Hackathon{hackathon}, []*models.Application{pendingApp()})

		_, err := svc.ConfirmPayment(context.Background(), 1, PaymentEvent{Amount: 500})
		if !errors.Is(err, ErrHackathonFull) {
			t.Fatalf("expected ErrHackathonFull, got %v", err)
		}
		stored, _ := appRepo.FindByID(context.Background(), 1)
		if stored.Status != models.StatusPaymentPending {
			t.Fatalf("application must stay payment_pending, got %s", stored.Status)
		}
	})
}

func TestApplicationService_Withdraw(t *testing.T) {
	t.Parallel()

	inWindow := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("withdraws a seat-holding application and frees the seat", func(t *testing.T) {
		hackathon := testHackathon(func(h *models.Hackathon) {
			h.RegistrationType = models.RegistrationTeam
			h.ConfirmedParticipants = 1
		})
		app := &models.Application{
			ID: 1, HackathonID: 1, ApplicantID: 7,
			ApplicationType: models.ApplicationTeamLeader,
			Status:          models.StatusTeamPending,
			PaymentStatus:   models.PaymentNotRequired,
			ConfirmedAt:     timePtr(inWindow),
		}
		svc, hackathonRepo, _, _ := newTestApplicationService(inWindow, []*models.Hackathon{hackathon}, []*models.Application{app})

		withdrawn, err := svc.Withdraw(context.Background(), 1, 7)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if withdrawn.Status != models.StatusCancelled {
			t.Fatalf("expected status %s, got %s", models.StatusCancelled, withdrawn.Status)
		}
		if got := hackathonRepo.confirmed(1); got != 0 {
			t.Fatalf("expected seat freed, got %d", got)
		}
	})

	t.Run("second withdraw fails with invalid state", func(t *testing.T) {
		app := &models.Application{
			ID: 1, HackathonID: 1, ApplicantID: 7,
			ApplicationType: models.ApplicationIndividual,
			Status:          models.StatusPaymentPending,
			PaymentStatus:   models.PaymentPending,
		}
		svc, _, _, _ := newTestApplicationService(inWindow, []*models.Hackathon{testHackathon(nil)}, []*models.Application{app})

		if _, err := svc.Withdraw(context.Background(), 1, 7); err != nil {
			t.Fatalf("first withdraw failed: %v", err)
		}
		_, err := svc.Withdraw(context.Background(), 1, 7)
		if !errors.Is(err, ErrInvalidApplicationState) {
			t.Fatalf("expected ErrInvalidApplicationState on second withdraw, got %v", err)
		}
	})

	t.Run("forbids withdrawing someone else's application", func(t *testing.T) {
		app := &models.Application{
			ID: 1, HackathonID: 1, ApplicantID: 7,
			Status: models.StatusPaymentPending,
		}
		svc, _, _, _ := newTestApplicationService(inWindow, []*models.Hackathon{testHackathon(nil)}, []*models.Application{app})

		_, err := svc.Withdraw(context.Background(), 1, 8)
		if !errors.Is(err, ErrForbiddenOperation) {
			t.Fatalf("expected ErrForbiddenOperation, got %v", err)
		}
	})

	t.Run("confirmed paid application cannot be withdrawn", func(t *testing.T) {
		app := &models.Application{
			ID: 1, HackathonID: 1, ApplicantID: 7,
			Status:        models.StatusConfirmed,
			PaymentStatus: models.PaymentCompleted,
			ConfirmedAt:   timePtr(inWindow),
		}
		svc, _, _, _ := newTestApplicationService(inWindow, []*models.Hackathon{testHackathon(nil)}, []*models.Application{app})

		_, err := svc.Withdraw(context.Background(), 1, 7)
		if !errors.Is(err, ErrInvalidApplicationState) {
			t.Fatalf("expected ErrInvalidApplicationState, got %v", err)
		}
	})
}

func TestApplicationService_OrganizerOperations(t *testing.T) {
	t.Parallel()

	inWindow := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("organizer rejects an application and frees its seat", func(t *testing.T) {
		hackathon := testHackathon(func(h *models.Hackathon) {
			h.ConfirmedParticipants = 1
		})
		app := &models.Application{
			ID: 1, HackathonID: 1, ApplicantID: 7,
			Status:        models.StatusTeamPending,
			PaymentStatus: models.PaymentNotRequired,
			ConfirmedAt:   timePtr(inWindow),
		}
		svc, hackathonRepo, _, _ := newTestApplicationService(inWindow, []*models.Hackathon{hackathon}, []*models.Application{app})

		rejected, err := svc.Reject(context.Background(), 1, 100)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if rejected.Status != models.StatusRejected {
			t.Fatalf("expected status %s, got %s", models.StatusRejected, rejected.Status)
		}
		if got := hackathonRepo.confirmed(1); got != 0 {
			t.Fatalf("expected seat freed, got %d", got)
		}
	})

	t.Run("non-organizer cannot reject", func(t *testing.T) {
		app := &models.Application{
			ID: 1, HackathonID: 1, ApplicantID: 7,
			Status: models.StatusApplied,
		}
		svc, _, _, _ := newTestApplicationService(inWindow, []*models.Hackathon{testHackathon(nil)}, []*models.Application{app})

		_, err := svc.Reject(context.Background(), 1, 7)
		if !errors.Is(err, ErrForbiddenOperation) {
			t.Fatalf("expected ErrForbiddenOperation, got %v", err)
		}
	})

	t.Run("rejected is terminal", func(t *testing.T) {
		app := &models.Application{
			ID: 1, HackathonID: 1, ApplicantID: 7,
			Status: models.StatusRejected,
		}
		svc, _, _, _ := newTestApplicationService(inWindow, []*models.Hackathon{testHackathon(nil)}, []*models.Application{app})

		_, err := svc.Reject(context.Background(), 1, 100)
		if !errors.Is(err, ErrInvalidApplicationState) {
			t.Fatalf("expected ErrInvalidApplicationState, got %v", err)
		}
	})

	t.Run("stats are organizer-only and counted by status", func(t *testing.T) {
		apps := []*models.Application{
			{ID: 1, HackathonID: 1, ApplicantID: 7, Status: models.StatusConfirmed},
			{ID: 2, HackathonID: 1, ApplicantID: 8, Status: models.StatusConfirmed},
			{ID: 3, HackathonID: 1, ApplicantID: 9, Status: models.StatusPaymentPending},
			{ID: 4, HackathonID: 1, ApplicantID: 10, Status: models.StatusCancelled},
		}
		svc, _, _, _ := newTestApplicationService(inWindow, []*models.Hackathon{testHackathon(nil)}, apps)

		if _, err := svc.Stats(context.Background(), 1, 7); !errors.Is(err, ErrForbiddenOperation) {
			t.Fatalf("expected ErrForbiddenOperation for non-organizer, got %v", err)
		}

		stats, err := svc.Stats(context.Background(), 1, 100)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if stats.Total != 4 || stats.Confirmed != 2 || stats.PaymentPending != 1 || stats.Cancelled != 1 {
			t.Fatalf("unexpected stats: %+v", stats)
		}
	})

	t.Run("application is visible to applicant and organizer only", func(t *testing.T) {
		app := &models.Application{
			ID: 1, HackathonID: 1, ApplicantID: 7,
			Status: models.StatusConfirmed,
		}
		svc, _, _, _ := newTestApplicationService(inWindow, []*models.Hackathon{testHackathon(nil)}, []*models.Application{app})

		if _, err := svc.GetByID(context.Background(), 1, 7); err != nil {
			t.Fatalf("applicant should see own application, got %v", err)
		}
		if _, err := svc.GetByID(context.Background(), 1, 100); err != nil {
			t.Fatalf("organizer should see application, got %v", err)
		}
		if _, err := svc.GetByID(context.Background(), 1, 55); !errors.Is(err, ErrForbiddenOperation) {
			t.Fatalf("expected ErrForbiddenOperation for stranger, got %v", err)
		}
	})
}

func TestApplicationService_ExpireOverduePayments(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 12, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	apps := []*models.Application{
		{ID: 1, HackathonID: 1, ApplicantID: 7, Status: models.StatusPaymentPending, PaymentStatus: models.PaymentPending, PaymentDeadline: timePtr(past)},
		{ID: 2, HackathonID: 1, ApplicantID: 8, Status: models.StatusPaymentPending, PaymentStatus: models.PaymentPending, PaymentDeadline: timePtr(future)},
		{ID: 3, HackathonID: 1, ApplicantID: 9, Status: models.StatusConfirmed, PaymentStatus: models.PaymentCompleted, PaymentDeadline: timePtr(past)},
	}
	svc, _, appRepo, _ := newTestApplicationService(now, []*models.Hackathon{testHackathon(nil)}, apps)

	expired, err := svc.ExpireOverduePayments(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if expired != 1 {
		t.Fatalf("expected 1 expired application, got %d", expired)
	}

	first, _ := appRepo.FindByID(context.Background(), 1)
	if first.Status != models.StatusRejected {
		t.Fatalf("expected overdue application rejected, got %s", first.Status)
	}
	second, _ := appRepo.FindByID(context.Background(), 2)
	if second.Status != models.StatusPaymentPending {
		t.Fatalf("expected future-deadline application untouched, got %s", second.Status)
	}
}
