package services

import (
	"context"
	"sync"
	"time"

	"github.com/hackmate/hackathon-system/models"
	"github.com/hackmate/hackathon-system/repositories"
)

// fakeTxManager сериализует все "транзакции" одним мьютексом, моделируя
// блокировки строк FOR UPDATE достаточно грубо для тестов сервисов.
type fakeTxManager struct {
	mu sync.Mutex
}

func (m *fakeTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx)
}

type fakeHackathonRepo struct {
	mu         sync.Mutex
	hackathons map[int]*models.Hackathon
	nextID     int
}

func newFakeHackathonRepo(hackathons ...*models.Hackathon) *fakeHackathonRepo {
	repo := &fakeHackathonRepo{
		hackathons: make(map[int]*models.Hackathon),
		nextID:     1,
	}
	for _, h := range hackathons {
		if h.ID == 0 {
			h.ID = repo.nextID
		}
		if h.ID >= repo.nextID {
			repo.nextID = h.ID + 1
		}
		copied := *h
		repo.hackathons[h.ID] = &copied
	}
	return repo
}

func (r *fakeHackathonRepo) Create(ctx context.Context, h *models.Hackathon) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.hackathons {
		if existing.OrganizerID == h.OrganizerID && existing.Title == h.Title {
			return repositories.ErrHackathonTitleTaken
		}
	}
	h.ID = r.nextID
	r.nextID++
	h.CreatedAt = time.Now()
	copied := *h
	r.hackathons[h.ID] = &copied
	return nil
}

func (r *fakeHackathonRepo) GetByID(ctx context.Context, id int) (*models.Hackathon, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.hackathons[id]
	if !ok {
		return nil, repositories.ErrHackathonNotFound
	}
	copied := *h
	return &copied, nil
}

func (r *fakeHackathonRepo) GetByIDForUpdate(ctx context.Context, id int) (*models.Hackathon, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeHackathonRepo) List(ctx context.Context, filter repositories.ListHackathonsFilter) ([]models.Hackathon, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []models.Hackathon
	for _, h := range r.hackathons {
		if filter.OnlyPublished && !h.IsPublished {
			continue
		}
		if filter.OrganizerID != nil && h.OrganizerID != *filter.OrganizerID {
			continue
		}
		if filter.Mode != nil && h.Mode != *filter.Mode {
			continue
		}
		result = append(result, *h)
	}
	return result, nil
}

func (r *fakeHackathonRepo) Update(ctx context.Context, h *models.Hackathon) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.hackathons[h.ID]
	if !ok {
		return repositories.ErrHackathonNotFound
	}
	confirmed := stored.ConfirmedParticipants
	copied := *h
	copied.ConfirmedParticipants = confirmed
	r.hackathons[h.ID] = &copied
	return nil
}

func (r *fakeHackathonRepo) IncrementConfirmed(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.hackathons[id]
	if !ok {
		return repositories.ErrHackathonNotFound
	}
	if h.ConfirmedParticipants >= h.MaxParticipants {
		return repositories.ErrHackathonSeatOverflow
	}
	h.ConfirmedParticipants++
	return nil
}

func (r *fakeHackathonRepo) DecrementConfirmed(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.hackathons[id]
	if !ok {
		return repositories.ErrHackathonNotFound
	}
	if h.ConfirmedParticipants > 0 {
		h.ConfirmedParticipants--
	}
	return nil
}

func (r *fakeHackathonRepo) confirmed(id int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hackathons[id].ConfirmedParticipants
}

type fakeApplicationRepo struct {
	mu           sync.Mutex
	applications map[int]*models.Application
	nextID       int
}

func newFakeApplicationRepo(applications ...*models.Application) *fakeApplicationRepo {
	repo := &fakeApplicationRepo{
		applications: make(map[int]*models.Application),
		nextID:       1,
	}
	for _, a := range applications {
		if a.ID == 0 {
			a.ID = repo.nextID
		}
		if a.ID >= repo.nextID {
			repo.nextID = a.ID + 1
		}
		copied := *a
		repo.applications[a.ID] = &copied
	}
	return repo
}

func (r *fakeApplicationRepo) Create(ctx context.Context, a *models.Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.applications {
		if existing.HackathonID == a.HackathonID && existing.ApplicantID == a.ApplicantID && existing.Active() {
			return repositories.ErrApplicationConflict
		}
	}
	a.ID = r.nextID
	r.nextID++
	copied := *a
	r.applications[a.ID] = &copied
	return nil
}

func (r *fakeApplicationRepo) FindByID(ctx context.Context, id int) (*models.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.applications[id]
	if !ok {
		return nil, repositories.ErrApplicationNotFound
	}
	copied := *a
	return &copied, nil
}

func (r *fakeApplicationRepo) FindByIDForUpdate(ctx context.Context, id int) (*models.Application, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeApplicationRepo) FindActiveByUserAndHackathon(ctx context.Context, applicantID, hackathonID int) (*models.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.applications {
		if a.ApplicantID == applicantID && a.HackathonID == hackathonID && a.Active() {
			copied := *a
			return &copied, nil
		}
	}
	return nil, repositories.ErrApplicationNotFound
}

func (r *fakeApplicationRepo) ListByApplicant(ctx context.Context, applicantID int) ([]*models.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*models.Application
	for _, a := range r.applications {
		if a.ApplicantID == applicantID {
			copied := *a
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (r *fakeApplicationRepo) ListByHackathon(ctx context.Context, hackathonID int, statusFilter *models.ApplicationStatus) ([]*models.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*models.Application
	for _, a := range r.applications {
		if a.HackathonID != hackathonID {
			continue
		}
		if statusFilter != nil && a.Status != *statusFilter {
			continue
		}
		copied := *a
		result = append(result, &copied)
	}
	return result, nil
}

func (r *fakeApplicationRepo) ListOverduePayment(ctx context.Context, now time.Time, limit int) ([]*models.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*models.Application
	for _, a := range r.applications {
		if a.Status == models.StatusPaymentPending && a.PaymentOverdue(now) {
			copied := *a
			result = append(result, &copied)
			if len(result) == limit {
				break
			}
		}
	}
	return result, nil
}

func (r *fakeApplicationRepo) Update(ctx context.Context, a *models.Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.applications[a.ID]; !ok {
		return repositories.ErrApplicationNotFound
	}
	copied := *a
	r.applications[a.ID] = &copied
	return nil
}

func (r *fakeApplicationRepo) CountByStatus(ctx context.Context, hackathonID int) (map[models.ApplicationStatus]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[models.ApplicationStatus]int)
	for _, a := range r.applications {
		if a.HackathonID == hackathonID {
			counts[a.Status]++
		}
	}
	return counts, nil
}

type fakeUserRepo struct {
	mu     sync.Mutex
	users  map[int]*models.User
	nextID int
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	repo := &fakeUserRepo{
		users:  make(map[int]*models.User),
		nextID: 1,
	}
	for _, u := range users {
		if u.ID == 0 {
			u.ID = repo.nextID
		}
		if u.ID >= repo.nextID {
			repo.nextID = u.ID + 1
		}
		copied := *u
		repo.users[u.ID] = &copied
	}
	return repo
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return repositories.ErrUserEmailConflict
		}
	}
	user.ID = r.nextID
	r.nextID++
	user.CreatedAt = time.Now()
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id int) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

type publishedEvent struct {
	hackathonID int
	eventType   string
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *fakePublisher) PublishHackathonUpdate(hackathonID int, eventType string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{hackathonID: hackathonID, eventType: eventType})
}
