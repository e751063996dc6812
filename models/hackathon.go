package models

import "time"

// HackathonMode представляет формат проведения хакатона, соответствует ENUM в БД.
type HackathonMode string

const (
	ModeOnline  HackathonMode = "online"
	ModeOffline HackathonMode = "offline"
	ModeHybrid  HackathonMode = "hybrid"
)

func (m HackathonMode) Valid() bool {
	switch m {
	case ModeOnline, ModeOffline, ModeHybrid:
		return true
	}
	return false
}

// RegistrationType определяет, какие типы заявок принимает хакатон.
type RegistrationType string

const (
	RegistrationIndividual RegistrationType = "individual"
	RegistrationTeam       RegistrationType = "team"
	RegistrationBoth       RegistrationType = "both"
)

func (t RegistrationType) Valid() bool {
	switch t {
	case RegistrationIndividual, RegistrationTeam, RegistrationBoth:
		return true
	}
	return false
}

// Hackathon представляет хакатон.
//
// ConfirmedParticipants — единственный источник правды о занятых местах.
// Счётчик изменяется только внутри транзакций сервиса заявок под блокировкой
// строки хакатона и всегда остаётся в пределах [0, MaxParticipants].
type Hackathon struct {
	ID          int           `json:"id" db:"id"`
	OrganizerID int           `json:"organizer_id" db:"organizer_id"`
	Title       string        `json:"title" db:"title"`
	Description string        `json:"description" db:"description"`
	Mode        HackathonMode `json:"mode" db:"mode"`
	Venue       *string       `json:"venue,omitempty" db:"venue"`
	MeetingLink *string       `json:"meeting_link,omitempty" db:"meeting_link"`

	RegistrationStart time.Time `json:"registration_start" db:"registration_start"`
	RegistrationEnd   time.Time `json:"registration_end" db:"registration_end"`
	StartDate         time.Time `json:"start_date" db:"start_date"`
	EndDate           time.Time `json:"end_date" db:"end_date"`

	RegistrationType      RegistrationType `json:"registration_type" db:"registration_type"`
	MinTeamSize           int              `json:"min_team_size" db:"min_team_size"`
	MaxTeamSize           int              `json:"max_team_size" db:"max_team_size"`
	MaxParticipants       int              `json:"max_participants" db:"max_participants"`
	ConfirmedParticipants int              `json:"confirmed_participants" db:"confirmed_participants"`

	IsFree          bool `json:"is_free" db:"is_free"`
	RegistrationFee int  `json:"registration_fee" db:"registration_fee"`

	IsPublished bool      `json:"is_published" db:"is_published"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`

	// Опциональные связанные сущности (не мапятся напрямую)
	Organizer *User `json:"organizer,omitempty" db:"-"`
}

// RegistrationOpen сообщает, принимает ли хакатон заявки в момент now.
// Окно приёма — закрытый интервал [RegistrationStart, RegistrationEnd].
func (h *Hackathon) RegistrationOpen(now time.Time) bool {
	return !now.Before(h.RegistrationStart) && !now.After(h.RegistrationEnd)
}

// RegistrationUpcoming — окно ещё не открылось.
func (h *Hackathon) RegistrationUpcoming(now time.Time) bool {
	return now.Before(h.RegistrationStart)
}

// RegistrationClosed — окно уже закрылось.
func (h *Hackathon) RegistrationClosed(now time.Time) bool {
	return now.After(h.RegistrationEnd)
}

// EventRunning — хакатон идёт прямо сейчас.
func (h *Hackathon) EventRunning(now time.Time) bool {
	return !now.Before(h.StartDate) && now.Before(h.EndDate)
}

// AllowsApplicationType проверяет, разрешён ли тип заявки политикой регистрации.
func (h *Hackathon) AllowsApplicationType(t ApplicationType) bool {
	switch t {
	case ApplicationIndividual:
		return h.RegistrationType == RegistrationIndividual || h.RegistrationType == RegistrationBoth
	case ApplicationTeamLeader:
		return h.RegistrationType == RegistrationTeam || h.RegistrationType == RegistrationBoth
	}
	return false
}

// TeamFormationRequired — участие возможно только в составе команды.
func (h *Hackathon) TeamFormationRequired() bool {
	return h.RegistrationType == RegistrationTeam
}

// SeatsLeft возвращает количество свободных мест.
func (h *Hackathon) SeatsLeft() int {
	left := h.MaxParticipants - h.ConfirmedParticipants
	if left < 0 {
		return 0
	}
	return left
}

// Full — все места заняты.
func (h *Hackathon) Full() bool {
	return h.ConfirmedParticipants >= h.MaxParticipants
}
