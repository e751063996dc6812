package models

import "time"

// ApplicationType представляет тип заявки на участие.
type ApplicationType string

const (
	ApplicationIndividual ApplicationType = "individual"
	ApplicationTeamLeader ApplicationType = "team_leader"
)

func (t ApplicationType) Valid() bool {
	return t == ApplicationIndividual || t == ApplicationTeamLeader
}

// ApplicationStatus представляет статусы заявки, соответствующие ENUM в БД.
type ApplicationStatus string

const (
	StatusApplied        ApplicationStatus = "applied"
	StatusPaymentPending ApplicationStatus = "payment_pending"
	StatusTeamPending    ApplicationStatus = "team_pending"
	StatusConfirmed      ApplicationStatus = "confirmed"
	StatusRejected       ApplicationStatus = "rejected"
	StatusCancelled      ApplicationStatus = "cancelled"
)

func (s ApplicationStatus) Valid() bool {
	switch s {
	case StatusApplied, StatusPaymentPending, StatusTeamPending,
		StatusConfirmed, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// Terminal — из статуса нет ни одного разрешённого перехода.
func (s ApplicationStatus) Terminal() bool {
	return s == StatusRejected || s == StatusCancelled || s == StatusConfirmed
}

// applicationTransitions перечисляет все разрешённые переходы статусов.
// Всё, чего нет в карте, запрещено.
var applicationTransitions = map[ApplicationStatus][]ApplicationStatus{
	StatusApplied:        {StatusTeamPending, StatusConfirmed, StatusRejected, StatusCancelled},
	StatusPaymentPending: {StatusTeamPending, StatusConfirmed, StatusRejected, StatusCancelled},
	StatusTeamPending:    {StatusConfirmed, StatusRejected, StatusCancelled},
	StatusConfirmed:      {},
	StatusRejected:       {},
	StatusCancelled:      {},
}

// CanTransition проверяет, разрешён ли переход заявки из статуса from в to.
func CanTransition(from, to ApplicationStatus) bool {
	for _, allowed := range applicationTransitions[from] {
		if to == allowed {
			return true
		}
	}
	return false
}

// PaymentStatus представляет состояние оплаты заявки.
type PaymentStatus string

const (
	PaymentNotRequired PaymentStatus = "not_required"
	PaymentPending     PaymentStatus = "pending"
	PaymentCompleted   PaymentStatus = "completed"
)

func (s PaymentStatus) Valid() bool {
	return s == PaymentNotRequired || s == PaymentPending || s == PaymentCompleted
}

// Application представляет заявку пользователя на участие в хакатоне.
// На пару (hackathon_id, applicant_id) существует не более одной
// неотменённой заявки. Заявки никогда не удаляются.
type Application struct {
	ID              int               `json:"id" db:"id"`
	HackathonID     int               `json:"hackathon_id" db:"hackathon_id"`
	ApplicantID     int               `json:"applicant_id" db:"applicant_id"`
	ApplicationType ApplicationType   `json:"application_type" db:"application_type"`
	Status          ApplicationStatus `json:"status" db:"status"`
	PaymentStatus   PaymentStatus     `json:"payment_status" db:"payment_status"`

	LookingForTeam            bool     `json:"looking_for_team" db:"looking_for_team"`
	PreferredTeamSize         *int     `json:"preferred_team_size,omitempty" db:"preferred_team_size"`
	SkillsBringing            []string `json:"skills_bringing" db:"skills_bringing"`
	PreferredRoles            []string `json:"preferred_roles" db:"preferred_roles"`
	OpenToRemoteCollaboration bool     `json:"open_to_remote_collaboration" db:"open_to_remote_collaboration"`
	ProjectIdeas              string   `json:"project_ideas" db:"project_ideas"`

	AppliedAt        time.Time  `json:"applied_at" db:"applied_at"`
	PaymentDeadline  *time.Time `json:"payment_deadline,omitempty" db:"payment_deadline"`
	ConfirmedAt      *time.Time `json:"confirmed_at,omitempty" db:"confirmed_at"`
	AmountPaid       *int       `json:"amount_paid,omitempty" db:"amount_paid"`
	PaymentReference *string    `json:"payment_reference,omitempty" db:"payment_reference"`

	// Опциональные связанные сущности (не мапятся напрямую)
	Hackathon *Hackathon `json:"hackathon,omitempty" db:"-"`
	Applicant *User      `json:"applicant,omitempty" db:"-"`
}

// Active — заявка учитывается при проверке "одна заявка на пользователя".
func (a *Application) Active() bool {
	return a.Status != StatusCancelled
}

// HoldsSeat — заявка занимает место в счётчике подтверждённых участников.
// Место занимают подтверждённые заявки и заявки, ожидающие формирования
// команды уже после допуска (ConfirmedAt выставлен).
func (a *Application) HoldsSeat() bool {
	if a.ConfirmedAt == nil {
		return false
	}
	return a.Status == StatusConfirmed || a.Status == StatusTeamPending
}

// CanWithdraw сообщает, разрешён ли отзыв заявки самим участником.
// Подтверждённые и оплаченные заявки отзыву не подлежат: снятие
// оплаченного места — отдельная операция организатора.
func (a *Application) CanWithdraw() bool {
	switch a.Status {
	case StatusCancelled, StatusRejected, StatusConfirmed:
		return false
	}
	return a.PaymentStatus != PaymentCompleted
}

// PaymentOverdue — срок оплаты заявки истёк к моменту now.
func (a *Application) PaymentOverdue(now time.Time) bool {
	return a.PaymentDeadline != nil && now.After(*a.PaymentDeadline)
}
