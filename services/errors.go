package services

import (
	"errors"
	"fmt"
	"strings"
)

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурсы
	ErrHackathonNotFound   = errors.New("hackathon not found")
	ErrHackathonTitleTaken = errors.New("organizer already has a hackathon with this title")
	ErrApplicationNotFound = errors.New("application not found")
	ErrUserNotFound        = errors.New("user not found")

	// Ошибки допуска (порядок проверок — см. ApplicationService.Register)
	ErrRegistrationClosed     = errors.New("hackathon registration is not open")
	ErrAlreadyApplied         = errors.New("user has already applied to this hackathon")
	ErrOrganizerSelfApply     = errors.New("organizers cannot apply to their own hackathon")
	ErrRegistrationTypeDenied = errors.New("application type is not permitted by hackathon registration policy")
	ErrHackathonFull          = errors.New("hackathon has reached its maximum number of confirmed participants")
	ErrTeamSizeOutOfBounds    = errors.New("preferred team size is outside the hackathon team size bounds")

	// Ошибки жизненного цикла заявки
	ErrInvalidApplicationState = errors.New("operation is not allowed from the current application status")
	ErrPaymentDeadlineExceeded = errors.New("payment deadline has passed")
	ErrPaymentAmountMismatch   = errors.New("payment amount does not match the registration fee")

	// Ошибки авторизации и доступа
	ErrForbiddenOperation     = errors.New("operation not allowed for the current user")
	ErrAuthInvalidCredentials = errors.New("invalid email or password")
	ErrAuthEmailTaken         = errors.New("email is already taken")
)

// FieldError описывает одно нарушение на уровне поля конфигурации.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError агрегирует все нарушения конфигурации хакатона сразу,
// а не только первое. Предупреждения (advisory) в ошибку не входят.
type ValidationError struct {
	Violations []FieldError `json:"violations"`
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, fmt.Sprintf("%s: %s", v.Field, v.Reason))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
