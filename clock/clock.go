package clock

import "time"

// Clock позволяет внедрять время в сервисы вместо прямых вызовов time.Now.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// NewSystem возвращает часы, основанные на time.Now.
func NewSystem() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

type fixedClock struct {
	now time.Time
}

// NewFixed возвращает часы, всегда показывающие один и тот же момент (для тестов).
func NewFixed(t time.Time) Clock {
	return fixedClock{now: t.UTC()}
}

func (f fixedClock) Now() time.Time {
	return f.now
}
