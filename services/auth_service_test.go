package services

import (
	"context"
	"errors"
	"testing"
)

func TestAuthService(t *testing.T) {
	t.Parallel()

	newSvc := func() AuthService {
		return NewAuthService(newFakeUserRepo())
	}

	t.Run("signup then login", func(t *testing.T) {
		svc := newSvc()
		user, err := svc.SignUp(context.Background(), SignUpInput{
			FirstName: "Asha",
			Email:     "asha@example.com",
			Password:  "correct horse battery",
		})
		if err != nil {
			t.Fatalf("signup failed: %v", err)
		}
		if user.ID == 0 {
			t.Fatalf("expected user ID to be assigned")
		}
		if user.PasswordHash != "" {
			t.Fatalf("password hash must not leak out of the service")
		}

		logged, err := svc.Login(context.Background(), LoginInput{
			Email:    "asha@example.com",
			Password: "correct horse battery",
		})
		if err != nil {
			t.Fatalf("login failed: %v", err)
		}
		if logged.ID != user.ID {
			t.Fatalf("expected user %d, got %d", user.ID, logged.ID)
		}
	})

	t.Run("duplicate email", func(t *testing.T) {
		svc := newSvc()
		input := SignUpInput{FirstName: "Asha", Email: "asha@example.com", Password: "secret-pass"}
		if _, err := svc.SignUp(context.Background(), input); err != nil {
			t.Fatalf("first signup failed: %v", err)
		}
		if _, err := svc.SignUp(context.Background(), input); !errors.Is(err, ErrAuthEmailTaken) {
			t.Fatalf("expected ErrAuthEmailTaken, got %v", err)
		}
	})

	t.Run("wrong password and unknown email look alike", func(t *testing.T) {
		svc := newSvc()
		if _, err := svc.SignUp(context.Background(), SignUpInput{
			FirstName: "Asha", Email: "asha@example.com", Password: "secret-pass",
		}); err != nil {
			t.Fatalf("signup failed: %v", err)
		}

		if _, err := svc.Login(context.Background(), LoginInput{Email: "asha@example.com", Password: "wrong"}); !errors.Is(err, ErrAuthInvalidCredentials) {
			t.Fatalf("expected ErrAuthInvalidCredentials for wrong password, got %v", err)
		}
		if _, err := svc.Login(context.Background(), LoginInput{Email: "nobody@example.com", Password: "secret-pass"}); !errors.Is(err, ErrAuthInvalidCredentials) {
			t.Fatalf("expected ErrAuthInvalidCredentials for unknown email, got %v", err)
		}
	})
}
