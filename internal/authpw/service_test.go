package authpw

import (
	"context"
	"errors"
	"testing"

	"inkwell/api/internal/store"
)

// mockUserStore is a mock implementation of UserStore for testing
type mockUserStore struct {
	users      map[string]store.User
	emailIndex map[string]string // email -> userID
}

func newMockUserStore() *mockUserStore {
	return &mockUserStore{
		users:      make(map[string]store.User),
		emailIndex: make(map[string]string),
	}
}

func (m *mockUserStore) GetUserByEmail(ctx context.Context, email string) (store.User, error) {
	if userID, ok := m.emailIndex[email]; ok {
		return m.users[userID], nil
	}
	return store.User{}, errors.New("user not found")
}

func (m *mockUserStore) GetUserByID(ctx context.Context, id string) (store.User, error) {
	if user, ok := m.users[id]; ok {
		return user, nil
	}
	return store.User{}, errors.New("user not found")
}

func (m *mockUserStore) CreateUser(ctx context.Context, user store.User) error {
	m.users[user.ID] = user
	m.emailIndex[user.Email] = user.ID
	return nil
}

func (m *mockUserStore) UpdateUserPassword(ctx context.Context, userID, passwordHash string) error {
	if user, ok := m.users[userID]; ok {
		user.PasswordHash = passwordHash
		m.users[userID] = user
		return nil
	}
	return errors.New("user not found")
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMockUserStore())

	t.Run("successful registration", func(t *testing.T) {
		user, err := svc.Register(ctx, RegisterRequest{
			Login:    "ada",
			Email:    "ada@example.com",
			Password: "password123",
			Role:     "author",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if user.ID == "" {
			t.Error("expected ID to be set")
		}
		if user.Role != "author" {
			t.Errorf("expected role author, got %s", user.Role)
		}
		if user.DisplayName != "ada" {
			t.Errorf("expected display name to default to login, got %s", user.DisplayName)
		}
		if user.PasswordHash == "password123" {
			t.Error("password stored in plain text")
		}
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := svc.Register(ctx, RegisterRequest{
			Login:    "ada2",
			Email:    "ada@example.com",
			Password: "password123",
		})
		if err == nil {
			t.Error("expected error for duplicate email")
		}
	})

	t.Run("short password", func(t *testing.T) {
		_, err := svc.Register(ctx, RegisterRequest{
			Login:    "bob",
			Email:    "bob@example.com",
			Password: "short",
		})
		if err == nil {
			t.Error("expected error for short password")
		}
	})

	t.Run("missing fields", func(t *testing.T) {
		_, err := svc.Register(ctx, RegisterRequest{})
		if err == nil {
			t.Error("expected error for missing fields")
		}
	})

	t.Run("unknown role falls back to subscriber", func(t *testing.T) {
		user, err := svc.Register(ctx, RegisterRequest{
			Login:    "eve",
			Email:    "eve@example.com",
			Password: "password123",
			Role:     "superuser",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if user.Role != "subscriber" {
			t.Errorf("expected role subscriber, got %s", user.Role)
		}
	})
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMockUserStore())

	if _, err := svc.Register(ctx, RegisterRequest{
		Login:    "ada",
		Email:    "ada@example.com",
		Password: "password123",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	t.Run("successful authentication", func(t *testing.T) {
		user, err := svc.Authenticate(ctx, "ada@example.com", "password123")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if user.Email != "ada@example.com" {
			t.Errorf("expected email ada@example.com, got %s", user.Email)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "ada@example.com", "wrongpassword")
		if err == nil {
			t.Error("expected error for wrong password")
		}
	})

	t.Run("non-existent user", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "nobody@example.com", "password123")
		if err == nil {
			t.Error("expected error for non-existent user")
		}
	})
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMockUserStore())

	user, err := svc.Register(ctx, RegisterRequest{
		Login:    "ada",
		Email:    "ada@example.com",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	t.Run("wrong current password", func(t *testing.T) {
		if err := svc.ChangePassword(ctx, user.ID, "wrong", "newpassword123"); err == nil {
			t.Error("expected error for wrong current password")
		}
	})

	t.Run("short new password", func(t *testing.T) {
		if err := svc.ChangePassword(ctx, user.ID, "password123", "short"); err == nil {
			t.Error("expected error for short password")
		}
	})

	t.Run("successful change", func(t *testing.T) {
		if err := svc.ChangePassword(ctx, user.ID, "password123", "newpassword123"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := svc.Authenticate(ctx, "ada@example.com", "password123"); err == nil {
			t.Error("expected old password to stop working")
		}
		if _, err := svc.Authenticate(ctx, "ada@example.com", "newpassword123"); err != nil {
			t.Errorf("expected new password to work: %v", err)
		}
	})
}
