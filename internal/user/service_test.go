package user_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"

	"github.com/mediplant/storefront/internal/user"
)

type mockRepository struct {
	createFunc             func(ctx context.Context, u *user.User) error
	getByIDFunc            func(ctx context.Context, id uuid.UUID) (*user.User, error)
	getByEmailFunc         func(ctx context.Context, email string) (*user.User, error)
	createSessionFunc      func(ctx context.Context, s *user.Session) error
	getSessionIdentityFunc func(ctx context.Context, token uuid.UUID, now time.Time) (user.Identity, error)
	deleteSessionFunc      func(ctx context.Context, token uuid.UUID) error
}

func (m *mockRepository) Create(ctx context.Context, u *user.User) error {
	return m.createFunc(ctx, u)
}

func (m *mockRepository) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return m.getByEmailFunc(ctx, email)
}

func (m *mockRepository) CreateSession(ctx context.Context, s *user.Session) error {
	return m.createSessionFunc(ctx, s)
}

func (m *mockRepository) GetSessionIdentity(ctx context.Context, token uuid.UUID, now time.Time) (user.Identity, error) {
	return m.getSessionIdentityFunc(ctx, token, now)
}

func (m *mockRepository) DeleteSession(ctx context.Context, token uuid.UUID) error {
	return m.deleteSessionFunc(ctx, token)
}

func TestService_Register(t *testing.T) {
	tests := []struct {
		name       string
		input      user.RegisterInput
		createFunc func(ctx context.Context, u *user.User) error
		wantErr    bool
		wantErrIs  error
	}{
		{
			name:       "success",
			input:      user.RegisterInput{Name: "Asha Verma", Email: "Asha@Example.com", Password: "green-thumb-7"},
			createFunc: func(ctx context.Context, u *user.User) error { return nil },
			wantErr:    false,
		},
		{
			name:       "missing_name",
			input:      user.RegisterInput{Email: "asha@example.com", Password: "green-thumb-7"},
			createFunc: func(ctx context.Context, u *user.User) error { return nil },
			wantErr:    true,
		},
		{
			name:       "short_password",
			input:      user.RegisterInput{Name: "Asha", Email: "asha@example.com", Password: "short"},
			createFunc: func(ctx context.Context, u *user.User) error { return nil },
			wantErr:    true,
		},
		{
			name:       "duplicate_email",
			input:      user.RegisterInput{Name: "Asha", Email: "asha@example.com", Password: "green-thumb-7"},
			createFunc: func(ctx context.Context, u *user.User) error { return user.ErrEmailExists },
			wantErr:    true,
			wantErrIs:  user.ErrEmailExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockRepository{createFunc: tt.createFunc}
			svc := user.NewService(repo, time.Hour)

			u, err := svc.Register(context.Background(), tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				if tt.wantErrIs != nil {
					assert.True(t, errors.Is(err, tt.wantErrIs))
				}
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, "asha@example.com", u.Email)
			assert.Equal(t, user.RoleUser, u.Role)
			assert.True(t, u.IsActive)
			assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(tt.input.Password)))
		})
	}
}

func TestService_Login(t *testing.T) {
	userID, _ := uuid.NewV4()
	hash, err := bcrypt.GenerateFromPassword([]byte("green-thumb-7"), bcrypt.MinCost)
	assert.NoError(t, err)

	stored := &user.User{
		ID:           userID,
		Name:         "Asha Verma",
		Email:        "asha@example.com",
		PasswordHash: string(hash),
		Role:         user.RoleUser,
		IsActive:     true,
	}

	tests := []struct {
		name           string
		email          string
		password       string
		getByEmailFunc func(ctx context.Context, email string) (*user.User, error)
		wantErrIs      error
	}{
		{
			name:     "success",
			email:    "asha@example.com",
			password: "green-thumb-7",
			getByEmailFunc: func(ctx context.Context, email string) (*user.User, error) {
				return stored, nil
			},
		},
		{
			name:     "wrong_password",
			email:    "asha@example.com",
			password: "wrong",
			getByEmailFunc: func(ctx context.Context, email string) (*user.User, error) {
				return stored, nil
			},
			wantErrIs: user.ErrInvalidCredentials,
		},
		{
			name:     "unknown_email",
			email:    "nobody@example.com",
			password: "green-thumb-7",
			getByEmailFunc: func(ctx context.Context, email string) (*user.User, error) {
				return nil, user.ErrNotFound
			},
			wantErrIs: user.ErrInvalidCredentials,
		},
		{
			name:     "inactive_account",
			email:    "asha@example.com",
			password: "green-thumb-7",
			getByEmailFunc: func(ctx context.Context, email string) (*user.User, error) {
				inactive := *stored
				inactive.IsActive = false
				return &inactive, nil
			},
			wantErrIs: user.ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockRepository{
				getByEmailFunc:    tt.getByEmailFunc,
				createSessionFunc: func(ctx context.Context, s *user.Session) error { return nil },
			}
			svc := user.NewService(repo, time.Hour)

			sess, u, err := svc.Login(context.Background(), tt.email, tt.password)
			if tt.wantErrIs != nil {
				assert.True(t, errors.Is(err, tt.wantErrIs))
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, userID, u.ID)
			assert.Equal(t, userID, sess.UserID)
			assert.NotEqual(t, uuid.Nil, sess.Token)
			assert.True(t, sess.ExpiresAt.After(sess.CreatedAt))
		})
	}
}
