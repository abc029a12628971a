package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/school-admin-api/internal/models"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
)

type mockAuthRepo struct {
	users            map[string]*models.User
	lastLoginUpdated bool
}

func newMockAuthRepo(users ...*models.User) *mockAuthRepo {
	m := &mockAuthRepo{users: map[string]*models.User{}}
	for _, u := range users {
		m.users[u.Username] = u
	}
	return m
}

func (m *mockAuthRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	if u, ok := m.users[username]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, ok := m.users[username]
	return ok, nil
}

func (m *mockAuthRepo) Create(ctx context.Context, user *models.User) error {
	user.ID = uuid.NewString()
	m.users[user.Username] = user
	return nil
}

func (m *mockAuthRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	m.lastLoginUpdated = true
	return nil
}

func newTestAuthService(repo *mockAuthRepo) *AuthService {
	return NewAuthService(repo, validator.New(), zap.NewNop(), AuthConfig{AccessTokenSecret: "secret", AccessTokenExpiry: time.Hour})
}

func TestAuthServiceRegisterAndLogin(t *testing.T) {
	repo := newMockAuthRepo()
	svc := newTestAuthService(repo)

	info, err := svc.Register(context.Background(), models.RegisterRequest{Username: "clerk1", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleStaff, info.Role)
	assert.NotEqual(t, "secret1", repo.users["clerk1"].PasswordHash)

	res, err := svc.Login(context.Background(), models.LoginRequest{Username: "clerk1", Password: "secret1"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.Equal(t, int64(3600), res.ExpiresIn)
	assert.True(t, repo.lastLoginUpdated)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, info.ID, claims.UserID)
	assert.Equal(t, "clerk1", claims.Username)
}

func TestAuthServiceRegisterRejects(t *testing.T) {
	svc := newTestAuthService(newMockAuthRepo(&models.User{ID: "u1", Username: "admin"}))

	_, err := svc.Register(context.Background(), models.RegisterRequest{Username: "admin", Password: "secret1"})
	assert.ErrorIs(t, err, appErrors.ErrConflict)

	_, err = svc.Register(context.Background(), models.RegisterRequest{Username: "abc", Password: "secret1"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Register(context.Background(), models.RegisterRequest{Username: "clerk2", Password: "123"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Register(context.Background(), models.RegisterRequest{Username: "clerk2", Password: "secret1", Role: "ROOT"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestAuthServiceLoginFailures(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	repo := newMockAuthRepo(
		&models.User{ID: "u1", Username: "active", PasswordHash: string(hash), Active: true, Role: models.RoleAdmin},
		&models.User{ID: "u2", Username: "inactive", PasswordHash: string(hash), Active: false, Role: models.RoleStaff},
	)
	svc := newTestAuthService(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "active", Password: "wrong"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), models.LoginRequest{Username: "ghost", Password: "password"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), models.LoginRequest{Username: "inactive", Password: "password"})
	assert.ErrorIs(t, err, appErrors.ErrInactiveAccount)
}

func TestAuthServiceValidateTokenRejectsForeignSignature(t *testing.T) {
	svc := newTestAuthService(newMockAuthRepo())
	claims := &models.JWTClaims{UserID: "u1", RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other"))
	require.NoError(t, err)

	_, err = svc.ValidateToken(forged)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestAuthServiceMe(t *testing.T) {
	svc := newTestAuthService(newMockAuthRepo(&models.User{ID: "u1", Username: "admin", Role: models.RoleAdmin}))

	info, err := svc.Me(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "admin", info.Username)

	_, err = svc.Me(context.Background(), "u9")
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestAuthServiceEnsureAdmin(t *testing.T) {
	repo := newMockAuthRepo()
	svc := newTestAuthService(repo)

	require.NoError(t, svc.EnsureAdmin(context.Background(), "", "ignored"))
	assert.Empty(t, repo.users)

	require.NoError(t, svc.EnsureAdmin(context.Background(), "root", "changeme"))
	require.Contains(t, repo.users, "root")
	assert.Equal(t, models.RoleAdmin, repo.users["root"].Role)

	require.NoError(t, svc.EnsureAdmin(context.Background(), "root", "different"))
	assert.Len(t, repo.users, 1)
}
