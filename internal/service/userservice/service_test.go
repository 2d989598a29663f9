package userservice_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"gogarantia/internal/domain"
	apperror "gogarantia/internal/errors"
	"gogarantia/internal/pkg/logger"
	"gogarantia/internal/service/userservice"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Save(ctx context.Context, user domain.User) (domain.User, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(domain.User), args.Error(1)
}

type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) GenerateToken(userID string, userRole string) (string, error) {
	args := m.Called(userID, userRole)
	return args.String(0), args.Error(1)
}

func TestRegister_HashesPasswordAndDefaultsRole(t *testing.T) {
	repo := new(MockUserRepository)
	svc := userservice.NewService(repo, new(MockTokenService), logger.NewLogger("debug"))

	repo.On("Save", mock.Anything, mock.MatchedBy(func(u domain.User) bool {
		return u.Email == "ana@example.com" && u.Role == domain.RoleUser &&
			bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("segredo1")) == nil
	})).Return(domain.User{ID: "u1", Email: "ana@example.com", Role: domain.RoleUser}, nil)

	user, err := svc.Register(context.Background(), domain.UserRegistration{Name: "Ana", Email: " Ana@Example.com ", Password: "segredo1"})

	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	repo.AssertExpectations(t)
}

func TestRegister_ShortPassword(t *testing.T) {
	repo := new(MockUserRepository)
	svc := userservice.NewService(repo, new(MockTokenService), logger.NewLogger("debug"))

	_, err := svc.Register(context.Background(), domain.UserRegistration{Email: "ana@example.com", Password: "123"})

	var validationErr *apperror.ValidationError
	assert.ErrorAs(t, err, &validationErr)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestLogin_Success(t *testing.T) {
	repo := new(MockUserRepository)
	tokens := new(MockTokenService)
	svc := userservice.NewService(repo, tokens, logger.NewLogger("debug"))

	hash, _ := bcrypt.GenerateFromPassword([]byte("segredo1"), bcrypt.MinCost)
	repo.On("FindByEmail", mock.Anything, "ana@example.com").
		Return(domain.User{ID: "u1", PasswordHash: string(hash), Role: domain.RoleAdmin}, nil)
	tokens.On("GenerateToken", "u1", "admin").Return("jwt-token", nil)

	token, err := svc.Login(context.Background(), "ana@example.com", "segredo1")

	require.NoError(t, err)
	assert.Equal(t, "jwt-token", token)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	repo := new(MockUserRepository)
	svc := userservice.NewService(repo, new(MockTokenService), logger.NewLogger("debug"))

	hash, _ := bcrypt.GenerateFromPassword([]byte("segredo1"), bcrypt.MinCost)
	repo.On("FindByEmail", mock.Anything, "ana@example.com").Return(domain.User{ID: "u1", PasswordHash: string(hash)}, nil)
	repo.On("FindByEmail", mock.Anything, "ninguem@example.com").Return(domain.User{}, apperror.NewNotFoundError("x"))

	var unauthorized *apperror.UnauthorizedError

	_, err := svc.Login(context.Background(), "ana@example.com", "errada")
	assert.ErrorAs(t, err, &unauthorized)

	_, err = svc.Login(context.Background(), "ninguem@example.com", "segredo1")
	assert.ErrorAs(t, err, &unauthorized)
}

func TestEnsureAdmin(t *testing.T) {
	t.Run("cria quando ausente", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := userservice.NewService(repo, new(MockTokenService), logger.NewLogger("debug"))

		repo.On("FindByEmail", mock.Anything, "admin@example.com").Return(domain.User{}, apperror.NewNotFoundError("x"))
		repo.On("Save", mock.Anything, mock.MatchedBy(func(u domain.User) bool {
			return u.Role == domain.RoleAdmin && u.Name == "Administrador"
		})).Return(domain.User{ID: "a1", Email: "admin@example.com", Role: domain.RoleAdmin}, nil)

		created, err := svc.EnsureAdmin(context.Background(), domain.UserRegistration{Email: "admin@example.com", Password: "admin123"})

		require.NoError(t, err)
		assert.True(t, created)
		repo.AssertExpectations(t)
	})

	t.Run("não recria", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := userservice.NewService(repo, new(MockTokenService), logger.NewLogger("debug"))

		repo.On("FindByEmail", mock.Anything, "admin@example.com").Return(domain.User{ID: "a1"}, nil)

		created, err := svc.EnsureAdmin(context.Background(), domain.UserRegistration{Email: "admin@example.com", Password: "admin123"})

		require.NoError(t, err)
		assert.False(t, created)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("sem configuração", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := userservice.NewService(repo, new(MockTokenService), logger.NewLogger("debug"))

		created, err := svc.EnsureAdmin(context.Background(), domain.UserRegistration{})

		require.NoError(t, err)
		assert.False(t, created)
	})

	t.Run("erro de banco", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := userservice.NewService(repo, new(MockTokenService), logger.NewLogger("debug"))

		repo.On("FindByEmail", mock.Anything, "admin@example.com").Return(domain.User{}, errors.New("db down"))

		_, err := svc.EnsureAdmin(context.Background(), domain.UserRegistration{Email: "admin@example.com", Password: "admin123"})
		assert.Error(t, err)
	})
}
