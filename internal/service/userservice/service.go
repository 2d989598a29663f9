package userservice

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"gogarantia/internal/domain"
	apperror "gogarantia/internal/errors"
	"gogarantia/internal/pkg/logger"
)

// minPasswordLength é o tamanho mínimo aceito no registro.
const minPasswordLength = 6

// TokenService é o contrato da camada de token (internal/pkg/token)
type TokenService interface {
	GenerateToken(userID string, userRole string) (string, error)
}

// UserService define o serviço de lógica de negócio para a entidade User.
type UserService struct {
	UserRepo domain.UserRepository
	TokenSvc TokenService
	logger   logger.Logger
}

// NewService cria uma nova instância do UserService, injetando o Repositório.
func NewService(repo domain.UserRepository, tokenSvc TokenService, logger logger.Logger) *UserService {
	return &UserService{
		UserRepo: repo,
		TokenSvc: tokenSvc,
		logger:   logger,
	}
}

// Register registra um novo usuário com papel "user".
// E-mail duplicado é devolvido pelo repositório como Conflict.
func (s *UserService) Register(ctx context.Context, registration domain.UserRegistration) (domain.User, error) {
	return s.create(ctx, registration, domain.RoleUser)
}

func (s *UserService) create(ctx context.Context, registration domain.UserRegistration, role domain.UserRole) (domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(registration.Email))
	if email == "" || registration.Password == "" {
		return domain.User{}, apperror.NewValidationError("Email e senha são obrigatórios.")
	}
	if len(registration.Password) < minPasswordLength {
		return domain.User{}, apperror.NewValidationError("A senha deve ter pelo menos 6 caracteres.")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(registration.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, apperror.NewInternalError("Falha ao gerar hash da senha.", err)
	}

	user, err := s.UserRepo.Save(ctx, domain.User{
		Name:         strings.TrimSpace(registration.Name),
		Email:        email,
		PasswordHash: string(hashedPassword),
		Role:         role,
	})
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// Login autentica um usuário, verifica a senha e gera um JWT.
func (s *UserService) Login(ctx context.Context, email string, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", apperror.NewUnauthorizedError("Email e senha são obrigatórios.")
	}

	user, err := s.UserRepo.FindByEmail(ctx, email)
	if err != nil {
		// NotFound vira 401 para não revelar quais e-mails existem.
		if apperror.IsNotFound(err) {
			return "", apperror.NewUnauthorizedError("Credenciais inválidas.")
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", apperror.NewUnauthorizedError("Credenciais inválidas.")
	}

	tokenString, err := s.TokenSvc.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		return "", apperror.NewInternalError("Falha ao gerar token de autenticação.", err)
	}
	return tokenString, nil
}

// EnsureAdmin cria o administrador inicial caso ainda não exista.
// Retorna true quando o usuário foi criado nesta chamada.
func (s *UserService) EnsureAdmin(ctx context.Context, registration domain.UserRegistration) (bool, error) {
	email := strings.ToLower(strings.TrimSpace(registration.Email))
	if email == "" || registration.Password == "" {
		return false, nil
	}

	_, err := s.UserRepo.FindByEmail(ctx, email)
	if err == nil {
		return false, nil
	}
	if !apperror.IsNotFound(err) {
		return false, err
	}

	if registration.Name == "" {
		registration.Name = "Administrador"
	}
	user, err := s.create(ctx, registration, domain.RoleAdmin)
	if err != nil {
		return false, err
	}
	s.logger.Info("Administrador inicial criado.", map[string]interface{}{"user_id": user.ID, "email": user.Email})
	return true, nil
}
