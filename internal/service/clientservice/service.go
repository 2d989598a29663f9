package clientservice

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"gogarantia/internal/domain"
	apperror "gogarantia/internal/errors"
	"gogarantia/internal/pkg/logger"
)

var (
	emailPattern    = regexp.MustCompile(`^\w+([.-]?\w+)*@\w+([.-]?\w+)*(\.\w{2,3})+$`)
	whatsAppPattern = regexp.MustCompile(`^\d{10,15}$`)
)

// ClientInput é o payload de criação e atualização de cliente.
type ClientInput struct {
	Name     string          `json:"name"`
	Email    string          `json:"email"`
	WhatsApp string          `json:"whatsapp"`
	Address  *domain.Address `json:"address,omitempty"`
}

// Service implementa as regras de negócio de clientes.
type Service struct {
	repo   domain.ClientRepository
	logger logger.Logger
	now    func() time.Time
}

// NewService cria e retorna uma nova instância do Serviço de Cliente.
func NewService(repo domain.ClientRepository, logger logger.Logger) *Service {
	return &Service{repo: repo, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

func normalize(in ClientInput) ClientInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.WhatsApp = strings.TrimSpace(in.WhatsApp)
	return in
}

func validate(in ClientInput) error {
	if in.Name == "" || in.Email == "" || in.WhatsApp == "" {
		return apperror.NewValidationError("Nome, email e WhatsApp são obrigatórios.")
	}
	if !emailPattern.MatchString(in.Email) {
		return apperror.NewValidationError("Por favor, informe um email válido.")
	}
	if !whatsAppPattern.MatchString(in.WhatsApp) {
		return apperror.NewValidationError("O WhatsApp deve conter apenas dígitos (10 a 15).")
	}
	return nil
}

// CreateClient valida e persiste um novo cliente.
func (s *Service) CreateClient(ctx context.Context, in ClientInput) (domain.Client, error) {
	in = normalize(in)
	if err := validate(in); err != nil {
		return domain.Client{}, err
	}

	now := s.now()
	client := domain.Client{
		ID:        uuid.New().String(),
		Name:      in.Name,
		Email:     in.Email,
		WhatsApp:  in.WhatsApp,
		Address:   in.Address,
		CreatedAt: now,
		UpdatedAt: now,
	}

	created, err := s.repo.Save(ctx, client)
	if err != nil {
		return domain.Client{}, err
	}
	s.logger.Info("Cliente criado.", map[string]interface{}{"id": created.ID})
	return created, nil
}

// GetClientByID busca um cliente. IDs fora do formato UUID são tratados como inexistentes.
func (s *Service) GetClientByID(ctx context.Context, id string) (domain.Client, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.Client{}, apperror.NewNotFoundError("Cliente não encontrado.")
	}
	return s.repo.FindByID(ctx, id)
}

// GetClients lista clientes, filtrando opcionalmente por nome e email.
func (s *Service) GetClients(ctx context.Context, filter domain.ClientFilter) ([]domain.Client, error) {
	filter.Email = strings.ToLower(strings.TrimSpace(filter.Email))
	return s.repo.FindAll(ctx, filter)
}

// UpdateClient substitui os dados editáveis do cliente.
func (s *Service) UpdateClient(ctx context.Context, id string, in ClientInput) (domain.Client, error) {
	current, err := s.GetClientByID(ctx, id)
	if err != nil {
		return domain.Client{}, err
	}

	in = normalize(in)
	if err := validate(in); err != nil {
		return domain.Client{}, err
	}

	current.Name = in.Name
	current.Email = in.Email
	current.WhatsApp = in.WhatsApp
	current.Address = in.Address
	current.UpdatedAt = s.now()

	return s.repo.Update(ctx, current)
}

// DeleteClient remove o cliente. Falha com Conflict se houver garantias associadas.
func (s *Service) DeleteClient(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperror.NewNotFoundError("Cliente não encontrado.")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Cliente removido.", map[string]interface{}{"id": id})
	return nil
}
