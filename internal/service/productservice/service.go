package productservice

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"gogarantia/internal/domain"
	apperror "gogarantia/internal/errors"
	"gogarantia/internal/pkg/logger"
)

// ProductInput é o payload de criação e atualização de produto.
type ProductInput struct {
	Name        string             `json:"name"`
	Code        string             `json:"code"`
	Type        domain.ProductType `json:"type"`
	Description string             `json:"description"`
	Price       *decimal.Decimal   `json:"price"`
	Image       string             `json:"image"`
	Stock       int                `json:"stock"`
}

// Service é a estrutura que implementa as regras de negócio do catálogo.
type Service struct {
	repo   domain.ProductRepository
	logger logger.Logger
	now    func() time.Time
}

// NewService cria e retorna uma nova instância do Serviço de Produto.
func NewService(repo domain.ProductRepository, logger logger.Logger) *Service {
	return &Service{repo: repo, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

func validate(in ProductInput) error {
	if in.Name == "" || in.Code == "" || in.Description == "" || in.Image == "" {
		return apperror.NewValidationError("Nome, código, descrição e imagem são obrigatórios para o produto.")
	}
	if !in.Type.Valid() {
		return apperror.NewValidationError("Tipo de produto deve ser 'semi-joia' ou 'prata'.")
	}
	if in.Price == nil {
		return apperror.NewValidationError("Informe o preço do produto.")
	}
	if in.Price.IsNegative() {
		return apperror.NewValidationError("O preço do produto não pode ser negativo.")
	}
	if in.Stock < 0 {
		return apperror.NewValidationError("O estoque não pode ser negativo.")
	}
	return nil
}

func normalize(in ProductInput) ProductInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Code = strings.TrimSpace(in.Code)
	in.Description = strings.TrimSpace(in.Description)
	in.Image = strings.TrimSpace(in.Image)
	return in
}

// CreateProduct valida e persiste um novo produto. Código duplicado resulta em Conflict.
func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (domain.Product, error) {
	in = normalize(in)
	if err := validate(in); err != nil {
		return domain.Product{}, err
	}

	now := s.now()
	product := domain.Product{
		ID:          uuid.New().String(),
		Name:        in.Name,
		Code:        in.Code,
		Type:        in.Type,
		Description: in.Description,
		Price:       *in.Price,
		Image:       in.Image,
		Stock:       in.Stock,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	created, err := s.repo.Save(ctx, product)
	if err != nil {
		return domain.Product{}, err
	}
	s.logger.Info("Produto criado.", map[string]interface{}{"id": created.ID, "code": created.Code})
	return created, nil
}

// GetProductByID busca um produto pelo ID.
func (s *Service) GetProductByID(ctx context.Context, id string) (domain.Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.Product{}, apperror.NewNotFoundError("Produto não encontrado.")
	}
	return s.repo.FindByID(ctx, id)
}

// GetProducts lista produtos. Um tipo informado precisa ser válido.
func (s *Service) GetProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, apperror.NewValidationError("Tipo de produto deve ser 'semi-joia' ou 'prata'.")
	}
	products, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		s.logger.Error("Erro ao buscar produtos no repositório", err)
		return nil, err
	}
	return products, nil
}

// UpdateProduct substitui os dados editáveis do produto.
func (s *Service) UpdateProduct(ctx context.Context, id string, in ProductInput) (domain.Product, error) {
	current, err := s.GetProductByID(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}

	in = normalize(in)
	if err := validate(in); err != nil {
		return domain.Product{}, err
	}

	current.Name = in.Name
	current.Code = in.Code
	current.Type = in.Type
	current.Description = in.Description
	current.Price = *in.Price
	current.Image = in.Image
	current.Stock = in.Stock
	current.UpdatedAt = s.now()

	return s.repo.Update(ctx, current)
}

// DeleteProduct remove o produto. Falha com Conflict se houver garantias associadas.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperror.NewNotFoundError("Produto não encontrado.")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Produto removido.", map[string]interface{}{"id": id})
	return nil
}
