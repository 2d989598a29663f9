package productservice_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"gogarantia/internal/domain"
	apperror "gogarantia/internal/errors"
	"gogarantia/internal/pkg/logger"
	"gogarantia/internal/service/productservice"
)

// MockProductRepository é uma implementação mock da interface ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) Save(ctx context.Context, product domain.Product) (domain.Product, error) {
	args := m.Called(ctx, product)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockProductRepository) FindByID(ctx context.Context, id string) (domain.Product, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockProductRepository) FindAll(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *MockProductRepository) Update(ctx context.Context, product domain.Product) (domain.Product, error) {
	args := m.Called(ctx, product)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockProductRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func validInput() productservice.ProductInput {
	price := decimal.RequireFromString("199.99")
	return productservice.ProductInput{
		Name:        "Anel Solitário",
		Code:        "AN-001",
		Type:        domain.ProductTypePrata,
		Description: "Anel em prata 925",
		Price:       &price,
		Image:       "anel.jpg",
	}
}

// TestCreateProduct_Success testa a criação com dados válidos.
func TestCreateProduct_Success(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := productservice.NewService(mockRepo, logger.NewLogger("debug"))

	mockRepo.On("Save", mock.Anything, mock.MatchedBy(func(p domain.Product) bool {
		return p.ID != "" && p.Code == "AN-001" && p.Price.Equal(decimal.RequireFromString("199.99"))
	})).Return(domain.Product{ID: "p1", Code: "AN-001"}, nil)

	product, err := svc.CreateProduct(context.Background(), validInput())

	assert.NoError(t, err)
	assert.Equal(t, "p1", product.ID)
	mockRepo.AssertExpectations(t)
}

// TestCreateProduct_Validation cobre as regras de validação do catálogo.
func TestCreateProduct_Validation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*productservice.ProductInput)
	}{
		{"tipo inválido", func(in *productservice.ProductInput) { in.Type = "ouro" }},
		{"preço negativo", func(in *productservice.ProductInput) {
			negative := decimal.NewFromInt(-1)
			in.Price = &negative
		}},
		{"sem preço", func(in *productservice.ProductInput) { in.Price = nil }},
		{"estoque negativo", func(in *productservice.ProductInput) { in.Stock = -1 }},
		{"sem código", func(in *productservice.ProductInput) { in.Code = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mockRepo := new(MockProductRepository)
			svc := productservice.NewService(mockRepo, logger.NewLogger("debug"))

			in := validInput()
			tc.mutate(&in)
			_, err := svc.CreateProduct(context.Background(), in)

			var validationErr *apperror.ValidationError
			assert.ErrorAs(t, err, &validationErr)
			mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		})
	}
}

// TestCreateProduct_ZeroPriceAllowed preço zero é aceito (brindes).
func TestCreateProduct_ZeroPriceAllowed(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := productservice.NewService(mockRepo, logger.NewLogger("debug"))

	in := validInput()
	zero := decimal.Zero
	in.Price = &zero
	mockRepo.On("Save", mock.Anything, mock.Anything).Return(domain.Product{ID: "p1"}, nil)

	_, err := svc.CreateProduct(context.Background(), in)
	assert.NoError(t, err)
}

// TestCreateProduct_DuplicateCode propaga o Conflict do repositório.
func TestCreateProduct_DuplicateCode(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := productservice.NewService(mockRepo, logger.NewLogger("debug"))

	mockRepo.On("Save", mock.Anything, mock.Anything).Return(domain.Product{}, apperror.NewConflictError("código duplicado"))

	_, err := svc.CreateProduct(context.Background(), validInput())

	var conflict *apperror.ConflictError
	assert.ErrorAs(t, err, &conflict)
}

// TestGetProducts_Success_WithFilters testa a busca de produtos com filtros.
func TestGetProducts_Success_WithFilters(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := productservice.NewService(mockRepo, logger.NewLogger("debug"))

	filter := domain.ProductFilter{Name: "Anel", Type: domain.ProductTypeSemiJoia}
	expected := []domain.Product{{ID: uuid.New().String(), Name: "Anel Dourado", Type: domain.ProductTypeSemiJoia}}
	mockRepo.On("FindAll", mock.Anything, filter).Return(expected, nil)

	products, err := svc.GetProducts(context.Background(), filter)

	assert.NoError(t, err)
	assert.Equal(t, expected, products)
	mockRepo.AssertExpectations(t)
}

// TestGetProducts_InvalidType rejeita tipo desconhecido sem consultar o repositório.
func TestGetProducts_InvalidType(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := productservice.NewService(mockRepo, logger.NewLogger("debug"))

	_, err := svc.GetProducts(context.Background(), domain.ProductFilter{Type: "ouro"})

	var validationErr *apperror.ValidationError
	assert.ErrorAs(t, err, &validationErr)
	mockRepo.AssertNotCalled(t, "FindAll", mock.Anything, mock.Anything)
}

// TestGetProducts_Fail_RepoError testa um erro do repositório.
func TestGetProducts_Fail_RepoError(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := productservice.NewService(mockRepo, logger.NewLogger("debug"))

	repoErr := apperror.NewDBError("falha", errors.New("conexão perdida"))
	mockRepo.On("FindAll", mock.Anything, domain.ProductFilter{}).Return(nil, repoErr)

	products, err := svc.GetProducts(context.Background(), domain.ProductFilter{})

	assert.Nil(t, products)
	assert.Equal(t, repoErr, err)
}

// TestUpdateProduct_NotFound propaga NotFound do repositório.
func TestUpdateProduct_NotFound(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := productservice.NewService(mockRepo, logger.NewLogger("debug"))

	id := uuid.New().String()
	mockRepo.On("FindByID", mock.Anything, id).Return(domain.Product{}, apperror.NewNotFoundError("não existe"))

	_, err := svc.UpdateProduct(context.Background(), id, validInput())

	assert.True(t, apperror.IsNotFound(err))
	mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}
