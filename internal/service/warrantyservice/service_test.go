package warrantyservice

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gogarantia/internal/domain"
	apperror "gogarantia/internal/errors"
	"gogarantia/internal/pkg/logger"
)

// --- Mocks ---

type MockWarrantyRepository struct {
	mock.Mock
}

func (m *MockWarrantyRepository) Save(ctx context.Context, w domain.Warranty) (domain.Warranty, error) {
	args := m.Called(ctx, w)
	if fn, ok := args.Get(0).(func(context.Context, domain.Warranty) domain.Warranty); ok {
		return fn(ctx, w), args.Error(1)
	}
	return args.Get(0).(domain.Warranty), args.Error(1)
}

func (m *MockWarrantyRepository) FindByID(ctx context.Context, id string) (domain.Warranty, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Warranty), args.Error(1)
}

func (m *MockWarrantyRepository) FindAll(ctx context.Context, filter domain.WarrantyFilter) ([]domain.Warranty, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Warranty), args.Error(1)
}

func (m *MockWarrantyRepository) Update(ctx context.Context, w domain.Warranty) (domain.Warranty, error) {
	args := m.Called(ctx, w)
	if fn, ok := args.Get(0).(func(context.Context, domain.Warranty) domain.Warranty); ok {
		return fn(ctx, w), args.Error(1)
	}
	return args.Get(0).(domain.Warranty), args.Error(1)
}

func (m *MockWarrantyRepository) MarkEmailSent(ctx context.Context, id string, sentAt time.Time) (domain.Warranty, error) {
	args := m.Called(ctx, id, sentAt)
	if fn, ok := args.Get(0).(func(context.Context, string, time.Time) domain.Warranty); ok {
		return fn(ctx, id, sentAt), args.Error(1)
	}
	return args.Get(0).(domain.Warranty), args.Error(1)
}

func (m *MockWarrantyRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockWarrantyRepository) CountByClient(ctx context.Context, clientID string) (int, error) {
	args := m.Called(ctx, clientID)
	return args.Int(0), args.Error(1)
}

func (m *MockWarrantyRepository) CountByProduct(ctx context.Context, productID string) (int, error) {
	args := m.Called(ctx, productID)
	return args.Int(0), args.Error(1)
}

type MockClientResolver struct {
	mock.Mock
}

func (m *MockClientResolver) FindByID(ctx context.Context, id string) (domain.Client, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Client), args.Error(1)
}

type MockProductResolver struct {
	mock.Mock
}

func (m *MockProductResolver) FindByID(ctx context.Context, id string) (domain.Product, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Product), args.Error(1)
}

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendWarrantyConfirmation(ctx context.Context, c domain.WarrantyConfirmation) (string, error) {
	args := m.Called(ctx, c)
	return args.String(0), args.Error(1)
}

// --- Fixture ---

var fixedNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

type fixture struct {
	repo     *MockWarrantyRepository
	clients  *MockClientResolver
	products *MockProductResolver
	mailer   *MockMailer
	svc      *Service
	client   domain.Client
	product  domain.Product
	actor    domain.Principal
}

func newFixture() *fixture {
	f := &fixture{
		repo:     new(MockWarrantyRepository),
		clients:  new(MockClientResolver),
		products: new(MockProductResolver),
		mailer:   new(MockMailer),
		client:   domain.Client{ID: uuid.New().String(), Name: "Maria", Email: "maria@example.com"},
		product:  domain.Product{ID: uuid.New().String(), Name: "Anel", Code: "AN-01", Image: "anel.jpg"},
		actor:    domain.Principal{UserID: uuid.New().String(), Role: domain.RoleUser},
	}
	f.svc = NewService(f.repo, f.clients, f.products, f.mailer, logger.NewLogger("debug"))
	f.svc.now = func() time.Time { return fixedNow }
	return f
}

func (f *fixture) input(saleDate time.Time) domain.WarrantyInput {
	price := decimal.RequireFromString("199.99")
	return domain.WarrantyInput{
		ClientID:  f.client.ID,
		ProductID: f.product.ID,
		SaleDate:  &saleDate,
		Price:     &price,
	}
}

func echoSave(args mock.Arguments) domain.Warranty { return args.Get(1).(domain.Warranty) }

// --- Create ---

func TestCreate_DerivesExpirationAndMarksEmail(t *testing.T) {
	f := newFixture()
	sale := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	f.clients.On("FindByID", mock.Anything, f.client.ID).Return(f.client, nil)
	f.products.On("FindByID", mock.Anything, f.product.ID).Return(f.product, nil)

	var saved domain.Warranty
	f.repo.On("Save", mock.Anything, mock.AnythingOfType("domain.Warranty")).
		Run(func(args mock.Arguments) { saved = echoSave(args) }).
		Return(func(_ context.Context, w domain.Warranty) domain.Warranty { return w }, nil)
	f.mailer.On("SendWarrantyConfirmation", mock.Anything, mock.MatchedBy(func(c domain.WarrantyConfirmation) bool {
		return c.ClientEmail == "maria@example.com" && c.ProductCode == "AN-01" && c.ProductImage == "anel.jpg"
	})).Return("<msg-1>", nil)
	f.repo.On("MarkEmailSent", mock.Anything, mock.Anything, fixedNow).
		Return(func(_ context.Context, id string, at time.Time) domain.Warranty {
			w := saved
			w.EmailSent = true
			w.EmailSentDate = &at
			return w
		}, nil)

	got, err := f.svc.Create(context.Background(), f.input(sale), f.actor)

	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), got.WarrantyEndDate)
	assert.Equal(t, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), saved.WarrantyEndDate)
	assert.Equal(t, f.actor.UserID, saved.CreatedBy)
	assert.False(t, saved.EmailSent)
	assert.True(t, got.EmailSent)
	require.NotNil(t, got.Client)
	assert.Equal(t, "Maria", got.Client.Name)
	require.NotNil(t, got.Product)
	assert.Equal(t, "AN-01", got.Product.Code)
	f.repo.AssertExpectations(t)
	f.mailer.AssertExpectations(t)
}

func TestCreate_DefaultsSaleDateToNow(t *testing.T) {
	f := newFixture()
	f.clients.On("FindByID", mock.Anything, f.client.ID).Return(f.client, nil)
	f.products.On("FindByID", mock.Anything, f.product.ID).Return(f.product, nil)
	f.repo.On("Save", mock.Anything, mock.Anything).
		Return(func(_ context.Context, w domain.Warranty) domain.Warranty { return w }, nil)
	f.mailer.On("SendWarrantyConfirmation", mock.Anything, mock.Anything).Return("", errors.New("smtp down"))

	in := f.input(time.Time{})
	in.SaleDate = nil
	got, err := f.svc.Create(context.Background(), in, f.actor)

	require.NoError(t, err)
	assert.Equal(t, fixedNow, got.SaleDate)
	assert.Equal(t, fixedNow.AddDate(2, 0, 0), got.WarrantyEndDate)
}

func TestCreate_EmailFailureIsSwallowed(t *testing.T) {
	f := newFixture()
	f.clients.On("FindByID", mock.Anything, f.client.ID).Return(f.client, nil)
	f.products.On("FindByID", mock.Anything, f.product.ID).Return(f.product, nil)
	f.repo.On("Save", mock.Anything, mock.Anything).
		Return(func(_ context.Context, w domain.Warranty) domain.Warranty { return w }, nil)
	f.mailer.On("SendWarrantyConfirmation", mock.Anything, mock.Anything).Return("", errors.New("smtp timeout"))

	got, err := f.svc.Create(context.Background(), f.input(fixedNow), f.actor)

	require.NoError(t, err)
	assert.NotEmpty(t, got.ID)
	assert.False(t, got.EmailSent)
	assert.Nil(t, got.EmailSentDate)
	f.repo.AssertNotCalled(t, "MarkEmailSent", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreate_UnresolvedReferences(t *testing.T) {
	t.Run("cliente inexistente", func(t *testing.T) {
		f := newFixture()
		f.clients.On("FindByID", mock.Anything, f.client.ID).Return(domain.Client{}, apperror.NewNotFoundError("cliente"))

		_, err := f.svc.Create(context.Background(), f.input(fixedNow), f.actor)

		assert.True(t, apperror.IsNotFound(err))
		f.repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("produto inexistente", func(t *testing.T) {
		f := newFixture()
		f.clients.On("FindByID", mock.Anything, f.client.ID).Return(f.client, nil)
		f.products.On("FindByID", mock.Anything, f.product.ID).Return(domain.Product{}, apperror.NewNotFoundError("produto"))

		_, err := f.svc.Create(context.Background(), f.input(fixedNow), f.actor)

		assert.True(t, apperror.IsNotFound(err))
		f.repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("id malformado", func(t *testing.T) {
		f := newFixture()
		in := f.input(fixedNow)
		in.ClientID = "abc"

		_, err := f.svc.Create(context.Background(), in, f.actor)

		assert.True(t, apperror.IsNotFound(err))
		f.clients.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})
}

func TestCreate_ValidationErrors(t *testing.T) {
	f := newFixture()

	missing := f.input(fixedNow)
	missing.ProductID = ""
	_, err := f.svc.Create(context.Background(), missing, f.actor)
	var validationErr *apperror.ValidationError
	assert.ErrorAs(t, err, &validationErr)

	negative := f.input(fixedNow)
	minus := decimal.NewFromInt(-5)
	negative.Price = &minus
	_, err = f.svc.Create(context.Background(), negative, f.actor)
	assert.ErrorAs(t, err, &validationErr)

	noPrice := f.input(fixedNow)
	noPrice.Price = nil
	_, err = f.svc.Create(context.Background(), noPrice, f.actor)
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, err.Error(), "valor da venda")
	f.repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

// --- Resend ---

func TestResend_NotFound(t *testing.T) {
	f := newFixture()
	id := uuid.New().String()
	f.repo.On("FindByID", mock.Anything, id).Return(domain.Warranty{}, apperror.NewNotFoundError("garantia"))

	_, err := f.svc.Resend(context.Background(), id, f.actor)

	assert.True(t, apperror.IsNotFound(err))
	f.mailer.AssertNotCalled(t, "SendWarrantyConfirmation", mock.Anything, mock.Anything)
}

func TestResend_DeliveryFailureSurfacesAndKeepsStatus(t *testing.T) {
	f := newFixture()
	w := domain.Warranty{ID: uuid.New().String(), ClientID: f.client.ID, ProductID: f.product.ID, EmailSent: false}
	f.repo.On("FindByID", mock.Anything, w.ID).Return(w, nil)
	f.clients.On("FindByID", mock.Anything, f.client.ID).Return(f.client, nil)
	f.products.On("FindByID", mock.Anything, f.product.ID).Return(f.product, nil)
	f.mailer.On("SendWarrantyConfirmation", mock.Anything, mock.Anything).Return("", errors.New("recusado"))

	_, err := f.svc.Resend(context.Background(), w.ID, f.actor)

	var delivery *apperror.DeliveryFailedError
	require.ErrorAs(t, err, &delivery)
	f.repo.AssertNotCalled(t, "MarkEmailSent", mock.Anything, mock.Anything, mock.Anything)
	f.repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestResend_Success(t *testing.T) {
	f := newFixture()
	w := domain.Warranty{ID: uuid.New().String(), ClientID: f.client.ID, ProductID: f.product.ID}
	f.repo.On("FindByID", mock.Anything, w.ID).Return(w, nil)
	f.clients.On("FindByID", mock.Anything, f.client.ID).Return(f.client, nil)
	f.products.On("FindByID", mock.Anything, f.product.ID).Return(f.product, nil)
	f.mailer.On("SendWarrantyConfirmation", mock.Anything, mock.Anything).Return("<msg-2>", nil)

	sent := w
	sent.EmailSent = true
	sent.EmailSentDate = &fixedNow
	f.repo.On("MarkEmailSent", mock.Anything, w.ID, fixedNow).Return(sent, nil)

	got, err := f.svc.Resend(context.Background(), w.ID, f.actor)

	require.NoError(t, err)
	assert.True(t, got.EmailSent)
	f.repo.AssertExpectations(t)
}

// --- Update ---

func TestUpdate_NotesOnlyKeepsEndDate(t *testing.T) {
	f := newFixture()
	sale := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	w := domain.Warranty{ID: uuid.New().String(), ClientID: f.client.ID, ProductID: f.product.ID,
		SaleDate: sale, WarrantyEndDate: domain.DeriveExpiration(sale)}
	f.repo.On("FindByID", mock.Anything, w.ID).Return(w, nil)
	f.repo.On("Update", mock.Anything, mock.Anything).
		Return(func(_ context.Context, w domain.Warranty) domain.Warranty { return w }, nil)
	f.clients.On("FindByID", mock.Anything, f.client.ID).Return(f.client, nil)
	f.products.On("FindByID", mock.Anything, f.product.ID).Return(f.product, nil)

	notes := "cliente pediu ajuste"
	got, err := f.svc.Update(context.Background(), w.ID, domain.WarrantyPatch{Notes: &notes}, f.actor)

	require.NoError(t, err)
	assert.Equal(t, notes, got.Notes)
	assert.Equal(t, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), got.WarrantyEndDate)
	assert.Equal(t, fixedNow, got.UpdatedAt)
}

func TestUpdate_SaleDateRecomputesEndDate(t *testing.T) {
	f := newFixture()
	sale := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	w := domain.Warranty{ID: uuid.New().String(), ClientID: f.client.ID, ProductID: f.product.ID,
		SaleDate: sale, WarrantyEndDate: domain.DeriveExpiration(sale)}
	f.repo.On("FindByID", mock.Anything, w.ID).Return(w, nil)
	f.repo.On("Update", mock.Anything, mock.Anything).
		Return(func(_ context.Context, w domain.Warranty) domain.Warranty { return w }, nil)
	f.clients.On("FindByID", mock.Anything, f.client.ID).Return(f.client, nil)
	f.products.On("FindByID", mock.Anything, f.product.ID).Return(f.product, nil)

	leap := time.Date(2024, 2, 29, 10, 30, 0, 0, time.UTC)
	got, err := f.svc.Update(context.Background(), w.ID, domain.WarrantyPatch{SaleDate: &leap}, f.actor)

	require.NoError(t, err)
	assert.Equal(t, leap, got.SaleDate)
	assert.Equal(t, time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC), got.WarrantyEndDate)
}

func TestUpdate_UnknownProductRejected(t *testing.T) {
	f := newFixture()
	w := domain.Warranty{ID: uuid.New().String(), ClientID: f.client.ID, ProductID: f.product.ID}
	f.repo.On("FindByID", mock.Anything, w.ID).Return(w, nil)
	other := uuid.New().String()
	f.products.On("FindByID", mock.Anything, other).Return(domain.Product{}, apperror.NewNotFoundError("produto"))

	_, err := f.svc.Update(context.Background(), w.ID, domain.WarrantyPatch{ProductID: &other}, f.actor)

	assert.True(t, apperror.IsNotFound(err))
	f.repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestUpdate_Missing(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Update(context.Background(), "inexistente", domain.WarrantyPatch{}, f.actor)
	assert.True(t, apperror.IsNotFound(err))
}

// --- Delete / List ---

func TestDelete(t *testing.T) {
	f := newFixture()
	id := uuid.New().String()
	f.repo.On("Delete", mock.Anything, id).Return(apperror.NewNotFoundError("garantia"))

	err := f.svc.Delete(context.Background(), id, f.actor)

	assert.True(t, apperror.IsNotFound(err))
}

func TestList_ResolvesReferencesOnce(t *testing.T) {
	f := newFixture()
	missingProduct := uuid.New().String()
	records := []domain.Warranty{
		{ID: "w1", ClientID: f.client.ID, ProductID: f.product.ID},
		{ID: "w2", ClientID: f.client.ID, ProductID: f.product.ID},
		{ID: "w3", ClientID: f.client.ID, ProductID: missingProduct},
	}
	f.repo.On("FindAll", mock.Anything, domain.WarrantyFilter{}).Return(records, nil)
	f.clients.On("FindByID", mock.Anything, f.client.ID).Return(f.client, nil).Once()
	f.products.On("FindByID", mock.Anything, f.product.ID).Return(f.product, nil).Once()
	f.products.On("FindByID", mock.Anything, missingProduct).Return(domain.Product{}, apperror.NewNotFoundError("produto")).Once()

	got, err := f.svc.List(context.Background(), domain.WarrantyFilter{})

	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "Anel", got[1].Product.Name)
	assert.Nil(t, got[2].Product)
	assert.Equal(t, "Maria", got[2].Client.Name)
	f.clients.AssertExpectations(t)
	f.products.AssertExpectations(t)
}

func TestList_PropagatesResolverFailure(t *testing.T) {
	f := newFixture()
	f.repo.On("FindAll", mock.Anything, domain.WarrantyFilter{}).
		Return([]domain.Warranty{{ID: "w1", ClientID: f.client.ID, ProductID: f.product.ID}}, nil)
	f.clients.On("FindByID", mock.Anything, f.client.ID).Return(domain.Client{}, apperror.NewDBError("falha", errors.New("down")))

	_, err := f.svc.List(context.Background(), domain.WarrantyFilter{})

	assert.Error(t, err)
	assert.False(t, apperror.IsNotFound(err))
}

func TestList_MalformedFilterID(t *testing.T) {
	f := newFixture()

	_, err := f.svc.List(context.Background(), domain.WarrantyFilter{ClientID: "abc"})

	var validationErr *apperror.ValidationError
	assert.ErrorAs(t, err, &validationErr)
	f.repo.AssertNotCalled(t, "FindAll", mock.Anything, mock.Anything)
}
