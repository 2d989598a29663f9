package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gogarantia/internal/domain"
	apperror "gogarantia/internal/errors"
)

func seed(t *testing.T, s *Store) (domain.Client, domain.Product) {
	t.Helper()
	ctx := context.Background()
	c, err := s.Clients().Save(ctx, domain.Client{ID: "c1", Name: "Maria", Email: "maria@example.com", WhatsApp: "11999998888"})
	require.NoError(t, err)
	p, err := s.Products().Save(ctx, domain.Product{ID: "p1", Name: "Anel", Code: "AN-01", Type: domain.ProductTypePrata, Price: decimal.RequireFromString("199.99")})
	require.NoError(t, err)
	return c, p
}

func TestClientRepository_DuplicateEmailConflict(t *testing.T) {
	s := New()
	seed(t, s)

	_, err := s.Clients().Save(context.Background(), domain.Client{ID: "c2", Name: "Outra", Email: "maria@example.com"})

	var conflict *apperror.ConflictError
	assert.ErrorAs(t, err, &conflict)
}

func TestProductRepository_UpdateKeepsCodeUnique(t *testing.T) {
	s := New()
	_, p := seed(t, s)
	_, err := s.Products().Save(context.Background(), domain.Product{ID: "p2", Name: "Brinco", Code: "BR-01", Type: domain.ProductTypeSemiJoia})
	require.NoError(t, err)

	p2, _ := s.Products().FindByID(context.Background(), "p2")
	p2.Code = p.Code
	_, err = s.Products().Update(context.Background(), p2)

	var conflict *apperror.ConflictError
	assert.ErrorAs(t, err, &conflict)
}

func TestDelete_RestrictedWhileReferenced(t *testing.T) {
	ctx := context.Background()
	s := New()
	c, p := seed(t, s)

	_, err := s.Warranties().Save(ctx, domain.Warranty{ID: "w1", ClientID: c.ID, ProductID: p.ID, SaleDate: time.Now()})
	require.NoError(t, err)

	var conflict *apperror.ConflictError
	assert.ErrorAs(t, s.Clients().Delete(ctx, c.ID), &conflict)
	assert.ErrorAs(t, s.Products().Delete(ctx, p.ID), &conflict)

	require.NoError(t, s.Warranties().Delete(ctx, "w1"))
	assert.NoError(t, s.Clients().Delete(ctx, c.ID))
	assert.NoError(t, s.Products().Delete(ctx, p.ID))
}

func TestWarrantyRepository_SaveRequiresReferences(t *testing.T) {
	s := New()
	_, err := s.Warranties().Save(context.Background(), domain.Warranty{ID: "w1", ClientID: "nope", ProductID: "nope"})
	assert.True(t, apperror.IsNotFound(err))
}

func TestWarrantyRepository_UpdatePreservesEmailStatus(t *testing.T) {
	ctx := context.Background()
	s := New()
	c, p := seed(t, s)
	sale := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	_, err := s.Warranties().Save(ctx, domain.Warranty{ID: "w1", ClientID: c.ID, ProductID: p.ID, SaleDate: sale, CreatedBy: "u1"})
	require.NoError(t, err)

	sentAt := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	marked, err := s.Warranties().MarkEmailSent(ctx, "w1", sentAt)
	require.NoError(t, err)
	assert.True(t, marked.EmailSent)

	marked.Notes = "ajuste"
	marked.EmailSent = false
	marked.EmailSentDate = nil
	updated, err := s.Warranties().Update(ctx, marked)
	require.NoError(t, err)

	assert.True(t, updated.EmailSent)
	require.NotNil(t, updated.EmailSentDate)
	assert.True(t, sentAt.Equal(*updated.EmailSentDate))
	assert.Equal(t, "u1", updated.CreatedBy)
	assert.Equal(t, "ajuste", updated.Notes)
}

func TestWarrantyRepository_FindAllFilterAndOrder(t *testing.T) {
	ctx := context.Background()
	s := New()
	c, p := seed(t, s)
	older := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	_, _ = s.Warranties().Save(ctx, domain.Warranty{ID: "w1", ClientID: c.ID, ProductID: p.ID, SaleDate: older})
	_, _ = s.Warranties().Save(ctx, domain.Warranty{ID: "w2", ClientID: c.ID, ProductID: p.ID, SaleDate: newer})

	all, err := s.Warranties().FindAll(ctx, domain.WarrantyFilter{ClientID: c.ID})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "w2", all[0].ID)

	none, err := s.Warranties().FindAll(ctx, domain.WarrantyFilter{ProductID: "other"})
	require.NoError(t, err)
	assert.Empty(t, none)

	n, err := s.Warranties().CountByProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestUserRepository_SaveAndFind(t *testing.T) {
	ctx := context.Background()
	s := New()

	saved, err := s.Users().Save(ctx, domain.User{Email: "admin@example.com", Role: domain.RoleAdmin})
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)

	_, err = s.Users().Save(ctx, domain.User{Email: "admin@example.com"})
	var conflict *apperror.ConflictError
	assert.ErrorAs(t, err, &conflict)

	found, err := s.Users().FindByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, saved.ID, found.ID)

	_, err = s.Users().FindByEmail(ctx, "x@example.com")
	assert.True(t, apperror.IsNotFound(err))
}
