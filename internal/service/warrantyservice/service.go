// Package warrantyservice orquestra o ciclo de vida das garantias:
// criação com e-mail de confirmação best-effort, reenvio, atualização e exclusão.
package warrantyservice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"gogarantia/internal/domain"
	apperror "gogarantia/internal/errors"
	"gogarantia/internal/pkg/logger"
)

// ClientResolver resolve a referência de cliente de uma garantia.
type ClientResolver interface {
	FindByID(ctx context.Context, id string) (domain.Client, error)
}

// ProductResolver resolve a referência de produto de uma garantia.
type ProductResolver interface {
	FindByID(ctx context.Context, id string) (domain.Product, error)
}

// Mailer é o contrato do transporte de e-mail. O timeout de envio é responsabilidade dele.
type Mailer interface {
	SendWarrantyConfirmation(ctx context.Context, c domain.WarrantyConfirmation) (string, error)
}

// Service implementa o ciclo de vida da garantia.
type Service struct {
	repo     domain.WarrantyRepository
	clients  ClientResolver
	products ProductResolver
	mailer   Mailer
	logger   logger.Logger
	now      func() time.Time
}

// NewService cria e retorna uma nova instância do Serviço de Garantia.
func NewService(repo domain.WarrantyRepository, clients ClientResolver, products ProductResolver, mailer Mailer, logger logger.Logger) *Service {
	return &Service{
		repo:     repo,
		clients:  clients,
		products: products,
		mailer:   mailer,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) resolveClient(ctx context.Context, id string) (domain.Client, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.Client{}, apperror.NewNotFoundError(fmt.Sprintf("Cliente %s não encontrado.", id))
	}
	return s.clients.FindByID(ctx, id)
}

func (s *Service) resolveProduct(ctx context.Context, id string) (domain.Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.Product{}, apperror.NewNotFoundError(fmt.Sprintf("Produto %s não encontrado.", id))
	}
	return s.products.FindByID(ctx, id)
}

func (s *Service) find(ctx context.Context, id string) (domain.Warranty, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.Warranty{}, apperror.NewNotFoundError(fmt.Sprintf("Garantia %s não encontrada.", id))
	}
	return s.repo.FindByID(ctx, id)
}

// Create persiste a garantia e só depois tenta enviar a confirmação.
// Falha de envio é registrada em log e não impede o retorno do registro.
func (s *Service) Create(ctx context.Context, in domain.WarrantyInput, actor domain.Principal) (domain.WarrantyDetails, error) {
	in.ClientID = strings.TrimSpace(in.ClientID)
	in.ProductID = strings.TrimSpace(in.ProductID)
	if in.ClientID == "" || in.ProductID == "" {
		return domain.WarrantyDetails{}, apperror.NewValidationError("Cliente e produto são obrigatórios.")
	}
	if in.Price == nil {
		return domain.WarrantyDetails{}, apperror.NewValidationError("Informe o valor da venda.")
	}
	if in.Price.IsNegative() {
		return domain.WarrantyDetails{}, apperror.NewValidationError("O preço da venda não pode ser negativo.")
	}

	client, err := s.resolveClient(ctx, in.ClientID)
	if err != nil {
		return domain.WarrantyDetails{}, err
	}
	product, err := s.resolveProduct(ctx, in.ProductID)
	if err != nil {
		return domain.WarrantyDetails{}, err
	}

	now := s.now()
	saleDate := now
	if in.SaleDate != nil {
		saleDate = *in.SaleDate
	}

	warranty := domain.Warranty{
		ID:              uuid.New().String(),
		ClientID:        client.ID,
		ProductID:       product.ID,
		SaleDate:        saleDate,
		WarrantyEndDate: domain.DeriveExpiration(saleDate),
		Price:           *in.Price,
		InvoiceNumber:   in.InvoiceNumber,
		Notes:           in.Notes,
		CreatedBy:       actor.UserID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	saved, err := s.repo.Save(ctx, warranty)
	if err != nil {
		return domain.WarrantyDetails{}, err
	}
	s.logger.Info("Garantia registrada.", map[string]interface{}{"id": saved.ID, "created_by": actor.UserID})

	if _, err := s.deliver(ctx, saved, client, product); err != nil {
		s.logger.Warn("Falha ao enviar e-mail de confirmação; garantia mantida.", map[string]interface{}{
			"id":    saved.ID,
			"error": err.Error(),
		})
		return details(saved, client, product), nil
	}

	marked, err := s.repo.MarkEmailSent(ctx, saved.ID, s.now())
	if err != nil {
		s.logger.Error("E-mail enviado, mas falhou ao registrar o envio.", err)
		return details(saved, client, product), nil
	}
	return details(marked, client, product), nil
}

// Resend reenvia a confirmação. Aqui a falha de envio é devolvida ao chamador
// e o estado de e-mail do registro não é alterado.
func (s *Service) Resend(ctx context.Context, id string, actor domain.Principal) (domain.WarrantyDetails, error) {
	warranty, err := s.find(ctx, id)
	if err != nil {
		return domain.WarrantyDetails{}, err
	}
	client, err := s.clients.FindByID(ctx, warranty.ClientID)
	if err != nil {
		return domain.WarrantyDetails{}, err
	}
	product, err := s.products.FindByID(ctx, warranty.ProductID)
	if err != nil {
		return domain.WarrantyDetails{}, err
	}

	messageID, err := s.deliver(ctx, warranty, client, product)
	if err != nil {
		return domain.WarrantyDetails{}, apperror.NewDeliveryFailedError("Não foi possível reenviar o e-mail de confirmação.", err)
	}

	marked, err := s.repo.MarkEmailSent(ctx, warranty.ID, s.now())
	if err != nil {
		return domain.WarrantyDetails{}, err
	}
	s.logger.Info("E-mail de confirmação reenviado.", map[string]interface{}{
		"id":         warranty.ID,
		"message_id": messageID,
		"actor":      actor.UserID,
	})
	return details(marked, client, product), nil
}

// Update aplica uma atualização parcial. O fim da garantia é recalculado
// somente quando a data de venda faz parte do patch.
func (s *Service) Update(ctx context.Context, id string, patch domain.WarrantyPatch, actor domain.Principal) (domain.WarrantyDetails, error) {
	warranty, err := s.find(ctx, id)
	if err != nil {
		return domain.WarrantyDetails{}, err
	}

	if patch.ClientID != nil {
		client, err := s.resolveClient(ctx, strings.TrimSpace(*patch.ClientID))
		if err != nil {
			return domain.WarrantyDetails{}, err
		}
		warranty.ClientID = client.ID
	}
	if patch.ProductID != nil {
		product, err := s.resolveProduct(ctx, strings.TrimSpace(*patch.ProductID))
		if err != nil {
			return domain.WarrantyDetails{}, err
		}
		warranty.ProductID = product.ID
	}
	if patch.Price != nil {
		if patch.Price.IsNegative() {
			return domain.WarrantyDetails{}, apperror.NewValidationError("O preço da venda não pode ser negativo.")
		}
		warranty.Price = *patch.Price
	}
	if patch.InvoiceNumber != nil {
		warranty.InvoiceNumber = *patch.InvoiceNumber
	}
	if patch.Notes != nil {
		warranty.Notes = *patch.Notes
	}
	if patch.SaleDate != nil {
		warranty.SaleDate = *patch.SaleDate
		warranty.WarrantyEndDate = domain.DeriveExpiration(warranty.SaleDate)
	}
	warranty.UpdatedAt = s.now()

	updated, err := s.repo.Update(ctx, warranty)
	if err != nil {
		return domain.WarrantyDetails{}, err
	}
	s.logger.Info("Garantia atualizada.", map[string]interface{}{"id": updated.ID, "actor": actor.UserID})
	return s.join(ctx, updated, map[string]*domain.ClientSummary{}, map[string]*domain.ProductSummary{})
}

// Delete remove a garantia definitivamente.
func (s *Service) Delete(ctx context.Context, id string, actor domain.Principal) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperror.NewNotFoundError(fmt.Sprintf("Garantia %s não encontrada.", id))
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Garantia removida.", map[string]interface{}{"id": id, "actor": actor.UserID})
	return nil
}

// Get busca uma garantia com cliente e produto resolvidos.
func (s *Service) Get(ctx context.Context, id string) (domain.WarrantyDetails, error) {
	warranty, err := s.find(ctx, id)
	if err != nil {
		return domain.WarrantyDetails{}, err
	}
	return s.join(ctx, warranty, map[string]*domain.ClientSummary{}, map[string]*domain.ProductSummary{})
}

// List lista garantias com cliente e produto resolvidos na leitura.
// Referências que não existem mais ficam nil.
func (s *Service) List(ctx context.Context, filter domain.WarrantyFilter) ([]domain.WarrantyDetails, error) {
	for _, id := range []string{filter.ClientID, filter.ProductID} {
		if id == "" {
			continue
		}
		if _, err := uuid.Parse(id); err != nil {
			return nil, apperror.NewValidationError("Filtro de cliente ou produto com ID inválido.")
		}
	}

	warranties, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}

	clients := make(map[string]*domain.ClientSummary)
	products := make(map[string]*domain.ProductSummary)
	out := make([]domain.WarrantyDetails, 0, len(warranties))
	for _, w := range warranties {
		d, err := s.join(ctx, w, clients, products)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// join resolve as referências, memorizando resultados (inclusive ausências) nos mapas.
func (s *Service) join(ctx context.Context, w domain.Warranty, clients map[string]*domain.ClientSummary, products map[string]*domain.ProductSummary) (domain.WarrantyDetails, error) {
	d := domain.WarrantyDetails{Warranty: w}

	if cs, ok := clients[w.ClientID]; ok {
		d.Client = cs
	} else {
		c, err := s.clients.FindByID(ctx, w.ClientID)
		switch {
		case err == nil:
			d.Client = clientSummary(c)
		case !apperror.IsNotFound(err):
			return domain.WarrantyDetails{}, err
		}
		clients[w.ClientID] = d.Client
	}

	if ps, ok := products[w.ProductID]; ok {
		d.Product = ps
	} else {
		p, err := s.products.FindByID(ctx, w.ProductID)
		switch {
		case err == nil:
			d.Product = productSummary(p)
		case !apperror.IsNotFound(err):
			return domain.WarrantyDetails{}, err
		}
		products[w.ProductID] = d.Product
	}

	return d, nil
}

func (s *Service) deliver(ctx context.Context, w domain.Warranty, c domain.Client, p domain.Product) (string, error) {
	return s.mailer.SendWarrantyConfirmation(ctx, domain.WarrantyConfirmation{
		ClientName:      c.Name,
		ClientEmail:     c.Email,
		ProductName:     p.Name,
		ProductCode:     p.Code,
		Price:           w.Price,
		SaleDate:        w.SaleDate,
		WarrantyEndDate: w.WarrantyEndDate,
		ProductImage:    p.Image,
	})
}

func details(w domain.Warranty, c domain.Client, p domain.Product) domain.WarrantyDetails {
	return domain.WarrantyDetails{Warranty: w, Client: clientSummary(c), Product: productSummary(p)}
}

func clientSummary(c domain.Client) *domain.ClientSummary {
	return &domain.ClientSummary{ID: c.ID, Name: c.Name, Email: c.Email, WhatsApp: c.WhatsApp}
}

func productSummary(p domain.Product) *domain.ProductSummary {
	return &domain.ProductSummary{ID: p.ID, Name: p.Name, Code: p.Code, Type: p.Type, Price: p.Price, Image: p.Image}
}
