package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// WarrantyTermMonths é a duração da garantia a partir da data da venda.
const WarrantyTermMonths = 24

// DeriveExpiration calcula o fim da garantia: data da venda + 24 meses de calendário.
// O overflow segue a normalização do pacote time (29/02/2024 vira 01/03/2026).
func DeriveExpiration(saleDate time.Time) time.Time {
	return saleDate.AddDate(0, WarrantyTermMonths, 0)
}

// Warranty é o registro de garantia de uma venda.
// WarrantyEndDate é sempre derivado de SaleDate e nunca aceito do chamador.
type Warranty struct {
	ID              string          `json:"id"`
	ClientID        string          `json:"client_id"`
	ProductID       string          `json:"product_id"`
	SaleDate        time.Time       `json:"sale_date"`
	WarrantyEndDate time.Time       `json:"warranty_end_date"`
	Price           decimal.Decimal `json:"price"`
	InvoiceNumber   string          `json:"invoice_number,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	EmailSent       bool            `json:"email_sent"`
	EmailSentDate   *time.Time      `json:"email_sent_date,omitempty"`
	CreatedBy       string          `json:"created_by"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// WarrantyInput é o payload de criação de uma garantia.
type WarrantyInput struct {
	ClientID      string           `json:"client_id"`
	ProductID     string           `json:"product_id"`
	SaleDate      *time.Time       `json:"sale_date,omitempty"`
	Price         *decimal.Decimal `json:"price"`
	InvoiceNumber string           `json:"invoice_number,omitempty"`
	Notes         string           `json:"notes,omitempty"`
}

// WarrantyPatch carrega apenas os campos alterados numa atualização parcial.
// Campos nil permanecem como estão.
type WarrantyPatch struct {
	ClientID      *string          `json:"client_id,omitempty"`
	ProductID     *string          `json:"product_id,omitempty"`
	SaleDate      *time.Time       `json:"sale_date,omitempty"`
	Price         *decimal.Decimal `json:"price,omitempty"`
	InvoiceNumber *string          `json:"invoice_number,omitempty"`
	Notes         *string          `json:"notes,omitempty"`
}

// WarrantyFilter restringe a listagem de garantias.
type WarrantyFilter struct {
	ClientID  string
	ProductID string
}

// ClientSummary são os campos do cliente resolvidos na leitura.
type ClientSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	WhatsApp string `json:"whatsapp"`
}

// ProductSummary são os campos do produto resolvidos na leitura.
type ProductSummary struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Code  string          `json:"code"`
	Type  ProductType     `json:"type"`
	Price decimal.Decimal `json:"price"`
	Image string          `json:"image"`
}

// WarrantyDetails é a garantia com as referências já resolvidas.
// Client ou Product ficam nil se a referência não existir mais.
type WarrantyDetails struct {
	Warranty
	Client  *ClientSummary  `json:"client"`
	Product *ProductSummary `json:"product"`
}

// WarrantyConfirmation é o conteúdo do e-mail de confirmação de garantia.
type WarrantyConfirmation struct {
	ClientName      string
	ClientEmail     string
	ProductName     string
	ProductCode     string
	Price           decimal.Decimal
	SaleDate        time.Time
	WarrantyEndDate time.Time
	ProductImage    string
}

// WarrantyRepository define o contrato de persistência para a entidade Warranty.
// Update grava SaleDate e WarrantyEndDate na mesma escrita.
type WarrantyRepository interface {
	Save(ctx context.Context, warranty Warranty) (Warranty, error)
	FindByID(ctx context.Context, id string) (Warranty, error)
	FindAll(ctx context.Context, filter WarrantyFilter) ([]Warranty, error)
	Update(ctx context.Context, warranty Warranty) (Warranty, error)
	MarkEmailSent(ctx context.Context, id string, sentAt time.Time) (Warranty, error)
	Delete(ctx context.Context, id string) error
	CountByClient(ctx context.Context, clientID string) (int, error)
	CountByProduct(ctx context.Context, productID string) (int, error)
}
