package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// ProductType é a categoria fechada de produtos vendidos pela loja.
type ProductType string

const (
	ProductTypeSemiJoia ProductType = "semi-joia"
	ProductTypePrata    ProductType = "prata"
)

// Valid informa se o tipo pertence ao conjunto conhecido.
func (t ProductType) Valid() bool {
	return t == ProductTypeSemiJoia || t == ProductTypePrata
}

// Label retorna o nome de exibição usado em relatórios.
func (t ProductType) Label() string {
	switch t {
	case ProductTypeSemiJoia:
		return "Semi Joias"
	case ProductTypePrata:
		return "Prata"
	}
	return string(t)
}

// Product representa uma peça do catálogo (a Entidade).
// Code é único: um código duplicado é rejeitado, nunca sobrescrito.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Code        string          `json:"code"`
	Type        ProductType     `json:"type"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image"`
	Stock       int             `json:"stock"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ProductFilter define os parâmetros de busca de produtos.
type ProductFilter struct {
	Name string
	Type ProductType
}

// ProductRepository define o contrato de persistência para a entidade Product.
type ProductRepository interface {
	Save(ctx context.Context, product Product) (Product, error)
	FindByID(ctx context.Context, id string) (Product, error)
	FindAll(ctx context.Context, filter ProductFilter) ([]Product, error)
	Update(ctx context.Context, product Product) (Product, error)
	Delete(ctx context.Context, id string) error
}
