package domain

import (
	"context"
	"time"
)

// Client representa o cliente da loja que recebe as garantias.
type Client struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	WhatsApp  string    `json:"whatsapp"`
	Address   *Address  `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Address é o endereço postal opcional do cliente.
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zip_code"`
}

// ClientFilter define os parâmetros de busca de clientes.
type ClientFilter struct {
	Name  string
	Email string
}

// ClientRepository define o contrato de persistência para a entidade Client.
type ClientRepository interface {
	Save(ctx context.Context, client Client) (Client, error)
	FindByID(ctx context.Context, id string) (Client, error)
	FindAll(ctx context.Context, filter ClientFilter) ([]Client, error)
	Update(ctx context.Context, client Client) (Client, error)
	Delete(ctx context.Context, id string) error
}
