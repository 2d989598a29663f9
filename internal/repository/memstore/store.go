// Package memstore provides in-memory implementations of the domain repositories,
// used by STORE_DRIVER=memory and by the HTTP tests.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"gogarantia/internal/domain"
	"gogarantia/internal/errors"
)

// Store holds every collection behind a single RWMutex, so the delete-restrict
// checks see a consistent view of warranties.
type Store struct {
	mu         sync.RWMutex
	clients    map[string]domain.Client
	products   map[string]domain.Product
	warranties map[string]domain.Warranty
	users      map[string]domain.User // by email
}

func New() *Store {
	return &Store{
		clients:    make(map[string]domain.Client),
		products:   make(map[string]domain.Product),
		warranties: make(map[string]domain.Warranty),
		users:      make(map[string]domain.User),
	}
}

// Clients returns the domain.ClientRepository view.
func (s *Store) Clients() *ClientRepository { return &ClientRepository{s: s} }

// Products returns the domain.ProductRepository view.
func (s *Store) Products() *ProductRepository { return &ProductRepository{s: s} }

// Warranties returns the domain.WarrantyRepository view.
func (s *Store) Warranties() *WarrantyRepository { return &WarrantyRepository{s: s} }

// Users returns the domain.UserRepository view.
func (s *Store) Users() *UserRepository { return &UserRepository{s: s} }

func (s *Store) referencedLocked(match func(domain.Warranty) bool) bool {
	for _, w := range s.warranties {
		if match(w) {
			return true
		}
	}
	return false
}

// =============================================================================
// CLIENTS
// =============================================================================

type ClientRepository struct{ s *Store }

func (r *ClientRepository) emailTakenLocked(email, exceptID string) bool {
	for _, c := range r.s.clients {
		if c.Email == email && c.ID != exceptID {
			return true
		}
	}
	return false
}

func (r *ClientRepository) Save(_ context.Context, client domain.Client) (domain.Client, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.emailTakenLocked(client.Email, "") {
		return domain.Client{}, errors.NewConflictError(fmt.Sprintf("Já existe um cliente com o email '%s'.", client.Email))
	}
	r.s.clients[client.ID] = client
	return client, nil
}

func (r *ClientRepository) FindByID(_ context.Context, id string) (domain.Client, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.clients[id]
	if !ok {
		return domain.Client{}, errors.NewNotFoundError(fmt.Sprintf("Cliente com ID %s não existe na base de dados.", id))
	}
	return c, nil
}

func (r *ClientRepository) FindAll(_ context.Context, filter domain.ClientFilter) ([]domain.Client, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []domain.Client{}
	for _, c := range r.s.clients {
		if filter.Name != "" && !containsFold(c.Name, filter.Name) {
			continue
		}
		if filter.Email != "" && c.Email != filter.Email {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *ClientRepository) Update(_ context.Context, client domain.Client) (domain.Client, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.clients[client.ID]
	if !ok {
		return domain.Client{}, errors.NewNotFoundError(fmt.Sprintf("Cliente com ID %s não encontrado para atualização.", client.ID))
	}
	if r.emailTakenLocked(client.Email, client.ID) {
		return domain.Client{}, errors.NewConflictError(fmt.Sprintf("Já existe um cliente com o email '%s'.", client.Email))
	}
	client.CreatedAt = current.CreatedAt
	r.s.clients[client.ID] = client
	return client, nil
}

func (r *ClientRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.clients[id]; !ok {
		return errors.NewNotFoundError(fmt.Sprintf("Cliente com ID %s não encontrado para exclusão.", id))
	}
	if r.s.referencedLocked(func(w domain.Warranty) bool { return w.ClientID == id }) {
		return errors.NewConflictError(fmt.Sprintf("Cliente %s possui garantias registradas e não pode ser excluído.", id))
	}
	delete(r.s.clients, id)
	return nil
}

// =============================================================================
// PRODUCTS
// =============================================================================

type ProductRepository struct{ s *Store }

func (r *ProductRepository) codeTakenLocked(code, exceptID string) bool {
	for _, p := range r.s.products {
		if p.Code == code && p.ID != exceptID {
			return true
		}
	}
	return false
}

func (r *ProductRepository) Save(_ context.Context, product domain.Product) (domain.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.codeTakenLocked(product.Code, "") {
		return domain.Product{}, errors.NewConflictError(fmt.Sprintf("Produto com o código '%s' já existe.", product.Code))
	}
	r.s.products[product.ID] = product
	return product, nil
}

func (r *ProductRepository) FindByID(_ context.Context, id string) (domain.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.products[id]
	if !ok {
		return domain.Product{}, errors.NewNotFoundError(fmt.Sprintf("Produto com ID %s não existe na base de dados.", id))
	}
	return p, nil
}

func (r *ProductRepository) FindAll(_ context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []domain.Product{}
	for _, p := range r.s.products {
		if filter.Name != "" && !containsFold(p.Name, filter.Name) {
			continue
		}
		if filter.Type != "" && p.Type != filter.Type {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *ProductRepository) Update(_ context.Context, product domain.Product) (domain.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.products[product.ID]
	if !ok {
		return domain.Product{}, errors.NewNotFoundError(fmt.Sprintf("Produto com ID %s não encontrado para atualização.", product.ID))
	}
	if r.codeTakenLocked(product.Code, product.ID) {
		return domain.Product{}, errors.NewConflictError(fmt.Sprintf("Produto com o código '%s' já existe.", product.Code))
	}
	product.CreatedAt = current.CreatedAt
	r.s.products[product.ID] = product
	return product, nil
}

func (r *ProductRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.products[id]; !ok {
		return errors.NewNotFoundError(fmt.Sprintf("Produto com ID %s não encontrado para exclusão.", id))
	}
	if r.s.referencedLocked(func(w domain.Warranty) bool { return w.ProductID == id }) {
		return errors.NewConflictError(fmt.Sprintf("Produto %s possui garantias registradas e não pode ser excluído.", id))
	}
	delete(r.s.products, id)
	return nil
}

// =============================================================================
// WARRANTIES
// =============================================================================

type WarrantyRepository struct{ s *Store }

// referencesExistLocked mirrors the FK constraints of the SQL schema.
func (r *WarrantyRepository) referencesExistLocked(w domain.Warranty) error {
	if _, ok := r.s.clients[w.ClientID]; !ok {
		return errors.NewNotFoundError("Cliente ou produto referenciado não existe.")
	}
	if _, ok := r.s.products[w.ProductID]; !ok {
		return errors.NewNotFoundError("Cliente ou produto referenciado não existe.")
	}
	return nil
}

func (r *WarrantyRepository) Save(_ context.Context, warranty domain.Warranty) (domain.Warranty, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.referencesExistLocked(warranty); err != nil {
		return domain.Warranty{}, err
	}
	r.s.warranties[warranty.ID] = warranty
	return warranty, nil
}

func (r *WarrantyRepository) FindByID(_ context.Context, id string) (domain.Warranty, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	w, ok := r.s.warranties[id]
	if !ok {
		return domain.Warranty{}, errors.NewNotFoundError(fmt.Sprintf("Garantia com ID %s não encontrada.", id))
	}
	return w, nil
}

func (r *WarrantyRepository) FindAll(_ context.Context, filter domain.WarrantyFilter) ([]domain.Warranty, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []domain.Warranty{}
	for _, w := range r.s.warranties {
		if filter.ClientID != "" && w.ClientID != filter.ClientID {
			continue
		}
		if filter.ProductID != "" && w.ProductID != filter.ProductID {
			continue
		}
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SaleDate.Equal(out[j].SaleDate) {
			return out[i].SaleDate.After(out[j].SaleDate)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *WarrantyRepository) Update(_ context.Context, warranty domain.Warranty) (domain.Warranty, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.warranties[warranty.ID]
	if !ok {
		return domain.Warranty{}, errors.NewNotFoundError(fmt.Sprintf("Garantia com ID %s não encontrada para atualização.", warranty.ID))
	}
	if err := r.referencesExistLocked(warranty); err != nil {
		return domain.Warranty{}, err
	}
	// Os campos de e-mail e auditoria só mudam por MarkEmailSent / Save.
	warranty.EmailSent = current.EmailSent
	warranty.EmailSentDate = current.EmailSentDate
	warranty.CreatedBy = current.CreatedBy
	warranty.CreatedAt = current.CreatedAt
	r.s.warranties[warranty.ID] = warranty
	return warranty, nil
}

func (r *WarrantyRepository) MarkEmailSent(_ context.Context, id string, sentAt time.Time) (domain.Warranty, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	w, ok := r.s.warranties[id]
	if !ok {
		return domain.Warranty{}, errors.NewNotFoundError(fmt.Sprintf("Garantia com ID %s não encontrada.", id))
	}
	w.EmailSent = true
	w.EmailSentDate = &sentAt
	w.UpdatedAt = sentAt
	r.s.warranties[id] = w
	return w, nil
}

func (r *WarrantyRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.warranties[id]; !ok {
		return errors.NewNotFoundError(fmt.Sprintf("Garantia com ID %s não encontrada para exclusão.", id))
	}
	delete(r.s.warranties, id)
	return nil
}

func (r *WarrantyRepository) CountByClient(_ context.Context, clientID string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.countLocked(func(w domain.Warranty) bool { return w.ClientID == clientID }), nil
}

func (r *WarrantyRepository) CountByProduct(_ context.Context, productID string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.countLocked(func(w domain.Warranty) bool { return w.ProductID == productID }), nil
}

func (r *WarrantyRepository) countLocked(match func(domain.Warranty) bool) int {
	n := 0
	for _, w := range r.s.warranties {
		if match(w) {
			n++
		}
	}
	return n
}

// =============================================================================
// USERS
// =============================================================================

type UserRepository struct{ s *Store }

func (r *UserRepository) Save(_ context.Context, user domain.User) (domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[user.Email]; ok {
		return domain.User{}, errors.NewConflictError(fmt.Sprintf("Usuário com email '%s' já existe", user.Email))
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	user.UpdatedAt = user.CreatedAt
	r.s.users[user.Email] = user
	return user, nil
}

func (r *UserRepository) FindByEmail(_ context.Context, email string) (domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[email]
	if !ok {
		return domain.User{}, errors.NewNotFoundError(fmt.Sprintf("Usuário com email '%s' não encontrado", email))
	}
	return u, nil
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
