package clientrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gogarantia/internal/domain"
	"gogarantia/internal/errors"
	"gogarantia/internal/pkg/cache"
	"gogarantia/internal/pkg/database"
	"gogarantia/internal/pkg/logger"
)

// Define a chave de cache para clientes.
const clientCacheKey = "client:%s"

const clientColumns = `id, name, email, whatsapp, address_street, address_city, address_state, address_zip, created_at, updated_at`

// ClientRepository implementa domain.ClientRepository sobre PostgreSQL,
// com leitura por ID em Cache-Aside (Redis).
type ClientRepository struct {
	DB        *sql.DB
	Cache     cache.Client
	DBTimeout time.Duration
	CacheTTL  time.Duration
	logger    logger.Logger
}

// NewClientRepository cria e retorna uma nova instância do Repositório.
func NewClientRepository(db *sql.DB, cacheClient cache.Client, dbTimeout, cacheTTL time.Duration, logger logger.Logger) *ClientRepository {
	return &ClientRepository{
		DB:        db,
		Cache:     cacheClient,
		DBTimeout: dbTimeout,
		CacheTTL:  cacheTTL,
		logger:    logger,
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanClient(row rowScanner) (domain.Client, error) {
	var c domain.Client
	var addr domain.Address
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.WhatsApp,
		&addr.Street, &addr.City, &addr.State, &addr.ZipCode,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return domain.Client{}, err
	}
	if addr != (domain.Address{}) {
		c.Address = &addr
	}
	return c, nil
}

func addressValues(c domain.Client) (string, string, string, string) {
	if c.Address == nil {
		return "", "", "", ""
	}
	return c.Address.Street, c.Address.City, c.Address.State, c.Address.ZipCode
}

// translateWriteError converte violações de constraint em erros de domínio.
func (r *ClientRepository) translateWriteError(msg string, c domain.Client, err error) error {
	if _, ok := database.IsUniqueViolation(err); ok {
		return errors.NewConflictError(fmt.Sprintf("Já existe um cliente com o email '%s'.", c.Email))
	}
	r.logger.Error(msg, err)
	return errors.NewDBError(msg, err)
}

// Save insere um novo cliente.
func (r *ClientRepository) Save(ctx context.Context, client domain.Client) (domain.Client, error) {
	r.logger.Debug("Iniciando Save de cliente no repositório.", map[string]interface{}{"id": client.ID, "email": client.Email})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	street, city, state, zip := addressValues(client)
	query := `
        INSERT INTO clients (` + clientColumns + `)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.DB.ExecContext(ctxTimeout, query,
		client.ID, client.Name, client.Email, client.WhatsApp,
		street, city, state, zip,
		client.CreatedAt, client.UpdatedAt,
	)
	if err != nil {
		return domain.Client{}, r.translateWriteError("Falha ao inserir cliente", client, err)
	}

	r.logger.Info("Cliente salvo com sucesso.", map[string]interface{}{"id": client.ID})
	return client, nil
}

// FindByID busca um cliente pelo ID, utilizando a estratégia Cache-Aside.
func (r *ClientRepository) FindByID(ctx context.Context, id string) (domain.Client, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	key := fmt.Sprintf(clientCacheKey, id)
	cached, err := r.Cache.Get(ctxTimeout, key)
	if err == nil {
		var client domain.Client
		if json.Unmarshal([]byte(cached), &client) == nil {
			return client, nil
		}
		r.logger.Warn("Entrada de cache de cliente corrompida, consultando o DB.", map[string]interface{}{"id": id})
	} else if err != cache.ErrCacheMiss {
		r.logger.Warn("Falha ao ler cliente do cache.", map[string]interface{}{"id": id, "error": err.Error()})
	}

	row := r.DB.QueryRowContext(ctxTimeout, `SELECT `+clientColumns+` FROM clients WHERE id = $1`, id)
	client, err := scanClient(row)
	if err == sql.ErrNoRows {
		return domain.Client{}, errors.NewNotFoundError(fmt.Sprintf("Cliente com ID %s não existe.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar cliente no DB.", err)
		return domain.Client{}, errors.NewDBError("Falha ao buscar cliente", err)
	}

	if payload, marshalErr := json.Marshal(client); marshalErr == nil {
		if setErr := r.Cache.Set(ctxTimeout, key, payload, r.CacheTTL); setErr != nil {
			r.logger.Warn("Falha ao gravar cliente no cache.", map[string]interface{}{"id": id, "error": setErr.Error()})
		}
	}

	return client, nil
}

// FindAll lista clientes ordenados por nome.
func (r *ClientRepository) FindAll(ctx context.Context, filter domain.ClientFilter) ([]domain.Client, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var (
		where []string
		args  []interface{}
	)
	if filter.Name != "" {
		args = append(args, "%"+filter.Name+"%")
		where = append(where, fmt.Sprintf("name ILIKE $%d", len(args)))
	}
	if filter.Email != "" {
		args = append(args, filter.Email)
		where = append(where, fmt.Sprintf("email = $%d", len(args)))
	}

	query := `SELECT ` + clientColumns + ` FROM clients`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY name"

	rows, err := r.DB.QueryContext(ctxTimeout, query, args...)
	if err != nil {
		r.logger.Error("Falha ao executar FindAll de clientes.", err)
		return nil, errors.NewDBError("Falha ao buscar clientes", err)
	}
	defer rows.Close()

	clients := []domain.Client{}
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, errors.NewDBError("Falha ao mapear clientes do DB", err)
		}
		clients = append(clients, client)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDBError("Erro após iteração de clientes", err)
	}

	return clients, nil
}

// Update grava todos os campos editáveis do cliente e invalida o cache.
func (r *ClientRepository) Update(ctx context.Context, client domain.Client) (domain.Client, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	street, city, state, zip := addressValues(client)
	query := `
        UPDATE clients
        SET name = $1, email = $2, whatsapp = $3,
            address_street = $4, address_city = $5, address_state = $6, address_zip = $7,
            updated_at = $8
        WHERE id = $9
        RETURNING ` + clientColumns

	row := r.DB.QueryRowContext(ctxTimeout, query,
		client.Name, client.Email, client.WhatsApp,
		street, city, state, zip,
		client.UpdatedAt, client.ID,
	)
	updated, err := scanClient(row)
	if err == sql.ErrNoRows {
		return domain.Client{}, errors.NewNotFoundError(fmt.Sprintf("Cliente com ID %s não encontrado para atualização.", client.ID))
	}
	if err != nil {
		return domain.Client{}, r.translateWriteError("Falha ao atualizar cliente", client, err)
	}

	r.invalidate(ctxTimeout, client.ID)
	r.logger.Info("Cliente atualizado com sucesso.", map[string]interface{}{"id": client.ID})
	return updated, nil
}

// Delete remove o cliente. Clientes ainda referenciados por garantias são
// protegidos pela FK (ON DELETE RESTRICT).
func (r *ClientRepository) Delete(ctx context.Context, id string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	result, err := r.DB.ExecContext(ctxTimeout, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return errors.NewConflictError(fmt.Sprintf("Cliente %s possui garantias registradas e não pode ser excluído.", id))
		}
		r.logger.Error("Falha ao deletar cliente do DB.", err)
		return errors.NewDBError("Falha ao deletar cliente", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("Cliente com ID %s não encontrado para exclusão.", id))
	}

	r.invalidate(ctxTimeout, id)
	r.logger.Info("Cliente deletado com sucesso.", map[string]interface{}{"id": id})
	return nil
}

func (r *ClientRepository) invalidate(ctx context.Context, id string) {
	if err := r.Cache.Delete(ctx, fmt.Sprintf(clientCacheKey, id)); err != nil {
		r.logger.Warn("Falha ao invalidar cliente no cache.", map[string]interface{}{"id": id, "error": err.Error()})
	}
}
