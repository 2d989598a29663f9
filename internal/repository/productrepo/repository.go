package productrepo

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

// Define a chave de cache para produtos.
const productCacheKey = "product:%s"

const productColumns = `id, name, code, type, description, price, image, stock, created_at, updated_at`

// ProductRepository implementa a interface domain.ProductRepository.
// Ela contém as conexões necessárias para acessar dados.
type ProductRepository struct {
	DB        *sql.DB      // Conexão principal com o banco de dados (PostgreSQL)
	Cache     cache.Client // Cliente para operações de cache (Redis)
	DBTimeout time.Duration
	CacheTTL  time.Duration
	logger    logger.Logger
}

// NewProductRepository cria e retorna uma nova instância do Repositório.
// Aqui injetamos as dependências de Infraestrutura (DB e Cache).
func NewProductRepository(db *sql.DB, cacheClient cache.Client, dbTimeout, cacheTTL time.Duration, logger logger.Logger) *ProductRepository {
	return &ProductRepository{
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

func scanProduct(row rowScanner) (domain.Product, error) {
	var p domain.Product
	err := row.Scan(&p.ID, &p.Name, &p.Code, &p.Type, &p.Description,
		&p.Price, &p.Image, &p.Stock, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *ProductRepository) translateWriteError(msg string, p domain.Product, err error) error {
	if _, ok := database.IsUniqueViolation(err); ok {
		return errors.NewConflictError(fmt.Sprintf("Produto com o código '%s' já existe.", p.Code))
	}
	r.logger.Error(msg, err)
	return errors.NewDBError(msg, err)
}

// Save persiste um novo Produto. Código duplicado vira ConflictError.
func (r *ProductRepository) Save(ctx context.Context, product domain.Product) (domain.Product, error) {
	r.logger.Debug("Iniciando Save de produto no repositório.", map[string]interface{}{"id": product.ID, "code": product.Code})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `INSERT INTO products (` + productColumns + `)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.DB.ExecContext(ctxTimeout, query,
		product.ID,
		product.Name,
		product.Code,
		product.Type,
		product.Description,
		product.Price,
		product.Image,
		product.Stock,
		product.CreatedAt,
		product.UpdatedAt,
	)
	if err != nil {
		return domain.Product{}, r.translateWriteError("Falha ao inserir produto", product, err)
	}

	r.logger.Info("Produto salvo com sucesso.", map[string]interface{}{"id": product.ID, "code": product.Code})
	return product, nil
}

// FindByID busca um produto pelo ID, utilizando a estratégia Cache-Aside.
func (r *ProductRepository) FindByID(ctx context.Context, id string) (domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	key := fmt.Sprintf(productCacheKey, id)

	// --- Cache-Aside (READ) ---
	cached, err := r.Cache.Get(ctxTimeout, key)
	if err == nil {
		var product domain.Product
		if json.Unmarshal([]byte(cached), &product) == nil {
			return product, nil
		}
		r.logger.Warn("Entrada de cache de produto corrompida, consultando o DB.", map[string]interface{}{"id": id})
	} else if err != cache.ErrCacheMiss {
		// Erro real de cache (ex: conexão perdida): segue para o DB.
		r.logger.Warn("Falha ao ler produto do cache.", map[string]interface{}{"id": id, "error": err.Error()})
	}

	row := r.DB.QueryRowContext(ctxTimeout, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	product, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return domain.Product{}, errors.NewNotFoundError(fmt.Sprintf("Produto com ID %s não existe na base de dados.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar produto no DB.", err)
		return domain.Product{}, errors.NewDBError("Falha ao buscar produto no DB", err)
	}

	// --- Cache-Aside (WRITE) ---
	if payload, marshalErr := json.Marshal(product); marshalErr == nil {
		if setErr := r.Cache.Set(ctxTimeout, key, payload, r.CacheTTL); setErr != nil {
			r.logger.Warn("Falha ao gravar produto no cache.", map[string]interface{}{"id": id, "error": setErr.Error()})
		}
	}

	return product, nil
}

// FindAll lista produtos filtrando por nome (parcial) e tipo.
func (r *ProductRepository) FindAll(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
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
	if filter.Type != "" {
		args = append(args, filter.Type)
		where = append(where, fmt.Sprintf("type = $%d", len(args)))
	}

	query := `SELECT ` + productColumns + ` FROM products`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY name"

	rows, err := r.DB.QueryContext(ctxTimeout, query, args...)
	if err != nil {
		r.logger.Error("Falha ao executar FindAll de produtos.", err)
		return nil, errors.NewDBError("Falha ao buscar produtos", err)
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, errors.NewDBError("Falha ao mapear produtos do DB", err)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDBError("Erro após iteração de produtos", err)
	}

	return products, nil
}

// Update grava os campos editáveis do produto e invalida o cache.
func (r *ProductRepository) Update(ctx context.Context, product domain.Product) (domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        UPDATE products
        SET name = $1, code = $2, type = $3, description = $4, price = $5,
            image = $6, stock = $7, updated_at = $8
        WHERE id = $9
        RETURNING ` + productColumns

	row := r.DB.QueryRowContext(ctxTimeout, query,
		product.Name, product.Code, product.Type, product.Description, product.Price,
		product.Image, product.Stock, product.UpdatedAt, product.ID,
	)
	updated, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return domain.Product{}, errors.NewNotFoundError(fmt.Sprintf("Produto com ID %s não encontrado para atualização.", product.ID))
	}
	if err != nil {
		return domain.Product{}, r.translateWriteError("Falha ao atualizar produto", product, err)
	}

	r.invalidate(ctxTimeout, product.ID)
	r.logger.Info("Produto atualizado com sucesso.", map[string]interface{}{"id": product.ID})
	return updated, nil
}

// Delete remove o produto. Produtos com garantias registradas são protegidos pela FK.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	result, err := r.DB.ExecContext(ctxTimeout, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return errors.NewConflictError(fmt.Sprintf("Produto %s possui garantias registradas e não pode ser excluído.", id))
		}
		r.logger.Error("Falha ao deletar produto do DB.", err)
		return errors.NewDBError("Falha ao deletar produto", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("Produto com ID %s não encontrado para exclusão.", id))
	}

	r.invalidate(ctxTimeout, id)
	r.logger.Info("Produto deletado com sucesso.", map[string]interface{}{"id": id})
	return nil
}

func (r *ProductRepository) invalidate(ctx context.Context, id string) {
	if err := r.Cache.Delete(ctx, fmt.Sprintf(productCacheKey, id)); err != nil {
		r.logger.Warn("Falha ao invalidar produto no cache.", map[string]interface{}{"id": id, "error": err.Error()})
	}
}
