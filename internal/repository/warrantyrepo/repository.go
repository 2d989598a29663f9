package warrantyrepo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"gogarantia/internal/domain"
	"gogarantia/internal/errors"
	"gogarantia/internal/pkg/database"
	"gogarantia/internal/pkg/logger"
)

const warrantyColumns = `id, client_id, product_id, sale_date, warranty_end_date, price,
       invoice_number, notes, email_sent, email_sent_date, created_by, created_at, updated_at`

// WarrantyRepository implementa domain.WarrantyRepository sobre PostgreSQL.
// Garantias não passam pelo cache: a listagem e o dashboard sempre leem do DB.
type WarrantyRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewWarrantyRepository cria e retorna uma nova instância do Repositório.
func NewWarrantyRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *WarrantyRepository {
	return &WarrantyRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanWarranty(row rowScanner) (domain.Warranty, error) {
	var w domain.Warranty
	var sentAt sql.NullTime
	err := row.Scan(&w.ID, &w.ClientID, &w.ProductID, &w.SaleDate, &w.WarrantyEndDate, &w.Price,
		&w.InvoiceNumber, &w.Notes, &w.EmailSent, &sentAt, &w.CreatedBy, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return domain.Warranty{}, err
	}
	if sentAt.Valid {
		t := sentAt.Time
		w.EmailSentDate = &t
	}
	return w, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func (r *WarrantyRepository) translateWriteError(msg string, err error) error {
	if database.IsForeignKeyViolation(err) {
		return errors.NewNotFoundError("Cliente ou produto referenciado não existe.")
	}
	r.logger.Error(msg, err)
	return errors.NewDBError(msg, err)
}

// Save insere uma garantia. O fim da garantia já deve vir derivado pelo serviço.
func (r *WarrantyRepository) Save(ctx context.Context, warranty domain.Warranty) (domain.Warranty, error) {
	r.logger.Debug("Iniciando Save de garantia no repositório.", map[string]interface{}{"id": warranty.ID})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `INSERT INTO warranties (` + warrantyColumns + `)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.DB.ExecContext(ctxTimeout, query,
		warranty.ID,
		warranty.ClientID,
		warranty.ProductID,
		warranty.SaleDate,
		warranty.WarrantyEndDate,
		warranty.Price,
		warranty.InvoiceNumber,
		warranty.Notes,
		warranty.EmailSent,
		nullTime(warranty.EmailSentDate),
		warranty.CreatedBy,
		warranty.CreatedAt,
		warranty.UpdatedAt,
	)
	if err != nil {
		return domain.Warranty{}, r.translateWriteError("Falha ao inserir garantia", err)
	}

	r.logger.Info("Garantia salva com sucesso.", map[string]interface{}{"id": warranty.ID, "client_id": warranty.ClientID})
	return warranty, nil
}

// FindByID busca uma garantia pelo ID.
func (r *WarrantyRepository) FindByID(ctx context.Context, id string) (domain.Warranty, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	row := r.DB.QueryRowContext(ctxTimeout, `SELECT `+warrantyColumns+` FROM warranties WHERE id = $1`, id)
	warranty, err := scanWarranty(row)
	if err == sql.ErrNoRows {
		return domain.Warranty{}, errors.NewNotFoundError(fmt.Sprintf("Garantia com ID %s não encontrada.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar garantia no DB.", err)
		return domain.Warranty{}, errors.NewDBError("Falha ao buscar garantia no DB", err)
	}
	return warranty, nil
}

// FindAll lista garantias, mais recentes primeiro.
func (r *WarrantyRepository) FindAll(ctx context.Context, filter domain.WarrantyFilter) ([]domain.Warranty, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var (
		where []string
		args  []interface{}
	)
	if filter.ClientID != "" {
		args = append(args, filter.ClientID)
		where = append(where, fmt.Sprintf("client_id = $%d", len(args)))
	}
	if filter.ProductID != "" {
		args = append(args, filter.ProductID)
		where = append(where, fmt.Sprintf("product_id = $%d", len(args)))
	}

	query := `SELECT ` + warrantyColumns + ` FROM warranties`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY sale_date DESC, created_at DESC"

	rows, err := r.DB.QueryContext(ctxTimeout, query, args...)
	if err != nil {
		r.logger.Error("Falha ao executar FindAll de garantias.", err)
		return nil, errors.NewDBError("Falha ao buscar garantias", err)
	}
	defer rows.Close()

	warranties := []domain.Warranty{}
	for rows.Next() {
		warranty, err := scanWarranty(rows)
		if err != nil {
			return nil, errors.NewDBError("Falha ao mapear garantias do DB", err)
		}
		warranties = append(warranties, warranty)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDBError("Erro após iteração de garantias", err)
	}

	return warranties, nil
}

// Update grava a garantia inteira num único statement, de modo que
// sale_date e warranty_end_date nunca fiquem divergentes.
func (r *WarrantyRepository) Update(ctx context.Context, warranty domain.Warranty) (domain.Warranty, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        UPDATE warranties
        SET client_id = $1, product_id = $2, sale_date = $3, warranty_end_date = $4,
            price = $5, invoice_number = $6, notes = $7, updated_at = $8
        WHERE id = $9
        RETURNING ` + warrantyColumns

	row := r.DB.QueryRowContext(ctxTimeout, query,
		warranty.ClientID, warranty.ProductID, warranty.SaleDate, warranty.WarrantyEndDate,
		warranty.Price, warranty.InvoiceNumber, warranty.Notes, warranty.UpdatedAt, warranty.ID,
	)
	updated, err := scanWarranty(row)
	if err == sql.ErrNoRows {
		return domain.Warranty{}, errors.NewNotFoundError(fmt.Sprintf("Garantia com ID %s não encontrada para atualização.", warranty.ID))
	}
	if err != nil {
		return domain.Warranty{}, r.translateWriteError("Falha ao atualizar garantia", err)
	}

	r.logger.Info("Garantia atualizada com sucesso.", map[string]interface{}{"id": warranty.ID})
	return updated, nil
}

// MarkEmailSent registra o envio do e-mail de confirmação.
// Só toca nas colunas de e-mail e em updated_at.
func (r *WarrantyRepository) MarkEmailSent(ctx context.Context, id string, sentAt time.Time) (domain.Warranty, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        UPDATE warranties
        SET email_sent = TRUE, email_sent_date = $1, updated_at = $1
        WHERE id = $2
        RETURNING ` + warrantyColumns

	updated, err := scanWarranty(r.DB.QueryRowContext(ctxTimeout, query, sentAt, id))
	if err == sql.ErrNoRows {
		return domain.Warranty{}, errors.NewNotFoundError(fmt.Sprintf("Garantia com ID %s não encontrada.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao registrar envio de e-mail.", err)
		return domain.Warranty{}, errors.NewDBError("Falha ao registrar envio de e-mail", err)
	}
	return updated, nil
}

// Delete remove a garantia definitivamente.
func (r *WarrantyRepository) Delete(ctx context.Context, id string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	result, err := r.DB.ExecContext(ctxTimeout, `DELETE FROM warranties WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Falha ao deletar garantia do DB.", err)
		return errors.NewDBError("Falha ao deletar garantia", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("Garantia com ID %s não encontrada para exclusão.", id))
	}

	r.logger.Info("Garantia deletada com sucesso.", map[string]interface{}{"id": id})
	return nil
}

// CountByClient conta as garantias de um cliente.
func (r *WarrantyRepository) CountByClient(ctx context.Context, clientID string) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM warranties WHERE client_id = $1`, clientID)
}

// CountByProduct conta as garantias de um produto.
func (r *WarrantyRepository) CountByProduct(ctx context.Context, productID string) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM warranties WHERE product_id = $1`, productID)
}

func (r *WarrantyRepository) count(ctx context.Context, query, arg string) (int, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var n int
	if err := r.DB.QueryRowContext(ctxTimeout, query, arg).Scan(&n); err != nil {
		return 0, errors.NewDBError("Falha ao contar garantias", err)
	}
	return n, nil
}
