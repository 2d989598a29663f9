package warranty

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"gogarantia/internal/domain"
	apperror "gogarantia/internal/errors"
	"gogarantia/internal/pkg/logger"
	"gogarantia/internal/pkg/middleware"
	"gogarantia/internal/pkg/respond"
)

// WarrantyService define o contrato que o Handler espera da camada de Serviço.
type WarrantyService interface {
	Create(ctx context.Context, in domain.WarrantyInput, actor domain.Principal) (domain.WarrantyDetails, error)
	Resend(ctx context.Context, id string, actor domain.Principal) (domain.WarrantyDetails, error)
	Update(ctx context.Context, id string, patch domain.WarrantyPatch, actor domain.Principal) (domain.WarrantyDetails, error)
	Delete(ctx context.Context, id string, actor domain.Principal) error
	Get(ctx context.Context, id string) (domain.WarrantyDetails, error)
	List(ctx context.Context, filter domain.WarrantyFilter) ([]domain.WarrantyDetails, error)
}

// Handler agrupa os métodos de Handler de garantias.
type Handler struct {
	Service WarrantyService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc WarrantyService, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Logger:  log,
	}
}

func (h *Handler) handleServiceResponse(w http.ResponseWriter, r *http.Request, data interface{}, err error, successStatus int) {
	if err == nil {
		if jsonErr := respond.JSON(w, successStatus, data); jsonErr != nil {
			h.Logger.Error("Falha ao codificar JSON de resposta", jsonErr)
		}
		return
	}

	status := respond.Error(w, err)
	if status >= 500 {
		h.Logger.Error(fmt.Sprintf("Erro de Servidor em %s %s", r.Method, r.URL.Path), err)
	} else {
		h.Logger.Debug(fmt.Sprintf("Requisição rejeitada com status %d.", status), map[string]interface{}{"path": r.URL.Path})
	}
}

// actor extrai o principal do contexto. As rotas de garantia sempre passam pelo AuthMiddleware.
func (h *Handler) actor(w http.ResponseWriter, r *http.Request) (domain.Principal, bool) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		h.handleServiceResponse(w, r, nil, apperror.NewUnauthorizedError("Usuário não autenticado."), http.StatusOK)
	}
	return p, ok
}

// CreateWarrantyHandler lida com a requisição POST /v1/warranties.
// @Summary Registra uma garantia
// @Description O fim da garantia é calculado (venda + 24 meses). O e-mail de confirmação é
// @Description enviado em seguida; falhas de envio não impedem o cadastro (email_sent=false).
// @Tags warranties
// @Accept json
// @Produce json
// @Param warranty body domain.WarrantyInput true "Dados da venda"
// @Success 201 {object} domain.WarrantyDetails
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse "Cliente ou produto inexistente"
// @Security ApiKeyAuth
// @Router /warranties [post]
func (h *Handler) CreateWarrantyHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	var in domain.WarrantyInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusCreated)
		return
	}

	created, err := h.Service.Create(r.Context(), in, actor)
	h.handleServiceResponse(w, r, created, err, http.StatusCreated)
}

// ListWarrantiesHandler lida com a requisição GET /v1/warranties.
// @Summary Lista garantias com cliente e produto
// @Tags warranties
// @Produce json
// @Param client_id query string false "Filtra por cliente"
// @Param product_id query string false "Filtra por produto"
// @Success 200 {array} domain.WarrantyDetails
// @Security ApiKeyAuth
// @Router /warranties [get]
func (h *Handler) ListWarrantiesHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := h.Service.List(r.Context(), domain.WarrantyFilter{
		ClientID:  q.Get("client_id"),
		ProductID: q.Get("product_id"),
	})
	h.handleServiceResponse(w, r, list, err, http.StatusOK)
}

// GetWarrantyHandler lida com a requisição GET /v1/warranties/{id}.
// @Summary Obtém uma garantia
// @Tags warranties
// @Produce json
// @Param id path string true "ID da Garantia"
// @Success 200 {object} domain.WarrantyDetails
// @Failure 404 {object} domain.ErrorResponse
// @Security ApiKeyAuth
// @Router /warranties/{id} [get]
func (h *Handler) GetWarrantyHandler(w http.ResponseWriter, r *http.Request) {
	d, err := h.Service.Get(r.Context(), chi.URLParam(r, "id"))
	h.handleServiceResponse(w, r, d, err, http.StatusOK)
}

// UpdateWarrantyHandler lida com a requisição PUT /v1/warranties/{id}.
// Campos ausentes no corpo permanecem inalterados.
// @Summary Atualiza parcialmente uma garantia
// @Tags warranties
// @Accept json
// @Produce json
// @Param id path string true "ID da Garantia"
// @Param patch body domain.WarrantyPatch true "Campos alterados"
// @Success 200 {object} domain.WarrantyDetails
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security ApiKeyAuth
// @Router /warranties/{id} [put]
func (h *Handler) UpdateWarrantyHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	var patch domain.WarrantyPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusOK)
		return
	}

	updated, err := h.Service.Update(r.Context(), chi.URLParam(r, "id"), patch, actor)
	h.handleServiceResponse(w, r, updated, err, http.StatusOK)
}

// DeleteWarrantyHandler lida com a requisição DELETE /v1/warranties/{id}.
// @Summary Remove uma garantia
// @Tags warranties
// @Param id path string true "ID da Garantia"
// @Success 204
// @Failure 404 {object} domain.ErrorResponse
// @Security ApiKeyAuth
// @Router /warranties/{id} [delete]
func (h *Handler) DeleteWarrantyHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	err := h.Service.Delete(r.Context(), chi.URLParam(r, "id"), actor)
	h.handleServiceResponse(w, r, nil, err, http.StatusNoContent)
}

// ResendEmailHandler lida com a requisição POST /v1/warranties/{id}/resend-email.
// @Summary Reenvia o e-mail de confirmação
// @Tags warranties
// @Produce json
// @Param id path string true "ID da Garantia"
// @Success 200 {object} domain.WarrantyDetails
// @Failure 404 {object} domain.ErrorResponse
// @Failure 502 {object} domain.ErrorResponse "Falha no envio do e-mail"
// @Security ApiKeyAuth
// @Router /warranties/{id}/resend-email [post]
func (h *Handler) ResendEmailHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	d, err := h.Service.Resend(r.Context(), chi.URLParam(r, "id"), actor)
	h.handleServiceResponse(w, r, d, err, http.StatusOK)
}
