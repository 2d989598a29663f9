package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"gogarantia/internal/domain"
	apperror "gogarantia/internal/errors"
	"gogarantia/internal/pkg/logger"
	"gogarantia/internal/pkg/respond"
	"gogarantia/internal/service/clientservice"
)

// ClientService define o contrato que o Handler espera da camada de Serviço.
type ClientService interface {
	CreateClient(ctx context.Context, in clientservice.ClientInput) (domain.Client, error)
	GetClientByID(ctx context.Context, id string) (domain.Client, error)
	GetClients(ctx context.Context, filter domain.ClientFilter) ([]domain.Client, error)
	UpdateClient(ctx context.Context, id string, in clientservice.ClientInput) (domain.Client, error)
	DeleteClient(ctx context.Context, id string) error
}

// Handler agrupa todos os métodos de Handler do cliente.
type Handler struct {
	Service ClientService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc ClientService, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Logger:  log,
	}
}

// handleServiceResponse processa erros de serviço e envia respostas padronizadas ao cliente.
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
		h.Logger.Debug("Requisição rejeitada.", map[string]interface{}{"path": r.URL.Path, "status": status})
	}
}

// CreateClientHandler lida com a requisição POST /v1/clients.
// @Summary Cadastra um cliente
// @Tags clients
// @Accept json
// @Produce json
// @Param client body clientservice.ClientInput true "Dados do cliente"
// @Success 201 {object} domain.Client
// @Failure 400 {object} domain.ErrorResponse "Email ou WhatsApp inválido"
// @Failure 409 {object} domain.ErrorResponse "Email já cadastrado"
// @Security ApiKeyAuth
// @Router /clients [post]
func (h *Handler) CreateClientHandler(w http.ResponseWriter, r *http.Request) {
	var in clientservice.ClientInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusCreated)
		return
	}

	created, err := h.Service.CreateClient(r.Context(), in)
	h.handleServiceResponse(w, r, created, err, http.StatusCreated)
}

// ListClientsHandler lida com a requisição GET /v1/clients.
// @Summary Lista clientes
// @Tags clients
// @Produce json
// @Param name query string false "Filtro parcial por nome"
// @Param email query string false "Filtro exato por email"
// @Success 200 {array} domain.Client
// @Security ApiKeyAuth
// @Router /clients [get]
func (h *Handler) ListClientsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	clients, err := h.Service.GetClients(r.Context(), domain.ClientFilter{
		Name:  q.Get("name"),
		Email: q.Get("email"),
	})
	h.handleServiceResponse(w, r, clients, err, http.StatusOK)
}

// GetClientHandler lida com a requisição GET /v1/clients/{id}.
// @Summary Obtém um cliente por ID
// @Tags clients
// @Produce json
// @Param id path string true "ID do Cliente"
// @Success 200 {object} domain.Client
// @Failure 404 {object} domain.ErrorResponse "Cliente não encontrado"
// @Security ApiKeyAuth
// @Router /clients/{id} [get]
func (h *Handler) GetClientHandler(w http.ResponseWriter, r *http.Request) {
	c, err := h.Service.GetClientByID(r.Context(), chi.URLParam(r, "id"))
	h.handleServiceResponse(w, r, c, err, http.StatusOK)
}

// UpdateClientHandler lida com a requisição PUT /v1/clients/{id}.
// @Summary Atualiza um cliente
// @Tags clients
// @Accept json
// @Produce json
// @Param id path string true "ID do Cliente"
// @Param client body clientservice.ClientInput true "Dados do cliente"
// @Success 200 {object} domain.Client
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse
// @Security ApiKeyAuth
// @Router /clients/{id} [put]
func (h *Handler) UpdateClientHandler(w http.ResponseWriter, r *http.Request) {
	var in clientservice.ClientInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusOK)
		return
	}

	updated, err := h.Service.UpdateClient(r.Context(), chi.URLParam(r, "id"), in)
	h.handleServiceResponse(w, r, updated, err, http.StatusOK)
}

// DeleteClientHandler lida com a requisição DELETE /v1/clients/{id}.
// @Summary Remove um cliente
// @Description Clientes com garantias registradas não podem ser removidos (409).
// @Tags clients
// @Param id path string true "ID do Cliente"
// @Success 204
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse
// @Security ApiKeyAuth
// @Router /clients/{id} [delete]
func (h *Handler) DeleteClientHandler(w http.ResponseWriter, r *http.Request) {
	err := h.Service.DeleteClient(r.Context(), chi.URLParam(r, "id"))
	h.handleServiceResponse(w, r, nil, err, http.StatusNoContent)
}
