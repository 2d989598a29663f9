package email

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"gogarantia/internal/domain"
	apperror "gogarantia/internal/errors"
	"gogarantia/internal/pkg/logger"
	"gogarantia/internal/pkg/respond"
)

// Mailer é o transporte de e-mail usado pela administração.
type Mailer interface {
	SendWarrantyConfirmation(ctx context.Context, c domain.WarrantyConfirmation) (string, error)
	Verify(ctx context.Context) error
}

// TestRequest é o corpo de POST /v1/email/test.
type TestRequest struct {
	Email string `json:"email"`
}

// StatusResponse é a resposta de sucesso das rotas de e-mail.
type StatusResponse struct {
	Message   string `json:"message"`
	MessageID string `json:"message_id,omitempty"`
}

// Handler expõe a verificação do servidor SMTP e o envio de teste.
type Handler struct {
	Mailer    Mailer
	Logger    logger.Logger
	TestImage string
	now       func() time.Time
}

// NewHandler cria o Handler de e-mail. testImage é a imagem usada no e-mail de teste.
func NewHandler(mailer Mailer, log logger.Logger, testImage string) *Handler {
	return &Handler{Mailer: mailer, Logger: log, TestImage: testImage, now: time.Now}
}

func (h *Handler) handleServiceResponse(w http.ResponseWriter, r *http.Request, data interface{}, err error) {
	if err == nil {
		_ = respond.JSON(w, http.StatusOK, data)
		return
	}
	status := respond.Error(w, err)
	h.Logger.Warn("Operação de e-mail falhou.", map[string]interface{}{"path": r.URL.Path, "status": status, "error": err.Error()})
}

// VerifyHandler lida com a requisição GET /v1/email/verify.
// @Summary Verifica a conexão com o servidor de e-mail
// @Tags email
// @Produce json
// @Success 200 {object} StatusResponse
// @Failure 502 {object} domain.ErrorResponse "Servidor SMTP inacessível"
// @Security ApiKeyAuth
// @Router /email/verify [get]
func (h *Handler) VerifyHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.Mailer.Verify(r.Context()); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewDeliveryFailedError("Erro ao conectar ao servidor de e-mail.", err))
		return
	}
	h.handleServiceResponse(w, r, StatusResponse{Message: "Conexão com o servidor de e-mail estabelecida com sucesso"}, nil)
}

// TestHandler lida com a requisição POST /v1/email/test.
// @Summary Envia um e-mail de confirmação de teste
// @Tags email
// @Accept json
// @Produce json
// @Param request body TestRequest true "Destinatário"
// @Success 200 {object} StatusResponse
// @Failure 400 {object} domain.ErrorResponse
// @Failure 502 {object} domain.ErrorResponse "Falha no envio"
// @Security ApiKeyAuth
// @Router /email/test [post]
func (h *Handler) TestHandler(w http.ResponseWriter, r *http.Request) {
	var req TestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Por favor, forneça um endereço de e-mail."))
		return
	}

	now := h.now()
	messageID, err := h.Mailer.SendWarrantyConfirmation(r.Context(), domain.WarrantyConfirmation{
		ClientName:      "Cliente Teste",
		ClientEmail:     strings.TrimSpace(req.Email),
		ProductName:     "Produto Teste",
		ProductCode:     "TEST-001",
		Price:           decimal.RequireFromString("299.99"),
		SaleDate:        now,
		WarrantyEndDate: domain.DeriveExpiration(now),
		ProductImage:    h.TestImage,
	})
	if err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewDeliveryFailedError("Erro ao enviar e-mail de teste.", err))
		return
	}

	h.handleServiceResponse(w, r, StatusResponse{
		Message:   fmt.Sprintf("E-mail de teste enviado com sucesso para %s", req.Email),
		MessageID: messageID,
	}, nil)
}
