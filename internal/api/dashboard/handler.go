package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"gogarantia/internal/analytics"
	"gogarantia/internal/domain"
	apperror "gogarantia/internal/errors"
	"gogarantia/internal/pkg/logger"
	"gogarantia/internal/pkg/middleware"
	"gogarantia/internal/pkg/respond"
	"gogarantia/internal/service/analyticsservice"
)

// AnalyticsService define o contrato que o Handler espera da camada de Serviço.
type AnalyticsService interface {
	Dashboard(ctx context.Context, window analytics.Window, actor domain.Principal) (analyticsservice.Dashboard, error)
	Insights(ctx context.Context, window analytics.Window, actor domain.Principal) (analyticsservice.InsightsReport, error)
}

// InsightsRequest é o corpo de POST /v1/analytics/insights.
type InsightsRequest struct {
	Timeframe string `json:"timeframe"`
}

// Handler agrupa os métodos de Handler de análises.
type Handler struct {
	Service AnalyticsService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc AnalyticsService, log logger.Logger) *Handler {
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

	if status := respond.Error(w, err); status >= 500 {
		h.Logger.Error(fmt.Sprintf("Erro de Servidor em %s %s", r.Method, r.URL.Path), err)
	}
}

// DashboardHandler lida com a requisição GET /v1/analytics/dashboard.
// @Summary Painel de vendas e garantias
// @Description Agrega vendas por dia, produto, cliente, status e tipo. Janela desconhecida equivale a "all".
// @Tags analytics
// @Produce json
// @Param timeframe query string false "week, month, quarter, year ou all"
// @Success 200 {object} analyticsservice.Dashboard
// @Failure 403 {object} domain.ErrorResponse "Apenas administradores"
// @Security ApiKeyAuth
// @Router /analytics/dashboard [get]
func (h *Handler) DashboardHandler(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.PrincipalFromContext(r.Context())
	window := analytics.ParseWindow(r.URL.Query().Get("timeframe"))

	dashboard, err := h.Service.Dashboard(r.Context(), window, actor)
	h.handleServiceResponse(w, r, dashboard, err, http.StatusOK)
}

// InsightsHandler lida com a requisição POST /v1/analytics/insights.
// @Summary Relatório textual de desempenho
// @Description Gera a análise determinística (tendência, destaques e recomendações) sobre o painel da janela.
// @Tags analytics
// @Accept json
// @Produce json
// @Param request body InsightsRequest false "Janela de tempo"
// @Success 200 {object} analyticsservice.InsightsReport
// @Failure 403 {object} domain.ErrorResponse "Apenas administradores"
// @Security ApiKeyAuth
// @Router /analytics/insights [post]
func (h *Handler) InsightsHandler(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.PrincipalFromContext(r.Context())

	var req InsightsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusOK)
		return
	}

	report, err := h.Service.Insights(r.Context(), analytics.ParseWindow(req.Timeframe), actor)
	h.handleServiceResponse(w, r, report, err, http.StatusOK)
}
