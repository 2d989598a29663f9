package analyticsservice

import (
	"context"
	"time"

	"gogarantia/internal/analytics"
	"gogarantia/internal/domain"
	apperror "gogarantia/internal/errors"
	"gogarantia/internal/pkg/logger"
)

// WarrantyLister fornece o snapshot de garantias resolvidas usado pelos relatórios.
type WarrantyLister interface {
	List(ctx context.Context, filter domain.WarrantyFilter) ([]domain.WarrantyDetails, error)
}

// Dashboard é a resposta do painel de análises.
type Dashboard struct {
	Timeframe   analytics.Window `json:"timeframe"`
	GeneratedAt time.Time        `json:"generated_at"`
	analytics.Report
}

// InsightsReport é o painel acrescido da análise textual.
type InsightsReport struct {
	Dashboard
	Insights analytics.Insights `json:"insights"`
}

// Service compõe filtro de janela, agregação e narrativa sobre um snapshot por requisição.
type Service struct {
	warranties WarrantyLister
	logger     logger.Logger
	now        func() time.Time
}

// NewService cria e retorna uma nova instância do Serviço de Análises.
func NewService(warranties WarrantyLister, logger logger.Logger) *Service {
	return &Service{warranties: warranties, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// Dashboard agrega as vendas da janela informada. Apenas administradores.
func (s *Service) Dashboard(ctx context.Context, window analytics.Window, actor domain.Principal) (Dashboard, error) {
	if !actor.IsAdmin() {
		return Dashboard{}, apperror.NewForbiddenError("Acesso restrito a administradores.")
	}

	details, err := s.warranties.List(ctx, domain.WarrantyFilter{})
	if err != nil {
		return Dashboard{}, err
	}

	now := s.now()
	records := make([]analytics.Record, 0, len(details))
	for _, d := range details {
		records = append(records, analytics.RecordFromDetails(d))
	}
	report := analytics.Aggregate(analytics.Filter(records, now, window), now)

	s.logger.Debug("Painel de análises gerado.", map[string]interface{}{
		"timeframe": string(window),
		"records":   report.Totals.TotalCount,
	})
	return Dashboard{Timeframe: window, GeneratedAt: now, Report: report}, nil
}

// Insights gera o painel e o relatório textual da janela. Apenas administradores.
func (s *Service) Insights(ctx context.Context, window analytics.Window, actor domain.Principal) (InsightsReport, error) {
	dashboard, err := s.Dashboard(ctx, window, actor)
	if err != nil {
		return InsightsReport{}, err
	}
	return InsightsReport{
		Dashboard: dashboard,
		Insights:  analytics.GenerateInsights(dashboard.Report),
	}, nil
}
