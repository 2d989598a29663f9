package analytics

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Trend é a classificação da evolução das vendas no período.
type Trend string

const (
	TrendGrowing   Trend = "growing"
	TrendDeclining Trend = "declining"
	TrendStable    Trend = "stable"
)

// Label retorna o adjetivo usado no texto.
func (t Trend) Label() string {
	switch t {
	case TrendGrowing:
		return "crescente"
	case TrendDeclining:
		return "decrescente"
	}
	return "estável"
}

var (
	growthFactor  = decimal.RequireFromString("1.1")
	declineFactor = decimal.RequireFromString("0.9")
	hundred       = decimal.NewFromInt(100)
)

// Chaves das seções do relatório, na ordem em que aparecem.
const (
	SectionSummary         = "summary"
	SectionTrend           = "trend"
	SectionTopProduct      = "top_product"
	SectionTopClient       = "top_client"
	SectionPreferredType   = "preferred_type"
	SectionWarrantyStatus  = "warranty_status"
	SectionRecommendations = "recommendations"
)

// Section é um trecho do relatório textual.
type Section struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

// Insights é o relatório narrativo derivado de um Report.
type Insights struct {
	AverageTicket   decimal.Decimal `json:"average_ticket"`
	Trend           Trend           `json:"trend"`
	TopProduct      *ProductSales   `json:"top_product,omitempty"`
	TopClient       *ClientSales    `json:"top_client,omitempty"`
	PreferredType   *TypeSales      `json:"preferred_type,omitempty"`
	ActiveRatio     decimal.Decimal `json:"active_ratio"`
	Recommendations []string        `json:"recommendations"`
	Sections        []Section       `json:"sections"`
	Text            string          `json:"text"`
}

// ClassifyTrend compara a soma da segunda metade dos dias com a da primeira.
// O ponto médio é len/2 (a metade extra vai para a segunda parte).
// Menos de 2 dias é sempre estável.
func ClassifyTrend(buckets []DateBucket) Trend {
	if len(buckets) < 2 {
		return TrendStable
	}

	mid := len(buckets) / 2
	first, second := decimal.Zero, decimal.Zero
	for _, b := range buckets[:mid] {
		first = first.Add(b.Total)
	}
	for _, b := range buckets[mid:] {
		second = second.Add(b.Total)
	}

	switch {
	case second.GreaterThan(first.Mul(growthFactor)):
		return TrendGrowing
	case second.LessThan(first.Mul(declineFactor)):
		return TrendDeclining
	}
	return TrendStable
}

// GenerateInsights monta o relatório textual a partir da agregação.
// É lógica de template determinística: mesma entrada, mesmo texto.
func GenerateInsights(report Report) Insights {
	totals := report.Totals
	ins := Insights{
		AverageTicket: decimal.Zero,
		Trend:         ClassifyTrend(report.SalesByDate),
		ActiveRatio:   decimal.Zero,
	}

	if totals.TotalCount > 0 {
		ins.AverageTicket = totals.TotalValue.Div(decimal.NewFromInt(int64(totals.TotalCount)))
	}
	if len(report.ByProduct) > 0 {
		top := report.ByProduct[0]
		ins.TopProduct = &top
	}
	if len(report.ByClient) > 0 {
		top := report.ByClient[0]
		ins.TopClient = &top
	}
	if preferred, ok := preferredType(report.ByProductType); ok {
		ins.PreferredType = &preferred
	}

	active, expired := report.ByStatus.Active, report.ByStatus.Expired
	if active+expired > 0 {
		ins.ActiveRatio = decimal.NewFromInt(int64(active)).
			Div(decimal.NewFromInt(int64(active + expired))).
			Mul(hundred)
	}

	ins.Sections = append(ins.Sections, Section{SectionSummary, fmt.Sprintf(
		"No período analisado, a Etherna Joias registrou um total de R$ %s em vendas, com %d produtos vendidos. O ticket médio foi de R$ %s.",
		totals.TotalValue.StringFixed(2), totals.TotalCount, ins.AverageTicket.StringFixed(2),
	)})
	ins.Sections = append(ins.Sections, Section{SectionTrend, fmt.Sprintf(
		"A análise dos dados mostra uma tendência %s nas vendas durante o período selecionado.",
		ins.Trend.Label(),
	)})
	if p := ins.TopProduct; p != nil {
		ins.Sections = append(ins.Sections, Section{SectionTopProduct, fmt.Sprintf(
			"O produto %q foi o mais vendido, com %d unidades, gerando uma receita de R$ %s.",
			p.Name, p.Count, p.Total.StringFixed(2),
		)})
	}
	if c := ins.TopClient; c != nil {
		ins.Sections = append(ins.Sections, Section{SectionTopClient, fmt.Sprintf(
			"O cliente %q foi o mais valioso, com um total de R$ %s em compras.",
			c.Name, c.Total.StringFixed(2),
		)})
	}
	if t := ins.PreferredType; t != nil {
		share := decimal.NewFromInt(int64(t.Count)).Div(decimal.NewFromInt(int64(totals.TotalCount))).Mul(hundred)
		ins.Sections = append(ins.Sections, Section{SectionPreferredType, fmt.Sprintf(
			"Os clientes demonstram preferência por produtos do tipo %q, representando %d das %d vendas (%s%%).",
			t.Label, t.Count, totals.TotalCount, share.StringFixed(1),
		)})
	}
	ins.Sections = append(ins.Sections, Section{SectionWarrantyStatus, fmt.Sprintf(
		"Atualmente, %s%% das garantias estão ativas (%d de um total de %d).",
		ins.ActiveRatio.StringFixed(1), active, active+expired,
	)})

	ins.Recommendations = recommendations(ins)
	numbered := make([]string, len(ins.Recommendations))
	for i, rec := range ins.Recommendations {
		numbered[i] = fmt.Sprintf("%d. %s", i+1, rec)
	}
	ins.Sections = append(ins.Sections, Section{SectionRecommendations, strings.Join(numbered, "\n")})

	ins.Text = render(ins.Sections)
	return ins
}

// preferredType escolhe o tipo com mais vendas; no empate vence o primeiro.
func preferredType(types []TypeSales) (TypeSales, bool) {
	if len(types) == 0 {
		return TypeSales{}, false
	}
	best := types[0]
	for _, t := range types[1:] {
		if t.Count > best.Count {
			best = t
		}
	}
	return best, true
}

func recommendations(ins Insights) []string {
	var recs []string
	switch ins.Trend {
	case TrendGrowing:
		recs = append(recs, "Manter a estratégia atual de vendas que está gerando bons resultados.")
	case TrendDeclining:
		recs = append(recs, "Revisar a estratégia de vendas e considerar promoções para aumentar o volume.")
	default:
		recs = append(recs, "Continuar monitorando as vendas e ajustar estratégias conforme necessário.")
	}
	if ins.TopProduct != nil {
		recs = append(recs, fmt.Sprintf("Considerar aumentar o estoque do produto %q que tem alta demanda.", ins.TopProduct.Name))
	}
	if ins.TopClient != nil {
		recs = append(recs, fmt.Sprintf("Desenvolver um programa de fidelidade para clientes frequentes como %q.", ins.TopClient.Name))
	}
	if ins.PreferredType != nil {
		recs = append(recs, fmt.Sprintf("Focar no desenvolvimento de novos produtos do tipo %q que tem maior aceitação.", ins.PreferredType.Label))
	}
	recs = append(recs, "Implementar lembretes para clientes com garantias próximas do vencimento para estimular novas compras.")
	return recs
}

var sectionTitles = map[string]string{
	SectionSummary:         "### Resumo de Vendas",
	SectionTrend:           "### Tendências Identificadas",
	SectionWarrantyStatus:  "### Status das Garantias",
	SectionRecommendations: "### Recomendações",
}

func render(sections []Section) string {
	var b strings.Builder
	b.WriteString("## Análise de Desempenho da Etherna Joias\n")
	for _, s := range sections {
		if title, ok := sectionTitles[s.Key]; ok {
			b.WriteString("\n" + title + "\n")
		}
		b.WriteString(s.Text + "\n")
	}
	return b.String()
}
