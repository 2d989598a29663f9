// Package analytics agrega o histórico de garantias em relatórios de vendas
// e gera o texto de insights. Tudo aqui é puro: sem I/O e sem relógio global,
// o "agora" é sempre recebido por parâmetro.
package analytics

import (
	"time"

	"github.com/shopspring/decimal"

	"gogarantia/internal/domain"
)

// Window é um intervalo relativo nomeado usado para filtrar vendas.
type Window string

const (
	WindowWeek    Window = "week"
	WindowMonth   Window = "month"
	WindowQuarter Window = "quarter"
	WindowYear    Window = "year"
	WindowAll     Window = "all"
)

// ParseWindow converte o parâmetro da requisição. Valores desconhecidos
// (inclusive vazio) caem em WindowAll.
func ParseWindow(s string) Window {
	switch w := Window(s); w {
	case WindowWeek, WindowMonth, WindowQuarter, WindowYear:
		return w
	}
	return WindowAll
}

// epoch é o limite inferior da janela "all".
var epoch = time.Unix(0, 0).UTC()

// LowerBound retorna o limite inferior inclusivo da janela relativa a now.
// Meses e anos são de calendário (AddDate), semana são 7 dias.
func LowerBound(now time.Time, w Window) time.Time {
	switch w {
	case WindowWeek:
		return now.AddDate(0, 0, -7)
	case WindowMonth:
		return now.AddDate(0, -1, 0)
	case WindowQuarter:
		return now.AddDate(0, -3, 0)
	case WindowYear:
		return now.AddDate(-1, 0, 0)
	}
	return epoch
}

// Record é a visão achatada de uma garantia com cliente e produto resolvidos.
type Record struct {
	WarrantyID      string
	ClientID        string
	ClientName      string
	ClientEmail     string
	ProductID       string
	ProductName     string
	ProductType     domain.ProductType
	SaleDate        time.Time
	WarrantyEndDate time.Time
	Price           decimal.Decimal
}

// RecordFromDetails achata uma garantia resolvida. Referências ausentes
// mantêm apenas o ID.
func RecordFromDetails(d domain.WarrantyDetails) Record {
	rec := Record{
		WarrantyID:      d.ID,
		ClientID:        d.ClientID,
		ProductID:       d.ProductID,
		SaleDate:        d.SaleDate,
		WarrantyEndDate: d.WarrantyEndDate,
		Price:           d.Price,
	}
	if d.Client != nil {
		rec.ClientName = d.Client.Name
		rec.ClientEmail = d.Client.Email
	}
	if d.Product != nil {
		rec.ProductName = d.Product.Name
		rec.ProductType = d.Product.Type
	}
	return rec
}

// Filter mantém os registros com SaleDate >= LowerBound(now, w).
func Filter(records []Record, now time.Time, w Window) []Record {
	lower := LowerBound(now, w)
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if !r.SaleDate.Before(lower) {
			out = append(out, r)
		}
	}
	return out
}
