package analytics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"gogarantia/internal/domain"
)

const dayLayout = "2006-01-02"

// DateBucket soma as vendas de um dia (UTC).
type DateBucket struct {
	Date  string          `json:"date"`
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
}

// ProductSales soma as vendas de um produto.
type ProductSales struct {
	ID    string             `json:"id"`
	Name  string             `json:"name"`
	Type  domain.ProductType `json:"type"`
	Count int                `json:"count"`
	Total decimal.Decimal    `json:"total"`
}

// ClientSales soma as compras de um cliente.
// Products são os IDs distintos comprados, na ordem da primeira compra.
type ClientSales struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Email    string          `json:"email"`
	Count    int             `json:"count"`
	Total    decimal.Decimal `json:"total"`
	Products []string        `json:"products"`
}

// StatusCounts separa garantias ativas (fim > now) de expiradas (fim <= now).
type StatusCounts struct {
	Active  int `json:"active"`
	Expired int `json:"expired"`
}

// TypeSales soma as vendas por tipo de produto.
type TypeSales struct {
	Type  domain.ProductType `json:"type"`
	Label string             `json:"label"`
	Count int                `json:"count"`
	Total decimal.Decimal    `json:"total"`
}

// Totals são os totais gerais do período.
type Totals struct {
	TotalValue decimal.Decimal `json:"total_value"`
	TotalCount int             `json:"total_count"`
}

// Report é o resultado da agregação.
type Report struct {
	SalesByDate   []DateBucket   `json:"sales_by_date"`
	ByProduct     []ProductSales `json:"by_product"`
	ByClient      []ClientSales  `json:"by_client"`
	ByStatus      StatusCounts   `json:"by_status"`
	ByProductType []TypeSales    `json:"by_product_type"`
	Totals        Totals         `json:"totals"`
}

// Aggregate agrupa os registros (já filtrados) por dia, produto, cliente,
// status e tipo. Os grupos usam o ID como chave, nunca o nome.
// Empates na ordenação preservam a ordem de entrada.
func Aggregate(records []Record, now time.Time) Report {
	report := Report{
		SalesByDate:   []DateBucket{},
		ByProduct:     []ProductSales{},
		ByClient:      []ClientSales{},
		ByProductType: []TypeSales{},
		Totals:        Totals{TotalValue: decimal.Zero},
	}

	days := map[string]int{}
	products := map[string]int{}
	clients := map[string]int{}
	clientProducts := map[string]map[string]bool{}
	types := map[domain.ProductType]int{}

	for _, r := range records {
		day := r.SaleDate.UTC().Format(dayLayout)
		i, ok := days[day]
		if !ok {
			i = len(report.SalesByDate)
			days[day] = i
			report.SalesByDate = append(report.SalesByDate, DateBucket{Date: day, Total: decimal.Zero})
		}
		report.SalesByDate[i].Count++
		report.SalesByDate[i].Total = report.SalesByDate[i].Total.Add(r.Price)

		i, ok = products[r.ProductID]
		if !ok {
			i = len(report.ByProduct)
			products[r.ProductID] = i
			report.ByProduct = append(report.ByProduct, ProductSales{
				ID: r.ProductID, Name: r.ProductName, Type: r.ProductType, Total: decimal.Zero,
			})
		}
		report.ByProduct[i].Count++
		report.ByProduct[i].Total = report.ByProduct[i].Total.Add(r.Price)

		i, ok = clients[r.ClientID]
		if !ok {
			i = len(report.ByClient)
			clients[r.ClientID] = i
			clientProducts[r.ClientID] = map[string]bool{}
			report.ByClient = append(report.ByClient, ClientSales{
				ID: r.ClientID, Name: r.ClientName, Email: r.ClientEmail, Total: decimal.Zero, Products: []string{},
			})
		}
		report.ByClient[i].Count++
		report.ByClient[i].Total = report.ByClient[i].Total.Add(r.Price)
		if !clientProducts[r.ClientID][r.ProductID] {
			clientProducts[r.ClientID][r.ProductID] = true
			report.ByClient[i].Products = append(report.ByClient[i].Products, r.ProductID)
		}

		if r.WarrantyEndDate.After(now) {
			report.ByStatus.Active++
		} else {
			report.ByStatus.Expired++
		}

		i, ok = types[r.ProductType]
		if !ok {
			i = len(report.ByProductType)
			types[r.ProductType] = i
			report.ByProductType = append(report.ByProductType, TypeSales{
				Type: r.ProductType, Label: r.ProductType.Label(), Total: decimal.Zero,
			})
		}
		report.ByProductType[i].Count++
		report.ByProductType[i].Total = report.ByProductType[i].Total.Add(r.Price)

		report.Totals.TotalValue = report.Totals.TotalValue.Add(r.Price)
		report.Totals.TotalCount++
	}

	// Datas ISO ordenam lexicograficamente.
	sort.Slice(report.SalesByDate, func(a, b int) bool {
		return report.SalesByDate[a].Date < report.SalesByDate[b].Date
	})
	sort.SliceStable(report.ByProduct, func(a, b int) bool {
		return report.ByProduct[a].Count > report.ByProduct[b].Count
	})
	sort.SliceStable(report.ByClient, func(a, b int) bool {
		return report.ByClient[a].Total.GreaterThan(report.ByClient[b].Total)
	})
	sort.SliceStable(report.ByProductType, func(a, b int) bool {
		return report.ByProductType[a].Count > report.ByProductType[b].Count
	})

	return report
}
