package analytics

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gogarantia/internal/domain"
)

func price(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestAggregate_Empty(t *testing.T) {
	report := Aggregate(nil, day(2024, 3, 10))

	assert.True(t, report.Totals.TotalValue.IsZero())
	assert.Equal(t, 0, report.Totals.TotalCount)
	assert.Equal(t, StatusCounts{}, report.ByStatus)
	assert.NotNil(t, report.SalesByDate)
	assert.NotNil(t, report.ByProduct)
	assert.NotNil(t, report.ByClient)
	assert.NotNil(t, report.ByProductType)
}

func TestAggregate_ActiveAndExpired(t *testing.T) {
	now := day(2024, 3, 10)
	records := []Record{
		{
			WarrantyID: "w1", ClientID: "c1", ClientName: "Ana", ProductID: "p1", ProductName: "Anel",
			ProductType: domain.ProductTypeSemiJoia, SaleDate: day(2024, 1, 15),
			WarrantyEndDate: domain.DeriveExpiration(day(2024, 1, 15)), Price: price("199.99"),
		},
		{
			WarrantyID: "w2", ClientID: "c1", ClientName: "Ana", ProductID: "p2", ProductName: "Colar",
			ProductType: domain.ProductTypePrata, SaleDate: day(2021, 1, 15),
			WarrantyEndDate: domain.DeriveExpiration(day(2021, 1, 15)), Price: price("299.99"),
		},
	}

	report := Aggregate(records, now)

	assert.Equal(t, StatusCounts{Active: 1, Expired: 1}, report.ByStatus)
	assert.True(t, price("499.98").Equal(report.Totals.TotalValue), report.Totals.TotalValue.String())
	assert.Equal(t, 2, report.Totals.TotalCount)
}

func TestAggregate_ExpiryExactlyNowIsExpired(t *testing.T) {
	now := day(2024, 3, 10)
	report := Aggregate([]Record{{ProductID: "p", ClientID: "c", WarrantyEndDate: now, Price: price("1")}}, now)

	assert.Equal(t, StatusCounts{Active: 0, Expired: 1}, report.ByStatus)
}

func TestAggregate_DecimalTotalsDoNotDrift(t *testing.T) {
	records := make([]Record, 0, 1000)
	for i := 0; i < 1000; i++ {
		records = append(records, Record{ClientID: "c", ProductID: "p", SaleDate: day(2024, 1, 1), Price: price("0.10")})
	}

	report := Aggregate(records, day(2024, 3, 10))

	assert.Equal(t, "100.00", report.Totals.TotalValue.StringFixed(2))
	assert.True(t, price("100").Equal(report.Totals.TotalValue))
}

func TestAggregate_Groupings(t *testing.T) {
	now := day(2024, 3, 10)
	records := []Record{
		{ClientID: "c1", ClientName: "Ana", ClientEmail: "ana@x.com", ProductID: "p1", ProductName: "Anel", ProductType: domain.ProductTypeSemiJoia, SaleDate: day(2024, 3, 2), Price: price("50")},
		{ClientID: "c2", ClientName: "Ana", ClientEmail: "ana2@x.com", ProductID: "p2", ProductName: "Anel", ProductType: domain.ProductTypePrata, SaleDate: day(2024, 3, 1), Price: price("300")},
		{ClientID: "c1", ClientName: "Ana", ClientEmail: "ana@x.com", ProductID: "p1", ProductName: "Anel", ProductType: domain.ProductTypeSemiJoia, SaleDate: time.Date(2024, 3, 2, 23, 59, 0, 0, time.UTC), Price: price("70")},
		{ClientID: "c1", ClientName: "Ana", ClientEmail: "ana@x.com", ProductID: "p3", ProductName: "Brinco", ProductType: domain.ProductTypeSemiJoia, SaleDate: day(2024, 2, 28), Price: price("10")},
	}

	report := Aggregate(records, now)

	t.Run("por dia em ordem crescente", func(t *testing.T) {
		require.Len(t, report.SalesByDate, 3)
		assert.Equal(t, "2024-02-28", report.SalesByDate[0].Date)
		assert.Equal(t, "2024-03-01", report.SalesByDate[1].Date)
		assert.Equal(t, "2024-03-02", report.SalesByDate[2].Date)
		assert.Equal(t, 2, report.SalesByDate[2].Count)
		assert.True(t, price("120").Equal(report.SalesByDate[2].Total))
	})

	t.Run("produtos com mesmo nome não se misturam", func(t *testing.T) {
		require.Len(t, report.ByProduct, 3)
		assert.Equal(t, "p1", report.ByProduct[0].ID)
		assert.Equal(t, 2, report.ByProduct[0].Count)
		assert.Equal(t, "p2", report.ByProduct[1].ID)
		assert.Equal(t, "p3", report.ByProduct[2].ID)
	})

	t.Run("clientes por valor total decrescente", func(t *testing.T) {
		require.Len(t, report.ByClient, 2)
		assert.Equal(t, "c2", report.ByClient[0].ID)
		assert.True(t, price("300").Equal(report.ByClient[0].Total))
		assert.Equal(t, "c1", report.ByClient[1].ID)
		assert.Equal(t, 3, report.ByClient[1].Count)
		assert.Equal(t, []string{"p1", "p3"}, report.ByClient[1].Products)
	})

	t.Run("por tipo", func(t *testing.T) {
		require.Len(t, report.ByProductType, 2)
		assert.Equal(t, domain.ProductTypeSemiJoia, report.ByProductType[0].Type)
		assert.Equal(t, "Semi Joias", report.ByProductType[0].Label)
		assert.Equal(t, 3, report.ByProductType[0].Count)
		assert.True(t, price("130").Equal(report.ByProductType[0].Total))
		assert.Equal(t, domain.ProductTypePrata, report.ByProductType[1].Type)
	})
}
