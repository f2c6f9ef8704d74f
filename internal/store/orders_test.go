package store

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safar/go-pos-inventory/internal/database"
	"github.com/safar/go-pos-inventory/internal/models"
)

func line(kind models.ProductKind, id int64, qty int, price int64) OrderLine {
	return OrderLine{
		Product:  models.ProductRef{Kind: kind, ID: id},
		Quantity: qty,
		Price:    decimal.NewFromInt(price),
	}
}

func TestValidateOrderLines(t *testing.T) {
	valid := []OrderLine{line(models.ProductKindBook, 1, 2, 10)}

	tests := []struct {
		name          string
		items         []OrderLine
		paidAmount    decimal.Decimal
		paymentStatus string
		wantErr       bool
	}{
		{
			name:          "valid",
			items:         valid,
			paymentStatus: models.PaymentStatusPending,
		},
		{
			name:          "empty items",
			items:         nil,
			paymentStatus: models.PaymentStatusPending,
			wantErr:       true,
		},
		{
			name:          "unknown payment status",
			items:         valid,
			paymentStatus: "REFUNDED",
			wantErr:       true,
		},
		{
			name:          "lowercase payment status",
			items:         valid,
			paymentStatus: "paid",
			wantErr:       true,
		},
		{
			name:          "negative paid amount",
			items:         valid,
			paidAmount:    decimal.NewFromInt(-1),
			paymentStatus: models.PaymentStatusPaid,
			wantErr:       true,
		},
		{
			name:          "zero quantity",
			items:         []OrderLine{line(models.ProductKindBook, 1, 0, 10)},
			paymentStatus: models.PaymentStatusPending,
			wantErr:       true,
		},
		{
			name:          "negative price",
			items:         []OrderLine{line(models.ProductKindItem, 1, 1, -5)},
			paymentStatus: models.PaymentStatusPending,
			wantErr:       true,
		},
		{
			name:          "bad product kind",
			items:         []OrderLine{line("GADGET", 1, 1, 5)},
			paymentStatus: models.PaymentStatusPending,
			wantErr:       true,
		},
		{
			name:          "zero product id",
			items:         []OrderLine{line(models.ProductKindBook, 0, 1, 5)},
			paymentStatus: models.PaymentStatusPending,
			wantErr:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateOrderLines(tt.items, tt.paidAmount, tt.paymentStatus)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, database.ErrValidation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestOrderTotal(t *testing.T) {
	items := []OrderLine{
		line(models.ProductKindBook, 1, 3, 20),
		line(models.ProductKindItem, 2, 2, 5),
	}

	assert.True(t, orderTotal(items).Equal(decimal.NewFromInt(70)))
	assert.True(t, orderTotal(nil).Equal(decimal.Zero))
}

func TestStockTable(t *testing.T) {
	assert.Equal(t, "books", stockTable(models.ProductKindBook))
	assert.Equal(t, "items", stockTable(models.ProductKindItem))
}

func TestProductNotFound(t *testing.T) {
	assert.ErrorIs(t, productNotFound(models.ProductKindBook), database.ErrBookNotFound)
	assert.ErrorIs(t, productNotFound(models.ProductKindItem), database.ErrItemNotFound)
}

func TestGenerateOrderNumber(t *testing.T) {
	first := generateOrderNumber()
	second := generateOrderNumber()

	assert.True(t, strings.HasPrefix(first, "ORD-"))
	assert.NotEqual(t, first, second)
}
