package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProductRef(t *testing.T) {
	ref, err := NewProductRef(ProductKindBook, 7)
	require.NoError(t, err)
	assert.Equal(t, ProductKindBook, ref.Kind)
	assert.Equal(t, int64(7), ref.ID)

	_, err = NewProductRef("GADGET", 7)
	assert.Error(t, err)

	_, err = NewProductRef(ProductKindItem, 0)
	assert.Error(t, err)

	_, err = NewProductRef(ProductKindItem, -3)
	assert.Error(t, err)
}

func TestProductRefColumns(t *testing.T) {
	bookID, itemID := ProductRef{Kind: ProductKindBook, ID: 5}.Columns()
	require.NotNil(t, bookID)
	assert.Equal(t, int64(5), *bookID)
	assert.Nil(t, itemID)

	bookID, itemID = ProductRef{Kind: ProductKindItem, ID: 9}.Columns()
	assert.Nil(t, bookID)
	require.NotNil(t, itemID)
	assert.Equal(t, int64(9), *itemID)
}

func TestRefFromColumns(t *testing.T) {
	five, nine := int64(5), int64(9)

	ref, err := RefFromColumns(&five, nil)
	require.NoError(t, err)
	assert.Equal(t, ProductRef{Kind: ProductKindBook, ID: 5}, ref)

	ref, err = RefFromColumns(nil, &nine)
	require.NoError(t, err)
	assert.Equal(t, ProductRef{Kind: ProductKindItem, ID: 9}, ref)

	_, err = RefFromColumns(nil, nil)
	assert.Error(t, err)

	_, err = RefFromColumns(&five, &nine)
	assert.Error(t, err)
}

func TestValidPaymentStatus(t *testing.T) {
	assert.True(t, ValidPaymentStatus(PaymentStatusPending))
	assert.True(t, ValidPaymentStatus(PaymentStatusPartial))
	assert.True(t, ValidPaymentStatus(PaymentStatusPaid))
	assert.False(t, ValidPaymentStatus("REFUNDED"))
	assert.False(t, ValidPaymentStatus("paid"))
	assert.False(t, ValidPaymentStatus(""))
}

func TestValidCustomerType(t *testing.T) {
	assert.True(t, ValidCustomerType(CustomerTypeCustomer))
	assert.True(t, ValidCustomerType(CustomerTypeRetailer))
	assert.False(t, ValidCustomerType("WHOLESALER"))
	assert.False(t, ValidCustomerType(""))
}
