package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CategorySummary is the list view of a category with the combined
// number of books and items assigned to it.
type CategorySummary struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	TotalProducts int    `json:"total_products"`
}

type Book struct {
	ID         int64           `json:"id"`
	Title      string          `json:"title"`
	Author     string          `json:"author"`
	Quantity   int             `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	CategoryID *int64          `json:"category_id,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
	Version    int             `json:"version"`
}

type Item struct {
	ID         int64           `json:"id"`
	Name       string          `json:"name"`
	Quantity   int             `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	CategoryID *int64          `json:"category_id,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
	Version    int             `json:"version"`
}

type Customer struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const (
	CustomerTypeCustomer = "CUSTOMER"
	CustomerTypeRetailer = "RETAILER"
)

func ValidCustomerType(t string) bool {
	return t == CustomerTypeCustomer || t == CustomerTypeRetailer
}

type Order struct {
	ID            int64           `json:"id"`
	CustomerID    int64           `json:"customer_id"`
	OrderNumber   string          `json:"order_number"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	PaymentStatus string          `json:"payment_status"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Sale          *Sale           `json:"sale,omitempty"`
}

// Sale groups the line items committed by one order mutation. Every
// create or update of an order replaces the order's sale wholesale.
type Sale struct {
	ID         int64           `json:"id"`
	OrderID    int64           `json:"order_id"`
	TotalPrice decimal.Decimal `json:"total_price"`
	CreatedAt  time.Time       `json:"created_at"`
	Items      []SaleItem      `json:"items,omitempty"`
}

type SaleItem struct {
	ID          int64           `json:"id"`
	SaleID      int64           `json:"sale_id"`
	Product     ProductRef      `json:"product"`
	ProductName string          `json:"product_name,omitempty"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

const (
	PaymentStatusPending = "PENDING"
	PaymentStatusPartial = "PARTIAL"
	PaymentStatusPaid    = "PAID"
)

func ValidPaymentStatus(s string) bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPartial, PaymentStatusPaid:
		return true
	}
	return false
}

type ProductKind string

const (
	ProductKindBook ProductKind = "BOOK"
	ProductKindItem ProductKind = "ITEM"
)

// ProductRef identifies exactly one catalog product. The sale_items table
// stores it as a nullable (book_id, item_id) pair with a CHECK that
// exactly one is set; in Go it only exists as this tagged form.
type ProductRef struct {
	Kind ProductKind `json:"kind"`
	ID   int64       `json:"id"`
}

func NewProductRef(kind ProductKind, id int64) (ProductRef, error) {
	if kind != ProductKindBook && kind != ProductKindItem {
		return ProductRef{}, fmt.Errorf("unknown product kind %q", kind)
	}
	if id <= 0 {
		return ProductRef{}, fmt.Errorf("invalid product id %d", id)
	}
	return ProductRef{Kind: kind, ID: id}, nil
}

// Columns splits the reference into the nullable column pair used by the
// sale_items table.
func (r ProductRef) Columns() (bookID, itemID *int64) {
	if r.Kind == ProductKindBook {
		return &r.ID, nil
	}
	return nil, &r.ID
}

// RefFromColumns rebuilds a ProductRef from the nullable column pair.
func RefFromColumns(bookID, itemID *int64) (ProductRef, error) {
	switch {
	case bookID != nil && itemID == nil:
		return ProductRef{Kind: ProductKindBook, ID: *bookID}, nil
	case itemID != nil && bookID == nil:
		return ProductRef{Kind: ProductKindItem, ID: *itemID}, nil
	}
	return ProductRef{}, fmt.Errorf("sale item must reference exactly one product")
}
