package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/safar/go-pos-inventory/internal/database"
	"github.com/safar/go-pos-inventory/internal/models"
	"github.com/shopspring/decimal"
)

// querier is satisfied by both *sql.DB and *sql.Tx so order reads can run
// inside or outside a mutation transaction.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

type OrderLine struct {
	Product  models.ProductRef
	Quantity int
	Price    decimal.Decimal
}

type CreateOrderRequest struct {
	CustomerID    int64
	Items         []OrderLine
	PaidAmount    decimal.Decimal
	PaymentStatus string
}

type UpdateOrderRequest struct {
	Items         []OrderLine
	PaidAmount    decimal.Decimal
	PaymentStatus string
}

func generateOrderNumber() string {
	return "ORD-" + uuid.NewString()
}

func validateOrderLines(items []OrderLine, paidAmount decimal.Decimal, paymentStatus string) error {
	if len(items) == 0 {
		return fmt.Errorf("%w: at least one item is required", database.ErrValidation)
	}
	if !models.ValidPaymentStatus(paymentStatus) {
		return fmt.Errorf("%w: invalid payment status %q", database.ErrValidation, paymentStatus)
	}
	if paidAmount.IsNegative() {
		return fmt.Errorf("%w: paid amount must not be negative", database.ErrValidation)
	}
	for _, line := range items {
		if _, err := models.NewProductRef(line.Product.Kind, line.Product.ID); err != nil {
			return fmt.Errorf("%w: %v", database.ErrValidation, err)
		}
		if line.Quantity <= 0 {
			return fmt.Errorf("%w: quantity must be positive", database.ErrValidation)
		}
		if line.Price.IsNegative() {
			return fmt.Errorf("%w: price must not be negative", database.ErrValidation)
		}
	}
	return nil
}

// orderTotal sums the submitted unit prices. The price on a line is the
// price charged at the till, which may differ from the catalog price.
func orderTotal(items []OrderLine) decimal.Decimal {
	var total decimal.Decimal
	for _, line := range items {
		total = total.Add(line.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return total
}

func stockTable(kind models.ProductKind) string {
	if kind == models.ProductKindBook {
		return "books"
	}
	return "items"
}

func productNotFound(kind models.ProductKind) error {
	if kind == models.ProductKindBook {
		return database.ErrBookNotFound
	}
	return database.ErrItemNotFound
}

// deductStock reserves quantity against the referenced product. The
// conditional WHERE clause makes the decrement refuse rather than drive
// stock negative.
func deductStock(ctx context.Context, tx *sql.Tx, ref models.ProductRef, quantity int) error {
	table := stockTable(ref.Kind)

	result, err := tx.ExecContext(ctx, fmt.Sprintf(
		`UPDATE %s
		 SET quantity = quantity - $1,
		     updated_at = NOW()
		 WHERE id = $2
		   AND quantity >= $1`, table),
		quantity, ref.ID)
	if err != nil {
		return fmt.Errorf("deduct stock: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		var exists bool
		err := tx.QueryRowContext(ctx, fmt.Sprintf(
			`SELECT EXISTS(SELECT 1 FROM %s WHERE id = $1)`, table),
			ref.ID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check product exists: %w", err)
		}
		if !exists {
			return productNotFound(ref.Kind)
		}
		return database.ErrInsufficientStock
	}

	return nil
}

// restoreStock releases a previously reserved quantity back to the catalog.
func restoreStock(ctx context.Context, tx *sql.Tx, ref models.ProductRef, quantity int) error {
	result, err := tx.ExecContext(ctx, fmt.Sprintf(
		`UPDATE %s
		 SET quantity = quantity + $1,
		     updated_at = NOW()
		 WHERE id = $2`, stockTable(ref.Kind)),
		quantity, ref.ID)
	if err != nil {
		return fmt.Errorf("restore stock: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return productNotFound(ref.Kind)
	}

	return nil
}

func insertSale(ctx context.Context, tx *sql.Tx, orderID int64, total decimal.Decimal, items []OrderLine) error {
	var saleID int64
	err := tx.QueryRowContext(ctx,
		`INSERT INTO sales (order_id, total_price, created_at)
		 VALUES ($1, $2, NOW())
		 RETURNING id`,
		orderID, total).Scan(&saleID)
	if err != nil {
		return fmt.Errorf("create sale: %w", err)
	}

	for _, line := range items {
		bookID, itemID := line.Product.Columns()
		_, err := tx.ExecContext(ctx,
			`INSERT INTO sale_items (sale_id, book_id, item_id, quantity, price)
			 VALUES ($1, $2, $3, $4, $5)`,
			saleID, bookID, itemID, line.Quantity, line.Price)
		if err != nil {
			return fmt.Errorf("create sale item: %w", err)
		}
	}

	return nil
}

// CreateOrder writes the order, its sale, its sale items, and the stock
// decrements as one transaction. Either all of it commits or none of it
// does; the conditional decrement serializes concurrent orders per product.
func CreateOrder(ctx context.Context, db *sql.DB, req CreateOrderRequest) (*models.Order, error) {
	if req.CustomerID <= 0 {
		return nil, fmt.Errorf("%w: customer id is required", database.ErrValidation)
	}
	if err := validateOrderLines(req.Items, req.PaidAmount, req.PaymentStatus); err != nil {
		return nil, err
	}

	var order *models.Order

	err := database.WithRetry(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		var exists bool
		err := tx.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM customers WHERE id = $1)`,
			req.CustomerID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check customer exists: %w", err)
		}
		if !exists {
			return database.ErrCustomerNotFound
		}

		totalAmount := orderTotal(req.Items)

		var orderID int64
		err = tx.QueryRowContext(ctx,
			`INSERT INTO orders (customer_id, order_number, total_amount, paid_amount, payment_status, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
			 RETURNING id`,
			req.CustomerID, generateOrderNumber(), totalAmount, req.PaidAmount, req.PaymentStatus).Scan(&orderID)
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		if err := insertSale(ctx, tx, orderID, totalAmount, req.Items); err != nil {
			return err
		}

		for _, line := range req.Items {
			if err := deductStock(ctx, tx, line.Product, line.Quantity); err != nil {
				return err
			}
		}

		order, err = fetchOrder(ctx, tx, orderID)
		return err
	})

	if err != nil {
		return nil, err
	}

	return order, nil
}

// UpdateOrder replaces the order's line items: stock held by the old sale
// items is restored first, then the sale is rebuilt and the new quantities
// reserved. Restoring before reserving keeps a product that appears in
// both the old and new lists from being double-counted. The whole sequence
// is one transaction.
func UpdateOrder(ctx context.Context, db *sql.DB, id int64, req UpdateOrderRequest) (*models.Order, error) {
	if err := validateOrderLines(req.Items, req.PaidAmount, req.PaymentStatus); err != nil {
		return nil, err
	}

	var order *models.Order

	err := database.WithRetry(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		if err := lockOrder(ctx, tx, id); err != nil {
			return err
		}

		existing, err := fetchOrder(ctx, tx, id)
		if err != nil {
			return err
		}

		if err := releaseSale(ctx, tx, existing); err != nil {
			return err
		}

		totalAmount := orderTotal(req.Items)

		result, err := tx.ExecContext(ctx,
			`UPDATE orders
			 SET total_amount = $1, paid_amount = $2, payment_status = $3, updated_at = NOW()
			 WHERE id = $4`,
			totalAmount, req.PaidAmount, req.PaymentStatus, id)
		if err != nil {
			return fmt.Errorf("update order: %w", err)
		}
		if rowsAffected, err := result.RowsAffected(); err != nil {
			return fmt.Errorf("get rows affected: %w", err)
		} else if rowsAffected == 0 {
			return database.ErrOrderNotFound
		}

		if err := insertSale(ctx, tx, id, totalAmount, req.Items); err != nil {
			return err
		}

		for _, line := range req.Items {
			if err := deductStock(ctx, tx, line.Product, line.Quantity); err != nil {
				return err
			}
		}

		order, err = fetchOrder(ctx, tx, id)
		return err
	})

	if err != nil {
		return nil, err
	}

	return order, nil
}

// DeleteOrder restores the stock held by the order's sale items and then
// removes sale items, sale, and order in dependency order, atomically.
func DeleteOrder(ctx context.Context, db *sql.DB, id int64) error {
	return database.WithRetry(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		if err := lockOrder(ctx, tx, id); err != nil {
			return err
		}

		existing, err := fetchOrder(ctx, tx, id)
		if err != nil {
			return err
		}

		if err := releaseSale(ctx, tx, existing); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id); err != nil {
			return fmt.Errorf("delete order: %w", err)
		}

		return nil
	})
}

// lockOrder takes the row lock that serializes concurrent mutations of
// one order, so restore-then-reapply sequences cannot interleave.
func lockOrder(ctx context.Context, tx *sql.Tx, id int64) error {
	var locked int64
	err := tx.QueryRowContext(ctx,
		`SELECT id FROM orders WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if err != nil {
		if err == sql.ErrNoRows {
			return database.ErrOrderNotFound
		}
		return fmt.Errorf("lock order: %w", err)
	}
	return nil
}

// releaseSale restores stock for every live sale item of the order and
// deletes the sale items and sales. The order row itself is untouched.
func releaseSale(ctx context.Context, tx *sql.Tx, order *models.Order) error {
	if order.Sale != nil {
		for _, saleItem := range order.Sale.Items {
			if err := restoreStock(ctx, tx, saleItem.Product, saleItem.Quantity); err != nil {
				return err
			}
		}
	}

	_, err := tx.ExecContext(ctx,
		`DELETE FROM sale_items
		 WHERE sale_id IN (SELECT id FROM sales WHERE order_id = $1)`,
		order.ID)
	if err != nil {
		return fmt.Errorf("delete sale items: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM sales WHERE order_id = $1`, order.ID); err != nil {
		return fmt.Errorf("delete sales: %w", err)
	}

	return nil
}

func GetOrder(ctx context.Context, db *sql.DB, id int64) (*models.Order, error) {
	return fetchOrder(ctx, db, id)
}

func fetchOrder(ctx context.Context, q querier, id int64) (*models.Order, error) {
	order := &models.Order{}

	err := q.QueryRowContext(ctx,
		`SELECT id, customer_id, order_number, total_amount, paid_amount, payment_status, created_at, updated_at
		 FROM orders
		 WHERE id = $1`,
		id).Scan(
		&order.ID,
		&order.CustomerID,
		&order.OrderNumber,
		&order.TotalAmount,
		&order.PaidAmount,
		&order.PaymentStatus,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	sale := &models.Sale{}
	err = q.QueryRowContext(ctx,
		`SELECT id, order_id, total_price, created_at
		 FROM sales
		 WHERE order_id = $1
		 ORDER BY id DESC
		 LIMIT 1`,
		id).Scan(&sale.ID, &sale.OrderID, &sale.TotalPrice, &sale.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return order, nil
		}
		return nil, fmt.Errorf("get sale: %w", err)
	}

	rows, err := q.QueryContext(ctx,
		`SELECT si.id, si.sale_id, si.book_id, si.item_id, si.quantity, si.price,
		        COALESCE(b.title, i.name, '')
		 FROM sale_items si
		 LEFT JOIN books b ON b.id = si.book_id
		 LEFT JOIN items i ON i.id = si.item_id
		 WHERE si.sale_id = $1
		 ORDER BY si.id`,
		sale.ID)
	if err != nil {
		return nil, fmt.Errorf("get sale items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var saleItem models.SaleItem
		var bookID, itemID *int64
		err := rows.Scan(
			&saleItem.ID,
			&saleItem.SaleID,
			&bookID,
			&itemID,
			&saleItem.Quantity,
			&saleItem.Price,
			&saleItem.ProductName,
		)
		if err != nil {
			return nil, fmt.Errorf("scan sale item: %w", err)
		}

		saleItem.Product, err = models.RefFromColumns(bookID, itemID)
		if err != nil {
			return nil, fmt.Errorf("sale item %d: %w", saleItem.ID, err)
		}

		sale.Items = append(sale.Items, saleItem)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	order.Sale = sale

	return order, nil
}

// ListOrders pages through orders newest first using a keyset cursor.
// customerID filters to one customer when positive.
func ListOrders(ctx context.Context, db *sql.DB, customerID int64, cursor string, limit int) (*CursorPage, error) {
	cursorData, err := DecodeCursor(cursor)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}

	query := `
		SELECT id, customer_id, order_number, total_amount, paid_amount, payment_status, created_at, updated_at
		FROM orders
		WHERE ($1 <= 0 OR customer_id = $1)
		  AND (created_at, id) < ($2, $3)
		ORDER BY created_at DESC, id DESC
		LIMIT $4`

	rows, err := db.QueryContext(ctx, query, customerID, cursorData.CreatedAt, cursorData.ID, limit+1)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var order models.Order
		err := rows.Scan(
			&order.ID,
			&order.CustomerID,
			&order.OrderNumber,
			&order.TotalAmount,
			&order.PaidAmount,
			&order.PaymentStatus,
			&order.CreatedAt,
			&order.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	hasMore := len(orders) > limit
	if hasMore {
		orders = orders[:limit]
	}

	var nextCursor string
	if hasMore && len(orders) > 0 {
		lastOrder := orders[len(orders)-1]
		nextCursor = EncodeCursor(OrderCursor{
			CreatedAt: lastOrder.CreatedAt,
			ID:        lastOrder.ID,
		})
	}

	return &CursorPage{
		Items:      orders,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}
