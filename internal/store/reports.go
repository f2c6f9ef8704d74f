package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/safar/go-pos-inventory/internal/models"
	"github.com/shopspring/decimal"
)

type CategoryReport struct {
	Name       string          `json:"name"`
	TotalStock int             `json:"total_stock"`
	TotalValue decimal.Decimal `json:"total_value"`
}

type RevenuePoint struct {
	Date  string          `json:"date"`
	Value decimal.Decimal `json:"value"`
}

type TopSeller struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Revenue  decimal.Decimal `json:"revenue"`
}

type Report struct {
	TotalBooksStock     int              `json:"total_books_stock"`
	TotalItemsStock     int              `json:"total_items_stock"`
	TotalBooksValue     decimal.Decimal  `json:"total_books_value"`
	TotalItemsValue     decimal.Decimal  `json:"total_items_value"`
	CategoryReports     []CategoryReport `json:"category_reports"`
	TotalOrders         int64            `json:"total_orders"`
	TotalRevenue        decimal.Decimal  `json:"total_revenue"`
	RevenueByDay        []RevenuePoint   `json:"revenue_by_day"`
	TopSellingProducts  []TopSeller      `json:"top_selling_products"`
	RecentOrders        []models.Order   `json:"recent_orders"`
	PaymentStatusCounts map[string]int64 `json:"payment_status_counts"`
}

// BuildReport assembles the dashboard aggregates: inventory rollups,
// revenue over the trailing week, top sellers, and recent order activity.
func BuildReport(ctx context.Context, db *sql.DB) (*Report, error) {
	report := &Report{
		TotalBooksValue:     decimal.Zero,
		TotalItemsValue:     decimal.Zero,
		TotalRevenue:        decimal.Zero,
		PaymentStatusCounts: map[string]int64{},
	}

	err := db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(quantity), 0), COALESCE(SUM(price * quantity), 0) FROM books`).
		Scan(&report.TotalBooksStock, &report.TotalBooksValue)
	if err != nil {
		return nil, fmt.Errorf("book totals: %w", err)
	}

	err = db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(quantity), 0), COALESCE(SUM(price * quantity), 0) FROM items`).
		Scan(&report.TotalItemsStock, &report.TotalItemsValue)
	if err != nil {
		return nil, fmt.Errorf("item totals: %w", err)
	}

	if report.CategoryReports, err = categoryReports(ctx, db); err != nil {
		return nil, err
	}

	err = db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`).Scan(&report.TotalOrders)
	if err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}

	err = db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(total_price), 0) FROM sales`).Scan(&report.TotalRevenue)
	if err != nil {
		return nil, fmt.Errorf("total revenue: %w", err)
	}

	if report.RevenueByDay, err = revenueByDay(ctx, db); err != nil {
		return nil, err
	}

	if report.TopSellingProducts, err = topSellers(ctx, db); err != nil {
		return nil, err
	}

	if report.RecentOrders, err = recentOrders(ctx, db); err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx,
		`SELECT payment_status, COUNT(*) FROM orders GROUP BY payment_status`)
	if err != nil {
		return nil, fmt.Errorf("payment status counts: %w", err)
	}
	defer rows.Close()

	for _, status := range []string{models.PaymentStatusPending, models.PaymentStatusPartial, models.PaymentStatusPaid} {
		report.PaymentStatusCounts[status] = 0
	}
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan payment status count: %w", err)
		}
		report.PaymentStatusCounts[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return report, nil
}

func categoryReports(ctx context.Context, db *sql.DB) ([]CategoryReport, error) {
	query := `
		SELECT c.name,
		       COALESCE((SELECT SUM(b.quantity) FROM books b WHERE b.category_id = c.id), 0) +
		       COALESCE((SELECT SUM(i.quantity) FROM items i WHERE i.category_id = c.id), 0),
		       COALESCE((SELECT SUM(b.price * b.quantity) FROM books b WHERE b.category_id = c.id), 0) +
		       COALESCE((SELECT SUM(i.price * i.quantity) FROM items i WHERE i.category_id = c.id), 0)
		FROM categories c
		ORDER BY c.name`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("category reports: %w", err)
	}
	defer rows.Close()

	var reports []CategoryReport
	for rows.Next() {
		var r CategoryReport
		if err := rows.Scan(&r.Name, &r.TotalStock, &r.TotalValue); err != nil {
			return nil, fmt.Errorf("scan category report: %w", err)
		}
		reports = append(reports, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return reports, nil
}

// revenueByDay returns one point per day for the trailing 7 days, zero
// filled so the dashboard always draws a full week.
func revenueByDay(ctx context.Context, db *sql.DB) ([]RevenuePoint, error) {
	start := time.Now().Truncate(24 * time.Hour).AddDate(0, 0, -6)

	rows, err := db.QueryContext(ctx,
		`SELECT DATE(created_at)::text, COALESCE(SUM(total_price), 0)
		 FROM sales
		 WHERE created_at >= $1
		 GROUP BY DATE(created_at)`,
		start)
	if err != nil {
		return nil, fmt.Errorf("revenue by day: %w", err)
	}
	defer rows.Close()

	byDate := make(map[string]decimal.Decimal)
	for rows.Next() {
		var date string
		var value decimal.Decimal
		if err := rows.Scan(&date, &value); err != nil {
			return nil, fmt.Errorf("scan revenue point: %w", err)
		}
		byDate[date] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	points := make([]RevenuePoint, 0, 7)
	for i := 0; i < 7; i++ {
		date := start.AddDate(0, 0, i).Format("2006-01-02")
		value, ok := byDate[date]
		if !ok {
			value = decimal.Zero
		}
		points = append(points, RevenuePoint{Date: date, Value: value})
	}

	return points, nil
}

func topSellers(ctx context.Context, db *sql.DB) ([]TopSeller, error) {
	query := `
		SELECT COALESCE(b.title, i.name, 'unknown'),
		       SUM(si.quantity),
		       SUM(si.price * si.quantity)
		FROM sale_items si
		LEFT JOIN books b ON b.id = si.book_id
		LEFT JOIN items i ON i.id = si.item_id
		GROUP BY COALESCE(b.title, i.name, 'unknown')
		ORDER BY SUM(si.quantity) DESC
		LIMIT 10`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("top sellers: %w", err)
	}
	defer rows.Close()

	var sellers []TopSeller
	for rows.Next() {
		var s TopSeller
		if err := rows.Scan(&s.Name, &s.Quantity, &s.Revenue); err != nil {
			return nil, fmt.Errorf("scan top seller: %w", err)
		}
		sellers = append(sellers, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return sellers, nil
}

func recentOrders(ctx context.Context, db *sql.DB) ([]models.Order, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, customer_id, order_number, total_amount, paid_amount, payment_status, created_at, updated_at
		 FROM orders
		 ORDER BY created_at DESC, id DESC
		 LIMIT 10`)
	if err != nil {
		return nil, fmt.Errorf("recent orders: %w", err)
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

	return orders, nil
}
