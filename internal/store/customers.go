package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/safar/go-pos-inventory/internal/database"
	"github.com/safar/go-pos-inventory/internal/models"
)

type CustomerInput struct {
	Name    string
	Email   string
	Phone   string
	Address string
	Type    string
}

func (in CustomerInput) validate() error {
	if in.Name == "" || in.Email == "" {
		return fmt.Errorf("%w: name and email are required", database.ErrValidation)
	}
	if !models.ValidCustomerType(in.Type) {
		return fmt.Errorf("%w: invalid customer type %q", database.ErrValidation, in.Type)
	}
	return nil
}

type CustomerFilter struct {
	Search string
	Type   string
}

const customerColumns = `id, name, email, phone, address, type, created_at, updated_at`

func scanCustomer(row interface{ Scan(...interface{}) error }, c *models.Customer) error {
	return row.Scan(
		&c.ID,
		&c.Name,
		&c.Email,
		&c.Phone,
		&c.Address,
		&c.Type,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
}

func CreateCustomer(ctx context.Context, db *sql.DB, in CustomerInput) (*models.Customer, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	customer := &models.Customer{}

	query := `
		INSERT INTO customers (name, email, phone, address, type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING ` + customerColumns

	row := db.QueryRowContext(ctx, query, in.Name, in.Email, in.Phone, in.Address, in.Type)
	if err := scanCustomer(row, customer); err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}

	return customer, nil
}

func GetCustomer(ctx context.Context, db *sql.DB, id int64) (*models.Customer, error) {
	customer := &models.Customer{}

	row := db.QueryRowContext(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id)
	if err := scanCustomer(row, customer); err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("get customer: %w", err)
	}

	return customer, nil
}

func UpdateCustomer(ctx context.Context, db *sql.DB, id int64, in CustomerInput) (*models.Customer, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	customer := &models.Customer{}

	query := `
		UPDATE customers
		SET name = $1, email = $2, phone = $3, address = $4, type = $5, updated_at = NOW()
		WHERE id = $6
		RETURNING ` + customerColumns

	row := db.QueryRowContext(ctx, query, in.Name, in.Email, in.Phone, in.Address, in.Type, id)
	if err := scanCustomer(row, customer); err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("update customer: %w", err)
	}

	return customer, nil
}

// DeleteCustomer refuses to remove a customer that still has orders.
func DeleteCustomer(ctx context.Context, db *sql.DB, id int64) error {
	return database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		var linked int
		err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM orders WHERE customer_id = $1`, id).Scan(&linked)
		if err != nil {
			return fmt.Errorf("count linked orders: %w", err)
		}
		if linked > 0 {
			return database.ErrCustomerHasOrders
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM customers WHERE id = $1`, id)
		if err != nil {
			if database.IsForeignKeyViolation(err) {
				return database.ErrCustomerHasOrders
			}
			return fmt.Errorf("delete customer: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("get rows affected: %w", err)
		}

		if rowsAffected == 0 {
			return database.ErrCustomerNotFound
		}

		return nil
	})
}

// ListCustomers supports a case-insensitive search over name, email, and
// phone, plus an optional type filter.
func ListCustomers(ctx context.Context, db *sql.DB, filter CustomerFilter, page, pageSize int) (*OffsetPage, error) {
	where := `WHERE ($1 = '' OR name ILIKE '%' || $1 || '%' OR email ILIKE '%' || $1 || '%' OR phone ILIKE '%' || $1 || '%')
		  AND ($2 = '' OR type = $2)`

	var total int64
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM customers `+where,
		filter.Search, filter.Type).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count customers: %w", err)
	}

	offset := (page - 1) * pageSize
	query := `SELECT ` + customerColumns + ` FROM customers ` + where + `
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`

	rows, err := db.QueryContext(ctx, query, filter.Search, filter.Type, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	var customers []models.Customer
	for rows.Next() {
		var customer models.Customer
		if err := scanCustomer(rows, &customer); err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		customers = append(customers, customer)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return &OffsetPage{
		Items:      customers,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	}, nil
}
