package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/safar/go-pos-inventory/internal/database"
	"github.com/safar/go-pos-inventory/internal/models"
	"github.com/shopspring/decimal"
)

type ItemInput struct {
	Name       string
	Quantity   int
	Price      decimal.Decimal
	CategoryID *int64
}

func (in ItemInput) validate() error {
	if in.Name == "" {
		return fmt.Errorf("%w: name is required", database.ErrValidation)
	}
	if in.Quantity < 0 {
		return fmt.Errorf("%w: quantity must not be negative", database.ErrValidation)
	}
	if in.Price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", database.ErrValidation)
	}
	return nil
}

func CreateItem(ctx context.Context, db *sql.DB, in ItemInput) (*models.Item, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	item := &models.Item{}

	query := `
		INSERT INTO items (name, quantity, price, category_id, created_at, updated_at, version)
		VALUES ($1, $2, $3, $4, NOW(), NOW(), 1)
		RETURNING id, name, quantity, price, category_id, created_at, updated_at, version`

	err := db.QueryRowContext(ctx, query, in.Name, in.Quantity, in.Price, in.CategoryID).Scan(
		&item.ID,
		&item.Name,
		&item.Quantity,
		&item.Price,
		&item.CategoryID,
		&item.CreatedAt,
		&item.UpdatedAt,
		&item.Version,
	)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return nil, database.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("create item: %w", err)
	}

	return item, nil
}

func GetItem(ctx context.Context, db *sql.DB, id int64) (*models.Item, error) {
	item := &models.Item{}

	query := `
		SELECT id, name, quantity, price, category_id, created_at, updated_at, version
		FROM items
		WHERE id = $1`

	err := db.QueryRowContext(ctx, query, id).Scan(
		&item.ID,
		&item.Name,
		&item.Quantity,
		&item.Price,
		&item.CategoryID,
		&item.CreatedAt,
		&item.UpdatedAt,
		&item.Version,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrItemNotFound
		}
		return nil, fmt.Errorf("get item: %w", err)
	}

	return item, nil
}

func UpdateItem(ctx context.Context, db *sql.DB, id int64, in ItemInput) (*models.Item, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	item := &models.Item{}

	query := `
		UPDATE items
		SET name = $1, quantity = $2, price = $3, category_id = $4,
		    updated_at = NOW(), version = version + 1
		WHERE id = $5
		RETURNING id, name, quantity, price, category_id, created_at, updated_at, version`

	err := db.QueryRowContext(ctx, query, in.Name, in.Quantity, in.Price, in.CategoryID, id).Scan(
		&item.ID,
		&item.Name,
		&item.Quantity,
		&item.Price,
		&item.CategoryID,
		&item.CreatedAt,
		&item.UpdatedAt,
		&item.Version,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrItemNotFound
		}
		if database.IsForeignKeyViolation(err) {
			return nil, database.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("update item: %w", err)
	}

	return item, nil
}

func DeleteItem(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return database.ErrItemNotFound
	}

	return nil
}

func ListItems(ctx context.Context, db *sql.DB, page, pageSize int) (*OffsetPage, error) {
	var total int64
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count items: %w", err)
	}

	offset := (page - 1) * pageSize
	query := `
		SELECT id, name, quantity, price, category_id, created_at, updated_at, version
		FROM items
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := db.QueryContext(ctx, query, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []models.Item
	for rows.Next() {
		var item models.Item
		err := rows.Scan(
			&item.ID,
			&item.Name,
			&item.Quantity,
			&item.Price,
			&item.CategoryID,
			&item.CreatedAt,
			&item.UpdatedAt,
			&item.Version,
		)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return &OffsetPage{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	}, nil
}
