package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/safar/go-pos-inventory/internal/database"
	"github.com/safar/go-pos-inventory/internal/models"
)

func CreateCategory(ctx context.Context, db *sql.DB, name, description string) (*models.Category, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", database.ErrValidation)
	}

	category := &models.Category{}

	query := `
		INSERT INTO categories (name, description, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		RETURNING id, name, description, created_at, updated_at`

	err := db.QueryRowContext(ctx, query, name, description).Scan(
		&category.ID,
		&category.Name,
		&category.Description,
		&category.CreatedAt,
		&category.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}

	return category, nil
}

func UpdateCategory(ctx context.Context, db *sql.DB, id int64, name, description string) (*models.Category, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", database.ErrValidation)
	}

	category := &models.Category{}

	query := `
		UPDATE categories
		SET name = $1, description = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING id, name, description, created_at, updated_at`

	err := db.QueryRowContext(ctx, query, name, description, id).Scan(
		&category.ID,
		&category.Name,
		&category.Description,
		&category.CreatedAt,
		&category.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("update category: %w", err)
	}

	return category, nil
}

// DeleteCategory removes the category; books and items assigned to it are
// detached by the ON DELETE SET NULL constraint, not deleted.
func DeleteCategory(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return database.ErrCategoryNotFound
	}

	return nil
}

// ListCategories returns all categories newest first, each with the
// combined count of books and items assigned to it.
func ListCategories(ctx context.Context, db *sql.DB) ([]models.CategorySummary, error) {
	query := `
		SELECT c.id, c.name, c.description,
		       (SELECT COUNT(*) FROM books b WHERE b.category_id = c.id) +
		       (SELECT COUNT(*) FROM items i WHERE i.category_id = c.id)
		FROM categories c
		ORDER BY c.created_at DESC`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []models.CategorySummary
	for rows.Next() {
		var category models.CategorySummary
		err := rows.Scan(
			&category.ID,
			&category.Name,
			&category.Description,
			&category.TotalProducts,
		)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, category)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return categories, nil
}
