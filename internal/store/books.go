package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/safar/go-pos-inventory/internal/database"
	"github.com/safar/go-pos-inventory/internal/models"
	"github.com/shopspring/decimal"
)

type BookInput struct {
	Title      string
	Author     string
	Quantity   int
	Price      decimal.Decimal
	CategoryID *int64
}

func (in BookInput) validate() error {
	if in.Title == "" || in.Author == "" {
		return fmt.Errorf("%w: title and author are required", database.ErrValidation)
	}
	if in.Quantity < 0 {
		return fmt.Errorf("%w: quantity must not be negative", database.ErrValidation)
	}
	if in.Price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", database.ErrValidation)
	}
	return nil
}

func CreateBook(ctx context.Context, db *sql.DB, in BookInput) (*models.Book, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	book := &models.Book{}

	query := `
		INSERT INTO books (title, author, quantity, price, category_id, created_at, updated_at, version)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW(), 1)
		RETURNING id, title, author, quantity, price, category_id, created_at, updated_at, version`

	err := db.QueryRowContext(ctx, query, in.Title, in.Author, in.Quantity, in.Price, in.CategoryID).Scan(
		&book.ID,
		&book.Title,
		&book.Author,
		&book.Quantity,
		&book.Price,
		&book.CategoryID,
		&book.CreatedAt,
		&book.UpdatedAt,
		&book.Version,
	)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return nil, database.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("create book: %w", err)
	}

	return book, nil
}

func GetBook(ctx context.Context, db *sql.DB, id int64) (*models.Book, error) {
	book := &models.Book{}

	query := `
		SELECT id, title, author, quantity, price, category_id, created_at, updated_at, version
		FROM books
		WHERE id = $1`

	err := db.QueryRowContext(ctx, query, id).Scan(
		&book.ID,
		&book.Title,
		&book.Author,
		&book.Quantity,
		&book.Price,
		&book.CategoryID,
		&book.CreatedAt,
		&book.UpdatedAt,
		&book.Version,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrBookNotFound
		}
		return nil, fmt.Errorf("get book: %w", err)
	}

	return book, nil
}

func UpdateBook(ctx context.Context, db *sql.DB, id int64, in BookInput) (*models.Book, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	book := &models.Book{}

	query := `
		UPDATE books
		SET title = $1, author = $2, quantity = $3, price = $4, category_id = $5,
		    updated_at = NOW(), version = version + 1
		WHERE id = $6
		RETURNING id, title, author, quantity, price, category_id, created_at, updated_at, version`

	err := db.QueryRowContext(ctx, query, in.Title, in.Author, in.Quantity, in.Price, in.CategoryID, id).Scan(
		&book.ID,
		&book.Title,
		&book.Author,
		&book.Quantity,
		&book.Price,
		&book.CategoryID,
		&book.CreatedAt,
		&book.UpdatedAt,
		&book.Version,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrBookNotFound
		}
		if database.IsForeignKeyViolation(err) {
			return nil, database.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("update book: %w", err)
	}

	return book, nil
}

func DeleteBook(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return database.ErrBookNotFound
	}

	return nil
}

func ListBooks(ctx context.Context, db *sql.DB, page, pageSize int) (*OffsetPage, error) {
	var total int64
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM books`).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count books: %w", err)
	}

	offset := (page - 1) * pageSize
	query := `
		SELECT id, title, author, quantity, price, category_id, created_at, updated_at, version
		FROM books
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := db.QueryContext(ctx, query, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	var books []models.Book
	for rows.Next() {
		var book models.Book
		err := rows.Scan(
			&book.ID,
			&book.Title,
			&book.Author,
			&book.Quantity,
			&book.Price,
			&book.CategoryID,
			&book.CreatedAt,
			&book.UpdatedAt,
			&book.Version,
		)
		if err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		books = append(books, book)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return &OffsetPage{
		Items:      books,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	}, nil
}
