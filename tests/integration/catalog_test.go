package integration

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/safar/go-pos-inventory/internal/database"
	"github.com/safar/go-pos-inventory/internal/models"
	"github.com/safar/go-pos-inventory/internal/store"
)

func TestBookCRUD(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	book, err := store.CreateBook(ctx, db, store.BookInput{
		Title:    "The Go Programming Language",
		Author:   "Donovan & Kernighan",
		Quantity: 12,
		Price:    decimal.NewFromFloat(34.99),
	})
	if err != nil {
		t.Fatalf("Create book: %v", err)
	}

	if book.ID == 0 {
		t.Error("Book ID should not be 0")
	}
	if book.Version != 1 {
		t.Errorf("Expected version 1, got %d", book.Version)
	}

	updated, err := store.UpdateBook(ctx, db, book.ID, store.BookInput{
		Title:    book.Title,
		Author:   book.Author,
		Quantity: 20,
		Price:    decimal.NewFromFloat(29.99),
	})
	if err != nil {
		t.Fatalf("Update book: %v", err)
	}

	if updated.Quantity != 20 {
		t.Errorf("Expected quantity 20, got %d", updated.Quantity)
	}
	if updated.Version != 2 {
		t.Errorf("Expected version 2, got %d", updated.Version)
	}

	fetched, err := store.GetBook(ctx, db, book.ID)
	if err != nil {
		t.Fatalf("Get book: %v", err)
	}
	if !fetched.Price.Equal(decimal.NewFromFloat(29.99)) {
		t.Errorf("Expected price 29.99, got %s", fetched.Price)
	}

	if err := store.DeleteBook(ctx, db, book.ID); err != nil {
		t.Fatalf("Delete book: %v", err)
	}

	if _, err := store.GetBook(ctx, db, book.ID); !errors.Is(err, database.ErrBookNotFound) {
		t.Errorf("Expected book not found after delete, got: %v", err)
	}
}

func TestBookValidation(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	_, err := store.CreateBook(ctx, db, store.BookInput{
		Title:    "",
		Author:   "Anonymous",
		Quantity: 1,
		Price:    decimal.NewFromInt(10),
	})
	if !errors.Is(err, database.ErrValidation) {
		t.Errorf("Expected validation error for empty title, got: %v", err)
	}

	_, err = store.CreateBook(ctx, db, store.BookInput{
		Title:    "Negative",
		Author:   "Anonymous",
		Quantity: -1,
		Price:    decimal.NewFromInt(10),
	})
	if !errors.Is(err, database.ErrValidation) {
		t.Errorf("Expected validation error for negative quantity, got: %v", err)
	}
}

func TestItemCRUD(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	item := createTestItem(t, db, "Notebook", 3, 40)

	updated, err := store.UpdateItem(ctx, db, item.ID, store.ItemInput{
		Name:     "Spiral Notebook",
		Quantity: 35,
		Price:    decimal.NewFromInt(4),
	})
	if err != nil {
		t.Fatalf("Update item: %v", err)
	}
	if updated.Name != "Spiral Notebook" {
		t.Errorf("Expected renamed item, got %q", updated.Name)
	}

	if err := store.DeleteItem(ctx, db, item.ID); err != nil {
		t.Fatalf("Delete item: %v", err)
	}
	if err := store.DeleteItem(ctx, db, item.ID); !errors.Is(err, database.ErrItemNotFound) {
		t.Errorf("Expected item not found on second delete, got: %v", err)
	}
}

func TestListBooksPagination(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	for i := 0; i < 25; i++ {
		createTestBook(t, db, "Volume", 10, 1)
	}

	page, err := store.ListBooks(ctx, db, 1, 10)
	if err != nil {
		t.Fatalf("List books: %v", err)
	}

	if page.Total != 25 {
		t.Errorf("Expected total 25, got %d", page.Total)
	}
	if page.TotalPages != 3 {
		t.Errorf("Expected 3 pages, got %d", page.TotalPages)
	}

	books, ok := page.Items.([]models.Book)
	if !ok {
		t.Fatalf("Expected []models.Book, got %T", page.Items)
	}
	if len(books) != 10 {
		t.Errorf("Expected 10 books on page 1, got %d", len(books))
	}
}

func TestCategoryCounts(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	category, err := store.CreateCategory(ctx, db, "Stationery", "Pens, paper, and such")
	if err != nil {
		t.Fatalf("Create category: %v", err)
	}

	if _, err := store.CreateBook(ctx, db, store.BookInput{
		Title:      "Handwriting Guide",
		Author:     "A. Scribe",
		Quantity:   5,
		Price:      decimal.NewFromInt(12),
		CategoryID: &category.ID,
	}); err != nil {
		t.Fatalf("Create book: %v", err)
	}

	for i := 0; i < 2; i++ {
		if _, err := store.CreateItem(ctx, db, store.ItemInput{
			Name:       "Pen",
			Quantity:   30,
			Price:      decimal.NewFromInt(2),
			CategoryID: &category.ID,
		}); err != nil {
			t.Fatalf("Create item: %v", err)
		}
	}

	categories, err := store.ListCategories(ctx, db)
	if err != nil {
		t.Fatalf("List categories: %v", err)
	}

	if len(categories) != 1 {
		t.Fatalf("Expected 1 category, got %d", len(categories))
	}
	if categories[0].TotalProducts != 3 {
		t.Errorf("Expected combined count 3, got %d", categories[0].TotalProducts)
	}
}

func TestDeleteCategoryDetachesProducts(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	category, err := store.CreateCategory(ctx, db, "Ephemeral", "")
	if err != nil {
		t.Fatalf("Create category: %v", err)
	}

	book, err := store.CreateBook(ctx, db, store.BookInput{
		Title:      "Uncategorized Soon",
		Author:     "N. Body",
		Quantity:   1,
		Price:      decimal.NewFromInt(5),
		CategoryID: &category.ID,
	})
	if err != nil {
		t.Fatalf("Create book: %v", err)
	}

	if err := store.DeleteCategory(ctx, db, category.ID); err != nil {
		t.Fatalf("Delete category: %v", err)
	}

	fetched, err := store.GetBook(ctx, db, book.ID)
	if err != nil {
		t.Fatalf("Get book: %v", err)
	}
	if fetched.CategoryID != nil {
		t.Errorf("Expected book to be detached from deleted category, got %d", *fetched.CategoryID)
	}
}

func TestCreateBookUnknownCategory(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	missing := int64(4242)
	_, err := store.CreateBook(context.Background(), db, store.BookInput{
		Title:      "Lost Shelf",
		Author:     "N. Body",
		Quantity:   1,
		Price:      decimal.NewFromInt(5),
		CategoryID: &missing,
	})
	if !errors.Is(err, database.ErrCategoryNotFound) {
		t.Errorf("Expected category not found, got: %v", err)
	}
}
