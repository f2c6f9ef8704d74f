package integration

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/safar/go-pos-inventory/internal/models"
	"github.com/safar/go-pos-inventory/internal/store"
)

func setupTestDB(t *testing.T) (*sql.DB, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	postgres, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start postgres container: %v", err)
	}

	host, err := postgres.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := postgres.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	dsn := fmt.Sprintf("postgres://testuser:testpass@%s:%s/testdb?sslmode=disable", host, port.Port())

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.Ping(); err != nil {
		t.Fatalf("Failed to ping database: %v", err)
	}

	if err := runMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	cleanup := func() {
		if err := db.Close(); err != nil {
			t.Logf("Failed to close database: %v", err)
		}
		if err := postgres.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	}

	return db, cleanup
}

func runMigrations(db *sql.DB) error {
	migrationDir := "../../migrations"
	files, err := os.ReadDir(migrationDir)
	if err != nil {
		return fmt.Errorf("read migration directory: %w", err)
	}

	var migrationFiles []string
	for _, file := range files {
		if !file.IsDir() && strings.HasSuffix(file.Name(), ".up.sql") {
			migrationFiles = append(migrationFiles, file.Name())
		}
	}

	sort.Strings(migrationFiles)

	for _, filename := range migrationFiles {
		content, err := os.ReadFile(filepath.Join(migrationDir, filename))
		if err != nil {
			return fmt.Errorf("read migration file %s: %w", filename, err)
		}

		if _, err := db.Exec(string(content)); err != nil {
			return fmt.Errorf("execute migration %s: %w", filename, err)
		}
	}

	return nil
}

func createTestCustomer(t *testing.T, db *sql.DB, email string) *models.Customer {
	t.Helper()

	customer, err := store.CreateCustomer(context.Background(), db, store.CustomerInput{
		Name:  "Test Customer",
		Email: email,
		Type:  models.CustomerTypeCustomer,
	})
	if err != nil {
		t.Fatalf("Create customer: %v", err)
	}
	return customer
}

func createTestBook(t *testing.T, db *sql.DB, title string, price int64, quantity int) *models.Book {
	t.Helper()

	book, err := store.CreateBook(context.Background(), db, store.BookInput{
		Title:    title,
		Author:   "Test Author",
		Quantity: quantity,
		Price:    decimal.NewFromInt(price),
	})
	if err != nil {
		t.Fatalf("Create book: %v", err)
	}
	return book
}

func createTestItem(t *testing.T, db *sql.DB, name string, price int64, quantity int) *models.Item {
	t.Helper()

	item, err := store.CreateItem(context.Background(), db, store.ItemInput{
		Name:     name,
		Quantity: quantity,
		Price:    decimal.NewFromInt(price),
	})
	if err != nil {
		t.Fatalf("Create item: %v", err)
	}
	return item
}

func bookRef(id int64) models.ProductRef {
	return models.ProductRef{Kind: models.ProductKindBook, ID: id}
}

func itemRef(id int64) models.ProductRef {
	return models.ProductRef{Kind: models.ProductKindItem, ID: id}
}

func bookStock(t *testing.T, db *sql.DB, id int64) int {
	t.Helper()

	book, err := store.GetBook(context.Background(), db, id)
	if err != nil {
		t.Fatalf("Get book: %v", err)
	}
	return book.Quantity
}

func itemStock(t *testing.T, db *sql.DB, id int64) int {
	t.Helper()

	item, err := store.GetItem(context.Background(), db, id)
	if err != nil {
		t.Fatalf("Get item: %v", err)
	}
	return item.Quantity
}
