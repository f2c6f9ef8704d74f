package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/safar/go-pos-inventory/internal/config"
	"github.com/safar/go-pos-inventory/internal/database"
	"github.com/safar/go-pos-inventory/internal/metrics"
	"github.com/safar/go-pos-inventory/internal/models"
	"github.com/safar/go-pos-inventory/internal/store"
	"github.com/shopspring/decimal"
)

var logger = zerolog.New(os.Stderr).With().Timestamp().Str("svc", "pos-api").Logger()

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger = logger.Level(level)

	db, err := database.NewConnection(context.Background(), &cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect to database")
	}
	defer db.Close()

	logger.Info().Msg("connected to database")

	registry := metrics.NewRegistry()

	mux := http.NewServeMux()
	route := func(pattern, name string, h http.HandlerFunc) {
		mux.Handle(pattern, registry.Instrument(name, requestLogger(h)))
	}

	route("/categories", "categories", handleCategories(db))
	route("/categories/", "category", handleCategoryByID(db))
	route("/books", "books", handleBooks(db))
	route("/books/", "book", handleBookByID(db))
	route("/items", "items", handleItems(db))
	route("/items/", "item", handleItemByID(db))
	route("/customers", "customers", handleCustomers(db))
	route("/customers/", "customer", handleCustomerByID(db))
	route("/orders", "orders", handleOrders(db))
	route("/orders/", "order", handleOrderByID(db))
	route("/reports", "reports", handleReports(db))
	mux.Handle("/metrics", registry.Handler())

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	logger.Info().Str("port", cfg.Server.Port).Msg("server starting")
	if err := server.ListenAndServe(); err != nil {
		logger.Fatal().Err(err).Msg("server error")
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

type orderLinePayload struct {
	ProductType string          `json:"product_type"`
	ProductID   int64           `json:"product_id"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

func orderLines(payload []orderLinePayload) []store.OrderLine {
	var lines []store.OrderLine
	for _, p := range payload {
		lines = append(lines, store.OrderLine{
			Product:  models.ProductRef{Kind: models.ProductKind(p.ProductType), ID: p.ProductID},
			Quantity: p.Quantity,
			Price:    p.Price,
		})
	}
	return lines
}

func handleCategories(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		switch r.Method {
		case http.MethodPost:
			var req struct {
				Name        string `json:"name"`
				Description string `json:"description"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				respondError(w, http.StatusBadRequest, "Invalid request body")
				return
			}

			category, err := store.CreateCategory(ctx, db, req.Name, req.Description)
			if err != nil {
				respondStoreError(w, err)
				return
			}

			respondJSON(w, http.StatusCreated, category)

		case http.MethodGet:
			categories, err := store.ListCategories(ctx, db)
			if err != nil {
				respondStoreError(w, err)
				return
			}

			respondJSON(w, http.StatusOK, categories)

		default:
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

func handleCategoryByID(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, ok := pathID(w, r, "/categories/")
		if !ok {
			return
		}

		switch r.Method {
		case http.MethodPut:
			var req struct {
				Name        string `json:"name"`
				Description string `json:"description"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				respondError(w, http.StatusBadRequest, "Invalid request body")
				return
			}

			category, err := store.UpdateCategory(ctx, db, id, req.Name, req.Description)
			if err != nil {
				respondStoreError(w, err)
				return
			}

			respondJSON(w, http.StatusOK, category)

		case http.MethodDelete:
			if err := store.DeleteCategory(ctx, db, id); err != nil {
				respondStoreError(w, err)
				return
			}

			respondJSON(w, http.StatusOK, map[string]string{"message": "Category deleted successfully"})

		default:
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

type bookPayload struct {
	Title      string          `json:"title"`
	Author     string          `json:"author"`
	Quantity   int             `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	CategoryID *int64          `json:"category_id"`
}

func (p bookPayload) input() store.BookInput {
	return store.BookInput{
		Title:      p.Title,
		Author:     p.Author,
		Quantity:   p.Quantity,
		Price:      p.Price,
		CategoryID: p.CategoryID,
	}
}

func handleBooks(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		switch r.Method {
		case http.MethodPost:
			var req bookPayload
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				respondError(w, http.StatusBadRequest, "Invalid request body")
				return
			}

			book, err := store.CreateBook(ctx, db, req.input())
			if err != nil {
				respondStoreError(w, err)
				return
			}

			respondJSON(w, http.StatusCreated, book)

		case http.MethodGet:
			page, pageSize := pageParams(r)
			result, err := store.ListBooks(ctx, db, page, pageSize)
			if err != nil {
				respondStoreError(w, err)
				return
			}

			respondJSON(w, http.StatusOK, result)

		default:
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

func handleBookByID(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, ok := pathID(w, r, "/books/")
		if !ok {
			return
		}

		switch r.Method {
		case http.MethodGet:
			book, err := store.GetBook(ctx, db, id)
			if err != nil {
				respondStoreError(w, err)
				return
			}

			respondJSON(w, http.StatusOK, book)

		case http.MethodPut:
			var req bookPayload
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				respondError(w, http.StatusBadRequest, "Invalid request body")
				return
			}

			book, err := store.UpdateBook(ctx, db, id, req.input())
			if err != nil {
				respondStoreError(w, err)
				return
			}

			respondJSON(w, http.StatusOK, book)

		case http.MethodDelete:
			if err := store.DeleteBook(ctx, db, id); err != nil {
				respondStoreError(w, err)
				return
			}

			respondJSON(w, http.StatusOK, map[string]string{"message": "Book deleted successfully"})

		default:
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

type itemPayload struct {
	Name       string          `json:"name"`
	Quantity   int             `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	CategoryID *int64          `json:"category_id"`
}

func (p itemPayload) input() store.ItemInput {
	return store.ItemInput{
		Name:       p.Name,
		Quantity:   p.Quantity,
		Price:      p.Price,
		CategoryID: p.CategoryID,
	}
}

func handleItems(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		switch r.Method {
		case http.MethodPost:
			var req itemPayload
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				respondError(w, http.StatusBadRequest, "Invalid request body")
				return
			}

			item, err := store.CreateItem(ctx, db, req.input())
			if err != nil {
				respondStoreError(w, err)
				return
			}

			respondJSON(w, http.StatusCreated, item)

		case http.MethodGet:
			page, pageSize := pageParams(r)
			result, err := store.ListItems(ctx, db, page, pageSize)
			if err != nil {
				respondStoreError(w, err)
				return
			}

			respondJSON(w, http.StatusOK, result)

		default:
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

func handleItemByID(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, ok := pathID(w, r, "/items/")
		if !ok {
			return
		}

		switch r.Method {
		case http.MethodGet:
			item, err := store.GetItem(ctx, db, id)
			if err != nil {
				respondStoreError(w, err)
				return
			}

			respondJSON(w, http.StatusOK, item)

		case http.MethodPut:
			var req itemPayload
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				respondError(w, http.StatusBadRequest, "Invalid request body")
				return
			}

			item, err := store.UpdateItem(ctx, db, id, req.input())
			if err != nil {
				respondStoreError(w, err)
				return
			}

			respondJSON(w, http.StatusOK, item)

		case http.MethodDelete:
			if err := store.DeleteItem(ctx, db, id); err != nil {
				respondStoreError(w, err)
				return
			}

			respondJSON(w, http.StatusOK, map[string]string{"message": "Item deleted successfully"})

		default:
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

func handleCustomers(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		switch r.Method {
		case http.MethodPost:
			var req struct {
				Name    string `json:"name"`
				Email   string `json:"email"`
				Phone   string `json:"phone"`
				Address string `json:"address"`
				Type    string `json:"type"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				respondError(w, http.StatusBadRequest, "Invalid request body")
				return
			}

			customer, err := store.CreateCustomer(ctx, db, store.CustomerInput{
				Name:    req.Name,
				Email:   req.Email,
				Phone:   req.Phone,
				Address: req.Address,
				Type:    req.Type,
			})
			if err != nil {
				respondStoreError(w, err)
				return
			}

			respondJSON(w, http.StatusCreated, customer)

		case http.MethodGet:
			page, pageSize := pageParams(r)
			filter := store.CustomerFilter{
				Search: r.URL.Query().Get("search"),
				Type:   r.URL.Query().Get("type"),
			}
			if filter.Type == "ALL" {
				filter.Type = ""
			}

			result, err := store.ListCustomers(ctx, db, filter, page, pageSize)
			if err != nil {
				respondStoreError(w, err)
				return
			}

			respondJSON(w, http.StatusOK, result)

		default:
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

func handleCustomerByID(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, ok := pathID(w, r, "/customers/")
		if !ok {
			return
		}

		switch r.Method {
		case http.MethodGet:
			customer, err := store.GetCustomer(ctx, db, id)
			if err != nil {
				respondStoreError(w, err)
				return
			}

			respondJSON(w, http.StatusOK, customer)

		case http.MethodPut:
			var req struct {
				Name    string `json:"name"`
				Email   string `json:"email"`
				Phone   string `json:"phone"`
				Address string `json:"address"`
				Type    string `json:"type"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				respondError(w, http.StatusBadRequest, "Invalid request body")
				return
			}

			customer, err := store.UpdateCustomer(ctx, db, id, store.CustomerInput{
				Name:    req.Name,
				Email:   req.Email,
				Phone:   req.Phone,
				Address: req.Address,
				Type:    req.Type,
			})
			if err != nil {
				respondStoreError(w, err)
				return
			}

			respondJSON(w, http.StatusOK, customer)

		case http.MethodDelete:
			if err := store.DeleteCustomer(ctx, db, id); err != nil {
				respondStoreError(w, err)
				return
			}

			respondJSON(w, http.StatusOK, map[string]string{"message": "Customer deleted successfully"})

		default:
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

func handleOrders(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		switch r.Method {
		case http.MethodPost:
			var req struct {
				CustomerID    int64              `json:"customer_id"`
				Items         []orderLinePayload `json:"items"`
				PaidAmount    decimal.Decimal    `json:"paid_amount"`
				PaymentStatus string             `json:"payment_status"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				respondError(w, http.StatusBadRequest, "Invalid request body")
				return
			}

			order, err := store.CreateOrder(ctx, db, store.CreateOrderRequest{
				CustomerID:    req.CustomerID,
				Items:         orderLines(req.Items),
				PaidAmount:    req.PaidAmount,
				PaymentStatus: req.PaymentStatus,
			})
			if err != nil {
				respondStoreError(w, err)
				return
			}

			respondJSON(w, http.StatusCreated, order)

		case http.MethodGet:
			customerID, _ := strconv.ParseInt(r.URL.Query().Get("customer_id"), 10, 64)
			limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
			if limit < 1 || limit > 100 {
				limit = 20
			}

			result, err := store.ListOrders(ctx, db, customerID, r.URL.Query().Get("cursor"), limit)
			if err != nil {
				respondStoreError(w, err)
				return
			}

			respondJSON(w, http.StatusOK, result)

		default:
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

func handleOrderByID(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, ok := pathID(w, r, "/orders/")
		if !ok {
			return
		}

		switch r.Method {
		case http.MethodGet:
			order, err := store.GetOrder(ctx, db, id)
			if err != nil {
				respondStoreError(w, err)
				return
			}

			respondJSON(w, http.StatusOK, order)

		case http.MethodPut:
			var req struct {
				Items         []orderLinePayload `json:"items"`
				PaidAmount    decimal.Decimal    `json:"paid_amount"`
				PaymentStatus string             `json:"payment_status"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				respondError(w, http.StatusBadRequest, "Invalid request body")
				return
			}

			order, err := store.UpdateOrder(ctx, db, id, store.UpdateOrderRequest{
				Items:         orderLines(req.Items),
				PaidAmount:    req.PaidAmount,
				PaymentStatus: req.PaymentStatus,
			})
			if err != nil {
				respondStoreError(w, err)
				return
			}

			respondJSON(w, http.StatusOK, order)

		case http.MethodDelete:
			if err := store.DeleteOrder(ctx, db, id); err != nil {
				respondStoreError(w, err)
				return
			}

			respondJSON(w, http.StatusOK, map[string]string{"message": "Order deleted successfully"})

		default:
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

func handleReports(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		report, err := store.BuildReport(r.Context(), db)
		if err != nil {
			respondStoreError(w, err)
			return
		}

		respondJSON(w, http.StatusOK, report)
	}
}

func pathID(w http.ResponseWriter, r *http.Request, prefix string) (int64, bool) {
	id, err := strconv.ParseInt(r.URL.Path[len(prefix):], 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "Invalid ID")
		return 0, false
	}
	return id, true
}

func pageParams(r *http.Request) (page, pageSize int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ = strconv.Atoi(r.URL.Query().Get("page_size"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}

var notFoundErrors = []error{
	database.ErrBookNotFound,
	database.ErrItemNotFound,
	database.ErrCategoryNotFound,
	database.ErrCustomerNotFound,
	database.ErrOrderNotFound,
}

func respondStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, database.ErrValidation):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, database.ErrCustomerHasOrders):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, database.ErrInsufficientStock):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		for _, sentinel := range notFoundErrors {
			if errors.Is(err, sentinel) {
				respondError(w, http.StatusNotFound, err.Error())
				return
			}
		}
		logger.Error().Err(err).Msg("request failed")
		respondError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error().Err(err).Msg("encode response")
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
