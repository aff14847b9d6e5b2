package transport

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"pos-billing/internal/domain"
	"pos-billing/internal/middleware"
	"pos-billing/internal/repository"
	"pos-billing/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductRequest represents the create/update product payload. Price and tax
// arrive as JSON numbers; shopspring decimal parses them without float drift.
type ProductRequest struct {
	Name       string          `json:"name" validate:"required"`
	Barcode    *string         `json:"barcode,omitempty"`
	Price      decimal.Decimal `json:"price"`
	TaxPercent decimal.Decimal `json:"tax_percent"`
	Stock      int             `json:"stock" validate:"gte=0"`
}

// ProductResponse represents a catalog entry on the wire
type ProductResponse struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Barcode    *string         `json:"barcode,omitempty"`
	Price      decimal.Decimal `json:"price"`
	TaxPercent decimal.Decimal `json:"tax_percent"`
	Stock      int             `json:"stock"`
	CreatedAt  string          `json:"created_at"`
	UpdatedAt  string          `json:"updated_at"`
}

// ProductListResponse is a paginated product listing
type ProductListResponse struct {
	Products []ProductResponse `json:"products"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	Limit    int               `json:"limit"`
}

// ProductHandler handles HTTP requests for catalog operations
type ProductHandler struct {
	productService service.ProductService
	logger         *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService service.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		logger:         logger,
	}
}

// RegisterRoutes registers all product routes. Reads are open to any
// authenticated operator; writes require the admin role.
func (h *ProductHandler) RegisterRoutes(r chi.Router, authMiddleware, adminMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/products", func(r chi.Router) {
		r.Use(authMiddleware)

		r.Get("/", h.List)
		r.Get("/search", h.QuickSearch)
		r.Get("/{id}", h.GetByID)

		r.Group(func(r chi.Router) {
			r.Use(adminMiddleware)
			r.Post("/", h.Create)
			r.Put("/{id}", h.Update)
			r.Delete("/{id}", h.Delete)
		})
	})
}

// Create handles adding a product to the catalog
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest

	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Product validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, middleware.CodeValidationError, "invalid request body")
		return
	}

	product, err := h.productService.Create(r.Context(), service.ProductInput{
		Name:       req.Name,
		Barcode:    req.Barcode,
		Price:      req.Price,
		TaxPercent: req.TaxPercent,
		Stock:      req.Stock,
	})
	if err != nil {
		h.respondProductError(w, err, "failed to create product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, toProductResponse(product))
}

// Update handles rewriting a product's fields
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, middleware.CodeValidationError, "invalid product ID")
		return
	}

	var req ProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Product validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, middleware.CodeValidationError, "invalid request body")
		return
	}

	product, err := h.productService.Update(r.Context(), id, service.ProductInput{
		Name:       req.Name,
		Barcode:    req.Barcode,
		Price:      req.Price,
		TaxPercent: req.TaxPercent,
		Stock:      req.Stock,
	})
	if err != nil {
		h.respondProductError(w, err, "failed to update product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, toProductResponse(product))
}

// Delete handles removing a product from the catalog
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, middleware.CodeValidationError, "invalid product ID")
		return
	}

	if err := h.productService.Delete(r.Context(), id); err != nil {
		h.respondProductError(w, err, "failed to delete product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "product deleted"})
}

// GetByID handles retrieving a single product
func (h *ProductHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, middleware.CodeValidationError, "invalid product ID")
		return
	}

	product, err := h.productService.GetByID(r.Context(), id)
	if err != nil {
		h.respondProductError(w, err, "failed to get product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, toProductResponse(product))
}

// List handles the filtered, paginated catalog listing
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := repository.ProductFilter{
		Search:  query.Get("search"),
		InStock: query.Get("in_stock") == "true",
	}

	if raw := query.Get("min_price"); raw != "" {
		price, err := decimal.NewFromString(raw)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, middleware.CodeValidationError, "invalid min_price")
			return
		}
		filter.MinPrice = &price
	}
	if raw := query.Get("max_price"); raw != "" {
		price, err := decimal.NewFromString(raw)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, middleware.CodeValidationError, "invalid max_price")
			return
		}
		filter.MaxPrice = &price
	}

	filter.Page, _ = strconv.Atoi(query.Get("page"))
	filter.Limit, _ = strconv.Atoi(query.Get("limit"))

	products, total, err := h.productService.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list products", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, middleware.CodeInternalError, "failed to list products")
		return
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 10
	}

	response := ProductListResponse{
		Products: make([]ProductResponse, 0, len(products)),
		Total:    total,
		Page:     filter.Page,
		Limit:    filter.Limit,
	}
	for _, product := range products {
		response.Products = append(response.Products, toProductResponse(product))
	}

	middleware.RespondWithJSON(w, http.StatusOK, response)
}

// QuickSearch handles the point-of-sale in-stock product lookup
func (h *ProductHandler) QuickSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	products, err := h.productService.QuickSearch(r.Context(), query)
	if err != nil {
		h.logger.Error("Quick search failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, middleware.CodeInternalError, "failed to search products")
		return
	}

	response := make([]ProductResponse, 0, len(products))
	for _, product := range products {
		response = append(response, toProductResponse(product))
	}

	middleware.RespondWithJSON(w, http.StatusOK, response)
}

func (h *ProductHandler) respondProductError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrInvalidProduct):
		middleware.RespondWithError(w, http.StatusBadRequest, middleware.CodeValidationError, err.Error())
	case errors.Is(err, repository.ErrProductNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, middleware.CodeProductNotFound, "product not found")
	case errors.Is(err, repository.ErrBarcodeAlreadyExists):
		middleware.RespondWithError(w, http.StatusConflict, middleware.CodeBarcodeAlreadyExists, "a product with this barcode already exists")
	default:
		h.logger.Error("Product operation failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, middleware.CodeInternalError, fallback)
	}
}

func toProductResponse(product *domain.Product) ProductResponse {
	return ProductResponse{
		ID:         product.ID.String(),
		Name:       product.Name,
		Barcode:    product.Barcode,
		Price:      product.Price,
		TaxPercent: product.TaxPercent,
		Stock:      product.Stock,
		CreatedAt:  product.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:  product.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
