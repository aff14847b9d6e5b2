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

// InvoiceItemRequest is one requested line of a new invoice
type InvoiceItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,gte=1"`
}

// CreateInvoiceRequest represents the create-invoice payload
type CreateInvoiceRequest struct {
	Items         []InvoiceItemRequest `json:"items" validate:"required,min=1,dive"`
	Discount      decimal.Decimal      `json:"discount"`
	PaymentMethod string               `json:"payment_method" validate:"required,oneof=Cash Card UPI"`
}

// InvoiceItemResponse is one historical line of a committed invoice
type InvoiceItemResponse struct {
	ProductID  string          `json:"product_id"`
	Name       string          `json:"name"`
	Quantity   int             `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	TaxPercent decimal.Decimal `json:"tax_percent"`
	Subtotal   decimal.Decimal `json:"subtotal"`
}

// InvoiceResponse represents an invoice on the wire
type InvoiceResponse struct {
	ID             string                `json:"id"`
	InvoiceNumber  string                `json:"invoice_number"`
	Items          []InvoiceItemResponse `json:"items"`
	TotalAmount    decimal.Decimal       `json:"total_amount"`
	TaxAmount      decimal.Decimal       `json:"tax_amount"`
	Discount       decimal.Decimal       `json:"discount"`
	GrandTotal     decimal.Decimal       `json:"grand_total"`
	PaymentMethod  string                `json:"payment_method"`
	CreatedBy      string                `json:"created_by"`
	CreatedByName  string                `json:"created_by_name,omitempty"`
	CreatedByEmail string                `json:"created_by_email,omitempty"`
	CreatedAt      string                `json:"created_at"`
}

// InvoiceListResponse is a paginated invoice listing
type InvoiceListResponse struct {
	Invoices []InvoiceResponse `json:"invoices"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	Limit    int               `json:"limit"`
}

// InvoiceHandler handles HTTP requests for billing operations
type InvoiceHandler struct {
	invoiceService service.InvoiceService
	logger         *zap.Logger
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(invoiceService service.InvoiceService, logger *zap.Logger) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService: invoiceService,
		logger:         logger,
	}
}

// RegisterRoutes registers all invoice routes
func (h *InvoiceHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/invoices", func(r chi.Router) {
		r.Use(authMiddleware)

		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Get("/number/{number}", h.GetByNumber)
		r.Get("/{id}", h.GetByID)
	})
}

// Create handles the billing transaction: the whole request either commits
// with stock decremented and a unique invoice number, or leaves no trace.
func (h *InvoiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateInvoiceRequest

	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Invoice validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, middleware.CodeValidationError, "invalid request body")
		return
	}

	userIDStr, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, middleware.CodeUnauthorized, "unauthorized")
		return
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		middleware.RespondWithError(w, http.StatusUnauthorized, middleware.CodeUnauthorized, "invalid user identity")
		return
	}

	items := make([]service.InvoiceItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, middleware.CodeValidationError, "invalid product ID in items")
			return
		}
		items = append(items, service.InvoiceItemInput{
			ProductID: productID,
			Quantity:  item.Quantity,
		})
	}

	invoice, err := h.invoiceService.Create(r.Context(), service.CreateInvoiceInput{
		Items:         items,
		Discount:      req.Discount,
		PaymentMethod: domain.PaymentMethod(req.PaymentMethod),
		CreatedBy:     userID,
	})
	if err != nil {
		h.respondCreateError(w, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, toInvoiceResponse(invoice))
}

// GetByID handles retrieving a single invoice
func (h *InvoiceHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, middleware.CodeValidationError, "invalid invoice ID")
		return
	}

	invoice, err := h.invoiceService.GetByID(r.Context(), id)
	if err != nil {
		h.respondLookupError(w, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, toInvoiceResponse(invoice))
}

// GetByNumber handles retrieving an invoice by its business number
func (h *InvoiceHandler) GetByNumber(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")
	if number == "" {
		middleware.RespondWithError(w, http.StatusBadRequest, middleware.CodeValidationError, "invoice number is required")
		return
	}

	invoice, err := h.invoiceService.GetByNumber(r.Context(), number)
	if err != nil {
		h.respondLookupError(w, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, toInvoiceResponse(invoice))
}

// List handles the date-ranged, paginated invoice listing
func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var from, to *time.Time
	if raw := query.Get("from"); raw != "" {
		parsed, err := parseDateParam(raw)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, middleware.CodeValidationError, "invalid from date")
			return
		}
		from = &parsed
	}
	if raw := query.Get("to"); raw != "" {
		parsed, err := parseDateParam(raw)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, middleware.CodeValidationError, "invalid to date")
			return
		}
		to = &parsed
	}

	page, _ := strconv.Atoi(query.Get("page"))
	limit, _ := strconv.Atoi(query.Get("limit"))

	invoices, total, err := h.invoiceService.List(r.Context(), from, to, page, limit)
	if err != nil {
		h.logger.Error("Failed to list invoices", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, middleware.CodeInternalError, "failed to list invoices")
		return
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	response := InvoiceListResponse{
		Invoices: make([]InvoiceResponse, 0, len(invoices)),
		Total:    total,
		Page:     page,
		Limit:    limit,
	}
	for _, invoice := range invoices {
		response.Invoices = append(response.Invoices, toInvoiceResponse(invoice))
	}

	middleware.RespondWithJSON(w, http.StatusOK, response)
}

func (h *InvoiceHandler) respondCreateError(w http.ResponseWriter, err error) {
	var stockErr *service.InsufficientStockError

	switch {
	case errors.Is(err, service.ErrInvalidInvoice):
		middleware.RespondWithError(w, http.StatusBadRequest, middleware.CodeValidationError, err.Error())
	case errors.Is(err, service.ErrProductsNotFound):
		middleware.RespondWithError(w, http.StatusBadRequest, middleware.CodeProductNotFound, "one or more products not found")
	case errors.As(err, &stockErr):
		middleware.RespondWithErrorDetails(w, http.StatusConflict, middleware.CodeInsufficientStock, stockErr.Error(), map[string]interface{}{
			"product_id":   stockErr.ProductID.String(),
			"product_name": stockErr.ProductName,
			"available":    stockErr.Available,
		})
	case errors.Is(err, service.ErrNumberAllocationFailed):
		middleware.RespondWithError(w, http.StatusConflict, middleware.CodeNumberAllocationFailed, "could not allocate an invoice number, please retry")
	case errors.Is(err, service.ErrConcurrentModification):
		middleware.RespondWithError(w, http.StatusConflict, middleware.CodeConcurrentModification, "invoice creation conflicted with concurrent requests, please retry")
	default:
		h.logger.Error("Invoice creation failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, middleware.CodeInternalError, "failed to create invoice")
	}
}

func (h *InvoiceHandler) respondLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, repository.ErrInvoiceNotFound) {
		middleware.RespondWithError(w, http.StatusNotFound, middleware.CodeInvoiceNotFound, "invoice not found")
		return
	}
	h.logger.Error("Invoice lookup failed", zap.Error(err))
	middleware.RespondWithError(w, http.StatusInternalServerError, middleware.CodeInternalError, "failed to get invoice")
}

// parseDateParam accepts RFC 3339 timestamps and bare dates
func parseDateParam(raw string) (time.Time, error) {
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return parsed, nil
	}
	return time.Parse("2006-01-02", raw)
}

func toInvoiceResponse(invoice *domain.Invoice) InvoiceResponse {
	items := make([]InvoiceItemResponse, 0, len(invoice.Items))
	for _, item := range invoice.Items {
		items = append(items, InvoiceItemResponse{
			ProductID:  item.ProductID.String(),
			Name:       item.Name,
			Quantity:   item.Quantity,
			Price:      item.Price,
			TaxPercent: item.TaxPercent,
			Subtotal:   item.Subtotal,
		})
	}

	return InvoiceResponse{
		ID:             invoice.ID.String(),
		InvoiceNumber:  invoice.InvoiceNumber,
		Items:          items,
		TotalAmount:    invoice.TotalAmount,
		TaxAmount:      invoice.TaxAmount,
		Discount:       invoice.Discount,
		GrandTotal:     invoice.GrandTotal,
		PaymentMethod:  string(invoice.PaymentMethod),
		CreatedBy:      invoice.CreatedBy.String(),
		CreatedByName:  invoice.CreatedByName,
		CreatedByEmail: invoice.CreatedByEmail,
		CreatedAt:      invoice.CreatedAt.UTC().Format(time.RFC3339),
	}
}
