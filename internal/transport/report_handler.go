package transport

import (
	"net/http"
	"strconv"

	"pos-billing/internal/middleware"
	"pos-billing/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ReportHandler handles HTTP requests for sales reports
type ReportHandler struct {
	reportService service.ReportService
	logger        *zap.Logger
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(reportService service.ReportService, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		logger:        logger,
	}
}

// RegisterRoutes registers all report routes
func (h *ReportHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/reports", func(r chi.Router) {
		r.Use(authMiddleware)

		r.Get("/today-sales", h.TodaySales)
		r.Get("/month-sales", h.MonthSales)
		r.Get("/top-products", h.TopProducts)
	})
}

// TodaySales handles the current-day sales rollup
func (h *ReportHandler) TodaySales(w http.ResponseWriter, r *http.Request) {
	report, err := h.reportService.TodaySales(r.Context())
	if err != nil {
		h.logger.Error("Today sales report failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, middleware.CodeInternalError, "failed to build report")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, report)
}

// MonthSales handles the calendar-month sales rollup. Month and year default
// to the current month when absent.
func (h *ReportHandler) MonthSales(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	month, _ := strconv.Atoi(query.Get("month"))
	year, _ := strconv.Atoi(query.Get("year"))

	report, err := h.reportService.MonthSales(r.Context(), month, year)
	if err != nil {
		h.logger.Error("Month sales report failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, middleware.CodeInternalError, "failed to build report")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, report)
}

// TopProducts handles the best-sellers ranking
func (h *ReportHandler) TopProducts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	opts := service.TopProductsOptions{}
	opts.Month, _ = strconv.Atoi(query.Get("month"))
	opts.Year, _ = strconv.Atoi(query.Get("year"))
	opts.Limit, _ = strconv.Atoi(query.Get("limit"))

	if raw := query.Get("from"); raw != "" {
		parsed, err := parseDateParam(raw)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, middleware.CodeValidationError, "invalid from date")
			return
		}
		opts.From = &parsed
	}
	if raw := query.Get("to"); raw != "" {
		parsed, err := parseDateParam(raw)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, middleware.CodeValidationError, "invalid to date")
			return
		}
		opts.To = &parsed
	}

	products, err := h.reportService.TopProducts(r.Context(), opts)
	if err != nil {
		h.logger.Error("Top products report failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, middleware.CodeInternalError, "failed to build report")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, products)
}
