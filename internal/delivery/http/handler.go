package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/doclens/backend/internal/domain"
	"github.com/doclens/backend/internal/infrastructure/extract"
	"github.com/doclens/backend/internal/usecase"
	"github.com/doclens/backend/internal/version"
	"github.com/doclens/backend/internal/worker"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 500

	// multipartOverhead covers boundaries and part headers around an upload
	multipartOverhead = 64 << 10
)

// Handler holds dependencies for HTTP handlers.
// Any service may be nil; its endpoints then answer 501.
type Handler struct {
	analyses     *usecase.AnalysisService
	products     *usecase.ProductService
	jobs         *worker.JobRunner
	contextWords int
	maxDocument  int64
	logger       *logrus.Entry
}

// HandlerConfig carries the services behind the API
type HandlerConfig struct {
	Analyses     *usecase.AnalysisService
	Products     *usecase.ProductService
	Jobs         *worker.JobRunner
	ContextWords int

	// MaxDocumentBytes caps uploads; <= 0 uses extract.DefaultMaxBytes
	MaxDocumentBytes int64
	Logger           *logrus.Entry
}

// NewHandler creates a new HTTP handler
func NewHandler(cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.WithField("component", "http")
	}
	contextWords := cfg.ContextWords
	if contextWords <= 0 {
		contextWords = usecase.DefaultContextWords
	}
	maxDocument := cfg.MaxDocumentBytes
	if maxDocument <= 0 {
		maxDocument = extract.DefaultMaxBytes
	}
	return &Handler{
		analyses:     cfg.Analyses,
		products:     cfg.Products,
		jobs:         cfg.Jobs,
		contextWords: contextWords,
		maxDocument:  maxDocument,
		logger:       logger,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": version.Service,
		"version": version.Version,
	})
}

// --- Products ---

// ListProducts returns the catalog ordered by name
func (h *Handler) ListProducts(c *gin.Context) {
	if !h.requireProducts(c) {
		return
	}
	products, err := h.products.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

// CreateProduct adds a product to the catalog
func (h *Handler) CreateProduct(c *gin.Context) {
	if !h.requireProducts(c) {
		return
	}
	var product domain.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	if err := h.products.Create(c.Request.Context(), &product); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

// GetProduct returns one product
func (h *Handler) GetProduct(c *gin.Context) {
	if !h.requireProducts(c) {
		return
	}
	product, err := h.products.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// UpdateProduct replaces a product's fields
func (h *Handler) UpdateProduct(c *gin.Context) {
	if !h.requireProducts(c) {
		return
	}
	var product domain.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	product.ID = c.Param("id")
	if err := h.products.Update(c.Request.Context(), &product); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// DeleteProduct removes a product
func (h *Handler) DeleteProduct(c *gin.Context) {
	if !h.requireProducts(c) {
		return
	}
	if err := h.products.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Analyses ---

// AnalyzeText scores a JSON {source, text} body synchronously
func (h *Handler) AnalyzeText(c *gin.Context) {
	if !h.requireAnalyses(c) {
		return
	}
	var req domain.AnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	analysis, err := h.analyses.AnalyzeText(c.Request.Context(), &req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, analysis)
}

// UploadDocument scores a multipart "file" upload synchronously.
// Uploads over the document limit are refused before they are buffered.
func (h *Handler) UploadDocument(c *gin.Context) {
	if !h.requireAnalyses(c) {
		return
	}
	limit := h.maxDocument + multipartOverhead
	if c.Request.ContentLength > limit {
		h.writeError(c, h.tooLarge())
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(c, h.tooLarge())
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field 'file' is required"})
		return
	}
	if header.Size > h.maxDocument {
		h.writeError(c, h.tooLarge())
		return
	}

	f, err := header.Open()
	if err != nil {
		h.writeError(c, err)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.maxDocument+1))
	if err != nil {
		h.writeError(c, err)
		return
	}
	if int64(len(data)) > h.maxDocument {
		h.writeError(c, h.tooLarge())
		return
	}

	analysis, err := h.analyses.AnalyzeDocument(c.Request.Context(), &domain.Document{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, analysis)
}

func (h *Handler) tooLarge() error {
	return fmt.Errorf("%w: upload over %d bytes", domain.ErrDocumentTooLarge, h.maxDocument)
}

// JobRequest submits either text or a URL for asynchronous analysis
type JobRequest struct {
	Source string `json:"source"`
	Text   string `json:"text"`
	URL    string `json:"url"`
}

// SubmitJob queues an analysis and answers 202 with its job id
func (h *Handler) SubmitJob(c *gin.Context) {
	if !h.requireAnalyses(c) || !h.requireJobs(c) {
		return
	}
	var req JobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	var task worker.Task
	switch {
	case strings.TrimSpace(req.URL) != "":
		rawURL := strings.TrimSpace(req.URL)
		task = func(ctx context.Context) (*domain.Analysis, error) {
			return h.analyses.AnalyzeURL(ctx, rawURL)
		}
	case strings.TrimSpace(req.Text) != "":
		analysisReq := &domain.AnalysisRequest{Source: req.Source, Text: req.Text}
		task = func(ctx context.Context) (*domain.Analysis, error) {
			return h.analyses.AnalyzeText(ctx, analysisReq)
		}
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "either text or url is required"})
		return
	}

	id, err := h.jobs.Submit(c.Request.Context(), task)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"jobId": id})
}

// GetJob returns the status of a job, with its analysis once finished
func (h *Handler) GetJob(c *gin.Context) {
	if !h.requireJobs(c) {
		return
	}
	job, err := h.jobs.Get(c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// CancelJob stops a pending or running job
func (h *Handler) CancelJob(c *gin.Context) {
	if !h.requireJobs(c) {
		return
	}
	id := c.Param("id")
	if err := h.jobs.Cancel(id); err != nil {
		h.writeError(c, err)
		return
	}
	job, err := h.jobs.Get(id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// ListAnalyses returns the most recent analyses, newest first
func (h *Handler) ListAnalyses(c *gin.Context) {
	if !h.requireAnalyses(c) {
		return
	}
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	analyses, err := h.analyses.History(c.Request.Context(), limit)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"analyses": analyses})
}

// GetAnalysis returns one stored analysis
func (h *Handler) GetAnalysis(c *gin.Context) {
	if !h.requireAnalyses(c) {
		return
	}
	analysis, err := h.analyses.GetAnalysis(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, analysis)
}

// --- Core functions ---

// NormalizeRequest is the body of POST /normalize
type NormalizeRequest struct {
	Text string `json:"text"`
}

// Normalize returns the canonical form of a text
func (h *Handler) Normalize(c *gin.Context) {
	var req NormalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"normalized": usecase.Normalize(req.Text)})
}

// IndexRequest is the body of POST /index
type IndexRequest struct {
	Text             string `json:"text"`
	PositiveKeywords string `json:"positiveKeywords"`
	NegativeKeywords string `json:"negativeKeywords"`
}

// Index computes the satisfaction index of a text for two keyword lists
func (h *Handler) Index(c *gin.Context) {
	var req IndexRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	index, positive, negative := usecase.CalculateIndex(usecase.Normalize(req.Text), req.PositiveKeywords, req.NegativeKeywords)
	c.JSON(http.StatusOK, gin.H{
		"index":         index,
		"positiveCount": positive,
		"negativeCount": negative,
		"rating":        domain.RatingFor(index),
	})
}

// ContextRequest is the body of POST /context
type ContextRequest struct {
	Text         string `json:"text"`
	ProductName  string `json:"productName" binding:"required"`
	ContextWords int    `json:"contextWords"`
}

// Context returns snippets around mentions of a product name
func (h *Handler) Context(c *gin.Context) {
	var req ContextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	words := req.ContextWords
	if words <= 0 {
		words = h.contextWords
	}
	c.JSON(http.StatusOK, gin.H{"contexts": usecase.ExtractContext(req.Text, req.ProductName, words)})
}

// --- Helpers ---

func (h *Handler) requireAnalyses(c *gin.Context) bool {
	if h.analyses == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "analysis service not configured"})
		return false
	}
	return true
}

func (h *Handler) requireProducts(c *gin.Context) bool {
	if h.products == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "product service not configured"})
		return false
	}
	return true
}

func (h *Handler) requireJobs(c *gin.Context) bool {
	if h.jobs == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "job runner not configured"})
		return false
	}
	return true
}

// writeError maps domain errors to HTTP status codes
func (h *Handler) writeError(c *gin.Context, err error) {
	status, message := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.WithError(err).WithField("path", c.Request.URL.Path).Error("request failed")
	}
	c.Error(err)
	c.JSON(status, gin.H{"error": message})
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest),
		errors.Is(err, domain.ErrInvalidProduct):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrProductNotFound),
		errors.Is(err, domain.ErrAnalysisNotFound),
		errors.Is(err, domain.ErrJobNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, domain.ErrNoText),
		errors.Is(err, domain.ErrEmptyCatalog):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, domain.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType, err.Error()
	case errors.Is(err, domain.ErrDocumentTooLarge):
		return http.StatusRequestEntityTooLarge, err.Error()
	case errors.Is(err, domain.ErrRobotsDisallowed):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests, err.Error()
	case errors.Is(err, domain.ErrFetchFailure):
		return http.StatusBadGateway, "remote document temporarily unavailable"
	case errors.Is(err, domain.ErrWorkersBusy):
		return http.StatusServiceUnavailable, "analysis workers busy, retry later"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "analysis timed out"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}
