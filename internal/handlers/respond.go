package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/amish-harsoor/inventory/internal/events"
	"github.com/amish-harsoor/inventory/internal/ledger"
	"github.com/amish-harsoor/inventory/internal/models"
	"github.com/amish-harsoor/inventory/internal/repository"
)

// Handler exposes the inventory API over HTTP.
type Handler struct {
	ledger    *ledger.Ledger
	repo      *repository.Repository
	events    *events.Publisher
	logger    *logrus.Logger
	pageSize  int
	pageLimit int
}

func New(l *ledger.Ledger, repo *repository.Repository, publisher *events.Publisher, logger *logrus.Logger, defaultPageSize, maxPageSize int) *Handler {
	if defaultPageSize <= 0 {
		defaultPageSize = 20
	}
	if maxPageSize <= 0 {
		maxPageSize = 100
	}
	return &Handler{
		ledger:    l,
		repo:      repo,
		events:    publisher,
		logger:    logger,
		pageSize:  defaultPageSize,
		pageLimit: maxPageSize,
	}
}

// respondError maps ledger and repository errors onto HTTP statuses.
func (h *Handler) respondError(c *gin.Context, err error) {
	var (
		ve *ledger.ValidationError
		nf *ledger.NotFoundError
		is *ledger.InsufficientStockError
		iv *ledger.InvariantViolationError
	)
	switch {
	case errors.As(err, &ve):
		h.writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", ve.Error())
	case errors.As(err, &nf):
		h.writeError(c, http.StatusNotFound, "NOT_FOUND", nf.Error())
	case errors.As(err, &is):
		h.writeError(c, http.StatusConflict, "INSUFFICIENT_STOCK", is.Error())
	case errors.Is(err, ledger.ErrResourceBusy):
		h.writeError(c, http.StatusServiceUnavailable, "RESOURCE_BUSY", err.Error())
	case errors.As(err, &iv):
		h.logger.WithError(err).Error("Invariant violation surfaced to handler")
		h.writeError(c, http.StatusInternalServerError, "INVARIANT_VIOLATION", iv.Error())
	default:
		h.logger.WithError(err).Error("Unhandled error")
		h.writeError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}

func (h *Handler) writeError(c *gin.Context, status int, code, message string) {
	c.JSON(status, models.ErrorResponse{
		Success: false,
		Error: models.Error{
			Code:    code,
			Message: message,
		},
	})
}

func (h *Handler) badRequest(c *gin.Context, message string) {
	h.writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", message)
}

// parseIDParam parses a UUID path parameter, writing a 400 on failure.
func (h *Handler) parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.badRequest(c, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) pagination(c *gin.Context) (page, limit int) {
	page = 1
	limit = h.pageSize
	if pageStr := c.Query("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			page = p
		}
	}
	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}
	if limit > h.pageLimit {
		limit = h.pageLimit
	}
	return page, limit
}

func paginationMeta(page, limit int, total int64) *models.PaginationMeta {
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return &models.PaginationMeta{
		Page:       page,
		Limit:      limit,
		TotalItems: total,
		TotalPages: totalPages,
	}
}

func stringPtr(s string) *string {
	return &s
}
