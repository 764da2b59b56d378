package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/amish-harsoor/inventory/internal/models"
)

// ========== Alert & Report Handlers ==========

// LowStockAlerts lists records at or below their reorder point
func (h *Handler) LowStockAlerts(c *gin.Context) {
	records, err := h.ledger.LowStock(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	if h.events != nil {
		for i := range records {
			h.events.LowStock(c.Request.Context(), &records[i])
		}
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    records,
	})
}

// ListAlerts returns active alerts, currently just the low-stock set
func (h *Handler) ListAlerts(c *gin.Context) {
	records, err := h.ledger.LowStock(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    gin.H{"lowStock": records},
	})
}

// InventorySummaryReport returns every record plus grand totals
func (h *Handler) InventorySummaryReport(c *gin.Context) {
	summary, err := h.repo.InventorySummary(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    summary,
	})
}

// StockMovementReport returns movements in a date range, defaulting to the
// last 30 days
func (h *Handler) StockMovementReport(c *gin.Context) {
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -30)

	if startStr := c.Query("startDate"); startStr != "" {
		t, err := time.Parse(time.RFC3339, startStr)
		if err != nil {
			h.badRequest(c, "Invalid startDate, expected RFC3339")
			return
		}
		start = t
	}
	if endStr := c.Query("endDate"); endStr != "" {
		t, err := time.Parse(time.RFC3339, endStr)
		if err != nil {
			h.badRequest(c, "Invalid endDate, expected RFC3339")
			return
		}
		end = t
	}
	if end.Before(start) {
		h.badRequest(c, "endDate precedes startDate")
		return
	}

	movements, err := h.repo.MovementsBetween(c.Request.Context(), start, end)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data: gin.H{
			"startDate": start,
			"endDate":   end,
			"count":     len(movements),
			"movements": movements,
		},
	})
}

// ValuationReport prices on-hand stock at product unit cost
func (h *Handler) ValuationReport(c *gin.Context) {
	lines, err := h.repo.Valuation(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	var totalValue float64
	for _, line := range lines {
		totalValue += line.Value
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data: gin.H{
			"totalValue": totalValue,
			"lines":      lines,
		},
	})
}
