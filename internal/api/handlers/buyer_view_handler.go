package handlers

import (
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/verdantiq/buyerview/backend-go/internal/config"
	"github.com/verdantiq/buyerview/backend-go/internal/domain"
	"github.com/verdantiq/buyerview/backend-go/internal/engine"
	"github.com/verdantiq/buyerview/backend-go/internal/ingest"
	"github.com/verdantiq/buyerview/backend-go/internal/service"
)

type BuyerViewHandler struct {
	service   *service.BuyerViewService
	uploadDir string
	engineCfg config.EngineConfig
}

func NewBuyerViewHandler(svc *service.BuyerViewService, uploadDir string, engineCfg config.EngineConfig) *BuyerViewHandler {
	return &BuyerViewHandler{
		service:   svc,
		uploadDir: uploadDir,
		engineCfg: engineCfg,
	}
}

// Upload receives an inventory report plus an optional sales report and
// replaces the current snapshot with the classified result.
func (h *BuyerViewHandler) Upload(c *gin.Context) {
	inventoryFile, err := c.FormFile("inventory")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "inventory file is required"})
		return
	}

	inventoryPath := filepath.Join(h.uploadDir, inventoryFile.Filename)
	if err := c.SaveUploadedFile(inventoryFile, inventoryPath); err != nil {
		log.Error().Err(err).Str("filename", inventoryFile.Filename).Msg("failed to save inventory upload")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save inventory file"})
		return
	}

	headerRow := 0
	if v, err := strconv.Atoi(c.DefaultPostForm("header_row", "0")); err == nil && v > 0 {
		headerRow = v
	}

	inventory, err := ingest.ReadReportFile(inventoryPath, headerRow)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read inventory report", "details": err.Error()})
		return
	}

	var sales engine.Table
	if salesFile, err := c.FormFile("sales"); err == nil {
		salesPath := filepath.Join(h.uploadDir, salesFile.Filename)
		if err := c.SaveUploadedFile(salesFile, salesPath); err != nil {
			log.Error().Err(err).Str("filename", salesFile.Filename).Msg("failed to save sales upload")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save sales file"})
			return
		}
		sales, err = ingest.ReadReportFile(salesPath, headerRow)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read sales report", "details": err.Error()})
			return
		}
	}

	opts := h.parseOptions(c)

	snapshot, err := h.service.LoadSnapshot(c.Request.Context(), inventory, sales, opts)
	if err != nil {
		var schemaErr *engine.SchemaError
		if errors.As(err, &schemaErr) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "report schema mismatch", "details": schemaErr.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "classification failed", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":         len(snapshot.Items),
		"window_days":   snapshot.WindowDays,
		"room":          snapshot.Room,
		"room_included": snapshot.RoomIncluded,
		"room_excluded": snapshot.RoomExcluded,
		"loaded_at":     snapshot.LoadedAt,
	})
}

func (h *BuyerViewHandler) parseOptions(c *gin.Context) engine.Options {
	opts := engine.Options{
		WindowDays: h.engineCfg.WindowDays,
	}

	if v, err := strconv.Atoi(c.DefaultPostForm("window_days", "0")); err == nil && v > 0 {
		opts.WindowDays = v
	}

	if room := strings.TrimSpace(c.PostForm("room")); room != "" {
		opts.Room = room
	} else if vaultOnly, _ := strconv.ParseBool(c.DefaultPostForm("vault_only", "false")); vaultOnly {
		opts.Room = h.engineCfg.VaultRoom
	}

	if grouping := strings.ToLower(strings.TrimSpace(c.PostForm("grouping"))); grouping == "attributes" {
		opts.Grouping = engine.GroupByCategoryStrainSize
	}

	if asOf := strings.TrimSpace(c.PostForm("as_of")); asOf != "" {
		if t, err := time.Parse("2006-01-02", asOf); err == nil {
			opts.AsOf = t
		}
	}

	return opts
}

func (h *BuyerViewHandler) parseFilter(c *gin.Context) domain.BuyerViewFilter {
	filter := domain.BuyerViewFilter{
		Expiration: domain.ExpireAny,
	}

	if page, err := strconv.Atoi(c.DefaultQuery("page", "0")); err == nil && page > 0 {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("page_size", "0")); err == nil && size > 0 {
		filter.PageSize = size
	}

	filter.Status = strings.TrimSpace(c.Query("status"))
	filter.Category = strings.TrimSpace(c.Query("category"))
	filter.Search = strings.TrimSpace(c.Query("search"))

	switch strings.TrimSpace(c.Query("expiring_within")) {
	case "30":
		filter.Expiration = domain.ExpireUnder30
	case "60":
		filter.Expiration = domain.ExpireUnder60
	case "90":
		filter.Expiration = domain.ExpireUnder90
	}

	if minDOH, err := strconv.ParseFloat(strings.TrimSpace(c.Query("min_doh")), 64); err == nil && minDOH > 0 {
		filter.MinDOH = minDOH
	}

	return filter
}

func (h *BuyerViewHandler) GetItems(c *gin.Context) {
	filter := h.parseFilter(c)
	items, total, err := h.service.Items(c.Request.Context(), filter)
	if err != nil {
		h.respondServiceError(c, err, "failed to fetch items")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"total": total,
	})
}

func (h *BuyerViewHandler) GetSummary(c *gin.Context) {
	summary, err := h.service.Summary(c.Request.Context())
	if err != nil {
		h.respondServiceError(c, err, "failed to fetch summary")
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (h *BuyerViewHandler) GetSlowMovers(c *gin.Context) {
	threshold, _ := strconv.ParseFloat(c.DefaultQuery("doh_threshold", "0"), 64)

	items, err := h.service.SlowMovers(c.Request.Context(), threshold)
	if err != nil {
		h.respondServiceError(c, err, "failed to fetch slow movers")
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items, "total": len(items)})
}

func (h *BuyerViewHandler) GetPOSuggestions(c *gin.Context) {
	suggestions, err := h.service.POSuggestions(c.Request.Context())
	if err != nil {
		h.respondServiceError(c, err, "failed to fetch po suggestions")
		return
	}

	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions, "total": len(suggestions)})
}

// Export streams the current filtered view back as a CSV download.
func (h *BuyerViewHandler) Export(c *gin.Context) {
	filter := h.parseFilter(c)

	path, err := h.service.Export(c.Request.Context(), filter)
	if err != nil {
		h.respondServiceError(c, err, "failed to export buyer view")
		return
	}

	c.FileAttachment(path, filepath.Base(path))
}

func (h *BuyerViewHandler) GetAvailableDates(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "30"))
	if limit <= 0 {
		limit = 30
	}

	dates, err := h.service.AvailableDates(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch available dates", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"dates": dates})
}

// GetHistory reads a persisted snapshot by date instead of the live one.
func (h *BuyerViewHandler) GetHistory(c *gin.Context) {
	date, err := time.Parse("2006-01-02", strings.TrimSpace(c.Query("date")))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date parameter is required as YYYY-MM-DD"})
		return
	}

	filter := h.parseFilter(c)
	items, total, err := h.service.HistoricalItems(c.Request.Context(), date, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch snapshot history", "details": err.Error()})
		return
	}

	counts, err := h.service.HistoricalStatusCounts(c.Request.Context(), date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch snapshot status counts", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":         items,
		"total":         total,
		"status_counts": counts,
	})
}

func (h *BuyerViewHandler) respondServiceError(c *gin.Context, err error, message string) {
	if errors.Is(err, service.ErrNoSnapshot) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no snapshot loaded, upload a report first"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": message, "details": err.Error()})
}
