package handlers

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v5"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	pbmodels "github.com/pocketbase/pocketbase/models"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"bingo-system/models"
	"bingo-system/services"
)

type AdminHandler struct {
	app          *pocketbase.PocketBase
	store        services.ScanStore
	statsService *services.StatsService
}

func NewAdminHandler(app *pocketbase.PocketBase, store services.ScanStore, statsService *services.StatsService) *AdminHandler {
	return &AdminHandler{
		app:          app,
		store:        store,
		statsService: statsService,
	}
}

func requireAdmin(c echo.Context) error {
	admin, _ := c.Get(apis.ContextAdminKey).(*pbmodels.Admin)
	if admin == nil {
		return apis.NewUnauthorizedError("Admin access required", nil)
	}
	return nil
}

// ListScans - full scan attempt log, newest first
func (h *AdminHandler) ListScans(c echo.Context) error {
	if err := requireAdmin(c); err != nil {
		return err
	}

	records, err := h.store.List(c.Request().Context())
	if err != nil {
		return apis.NewApiError(http.StatusServiceUnavailable, "Failed to load scan records", err)
	}

	return c.JSON(http.StatusOK, records)
}

// Export - download the scan log as CSV or XLSX
func (h *AdminHandler) Export(c echo.Context) error {
	if err := requireAdmin(c); err != nil {
		return err
	}

	records, err := h.store.List(c.Request().Context())
	if err != nil {
		return apis.NewApiError(http.StatusServiceUnavailable, "Failed to load scan records", err)
	}

	format := c.QueryParam("format")
	if format == "" {
		format = "csv"
	}

	switch format {
	case "csv":
		data, err := exportCSV(records)
		if err != nil {
			return apis.NewApiError(http.StatusInternalServerError, "Failed to build export", err)
		}
		c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="scans_export.csv"`)
		return c.Blob(http.StatusOK, "text/csv", data)
	case "xlsx":
		data, err := exportXLSX(records)
		if err != nil {
			return apis.NewApiError(http.StatusInternalServerError, "Failed to build export", err)
		}
		c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="scans_export.xlsx"`)
		return c.Blob(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
	default:
		return apis.NewBadRequestError(fmt.Sprintf("Unknown export format %q", format), nil)
	}
}

// Stats - live counters for the operator dashboard
func (h *AdminHandler) Stats(c echo.Context) error {
	if err := requireAdmin(c); err != nil {
		return err
	}

	if h.statsService == nil {
		return apis.NewApiError(http.StatusServiceUnavailable, "Stats backend not configured", nil)
	}

	stats, err := h.statsService.GetStats(c.Request().Context())
	if err != nil {
		return apis.NewApiError(http.StatusServiceUnavailable, "Failed to load stats", err)
	}

	return c.JSON(http.StatusOK, stats)
}

// DeleteAll - bulk wipe of the scan log
func (h *AdminHandler) DeleteAll(c echo.Context) error {
	if err := requireAdmin(c); err != nil {
		return err
	}

	ctx := c.Request().Context()

	if err := h.store.DeleteAll(ctx); err != nil {
		return apis.NewApiError(http.StatusServiceUnavailable, "Failed to delete scan records", err)
	}

	if h.statsService != nil {
		if err := h.statsService.Reset(ctx); err != nil {
			// The log is gone; stale counters are not worth failing over.
			log.Printf("Failed to reset stats counters: %v", err)
		}
	}

	return c.JSON(http.StatusOK, map[string]any{
		"ok":      true,
		"message": "All scan records deleted",
	})
}

var exportHeader = []string{"id", "code", "scanner", "tickets", "amount", "valid_until", "outcome", "message", "timestamp"}

func exportRow(rec models.ScanRecord) []string {
	return []string{
		rec.ID,
		rec.Code,
		rec.Scanner,
		strconv.Itoa(rec.Tickets),
		strconv.Itoa(rec.Amount),
		rec.ValidUntil,
		rec.Outcome,
		rec.Message,
		rec.Timestamp.UTC().Format("2006-01-02 15:04:05"),
	}
}

// exportTotals sums accepted tickets and prize value for the footer row.
func exportTotals(records []models.ScanRecord) (int, decimal.Decimal) {
	tickets := 0
	value := decimal.Zero
	for _, rec := range records {
		if rec.Outcome != models.OutcomeAccepted {
			continue
		}
		tickets += rec.Tickets
		value = value.Add(decimal.NewFromInt(int64(rec.Amount)))
	}
	return tickets, value
}

func exportCSV(records []models.ScanRecord) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(exportHeader); err != nil {
		return nil, err
	}
	for _, rec := range records {
		if err := w.Write(exportRow(rec)); err != nil {
			return nil, err
		}
	}

	tickets, value := exportTotals(records)
	totals := []string{"", "total accepted", "", strconv.Itoa(tickets), value.String(), "", "", "", ""}
	if err := w.Write(totals); err != nil {
		return nil, err
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func exportXLSX(records []models.ScanRecord) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sheet1"
	writeRow := func(rowIdx int, values []string) error {
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, rowIdx)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return err
			}
		}
		return nil
	}

	if err := writeRow(1, exportHeader); err != nil {
		return nil, err
	}
	for i, rec := range records {
		if err := writeRow(i+2, exportRow(rec)); err != nil {
			return nil, err
		}
	}

	tickets, value := exportTotals(records)
	totals := []string{"", "total accepted", "", strconv.Itoa(tickets), value.String(), "", "", "", ""}
	if err := writeRow(len(records)+2, totals); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
