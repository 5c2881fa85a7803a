package handlers

import (
	"net/http"

	"github.com/labstack/echo/v5"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"

	"bingo-system/models"
	"bingo-system/services"
)

type ScanHandler struct {
	app         *pocketbase.PocketBase
	scanService *services.ScanService
}

func NewScanHandler(app *pocketbase.PocketBase, scanService *services.ScanService) *ScanHandler {
	return &ScanHandler{
		app:         app,
		scanService: scanService,
	}
}

// Scan - validate and redeem a scanned QR code
func (h *ScanHandler) Scan(c echo.Context) error {
	var req models.ScanRequest

	if err := c.Bind(&req); err != nil {
		return apis.NewBadRequestError("Invalid request body", err)
	}

	// A scanner may forward the raw base64 token from the QR code instead
	// of a parsed payload.
	if req.Data != "" && req.Payload.Code == "" {
		payload, err := services.DecodePayload(req.Data)
		if err != nil {
			return apis.NewBadRequestError("Undecodable QR data", err)
		}
		req.Payload = payload
	}

	scanner := req.Scanner
	if scanner == "" {
		scanner = "unknown"
	}

	result, err := h.scanService.ValidateAndRedeem(c.Request().Context(), scanner, req.Payload)
	if err != nil {
		// Redemption state is unknown; the scanner should retry.
		return apis.NewApiError(http.StatusServiceUnavailable, "Scan could not be recorded", err)
	}

	status := http.StatusOK
	if !result.Ok {
		status = http.StatusBadRequest
	}
	return c.JSON(status, result)
}
