package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v5"
	"github.com/pocketbase/pocketbase/apis"
	pbmodels "github.com/pocketbase/pocketbase/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bingo-system/models"
	"bingo-system/services"
)

func setupAdminHandler() (*AdminHandler, *services.MemoryScanStore) {
	store := services.NewMemoryScanStore()
	handler := &AdminHandler{store: store}
	return handler, store
}

func adminContext(method, target string, asAdmin bool) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()

	e := echo.New()
	c := e.NewContext(req, rec)
	if asAdmin {
		c.Set(apis.ContextAdminKey, &pbmodels.Admin{})
	}
	return c, rec
}

func seedRecords(t *testing.T, store *services.MemoryScanStore) {
	t.Helper()

	records := []models.ScanRecord{
		{Code: "c1", Scanner: "gate-1", Tickets: 5, Amount: 5000, Outcome: models.OutcomeAccepted, Message: "tickets:5"},
		{Code: "c1", Scanner: "gate-2", Tickets: 5, Amount: 5000, Outcome: models.OutcomeDuplicate, Message: "code already scanned"},
		{Code: "c2", Scanner: "gate-1", Tickets: 1, Amount: 1000, Outcome: models.OutcomeAccepted, Message: "tickets:1"},
	}
	for i := range records {
		require.NoError(t, store.Insert(context.Background(), &records[i]))
	}
}

func TestAdminHandler_Unauthorized(t *testing.T) {
	handler, _ := setupAdminHandler()

	endpoints := []func(echo.Context) error{
		handler.ListScans,
		handler.Export,
		handler.Stats,
		handler.DeleteAll,
	}

	for _, endpoint := range endpoints {
		c, _ := adminContext(http.MethodGet, "/admin/scans", false)
		assert.Error(t, endpoint(c))
	}
}

func TestAdminHandler_ListScans(t *testing.T) {
	handler, store := setupAdminHandler()
	seedRecords(t, store)

	c, rec := adminContext(http.MethodGet, "/admin/scans", true)
	require.NoError(t, handler.ListScans(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var records []models.ScanRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	require.Len(t, records, 3)
	// Newest first.
	assert.Equal(t, "c2", records[0].Code)
}

func TestAdminHandler_ExportCSV(t *testing.T) {
	handler, store := setupAdminHandler()
	seedRecords(t, store)

	c, rec := adminContext(http.MethodGet, "/admin/export", true)
	require.NoError(t, handler.Export(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/csv")
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "scans_export.csv")

	body := rec.Body.String()
	lines := strings.Split(strings.TrimSpace(body), "\n")
	// Header, three records, totals footer.
	assert.Len(t, lines, 5)
	assert.Contains(t, lines[0], "code")
	// Totals: 6 accepted tickets, 6000 value.
	assert.Contains(t, lines[4], "6")
	assert.Contains(t, lines[4], "6000")
}

func TestAdminHandler_ExportXLSX(t *testing.T) {
	handler, store := setupAdminHandler()
	seedRecords(t, store)

	c, rec := adminContext(http.MethodGet, "/admin/export?format=xlsx", true)
	require.NoError(t, handler.Export(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "spreadsheetml")
	assert.Greater(t, rec.Body.Len(), 0)
}

func TestAdminHandler_ExportUnknownFormat(t *testing.T) {
	handler, store := setupAdminHandler()
	seedRecords(t, store)

	c, _ := adminContext(http.MethodGet, "/admin/export?format=pdf", true)
	assert.Error(t, handler.Export(c))
}

func TestAdminHandler_DeleteAll(t *testing.T) {
	handler, store := setupAdminHandler()
	seedRecords(t, store)

	c, rec := adminContext(http.MethodPost, "/admin/delete_all", true)
	require.NoError(t, handler.DeleteAll(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	records, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestAdminHandler_StatsWithoutBackend(t *testing.T) {
	handler, _ := setupAdminHandler()

	c, _ := adminContext(http.MethodGet, "/admin/stats", true)
	assert.Error(t, handler.Stats(c))
}
