package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bingo-system/config"
	"bingo-system/models"
	"bingo-system/services"
)

func setupScanHandler() (*ScanHandler, *services.MemoryScanStore, *services.Signer) {
	store := services.NewMemoryScanStore()
	signer := services.NewSigner("test-secret")
	scanService := services.NewScanService(store, signer, nil, nil, &config.Config{})
	handler := &ScanHandler{scanService: scanService}
	return handler, store, signer
}

func postScan(t *testing.T, handler *ScanHandler, body any) (*httptest.ResponseRecorder, error) {
	t.Helper()

	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/scan", bytes.NewReader(data))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	e := echo.New()
	c := e.NewContext(req, rec)

	return rec, handler.Scan(c)
}

func signedRequest(t *testing.T, signer *services.Signer, code string, tickets int) models.ScanRequest {
	t.Helper()

	signed := models.SignedPayload{Code: code, Tickets: tickets}
	sig, err := signer.Sign(signed)
	require.NoError(t, err)

	return models.ScanRequest{
		Scanner: "gate-1",
		Payload: models.QRPayload{
			Code:    code,
			Tickets: &tickets,
			Amount:  new(int),
			Sig:     sig,
		},
	}
}

func TestScanHandler_Scan_Accepted(t *testing.T) {
	handler, _, signer := setupScanHandler()

	rec, err := postScan(t, handler, signedRequest(t, signer, "c1", 5))

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	var result models.ScanResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Ok)
	assert.Equal(t, models.OutcomeAccepted, result.Outcome)
	assert.Equal(t, 5, result.Tickets)
}

func TestScanHandler_Scan_DuplicateIs400(t *testing.T) {
	handler, _, signer := setupScanHandler()
	request := signedRequest(t, signer, "c1", 5)

	_, err := postScan(t, handler, request)
	require.NoError(t, err)

	rec, err := postScan(t, handler, request)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var result models.ScanResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.False(t, result.Ok)
	assert.Equal(t, models.OutcomeDuplicate, result.Outcome)
	assert.Equal(t, 5, result.Tickets)
}

func TestScanHandler_Scan_MissingSignatureIs400(t *testing.T) {
	handler, _, signer := setupScanHandler()

	request := signedRequest(t, signer, "c1", 5)
	request.Payload.Sig = ""

	rec, err := postScan(t, handler, request)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var result models.ScanResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, models.OutcomeInvalid, result.Outcome)
}

func TestScanHandler_Scan_RawDataToken(t *testing.T) {
	handler, _, signer := setupScanHandler()

	tickets := 3
	signed := models.SignedPayload{Code: "c-data", Tickets: tickets}
	sig, err := signer.Sign(signed)
	require.NoError(t, err)
	signed.Sig = sig

	token, err := services.EncodePayload(signed, "")
	require.NoError(t, err)

	rec, err := postScan(t, handler, models.ScanRequest{Scanner: "gate-2", Data: token})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	var result models.ScanResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, models.OutcomeAccepted, result.Outcome)
	assert.Equal(t, tickets, result.Tickets)
}

func TestScanHandler_Scan_UndecodableDataToken(t *testing.T) {
	handler, _, _ := setupScanHandler()

	_, err := postScan(t, handler, models.ScanRequest{Scanner: "gate-2", Data: "%%%garbage%%%"})

	assert.Error(t, err)
}

func TestScanHandler_Scan_StorageUnavailableIs503(t *testing.T) {
	handler, store, signer := setupScanHandler()

	store.FailNext = true
	_, err := postScan(t, handler, signedRequest(t, signer, "c1", 5))

	assert.Error(t, err)
}
