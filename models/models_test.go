package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanRecord_JSONSerialization(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)

	record := ScanRecord{
		ID:         "rec-123",
		Code:       "c1d64ad2",
		Scanner:    "gate-1",
		Tickets:    5,
		Amount:     5000,
		ValidUntil: "2025-11-30",
		Outcome:    OutcomeAccepted,
		Message:    "tickets:5",
		Timestamp:  now,
	}

	// Test JSON marshaling
	jsonData, err := json.Marshal(record)
	require.NoError(t, err)

	// Test JSON unmarshaling
	var unmarshaled ScanRecord
	err = json.Unmarshal(jsonData, &unmarshaled)
	require.NoError(t, err)

	// Verify all fields
	assert.Equal(t, record.ID, unmarshaled.ID)
	assert.Equal(t, record.Code, unmarshaled.Code)
	assert.Equal(t, record.Scanner, unmarshaled.Scanner)
	assert.Equal(t, record.Tickets, unmarshaled.Tickets)
	assert.Equal(t, record.Amount, unmarshaled.Amount)
	assert.Equal(t, record.ValidUntil, unmarshaled.ValidUntil)
	assert.Equal(t, record.Outcome, unmarshaled.Outcome)
	assert.Equal(t, record.Message, unmarshaled.Message)
	assert.True(t, record.Timestamp.Equal(unmarshaled.Timestamp))
}

func TestQRPayload_MissingFieldsStayNil(t *testing.T) {
	// A payload without tickets must be distinguishable from one with
	// tickets:0, so malformed input is rejected instead of defaulted.
	var p QRPayload
	err := json.Unmarshal([]byte(`{"code":"c1","sig":"abc"}`), &p)
	require.NoError(t, err)

	assert.Equal(t, "c1", p.Code)
	assert.Nil(t, p.Tickets)
	assert.Nil(t, p.Amount)
}

func TestQRPayload_ZeroTicketsArePresent(t *testing.T) {
	var p QRPayload
	err := json.Unmarshal([]byte(`{"code":"c1","tickets":0,"sig":"abc"}`), &p)
	require.NoError(t, err)

	require.NotNil(t, p.Tickets)
	assert.Equal(t, 0, *p.Tickets)
}

func TestSignedPayload_SigOmittedWhenEmpty(t *testing.T) {
	p := SignedPayload{
		Code:    "c1",
		Tickets: 5,
	}

	jsonData, err := json.Marshal(p)
	require.NoError(t, err)

	assert.NotContains(t, string(jsonData), "sig")
}

func TestScanResult_JSONShape(t *testing.T) {
	result := ScanResult{
		Ok:         false,
		Outcome:    OutcomeDuplicate,
		Message:    "This QR code was already scanned",
		Tickets:    5,
		ValidUntil: "2025-11-30",
	}

	jsonData, err := json.Marshal(result)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(jsonData, &decoded))

	assert.Equal(t, false, decoded["ok"])
	assert.Equal(t, "duplicate", decoded["outcome"])
	assert.Equal(t, float64(5), decoded["tickets"])
	assert.Equal(t, "2025-11-30", decoded["valid_until"])
}

func TestOutcomeConstants(t *testing.T) {
	assert.Equal(t, "accepted", OutcomeAccepted)
	assert.Equal(t, "duplicate", OutcomeDuplicate)
	assert.Equal(t, "expired", OutcomeExpired)
	assert.Equal(t, "invalid", OutcomeInvalid)
}
