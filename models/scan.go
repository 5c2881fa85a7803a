package models

import (
	"time"
)

const (
	OutcomeAccepted  = "accepted"
	OutcomeDuplicate = "duplicate"
	OutcomeExpired   = "expired"
	OutcomeInvalid   = "invalid"
)

// QRPayload is the payload exactly as decoded from a scanned QR code.
// Tickets and Amount are pointers so a missing field can be told apart
// from an explicit zero and rejected instead of silently defaulted.
type QRPayload struct {
	Code       string `json:"code"`
	Tickets    *int   `json:"tickets"`
	ValidUntil string `json:"valid_until"`
	Amount     *int   `json:"amount"`
	Sig        string `json:"sig"`
}

// SignedPayload is a structurally complete payload, as produced by the
// issuer and as covered by the signature.
type SignedPayload struct {
	Code       string `json:"code"`
	Tickets    int    `json:"tickets"`
	ValidUntil string `json:"valid_until"`
	Amount     int    `json:"amount"`
	Sig        string `json:"sig,omitempty"`
}

type ScanRequest struct {
	Scanner string    `json:"scanner"`
	Payload QRPayload `json:"payload"`
	// Data optionally carries the raw base64 token from the QR code
	// instead of a parsed payload.
	Data string `json:"data,omitempty"`
}

type ScanResult struct {
	Ok         bool   `json:"ok"`
	Outcome    string `json:"outcome"` // accepted, duplicate, expired, invalid
	Message    string `json:"message"`
	Tickets    int    `json:"tickets"`
	ValidUntil string `json:"valid_until"`
	Amount     int    `json:"amount,omitempty"`
}

// ScanRecord is one audit row: every scan attempt produces exactly one,
// whatever the outcome.
type ScanRecord struct {
	ID         string    `json:"id"`
	Code       string    `json:"code"`
	Scanner    string    `json:"scanner"`
	Tickets    int       `json:"tickets"`
	Amount     int       `json:"amount"`
	ValidUntil string    `json:"valid_until"`
	Outcome    string    `json:"outcome"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
}
