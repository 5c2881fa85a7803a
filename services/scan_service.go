package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	pubnub "github.com/pubnub/go"

	"bingo-system/config"
	"bingo-system/models"
	"bingo-system/monitoring"
)

// ScanService decides whether a presented code may be redeemed. The
// decision order is fixed: structural check, signature check, expiry
// check, then an optimistic insert of the accepted record. The insert is
// the only step that needs exactly-once semantics; the store's unique
// index turns a lost race into ErrCodeRedeemed, which is reported as a
// duplicate.
//
// Every call appends exactly one scan record, rejected attempts included.
type ScanService struct {
	store  ScanStore
	signer *Signer
	stats  *StatsService
	pubnub *pubnub.PubNub
	config *config.Config
}

func NewScanService(store ScanStore, signer *Signer, stats *StatsService, pn *pubnub.PubNub, cfg *config.Config) *ScanService {
	return &ScanService{
		store:  store,
		signer: signer,
		stats:  stats,
		pubnub: pn,
		config: cfg,
	}
}

// ValidateAndRedeem runs the full decision sequence for one scan attempt.
// A non-nil error means the store was unreachable and the redemption state
// is unknown; every other outcome is encoded in the result.
func (s *ScanService) ValidateAndRedeem(ctx context.Context, scanner string, p models.QRPayload) (*models.ScanResult, error) {
	started := time.Now()

	res, err := s.decide(ctx, scanner, p)
	if err != nil {
		return nil, err
	}

	monitoring.TrackScan(res.Outcome, time.Since(started))
	s.recordStats(ctx, res)
	s.publishFeed(scanner, p.Code, res)
	return res, nil
}

func (s *ScanService) decide(ctx context.Context, scanner string, p models.QRPayload) (*models.ScanResult, error) {
	// Structural check. Missing fields are rejected, never defaulted:
	// a payload without a ticket count is malformed input, not a
	// zero-ticket code.
	switch {
	case p.Code == "":
		return s.reject(ctx, scanner, p, models.OutcomeInvalid, "missing QR code")
	case p.Sig == "":
		return s.reject(ctx, scanner, p, models.OutcomeInvalid, "missing signature")
	case p.Tickets == nil:
		return s.reject(ctx, scanner, p, models.OutcomeInvalid, "missing ticket count")
	case *p.Tickets < 0:
		return s.reject(ctx, scanner, p, models.OutcomeInvalid, "negative ticket count")
	}

	signed := models.SignedPayload{
		Code:       p.Code,
		Tickets:    *p.Tickets,
		ValidUntil: p.ValidUntil,
	}
	if p.Amount != nil {
		signed.Amount = *p.Amount
	}

	// Signature check runs before any store access so forged codes learn
	// nothing about which codes exist.
	if !s.signer.Verify(signed, p.Sig) {
		log.Printf("Rejected forged or tampered payload for code %q from scanner %q", p.Code, scanner)
		return s.reject(ctx, scanner, p, models.OutcomeInvalid, "tampered or forged signature")
	}

	if expired, msg := s.isExpired(signed.ValidUntil); expired {
		return s.reject(ctx, scanner, p, models.OutcomeExpired, msg)
	}

	// Optimistic accept. The unique index on accepted codes makes the
	// duplicate check and the insert one atomic unit: of N concurrent
	// scanners racing on the same code, exactly one insert succeeds.
	rec := &models.ScanRecord{
		Code:       signed.Code,
		Scanner:    scanner,
		Tickets:    signed.Tickets,
		Amount:     signed.Amount,
		ValidUntil: signed.ValidUntil,
		Outcome:    models.OutcomeAccepted,
		Message:    fmt.Sprintf("tickets:%d", signed.Tickets),
	}

	err := s.store.Insert(ctx, rec)
	if errors.Is(err, ErrCodeRedeemed) {
		return s.rejectDuplicate(ctx, scanner, signed)
	}
	if err != nil {
		return nil, err
	}

	return &models.ScanResult{
		Ok:         true,
		Outcome:    models.OutcomeAccepted,
		Message:    fmt.Sprintf("Code %s registered", signed.Code),
		Tickets:    signed.Tickets,
		ValidUntil: signed.ValidUntil,
		Amount:     signed.Amount,
	}, nil
}

// rejectDuplicate logs the duplicate attempt and echoes the originally
// accepted ticket count back for operator reconciliation.
func (s *ScanService) rejectDuplicate(ctx context.Context, scanner string, signed models.SignedPayload) (*models.ScanResult, error) {
	tickets := signed.Tickets
	validUntil := signed.ValidUntil
	amount := signed.Amount

	prev, err := s.store.FindAccepted(ctx, signed.Code)
	if err != nil {
		return nil, err
	}
	if prev != nil {
		tickets = prev.Tickets
		validUntil = prev.ValidUntil
		amount = prev.Amount
	}

	rec := &models.ScanRecord{
		Code:       signed.Code,
		Scanner:    scanner,
		Tickets:    tickets,
		Amount:     amount,
		ValidUntil: validUntil,
		Outcome:    models.OutcomeDuplicate,
		Message:    "code already scanned",
	}
	if err := s.store.Insert(ctx, rec); err != nil {
		return nil, err
	}

	return &models.ScanResult{
		Ok:         false,
		Outcome:    models.OutcomeDuplicate,
		Message:    "This QR code was already scanned",
		Tickets:    tickets,
		ValidUntil: validUntil,
		Amount:     amount,
	}, nil
}

// reject appends the audit record for a failed attempt and builds the
// rejection result.
func (s *ScanService) reject(ctx context.Context, scanner string, p models.QRPayload, outcome, message string) (*models.ScanResult, error) {
	rec := &models.ScanRecord{
		Code:       p.Code,
		Scanner:    scanner,
		ValidUntil: p.ValidUntil,
		Outcome:    outcome,
		Message:    message,
	}
	if p.Tickets != nil {
		rec.Tickets = *p.Tickets
	}
	if p.Amount != nil {
		rec.Amount = *p.Amount
	}

	if err := s.store.Insert(ctx, rec); err != nil {
		return nil, err
	}

	return &models.ScanResult{
		Ok:         false,
		Outcome:    outcome,
		Message:    message,
		Tickets:    rec.Tickets,
		ValidUntil: rec.ValidUntil,
		Amount:     rec.Amount,
	}, nil
}

// isExpired checks the valid_until field. A date-only value keeps the code
// valid through that whole day (UTC). An unparseable value is treated as
// "no expiry" unless STRICT_EXPIRY is set. See README for the rationale.
func (s *ScanService) isExpired(validUntil string) (bool, string) {
	if validUntil == "" {
		return false, ""
	}

	deadline, err := parseValidUntil(validUntil)
	if err != nil {
		if s.config != nil && s.config.StrictExpiry {
			return true, fmt.Sprintf("unreadable expiry date %q", validUntil)
		}
		log.Printf("Unparseable valid_until %q, treating code as non-expiring", validUntil)
		return false, ""
	}

	if time.Now().After(deadline) {
		return true, fmt.Sprintf("code expired on %s", validUntil)
	}
	return false, ""
}

func parseValidUntil(validUntil string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, validUntil); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", validUntil)
	if err != nil {
		return time.Time{}, err
	}
	// Valid through the named day, exclusive at the next midnight.
	return t.AddDate(0, 0, 1), nil
}

// recordStats bumps the live Redis counters. Best effort: the scan has
// already been persisted, a stats failure must not fail it.
func (s *ScanService) recordStats(ctx context.Context, res *models.ScanResult) {
	if s.stats == nil {
		return
	}
	if err := s.stats.RecordScan(ctx, res.Outcome, res.Amount); err != nil {
		log.Printf("Failed to record scan stats: %v", err)
	}
}

// publishFeed pushes the outcome to the operator dashboard channel.
func (s *ScanService) publishFeed(scanner, code string, res *models.ScanResult) {
	if s.pubnub == nil || s.config == nil || s.config.ScanFeedChannel == "" {
		return
	}

	s.pubnub.Publish().
		Channel(s.config.ScanFeedChannel).
		Message(map[string]any{
			"type":    "scan",
			"code":    code,
			"scanner": scanner,
			"outcome": res.Outcome,
			"tickets": res.Tickets,
		}).
		Execute()
}
