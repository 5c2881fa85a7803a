package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase"
	pbmodels "github.com/pocketbase/pocketbase/models"

	"bingo-system/models"
)

var (
	// ErrCodeRedeemed means an accepted record already exists for the code.
	ErrCodeRedeemed = errors.New("code already redeemed")

	// ErrStoreUnavailable wraps persistence failures. Redemption state is
	// unknown in that case, so callers must surface it, never guess.
	ErrStoreUnavailable = errors.New("scan store unavailable")
)

// ScanStore is the durable append-only log of scan attempts. Insert of an
// accepted record and the does-an-accepted-record-exist check compose into
// one atomic unit: the scans collection carries a unique index on code
// restricted to outcome='accepted', and Insert reports a violation as
// ErrCodeRedeemed.
type ScanStore interface {
	// FindAccepted returns the accepted record for a code, or nil when the
	// code is unredeemed.
	FindAccepted(ctx context.Context, code string) (*models.ScanRecord, error)

	// Insert appends one attempt record. Inserting an accepted record for
	// an already redeemed code returns ErrCodeRedeemed.
	Insert(ctx context.Context, rec *models.ScanRecord) error

	// List returns every attempt record, newest first.
	List(ctx context.Context) ([]models.ScanRecord, error)

	// DeleteAll wipes the attempt log. Admin-only bulk operation.
	DeleteAll(ctx context.Context) error
}

const scansCollection = "scans"

// pbScanStore persists scan records in the PocketBase scans collection.
type pbScanStore struct {
	app *pocketbase.PocketBase
}

func NewScanStore(app *pocketbase.PocketBase) ScanStore {
	return &pbScanStore{app: app}
}

func (s *pbScanStore) FindAccepted(ctx context.Context, code string) (*models.ScanRecord, error) {
	record, err := s.app.Dao().FindFirstRecordByFilter(
		scansCollection,
		"code = {:code} && outcome = 'accepted'",
		dbx.Params{"code": code},
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	rec := recordToScan(record)
	return &rec, nil
}

func (s *pbScanStore) Insert(ctx context.Context, rec *models.ScanRecord) error {
	collection, err := s.app.Dao().FindCollectionByNameOrId(scansCollection)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	record := pbmodels.NewRecord(collection)
	record.Set("code", rec.Code)
	record.Set("scanner", rec.Scanner)
	record.Set("tickets", rec.Tickets)
	record.Set("amount", rec.Amount)
	record.Set("valid_until", rec.ValidUntil)
	record.Set("outcome", rec.Outcome)
	record.Set("message", rec.Message)

	if err := s.app.Dao().SaveRecord(record); err != nil {
		if isUniqueViolation(err) {
			return ErrCodeRedeemed
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	rec.ID = record.Id
	rec.Timestamp = record.Created.Time()
	return nil
}

func (s *pbScanStore) List(ctx context.Context) ([]models.ScanRecord, error) {
	records, err := s.app.Dao().FindRecordsByFilter(
		scansCollection,
		"id != ''",
		"-created",
		0,
		0,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	scans := make([]models.ScanRecord, 0, len(records))
	for _, record := range records {
		scans = append(scans, recordToScan(record))
	}
	return scans, nil
}

func (s *pbScanStore) DeleteAll(ctx context.Context) error {
	if _, err := s.app.Dao().DB().NewQuery("DELETE FROM scans").Execute(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func recordToScan(record *pbmodels.Record) models.ScanRecord {
	return models.ScanRecord{
		ID:         record.Id,
		Code:       record.GetString("code"),
		Scanner:    record.GetString("scanner"),
		Tickets:    record.GetInt("tickets"),
		Amount:     record.GetInt("amount"),
		ValidUntil: record.GetString("valid_until"),
		Outcome:    record.GetString("outcome"),
		Message:    record.GetString("message"),
		Timestamp:  record.Created.Time(),
	}
}

// isUniqueViolation matches the sqlite error raised by the partial unique
// index on (code) WHERE outcome = 'accepted'.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(strings.ToUpper(err.Error()), "UNIQUE CONSTRAINT")
}
