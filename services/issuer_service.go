package services

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"
	"github.com/xuri/excelize/v2"

	"bingo-system/config"
	"bingo-system/models"
	"bingo-system/monitoring"
	"bingo-system/utils"
)

// IssuerService builds batches of signed single-use codes, renders one QR
// image per code and writes a CSV + XLSX manifest mapping code to image.
type IssuerService struct {
	signer *Signer
	config *config.Config
}

func NewIssuerService(signer *Signer, cfg *config.Config) *IssuerService {
	return &IssuerService{
		signer: signer,
		config: cfg,
	}
}

type BatchOptions struct {
	Count       int
	Tickets     int
	Amount      int
	ValidUntil  string
	LabelPrefix string
	FolderName  string
}

// IssueOne creates one signed payload with a fresh uuid4 code.
func (s *IssuerService) IssueOne(tickets, amount int, validUntil string) (models.SignedPayload, error) {
	p := models.SignedPayload{
		Code:       uuid.NewString(),
		Tickets:    tickets,
		ValidUntil: validUntil,
		Amount:     amount,
	}

	sig, err := s.signer.Sign(p)
	if err != nil {
		return models.SignedPayload{}, err
	}

	p.Sig = sig
	return p, nil
}

// GenerateBatch issues opts.Count codes and writes PNGs plus the manifest
// files under QR_OUTPUT_DIR/<folder>.
func (s *IssuerService) GenerateBatch(opts BatchOptions) (*models.BatchResult, error) {
	if opts.Count <= 0 {
		return nil, fmt.Errorf("batch count must be positive, got %d", opts.Count)
	}
	if opts.Tickets < 0 {
		return nil, fmt.Errorf("tickets per code must not be negative, got %d", opts.Tickets)
	}
	if opts.ValidUntil != "" {
		if _, err := parseValidUntil(opts.ValidUntil); err != nil {
			return nil, fmt.Errorf("invalid valid-until date %q: %w", opts.ValidUntil, err)
		}
	}

	batchID, err := utils.GenerateCode(4)
	if err != nil {
		return nil, err
	}

	prefix := opts.LabelPrefix
	if prefix == "" {
		prefix = "BINGO"
	}
	folder := opts.FolderName
	if folder == "" {
		folder = fmt.Sprintf("batch_%s", strings.ToLower(batchID))
	}

	outputDir := filepath.Join(s.config.QROutputDir, folder)
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, err
	}

	rows := make([]models.ManifestRow, 0, opts.Count)
	for i := 0; i < opts.Count; i++ {
		payload, err := s.IssueOne(opts.Tickets, opts.Amount, opts.ValidUntil)
		if err != nil {
			return nil, err
		}

		content, err := EncodePayload(payload, s.config.ScannerBaseURL)
		if err != nil {
			return nil, err
		}

		filename := fmt.Sprintf("%s_%dcards_%d_%s.png", prefix, opts.Tickets, i+1, payload.Code[:8])
		outPath := filepath.Join(outputDir, filename)
		if err := qrcode.WriteFile(content, qrcode.Medium, 256, outPath); err != nil {
			return nil, fmt.Errorf("rendering QR image %s: %w", filename, err)
		}

		rows = append(rows, models.ManifestRow{
			Code:       payload.Code,
			Tickets:    payload.Tickets,
			ValidUntil: payload.ValidUntil,
			Amount:     payload.Amount,
			File:       outPath,
		})
	}

	csvPath := filepath.Join(outputDir, fmt.Sprintf("codes_%dcards.csv", opts.Tickets))
	if err := writeManifestCSV(csvPath, rows); err != nil {
		return nil, err
	}

	xlsxPath := filepath.Join(outputDir, fmt.Sprintf("codes_%dcards.xlsx", opts.Tickets))
	if err := writeManifestXLSX(xlsxPath, rows); err != nil {
		return nil, err
	}

	monitoring.TrackIssuedCodes(len(rows))
	log.Printf("Generated %d QR codes (%d tickets each) in %s", len(rows), opts.Tickets, outputDir)

	return &models.BatchResult{
		BatchID:   batchID,
		OutputDir: outputDir,
		CSVPath:   csvPath,
		XLSXPath:  xlsxPath,
		Rows:      rows,
	}, nil
}

var manifestHeader = []string{"code", "tickets", "valid_until", "amount", "file"}

func writeManifestCSV(path string, rows []models.ManifestRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(manifestHeader); err != nil {
		return err
	}
	for _, row := range rows {
		record := []string{
			row.Code,
			strconv.Itoa(row.Tickets),
			row.ValidUntil,
			strconv.Itoa(row.Amount),
			row.File,
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func writeManifestXLSX(path string, rows []models.ManifestRow) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sheet1"
	for col, name := range manifestHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, name); err != nil {
			return err
		}
	}

	for i, row := range rows {
		values := []any{row.Code, row.Tickets, row.ValidUntil, row.Amount, row.File}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return err
			}
		}
	}

	return f.SaveAs(path)
}
