package models

type ManifestRow struct {
	Code       string `json:"code"`
	Tickets    int    `json:"tickets"`
	ValidUntil string `json:"valid_until"`
	Amount     int    `json:"amount"`
	File       string `json:"file"`
}

type BatchResult struct {
	BatchID   string        `json:"batch_id"`
	OutputDir string        `json:"output_dir"`
	CSVPath   string        `json:"csv_path"`
	XLSXPath  string        `json:"xlsx_path"`
	Rows      []ManifestRow `json:"rows"`
}
