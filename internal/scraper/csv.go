package scraper

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"msescraper/internal/utils"
	"msescraper/models"
)

// WriteRecordsCSV creates or truncates path and writes the header followed by
// one row per record, in the order given.
func WriteRecordsCSV(path string, records []models.TradingRecord) error {
	if err := utils.EnsureParentDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	if err := writeRecords(file, records); err != nil {
		return err
	}
	return file.Close()
}

func writeRecords(w io.Writer, records []models.TradingRecord) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(models.RecordHeader()); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	for _, record := range records {
		if err := writer.Write(record.Row()); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// ReadRecordsCSV loads a file written by WriteRecordsCSV.
func ReadRecordsCSV(path string) ([]models.TradingRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s has no header", path)
	}

	records := make([]models.TradingRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		record, err := models.RecordFromRow(row)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, i+2, err)
		}
		records = append(records, record)
	}
	return records, nil
}
