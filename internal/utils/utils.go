package utils

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"msescraper/models"
)

const issuersHeader = "Issuer"

// ReadIssuersFromCSV reads issuer codes from a file written by WriteIssuersCSV.
func ReadIssuersFromCSV(filePath string) ([]models.IssuerCode, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	var issuers []models.IssuerCode
	for _, record := range records[1:] { // Skip header
		issuers = append(issuers, models.IssuerCode(record[0]))
	}

	return issuers, nil
}

// WriteIssuersCSV overwrites filePath with a header row and one code per line.
func WriteIssuersCSV(filePath string, issuers []models.IssuerCode) error {
	if err := EnsureParentDir(filePath); err != nil {
		return err
	}

	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create issuers file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{issuersHeader}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, issuer := range issuers {
		if err := writer.Write([]string{string(issuer)}); err != nil {
			return fmt.Errorf("failed to write issuer %s: %w", issuer, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// EnsureParentDir creates the directory that will hold filePath.
func EnsureParentDir(filePath string) error {
	dir := filepath.Dir(filePath)
	if dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s directory: %w", dir, err)
	}
	return nil
}
