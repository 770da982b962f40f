// Package visualization serves the files produced by a scrape run: the raw
// CSV files and a small read-only JSON API over them.
package visualization

import (
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"path/filepath"

	"msescraper/internal/scraper"
	"msescraper/internal/utils"
	"msescraper/models"
)

type server struct {
	dataFile    string
	issuersFile string
	logger      *utils.Logger
}

// NewServer returns the handler for
//
//	GET /api/stocks[?issuer=CODE]  records from dataFile as JSON
//	GET /api/issuers               codes from issuersFile as JSON
//	GET /data/<name>               dataFile or issuersFile by base name
func NewServer(dataFile, issuersFile string, logger *utils.Logger) http.Handler {
	s := &server{dataFile: dataFile, issuersFile: issuersFile, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/stocks", s.handleStocks)
	mux.HandleFunc("GET /api/issuers", s.handleIssuers)

	// Serve the two output files; nothing else in their directories
	mux.HandleFunc("GET /data/{name}", s.handleDataFile)

	return mux
}

func (s *server) handleStocks(w http.ResponseWriter, r *http.Request) {
	records, err := scraper.ReadRecordsCSV(s.dataFile)
	if err != nil {
		s.fail(w, err)
		return
	}

	if issuer := r.URL.Query().Get("issuer"); issuer != "" {
		filtered := make([]models.TradingRecord, 0)
		for _, record := range records {
			if string(record.IssuerCode) == issuer {
				filtered = append(filtered, record)
			}
		}
		records = filtered
	}

	s.writeJSON(w, http.StatusOK, records)
}

func (s *server) handleIssuers(w http.ResponseWriter, r *http.Request) {
	issuers, err := utils.ReadIssuersFromCSV(s.issuersFile)
	if err != nil {
		s.fail(w, err)
		return
	}
	if issuers == nil {
		issuers = []models.IssuerCode{}
	}
	s.writeJSON(w, http.StatusOK, issuers)
}

func (s *server) handleDataFile(w http.ResponseWriter, r *http.Request) {
	var path string
	switch r.PathValue("name") {
	case filepath.Base(s.dataFile):
		path = s.dataFile
	case filepath.Base(s.issuersFile):
		path = s.issuersFile
	default:
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	http.ServeFile(w, r, path)
}

func (s *server) fail(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, fs.ErrNotExist) {
		status = http.StatusNotFound
	}
	s.logger.Error("Failed to serve data: %v", err)
	s.writeJSON(w, status, map[string]string{"message": err.Error()})
}

func (s *server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response: %v", err)
	}
}
