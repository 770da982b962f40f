// Package models defines the data structures used in the application.
package models

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// DateLayout is the dd.mm.yyyy format the exchange uses for dates.
const DateLayout = "02.01.2006"

// IssuerCode identifies a tradable security on the exchange, e.g. "KMB".
type IssuerCode string

// ValidIssuerCode reports whether a raw option value is an equity code:
// non-empty after trimming and free of digit characters.
func ValidIssuerCode(raw string) bool {
	code := strings.TrimSpace(raw)
	if code == "" {
		return false
	}
	return !strings.ContainsFunc(code, unicode.IsDigit)
}

// DateRange is an inclusive window of calendar days submitted in one history request.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Days returns the number of calendar days covered by the range, both ends included.
func (r DateRange) Days() int {
	return int(r.End.Sub(r.Start).Round(24*time.Hour).Hours()/24) + 1
}

func (r DateRange) String() string {
	return fmt.Sprintf("%s-%s", r.Start.Format(DateLayout), r.End.Format(DateLayout))
}

// TradingRecord is one row of an issuer's trading history.
// Every value is the trimmed cell text as rendered by the exchange.
type TradingRecord struct {
	IssuerCode          IssuerCode `json:"issuer_code"`
	Date                string     `json:"date"`
	LastPrice           string     `json:"last_transaction_price"`
	Max                 string     `json:"max_price"`
	Min                 string     `json:"min_price"`
	AveragePrice        string     `json:"average_price"`
	PercentChange       string     `json:"percent_change"`
	Quantity            string     `json:"quantity"`
	TradingVolumeDenars string     `json:"trading_volume_denars"`
	TotalVolumeDenars   string     `json:"total_volume_denars"`
}

var recordHeader = []string{
	"Issuer",
	"Date",
	"Last Transaction Price",
	"Max",
	"Min",
	"Average Price",
	"% Change",
	"Quantity",
	"Trading Volume (Denars)",
	"Total Volume (Denars)",
}

// RecordHeader returns the CSV column names in emission order.
func RecordHeader() []string {
	return append([]string(nil), recordHeader...)
}

// Row returns the record's values in RecordHeader order.
func (r TradingRecord) Row() []string {
	return []string{
		string(r.IssuerCode),
		r.Date,
		r.LastPrice,
		r.Max,
		r.Min,
		r.AveragePrice,
		r.PercentChange,
		r.Quantity,
		r.TradingVolumeDenars,
		r.TotalVolumeDenars,
	}
}

// RecordFromRow is the inverse of Row.
func RecordFromRow(row []string) (TradingRecord, error) {
	if len(row) != len(recordHeader) {
		return TradingRecord{}, fmt.Errorf("expected %d columns, got %d", len(recordHeader), len(row))
	}
	return TradingRecord{
		IssuerCode:          IssuerCode(row[0]),
		Date:                row[1],
		LastPrice:           row[2],
		Max:                 row[3],
		Min:                 row[4],
		AveragePrice:        row[5],
		PercentChange:       row[6],
		Quantity:            row[7],
		TradingVolumeDenars: row[8],
		TotalVolumeDenars:   row[9],
	}, nil
}
