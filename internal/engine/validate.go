package engine

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/smurfatcher/harrier/internal/domain"
)

// RequiredColumns are the CSV headers the detection engine expects.
var RequiredColumns = []string{"transaction_id", "sender_id", "receiver_id", "amount", "timestamp"}

const timestampLayout = "2006-01-02 15:04:05"

// CSVStats carries dataset facts observed during validation that the
// engine response does not echo back.
type CSVStats struct {
	Rows      int
	FirstSeen time.Time
	LastSeen  time.Time
}

// TimeSpan renders the observed timestamp range as a whole-hour span.
func (s CSVStats) TimeSpan() string {
	if s.FirstSeen.IsZero() || s.LastSeen.IsZero() || !s.LastSeen.After(s.FirstSeen) {
		return ""
	}
	hours := int(math.Ceil(s.LastSeen.Sub(s.FirstSeen).Hours()))
	return fmt.Sprintf("%dh", hours)
}

// ValidateCSV runs the pre-flight checks on an uploaded transaction file
// before it is sent to the detection engine: required columns, parseable
// positive amounts, parseable timestamps, duplicate transaction IDs.
// Validation problems are reported in the result, never as an error; only
// an unreadable stream fails.
func ValidateCSV(r io.Reader) (*domain.ValidationResult, *CSVStats, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	result := &domain.ValidationResult{
		ColumnsDetected: true,
		TimestampValid:  true,
		AmountNumeric:   true,
		AmountPositive:  true,
	}
	stats := &CSVStats{}

	header, err := reader.Read()
	if err == io.EOF {
		result.ColumnsDetected = false
		result.Errors = append(result.Errors, "file is empty")
		return result, stats, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	colIndex := make(map[string]int, len(header))
	for i, col := range header {
		name := strings.ToLower(strings.TrimSpace(col))
		result.Columns = append(result.Columns, name)
		colIndex[name] = i
	}
	for _, col := range RequiredColumns {
		if _, ok := colIndex[col]; !ok {
			result.ColumnsDetected = false
			result.Errors = append(result.Errors, "missing required column: "+col)
		}
	}
	if !result.ColumnsDetected {
		return result, stats, nil
	}

	txIdx := colIndex["transaction_id"]
	amountIdx := colIndex["amount"]
	tsIdx := colIndex["timestamp"]
	maxIdx := txIdx
	if amountIdx > maxIdx {
		maxIdx = amountIdx
	}
	if tsIdx > maxIdx {
		maxIdx = tsIdx
	}

	seen := make(map[string]bool)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.InvalidRows++
			continue
		}
		if len(record) <= maxIdx {
			result.InvalidRows++
			continue
		}
		result.RowsParsed++
		stats.Rows++

		txID := strings.TrimSpace(record[txIdx])
		if seen[txID] {
			result.DuplicateTxs++
		}
		seen[txID] = true

		amount, err := strconv.ParseFloat(strings.TrimSpace(record[amountIdx]), 64)
		if err != nil {
			result.AmountNumeric = false
		} else if amount <= 0 {
			result.AmountPositive = false
		}

		ts, err := parseTimestamp(strings.TrimSpace(record[tsIdx]))
		if err != nil {
			result.TimestampValid = false
			continue
		}
		if stats.FirstSeen.IsZero() || ts.Before(stats.FirstSeen) {
			stats.FirstSeen = ts
		}
		if ts.After(stats.LastSeen) {
			stats.LastSeen = ts
		}
	}

	if !result.AmountNumeric {
		result.Errors = append(result.Errors, "amount column contains non-numeric values")
	}
	if !result.AmountPositive {
		result.Errors = append(result.Errors, "amount column contains non-positive values")
	}
	if !result.TimestampValid {
		result.Errors = append(result.Errors, "timestamp column contains unparseable values")
	}
	if result.RowsParsed == 0 {
		result.Errors = append(result.Errors, "no data rows found")
	}

	result.OK = result.ColumnsDetected && result.TimestampValid &&
		result.AmountNumeric && result.AmountPositive && result.RowsParsed > 0

	return result, stats, nil
}

func parseTimestamp(s string) (time.Time, error) {
	if ts, err := time.Parse(timestampLayout, s); err == nil {
		return ts, nil
	}
	return time.Parse(time.RFC3339, s)
}
