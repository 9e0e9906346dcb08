package engine

import (
	"strings"
	"testing"
)

const validCSV = `transaction_id,sender_id,receiver_id,amount,timestamp
TX-1,ACC-1,ACC-2,1500.00,2026-08-01 10:00:00
TX-2,ACC-2,ACC-3,900.50,2026-08-02 11:30:00
TX-3,ACC-3,ACC-1,1200.00,2026-08-04 09:15:00
`

func TestValidateCSVValid(t *testing.T) {
	result, stats, err := ValidateCSV(strings.NewReader(validCSV))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.OK {
		t.Errorf("expected OK, got %+v", result)
	}
	if result.RowsParsed != 3 {
		t.Errorf("expected 3 rows parsed, got %d", result.RowsParsed)
	}
	if result.DuplicateTxs != 0 {
		t.Errorf("expected no duplicates, got %d", result.DuplicateTxs)
	}
	if stats.TimeSpan() != "72h" {
		t.Errorf("expected 72h span, got %s", stats.TimeSpan())
	}
}

func TestValidateCSVMissingColumn(t *testing.T) {
	csv := "transaction_id,sender_id,amount,timestamp\nTX-1,ACC-1,100,2026-08-01 10:00:00\n"

	result, _, err := ValidateCSV(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.OK || result.ColumnsDetected {
		t.Errorf("expected column failure, got %+v", result)
	}
	found := false
	for _, msg := range result.Errors {
		if strings.Contains(msg, "receiver_id") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected missing-column message, got %v", result.Errors)
	}
}

func TestValidateCSVBadAmounts(t *testing.T) {
	csv := validCSV + "TX-4,ACC-1,ACC-2,abc,2026-08-01 12:00:00\nTX-5,ACC-1,ACC-2,-50,2026-08-01 13:00:00\n"

	result, _, err := ValidateCSV(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.OK {
		t.Error("expected validation failure")
	}
	if result.AmountNumeric {
		t.Error("expected non-numeric amount to be flagged")
	}
	if result.AmountPositive {
		t.Error("expected non-positive amount to be flagged")
	}
}

func TestValidateCSVDuplicatesAndBadTimestamps(t *testing.T) {
	csv := validCSV + "TX-1,ACC-4,ACC-5,250,not-a-date\n"

	result, _, err := ValidateCSV(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.DuplicateTxs != 1 {
		t.Errorf("expected 1 duplicate, got %d", result.DuplicateTxs)
	}
	if result.TimestampValid {
		t.Error("expected timestamp failure")
	}
}

func TestValidateCSVAcceptsRFC3339(t *testing.T) {
	csv := "transaction_id,sender_id,receiver_id,amount,timestamp\nTX-1,A,B,100,2026-08-01T10:00:00Z\n"

	result, _, err := ValidateCSV(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.OK {
		t.Errorf("expected RFC3339 timestamps to validate, got %+v", result)
	}
}

func TestValidateCSVEmptyFile(t *testing.T) {
	result, _, err := ValidateCSV(strings.NewReader(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.OK || result.ColumnsDetected {
		t.Errorf("expected empty-file failure, got %+v", result)
	}
}

func TestValidateCSVShortRows(t *testing.T) {
	csv := validCSV + "TX-9,ACC-1\n"

	result, _, err := ValidateCSV(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.InvalidRows != 1 {
		t.Errorf("expected 1 invalid row, got %d", result.InvalidRows)
	}
	if result.RowsParsed != 3 {
		t.Errorf("short row must not count as parsed, got %d", result.RowsParsed)
	}
}
