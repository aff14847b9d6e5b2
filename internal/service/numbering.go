package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Invoice numbers look like INV-20240115-0001: a date prefix plus a
// zero-padded sequence that restarts every calendar day. The sequence keeps
// growing past 9999 without truncation.
const invoiceSequenceDigits = 4

// invoiceNumberPrefix returns the date-scoped prefix for new invoice numbers.
func invoiceNumberPrefix(t time.Time) string {
	return "INV-" + t.Format("20060102") + "-"
}

// nextInvoiceNumber derives the next number in sequence after last, which is
// the highest existing number for the prefix ("" when the day has none).
// Deriving the number is a check-then-act step; the unique constraint on
// invoice_number is the final arbiter and collisions are retried by the
// coordinator.
func nextInvoiceNumber(prefix, last string) (string, error) {
	sequence := 1

	if last != "" {
		raw := strings.TrimPrefix(last, prefix)
		if raw == last {
			return "", fmt.Errorf("invoice number %q does not match prefix %q", last, prefix)
		}
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return "", fmt.Errorf("malformed invoice number %q: %w", last, err)
		}
		sequence = parsed + 1
	}

	return fmt.Sprintf("%s%0*d", prefix, invoiceSequenceDigits, sequence), nil
}
