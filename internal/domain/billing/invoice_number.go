package billing

import (
	"fmt"
	"time"
)

// CounterKey returns the per-day sequence key for invoice numbering,
// e.g. "invoice:20260829".
func CounterKey(t time.Time) string {
	return "invoice:" + t.Format("20060102")
}

// FormatInvoiceNumber renders a sequence value for a given day as an
// invoice number, e.g. "INV-20260829-0001". Sequences beyond 9999 simply
// widen the suffix.
func FormatInvoiceNumber(t time.Time, sequence int64) string {
	return fmt.Sprintf("INV-%s-%04d", t.Format("20060102"), sequence)
}
