// Package model defines the core domain models used throughout the application.
package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Origin identifies which ledger an entry came from.
type Origin string

// Ledger origins.
const (
	OriginERP  Origin = "ERP"
	OriginBank Origin = "BANK"
)

// Opposite returns the other ledger's origin.
func (o Origin) Opposite() Origin {
	if o == OriginERP {
		return OriginBank
	}
	return OriginERP
}

// LedgerEntry represents a single normalized line of either ledger.
// Entries are immutable once normalized; identity is carried by AuditRef
// alone, since duplicate (date, amount) rows are legal in both ledgers.
type LedgerEntry struct {
	Date         time.Time
	Description  string
	SignedAmount decimal.Decimal
	Origin       Origin
	AuditRef     string
}

// NewAuditRef builds the stable run-scoped identifier for an entry:
// origin plus the row index assigned at normalization.
func NewAuditRef(origin Origin, index int) string {
	return fmt.Sprintf("%s-%04d", origin, index)
}

// AuditRefLess orders two audit references from the same ledger by ascending
// row index. The zero padding keeps refs lexicographic up to the pad width;
// past it the longer ref carries the larger index, so length decides first
// and "ERP-10000" still sorts after "ERP-9999".
func AuditRefLess(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}

// AmountKey returns the canonical grouping key for the signed amount.
// Amounts are rounded to two decimals exactly once at ingestion, so the
// fixed two-decimal rendering is a total key over comparable values.
func (e LedgerEntry) AmountKey() string {
	return e.SignedAmount.StringFixed(2)
}

// DayDelta returns the absolute difference in calendar days between this
// entry's date and the other entry's date.
func (e LedgerEntry) DayDelta(other LedgerEntry) int {
	d := e.Date.Sub(other.Date).Hours() / 24
	if d < 0 {
		d = -d
	}
	return int(d)
}
