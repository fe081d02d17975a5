// Package ingest loads raw ledger exports and normalizes them into the
// entries the matching engine consumes. It owns the signed-amount
// derivation, the single 2-decimal rounding, date parsing, audit reference
// assignment and the business-rule validation pass.
package ingest

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ledgermatch/ledgermatch/internal/common"
	"github.com/ledgermatch/ledgermatch/internal/model"
)

// RawRow is one line of a ledger export before normalization. All fields are
// still text; Direction is only present for ERP rows.
type RawRow struct {
	Date        string
	Description string
	Amount      string
	Direction   string
}

// Config holds normalization thresholds.
type Config struct {
	// MaxAbsAmount is the largest plausible absolute amount; rows outside
	// (and zero-amount rows) are dropped as outliers before matching.
	MaxAbsAmount decimal.Decimal
}

// DefaultConfig returns the default ingestion configuration.
func DefaultConfig() Config {
	return Config{MaxAbsAmount: decimal.NewFromInt(1_000_000_000)}
}

// dateLayouts are the accepted export date formats. Time of day is discarded.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"02/01/2006",
}

// Normalize converts raw rows into normalized ledger entries. Rows with
// missing or unparseable fields are dropped with a warning, never fatally;
// every drop is logged with a count. The audit reference is assigned from
// the raw row index, so it stays stable for the run regardless of how many
// earlier rows were dropped.
func Normalize(rows []RawRow, origin model.Origin, cfg Config, logger *slog.Logger) ([]model.LedgerEntry, error) {
	if cfg.MaxAbsAmount.IsZero() {
		cfg = DefaultConfig()
	}

	var entries []model.LedgerEntry
	var droppedNull, droppedUnparseable, droppedOutlier int

	for i, row := range rows {
		description := strings.TrimSpace(row.Description)
		if description == "" || strings.TrimSpace(row.Amount) == "" {
			droppedNull++
			continue
		}

		amount, err := parseAmount(row.Amount)
		if err != nil {
			logger.Warn("row dropped: unparseable amount",
				"origin", origin, "row", i, "amount", row.Amount)
			droppedUnparseable++
			continue
		}

		date, err := parseDate(row.Date)
		if err != nil {
			logger.Warn("row dropped: unparseable date",
				"origin", origin, "row", i, "date", row.Date)
			droppedUnparseable++
			continue
		}

		// Signed-amount derivation: ERP debits negate, credits keep; bank
		// amounts already carry their sign. Rounding to two decimals happens
		// here exactly once and never again.
		signed := deriveSigned(amount, origin, row.Direction).Round(2)

		if signed.IsZero() || signed.Abs().GreaterThan(cfg.MaxAbsAmount) {
			droppedOutlier++
			continue
		}

		entries = append(entries, model.LedgerEntry{
			Date:         date,
			Description:  description,
			SignedAmount: signed,
			Origin:       origin,
			AuditRef:     model.NewAuditRef(origin, i),
		})
	}

	if droppedNull > 0 {
		logger.Warn("rows with null description or amount removed",
			"origin", origin, "count", droppedNull)
	}
	if droppedUnparseable > 0 {
		logger.Warn("unparseable rows removed", "origin", origin, "count", droppedUnparseable)
	}
	if droppedOutlier > 0 {
		logger.Warn("rows removed for suspicious amounts", "origin", origin, "count", droppedOutlier)
	}
	if dupes := countDuplicates(entries); dupes > 0 {
		logger.Warn("duplicate-looking rows detected", "origin", origin, "count", dupes)
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: %s", common.ErrEmptyLedger, origin)
	}

	logger.Info("ledger normalized", "origin", origin, "entries", len(entries), "raw_rows", len(rows))
	return entries, nil
}

// parseAmount reads a decimal amount, accepting a comma decimal separator
// when no dot is present (common in pt-BR exports).
func parseAmount(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if strings.Contains(raw, ",") && !strings.Contains(raw, ".") {
		raw = strings.ReplaceAll(raw, ",", ".")
	}
	return decimal.NewFromString(raw)
}

// parseDate reads a calendar date and discards any time-of-day component.
func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format: %q", raw)
}

// deriveSigned converts a raw (amount, direction) pair into one signed value
// comparable across ledgers.
func deriveSigned(amount decimal.Decimal, origin model.Origin, direction string) decimal.Decimal {
	if origin != model.OriginERP {
		return amount
	}
	switch strings.ToUpper(strings.TrimSpace(direction)) {
	case "D", "DEBIT":
		return amount.Neg()
	default:
		return amount
	}
}

// countDuplicates counts entries sharing (date, amount, description) with at
// least one other entry. Duplicates are flagged, not dropped: they may be
// legitimate repeated movements.
func countDuplicates(entries []model.LedgerEntry) int {
	seen := make(map[string]int, len(entries))
	for _, e := range entries {
		key := e.Date.Format("2006-01-02") + "|" + e.AmountKey() + "|" + e.Description
		seen[key]++
	}
	dupes := 0
	for _, n := range seen {
		if n > 1 {
			dupes += n
		}
	}
	return dupes
}
