package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestAmountKey(t *testing.T) {
	tests := []struct {
		amount string
		want   string
	}{
		{amount: "-1500", want: "-1500.00"},
		{amount: "345.5", want: "345.50"},
		{amount: "0.1", want: "0.10"},
	}

	for _, tt := range tests {
		e := LedgerEntry{SignedAmount: decimal.RequireFromString(tt.amount)}
		assert.Equal(t, tt.want, e.AmountKey())
	}
}

func TestDayDelta(t *testing.T) {
	base := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	a := LedgerEntry{Date: base}
	b := LedgerEntry{Date: base.AddDate(0, 0, 4)}

	assert.Equal(t, 4, a.DayDelta(b))
	assert.Equal(t, 4, b.DayDelta(a))
	assert.Equal(t, 0, a.DayDelta(a))
}

func TestNewAuditRef(t *testing.T) {
	assert.Equal(t, "ERP-0000", NewAuditRef(OriginERP, 0))
	assert.Equal(t, "BANK-0042", NewAuditRef(OriginBank, 42))
}

func TestAuditRefLess(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{a: "ERP-0001", b: "ERP-0002", want: true},
		{a: "ERP-0002", b: "ERP-0001", want: false},
		{a: "ERP-0001", b: "ERP-0001", want: false},
		// Past the pad width, row order must still win over byte order.
		{a: NewAuditRef(OriginERP, 9999), b: NewAuditRef(OriginERP, 10000), want: true},
		{a: NewAuditRef(OriginERP, 10000), b: NewAuditRef(OriginERP, 9999), want: false},
		{a: NewAuditRef(OriginBank, 10000), b: NewAuditRef(OriginBank, 10001), want: true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, AuditRefLess(tt.a, tt.b), "%s < %s", tt.a, tt.b)
	}
}

func TestOriginOpposite(t *testing.T) {
	assert.Equal(t, OriginBank, OriginERP.Opposite())
	assert.Equal(t, OriginERP, OriginBank.Opposite())
}

func TestParseConfidence(t *testing.T) {
	tests := []struct {
		input string
		want  Confidence
		ok    bool
	}{
		{input: "high", want: ConfidenceHigh, ok: true},
		{input: "HIGH", want: ConfidenceHigh, ok: true},
		{input: " Medium ", want: ConfidenceMedium, ok: true},
		{input: "low", want: ConfidenceLow, ok: true},
		{input: "certain", ok: false},
		{input: "", ok: false},
	}

	for _, tt := range tests {
		got, ok := ParseConfidence(tt.input)
		assert.Equal(t, tt.ok, ok, "input %q", tt.input)
		if tt.ok {
			assert.Equal(t, tt.want, got)
		}
	}
}
