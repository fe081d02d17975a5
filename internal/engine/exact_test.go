package engine

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgermatch/ledgermatch/internal/model"
)

func day(offset int) time.Time {
	return time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
}

func entry(origin model.Origin, index int, dayOffset int, description string, amount string) model.LedgerEntry {
	return model.LedgerEntry{
		Date:         day(dayOffset),
		Description:  description,
		SignedAmount: decimal.RequireFromString(amount),
		Origin:       origin,
		AuditRef:     model.NewAuditRef(origin, index),
	}
}

func TestMatchExact(t *testing.T) {
	erp := []model.LedgerEntry{
		entry(model.OriginERP, 0, 0, "PGTO FORNECEDOR ALPHA", "-1500.00"),
		entry(model.OriginERP, 1, 2, "RECEB. CLIENTE BETA", "5000.00"),
		entry(model.OriginERP, 2, 0, "PGTO BOLETO SERVICOS", "-345.50"),
	}
	bank := []model.LedgerEntry{
		entry(model.OriginBank, 0, 0, "DOC ELET FORN ALPHA", "-1500.00"),
		entry(model.OriginBank, 1, 2, "CREDITO TED CLIENTE BETA", "5000.00"),
		entry(model.OriginBank, 2, 1, "COBRANCA BANCARIA", "-345.50"),
	}

	matched, erpLeft, bankLeft := matchExact(erp, bank)

	require.Len(t, matched, 2)
	for _, m := range matched {
		assert.Equal(t, model.MethodExact, m.Method)
		assert.Equal(t, "values and dates coincide exactly", m.Rationale)
		assert.True(t, m.Complete())
		assert.True(t, m.ERPEntry.SignedAmount.Equal(m.BankEntry.SignedAmount))
		assert.True(t, m.ERPEntry.Date.Equal(m.BankEntry.Date))
	}

	require.Len(t, erpLeft, 1)
	assert.Equal(t, "ERP-0002", erpLeft[0].AuditRef)
	require.Len(t, bankLeft, 1)
	assert.Equal(t, "BANK-0002", bankLeft[0].AuditRef)
}

func TestMatchExactOrderIndependent(t *testing.T) {
	erp := []model.LedgerEntry{
		entry(model.OriginERP, 0, 0, "A", "-100.00"),
		entry(model.OriginERP, 1, 0, "B", "-100.00"),
		entry(model.OriginERP, 2, 1, "C", "-200.00"),
	}
	bank := []model.LedgerEntry{
		entry(model.OriginBank, 0, 0, "X", "-100.00"),
		entry(model.OriginBank, 1, 1, "Y", "-200.00"),
	}

	matchedA, erpLeftA, bankLeftA := matchExact(erp, bank)

	// Reverse both input orders; the partition must be identical.
	reversedERP := []model.LedgerEntry{erp[2], erp[1], erp[0]}
	reversedBank := []model.LedgerEntry{bank[1], bank[0]}
	matchedB, erpLeftB, bankLeftB := matchExact(reversedERP, reversedBank)

	require.Equal(t, len(matchedA), len(matchedB))
	for i := range matchedA {
		assert.Equal(t, matchedA[i].ERPEntry.AuditRef, matchedB[i].ERPEntry.AuditRef)
		assert.Equal(t, matchedA[i].BankEntry.AuditRef, matchedB[i].BankEntry.AuditRef)
	}
	assert.Equal(t, erpLeftA, erpLeftB)
	assert.Equal(t, bankLeftA, bankLeftB)
}

func TestMatchExactSameKeyPairsByAuditRef(t *testing.T) {
	// Two ERP and two bank rows share (date, amount); pairing is 1:1 in
	// ascending AuditRef order on both sides.
	erp := []model.LedgerEntry{
		entry(model.OriginERP, 3, 0, "SECOND", "-50.00"),
		entry(model.OriginERP, 1, 0, "FIRST", "-50.00"),
	}
	bank := []model.LedgerEntry{
		entry(model.OriginBank, 7, 0, "LATER", "-50.00"),
		entry(model.OriginBank, 2, 0, "EARLIER", "-50.00"),
	}

	matched, erpLeft, bankLeft := matchExact(erp, bank)

	require.Len(t, matched, 2)
	assert.Empty(t, erpLeft)
	assert.Empty(t, bankLeft)
	assert.Equal(t, "ERP-0001", matched[0].ERPEntry.AuditRef)
	assert.Equal(t, "BANK-0002", matched[0].BankEntry.AuditRef)
	assert.Equal(t, "ERP-0003", matched[1].ERPEntry.AuditRef)
	assert.Equal(t, "BANK-0007", matched[1].BankEntry.AuditRef)
}

func TestSortByAuditRefLargeLedger(t *testing.T) {
	// Row order must survive past the ref pad width.
	entries := []model.LedgerEntry{
		entry(model.OriginERP, 10000, 0, "LATE", "-1.00"),
		entry(model.OriginERP, 9999, 0, "EARLY", "-1.00"),
	}

	sorted := sortByAuditRef(entries)

	assert.Equal(t, "ERP-9999", sorted[0].AuditRef)
	assert.Equal(t, "ERP-10000", sorted[1].AuditRef)
}

func TestMatchExactIdempotent(t *testing.T) {
	erp := []model.LedgerEntry{
		entry(model.OriginERP, 0, 0, "A", "-100.00"),
		entry(model.OriginERP, 1, 3, "B", "-300.00"),
	}
	bank := []model.LedgerEntry{
		entry(model.OriginBank, 0, 0, "X", "-100.00"),
		entry(model.OriginBank, 1, 5, "Y", "-300.00"),
	}

	_, erpLeft, bankLeft := matchExact(erp, bank)
	again, erpLeft2, bankLeft2 := matchExact(erpLeft, bankLeft)

	assert.Empty(t, again, "re-running exact match on its own leftovers must produce no matches")
	assert.Equal(t, erpLeft, erpLeft2)
	assert.Equal(t, bankLeft, bankLeft2)
}
