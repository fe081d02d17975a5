package engine

import (
	"sort"

	"github.com/ledgermatch/ledgermatch/internal/model"
)

// exactRationale is the fixed audit justification for phase-one matches.
const exactRationale = "values and dates coincide exactly"

// matchExact performs an outer equi-join of both ledgers keyed on
// (date, signed amount). Entries present on both sides are settled
// immediately; the rest are returned as candidates for the tolerance phase.
//
// The pairing is a pure function of its inputs: keys are visited in sorted
// order and entries sharing a key are paired 1:1 in ascending AuditRef
// order, so identical ledgers always yield identical partitions regardless
// of input row order.
func matchExact(erp, bank []model.LedgerEntry) (matched []model.MatchResult, erpLeft, bankLeft []model.LedgerEntry) {
	exactKey := func(e model.LedgerEntry) string {
		return e.Date.Format("2006-01-02") + "|" + e.AmountKey()
	}

	erpByKey := make(map[string][]model.LedgerEntry)
	for _, e := range erp {
		erpByKey[exactKey(e)] = append(erpByKey[exactKey(e)], e)
	}
	bankByKey := make(map[string][]model.LedgerEntry)
	for _, e := range bank {
		bankByKey[exactKey(e)] = append(bankByKey[exactKey(e)], e)
	}

	keys := make([]string, 0, len(erpByKey))
	for k := range erpByKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		erpGroup := sortByAuditRef(erpByKey[key])
		bankGroup := sortByAuditRef(bankByKey[key])

		n := len(erpGroup)
		if len(bankGroup) < n {
			n = len(bankGroup)
		}
		for i := 0; i < n; i++ {
			erpEntry := erpGroup[i]
			bankEntry := bankGroup[i]
			matched = append(matched, model.MatchResult{
				ERPEntry:     &erpEntry,
				BankEntry:    &bankEntry,
				Method:       model.MethodExact,
				Rationale:    exactRationale,
				SignedAmount: erpEntry.SignedAmount,
			})
		}
		erpLeft = append(erpLeft, erpGroup[n:]...)
		bankLeft = append(bankLeft, bankGroup[n:]...)
		delete(bankByKey, key)
	}

	// Bank keys with no ERP counterpart at all.
	for _, group := range bankByKey {
		bankLeft = append(bankLeft, group...)
	}

	return sortResults(matched), sortByAuditRef(erpLeft), sortByAuditRef(bankLeft)
}

// sortByAuditRef returns a copy of entries in ascending AuditRef order, the
// fixed iteration order every phase relies on for reproducibility.
func sortByAuditRef(entries []model.LedgerEntry) []model.LedgerEntry {
	out := make([]model.LedgerEntry, len(entries))
	copy(out, entries)
	sort.Slice(out, func(i, j int) bool { return model.AuditRefLess(out[i].AuditRef, out[j].AuditRef) })
	return out
}

// sortResults orders match results by the ERP side's AuditRef.
func sortResults(results []model.MatchResult) []model.MatchResult {
	sort.Slice(results, func(i, j int) bool {
		return model.AuditRefLess(results[i].ERPEntry.AuditRef, results[j].ERPEntry.AuditRef)
	})
	return results
}
