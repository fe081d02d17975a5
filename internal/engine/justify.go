package engine

import "github.com/ledgermatch/ledgermatch/internal/model"

// amountSet collects the distinct signed-amount keys of a ledger.
func amountSet(entries []model.LedgerEntry) map[string]struct{} {
	set := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		set[e.AmountKey()] = struct{}{}
	}
	return set
}

// justifyPendencies classifies why each leftover entry stayed unmatched by
// inspecting the original, pre-match opposite ledger: if the signed amount
// appears anywhere over there (even on an already-consumed row) every check
// must have failed; if not, the value simply has no counterpart. Pure and
// read-only.
func justifyPendencies(left []model.LedgerEntry, oppositeAmounts map[string]struct{}) []model.Pendency {
	pendencies := make([]model.Pendency, 0, len(left))
	for _, e := range left {
		reason := model.ReasonValueAbsent
		if _, ok := oppositeAmounts[e.AmountKey()]; ok {
			reason = model.ReasonValueRejected
		}
		pendencies = append(pendencies, model.Pendency{Entry: e, Reason: reason})
	}
	return pendencies
}
