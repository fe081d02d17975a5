package engine

import (
	"context"
	"fmt"

	"github.com/ledgermatch/ledgermatch/internal/model"
)

// matchTolerance is phase two: a greedy per-entry search over the exact-match
// leftovers. For each unmatched ERP entry, in ascending AuditRef order, bank
// candidates with the identical signed amount are scanned in their own fixed
// order. A candidate within the date tolerance is accepted locally; one
// within the escalation ceiling is referred to the oracle; the first accepted
// candidate wins and both entries are consumed. Greedy, not globally
// optimal: with several plausible equal-amount candidates the lowest bank
// AuditRef wins, a documented and tested tie-break.
func (r *Reconciler) matchTolerance(ctx context.Context, erpLeft, bankLeft []model.LedgerEntry) (matched []model.MatchResult, erpOut, bankOut []model.LedgerEntry) {
	bankByAmount := make(map[string][]model.LedgerEntry)
	for _, b := range bankLeft {
		bankByAmount[b.AmountKey()] = append(bankByAmount[b.AmountKey()], b)
	}
	for key, group := range bankByAmount {
		bankByAmount[key] = sortByAuditRef(group)
	}

	consumedERP := make(map[string]bool)
	consumedBank := make(map[string]bool)

	for i, erpEntry := range sortByAuditRef(erpLeft) {
		if r.progress != nil {
			r.progress(i+1, len(erpLeft))
		}

		for _, candidate := range bankByAmount[erpEntry.AmountKey()] {
			if consumedBank[candidate.AuditRef] {
				continue
			}

			result, ok := r.evaluate(ctx, erpEntry, candidate)
			if !ok {
				continue
			}

			matched = append(matched, result)
			consumedERP[erpEntry.AuditRef] = true
			consumedBank[candidate.AuditRef] = true
			break
		}
	}

	for _, e := range erpLeft {
		if !consumedERP[e.AuditRef] {
			erpOut = append(erpOut, e)
		}
	}
	for _, b := range bankLeft {
		if !consumedBank[b.AuditRef] {
			bankOut = append(bankOut, b)
		}
	}
	return matched, sortByAuditRef(erpOut), sortByAuditRef(bankOut)
}

// evaluate decides a single ERP/bank candidate pair: locally within the date
// tolerance, via the oracle within the escalation ceiling, otherwise
// rejected. Oracle failures are contained here; no error propagates past a
// single candidate.
func (r *Reconciler) evaluate(ctx context.Context, erpEntry, bankEntry model.LedgerEntry) (model.MatchResult, bool) {
	delta := erpEntry.DayDelta(bankEntry)

	if delta <= r.cfg.DateToleranceDays {
		return model.MatchResult{
			ERPEntry:     &erpEntry,
			BankEntry:    &bankEntry,
			Method:       model.MethodDateTolerance,
			Rationale:    fmt.Sprintf("equal value settled with %d day(s) of difference", delta),
			SignedAmount: erpEntry.SignedAmount,
		}, true
	}

	if delta > r.cfg.EscalationCeilingDays || !r.escalationAvailable {
		return model.MatchResult{}, false
	}

	r.stats.OracleCalls++
	r.logger.Info("escalating candidate pair to oracle",
		"erp_ref", erpEntry.AuditRef,
		"bank_ref", bankEntry.AuditRef,
		"day_delta", delta)

	verdict, err := r.classifier.Classify(ctx, erpEntry.Description, bankEntry.Description)
	if err != nil {
		r.stats.OracleRejections++
		r.logger.Error("oracle call failed, candidate rejected",
			"erp_ref", erpEntry.AuditRef,
			"bank_ref", bankEntry.AuditRef,
			"error", err)
		return model.MatchResult{}, false
	}

	if !verdict.IsMatch || !r.accepted[verdict.Confidence] {
		r.stats.OracleRejections++
		r.logger.Info("oracle rejected candidate pair",
			"erp_ref", erpEntry.AuditRef,
			"bank_ref", bankEntry.AuditRef,
			"is_match", verdict.IsMatch,
			"confidence", verdict.Confidence)
		return model.MatchResult{}, false
	}

	return model.MatchResult{
		ERPEntry:     &erpEntry,
		BankEntry:    &bankEntry,
		Method:       model.MethodAIAssisted,
		Rationale:    fmt.Sprintf("[oracle confidence: %s] %s", verdict.Confidence, verdict.Rationale),
		SignedAmount: erpEntry.SignedAmount,
	}, true
}
