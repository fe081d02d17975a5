package engine

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgermatch/ledgermatch/internal/model"
)

func newTestReconciler(t *testing.T, classifier Classifier) *Reconciler {
	t.Helper()
	r, err := New(DefaultConfig(), classifier, slog.Default())
	require.NoError(t, err)
	return r
}

func TestToleranceBoundary(t *testing.T) {
	tests := []struct {
		name      string
		dayDelta  int
		wantMatch bool
	}{
		{name: "delta below tolerance", dayDelta: 1, wantMatch: true},
		{name: "delta exactly at tolerance", dayDelta: 3, wantMatch: true},
		{name: "delta one past tolerance", dayDelta: 4, wantMatch: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// No classifier: escalation disabled, only the date window decides.
			r := newTestReconciler(t, nil)
			r.escalationAvailable = false

			erpLeft := []model.LedgerEntry{entry(model.OriginERP, 0, 0, "PGTO BOLETO", "-345.50")}
			bankLeft := []model.LedgerEntry{entry(model.OriginBank, 0, tt.dayDelta, "COBRANCA", "-345.50")}

			matched, erpOut, bankOut := r.matchTolerance(context.Background(), erpLeft, bankLeft)

			if tt.wantMatch {
				require.Len(t, matched, 1)
				assert.Equal(t, model.MethodDateTolerance, matched[0].Method)
				assert.Contains(t, matched[0].Rationale, "day")
				assert.Empty(t, erpOut)
				assert.Empty(t, bankOut)
			} else {
				assert.Empty(t, matched)
				require.Len(t, erpOut, 1)
				require.Len(t, bankOut, 1)
			}
		})
	}
}

func TestToleranceRationaleStatesDayDelta(t *testing.T) {
	r := newTestReconciler(t, nil)
	r.escalationAvailable = false

	erpLeft := []model.LedgerEntry{entry(model.OriginERP, 0, 0, "PGTO BOLETO SERVICOS", "-345.50")}
	bankLeft := []model.LedgerEntry{entry(model.OriginBank, 0, 1, "COBRANCA BANCARIA", "-345.50")}

	matched, _, _ := r.matchTolerance(context.Background(), erpLeft, bankLeft)
	require.Len(t, matched, 1)
	assert.Contains(t, matched[0].Rationale, "1 day")
}

func TestToleranceTieBreakLowestBankAuditRef(t *testing.T) {
	// Two equal-amount bank candidates inside the window: the lowest bank
	// AuditRef wins, regardless of which date is closer.
	r := newTestReconciler(t, nil)
	r.escalationAvailable = false

	erpLeft := []model.LedgerEntry{entry(model.OriginERP, 0, 0, "PGTO", "-90.00")}
	bankLeft := []model.LedgerEntry{
		entry(model.OriginBank, 5, 0, "SAME DAY", "-90.00"),
		entry(model.OriginBank, 2, 2, "TWO DAYS OFF", "-90.00"),
	}

	matched, _, bankOut := r.matchTolerance(context.Background(), erpLeft, bankLeft)

	require.Len(t, matched, 1)
	assert.Equal(t, "BANK-0002", matched[0].BankEntry.AuditRef)
	require.Len(t, bankOut, 1)
	assert.Equal(t, "BANK-0005", bankOut[0].AuditRef)
}

func TestToleranceGreedyConsumption(t *testing.T) {
	// The first ERP entry consumes the only candidate; the second finds
	// nothing even though it is also within tolerance.
	r := newTestReconciler(t, nil)
	r.escalationAvailable = false

	erpLeft := []model.LedgerEntry{
		entry(model.OriginERP, 0, 0, "FIRST", "-70.00"),
		entry(model.OriginERP, 1, 1, "SECOND", "-70.00"),
	}
	bankLeft := []model.LedgerEntry{entry(model.OriginBank, 0, 1, "ONLY", "-70.00")}

	matched, erpOut, _ := r.matchTolerance(context.Background(), erpLeft, bankLeft)

	require.Len(t, matched, 1)
	assert.Equal(t, "ERP-0000", matched[0].ERPEntry.AuditRef)
	require.Len(t, erpOut, 1)
	assert.Equal(t, "ERP-0001", erpOut[0].AuditRef)
}

func TestEscalationAcceptsHighConfidenceMatch(t *testing.T) {
	classifier := &MockClassifier{
		Verdicts: map[string]*model.OracleVerdict{
			"CONSULTORIA DE TI SPECIAL|DEBITO PAGAMENTO SERVICO EXT": {
				IsMatch:    true,
				Confidence: model.ConfidenceHigh,
				Rationale:  "both describe the same IT consulting payment",
			},
		},
	}
	r := newTestReconciler(t, classifier)
	r.escalationAvailable = true

	erpLeft := []model.LedgerEntry{entry(model.OriginERP, 0, 0, "CONSULTORIA DE TI SPECIAL", "-1250.00")}
	bankLeft := []model.LedgerEntry{entry(model.OriginBank, 0, 4, "DEBITO PAGAMENTO SERVICO EXT", "-1250.00")}

	matched, erpOut, bankOut := r.matchTolerance(context.Background(), erpLeft, bankLeft)

	require.Len(t, matched, 1)
	assert.Equal(t, model.MethodAIAssisted, matched[0].Method)
	assert.Contains(t, matched[0].Rationale, "high")
	assert.Contains(t, matched[0].Rationale, "IT consulting")
	assert.Empty(t, erpOut)
	assert.Empty(t, bankOut)
	assert.Len(t, classifier.Calls, 1)
}

func TestEscalationRejectsLowConfidence(t *testing.T) {
	classifier := &MockClassifier{
		DefaultVerdict: &model.OracleVerdict{
			IsMatch:    true,
			Confidence: model.ConfidenceLow,
			Rationale:  "maybe",
		},
	}
	r := newTestReconciler(t, classifier)
	r.escalationAvailable = true

	erpLeft := []model.LedgerEntry{entry(model.OriginERP, 0, 0, "A", "-10.00")}
	bankLeft := []model.LedgerEntry{entry(model.OriginBank, 0, 4, "B", "-10.00")}

	matched, erpOut, bankOut := r.matchTolerance(context.Background(), erpLeft, bankLeft)

	assert.Empty(t, matched)
	require.Len(t, erpOut, 1)
	require.Len(t, bankOut, 1)
	assert.Equal(t, 1, r.stats.OracleRejections)
}

func TestEscalationSkippedOutsideCeiling(t *testing.T) {
	classifier := &MockClassifier{
		DefaultVerdict: &model.OracleVerdict{IsMatch: true, Confidence: model.ConfidenceHigh, Rationale: "yes"},
	}
	r := newTestReconciler(t, classifier)
	r.escalationAvailable = true

	erpLeft := []model.LedgerEntry{entry(model.OriginERP, 0, 0, "A", "-10.00")}
	bankLeft := []model.LedgerEntry{entry(model.OriginBank, 0, 6, "B", "-10.00")}

	matched, _, _ := r.matchTolerance(context.Background(), erpLeft, bankLeft)

	assert.Empty(t, matched)
	assert.Empty(t, classifier.Calls, "no oracle call for deltas past the escalation ceiling")
}

func TestEscalationNoOracleCallWithinTolerance(t *testing.T) {
	classifier := &MockClassifier{}
	r := newTestReconciler(t, classifier)
	r.escalationAvailable = true

	erpLeft := []model.LedgerEntry{entry(model.OriginERP, 0, 0, "A", "-10.00")}
	bankLeft := []model.LedgerEntry{entry(model.OriginBank, 0, 2, "B", "-10.00")}

	matched, _, _ := r.matchTolerance(context.Background(), erpLeft, bankLeft)

	require.Len(t, matched, 1)
	assert.Equal(t, model.MethodDateTolerance, matched[0].Method)
	assert.Empty(t, classifier.Calls)
}

func TestEscalationOracleErrorContinuesToNextCandidate(t *testing.T) {
	// First candidate triggers a transient oracle failure; the scan moves on
	// and the second candidate is accepted. The run never aborts.
	classifier := &MockClassifier{
		Err: errors.New("connection refused"),
		Verdicts: map[string]*model.OracleVerdict{
			"PGTO|GOOD": {IsMatch: true, Confidence: model.ConfidenceHigh, Rationale: "same payment"},
		},
	}
	r := newTestReconciler(t, classifier)
	r.escalationAvailable = true

	erpLeft := []model.LedgerEntry{entry(model.OriginERP, 0, 0, "PGTO", "-10.00")}
	bankLeft := []model.LedgerEntry{
		entry(model.OriginBank, 0, 4, "BAD", "-10.00"),
		entry(model.OriginBank, 1, 5, "GOOD", "-10.00"),
	}

	matched, _, _ := r.matchTolerance(context.Background(), erpLeft, bankLeft)

	require.Len(t, matched, 1)
	assert.Equal(t, "BANK-0001", matched[0].BankEntry.AuditRef)
	assert.Len(t, classifier.Calls, 2)
}
