// Package report renders the three reconciliation output tables to CSV
// files. It is a collaborator of the matching engine: the engine produces
// typed in-memory tables and this package owns their persistence for the
// run.
package report

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/ledgermatch/ledgermatch/internal/engine"
	"github.com/ledgermatch/ledgermatch/internal/model"
)

// Output file names inside the report directory.
const (
	MatchedFile     = "matched.csv"
	PendingERPFile  = "pending_erp.csv"
	PendingBankFile = "pending_bank.csv"
)

// methodOrder fixes the ordering of the matched table: exact matches first,
// then tolerance, then oracle-assisted.
var methodOrder = map[model.Method]int{
	model.MethodExact:         0,
	model.MethodDateTolerance: 1,
	model.MethodAIAssisted:    2,
}

// Writer persists a reconciliation result as CSV tables.
type Writer struct {
	logger *slog.Logger
	dir    string
}

// NewWriter creates a report writer targeting dir, creating it if needed.
func NewWriter(dir string, logger *slog.Logger) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{dir: dir, logger: logger}, nil
}

// Write renders the three tables with stable ordering, so identical results
// produce byte-identical reports.
func (w *Writer) Write(result *engine.Result) error {
	matched := make([]model.MatchResult, len(result.Matched))
	copy(matched, result.Matched)
	sort.Slice(matched, func(i, j int) bool {
		if methodOrder[matched[i].Method] != methodOrder[matched[j].Method] {
			return methodOrder[matched[i].Method] < methodOrder[matched[j].Method]
		}
		return model.AuditRefLess(matched[i].ERPEntry.AuditRef, matched[j].ERPEntry.AuditRef)
	})

	matchedRows := [][]string{{"date_erp", "description_erp", "date_bank", "description_bank", "amount", "method", "rationale"}}
	for _, m := range matched {
		matchedRows = append(matchedRows, []string{
			m.ERPEntry.Date.Format("2006-01-02"),
			m.ERPEntry.Description,
			m.BankEntry.Date.Format("2006-01-02"),
			m.BankEntry.Description,
			m.SignedAmount.StringFixed(2),
			string(m.Method),
			m.Rationale,
		})
	}
	if err := w.writeTable(MatchedFile, matchedRows); err != nil {
		return err
	}

	if err := w.writeTable(PendingERPFile, pendencyRows(result.PendingERP)); err != nil {
		return err
	}
	if err := w.writeTable(PendingBankFile, pendencyRows(result.PendingBank)); err != nil {
		return err
	}

	w.logger.Info("report written",
		"dir", w.dir,
		"matched", len(result.Matched),
		"pending_erp", len(result.PendingERP),
		"pending_bank", len(result.PendingBank))
	return nil
}

func pendencyRows(pendencies []model.Pendency) [][]string {
	sorted := make([]model.Pendency, len(pendencies))
	copy(sorted, pendencies)
	sort.Slice(sorted, func(i, j int) bool {
		return model.AuditRefLess(sorted[i].Entry.AuditRef, sorted[j].Entry.AuditRef)
	})

	rows := [][]string{{"audit_ref", "date", "description", "amount", "reason", "detail"}}
	for _, p := range sorted {
		rows = append(rows, []string{
			p.Entry.AuditRef,
			p.Entry.Date.Format("2006-01-02"),
			p.Entry.Description,
			p.Entry.SignedAmount.StringFixed(2),
			string(p.Reason),
			p.Reason.Describe(),
		})
	}
	return rows
}

func (w *Writer) writeTable(name string, rows [][]string) error {
	path := filepath.Join(w.dir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}

	writer := csv.NewWriter(f)
	if err := writer.WriteAll(rows); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to flush %s: %w", name, err)
	}
	return f.Close()
}
