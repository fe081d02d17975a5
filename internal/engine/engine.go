// Package engine implements the core reconciliation engine pairing ERP and
// bank ledger entries.
package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ledgermatch/ledgermatch/internal/common"
	"github.com/ledgermatch/ledgermatch/internal/model"
)

// Config holds configuration options for the reconciliation engine.
type Config struct {
	// DateToleranceDays is the maximum day delta matched without the oracle.
	DateToleranceDays int
	// EscalationCeilingDays is the maximum day delta the oracle may still be
	// consulted for. Must be >= DateToleranceDays.
	EscalationCeilingDays int
	// AcceptedConfidence is the set of oracle confidence labels that settle
	// a match.
	AcceptedConfidence []model.Confidence
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		DateToleranceDays:     3,
		EscalationCeilingDays: 5,
		AcceptedConfidence:    []model.Confidence{model.ConfidenceHigh},
	}
}

// Validate checks the configuration for internal consistency.
func (c Config) Validate() error {
	if c.DateToleranceDays < 0 {
		return fmt.Errorf("%w: date tolerance must not be negative", common.ErrInvalidConfig)
	}
	if c.EscalationCeilingDays < c.DateToleranceDays {
		return fmt.Errorf("%w: escalation ceiling (%d) must be >= date tolerance (%d)",
			common.ErrInvalidConfig, c.EscalationCeilingDays, c.DateToleranceDays)
	}
	if len(c.AcceptedConfidence) == 0 {
		return fmt.Errorf("%w: accepted confidence set must not be empty", common.ErrInvalidConfig)
	}
	return nil
}

// Stats aggregates counts for the run summary.
type Stats struct {
	TotalERP           int
	TotalBank          int
	ExactMatches       int
	ToleranceMatches   int
	AIMatches          int
	OracleCalls        int
	OracleRejections   int
	EscalationDisabled bool
}

// Result holds the three output tables of a run. Together they partition the
// union of both input ledgers exactly: every entry is consumed by precisely
// one MatchResult or present in precisely one Pendency.
type Result struct {
	Matched     []model.MatchResult
	PendingERP  []model.Pendency
	PendingBank []model.Pendency
	Stats       Stats
}

// Reconciler orchestrates the two matching phases and the pendency
// justification over a single run. A Reconciler is single-use and not safe
// for concurrent runs; the greedy consumption logic depends on strict
// sequential ordering.
type Reconciler struct {
	classifier          Classifier
	logger              *slog.Logger
	progress            func(done, total int)
	cfg                 Config
	accepted            map[model.Confidence]bool
	stats               Stats
	escalationAvailable bool
}

// Option customizes a Reconciler.
type Option func(*Reconciler)

// WithProgress registers a callback invoked once per ERP entry during the
// tolerance phase, for progress display in the CLI.
func WithProgress(fn func(done, total int)) Option {
	return func(r *Reconciler) { r.progress = fn }
}

// New creates a reconciliation engine. classifier may be nil, in which case
// the escalation path is disabled for the whole run.
func New(cfg Config, classifier Classifier, logger *slog.Logger, opts ...Option) (*Reconciler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	accepted := make(map[model.Confidence]bool, len(cfg.AcceptedConfidence))
	for _, c := range cfg.AcceptedConfidence {
		accepted[c] = true
	}

	r := &Reconciler{
		cfg:        cfg,
		classifier: classifier,
		logger:     logger,
		accepted:   accepted,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Run reconciles the two normalized ledgers. The phases are strictly
// sequential: exact matching completes before the tolerance phase begins, and
// every oracle call is synchronous with respect to the entry being processed.
func (r *Reconciler) Run(ctx context.Context, erp, bank []model.LedgerEntry) (*Result, error) {
	r.stats = Stats{TotalERP: len(erp), TotalBank: len(bank)}

	r.logger.Info("starting exact match phase", "erp_entries", len(erp), "bank_entries", len(bank))
	exact, erpLeft, bankLeft := matchExact(erp, bank)
	r.stats.ExactMatches = len(exact)
	r.logger.Info("exact match phase complete",
		"matched", len(exact),
		"erp_left", len(erpLeft),
		"bank_left", len(bankLeft))

	// Pre-flight is checked once; on failure the run proceeds with every
	// escalation candidate rejected (fail closed).
	r.escalationAvailable = r.classifier != nil
	if r.classifier != nil {
		if err := r.classifier.Ping(ctx); err != nil {
			r.escalationAvailable = false
			r.logger.Warn("oracle unavailable, escalation disabled for this run", "error", err)
		}
	}
	r.stats.EscalationDisabled = !r.escalationAvailable

	r.logger.Info("starting tolerance and escalation phase",
		"date_tolerance_days", r.cfg.DateToleranceDays,
		"escalation_ceiling_days", r.cfg.EscalationCeilingDays,
		"escalation_available", r.escalationAvailable)
	tolerant, erpLeft, bankLeft := r.matchTolerance(ctx, erpLeft, bankLeft)
	for _, m := range tolerant {
		if m.Method == model.MethodAIAssisted {
			r.stats.AIMatches++
		} else {
			r.stats.ToleranceMatches++
		}
	}

	result := &Result{
		Matched:     append(exact, tolerant...),
		PendingERP:  justifyPendencies(erpLeft, amountSet(bank)),
		PendingBank: justifyPendencies(bankLeft, amountSet(erp)),
	}

	for _, m := range result.Matched {
		if !m.Complete() {
			return nil, fmt.Errorf("internal error: incomplete match result via %s", m.Method)
		}
	}

	result.Stats = r.stats
	r.logger.Info("reconciliation complete",
		"matched", len(result.Matched),
		"pending_erp", len(result.PendingERP),
		"pending_bank", len(result.PendingBank),
		"oracle_calls", r.stats.OracleCalls)
	return result, nil
}
