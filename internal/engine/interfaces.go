package engine

import (
	"context"

	"github.com/ledgermatch/ledgermatch/internal/model"
)

// Classifier defines the contract for the external classification oracle.
// The matching engine depends on this capability, never on the transport
// details of the underlying service.
type Classifier interface {
	// Ping reports whether the oracle is usable for this run. Checked once
	// at the start of the escalation phase; a failure disables every oracle
	// call for the remainder of the run.
	Ping(ctx context.Context) error
	// Classify judges whether two transaction descriptions refer to the
	// same economic event. Implementations return either a validated
	// verdict or an error; a nil error implies a non-nil verdict.
	Classify(ctx context.Context, descriptionA, descriptionB string) (*model.OracleVerdict, error)
}
