package engine

import (
	"context"
	"sync"

	"github.com/ledgermatch/ledgermatch/internal/model"
)

// MockClassifier is a test double for the classification oracle.
type MockClassifier struct {
	mu sync.Mutex

	// PingErr is returned by Ping; nil means the oracle is available.
	PingErr error
	// Verdicts maps "descriptionA|descriptionB" to a canned verdict.
	Verdicts map[string]*model.OracleVerdict
	// Err is returned by Classify for pairs without a canned verdict.
	Err error
	// DefaultVerdict is returned when no canned verdict exists and Err is nil.
	DefaultVerdict *model.OracleVerdict

	// Calls records every pair Classify was asked about, in order.
	Calls []string
}

// Ping implements the Classifier interface.
func (m *MockClassifier) Ping(_ context.Context) error {
	return m.PingErr
}

// Classify implements the Classifier interface.
func (m *MockClassifier) Classify(_ context.Context, descriptionA, descriptionB string) (*model.OracleVerdict, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := descriptionA + "|" + descriptionB
	m.Calls = append(m.Calls, key)

	if v, ok := m.Verdicts[key]; ok {
		return v, nil
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if m.DefaultVerdict != nil {
		return m.DefaultVerdict, nil
	}
	return &model.OracleVerdict{IsMatch: false, Confidence: model.ConfidenceLow, Rationale: "no resemblance"}, nil
}
