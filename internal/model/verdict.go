package model

import "strings"

// Confidence is the closed set of confidence labels the oracle may return.
type Confidence string

// Confidence labels, normalized to lowercase.
const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// ParseConfidence normalizes a raw label to a member of the closed set.
// Returns false when the label is outside the set.
func ParseConfidence(raw string) (Confidence, bool) {
	switch Confidence(strings.ToLower(strings.TrimSpace(raw))) {
	case ConfidenceHigh:
		return ConfidenceHigh, true
	case ConfidenceMedium:
		return ConfidenceMedium, true
	case ConfidenceLow:
		return ConfidenceLow, true
	default:
		return "", false
	}
}

// OracleVerdict is the validated answer from the external classifier.
// Constructed exclusively by the oracle client after schema validation;
// no other component fabricates one.
type OracleVerdict struct {
	IsMatch    bool
	Confidence Confidence
	Rationale  string
}
