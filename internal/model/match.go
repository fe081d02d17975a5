package model

import "github.com/shopspring/decimal"

// Method indicates how a pairing was settled.
type Method string

// Match method constants.
const (
	MethodExact         Method = "EXACT"
	MethodDateTolerance Method = "DATE_TOLERANCE"
	MethodAIAssisted    Method = "AI_ASSISTED"
)

// MatchResult represents one settled pairing between the two ledgers.
// A finished MatchResult always has both sides populated; unmatched entries
// are represented as Pendency records, never as partially populated results.
type MatchResult struct {
	ERPEntry     *LedgerEntry
	BankEntry    *LedgerEntry
	Method       Method
	Rationale    string
	SignedAmount decimal.Decimal
}

// Complete reports whether both sides of the pairing are populated.
func (m MatchResult) Complete() bool {
	return m.ERPEntry != nil && m.BankEntry != nil && m.Rationale != ""
}

// PendencyReason explains why an entry could not be paired.
type PendencyReason string

// Pendency reason constants.
const (
	// ReasonValueAbsent means no entry with this signed amount exists
	// anywhere in the opposite ledger.
	ReasonValueAbsent PendencyReason = "VALUE_ABSENT_ELSEWHERE"
	// ReasonValueRejected means the amount was found on the other side but
	// every candidate failed the date and description checks.
	ReasonValueRejected PendencyReason = "VALUE_PRESENT_BUT_REJECTED"
)

// Describe returns the human-readable explanation for the reason code.
func (r PendencyReason) Describe() string {
	switch r {
	case ReasonValueRejected:
		return "value found in the opposite ledger, but dates or descriptions failed every check"
	case ReasonValueAbsent:
		return "no entry with this value exists in the opposite ledger"
	default:
		return string(r)
	}
}

// Pendency represents one entry left unresolved after both matching phases.
// Created only after matching completes for the entry and never mutated.
type Pendency struct {
	Entry  LedgerEntry
	Reason PendencyReason
}
