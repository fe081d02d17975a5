package oracle

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ledgermatch/ledgermatch/internal/common"
	"github.com/ledgermatch/ledgermatch/internal/model"
)

// rawVerdict mirrors the structured payload the service is instructed to
// produce. Pointer fields distinguish "absent" from zero values so the
// validation below can reject incomplete answers.
type rawVerdict struct {
	IsMatch    *bool   `json:"isMatch"`
	Confidence *string `json:"confidence"`
	Rationale  *string `json:"rationale"`
}

// ParseVerdict extracts and validates the structured verdict from the raw
// generation text. Validation is layered: the body must be non-empty, a
// brace-delimited payload must parse as JSON, and the payload must carry
// exactly the required fields with the required types. On any violation the
// raw payload is logged at debug level only and ErrInvalidVerdict is
// returned; callers treat that as a rejected candidate.
func ParseVerdict(raw string, logger *slog.Logger) (*model.OracleVerdict, error) {
	verdict, err := parseVerdict(raw)
	if err != nil {
		logger.Error("oracle verdict rejected", "error", err)
		logger.Debug("rejected oracle payload", "payload", raw)
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidVerdict, err)
	}
	return verdict, nil
}

func parseVerdict(raw string) (*model.OracleVerdict, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("empty response body")
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("no JSON object found in response")
	}

	var payload rawVerdict
	if err := json.Unmarshal([]byte(raw[start:end+1]), &payload); err != nil {
		return nil, fmt.Errorf("malformed JSON: %v", err)
	}

	if payload.IsMatch == nil {
		return nil, fmt.Errorf("field %q missing or not a boolean", "isMatch")
	}
	if payload.Confidence == nil {
		return nil, fmt.Errorf("field %q missing", "confidence")
	}
	confidence, ok := model.ParseConfidence(*payload.Confidence)
	if !ok {
		return nil, fmt.Errorf("field %q outside the allowed set: %q", "confidence", *payload.Confidence)
	}
	if payload.Rationale == nil || strings.TrimSpace(*payload.Rationale) == "" {
		return nil, fmt.Errorf("field %q missing or empty", "rationale")
	}

	return &model.OracleVerdict{
		IsMatch:    *payload.IsMatch,
		Confidence: confidence,
		Rationale:  strings.TrimSpace(*payload.Rationale),
	}, nil
}
