package ingest

import (
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/aclindsa/ofxgo"
)

// preprocessOFX fixes common formatting issues in OFX files before parsing.
func preprocessOFX(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")

	// Mixed-case SEVERITY values (should be INFO, WARN, or ERROR).
	severityRegex := regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)

	// Missing closing angle brackets in SGML-style OFX files: an opening tag
	// alone at end of line with no closing bracket.
	tagFixRegex := regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
	content = tagFixRegex.ReplaceAllString(content, "$1>")

	return content
}

// LoadOFX reads a bank statement in OFX/QFX format. Amounts in OFX already
// carry their sign, so the rows flow through the same normalization as a
// bank CSV with no direction marker.
func LoadOFX(path string, logger *slog.Logger) ([]RawRow, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(preprocessOFX(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	var rows []RawRow
	statements := 0
	for _, msg := range resp.Bank {
		stmt, ok := msg.(*ofxgo.StatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		statements++
		for _, tx := range stmt.BankTranList.Transactions {
			rows = append(rows, RawRow{
				Date:        tx.DtPosted.Time.Format("2006-01-02"),
				Description: ofxDescription(tx),
				Amount:      tx.TrnAmt.FloatString(2),
			})
		}
	}

	logger.Info("parsed OFX statement", "statements", statements, "rows", len(rows))
	return rows, nil
}

// ofxDescription picks the most informative free-text field of an OFX
// transaction: payee name, then NAME, then MEMO.
func ofxDescription(tx ofxgo.Transaction) string {
	if tx.Payee != nil && tx.Payee.Name != "" {
		return string(tx.Payee.Name)
	}
	name := strings.TrimSpace(string(tx.Name))
	memo := strings.TrimSpace(string(tx.Memo))
	if name == "" {
		return memo
	}
	if memo != "" && len(memo) > len(name) {
		return memo
	}
	return name
}
