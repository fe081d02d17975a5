package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/ledgermatch/ledgermatch/internal/common"
	"github.com/ledgermatch/ledgermatch/internal/model"
)

// Canonical column names after header normalization.
const (
	colDate        = "date"
	colDescription = "description"
	colAmount      = "amount"
	colDirection   = "direction"
)

// headerAliases maps normalized export headers to canonical columns. The
// Portuguese names cover the ERP (Protheus) and bank exports this tool was
// built around.
var headerAliases = map[string]string{
	"date":        colDate,
	"data":        colDate,
	"dtmov":       colDate,
	"description": colDescription,
	"descricao":   colDescription,
	"historico":   colDescription,
	"memo":        colDescription,
	"amount":      colAmount,
	"valor":       colAmount,
	"value":       colAmount,
	"direction":   colDirection,
	"natureza":    colDirection,
	"dc":          colDirection,
}

// accentStripper decomposes characters and removes combining marks, so
// "Histórico" and "Descrição" normalize cleanly.
var accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// normalizeHeader lowercases a header cell and strips accents and spacing.
func normalizeHeader(header string) string {
	stripped, _, err := transform.String(accentStripper, header)
	if err != nil {
		stripped = header
	}
	stripped = strings.ToLower(strings.TrimSpace(stripped))
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '.' || r == '_' {
			return -1
		}
		return r
	}, stripped)
}

// LoadCSV reads a ledger export with a header row. Required columns are
// date, description and amount, plus the direction marker for ERP exports;
// a missing column is fatal to the run and reported by name.
func LoadCSV(path string, origin model.Origin) ([]RawRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s ledger: %w", origin, err)
	}
	defer func() { _ = f.Close() }()

	return parseCSV(f, origin)
}

func parseCSV(r io.Reader, origin model.Origin) ([]RawRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, cell := range header {
		if canonical, ok := headerAliases[normalizeHeader(cell)]; ok {
			if _, exists := index[canonical]; !exists {
				index[canonical] = i
			}
		}
	}

	required := []string{colDate, colDescription, colAmount}
	if origin == model.OriginERP {
		required = append(required, colDirection)
	}
	var missing []string
	for _, col := range required {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s ledger lacks %s",
			common.ErrMissingColumn, origin, strings.Join(missing, ", "))
	}

	cell := func(record []string, col string) string {
		i, ok := index[col]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}

	var rows []RawRow
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s ledger row: %w", origin, err)
		}
		rows = append(rows, RawRow{
			Date:        cell(record, colDate),
			Description: cell(record, colDescription),
			Amount:      cell(record, colAmount),
			Direction:   cell(record, colDirection),
		})
	}
	return rows, nil
}
