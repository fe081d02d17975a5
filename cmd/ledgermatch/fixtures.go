package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/ledgermatch/ledgermatch/internal/cli"
)

func fixturesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fixtures",
		Short: "Generate synthetic scenario ledgers for manual testing",
		Long: `Generate a pair of small CSV ledgers covering the canonical scenarios:
an exact match, a one-day tolerance match, an exact credit match, an
ERP-only pendency, a bank-fee pendency, and a four-day pair that only the
classification oracle can settle.`,
		RunE: runFixtures,
	}

	cmd.Flags().String("dir", "testdata", "directory for the generated ledgers")
	cmd.Flags().String("base-date", "2025-01-10", "anchor date for the scenarios (YYYY-MM-DD)")

	return cmd
}

func runFixtures(cmd *cobra.Command, _ []string) error {
	dir, _ := cmd.Flags().GetString("dir")
	baseRaw, _ := cmd.Flags().GetString("base-date")

	base, err := time.Parse("2006-01-02", baseRaw)
	if err != nil {
		return fmt.Errorf("invalid base date %q: %w", baseRaw, err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create fixture directory: %w", err)
	}

	day := func(offset int) string {
		return base.AddDate(0, 0, offset).Format("2006-01-02")
	}

	erpRows := [][]string{
		{"date", "description", "amount", "direction"},
		// Exact match.
		{day(0), "PGTO FORNECEDOR ALPHA", "1500.00", "D"},
		// One-day tolerance match.
		{day(0), "PGTO BOLETO SERVICOS", "345.50", "D"},
		// Exact credit match.
		{day(2), "RECEB. CLIENTE BETA", "5000.00", "C"},
		// No bank counterpart at all.
		{day(5), "PGTO MANUTENCAO PENDENTE", "200.00", "D"},
		// Four days apart with a different description: the oracle's case.
		{day(0), "CONSULTORIA DE TI SPECIAL", "1250.00", "D"},
	}

	bankRows := [][]string{
		{"date", "description", "amount"},
		{day(0), "DOC ELET FORN ALPHA", "-1500.00"},
		{day(1), "COBRANCA BANCARIA", "-345.50"},
		{day(2), "CREDITO TED CLIENTE BETA", "5000.00"},
		// Bank fee with no ERP counterpart.
		{day(3), "TARIFA CESTA SERVICOS", "-55.90"},
		{day(4), "DEBITO PAGAMENTO SERVICO EXT", "-1250.00"},
	}

	if err := writeFixture(filepath.Join(dir, "erp_ledger.csv"), erpRows); err != nil {
		return err
	}
	if err := writeFixture(filepath.Join(dir, "bank_statement.csv"), bankRows); err != nil {
		return err
	}

	fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("Scenario ledgers written to %s", dir)))
	return nil
}

func writeFixture(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	writer := csv.NewWriter(f)
	if err := writer.WriteAll(rows); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
