package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ledgermatch/ledgermatch/internal/cli"
	"github.com/ledgermatch/ledgermatch/internal/common"
	"github.com/ledgermatch/ledgermatch/internal/engine"
	"github.com/ledgermatch/ledgermatch/internal/ingest"
	"github.com/ledgermatch/ledgermatch/internal/model"
	"github.com/ledgermatch/ledgermatch/internal/oracle"
	"github.com/ledgermatch/ledgermatch/internal/report"
)

func reconcileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Reconcile an ERP export against a bank statement",
		Long: `Reconcile pairs entries of an ERP transaction export with entries of a
bank statement export and writes the three result tables (matched,
pending-ERP, pending-bank) as CSV files.

The bank file may be a CSV export or an OFX/QFX statement.

Examples:
  ledgermatch reconcile --erp erp.csv --bank statement.csv
  ledgermatch reconcile --erp erp.csv --bank statement.ofx --out reports/
  ledgermatch reconcile --erp erp.csv --bank statement.csv --no-oracle`,
		RunE: runReconcile,
	}

	cmd.Flags().String("erp", "", "path to the ERP ledger export (CSV)")
	cmd.Flags().String("bank", "", "path to the bank statement export (CSV or OFX/QFX)")
	cmd.Flags().String("out", "output", "directory for the report tables")
	cmd.Flags().Bool("no-oracle", false, "disable the classification oracle for this run")
	_ = cmd.MarkFlagRequired("erp")
	_ = cmd.MarkFlagRequired("bank")

	_ = viper.BindPFlag("reconcile.erp", cmd.Flags().Lookup("erp"))
	_ = viper.BindPFlag("reconcile.bank", cmd.Flags().Lookup("bank"))
	_ = viper.BindPFlag("reconcile.out", cmd.Flags().Lookup("out"))
	_ = viper.BindPFlag("reconcile.no_oracle", cmd.Flags().Lookup("no-oracle"))

	return cmd
}

func runReconcile(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	logger := slog.Default()

	erpEntries, bankEntries, err := loadLedgers(logger)
	if err != nil {
		// Load errors are fatal: no matching, no partial report.
		return err
	}

	engineCfg, err := buildEngineConfig()
	if err != nil {
		return err
	}

	var classifier engine.Classifier
	if !viper.GetBool("reconcile.no_oracle") {
		client, oracleErr := oracle.NewClient(oracleConfig(), logger)
		if oracleErr != nil {
			return fmt.Errorf("failed to create oracle client: %w", oracleErr)
		}
		classifier = client
	}

	bar := progressbar.NewOptions(len(erpEntries),
		progressbar.OptionSetDescription("matching"),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionShowCount(),
	)

	reconciler, err := engine.New(engineCfg, classifier, logger,
		engine.WithProgress(func(done, total int) {
			bar.ChangeMax(total)
			_ = bar.Set(done)
		}))
	if err != nil {
		return err
	}

	result, err := reconciler.Run(ctx, erpEntries, bankEntries)
	if err != nil {
		return fmt.Errorf("reconciliation failed: %w", err)
	}
	_ = bar.Finish()

	outDir := viper.GetString("reconcile.out")
	writer, err := report.NewWriter(outDir, logger)
	if err != nil {
		return err
	}
	if err := writer.Write(result); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	printSummary(result, outDir)
	return nil
}

// loadLedgers reads and normalizes both inputs. Any failure here aborts the
// run before matching starts.
func loadLedgers(logger *slog.Logger) (erp, bank []model.LedgerEntry, err error) {
	maxAmount, err := decimal.NewFromString(viper.GetString("reconcile.max_amount"))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: reconcile.max_amount: %v", common.ErrInvalidConfig, err)
	}
	ingestCfg := ingest.Config{MaxAbsAmount: maxAmount}

	erpRows, err := ingest.LoadCSV(viper.GetString("reconcile.erp"), model.OriginERP)
	if err != nil {
		return nil, nil, err
	}
	erp, err = ingest.Normalize(erpRows, model.OriginERP, ingestCfg, logger)
	if err != nil {
		return nil, nil, err
	}

	bankPath := viper.GetString("reconcile.bank")
	var bankRows []ingest.RawRow
	switch strings.ToLower(filepath.Ext(bankPath)) {
	case ".ofx", ".qfx":
		bankRows, err = ingest.LoadOFX(bankPath, logger)
	default:
		bankRows, err = ingest.LoadCSV(bankPath, model.OriginBank)
	}
	if err != nil {
		return nil, nil, err
	}
	bank, err = ingest.Normalize(bankRows, model.OriginBank, ingestCfg, logger)
	if err != nil {
		return nil, nil, err
	}

	return erp, bank, nil
}

func buildEngineConfig() (engine.Config, error) {
	cfg := engine.Config{
		DateToleranceDays:     viper.GetInt("reconcile.date_tolerance_days"),
		EscalationCeilingDays: viper.GetInt("reconcile.escalation_ceiling_days"),
	}
	for _, raw := range viper.GetStringSlice("reconcile.accepted_confidence") {
		confidence, ok := model.ParseConfidence(raw)
		if !ok {
			return engine.Config{}, fmt.Errorf("%w: unknown confidence label %q", common.ErrInvalidConfig, raw)
		}
		cfg.AcceptedConfidence = append(cfg.AcceptedConfidence, confidence)
	}
	return cfg, cfg.Validate()
}

func oracleConfig() oracle.Config {
	return oracle.Config{
		Provider:      viper.GetString("oracle.provider"),
		BaseURL:       viper.GetString("oracle.base_url"),
		Model:         viper.GetString("oracle.model"),
		APIKey:        viper.GetString("oracle.api_key"),
		Timeout:       viper.GetDuration("oracle.timeout"),
		MaxInputChars: viper.GetInt("oracle.max_input_chars"),
		Seed:          viper.GetInt("oracle.seed"),
	}
}

func printSummary(result *engine.Result, outDir string) {
	stats := result.Stats

	fmt.Println(cli.TitleStyle.Render("Reconciliation complete"))
	fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("  Matched:        %d", len(result.Matched))))
	fmt.Println(cli.SubtleStyle.Render(fmt.Sprintf("    exact:          %d", stats.ExactMatches)))
	fmt.Println(cli.SubtleStyle.Render(fmt.Sprintf("    date tolerance: %d", stats.ToleranceMatches)))
	fmt.Println(cli.SubtleStyle.Render(fmt.Sprintf("    oracle:         %d", stats.AIMatches)))
	fmt.Println(cli.WarningStyle.Render(fmt.Sprintf("  Pending ERP:    %d", len(result.PendingERP))))
	fmt.Println(cli.WarningStyle.Render(fmt.Sprintf("  Pending bank:   %d", len(result.PendingBank))))
	if stats.OracleCalls > 0 {
		fmt.Println(cli.SubtleStyle.Render(fmt.Sprintf("  Oracle calls:   %d (%d rejected)", stats.OracleCalls, stats.OracleRejections)))
	}
	if stats.EscalationDisabled {
		fmt.Println(cli.ErrorStyle.Render("  Oracle escalation was unavailable for this run"))
	}
	fmt.Println(cli.BoldStyle.Render(fmt.Sprintf("  Report: %s", outDir)))
}
